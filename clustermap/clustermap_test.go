package clustermap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pojeda/infomap/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadClusterData_TreeFile(t *testing.T) {
	path := writeFile(t, "network.tree", sampleTree)

	cm, err := ReadClusterData(path, true, nil)
	require.NoError(t, err)
	assert.Equal(t, "tree", cm.Extension)
	assert.Len(t, cm.NodePaths, 4)
	assert.Equal(t, "# Codelength = 3.46227314 bits.", cm.Header)
}

func TestReadClusterData_FtreeUsesTreeParser(t *testing.T) {
	path := writeFile(t, "network.ftree", sampleTree)

	cm, err := ReadClusterData(path, false, nil)
	require.NoError(t, err)
	assert.Equal(t, "ftree", cm.Extension)
	assert.Len(t, cm.NodePaths, 4)
}

func TestReadClusterData_CluFile(t *testing.T) {
	path := writeFile(t, "partition.clu", "1 2\n2 2\n3 1\n")

	cm, err := ReadClusterData(path, false, nil)
	require.NoError(t, err)
	assert.Equal(t, "clu", cm.Extension)
	assert.Equal(t, ClusterIDs{1: 2, 2: 2, 3: 1}, cm.Clusters)
}

func TestReadClusterData_UnsupportedExtension(t *testing.T) {
	// Dispatch fails before any file content is read, so the file does not
	// even need to exist.
	_, err := ReadClusterData("results.txt", false, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnsupportedFormat)
	assert.Contains(t, err.Error(), "results.txt")
	assert.Contains(t, err.Error(), `"txt"`)

	_, err = ReadClusterData("noextension", false, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnsupportedFormat)
}

func TestReadClusterData_MissingFile(t *testing.T) {
	_, err := ReadClusterData(filepath.Join(t.TempDir(), "absent.tree"), false, nil)
	require.Error(t, err)
	assert.False(t, errors.IsInvalid(err), "IO errors are not format errors")
}

func TestReadClusterData_ParseErrorNamesFile(t *testing.T) {
	path := writeFile(t, "bad.tree", "1:0 0.5 \"a\" 1\n")

	_, err := ReadClusterData(path, false, nil)
	require.Error(t, err)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, path, pe.File)
	assert.Equal(t, 1, pe.LineNr)
}

func TestReadClusterData_MultilayerSharedRemap(t *testing.T) {
	remap := MultilayerMap{1: {10: 100}}

	treePath := writeFile(t, "net.tree", "1:1 0.5 \"a\" 1 10 1\n1:2 0.5 \"b\" 2 20 1\n")
	cluPath := writeFile(t, "net.clu", "1 4 0.5 10 1\n2 5 0.5 20 1\n")

	tree, err := ReadClusterData(treePath, false, remap)
	require.NoError(t, err)
	require.Len(t, tree.NodePaths, 1)
	assert.Equal(t, uint64(100), tree.NodePaths[0].StateID)

	clu, err := ReadClusterData(cluPath, false, remap)
	require.NoError(t, err)
	assert.Equal(t, ClusterIDs{100: 4}, clu.Clusters)

	// The remap table is read-only input and must not be touched.
	assert.Equal(t, MultilayerMap{1: {10: 100}}, remap)
}
