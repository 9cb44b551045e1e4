package engine

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fakeEngineScript = `#!/bin/sh
input="$1"
outdir="$2"
echo "reading $input"
base=$(basename "$input")
base="${base%.*}"
printf '1 2\n2 2\n3 1\n' > "$outdir/$base.clu"
printf '# Codelength = 1.0 bits.\n1:1 0.5 "a" 1\n1:2 0.5 "b" 2\n' > "$outdir/$base.tree"
echo "done"
`

func writeFakeEngine(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-engine")
	require.NoError(t, os.WriteFile(path, []byte(fakeEngineScript), 0o755))
	return path
}

func TestExecRunner_Run(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script runner fake")
	}

	runner := &ExecRunner{Command: writeFakeEngine(t)}

	var lines []string
	job := &Job{ID: 1, Filename: "toy.net", Content: "*Vertices 3\n"}
	result, err := runner.Run(context.Background(), job, func(text string) {
		lines = append(lines, text)
	})
	require.NoError(t, err)

	assert.Contains(t, lines, "done")
	assert.Equal(t, "1 2\n2 2\n3 1\n", result.Clu)
	assert.Contains(t, result.Tree, "# Codelength = 1.0 bits.")
	assert.Empty(t, result.Ftree)

	// Collected outputs feed straight back into the loader
	cm, err := result.ClusterMap("clu", false, nil)
	require.NoError(t, err)
	assert.Len(t, cm.Clusters, 3)
}

// longLineScript emits a single output line of $LINE_BYTES bytes before
// writing its result file
const longLineScript = `#!/bin/sh
input="$1"
outdir="$2"
head -c "$LINE_BYTES" /dev/zero | tr '\0' 'x'
echo
base=$(basename "$input")
base="${base%.*}"
printf '1 2\n' > "$outdir/$base.clu"
`

func writeLongLineEngine(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "long-line-engine")
	require.NoError(t, os.WriteFile(path, []byte(longLineScript), 0o755))
	return path
}

func runWithDeadline(t *testing.T, runner *ExecRunner, job *Job, progress func(string)) (*Result, error) {
	t.Helper()

	type outcome struct {
		result *Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := runner.Run(context.Background(), job, progress)
		done <- outcome{result, err}
	}()

	select {
	case out := <-done:
		return out.result, out.err
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return")
		return nil, nil
	}
}

func TestExecRunner_LongOutputLine(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script runner fake")
	}
	t.Setenv("LINE_BYTES", "300000")

	runner := &ExecRunner{Command: writeLongLineEngine(t)}

	var longest int
	result, err := runWithDeadline(t, runner, &Job{ID: 1, Filename: "toy.net"}, func(text string) {
		if len(text) > longest {
			longest = len(text)
		}
	})
	require.NoError(t, err)
	assert.Equal(t, 300000, longest)
	assert.Equal(t, "1 2\n", result.Clu)
}

func TestExecRunner_OversizedOutputLineFailsWithoutHanging(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script runner fake")
	}
	t.Setenv("LINE_BYTES", "2000000")

	runner := &ExecRunner{Command: writeLongLineEngine(t)}

	_, err := runWithDeadline(t, runner, &Job{ID: 1, Filename: "toy.net"}, nil)
	require.Error(t, err)
}

func TestExecRunner_MissingBinary(t *testing.T) {
	runner := &ExecRunner{Command: "/nonexistent/engine"}
	_, err := runner.Run(context.Background(), &Job{ID: 1}, nil)
	require.Error(t, err)
}

func TestCollectOutputs_NoFiles(t *testing.T) {
	dir := t.TempDir()
	_, err := collectOutputs(dir, filepath.Join(dir, "input", "x.net"))
	require.Error(t, err)
}
