package clustermap

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pojeda/infomap/errors"
)

// Path is a node's location in the module hierarchy: 1-based child indices
// from the root down to the leaf.
type Path []uint64

// NodePath pairs a state node with its module path. The order of NodePath
// records matches file line order; downstream tree reconstruction relies on
// first-seen order.
type NodePath struct {
	StateID uint64
	Path    Path
}

// FlowData maps state ids to flow values. Last write wins on duplicates.
type FlowData map[uint64]float64

// ClusterIDs maps state ids to flat module assignments. Last write wins on
// duplicates.
type ClusterIDs map[uint64]uint64

// MultilayerMap translates layerId -> nodeId -> stateId. It is caller-owned,
// read-only input; the loader never copies or mutates it.
type MultilayerMap map[uint64]map[uint64]uint64

// lookup resolves a (nodeId, layerId) pair to a state id. A miss means the
// line should be filtered, never reported as an error.
func (m MultilayerMap) lookup(nodeID, layerID uint64) (uint64, bool) {
	nodes, ok := m[layerID]
	if !ok {
		return 0, false
	}
	stateID, ok := nodes[nodeID]
	return stateID, ok
}

// ClusterMap holds the result of one load. All collections are created fresh
// per load call and owned by the caller afterwards.
type ClusterMap struct {
	// NodePaths records tree-format entries in file order.
	NodePaths []NodePath

	// Flow holds per-state flow values, populated only when requested.
	Flow FlowData

	// Clusters holds flat clu-format module assignments.
	Clusters ClusterIDs

	// Header is the first physical line of a tree file when it is a comment,
	// e.g. "# Codelength = 3.46227314 bits.".
	Header string

	// Section is the "*..." line that stopped tree parsing, if any, so a
	// higher-level reader can resume elsewhere. Empty means end of input.
	Section string

	// Extension is the format marker derived from the filename.
	Extension string

	// HigherOrder reports whether the tree carried physical node ids.
	HigherOrder bool

	// Lines is the number of physical lines consumed.
	Lines int

	// Filtered counts data lines discarded by multilayer remap misses.
	Filtered int
}

// ReadClusterData loads cluster data from filename, dispatching on the file
// extension: "tree" and "ftree" use the hierarchical parser, "clu" the flat
// partition parser. Any other extension fails before the file is opened.
// When includeFlow is set, per-node flow values are retained. A non-nil remap
// puts the parsers in multilayer mode.
func ReadClusterData(filename string, includeFlow bool, remap MultilayerMap) (*ClusterMap, error) {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")

	switch ext {
	case "tree", "ftree", "clu":
	default:
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: file %q has extension %q, must be clu, tree or ftree",
				errors.ErrUnsupportedFormat, filename, ext),
			"ClusterMap", "ReadClusterData", "format dispatch")
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "ClusterMap", "ReadClusterData", "open cluster file")
	}
	defer file.Close()

	slog.Debug("reading cluster data", "file", filename, "format", ext, "multilayer", remap != nil)

	var cm *ClusterMap
	if ext == "clu" {
		cm, err = ReadClu(file, filename, includeFlow, remap)
	} else {
		cm, err = ReadTree(file, filename, includeFlow, remap)
	}
	if err != nil {
		return nil, err
	}
	cm.Extension = ext
	return cm, nil
}
