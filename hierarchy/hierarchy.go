// Package hierarchy rebuilds the nested module tree encoded by the node
// paths of a tree-format cluster load, and flattens it back to per-level
// module assignments.
package hierarchy

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pojeda/infomap/clustermap"
	"github.com/pojeda/infomap/errors"
)

// Module is one node in the reconstructed module tree. Children are ordered
// by their 1-based child index; StateIDs holds the leaf state nodes assigned
// directly to this module, in first-seen order.
type Module struct {
	Path     clustermap.Path
	Children []*Module
	StateIDs []uint64
}

// Tree is the reconstructed module hierarchy for one cluster load.
type Tree struct {
	Root   *Module
	Leaves int

	// order keeps node paths in file order for deterministic flattening.
	order []clustermap.NodePath
}

// Build reconstructs the module tree from node paths in file order. The last
// element of each path is the leaf's index within its module; the prefix
// names the module chain. A module cannot both hold leaves and act as an
// interior module on a longer path.
func Build(paths []clustermap.NodePath) (*Tree, error) {
	t := &Tree{
		Root:  &Module{},
		order: paths,
	}

	for _, np := range paths {
		if len(np.Path) == 0 {
			return nil, errors.WrapInvalid(
				fmt.Errorf("%w: state node %d has an empty module path", errors.ErrFileFormat, np.StateID),
				"Tree", "Build", "validate node path")
		}

		module := t.Root
		for depth, index := range np.Path[:len(np.Path)-1] {
			if len(module.StateIDs) > 0 {
				return nil, conflictError(np.Path[:depth])
			}
			module = module.child(int(index), np.Path[:depth+1])
		}
		if len(module.Children) > 0 {
			return nil, conflictError(np.Path[:len(np.Path)-1])
		}
		module.StateIDs = append(module.StateIDs, np.StateID)
		t.Leaves++
	}

	return t, nil
}

func conflictError(path clustermap.Path) error {
	return errors.WrapInvalid(
		fmt.Errorf("%w: module %s is used both as leaf module and interior module",
			errors.ErrFileFormat, pathKey(path)),
		"Tree", "Build", "validate module tree")
}

// child returns the 1-based indexed child, growing the slice as needed.
func (m *Module) child(index int, path clustermap.Path) *Module {
	for len(m.Children) < index {
		m.Children = append(m.Children, nil)
	}
	if m.Children[index-1] == nil {
		own := make(clustermap.Path, len(path))
		copy(own, path)
		m.Children[index-1] = &Module{Path: own}
	}
	return m.Children[index-1]
}

// Depth returns the length of the deepest leaf path, 0 for an empty tree.
func (t *Tree) Depth() int {
	depth := 0
	for _, np := range t.order {
		if len(np.Path) > depth {
			depth = len(np.Path)
		}
	}
	return depth
}

// NumTopModules returns the number of modules directly under the root.
func (t *Tree) NumTopModules() int {
	n := 0
	for _, c := range t.Root.Children {
		if c != nil {
			n++
		}
	}
	return n
}

// TopModuleOf returns the top-level module index of a path, 0 for an
// empty path.
func TopModuleOf(path clustermap.Path) uint64 {
	if len(path) == 0 {
		return 0
	}
	return path[0]
}

// NumLeafModules returns the number of modules that hold state nodes.
func (t *Tree) NumLeafModules() int {
	return countLeafModules(t.Root)
}

func countLeafModules(m *Module) int {
	if len(m.StateIDs) > 0 {
		return 1
	}
	n := 0
	for _, c := range m.Children {
		if c != nil {
			n += countLeafModules(c)
		}
	}
	return n
}

// Assignments flattens the tree to a flat partition at the given level:
// level 1 assigns each state node its top module, level 2 the module two
// steps down, and so on. Nodes whose module chain is shorter than level keep
// their deepest module. Module ids are 1-based in first-seen file order, so
// the result matches what a clu export of the same level would load to.
func (t *Tree) Assignments(level int) clustermap.ClusterIDs {
	if level < 1 {
		level = 1
	}

	ids := make(clustermap.ClusterIDs, len(t.order))
	moduleIDs := make(map[string]uint64)

	for _, np := range t.order {
		moduleChain := np.Path[:len(np.Path)-1]
		cut := level
		if cut > len(moduleChain) {
			cut = len(moduleChain)
		}
		key := pathKey(np.Path[:cut])

		id, ok := moduleIDs[key]
		if !ok {
			id = uint64(len(moduleIDs) + 1)
			moduleIDs[key] = id
		}
		ids[np.StateID] = id
	}

	return ids
}

func pathKey(path clustermap.Path) string {
	if len(path) == 0 {
		return "root"
	}
	parts := make([]string, len(path))
	for i, v := range path {
		parts[i] = strconv.FormatUint(v, 10)
	}
	return strings.Join(parts, ":")
}
