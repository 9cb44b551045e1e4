// Package clustermap loads hierarchical and flat network-clustering results
// from Infomap output files, so a previously computed community structure can
// be re-imported into a running network.
//
// Three file formats are supported, selected by extension before any content
// is read:
//
//   - tree / ftree: hierarchical exports where each node's module path is a
//     delimited sequence of 1-based child indices
//   - clu: flat partition exports with one module id per node
//
// A tree data line looks like
//
//	1:1:2 0.025641 "node two" 2
//
// carrying the module path, a flow value, a quoted node name, the state id,
// and (in higher-order files) the underlying physical node id. A clu data
// line carries a state id, a module id, and an optional flow value.
//
// For multilayer networks the caller may supply a MultilayerMap translating
// (layerId, nodeId) pairs to state ids. Lines whose pair is not present in
// the map are silently discarded; that is the designed filtering behavior,
// not an error.
//
// Parsing is strictly sequential and allocates fresh result collections per
// call, so independent loads may run concurrently. A MultilayerMap is never
// mutated and may be shared across loads.
package clustermap
