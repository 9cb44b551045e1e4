// Package infomap provides loaders and services for network clustering
// results in the Infomap family of formats.
//
// The module has two halves:
//
// Loading (package clustermap and package hierarchy):
//   - clu files: flat node-to-module partitions
//   - tree and ftree files: hierarchical module paths per node
//   - multilayer variants of both, remapped through caller-supplied
//     layer/node tables
//   - hierarchy reconstruction from loaded module paths
//
// Running (package engine, backed by package natsclient):
//   - a worker-pool job host that executes clustering runs
//   - per-job event streams over NATS, ending in exactly one terminal event
//   - optional persistence of finished results in a JetStream key-value
//     bucket, re-importable through the loaders
//
// Supporting packages cover the ambient concerns: errors (classified
// errors), metric (Prometheus registry and endpoint), config (YAML/JSON
// configuration), pkg/retry and pkg/worker. The cmd/infomap binary ties
// them together as a file summarizer and a job host daemon.
package infomap
