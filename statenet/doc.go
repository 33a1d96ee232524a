// Package statenet implements the State Network (C1): the in-memory graph
// that the rest of the clustering engine consumes. It owns state nodes,
// physical nodes, and weighted directed links, and aggregates duplicate
// link definitions by summing weights.
//
// For first-order input, state_id == physical_id and there is exactly one
// state node per physical node. For memory-order or multiplex input, many
// state nodes may share a physical_id; see StateNode and PhysicalNode.
//
// Thread-safety follows core.Graph: a read/write mutex guards the mutable
// maps during the ingest phase; once Finalize locks structural edits,
// iteration order is stable and safe for concurrent readers.
package statenet
