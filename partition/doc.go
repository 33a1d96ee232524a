// Package partition implements the Partitioner (C5): the greedy core loop
// that moves nodes between modules to shrink the map equation, plus
// consolidation of the resulting assignment into a treestore.Store (spec
// §4.5).
//
// A Partitioner operates on a dense Network rather than directly on a
// statenet.StateNetwork, so the same machinery runs both at the leaf level
// and, during hierarchical recursion, on coarse-grained super-networks built
// by Coarsen from a prior level's module assignment (spec §4.6).
package partition
