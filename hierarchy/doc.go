// Package hierarchy implements the Hierarchical Driver (C6): it runs the
// partitioner over num_trials independent attempts, recurses into each
// discovered module to search for further sub-structure, and materializes
// the best trial's module tree into a treestore.Store (spec §4.6).
//
// Unlike the reference implementation's bottom-up coarse-tune/fine-tune
// alternation (repeatedly coarsening the whole network into a super-network
// and re-partitioning it), this driver searches top-down: each module found
// by one partition pass is, independently, induced into its own
// sub-network and recursed into (spec §8 "recursive sub-structure search").
// A single coarse-tune attempt per level still runs by coarsening that
// level's modules and checking whether merging any of them shortens the
// codelength, so partition.Coarsen is exercised without needing the full
// bottom-up loop.
package hierarchy
