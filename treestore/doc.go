// Package treestore implements the Tree Store (C3): an arena of tree-node
// records addressed by integer Handle, replacing the pointer-linked
// parent/child/sibling graph of the reference implementation (spec §9
// Design Note: "Pointer-linked tree with implicit cycles").
//
// A non-leaf node owns a contiguous, doubly-linked list of children so
// insertion and removal at the end are O(1) (spec §4.3); a leaf node
// instead references a state node from statenet. Handles are stable for
// the lifetime of the arena; ReplaceWithChildren recycles a destroyed
// node's slot for reuse by later AddLeaf/NewModule calls (spec §3
// invariant 5: no empty module may persist).
package treestore
