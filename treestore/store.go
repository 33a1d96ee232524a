package treestore

import "github.com/katalvlaran/mapflow/statenet"

// Handle addresses a Node within a Store's arena. Handle 0 is the root of a
// new Store; use NoHandle for "absent".
type Handle int

// NoHandle represents the absence of a node reference.
const NoHandle Handle = -1

// Node is the arena record for one tree node: either a leaf referencing a
// state node, or a module owning a contiguous child list (spec §3).
type Node struct {
	Parent        Handle
	IndexInParent int

	FirstChild  Handle
	LastChild   Handle
	PrevSibling Handle
	NextSibling Handle
	ChildCount  int

	IsLeaf  bool
	StateID statenet.StateID // valid iff IsLeaf

	Flow        float64
	EnterFlow   float64
	ExitFlow    float64
	Codelength  float64 // module-local codelength, valid for non-leaf nodes

	// SubEngine is an opaque handle a search pass (partition/hierarchy) may
	// attach to a module while it explores the module's interior
	// independently (spec §4.3 attach_sub_engine). It is always nil by the
	// time a Driver run returns: every sub-engine's result is consolidated
	// back into this arena before the module is reported.
	SubEngine interface{}

	alive bool
}

// Store owns the evolving tree as a dense slice of Node records. Root is
// always a module (possibly with zero children before the first leaf is
// added).
type Store struct {
	nodes []Node
	free  []Handle
	root  Handle
}

// New returns a Store containing a single empty root module.
func New() *Store {
	s := &Store{}
	s.root = s.alloc(Node{Parent: NoHandle, FirstChild: NoHandle, LastChild: NoHandle, IsLeaf: false, alive: true})

	return s
}

// Root returns the handle of the tree's root module.
func (s *Store) Root() Handle { return s.root }

// Node returns a pointer to the live record for h. Callers must not retain
// the pointer across structural mutations (AddLeaf, NewModule,
// ReplaceWithChildren) that may move other nodes' relationships, though the
// backing array slot for h itself is stable until it is destroyed.
func (s *Store) Node(h Handle) *Node { return &s.nodes[h] }

// alloc returns a fresh handle for n, reusing a recycled slot when one is
// available (spec §3 invariant 5: empty slots are recycled).
func (s *Store) alloc(n Node) Handle {
	n.alive = true
	if len(s.free) > 0 {
		h := s.free[len(s.free)-1]
		s.free = s.free[:len(s.free)-1]
		s.nodes[h] = n

		return h
	}
	s.nodes = append(s.nodes, n)

	return Handle(len(s.nodes) - 1)
}

// AddLeaf appends a new leaf node referencing stateID as the last child of
// parent, and returns its handle. Complexity: O(1).
func (s *Store) AddLeaf(parent Handle, stateID statenet.StateID) Handle {
	h := s.alloc(Node{Parent: parent, IsLeaf: true, StateID: stateID, FirstChild: NoHandle, LastChild: NoHandle, PrevSibling: NoHandle, NextSibling: NoHandle})
	s.appendChild(parent, h)

	return h
}

// NewModule appends a new, initially empty module node as the last child of
// parent, and returns its handle. Complexity: O(1).
func (s *Store) NewModule(parent Handle) Handle {
	h := s.alloc(Node{Parent: parent, IsLeaf: false, FirstChild: NoHandle, LastChild: NoHandle, PrevSibling: NoHandle, NextSibling: NoHandle})
	s.appendChild(parent, h)

	return h
}

func (s *Store) appendChild(parent, child Handle) {
	if parent == NoHandle {
		return
	}
	p := &s.nodes[parent]
	s.nodes[child].PrevSibling = p.LastChild
	s.nodes[child].NextSibling = NoHandle
	s.nodes[child].IndexInParent = p.ChildCount
	if p.LastChild != NoHandle {
		s.nodes[p.LastChild].NextSibling = child
	} else {
		p.FirstChild = child
	}
	p.LastChild = child
	p.ChildCount++
}

// removeChild unlinks child from its parent's sibling list without
// destroying it, and renumbers later siblings' IndexInParent so children
// remain a dense [0, ChildCount) index range.
func (s *Store) removeChild(child Handle) {
	n := &s.nodes[child]
	parent := n.Parent
	if parent == NoHandle {
		return
	}
	p := &s.nodes[parent]
	if n.PrevSibling != NoHandle {
		s.nodes[n.PrevSibling].NextSibling = n.NextSibling
	} else {
		p.FirstChild = n.NextSibling
	}
	if n.NextSibling != NoHandle {
		s.nodes[n.NextSibling].PrevSibling = n.PrevSibling
	} else {
		p.LastChild = n.PrevSibling
	}
	p.ChildCount--

	for sib := n.NextSibling; sib != NoHandle; sib = s.nodes[sib].NextSibling {
		s.nodes[sib].IndexInParent--
	}
}

// destroy marks h's slot free for reuse. Callers must have already removed
// h from any parent's child list.
func (s *Store) destroy(h Handle) {
	s.nodes[h] = Node{alive: false}
	s.free = append(s.free, h)
}

// Children returns h's children, in order, as a freshly allocated slice.
func (s *Store) Children(h Handle) []Handle {
	n := &s.nodes[h]
	out := make([]Handle, 0, n.ChildCount)
	for c := n.FirstChild; c != NoHandle; c = s.nodes[c].NextSibling {
		out = append(out, c)
	}

	return out
}

// ReplaceWithChildren re-parents all of node's children into node's former
// slot in node.Parent's child list, then destroys node (spec §4.3). It
// collapses one level of the tree, e.g. to flatten a trivial single-child
// module; the driver's one-level fallback builds a fresh store instead.
func (s *Store) ReplaceWithChildren(node Handle) {
	n := s.nodes[node]
	parent := n.Parent
	if parent == NoHandle {
		// Collapsing the root: children become the new root's children in
		// place; root handle itself is preserved so Root() stays valid.
		children := s.Children(node)
		s.nodes[node] = Node{Parent: NoHandle, FirstChild: NoHandle, LastChild: NoHandle, IsLeaf: false}
		for _, c := range children {
			s.nodes[c].Parent = NoHandle
			s.nodes[c].PrevSibling = NoHandle
			s.nodes[c].NextSibling = NoHandle
			s.appendChild(node, c)
		}

		return
	}

	children := s.Children(node)
	prevSib := n.PrevSibling
	nextSib := n.NextSibling
	p := &s.nodes[parent]

	// Splice node's child list in where node used to sit.
	var cursor Handle = NoHandle
	for i, c := range children {
		s.nodes[c].Parent = parent
		s.nodes[c].IndexInParent = n.IndexInParent + i
		if i == 0 {
			s.nodes[c].PrevSibling = prevSib
			if prevSib != NoHandle {
				s.nodes[prevSib].NextSibling = c
			} else {
				p.FirstChild = c
			}
		} else {
			s.nodes[cursor].NextSibling = c
			s.nodes[c].PrevSibling = cursor
		}
		cursor = c
	}
	if len(children) == 0 {
		// node had no children: just unlink it.
		if prevSib != NoHandle {
			s.nodes[prevSib].NextSibling = nextSib
		} else {
			p.FirstChild = nextSib
		}
		if nextSib != NoHandle {
			s.nodes[nextSib].PrevSibling = prevSib
		} else {
			p.LastChild = prevSib
		}
	} else {
		s.nodes[cursor].NextSibling = nextSib
		if nextSib != NoHandle {
			s.nodes[nextSib].PrevSibling = cursor
		} else {
			p.LastChild = cursor
		}
	}

	shift := len(children) - 1
	if shift != 0 {
		for sib := nextSib; sib != NoHandle; sib = s.nodes[sib].NextSibling {
			s.nodes[sib].IndexInParent += shift
		}
	}

	s.destroy(node)
}

// RemoveEmpty detaches and destroys node (which must have no children) from
// its parent, recycling its slot (spec §3 invariant 5).
func (s *Store) RemoveEmpty(node Handle) {
	s.removeChild(node)
	s.destroy(node)
}

// Reparent moves child from its current parent to newParent, appended as
// the last child.
func (s *Store) Reparent(child, newParent Handle) {
	s.removeChild(child)
	s.nodes[child].Parent = newParent
	s.nodes[child].PrevSibling = NoHandle
	s.nodes[child].NextSibling = NoHandle
	s.appendChild(newParent, child)
}

// AttachSubEngine associates an opaque sub-engine handle with module (spec
// §4.3 attach_sub_engine). The sub-engine's own root is owned by module.
func (s *Store) AttachSubEngine(module Handle, sub interface{}) {
	s.nodes[module].SubEngine = sub
}

// DetachSubEngine clears module's sub-engine association, typically once
// the sub-engine's result has been consolidated back into this arena.
func (s *Store) DetachSubEngine(module Handle) {
	s.nodes[module].SubEngine = nil
}

// IsLeaf reports whether h is a leaf (state-node) tree node.
func (s *Store) IsLeaf(h Handle) bool { return s.nodes[h].IsLeaf }

// Depth returns the number of ancestors between h and the root (root has
// depth 0).
func (s *Store) Depth(h Handle) int {
	d := 0
	for p := s.nodes[h].Parent; p != NoHandle; p = s.nodes[p].Parent {
		d++
	}

	return d
}

// ModulePath returns the sequence of IndexInParent values from the root
// (exclusive) down to h (inclusive), e.g. [3, 1, 0] (spec §4.7).
func (s *Store) ModulePath(h Handle) []int {
	var rev []int
	for cur := h; s.nodes[cur].Parent != NoHandle; cur = s.nodes[cur].Parent {
		rev = append(rev, s.nodes[cur].IndexInParent)
	}
	out := make([]int, len(rev))
	for i, v := range rev {
		out[len(rev)-1-i] = v
	}

	return out
}

// Walk visits the tree pre-order depth-first starting at root, calling
// visit(h) for every node including root. Returning false from visit stops
// the traversal of that subtree's children (but sibling traversal
// continues).
func (s *Store) Walk(root Handle, visit func(Handle) bool) {
	if !visit(root) {
		return
	}
	for c := s.nodes[root].FirstChild; c != NoHandle; c = s.nodes[c].NextSibling {
		s.Walk(c, visit)
	}
}

// Leaves returns every leaf handle reachable from root, in pre-order.
func (s *Store) Leaves(root Handle) []Handle {
	var out []Handle
	s.Walk(root, func(h Handle) bool {
		if s.nodes[h].IsLeaf {
			out = append(out, h)
		}

		return true
	})

	return out
}
