package treestore_test

import (
	"testing"

	"github.com/katalvlaran/mapflow/treestore"
)

func TestNewHasEmptyRoot(t *testing.T) {
	s := treestore.New()
	root := s.Root()
	if s.IsLeaf(root) {
		t.Fatal("root should not be a leaf")
	}
	if got := s.Children(root); len(got) != 0 {
		t.Fatalf("fresh root has %d children, want 0", len(got))
	}
}

func TestAddLeafAppendsUnderParent(t *testing.T) {
	s := treestore.New()
	root := s.Root()
	l1 := s.AddLeaf(root, 10)
	l2 := s.AddLeaf(root, 20)

	children := s.Children(root)
	if len(children) != 2 || children[0] != l1 || children[1] != l2 {
		t.Fatalf("Children(root) = %v, want [%d %d]", children, l1, l2)
	}
	if !s.IsLeaf(l1) || !s.IsLeaf(l2) {
		t.Error("AddLeaf nodes should report IsLeaf == true")
	}
	if s.Node(l1).StateID != 10 || s.Node(l2).StateID != 20 {
		t.Error("leaf StateID not preserved")
	}
}

func TestNewModuleNestsUnderParent(t *testing.T) {
	s := treestore.New()
	root := s.Root()
	mod := s.NewModule(root)
	leaf := s.AddLeaf(mod, 1)

	if s.IsLeaf(mod) {
		t.Error("NewModule node should not be a leaf")
	}
	if s.Node(leaf).Parent != mod {
		t.Errorf("leaf parent = %v, want %v", s.Node(leaf).Parent, mod)
	}
	if s.Depth(leaf) != 2 {
		t.Errorf("Depth(leaf) = %d, want 2", s.Depth(leaf))
	}
}

func TestModulePathTracksIndexInParent(t *testing.T) {
	s := treestore.New()
	root := s.Root()
	modA := s.NewModule(root)
	_ = s.NewModule(root) // modB, pushes nothing relevant
	leaf := s.AddLeaf(modA, 99)

	path := s.ModulePath(leaf)
	want := []int{0, 0}
	if len(path) != len(want) || path[0] != want[0] || path[1] != want[1] {
		t.Fatalf("ModulePath(leaf) = %v, want %v", path, want)
	}
}

func TestWalkVisitsPreOrder(t *testing.T) {
	s := treestore.New()
	root := s.Root()
	mod := s.NewModule(root)
	leafA := s.AddLeaf(mod, 1)
	leafB := s.AddLeaf(root, 2)

	var visited []treestore.Handle
	s.Walk(root, func(h treestore.Handle) bool {
		visited = append(visited, h)
		return true
	})

	want := []treestore.Handle{root, mod, leafA, leafB}
	if len(visited) != len(want) {
		t.Fatalf("Walk visited %v, want %v", visited, want)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Fatalf("Walk order = %v, want %v", visited, want)
		}
	}
}

func TestLeavesReturnsOnlyLeaves(t *testing.T) {
	s := treestore.New()
	root := s.Root()
	mod := s.NewModule(root)
	leafA := s.AddLeaf(mod, 1)
	leafB := s.AddLeaf(root, 2)

	leaves := s.Leaves(root)
	if len(leaves) != 2 || leaves[0] != leafA || leaves[1] != leafB {
		t.Fatalf("Leaves(root) = %v, want [%d %d]", leaves, leafA, leafB)
	}
}

func TestReplaceWithChildrenSplicesInPlace(t *testing.T) {
	s := treestore.New()
	root := s.Root()
	leafBefore := s.AddLeaf(root, 1)
	mod := s.NewModule(root)
	leafAfter := s.AddLeaf(root, 2)
	inner1 := s.AddLeaf(mod, 10)
	inner2 := s.AddLeaf(mod, 20)

	s.ReplaceWithChildren(mod)

	children := s.Children(root)
	want := []treestore.Handle{leafBefore, inner1, inner2, leafAfter}
	if len(children) != len(want) {
		t.Fatalf("Children(root) after splice = %v, want %v", children, want)
	}
	for i := range want {
		if children[i] != want[i] {
			t.Fatalf("Children(root) after splice = %v, want %v", children, want)
		}
	}
	for i, c := range children {
		if s.Node(c).IndexInParent != i {
			t.Errorf("node %v IndexInParent = %d, want %d", c, s.Node(c).IndexInParent, i)
		}
	}
}

func TestReplaceWithChildrenAtRoot(t *testing.T) {
	s := treestore.New()
	root := s.Root()
	leaf1 := s.AddLeaf(root, 1)
	leaf2 := s.AddLeaf(root, 2)

	s.ReplaceWithChildren(root)

	if s.Root() != root {
		t.Fatal("Root() handle must stay stable after collapsing the root")
	}
	children := s.Children(root)
	if len(children) != 2 || children[0] != leaf1 || children[1] != leaf2 {
		t.Fatalf("Children(root) = %v, want [%d %d]", children, leaf1, leaf2)
	}
}

func TestRemoveEmptyRecyclesSlot(t *testing.T) {
	s := treestore.New()
	root := s.Root()
	mod := s.NewModule(root)
	s.RemoveEmpty(mod)

	if len(s.Children(root)) != 0 {
		t.Fatal("RemoveEmpty should detach the module from its parent")
	}

	// The freed slot should be reused by the next allocation.
	reused := s.NewModule(root)
	if reused != mod {
		t.Errorf("expected recycled handle %v, got %v", mod, reused)
	}
}

func TestReparentMovesChild(t *testing.T) {
	s := treestore.New()
	root := s.Root()
	modA := s.NewModule(root)
	modB := s.NewModule(root)
	leaf := s.AddLeaf(modA, 1)

	s.Reparent(leaf, modB)

	if len(s.Children(modA)) != 0 {
		t.Error("modA should have no children after Reparent")
	}
	children := s.Children(modB)
	if len(children) != 1 || children[0] != leaf {
		t.Fatalf("Children(modB) = %v, want [%d]", children, leaf)
	}
	if s.Node(leaf).Parent != modB {
		t.Error("leaf Parent not updated by Reparent")
	}
}

func TestAttachDetachSubEngine(t *testing.T) {
	s := treestore.New()
	root := s.Root()
	mod := s.NewModule(root)

	s.AttachSubEngine(mod, "placeholder")
	if s.Node(mod).SubEngine != "placeholder" {
		t.Fatal("AttachSubEngine did not set SubEngine")
	}
	s.DetachSubEngine(mod)
	if s.Node(mod).SubEngine != nil {
		t.Fatal("DetachSubEngine did not clear SubEngine")
	}
}
