package hierarchy

import "github.com/katalvlaran/mapflow/treestore"

// emit materializes node as a child of parent in store, recursively
// emitting its children, and returns the new child's handle.
func emit(store *treestore.Store, parent treestore.Handle, node *moduleNode) treestore.Handle {
	if node.isLeaf {
		h := store.AddLeaf(parent, node.stateID)
		n := store.Node(h)
		n.Flow, n.EnterFlow, n.ExitFlow = node.flow, node.enterFlow, node.exitFlow

		return h
	}

	h := store.NewModule(parent)
	for _, c := range node.children {
		emit(store, h, c)
	}
	n := store.Node(h)
	n.Flow, n.EnterFlow, n.ExitFlow, n.Codelength = node.flow, node.enterFlow, node.exitFlow, node.codelength

	return h
}
