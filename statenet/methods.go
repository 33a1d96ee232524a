// methods.go — StateNetwork ingest and accessor operations.
//
// Aggregation policy: the canonical store is source -> (target -> *Link);
// Finalize sorts the inner map's keys once so downstream passes see a
// stable, deterministic iteration order (grounded on core.Graph.Edges's
// sort.Slice-by-ID policy).
package statenet

import (
	"sort"

	"github.com/katalvlaran/mapflow/mfconfig"
	"github.com/katalvlaran/mapflow/mferrors"
)

// AddStateNode inserts a new state node. Duplicate ids are idempotent
// (matching fields are a no-op; a conflicting PhysicalID on re-insertion is
// an InvalidGraph error). Fails only on negative weight or after Finalize.
func (n *StateNetwork) AddStateNode(id StateID, physicalID PhysicalID, weight float64) error {
	const op = "statenet.AddStateNode"
	if weight < 0 {
		return mferrors.New(mferrors.InvalidGraph, op, errNegativeWeight(weight))
	}

	n.muNodes.Lock()
	defer n.muNodes.Unlock()

	if n.finalized {
		return mferrors.New(mferrors.InvalidGraph, op, errFinalized)
	}

	if existing, ok := n.stateNodes[id]; ok {
		if existing.PhysicalID != physicalID {
			return mferrors.New(mferrors.InvalidGraph, op, errConflictingPhysicalID(id))
		}

		return nil // idempotent
	}

	n.stateNodes[id] = &StateNode{ID: id, PhysicalID: physicalID, Weight: weight}
	n.adjacency[id] = make(map[StateID]*Link)

	if pn, ok := n.physicalNodes[physicalID]; ok {
		pn.Weight += weight
	} else {
		n.physicalNodes[physicalID] = &PhysicalNode{ID: physicalID, Weight: weight}
	}

	return nil
}

// SetPhysicalName attaches a display name to a physical node, inserting it
// if absent.
func (n *StateNetwork) SetPhysicalName(id PhysicalID, name string) {
	n.muNodes.Lock()
	defer n.muNodes.Unlock()

	if pn, ok := n.physicalNodes[id]; ok {
		pn.Name = name
		return
	}
	n.physicalNodes[id] = &PhysicalNode{ID: id, Name: name}
}

// AddLink inserts or aggregates a directed link. A weight below
// cfg.WeightThreshold is silently dropped and counted (never fatal).
// source == target (a self-link) is kept or dropped per
// cfg.IncludeSelfLinks. Otherwise, if (source, target) already exists its
// weight is summed.
func (n *StateNetwork) AddLink(source, target StateID, weight float64) error {
	const op = "statenet.AddLink"
	if weight < 0 {
		return mferrors.New(mferrors.InvalidGraph, op, errNegativeWeight(weight))
	}

	n.muNodes.RLock()
	_, sourceOK := n.stateNodes[source]
	_, targetOK := n.stateNodes[target]
	n.muNodes.RUnlock()
	if !sourceOK || !targetOK {
		return mferrors.New(mferrors.InvalidGraph, op, errUnknownEndpoint(source, target))
	}

	n.muLinks.Lock()
	defer n.muLinks.Unlock()

	if n.finalized {
		return mferrors.New(mferrors.InvalidGraph, op, errFinalized)
	}

	if source == target && !n.cfg.IncludeSelfLinks {
		n.droppedSelfLinks++
		return nil
	}

	if weight < n.cfg.WeightThreshold {
		n.droppedByThreshold++
		return nil
	}

	if n.adjacency[source] == nil {
		n.adjacency[source] = make(map[StateID]*Link)
	}
	if existing, ok := n.adjacency[source][target]; ok {
		existing.Weight += weight
		return nil
	}
	n.adjacency[source][target] = &Link{Source: source, Target: target, Weight: weight}

	return nil
}

// Finalize locks structural edits. After this, iteration order (Order,
// Links, OutLinks) is stable.
func (n *StateNetwork) Finalize() error {
	const op = "statenet.Finalize"
	n.muNodes.Lock()
	n.muLinks.Lock()
	defer n.muNodes.Unlock()
	defer n.muLinks.Unlock()

	if n.finalized {
		return nil
	}

	order := make([]StateID, 0, len(n.stateNodes))
	for id := range n.stateNodes {
		order = append(order, id)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	n.order = order

	n.orderedTargets = make(map[StateID][]StateID, len(n.adjacency))
	for src, targets := range n.adjacency {
		ts := make([]StateID, 0, len(targets))
		for t := range targets {
			ts = append(ts, t)
		}
		sort.Slice(ts, func(i, j int) bool { return ts[i] < ts[j] })
		n.orderedTargets[src] = ts
	}

	n.finalized = true

	return nil
}

// Finalized reports whether Finalize has been called.
func (n *StateNetwork) Finalized() bool {
	n.muNodes.RLock()
	defer n.muNodes.RUnlock()

	return n.finalized
}

// Order returns the leaf layer: all state ids in deterministic ascending
// order. Valid only after Finalize.
func (n *StateNetwork) Order() []StateID {
	out := make([]StateID, len(n.order))
	copy(out, n.order)

	return out
}

// StateNode returns the state node for id, or nil if absent.
func (n *StateNetwork) StateNode(id StateID) *StateNode {
	n.muNodes.RLock()
	defer n.muNodes.RUnlock()

	return n.stateNodes[id]
}

// StateNodeCount returns the number of state nodes.
func (n *StateNetwork) StateNodeCount() int {
	n.muNodes.RLock()
	defer n.muNodes.RUnlock()

	return len(n.stateNodes)
}

// PhysicalNode returns the physical node for id, or nil if absent.
func (n *StateNetwork) PhysicalNode(id PhysicalID) *PhysicalNode {
	n.muNodes.RLock()
	defer n.muNodes.RUnlock()

	return n.physicalNodes[id]
}

// PhysicalNodes returns every physical node, sorted by id.
func (n *StateNetwork) PhysicalNodes() []*PhysicalNode {
	n.muNodes.RLock()
	defer n.muNodes.RUnlock()

	out := make([]*PhysicalNode, 0, len(n.physicalNodes))
	for _, pn := range n.physicalNodes {
		out = append(out, pn)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}

// OutLinks returns the outgoing links from source in deterministic target
// order. Valid only after Finalize.
func (n *StateNetwork) OutLinks(source StateID) []*Link {
	n.muLinks.RLock()
	defer n.muLinks.RUnlock()

	targets := n.orderedTargets[source]
	out := make([]*Link, 0, len(targets))
	for _, t := range targets {
		out = append(out, n.adjacency[source][t])
	}

	return out
}

// Links returns every link in the network, ordered by (source, target).
func (n *StateNetwork) Links() []*Link {
	n.muLinks.RLock()
	defer n.muLinks.RUnlock()

	var out []*Link
	for _, src := range n.order {
		for _, t := range n.orderedTargets[src] {
			out = append(out, n.adjacency[src][t])
		}
	}

	return out
}

// DroppedByThreshold returns how many AddLink calls were dropped for
// falling below cfg.WeightThreshold.
func (n *StateNetwork) DroppedByThreshold() int {
	n.muLinks.RLock()
	defer n.muLinks.RUnlock()

	return n.droppedByThreshold
}

// DroppedSelfLinks returns how many self-links were dropped because
// cfg.IncludeSelfLinks was false.
func (n *StateNetwork) DroppedSelfLinks() int {
	n.muLinks.RLock()
	defer n.muLinks.RUnlock()

	return n.droppedSelfLinks
}

// Config returns the configuration the network was constructed with.
func (n *StateNetwork) Config() *mfconfig.Config { return n.cfg }
