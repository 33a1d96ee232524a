package mapeq

import (
	"github.com/katalvlaran/mapflow/mfconfig"
	"github.com/katalvlaran/mapflow/statenet"
)

// BalanceKind selects which move-formula specialization an Engine uses
// (spec §4.4 "Specialisations").
type BalanceKind int

const (
	// Undirected: enter == exit, a factor of 2 applies to per-link delta
	// contributions (each undirected link is a pair of directed half-links).
	Undirected BalanceKind = iota
	// DetailedBalance: enter == exit, no doubling (e.g. undirdir/outdirdir
	// seeded from an undirected steady state but walked once directedly).
	DetailedBalance
	// NoDetailedBalance: enter and exit are tracked separately.
	NoDetailedBalance
)

// BalanceKindFor picks the move-formula specialization appropriate for a
// flow model (spec §4.4). Undirected flow is modeled as symmetric half-link
// pairs (doubling applies); Undirdir/Outdirdir are seeded from an undirected
// steady state and walked once directedly, so enter and exit stay equal
// without doubling; Directed and Rawdir give no such guarantee and track
// enter/exit separately.
func BalanceKindFor(model mfconfig.FlowModel) BalanceKind {
	switch model {
	case mfconfig.Undirected:
		return Undirected
	case mfconfig.Undirdir, mfconfig.Outdirdir:
		return DetailedBalance
	default: // Directed, Rawdir
		return NoDetailedBalance
	}
}

// LeafFlow is the per-leaf flow data an Engine is seeded with: a snapshot
// of statenet.StateNode's flow fields at the moment the leaf layer is built
// (spec §4.1 data flow: "C2 assigns flow → C3 builds a flat leaf layer").
type LeafFlow struct {
	PhysicalID statenet.PhysicalID
	Flow       float64
	EnterFlow  float64
	ExitFlow   float64
}

// ModuleFlow aggregates the flow data of every leaf currently assigned to
// one dynamic module, plus (when memory correction is enabled) the
// per-physical-id flow breakdown used by the physical-node correction term
// (spec §4.4).
type ModuleFlow struct {
	Flow      float64
	ExitFlow  float64
	EnterFlow float64
	Size      int // number of leaves currently in this module

	// PhysFlow maps physical id -> summed flow of this module's leaves
	// sharing that physical id. Non-nil only when memory correction is
	// enabled (spec §4.4 "memory/physical correction").
	PhysFlow map[statenet.PhysicalID]float64
}

// add folds leaf fully into m, including its own enter/exit flow. Only
// correct when m is a fresh singleton module being seeded with exactly this
// leaf (Engine.New): once a module holds boundary flow from more than one
// leaf, enter/exit no longer decompose additively per leaf, and moving flow
// between modules must instead go through addFlow/subFlow below, with the
// caller (Engine.ApplyMove) adjusting EnterFlow/ExitFlow itself via the
// precomputed boundary-flow deltas.
func (m *ModuleFlow) add(leaf LeafFlow) {
	m.Flow += leaf.Flow
	m.ExitFlow += leaf.ExitFlow
	m.EnterFlow += leaf.EnterFlow
	m.Size++
	if m.PhysFlow != nil {
		m.PhysFlow[leaf.PhysicalID] += leaf.Flow
	}
}

// addFlow moves leaf's Flow, Size, and PhysFlow bucket into m without
// touching EnterFlow/ExitFlow, which Engine.ApplyMove has already updated
// via its own delta-based formulas.
func (m *ModuleFlow) addFlow(leaf LeafFlow) {
	m.Flow += leaf.Flow
	m.Size++
	if m.PhysFlow != nil {
		m.PhysFlow[leaf.PhysicalID] += leaf.Flow
	}
}

// subFlow is addFlow's inverse; see addFlow.
func (m *ModuleFlow) subFlow(leaf LeafFlow) {
	m.Flow -= leaf.Flow
	m.Size--
	if m.PhysFlow != nil {
		m.PhysFlow[leaf.PhysicalID] -= leaf.Flow
		if m.PhysFlow[leaf.PhysicalID] <= 1e-15 {
			delete(m.PhysFlow, leaf.PhysicalID)
		}
	}
}

// DeltaFlow describes one candidate target module for a node move (spec
// §4.4): the module id, the change in flow crossing the module boundary in
// each direction if the move is applied, and (when memory correction is
// enabled) the physical-flow correction terms.
type DeltaFlow struct {
	Module int

	DeltaExit  float64
	DeltaEnter float64

	// PhysFlowDelta, when memory correction is enabled, is the plogp
	// contribution change from merging/splitting the moved leaf's physical
	// id with this module's existing physical-flow bucket.
	PhysFlowDelta float64
}
