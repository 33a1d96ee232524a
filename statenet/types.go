package statenet

import (
	"sync"

	"github.com/katalvlaran/mapflow/mfconfig"
)

// StateID identifies a state node: the unit the random walker actually
// visits. For first-order input, StateID == PhysicalID.
type StateID uint64

// PhysicalID identifies a physical node: the unit a human-readable result
// groups state nodes by (spec §3).
type PhysicalID uint64

// NoLayer is the zero value of StateNode.LayerID meaning "no layer set".
const NoLayer uint64 = 0

// StateNode is a node as seen by the walker (spec §3).
type StateNode struct {
	ID         StateID
	PhysicalID PhysicalID
	LayerID    uint64 // 0 (NoLayer) when unset; multiplex layers start at 1
	Weight     float64

	Flow         float64
	EnterFlow    float64
	ExitFlow     float64
	DanglingFlow float64
}

// PhysicalNode aggregates one or more state nodes sharing a physical
// identity (spec §3).
type PhysicalNode struct {
	ID     PhysicalID
	Name   string
	Weight float64
}

// Link is a directed, weighted edge between two state nodes (spec §3).
// Duplicate (Source, Target) link definitions are aggregated by summing
// Weight; Flow is populated later by flowmodel.Calculate.
type Link struct {
	Source StateID
	Target StateID
	Weight float64
	Flow   float64
}

// StateNetwork is the canonical graph representation consumed by the flow
// calculator and, transitively, by every other component. It is built by
// calling AddStateNode / AddLink any number of times and then Finalize,
// after which structural edits are rejected and iteration order is stable.
//
// Two separate locks mirror core.Graph: muNodes guards the node maps,
// muLinks guards the link adjacency. Finalize takes both.
type StateNetwork struct {
	cfg *mfconfig.Config

	muNodes sync.RWMutex
	muLinks sync.RWMutex

	stateNodes    map[StateID]*StateNode
	physicalNodes map[PhysicalID]*PhysicalNode

	// adjacency[source][target] = *Link; ordering is imposed at Finalize
	// time via orderedTargets, so downstream passes are deterministic.
	adjacency map[StateID]map[StateID]*Link

	finalized          bool
	order              []StateID             // leaf layer order, sorted by StateID, set at Finalize
	orderedTargets     map[StateID][]StateID // per-source target order, set at Finalize
	droppedByThreshold int
	droppedSelfLinks   int
}

// New constructs an empty StateNetwork under cfg.
func New(cfg *mfconfig.Config) *StateNetwork {
	return &StateNetwork{
		cfg:           cfg,
		stateNodes:    make(map[StateID]*StateNode),
		physicalNodes: make(map[PhysicalID]*PhysicalNode),
		adjacency:     make(map[StateID]map[StateID]*Link),
	}
}
