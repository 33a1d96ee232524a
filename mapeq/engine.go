package mapeq

import (
	"math/rand"

	"github.com/katalvlaran/mapflow/statenet"
)

// Engine maintains the map-equation codelength incrementally for one flat
// layer of dynamic modules (spec §4.4). It knows nothing about the tree
// store; partition.Partitioner drives it and is responsible for
// materializing the resulting module assignment into a treestore.Store via
// consolidate().
type Engine struct {
	balance          BalanceKind
	memoryCorrection bool
	minImprovement   float64
	rng              *rand.Rand

	// exitNetworkFlow is the flow leaving the network this Engine partitions
	// as seen from one level up; zero at the root, non-zero for a sub-engine
	// spawned on a module during hierarchy recursion (spec §8 supplement).
	exitNetworkFlow float64

	leaves      []LeafFlow // leaf data, indexed 0..n-1
	leafModule  []int      // leaf index -> module id
	modules     []ModuleFlow
	freeModules []int
	numActive   int

	enterFlowSum             float64
	enterLogEnterSum         float64
	exitLogExitSum           float64
	flowLogFlowSum           float64
	nodeFlowLogNodeFlowSum   float64
	enterFlowLogEnterFlowSum float64
}

// Config bundles the construction-time choices for an Engine.
type Config struct {
	Balance          BalanceKind
	MemoryCorrection bool
	MinImprovement   float64
	ExitNetworkFlow  float64
	RNG              *rand.Rand
}

// New builds an Engine with every leaf in its own singleton module (the
// starting point of a partition() call), and computes the six running sums
// from scratch.
func New(leaves []LeafFlow, cfg Config) *Engine {
	e := &Engine{
		balance:          cfg.Balance,
		memoryCorrection: cfg.MemoryCorrection,
		minImprovement:   cfg.MinImprovement,
		rng:              cfg.RNG,
		exitNetworkFlow:  cfg.ExitNetworkFlow,
		leaves:           leaves,
		leafModule:       make([]int, len(leaves)),
		modules:          make([]ModuleFlow, len(leaves)),
		numActive:        len(leaves),
	}
	for i, lf := range leaves {
		e.leafModule[i] = i
		m := &e.modules[i]
		if cfg.MemoryCorrection {
			m.PhysFlow = map[statenet.PhysicalID]float64{}
		}
		m.add(lf)
	}
	e.RecomputeFromScratch()

	return e
}

// NumLeaves returns the number of leaves this Engine tracks.
func (e *Engine) NumLeaves() int { return len(e.leaves) }

// NumModules returns the number of non-empty dynamic modules.
func (e *Engine) NumModules() int { return e.numActive }

// ModuleOf returns the current module id of leaf i.
func (e *Engine) ModuleOf(i int) int { return e.leafModule[i] }

// ModuleFlowOf returns a copy of module m's current aggregate. m must be a
// module index of this engine (out of range panics); a freed module's slot
// is returned as it was last left.
func (e *Engine) ModuleFlowOf(m int) ModuleFlow { return e.modules[m] }

// ModuleSize returns the number of leaves currently in module m.
func (e *Engine) ModuleSize(m int) int { return e.modules[m].Size }

// Codelength returns the two-level map equation's current value in bits per
// step (spec §4.4).
func (e *Engine) Codelength() float64 {
	index, module := e.splitCodelength()

	return index + module
}

func (e *Engine) splitCodelength() (index, module float64) {
	exitNetLogExitNet := plogp(e.exitNetworkFlow)
	switch e.balance {
	case NoDetailedBalance:
		index = e.enterFlowLogEnterFlowSum - e.enterLogEnterSum - exitNetLogExitNet
	default: // Undirected, DetailedBalance
		index = e.enterFlowLogEnterFlowSum - e.exitLogExitSum - exitNetLogExitNet
	}
	module = -e.exitLogExitSum + e.flowLogFlowSum - e.nodeFlowLogNodeFlowSum

	return index, module
}

// NewEmptyModule allocates and returns the id of a fresh empty module,
// intended as one move candidate per spec §4.5 ("one empty slot"). Call
// ReleaseEmptyModule if it ends up unused so its slot is not leaked.
func (e *Engine) NewEmptyModule() int { return e.newModule() }

// ReleaseEmptyModule returns m's slot to the free list if it is still empty.
// A no-op if a leaf was moved into m in the meantime.
func (e *Engine) ReleaseEmptyModule(m int) {
	if e.modules[m].Size == 0 {
		e.freeModules = append(e.freeModules, m)
	}
}

// newModule allocates a fresh empty module, recycling a freed slot when one
// is available (spec §3 invariant 5).
func (e *Engine) newModule() int {
	if n := len(e.freeModules); n > 0 {
		m := e.freeModules[n-1]
		e.freeModules = e.freeModules[:n-1]
		e.modules[m] = ModuleFlow{}
		if e.memoryCorrection {
			e.modules[m].PhysFlow = map[statenet.PhysicalID]float64{}
		}

		return m
	}
	e.modules = append(e.modules, ModuleFlow{})
	if e.memoryCorrection {
		e.modules[len(e.modules)-1].PhysFlow = map[statenet.PhysicalID]float64{}
	}

	return len(e.modules) - 1
}

// DeltaCodelength returns the change in total codelength that would result
// from moving leaf i out of its current module and into candidate.Module,
// given the boundary-flow deltas the caller (partition.Partitioner) has
// already computed for both the old and new module (spec §4.4
// getDeltaCodelengthOnMovingNode). A negative value means the move improves
// (shortens) the codelength.
func (e *Engine) DeltaCodelength(i int, oldDelta, newDelta DeltaFlow) float64 {
	lf := e.leaves[i]
	oldM := &e.modules[e.leafModule[i]]
	newM := &e.modules[newDelta.Module]

	deltaFlowOldModule := -lf.Flow
	deltaFlowNewModule := lf.Flow

	oldExit := oldM.ExitFlow
	newExit := newM.ExitFlow
	oldEnter := oldM.EnterFlow
	newEnter := newM.EnterFlow

	var delta float64
	switch e.balance {
	case Undirected, DetailedBalance:
		// Enter == exit for both kinds; Undirected additionally doubles the
		// boundary delta since each undirected link is a pair of directed
		// half-links. splitCodelength's index and module terms both subtract
		// exitLogExitSum for these two balance kinds (the index term folds
		// enter into exit rather than tracking it separately), so the exit
		// contribution to the total codelength carries coefficient 2, not 1;
		// the global enterFlowLogEnterFlowSum term still applies with
		// coefficient 1, same as NoDetailedBalance, since it is q-enter over
		// the whole network rather than a per-module quantity.
		mult := 1.0
		if e.balance == Undirected {
			mult = 2
		}
		deltaExitOld := mult * oldDelta.DeltaExit
		deltaExitNew := mult * newDelta.DeltaExit

		deltaExitLogExit := plogp(oldExit+deltaExitOld) - plogp(oldExit) +
			plogp(newExit+deltaExitNew) - plogp(newExit)
		deltaFlowLogFlow := plogp(oldM.Flow+oldM.ExitFlow+deltaFlowOldModule+deltaExitOld) - plogp(oldM.Flow+oldM.ExitFlow) +
			plogp(newM.Flow+newM.ExitFlow+deltaFlowNewModule+deltaExitNew) - plogp(newM.Flow+newM.ExitFlow)
		deltaEnter := deltaExitOld + deltaExitNew
		deltaEnterFlowLogEnterFlow := plogp(e.enterFlowSum+deltaEnter) - plogp(e.enterFlowSum)
		delta = deltaEnterFlowLogEnterFlow - 2*deltaExitLogExit + deltaFlowLogFlow

	default: // NoDetailedBalance
		deltaEnterOld := oldDelta.DeltaEnter
		deltaEnterNew := newDelta.DeltaEnter
		deltaExitOld := oldDelta.DeltaExit
		deltaExitNew := newDelta.DeltaExit

		deltaEnterLogEnter := plogp(oldEnter+deltaEnterOld) - plogp(oldEnter) +
			plogp(newEnter+deltaEnterNew) - plogp(newEnter)
		deltaExitLogExit := plogp(oldExit+deltaExitOld) - plogp(oldExit) +
			plogp(newExit+deltaExitNew) - plogp(newExit)
		deltaFlowLogFlow := plogp(oldM.Flow+oldM.ExitFlow+deltaFlowOldModule+deltaExitOld) - plogp(oldM.Flow+oldM.ExitFlow) +
			plogp(newM.Flow+newM.ExitFlow+deltaFlowNewModule+deltaExitNew) - plogp(newM.Flow+newM.ExitFlow)
		deltaEnter := deltaEnterOld + deltaEnterNew
		deltaEnterFlowLogEnterFlow := plogp(e.enterFlowSum+deltaEnter) - plogp(e.enterFlowSum)

		delta = deltaEnterFlowLogEnterFlow - deltaEnterLogEnter - deltaExitLogExit + deltaFlowLogFlow
	}

	if e.memoryCorrection {
		delta -= oldDelta.PhysFlowDelta + newDelta.PhysFlowDelta
	}

	return delta
}

// ApplyMove moves leaf i from its current module into newModule, updating
// the six running sums and both affected ModuleFlow records in O(1) (spec
// §4.4 updateCodelengthOnMovingNode). The caller must pass the same deltas
// already supplied to the matching DeltaCodelength call. If the old module
// becomes empty, its slot is recycled (spec §3 invariant 5) and
// emptied reports true.
func (e *Engine) ApplyMove(i int, newModule int, oldDelta, newDelta DeltaFlow) (emptied bool) {
	lf := e.leaves[i]
	oldModule := e.leafModule[i]
	oldM := &e.modules[oldModule]
	newM := &e.modules[newModule]

	deltaEnterOld, deltaExitOld := oldDelta.DeltaEnter, oldDelta.DeltaExit
	deltaEnterNew, deltaExitNew := newDelta.DeltaEnter, newDelta.DeltaExit
	if e.balance != NoDetailedBalance {
		deltaEnterOld, deltaEnterNew = deltaExitOld, deltaExitNew
		if e.balance == Undirected {
			deltaEnterOld *= 2
			deltaEnterNew *= 2
			deltaExitOld *= 2
			deltaExitNew *= 2
		}
	}

	e.enterLogEnterSum += plogp(oldM.EnterFlow+deltaEnterOld) - plogp(oldM.EnterFlow) +
		plogp(newM.EnterFlow+deltaEnterNew) - plogp(newM.EnterFlow)
	e.exitLogExitSum += plogp(oldM.ExitFlow+deltaExitOld) - plogp(oldM.ExitFlow) +
		plogp(newM.ExitFlow+deltaExitNew) - plogp(newM.ExitFlow)
	e.flowLogFlowSum += plogp(oldM.Flow-lf.Flow+oldM.ExitFlow+deltaExitOld) - plogp(oldM.Flow+oldM.ExitFlow) +
		plogp(newM.Flow+lf.Flow+newM.ExitFlow+deltaExitNew) - plogp(newM.Flow+newM.ExitFlow)

	if e.memoryCorrection {
		deltaNodeFlowLogNodeFlow := oldDelta.PhysFlowDelta + newDelta.PhysFlowDelta
		e.nodeFlowLogNodeFlowSum += deltaNodeFlowLogNodeFlow
	}

	e.enterFlowSum += deltaEnterOld + deltaEnterNew
	e.enterFlowLogEnterFlowSum = plogp(e.enterFlowSum)

	oldM.EnterFlow += deltaEnterOld
	oldM.ExitFlow += deltaExitOld
	newM.EnterFlow += deltaEnterNew
	newM.ExitFlow += deltaExitNew
	wasEmpty := newM.Size == 0
	oldM.subFlow(lf)
	newM.addFlow(lf)

	e.leafModule[i] = newModule
	if wasEmpty {
		e.numActive++
	}

	if oldM.Size == 0 {
		e.freeModules = append(e.freeModules, oldModule)
		e.numActive--
		emptied = true
	}

	return emptied
}

// RecomputeFromScratch rebuilds the six running sums from the current
// module assignment, ignoring any incrementally maintained state. Used at
// Engine construction and by property tests verifying spec §3 invariant 4
// (incremental codelength matches a from-scratch recomputation).
func (e *Engine) RecomputeFromScratch() {
	var enterLogEnter, exitLogExit, flowLogFlow, enterFlowSum, nodeFlowLogNodeFlow float64
	for m := range e.modules {
		mod := &e.modules[m]
		if mod.Size == 0 {
			continue
		}
		enterLogEnter += plogp(mod.EnterFlow)
		exitLogExit += plogp(mod.ExitFlow)
		flowLogFlow += plogp(mod.Flow + mod.ExitFlow)
		enterFlowSum += mod.EnterFlow
		if e.memoryCorrection {
			for _, pf := range mod.PhysFlow {
				nodeFlowLogNodeFlow += plogp(pf)
			}
		}
	}
	if !e.memoryCorrection {
		// Every leaf is its own physical node: the node-entropy term is
		// constant over the leaves.
		for _, lf := range e.leaves {
			nodeFlowLogNodeFlow += plogp(lf.Flow)
		}
	}
	enterFlowSum += e.exitNetworkFlow

	e.enterLogEnterSum = enterLogEnter
	e.exitLogExitSum = exitLogExit
	e.flowLogFlowSum = flowLogFlow
	e.enterFlowSum = enterFlowSum
	e.enterFlowLogEnterFlowSum = plogp(enterFlowSum)
	e.nodeFlowLogNodeFlowSum = nodeFlowLogNodeFlow
}
