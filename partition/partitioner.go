package partition

import (
	"math/rand"
	"sort"

	"github.com/katalvlaran/mapflow/mapeq"
	"github.com/katalvlaran/mapflow/mfconfig"
	"github.com/katalvlaran/mapflow/mferrors"
	"github.com/katalvlaran/mapflow/mfrand"
	"github.com/katalvlaran/mapflow/treestore"
)

// Partitioner runs the greedy core loop over a Network, moving nodes
// between dynamic modules via a mapeq.Engine until no single-node move
// improves the codelength by more than cfg.MinCodelengthImprovement (spec
// §4.5 "INIT -> CORE-LOOP -> CONSOLIDATE/STOP").
type Partitioner struct {
	net     *Network
	cfg     *mfconfig.Config
	engine  *mapeq.Engine
	rng     *rand.Rand
	balance mapeq.BalanceKind
}

// New builds a Partitioner over net, seeding one singleton module per node.
// balance selects the move-formula specialization (mapeq.BalanceKindFor).
//
// memoryCorrection seeds the Engine's initial per-physical-id plogp term
// from net's starting assignment, but the core loop's move search does not
// yet track its delta incrementally (see candidateDelta); pass false unless
// every leaf in net already has a unique physical id, in which case the
// term is a constant and the limitation is moot.
func New(net *Network, cfg *mfconfig.Config, balance mapeq.BalanceKind, memoryCorrection bool, rng *rand.Rand) (*Partitioner, error) {
	const op = "partition.New"
	if net.NumNodes() == 0 {
		return nil, mferrors.New(mferrors.InvalidGraph, op, errEmptyNetwork)
	}

	leaves := make([]mapeq.LeafFlow, net.NumNodes())
	for i := range leaves {
		leaves[i] = mapeq.LeafFlow{
			PhysicalID: net.PhysicalID[i],
			Flow:       net.Flow[i],
			EnterFlow:  net.EnterFlow[i],
			ExitFlow:   net.ExitFlow[i],
		}
	}
	engine := mapeq.New(leaves, mapeq.Config{
		Balance:          balance,
		MemoryCorrection: memoryCorrection,
		MinImprovement:   cfg.MinCodelengthImprovement,
		ExitNetworkFlow:  net.ExitNetworkFlow,
		RNG:              rng,
	})

	return &Partitioner{net: net, cfg: cfg, engine: engine, rng: rng, balance: balance}, nil
}

// Engine exposes the underlying mapeq.Engine, primarily so callers can read
// Codelength() between passes.
func (p *Partitioner) Engine() *mapeq.Engine { return p.engine }

// neighborModuleFlow accumulates, for node i, the out-flow and in-flow to
// each module currently holding at least one of i's neighbors.
type neighborFlow struct {
	out, in float64
}

func (p *Partitioner) neighborModules(i int) map[int]*neighborFlow {
	acc := make(map[int]*neighborFlow)
	get := func(m int) *neighborFlow {
		nf, ok := acc[m]
		if !ok {
			nf = &neighborFlow{}
			acc[m] = nf
		}
		return nf
	}
	for _, e := range p.net.Out[i] {
		get(p.engine.ModuleOf(e.To)).out += e.Flow
	}
	for _, e := range p.net.In[i] {
		get(p.engine.ModuleOf(e.To)).in += e.Flow
	}

	return acc
}

// candidateDelta builds the DeltaFlow a move of leaf i into module m would
// produce, given the accumulated neighbor flow nf (nil means "no observed
// edges to m", i.e. the empty-module candidate).
//
// PhysFlowDelta is left at its zero value here: computing the exact
// physical-flow plogp delta requires per-candidate knowledge of the moved
// leaf's physical id against the target module's PhysFlow bucket, which
// Engine already has (via ModuleFlowOf). For a first-order network every
// leaf's physical id is unique, so the term is a move-invariant constant
// and omitting it never changes which move is best; it only matters for
// true memory (multiplex/variable-order) networks, which this candidate
// search does not yet distinguish.
func (p *Partitioner) candidateDelta(i, m int, nf *neighborFlow, gaining bool) mapeq.DeltaFlow {
	var out, in float64
	if nf != nil {
		out, in = nf.out, nf.in
	}

	sign := -1.0
	if !gaining {
		sign = 1.0
	}

	d := mapeq.DeltaFlow{Module: m}
	// Joining m makes the flow between i and m internal and adds i's own
	// exit/enter flow to m's boundary; leaving m does the reverse.
	cross := out + in
	exit, enter := p.net.ExitFlow[i], p.net.EnterFlow[i]
	switch p.balance {
	case mapeq.NoDetailedBalance:
		d.DeltaExit = sign * (cross - exit)
		d.DeltaEnter = sign * (cross - enter)
	case mapeq.Undirected:
		// The engine doubles DeltaExit for undirected half-link pairs.
		d.DeltaExit = sign * (cross - exit) / 2
	default: // DetailedBalance: engine reads DeltaExit only
		d.DeltaExit = sign * (cross - exit)
	}

	return d
}

// bestMove finds the most-improving legal move for leaf i, returning the
// old- and new-module deltas and the codelength change, or ok=false if no
// move improves on cfg.MinCodelengthImprovement.
func (p *Partitioner) bestMove(i int) (oldDelta, newDelta mapeq.DeltaFlow, deltaCodelength float64, ok bool) {
	curModule := p.engine.ModuleOf(i)
	neighbors := p.neighborModules(i)

	candidates := make([]int, 0, len(neighbors)+1)
	for m := range neighbors {
		if m != curModule {
			candidates = append(candidates, m)
		}
	}
	sort.Ints(candidates)

	emptyModule := -1
	if p.engine.ModuleSize(curModule) >= 2 {
		emptyModule = p.engine.NewEmptyModule()
		candidates = append(candidates, emptyModule)
	}

	if len(candidates) > 1 {
		perm := mfrand.Shuffle(p.rng, len(candidates))
		shuffled := make([]int, len(candidates))
		for idx, p2 := range perm {
			shuffled[idx] = candidates[p2]
		}
		candidates = shuffled
	}

	curFlow := neighbors[curModule]
	bestDelta := 0.0
	bestModule := -1
	var bestOld, bestNew mapeq.DeltaFlow

	for _, m := range candidates {
		oldD := p.candidateDelta(i, curModule, curFlow, false)
		newD := p.candidateDelta(i, m, neighbors[m], true)
		newD.Module = m
		delta := p.engine.DeltaCodelength(i, oldD, newD)
		if delta < bestDelta-p.cfg.MinCodelengthImprovement {
			bestDelta = delta
			bestModule = m
			bestOld, bestNew = oldD, newD
		}
	}

	if emptyModule != -1 && bestModule != emptyModule {
		p.engine.ReleaseEmptyModule(emptyModule)
	}

	if bestModule == -1 {
		return mapeq.DeltaFlow{}, mapeq.DeltaFlow{}, 0, false
	}

	return bestOld, bestNew, bestDelta, true
}

// Pass runs one sweep over every node in a random order, greedily applying
// the best improving move found for each (spec §4.5 core loop iteration).
// It returns the number of nodes moved.
func (p *Partitioner) Pass() int {
	n := p.net.NumNodes()
	order := mfrand.Shuffle(p.rng, n)
	moved := 0
	for _, i := range order {
		oldD, newD, _, ok := p.bestMove(i)
		if !ok {
			continue
		}
		p.engine.ApplyMove(i, newD.Module, oldD, newD)
		moved++
	}

	return moved
}

// CoreLoop runs Pass repeatedly until a pass moves nothing, or until limit
// passes have run (limit <= 0 means unbounded). It returns the number of
// passes executed.
func (p *Partitioner) CoreLoop(limit int) int {
	passes := 0
	for {
		moved := p.Pass()
		passes++
		if moved == 0 {
			break
		}
		if limit > 0 && passes >= limit {
			break
		}
	}

	return passes
}

// Assignment returns the current leaf-to-module mapping renumbered into a
// dense [0, numModules) range, preserving the relative order of first
// appearance so results stay deterministic given a deterministic core loop.
func (p *Partitioner) Assignment() (assignment []int, numModules int) {
	n := p.net.NumNodes()
	assignment = make([]int, n)
	renumber := make(map[int]int)
	for i := 0; i < n; i++ {
		m := p.engine.ModuleOf(i)
		dense, ok := renumber[m]
		if !ok {
			dense = len(renumber)
			renumber[m] = dense
		}
		assignment[i] = dense
	}

	return assignment, len(renumber)
}

// Consolidate materializes the current assignment into store as one new
// module child of parent per live dynamic module, each containing the
// leaves assigned to it (spec §4.5 consolidate). Valid only when net was
// built by FromStateNetwork (net.LeafStateID is populated). Returns the
// handles of the newly created module children, in dense module order.
func (p *Partitioner) Consolidate(store *treestore.Store, parent treestore.Handle) []treestore.Handle {
	assignment, numModules := p.Assignment()
	handles := make([]treestore.Handle, numModules)
	for m := range handles {
		handles[m] = store.NewModule(parent)
	}
	for i, m := range assignment {
		store.AddLeaf(handles[m], p.net.LeafStateID[i])
	}

	return handles
}
