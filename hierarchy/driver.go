package hierarchy

import (
	"math"
	"math/rand"

	"github.com/google/uuid"

	"github.com/katalvlaran/mapflow/mfconfig"
	"github.com/katalvlaran/mapflow/mferrors"
	"github.com/katalvlaran/mapflow/mfrand"
	"github.com/katalvlaran/mapflow/partition"
	"github.com/katalvlaran/mapflow/statenet"
	"github.com/katalvlaran/mapflow/treestore"
)

// Driver runs the full clustering search over a finalized, flow-computed
// state network: num_trials independent attempts, each a recursive
// hierarchical partition search, keeping the best codelength found and
// falling back to the one-level solution when no partition beats it (spec
// §4.6).
type Driver struct {
	cfg *mfconfig.Config
}

// NewDriver returns a Driver that runs under cfg.
func NewDriver(cfg *mfconfig.Config) *Driver {
	return &Driver{cfg: cfg}
}

// RunResult is the outcome of one Driver.Run call (spec §4.6, §4.7).
type RunResult struct {
	RunID uuid.UUID

	Store *treestore.Store

	Codelength         float64
	OneLevelCodelength float64
	Trials             int
}

// Run searches net for the module hierarchy that minimizes the map
// equation codelength. net must be Finalized and have had flowmodel.Calculate
// already run over it.
func (d *Driver) Run(net *statenet.StateNetwork) (*RunResult, error) {
	const op = "hierarchy.Run"
	if !net.Finalized() {
		return nil, mferrors.New(mferrors.InvalidGraph, op, errNotFinalized)
	}

	leafNet := partition.FromStateNetwork(net)
	if leafNet.NumNodes() == 0 {
		return nil, mferrors.New(mferrors.InvalidGraph, op, errEmptyNetwork)
	}

	runID := uuid.New()
	oneLevel := oneLevelCodelength(leafNet)

	baseRNG := mfrand.New(d.cfg.SeedToRNG)

	var bestStore *treestore.Store
	bestCodelength := math.Inf(1)

	for trial := 0; trial < d.cfg.NumTrials; trial++ {
		trialRNG := mfrand.Derive(baseRNG, uint64(trial))
		store, codelength := d.runTrial(leafNet, trialRNG)

		d.cfg.Metrics.ObserveTrial(codelength)
		d.cfg.Logger.Debug().
			Int("trial", trial).
			Float64("codelength", codelength).
			Msg("hierarchy: trial finished")

		if codelength < bestCodelength {
			bestCodelength = codelength
			bestStore = store
		}
	}

	if oneLevel <= bestCodelength+d.cfg.MinCodelengthImprovement {
		bestStore = oneLevelStore(leafNet)
		bestCodelength = oneLevel
		d.cfg.Logger.Info().
			Float64("one_level_codelength", oneLevel).
			Msg("hierarchy: one-level solution not beaten, collapsing")
	}

	return &RunResult{
		RunID:              runID,
		Store:              bestStore,
		Codelength:         bestCodelength,
		OneLevelCodelength: oneLevel,
		Trials:             d.cfg.NumTrials,
	}, nil
}

// runTrial performs one independent search attempt and returns the
// resulting tree and its codelength.
func (d *Driver) runTrial(leafNet *partition.Network, rng *rand.Rand) (*treestore.Store, float64) {
	store := treestore.New()
	children, codelength := d.buildLevel(leafNet, 0, rng)
	for _, c := range children {
		emit(store, store.Root(), c)
	}

	return store, codelength
}

// oneLevelStore materializes the trivial one-level solution: every leaf
// attached directly to the root, no intermediate modules.
func oneLevelStore(net *partition.Network) *treestore.Store {
	store := treestore.New()
	for i := 0; i < net.NumNodes(); i++ {
		h := store.AddLeaf(store.Root(), net.LeafStateID[i])
		n := store.Node(h)
		n.Flow, n.EnterFlow, n.ExitFlow = net.Flow[i], net.EnterFlow[i], net.ExitFlow[i]
	}

	return store
}

// oneLevelCodelength is the Shannon entropy of the node visit-rate
// distribution: the codelength of describing the walker's position with no
// module structure at all (spec §4.6 "one-level baseline").
func oneLevelCodelength(net *partition.Network) float64 {
	var h float64
	for _, f := range net.Flow {
		if f <= 0 {
			continue
		}
		h -= f * math.Log2(f)
	}

	return h
}
