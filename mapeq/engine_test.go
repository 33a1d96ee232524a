package mapeq_test

import (
	"math"
	"testing"

	"github.com/katalvlaran/mapflow/mapeq"
	"github.com/katalvlaran/mapflow/mfconfig"
)

const eps = 1e-9

func newEngine(leaves []mapeq.LeafFlow, balance mapeq.BalanceKind, memoryCorrection bool) *mapeq.Engine {
	return mapeq.New(leaves, mapeq.Config{Balance: balance, MinImprovement: 1e-10, MemoryCorrection: memoryCorrection})
}

func TestBalanceKindFor(t *testing.T) {
	cases := []struct {
		model mfconfig.FlowModel
		want  mapeq.BalanceKind
	}{
		{mfconfig.Undirected, mapeq.Undirected},
		{mfconfig.Undirdir, mapeq.DetailedBalance},
		{mfconfig.Outdirdir, mapeq.DetailedBalance},
		{mfconfig.Directed, mapeq.NoDetailedBalance},
		{mfconfig.Rawdir, mapeq.NoDetailedBalance},
	}
	for _, c := range cases {
		if got := mapeq.BalanceKindFor(c.model); got != c.want {
			t.Errorf("BalanceKindFor(%v) = %v, want %v", c.model, got, c.want)
		}
	}
}

func TestNewSeedsSingletonModules(t *testing.T) {
	leaves := []mapeq.LeafFlow{
		{PhysicalID: 1, Flow: 0.4, EnterFlow: 0.2, ExitFlow: 0.2},
		{PhysicalID: 2, Flow: 0.6, EnterFlow: 0.2, ExitFlow: 0.2},
	}
	e := newEngine(leaves, mapeq.Undirected, false)

	if e.NumLeaves() != 2 {
		t.Fatalf("NumLeaves() = %d, want 2", e.NumLeaves())
	}
	if e.NumModules() != 2 {
		t.Fatalf("NumModules() = %d, want 2", e.NumModules())
	}
	if e.ModuleOf(0) == e.ModuleOf(1) {
		t.Fatalf("leaves should start in distinct singleton modules")
	}
	if size := e.ModuleSize(e.ModuleOf(0)); size != 1 {
		t.Errorf("ModuleSize(singleton) = %d, want 1", size)
	}
}

func TestDeltaCodelengthMatchesApplyMove(t *testing.T) {
	leaves := []mapeq.LeafFlow{
		{PhysicalID: 1, Flow: 0.4, EnterFlow: 0.2, ExitFlow: 0.2},
		{PhysicalID: 2, Flow: 0.6, EnterFlow: 0.2, ExitFlow: 0.2},
	}
	e := newEngine(leaves, mapeq.Undirected, false)

	modOf0 := e.ModuleOf(0)
	modOf1 := e.ModuleOf(1)

	before := e.Codelength()

	// Merge leaf 1 into leaf 0's module: the boundary flow that used to
	// cross between the two singleton modules no longer crosses anything.
	oldDelta := mapeq.DeltaFlow{Module: modOf1, DeltaExit: -0.2}
	newDelta := mapeq.DeltaFlow{Module: modOf0, DeltaExit: -0.2}

	predictedDelta := e.DeltaCodelength(1, oldDelta, newDelta)
	e.ApplyMove(1, modOf0, oldDelta, newDelta)
	after := e.Codelength()

	if math.Abs((after-before)-predictedDelta) > eps {
		t.Fatalf("DeltaCodelength predicted %g, actual change was %g", predictedDelta, after-before)
	}
}

func TestApplyMoveMatchesRecomputeFromScratch(t *testing.T) {
	leaves := []mapeq.LeafFlow{
		{PhysicalID: 1, Flow: 0.25, EnterFlow: 0.1, ExitFlow: 0.1},
		{PhysicalID: 2, Flow: 0.35, EnterFlow: 0.15, ExitFlow: 0.15},
		{PhysicalID: 3, Flow: 0.40, EnterFlow: 0.1, ExitFlow: 0.1},
	}
	e := newEngine(leaves, mapeq.Undirected, false)

	modOf0 := e.ModuleOf(0)
	modOf1 := e.ModuleOf(1)

	oldDelta := mapeq.DeltaFlow{Module: modOf1, DeltaExit: -0.1}
	newDelta := mapeq.DeltaFlow{Module: modOf0, DeltaExit: -0.1}
	e.ApplyMove(1, modOf0, oldDelta, newDelta)

	incremental := e.Codelength()
	e.RecomputeFromScratch()
	recomputed := e.Codelength()

	if math.Abs(incremental-recomputed) > eps {
		t.Fatalf("incremental codelength %g diverged from RecomputeFromScratch %g", incremental, recomputed)
	}
}

func TestApplyMoveRecyclesEmptiedModule(t *testing.T) {
	leaves := []mapeq.LeafFlow{
		{PhysicalID: 1, Flow: 0.5, EnterFlow: 0.1, ExitFlow: 0.1},
		{PhysicalID: 2, Flow: 0.5, EnterFlow: 0.1, ExitFlow: 0.1},
	}
	e := newEngine(leaves, mapeq.Undirected, false)
	modOf0 := e.ModuleOf(0)
	modOf1 := e.ModuleOf(1)

	oldDelta := mapeq.DeltaFlow{Module: modOf1, DeltaExit: -0.1}
	newDelta := mapeq.DeltaFlow{Module: modOf0, DeltaExit: -0.1}
	emptied := e.ApplyMove(1, modOf0, oldDelta, newDelta)

	if !emptied {
		t.Fatal("ApplyMove should report the source module as emptied")
	}
	if e.NumModules() != 1 {
		t.Fatalf("NumModules() = %d, want 1 after merge", e.NumModules())
	}
	if e.ModuleSize(modOf0) != 2 {
		t.Fatalf("ModuleSize(merged) = %d, want 2", e.ModuleSize(modOf0))
	}
}

func TestNewEmptyModuleAndReleaseRecycleSlot(t *testing.T) {
	leaves := []mapeq.LeafFlow{
		{PhysicalID: 1, Flow: 1.0, EnterFlow: 0, ExitFlow: 0},
	}
	e := newEngine(leaves, mapeq.Undirected, false)

	empty := e.NewEmptyModule()
	if e.ModuleSize(empty) != 0 {
		t.Fatalf("NewEmptyModule should start at size 0, got %d", e.ModuleSize(empty))
	}
	e.ReleaseEmptyModule(empty)

	again := e.NewEmptyModule()
	if again != empty {
		t.Errorf("expected ReleaseEmptyModule to free the slot for reuse: got %v, want %v", again, empty)
	}
}

func TestMemoryCorrectionTracksPhysFlowBuckets(t *testing.T) {
	leaves := []mapeq.LeafFlow{
		{PhysicalID: 7, Flow: 0.3, EnterFlow: 0.1, ExitFlow: 0.1},
		{PhysicalID: 7, Flow: 0.2, EnterFlow: 0.1, ExitFlow: 0.1},
	}
	e := newEngine(leaves, mapeq.Undirected, true)

	modOf0 := e.ModuleOf(0)
	modOf1 := e.ModuleOf(1)
	mf := e.ModuleFlowOf(modOf0)
	if mf.PhysFlow == nil {
		t.Fatal("memory correction should populate PhysFlow per module")
	}
	if got := mf.PhysFlow[7]; math.Abs(got-0.3) > eps {
		t.Errorf("PhysFlow[7] for singleton module = %g, want 0.3", got)
	}

	oldDelta := mapeq.DeltaFlow{Module: modOf1, DeltaExit: -0.1}
	newDelta := mapeq.DeltaFlow{Module: modOf0, DeltaExit: -0.1}
	e.ApplyMove(1, modOf0, oldDelta, newDelta)

	merged := e.ModuleFlowOf(modOf0)
	if got := merged.PhysFlow[7]; math.Abs(got-0.5) > eps {
		t.Errorf("PhysFlow[7] after merge = %g, want 0.5 (both leaves share physical id 7)", got)
	}
}

func TestCodelengthZeroForSingleUniformModule(t *testing.T) {
	leaves := []mapeq.LeafFlow{
		{PhysicalID: 1, Flow: 1.0, EnterFlow: 0, ExitFlow: 0},
	}
	e := newEngine(leaves, mapeq.Undirected, false)
	if got := e.Codelength(); math.Abs(got) > eps {
		t.Errorf("Codelength() for one module with no boundary flow = %g, want ~0", got)
	}
}
