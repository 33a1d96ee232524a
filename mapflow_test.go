package mapflow_test

import (
	"testing"

	"github.com/katalvlaran/mapflow"
	"github.com/katalvlaran/mapflow/mfconfig"
	"github.com/katalvlaran/mapflow/statenet"
)

// twoCliqueNetwork builds two tightly-linked four-node groups joined by a
// single weak bridge: the network should split into two modules.
func twoCliqueNetwork(t *testing.T, cfg *mfconfig.Config) *statenet.StateNetwork {
	t.Helper()
	sn := statenet.New(cfg)
	for i := statenet.StateID(1); i <= 8; i++ {
		if err := sn.AddStateNode(i, statenet.PhysicalID(i), 1); err != nil {
			t.Fatalf("AddStateNode(%d) error = %v", i, err)
		}
	}
	groupA := []statenet.StateID{1, 2, 3, 4}
	groupB := []statenet.StateID{5, 6, 7, 8}
	for _, group := range [][]statenet.StateID{groupA, groupB} {
		for _, a := range group {
			for _, b := range group {
				if a != b {
					_ = sn.AddLink(a, b, 10)
				}
			}
		}
	}
	_ = sn.AddLink(4, 5, 1)
	_ = sn.AddLink(5, 4, 1)
	if err := sn.Finalize(); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	return sn
}

func TestClusterEndToEndProducesQueryableResult(t *testing.T) {
	cfg, err := mfconfig.New(mfconfig.WithSeed(42), mfconfig.WithNumTrials(2))
	if err != nil {
		t.Fatalf("mfconfig.New() error = %v", err)
	}
	sn := twoCliqueNetwork(t, cfg)

	res, err := mapflow.Cluster(sn, cfg)
	if err != nil {
		t.Fatalf("Cluster() error = %v", err)
	}

	leaves := res.Leaves()
	if len(leaves) != 8 {
		t.Fatalf("Leaves() returned %d entries, want 8", len(leaves))
	}
	if res.Codelength() <= 0 {
		t.Errorf("Codelength() = %g, want > 0", res.Codelength())
	}
	if res.Codelength() > res.OneLevelCodelength() {
		t.Errorf("hierarchical codelength %g exceeds one-level codelength %g", res.Codelength(), res.OneLevelCodelength())
	}

	views := res.PhysicalViews()
	if len(views) != 8 {
		t.Fatalf("PhysicalViews() returned %d entries, want 8", len(views))
	}

	pathOf := make(map[statenet.StateID]string)
	for _, l := range leaves {
		key := ""
		for _, idx := range l.ModulePath[:len(l.ModulePath)-1] {
			key += string(rune('A' + idx))
		}
		pathOf[l.StateID] = key
	}
	for _, id := range []statenet.StateID{1, 2, 3} {
		if pathOf[id] != pathOf[4] {
			t.Errorf("state %d module prefix %q differs from state 4's %q", id, pathOf[id], pathOf[4])
		}
	}
	if pathOf[1] == pathOf[8] {
		t.Errorf("clique A and clique B collapsed into the same module prefix %q", pathOf[1])
	}
}

func TestClusterRejectsUnfinalizedNetwork(t *testing.T) {
	cfg, _ := mfconfig.New()
	sn := statenet.New(cfg)
	_ = sn.AddStateNode(1, 1, 1)

	if _, err := mapflow.Cluster(sn, cfg); err == nil {
		t.Fatal("Cluster() on an unfinalized network should fail")
	}
}

func TestClusterIsDeterministicGivenSeed(t *testing.T) {
	cfg, err := mfconfig.New(mfconfig.WithSeed(99), mfconfig.WithNumTrials(2))
	if err != nil {
		t.Fatalf("mfconfig.New() error = %v", err)
	}

	res1, err := mapflow.Cluster(twoCliqueNetwork(t, cfg), cfg)
	if err != nil {
		t.Fatalf("Cluster() error = %v", err)
	}
	res2, err := mapflow.Cluster(twoCliqueNetwork(t, cfg), cfg)
	if err != nil {
		t.Fatalf("Cluster() error = %v", err)
	}

	if res1.Codelength() != res2.Codelength() {
		t.Errorf("Codelength diverged across identical-seed runs: %g != %g", res1.Codelength(), res2.Codelength())
	}
}
