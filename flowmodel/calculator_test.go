package flowmodel_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/katalvlaran/mapflow/flowmodel"
	"github.com/katalvlaran/mapflow/mfconfig"
	"github.com/katalvlaran/mapflow/mferrors"
	"github.com/katalvlaran/mapflow/statenet"
)

const eps = 1e-6

func buildNet(t *testing.T, cfg *mfconfig.Config, nodes []statenet.StateID, links [][3]float64) *statenet.StateNetwork {
	t.Helper()
	sn := statenet.New(cfg)
	for _, id := range nodes {
		require.NoError(t, sn.AddStateNode(id, statenet.PhysicalID(id), 1))
	}
	for _, l := range links {
		src, dst, w := statenet.StateID(l[0]), statenet.StateID(l[1]), l[2]
		require.NoError(t, sn.AddLink(src, dst, w))
	}
	require.NoError(t, sn.Finalize())

	return sn
}

func sumNodeFlow(sn *statenet.StateNetwork) float64 {
	var sum float64
	for _, id := range sn.Order() {
		sum += sn.StateNode(id).Flow
	}

	return sum
}

// CalculatorSuite covers the flow models, guard conditions, and
// bipartite/dangling adjustments of the flow calculator.
type CalculatorSuite struct {
	suite.Suite
}

func (s *CalculatorSuite) TestRejectsUnfinalizedNetwork() {
	cfg, _ := mfconfig.New()
	sn := statenet.New(cfg)
	_ = sn.AddStateNode(1, 1, 1)

	_, err := flowmodel.Calculate(sn, cfg)
	kind, ok := mferrors.KindOf(err)
	require.True(s.T(), ok)
	require.Equal(s.T(), mferrors.InvalidGraph, kind)
}

func (s *CalculatorSuite) TestRejectsRawdirWithBipartite() {
	cfg, err := mfconfig.New(mfconfig.WithFlowModel(mfconfig.Directed))
	require.NoError(s.T(), err)
	// Force the otherwise-rejected-at-Validate combination directly onto the
	// struct to exercise Calculate's own guard.
	cfg.FlowModel = mfconfig.Rawdir
	cfg.BipartiteAdjustment = true

	sn := buildNet(s.T(), cfg, []statenet.StateID{1, 2}, [][3]float64{{1, 2, 1}})
	_, err = flowmodel.Calculate(sn, cfg)
	kind, ok := mferrors.KindOf(err)
	require.True(s.T(), ok)
	require.Equal(s.T(), mferrors.FlowModelUnsupported, kind)
}

func (s *CalculatorSuite) TestUndirectedFlowIsSymmetricAndNormalized() {
	cfg, err := mfconfig.New(mfconfig.WithFlowModel(mfconfig.Undirected))
	require.NoError(s.T(), err)
	sn := buildNet(s.T(), cfg, []statenet.StateID{1, 2, 3}, [][3]float64{
		{1, 2, 1}, {2, 1, 1}, {2, 3, 1}, {3, 2, 1},
	})
	_, err = flowmodel.Calculate(sn, cfg)
	require.NoError(s.T(), err)

	require.InDelta(s.T(), 1.0, sumNodeFlow(sn), eps)
	// Node 2 is the hub of a two-edge path, so it should carry more flow
	// than either endpoint.
	require.Greater(s.T(), sn.StateNode(2).Flow, sn.StateNode(1).Flow)
}

func (s *CalculatorSuite) TestDirectedFlowNormalizedAndHandlesDangling() {
	cfg, err := mfconfig.New(mfconfig.WithFlowModel(mfconfig.Directed))
	require.NoError(s.T(), err)
	// Node 3 has no outgoing edges: a dangling node.
	sn := buildNet(s.T(), cfg, []statenet.StateID{1, 2, 3}, [][3]float64{
		{1, 2, 1}, {2, 3, 1},
	})
	res, err := flowmodel.Calculate(sn, cfg)
	require.NoError(s.T(), err)
	require.True(s.T(), res.Converged, "power iteration did not converge within the budget")
	require.InDelta(s.T(), 1.0, sumNodeFlow(sn), eps)
	require.Greater(s.T(), sn.StateNode(3).DanglingFlow, 0.0)
}

func (s *CalculatorSuite) TestRawdirNormalizesLinkWeightDirectly() {
	cfg, err := mfconfig.New(mfconfig.WithFlowModel(mfconfig.Rawdir))
	require.NoError(s.T(), err)
	sn := buildNet(s.T(), cfg, []statenet.StateID{1, 2}, [][3]float64{{1, 2, 3}, {2, 1, 1}})
	_, err = flowmodel.Calculate(sn, cfg)
	require.NoError(s.T(), err)

	var linkSum float64
	for _, l := range sn.Links() {
		linkSum += l.Flow
	}
	require.InDelta(s.T(), 1.0, linkSum, eps)
}

func (s *CalculatorSuite) TestSeededDirectedModelsRunWithoutError() {
	for _, model := range []mfconfig.FlowModel{mfconfig.Undirdir, mfconfig.Outdirdir} {
		cfg, err := mfconfig.New(mfconfig.WithFlowModel(model))
		require.NoError(s.T(), err)
		sn := buildNet(s.T(), cfg, []statenet.StateID{1, 2, 3}, [][3]float64{
			{1, 2, 1}, {2, 3, 1}, {3, 1, 1},
		})
		_, err = flowmodel.Calculate(sn, cfg)
		require.NoError(s.T(), err, "model %v", model)
		require.InDelta(s.T(), 1.0, sumNodeFlow(sn), eps, "model %v", model)
		// Undirdir/Outdirdir are mapeq.DetailedBalance models: enter and
		// exit must come out equal per node, same as Undirected.
		for _, id := range sn.Order() {
			node := sn.StateNode(id)
			require.InDelta(s.T(), node.ExitFlow, node.EnterFlow, eps, "model %v, node %d", model, id)
		}
	}
}

func (s *CalculatorSuite) TestBipartiteAdjustmentRedistributesFeatureFlow() {
	cfg, err := mfconfig.New(mfconfig.WithFlowModel(mfconfig.Undirected), mfconfig.WithBipartite(100))
	require.NoError(s.T(), err)
	// Nodes 1,2 are primary; node 100 is a feature node bridging them.
	sn := buildNet(s.T(), cfg, []statenet.StateID{1, 2, 100}, [][3]float64{
		{1, 100, 1}, {100, 1, 1}, {2, 100, 1}, {100, 2, 1},
	})
	_, err = flowmodel.Calculate(sn, cfg)
	require.NoError(s.T(), err)

	require.Zero(s.T(), sn.StateNode(100).Flow, "feature node flow should be fully redistributed")
	require.Greater(s.T(), sn.StateNode(1).Flow, 0.0)
	require.Greater(s.T(), sn.StateNode(2).Flow, 0.0)
}

func (s *CalculatorSuite) TestWeightThresholdDropsLightLinksBeforeFlow() {
	cfg, err := mfconfig.New(mfconfig.WithFlowModel(mfconfig.Undirected), mfconfig.WithWeightThreshold(5))
	require.NoError(s.T(), err)
	sn := buildNet(s.T(), cfg, []statenet.StateID{1, 2}, [][3]float64{{1, 2, 1}})
	require.Empty(s.T(), sn.Links(), "link below threshold should have been dropped at AddLink time")

	_, err = flowmodel.Calculate(sn, cfg)
	require.NoError(s.T(), err)
}

// Entry point for running the suite.
func TestCalculatorSuite(t *testing.T) {
	suite.Run(t, new(CalculatorSuite))
}
