package hierarchy

import (
	"math/rand"

	"github.com/katalvlaran/mapflow/mapeq"
	"github.com/katalvlaran/mapflow/mfrand"
	"github.com/katalvlaran/mapflow/partition"
	"github.com/katalvlaran/mapflow/statenet"
)

// moduleNode is an in-memory module tree produced by buildLevel, emitted
// into a treestore.Store once a trial's search has finished (spec §4.6).
type moduleNode struct {
	isLeaf  bool
	stateID statenet.StateID

	flow, enterFlow, exitFlow, codelength float64

	children []*moduleNode
}

// coreLoopLimit picks the pass cap for one CoreLoop call, honoring
// cfg.RandomizeCoreLoopLimit (spec §6 "randomize_core_loop_limit").
func (d *Driver) coreLoopLimit(rng *rand.Rand) int {
	limit := d.cfg.CoreLoopLimit
	if limit <= 0 {
		return 0
	}
	if d.cfg.RandomizeCoreLoopLimit {
		return 1 + rng.Intn(limit)
	}

	return limit
}

// atDepthLimit reports whether depth has reached the search's configured
// recursion ceiling: max_levels directly, two_level forcing depth 1, and
// fast_hierarchical_solution further capping depth as a supplemented
// pruning knob (spec §8 supplement; levels 1-3 progressively shorten the
// search, level 0 is unbounded beyond max_levels).
func (d *Driver) atDepthLimit(depth int) bool {
	if d.cfg.TwoLevel && depth >= 1 {
		return true
	}
	if d.cfg.MaxLevels > 0 && depth >= d.cfg.MaxLevels {
		return true
	}
	if fhs := d.cfg.FastHierarchicalSolution; fhs > 0 {
		depthCap := 4 - fhs // 1->3, 2->2, 3->1
		if depth >= depthCap {
			return true
		}
	}

	return false
}

func leafFrom(net *partition.Network, i int) *moduleNode {
	var id statenet.StateID
	if net.LeafStateID != nil {
		id = net.LeafStateID[i]
	}

	return &moduleNode{
		isLeaf:    true,
		stateID:   id,
		flow:      net.Flow[i],
		enterFlow: net.EnterFlow[i],
		exitFlow:  net.ExitFlow[i],
	}
}

func flatLeaves(net *partition.Network) []*moduleNode {
	out := make([]*moduleNode, net.NumNodes())
	for i := range out {
		out[i] = leafFrom(net, i)
	}

	return out
}

func flatLeavesFromIndices(net *partition.Network, idxs []int) []*moduleNode {
	out := make([]*moduleNode, len(idxs))
	for i, idx := range idxs {
		out[i] = leafFrom(net, idx)
	}

	return out
}

// tryCoarseTune attempts to merge sibling modules of a just-found partition
// by coarsening net into a super-network of its modules and re-partitioning
// that. If merging shortens the codelength by more than
// min_codelength_improvement, the merged assignment and module count are
// returned; otherwise the original assignment is returned unchanged (spec
// §6 coarse_tune_level / alternate_coarse_tune_level).
func (d *Driver) tryCoarseTune(net *partition.Network, assignment []int, numModules int, codelength float64, depth int, rng *rand.Rand) ([]int, int, float64) {
	if d.cfg.CoarseTuneLevel <= 0 || numModules <= 1 {
		return assignment, numModules, codelength
	}
	if d.cfg.AlternateCoarseTuneLevel && depth%2 == 1 {
		return assignment, numModules, codelength
	}

	super := partition.Coarsen(net, assignment, numModules)
	superRNG := mfrand.Derive(rng, uint64(depth)+0xc0a25e)
	superP, err := partition.New(super, d.cfg, mapeq.BalanceKindFor(d.cfg.FlowModel), false, superRNG)
	if err != nil {
		return assignment, numModules, codelength
	}
	d.cfg.Metrics.ObserveCoreLoopPasses(superP.CoreLoop(d.coreLoopLimit(superRNG)))
	superAssignment, superNumModules := superP.Assignment()
	// super's engine counts node entropy over module flows; restate its
	// codelength over net's leaves so it compares with codelength.
	superCodelength := superP.Engine().Codelength() + oneLevelCodelength(net) - oneLevelCodelength(super)

	if superNumModules >= numModules || superCodelength >= codelength-d.cfg.MinCodelengthImprovement {
		return assignment, numModules, codelength
	}

	merged := make([]int, len(assignment))
	for i, m := range assignment {
		merged[i] = superAssignment[m]
	}

	return merged, superNumModules, superCodelength
}

// tuneLoop alternates coarse-tune attempts until one stops reducing the
// number of modules, the relative improvement drops below
// min_relative_tune_iteration_improvement, or tune_iteration_limit rounds
// have run (spec §4.6 step 6 "fine/coarse-tune alternation"; 0 means
// unbounded by round count).
func (d *Driver) tuneLoop(net *partition.Network, assignment []int, numModules int, codelength float64, depth int, rng *rand.Rand) ([]int, int, float64) {
	for iter := 0; d.cfg.TuneIterationLimit <= 0 || iter < d.cfg.TuneIterationLimit; iter++ {
		if codelength <= 0 {
			break
		}
		nextAssignment, nextNumModules, nextCodelength := d.tryCoarseTune(net, assignment, numModules, codelength, depth, rng)
		if nextNumModules == numModules {
			break
		}
		relativeImprovement := (codelength - nextCodelength) / codelength
		assignment, numModules, codelength = nextAssignment, nextNumModules, nextCodelength
		if relativeImprovement < d.cfg.MinRelativeTuneIterationImprovement {
			break
		}
	}

	return assignment, numModules, codelength
}

// buildLevel partitions net, optionally coarse-tunes the result, and
// recurses into every module found (unless depth-limited) to search for
// further sub-structure. It returns the children that belong directly under
// whatever tree node represents net's container (the store root at depth 0,
// or a parent module node deeper in the recursion), plus the codelength of
// the partition actually used at this level (the single module's
// codelength if the partitioner found one module; 0 if net has at most one
// node or cannot be partitioned).
func (d *Driver) buildLevel(net *partition.Network, depth int, rng *rand.Rand) ([]*moduleNode, float64) {
	if net.NumNodes() <= 1 {
		return flatLeaves(net), 0
	}

	balance := mapeq.BalanceKindFor(d.cfg.FlowModel)
	p, err := partition.New(net, d.cfg, balance, false, rng)
	if err != nil {
		return flatLeaves(net), 0
	}
	d.cfg.Metrics.ObserveCoreLoopPasses(p.CoreLoop(d.coreLoopLimit(rng)))

	assignment, numModules := p.Assignment()
	codelength := p.Engine().Codelength()
	if numModules <= 1 {
		return flatLeaves(net), codelength
	}

	assignment, numModules, codelength = d.tuneLoop(net, assignment, numModules, codelength, depth, rng)
	groups := partition.GroupByModule(net.NumNodes(), assignment, numModules)

	children := make([]*moduleNode, numModules)
	for g, idxs := range groups {
		exitFlow, enterFlow := groupBoundaryFlow(net, idxs)
		groupNode := &moduleNode{flow: groupFlow(net, idxs), exitFlow: exitFlow, enterFlow: enterFlow}

		if len(idxs) <= 1 || d.atDepthLimit(depth+1) {
			groupNode.children = flatLeavesFromIndices(net, idxs)
		} else {
			sub := partition.InducedSubNetwork(net, idxs, exitFlow)
			childRNG := mfrand.Derive(rng, uint64(g))
			nested, nestedCodelength := d.buildLevel(sub, depth+1, childRNG)
			groupNode.children = nested
			groupNode.codelength = nestedCodelength
		}
		children[g] = groupNode
	}

	return children, codelength
}

func groupFlow(net *partition.Network, idxs []int) float64 {
	var sum float64
	for _, i := range idxs {
		sum += net.Flow[i]
	}

	return sum
}

// groupBoundaryFlow computes idxs's exit and enter flow (the flow on edges
// leaving/entering idxs from outside it, spec.md:40) in one pass over a
// shared inGroup set. Exit flow doubles as the induced sub-network's
// ExitNetworkFlow when recursing.
func groupBoundaryFlow(net *partition.Network, idxs []int) (exit, enter float64) {
	inGroup := make(map[int]bool, len(idxs))
	for _, i := range idxs {
		inGroup[i] = true
	}
	for _, i := range idxs {
		for _, e := range net.Out[i] {
			if !inGroup[e.To] {
				exit += e.Flow
			}
		}
		for _, e := range net.In[i] {
			if !inGroup[e.To] {
				enter += e.Flow
			}
		}
	}

	return exit, enter
}
