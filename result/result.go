package result

import (
	"sort"

	"github.com/google/uuid"

	"github.com/katalvlaran/mapflow/statenet"
	"github.com/katalvlaran/mapflow/treestore"
)

// Result is a read-only view over a finished hierarchy.Driver run.
type Result struct {
	store *treestore.Store
	net   *statenet.StateNetwork

	runID              uuid.UUID
	codelength         float64
	oneLevelCodelength float64
	trials             int
}

// New wraps a finished run's tree and summary statistics for querying. net
// is used only to resolve PhysicalNode names; it may be nil.
func New(store *treestore.Store, net *statenet.StateNetwork, runID uuid.UUID, codelength, oneLevelCodelength float64, trials int) *Result {
	return &Result{
		store:              store,
		net:                net,
		runID:              runID,
		codelength:         codelength,
		oneLevelCodelength: oneLevelCodelength,
		trials:             trials,
	}
}

// RunID returns the identifier of the run that produced this result.
func (r *Result) RunID() uuid.UUID { return r.runID }

// Codelength returns the final (possibly hierarchical) map equation value,
// in bits per step, of the returned partition.
func (r *Result) Codelength() float64 { return r.codelength }

// OneLevelCodelength returns the codelength of the trivial one-level
// solution computed for comparison (spec §4.6).
func (r *Result) OneLevelCodelength() float64 { return r.oneLevelCodelength }

// Trials returns how many independent search attempts produced this result.
func (r *Result) Trials() int { return r.trials }

// NumLevels returns the depth of the deepest leaf, counting the root's
// direct children as level 1. A flat (one-level) result reports 1.
func (r *Result) NumLevels() int {
	deepest := 0
	r.store.Walk(r.store.Root(), func(h treestore.Handle) bool {
		if d := r.store.Depth(h); d > deepest {
			deepest = d
		}

		return true
	})

	return deepest
}

// ModuleCounts returns, for each level from 1 to NumLevels(), how many
// module (non-leaf, non-root) nodes exist at that depth.
func (r *Result) ModuleCounts() []int {
	counts := make([]int, r.NumLevels())
	r.store.Walk(r.store.Root(), func(h treestore.Handle) bool {
		d := r.store.Depth(h)
		if d > 0 && d <= len(counts) && !r.store.IsLeaf(h) {
			counts[d-1]++
		}

		return true
	})

	return counts
}

// LeafInfo is one leaf's reported position in the result (spec §4.7).
type LeafInfo struct {
	StateID    statenet.StateID
	PhysicalID statenet.PhysicalID
	Flow       float64
	ModulePath []int
}

// EachLeaf visits every leaf in pre-order, calling fn with its reported
// info. Returning false from fn stops the walk early (spec §4.7 "lazy
// pre-order iterator").
func (r *Result) EachLeaf(fn func(LeafInfo) bool) {
	stop := false
	r.store.Walk(r.store.Root(), func(h treestore.Handle) bool {
		if stop {
			return false
		}
		n := r.store.Node(h)
		if !n.IsLeaf {
			return true
		}
		info := LeafInfo{
			StateID:    n.StateID,
			Flow:       n.Flow,
			ModulePath: r.store.ModulePath(h),
		}
		if sn := r.stateNode(n.StateID); sn != nil {
			info.PhysicalID = sn.PhysicalID
		}
		if !fn(info) {
			stop = true
			return false
		}

		return true
	})
}

func (r *Result) stateNode(id statenet.StateID) *statenet.StateNode {
	if r.net == nil {
		return nil
	}

	return r.net.StateNode(id)
}

// Leaves returns every leaf's reported info, in pre-order.
func (r *Result) Leaves() []LeafInfo {
	var out []LeafInfo
	r.EachLeaf(func(info LeafInfo) bool {
		out = append(out, info)

		return true
	})

	return out
}

// PhysicalView aggregates every state node sharing one physical id, across
// however many module paths they were assigned to (spec §4.7 "physical
// view").
type PhysicalView struct {
	PhysicalID  statenet.PhysicalID
	Name        string
	Flow        float64
	ModulePaths [][]int
}

// PhysicalViews groups Leaves() by physical id, sorted by id.
func (r *Result) PhysicalViews() []PhysicalView {
	byID := make(map[statenet.PhysicalID]*PhysicalView)
	r.EachLeaf(func(info LeafInfo) bool {
		v, ok := byID[info.PhysicalID]
		if !ok {
			v = &PhysicalView{PhysicalID: info.PhysicalID}
			if pn := r.physicalNode(info.PhysicalID); pn != nil {
				v.Name = pn.Name
			}
			byID[info.PhysicalID] = v
		}
		v.Flow += info.Flow
		v.ModulePaths = append(v.ModulePaths, info.ModulePath)

		return true
	})

	out := make([]PhysicalView, 0, len(byID))
	for _, v := range byID {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PhysicalID < out[j].PhysicalID })

	return out
}

func (r *Result) physicalNode(id statenet.PhysicalID) *statenet.PhysicalNode {
	if r.net == nil {
		return nil
	}

	return r.net.PhysicalNode(id)
}
