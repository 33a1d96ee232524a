package partition

import (
	"sort"

	"github.com/katalvlaran/mapflow/statenet"
)

// Edge is a directed, flow-weighted connection between two dense node
// indices within a Network.
type Edge struct {
	To   int
	Flow float64
}

// Network is the dense, index-based graph a Partitioner optimizes over. It
// is built once (FromStateNetwork or Coarsen) and never mutated afterward;
// the partitioner's state lives in mapeq.Engine and in the node-to-module
// assignment it owns.
type Network struct {
	PhysicalID []statenet.PhysicalID
	Flow       []float64
	EnterFlow  []float64
	ExitFlow   []float64

	Out [][]Edge
	In  [][]Edge

	// ExitNetworkFlow is the flow leaving the network this level partitions,
	// as measured one level up the hierarchy; zero at the root network.
	ExitNetworkFlow float64

	// LeafStateID maps a leaf-level network's dense index back to the
	// originating state id. Empty for a coarsened (super-module) network.
	LeafStateID []statenet.StateID
}

// NumNodes returns the number of dense nodes in the network.
func (net *Network) NumNodes() int { return len(net.Flow) }

// FromStateNetwork builds the leaf-level Network from a finalized,
// flow-computed statenet.StateNetwork (spec §4.1 "C2 assigns flow -> C3/C5
// build a flat leaf layer").
func FromStateNetwork(sn *statenet.StateNetwork) *Network {
	order := sn.Order()
	n := len(order)
	index := make(map[statenet.StateID]int, n)
	for i, id := range order {
		index[id] = i
	}

	net := &Network{
		PhysicalID:  make([]statenet.PhysicalID, n),
		Flow:        make([]float64, n),
		EnterFlow:   make([]float64, n),
		ExitFlow:    make([]float64, n),
		Out:         make([][]Edge, n),
		In:          make([][]Edge, n),
		LeafStateID: append([]statenet.StateID(nil), order...),
	}
	for i, id := range order {
		sNode := sn.StateNode(id)
		net.PhysicalID[i] = sNode.PhysicalID
		net.Flow[i] = sNode.Flow
		net.EnterFlow[i] = sNode.EnterFlow
		net.ExitFlow[i] = sNode.ExitFlow
	}
	for _, link := range sn.Links() {
		if link.Source == link.Target {
			continue // self-links never become module-boundary edges
		}
		from, to := index[link.Source], index[link.Target]
		net.Out[from] = append(net.Out[from], Edge{To: to, Flow: link.Flow})
		net.In[to] = append(net.In[to], Edge{To: from, Flow: link.Flow})
	}

	return net
}

// Coarsen builds a super-network where each module of assignment (length
// net.NumNodes(), values in [0, numModules)) becomes one dense node, summing
// flow and aggregating inter-module edges (spec §4.6 "super-module
// iteration"). PhysicalID on the result is meaningless for reporting and is
// left zero; Coarsen is only ever used to find structure above the leaf
// level, never to produce a final result directly.
func Coarsen(net *Network, assignment []int, numModules int) *Network {
	out := &Network{
		PhysicalID: make([]statenet.PhysicalID, numModules),
		Flow:       make([]float64, numModules),
		EnterFlow:  make([]float64, numModules),
		ExitFlow:   make([]float64, numModules),
		Out:        make([][]Edge, numModules),
		In:         make([][]Edge, numModules),
	}
	for i := 0; i < net.NumNodes(); i++ {
		m := assignment[i]
		out.Flow[m] += net.Flow[i]
	}

	type key struct{ from, to int }
	agg := make(map[key]float64)
	for i := range net.Out {
		for _, e := range net.Out[i] {
			mi, mj := assignment[i], assignment[e.To]
			if mi == mj {
				continue
			}
			agg[key{mi, mj}] += e.Flow
		}
	}
	keys := make([]key, 0, len(agg))
	for k := range agg {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].from != keys[j].from {
			return keys[i].from < keys[j].from
		}
		return keys[i].to < keys[j].to
	})
	for _, k := range keys {
		flow := agg[k]
		out.Out[k.from] = append(out.Out[k.from], Edge{To: k.to, Flow: flow})
		out.In[k.to] = append(out.In[k.to], Edge{To: k.from, Flow: flow})
		out.ExitFlow[k.from] += flow
		out.EnterFlow[k.to] += flow
	}
	out.ExitNetworkFlow = net.ExitNetworkFlow

	return out
}

// GroupByModule buckets the dense indices [0, n) by their assignment value,
// returning one slice per module id in [0, numModules), each sorted
// ascending.
func GroupByModule(n int, assignment []int, numModules int) [][]int {
	groups := make([][]int, numModules)
	for i := 0; i < n; i++ {
		m := assignment[i]
		groups[m] = append(groups[m], i)
	}

	return groups
}
