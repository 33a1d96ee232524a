package partition

import "github.com/katalvlaran/mapflow/statenet"

// InducedSubNetwork extracts the sub-network formed by the nodes at
// indices (a single module's leaves, typically), keeping only edges with
// both endpoints inside the set. exitFlow is the flow that module was
// measured to leak to the rest of the network one level up; it becomes the
// sub-network's ExitNetworkFlow so a Partitioner recursing into it still
// accounts for what lies outside (spec §8 recursive sub-structure search).
//
// indices must be sorted ascending; the result's dense index i corresponds
// to indices[i].
func InducedSubNetwork(net *Network, indices []int, exitFlow float64) *Network {
	n := len(indices)
	pos := make(map[int]int, n)
	for i, idx := range indices {
		pos[idx] = i
	}

	out := &Network{
		PhysicalID:      make([]statenet.PhysicalID, n),
		Flow:            make([]float64, n),
		EnterFlow:       make([]float64, n),
		ExitFlow:        make([]float64, n),
		Out:             make([][]Edge, n),
		In:              make([][]Edge, n),
		ExitNetworkFlow: exitFlow,
	}
	if net.LeafStateID != nil {
		out.LeafStateID = make([]statenet.StateID, n)
	}

	for i, idx := range indices {
		out.PhysicalID[i] = net.PhysicalID[idx]
		out.Flow[i] = net.Flow[idx]
		out.EnterFlow[i] = net.EnterFlow[idx]
		out.ExitFlow[i] = net.ExitFlow[idx]
		if out.LeafStateID != nil {
			out.LeafStateID[i] = net.LeafStateID[idx]
		}
		for _, e := range net.Out[idx] {
			if j, ok := pos[e.To]; ok {
				out.Out[i] = append(out.Out[i], Edge{To: j, Flow: e.Flow})
			}
		}
		for _, e := range net.In[idx] {
			if j, ok := pos[e.To]; ok {
				out.In[i] = append(out.In[i], Edge{To: j, Flow: e.Flow})
			}
		}
	}

	return out
}
