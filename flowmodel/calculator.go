package flowmodel

import (
	"math"
	"sort"

	"github.com/katalvlaran/mapflow/mfconfig"
	"github.com/katalvlaran/mapflow/mferrors"
	"github.com/katalvlaran/mapflow/statenet"
)

const (
	powerIterMaxSteps  = 200
	powerIterTolerance = 1e-15
	alphaPerturbation  = 1e-10
)

// Result carries the outcome of Calculate beyond the in-place mutation of
// the network: whether the power iteration converged, and how many
// iterations it took. A non-convergent Result is not an error (spec §7:
// NonconvergedFlow is a warning); the best available flow is still written.
type Result struct {
	Converged  bool
	Iterations int
}

// Calculate computes flow for net under cfg.FlowModel and writes it onto
// every state node and link in place. net must be Finalized. Returns a
// *mferrors.Error of Kind FlowModelUnsupported for an unimplemented
// combination (spec §9 Open Question: rawdir + bipartite); non-convergence
// is logged via cfg.Logger and reported in the returned Result, never as an
// error.
func Calculate(net *statenet.StateNetwork, cfg *mfconfig.Config) (Result, error) {
	const op = "flowmodel.Calculate"
	if !net.Finalized() {
		return Result{}, mferrors.New(mferrors.InvalidGraph, op, errNotFinalized)
	}
	order := net.Order()
	if len(order) == 0 {
		return Result{}, mferrors.New(mferrors.InvalidGraph, op, errEmptyNetwork)
	}
	if cfg.FlowModel == mfconfig.Rawdir && cfg.BipartiteAdjustment {
		return Result{}, mferrors.New(mferrors.FlowModelUnsupported, op, nil)
	}

	c := newContext(net, cfg, order)

	var res Result
	var err error
	switch cfg.FlowModel {
	case mfconfig.Undirected:
		res, err = c.calculateUndirected()
	case mfconfig.Directed:
		res, err = c.calculateDirected()
	case mfconfig.Undirdir, mfconfig.Outdirdir:
		res, err = c.calculateSeededDirected()
	case mfconfig.Rawdir:
		res, err = c.calculateRawdir()
	default:
		return Result{}, mferrors.New(mferrors.FlowModelUnsupported, op, errUnknownModel)
	}
	if err != nil {
		return res, err
	}

	if cfg.BipartiteAdjustment {
		c.applyBipartiteAdjustment()
	}

	c.deriveEnterExit()
	c.writeBack()

	if !res.Converged {
		cfg.Logger.Warn().
			Int("iterations", res.Iterations).
			Str("flow_model", cfg.FlowModel.String()).
			Msg("flowmodel: power iteration did not converge, returning best available flow")
		cfg.Metrics.ObserveNonconverged()
	}

	return res, nil
}

// context holds the dense working arrays for one Calculate call: index i
// corresponds to net.Order()[i].
type context struct {
	net   *statenet.StateNetwork
	cfg   *mfconfig.Config
	order []statenet.StateID
	index map[statenet.StateID]int

	nodeWeight []float64
	outWeight  []float64 // sum of outgoing link weight, for row-normalization
	dangling   []bool

	// out[i] is the list of (j, weight) edges leaving i; in[i] symmetric.
	out [][]weightedEdge
	in  [][]weightedEdge

	nodeFlow []float64
	linkFlow map[[2]int]float64 // keyed by (srcIdx, dstIdx)

	exitFlow  []float64
	enterFlow []float64
}

type weightedEdge struct {
	to     int
	weight float64
}

func newContext(net *statenet.StateNetwork, cfg *mfconfig.Config, order []statenet.StateID) *context {
	n := len(order)
	c := &context{
		net:        net,
		cfg:        cfg,
		order:      order,
		index:      make(map[statenet.StateID]int, n),
		nodeWeight: make([]float64, n),
		outWeight:  make([]float64, n),
		dangling:   make([]bool, n),
		out:        make([][]weightedEdge, n),
		in:         make([][]weightedEdge, n),
		nodeFlow:   make([]float64, n),
		linkFlow:   make(map[[2]int]float64),
		exitFlow:   make([]float64, n),
		enterFlow:  make([]float64, n),
	}
	for i, id := range order {
		c.index[id] = i
		if sn := net.StateNode(id); sn != nil {
			c.nodeWeight[i] = sn.Weight
		}
	}
	for i, id := range order {
		for _, l := range net.OutLinks(id) {
			j := c.index[l.Target]
			c.out[i] = append(c.out[i], weightedEdge{to: j, weight: l.Weight})
			c.in[j] = append(c.in[j], weightedEdge{to: i, weight: l.Weight})
			c.outWeight[i] += l.Weight
		}
	}
	for i := range c.dangling {
		c.dangling[i] = c.outWeight[i] <= 0
	}

	return c
}

func (c *context) n() int { return len(c.order) }

// teleportDistribution builds tau per spec §4.2: proportional to node weight
// (teleport-to-nodes) or to link weight (teleport-to-links; source degree
// when unrecorded, target degree when recorded).
func (c *context) teleportDistribution() []float64 {
	n := c.n()
	tau := make([]float64, n)

	if c.cfg.TeleportToNodes {
		sum := 0.0
		for i := 0; i < n; i++ {
			w := c.nodeWeight[i]
			if w <= 0 {
				w = 1
			}
			tau[i] = w
			sum += w
		}
		normalize(tau, sum)

		return tau
	}

	sum := 0.0
	for i := 0; i < n; i++ {
		var deg float64
		if c.cfg.RecordedTeleportation {
			for _, e := range c.in[i] {
				deg += e.weight
			}
		} else {
			for _, e := range c.out[i] {
				deg += e.weight
			}
		}
		if deg <= 0 {
			deg = 1
		}
		tau[i] = deg
		sum += deg
	}
	normalize(tau, sum)

	return tau
}

func normalize(v []float64, sum float64) {
	if sum <= 0 {
		sum = float64(len(v))
		for i := range v {
			v[i] = 1
		}
	}
	for i := range v {
		v[i] /= sum
	}
}

// powerIterate runs π_{k+1} = α·τ + (1−α)(D π_k + β_k·τ) to convergence or
// the iteration budget (spec §4.2). Returns the stationary distribution and
// whether it converged.
func (c *context) powerIterate(tau []float64) ([]float64, Result) {
	n := c.n()
	alpha := c.cfg.TeleportProbability
	pi := make([]float64, n)
	copy(pi, tau)

	next := make([]float64, n)
	lastErr := math.Inf(1)
	stallCount := 0
	converged := false
	iter := 0

	for ; iter < powerIterMaxSteps; iter++ {
		for i := range next {
			next[i] = 0
		}
		var dangleMass float64
		for i := 0; i < n; i++ {
			if c.dangling[i] {
				dangleMass += pi[i]
				continue
			}
			share := pi[i] / c.outWeight[i]
			for _, e := range c.out[i] {
				next[e.to] += share * e.weight
			}
		}
		var diff float64
		for i := 0; i < n; i++ {
			v := alpha*tau[i] + (1-alpha)*(next[i]+dangleMass*tau[i])
			diff += math.Abs(v - pi[i])
			pi[i] = v
		}
		if diff < powerIterTolerance {
			converged = true
			iter++

			break
		}
		if diff >= lastErr {
			stallCount++
			if stallCount > 2 {
				alpha += alphaPerturbation
				stallCount = 0
			}
		} else {
			stallCount = 0
		}
		lastErr = diff
	}

	return pi, Result{Converged: converged, Iterations: iter}
}

// calculateUndirected implements spec §4.2's undirected model: each link is
// two directed half-links of equal weight.
func (c *context) calculateUndirected() (Result, error) {
	n := c.n()
	var total float64
	for i := 0; i < n; i++ {
		for _, e := range c.out[i] {
			w := e.weight
			if i == e.to && !c.cfg.CountSelfLinksTwice {
				// count once: contribute half the usual double-counting.
				w /= 2
			}
			total += w
		}
	}
	if total <= 0 {
		total = 1
	}
	twoW := 2 * total

	for i := 0; i < n; i++ {
		var deg float64
		for _, e := range c.out[i] {
			w := e.weight
			if i == e.to {
				if c.cfg.CountSelfLinksTwice {
					// both ends of the loop land on i: standard convention
					// counts it twice toward i's own degree.
					deg += 2 * w
				} else {
					deg += w
				}
				continue
			}
			deg += w
		}
		for _, e := range c.in[i] {
			if e.to == i {
				continue // already counted as an out-edge above
			}
			deg += e.weight
		}
		c.nodeFlow[i] = deg / twoW
	}

	for i := 0; i < n; i++ {
		for _, e := range c.out[i] {
			f := e.weight / twoW
			c.linkFlow[[2]int{i, e.to}] += f
			if i != e.to {
				c.linkFlow[[2]int{e.to, i}] += f
			}
		}
	}

	return Result{Converged: true, Iterations: 1}, nil
}

// calculateDirected implements spec §4.2's PageRank-with-teleportation
// model, including the unrecorded-teleportation re-weighting pass.
func (c *context) calculateDirected() (Result, error) {
	tau := c.teleportDistribution()
	pi, res := c.powerIterate(tau)
	c.nodeFlow = pi
	alpha := c.cfg.TeleportProbability

	for i := 0; i < c.n(); i++ {
		if c.dangling[i] {
			continue
		}
		share := pi[i] / c.outWeight[i]
		for _, e := range c.out[i] {
			c.linkFlow[[2]int{i, e.to}] += share * e.weight * (1 - alpha)
		}
	}

	if !c.cfg.RecordedTeleportation {
		c.reweightUnrecordedTeleportation()
	}

	return res, nil
}

// reweightUnrecordedTeleportation re-runs one non-teleporting power
// iteration so link flow is attributed only to real transitions, then
// rescales link flows to the node-flow totals (spec §4.2).
func (c *context) reweightUnrecordedTeleportation() {
	n := c.n()
	real := make([]float64, n)
	for i := 0; i < n; i++ {
		if c.dangling[i] {
			continue
		}
		share := c.nodeFlow[i] / c.outWeight[i]
		for _, e := range c.out[i] {
			real[e.to] += share * e.weight
		}
	}
	sum := 0.0
	for _, v := range real {
		sum += v
	}
	if sum <= 0 {
		return
	}
	for k := range c.linkFlow {
		delete(c.linkFlow, k)
	}
	// Link flow is the real (non-teleporting) share of source flow; sum is
	// only used above to detect a degenerate all-dangling network.
	for i := 0; i < n; i++ {
		if c.dangling[i] {
			continue
		}
		share := c.nodeFlow[i] / c.outWeight[i]
		for _, e := range c.out[i] {
			c.linkFlow[[2]int{i, e.to}] += share * e.weight
		}
	}
}

// calculateSeededDirected implements undirdir/outdirdir: seed with the
// undirected steady state, then one directed power iteration, then
// re-normalize node flow.
func (c *context) calculateSeededDirected() (Result, error) {
	if _, err := c.calculateUndirected(); err != nil {
		return Result{}, err
	}
	seed := make([]float64, c.n())
	copy(seed, c.nodeFlow)
	for k := range c.linkFlow {
		delete(c.linkFlow, k)
	}

	tau := c.teleportDistribution()
	alpha := c.cfg.TeleportProbability
	n := c.n()
	next := make([]float64, n)
	var dangleMass float64
	for i := 0; i < n; i++ {
		if c.dangling[i] {
			dangleMass += seed[i]
			continue
		}
		share := seed[i] / c.outWeight[i]
		for _, e := range c.out[i] {
			next[e.to] += share * e.weight
		}
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		next[i] = alpha*tau[i] + (1-alpha)*(next[i]+dangleMass*tau[i])
		sum += next[i]
	}
	normalize(next, sum)
	c.nodeFlow = next

	for i := 0; i < n; i++ {
		if c.dangling[i] {
			continue
		}
		share := seed[i] / c.outWeight[i]
		for _, e := range c.out[i] {
			c.linkFlow[[2]int{i, e.to}] += share * e.weight * (1 - alpha) / sum
		}
	}

	return Result{Converged: true, Iterations: 1}, nil
}

// calculateRawdir implements spec §4.2's rawdir model: link weight is flow
// directly (after global normalization), then one step that sets each
// node's flow to its normalized incoming link flow (uniform only when no
// link carries any weight).
func (c *context) calculateRawdir() (Result, error) {
	n := c.n()
	var total float64
	for i := 0; i < n; i++ {
		for _, e := range c.out[i] {
			total += e.weight
		}
	}
	if total <= 0 {
		total = 1
	}
	for i := 0; i < n; i++ {
		for _, e := range c.out[i] {
			c.linkFlow[[2]int{i, e.to}] = e.weight / total
		}
	}

	pi := make([]float64, n)
	uniform := 1.0 / float64(n)
	for i := 0; i < n; i++ {
		for _, e := range c.out[i] {
			pi[e.to] += e.weight / total
		}
	}
	sum := 0.0
	for _, v := range pi {
		sum += v
	}
	if sum <= 0 {
		for i := range pi {
			pi[i] = uniform
		}
	} else {
		normalize(pi, sum)
	}
	c.nodeFlow = pi

	return Result{Converged: true, Iterations: 1}, nil
}

// applyBipartiteAdjustment redistributes flow on feature nodes (those at or
// above cfg.BipartiteStartID) onto the primary partition, and doubles link
// flow, per spec §4.2 ("Markov time 2 between real nodes equals Markov time
// 1 through features").
func (c *context) applyBipartiteAdjustment() {
	n := c.n()
	isFeature := make([]bool, n)
	for i, id := range c.order {
		if uint64(id) >= c.cfg.BipartiteStartID {
			isFeature[i] = true
		}
	}

	for k, v := range c.linkFlow {
		c.linkFlow[k] = v * 2
	}

	redistributed := make([]float64, n)
	for i := 0; i < n; i++ {
		if !isFeature[i] {
			redistributed[i] = c.nodeFlow[i]
			continue
		}
		// Spread this feature node's flow across its primary neighbours in
		// proportion to incident link weight. Only primary-neighbour weight
		// counts toward the normalizer: a feature-to-feature edge carries no
		// redistribution target, and including it here would leak flow mass
		// instead of conserving it onto the primary partition.
		var totalAdj float64
		for _, e := range c.out[i] {
			if !isFeature[e.to] {
				totalAdj += e.weight
			}
		}
		for _, e := range c.in[i] {
			if !isFeature[e.to] {
				totalAdj += e.weight
			}
		}
		if totalAdj <= 0 {
			continue
		}
		for _, e := range c.out[i] {
			if !isFeature[e.to] {
				redistributed[e.to] += c.nodeFlow[i] * e.weight / totalAdj
			}
		}
		for _, e := range c.in[i] {
			if !isFeature[e.to] {
				redistributed[e.to] += c.nodeFlow[i] * e.weight / totalAdj
			}
		}
	}
	c.nodeFlow = redistributed
}

// deriveEnterExit computes leaf-level enter/exit flow as the sum of
// incoming/outgoing link flow to a different node: the baseline used when
// every node starts as its own singleton module (spec §3 invariant 2,
// collapsed to the finest granularity).
func (c *context) deriveEnterExit() {
	// Sum in key order so the result does not depend on map iteration order.
	keys := make([][2]int, 0, len(c.linkFlow))
	for k := range c.linkFlow {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool {
		if keys[a][0] != keys[b][0] {
			return keys[a][0] < keys[b][0]
		}
		return keys[a][1] < keys[b][1]
	})
	for _, k := range keys {
		i, j := k[0], k[1]
		if i == j {
			continue
		}
		c.exitFlow[i] += c.linkFlow[k]
		c.enterFlow[j] += c.linkFlow[k]
	}

	if isDetailedBalance(c.cfg) {
		for i := range c.exitFlow {
			avg := (c.exitFlow[i] + c.enterFlow[i]) / 2
			c.exitFlow[i] = avg
			c.enterFlow[i] = avg
		}
	}
}

// isDetailedBalance reports whether enterFlow == exitFlow holds for every
// node under the selected flow model (spec §4.4 specializations). Undirdir
// and Outdirdir are seeded from the undirected steady state and walked once
// directedly (calculateSeededDirected), which can leave enter and exit
// slightly apart from floating-point asymmetry in that single step; they
// are forced equal here the same way Undirected is, matching
// mapeq.BalanceKindFor's DetailedBalance grouping for these two models.
func isDetailedBalance(cfg *mfconfig.Config) bool {
	switch cfg.FlowModel {
	case mfconfig.Undirected, mfconfig.Undirdir, mfconfig.Outdirdir:
		return true
	default:
		return false
	}
}

func (c *context) writeBack() {
	for i, id := range c.order {
		sn := c.net.StateNode(id)
		if sn == nil {
			continue
		}
		sn.Flow = c.nodeFlow[i]
		sn.ExitFlow = c.exitFlow[i]
		sn.EnterFlow = c.enterFlow[i]
		if c.dangling[i] {
			sn.DanglingFlow = c.nodeFlow[i]
		}
	}
	for _, id := range c.order {
		i := c.index[id]
		for _, l := range c.net.OutLinks(id) {
			j := c.index[l.Target]
			l.Flow = c.linkFlow[[2]int{i, j}]
		}
	}
}
