// Package mfconfig holds the immutable configuration the clustering engine
// reads at construction (spec §6), plus the ambient logging and metrics
// sinks threaded through every other package.
//
// Configuration is built with functional options (Option), mirroring
// lvlath/builder.BuilderOption and lvlath/dijkstra.Option: option
// constructors panic on programmer error (nil pointers, malformed
// callbacks), while value-range problems that can only be detected once all
// options are applied are surfaced by Validate() as a *mferrors.Error of
// Kind InvalidConfiguration.
package mfconfig

import (
	"fmt"
	"math"

	"github.com/katalvlaran/mapflow/mferrors"
)

// Config is the full set of values the engine reads at construction. Zero
// value is meaningless; always obtain one via New.
type Config struct {
	FlowModel FlowModel

	TeleportProbability   float64
	TeleportToNodes       bool
	RecordedTeleportation bool

	IncludeSelfLinks    bool
	CountSelfLinksTwice bool // resolves spec.md §9 Open Question 1; default false = count once
	WeightThreshold     float64

	NumTrials int

	TwoLevel bool

	MinCodelengthImprovement float64

	CoreLoopLimit          int
	RandomizeCoreLoopLimit bool
	LevelAggregationLimit  int
	TuneIterationLimit     int

	CoarseTuneLevel          int
	AlternateCoarseTuneLevel bool

	MinRelativeTuneIterationImprovement float64

	FastHierarchicalSolution int

	MaxLevels int

	SeedToRNG int64

	BipartiteStartID    uint64
	BipartiteAdjustment bool

	Logger  Logger
	Metrics *Metrics
}

// Option configures a Config before validation.
type Option func(*Config)

// defaults per spec §6.
func defaults() *Config {
	return &Config{
		FlowModel:                           Directed,
		TeleportProbability:                 0.15,
		TeleportToNodes:                     true,
		RecordedTeleportation:               true,
		IncludeSelfLinks:                    false,
		CountSelfLinksTwice:                 false,
		WeightThreshold:                     0,
		NumTrials:                           1,
		TwoLevel:                            false,
		MinCodelengthImprovement:            1e-10,
		CoreLoopLimit:                       10,
		RandomizeCoreLoopLimit:              true,
		LevelAggregationLimit:               0,
		TuneIterationLimit:                  0,
		CoarseTuneLevel:                     1,
		AlternateCoarseTuneLevel:            false,
		MinRelativeTuneIterationImprovement: 1e-5,
		FastHierarchicalSolution:            0,
		MaxLevels:                           math.MaxInt32,
		SeedToRNG:                           0,
		BipartiteStartID:                    math.MaxUint64,
		BipartiteAdjustment:                 false,
		Logger:                              DiscardLogger,
		Metrics:                             nil,
	}
}

// New builds a Config from defaults plus opts, then validates it. Returns a
// *mferrors.Error of Kind InvalidConfiguration (or FlowModelUnsupported for
// a known-bad combination) on the first violated constraint.
func New(opts ...Option) (*Config, error) {
	cfg := defaults()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cross-field constraints that cannot be enforced by a
// single Option constructor.
func (c *Config) Validate() error {
	const op = "mfconfig.Validate"
	switch {
	case c.TeleportProbability <= 0 || c.TeleportProbability >= 1:
		return mferrors.New(mferrors.InvalidConfiguration, op,
			fmt.Errorf("teleport_probability must be in (0,1), got %g", c.TeleportProbability))
	case c.NumTrials < 1:
		return mferrors.New(mferrors.InvalidConfiguration, op,
			fmt.Errorf("num_trials must be >= 1, got %d", c.NumTrials))
	case c.MinCodelengthImprovement < 0:
		return mferrors.New(mferrors.InvalidConfiguration, op, fmt.Errorf("min_codelength_improvement must be >= 0"))
	case c.CoreLoopLimit < 0:
		return mferrors.New(mferrors.InvalidConfiguration, op, fmt.Errorf("core_loop_limit must be >= 0"))
	case c.CoarseTuneLevel < 0:
		return mferrors.New(mferrors.InvalidConfiguration, op, fmt.Errorf("coarse_tune_level must be >= 0"))
	case c.FastHierarchicalSolution < 0 || c.FastHierarchicalSolution > 3:
		return mferrors.New(mferrors.InvalidConfiguration, op, fmt.Errorf("fast_hierarchical_solution must be in [0,3]"))
	case c.MaxLevels < 1:
		return mferrors.New(mferrors.InvalidConfiguration, op, fmt.Errorf("max_levels must be >= 1"))
	case c.WeightThreshold < 0:
		return mferrors.New(mferrors.InvalidConfiguration, op, fmt.Errorf("weight_threshold must be >= 0"))
	case c.FlowModel == Rawdir && c.BipartiteAdjustment:
		// spec.md §9 Open Question 2: rawdir + bipartite adjustment is
		// marked unsupported rather than guessed at.
		return mferrors.New(mferrors.FlowModelUnsupported, op,
			fmt.Errorf("rawdir flow model does not support bipartite adjustment"))
	}

	return nil
}

// --- functional options, grounded on lvlath/builder.BuilderOption ---

// WithFlowModel sets the stationary-distribution model (default Directed).
func WithFlowModel(m FlowModel) Option { return func(c *Config) { c.FlowModel = m } }

// WithTeleportProbability sets alpha, the teleport probability (default 0.15).
func WithTeleportProbability(alpha float64) Option {
	return func(c *Config) { c.TeleportProbability = alpha }
}

// WithTeleportToLinks switches teleportation to be proportional to link
// weight instead of node weight.
func WithTeleportToLinks() Option { return func(c *Config) { c.TeleportToNodes = false } }

// WithUnrecordedTeleportation disables recorded teleportation (default is
// recorded).
func WithUnrecordedTeleportation() Option {
	return func(c *Config) { c.RecordedTeleportation = false }
}

// WithSelfLinks allows self-links to be kept by statenet.AddLink instead of
// dropped, and optionally counts them twice under undirected flow models
// (spec.md §9 Open Question 1; default is count-once).
func WithSelfLinks(countTwice bool) Option {
	return func(c *Config) {
		c.IncludeSelfLinks = true
		c.CountSelfLinksTwice = countTwice
	}
}

// WithWeightThreshold sets the minimum link weight kept by statenet.AddLink;
// lighter links are dropped (and counted, never fatal). Panics if negative.
func WithWeightThreshold(t float64) Option {
	if t < 0 {
		panic("mfconfig: WithWeightThreshold(negative)")
	}

	return func(c *Config) { c.WeightThreshold = t }
}

// WithNumTrials sets how many independent hierarchy.Driver attempts to run,
// keeping the lowest-codelength one. Panics if n < 1.
func WithNumTrials(n int) Option {
	if n < 1 {
		panic("mfconfig: WithNumTrials(<1)")
	}

	return func(c *Config) { c.NumTrials = n }
}

// WithTwoLevel stops the hierarchical driver after the first partition,
// never producing a tree deeper than two levels (spec §8 property 6).
func WithTwoLevel() Option { return func(c *Config) { c.TwoLevel = true } }

// WithMinCodelengthImprovement sets epsilon, the minimum-gain threshold a
// move must clear to be applied (default 1e-10). Panics if negative.
func WithMinCodelengthImprovement(eps float64) Option {
	if eps < 0 {
		panic("mfconfig: WithMinCodelengthImprovement(negative)")
	}

	return func(c *Config) { c.MinCodelengthImprovement = eps }
}

// WithCoreLoopLimit bounds the number of passes in the partitioner's core
// loop; 0 means unlimited. Panics if negative.
func WithCoreLoopLimit(n int) Option {
	if n < 0 {
		panic("mfconfig: WithCoreLoopLimit(negative)")
	}

	return func(c *Config) { c.CoreLoopLimit = n }
}

// WithoutRandomizedCoreLoopLimit disables the jitter applied to the
// effective core-loop limit (default applies jitter).
func WithoutRandomizedCoreLoopLimit() Option {
	return func(c *Config) { c.RandomizeCoreLoopLimit = false }
}

// WithLevelAggregationLimit bounds how many consolidation levels the
// partitioner produces; 0 means unlimited.
func WithLevelAggregationLimit(n int) Option {
	return func(c *Config) { c.LevelAggregationLimit = n }
}

// WithTuneIterationLimit bounds how many coarse-tune rounds hierarchy's
// tuneLoop repeats at a given level (spec §4.6 step 6); 0 means unlimited
// (bounded only by MinRelativeTuneIterationImprovement).
func WithTuneIterationLimit(n int) Option {
	return func(c *Config) { c.TuneIterationLimit = n }
}

// WithCoarseTuneLevel sets how deep the coarse-tune nested search goes
// (default 1).
func WithCoarseTuneLevel(level int) Option {
	return func(c *Config) { c.CoarseTuneLevel = level }
}

// WithAlternateCoarseTuneLevel rotates the coarse-tune depth each tune
// iteration instead of holding it fixed.
func WithAlternateCoarseTuneLevel() Option {
	return func(c *Config) { c.AlternateCoarseTuneLevel = true }
}

// WithMinRelativeTuneIterationImprovement sets the relative-improvement
// floor that stops hierarchy's tuneLoop from repeating coarse-tune
// (default 1e-5).
func WithMinRelativeTuneIterationImprovement(rel float64) Option {
	return func(c *Config) { c.MinRelativeTuneIterationImprovement = rel }
}

// WithFastHierarchicalSolution selects a pruning aggressiveness in {0,1,2,3}
// (spec §6; 0 = full search). Panics outside that range.
func WithFastHierarchicalSolution(level int) Option {
	if level < 0 || level > 3 {
		panic("mfconfig: WithFastHierarchicalSolution(out of range)")
	}

	return func(c *Config) { c.FastHierarchicalSolution = level }
}

// WithMaxLevels bounds the recursion depth of §4.6 step 7. Panics if < 1.
func WithMaxLevels(n int) Option {
	if n < 1 {
		panic("mfconfig: WithMaxLevels(<1)")
	}

	return func(c *Config) { c.MaxLevels = n }
}

// WithSeed sets seed_to_rng; 0 selects entropy-seeded RNG (default).
func WithSeed(seed int64) Option { return func(c *Config) { c.SeedToRNG = seed } }

// WithBipartite enables the bipartite adjustment (spec §4.2) and sets the
// id at or above which state nodes are treated as "feature" nodes.
func WithBipartite(startID uint64) Option {
	return func(c *Config) {
		c.BipartiteAdjustment = true
		c.BipartiteStartID = startID
	}
}

// WithLogger installs a structured-logging sink. Panics on nil; use
// DiscardLogger explicitly to silence logging.
func WithLogger(l Logger) Option {
	if l == nil {
		panic("mfconfig: WithLogger(nil)")
	}

	return func(c *Config) { c.Logger = l }
}

// WithMetrics installs an optional Prometheus instrument bundle. A nil
// *Metrics disables instrumentation (every observe call becomes a no-op).
func WithMetrics(m *Metrics) Option { return func(c *Config) { c.Metrics = m } }
