package bees

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mana-ca/internal/fitness"
	"mana-ca/internal/generator"
	"mana-ca/internal/sims/dandelifeon"
)

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.PopulationSize = 10
	cfg.EliteSites = 2
	cfg.SelectedSites = 3
	cfg.EliteRecruits = 4
	cfg.SelectedRecruits = 2
	cfg.Neighborhood = 6
	cfg.AbandonThreshold = 4
	cfg.MaxGenerations = 12
	cfg.StagnationLimit = 0
	cfg.Seed = 7
	return cfg
}

func newGenerator(t *testing.T, terrain *dandelifeon.Board) *generator.Generator {
	t.Helper()
	g, err := generator.New(terrain, generator.DefaultConfig())
	require.NoError(t, err)
	return g
}

// walledTerrain blocks every cell outside the zone, leaving nothing to place.
func walledTerrain(t *testing.T) *dandelifeon.Board {
	t.Helper()
	var ps []dandelifeon.Placement
	for r := 0; r < dandelifeon.Size; r++ {
		for c := 0; c < dandelifeon.Size; c++ {
			if !dandelifeon.IsForbidden(r, c) {
				ps = append(ps, dandelifeon.BlockedAt(r, c))
			}
		}
	}
	b, err := dandelifeon.New(ps)
	require.NoError(t, err)
	return b
}

func runOptimizer(t *testing.T, cfg Config, opts ...Option) Result {
	t.Helper()
	o, err := New(cfg, newGenerator(t, nil), fitness.Lexicographic{}, opts...)
	require.NoError(t, err)
	res, err := o.Run(context.Background())
	require.NoError(t, err)
	return res
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cases := map[string]func(*Config){
		"population":                 func(c *Config) { c.PopulationSize = 0 },
		"elite_sites+selected_sites": func(c *Config) { c.EliteSites, c.SelectedSites = 6, 5 },
		"elite_recruits":             func(c *Config) { c.EliteRecruits = -1 },
		"selected_recruits":          func(c *Config) { c.SelectedRecruits = -1 },
		"neighborhood":               func(c *Config) { c.Neighborhood = 0 },
		"min_neighborhood":           func(c *Config) { c.MinNeighborhood = 99 },
		"elite_neighborhood_scale":   func(c *Config) { c.EliteNeighborhoodScale = 0 },
		"shrink_rate":                func(c *Config) { c.ShrinkRate = 1 },
		"max_generations":            func(c *Config) { c.MaxGenerations = 0 },
		"stagnation_limit":           func(c *Config) { c.StagnationLimit = -1 },
		"time_budget":                func(c *Config) { c.TimeBudget = -time.Second },
		"steps":                      func(c *Config) { c.StepBudget = -5 },
		"workers":                    func(c *Config) { c.Workers = -2 },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			cfg := smallConfig()
			mutate(&cfg)
			o, err := New(cfg, newGenerator(t, nil), fitness.Lexicographic{})
			require.Error(t, err)
			assert.Nil(t, o)
			assert.ErrorIs(t, err, ErrConfiguration)

			var cerr *ConfigError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, field, cerr.Field)
		})
	}
}

func TestEliteSitesGetAtLeastAsManyRecruits(t *testing.T) {
	cfg := smallConfig()
	cfg.EliteRecruits, cfg.SelectedRecruits = 2, 3
	_, err := New(cfg, newGenerator(t, nil), fitness.Lexicographic{})
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "elite_recruits", cerr.Field)

	cfg.EliteRecruits = 3
	_, err = New(cfg, newGenerator(t, nil), fitness.Lexicographic{})
	assert.NoError(t, err)
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(smallConfig(), nil, fitness.Lexicographic{})
	assert.ErrorIs(t, err, ErrConfiguration)
	_, err = New(smallConfig(), newGenerator(t, nil), nil)
	assert.ErrorIs(t, err, ErrConfiguration)
	_, err = New(smallConfig(), newGenerator(t, nil), fitness.Lexicographic{}, WithWarmStart(nil))
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestRunIsDeterministicAcrossWorkerCounts(t *testing.T) {
	cfg := smallConfig()
	cfg.Workers = 1
	serial := runOptimizer(t, cfg)
	cfg.Workers = 6
	parallel := runOptimizer(t, cfg)
	again := runOptimizer(t, cfg)

	for _, other := range []Result{parallel, again} {
		assert.Equal(t, serial.Best.ID, other.Best.ID)
		assert.Equal(t, serial.Best.Score, other.Best.Score)
		assert.True(t, serial.Best.Board.Equal(other.Best.Board))
		assert.Equal(t, serial.History, other.History)
		assert.Equal(t, serial.Evaluations, other.Evaluations)
	}
}

func TestBestScoreNeverDecreases(t *testing.T) {
	cfg := smallConfig()
	cfg.MaxGenerations = 20
	res := runOptimizer(t, cfg)

	require.Len(t, res.History, 20)
	policy := fitness.Lexicographic{}
	for i := 1; i < len(res.History); i++ {
		assert.GreaterOrEqual(t, policy.Compare(res.History[i].Best, res.History[i-1].Best), 0, "generation %d", i+1)
	}
	assert.Equal(t, res.History[len(res.History)-1].Best, res.Best.Score)
	assert.Equal(t, StopMaxGenerations, res.StopReason)
	assert.Equal(t, 20, res.Generation)
}

func TestBestMatchesItsBoard(t *testing.T) {
	res := runOptimizer(t, smallConfig())
	require.NotNil(t, res.Best.Board)
	assert.Equal(t, dandelifeon.Run(res.Best.Board, dandelifeon.DefaultStepBudget), res.Best.Outcome)
	assert.False(t, res.Best.Board.ZoneAlive())
}

func TestSeedZeroIsReportedAndReplayable(t *testing.T) {
	cfg := smallConfig()
	cfg.Seed = 0
	cfg.MaxGenerations = 4
	first := runOptimizer(t, cfg)
	require.NotZero(t, first.Seed)

	cfg.Seed = first.Seed
	replay := runOptimizer(t, cfg)
	assert.Equal(t, first.History, replay.History)
}

func TestWarmStartKeepsReferenceLayout(t *testing.T) {
	cfg := smallConfig()
	cfg.MaxGenerations = 2
	ref := dandelifeon.ReferenceLayout()
	res := runOptimizer(t, cfg, WithWarmStart(ref))

	assert.GreaterOrEqual(t, res.History[0].Best.Mana, 36000)
	assert.GreaterOrEqual(t, res.Best.Outcome.Mana, 36000)
	assert.Contains(t, res.History[0].Ranking, uint64(1), "the warm-start site is evaluated first")
}

func TestWarmStartMustKeepTerrain(t *testing.T) {
	terrain, err := dandelifeon.New([]dandelifeon.Placement{dandelifeon.BlockedAt(2, 2)})
	require.NoError(t, err)
	gen := newGenerator(t, terrain)

	_, err = New(smallConfig(), gen, fitness.Lexicographic{}, WithWarmStart(dandelifeon.ReferenceLayout()))
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "warm_start", cerr.Field)
	assert.Contains(t, cerr.Reason, "(2, 2)")

	rebased, err := dandelifeon.ReferenceLayout().WithCell(dandelifeon.BlockedAt(2, 2))
	require.NoError(t, err)
	cfg := smallConfig()
	cfg.MaxGenerations = 2
	o, err := New(cfg, gen, fitness.Lexicographic{}, WithWarmStart(rebased))
	require.NoError(t, err)
	res, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Best.Board.At(2, 2).IsBlocked())
}

func TestCancelledRunReturnsBestSoFar(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o, err := New(smallConfig(), newGenerator(t, nil), fitness.Lexicographic{})
	require.NoError(t, err)
	res, err := o.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, IsStop(err))
	assert.Equal(t, StopCancelled, res.StopReason)
	assert.Equal(t, 1, res.Generation)
	assert.NotNil(t, res.Best.Board)
}

func TestTimeBudgetStopsBetweenGenerations(t *testing.T) {
	cfg := smallConfig()
	cfg.MaxGenerations = 100
	cfg.TimeBudget = 2 * time.Second

	o, err := New(cfg, newGenerator(t, nil), fitness.Lexicographic{})
	require.NoError(t, err)
	clock := time.Unix(0, 0)
	o.now = func() time.Time {
		now := clock
		clock = clock.Add(time.Second)
		return now
	}
	res, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopTimeBudget, res.StopReason)
	assert.Equal(t, 2, res.Generation)
}

func TestFailedConstructionsBecomeWarnings(t *testing.T) {
	cfg := smallConfig()
	cfg.StagnationLimit = 3
	cfg.MaxGenerations = 50

	var hooked []Warning
	var generations int
	o, err := New(cfg, newGenerator(t, walledTerrain(t)), fitness.Lexicographic{}, WithHooks(Hooks{
		OnWarning:    func(w Warning) { hooked = append(hooked, w) },
		OnGeneration: func(GenerationStats) { generations++ },
	}))
	require.NoError(t, err)

	res, err := o.Run(context.Background())
	require.NoError(t, err)

	// Nothing can ever improve on the first best, so the run stagnates.
	assert.Equal(t, StopStagnation, res.StopReason)
	assert.Equal(t, 4, res.Generation)
	assert.Equal(t, 4, generations)
	assert.Zero(t, res.Best.Outcome.Cost)

	require.NotEmpty(t, res.Warnings)
	assert.Equal(t, res.Warnings, hooked)
	for _, w := range res.Warnings {
		assert.ErrorIs(t, w.Err, generator.ErrPlacementExhausted)
		assert.Contains(t, w.String(), "placement attempts exhausted")
	}
}

func TestStagnantSiteIsAbandoned(t *testing.T) {
	cfg := smallConfig()
	cfg.PopulationSize = 1
	cfg.EliteSites = 1
	cfg.SelectedSites = 0
	cfg.EliteRecruits = 1
	cfg.SelectedRecruits = 0
	cfg.AbandonThreshold = 1
	cfg.MaxGenerations = 3

	o, err := New(cfg, newGenerator(t, walledTerrain(t)), fitness.Lexicographic{})
	require.NoError(t, err)
	res, err := o.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, res.History, 3)
	assert.Equal(t, []uint64{1}, res.History[0].Ranking)
	assert.Equal(t, []uint64{1}, res.History[1].Ranking)
	// Two stagnant generations exceed the threshold; a fresh scout takes over.
	assert.Equal(t, []uint64{4}, res.History[2].Ranking)
	assert.Equal(t, uint64(1), res.Best.ID)
}

func TestShrinkAndEliteRadius(t *testing.T) {
	assert.Equal(t, 16, shrink(20, 0.2, 1))
	assert.Equal(t, 3, shrink(3, 0.2, 1))
	assert.Equal(t, 4, shrink(6, 0.5, 4))
	assert.Equal(t, 1, shrink(1, 0.5, 1))

	assert.Equal(t, 3, eliteRadius(6, 0.5))
	assert.Equal(t, 1, eliteRadius(1, 0.1))
}

func TestFromMap(t *testing.T) {
	cfg := FromMap(map[string]string{
		"population":       "40",
		"shrink_rate":      "0.3",
		"time_budget":      "90s",
		"seed":             "1234",
		"max_generations":  "not a number",
		"stagnation_limit": "0",
	})
	assert.Equal(t, 40, cfg.PopulationSize)
	assert.Equal(t, 0.3, cfg.ShrinkRate)
	assert.Equal(t, 90*time.Second, cfg.TimeBudget)
	assert.Equal(t, uint64(1234), cfg.Seed)
	assert.Equal(t, DefaultConfig().MaxGenerations, cfg.MaxGenerations)
	assert.Zero(t, cfg.StagnationLimit)
	assert.NoError(t, cfg.Validate())
}
