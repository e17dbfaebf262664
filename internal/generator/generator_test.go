package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mana-ca/internal/sims/dandelifeon"
	"mana-ca/pkg/core"
)

func terrain(t *testing.T) *dandelifeon.Board {
	t.Helper()
	b, err := dandelifeon.New([]dandelifeon.Placement{
		dandelifeon.BlockedAt(14, 7),
		dandelifeon.BlockedAt(19, 9),
		dandelifeon.AliveAt(2, 2),
	})
	require.NoError(t, err)
	return b
}

func TestRandomRespectsTerrainAndZone(t *testing.T) {
	base := terrain(t)
	g, err := New(base, Config{DensityMin: 0.2, DensityMax: 0.4, MaxAttempts: 10000})
	require.NoError(t, err)
	assert.Equal(t, dandelifeon.CellCount-9-3, g.Free())

	rng := core.NewRNG(42)
	for i := 0; i < 20; i++ {
		b, err := g.Random(rng)
		require.NoError(t, err)
		assert.False(t, b.ZoneAlive())
		assert.Equal(t, base.BlockedCoords(), b.BlockedCoords())
		assert.True(t, b.At(2, 2).IsAlive(), "terrain cell must stay alive")

		added := b.Alive() - 1
		assert.GreaterOrEqual(t, added, int(0.2*float64(g.Free()))-1)
		assert.LessOrEqual(t, added, int(0.4*float64(g.Free()))+1)
	}
}

func TestRandomIsDeterministicPerStream(t *testing.T) {
	g, err := New(terrain(t), DefaultConfig())
	require.NoError(t, err)

	a, err := g.Random(core.NewRNG(9).Derive(1, 2))
	require.NoError(t, err)
	b, err := g.Random(core.NewRNG(9).Derive(1, 2))
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
}

func TestPerturbTogglesBoundedFreeCells(t *testing.T) {
	base := terrain(t)
	g, err := New(base, DefaultConfig())
	require.NoError(t, err)
	rng := core.NewRNG(5)

	start, err := g.Random(rng)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		next, err := g.Perturb(start, 4, rng)
		require.NoError(t, err)

		diff := 0
		for idx := 0; idx < dandelifeon.CellCount; idx++ {
			if next.Cell(idx) == start.Cell(idx) {
				continue
			}
			diff++
			c := coord(idx)
			assert.False(t, dandelifeon.IsForbidden(c.Row, c.Col))
			assert.False(t, base.Cell(idx).IsBlocked())
			assert.NotEqual(t, dandelifeon.Coord{Row: 2, Col: 2}, c)
		}
		assert.GreaterOrEqual(t, diff, 1)
		assert.LessOrEqual(t, diff, 4)
	}
}

func TestPerturbWithNeighbourhoodOneTogglesOneCell(t *testing.T) {
	g, err := New(nil, DefaultConfig())
	require.NoError(t, err)
	next, err := g.Perturb(dandelifeon.Empty(), 0, core.NewRNG(3))
	require.NoError(t, err)
	assert.Equal(t, 1, next.Alive())
}

func TestPlacementExhausted(t *testing.T) {
	// Half the board is terrain, so a full fill keeps missing.
	var ps []dandelifeon.Placement
	for r := 0; r < dandelifeon.Size; r++ {
		for c := 0; c < dandelifeon.Size; c++ {
			if !dandelifeon.IsForbidden(r, c) && (r+c)%2 == 0 {
				ps = append(ps, dandelifeon.BlockedAt(r, c))
			}
		}
	}
	sparse, err := dandelifeon.New(ps)
	require.NoError(t, err)

	g, err := New(sparse, Config{DensityMin: 1, DensityMax: 1, MaxAttempts: 5})
	require.NoError(t, err)
	_, err = g.Random(core.NewRNG(1))
	assert.ErrorIs(t, err, ErrPlacementExhausted)
}

func TestNoFreeCells(t *testing.T) {
	var ps []dandelifeon.Placement
	for r := 0; r < dandelifeon.Size; r++ {
		for c := 0; c < dandelifeon.Size; c++ {
			if !dandelifeon.IsForbidden(r, c) {
				ps = append(ps, dandelifeon.BlockedAt(r, c))
			}
		}
	}
	full, err := dandelifeon.New(ps)
	require.NoError(t, err)

	g, err := New(full, DefaultConfig())
	require.NoError(t, err)
	assert.Zero(t, g.Free())

	b, err := g.Random(core.NewRNG(1))
	require.NoError(t, err)
	assert.Zero(t, b.Alive())

	_, err = g.Perturb(full, 3, core.NewRNG(1))
	assert.ErrorIs(t, err, ErrPlacementExhausted)
}

func TestRandomPlacesBlockersWithinBudget(t *testing.T) {
	base := terrain(t)
	cfg := DefaultConfig()
	cfg.Blockers = 7
	g, err := New(base, cfg)
	require.NoError(t, err)

	rng := core.NewRNG(17)
	seen := 0
	for i := 0; i < 40; i++ {
		b, err := g.Random(rng)
		require.NoError(t, err)
		extra := len(b.BlockedCoords()) - len(base.BlockedCoords())
		assert.GreaterOrEqual(t, extra, 0)
		assert.LessOrEqual(t, extra, 7)
		seen += extra
		for _, c := range base.BlockedCoords() {
			assert.True(t, b.At(c.Row, c.Col).IsBlocked())
		}
		assert.True(t, b.At(2, 2).IsAlive())
		for _, c := range dandelifeon.ForbiddenZone() {
			assert.True(t, b.At(c.Row, c.Col).IsDead())
		}
	}
	assert.Positive(t, seen)
}

func TestPerturbKeepsBlockerBudgetAndTerrain(t *testing.T) {
	base := terrain(t)
	cfg := DefaultConfig()
	cfg.Blockers = 3
	g, err := New(base, cfg)
	require.NoError(t, err)
	rng := core.NewRNG(8)

	b, err := g.Random(rng)
	require.NoError(t, err)
	unblocked := false
	for i := 0; i < 1000; i++ {
		next, err := g.Perturb(b, 6, rng)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(next.BlockedCoords())-len(base.BlockedCoords()), 3)
		for _, c := range base.BlockedCoords() {
			assert.True(t, next.At(c.Row, c.Col).IsBlocked())
		}
		assert.True(t, next.At(2, 2).IsAlive())
		if len(next.BlockedCoords()) < len(b.BlockedCoords()) {
			unblocked = true
		}
		b = next
	}
	assert.True(t, unblocked, "placed blockers can be cleared again")
}

func TestZoneBlockers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ZoneBlockers = 2
	_, err := New(nil, cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig, "zone blockers need the zone option")

	cfg.AllowBlockedInZone = true
	g, err := New(nil, cfg)
	require.NoError(t, err)
	rng := core.NewRNG(4)
	most := 0
	for i := 0; i < 100; i++ {
		b, err := g.Random(rng)
		require.NoError(t, err)
		n := 0
		for _, c := range dandelifeon.ForbiddenZone() {
			if b.At(c.Row, c.Col).IsBlocked() {
				n++
			}
		}
		assert.LessOrEqual(t, n, 2)
		most = max(most, n)
	}
	assert.Equal(t, 2, most)
}

func TestConfigValidation(t *testing.T) {
	_, err := New(nil, Config{DensityMin: 0.5, DensityMax: 0.1, MaxAttempts: 1})
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = New(nil, Config{DensityMin: 0, DensityMax: 2, MaxAttempts: 1})
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = New(nil, Config{DensityMax: 0.1})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(nil, Config{DensityMax: 0.1, MaxAttempts: 1, Blockers: -1})
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = New(nil, Config{DensityMax: 0.1, MaxAttempts: 1, ZoneBlockers: 3, AllowBlockedInZone: true})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg := FromMap(map[string]string{"density_min": "0.1", "density_max": "0.3", "max_attempts": "12", "blockers": "5"})
	assert.Equal(t, Config{DensityMin: 0.1, DensityMax: 0.3, MaxAttempts: 12, Blockers: 5}, cfg)
}
