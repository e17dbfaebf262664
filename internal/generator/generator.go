// Package generator produces random and perturbed initial boards on top of a
// fixed terrain.
package generator

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"mana-ca/internal/sims/dandelifeon"
	"mana-ca/pkg/core"
)

var (
	// ErrPlacementExhausted is returned when too many random picks landed on
	// cells that may not be changed.
	ErrPlacementExhausted = errors.New("placement attempts exhausted")
	// ErrInvalidConfig reports an unusable generator configuration.
	ErrInvalidConfig = errors.New("invalid generator config")
)

// Config controls how many cells a random board receives and how often a
// pick may be redrawn.
type Config struct {
	DensityMin  float64
	DensityMax  float64
	MaxAttempts int
	// Blockers caps the blocked cells a candidate may carry on top of the
	// terrain, outside the forbidden zone. Zero keeps candidates to living
	// cells only.
	Blockers int
	// ZoneBlockers caps blocked cells inside the forbidden zone, terrain
	// included. At most two, and only with AllowBlockedInZone.
	ZoneBlockers       int
	AllowBlockedInZone bool
}

// maxZoneBlockers is the most zone cells a random board may block.
const maxZoneBlockers = 2

// DefaultConfig returns a sparse density range. Known good layouts use well
// under one percent of the free cells.
func DefaultConfig() Config {
	return Config{DensityMin: 0.005, DensityMax: 0.04, MaxAttempts: 4096}
}

// FromMap populates a Config from a string map.
func FromMap(cfg map[string]string) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	if v, ok := cfg["density_min"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			c.DensityMin = parsed
		}
	}
	if v, ok := cfg["density_max"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			c.DensityMax = parsed
		}
	}
	for key, dst := range map[string]*int{"max_attempts": &c.MaxAttempts, "blockers": &c.Blockers, "zone_blockers": &c.ZoneBlockers} {
		if v, ok := cfg[key]; ok {
			if parsed, err := strconv.Atoi(v); err == nil {
				*dst = parsed
			}
		}
	}
	return c
}

// Validate checks the density range and attempt limit.
func (c Config) Validate() error {
	switch {
	case c.DensityMin < 0 || c.DensityMax > 1:
		return fmt.Errorf("%w: density range [%g, %g] outside [0, 1]", ErrInvalidConfig, c.DensityMin, c.DensityMax)
	case c.DensityMin > c.DensityMax:
		return fmt.Errorf("%w: density_min %g exceeds density_max %g", ErrInvalidConfig, c.DensityMin, c.DensityMax)
	case c.MaxAttempts <= 0:
		return fmt.Errorf("%w: max_attempts must be positive", ErrInvalidConfig)
	case c.Blockers < 0:
		return fmt.Errorf("%w: blockers must not be negative", ErrInvalidConfig)
	case c.ZoneBlockers < 0 || c.ZoneBlockers > maxZoneBlockers:
		return fmt.Errorf("%w: zone_blockers must lie in [0, %d]", ErrInvalidConfig, maxZoneBlockers)
	case c.ZoneBlockers > 0 && !c.AllowBlockedInZone:
		return fmt.Errorf("%w: zone_blockers needs blocked cells to be allowed in the zone", ErrInvalidConfig)
	}
	return nil
}

// Generator draws candidate boards. It is safe for concurrent use; all
// randomness comes from the RNG passed to each call.
type Generator struct {
	cfg     Config
	terrain *dandelifeon.Board
	fixed   [dandelifeon.CellCount]bool
	free    int
}

// New prepares a generator over terrain. A nil terrain means an empty board.
// Terrain cells, living or blocked, and the forbidden zone are never changed.
func New(terrain *dandelifeon.Board, cfg Config) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if terrain == nil {
		terrain = dandelifeon.Empty()
	}
	g := &Generator{cfg: cfg, terrain: terrain}
	for idx := range g.fixed {
		c := coord(idx)
		fixed := dandelifeon.IsForbidden(c.Row, c.Col) || !terrain.Cell(idx).IsDead()
		g.fixed[idx] = fixed
		if !fixed {
			g.free++
		}
	}
	return g, nil
}

// Terrain returns the base board every candidate starts from.
func (g *Generator) Terrain() *dandelifeon.Board { return g.terrain }

// Free reports how many cells the generator may change.
func (g *Generator) Free() int { return g.free }

// Config returns the generator settings.
func (g *Generator) Config() Config { return g.cfg }

func coord(idx int) dandelifeon.Coord {
	return dandelifeon.Coord{Row: idx / dandelifeon.Size, Col: idx % dandelifeon.Size}
}

// Random returns the terrain with round(density * free) fresh living cells,
// density drawn uniformly from the configured range. With a blocker budget it
// also blocks up to Blockers free cells and, with ZoneBlockers, a few zone
// cells.
func (g *Generator) Random(rng *core.RNG) (*dandelifeon.Board, error) {
	density := g.cfg.DensityMin + rng.Float64()*(g.cfg.DensityMax-g.cfg.DensityMin)
	count := int(math.Round(density * float64(g.free)))
	blockers := 0
	if g.cfg.Blockers > 0 {
		blockers = rng.IntN(g.cfg.Blockers + 1)
	}
	picks, err := g.pick(rng, count+blockers, g.terrain)
	if err != nil {
		return nil, err
	}
	b := g.terrain
	living := len(picks) - blockers
	for i, idx := range picks {
		c := coord(idx)
		if i < living {
			b, err = b.WithAlive(c)
		} else {
			b, err = b.WithCell(dandelifeon.BlockedAt(c.Row, c.Col))
		}
		if err != nil {
			return nil, err
		}
	}
	if g.cfg.ZoneBlockers > 0 {
		return g.blockZone(b, rng)
	}
	return b, nil
}

// blockZone blocks each zone cell with probability 1/8 until ZoneBlockers
// zone cells are blocked.
func (g *Generator) blockZone(b *dandelifeon.Board, rng *core.RNG) (*dandelifeon.Board, error) {
	zone := dandelifeon.ForbiddenZone()
	blocked := 0
	for _, c := range zone {
		if b.At(c.Row, c.Col).IsBlocked() {
			blocked++
		}
	}
	for _, c := range zone {
		if blocked >= g.cfg.ZoneBlockers {
			break
		}
		if b.At(c.Row, c.Col).IsBlocked() || rng.IntN(8) != 0 {
			continue
		}
		var err error
		if b, err = b.WithCell(dandelifeon.BlockedAt(c.Row, c.Col), dandelifeon.AllowBlockedInZone()); err != nil {
			return nil, err
		}
		blocked++
	}
	return b, nil
}

// Perturb returns a copy of b with between 1 and n distinct free cells
// toggled between dead and alive. With a blocker budget a toggled cell may
// also become blocked, and blocked non-terrain cells are cleared.
func (g *Generator) Perturb(b *dandelifeon.Board, n int, rng *core.RNG) (*dandelifeon.Board, error) {
	if n < 1 {
		n = 1
	}
	if n > g.free {
		n = g.free
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: terrain leaves no free cells", ErrPlacementExhausted)
	}
	picks, err := g.pick(rng, 1+rng.IntN(n), b)
	if err != nil {
		return nil, err
	}
	blockers := g.blockers(b)
	next := b
	for _, idx := range picks {
		c := coord(idx)
		cell := next.Cell(idx)
		switch {
		case cell.IsBlocked():
			next, err = next.Unblock(c)
			blockers--
		case blockers < g.cfg.Blockers && rng.IntN(4) == 0:
			next, err = next.WithCell(dandelifeon.BlockedAt(c.Row, c.Col))
			blockers++
		case cell.IsAlive():
			next, err = next.WithDead(c)
		default:
			next, err = next.WithAlive(c)
		}
		if err != nil {
			return nil, err
		}
	}
	return next, nil
}

// blockers counts blocked cells on b that the generator placed.
func (g *Generator) blockers(b *dandelifeon.Board) int {
	n := 0
	for _, c := range b.BlockedCoords() {
		if !g.fixed[c.Row*dandelifeon.Size+c.Col] {
			n++
		}
	}
	return n
}

// pick draws count distinct free cell indices by rejection sampling. Without
// a blocker budget, cells blocked on b are treated as terrain too.
func (g *Generator) pick(rng *core.RNG, count int, b *dandelifeon.Board) ([]int, error) {
	if count > g.free {
		count = g.free
	}
	picks := make([]int, 0, count)
	taken := make(map[int]struct{}, count)
	rejected := 0
	for len(picks) < count {
		idx := rng.IntN(dandelifeon.CellCount)
		if _, dup := taken[idx]; dup || g.fixed[idx] || (g.cfg.Blockers == 0 && b.Cell(idx).IsBlocked()) {
			rejected++
			if rejected > g.cfg.MaxAttempts {
				return nil, fmt.Errorf("%w: %d of %d cells placed after %d rejected draws",
					ErrPlacementExhausted, len(picks), count, rejected)
			}
			continue
		}
		taken[idx] = struct{}{}
		picks = append(picks, idx)
	}
	return picks, nil
}
