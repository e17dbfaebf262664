// Package replay plays a board's run frame by frame behind the core.Sim
// interface so the viewers can show it.
package replay

import (
	"os"
	"strconv"

	"mana-ca/internal/config"
	"mana-ca/internal/core"
	"mana-ca/internal/generator"
	"mana-ca/internal/sims/dandelifeon"
	corerng "mana-ca/pkg/core"
)

// Layouts accepted by Config.Layout.
const (
	LayoutReference = "reference"
	LayoutRandom    = "random"
	LayoutFile      = "file"
)

// Config selects what the replay shows.
type Config struct {
	Layout     string
	BoardPath  string
	StepBudget int
	Loop       bool
}

// DefaultConfig replays the reference layout once.
func DefaultConfig() Config {
	return Config{Layout: LayoutReference, StepBudget: dandelifeon.DefaultStepBudget}
}

// FromMap populates a Config from a string map. A "board" path implies the
// file layout.
func FromMap(cfg map[string]string) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	if v, ok := cfg["layout"]; ok && v != "" {
		c.Layout = v
	}
	if v, ok := cfg["board"]; ok && v != "" {
		c.BoardPath = v
		c.Layout = LayoutFile
	}
	if v, ok := cfg["steps"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.StepBudget = parsed
		}
	}
	if v, ok := cfg["loop"]; ok {
		if parsed, err := strconv.ParseBool(v); err == nil {
			c.Loop = parsed
		}
	}
	return c
}

// Sim steps through a precomputed trajectory. Stepping past the final frame
// holds it, or restarts from the initial board when looping.
type Sim struct {
	cfg     Config
	initial *dandelifeon.Board
	seed    int64
	frames  []*dandelifeon.Board
	outcome dandelifeon.Outcome
	frame   int
	cells   []uint8
}

// New replays a fixed board.
func New(b *dandelifeon.Board, cfg Config) *Sim {
	s := &Sim{cfg: cfg, initial: b}
	if s.cfg.StepBudget <= 0 {
		s.cfg.StepBudget = dandelifeon.DefaultStepBudget
	}
	s.replay()
	return s
}

// FromConfig resolves the configured layout. Random layouts are drawn on
// Reset; an unreadable board file falls back to the reference layout.
func FromConfig(cfg Config) *Sim {
	var b *dandelifeon.Board
	switch cfg.Layout {
	case LayoutFile:
		if data, err := os.ReadFile(cfg.BoardPath); err == nil {
			b, _ = config.ParseBoardJSON(data, dandelifeon.AllowBlockedInZone())
		}
	case LayoutRandom:
		b = dandelifeon.Empty()
	}
	if b == nil {
		b = dandelifeon.ReferenceLayout()
	}
	return New(b, cfg)
}

// Name returns the simulation identifier.
func (s *Sim) Name() string { return "dandelifeon" }

// Size returns the grid dimensions.
func (s *Sim) Size() core.Size { return core.Size{W: dandelifeon.Size, H: dandelifeon.Size} }

// Reset rewinds to the first frame. Random layouts draw a fresh board from
// seed.
func (s *Sim) Reset(seed int64) {
	s.seed = seed
	if s.cfg.Layout == LayoutRandom {
		gen, err := generator.New(nil, generator.DefaultConfig())
		if err == nil {
			if b, err := gen.Random(corerng.NewRNG(uint64(seed))); err == nil {
				s.initial = b
			}
		}
	}
	s.replay()
}

// Step advances one frame.
func (s *Sim) Step() {
	switch {
	case s.frame < len(s.frames)-1:
		s.frame++
	case s.cfg.Loop:
		s.frame = 0
	}
}

// Cells returns the display codes of the current frame.
func (s *Sim) Cells() []uint8 {
	s.cells = s.Board().Encode(s.cells)
	return s.cells
}

// Board returns the current frame.
func (s *Sim) Board() *dandelifeon.Board { return s.frames[s.frame] }

// Frame reports the current frame index.
func (s *Sim) Frame() int { return s.frame }

// Frames reports how many frames the run has, the initial board included.
func (s *Sim) Frames() int { return len(s.frames) }

// Outcome returns the result of the replayed run.
func (s *Sim) Outcome() dandelifeon.Outcome { return s.outcome }

// Done reports whether the final frame is showing.
func (s *Sim) Done() bool { return s.frame == len(s.frames)-1 }

func (s *Sim) replay() {
	s.frames, s.outcome = dandelifeon.Trajectory(s.initial, s.cfg.StepBudget)
	s.frame = 0
}

func init() {
	core.Register("dandelifeon", func(cfg map[string]string) core.Sim {
		return FromConfig(FromMap(cfg))
	})
}
