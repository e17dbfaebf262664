// Package bees searches for high-yield initial boards with the standard bees
// algorithm: elite and selected sites are refined by recruits perturbing them
// locally, the rest of the population is re-scouted at random, and sites that
// stop improving shrink their neighbourhood and are eventually abandoned.
package bees

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"time"

	"mana-ca/internal/fitness"
	"mana-ca/internal/generator"
	"mana-ca/internal/sims/dandelifeon"
	"mana-ca/pkg/core"
)

// Candidate is an evaluated initial board.
type Candidate struct {
	ID      uint64              `json:"id"`
	Board   *dandelifeon.Board  `json:"-"`
	Outcome dandelifeon.Outcome `json:"outcome"`
	Score   fitness.Score       `json:"score"`
}

// StopReason records why a run ended.
type StopReason string

const (
	StopMaxGenerations StopReason = "max_generations"
	StopStagnation     StopReason = "stagnation"
	StopTimeBudget     StopReason = "time_budget"
	StopCancelled      StopReason = "cancelled"
)

// Warning reports a candidate that could not be built and was replaced.
type Warning struct {
	Generation int    `json:"generation"`
	Site       int    `json:"site"`
	Message    string `json:"message"`
	Err        error  `json:"-"`
}

func (w Warning) String() string {
	return fmt.Sprintf("generation %d site %d: %s", w.Generation, w.Site, w.Message)
}

// GenerationStats summarises one completed generation.
type GenerationStats struct {
	Generation  int           `json:"generation"`
	Best        fitness.Score `json:"best"`
	BestID      uint64        `json:"best_id"`
	Evaluations int           `json:"evaluations"`
	// Ranking lists site candidate IDs best first, as ranked this generation.
	Ranking []uint64 `json:"ranking"`
}

// Result is returned by Run, also on early stops.
type Result struct {
	Best        Candidate         `json:"best"`
	Generation  int               `json:"generation"`
	StopReason  StopReason        `json:"stop_reason"`
	Seed        uint64            `json:"seed"`
	Evaluations int               `json:"evaluations"`
	History     []GenerationStats `json:"history"`
	Warnings    []Warning         `json:"warnings,omitempty"`
}

// Hooks observe a run from the optimizer goroutine. Either may be nil.
type Hooks struct {
	OnGeneration func(GenerationStats)
	OnWarning    func(Warning)
}

// Option adjusts an Optimizer.
type Option func(*Optimizer)

// WithWarmStart seeds the first sites with the given boards instead of
// scouts. Boards beyond the population size are ignored.
func WithWarmStart(boards ...*dandelifeon.Board) Option {
	return func(o *Optimizer) { o.warm = append(o.warm, boards...) }
}

// WithHooks installs progress callbacks.
func WithHooks(h Hooks) Option {
	return func(o *Optimizer) { o.hooks = h }
}

// Optimizer runs the search. A single Optimizer may be run repeatedly; runs do
// not share state.
type Optimizer struct {
	cfg    Config
	gen    *generator.Generator
	policy fitness.Policy
	warm   []*dandelifeon.Board
	hooks  Hooks
	now    func() time.Time
}

// New validates the configuration before any work is done.
func New(cfg Config, gen *generator.Generator, policy fitness.Policy, opts ...Option) (*Optimizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if gen == nil {
		return nil, &ConfigError{Field: "generator", Reason: "is required"}
	}
	if policy == nil {
		return nil, &ConfigError{Field: "policy", Reason: "is required"}
	}
	o := &Optimizer{cfg: cfg, gen: gen, policy: policy, now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	terrain := gen.Terrain()
	for i, b := range o.warm {
		if b == nil {
			return nil, &ConfigError{Field: "warm_start", Reason: fmt.Sprintf("board %d is nil", i)}
		}
		if c, ok := missingTerrain(b, terrain); ok {
			return nil, &ConfigError{Field: "warm_start", Reason: fmt.Sprintf("board %d does not keep terrain cell (%d, %d)", i, c.Row, c.Col)}
		}
	}
	return o, nil
}

// missingTerrain returns the first terrain cell, blocked or alive, that b
// does not carry.
func missingTerrain(b, terrain *dandelifeon.Board) (dandelifeon.Coord, bool) {
	for _, c := range terrain.BlockedCoords() {
		if !b.At(c.Row, c.Col).IsBlocked() {
			return c, true
		}
	}
	for _, c := range terrain.AliveCoords() {
		if !b.At(c.Row, c.Col).IsAlive() {
			return c, true
		}
	}
	return dandelifeon.Coord{}, false
}

// Config returns the validated configuration.
func (o *Optimizer) Config() Config { return o.cfg }

// site is one flower patch: its representative candidate plus local search
// state. A nil candidate waits for a scout.
type site struct {
	cand         *Candidate
	pending      *dandelifeon.Board
	neighborhood int
	stagnation   int
}

type run struct {
	*Optimizer
	eval   *evaluator
	sites  []site
	nextID uint64
	best   *Candidate
	res    Result
}

// Run searches until a stop condition holds between generations. It always
// returns the best candidate found. When ctx ends the run, the partial result
// is returned together with ctx.Err().
func (o *Optimizer) Run(ctx context.Context) (Result, error) {
	seed := o.cfg.Seed
	if seed == 0 {
		seed = core.RandomSeed()
	}
	workers := o.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	r := &run{
		Optimizer: o,
		eval: &evaluator{
			gen:        o.gen,
			policy:     o.policy,
			master:     core.NewRNG(seed),
			stepBudget: o.cfg.StepBudget,
			retries:    o.cfg.MaxRetries,
			workers:    workers,
		},
		sites: make([]site, o.cfg.PopulationSize),
		res:   Result{Seed: seed},
	}
	for i := range r.sites {
		r.sites[i] = site{neighborhood: o.cfg.Neighborhood}
		if i < len(o.warm) {
			r.sites[i].pending = o.warm[i]
		}
	}

	start := o.now()
	sinceImprovement := 0
	for generation := 1; ; generation++ {
		improved := r.generation(generation)
		if improved {
			sinceImprovement = 0
		} else {
			sinceImprovement++
		}
		r.res.Generation = generation

		switch {
		case generation >= o.cfg.MaxGenerations:
			r.res.StopReason = StopMaxGenerations
		case o.cfg.StagnationLimit > 0 && sinceImprovement >= o.cfg.StagnationLimit:
			r.res.StopReason = StopStagnation
		case o.cfg.TimeBudget > 0 && o.now().Sub(start) >= o.cfg.TimeBudget:
			r.res.StopReason = StopTimeBudget
		case ctx.Err() != nil:
			r.res.StopReason = StopCancelled
			return r.result(), ctx.Err()
		default:
			continue
		}
		return r.result(), nil
	}
}

func (r *run) result() Result {
	res := r.res
	res.Best = *r.best
	return res
}

// generation runs one full cycle and reports whether the best improved.
func (r *run) generation(generation int) bool {
	before := r.best

	// Sites waiting for a scout or holding a warm-start board.
	var tasks []task
	var owners []int
	for i, s := range r.sites {
		if s.cand != nil {
			continue
		}
		tasks = append(tasks, task{site: i, recruit: scoutRecruit, board: s.pending})
		owners = append(owners, i)
	}
	for k, c := range r.collect(generation, tasks) {
		s := &r.sites[owners[k]]
		*s = site{cand: c, neighborhood: r.cfg.Neighborhood}
	}

	r.rank()
	ranking := make([]uint64, len(r.sites))
	for i, s := range r.sites {
		ranking[i] = s.cand.ID
	}

	elite := r.cfg.EliteSites
	selected := elite + r.cfg.SelectedSites

	// Local search around elite and selected sites.
	tasks = tasks[:0]
	owners = owners[:0]
	for i := 0; i < selected; i++ {
		s := r.sites[i]
		recruits, radius := r.cfg.SelectedRecruits, s.neighborhood
		if i < elite {
			recruits, radius = r.cfg.EliteRecruits, eliteRadius(s.neighborhood, r.cfg.EliteNeighborhoodScale)
		}
		for j := 0; j < recruits; j++ {
			tasks = append(tasks, task{site: i, recruit: j, origin: s.cand.Board, radius: radius})
			owners = append(owners, i)
		}
	}
	improvedSite := make([]bool, selected)
	for k, c := range r.collect(generation, tasks) {
		s := &r.sites[owners[k]]
		if r.better(c, s.cand) {
			s.cand = c
			improvedSite[owners[k]] = true
		}
	}
	for i := 0; i < selected; i++ {
		s := &r.sites[i]
		if improvedSite[i] {
			s.stagnation = 0
			continue
		}
		s.stagnation++
		s.neighborhood = shrink(s.neighborhood, r.cfg.ShrinkRate, r.cfg.MinNeighborhood)
		if r.cfg.AbandonThreshold > 0 && s.stagnation > r.cfg.AbandonThreshold {
			*s = site{neighborhood: r.cfg.Neighborhood}
		}
	}

	// Global search: everything below the selected sites is re-scouted.
	for i := selected; i < len(r.sites); i++ {
		r.sites[i] = site{neighborhood: r.cfg.Neighborhood}
	}

	stats := GenerationStats{
		Generation:  generation,
		Best:        r.best.Score,
		BestID:      r.best.ID,
		Evaluations: r.res.Evaluations,
		Ranking:     ranking,
	}
	r.res.History = append(r.res.History, stats)
	if r.hooks.OnGeneration != nil {
		r.hooks.OnGeneration(stats)
	}
	return before == nil || r.best != before
}

// collect evaluates a batch, assigns IDs in task order, records warnings and
// folds every candidate into the best-known one.
func (r *run) collect(generation int, tasks []task) []*Candidate {
	if len(tasks) == 0 {
		return nil
	}
	slots := r.eval.runBatch(generation, tasks)
	out := make([]*Candidate, len(slots))
	for i, sl := range slots {
		for _, err := range sl.failures {
			r.warn(Warning{Generation: generation, Site: tasks[i].site, Message: err.Error(), Err: err})
		}
		r.nextID++
		c := &Candidate{ID: r.nextID, Board: sl.board, Outcome: sl.outcome, Score: sl.score}
		out[i] = c
		if r.best == nil || r.better(c, r.best) {
			r.best = c
		}
	}
	r.res.Evaluations += len(slots)
	return out
}

func (r *run) warn(w Warning) {
	r.res.Warnings = append(r.res.Warnings, w)
	if r.hooks.OnWarning != nil {
		r.hooks.OnWarning(w)
	}
}

// better orders candidates by policy, lower ID first on ties.
func (r *run) better(a, b *Candidate) bool {
	if c := r.policy.Compare(a.Score, b.Score); c != 0 {
		return c > 0
	}
	return a.ID < b.ID
}

func (r *run) rank() {
	sort.SliceStable(r.sites, func(i, j int) bool {
		return r.better(r.sites[i].cand, r.sites[j].cand)
	})
}

func eliteRadius(n int, scale float64) int {
	radius := int(float64(n)*scale + 0.5)
	if radius < 1 {
		radius = 1
	}
	return radius
}

func shrink(n int, rate float64, floor int) int {
	n -= int(float64(n) * rate)
	if n < floor {
		n = floor
	}
	return n
}

// IsStop reports whether err only signals that ctx ended the run early.
func IsStop(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
