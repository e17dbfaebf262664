package bees

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"time"

	"mana-ca/internal/sims/dandelifeon"
)

// ErrConfiguration reports hyperparameters rejected before a run starts.
var ErrConfiguration = errors.New("invalid optimizer configuration")

// ConfigError names the offending field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid optimizer configuration: %s %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfiguration }

// Config holds the optimizer hyperparameters.
type Config struct {
	// PopulationSize is the number of sites kept between generations.
	PopulationSize int
	// EliteSites and SelectedSites partition the top of the ranking. The
	// remaining sites are replaced by scouts every generation.
	EliteSites    int
	SelectedSites int
	// Recruits per elite and per selected site.
	EliteRecruits    int
	SelectedRecruits int

	// Neighborhood is the initial number of cells a recruit may toggle.
	Neighborhood int
	// EliteNeighborhoodScale narrows the neighbourhood searched around elite
	// sites.
	EliteNeighborhoodScale float64
	// ShrinkRate is the fraction removed from a site's neighbourhood each
	// generation it fails to improve, never going below MinNeighborhood.
	ShrinkRate      float64
	MinNeighborhood int
	// AbandonThreshold replaces a site once its stagnation count exceeds it.
	// Zero disables abandonment.
	AbandonThreshold int

	MaxGenerations int
	// StagnationLimit stops the run after this many generations without a
	// better best. Zero disables the check.
	StagnationLimit int
	// TimeBudget stops the run once elapsed. Zero means no limit.
	TimeBudget time.Duration

	// StepBudget caps each simulation. Zero selects the engine default.
	StepBudget int
	// Seed zero picks a random seed, reported in the result.
	Seed uint64
	// Workers bounds evaluation goroutines. Zero uses GOMAXPROCS.
	Workers int
	// MaxRetries is how many fresh scouts replace a failed construction before
	// the bare terrain board is used.
	MaxRetries int
}

// DefaultConfig returns a moderate search budget.
func DefaultConfig() Config {
	return Config{
		PopulationSize:         30,
		EliteSites:             3,
		SelectedSites:          7,
		EliteRecruits:          12,
		SelectedRecruits:       4,
		Neighborhood:           12,
		EliteNeighborhoodScale: 0.5,
		ShrinkRate:             0.2,
		MinNeighborhood:        1,
		AbandonThreshold:       12,
		MaxGenerations:         300,
		StagnationLimit:        80,
		StepBudget:             dandelifeon.DefaultStepBudget,
		MaxRetries:             3,
	}
}

// Validate checks every field. It reports the first problem found.
func (c Config) Validate() error {
	fail := func(field, reason string) error { return &ConfigError{Field: field, Reason: reason} }
	switch {
	case c.PopulationSize <= 0:
		return fail("population", "must be positive")
	case c.EliteSites < 0:
		return fail("elite_sites", "must not be negative")
	case c.SelectedSites < 0:
		return fail("selected_sites", "must not be negative")
	case c.EliteSites+c.SelectedSites > c.PopulationSize:
		return fail("elite_sites+selected_sites", fmt.Sprintf("%d exceeds population %d", c.EliteSites+c.SelectedSites, c.PopulationSize))
	case c.EliteRecruits < 0:
		return fail("elite_recruits", "must not be negative")
	case c.SelectedRecruits < 0:
		return fail("selected_recruits", "must not be negative")
	case c.EliteRecruits < c.SelectedRecruits:
		return fail("elite_recruits", fmt.Sprintf("%d is below selected_recruits %d", c.EliteRecruits, c.SelectedRecruits))
	case c.Neighborhood < 1:
		return fail("neighborhood", "must be at least 1")
	case c.MinNeighborhood < 1 || c.MinNeighborhood > c.Neighborhood:
		return fail("min_neighborhood", fmt.Sprintf("must lie in [1, %d]", c.Neighborhood))
	case c.EliteNeighborhoodScale <= 0 || c.EliteNeighborhoodScale > 1:
		return fail("elite_neighborhood_scale", "must lie in (0, 1]")
	case c.ShrinkRate < 0 || c.ShrinkRate >= 1:
		return fail("shrink_rate", "must lie in [0, 1)")
	case c.AbandonThreshold < 0:
		return fail("abandon_threshold", "must not be negative")
	case c.MaxGenerations <= 0:
		return fail("max_generations", "must be positive")
	case c.StagnationLimit < 0:
		return fail("stagnation_limit", "must not be negative")
	case c.TimeBudget < 0:
		return fail("time_budget", "must not be negative")
	case c.StepBudget < 0:
		return fail("steps", "must not be negative")
	case c.Workers < 0:
		return fail("workers", "must not be negative")
	case c.MaxRetries < 0:
		return fail("max_retries", "must not be negative")
	}
	return nil
}

// FromMap populates a Config from a string map keyed like the settings file.
// Unparseable values keep their defaults; Validate reports out-of-range ones.
func FromMap(cfg map[string]string) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	ints := map[string]*int{
		"population":        &c.PopulationSize,
		"elite_sites":       &c.EliteSites,
		"selected_sites":    &c.SelectedSites,
		"elite_recruits":    &c.EliteRecruits,
		"selected_recruits": &c.SelectedRecruits,
		"neighborhood":      &c.Neighborhood,
		"min_neighborhood":  &c.MinNeighborhood,
		"abandon_threshold": &c.AbandonThreshold,
		"max_generations":   &c.MaxGenerations,
		"stagnation_limit":  &c.StagnationLimit,
		"steps":             &c.StepBudget,
		"workers":           &c.Workers,
		"max_retries":       &c.MaxRetries,
	}
	for key, dst := range ints {
		if v, ok := cfg[key]; ok {
			if parsed, err := strconv.Atoi(v); err == nil {
				*dst = parsed
			}
		}
	}
	floats := map[string]*float64{
		"elite_neighborhood_scale": &c.EliteNeighborhoodScale,
		"shrink_rate":              &c.ShrinkRate,
	}
	for key, dst := range floats {
		if v, ok := cfg[key]; ok {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = parsed
			}
		}
	}
	if v, ok := cfg["time_budget"]; ok {
		if parsed, err := time.ParseDuration(v); err == nil {
			c.TimeBudget = parsed
		}
	}
	if v, ok := cfg["seed"]; ok {
		if parsed, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.Seed = parsed
		}
	}
	return c
}

// Bind attaches the configuration to the provided FlagSet.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.IntVar(&c.PopulationSize, "population", c.PopulationSize, "number of sites")
	fs.IntVar(&c.EliteSites, "elite", c.EliteSites, "elite site count")
	fs.IntVar(&c.SelectedSites, "selected", c.SelectedSites, "selected (non-elite) site count")
	fs.IntVar(&c.EliteRecruits, "elite-recruits", c.EliteRecruits, "recruits per elite site")
	fs.IntVar(&c.SelectedRecruits, "selected-recruits", c.SelectedRecruits, "recruits per selected site")
	fs.IntVar(&c.Neighborhood, "neighborhood", c.Neighborhood, "initial cells toggled per recruit")
	fs.Float64Var(&c.EliteNeighborhoodScale, "elite-scale", c.EliteNeighborhoodScale, "neighbourhood scale for elite sites")
	fs.Float64Var(&c.ShrinkRate, "shrink", c.ShrinkRate, "neighbourhood fraction removed per stagnant generation")
	fs.IntVar(&c.MinNeighborhood, "min-neighborhood", c.MinNeighborhood, "neighbourhood floor")
	fs.IntVar(&c.AbandonThreshold, "abandon", c.AbandonThreshold, "stagnant generations before a site is abandoned (0 disables)")
	fs.IntVar(&c.MaxGenerations, "generations", c.MaxGenerations, "generation budget")
	fs.IntVar(&c.StagnationLimit, "stagnation", c.StagnationLimit, "stop after this many generations without improvement (0 disables)")
	fs.DurationVar(&c.TimeBudget, "time", c.TimeBudget, "wall-clock budget (0 = unlimited)")
	fs.IntVar(&c.StepBudget, "steps", c.StepBudget, "simulation step budget")
	fs.Uint64Var(&c.Seed, "seed", c.Seed, "random seed (0 = random)")
	fs.IntVar(&c.Workers, "workers", c.Workers, "evaluation workers (0 = GOMAXPROCS)")
	fs.IntVar(&c.MaxRetries, "retries", c.MaxRetries, "fresh scouts tried after a failed construction")
}
