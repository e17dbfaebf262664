// Package fitness turns simulation outcomes into comparable scores.
//
// Every policy ranks higher mana first, then lower cost, then fewer steps.
// Policies differ in how they trade those against each other before the
// lexicographic fallback applies.
package fitness

import (
	"errors"
	"fmt"
	"strconv"

	"mana-ca/internal/sims/dandelifeon"
)

// ErrInvalidPolicy reports an unknown policy name or an unusable weight.
var ErrInvalidPolicy = errors.New("invalid fitness policy")

// Score is the ranked form of an outcome. Value is the policy's primary key;
// the raw terms are kept for tie-breaking and reporting.
type Score struct {
	Value float64 `json:"value"`
	Mana  int     `json:"mana"`
	Cost  int     `json:"cost"`
	Steps int     `json:"steps"`
}

// Policy scores outcomes and orders scores. Compare returns a positive number
// when a ranks above b, a negative number when below and zero on a full tie.
type Policy interface {
	Name() string
	Evaluate(out dandelifeon.Outcome) Score
	Compare(a, b Score) int
}

// Lexicographic ranks by mana, then cost, then steps.
type Lexicographic struct{}

// Name implements Policy.
func (Lexicographic) Name() string { return "lexicographic" }

// Evaluate implements Policy.
func (Lexicographic) Evaluate(out dandelifeon.Outcome) Score {
	return Score{Value: float64(out.Mana), Mana: out.Mana, Cost: out.Cost, Steps: out.Steps}
}

// Compare implements Policy.
func (Lexicographic) Compare(a, b Score) int { return compareTerms(a, b) }

func compareTerms(a, b Score) int {
	switch {
	case a.Mana != b.Mana:
		return cmpInt(a.Mana, b.Mana)
	case a.Cost != b.Cost:
		return cmpInt(b.Cost, a.Cost)
	default:
		return cmpInt(b.Steps, a.Steps)
	}
}

func cmpInt(a, b int) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	}
	return 0
}

// Weighted scores Mana*mana - Cost*cost - Steps*steps. Equal values fall back
// to the lexicographic order.
type Weighted struct {
	Mana  float64 `json:"mana"`
	Cost  float64 `json:"cost"`
	Steps float64 `json:"steps"`
}

// NewWeighted validates the weights. All of them must be non-negative.
func NewWeighted(mana, cost, steps float64) (Weighted, error) {
	w := Weighted{Mana: mana, Cost: cost, Steps: steps}
	return w, w.Validate()
}

// Validate rejects negative weights, which would invert the ordering.
func (w Weighted) Validate() error {
	for _, term := range []struct {
		name  string
		value float64
	}{{"mana", w.Mana}, {"cost", w.Cost}, {"steps", w.Steps}} {
		if term.value < 0 {
			return fmt.Errorf("%w: %s weight %g is negative", ErrInvalidPolicy, term.name, term.value)
		}
	}
	return nil
}

// Name implements Policy.
func (Weighted) Name() string { return "weighted" }

// Evaluate implements Policy.
func (w Weighted) Evaluate(out dandelifeon.Outcome) Score {
	value := w.Mana*float64(out.Mana) - w.Cost*float64(out.Cost) - w.Steps*float64(out.Steps)
	return Score{Value: value, Mana: out.Mana, Cost: out.Cost, Steps: out.Steps}
}

// Compare implements Policy.
func (w Weighted) Compare(a, b Score) int {
	switch {
	case a.Value > b.Value:
		return 1
	case a.Value < b.Value:
		return -1
	}
	return compareTerms(a, b)
}

// Config selects a policy by name, mirroring the settings file.
type Config struct {
	Policy  string
	Weights Weighted
}

// DefaultConfig returns the lexicographic policy. The weights price one cell
// at one generation's worth of mana and only apply to the weighted policy.
func DefaultConfig() Config {
	return Config{Policy: Lexicographic{}.Name(), Weights: Weighted{Mana: 1, Cost: 60, Steps: 1}}
}

// FromMap reads "policy", "mana", "cost" and "steps".
func FromMap(cfg map[string]string) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	if v, ok := cfg["policy"]; ok && v != "" {
		c.Policy = v
	}
	for key, dst := range map[string]*float64{"mana": &c.Weights.Mana, "cost": &c.Weights.Cost, "steps": &c.Weights.Steps} {
		if v, ok := cfg[key]; ok {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = parsed
			}
		}
	}
	return c
}

// Build returns the configured policy.
func (c Config) Build() (Policy, error) {
	switch c.Policy {
	case "", Lexicographic{}.Name():
		return Lexicographic{}, nil
	case Weighted{}.Name():
		if err := c.Weights.Validate(); err != nil {
			return nil, err
		}
		return c.Weights, nil
	default:
		return nil, fmt.Errorf("%w: unknown policy %q", ErrInvalidPolicy, c.Policy)
	}
}
