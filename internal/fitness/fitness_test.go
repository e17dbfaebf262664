package fitness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mana-ca/internal/sims/dandelifeon"
)

func policies(t *testing.T) []Policy {
	t.Helper()
	w, err := NewWeighted(1, 60, 1)
	require.NoError(t, err)
	zero, err := NewWeighted(0, 0, 0)
	require.NoError(t, err)
	return []Policy{Lexicographic{}, w, zero}
}

func breach(mana, cost, steps int) dandelifeon.Outcome {
	return dandelifeon.Outcome{Reason: dandelifeon.ForbiddenZoneBreach, Mana: mana, Cost: cost, Steps: steps}
}

func TestHigherManaWins(t *testing.T) {
	for _, p := range policies(t) {
		a := p.Evaluate(breach(1200, 5, 20))
		b := p.Evaluate(breach(600, 5, 20))
		assert.Positive(t, p.Compare(a, b), p.Name())
		assert.Negative(t, p.Compare(b, a), p.Name())
	}
}

func TestLowerCostNeverWorse(t *testing.T) {
	for _, p := range policies(t) {
		cheap := p.Evaluate(breach(1200, 4, 20))
		dear := p.Evaluate(breach(1200, 9, 20))
		assert.GreaterOrEqual(t, p.Compare(cheap, dear), 0, p.Name())
		assert.Positive(t, p.Compare(cheap, dear), p.Name())
	}
}

func TestFewerStepsBreaksTies(t *testing.T) {
	for _, p := range policies(t) {
		fast := p.Evaluate(breach(1200, 4, 18))
		slow := p.Evaluate(breach(1200, 4, 30))
		assert.Positive(t, p.Compare(fast, slow), p.Name())
	}
}

func TestFruitlessRunNeverBeatsEmptyBoard(t *testing.T) {
	empty := dandelifeon.Run(dandelifeon.Empty(), 0)
	for _, p := range policies(t) {
		e := p.Evaluate(empty)
		for _, out := range []dandelifeon.Outcome{
			breach(0, 3, 7),
			{Reason: dandelifeon.AllDead, Cost: 6, Steps: 100, Truncated: true},
			{Reason: dandelifeon.AllDead, Cost: 2, Steps: 1},
		} {
			assert.LessOrEqual(t, p.Compare(p.Evaluate(out), e), 0, "%s %+v", p.Name(), out)
		}
	}
}

func TestCompareIsAntisymmetric(t *testing.T) {
	outs := []dandelifeon.Outcome{breach(36000, 6, 100), breach(1200, 5, 20), breach(0, 1, 1), {}}
	for _, p := range policies(t) {
		for _, a := range outs {
			for _, b := range outs {
				sa, sb := p.Evaluate(a), p.Evaluate(b)
				assert.Equal(t, -p.Compare(sb, sa), p.Compare(sa, sb))
			}
			assert.Zero(t, p.Compare(p.Evaluate(a), p.Evaluate(a)))
		}
	}
}

func TestWeightedTradesManaForCost(t *testing.T) {
	w, err := NewWeighted(1, 600, 0)
	require.NoError(t, err)
	// 600 extra mana does not pay for two extra cells.
	rich := w.Evaluate(breach(1800, 5, 20))
	lean := w.Evaluate(breach(1200, 3, 20))
	assert.Negative(t, w.Compare(rich, lean))
	assert.Positive(t, Lexicographic{}.Compare(Lexicographic{}.Evaluate(breach(1800, 5, 20)), Lexicographic{}.Evaluate(breach(1200, 3, 20))))
}

func TestNegativeWeightsRejected(t *testing.T) {
	_, err := NewWeighted(1, -1, 0)
	assert.ErrorIs(t, err, ErrInvalidPolicy)

	cfg := DefaultConfig()
	cfg.Policy = "weighted"
	cfg.Weights.Steps = -2
	_, err = cfg.Build()
	assert.ErrorIs(t, err, ErrInvalidPolicy)
}

func TestConfigBuild(t *testing.T) {
	p, err := DefaultConfig().Build()
	require.NoError(t, err)
	assert.Equal(t, "lexicographic", p.Name())

	p, err = FromMap(map[string]string{"policy": "weighted", "mana": "2", "cost": "30"}).Build()
	require.NoError(t, err)
	require.IsType(t, Weighted{}, p)
	assert.Equal(t, Weighted{Mana: 2, Cost: 30, Steps: 1}, p.(Weighted))

	_, err = FromMap(map[string]string{"policy": "pareto"}).Build()
	assert.ErrorIs(t, err, ErrInvalidPolicy)
}
