package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedStepPacing(t *testing.T) {
	clock := time.Unix(0, 0)
	f := NewFixedStep(10)
	f.now = func() time.Time { return clock }

	assert.True(t, f.ShouldStep(), "first poll steps")
	assert.False(t, f.ShouldStep())

	clock = clock.Add(50 * time.Millisecond)
	assert.False(t, f.ShouldStep())
	clock = clock.Add(50 * time.Millisecond)
	assert.True(t, f.ShouldStep())

	clock = clock.Add(250 * time.Millisecond)
	assert.True(t, f.ShouldStep())
	assert.True(t, f.ShouldStep(), "owed ticks carry over")
	assert.False(t, f.ShouldStep())
}

func TestSetTPSFallsBack(t *testing.T) {
	f := NewFixedStep(0)
	assert.Equal(t, time.Second/60, f.step)
	f.SetTPS(4)
	assert.Equal(t, 250*time.Millisecond, f.step)
}

type stubSim struct{}

func (stubSim) Name() string { return "stub" }
func (stubSim) Size() Size { return Size{W: 1, H: 1} }
func (stubSim) Reset(int64) {}
func (stubSim) Step() {}
func (stubSim) Cells() []uint8 { return []uint8{0} }

func TestRegistry(t *testing.T) {
	Register("", func(map[string]string) Sim { return stubSim{} })
	Register("nil", nil)
	Register("zz-stub", func(map[string]string) Sim { return stubSim{} })
	Register("aa-stub", func(map[string]string) Sim { return stubSim{} })

	names := Names()
	assert.NotContains(t, names, "")
	assert.NotContains(t, names, "nil")
	assert.Less(t, indexOf(names, "aa-stub"), indexOf(names, "zz-stub"))
	assert.Equal(t, "stub", Sims()["zz-stub"](nil).Name())
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

func TestSnapshotIndex(t *testing.T) {
	snap := ParameterSnapshot{Groups: []ParameterGroup{
		{Params: []Parameter{{Key: "mana", Value: "60"}}},
		{Params: []Parameter{{Key: "cost", Value: "3"}, {Key: "mana", Value: "120"}}},
	}}
	idx := snap.Index()
	assert.Equal(t, "120", idx["mana"].Value)
	assert.Equal(t, "3", idx["cost"].Value)
}
