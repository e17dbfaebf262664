package replay

import (
	"strconv"

	"mana-ca/internal/core"
)

// Parameters reports the replay settings and the run's outcome.
func (s *Sim) Parameters() core.ParameterSnapshot {
	cur := s.Board()
	out := s.outcome
	return core.ParameterSnapshot{Groups: []core.ParameterGroup{
		{
			Name: "Replay",
			Params: []core.Parameter{
				textParam("layout", "Layout", s.cfg.Layout),
				intParam("steps", "Step budget", s.cfg.StepBudget),
				intParam("frame", "Frame", s.frame),
				intParam("alive", "Alive", cur.Alive()),
			},
		},
		{
			Name:    "Outcome",
			Summary: out.Reason.String(),
			Params: []core.Parameter{
				intParam("mana", "Mana", out.Mana),
				intParam("cost", "Cost", out.Cost),
				intParam("run_steps", "Steps", out.Steps),
				{Key: "truncated", Label: "Truncated", Type: core.ParamTypeBool, Value: strconv.FormatBool(out.Truncated)},
			},
		},
	}}
}

// ParameterControls exposes the step budget and the frame cursor.
func (s *Sim) ParameterControls() []core.ParameterControl {
	return []core.ParameterControl{
		{Key: "steps", Label: "Step budget", Type: core.ParamTypeInt, Step: 10, Min: 1, Max: 1000, HasMin: true, HasMax: true},
		{Key: "frame", Label: "Frame", Type: core.ParamTypeInt, Step: 1, Min: 0, HasMin: true},
	}
}

// SetIntParameter changes the step budget, which replays from the start, or
// moves the frame cursor.
func (s *Sim) SetIntParameter(key string, value int) bool {
	switch key {
	case "steps":
		if value < 1 {
			return false
		}
		s.cfg.StepBudget = value
		s.replay()
		return true
	case "frame":
		if value < 0 || value >= len(s.frames) {
			return false
		}
		s.frame = value
		return true
	}
	return false
}

func intParam(key, label string, value int) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeInt,
		Value: strconv.Itoa(value),
	}
}

func textParam(key, label, value string) core.Parameter {
	return core.Parameter{Key: key, Label: label, Value: value}
}
