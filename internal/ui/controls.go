package ui

import (
	"math"
	"strconv"

	"mana-ca/internal/core"
)

// stepInt returns the value one click away from cur in direction dir, and
// whether that move stays inside the control's bounds.
func stepInt(ctrl core.ParameterControl, cur, dir int) (int, bool) {
	step := int(math.Round(ctrl.Step))
	if step <= 0 {
		step = 1
	}
	target := cur + dir*step
	if ctrl.HasMin {
		if min := int(math.Round(ctrl.Min)); target < min {
			if dir < 0 && cur <= min {
				return cur, false
			}
			target = min
		}
	}
	if ctrl.HasMax {
		if max := int(math.Round(ctrl.Max)); target > max {
			if dir > 0 && cur >= max {
				return cur, false
			}
			target = max
		}
	}
	return target, target != cur
}

// stepFloat is stepInt for float controls.
func stepFloat(ctrl core.ParameterControl, cur float64, dir int) (float64, bool) {
	step := ctrl.Step
	if step <= 0 {
		step = 0.05
	}
	target := cur + float64(dir)*step
	if ctrl.HasMin && target < ctrl.Min {
		target = ctrl.Min
	}
	if ctrl.HasMax && target > ctrl.Max {
		target = ctrl.Max
	}
	return target, math.Abs(target-cur) >= 1e-9
}

func formatFloat(ctrl core.ParameterControl, value float64) string {
	step := ctrl.Step
	if step <= 0 {
		step = 0.05
	}
	precision := 1
	switch {
	case step < 0.001:
		precision = 4
	case step < 0.01:
		precision = 3
	case step < 0.1:
		precision = 2
	}
	return strconv.FormatFloat(value, 'f', precision, 64)
}
