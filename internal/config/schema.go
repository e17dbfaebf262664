package config

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
)

// kind is the JSON shape a section key must have.
type kind int

const (
	kindInt kind = iota
	kindUint
	kindFloat
	kindBool
	kindString
	kindDuration
)

func (k kind) String() string {
	switch k {
	case kindInt:
		return "an integer"
	case kindUint:
		return "a non-negative integer"
	case kindFloat:
		return "a number"
	case kindBool:
		return "true or false"
	case kindDuration:
		return `a duration string such as "30s"`
	default:
		return "a string"
	}
}

// sections lists every key each section accepts. Keys mirror the FromMap
// functions the values are handed to.
var sections = map[string]map[string]kind{
	"engine": {
		"steps":                 kindInt,
		"allow_blocked_in_zone": kindBool,
	},
	"optimizer": {
		"population":               kindInt,
		"elite_sites":              kindInt,
		"selected_sites":           kindInt,
		"elite_recruits":           kindInt,
		"selected_recruits":        kindInt,
		"neighborhood":             kindInt,
		"min_neighborhood":         kindInt,
		"abandon_threshold":        kindInt,
		"max_generations":          kindInt,
		"stagnation_limit":         kindInt,
		"steps":                    kindInt,
		"workers":                  kindInt,
		"max_retries":              kindInt,
		"elite_neighborhood_scale": kindFloat,
		"shrink_rate":              kindFloat,
		"time_budget":              kindDuration,
		"seed":                     kindUint,
	},
	"generator": {
		"density_min":   kindFloat,
		"density_max":   kindFloat,
		"max_attempts":  kindInt,
		"blockers":      kindInt,
		"zone_blockers": kindInt,
	},
	"fitness": {
		"policy": kindString,
		"mana":   kindFloat,
		"cost":   kindFloat,
		"steps":  kindFloat,
	},
}

// checkSections rejects unknown keys and values of the wrong shape, so a
// typo never falls back to a default silently.
func checkSections(doc gjson.Result) error {
	names := make([]string, 0, len(sections))
	for name := range sections {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		obj := doc.Get(name)
		if !obj.Exists() {
			continue
		}
		if !obj.IsObject() {
			return fmt.Errorf("%w: %s must be an object", ErrInvalidSettings, name)
		}
		keys := sections[name]
		var bad error
		obj.ForEach(func(k, v gjson.Result) bool {
			want, ok := keys[k.String()]
			if !ok {
				bad = fmt.Errorf("%w: unknown key %s.%s", ErrInvalidSettings, name, k.String())
				return false
			}
			if !matches(v, want) {
				bad = fmt.Errorf("%w: %s.%s must be %s, got %s", ErrInvalidSettings, name, k.String(), want, v.Raw)
				return false
			}
			return true
		})
		if bad != nil {
			return bad
		}
	}
	if allow := doc.Get("board.allow_blocked_in_zone"); allow.Exists() && !matches(allow, kindBool) {
		return fmt.Errorf("%w: board.allow_blocked_in_zone must be %s, got %s", ErrInvalidSettings, kindBool, allow.Raw)
	}
	return nil
}

func matches(v gjson.Result, want kind) bool {
	switch want {
	case kindInt:
		_, ok := integer(v)
		return ok
	case kindUint:
		if v.Type != gjson.Number {
			return false
		}
		_, err := strconv.ParseUint(v.Raw, 10, 64)
		return err == nil
	case kindFloat:
		return v.Type == gjson.Number
	case kindBool:
		return v.Type == gjson.True || v.Type == gjson.False
	case kindDuration:
		if v.Type != gjson.String {
			return false
		}
		_, err := time.ParseDuration(v.Str)
		return err == nil
	default:
		return v.Type == gjson.String
	}
}

// integer accepts JSON numbers without a fractional part that fit an int32,
// which covers every count and coordinate in a settings file.
func integer(v gjson.Result) (int, bool) {
	if v.Type != gjson.Number || v.Num != math.Trunc(v.Num) {
		return 0, false
	}
	if v.Num < math.MinInt32 || v.Num > math.MaxInt32 {
		return 0, false
	}
	return int(v.Num), true
}
