package dandelifeon

import "strconv"

// Config holds run options shared by the engine's callers.
type Config struct {
	StepBudget         int
	AllowBlockedInZone bool
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{StepBudget: DefaultStepBudget}
}

// FromMap populates a Config from a string map.
func FromMap(cfg map[string]string) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	if v, ok := cfg["steps"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.StepBudget = parsed
		}
	}
	if v, ok := cfg["allow_blocked_in_zone"]; ok {
		if parsed, err := strconv.ParseBool(v); err == nil {
			c.AllowBlockedInZone = parsed
		}
	}
	return c
}

// Options converts the config into board construction options.
func (c Config) Options() []Option {
	if c.AllowBlockedInZone {
		return []Option{AllowBlockedInZone()}
	}
	return nil
}
