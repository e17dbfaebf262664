package app

import (
	"flag"
	"strconv"
)

// Config represents the command-line parameters for the viewers.
type Config struct {
	Sim      string
	Scale    int
	TPS      int
	Seed     int64
	Layout   string
	Board    string
	Steps    int
	Loop     bool
	HUDWidth int
}

// NewConfig returns a Config populated with sensible defaults.
func NewConfig() *Config {
	return &Config{Sim: "dandelifeon", Scale: 24, TPS: 8, Seed: 1, Layout: "reference", Steps: 100, HUDWidth: 240}
}

// Bind attaches the configuration to the provided FlagSet.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.StringVar(&c.Sim, "sim", c.Sim, "simulation to run")
	fs.IntVar(&c.Scale, "scale", c.Scale, "pixel scale multiplier")
	fs.IntVar(&c.TPS, "tps", c.TPS, "frames per second")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "seed for random layouts")
	fs.StringVar(&c.Layout, "layout", c.Layout, "reference, random or file")
	fs.StringVar(&c.Board, "board", c.Board, "board JSON file to replay")
	fs.IntVar(&c.Steps, "steps", c.Steps, "step budget")
	fs.BoolVar(&c.Loop, "loop", c.Loop, "restart the replay after the last frame")
	fs.IntVar(&c.HUDWidth, "hud", c.HUDWidth, "HUD panel width in pixels, 0 hides it")
}

// SimConfig is the string map handed to the simulation factory.
func (c *Config) SimConfig() map[string]string {
	m := map[string]string{
		"layout": c.Layout,
		"steps":  strconv.Itoa(c.Steps),
		"loop":   strconv.FormatBool(c.Loop),
	}
	if c.Board != "" {
		m["board"] = c.Board
	}
	return m
}
