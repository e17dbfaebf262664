// Package config loads run settings from a JSON document.
//
// A settings file looks like:
//
//	{
//	  "board": {
//	    "blocked": [[14, 7], [19, 9]],
//	    "alive": [],
//	    "allow_blocked_in_zone": false
//	  },
//	  "engine":    {"steps": 100},
//	  "optimizer": {"population": 40, "seed": 7, "time_budget": "30s"},
//	  "generator": {"density_min": 0.005, "density_max": 0.04, "blockers": 8},
//	  "fitness":   {"policy": "weighted", "mana": 1, "cost": 60, "steps": 1}
//	}
//
// Every section is optional. Unknown keys and values of the wrong type are
// rejected; the rest is handed to the owning package's FromMap, so keys match
// those functions.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/gjson"

	"mana-ca/internal/bees"
	"mana-ca/internal/fitness"
	"mana-ca/internal/generator"
	"mana-ca/internal/sims/dandelifeon"
)

// ErrInvalidSettings reports a document that is not valid JSON, has an
// unknown or mistyped key, or a malformed board section.
var ErrInvalidSettings = errors.New("invalid settings")

// Settings gathers everything a run needs.
type Settings struct {
	Terrain   *dandelifeon.Board
	Engine    dandelifeon.Config
	Optimizer bees.Config
	Generator generator.Config
	Fitness   fitness.Config
}

// Default returns settings over an empty terrain.
func Default() Settings {
	return Settings{
		Terrain:   dandelifeon.Empty(),
		Engine:    dandelifeon.DefaultConfig(),
		Optimizer: bees.DefaultConfig(),
		Generator: generator.DefaultConfig(),
		Fitness:   fitness.DefaultConfig(),
	}
}

// Load reads and parses a settings file.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes a settings document.
func Parse(data []byte) (Settings, error) {
	if !gjson.ValidBytes(data) {
		return Settings{}, fmt.Errorf("%w: not valid JSON", ErrInvalidSettings)
	}
	doc := gjson.ParseBytes(data)
	if err := checkSections(doc); err != nil {
		return Settings{}, err
	}
	if steps := doc.Get("engine.steps"); steps.Exists() && steps.Int() <= 0 {
		return Settings{}, fmt.Errorf("%w: engine.steps must be positive", ErrInvalidSettings)
	}

	s := Settings{
		Engine:    dandelifeon.FromMap(section(doc.Get("engine"))),
		Optimizer: bees.FromMap(section(doc.Get("optimizer"))),
		Generator: generator.FromMap(section(doc.Get("generator"))),
		Fitness:   fitness.FromMap(section(doc.Get("fitness"))),
	}
	if allow := doc.Get("board.allow_blocked_in_zone"); allow.Exists() {
		s.Engine.AllowBlockedInZone = allow.Bool()
	}
	s.Generator.AllowBlockedInZone = s.Engine.AllowBlockedInZone
	// The engine step budget also caps optimizer simulations unless the
	// optimizer section sets its own.
	if doc.Get("engine.steps").Exists() && !doc.Get("optimizer.steps").Exists() {
		s.Optimizer.StepBudget = s.Engine.StepBudget
	}

	terrain, err := ParseBoard(doc.Get("board"), s.Engine.Options()...)
	if err != nil {
		return Settings{}, err
	}
	s.Terrain = terrain
	return s, nil
}

// NewOptimizer wires the generator and fitness policy described by s into
// an optimizer.
func (s Settings) NewOptimizer(opts ...bees.Option) (*bees.Optimizer, fitness.Policy, error) {
	gen, err := generator.New(s.Terrain, s.Generator)
	if err != nil {
		return nil, nil, err
	}
	policy, err := s.Fitness.Build()
	if err != nil {
		return nil, nil, err
	}
	opt, err := bees.New(s.Optimizer, gen, policy, opts...)
	if err != nil {
		return nil, nil, err
	}
	return opt, policy, nil
}

// section flattens a JSON object into the string map FromMap expects.
func section(obj gjson.Result) map[string]string {
	if !obj.IsObject() {
		return nil
	}
	out := map[string]string{}
	obj.ForEach(func(k, v gjson.Result) bool {
		out[k.String()] = v.String()
		return true
	})
	return out
}

// ParseBoard builds a board from an object with "blocked" and "alive"
// coordinate lists. A missing object yields an empty board.
func ParseBoard(obj gjson.Result, opts ...dandelifeon.Option) (*dandelifeon.Board, error) {
	if !obj.Exists() {
		return dandelifeon.Empty(), nil
	}
	if !obj.IsObject() {
		return nil, fmt.Errorf("%w: board must be an object", ErrInvalidSettings)
	}
	var placements []dandelifeon.Placement
	for _, list := range []struct {
		key  string
		cell dandelifeon.Cell
	}{{"blocked", dandelifeon.Blocked()}, {"alive", dandelifeon.Alive(0)}} {
		coords, err := readCoords(obj.Get(list.key))
		if err != nil {
			return nil, fmt.Errorf("board.%s: %w", list.key, err)
		}
		for _, c := range coords {
			placements = append(placements, dandelifeon.Placement{Coord: c, Cell: list.cell})
		}
	}
	b, err := dandelifeon.New(placements, opts...)
	if err != nil {
		return nil, fmt.Errorf("board: %w", err)
	}
	return b, nil
}

// ParseBoardJSON is ParseBoard over a standalone document.
func ParseBoardJSON(data []byte, opts ...dandelifeon.Option) (*dandelifeon.Board, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: not valid JSON", ErrInvalidSettings)
	}
	doc := gjson.ParseBytes(data)
	// Accept both a bare board and a saved result wrapping one.
	if b := doc.Get("board"); b.IsObject() {
		doc = b
	}
	return ParseBoard(doc, opts...)
}

func readCoords(v gjson.Result) ([]dandelifeon.Coord, error) {
	if !v.Exists() {
		return nil, nil
	}
	if !v.IsArray() {
		return nil, fmt.Errorf("%w: expected a list of [row, col] pairs", ErrInvalidSettings)
	}
	var out []dandelifeon.Coord
	var bad error
	v.ForEach(func(_, pair gjson.Result) bool {
		items := pair.Array()
		if !pair.IsArray() || len(items) != 2 {
			bad = fmt.Errorf("%w: %s is not a [row, col] pair", ErrInvalidSettings, pair.Raw)
			return false
		}
		row, rowOK := integer(items[0])
		col, colOK := integer(items[1])
		if !rowOK || !colOK {
			bad = fmt.Errorf("%w: %s is not a pair of integers", ErrInvalidSettings, pair.Raw)
			return false
		}
		out = append(out, dandelifeon.Coord{Row: row, Col: col})
		return true
	})
	return out, bad
}

// BoardFile is the JSON shape of a board, readable by ParseBoard.
type BoardFile struct {
	Blocked [][2]int `json:"blocked"`
	Alive   [][2]int `json:"alive"`
}

// EncodeBoard converts a board into its file shape.
func EncodeBoard(b *dandelifeon.Board) BoardFile {
	f := BoardFile{Blocked: [][2]int{}, Alive: [][2]int{}}
	for _, c := range b.BlockedCoords() {
		f.Blocked = append(f.Blocked, [2]int{c.Row, c.Col})
	}
	for _, c := range b.AliveCoords() {
		f.Alive = append(f.Alive, [2]int{c.Row, c.Col})
	}
	return f
}
