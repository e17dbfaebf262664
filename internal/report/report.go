// Package report is the JSON document describing a finished optimisation,
// shared by the command line and the function handler.
package report

import (
	"encoding/json"
	"io"

	"mana-ca/internal/bees"
	"mana-ca/internal/config"
	"mana-ca/internal/fitness"
	"mana-ca/internal/sims/dandelifeon"
)

// Report summarises a run. Its "board" key makes the document loadable as a
// warm-start board.
type Report struct {
	Seed        uint64              `json:"seed,string"`
	Policy      string              `json:"policy"`
	Generations int                 `json:"generations"`
	Evaluations int                 `json:"evaluations"`
	StopReason  bees.StopReason     `json:"stop_reason"`
	BestID      uint64              `json:"best_id"`
	Score       fitness.Score       `json:"score"`
	Outcome     dandelifeon.Outcome `json:"outcome"`
	Board       config.BoardFile    `json:"board"`
	Warnings    []string            `json:"warnings,omitempty"`
	History     []GenerationSummary `json:"history,omitempty"`
}

// GenerationSummary is one point of the convergence history.
type GenerationSummary struct {
	Generation int `json:"generation"`
	Mana       int `json:"mana"`
	Cost       int `json:"cost"`
	Steps      int `json:"steps"`
}

// New builds a report. History is included when withHistory is set.
func New(res bees.Result, policy string, withHistory bool) Report {
	r := Report{
		Seed:        res.Seed,
		Policy:      policy,
		Generations: res.Generation,
		Evaluations: res.Evaluations,
		StopReason:  res.StopReason,
		BestID:      res.Best.ID,
		Score:       res.Best.Score,
		Outcome:     res.Best.Outcome,
		Board:       config.EncodeBoard(res.Best.Board),
	}
	for _, w := range res.Warnings {
		r.Warnings = append(r.Warnings, w.String())
	}
	if withHistory {
		for _, h := range res.History {
			r.History = append(r.History, GenerationSummary{
				Generation: h.Generation,
				Mana:       h.Best.Mana,
				Cost:       h.Best.Cost,
				Steps:      h.Best.Steps,
			})
		}
	}
	return r
}

// Write encodes r as indented JSON.
func (r Report) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
