// Package chart renders optimisation progress as a PNG line chart.
package chart

import (
	"errors"
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"

	"mana-ca/internal/bees"
)

// ErrNoHistory is returned when there is nothing to plot.
var ErrNoHistory = errors.New("no generations to plot")

const (
	width  = 800
	height = 360
)

// Convergence plots the best mana per generation, with the best layout's
// cost on a secondary axis.
func Convergence(w io.Writer, history []bees.GenerationStats) error {
	if len(history) == 0 {
		return ErrNoHistory
	}
	xs := make([]float64, len(history))
	mana := make([]float64, len(history))
	cost := make([]float64, len(history))
	maxMana, maxCost := 1.0, 1.0
	for i, h := range history {
		xs[i] = float64(h.Generation)
		mana[i] = float64(h.Best.Mana)
		cost[i] = float64(h.Best.Cost)
		if mana[i] > maxMana {
			maxMana = mana[i]
		}
		if cost[i] > maxCost {
			maxCost = cost[i]
		}
	}
	// go-chart rejects zero-width ranges, so a single generation still gets
	// a unit-wide axis.
	xMax := xs[len(xs)-1]
	if xMax <= xs[0] {
		xMax = xs[0] + 1
	}

	graph := chart.Chart{
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 20, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:  "generation",
			Style: chart.Style{FontSize: 10.0},
			Range: &chart.ContinuousRange{Min: xs[0], Max: xMax},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%d", int(v.(float64)))
			},
		},
		YAxis: chart.YAxis{
			Name:  "mana",
			Style: chart.Style{FontSize: 10.0},
			Range: &chart.ContinuousRange{Min: 0, Max: maxMana * 1.1},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%d", int(v.(float64)))
			},
		},
		YAxisSecondary: chart.YAxis{
			Name:  "cost",
			Style: chart.Style{FontSize: 10.0},
			Range: &chart.ContinuousRange{Min: 0, Max: maxCost + 1},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "best mana",
				XValues: xs,
				YValues: mana,
				Style:   chart.Style{StrokeColor: chart.ColorBlue, StrokeWidth: 3.0},
			},
			chart.ContinuousSeries{
				Name:    "cost",
				YAxis:   chart.YAxisSecondary,
				XValues: xs,
				YValues: cost,
				Style:   chart.Style{StrokeColor: chart.ColorRed, StrokeWidth: 2.0},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return graph.Render(chart.PNG, w)
}
