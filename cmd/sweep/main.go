// Command sweep runs the optimizer over a grid of search parameters and
// several seeds, and ranks the parameter sets by mean best mana.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"mana-ca/internal/bees"
	"mana-ca/internal/config"
)

type paramSet struct {
	population   int
	neighborhood int
	shrink       float64
}

func (p paramSet) String() string {
	return fmt.Sprintf("population=%d neighborhood=%d shrink=%.2f", p.population, p.neighborhood, p.shrink)
}

type scenarioResult struct {
	params      paramSet
	meanMana    float64
	bestMana    int
	bestCost    int
	bestSeed    uint64
	evaluations int
}

type intList []int

func (l *intList) String() string {
	parts := make([]string, len(*l))
	for i, v := range *l {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func (l *intList) Set(value string) error {
	*l = (*l)[:0]
	for _, part := range strings.Split(value, ",") {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return err
		}
		*l = append(*l, v)
	}
	return nil
}

type floatList []float64

func (l *floatList) String() string {
	parts := make([]string, len(*l))
	for i, v := range *l {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}

func (l *floatList) Set(value string) error {
	*l = (*l)[:0]
	for _, part := range strings.Split(value, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return err
		}
		*l = append(*l, v)
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "sweep:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("sweep", flag.ContinueOnError)
	configPath := fs.String("config", "", "settings JSON file for everything not swept")
	generations := fs.Int("generations", 100, "generation budget per run")
	seeds := fs.Int("seeds", 3, "seeds per parameter set")
	workers := fs.Int("workers", runtime.NumCPU(), "concurrent optimizer runs")
	top := fs.Int("top", 5, "parameter sets to list")
	populations := intList{20, 30, 40}
	neighborhoods := intList{8, 12, 16}
	shrinks := floatList{0.1, 0.2, 0.3}
	fs.Var(&populations, "population", "comma separated population sizes")
	fs.Var(&neighborhoods, "neighborhood", "comma separated neighbourhood sizes")
	fs.Var(&shrinks, "shrink", "comma separated shrink rates")
	if err := fs.Parse(args); err != nil {
		return err
	}

	base := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		base = loaded
	}
	base.Optimizer.MaxGenerations = *generations
	base.Optimizer.Workers = 1

	var sets []paramSet
	for _, pop := range populations {
		for _, n := range neighborhoods {
			for _, s := range shrinks {
				sets = append(sets, paramSet{population: pop, neighborhood: n, shrink: s})
			}
		}
	}
	seedList := make([]uint64, *seeds)
	for i := range seedList {
		seedList[i] = uint64(i + 1)
	}

	fmt.Fprintf(stdout, "Sweeping %d parameter sets x %d seeds (%d workers, %d generations)\n",
		len(sets), len(seedList), *workers, *generations)
	start := time.Now()
	all, err := sweep(ctx, base, sets, seedList, *workers)
	if err != nil {
		return err
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].meanMana > all[j].meanMana })
	fmt.Fprintf(stdout, "\nTop %d results (elapsed %s):\n", min(*top, len(all)), time.Since(start).Round(time.Millisecond))
	for i := 0; i < len(all) && i < *top; i++ {
		res := all[i]
		fmt.Fprintf(stdout, "%2d) mean=%.1f best=%d cost=%d seed=%d evals=%d %s\n",
			i+1, res.meanMana, res.bestMana, res.bestCost, res.bestSeed, res.evaluations, res.params)
	}
	return nil
}

// sweep runs every parameter set under every seed and aggregates per set.
func sweep(ctx context.Context, base config.Settings, sets []paramSet, seeds []uint64, workers int) ([]scenarioResult, error) {
	runs := make([]bees.Result, len(sets)*len(seeds))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, p := range sets {
		for j, seed := range seeds {
			slot := i*len(seeds) + j
			s := base
			s.Optimizer.PopulationSize = p.population
			s.Optimizer.Neighborhood = p.neighborhood
			s.Optimizer.ShrinkRate = p.shrink
			s.Optimizer.Seed = seed
			g.Go(func() error {
				opt, _, err := s.NewOptimizer()
				if err != nil {
					return fmt.Errorf("%s: %w", p, err)
				}
				res, err := opt.Run(ctx)
				if err != nil {
					return err
				}
				runs[slot] = res
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]scenarioResult, len(sets))
	for i, p := range sets {
		agg := scenarioResult{params: p, bestMana: -1}
		total := 0
		for j, seed := range seeds {
			res := runs[i*len(seeds)+j]
			o := res.Best.Outcome
			total += o.Mana
			agg.evaluations += res.Evaluations
			if o.Mana > agg.bestMana || (o.Mana == agg.bestMana && o.Cost < agg.bestCost) {
				agg.bestMana, agg.bestCost, agg.bestSeed = o.Mana, o.Cost, seed
			}
		}
		if len(seeds) > 0 {
			agg.meanMana = float64(total) / float64(len(seeds))
		}
		out[i] = agg
	}
	return out, nil
}
