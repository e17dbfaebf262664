// Command dandelifeon searches for initial layouts that deliver the most mana,
// or evaluates a given layout.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"mana-ca/internal/archive"
	"mana-ca/internal/bees"
	"mana-ca/internal/chart"
	"mana-ca/internal/config"
	"mana-ca/internal/render"
	"mana-ca/internal/replay"
	"mana-ca/internal/report"
	"mana-ca/internal/sims/dandelifeon"
	"mana-ca/internal/tui"
)

type pathList []string

func (l *pathList) String() string { return strings.Join(*l, ",") }

func (l *pathList) Set(value string) error {
	*l = append(*l, value)
	return nil
}

type options struct {
	configPath  string
	warm        pathList
	reference   bool
	fromArchive bool
	evaluate    string
	out         string
	history     bool
	png         string
	gif         string
	chart       string
	archive     string
	watch       bool
	print       bool
	verbose     bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "dandelifeon:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var opts options
	flags := bees.DefaultConfig()
	fs := flag.NewFlagSet("dandelifeon", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "settings JSON file")
	fs.Var(&opts.warm, "warm", "board or report JSON used as a warm-start site (repeatable)")
	fs.BoolVar(&opts.reference, "reference", false, "warm-start from the reference layout")
	fs.BoolVar(&opts.fromArchive, "from-archive", false, "warm-start from the best archived run")
	fs.StringVar(&opts.evaluate, "evaluate", "", "simulate this board JSON instead of searching")
	fs.StringVar(&opts.out, "out", "", "write the JSON report here instead of stdout")
	fs.BoolVar(&opts.history, "history", false, "include per-generation history in the report")
	fs.StringVar(&opts.png, "png", "", "write a snapshot of the best board")
	fs.StringVar(&opts.gif, "gif", "", "write an animation of the best board's run")
	fs.StringVar(&opts.chart, "chart", "", "write a convergence chart")
	fs.StringVar(&opts.archive, "archive", "", "SQLite archive to record the run in")
	fs.BoolVar(&opts.watch, "watch", false, "replay the best board in the terminal")
	fs.BoolVar(&opts.print, "print", false, "print the best board to stderr")
	fs.BoolVar(&opts.verbose, "v", false, "log every generation")
	flags.Bind(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	settings := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return err
		}
		settings = loaded
	}
	// Flags given on the command line win over the settings file.
	override := flag.NewFlagSet("override", flag.ContinueOnError)
	settings.Optimizer.Bind(override)
	var setErr error
	fs.Visit(func(f *flag.Flag) {
		if override.Lookup(f.Name) != nil && setErr == nil {
			setErr = override.Set(f.Name, f.Value.String())
		}
	})
	if setErr != nil {
		return setErr
	}

	if opts.evaluate != "" {
		return evaluate(ctx, opts, settings, stdout, stderr, logger)
	}

	var store *archive.Store
	if opts.archive != "" {
		s, err := archive.Open(opts.archive)
		if err != nil {
			return err
		}
		defer s.Close()
		store = s
	}

	warm, err := warmBoards(ctx, opts, settings, store)
	if err != nil {
		return err
	}

	hooks := bees.Hooks{
		OnGeneration: func(g bees.GenerationStats) {
			logger.Debug("generation", "n", g.Generation, "mana", g.Best.Mana, "cost", g.Best.Cost,
				"steps", g.Best.Steps, "best_id", g.BestID, "evaluations", g.Evaluations)
		},
		OnWarning: func(w bees.Warning) {
			logger.Warn("candidate replaced", "generation", w.Generation, "site", w.Site, "err", w.Err)
		},
	}
	opt, policy, err := settings.NewOptimizer(bees.WithWarmStart(warm...), bees.WithHooks(hooks))
	if err != nil {
		return err
	}

	cfg := opt.Config()
	logger.Info("search started", "population", cfg.PopulationSize, "generations", cfg.MaxGenerations,
		"policy", policy.Name(), "warm", len(warm))
	res, err := opt.Run(ctx)
	switch {
	case bees.IsStop(err):
		logger.Warn("search interrupted, reporting the best so far", "generation", res.Generation)
	case err != nil:
		return err
	}
	logger.Info("search finished", "stop", res.StopReason, "generations", res.Generation, "evaluations", res.Evaluations,
		"mana", res.Best.Outcome.Mana, "cost", res.Best.Outcome.Cost, "steps", res.Best.Outcome.Steps, "seed", res.Seed)

	if store != nil {
		id, err := store.Save(context.WithoutCancel(ctx), res, policy.Name())
		if err != nil {
			return err
		}
		logger.Info("archived", "run", id)
	}
	if opts.chart != "" {
		if err := writeFile(opts.chart, func(w io.Writer) error { return chart.Convergence(w, res.History) }); err != nil {
			return err
		}
	}
	if err := writeArtifacts(opts, res.Best.Board, settings, stderr); err != nil {
		return err
	}
	if err := emit(opts.out, stdout, report.New(res, policy.Name(), opts.history)); err != nil {
		return err
	}
	if opts.watch && ctx.Err() == nil {
		return tui.Play(ctx, replay.New(res.Best.Board, replay.Config{StepBudget: settings.Optimizer.StepBudget}), 10)
	}
	return nil
}

// evaluate simulates a single board and reports its outcome.
func evaluate(ctx context.Context, opts options, settings config.Settings, stdout, stderr io.Writer, logger *slog.Logger) error {
	data, err := os.ReadFile(opts.evaluate)
	if err != nil {
		return err
	}
	board, err := config.ParseBoardJSON(data, settings.Engine.Options()...)
	if err != nil {
		return err
	}
	policy, err := settings.Fitness.Build()
	if err != nil {
		return err
	}
	out := dandelifeon.Run(board, settings.Optimizer.StepBudget)
	logger.Info("evaluated", "reason", out.Reason, "mana", out.Mana, "cost", out.Cost, "steps", out.Steps)

	if err := writeArtifacts(opts, board, settings, stderr); err != nil {
		return err
	}
	res := bees.Result{
		Best:        bees.Candidate{Board: board, Outcome: out, Score: policy.Evaluate(out)},
		Evaluations: 1,
	}
	if err := emit(opts.out, stdout, report.New(res, policy.Name(), false)); err != nil {
		return err
	}
	if opts.watch {
		return tui.Play(ctx, replay.New(board, replay.Config{StepBudget: settings.Optimizer.StepBudget}), 10)
	}
	return nil
}

func warmBoards(ctx context.Context, opts options, settings config.Settings, store *archive.Store) ([]*dandelifeon.Board, error) {
	var boards []*dandelifeon.Board
	if opts.reference {
		boards = append(boards, dandelifeon.ReferenceLayout())
	}
	for _, path := range opts.warm {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		b, err := config.ParseBoardJSON(data, settings.Engine.Options()...)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		boards = append(boards, b)
	}
	if opts.fromArchive {
		if store == nil {
			return nil, errors.New("-from-archive needs -archive")
		}
		policy, err := settings.Fitness.Build()
		if err != nil {
			return nil, err
		}
		best, err := store.BestBy(ctx, policy)
		switch {
		case errors.Is(err, archive.ErrNoRuns):
		case err != nil:
			return nil, err
		default:
			boards = append(boards, best.Board)
		}
	}
	return boards, nil
}

func writeArtifacts(opts options, b *dandelifeon.Board, settings config.Settings, stderr io.Writer) error {
	if opts.print {
		fmt.Fprintln(stderr, b.String())
	}
	if opts.png != "" {
		if err := writeFile(opts.png, func(w io.Writer) error { return render.WritePNG(w, b, 16) }); err != nil {
			return err
		}
	}
	if opts.gif != "" {
		frames, _ := dandelifeon.Trajectory(b, settings.Optimizer.StepBudget)
		if err := writeFile(opts.gif, func(w io.Writer) error { return render.WriteGIF(w, frames, 8, 10) }); err != nil {
			return err
		}
	}
	return nil
}

func emit(path string, stdout io.Writer, r report.Report) error {
	if path == "" {
		return r.Write(stdout)
	}
	return writeFile(path, r.Write)
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}
