package bees

import (
	"math"

	"github.com/sourcegraph/conc/pool"

	"mana-ca/internal/fitness"
	"mana-ca/internal/generator"
	"mana-ca/internal/sims/dandelifeon"
	"mana-ca/pkg/core"
)

// scoutRecruit is the recruit index of scout tasks, keeping their streams
// apart from the recruits of the same site.
const scoutRecruit = math.MaxInt32

// task describes one candidate to build and evaluate. A preset board is
// evaluated as given, an origin is perturbed, and otherwise a scout is drawn.
type task struct {
	site    int
	recruit int
	origin  *dandelifeon.Board
	radius  int
	board   *dandelifeon.Board
}

// slot is the pre-indexed result of a task.
type slot struct {
	board    *dandelifeon.Board
	outcome  dandelifeon.Outcome
	score    fitness.Score
	failures []error
}

// evaluator runs tasks for one optimisation run. Everything it touches is read
// only, so workers share it freely.
type evaluator struct {
	gen        *generator.Generator
	policy     fitness.Policy
	master     *core.RNG
	stepBudget int
	retries    int
	workers    int
}

// runBatch evaluates tasks on a bounded pool and returns results in task
// order.
func (e *evaluator) runBatch(generation int, tasks []task) []slot {
	out := make([]slot, len(tasks))
	p := pool.New().WithMaxGoroutines(e.workers)
	for i, t := range tasks {
		p.Go(func() {
			out[i] = e.run(generation, t)
		})
	}
	p.Wait()
	return out
}

func (e *evaluator) stream(generation int, t task, attempt int) *core.RNG {
	return e.master.Derive(uint64(generation), uint64(t.site), uint64(t.recruit), uint64(attempt))
}

func (e *evaluator) run(generation int, t task) slot {
	var res slot
	board, err := e.build(generation, t)
	if err != nil {
		res.failures = append(res.failures, err)
		board = nil
		for attempt := 1; attempt <= e.retries && board == nil; attempt++ {
			board, err = e.gen.Random(e.stream(generation, t, attempt))
			if err != nil {
				res.failures = append(res.failures, err)
			}
		}
		if board == nil {
			board = e.gen.Terrain()
		}
	}
	res.board = board
	res.outcome = dandelifeon.Run(board, e.stepBudget)
	res.score = e.policy.Evaluate(res.outcome)
	return res
}

func (e *evaluator) build(generation int, t task) (*dandelifeon.Board, error) {
	switch {
	case t.board != nil:
		return t.board, nil
	case t.origin != nil:
		return e.gen.Perturb(t.origin, t.radius, e.stream(generation, t, 0))
	default:
		return e.gen.Random(e.stream(generation, t, 0))
	}
}
