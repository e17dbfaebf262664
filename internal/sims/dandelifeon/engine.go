package dandelifeon

import "fmt"

const (
	// ManaPerAge is the mana yielded per age point of a cell consumed by a breach.
	ManaPerAge = 60
	// DefaultStepBudget bounds runs that neither die out nor breach the zone.
	DefaultStepBudget = 100
)

// Reason enumerates how a run ended.
type Reason uint8

const (
	AllDead Reason = iota
	ForbiddenZoneBreach
)

func (r Reason) String() string {
	switch r {
	case ForbiddenZoneBreach:
		return "forbidden_zone_breach"
	default:
		return "all_dead"
	}
}

// MarshalText encodes the reason by name.
func (r Reason) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// UnmarshalText decodes a reason name.
func (r *Reason) UnmarshalText(text []byte) error {
	switch string(text) {
	case "all_dead":
		*r = AllDead
	case "forbidden_zone_breach":
		*r = ForbiddenZoneBreach
	default:
		return fmt.Errorf("unknown termination reason %q", text)
	}
	return nil
}

// Outcome summarises a run from its initial board to termination.
type Outcome struct {
	Reason Reason `json:"reason"`
	Steps  int    `json:"steps"`
	Mana   int    `json:"mana"`
	Cost   int    `json:"cost"`
	// Truncated is set when the step budget ended the run. The reason is then
	// AllDead and the mana zero.
	Truncated bool `json:"truncated,omitempty"`
}

// Step computes the successor of b. Every cell of the result is derived from
// b alone; b is left untouched.
func Step(b *Board) *Board {
	next := &Board{}
	for idx := range b.cells {
		next.cells[idx] = nextCell(b, idx)
	}
	return next
}

// nextCell applies the transition rules to the cell at idx.
func nextCell(b *Board, idx int) Cell {
	cur := b.cells[idx]
	if cur.state == StateBlocked {
		return cur
	}
	count, maxAge := b.neighborStats(idx)
	if cur.state == StateAlive {
		if count == 2 || count == 3 {
			return Alive(int(cur.age) + 1)
		}
		return Dead()
	}
	if count == 3 {
		return Alive(maxAge + 1)
	}
	return Dead()
}

// zoneMana sums the reward of every living cell inside the forbidden zone.
func zoneMana(b *Board) int {
	mana := 0
	for _, idx := range zoneIdx {
		if c := b.cells[idx]; c.state == StateAlive {
			mana += int(c.age) * ManaPerAge
		}
	}
	return mana
}

// Run advances initial until every cell is dead, a living cell reaches the
// forbidden zone, or budget steps have elapsed. A non-positive budget selects
// DefaultStepBudget.
func Run(initial *Board, budget int) Outcome {
	return simulate(initial, budget, nil)
}

// Trajectory runs like Run and additionally returns every board of the run,
// starting with initial and ending with the board that terminated it.
func Trajectory(initial *Board, budget int) ([]*Board, Outcome) {
	frames := []*Board{initial}
	out := simulate(initial, budget, func(b *Board) { frames = append(frames, b) })
	return frames, out
}

func simulate(initial *Board, budget int, visit func(*Board)) Outcome {
	if budget <= 0 {
		budget = DefaultStepBudget
	}
	out := Outcome{Reason: AllDead, Cost: initial.Alive()}
	if out.Cost == 0 {
		return out
	}

	cur := initial
	for step := 1; step <= budget; step++ {
		next := Step(cur)
		if visit != nil {
			visit(next)
		}
		out.Steps = step
		if next.ZoneAlive() {
			out.Reason = ForbiddenZoneBreach
			out.Mana = zoneMana(next)
			return out
		}
		if next.Alive() == 0 {
			return out
		}
		cur = next
	}
	out.Truncated = true
	return out
}
