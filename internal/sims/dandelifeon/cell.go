package dandelifeon

// MaxAge is the age at which living cells stop getting older.
const MaxAge = 100

// State enumerates the cell variants.
type State uint8

const (
	StateDead State = iota
	StateAlive
	StateBlocked
)

func (s State) String() string {
	switch s {
	case StateAlive:
		return "alive"
	case StateBlocked:
		return "blocked"
	default:
		return "dead"
	}
}

// Cell is a single board cell. The zero value is a dead cell. Age is only
// carried by living cells; constructors keep it inside [0, MaxAge].
type Cell struct {
	state State
	age   uint8
}

// Dead returns an empty cell.
func Dead() Cell { return Cell{} }

// Blocked returns a terrain cell that never changes during a run.
func Blocked() Cell { return Cell{state: StateBlocked} }

// Alive returns a living cell with the given age clamped to [0, MaxAge].
func Alive(age int) Cell {
	if age < 0 {
		age = 0
	}
	if age > MaxAge {
		age = MaxAge
	}
	return Cell{state: StateAlive, age: uint8(age)}
}

// State reports the cell variant.
func (c Cell) State() State { return c.state }

// IsAlive reports whether the cell is living.
func (c Cell) IsAlive() bool { return c.state == StateAlive }

// IsBlocked reports whether the cell is terrain.
func (c Cell) IsBlocked() bool { return c.state == StateBlocked }

// IsDead reports whether the cell is empty.
func (c Cell) IsDead() bool { return c.state == StateDead }

// Age returns the age of a living cell. ok is false for dead or blocked cells.
func (c Cell) Age() (age int, ok bool) {
	if c.state != StateAlive {
		return 0, false
	}
	return int(c.age), true
}
