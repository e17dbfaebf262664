package dandelifeon

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// Size is the board width and height.
	Size = 25
	// CellCount is the number of cells on a board.
	CellCount = Size * Size

	zoneMin = Size/2 - 1
	zoneMax = Size/2 + 1
)

// ErrInvalidPlacement reports a cell placed out of bounds or where the rules
// forbid it.
var ErrInvalidPlacement = errors.New("invalid placement")

// PlacementError describes which coordinate was rejected and why.
type PlacementError struct {
	Coord  Coord
	Reason string
}

func (e *PlacementError) Error() string {
	return fmt.Sprintf("invalid placement at (%d,%d): %s", e.Coord.Row, e.Coord.Col, e.Reason)
}

func (e *PlacementError) Unwrap() error { return ErrInvalidPlacement }

// Coord addresses a cell by row and column.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// InBounds reports whether the coordinate lies on the board.
func (c Coord) InBounds() bool {
	return c.Row >= 0 && c.Row < Size && c.Col >= 0 && c.Col < Size
}

func (c Coord) index() int { return c.Row*Size + c.Col }

func coordOf(idx int) Coord { return Coord{Row: idx / Size, Col: idx % Size} }

// Placement pairs a coordinate with the cell to put there.
type Placement struct {
	Coord
	Cell Cell
}

// AliveAt is a placement of a fresh living cell.
func AliveAt(row, col int) Placement {
	return Placement{Coord: Coord{Row: row, Col: col}, Cell: Alive(0)}
}

// BlockedAt is a placement of a terrain cell.
func BlockedAt(row, col int) Placement {
	return Placement{Coord: Coord{Row: row, Col: col}, Cell: Blocked()}
}

// Option adjusts board construction rules.
type Option func(*options)

type options struct {
	allowBlockedInZone bool
}

// AllowBlockedInZone accepts Blocked placements inside the forbidden zone.
// Living cells are still rejected there.
func AllowBlockedInZone() Option {
	return func(o *options) { o.allowBlockedInZone = true }
}

// IsForbidden reports whether (row, col) lies in the centred 3x3 zone.
func IsForbidden(row, col int) bool {
	return row >= zoneMin && row <= zoneMax && col >= zoneMin && col <= zoneMax
}

// ForbiddenZone lists the zone coordinates in row-major order.
func ForbiddenZone() []Coord {
	coords := make([]Coord, 0, 9)
	for r := zoneMin; r <= zoneMax; r++ {
		for c := zoneMin; c <= zoneMax; c++ {
			coords = append(coords, Coord{Row: r, Col: c})
		}
	}
	return coords
}

var (
	neighborIdx [CellCount][]int
	zoneIdx     []int
)

func init() {
	for idx := 0; idx < CellCount; idx++ {
		c := coordOf(idx)
		for dr := -1; dr <= 1; dr++ {
			for dc := -1; dc <= 1; dc++ {
				if dr == 0 && dc == 0 {
					continue
				}
				n := Coord{Row: c.Row + dr, Col: c.Col + dc}
				if !n.InBounds() {
					continue
				}
				neighborIdx[idx] = append(neighborIdx[idx], n.index())
			}
		}
	}
	for _, c := range ForbiddenZone() {
		zoneIdx = append(zoneIdx, c.index())
	}
}

// Board is a 25x25 grid stored row-major in a flat array. Boards handed out by
// this package are never modified afterwards; helpers return copies.
type Board struct {
	cells [CellCount]Cell
}

// New builds a board from the given placements; every other cell is dead.
// Living placements always start at age 0.
func New(placements []Placement, opts ...Option) (*Board, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	b := &Board{}
	for _, p := range placements {
		if !p.Coord.InBounds() {
			return nil, &PlacementError{Coord: p.Coord, Reason: "out of bounds"}
		}
		forbidden := IsForbidden(p.Row, p.Col)
		switch p.Cell.State() {
		case StateAlive:
			if forbidden {
				return nil, &PlacementError{Coord: p.Coord, Reason: "living cell inside the forbidden zone"}
			}
			b.cells[p.index()] = Alive(0)
		case StateBlocked:
			if forbidden && !o.allowBlockedInZone {
				return nil, &PlacementError{Coord: p.Coord, Reason: "blocked cell inside the forbidden zone"}
			}
			b.cells[p.index()] = Blocked()
		default:
			b.cells[p.index()] = Dead()
		}
	}
	return b, nil
}

// Empty returns a board with every cell dead.
func Empty() *Board { return &Board{} }

// At returns the cell at (row, col). Out of range coordinates read as dead.
func (b *Board) At(row, col int) Cell {
	c := Coord{Row: row, Col: col}
	if !c.InBounds() {
		return Dead()
	}
	return b.cells[c.index()]
}

// Cell returns the cell at a flat row-major index.
func (b *Board) Cell(idx int) Cell { return b.cells[idx] }

// NeighborCount returns the number of living cells in the Moore neighbourhood
// of (row, col). Cells beyond the edge do not exist and are not counted.
func (b *Board) NeighborCount(row, col int) int {
	c := Coord{Row: row, Col: col}
	if !c.InBounds() {
		return 0
	}
	count, _ := b.neighborStats(c.index())
	return count
}

// neighborStats returns the live neighbour count and the highest live
// neighbour age for the cell at idx.
func (b *Board) neighborStats(idx int) (count, maxAge int) {
	for _, n := range neighborIdx[idx] {
		cell := b.cells[n]
		if cell.state != StateAlive {
			continue
		}
		count++
		if int(cell.age) > maxAge {
			maxAge = int(cell.age)
		}
	}
	return count, maxAge
}

// Alive returns the number of living cells.
func (b *Board) Alive() int {
	n := 0
	for _, c := range b.cells {
		if c.state == StateAlive {
			n++
		}
	}
	return n
}

// AliveCoords lists living cells in row-major order.
func (b *Board) AliveCoords() []Coord { return b.coordsOf(StateAlive) }

// BlockedCoords lists terrain cells in row-major order.
func (b *Board) BlockedCoords() []Coord { return b.coordsOf(StateBlocked) }

func (b *Board) coordsOf(state State) []Coord {
	var out []Coord
	for idx, c := range b.cells {
		if c.state == state {
			out = append(out, coordOf(idx))
		}
	}
	return out
}

// ZoneAlive reports whether any living cell sits in the forbidden zone.
func (b *Board) ZoneAlive() bool {
	for _, idx := range zoneIdx {
		if b.cells[idx].state == StateAlive {
			return true
		}
	}
	return false
}

// WithAlive returns a copy with a fresh living cell at c. Terrain and the
// forbidden zone are rejected.
func (b *Board) WithAlive(c Coord) (*Board, error) {
	if !c.InBounds() {
		return nil, &PlacementError{Coord: c, Reason: "out of bounds"}
	}
	if IsForbidden(c.Row, c.Col) {
		return nil, &PlacementError{Coord: c, Reason: "living cell inside the forbidden zone"}
	}
	if b.cells[c.index()].IsBlocked() {
		return nil, &PlacementError{Coord: c, Reason: "cell is blocked"}
	}
	next := b.Clone()
	next.cells[c.index()] = Alive(0)
	return next, nil
}

// WithDead returns a copy with the cell at c cleared. Terrain is rejected.
func (b *Board) WithDead(c Coord) (*Board, error) {
	if !c.InBounds() {
		return nil, &PlacementError{Coord: c, Reason: "out of bounds"}
	}
	if b.cells[c.index()].IsBlocked() {
		return nil, &PlacementError{Coord: c, Reason: "cell is blocked"}
	}
	next := b.Clone()
	next.cells[c.index()] = Dead()
	return next, nil
}

// Unblock returns a copy with the blocked cell at c cleared. Callers decide
// which blocked cells are terrain.
func (b *Board) Unblock(c Coord) (*Board, error) {
	if !c.InBounds() {
		return nil, &PlacementError{Coord: c, Reason: "out of bounds"}
	}
	if !b.cells[c.index()].IsBlocked() {
		return nil, &PlacementError{Coord: c, Reason: "cell is not blocked"}
	}
	next := b.Clone()
	next.cells[c.index()] = Dead()
	return next, nil
}

// WithCell returns a copy with one placement applied, validated the same way
// New validates it. Blocked cells can be added but never replaced.
func (b *Board) WithCell(p Placement, opts ...Option) (*Board, error) {
	switch p.Cell.State() {
	case StateAlive:
		return b.WithAlive(p.Coord)
	case StateDead:
		return b.WithDead(p.Coord)
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if !p.Coord.InBounds() {
		return nil, &PlacementError{Coord: p.Coord, Reason: "out of bounds"}
	}
	if IsForbidden(p.Row, p.Col) && !o.allowBlockedInZone {
		return nil, &PlacementError{Coord: p.Coord, Reason: "blocked cell inside the forbidden zone"}
	}
	next := b.Clone()
	next.cells[p.index()] = Blocked()
	return next, nil
}

// Clone returns an independent copy.
func (b *Board) Clone() *Board {
	next := *b
	return &next
}

// Equal reports whether both boards hold identical cells, ages included.
func (b *Board) Equal(other *Board) bool {
	if b == nil || other == nil {
		return b == other
	}
	return b.cells == other.cells
}

// Placements returns the placements that rebuild this board's initial layout.
// Ages are dropped.
func (b *Board) Placements() []Placement {
	var out []Placement
	for idx, c := range b.cells {
		switch c.state {
		case StateAlive:
			out = append(out, Placement{Coord: coordOf(idx), Cell: Alive(0)})
		case StateBlocked:
			out = append(out, Placement{Coord: coordOf(idx), Cell: Blocked()})
		}
	}
	return out
}

// String renders the board one row per line with the forbidden zone
// bracketed: O alive, . dead, X blocked.
func (b *Board) String() string {
	var sb strings.Builder
	sb.Grow(CellCount*3 + Size)
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			glyph := byte('.')
			switch b.cells[r*Size+c].state {
			case StateAlive:
				glyph = 'O'
			case StateBlocked:
				glyph = 'X'
			}
			if IsForbidden(r, c) {
				sb.WriteByte('[')
				sb.WriteByte(glyph)
				sb.WriteByte(']')
				continue
			}
			sb.WriteByte(' ')
			sb.WriteByte(glyph)
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
