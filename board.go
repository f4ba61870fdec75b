package othello

import "strings"

// Disc is the contents of one board cell.
type Disc int8

const (
	DiscNone Disc = iota
	DiscDark
	DiscLight
)

// Symbol returns the display character for a disc.
func (d Disc) Symbol() string {
	switch d {
	case DiscDark:
		return "●"
	case DiscLight:
		return "○"
	}
	return "·"
}

// Board is an 8x8 grid rebuilt by replaying a recorded move log. It tracks
// occupancy only; it knows nothing about capture rules.
type Board struct {
	cells [BoardSize][BoardSize]Disc
}

// NewBoard returns an empty board.
func NewBoard() *Board {
	return &Board{}
}

// InBounds reports whether (row, col) is a valid cell.
func InBounds(row, col int) bool {
	return row >= 0 && row < BoardSize && col >= 0 && col < BoardSize
}

// Place puts a disc on an empty cell.
func (b *Board) Place(row, col int, d Disc) error {
	if !InBounds(row, col) {
		return Validationf("cell (%d, %d) is out of bounds", row, col)
	}
	if b.cells[row][col] != DiscNone {
		return Conflictf("cell (%d, %d) is already occupied", row, col)
	}
	b.cells[row][col] = d
	return nil
}

// At returns the disc at (row, col), or DiscNone when out of bounds.
func (b *Board) At(row, col int) Disc {
	if !InBounds(row, col) {
		return DiscNone
	}
	return b.cells[row][col]
}

// Count returns how many cells hold d.
func (b *Board) Count(d Disc) int {
	n := 0
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			if b.cells[r][c] == d {
				n++
			}
		}
	}
	return n
}

// String renders the board as an ascii grid, one row per line.
func (b *Board) String() string {
	var sb strings.Builder
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			if c > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(b.cells[r][c].Symbol())
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
