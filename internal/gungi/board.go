package gungi

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/gungi-backend/internal/apperror"
)

const (
	Rows  = 9
	Cols  = 9
	Tiers = 3

	cellCount = Rows * Cols * Tiers
)

var (
	ErrOutOfBounds   = fmt.Errorf("%w: coordinate out of bounds", apperror.ErrBoardInconsistent)
	ErrStackFull     = fmt.Errorf("%w: stack is full", apperror.ErrBoardInconsistent)
	ErrEmptyColumn   = fmt.Errorf("%w: column is empty", apperror.ErrBoardInconsistent)
	ErrFloatingPiece = fmt.Errorf("%w: floating piece", apperror.ErrBoardInconsistent)
	ErrCellOccupied  = fmt.Errorf("%w: cell is already occupied", apperror.ErrBoardInconsistent)
)

// Coord addresses one cell: row and column on the 9x9 grid, tier 0 at the bottom.
type Coord struct {
	Row  int `json:"row"`
	Col  int `json:"col"`
	Tier int `json:"tier"`
}

func (that Coord) InBounds() bool {
	return onBoard(that.Row, that.Col) && that.Tier >= 0 && that.Tier < Tiers
}

func (that Coord) String() string {
	return fmt.Sprintf("(%d,%d,%d)", that.Row, that.Col, that.Tier)
}

func onBoard(row, col int) bool {
	return row >= 0 && row < Rows && col >= 0 && col < Cols
}

// index is row-major with the tier innermost.
func index(row, col, tier int) int {
	return (row*Cols+col)*Tiers + tier
}

func coordOf(idx int) Coord {
	return Coord{
		Row:  idx / (Cols * Tiers),
		Col:  (idx / Tiers) % Cols,
		Tier: idx % Tiers,
	}
}

// Board owns the stacked grid. It is a plain value: copying a Board copies every cell.
type Board struct {
	cells [cellCount]Piece
}

// At never fails: out-of-range and unoccupied cells both return the empty piece.
func (that *Board) At(row, col, tier int) Piece {
	if !onBoard(row, col) || tier < 0 || tier >= Tiers {
		return Piece{}
	}
	return that.cells[index(row, col, tier)]
}

func (that *Board) AtCoord(c Coord) Piece {
	return that.At(c.Row, c.Col, c.Tier)
}

func (that *Board) Height(row, col int) int {
	if !onBoard(row, col) {
		return 0
	}
	height := 0
	for tier := 0; tier < Tiers; tier++ {
		if that.cells[index(row, col, tier)].IsEmpty() {
			break
		}
		height++
	}
	return height
}

// Top returns the uppermost piece of a column and its tier.
func (that *Board) Top(row, col int) (Piece, int, bool) {
	height := that.Height(row, col)
	if height == 0 {
		return Piece{}, 0, false
	}
	return that.cells[index(row, col, height-1)], height - 1, true
}

// Push places a piece on top of a column and returns the tier it landed on.
func (that *Board) Push(row, col int, piece Piece) (int, error) {
	if !onBoard(row, col) {
		return 0, fmt.Errorf("%w: (%d,%d)", ErrOutOfBounds, row, col)
	}
	if piece.IsEmpty() {
		return 0, fmt.Errorf("%w: cannot push an empty piece", apperror.ErrBoardInconsistent)
	}
	height := that.Height(row, col)
	if height >= Tiers {
		return 0, fmt.Errorf("%w: (%d,%d)", ErrStackFull, row, col)
	}
	that.cells[index(row, col, height)] = piece
	return height, nil
}

// Pop removes and returns the top piece of a column.
func (that *Board) Pop(row, col int) (Piece, error) {
	if !onBoard(row, col) {
		return Piece{}, fmt.Errorf("%w: (%d,%d)", ErrOutOfBounds, row, col)
	}
	height := that.Height(row, col)
	if height == 0 {
		return Piece{}, fmt.Errorf("%w: (%d,%d)", ErrEmptyColumn, row, col)
	}
	idx := index(row, col, height-1)
	piece := that.cells[idx]
	that.cells[idx] = Piece{}
	return piece, nil
}

// Check reports the first cell breaking the no-floating-piece rule.
func (that *Board) Check() error {
	for row := 0; row < Rows; row++ {
		for col := 0; col < Cols; col++ {
			for tier := 1; tier < Tiers; tier++ {
				if !that.cells[index(row, col, tier)].IsEmpty() && that.cells[index(row, col, tier-1)].IsEmpty() {
					return fmt.Errorf("%w: (%d,%d,%d)", ErrFloatingPiece, row, col, tier)
				}
			}
		}
	}
	return nil
}

// Count returns how many pieces of a player are on the board, buried ones included.
func (that *Board) Count(player Player) int {
	count := 0
	for _, piece := range that.cells {
		if !piece.IsEmpty() && piece.Player == player {
			count++
		}
	}
	return count
}

func (that *Board) CountType(player Player, pieceType PieceType) int {
	count := 0
	for _, piece := range that.cells {
		if piece.Type == pieceType && piece.Player == player {
			count++
		}
	}
	return count
}

// PlacedPiece is a piece together with where it stands.
type PlacedPiece struct {
	Piece
	Coord
}

// Pieces lists the occupied cells ordered by row, column, then tier.
func (that *Board) Pieces() []PlacedPiece {
	placed := make([]PlacedPiece, 0, 2*25)
	for idx, piece := range that.cells {
		if piece.IsEmpty() {
			continue
		}
		placed = append(placed, PlacedPiece{Piece: piece, Coord: coordOf(idx)})
	}
	return placed
}

type placedJSON struct {
	Row    int       `json:"row"`
	Col    int       `json:"col"`
	Tier   int       `json:"tier"`
	Type   PieceType `json:"type"`
	Player Player    `json:"player"`
}

func (that Board) MarshalJSON() ([]byte, error) {
	pieces := that.Pieces()
	out := make([]placedJSON, 0, len(pieces))
	for _, p := range pieces {
		out = append(out, placedJSON{Row: p.Row, Col: p.Col, Tier: p.Tier, Type: p.Type, Player: p.Player})
	}
	return json.Marshal(out)
}

func (that *Board) UnmarshalJSON(data []byte) error {
	var in []placedJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("failed to unmarshal board: %w", err)
	}

	var board Board
	for _, p := range in {
		c := Coord{Row: p.Row, Col: p.Col, Tier: p.Tier}
		if !c.InBounds() {
			return fmt.Errorf("%w: %s", ErrOutOfBounds, c)
		}
		if !p.Type.Valid() || !p.Player.Valid() {
			return fmt.Errorf("%w: invalid piece at %s", apperror.ErrBoardInconsistent, c)
		}
		idx := index(c.Row, c.Col, c.Tier)
		if !board.cells[idx].IsEmpty() {
			return fmt.Errorf("%w: %s", ErrCellOccupied, c)
		}
		board.cells[idx] = Piece{Type: p.Type, Player: p.Player}
	}

	if err := board.Check(); err != nil {
		return err
	}

	*that = board
	return nil
}
