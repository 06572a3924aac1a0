package gungi

import "github.com/cespare/xxhash/v2"

// DrawPolicy configures when a game without a captured Marshal ends in a draw.
// A zero limit disables that rule. Having no legal move always draws.
type DrawPolicy struct {
	// MoveLimit draws once this many moves have been played.
	MoveLimit int
	// RepetitionLimit draws when the same position with the same side to move
	// has come up this many times. The starting position is not counted.
	RepetitionLimit int
}

var DefaultDrawPolicy = DrawPolicy{
	MoveLimit:       300,
	RepetitionLimit: 3,
}

type Outcome struct {
	Status     Status
	Winner     Player
	DrawReason DrawReason
}

var ongoing = Outcome{Status: StatusOngoing}

// DetectTerminal decides the outcome of a state with its side to move.
func DetectTerminal(state *GameState, policy DrawPolicy) Outcome {
	var last *MoveRecord
	if n := len(state.Moves); n > 0 {
		last = &state.Moves[n-1]
	}
	return detectTerminal(state, last, policy)
}

// detectTerminal looks at the move just applied first so a Marshal capture needs no scan.
func detectTerminal(state *GameState, last *MoveRecord, policy DrawPolicy) Outcome {
	if last != nil && last.IsCapture && last.Captured.Type == Marshal {
		return Outcome{Status: StatusWon, Winner: last.Player}
	}

	toMove := state.CurrentPlayer
	if state.Board.CountType(toMove, Marshal) == 0 {
		return Outcome{Status: StatusWon, Winner: toMove.Opponent()}
	}

	if policy.MoveLimit > 0 && len(state.Moves) >= policy.MoveLimit {
		return Outcome{Status: StatusDrawn, DrawReason: DrawMoveLimit}
	}

	if policy.RepetitionLimit > 0 && last != nil && repetitions(state, last.PositionHash) >= policy.RepetitionLimit {
		return Outcome{Status: StatusDrawn, DrawReason: DrawRepetition}
	}

	if !HasLegalMove(&state.Board, toMove) {
		return Outcome{Status: StatusDrawn, DrawReason: DrawNoLegalMoves}
	}

	return ongoing
}

func repetitions(state *GameState, hash uint64) int {
	count := 0
	for _, record := range state.Moves {
		if record.PositionHash == hash {
			count++
		}
	}
	return count
}

// HasLegalMove reports whether any top piece of player has a destination.
func HasLegalMove(board *Board, player Player) bool {
	for row := 0; row < Rows; row++ {
		for col := 0; col < Cols; col++ {
			top, tier, ok := board.Top(row, col)
			if !ok || top.Player != player {
				continue
			}
			if len(LegalDestinations(board, Coord{Row: row, Col: col, Tier: tier})) > 0 {
				return true
			}
		}
	}
	return false
}

// PositionHash fingerprints the board and the side to move.
func PositionHash(board *Board, toMove Player) uint64 {
	var buf [cellCount*2 + 1]byte
	for idx, piece := range board.cells {
		buf[2*idx] = byte(piece.Type)
		buf[2*idx+1] = byte(piece.Player)
	}
	buf[cellCount*2] = byte(toMove)
	return xxhash.Sum64(buf[:])
}
