package gungi

import "time"

type Status string

const (
	StatusOngoing Status = "ongoing"
	StatusWon     Status = "won"
	StatusDrawn   Status = "drawn"
)

type DrawReason string

const (
	DrawNone         DrawReason = ""
	DrawMoveLimit    DrawReason = "move_limit"
	DrawRepetition   DrawReason = "repetition"
	DrawNoLegalMoves DrawReason = "no_legal_moves"
)

// Move is a requested transition, validated against a GameState before it is accepted.
type Move struct {
	Player    Player    `json:"player"`
	PieceType PieceType `json:"piece_type"`
	From      Coord     `json:"from"`
	To        Coord     `json:"to"`
}

// MoveRecord is an accepted move as it appears in the history.
type MoveRecord struct {
	MoveNumber   int       `json:"move_number"`
	Player       Player    `json:"player"`
	PieceType    PieceType `json:"piece_type"`
	From         Coord     `json:"from"`
	To           Coord     `json:"to"`
	IsCapture    bool      `json:"is_capture"`
	Captured     Piece     `json:"captured"`
	PositionHash uint64    `json:"position_hash"`
	Timestamp    time.Time `json:"timestamp"`
}

func (that MoveRecord) Move() Move {
	return Move{
		Player:    that.Player,
		PieceType: that.PieceType,
		From:      that.From,
		To:        that.To,
	}
}

// GameState is the complete snapshot of one match.
type GameState struct {
	ID             string       `json:"id"`
	Board          Board        `json:"board"`
	CurrentPlayer  Player       `json:"current_player"`
	Moves          []MoveRecord `json:"moves"`
	CapturedPieces []Piece      `json:"captured_pieces"`
	Status         Status       `json:"status"`
	Winner         Player       `json:"winner,omitempty"`
	DrawReason     DrawReason   `json:"draw_reason,omitempty"`
	StartTime      time.Time    `json:"start_time"`
	EndTime        *time.Time   `json:"end_time,omitempty"`
}

func (that *GameState) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *GameState) IsFinished() bool {
	return that.Status == StatusWon || that.Status == StatusDrawn
}

// Clone returns a deep copy sharing nothing with the receiver.
func (that *GameState) Clone() *GameState {
	moves := make([]MoveRecord, len(that.Moves))
	copy(moves, that.Moves)

	captured := make([]Piece, len(that.CapturedPieces))
	copy(captured, that.CapturedPieces)

	var endTime *time.Time
	if that.EndTime != nil {
		t := *that.EndTime
		endTime = &t
	}

	return &GameState{
		ID:             that.ID,
		Board:          that.Board,
		CurrentPlayer:  that.CurrentPlayer,
		Moves:          moves,
		CapturedPieces: captured,
		Status:         that.Status,
		Winner:         that.Winner,
		DrawReason:     that.DrawReason,
		StartTime:      that.StartTime,
		EndTime:        endTime,
	}
}
