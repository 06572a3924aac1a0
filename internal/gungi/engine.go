package gungi

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/rocketscienceinc/gungi-backend/internal/apperror"
)

const maxGameIDLength = 64

var gameIDPattern = regexp.MustCompile(`^[A-Za-z0-9_\-:.]+$`)

// Engine validates and applies moves. It holds only configuration, so one Engine
// may serve any number of games; each GameState must be used by one caller at a time.
type Engine struct {
	policy DrawPolicy
	now    func() time.Time
}

type Option func(*Engine)

func WithDrawPolicy(policy DrawPolicy) Option {
	return func(e *Engine) {
		e.policy = policy
	}
}

// WithClock replaces the clock used to stamp start, move and end times.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(opts ...Option) *Engine {
	engine := &Engine{
		policy: DefaultDrawPolicy,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}

	for _, opt := range opts {
		opt(engine)
	}

	return engine
}

func (that *Engine) Policy() DrawPolicy {
	return that.policy
}

// NewGame builds a fresh match with the standard formation and Player1 to move.
func (that *Engine) NewGame(id string) (*GameState, error) {
	return newGameAt(id, that.now())
}

func newGameAt(id string, start time.Time) (*GameState, error) {
	if err := ValidateGameID(id); err != nil {
		return nil, err
	}

	return &GameState{
		ID:             id,
		Board:          initialBoard(),
		CurrentPlayer:  Player1,
		Moves:          []MoveRecord{},
		CapturedPieces: []Piece{},
		Status:         StatusOngoing,
		StartTime:      start,
	}, nil
}

func ValidateGameID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty", apperror.ErrInvalidGameID)
	}
	if len(id) > maxGameIDLength {
		return fmt.Errorf("%w: longer than %d bytes", apperror.ErrInvalidGameID, maxGameIDLength)
	}
	if !gameIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", apperror.ErrInvalidGameID, id)
	}
	return nil
}

// ValidMoves returns exactly the destinations Validate would accept for this piece;
// it is empty whenever Validate would reject the move for any other reason.
func (that *Engine) ValidMoves(state *GameState, player Player, from Coord, pieceType PieceType) []Coord {
	if err := checkMover(state, Move{Player: player, PieceType: pieceType, From: from}); err != nil {
		return []Coord{}
	}
	return LegalDestinations(&state.Board, from)
}

// Validate runs the four preconditions of a move in order and returns the first failure.
func (that *Engine) Validate(state *GameState, move Move) error {
	if err := checkMover(state, move); err != nil {
		return err
	}

	if !IsLegal(&state.Board, move.From, move.To) {
		return fmt.Errorf("%w: %s %s -> %s", apperror.ErrIllegalMove, move.PieceType, move.From, move.To)
	}

	return nil
}

func checkMover(state *GameState, move Move) error {
	if !state.IsOngoing() {
		return apperror.ErrGameFinished
	}

	if move.Player != state.CurrentPlayer {
		return apperror.ErrNotYourTurn
	}

	// Only the top of a tower may move.
	piece := state.Board.AtCoord(move.From)
	if piece.IsEmpty() || piece.Type != move.PieceType || piece.Player != move.Player ||
		move.From.Tier != state.Board.Height(move.From.Row, move.From.Col)-1 {
		return fmt.Errorf("%w: %s at %s", apperror.ErrNoSuchPiece, move.PieceType, move.From)
	}

	return nil
}

// Submit validates the move and, if it is accepted, returns the next state.
// The given state is never modified.
func (that *Engine) Submit(state *GameState, move Move) (*GameState, error) {
	if err := that.Validate(state, move); err != nil {
		return nil, err
	}

	return that.Apply(state, move)
}

// Apply performs an already validated move on a copy of state.
// An error here means the board and the rules disagree, never a rejected move.
func (that *Engine) Apply(state *GameState, move Move) (*GameState, error) {
	return that.apply(state, move, that.now())
}

func (that *Engine) apply(state *GameState, move Move, at time.Time) (*GameState, error) {
	next := state.Clone()

	piece, err := next.Board.Pop(move.From.Row, move.From.Col)
	if err != nil {
		return nil, fmt.Errorf("failed to lift piece: %w", err)
	}

	record := MoveRecord{
		MoveNumber: len(next.Moves) + 1,
		Player:     move.Player,
		PieceType:  move.PieceType,
		From:       move.From,
		To:         move.To,
		Timestamp:  at,
	}

	height := next.Board.Height(move.To.Row, move.To.Col)
	switch move.To.Tier {
	case height - 1:
		captured, err := next.Board.Pop(move.To.Row, move.To.Col)
		if err != nil {
			return nil, fmt.Errorf("failed to capture: %w", err)
		}
		if captured.Player == piece.Player {
			return nil, fmt.Errorf("%w: own piece at %s", apperror.ErrBoardInconsistent, move.To)
		}
		record.IsCapture = true
		record.Captured = captured
		next.CapturedPieces = append(next.CapturedPieces, captured)
	case height:
	default:
		return nil, fmt.Errorf("%w: landing at %s over height %d", ErrFloatingPiece, move.To, height)
	}

	tier, err := next.Board.Push(move.To.Row, move.To.Col, piece)
	if err != nil {
		return nil, fmt.Errorf("failed to place piece: %w", err)
	}
	if tier != move.To.Tier {
		return nil, fmt.Errorf("%w: piece landed on tier %d instead of %d", apperror.ErrBoardInconsistent, tier, move.To.Tier)
	}

	next.CurrentPlayer = move.Player.Opponent()
	record.PositionHash = PositionHash(&next.Board, next.CurrentPlayer)
	next.Moves = append(next.Moves, record)

	outcome := detectTerminal(next, &next.Moves[len(next.Moves)-1], that.policy)
	if outcome.Status != StatusOngoing {
		next.Status = outcome.Status
		next.Winner = outcome.Winner
		next.DrawReason = outcome.DrawReason
		end := at
		next.EndTime = &end
	}

	return next, nil
}

// Replay rebuilds a game from its recorded history, stamping each move with its
// recorded time, and checks every record against what the rules produce.
func (that *Engine) Replay(id string, start time.Time, records []MoveRecord) (*GameState, error) {
	state, err := newGameAt(id, start)
	if err != nil {
		return nil, err
	}

	for _, record := range records {
		move := record.Move()
		if err = that.Validate(state, move); err != nil {
			return nil, fmt.Errorf("move %d rejected: %w", record.MoveNumber, err)
		}

		state, err = that.apply(state, move, record.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("move %d: %w", record.MoveNumber, err)
		}

		applied := state.Moves[len(state.Moves)-1]
		if applied.MoveNumber != record.MoveNumber || applied.IsCapture != record.IsCapture || applied.Captured != record.Captured {
			return nil, fmt.Errorf("%w: move %d", apperror.ErrReplayMismatch, record.MoveNumber)
		}
	}

	return state, nil
}

// RejectionReason maps a Submit error to the tag sent to clients, or "" when the
// error is not a rejection.
func RejectionReason(err error) string {
	switch {
	case errors.Is(err, apperror.ErrGameFinished):
		return "GameFinished"
	case errors.Is(err, apperror.ErrNotYourTurn):
		return "WrongTurn"
	case errors.Is(err, apperror.ErrNoSuchPiece):
		return "NoSuchPiece"
	case errors.Is(err, apperror.ErrIllegalMove):
		return "IllegalMove"
	default:
		return ""
	}
}
