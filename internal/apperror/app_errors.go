package apperror

import "errors"

// move rejections, each maps to a reason tag the transports send back.
var (
	ErrGameFinished = errors.New("game is already finished")
	ErrNotYourTurn  = errors.New("it's not your turn")
	ErrNoSuchPiece  = errors.New("no such piece at source")
	ErrIllegalMove  = errors.New("illegal move")
)

var (
	ErrInvalidGameID     = errors.New("invalid game id")
	ErrBoardInconsistent = errors.New("board is inconsistent")
	ErrReplayMismatch    = errors.New("replayed move does not match record")

	ErrGameIsNotStarted = errors.New("game is not started")
	ErrGameIsFull       = errors.New("game already has two players")
	ErrGameIsOngoing    = errors.New("game is already ongoing")
	ErrPlayerNotInGame  = errors.New("player is not in a game")

	ErrPlayerInAnotherGame = errors.New("player is already in another game")
)
