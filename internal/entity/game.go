package entity

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/gungi-backend/internal/apperror"
	"github.com/rocketscienceinc/gungi-backend/internal/gungi"
)

// host-level statuses; waiting covers the time before the second player joins.
const (
	StatusWaiting  = "waiting"
	StatusOngoing  = "ongoing"
	StatusFinished = "finished"
)

var ErrUnknownGameStatus = errors.New("unknown game status")

type Game struct {
	ID      string           `json:"id"`
	Status  string           `json:"status"`
	Players []*Player        `json:"players,omitempty"`
	State   *gungi.GameState `json:"state"`
}

func NewGame(state *gungi.GameState) *Game {
	return &Game{
		ID:     state.ID,
		Status: StatusWaiting,
		State:  state,
	}
}

// Advance stores the engine's next state and finishes the game when the engine has.
func (that *Game) Advance(state *gungi.GameState) {
	that.State = state

	if state.IsFinished() {
		that.Status = StatusFinished
	}
}

func (that *Game) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Game) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *Game) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Game) ConfirmOngoingState() error {
	switch {
	case that.IsWaiting():
		return apperror.ErrGameIsNotStarted
	case that.IsFinished():
		return apperror.ErrGameFinished
	case that.IsOngoing():
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownGameStatus, that.Status)
	}
}

func (that *Game) IsFull() bool {
	return len(that.Players) >= 2
}

func (that *Game) PlayerByID(id string) (*Player, bool) {
	for _, player := range that.Players {
		if player.ID == id {
			return player, true
		}
	}
	return nil, false
}
