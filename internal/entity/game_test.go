package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gungi-backend/internal/apperror"
	"github.com/rocketscienceinc/gungi-backend/internal/gungi"
)

func TestGameStatusMethods(t *testing.T) {
	t.Run("IsFinished returns true when game status is finished", func(t *testing.T) {
		// Given: a game with StatusFinished
		game := &Game{Status: StatusFinished}

		// When: checking if the game is finished
		isFinished := game.IsFinished()

		// Then: it should return true
		assert.True(t, isFinished)
	})

	t.Run("IsOngoing returns true when game status is ongoing", func(t *testing.T) {
		game := &Game{Status: StatusOngoing}

		assert.True(t, game.IsOngoing())
	})

	t.Run("IsWaiting returns true when game status is waiting", func(t *testing.T) {
		game := &Game{Status: StatusWaiting}

		assert.True(t, game.IsWaiting())
	})
}

func TestGame_ConfirmOngoingState(t *testing.T) {
	t.Run("Returns nil when game is ongoing", func(t *testing.T) {
		// Given: a game with StatusOngoing
		game := &Game{Status: StatusOngoing}

		// When: checking if the game is active
		err := game.ConfirmOngoingState()

		// Then: it should return nil error
		assert.NoError(t, err)
	})

	t.Run("Returns ErrGameIsNotStarted when game is waiting", func(t *testing.T) {
		game := &Game{Status: StatusWaiting}

		err := game.ConfirmOngoingState()

		assert.ErrorIs(t, err, apperror.ErrGameIsNotStarted)
	})

	t.Run("Returns ErrGameFinished when game is finished", func(t *testing.T) {
		game := &Game{Status: StatusFinished}

		err := game.ConfirmOngoingState()

		assert.ErrorIs(t, err, apperror.ErrGameFinished)
	})

	t.Run("Returns error for unknown game status", func(t *testing.T) {
		// Given: a game with unknown status
		game := &Game{Status: "unknown"}

		// When: checking if the game is active
		err := game.ConfirmOngoingState()

		// Then: it should return an error
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownGameStatus)
	})
}

func TestGame_Advance(t *testing.T) {
	engine := gungi.NewEngine()

	t.Run("Keeps the game ongoing while the engine does", func(t *testing.T) {
		// Given: an ongoing game
		state, err := engine.NewGame("g1")
		require.NoError(t, err)
		game := NewGame(state)
		game.Status = StatusOngoing

		// When: the engine advances by one move
		next, err := engine.Submit(state, gungi.Move{
			Player:    gungi.Player1,
			PieceType: gungi.Pawn,
			From:      gungi.Coord{Row: 2, Col: 0},
			To:        gungi.Coord{Row: 3, Col: 0},
		})
		require.NoError(t, err)
		game.Advance(next)

		// Then: the game holds the new state and is still ongoing
		assert.Same(t, next, game.State)
		assert.True(t, game.IsOngoing())
	})

	t.Run("Finishes the game when the engine reports a result", func(t *testing.T) {
		state, err := engine.NewGame("g2")
		require.NoError(t, err)
		game := NewGame(state)
		game.Status = StatusOngoing

		finished := state.Clone()
		finished.Status = gungi.StatusWon
		finished.Winner = gungi.Player1
		game.Advance(finished)

		assert.True(t, game.IsFinished())
	})
}

func TestGame_Players(t *testing.T) {
	// Given: a game with one player
	state, err := gungi.NewEngine().NewGame("g3")
	require.NoError(t, err)
	game := NewGame(state)
	game.Players = []*Player{{ID: "p1", Side: gungi.Player1, GameID: "g3"}}

	// Then: it is waiting, not full, and finds its player
	assert.True(t, game.IsWaiting())
	assert.False(t, game.IsFull())

	player, ok := game.PlayerByID("p1")
	require.True(t, ok)
	assert.Equal(t, gungi.Player1, player.Side)

	_, ok = game.PlayerByID("p2")
	assert.False(t, ok)

	// When: the player is released
	player.Release()

	// Then: it no longer points at the game
	assert.Empty(t, player.GameID)
	assert.Equal(t, gungi.NoPlayer, player.Side)
}
