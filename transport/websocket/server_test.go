package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gungi-backend/internal/apperror"
	"github.com/rocketscienceinc/gungi-backend/internal/entity"
	"github.com/rocketscienceinc/gungi-backend/internal/gungi"
	"github.com/rocketscienceinc/gungi-backend/internal/repository"
)

type mockGameUseCase struct {
	mock.Mock
}

func (that *mockGameUseCase) GetOrCreatePlayer(ctx context.Context, id string) (*entity.Player, error) {
	args := that.Called(ctx, id)
	player, _ := args.Get(0).(*entity.Player)
	return player, args.Error(1)
}

func (that *mockGameUseCase) CreateGame(ctx context.Context, playerID string) (*entity.Game, error) {
	args := that.Called(ctx, playerID)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (that *mockGameUseCase) JoinGame(ctx context.Context, gameID, playerID string) (*entity.Game, error) {
	args := that.Called(ctx, gameID, playerID)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (that *mockGameUseCase) LeaveGame(ctx context.Context, playerID string) (*entity.Game, error) {
	args := that.Called(ctx, playerID)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (that *mockGameUseCase) GetGame(ctx context.Context, gameID string) (*entity.Game, error) {
	args := that.Called(ctx, gameID)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (that *mockGameUseCase) GetGameByPlayerID(ctx context.Context, playerID string) (*entity.Game, error) {
	args := that.Called(ctx, playerID)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (that *mockGameUseCase) ValidMoves(
	ctx context.Context,
	playerID string,
	from gungi.Coord,
	pieceType gungi.PieceType,
) ([]gungi.Coord, error) {
	args := that.Called(ctx, playerID, from, pieceType)
	moves, _ := args.Get(0).([]gungi.Coord)
	return moves, args.Error(1)
}

func (that *mockGameUseCase) MakeMove(
	ctx context.Context,
	playerID string,
	from, to gungi.Coord,
	pieceType gungi.PieceType,
) (*entity.Game, error) {
	args := that.Called(ctx, playerID, from, to, pieceType)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func newTestServer(t *testing.T) (*mockGameUseCase, string) {
	t.Helper()

	uGame := &mockGameUseCase{}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	srv := httptest.NewServer(New(logger, uGame).Handler())
	t.Cleanup(func() {
		srv.Close()
		uGame.AssertExpectations(t)
	})

	return uGame, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conn.Close()
	})

	return conn
}

func exchange(t *testing.T, conn *websocket.Conn, action string, payload Payload) (string, Payload) {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Message{Action: action, Payload: body}))

	return receive(t, conn)
}

func receive(t *testing.T, conn *websocket.Conn) (string, Payload) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var message Message
	require.NoError(t, conn.ReadJSON(&message))

	var payload Payload
	require.NoError(t, json.Unmarshal(message.Payload, &payload))

	return message.Action, payload
}

func newGame(t *testing.T, players ...*entity.Player) *entity.Game {
	t.Helper()

	state, err := gungi.NewEngine().NewGame("g1")
	require.NoError(t, err)

	game := entity.NewGame(state)
	game.Players = players

	return game
}

func TestServer_Connect(t *testing.T) {
	t.Run("Creates a player for an empty id", func(t *testing.T) {
		// Given: a server whose use case hands out a fresh player
		uGame, url := newTestServer(t)
		uGame.On("GetOrCreatePlayer", mock.Anything, "").Return(&entity.Player{ID: "p1"}, nil).Once()
		conn := dial(t, url)

		// When: the client connects without an id
		action, payload := exchange(t, conn, "connect", Payload{Player: &entity.Player{}})

		// Then: it receives its new player
		assert.Equal(t, "connect", action)
		require.NotNil(t, payload.Player)
		assert.Equal(t, "p1", payload.Player.ID)
		assert.Nil(t, payload.Game)
	})

	t.Run("Returns the game of a seated player", func(t *testing.T) {
		uGame, url := newTestServer(t)
		player := &entity.Player{ID: "p1", Side: gungi.Player1, GameID: "g1"}
		uGame.On("GetOrCreatePlayer", mock.Anything, "p1").Return(player, nil).Once()
		uGame.On("GetGameByPlayerID", mock.Anything, "p1").Return(newGame(t, player), nil).Once()
		conn := dial(t, url)

		_, payload := exchange(t, conn, "connect", Payload{Player: &entity.Player{ID: "p1"}})

		require.NotNil(t, payload.Game)
		assert.Equal(t, "g1", payload.Game.ID)
		assert.Empty(t, payload.Game.Players)
		assert.Equal(t, 25, payload.Game.State.Board.Count(gungi.Player2))
	})

	t.Run("Connects without a game once the stored game is gone", func(t *testing.T) {
		uGame, url := newTestServer(t)
		player := &entity.Player{ID: "p1", Side: gungi.Player1, GameID: "g1"}
		uGame.On("GetOrCreatePlayer", mock.Anything, "p1").Return(player, nil).Once()
		uGame.On("GetGameByPlayerID", mock.Anything, "p1").
			Return(nil, fmt.Errorf("failed to get game: %w", repository.ErrGameNotFound)).Once()
		conn := dial(t, url)

		_, payload := exchange(t, conn, "connect", Payload{Player: &entity.Player{ID: "p1"}})

		assert.Empty(t, payload.Error)
		require.NotNil(t, payload.Player)
		assert.Nil(t, payload.Game)
	})

	t.Run("Requires a player", func(t *testing.T) {
		_, url := newTestServer(t)
		conn := dial(t, url)

		_, payload := exchange(t, conn, "connect", Payload{})

		assert.Equal(t, "Player is required", payload.Error)
	})
}

func TestServer_UnknownAction(t *testing.T) {
	_, url := newTestServer(t)
	conn := dial(t, url)

	action, payload := exchange(t, conn, "game:dance", Payload{})

	assert.Equal(t, "game:dance", action)
	assert.Equal(t, "unknown action", payload.Error)
}

func TestServer_NewAndJoinGame(t *testing.T) {
	// Given: two connected clients
	uGame, url := newTestServer(t)
	first := &entity.Player{ID: "p1", Side: gungi.Player1, GameID: "g1"}
	second := &entity.Player{ID: "p2", Side: gungi.Player2, GameID: "g1"}

	uGame.On("CreateGame", mock.Anything, "p1").Return(newGame(t, first), nil).Once()
	joined := newGame(t, first, second)
	joined.Status = entity.StatusOngoing
	uGame.On("JoinGame", mock.Anything, "g1", "p2").Return(joined, nil).Once()

	firstConn := dial(t, url)
	secondConn := dial(t, url)

	// When: the first creates a game
	action, payload := exchange(t, firstConn, "game:new", Payload{Player: &entity.Player{ID: "p1"}})

	// Then: it gets the waiting game
	assert.Equal(t, "game:new", action)
	require.NotNil(t, payload.Game)
	assert.Equal(t, entity.StatusWaiting, payload.Game.Status)

	// When: the second joins it
	_, payload = exchange(t, secondConn, "game:join", Payload{
		Player: &entity.Player{ID: "p2"},
		Game:   &entity.Game{ID: "g1"},
	})

	// Then: both are told the game is ongoing, each with their own side
	assert.Equal(t, gungi.Player2, payload.Player.Side)
	assert.Equal(t, entity.StatusOngoing, payload.Game.Status)

	action, payload = receive(t, firstConn)
	assert.Equal(t, "game:join", action)
	assert.Equal(t, gungi.Player1, payload.Player.Side)
	assert.Equal(t, entity.StatusOngoing, payload.Game.Status)
}

func TestServer_Moves(t *testing.T) {
	from := gungi.Coord{Row: 2, Col: 0}
	to := gungi.Coord{Row: 3, Col: 0}

	t.Run("Lists valid destinations", func(t *testing.T) {
		uGame, url := newTestServer(t)
		uGame.On("ValidMoves", mock.Anything, "p1", from, gungi.Pawn).Return([]gungi.Coord{to}, nil).Once()
		conn := dial(t, url)

		_, payload := exchange(t, conn, "game:moves", Payload{
			Player: &entity.Player{ID: "p1"},
			Move:   &MovePayload{PieceType: gungi.Pawn, From: from},
		})

		assert.Equal(t, []gungi.Coord{to}, payload.Moves)
	})

	t.Run("Reports the rejection reason", func(t *testing.T) {
		// Given: a use case refusing the move as out of turn
		uGame, url := newTestServer(t)
		uGame.On("MakeMove", mock.Anything, "p2", from, to, gungi.Pawn).
			Return(newGame(t), apperror.ErrNotYourTurn).
			Once()
		conn := dial(t, url)

		// When: the move is sent
		_, payload := exchange(t, conn, "game:move", Payload{
			Player: &entity.Player{ID: "p2"},
			Move:   &MovePayload{PieceType: gungi.Pawn, From: from, To: to},
		})

		// Then: the reply carries the WrongTurn tag
		assert.Equal(t, "WrongTurn", payload.Reason)
		assert.NotEmpty(t, payload.Error)
	})

	t.Run("Broadcasts an accepted move", func(t *testing.T) {
		uGame, url := newTestServer(t)
		player := &entity.Player{ID: "p1", Side: gungi.Player1, GameID: "g1"}

		game := newGame(t, player)
		game.Status = entity.StatusOngoing
		next, err := gungi.NewEngine().Submit(game.State, gungi.Move{
			Player: gungi.Player1, PieceType: gungi.Pawn, From: from, To: to,
		})
		require.NoError(t, err)
		game.Advance(next)

		uGame.On("MakeMove", mock.Anything, "p1", from, to, gungi.Pawn).Return(game, nil).Once()
		conn := dial(t, url)

		_, payload := exchange(t, conn, "game:move", Payload{
			Player: &entity.Player{ID: "p1"},
			Move:   &MovePayload{PieceType: gungi.Pawn, From: from, To: to},
		})

		require.NotNil(t, payload.Game)
		assert.Empty(t, payload.Reason)
		assert.Equal(t, gungi.Player2, payload.Game.State.CurrentPlayer)
		require.Len(t, payload.Game.State.Moves, 1)
	})
}
