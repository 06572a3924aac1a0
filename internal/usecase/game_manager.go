package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/gungi-backend/internal/apperror"
	"github.com/rocketscienceinc/gungi-backend/internal/archive"
	"github.com/rocketscienceinc/gungi-backend/internal/entity"
	"github.com/rocketscienceinc/gungi-backend/internal/gungi"
	"github.com/rocketscienceinc/gungi-backend/internal/pkg"
	"github.com/rocketscienceinc/gungi-backend/internal/repository"
)

type playerRepo interface {
	CreateOrUpdate(ctx context.Context, player *entity.Player) error
	GetByID(ctx context.Context, id string) (*entity.Player, error)
}

type gameRepo interface {
	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error
	Expire(ctx context.Context, id string, ttl time.Duration) error
}

type rulesEngine interface {
	NewGame(id string) (*gungi.GameState, error)
	ValidMoves(state *gungi.GameState, player gungi.Player, from gungi.Coord, pieceType gungi.PieceType) []gungi.Coord
	Submit(state *gungi.GameState, move gungi.Move) (*gungi.GameState, error)
	Replay(id string, start time.Time, records []gungi.MoveRecord) (*gungi.GameState, error)
}

type archiver interface {
	Archive(state *gungi.GameState) (string, error)
	Load(gameID string) (*archive.Game, error)
}

type GameManager struct {
	logger     *slog.Logger
	playerRepo playerRepo
	gameRepo   gameRepo
	engine     rulesEngine
	archiver   archiver

	// retention is how long a finished game stays readable in redis.
	retention time.Duration
	locks     *gameLocks
}

func NewGameManager(
	logger *slog.Logger,
	playerRepo playerRepo,
	gameRepo gameRepo,
	engine rulesEngine,
	archiver archiver,
	retention time.Duration,
) *GameManager {
	return &GameManager{
		logger: logger,

		playerRepo: playerRepo,
		gameRepo:   gameRepo,
		engine:     engine,
		archiver:   archiver,

		retention: retention,
		locks:     newGameLocks(),
	}
}

func (that *GameManager) GetOrCreatePlayer(ctx context.Context, id string) (*entity.Player, error) {
	if id == "" {
		player, err := that.createPlayer(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create new player %w", err)
		}

		return player, nil
	}

	player, err := that.playerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id %w", err)
	}

	return player, nil
}

// CreateGame seats the player as Player1 of a new waiting game, or returns the
// game the player is still seated in.
func (that *GameManager) CreateGame(ctx context.Context, playerID string) (*entity.Game, error) {
	player, err := that.getPlayerByID(ctx, playerID)
	if err != nil {
		return nil, err
	}

	if player.GameID != "" {
		existingGame, err := that.gameRepo.GetByID(ctx, player.GameID)
		if err == nil {
			return existingGame, nil
		}

		if !errors.Is(err, repository.ErrGameNotFound) {
			return nil, fmt.Errorf("failed to get game: %w", err)
		}
	}

	state, err := that.engine.NewGame(pkg.GenerateGameID())
	if err != nil {
		return nil, fmt.Errorf("failed to start game: %w", err)
	}

	player.GameID = state.ID
	player.Side = gungi.Player1
	if err = that.updatePlayer(ctx, player); err != nil {
		return nil, err
	}

	newGame := entity.NewGame(state)
	newGame.Players = []*entity.Player{player}

	if err = that.updateGame(ctx, newGame); err != nil {
		return nil, err
	}

	that.logger.Info("game created", "method", "CreateGame", "gameID", newGame.ID, "playerID", player.ID)

	return newGame, nil
}

// JoinGame seats the player as Player2 and starts the game.
func (that *GameManager) JoinGame(ctx context.Context, gameID, playerID string) (*entity.Game, error) {
	unlock := that.locks.lock(gameID)
	defer unlock()

	existingGame, err := that.getGameByID(ctx, gameID)
	if err != nil {
		return nil, err
	}

	player, err := that.getPlayerByID(ctx, playerID)
	if err != nil {
		return nil, err
	}

	if player.GameID == existingGame.ID {
		return existingGame, nil
	}

	if player.GameID != "" {
		return nil, fmt.Errorf("%w: %s", apperror.ErrPlayerInAnotherGame, player.GameID)
	}

	if existingGame.IsFull() {
		return nil, fmt.Errorf("%w: game id %s", apperror.ErrGameIsFull, gameID)
	}

	if !existingGame.IsWaiting() {
		return nil, fmt.Errorf("%w: game id %s", apperror.ErrGameIsOngoing, gameID)
	}

	player.GameID = existingGame.ID
	player.Side = gungi.Player2
	if err = that.updatePlayer(ctx, player); err != nil {
		return nil, err
	}

	existingGame.Status = entity.StatusOngoing
	existingGame.Players = append(existingGame.Players, player)
	if err = that.updateGame(ctx, existingGame); err != nil {
		return nil, err
	}

	return existingGame, nil
}

func (that *GameManager) GetGame(ctx context.Context, gameID string) (*entity.Game, error) {
	return that.getGameByID(ctx, gameID)
}

// GetState returns the engine snapshot of a game.
func (that *GameManager) GetState(ctx context.Context, gameID string) (*gungi.GameState, error) {
	game, err := that.getGameByID(ctx, gameID)
	if err != nil {
		return nil, err
	}

	return game.State, nil
}

func (that *GameManager) GetGameByPlayerID(ctx context.Context, playerID string) (*entity.Game, error) {
	player, err := that.getPlayerByID(ctx, playerID)
	if err != nil {
		return nil, err
	}

	if player.GameID == "" {
		return nil, apperror.ErrPlayerNotInGame
	}

	return that.getGameByID(ctx, player.GameID)
}

// SettleArchive replays the archived move log of a finished game and returns the
// state it settles on. It fails with apperror.ErrReplayMismatch when the current
// rules reach another result than the one archived.
func (that *GameManager) SettleArchive(_ context.Context, gameID string) (*gungi.GameState, error) {
	archived, err := that.archiver.Load(gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to load archive: %w", err)
	}

	state, err := archived.Settle(that.engine)
	if err != nil {
		return nil, fmt.Errorf("failed to settle game: %w", err)
	}

	return state, nil
}

// ValidMoves lists where the player's piece at from may go. It is empty whenever
// the engine would reject every move from there.
func (that *GameManager) ValidMoves(
	ctx context.Context,
	playerID string,
	from gungi.Coord,
	pieceType gungi.PieceType,
) ([]gungi.Coord, error) {
	player, err := that.getPlayerByID(ctx, playerID)
	if err != nil {
		return nil, err
	}

	if player.GameID == "" {
		return nil, apperror.ErrPlayerNotInGame
	}

	game, err := that.getGameByID(ctx, player.GameID)
	if err != nil {
		return nil, err
	}

	if !game.IsOngoing() {
		return []gungi.Coord{}, nil
	}

	return that.engine.ValidMoves(game.State, player.Side, from, pieceType), nil
}

// MakeMove submits the player's move. A rejected move returns the unchanged game
// together with the engine's error; gungi.RejectionReason names it.
func (that *GameManager) MakeMove(
	ctx context.Context,
	playerID string,
	from, to gungi.Coord,
	pieceType gungi.PieceType,
) (*entity.Game, error) {
	player, err := that.getPlayerByID(ctx, playerID)
	if err != nil {
		return nil, err
	}

	if player.GameID == "" {
		return nil, apperror.ErrPlayerNotInGame
	}

	unlock := that.locks.lock(player.GameID)
	defer unlock()

	game, err := that.getGameByID(ctx, player.GameID)
	if err != nil {
		return nil, err
	}

	if err = game.ConfirmOngoingState(); err != nil {
		return game, err
	}

	seat, seated := game.PlayerByID(player.ID)
	if !seated {
		return game, fmt.Errorf("%w: game id %s", apperror.ErrPlayerNotInGame, game.ID)
	}

	next, err := that.engine.Submit(game.State, gungi.Move{
		Player:    seat.Side,
		PieceType: pieceType,
		From:      from,
		To:        to,
	})
	if err != nil {
		return game, fmt.Errorf("move rejected: %w", err)
	}

	game.Advance(next)

	if err = that.updateGame(ctx, game); err != nil {
		return nil, err
	}

	if game.IsFinished() {
		that.finishGame(ctx, game)
	}

	return game, nil
}

// LeaveGame drops a game nobody has joined yet.
func (that *GameManager) LeaveGame(ctx context.Context, playerID string) (*entity.Game, error) {
	player, err := that.getPlayerByID(ctx, playerID)
	if err != nil {
		return nil, err
	}

	if player.GameID == "" {
		return nil, apperror.ErrPlayerNotInGame
	}

	unlock := that.locks.lock(player.GameID)
	defer unlock()

	game, err := that.getGameByID(ctx, player.GameID)
	if errors.Is(err, repository.ErrGameNotFound) {
		player.Release()
		if updateErr := that.updatePlayer(ctx, player); updateErr != nil {
			return nil, updateErr
		}

		return nil, err
	}
	if err != nil {
		return nil, err
	}

	if !game.IsWaiting() {
		return game, fmt.Errorf("%w: game id %s", apperror.ErrGameIsOngoing, game.ID)
	}

	if err = that.gameRepo.DeleteByID(ctx, game.ID); err != nil {
		return nil, fmt.Errorf("failed to delete game: %w", err)
	}

	that.releasePlayers(ctx, game)

	return game, nil
}

// finishGame archives the finished game, lets redis drop it after the retention
// period and frees its players for a new game.
func (that *GameManager) finishGame(ctx context.Context, game *entity.Game) {
	log := that.logger.With("method", "finishGame", "gameID", game.ID)

	path, err := that.archiver.Archive(game.State)
	if err != nil {
		log.Error("failed to archive game", "error", err)
	} else {
		log.Info("game archived", "path", path)
	}

	if err = that.gameRepo.Expire(ctx, game.ID, that.retention); err != nil {
		log.Error("failed to expire game", "error", err)
	}

	that.releasePlayers(ctx, game)

	log.Info("game finished", "status", game.State.Status, "winner", game.State.Winner, "drawReason", game.State.DrawReason)
}

func (that *GameManager) releasePlayers(ctx context.Context, game *entity.Game) {
	log := that.logger.With("method", "releasePlayers", "gameID", game.ID)

	for _, player := range game.Players {
		released := *player
		released.Release()

		if err := that.playerRepo.CreateOrUpdate(ctx, &released); err != nil {
			log.Error("failed to update player", "playerID", player.ID, "error", err)
		}
	}
}

func (that *GameManager) createPlayer(ctx context.Context) (*entity.Player, error) {
	playerID := pkg.GenerateNewSessionID()

	player := &entity.Player{
		ID: playerID,
	}

	if err := that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	return player, nil
}

func (that *GameManager) getPlayerByID(ctx context.Context, id string) (*entity.Player, error) {
	player, err := that.playerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	return player, nil
}

func (that *GameManager) updatePlayer(ctx context.Context, player *entity.Player) error {
	if err := that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}

	return nil
}

func (that *GameManager) getGameByID(ctx context.Context, id string) (*entity.Game, error) {
	existingGame, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return existingGame, nil
}

func (that *GameManager) updateGame(ctx context.Context, game *entity.Game) error {
	if err := that.gameRepo.CreateOrUpdate(ctx, game); err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}

	return nil
}
