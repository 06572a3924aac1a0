package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/gungi-backend/internal/apperror"
	"github.com/rocketscienceinc/gungi-backend/internal/entity"
	"github.com/rocketscienceinc/gungi-backend/internal/gungi"
	"github.com/rocketscienceinc/gungi-backend/internal/repository"
)

// readPayload decodes the payload and requires a player on it.
func (that *Server) readPayload(msg *Message, conn *connection) (*Payload, error) {
	var payloadReq Payload

	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return nil, that.sendErrorResponse(conn, msg.Action, "", "invalid payload")
	}

	if payloadReq.Player == nil {
		return nil, that.sendErrorResponse(conn, msg.Action, "", "Player is required")
	}

	that.register(payloadReq.Player.ID, conn)

	return &payloadReq, nil
}

func (that *Server) handleConnect(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleConnect")

	payloadReq, err := that.readPayload(msg, conn)
	if payloadReq == nil {
		return err
	}

	player, err := that.uGame.GetOrCreatePlayer(ctx, payloadReq.Player.ID)
	if err != nil {
		log.Error("failed to create or get", "player", err)
		return that.sendErrorResponse(conn, msg.Action, "", "failed to create a new player")
	}

	that.register(player.ID, conn)

	payloadResp := Payload{
		Player: player,
	}

	if player.GameID != "" {
		game, err := that.uGame.GetGameByPlayerID(ctx, player.ID)
		if err != nil && !errors.Is(err, repository.ErrGameNotFound) && !errors.Is(err, apperror.ErrPlayerNotInGame) {
			log.Error("failed to get game", "gameID", player.GameID, "error", err)
			return that.sendErrorResponse(conn, msg.Action, "", "failed to get the game")
		}

		if err == nil {
			payloadResp.Game = maskGameDetails(game)
		}
	}

	if err = that.sendMessage(conn, msg.Action, payloadResp); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	log.Info("successfully connected player", "playerID", player.ID)

	return nil
}

func (that *Server) handleNewGame(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleNewGame")

	payloadReq, err := that.readPayload(msg, conn)
	if payloadReq == nil {
		return err
	}

	game, err := that.uGame.CreateGame(ctx, payloadReq.Player.ID)
	if err != nil {
		log.Error("failed to create game", "error", err)
		return that.sendErrorResponse(conn, msg.Action, "", "failed to create a new game")
	}

	that.broadcast(msg.Action, game)

	log.Info("game created", "gameID", game.ID)

	return nil
}

func (that *Server) handleJoinGame(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleJoinGame")

	payloadReq, err := that.readPayload(msg, conn)
	if payloadReq == nil {
		return err
	}

	if payloadReq.Game == nil {
		return that.sendErrorResponse(conn, msg.Action, "", "Game is required")
	}

	log = log.With("playerID", payloadReq.Player.ID)

	game, err := that.uGame.JoinGame(ctx, payloadReq.Game.ID, payloadReq.Player.ID)
	if err != nil {
		log.Error("failed to join game", "error", err)
		return that.sendErrorResponse(conn, msg.Action, "", fmt.Sprintf("game %s: %v", payloadReq.Game.ID, err))
	}

	that.broadcast(msg.Action, game)

	log.Info("Player joined game", "gameID", game.ID)

	return nil
}

func (that *Server) handleLeaveGame(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleLeaveGame")

	payloadReq, err := that.readPayload(msg, conn)
	if payloadReq == nil {
		return err
	}

	game, err := that.uGame.LeaveGame(ctx, payloadReq.Player.ID)
	if err != nil {
		log.Error("failed to leave game", "error", err)
		return that.sendErrorResponse(conn, msg.Action, "", err.Error())
	}

	if err = that.sendMessage(conn, msg.Action, Payload{Game: maskGameDetails(game)}); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	log.Info("Player left game", "gameID", game.ID)

	return nil
}

// handleGameState serves any game by id, so spectators can follow it too.
func (that *Server) handleGameState(ctx context.Context, msg *Message, conn *connection) error {
	var payloadReq Payload

	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return that.sendErrorResponse(conn, msg.Action, "", "invalid payload")
	}

	if payloadReq.Game == nil {
		return that.sendErrorResponse(conn, msg.Action, "", "Game is required")
	}

	game, err := that.uGame.GetGame(ctx, payloadReq.Game.ID)
	if err != nil {
		return that.sendErrorResponse(conn, msg.Action, "", fmt.Sprintf("game %s: %v", payloadReq.Game.ID, err))
	}

	return that.sendMessage(conn, msg.Action, Payload{Game: maskGameDetails(game)})
}

func (that *Server) handleValidMoves(ctx context.Context, msg *Message, conn *connection) error {
	payloadReq, err := that.readPayload(msg, conn)
	if payloadReq == nil {
		return err
	}

	if payloadReq.Move == nil {
		return that.sendErrorResponse(conn, msg.Action, "", "Move is required")
	}

	moves, err := that.uGame.ValidMoves(ctx, payloadReq.Player.ID, payloadReq.Move.From, payloadReq.Move.PieceType)
	if err != nil {
		return that.sendErrorResponse(conn, msg.Action, "", err.Error())
	}

	return that.sendMessage(conn, msg.Action, Payload{Move: payloadReq.Move, Moves: moves})
}

func (that *Server) handleMakeMove(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleMakeMove")

	payloadReq, err := that.readPayload(msg, conn)
	if payloadReq == nil {
		return err
	}

	if payloadReq.Move == nil {
		return that.sendErrorResponse(conn, msg.Action, "", "Move is required")
	}

	log = log.With("playerID", payloadReq.Player.ID)

	move := payloadReq.Move
	game, err := that.uGame.MakeMove(ctx, payloadReq.Player.ID, move.From, move.To, move.PieceType)
	if reason := gungi.RejectionReason(err); reason != "" {
		log.Info("move rejected", "reason", reason, "error", err)
		return that.sendErrorResponse(conn, msg.Action, reason, err.Error())
	}

	if errors.Is(err, apperror.ErrGameIsNotStarted) || errors.Is(err, apperror.ErrPlayerNotInGame) {
		return that.sendErrorResponse(conn, msg.Action, "", err.Error())
	}

	if err != nil {
		log.Error("failed to make move", "error", err)
		return that.sendErrorResponse(conn, msg.Action, "", fmt.Sprintf("failed to move in game %v", err))
	}

	that.broadcast(msg.Action, game)

	if game.IsFinished() {
		log.Info("Game finished", "gameID", game.ID, "status", game.State.Status, "winner", game.State.Winner)
	}

	return nil
}

// broadcast sends the game to every seated player that is connected.
func (that *Server) broadcast(action string, game *entity.Game) {
	log := that.logger.With("method", "broadcast", "gameID", game.ID)

	masked := maskGameDetails(game)

	for _, player := range game.Players {
		conn, ok := that.connectionOf(player.ID)
		if !ok {
			log.Warn("connection not found for player", "playerID", player.ID)
			continue
		}

		payloadResp := Payload{
			Player: player,
			Game:   masked,
		}

		if err := that.sendMessage(conn, action, payloadResp); err != nil {
			log.Error("failed to send game update", "playerID", player.ID, "error", err)
		}
	}
}

// maskGameDetails hides the players, whose ids double as session keys.
func maskGameDetails(game *entity.Game) *entity.Game {
	masked := *game
	masked.Players = nil
	return &masked
}
