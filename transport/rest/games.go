package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rocketscienceinc/gungi-backend/internal/apperror"
	"github.com/rocketscienceinc/gungi-backend/internal/archive"
	"github.com/rocketscienceinc/gungi-backend/internal/gungi"
	"github.com/rocketscienceinc/gungi-backend/internal/repository"
)

type stateReader interface {
	GetState(ctx context.Context, gameID string) (*gungi.GameState, error)
	SettleArchive(ctx context.Context, gameID string) (*gungi.GameState, error)
}

type gamesHandler struct {
	logger *slog.Logger
	games  stateReader
}

// getGame serves the engine snapshot of one game.
func (that *gamesHandler) getGame(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "getGame")

	gameID := r.PathValue("id")
	if err := gungi.ValidateGameID(gameID); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	state, err := that.games.GetState(r.Context(), gameID)
	if errors.Is(err, repository.ErrGameNotFound) {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}

	if err != nil {
		log.Error("failed to get game", "gameID", gameID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(state); err != nil {
		log.Error("failed to write game", "gameID", gameID, "error", err)
	}
}

// getArchive replays an archived game and serves the state it settles on.
func (that *gamesHandler) getArchive(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "getArchive")

	gameID := r.PathValue("id")
	if err := gungi.ValidateGameID(gameID); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	state, err := that.games.SettleArchive(r.Context(), gameID)
	switch {
	case errors.Is(err, archive.ErrNotArchived):
		http.Error(w, "game not archived", http.StatusNotFound)
		return
	case errors.Is(err, apperror.ErrReplayMismatch):
		log.Warn("archive does not settle", "gameID", gameID, "error", err)
		http.Error(w, "archived result does not replay", http.StatusConflict)
		return
	case err != nil:
		log.Error("failed to settle archive", "gameID", gameID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(state); err != nil {
		log.Error("failed to write game", "gameID", gameID, "error", err)
	}
}
