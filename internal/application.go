package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/gungi-backend/internal/archive"
	"github.com/rocketscienceinc/gungi-backend/internal/config"
	"github.com/rocketscienceinc/gungi-backend/internal/gungi"
	"github.com/rocketscienceinc/gungi-backend/internal/repository"
	"github.com/rocketscienceinc/gungi-backend/internal/repository/storage"
	"github.com/rocketscienceinc/gungi-backend/internal/usecase"
	"github.com/rocketscienceinc/gungi-backend/transport/rest"
	"github.com/rocketscienceinc/gungi-backend/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	engine := gungi.NewEngine(gungi.WithDrawPolicy(conf.Rules.DrawPolicy()))
	policy := engine.Policy()
	log.Info("rules loaded", "moveLimit", policy.MoveLimit, "repetitionLimit", policy.RepetitionLimit)

	archiveWriter := archive.NewWriter(conf.Archive.Dir)

	playerRepo := repository.NewPlayerRepository(redisStorage.Connection)
	gameRepo := repository.NewGameRepository(redisStorage.Connection)
	gameManager := usecase.NewGameManager(
		logger.With("component", "game_manager"),
		playerRepo,
		gameRepo,
		engine,
		archiveWriter,
		conf.Archive.Retention,
	)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		handler := rest.NewHandler(logger.With("component", "rest"), gameManager)
		if httpErr := rest.Start(ctx, conf.HTTPPort, handler); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger.With("component", "websocket"), gameManager)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
