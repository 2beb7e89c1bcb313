package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/neuraltactics/tictactoe-backend/internal/advisor"
	"github.com/neuraltactics/tictactoe-backend/internal/config"
	"github.com/neuraltactics/tictactoe-backend/internal/repository"
	"github.com/neuraltactics/tictactoe-backend/internal/repository/storage"
	"github.com/neuraltactics/tictactoe-backend/internal/scorer"
	"github.com/neuraltactics/tictactoe-backend/internal/service"
	"github.com/neuraltactics/tictactoe-backend/internal/usecase"
	"github.com/neuraltactics/tictactoe-backend/transport/rest"
	"github.com/neuraltactics/tictactoe-backend/transport/websocket"
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

	playerRepo := repository.NewPlayerRepository(redisStorage.Connection)
	gameRepo := repository.NewGameRepository(redisStorage.Connection)

	playerService := service.NewPlayerService(playerRepo)
	gameService := service.NewGameService(gameRepo)
	botService := service.NewBotService(advisor.New(), loadScorer(log, conf.ModelPath))
	gamePlayService := service.NewGamePlayService(logger, playerService, gameService, botService, conf.BotMoveDelay)

	gameUseCase := usecase.NewGameUseCase(playerService, gamePlayService, conf.Difficulty)

	wsServer := websocket.New(logger, gameUseCase)
	gamePlayService.SetNotifier(wsServer)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.Start(conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
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

// loadScorer - loads the pre-trained model, degrading to uniform-random
// scores when it cannot be loaded. The bot stays playable either way.
func loadScorer(log *slog.Logger, modelPath string) scorer.Scorer {
	neural, err := scorer.LoadNeural(modelPath)
	if err != nil {
		log.Error("could not load model, falling back to random scoring", "path", modelPath, "error", err)
		return scorer.NewUniform()
	}

	log.Info("loaded scoring model", "path", modelPath)

	return neural
}
