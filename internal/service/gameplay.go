package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/neuraltactics/tictactoe-backend/internal/apperror"
	"github.com/neuraltactics/tictactoe-backend/internal/entity"
	"github.com/neuraltactics/tictactoe-backend/internal/tictactoe"
)

const botTurnTimeout = 5 * time.Second

// Notifier delivers server-initiated game updates to the rendering side.
// The bot's deferred move finishes after the human's request has already been
// answered, so it has to be pushed.
type Notifier interface {
	GameUpdated(playerID string, game *entity.Game)
}

type GamePlayService interface {
	GetOrStartGame(ctx context.Context, player *entity.Player, difficulty string) (*entity.Game, error)
	RestartGame(ctx context.Context, playerID, difficulty string) (*entity.Game, error)
	MakeTurn(ctx context.Context, playerID string, cell int) (*entity.Game, error)

	SetNotifier(notifier Notifier)
}

type gamePlayService struct {
	logger *slog.Logger

	playerService PlayerService
	gameService   GameService
	botService    BotService

	botDelay time.Duration
	notifier Notifier
}

func NewGamePlayService(logger *slog.Logger, playerService PlayerService, gameService GameService, botService BotService, botDelay time.Duration) GamePlayService {
	return &gamePlayService{
		logger:        logger,
		playerService: playerService,
		gameService:   gameService,
		botService:    botService,
		botDelay:      botDelay,
	}
}

// SetNotifier - wires the push channel. The transport is constructed after
// the services it depends on, so this cannot be constructor-injected.
func (that *gamePlayService) SetNotifier(notifier Notifier) {
	that.notifier = notifier
}

func (that *gamePlayService) GetOrStartGame(ctx context.Context, player *entity.Player, difficulty string) (*entity.Game, error) {
	if player.GameID != "" {
		game, err := that.gameService.GetGameByID(ctx, player.GameID)
		if err == nil {
			return game, nil
		}

		that.logger.Warn("active game is gone, starting a new one", "gameID", player.GameID, "error", err)
	}

	game, err := that.gameService.CreateGame(ctx, player, difficulty)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	if err = that.playerService.CreateOrUpdate(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to update player: %w", err)
	}

	return game, nil
}

// RestartGame - wipes the board of the player's current game and bumps its
// generation, which invalidates any bot turn still waiting on its delay.
func (that *gamePlayService) RestartGame(ctx context.Context, playerID, difficulty string) (*entity.Game, error) {
	player, err := that.playerService.GetByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	game, err := that.gameService.GetGameByID(ctx, player.GameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	game.Restart(difficulty)

	if err = that.gameService.UpdateGame(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to update game: %w", err)
	}

	return game, nil
}

func (that *gamePlayService) MakeTurn(ctx context.Context, playerID string, cell int) (*entity.Game, error) {
	player, err := that.playerService.GetByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	game, err := that.gameService.GetGameByID(ctx, player.GameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	if err = game.ConfirmOngoingState(); err != nil {
		return game, err
	}

	if err = tictactoe.MakeTurn(game, player.Mark, cell); err != nil {
		return game, fmt.Errorf("failed to make turn: %w", err)
	}

	if err = that.gameService.UpdateGame(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to update game: %w", err)
	}

	if game.IsFinished() {
		return game, nil
	}

	that.scheduleBotTurn(game.ID, game.Generation)

	return game, nil
}

// scheduleBotTurn - defers the bot's reply by the configured delay. The delay
// is pacing for the rendering side, not a correctness requirement; the turn
// re-validates the game before applying.
func (that *gamePlayService) scheduleBotTurn(gameID string, generation int) {
	time.AfterFunc(that.botDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), botTurnTimeout)
		defer cancel()

		if err := that.playBotTurn(ctx, gameID, generation); err != nil {
			if errors.Is(err, apperror.ErrStaleBotTurn) {
				that.logger.Debug("discarded stale bot turn", "gameID", gameID, "generation", generation)
				return
			}

			that.logger.Error("bot failed to make turn", "gameID", gameID, "error", err)
		}
	})
}

// playBotTurn - applies the bot's move if the game it was scheduled against
// still exists in the same generation and it is still the bot's turn.
func (that *gamePlayService) playBotTurn(ctx context.Context, gameID string, generation int) error {
	game, err := that.gameService.GetGameByID(ctx, gameID)
	if err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrStaleBotTurn, err)
	}

	botPlayer := game.BotPlayer()
	if botPlayer == nil || game.Generation != generation || !game.IsOngoing() || game.Turn != botPlayer.Mark {
		return apperror.ErrStaleBotTurn
	}

	if err = that.botService.MakeTurn(game); err != nil {
		return fmt.Errorf("bot failed to make turn: %w", err)
	}

	if err = that.gameService.UpdateGame(ctx, game); err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}

	if humanPlayer := game.HumanPlayer(); humanPlayer != nil && that.notifier != nil {
		that.notifier.GameUpdated(humanPlayer.ID, game)
	}

	return nil
}
