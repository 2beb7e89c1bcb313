package usecase

import (
	"context"
	"fmt"

	"github.com/neuraltactics/tictactoe-backend/internal/entity"
	"github.com/neuraltactics/tictactoe-backend/internal/pkg"
)

type GameUseCase interface {
	GetOrCreatePlayer(ctx context.Context, playerID string) (*entity.Player, error)

	StartGame(ctx context.Context, playerID, difficulty string) (*entity.Game, error)
	RestartGame(ctx context.Context, playerID, difficulty string) (*entity.Game, error)

	MakeTurn(ctx context.Context, playerID string, cell int) (*entity.Game, error)
}

type playerService interface {
	CreateOrUpdate(ctx context.Context, player *entity.Player) error
	GetByID(ctx context.Context, id string) (*entity.Player, error)
}

type gamePlayService interface {
	GetOrStartGame(ctx context.Context, player *entity.Player, difficulty string) (*entity.Game, error)
	RestartGame(ctx context.Context, playerID, difficulty string) (*entity.Game, error)
	MakeTurn(ctx context.Context, playerID string, cell int) (*entity.Game, error)
}

type gameUseCase struct {
	playerService   playerService
	gamePlayService gamePlayService

	defaultDifficulty string
}

func NewGameUseCase(playerService playerService, gamePlayService gamePlayService, defaultDifficulty string) GameUseCase {
	return &gameUseCase{
		playerService:     playerService,
		gamePlayService:   gamePlayService,
		defaultDifficulty: defaultDifficulty,
	}
}

func (that *gameUseCase) GetOrCreatePlayer(ctx context.Context, playerID string) (*entity.Player, error) {
	if playerID == "" {
		player := &entity.Player{ID: pkg.GeneratePlayerID()}
		if err := that.playerService.CreateOrUpdate(ctx, player); err != nil {
			return nil, fmt.Errorf("could not create player: %w", err)
		}

		return player, nil
	}

	player, err := that.playerService.GetByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	return player, nil
}

func (that *gameUseCase) StartGame(ctx context.Context, playerID, difficulty string) (*entity.Game, error) {
	player, err := that.playerService.GetByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	game, err := that.gamePlayService.GetOrStartGame(ctx, player, entity.ValidDifficulty(difficulty, that.defaultDifficulty))
	if err != nil {
		return nil, fmt.Errorf("failed to start game: %w", err)
	}

	return game, nil
}

func (that *gameUseCase) RestartGame(ctx context.Context, playerID, difficulty string) (*entity.Game, error) {
	game, err := that.gamePlayService.RestartGame(ctx, playerID, entity.ValidDifficulty(difficulty, that.defaultDifficulty))
	if err != nil {
		return nil, fmt.Errorf("failed to restart game: %w", err)
	}

	return game, nil
}

func (that *gameUseCase) MakeTurn(ctx context.Context, playerID string, cell int) (*entity.Game, error) {
	game, err := that.gamePlayService.MakeTurn(ctx, playerID, cell)
	if err != nil {
		return game, fmt.Errorf("failed to make turn: %w", err)
	}

	return game, nil
}
