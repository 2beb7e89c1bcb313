package service

import (
	"errors"
	"fmt"

	"github.com/neuraltactics/tictactoe-backend/internal/advisor"
	"github.com/neuraltactics/tictactoe-backend/internal/entity"
	"github.com/neuraltactics/tictactoe-backend/internal/scorer"
	"github.com/neuraltactics/tictactoe-backend/internal/tictactoe"
)

var ErrBotNotFound = errors.New("bot player not found")

type BotService interface {
	MakeTurn(game *entity.Game) error
}

type botService struct {
	advisor *advisor.Advisor
	scorer  scorer.Scorer
}

func NewBotService(moveAdvisor *advisor.Advisor, cellScorer scorer.Scorer) BotService {
	return &botService{
		advisor: moveAdvisor,
		scorer:  cellScorer,
	}
}

// MakeTurn - scores the board for the bot's mark, lets the advisor pick a
// cell for the game's difficulty, and applies the move. The score matrix is
// kept on the game so the rendering side can shade cells with it.
func (that *botService) MakeTurn(game *entity.Game) error {
	botPlayer := game.BotPlayer()
	if botPlayer == nil {
		return ErrBotNotFound
	}

	scores := that.scorer.Score(game.Board, botPlayer.Mark)

	chosenCell, err := that.advisor.SelectCell(game.Board, botPlayer.Mark, scores, game.Difficulty)
	if err != nil {
		return fmt.Errorf("bot failed to select cell: %w", err)
	}

	game.Scores = &scores

	if err := tictactoe.MakeTurn(game, botPlayer.Mark, chosenCell); err != nil {
		return fmt.Errorf("bot failed to make turn: %w", err)
	}

	return nil
}
