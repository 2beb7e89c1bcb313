package entity

import (
	"errors"
	"fmt"

	"github.com/neuraltactics/tictactoe-backend/internal/apperror"
)

var ErrUnknownGameStatus = errors.New("unknown game status")

const (
	StatusFinished = "finished"
	StatusOngoing  = "ongoing"
	StatusWaiting  = "waiting"

	PlayerX   = "X"
	PlayerO   = "O"
	PlayerTie = "-"

	EmptyCell = ""
)

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

type Game struct {
	ID         string      `json:"id"`
	Board      [9]string   `json:"board"`
	Winner     string      `json:"winner"`
	Status     string      `json:"status"`
	Turn       string      `json:"player_turn"`
	Difficulty string      `json:"difficulty"`
	Generation int         `json:"generation"`
	Scores     *[9]float64 `json:"scores,omitempty"`
	Players    []*Player   `json:"players,omitempty"`
}

func NewGame(id, difficulty string) *Game {
	return &Game{
		ID:         id,
		Board:      [9]string{EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell},
		Turn:       PlayerX,
		Status:     StatusWaiting,
		Difficulty: difficulty,
		Generation: 1,
	}
}

// Restart - clears the board for a fresh round and bumps the generation so
// that any bot turn scheduled against the previous round is discarded.
func (that *Game) Restart(difficulty string) {
	that.Board = [9]string{EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell}
	that.Turn = PlayerX
	that.Winner = ""
	that.Status = StatusOngoing
	that.Difficulty = difficulty
	that.Generation++
	that.Scores = nil
}

func (that *Game) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Game) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *Game) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Game) ConfirmOngoingState() error {
	switch {
	case that.IsWaiting():
		return apperror.ErrGameIsNotStarted
	case that.IsFinished():
		return apperror.ErrGameFinished
	case that.IsOngoing():
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownGameStatus, that.Status)
	}
}

// BotPlayer - returns the bot participant, or nil if the game has none.
func (that *Game) BotPlayer() *Player {
	for _, player := range that.Players {
		if player.IsBot() {
			return player
		}
	}
	return nil
}

// HumanPlayer - returns the human participant, or nil if the game has none.
func (that *Game) HumanPlayer() *Player {
	for _, player := range that.Players {
		if !player.IsBot() {
			return player
		}
	}
	return nil
}

// ValidDifficulty - normalizes a difficulty name, falling back to the given
// default for empty or unknown values.
func ValidDifficulty(difficulty, fallback string) string {
	switch difficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return difficulty
	default:
		return fallback
	}
}
