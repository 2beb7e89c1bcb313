package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neuraltactics/tictactoe-backend/internal/apperror"
)

func TestGameStatusMethods(t *testing.T) {
	t.Run("IsFinished returns true when game status is finished", func(t *testing.T) {
		// Given: a game with StatusFinished
		game := &Game{Status: StatusFinished}

		// Then: IsFinished reports true
		assert.True(t, game.IsFinished())
	})

	t.Run("IsOngoing returns true when game status is ongoing", func(t *testing.T) {
		// Given: a game with StatusOngoing
		game := &Game{Status: StatusOngoing}

		// Then: IsOngoing reports true
		assert.True(t, game.IsOngoing())
	})

	t.Run("IsWaiting returns true when game status is waiting", func(t *testing.T) {
		// Given: a game with StatusWaiting
		game := &Game{Status: StatusWaiting}

		// Then: IsWaiting reports true
		assert.True(t, game.IsWaiting())
	})
}

func TestGame_ConfirmOngoingState(t *testing.T) {
	t.Run("Returns nil when game is ongoing", func(t *testing.T) {
		// Given: a game with StatusOngoing
		game := &Game{Status: StatusOngoing}

		// When: checking if the game is active
		err := game.ConfirmOngoingState()

		// Then: it should return nil error
		assert.NoError(t, err)
	})

	t.Run("Returns ErrGameIsNotStarted when game is waiting", func(t *testing.T) {
		// Given: a game with StatusWaiting
		game := &Game{Status: StatusWaiting}

		// When: checking if the game is active
		err := game.ConfirmOngoingState()

		// Then: it should return ErrGameIsNotStarted
		assert.ErrorIs(t, err, apperror.ErrGameIsNotStarted)
	})

	t.Run("Returns ErrGameFinished when game is finished", func(t *testing.T) {
		// Given: a game with StatusFinished
		game := &Game{Status: StatusFinished}

		// When: checking if the game is active
		err := game.ConfirmOngoingState()

		// Then: it should return ErrGameFinished
		assert.ErrorIs(t, err, apperror.ErrGameFinished)
	})

	t.Run("Returns error for unknown game status", func(t *testing.T) {
		// Given: a game with unknown status
		game := &Game{Status: "unknown"}

		// When: checking if the game is active
		err := game.ConfirmOngoingState()

		// Then: it should return an error
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownGameStatus)
	})
}

func TestGame_Restart(t *testing.T) {
	t.Run("Restart wipes the board and bumps the generation", func(t *testing.T) {
		// Given: a finished game with marks, a winner and scores
		game := NewGame("123", DifficultyEasy)
		game.Board[0] = PlayerX
		game.Board[4] = PlayerO
		game.Winner = PlayerX
		game.Status = StatusFinished
		game.Scores = &[9]float64{0.5}
		generation := game.Generation

		// When: the game is restarted on a new difficulty
		game.Restart(DifficultyHard)

		// Then: the board is empty, X opens, and the generation advanced
		for _, cell := range game.Board {
			assert.Equal(t, EmptyCell, cell)
		}
		assert.Equal(t, PlayerX, game.Turn)
		assert.Empty(t, game.Winner)
		assert.Equal(t, StatusOngoing, game.Status)
		assert.Equal(t, DifficultyHard, game.Difficulty)
		assert.Equal(t, generation+1, game.Generation)
		assert.Nil(t, game.Scores)
	})
}

func TestGame_Participants(t *testing.T) {
	t.Run("BotPlayer and HumanPlayer find the right participants", func(t *testing.T) {
		// Given: a game with a human and a bot
		human := &Player{ID: "human-1", Mark: PlayerX}
		bot := NewBotPlayer("123", PlayerO)
		game := &Game{Players: []*Player{human, bot}}

		// Then: each accessor returns the matching player
		assert.Equal(t, bot, game.BotPlayer())
		assert.Equal(t, human, game.HumanPlayer())
	})

	t.Run("Accessors return nil for an empty roster", func(t *testing.T) {
		// Given: a game with no players
		game := &Game{}

		// Then: both accessors return nil
		assert.Nil(t, game.BotPlayer())
		assert.Nil(t, game.HumanPlayer())
	})
}

func TestValidDifficulty(t *testing.T) {
	t.Run("Known difficulties pass through", func(t *testing.T) {
		assert.Equal(t, DifficultyEasy, ValidDifficulty(DifficultyEasy, DifficultyHard))
		assert.Equal(t, DifficultyMedium, ValidDifficulty(DifficultyMedium, DifficultyHard))
		assert.Equal(t, DifficultyHard, ValidDifficulty(DifficultyHard, DifficultyEasy))
	})

	t.Run("Empty and unknown values fall back", func(t *testing.T) {
		assert.Equal(t, DifficultyMedium, ValidDifficulty("", DifficultyMedium))
		assert.Equal(t, DifficultyMedium, ValidDifficulty("nightmare", DifficultyMedium))
	})
}
