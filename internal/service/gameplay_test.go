package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neuraltactics/tictactoe-backend/internal/advisor"
	"github.com/neuraltactics/tictactoe-backend/internal/apperror"
	"github.com/neuraltactics/tictactoe-backend/internal/entity"
	"github.com/neuraltactics/tictactoe-backend/internal/repository"
)

// memStore backs both repositories with JSON blobs, mirroring the Redis
// round-trip so refetched games never alias in-flight pointers.
type memStore struct {
	mu      sync.Mutex
	games   map[string][]byte
	players map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{
		games:   make(map[string][]byte),
		players: make(map[string][]byte),
	}
}

func (that *memStore) CreateOrUpdateGame(_ context.Context, game *entity.Game) error {
	blob, err := json.Marshal(game)
	if err != nil {
		return err
	}

	that.mu.Lock()
	defer that.mu.Unlock()
	that.games[game.ID] = blob
	return nil
}

func (that *memStore) GetGameByID(_ context.Context, id string) (*entity.Game, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	blob, ok := that.games[id]
	if !ok {
		return &entity.Game{}, repository.ErrGameNotFound
	}

	var game entity.Game
	if err := json.Unmarshal(blob, &game); err != nil {
		return &entity.Game{}, err
	}
	return &game, nil
}

func (that *memStore) DeleteGameByID(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()
	delete(that.games, id)
	return nil
}

func (that *memStore) CreateOrUpdatePlayer(_ context.Context, player *entity.Player) error {
	blob, err := json.Marshal(player)
	if err != nil {
		return err
	}

	that.mu.Lock()
	defer that.mu.Unlock()
	that.players[player.ID] = blob
	return nil
}

func (that *memStore) GetPlayerByID(_ context.Context, id string) (*entity.Player, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	blob, ok := that.players[id]
	if !ok {
		return &entity.Player{}, repository.ErrPlayerNotFound
	}

	var player entity.Player
	if err := json.Unmarshal(blob, &player); err != nil {
		return &entity.Player{}, err
	}
	return &player, nil
}

type memGameRepo struct{ store *memStore }

func (that *memGameRepo) CreateOrUpdate(ctx context.Context, game *entity.Game) error {
	return that.store.CreateOrUpdateGame(ctx, game)
}

func (that *memGameRepo) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	return that.store.GetGameByID(ctx, id)
}

func (that *memGameRepo) DeleteByID(ctx context.Context, id string) error {
	return that.store.DeleteGameByID(ctx, id)
}

type memPlayerRepo struct{ store *memStore }

func (that *memPlayerRepo) CreateOrUpdate(ctx context.Context, player *entity.Player) error {
	return that.store.CreateOrUpdatePlayer(ctx, player)
}

func (that *memPlayerRepo) GetByID(ctx context.Context, id string) (*entity.Player, error) {
	return that.store.GetPlayerByID(ctx, id)
}

// recordingNotifier collects pushed updates.
type recordingNotifier struct {
	mu      sync.Mutex
	updates []*entity.Game
}

func (that *recordingNotifier) GameUpdated(_ string, game *entity.Game) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.updates = append(that.updates, game)
}

func (that *recordingNotifier) count() int {
	that.mu.Lock()
	defer that.mu.Unlock()
	return len(that.updates)
}

type gameplayFixture struct {
	store    *memStore
	notifier *recordingNotifier
	gamePlay *gamePlayService
}

func newGameplayFixture(t *testing.T, botDelay time.Duration) *gameplayFixture {
	t.Helper()

	store := newMemStore()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	playerSvc := NewPlayerService(&memPlayerRepo{store: store})
	gameSvc := NewGameService(&memGameRepo{store: store})
	botSvc := NewBotService(advisor.NewWithSource(rand.NewSource(1)), &fixedScorer{scores: [9]float64{0, 0, 0, 0, 1, 0, 0, 0, 0}})

	notifier := &recordingNotifier{}
	gamePlay := NewGamePlayService(logger, playerSvc, gameSvc, botSvc, botDelay)
	gamePlay.SetNotifier(notifier)

	return &gameplayFixture{
		store:    store,
		notifier: notifier,
		gamePlay: gamePlay.(*gamePlayService),
	}
}

func (that *gameplayFixture) startGame(t *testing.T, ctx context.Context) (*entity.Player, *entity.Game) {
	t.Helper()

	player := &entity.Player{ID: "human-1"}
	require.NoError(t, that.store.CreateOrUpdatePlayer(ctx, player))

	game, err := that.gamePlay.GetOrStartGame(ctx, player, entity.DifficultyHard)
	require.NoError(t, err)

	return player, game
}

func TestGamePlayService_MakeTurn(t *testing.T) {
	ctx := context.Background()

	t.Run("Human move is applied and the bot replies after the delay", func(t *testing.T) {
		// Given: an ongoing game with a short bot delay
		fixture := newGameplayFixture(t, 5*time.Millisecond)
		player, game := fixture.startGame(t, ctx)

		// When: the human plays cell 0
		updated, err := fixture.gamePlay.MakeTurn(ctx, player.ID, 0)
		require.NoError(t, err)
		assert.Equal(t, entity.PlayerX, updated.Board[0])
		assert.Equal(t, entity.PlayerO, updated.Turn)

		// Then: the bot's move lands in storage and is pushed to the notifier
		require.Eventually(t, func() bool {
			stored, err := fixture.store.GetGameByID(ctx, game.ID)
			return err == nil && stored.Turn == entity.PlayerX && fixture.notifier.count() == 1
		}, 2*time.Second, 5*time.Millisecond)

		stored, err := fixture.store.GetGameByID(ctx, game.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.PlayerO, stored.Board[4])
		require.NotNil(t, stored.Scores)
	})

	t.Run("Illegal move returns the game with an error", func(t *testing.T) {
		// Given: a game where the human already holds cell 0
		fixture := newGameplayFixture(t, time.Hour)
		player, _ := fixture.startGame(t, ctx)

		_, err := fixture.gamePlay.MakeTurn(ctx, player.ID, 0)
		require.NoError(t, err)

		// When: the human clicks the same cell again
		game, err := fixture.gamePlay.MakeTurn(ctx, player.ID, 0)

		// Then: the error names the occupied cell and the state is echoed
		require.Error(t, err)
		require.NotNil(t, game)
		assert.Equal(t, entity.PlayerX, game.Board[0])
	})

	t.Run("Finished game rejects further moves", func(t *testing.T) {
		// Given: a game already finished in storage
		fixture := newGameplayFixture(t, time.Hour)
		player, game := fixture.startGame(t, ctx)

		game.Status = entity.StatusFinished
		game.Winner = entity.PlayerX
		require.NoError(t, fixture.store.CreateOrUpdateGame(ctx, game))

		// When: the human tries to move
		_, err := fixture.gamePlay.MakeTurn(ctx, player.ID, 5)

		// Then: ErrGameFinished is returned
		require.ErrorIs(t, err, apperror.ErrGameFinished)
	})
}

func TestGamePlayService_StaleBotTurn(t *testing.T) {
	ctx := context.Background()

	t.Run("Bot turn scheduled before a restart is discarded", func(t *testing.T) {
		// Given: a human move whose bot reply is still pending
		fixture := newGameplayFixture(t, time.Hour)
		player, game := fixture.startGame(t, ctx)

		updated, err := fixture.gamePlay.MakeTurn(ctx, player.ID, 0)
		require.NoError(t, err)
		pendingGeneration := updated.Generation

		// When: the game is restarted and the stale bot turn fires
		_, err = fixture.gamePlay.RestartGame(ctx, player.ID, entity.DifficultyHard)
		require.NoError(t, err)

		err = fixture.gamePlay.playBotTurn(ctx, game.ID, pendingGeneration)

		// Then: the turn is rejected as stale and the fresh board is untouched
		require.ErrorIs(t, err, apperror.ErrStaleBotTurn)

		stored, err := fixture.store.GetGameByID(ctx, game.ID)
		require.NoError(t, err)
		for _, cell := range stored.Board {
			assert.Equal(t, entity.EmptyCell, cell)
		}
		assert.Zero(t, fixture.notifier.count())
	})

	t.Run("Bot turn against a deleted game is discarded", func(t *testing.T) {
		// Given: a pending bot turn whose game is gone
		fixture := newGameplayFixture(t, time.Hour)
		player, game := fixture.startGame(t, ctx)

		_, err := fixture.gamePlay.MakeTurn(ctx, player.ID, 0)
		require.NoError(t, err)

		require.NoError(t, fixture.store.DeleteGameByID(ctx, game.ID))

		// When: the stale bot turn fires
		err = fixture.gamePlay.playBotTurn(ctx, game.ID, game.Generation)

		// Then: it is discarded as stale
		require.ErrorIs(t, err, apperror.ErrStaleBotTurn)
	})

	t.Run("Bot turn is discarded when it is not the bot's turn", func(t *testing.T) {
		// Given: a fresh game where the human is to move
		fixture := newGameplayFixture(t, time.Hour)
		_, game := fixture.startGame(t, ctx)

		// When: a bot turn fires anyway
		err := fixture.gamePlay.playBotTurn(ctx, game.ID, game.Generation)

		// Then: it is discarded as stale
		require.ErrorIs(t, err, apperror.ErrStaleBotTurn)
	})
}

func TestGamePlayService_RestartGame(t *testing.T) {
	ctx := context.Background()

	t.Run("Restart wipes the board and advances the generation", func(t *testing.T) {
		// Given: a game with a human mark on the board
		fixture := newGameplayFixture(t, time.Hour)
		player, game := fixture.startGame(t, ctx)

		_, err := fixture.gamePlay.MakeTurn(ctx, player.ID, 0)
		require.NoError(t, err)

		// When: the game is restarted on easy
		restarted, err := fixture.gamePlay.RestartGame(ctx, player.ID, entity.DifficultyEasy)

		// Then: the same game ID carries a fresh board and a new generation
		require.NoError(t, err)
		assert.Equal(t, game.ID, restarted.ID)
		assert.Equal(t, game.Generation+1, restarted.Generation)
		assert.Equal(t, entity.DifficultyEasy, restarted.Difficulty)
		for _, cell := range restarted.Board {
			assert.Equal(t, entity.EmptyCell, cell)
		}
		assert.Equal(t, entity.PlayerX, restarted.Turn)
	})
}

func TestGamePlayService_GetOrStartGame(t *testing.T) {
	ctx := context.Background()

	t.Run("Starts a fresh game with human as X and an O bot", func(t *testing.T) {
		// Given: a player without a game
		fixture := newGameplayFixture(t, time.Hour)

		// When: a game is requested
		player, game := fixture.startGame(t, ctx)

		// Then: the roster and marks follow the human-opens rule
		assert.Equal(t, entity.StatusOngoing, game.Status)
		assert.Equal(t, entity.PlayerX, game.HumanPlayer().Mark)
		assert.Equal(t, entity.PlayerO, game.BotPlayer().Mark)
		assert.Equal(t, entity.PlayerX, game.Turn)
		assert.Equal(t, game.ID, player.GameID)
	})

	t.Run("Resumes the player's existing game", func(t *testing.T) {
		// Given: a player with an ongoing game holding a mark
		fixture := newGameplayFixture(t, time.Hour)
		player, game := fixture.startGame(t, ctx)

		_, err := fixture.gamePlay.MakeTurn(ctx, player.ID, 3)
		require.NoError(t, err)

		// When: the game is requested again
		stored, err := fixture.store.GetPlayerByID(ctx, player.ID)
		require.NoError(t, err)
		resumed, err := fixture.gamePlay.GetOrStartGame(ctx, stored, entity.DifficultyHard)

		// Then: the same game comes back with its board intact
		require.NoError(t, err)
		assert.Equal(t, game.ID, resumed.ID)
		assert.Equal(t, entity.PlayerX, resumed.Board[3])
	})
}
