package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	deep "github.com/patrikeh/go-deep"
	"github.com/patrikeh/go-deep/training"

	"github.com/neuraltactics/tictactoe-backend/internal/entity"
	"github.com/neuraltactics/tictactoe-backend/internal/scorer"
	"github.com/neuraltactics/tictactoe-backend/internal/tictactoe"
)

// Trains the cell-scoring model from random self-play and writes its JSON
// dump to the path the server loads at startup. Positions are labeled with
// the move the eventual winner actually played, so the network learns a
// per-cell desirability distribution for the side to move.
func main() {
	games := flag.Int("games", 50000, "Number of self-play games")
	iterations := flag.Int("iterations", 8, "Training iterations over the collected examples")
	learningRate := flag.Float64("lr", 0.01, "Learning rate")
	out := flag.String("out", "model.json", "Output path for the model dump")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed for self-play")

	flag.Parse()

	rng := rand.New(rand.NewSource(*seed)) //nolint: gosec // self-play needs no crypto randomness

	fmt.Println("Generating self-play games:", *games)
	examples := selfPlay(*games, rng)
	if len(examples) == 0 {
		log.Fatal("self-play produced no training examples")
	}
	examples.Shuffle()
	fmt.Println("Collected examples:", len(examples))

	network := deep.NewNeural(scorer.NetworkConfig())
	trainer := training.NewTrainer(training.NewSGD(*learningRate, 0.5, 0.0, false), 1000)

	fmt.Println("Starting training...")
	trainer.Train(network, examples, nil, *iterations)

	dump, err := network.Marshal()
	if err != nil {
		log.Fatalf("failed to marshal network: %v", err)
	}

	if err := os.WriteFile(*out, dump, 0o600); err != nil {
		log.Fatalf("failed to write model: %v", err)
	}

	fmt.Println("Training complete! Model written to:", *out)
}

type step struct {
	inputs []float64
	mark   string
	cell   int
}

// selfPlay - plays random legal games and keeps the winner's moves as
// one-hot targets. Ties teach nothing about cell desirability and are
// dropped.
func selfPlay(games int, rng *rand.Rand) training.Examples {
	var examples training.Examples

	for i := 0; i < games; i++ {
		game := entity.NewGame("self-play", entity.DifficultyHard)
		game.Status = entity.StatusOngoing

		var steps []step
		for game.IsOngoing() {
			availableCells := tictactoe.EmptyCells(game.Board)
			cell := availableCells[rng.Intn(len(availableCells))]
			mark := game.Turn

			steps = append(steps, step{inputs: scorer.Encode(game.Board, mark), mark: mark, cell: cell})

			if err := tictactoe.MakeTurn(game, mark, cell); err != nil {
				log.Fatalf("self-play produced an illegal move: %v", err)
			}
		}

		if game.Winner == entity.PlayerTie {
			continue
		}

		for _, s := range steps {
			if s.mark != game.Winner {
				continue
			}

			response := make([]float64, len(game.Board))
			response[s.cell] = 1

			examples = append(examples, training.Example{Input: s.inputs, Response: response})
		}
	}

	return examples
}
