package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"quizmaster/internal/channel"
	"quizmaster/internal/character"
	"quizmaster/internal/game"
	"quizmaster/internal/session"
)

// newSimulateCmd plays randomized full games against an in-memory store and
// checks the invariants that should hold for any operator behavior. It is a
// load/abuse tool, not a test suite: it also fires illegal operations at
// random and expects them to be refused without corrupting state.
func newSimulateCmd(cfg *Config) *cobra.Command {
	var (
		games int
		seed  int64
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Play randomized games in-memory and verify state invariants",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			rng := rand.New(rand.NewSource(seed))
			fmt.Printf("simulating %d games (seed %d)\n", games, seed)

			for i := 0; i < games; i++ {
				if err := simulateGame(rng); err != nil {
					return fmt.Errorf("game %d: %w", i+1, err)
				}
			}
			fmt.Printf("ok: %d games completed\n", games)
			return nil
		},
	}

	cmd.Flags().IntVar(&games, "games", 20, "number of games to play")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0: time-based)")
	return cmd
}

func simulateGame(rng *rand.Rand) error {
	sess, err := session.Open(channel.NewMemoryStore(), false, channel.DefaultPollInterval)
	if err != nil {
		return err
	}
	sess.Rand = rng

	teams := []string{"Red", "Blue", "Green"}[:2+rng.Intn(2)]
	pool := simulationPool(rng)
	if _, err := sess.LoadRoster(pool); err != nil {
		return err
	}
	if _, err := sess.UpdateConfig(func(c game.Config) game.Config {
		c = c.WithTeams(teams)
		c.Rounds = 1 + rng.Intn(4)
		return c
	}); err != nil {
		return err
	}

	if _, err := sess.Start(); err != nil {
		return err
	}

	usedBefore := 0
	for round := 0; round < 64; round++ {
		st := sess.Status()
		if st.Phase == game.PhaseStopping {
			break
		}

		// Occasionally poke an operation that is illegal right now and
		// make sure the refusal changes nothing.
		if rng.Intn(4) == 0 {
			before := sess.Status()
			if _, err := sess.Reset(); err == nil && before.Phase != game.PhaseStopping {
				return fmt.Errorf("reset accepted in phase %s", before.Phase)
			}
		}

		if st.Phase == game.PhaseChoosing {
			if rng.Intn(3) == 0 {
				_, _ = sess.Reroll() // may legitimately refuse when one candidate remains
			}
			if _, err := sess.Confirm(); err != nil {
				return err
			}
			continue
		}

		// Guessing: pass a few turns, then award to a random team or nobody.
		if rng.Intn(2) == 0 {
			if _, err := sess.StartTimer(); err != nil {
				return err
			}
		}
		if rng.Intn(3) == 0 {
			_, _ = sess.Pass()
		}

		st = sess.Status()
		var team *int
		if rng.Intn(4) != 0 {
			if st.TurnType == game.TurnFreeForAll {
				idx := rng.Intn(len(teams))
				team = &idx
			} else if st.CurrentTeamIndex != nil {
				idx := *st.CurrentTeamIndex
				team = &idx
			}
		}
		next, err := sess.Award(team, nil)
		if err != nil {
			return err
		}
		if len(next.UsedCharacterIDs) <= usedBefore {
			return fmt.Errorf("used set did not grow after award (round %d)", next.CurrentRound)
		}
		usedBefore = len(next.UsedCharacterIDs)
	}

	final := sess.Status()
	if final.Phase != game.PhaseStopping {
		return fmt.Errorf("game did not finish, stuck in %s", final.Phase)
	}

	var total float64
	for _, result := range final.RoundHistory {
		for _, pts := range result.Points {
			total += pts
		}
	}
	var scored float64
	for _, pts := range final.Scores {
		scored += pts
	}
	if total != scored {
		return fmt.Errorf("score totals drifted: history sums to %v, scores to %v", total, scored)
	}

	if _, err := sess.Reset(); err != nil {
		return err
	}
	if st := sess.Status(); len(st.UsedCharacterIDs) != 0 {
		return fmt.Errorf("reset left %d used ids", len(st.UsedCharacterIDs))
	}
	return nil
}

func simulationPool(rng *rand.Rand) []character.Character {
	categories := []string{"History", "Science", "Film", "Music"}
	pool := make([]character.Character, 0, 24)
	for i := 0; i < 24; i++ {
		pool = append(pool, character.Character{
			Props:    map[string]string{"name": fmt.Sprintf("Figure %02d", i)},
			Tags:     map[string][]string{character.CategoryTag: {categories[rng.Intn(len(categories))]}},
			ImageRef: fmt.Sprintf("img/%02d.jpg", i),
		})
	}
	return pool
}
