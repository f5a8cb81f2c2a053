package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"quizmaster/internal/character"
	"quizmaster/internal/game"
	"quizmaster/internal/roster"
	"quizmaster/internal/session"
)

// runOp executes one operator operation against a read-write session and
// prints the resulting state. Guard refusals come back as plain errors with
// the guard's own message.
func runOp(cfg *Config, fn func(*session.Session) (game.Status, error)) error {
	sess, store, err := cfg.openSession(false)
	if err != nil {
		return err
	}
	defer store.Close()

	st, err := fn(sess)
	if err != nil {
		return err
	}
	fmt.Print(renderStatus(st, sess.Now()))
	return nil
}

func newLoadCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "load <roster.csv>",
		Short: "Load a character roster from an exported CSV sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := roster.Load(args[0])
			if err != nil {
				return err
			}
			return runOp(cfg, func(s *session.Session) (game.Status, error) {
				st, err := s.LoadRoster(pool)
				if err == nil {
					fmt.Printf("loaded %d characters\n", len(pool))
				}
				return st, err
			})
		},
	}
}

func newTeamsCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "teams <name>...",
		Short: "Set the team list (turn durations and scores resize in lockstep)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOp(cfg, func(s *session.Session) (game.Status, error) {
				return s.UpdateConfig(func(c game.Config) game.Config {
					return c.WithTeams(args)
				})
			})
		},
	}
}

func newConfigCmd(cfg *Config) *cobra.Command {
	var (
		rounds       int
		durations    []int
		scores       []float64
		freeDuration int
		freeScore    float64
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Adjust rounds, per-turn durations and scores, and the free-for-all turn",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOp(cfg, func(s *session.Session) (game.Status, error) {
				return s.UpdateConfig(func(c game.Config) game.Config {
					if cmd.Flags().Changed("rounds") {
						c.Rounds = rounds
					}
					if cmd.Flags().Changed("turn-durations") {
						c.TurnDurations = durations
					}
					if cmd.Flags().Changed("turn-scores") {
						c.TurnScores = scores
					}
					if cmd.Flags().Changed("free-duration") {
						c.FreeTurnDuration = freeDuration
					}
					if cmd.Flags().Changed("free-score") {
						c.FreeTurnScore = freeScore
					}
					return c
				})
			})
		},
	}

	fs := cmd.Flags()
	fs.IntVar(&rounds, "rounds", 0, "number of rounds per game")
	fs.IntSliceVar(&durations, "turn-durations", nil, "per-team turn durations in seconds")
	fs.Float64SliceVar(&scores, "turn-scores", nil, "per-team turn point values")
	fs.IntVar(&freeDuration, "free-duration", 0, "free-for-all duration in seconds")
	fs.Float64Var(&freeScore, "free-score", 0, "free-for-all point value")
	return cmd
}

func newFilterCmd(cfg *Config) *cobra.Command {
	var clear bool

	cmd := &cobra.Command{
		Use:   "filter [key=value,value...]...",
		Short: "Set the tag filters admitting characters into the pool",
		Long: `Set the tag filters admitting characters into the pool.

Each argument constrains one tag key to a comma-separated set of accepted
values, e.g. 'filter category=History,Science difficulty=easy'. A character
must satisfy every constrained key and may satisfy a key with any one of its
own values. With --clear (and no arguments) all constraints are removed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if clear && len(args) > 0 {
				return fmt.Errorf("--clear takes no filter arguments")
			}
			if !clear && len(args) == 0 {
				return fmt.Errorf("provide key=value filters, or --clear")
			}

			sel := character.TagSelection{}
			for _, arg := range args {
				key, values, ok := strings.Cut(arg, "=")
				if !ok || key == "" {
					return fmt.Errorf("invalid filter %q, expected key=value,value", arg)
				}
				var accepted []string
				for _, v := range strings.Split(values, ",") {
					if v = strings.TrimSpace(v); v != "" {
						accepted = append(accepted, v)
					}
				}
				sel[key] = accepted
			}

			return runOp(cfg, func(s *session.Session) (game.Status, error) {
				return s.UpdateConfig(func(c game.Config) game.Config {
					c.Filters = sel
					return c
				})
			})
		},
	}

	cmd.Flags().BoolVar(&clear, "clear", false, "remove all filters")
	return cmd
}

func newStartCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start a new game and roll the first character",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOp(cfg, (*session.Session).Start)
		},
	}
}

func newRollCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "roll",
		Short: "Re-roll the candidate character",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOp(cfg, (*session.Session).Reroll)
		},
	}
}

func newConfirmCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "confirm",
		Short: "Lock in the rolled character and open guessing",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOp(cfg, (*session.Session).Confirm)
		},
	}
}

func newPassCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "pass",
		Short: "Hand the turn to the next team (or into free-for-all)",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOp(cfg, (*session.Session).Pass)
		},
	}
}

func newTimerCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timer <start|stop>",
		Short: "Start or stop the current turn's countdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "start":
				return runOp(cfg, (*session.Session).StartTimer)
			case "stop":
				return runOp(cfg, (*session.Session).StopTimer)
			default:
				return fmt.Errorf("invalid timer action %q, expected start or stop", args[0])
			}
		},
	}
	return cmd
}

func newAwardCmd(cfg *Config) *cobra.Command {
	var points float64

	cmd := &cobra.Command{
		Use:   "award <team|none>",
		Short: "Award the round's points to a team, or to nobody, and complete the round",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOp(cfg, func(s *session.Session) (game.Status, error) {
				var team *int
				if args[0] != "none" {
					idx, err := resolveTeam(s.Status().Config.TeamNames, args[0])
					if err != nil {
						return s.Status(), err
					}
					team = &idx
				}

				var override *float64
				if cmd.Flags().Changed("points") {
					override = &points
				}
				return s.Award(team, override)
			})
		},
	}

	cmd.Flags().Float64Var(&points, "points", 0, "override the turn's configured point value")
	return cmd
}

func newScoreCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "score <round> <team> <points>",
		Short: "Correct a team's points for a completed round and recompute totals",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			round, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid round %q: expected a round number", args[0])
			}
			points, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid points %q: expected a number", args[2])
			}
			return runOp(cfg, func(s *session.Session) (game.Status, error) {
				return s.EditScore(round, args[1], points)
			})
		},
	}
}

func newEndCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "end",
		Short: "Abort the running game (used characters stay excluded)",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOp(cfg, (*session.Session).End)
		},
	}
}

func newResetCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset a finished game, clearing scores, history and used characters",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOp(cfg, (*session.Session).Reset)
		},
	}
}

func newStatusCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the current game state",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, store, err := cfg.openSession(true)
			if err != nil {
				return err
			}
			defer store.Close()
			fmt.Print(renderStatus(sess.Status(), sess.Now()))
			return nil
		},
	}
}

func newCountsCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "counts",
		Short: "Print remaining-vs-total characters per category under the active filters",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, store, err := cfg.openSession(true)
			if err != nil {
				return err
			}
			defer store.Close()

			counts := sess.Counts()
			if len(counts) == 0 {
				fmt.Println("no categories (is a roster loaded?)")
				return nil
			}
			for _, c := range counts {
				fmt.Printf("%-24s %d/%d remaining\n", c.Category, c.Remaining, c.Total)
			}
			return nil
		},
	}
}

// resolveTeam matches a team argument by name (case-insensitive) or by
// 1-based position.
func resolveTeam(teams []string, arg string) (int, error) {
	for i, name := range teams {
		if strings.EqualFold(name, arg) {
			return i, nil
		}
	}
	if n, err := strconv.Atoi(arg); err == nil && n >= 1 && n <= len(teams) {
		return n - 1, nil
	}
	return 0, fmt.Errorf("unknown team %q (have: %s)", arg, strings.Join(teams, ", "))
}
