package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"quizmaster/internal/channel"
	"quizmaster/internal/platform/logger"
	"quizmaster/internal/session"
)

// Config carries the process-level settings shared by every subcommand.
type Config struct {
	stateDir     string
	store        string
	pollInterval time.Duration
	verbose      bool
}

func (c *Config) validate() error {
	if c.store != "file" && c.store != "sqlite" {
		return fmt.Errorf("invalid store (must be file or sqlite): %q", c.store)
	}
	if c.pollInterval <= 0 {
		return fmt.Errorf("invalid poll interval: %s", c.pollInterval)
	}
	return nil
}

// openStore builds the slot store the state directory is shared through.
func (c *Config) openStore() (channel.Store, error) {
	switch c.store {
	case "sqlite":
		return channel.OpenSQLiteStore(filepath.Join(c.stateDir, "quizmaster.db"))
	default:
		return channel.NewFileStore(c.stateDir)
	}
}

// openSession opens a store and attaches a session to it. Every operator
// command is one short-lived read-reduce-commit process; only watch stays
// attached.
func (c *Config) openSession(readOnly bool) (*session.Session, channel.Store, error) {
	store, err := c.openStore()
	if err != nil {
		return nil, nil, err
	}
	sess, err := session.Open(store, readOnly, c.pollInterval)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return sess, store, nil
}

func newRootCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("QUIZMASTER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:     "quizmaster",
		Short:   "A quiz-game game master: one operator mutates shared game state, displays watch it.",
		Version: releaseVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			_, err := logger.Init(cfg.verbose)
			return err
		},
	}

	fs := cmd.PersistentFlags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.stateDir, "state-dir", "d", ".quizmaster", "shared state directory (env: QUIZMASTER_STATE_DIR)")
	fs.StringVar(&cfg.store, "store", "file", "slot store backend, file or sqlite (env: QUIZMASTER_STORE)")
	fs.DurationVar(&cfg.pollInterval, "poll-interval", channel.DefaultPollInterval, "reconciliation poll interval (env: QUIZMASTER_POLL_INTERVAL)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: QUIZMASTER_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("quizmaster v{{.Version}}\n")
	cmd.SilenceUsage = true

	cmd.AddCommand(
		newLoadCmd(cfg),
		newTeamsCmd(cfg),
		newConfigCmd(cfg),
		newFilterCmd(cfg),
		newStartCmd(cfg),
		newRollCmd(cfg),
		newConfirmCmd(cfg),
		newPassCmd(cfg),
		newTimerCmd(cfg),
		newAwardCmd(cfg),
		newScoreCmd(cfg),
		newEndCmd(cfg),
		newResetCmd(cfg),
		newStatusCmd(cfg),
		newCountsCmd(cfg),
		newWatchCmd(cfg),
		newSimulateCmd(cfg),
	)

	return cmd
}
