package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quizmaster/internal/game"
	"quizmaster/internal/platform/metrics"
)

// paint clears the terminal and renders a status. The expiry tick is
// applied locally first: the operator process only persists expiry on its
// next command, and a display must not keep showing a dead timer as
// running until then.
func paint(st game.Status, now time.Time) string {
	return "\033[2J\033[H" + renderStatus(game.Tick(st, now), now)
}

// newWatchCmd runs a display process: it attaches read-only to the state
// directory, re-renders on every status change from any process, and keeps
// the countdown fresh by recomputing it locally from the stored deadline.
// It never writes.
func newWatchCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow the shared game state read-only (a display process)",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, store, err := cfg.openSession(true)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			statusCh := make(chan game.Status, 8)
			sess.SubscribeStatus(func(st game.Status) {
				select {
				case statusCh <- st:
				default:
				}
			})

			go func() {
				if err := sess.Run(ctx); err != nil {
					zap.L().Warn("subscription loop ended", zap.Error(err))
				}
			}()

			current := sess.Status()
			fmt.Print(paint(current, sess.Now()))

			// One-second repaint keeps the countdown moving between state
			// changes; the remaining time is always derived from the
			// persisted deadline, never counted down locally.
			repaint := time.NewTicker(time.Second)
			defer repaint.Stop()

			for {
				select {
				case <-ctx.Done():
					fmt.Printf("\nchannel metrics: %v\n", metrics.Get().Snapshot())
					return nil
				case st := <-statusCh:
					current = st
					fmt.Print(paint(current, sess.Now()))
				case <-repaint.C:
					if current.IsTimerRunning {
						fmt.Print(paint(current, sess.Now()))
					}
				}
			}
		},
	}
}
