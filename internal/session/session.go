// Package session is the boundary layer between the pure game reducers and
// the synchronization channels. It owns the persisted slot layout, migrates
// older persisted shapes, and exposes the operator's operation set as
// load-reduce-commit methods. Display processes open a read-only session
// and subscribe; they never commit.
package session

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quizmaster/internal/channel"
	"quizmaster/internal/character"
	"quizmaster/internal/game"
	"quizmaster/internal/platform/metrics"
)

// The persisted slot layout shared by every process on one state directory.
const (
	SlotConfig     = "game-config"
	SlotStatus     = "game-status"
	SlotCharacters = "characters"

	// SlotLegacyUsed predates the used set living inside the status
	// aggregate. It is read once to seed a status that lacks the field and
	// never written again.
	SlotLegacyUsed = "used-characters"
)

// Session wires the typed channels over one store.
type Session struct {
	store      channel.Store
	status     *channel.Channel[game.Status]
	config     *channel.Channel[game.Config]
	characters *channel.Channel[[]character.Character]
	legacyUsed *channel.Channel[[]string]

	readOnly     bool
	writerID     string
	pollInterval time.Duration

	// Now and Rand are injection points for the reducers' clock and
	// randomness; tests replace them.
	Now  func() time.Time
	Rand *rand.Rand
}

// Open attaches a session to a store. readOnly sessions serve displays:
// their channels log and drop any write.
func Open(store channel.Store, readOnly bool, pollInterval time.Duration) (*Session, error) {
	status, err := channel.New(store, SlotStatus, game.Normalize(game.Status{Config: game.DefaultConfig()}), readOnly)
	if err != nil {
		return nil, err
	}
	config, err := channel.New(store, SlotConfig, game.DefaultConfig(), readOnly)
	if err != nil {
		return nil, err
	}
	characters, err := channel.New(store, SlotCharacters, []character.Character(nil), readOnly)
	if err != nil {
		return nil, err
	}
	legacyUsed, err := channel.New(store, SlotLegacyUsed, []string(nil), true)
	if err != nil {
		return nil, err
	}

	return &Session{
		store:        store,
		status:       status,
		config:       config,
		characters:   characters,
		legacyUsed:   legacyUsed,
		readOnly:     readOnly,
		writerID:     uuid.NewString(),
		pollInterval: pollInterval,
		Now:          time.Now,
		Rand:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Status loads the current aggregate: normalized, migrated, config overlay
// applied, and with any expired timer cleared.
func (s *Session) Status() game.Status {
	st, present := s.status.Peek()
	st = game.Normalize(st)

	// Older deployments kept the used set in its own slot.
	if !present || st.UsedCharacterIDs == nil {
		if legacy, ok := s.legacyUsed.Peek(); ok {
			for _, id := range legacy {
				if !st.IsUsed(id) {
					st.UsedCharacterIDs = append(st.UsedCharacterIDs, id)
				}
			}
		}
	}

	// The config slot is the edit surface before a game starts; once the
	// aggregate is live its embedded config is authoritative.
	if cfg, ok := s.config.Peek(); ok && st.Phase == game.PhasePrepping && !st.IsGameActive {
		st.Config = cfg
		st = game.Normalize(st)
	}

	if len(st.Characters) == 0 {
		if pool, ok := s.characters.Peek(); ok {
			st.Characters = pool
		}
	}

	return game.Tick(st, s.Now())
}

// Counts reports the remaining-vs-total pool per category under the active
// filters.
func (s *Session) Counts() []character.CategoryCount {
	return s.Status().CategoryCounts()
}

// commit persists a reduced status and mirrors its config back to the
// config slot so pre-game editors converge on the same values. The
// channels' unchanged-value check keeps this mirroring from ping-ponging.
func (s *Session) commit(op string, prev, next game.Status) (game.Status, error) {
	next.LastWriterID = s.writerID
	if err := s.status.Write(next); err != nil {
		return prev, err
	}
	if err := s.config.Write(next.Config); err != nil {
		zap.L().Warn("config mirror write failed", zap.Error(err))
	}

	zap.L().Info("operator transition",
		zap.String("op", op),
		zap.String("from", string(prev.Phase)),
		zap.String("to", string(next.Phase)),
		zap.Int("round", next.CurrentRound),
	)
	return next, nil
}

// apply runs one reducer against the loaded aggregate and commits the
// result. Guard refusals leave the persisted state untouched.
func (s *Session) apply(op string, fn func(game.Status) (game.Status, error)) (game.Status, error) {
	prev := s.Status()
	next, err := fn(prev)
	if err != nil {
		var guard *game.GuardError
		if errors.As(err, &guard) {
			metrics.Get().RecordGuardFailure()
			zap.L().Warn("operation refused",
				zap.String("op", guard.Op),
				zap.String("phase", string(guard.Phase)),
				zap.String("reason", guard.Reason),
			)
		}
		return prev, err
	}
	return s.commit(op, prev, next)
}

// Start begins a new game.
func (s *Session) Start() (game.Status, error) {
	return s.apply("start", func(st game.Status) (game.Status, error) {
		return game.Start(st, s.Rand)
	})
}

// Reroll draws a different candidate character.
func (s *Session) Reroll() (game.Status, error) {
	return s.apply("re-roll", func(st game.Status) (game.Status, error) {
		return game.Reroll(st, s.Rand)
	})
}

// Confirm locks in the rolled character and opens guessing.
func (s *Session) Confirm() (game.Status, error) {
	return s.apply("confirm", game.Confirm)
}

// Pass hands the turn to the next team, or into free-for-all.
func (s *Session) Pass() (game.Status, error) {
	return s.apply("pass", game.Pass)
}

// StartTimer starts the current turn's countdown.
func (s *Session) StartTimer() (game.Status, error) {
	return s.apply("start timer", func(st game.Status) (game.Status, error) {
		return game.StartTimer(st, s.Now())
	})
}

// StopTimer halts the countdown.
func (s *Session) StopTimer() (game.Status, error) {
	return s.apply("stop timer", game.StopTimer)
}

// Award gives the round to a team (nil: to nobody) and completes it.
// points == nil awards the current turn's configured value.
func (s *Session) Award(team *int, points *float64) (game.Status, error) {
	return s.apply("award", func(st game.Status) (game.Status, error) {
		value := st.TurnPoints()
		if points != nil {
			value = *points
		}
		return game.Award(st, team, value, s.Rand)
	})
}

// EditScore corrects one team's contribution in a completed round.
func (s *Session) EditScore(round int, teamName string, points float64) (game.Status, error) {
	return s.apply("edit score", func(st game.Status) (game.Status, error) {
		return game.EditRoundScore(st, round, teamName, points)
	})
}

// End aborts the running game back to prepping.
func (s *Session) End() (game.Status, error) {
	return s.apply("end", game.End)
}

// Reset clears the finished game, including the used-character set.
func (s *Session) Reset() (game.Status, error) {
	return s.apply("reset", game.Reset)
}

// UpdateConfig edits the configuration through fn and persists it to both
// the config slot and the aggregate.
func (s *Session) UpdateConfig(fn func(game.Config) game.Config) (game.Status, error) {
	return s.apply("configure", func(st game.Status) (game.Status, error) {
		st.Config = fn(st.Config)
		return game.Normalize(st), nil
	})
}

// LoadRoster replaces the character pool. Refused while a game is active:
// swapping the pool under a live round would orphan the current character.
func (s *Session) LoadRoster(pool []character.Character) (game.Status, error) {
	if st := s.Status(); st.IsGameActive {
		return st, &game.GuardError{Op: "load roster", Phase: st.Phase,
			Reason: "cannot replace the pool while a game is active"}
	}
	if err := s.characters.Write(pool); err != nil {
		return s.Status(), err
	}
	return s.apply("load roster", func(st game.Status) (game.Status, error) {
		st.Characters = pool
		return st, nil
	})
}

// SubscribeStatus registers fn for every status change, local or remote.
func (s *Session) SubscribeStatus(fn func(game.Status)) {
	s.status.Subscribe(fn)
}

// Run services subscriptions until ctx is cancelled: native store
// notifications wake the matching channel, and each channel's
// reconciliation poll covers everything the notifications miss.
func (s *Session) Run(ctx context.Context) error {
	byName := map[string]func(){
		SlotStatus:     s.status.Reconcile,
		SlotConfig:     s.config.Reconcile,
		SlotCharacters: s.characters.Reconcile,
	}
	err := s.store.Watch(ctx, func(name string) {
		if reconcile, ok := byName[name]; ok {
			reconcile()
		}
	})
	if err != nil {
		return err
	}

	go s.config.Run(ctx, s.pollInterval)
	go s.characters.Run(ctx, s.pollInterval)
	s.status.Run(ctx, s.pollInterval)
	return nil
}
