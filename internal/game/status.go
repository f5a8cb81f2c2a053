// Package game owns the aggregate game state and the rules that advance it:
// the phase machine and the turn/scoring engine. Every operation is a pure
// reducer func(Status, args) (Status, error); callers decide whether to
// commit the returned state. This package is PURE and must NOT import any
// infrastructure packages (channel, session, platform).
package game

import (
	"time"

	"quizmaster/internal/character"
)

// Phase is the state-machine phase of the running game.
type Phase string

const (
	PhasePrepping Phase = "prepping"
	PhaseChoosing Phase = "choosing"
	PhaseGuessing Phase = "guessing"
	PhaseStopping Phase = "stopping"
)

// TurnType distinguishes a single team's turn from the free-for-all that
// follows once every team has had one.
type TurnType string

const (
	TurnTeam       TurnType = "team"
	TurnFreeForAll TurnType = "free-for-all"
)

// RoundResult is appended exactly once per completed round. Immutable
// afterwards except for operator score correction through EditRoundScore.
type RoundResult struct {
	Round     int                 `json:"round"`
	Category  string              `json:"category"`
	Character character.Character `json:"character"`
	Points    map[string]float64  `json:"points"`
}

// Status is the aggregate root. The operator process is its only writer;
// display processes hold read-only projections.
type Status struct {
	Phase            Phase                  `json:"phase"`
	Config           Config                 `json:"config"`
	Characters       []character.Character  `json:"characters"`
	UsedCharacterIDs []string               `json:"usedCharacterIds"`
	CurrentRound     int                    `json:"currentRound"`
	CurrentCharacter *character.Character   `json:"currentCharacter"`
	CurrentCategory  string                 `json:"currentCategory"`
	CurrentTurnIndex int                    `json:"currentTurnIndex"`
	CurrentTeamIndex *int                   `json:"currentTeamIndex"`
	TurnType         TurnType               `json:"turnType"`
	IsTimerRunning   bool                   `json:"isTimerRunning"`
	TimerEndsAtMs    *int64                 `json:"timerEndsAtEpochMs"`
	Scores           map[string]float64     `json:"scores"`
	RoundHistory     []RoundResult          `json:"roundHistory"`
	IsGameActive     bool                   `json:"isGameActive"`
	LastWriterID     string                 `json:"lastWriterId,omitempty"`
}

// Normalize fills in the documented defaults for fields a persisted status
// from an older schema may be missing, so reducers can assume a complete
// shape. Idempotent.
func Normalize(s Status) Status {
	if s.Phase == "" {
		s.Phase = PhasePrepping
	}
	if s.TurnType == "" {
		s.TurnType = TurnTeam
	}
	if s.Scores == nil {
		s.Scores = map[string]float64{}
	}
	s.Config = normalizeConfig(s.Config)
	return s
}

// IsUsed reports whether a fingerprint is already in the used set.
func (s Status) IsUsed(fingerprint string) bool {
	for _, id := range s.UsedCharacterIDs {
		if id == fingerprint {
			return true
		}
	}
	return false
}

// usedSet materializes the used ids as a lookup set for the pool functions.
func (s Status) usedSet() map[string]bool {
	set := make(map[string]bool, len(s.UsedCharacterIDs))
	for _, id := range s.UsedCharacterIDs {
		set[id] = true
	}
	return set
}

// markUsed appends a fingerprint to the used set. Re-applying an id that is
// already present is a no-op, which keeps duplicate delivery of the same
// operation from double-counting.
func (s Status) markUsed(fingerprint string) Status {
	if s.IsUsed(fingerprint) {
		return s
	}
	s.UsedCharacterIDs = append(append([]string(nil), s.UsedCharacterIDs...), fingerprint)
	return s
}

// Available returns the characters still eligible under the active filters.
func (s Status) Available() []character.Character {
	return character.Available(s.Characters, s.usedSet(), s.Config.Filters)
}

// CategoryCounts reports remaining-vs-total characters per category value
// under the active filters, for the operator's pool overview.
func (s Status) CategoryCounts() []character.CategoryCount {
	return character.CategoryCounts(s.Characters, s.usedSet(), s.Config.Filters)
}

// Remaining recomputes the countdown from the stored deadline. It is never
// ticked down in state, so it stays correct across process suspension and
// reload; consumers re-derive it on every render.
func (s Status) Remaining(now time.Time) time.Duration {
	if !s.IsTimerRunning || s.TimerEndsAtMs == nil {
		return 0
	}
	remaining := time.Duration(*s.TimerEndsAtMs-now.UnixMilli()) * time.Millisecond
	if remaining < 0 {
		return 0
	}
	return remaining
}

// cloneScores copies the score map before a reducer mutates it.
func cloneScores(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }
