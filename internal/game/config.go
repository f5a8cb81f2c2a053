package game

import (
	"quizmaster/internal/character"
)

// Default entries used when a config list grows from empty.
const (
	DefaultTurnDuration     = 60 // seconds
	DefaultTurnScore        = 1.0
	DefaultFreeTurnDuration = 30
	DefaultFreeTurnScore    = 0.5
)

// Config is the operator-editable game configuration. TurnDurations and
// TurnScores are parallel to TeamNames: entry i governs the turn of team i
// within a round.
type Config struct {
	Rounds           int                    `json:"numberOfRounds"`
	TurnDurations    []int                  `json:"turnDurations"`
	TurnScores       []float64              `json:"turnScores"`
	FreeTurnDuration int                    `json:"freeTurnDuration"`
	FreeTurnScore    float64                `json:"freeTurnScore"`
	TeamNames        []string               `json:"teamNames"`
	Filters          character.TagSelection `json:"filters"`
}

// DefaultConfig returns a playable two-team starting configuration.
func DefaultConfig() Config {
	return Config{
		Rounds:           3,
		TurnDurations:    []int{DefaultTurnDuration, DefaultTurnDuration},
		TurnScores:       []float64{DefaultTurnScore, DefaultTurnScore},
		FreeTurnDuration: DefaultFreeTurnDuration,
		FreeTurnScore:    DefaultFreeTurnScore,
		TeamNames:        []string{"Team 1", "Team 2"},
		Filters:          character.TagSelection{},
	}
}

// WithTeams replaces the team list and resizes the parallel duration and
// score lists in lockstep: existing entries are preserved, new slots are
// padded with the last known value, or the fixed defaults when the list was
// empty.
func (c Config) WithTeams(names []string) Config {
	c.TeamNames = append([]string(nil), names...)
	c.TurnDurations = resizeInts(c.TurnDurations, len(names), DefaultTurnDuration)
	c.TurnScores = resizeFloats(c.TurnScores, len(names), DefaultTurnScore)
	return c
}

// normalizeConfig repairs a config whose parallel lists fell out of
// lockstep (older persisted shapes) and fills zero-valued fields.
func normalizeConfig(c Config) Config {
	if c.Rounds <= 0 {
		c.Rounds = DefaultConfig().Rounds
	}
	if c.FreeTurnDuration <= 0 {
		c.FreeTurnDuration = DefaultFreeTurnDuration
	}
	if c.FreeTurnScore == 0 {
		c.FreeTurnScore = DefaultFreeTurnScore
	}
	if c.Filters == nil {
		c.Filters = character.TagSelection{}
	}
	c.TurnDurations = resizeInts(c.TurnDurations, len(c.TeamNames), DefaultTurnDuration)
	c.TurnScores = resizeFloats(c.TurnScores, len(c.TeamNames), DefaultTurnScore)
	return c
}

func resizeInts(list []int, size int, def int) []int {
	out := make([]int, 0, size)
	out = append(out, list...)
	if len(out) > size {
		return out[:size]
	}
	pad := def
	if len(out) > 0 {
		pad = out[len(out)-1]
	}
	for len(out) < size {
		out = append(out, pad)
	}
	return out
}

func resizeFloats(list []float64, size int, def float64) []float64 {
	out := make([]float64, 0, size)
	out = append(out, list...)
	if len(out) > size {
		return out[:size]
	}
	pad := def
	if len(out) > 0 {
		pad = out[len(out)-1]
	}
	for len(out) < size {
		out = append(out, pad)
	}
	return out
}
