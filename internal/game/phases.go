package game

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"quizmaster/internal/character"
)

// Start moves prepping → choosing: zeroes every team's score, clears round
// history, opens round 1 and rolls the first character. Refused when the
// pool is empty, fewer than two teams are configured, or no character is
// available under the active filters.
func Start(s Status, rng *rand.Rand) (Status, error) {
	s = Normalize(s)
	if s.Phase != PhasePrepping {
		return s, refuse("start", s.Phase, "a game can only start from prepping")
	}
	if len(s.Characters) == 0 {
		return s, refuse("start", s.Phase, "no characters loaded; load a roster first")
	}
	if len(s.Config.TeamNames) < 2 {
		return s, refuse("start", s.Phase, "at least two teams are required, got %d", len(s.Config.TeamNames))
	}
	if len(s.Available()) == 0 {
		return s, refuse("start", s.Phase,
			"no unused character matches %s", describeFilters(s.Config.Filters))
	}

	scores := make(map[string]float64, len(s.Config.TeamNames))
	for _, team := range s.Config.TeamNames {
		scores[team] = 0
	}
	s.Scores = scores
	s.RoundHistory = nil
	s.CurrentRound = 1
	s.IsGameActive = true
	s.Phase = PhaseChoosing

	return roll(s, rng)
}

// Reroll replaces the candidate character while still choosing.
func Reroll(s Status, rng *rand.Rand) (Status, error) {
	s = Normalize(s)
	if s.Phase != PhaseChoosing {
		return s, refuse("re-roll", s.Phase, "re-rolling is only possible while choosing")
	}
	return roll(s, rng)
}

// Confirm moves choosing → guessing. The candidate must still match the
// active filters: the operator may have narrowed them after rolling, and a
// character outside the current selection must not be played.
func Confirm(s Status) (Status, error) {
	s = Normalize(s)
	if s.Phase != PhaseChoosing {
		return s, refuse("confirm", s.Phase, "confirming is only possible while choosing")
	}
	if s.CurrentCharacter == nil {
		return s, refuse("confirm", s.Phase, "no character has been rolled")
	}
	if !character.Matches(*s.CurrentCharacter, s.Config.Filters) {
		return s, refuse("confirm", s.Phase,
			"the rolled character no longer matches %s; re-roll", describeFilters(s.Config.Filters))
	}

	s.Phase = PhaseGuessing
	return s, nil
}

// End aborts a running game back to prepping from choosing or guessing.
// Used character ids are deliberately preserved: characters shown in an
// abandoned game stay excluded until an explicit Reset.
func End(s Status) (Status, error) {
	s = Normalize(s)
	if s.Phase != PhaseChoosing && s.Phase != PhaseGuessing {
		return s, refuse("end", s.Phase, "only a running game can be ended")
	}

	s = clearTimer(s)
	s.CurrentCharacter = nil
	s.CurrentCategory = ""
	s.IsGameActive = false
	s.Phase = PhasePrepping
	return s, nil
}

// Reset moves stopping → prepping and forgets the finished game: used ids,
// history, scores, counters and timer all go back to their initial values.
func Reset(s Status) (Status, error) {
	s = Normalize(s)
	if s.Phase != PhaseStopping {
		return s, refuse("reset", s.Phase, "reset only applies to a finished game")
	}

	s = clearTimer(s)
	// Empty, not nil: a nil set serializes as null, which reads back as
	// "field missing" and would be re-seeded from the legacy used slot.
	s.UsedCharacterIDs = []string{}
	s.RoundHistory = nil
	s.Scores = map[string]float64{}
	s.CurrentRound = 0
	s.CurrentCharacter = nil
	s.CurrentCategory = ""
	s.CurrentTurnIndex = 0
	s.CurrentTeamIndex = nil
	s.TurnType = TurnTeam
	s.IsGameActive = false
	s.Phase = PhasePrepping
	return s, nil
}

// roll draws a random unused character under the active filters and resets
// the round's turn state. The displayed category is drawn uniformly from
// the character's own category values when it carries several.
func roll(s Status, rng *rand.Rand) (Status, error) {
	c, err := character.Roll(s.Characters, s.usedSet(), s.Config.Filters, rng)
	if err != nil {
		if errors.Is(err, character.ErrPoolExhausted) {
			return s, refuse("roll", s.Phase,
				"no unused character matches %s", describeFilters(s.Config.Filters))
		}
		return s, err
	}

	s.CurrentCharacter = &c
	s.CurrentCategory = ""
	if categories := c.Categories(); len(categories) > 0 {
		s.CurrentCategory = categories[rng.Intn(len(categories))]
	}
	s.CurrentTurnIndex = 0
	s.CurrentTeamIndex = intPtr(0)
	s.TurnType = TurnTeam
	return clearTimer(s), nil
}

// completeRound records the shown character and either opens the next round
// or, when the configured round count is exhausted (or no character is left
// to roll), finishes the game.
func completeRound(s Status, points map[string]float64, rng *rand.Rand) (Status, error) {
	shown := s.CurrentCharacter
	if shown == nil {
		return s, refuse("complete round", s.Phase, "no character is in play")
	}

	s = s.markUsed(shown.Fingerprint())
	result := RoundResult{
		Round:     s.CurrentRound,
		Category:  s.CurrentCategory,
		Character: *shown,
		Points:    points,
	}
	s.RoundHistory = append(append([]RoundResult(nil), s.RoundHistory...), result)

	if s.CurrentRound >= s.Config.Rounds {
		return finish(s), nil
	}

	s.CurrentRound++
	s.Phase = PhaseChoosing
	next, err := roll(s, rng)
	if err != nil {
		// Pool ran dry mid-game: end early rather than leave the operator
		// stuck in choosing with nothing to roll.
		return finish(s), nil
	}
	return next, err
}

func finish(s Status) Status {
	s = clearTimer(s)
	s.CurrentCharacter = nil
	s.CurrentCategory = ""
	s.CurrentTeamIndex = nil
	s.IsGameActive = false
	s.Phase = PhaseStopping
	return s
}

func clearTimer(s Status) Status {
	s.IsTimerRunning = false
	s.TimerEndsAtMs = nil
	return s
}

// describeFilters renders a selection for guard messages, so a refusal
// names the exact combination that yielded zero matches.
func describeFilters(sel character.TagSelection) string {
	if sel.IsEmpty() {
		return "the unfiltered pool"
	}
	keys := make([]string, 0, len(sel))
	for key, values := range sel {
		if len(values) > 0 {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s in [%s]", key, strings.Join(sel[key], ", ")))
	}
	return "filters " + strings.Join(parts, " and ")
}
