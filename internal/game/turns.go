package game

import (
	"math"
	"math/rand"
	"time"
)

// Tick expires a running timer whose deadline has passed. Expiry only stops
// the clock; no points move without an explicit award. Idempotent, safe to
// apply before every operator command.
func Tick(s Status, now time.Time) Status {
	s = Normalize(s)
	if s.IsTimerRunning && s.TimerEndsAtMs != nil && *s.TimerEndsAtMs <= now.UnixMilli() {
		s = clearTimer(s)
	}
	return s
}

// TurnDuration returns the countdown length for the current turn, in
// seconds.
func (s Status) TurnDuration() int {
	if s.TurnType == TurnFreeForAll {
		return s.Config.FreeTurnDuration
	}
	if s.CurrentTurnIndex < len(s.Config.TurnDurations) {
		return s.Config.TurnDurations[s.CurrentTurnIndex]
	}
	return DefaultTurnDuration
}

// TurnPoints returns the points at stake for the current turn.
func (s Status) TurnPoints() float64 {
	if s.TurnType == TurnFreeForAll {
		return s.Config.FreeTurnScore
	}
	if s.CurrentTurnIndex < len(s.Config.TurnScores) {
		return s.Config.TurnScores[s.CurrentTurnIndex]
	}
	return DefaultTurnScore
}

// StartTimer anchors the current turn's countdown to the wall clock:
// the absolute deadline is stored, and the remaining time is recomputed
// from it on demand rather than ticked down anywhere.
func StartTimer(s Status, now time.Time) (Status, error) {
	s = Normalize(s)
	if s.Phase != PhaseGuessing {
		return s, refuse("start timer", s.Phase, "the timer only runs during guessing")
	}
	if s.IsTimerRunning {
		return s, refuse("start timer", s.Phase, "the timer is already running")
	}

	s.TimerEndsAtMs = int64Ptr(now.Add(time.Duration(s.TurnDuration()) * time.Second).UnixMilli())
	s.IsTimerRunning = true
	return s, nil
}

// StopTimer halts the countdown without touching round or scores.
func StopTimer(s Status) (Status, error) {
	s = Normalize(s)
	if !s.IsTimerRunning {
		return s, refuse("stop timer", s.Phase, "no timer is running")
	}
	return clearTimer(s), nil
}

// Pass moves the turn to the next team after an unsuccessful guess. Once
// every team has had its turn the round drops into free-for-all, open to
// any team; passing again from there is refused, as the only ways out of a
// free-for-all are an award (possibly to nobody) or ending the game.
func Pass(s Status) (Status, error) {
	s = Normalize(s)
	if s.Phase != PhaseGuessing {
		return s, refuse("pass", s.Phase, "turns only advance during guessing")
	}
	if s.TurnType == TurnFreeForAll {
		return s, refuse("pass", s.Phase, "already in free-for-all; award points or award to nobody")
	}

	s = clearTimer(s)
	next := s.CurrentTurnIndex + 1
	if next >= len(s.Config.TeamNames) {
		s.TurnType = TurnFreeForAll
		s.CurrentTeamIndex = nil
		return s, nil
	}
	s.CurrentTurnIndex = next
	s.CurrentTeamIndex = intPtr(next)
	return s, nil
}

// Award grants points for the round and completes it: the character is
// marked used, a RoundResult is appended, the timer stops, and the machine
// either rolls for the next round or finishes the game. team == nil means
// nobody scores, but the round still completes. During a team turn, an
// indexed award must name the team whose turn it is; during free-for-all
// any team may be awarded.
func Award(s Status, team *int, points float64, rng *rand.Rand) (Status, error) {
	s = Normalize(s)
	if s.Phase != PhaseGuessing {
		return s, refuse("award", s.Phase, "points can only be awarded during guessing")
	}
	if math.IsNaN(points) || math.IsInf(points, 0) || points < 0 {
		return s, refuse("award", s.Phase, "points must be a non-negative number, got %v", points)
	}
	if team != nil {
		if *team < 0 || *team >= len(s.Config.TeamNames) {
			return s, refuse("award", s.Phase, "no team with index %d", *team)
		}
		if s.TurnType == TurnTeam && (s.CurrentTeamIndex == nil || *team != *s.CurrentTeamIndex) {
			turnOf := "another team"
			if s.CurrentTeamIndex != nil && *s.CurrentTeamIndex < len(s.Config.TeamNames) {
				turnOf = s.Config.TeamNames[*s.CurrentTeamIndex]
			}
			return s, refuse("award", s.Phase, "it is %s's turn; pass first or award to them", turnOf)
		}
	}

	contributions := make(map[string]float64, len(s.Config.TeamNames))
	for _, name := range s.Config.TeamNames {
		contributions[name] = 0
	}
	if team != nil {
		name := s.Config.TeamNames[*team]
		contributions[name] = points

		scores := cloneScores(s.Scores)
		scores[name] += points
		s.Scores = scores
	}

	s = clearTimer(s)
	return completeRound(s, contributions, rng)
}

// EditRoundScore replaces one team's contribution in a historical round and
// recomputes every total as the sum over the whole history. Summing from
// scratch instead of adjusting in place keeps repeated edits from drifting.
func EditRoundScore(s Status, round int, teamName string, points float64) (Status, error) {
	s = Normalize(s)
	if math.IsNaN(points) || math.IsInf(points, 0) || points < 0 {
		return s, refuse("edit score", s.Phase, "points must be a non-negative number, got %v", points)
	}

	idx := -1
	for i, result := range s.RoundHistory {
		if result.Round == round {
			idx = i
		}
	}
	if idx < 0 {
		return s, refuse("edit score", s.Phase, "no completed round %d", round)
	}
	if _, ok := s.RoundHistory[idx].Points[teamName]; !ok {
		return s, refuse("edit score", s.Phase, "no team %q in round %d", teamName, round)
	}

	history := append([]RoundResult(nil), s.RoundHistory...)
	edited := history[idx]
	edited.Points = cloneScores(edited.Points)
	edited.Points[teamName] = points
	history[idx] = edited
	s.RoundHistory = history

	return recomputeScores(s), nil
}

// recomputeScores rebuilds the totals from the round history.
func recomputeScores(s Status) Status {
	scores := make(map[string]float64, len(s.Config.TeamNames))
	for _, name := range s.Config.TeamNames {
		scores[name] = 0
	}
	for _, result := range s.RoundHistory {
		for name, points := range result.Points {
			scores[name] += points
		}
	}
	s.Scores = scores
	return s
}
