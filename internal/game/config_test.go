package game

import (
	"reflect"
	"testing"
)

func TestWithTeamsShrinksParallelListsInLockstep(t *testing.T) {
	cfg := Config{
		TeamNames:     []string{"A", "B", "C", "D"},
		TurnDurations: []int{60, 45, 30, 15},
		TurnScores:    []float64{4, 3, 2, 1},
	}

	got := cfg.WithTeams([]string{"A", "B"})

	if !reflect.DeepEqual(got.TurnDurations, []int{60, 45}) {
		t.Errorf("durations = %v, want first two preserved", got.TurnDurations)
	}
	if !reflect.DeepEqual(got.TurnScores, []float64{4, 3}) {
		t.Errorf("scores = %v, want first two preserved", got.TurnScores)
	}
}

func TestWithTeamsGrowsPaddingWithLastValue(t *testing.T) {
	cfg := Config{
		TeamNames:     []string{"A", "B"},
		TurnDurations: []int{60, 45},
		TurnScores:    []float64{2, 1},
	}

	got := cfg.WithTeams([]string{"A", "B", "C", "D"})

	if !reflect.DeepEqual(got.TurnDurations, []int{60, 45, 45, 45}) {
		t.Errorf("durations = %v, want padding with last value", got.TurnDurations)
	}
	if !reflect.DeepEqual(got.TurnScores, []float64{2, 1, 1, 1}) {
		t.Errorf("scores = %v, want padding with last value", got.TurnScores)
	}
}

func TestWithTeamsFromEmptyUsesDefaults(t *testing.T) {
	got := Config{}.WithTeams([]string{"A", "B"})

	if !reflect.DeepEqual(got.TurnDurations, []int{DefaultTurnDuration, DefaultTurnDuration}) {
		t.Errorf("durations = %v, want defaults", got.TurnDurations)
	}
	if !reflect.DeepEqual(got.TurnScores, []float64{DefaultTurnScore, DefaultTurnScore}) {
		t.Errorf("scores = %v, want defaults", got.TurnScores)
	}
}

func TestNormalizeToleratesOlderShapes(t *testing.T) {
	// A status persisted by an older schema: no phase, no turn type, no
	// score map, config lists out of lockstep.
	st := Normalize(Status{
		Config: Config{
			TeamNames:     []string{"A", "B", "C"},
			TurnDurations: []int{30},
		},
	})

	if st.Phase != PhasePrepping {
		t.Errorf("phase = %q, want prepping", st.Phase)
	}
	if st.TurnType != TurnTeam {
		t.Errorf("turn type = %q, want team", st.TurnType)
	}
	if st.Scores == nil {
		t.Error("scores map not initialized")
	}
	if len(st.Config.TurnDurations) != 3 || len(st.Config.TurnScores) != 3 {
		t.Errorf("parallel lists not repaired: %v / %v", st.Config.TurnDurations, st.Config.TurnScores)
	}
	if st.Config.Rounds <= 0 || st.Config.FreeTurnDuration <= 0 {
		t.Error("zero-valued config fields not defaulted")
	}
	if st.Config.Filters == nil {
		t.Error("filters not initialized")
	}
}
