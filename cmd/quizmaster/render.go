package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"quizmaster/internal/game"
)

// renderStatus formats a game status for the terminal. Displays re-render
// this on every change and every countdown tick; nothing here is persisted.
func renderStatus(st game.Status, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "phase: %s", st.Phase)
	if st.IsGameActive {
		fmt.Fprintf(&b, "  (round %d of %d)", st.CurrentRound, st.Config.Rounds)
	}
	b.WriteString("\n")

	if st.CurrentCharacter != nil {
		fmt.Fprintf(&b, "character: %s", describeCharacter(st))
		if st.CurrentCategory != "" {
			fmt.Fprintf(&b, "  [category: %s]", st.CurrentCategory)
		}
		b.WriteString("\n")
	}

	if st.IsGameActive && st.Phase == game.PhaseGuessing {
		if st.TurnType == game.TurnFreeForAll {
			fmt.Fprintf(&b, "turn: free-for-all (%v pts, %ds)\n", st.TurnPoints(), st.TurnDuration())
		} else if st.CurrentTeamIndex != nil && *st.CurrentTeamIndex < len(st.Config.TeamNames) {
			fmt.Fprintf(&b, "turn: %s (%v pts, %ds)\n",
				st.Config.TeamNames[*st.CurrentTeamIndex], st.TurnPoints(), st.TurnDuration())
		}
		if st.IsTimerRunning {
			fmt.Fprintf(&b, "timer: %s remaining\n", st.Remaining(now).Round(time.Second))
		} else {
			b.WriteString("timer: stopped\n")
		}
	}

	if len(st.Scores) > 0 {
		names := append([]string(nil), st.Config.TeamNames...)
		sort.SliceStable(names, func(i, j int) bool { return st.Scores[names[i]] > st.Scores[names[j]] })
		parts := make([]string, 0, len(names))
		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s %v", name, st.Scores[name]))
		}
		fmt.Fprintf(&b, "scores: %s\n", strings.Join(parts, ", "))
	}

	if len(st.Characters) > 0 {
		fmt.Fprintf(&b, "pool: %d loaded, %d used, %d available\n",
			len(st.Characters), len(st.UsedCharacterIDs), len(st.Available()))
	}

	return b.String()
}

// describeCharacter joins the character's display props in sorted key order.
func describeCharacter(st game.Status) string {
	c := st.CurrentCharacter
	keys := make([]string, 0, len(c.Props))
	for k := range c.Props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, c.Props[k])
	}
	if len(parts) == 0 {
		return c.ImageRef
	}
	return strings.Join(parts, " / ")
}
