package main

import (
	"strings"
	"testing"
	"time"

	"quizmaster/internal/character"
	"quizmaster/internal/game"
)

func guessingStatus(deadline time.Time) game.Status {
	c := character.Character{
		Props:    map[string]string{"name": "Ada Lovelace"},
		Tags:     map[string][]string{character.CategoryTag: {"Science"}},
		ImageRef: "ada.png",
	}
	st := game.Normalize(game.Status{
		Phase:            game.PhaseGuessing,
		Config:           game.DefaultConfig(),
		Characters:       []character.Character{c},
		CurrentRound:     1,
		CurrentCharacter: &c,
		CurrentCategory:  "Science",
		IsGameActive:     true,
		IsTimerRunning:   true,
	})
	ends := deadline.UnixMilli()
	st.TimerEndsAtMs = &ends
	return st
}

func TestPaintShowsRunningTimerAsRemaining(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	out := paint(guessingStatus(now.Add(30*time.Second)), now)

	if !strings.Contains(out, "30s remaining") {
		t.Errorf("running timer not rendered with its remaining time:\n%s", out)
	}
}

func TestPaintShowsExpiredTimerAsStopped(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	out := paint(guessingStatus(now.Add(-time.Second)), now)

	// A display repaints from its last received status; a deadline in the
	// past must read as stopped, not as zero seconds still running.
	if !strings.Contains(out, "timer: stopped") {
		t.Errorf("expired timer still rendered as running:\n%s", out)
	}
	if strings.Contains(out, "remaining") {
		t.Errorf("expired timer rendered with a remaining time:\n%s", out)
	}
}
