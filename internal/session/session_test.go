package session

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"quizmaster/internal/channel"
	"quizmaster/internal/character"
	"quizmaster/internal/game"
)

func testCharacter(name, cat string) character.Character {
	return character.Character{
		Props:    map[string]string{"name": name},
		Tags:     map[string][]string{character.CategoryTag: {cat}},
		ImageRef: name + ".png",
	}
}

func testPool() []character.Character {
	return []character.Character{
		testCharacter("ada", "scientist"),
		testCharacter("grace", "scientist"),
		testCharacter("frida", "artist"),
		testCharacter("pablo", "artist"),
	}
}

// openOperator opens a writable session with a deterministic clock and rng.
func openOperator(t *testing.T, store channel.Store) *Session {
	t.Helper()
	sess, err := Open(store, false, 10*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	sess.Now = func() time.Time { return time.UnixMilli(1_000_000) }
	sess.Rand = rand.New(rand.NewSource(7))
	return sess
}

func TestOperatorWriteVisibleToOtherSession(t *testing.T) {
	store := channel.NewMemoryStore()
	operator := openOperator(t, store)

	if _, err := operator.LoadRoster(testPool()); err != nil {
		t.Fatal(err)
	}
	if _, err := operator.Start(); err != nil {
		t.Fatal(err)
	}

	display, err := Open(store, true, 10*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	st := display.Status()
	if st.Phase != game.PhaseChoosing {
		t.Errorf("display sees phase %q, want %q", st.Phase, game.PhaseChoosing)
	}
	if st.CurrentRound != 1 {
		t.Errorf("display sees round %d, want 1", st.CurrentRound)
	}
	if st.CurrentCharacter == nil {
		t.Error("display sees no rolled character")
	}
}

func TestSubscriberNotifiedOnRemoteWrite(t *testing.T) {
	store := channel.NewMemoryStore()
	operator := openOperator(t, store)
	if _, err := operator.LoadRoster(testPool()); err != nil {
		t.Fatal(err)
	}

	display, err := Open(store, true, 10*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	seen := make(chan game.Status, 16)
	display.SubscribeStatus(func(st game.Status) { seen <- st })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go display.Run(ctx)

	if _, err := operator.Start(); err != nil {
		t.Fatal(err)
	}

	// The memory store notifies synchronously, but Run may still be
	// registering; the reconciliation poll covers that window.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case st := <-seen:
			if st.Phase == game.PhaseChoosing {
				return
			}
		case <-deadline:
			t.Fatal("subscriber never saw the operator's transition")
		}
	}
}

func TestReadOnlySessionCannotCommit(t *testing.T) {
	store := channel.NewMemoryStore()
	operator := openOperator(t, store)
	if _, err := operator.LoadRoster(testPool()); err != nil {
		t.Fatal(err)
	}

	display, err := Open(store, true, 10*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	display.Now = operator.Now
	display.Rand = rand.New(rand.NewSource(7))

	// The reduction succeeds locally, but the write is dropped.
	if _, err := display.Start(); err != nil {
		t.Fatal(err)
	}
	if st := operator.Status(); st.Phase != game.PhasePrepping {
		t.Errorf("read-only session changed persisted phase to %q", st.Phase)
	}
}

func TestLegacyUsedSlotMigration(t *testing.T) {
	store := channel.NewMemoryStore()
	used := testCharacter("ada", "scientist").Fingerprint()
	if err := store.Write(SlotLegacyUsed, []byte(`["`+used+`"]`)); err != nil {
		t.Fatal(err)
	}

	sess := openOperator(t, store)
	st := sess.Status()
	if !st.IsUsed(used) {
		t.Errorf("legacy used id %q not migrated into the status", used)
	}

	// Starting a game persists the migrated set inside the aggregate.
	if _, err := sess.LoadRoster(testPool()); err != nil {
		t.Fatal(err)
	}
	if _, err := sess.Start(); err != nil {
		t.Fatal(err)
	}
	if st := sess.Status(); !st.IsUsed(used) {
		t.Error("migrated used id lost after start")
	}
	if ch := sess.Status().CurrentCharacter; ch != nil && ch.Fingerprint() == used {
		t.Error("rolled a character that the legacy slot marks as used")
	}
}

func TestResetClearsLegacyUsedIDsForGood(t *testing.T) {
	store := channel.NewMemoryStore()
	used := testCharacter("ada", "scientist").Fingerprint()
	if err := store.Write(SlotLegacyUsed, []byte(`["`+used+`"]`)); err != nil {
		t.Fatal(err)
	}

	sess := openOperator(t, store)
	if _, err := sess.LoadRoster(testPool()); err != nil {
		t.Fatal(err)
	}
	if _, err := sess.UpdateConfig(func(c game.Config) game.Config {
		c.Rounds = 1
		return c
	}); err != nil {
		t.Fatal(err)
	}

	// Play the single round to stopping, then reset.
	if _, err := sess.Start(); err != nil {
		t.Fatal(err)
	}
	if _, err := sess.Confirm(); err != nil {
		t.Fatal(err)
	}
	if st, err := sess.Award(nil, nil); err != nil || st.Phase != game.PhaseStopping {
		t.Fatalf("game did not finish: phase=%v err=%v", st.Phase, err)
	}
	if _, err := sess.Reset(); err != nil {
		t.Fatal(err)
	}

	// The cleared set must survive a reload: the legacy slot may not seep
	// back in through the migration path.
	if st := sess.Status(); len(st.UsedCharacterIDs) != 0 {
		t.Errorf("used ids reappeared after reset: %v", st.UsedCharacterIDs)
	}
}

func TestConfigSlotOverlaysOnlyBeforeStart(t *testing.T) {
	store := channel.NewMemoryStore()
	first := openOperator(t, store)
	if _, err := first.UpdateConfig(func(c game.Config) game.Config {
		c.Rounds = 5
		return c
	}); err != nil {
		t.Fatal(err)
	}

	second := openOperator(t, store)
	if got := second.Status().Config.Rounds; got != 5 {
		t.Fatalf("pre-game session reads %d rounds from the config slot, want 5", got)
	}

	if _, err := second.LoadRoster(testPool()); err != nil {
		t.Fatal(err)
	}
	if _, err := second.Start(); err != nil {
		t.Fatal(err)
	}

	// Once the game is live, edits to the config slot no longer leak in.
	if err := store.Write(SlotConfig, []byte(`{"numberOfRounds":9}`)); err != nil {
		t.Fatal(err)
	}
	if got := second.Status().Config.Rounds; got != 5 {
		t.Errorf("live game adopted %d rounds from the config slot, want 5", got)
	}
}

func TestLoadRosterRefusedWhileActive(t *testing.T) {
	store := channel.NewMemoryStore()
	sess := openOperator(t, store)
	if _, err := sess.LoadRoster(testPool()); err != nil {
		t.Fatal(err)
	}
	if _, err := sess.Start(); err != nil {
		t.Fatal(err)
	}

	if _, err := sess.LoadRoster(testPool()[:2]); err == nil {
		t.Error("roster swap accepted during an active game")
	}
	if st := sess.Status(); st.Phase != game.PhaseChoosing {
		t.Errorf("refused roster swap moved phase to %q", st.Phase)
	}
}

func TestGuardRefusalLeavesStateUntouched(t *testing.T) {
	store := channel.NewMemoryStore()
	sess := openOperator(t, store)

	if _, err := sess.Start(); err == nil {
		t.Fatal("start with an empty pool was accepted")
	}
	if st := sess.Status(); st.Phase != game.PhasePrepping || st.IsGameActive {
		t.Errorf("refused start mutated the persisted state: %+v", st)
	}
}
