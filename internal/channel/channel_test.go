package channel

import (
	"sync"
	"testing"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// countingStore wraps a store to count persisted writes.
type countingStore struct {
	Store
	mu     sync.Mutex
	writes int
}

func (s *countingStore) Write(name string, data []byte) error {
	s.mu.Lock()
	s.writes++
	s.mu.Unlock()
	return s.Store.Write(name, data)
}

func TestReadReturnsDefaultWhenAbsent(t *testing.T) {
	ch, err := New(NewMemoryStore(), "slot", payload{Name: "fallback"}, false)
	if err != nil {
		t.Fatal(err)
	}

	got := ch.Read()
	if got.Name != "fallback" {
		t.Errorf("read of absent slot = %+v, want the default", got)
	}
	if _, ok := ch.Peek(); ok {
		t.Error("peek reported an absent slot as present")
	}
}

func TestWriteThenRead(t *testing.T) {
	store := NewMemoryStore()
	ch, err := New(store, "slot", payload{}, false)
	if err != nil {
		t.Fatal(err)
	}

	if err := ch.Write(payload{Name: "x", Count: 3}); err != nil {
		t.Fatal(err)
	}

	got := ch.Read()
	if got.Name != "x" || got.Count != 3 {
		t.Errorf("read back %+v", got)
	}
	if _, ok := ch.Peek(); !ok {
		t.Error("peek reported a written slot as absent")
	}
}

func TestUnchangedWriteIsSkipped(t *testing.T) {
	store := &countingStore{Store: NewMemoryStore()}
	ch, err := New(store, "slot", payload{}, false)
	if err != nil {
		t.Fatal(err)
	}

	v := payload{Name: "same", Count: 1}
	for i := 0; i < 5; i++ {
		if err := ch.Write(v); err != nil {
			t.Fatal(err)
		}
	}

	if store.writes != 1 {
		t.Errorf("persisted %d writes of an unchanged value, want 1", store.writes)
	}
}

func TestReadOnlyWriteIsDropped(t *testing.T) {
	store := NewMemoryStore()
	writer, err := New(store, "slot", payload{}, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := writer.Write(payload{Name: "original"}); err != nil {
		t.Fatal(err)
	}

	reader, err := New(store, "slot", payload{}, true)
	if err != nil {
		t.Fatal(err)
	}
	if err := reader.Write(payload{Name: "overwritten"}); err != nil {
		t.Errorf("read-only write should be a silent no-op, got %v", err)
	}

	if got := writer.Read(); got.Name != "original" {
		t.Errorf("read-only handle persisted a write: %+v", got)
	}
}

func TestMalformedContentFallsBackToDefault(t *testing.T) {
	store := NewMemoryStore()
	if err := store.Write("slot", []byte("{not json")); err != nil {
		t.Fatal(err)
	}

	ch, err := New(store, "slot", payload{Name: "default"}, false)
	if err != nil {
		t.Fatal(err)
	}

	if got := ch.Read(); got.Name != "default" {
		t.Errorf("malformed slot read = %+v, want the default", got)
	}

	// The corrupt entry is left alone until the next successful write.
	raw, ok, err := store.Read("slot")
	if err != nil || !ok || string(raw) != "{not json" {
		t.Errorf("corrupt slot was repaired prematurely: %q %v %v", raw, ok, err)
	}

	if err := ch.Write(payload{Name: "repaired"}); err != nil {
		t.Fatal(err)
	}
	if got := ch.Read(); got.Name != "repaired" {
		t.Errorf("write did not replace the corrupt entry: %+v", got)
	}
}

func TestReconcileFiresSubscriberOnExternalChange(t *testing.T) {
	store := NewMemoryStore()
	ch, err := New(store, "slot", payload{}, true)
	if err != nil {
		t.Fatal(err)
	}

	var got []payload
	ch.Subscribe(func(v payload) { got = append(got, v) })

	// Nothing changed yet: reconcile must stay quiet.
	ch.Reconcile()
	if len(got) != 0 {
		t.Fatalf("subscriber fired without a change: %+v", got)
	}

	// Simulate another process writing the slot.
	other, err := New(store, "slot", payload{}, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := other.Write(payload{Name: "remote", Count: 1}); err != nil {
		t.Fatal(err)
	}

	ch.Reconcile()
	if len(got) != 1 || got[0].Name != "remote" {
		t.Fatalf("subscriber did not observe the remote write: %+v", got)
	}

	// Duplicate reconciles of the same value stay silent.
	ch.Reconcile()
	if len(got) != 1 {
		t.Errorf("subscriber fired again without a change: %+v", got)
	}
}

func TestAttachDoesNotReplayExistingValue(t *testing.T) {
	store := NewMemoryStore()
	writer, err := New(store, "slot", payload{}, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := writer.Write(payload{Name: "pre-existing"}); err != nil {
		t.Fatal(err)
	}

	late, err := New(store, "slot", payload{}, true)
	if err != nil {
		t.Fatal(err)
	}
	fired := 0
	late.Subscribe(func(payload) { fired++ })

	late.Reconcile()
	if fired != 0 {
		t.Errorf("attaching replayed the pre-existing value %d times", fired)
	}
}
