package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"quizmaster/internal/platform/metrics"
)

// DefaultPollInterval is the reconciliation poll cadence; one interval is
// the upper bound on how stale a subscriber's view can be.
const DefaultPollInterval = time.Second

// Channel is a typed view over one named slot of a Store. Multiple
// processes attach channels with the same name to the same store; each sees
// the others' writes through native notifications and the reconciliation
// poll. Values must round-trip through JSON.
type Channel[T any] struct {
	name     string
	store    Store
	readOnly bool
	defJSON  []byte

	mu       sync.Mutex
	lastSeen []byte
	subs     []func(T)
}

// New builds a channel over store. def is returned by Read whenever the
// slot is absent or holds malformed content. readOnly handles log and drop
// writes instead of persisting them; this is the convention protecting the
// single-writer design, not an enforcement the store could provide.
func New[T any](store Store, name string, def T, readOnly bool) (*Channel[T], error) {
	defJSON, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("failed to encode default for slot %q: %w", name, err)
	}

	c := &Channel[T]{
		name:     name,
		store:    store,
		readOnly: readOnly,
		defJSON:  defJSON,
	}

	// Seed last-seen so attaching does not replay the pre-existing value as
	// a change; callers that want the current value call Read.
	if data, ok, err := store.Read(name); err == nil && ok {
		c.lastSeen = data
	}

	return c, nil
}

// Name returns the slot name.
func (c *Channel[T]) Name() string {
	return c.name
}

// Read returns the persisted value, or the default when the slot is absent
// or its content fails to decode. A corrupt slot is not repaired here; the
// next successful Write replaces it.
func (c *Channel[T]) Read() T {
	metrics.Get().RecordRead()

	data, ok, err := c.store.Read(c.name)
	if err != nil {
		zap.L().Warn("slot read failed, using default",
			zap.String("slot", c.name), zap.Error(err))
		return c.decodeOrDefault(nil)
	}
	if !ok {
		return c.decodeOrDefault(nil)
	}
	return c.decodeOrDefault(data)
}

// Peek is Read plus a presence flag: ok is false when the slot has never
// been written or its content fails to decode. Migration code uses this to
// tell "absent" apart from "default-valued".
func (c *Channel[T]) Peek() (T, bool) {
	metrics.Get().RecordRead()

	data, ok, err := c.store.Read(c.name)
	if err != nil || !ok {
		return c.decodeOrDefault(nil), false
	}

	var v T
	if jsonErr := json.Unmarshal(data, &v); jsonErr != nil {
		metrics.Get().RecordDecodeFailure()
		return c.decodeOrDefault(nil), false
	}
	return v, true
}

// Write persists v. Read-only handles drop the write with a log line. A
// value whose serialized form equals what is already persisted is skipped
// entirely, which is what breaks notification loops when two processes
// re-derive the same value from each other.
func (c *Channel[T]) Write(v T) error {
	if c.readOnly {
		zap.L().Warn("write dropped on read-only channel", zap.String("slot", c.name))
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode slot %q: %w", c.name, err)
	}

	current, ok, err := c.store.Read(c.name)
	if err == nil && ok && bytes.Equal(current, data) {
		metrics.Get().RecordWrite(true)
		return nil
	}

	if err := c.store.Write(c.name, data); err != nil {
		return err
	}
	metrics.Get().RecordWrite(false)
	return nil
}

// Subscribe registers fn to run whenever the persisted value changes,
// regardless of which process wrote it. Delivery is at-least-once with the
// latest value; intermediate values may be coalesced.
func (c *Channel[T]) Subscribe(fn func(T)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
}

// Reconcile re-reads the slot and fires subscribers when the serialized
// form differs from the last-seen one. Wire it to Store.Watch for prompt
// delivery; Run calls it on every poll tick.
func (c *Channel[T]) Reconcile() {
	c.mu.Lock()

	data, ok, err := c.store.Read(c.name)
	if err != nil {
		c.mu.Unlock()
		zap.L().Warn("slot reconcile read failed", zap.String("slot", c.name), zap.Error(err))
		return
	}
	if !ok {
		data = nil
	}
	if bytes.Equal(data, c.lastSeen) {
		c.mu.Unlock()
		return
	}
	c.lastSeen = append([]byte(nil), data...)
	subs := append([]func(T){}, c.subs...)
	c.mu.Unlock()

	value := c.decodeOrDefault(data)
	metrics.Get().RecordNotification()
	for _, fn := range subs {
		fn(value)
	}
}

// Run drives the reconciliation poll until ctx is cancelled.
func (c *Channel[T]) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.Get().RecordReconciliation()
			c.Reconcile()
		}
	}
}

// decodeOrDefault unmarshals data, falling back to a fresh copy of the
// default value. Decoding from the stored default JSON each time keeps
// callers from sharing one mutable default instance.
func (c *Channel[T]) decodeOrDefault(data []byte) T {
	var v T
	if len(data) > 0 {
		if err := json.Unmarshal(data, &v); err == nil {
			return v
		}
		metrics.Get().RecordDecodeFailure()
		zap.L().Warn("malformed slot content, using default", zap.String("slot", c.name))
	}

	var def T
	_ = json.Unmarshal(c.defJSON, &def)
	return def
}
