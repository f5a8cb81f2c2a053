// Package metrics provides lightweight in-process observability for the
// synchronization layer. Counters are reported by long-running commands on
// shutdown; there is no network endpoint.
package metrics

import (
	"sync/atomic"
	"time"
)

// Collector gathers channel and state-machine counters.
type Collector struct {
	// Channel traffic
	SlotWrites        int64
	SlotWritesSkipped int64
	SlotReads         int64
	Notifications     int64
	Reconciliations   int64
	DecodeFailures    int64

	// State machine
	GuardFailures int64

	StartTime time.Time
}

// Global collector instance
var collector = &Collector{
	StartTime: time.Now(),
}

// Get returns the global collector.
func Get() *Collector {
	return collector
}

// RecordWrite records a persisted slot write, or a skipped one when the
// serialized value was unchanged.
func (c *Collector) RecordWrite(skipped bool) {
	if skipped {
		atomic.AddInt64(&c.SlotWritesSkipped, 1)
		return
	}
	atomic.AddInt64(&c.SlotWrites, 1)
}

// RecordRead records a slot read.
func (c *Collector) RecordRead() {
	atomic.AddInt64(&c.SlotReads, 1)
}

// RecordNotification records a change callback fired to subscribers.
func (c *Collector) RecordNotification() {
	atomic.AddInt64(&c.Notifications, 1)
}

// RecordReconciliation records one pass of the reconciliation poll.
func (c *Collector) RecordReconciliation() {
	atomic.AddInt64(&c.Reconciliations, 1)
}

// RecordDecodeFailure records malformed persisted content replaced by a
// default value.
func (c *Collector) RecordDecodeFailure() {
	atomic.AddInt64(&c.DecodeFailures, 1)
}

// RecordGuardFailure records a refused state-machine operation.
func (c *Collector) RecordGuardFailure() {
	atomic.AddInt64(&c.GuardFailures, 1)
}

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]interface{} {
	return map[string]interface{}{
		"uptime_seconds":      time.Since(c.StartTime).Seconds(),
		"slot_writes":         atomic.LoadInt64(&c.SlotWrites),
		"slot_writes_skipped": atomic.LoadInt64(&c.SlotWritesSkipped),
		"slot_reads":          atomic.LoadInt64(&c.SlotReads),
		"notifications":       atomic.LoadInt64(&c.Notifications),
		"reconciliations":     atomic.LoadInt64(&c.Reconciliations),
		"decode_failures":     atomic.LoadInt64(&c.DecodeFailures),
		"guard_failures":      atomic.LoadInt64(&c.GuardFailures),
	}
}
