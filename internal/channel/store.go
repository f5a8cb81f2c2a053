// Package channel implements the synchronization primitive shared by the
// operator and display processes: named persistent slots plus change
// notification, scoped to one state directory on one machine.
//
// Delivery is best-effort and duplicate-tolerant. Native notifications wake
// subscribers quickly when the backend supports them; a reconciliation poll
// is the safety net that guarantees every subscriber sees the latest value
// within one poll interval regardless of backend or missed events.
package channel

import "context"

// Store persists named byte slots. Implementations must make Write atomic
// with respect to concurrent Reads from other processes: a reader sees
// either the previous value or the new one, never a torn write.
type Store interface {
	// Read returns the persisted bytes for a slot, or ok=false when the
	// slot has never been written.
	Read(name string) (data []byte, ok bool, err error)

	// Write replaces the slot's value.
	Write(name string, data []byte) error

	// Watch invokes onChange with a slot name whenever that slot may have
	// changed, until ctx is cancelled. Backends without native change
	// notification keep this a no-op and rely on the poll.
	Watch(ctx context.Context, onChange func(name string)) error

	Close() error
}
