// Package progress publishes monotonic ingest counters to an external
// sink. It is safe for concurrent use by the download driver and the
// ingest's parse workers, which update it from different goroutines.
package progress

import "sync/atomic"

// Snapshot is the state reported to a sink on each update.
type Snapshot struct {
	BytesDownloaded       uint64
	BytesExpected         uint64
	HasBytesExpected      bool
	ItemsUnpacked         uint64
	IsComputingDerivedData bool
}

// Sink receives a Snapshot on every counter update. It must return quickly
// and must never block: Reporter calls it synchronously, inline with the
// update, and tolerates being re-entered from multiple goroutines at once.
type Sink func(Snapshot)

// Reporter holds the monotonic counters for one ingest and forwards every
// update to a Sink.
type Reporter struct {
	bytesDownloaded atomic.Uint64
	bytesExpected   atomic.Uint64
	hasExpected     atomic.Bool
	itemsUnpacked   atomic.Uint64
	computing       atomic.Bool

	sink Sink
}

// New returns a Reporter that forwards every update to sink. A nil sink is
// replaced with a no-op, so callers never need to nil-check before use.
func New(sink Sink) *Reporter {
	if sink == nil {
		sink = func(Snapshot) {}
	}
	return &Reporter{sink: sink}
}

// SetBytesExpected records the archive's declared size, typically taken
// from a Content-Length header. It is optional; callers that never call it
// leave Snapshot.HasBytesExpected false.
func (r *Reporter) SetBytesExpected(n uint64) {
	r.bytesExpected.Store(n)
	r.hasExpected.Store(true)
	r.publish()
}

// AddBytesDownloaded advances the byte counter by n and publishes a
// snapshot.
func (r *Reporter) AddBytesDownloaded(n uint64) {
	r.bytesDownloaded.Add(n)
	r.publish()
}

// AddItemsUnpacked advances the item counter by n and publishes a
// snapshot.
func (r *Reporter) AddItemsUnpacked(n uint64) {
	r.itemsUnpacked.Add(n)
	r.publish()
}

// SetComputingDerivedData toggles whether the ingest has moved into its
// derived-data recompute phase, and publishes a snapshot.
func (r *Reporter) SetComputingDerivedData(v bool) {
	r.computing.Store(v)
	r.publish()
}

// Snapshot returns the current counter state without publishing.
func (r *Reporter) Snapshot() Snapshot {
	s := Snapshot{
		BytesDownloaded:        r.bytesDownloaded.Load(),
		ItemsUnpacked:          r.itemsUnpacked.Load(),
		IsComputingDerivedData: r.computing.Load(),
	}
	if r.hasExpected.Load() {
		s.BytesExpected = r.bytesExpected.Load()
		s.HasBytesExpected = true
	}
	return s
}

func (r *Reporter) publish() {
	r.sink(r.Snapshot())
}
