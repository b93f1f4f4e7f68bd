package errors

import "sync"

// Diagnostics is the batch-query error accumulator: insertion-ordered,
// deduplicated, and shared across an entire check pass so that each
// phase collects errors without halting the ones that follow.
type Diagnostics struct {
	mu    sync.Mutex
	seen  map[string]bool
	items []*Report
}

// NewDiagnostics creates an empty accumulator.
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{seen: make(map[string]bool)}
}

// Add appends a report unless an equal one was already recorded. Safe
// for concurrent use, though the single-threaded analyzer never needs
// that concurrency.
func (d *Diagnostics) Add(r *Report) {
	if r == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	key := r.dedupeKey()
	if d.seen[key] {
		return
	}
	d.seen[key] = true
	d.items = append(d.items, r)
}

// Merge folds another accumulator's reports into this one, preserving
// insertion order and dedup semantics.
func (d *Diagnostics) Merge(other *Diagnostics) {
	if other == nil {
		return
	}
	other.mu.Lock()
	items := append([]*Report(nil), other.items...)
	other.mu.Unlock()
	for _, r := range items {
		d.Add(r)
	}
}

// OK reports whether the accumulator is empty. A check pass succeeds
// iff this is true.
func (d *Diagnostics) OK() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.items) == 0
}

// Reports returns the accumulated reports in insertion order. The
// returned slice is a copy; mutating it does not affect the accumulator.
func (d *Diagnostics) Reports() []*Report {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Report(nil), d.items...)
}

// Len returns the number of distinct reports accumulated so far.
func (d *Diagnostics) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.items)
}

// Empty reports whether d is nil or holds no diagnostics; convenient for
// call sites that receive a possibly-nil accumulator from a query that
// had nothing to report.
func Empty(d *Diagnostics) bool {
	return d == nil || d.OK()
}
