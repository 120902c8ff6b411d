// Reclamation of storage belonging to dead goroutines.
//
// Go has no goroutine-exit hook, so slot tables cannot be torn down the
// moment their goroutine returns. Instead, every Nth table creation
// triggers a background scan that compares the registry against the set
// of live goroutine IDs and tears down tables whose owner is gone.
//
// Amortization: the scan costs ~1ms per thousand goroutines
// (runtime.Stack all=true), so it runs once per cleanupInterval table
// creations, keeping the amortized overhead negligible.
//
// Ordering: teardown hooks of one dead goroutine run in map iteration
// order. No ordering is guaranteed between slots, matching the upstream
// non-guarantee for thread-local destructor ordering.

package gls

import "sync/atomic"

// cleanupInterval is the number of new per-goroutine tables between
// reclamation scans.
const cleanupInterval = 64

// allocCounter counts per-goroutine table creations to trigger periodic
// reclamation.
var allocCounter atomic.Uint32

// scanGen is the reclamation generation counter. Incremented at the
// start of every scan; tables stamped with a generation at or past the
// scan's own are too young to judge and are left for the next pass.
var scanGen atomic.Uint64

// maybeCleanup triggers a reclamation scan every cleanupInterval table
// creations. The scan runs in a background goroutine so table creation
// never blocks on it. Scans are idempotent; overlapping scans just
// re-examine the same tables.
func maybeCleanup() {
	if allocCounter.Add(1)%cleanupInterval == 0 {
		go Cleanup()
	}
}

// Cleanup scans the registry and tears down storage of goroutines that
// are no longer alive, running each entry's teardown hook.
//
// Cleanup normally runs automatically, amortized over slot activity. It
// is exported so callers with a natural quiesce point (worker pool
// drained, batch finished) can reclaim promptly, and so tests can force
// a scan.
//
// A teardown hook that panics propagates on the goroutine running the
// scan. For borrow-state teardowns this means a goroutine that ended
// with live borrows terminates the process; that misuse is documented as
// fatal at the package level.
func Cleanup() {
	gen := scanGen.Add(1)
	live := liveIDs()
	if len(live) == 0 {
		// Truncated or unparsable stack dump. Do not reclaim anything on
		// this pass rather than tearing down live goroutines' storage.
		return
	}

	liveSet := make(map[int64]bool, len(live))
	for _, id := range live {
		liveSet[id] = true
	}

	tables.Range(func(key, value any) bool {
		id := key.(int64)
		t := value.(*table)
		if liveSet[id] || t.gen >= gen {
			return true
		}

		// Dead goroutine. Remove the table first so a concurrent scan
		// does not run teardowns twice; Delete is the linearization
		// point and only one scanner wins it.
		if _, loaded := tables.LoadAndDelete(id); !loaded {
			return true
		}

		t.mu.Lock()
		entries := t.entries
		t.entries = nil
		t.mu.Unlock()

		for _, e := range entries {
			if e.teardown != nil {
				e.teardown(e.value)
			}
		}
		return true
	})
}
