// Package gls implements goroutine-local storage slots.
//
// A Slot is a process-wide handle; the value stored through it is private
// to the calling goroutine. Two goroutines using the same Slot observe
// entirely independent values, like thread-local storage in languages
// that expose it.
//
// Storage layout:
//
//	tables: sync.Map  goroutine ID -> *table
//	table:  mutex-guarded map[*Slot]entry
//
// The sync.Map gives lock-free lookups for existing goroutines (the
// common case); the per-goroutine table mutex is effectively uncontended
// because only the owner goroutine and the reclamation scan ever touch it.
//
// Go provides no goroutine-exit hook, so tables of dead goroutines are
// reclaimed by an amortized scan (see cleanup.go) rather than by a
// destructor. Entries may therefore outlive their goroutine briefly.
package gls

import (
	"sync"
	"sync/atomic"
)

// Slot is a handle to one goroutine-local storage cell.
//
// The zero value is not usable; create slots with NewSlot. Slot identity
// (the pointer) is the storage key, so a Slot must not be copied. The id
// field keeps the struct non-zero-sized: the runtime gives all zero-size
// allocations one shared address, which would alias every slot.
type Slot struct {
	id uint64 // creation sequence number, for diagnostics

	_ noCopy
}

// entry is one stored value plus its teardown hook.
type entry struct {
	value any

	// teardown runs when the owning goroutine is found dead during
	// reclamation. It receives the stored value. May be nil.
	teardown func(any)
}

// table holds all slot entries of a single goroutine.
type table struct {
	// gen is the reclamation generation at creation time. A scan skips
	// tables created after it captured the live-goroutine snapshot, so
	// a goroutine spawned mid-scan is never mistaken for a dead one.
	gen uint64

	mu      sync.Mutex
	entries map[*Slot]entry
}

// tables maps goroutine ID -> *table for every goroutine that has stored
// at least one slot value. Entries are removed by reclamation once the
// goroutine is gone.
var tables sync.Map

// nextSlotID numbers slots in creation order.
var nextSlotID atomic.Uint64

// NewSlot allocates a new storage slot.
//
// The slot itself is cheap; per-goroutine storage is only allocated when
// a goroutine first calls Set.
func NewSlot() *Slot {
	return &Slot{id: nextSlotID.Add(1)}
}

// Get returns the value the calling goroutine stored in s, if any.
func (s *Slot) Get() (any, bool) {
	v, ok := tables.Load(CurrentID())
	if !ok {
		return nil, false
	}
	t := v.(*table)

	t.mu.Lock()
	e, ok := t.entries[s]
	t.mu.Unlock()
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Set stores v in s for the calling goroutine, replacing any previous
// value. teardown, if non-nil, runs when the goroutine's storage is
// reclaimed after the goroutine ends.
func (s *Slot) Set(v any, teardown func(any)) {
	t := ownTable()

	t.mu.Lock()
	t.entries[s] = entry{value: v, teardown: teardown}
	t.mu.Unlock()
}

// Clear removes the calling goroutine's value from s without running its
// teardown, returning the removed value. Callers that need teardown
// semantics run them on the returned value.
func (s *Slot) Clear() (any, bool) {
	v, ok := tables.Load(CurrentID())
	if !ok {
		return nil, false
	}
	t := v.(*table)

	t.mu.Lock()
	e, ok := t.entries[s]
	if ok {
		delete(t.entries, s)
	}
	t.mu.Unlock()
	if !ok {
		return nil, false
	}
	return e.value, true
}

// ownTable returns the calling goroutine's slot table, creating it on
// first use. Creation triggers the amortized reclamation counter.
func ownTable() *table {
	id := CurrentID()

	if v, ok := tables.Load(id); ok {
		return v.(*table)
	}

	t := &table{gen: scanGen.Load(), entries: make(map[*Slot]entry)}
	if v, loaded := tables.LoadOrStore(id, t); loaded {
		// Cannot happen for a live goroutine (only the owner stores its
		// own table), but LoadOrStore keeps the invariant regardless.
		return v.(*table)
	}

	maybeCleanup()
	return t
}

// noCopy triggers go vet's copylocks check when a Slot is copied by value.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
