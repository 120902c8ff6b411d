// Cell declaration and the borrow/try-borrow protocol.
//
// See doc.go for package documentation and examples.

package cell

import "github.com/kolkov/reflocal/internal/gls"

// state is the live borrow state backing one cell on one goroutine:
// the borrow counter plus the payload.
//
// count encoding:
//
//	 0  free, no borrows outstanding
//	>0  number of live shared borrows
//	-1  one live exclusive borrow
//
// No other negative values occur. The counter is a plain int: a state is
// only ever touched by the goroutine that owns it, so no atomics or locks
// are needed.
type state[T any] struct {
	count int
	value T
}

// Cell is a declared goroutine-local storage cell for values of type T.
//
// A Cell is a process-wide facade with no mutable state of its own: it
// holds only the storage slot handle and the initializer. Every goroutine
// accessing the cell gets its own independent value, lazily constructed
// by the initializer on first access and discarded by Destroy or when
// the goroutine ends.
//
// All operations act on the calling goroutine's own copy; no operation
// ever has cross-goroutine effects.
type Cell[T any] struct {
	slot *gls.Slot
	init func() T
}

// New declares a new goroutine-local cell whose per-goroutine value is
// produced by init. A nil init yields the zero value of T.
//
// The initializer runs at most once per goroutine between Destroy calls,
// on the first access from that goroutine, regardless of which operation
// triggers it.
func New[T any](init func() T) *Cell[T] {
	return &Cell[T]{
		slot: gls.NewSlot(),
		init: init,
	}
}

// Initialize eagerly constructs the calling goroutine's value.
//
// Unlike the borrow operations, Initialize is strict: if the goroutine
// already has a live value it returns ErrAlreadyInitialized and does not
// re-run the initializer or disturb the existing value. The asymmetry is
// deliberate: borrows initialize on demand as a convenience, Initialize
// answers "construct now, fail if that already happened".
func (c *Cell[T]) Initialize() error {
	if _, ok := c.lookup(); ok {
		return ErrAlreadyInitialized
	}
	c.install()
	return nil
}

// IsInitialized reports whether the calling goroutine currently has a
// live value in the cell. It never runs the initializer.
func (c *Cell[T]) IsInitialized() bool {
	_, ok := c.lookup()
	return ok
}

// Destroy discards the calling goroutine's value, returning the cell to
// the uninitialized state for this goroutine. The next access re-runs
// the initializer.
//
// Returns ErrNotInitialized if the goroutine has no live value.
//
// Destroying while any borrow is outstanding is a logic error in the
// caller: a guard escaped its expected scope, and proceeding would leave
// it pointing at discarded storage. Destroy panics in that case rather
// than returning an error.
func (c *Cell[T]) Destroy() error {
	st, ok := c.lookup()
	if !ok {
		return ErrNotInitialized
	}
	if st.count != 0 {
		panic("cell: cannot destroy before all borrows are released")
	}
	c.slot.Clear()
	return nil
}

// Borrow takes a shared borrow of the calling goroutine's value,
// initializing it first if absent. Multiple shared borrows may coexist.
//
// Panics if an exclusive borrow is outstanding. Use TryBorrow to treat
// the conflict as a recoverable error instead.
//
// The returned Ref must be released on every exit path:
//
//	r := c.Borrow()
//	defer r.Release()
func (c *Cell[T]) Borrow() *Ref[T] {
	r, err := c.TryBorrow()
	if err != nil {
		panic("cell: " + err.Error())
	}
	return r
}

// BorrowMut takes an exclusive borrow of the calling goroutine's value,
// initializing it first if absent.
//
// Panics if any borrow is outstanding. Use TryBorrowMut to treat the
// conflict as a recoverable error instead.
func (c *Cell[T]) BorrowMut() *RefMut[T] {
	m, err := c.TryBorrowMut()
	if err != nil {
		panic("cell: " + err.Error())
	}
	return m
}

// TryBorrow takes a shared borrow of the calling goroutine's value,
// initializing it first if absent.
//
// Returns a *BorrowError if an exclusive borrow is outstanding.
func (c *Cell[T]) TryBorrow() (*Ref[T], error) {
	st := c.stateOrInit()
	if st.count < 0 {
		return nil, &BorrowError{}
	}
	st.count++
	return &Ref[T]{count: &st.count, value: &st.value}, nil
}

// TryBorrowMut takes an exclusive borrow of the calling goroutine's
// value, initializing it first if absent.
//
// Returns a *BorrowMutError if any borrow, shared or exclusive, is
// outstanding.
func (c *Cell[T]) TryBorrowMut() (*RefMut[T], error) {
	st := c.stateOrInit()
	if st.count != 0 {
		return nil, &BorrowMutError{}
	}
	st.count = -1
	return &RefMut[T]{count: &st.count, value: &st.value}, nil
}

// lookup returns the calling goroutine's live state, if any.
func (c *Cell[T]) lookup() (*state[T], bool) {
	v, ok := c.slot.Get()
	if !ok {
		return nil, false
	}
	return v.(*state[T]), true
}

// stateOrInit returns the calling goroutine's state, running the
// initializer and installing a fresh one if absent. This is the lazy
// construction path shared by all borrow operations.
func (c *Cell[T]) stateOrInit() *state[T] {
	if st, ok := c.lookup(); ok {
		return st
	}
	return c.install()
}

// install constructs a fresh state via the initializer and stores it in
// the calling goroutine's slot. The teardown hook is the implicit
// destroy that runs when the goroutine's storage is reclaimed after the
// goroutine ends; finding live borrows at that point is fatal.
func (c *Cell[T]) install() *state[T] {
	st := &state[T]{}
	if c.init != nil {
		st.value = c.init()
	}
	c.slot.Set(st, func(v any) {
		if v.(*state[T]).count != 0 {
			panic("cell: goroutine ended with live borrows")
		}
	})
	return st
}
