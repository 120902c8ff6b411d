package cell

// Guard objects returned from successful borrows.
//
// A guard owns a claim on its cell's borrow counter for as long as it
// lives; Release gives the claim back. Guards are not safe to copy, to
// share between goroutines, or to use after Release; each of those is a
// misuse the guard detects and turns into a panic where it can.
//
// The projection functions (MapRef, SplitRefMut, ...) consume their
// input guard: the claim transfers to the derived guard(s), and the
// consumed guard must not be used or released afterwards.

// Ref is a shared, read-only borrow of a cell's value.
//
// Multiple Refs for the same cell and goroutine may coexist. The borrow
// claim must be released on every exit path:
//
//	r := c.Borrow()
//	defer r.Release()
type Ref[T any] struct {
	count *int
	value *T

	// done is set once the guard is released or consumed by a
	// projection; any further use panics.
	done bool
}

// Get returns the borrowed value.
//
// The value is returned by copy: a Ref is a read-only claim, and a copy
// is the only read-only access Go can express. Code that must avoid the
// copy projects to the field it needs with MapRef first.
func (r *Ref[T]) Get() T {
	if r.done {
		panic("cell: use of released Ref")
	}
	return *r.value
}

// Release gives up the shared claim, decrementing the borrow counter.
// Releasing a guard twice, or after a projection consumed it, panics.
func (r *Ref[T]) Release() {
	if r.done {
		panic("cell: Ref released twice")
	}
	r.done = true
	*r.count--
}

// RefMut is an exclusive, mutable borrow of a cell's value.
//
// At most one RefMut (and no Ref) exists per cell and goroutine at a
// time. As with Ref, the claim must be released on every exit path.
type RefMut[T any] struct {
	count *int
	value *T

	// halves counts the guards sharing this exclusive claim after a
	// SplitRefMut. nil means the guard is the sole owner. The counter
	// is reset to 0 by whichever guard releases last, exactly once.
	halves *int

	done bool
}

// Get returns the borrowed value.
func (m *RefMut[T]) Get() T {
	if m.done {
		panic("cell: use of released RefMut")
	}
	return *m.value
}

// Set replaces the borrowed value in place.
func (m *RefMut[T]) Set(v T) {
	if m.done {
		panic("cell: use of released RefMut")
	}
	*m.value = v
}

// Value returns a pointer to the borrowed value for in-place mutation.
//
// The pointer is valid only while the guard is live; it must not be
// retained past Release.
func (m *RefMut[T]) Value() *T {
	if m.done {
		panic("cell: use of released RefMut")
	}
	return m.value
}

// Release gives up the exclusive claim. For guards produced by
// SplitRefMut the underlying counter returns to 0 only when the last
// half is released.
func (m *RefMut[T]) Release() {
	if m.done {
		panic("cell: RefMut released twice")
	}
	m.done = true
	if m.halves != nil {
		*m.halves--
		if *m.halves > 0 {
			return
		}
	}
	*m.count = 0
}

// MapRef projects a shared borrow to a sub-value, consuming r.
//
// f receives the borrowed value and returns a pointer into it (typically
// a field). The shared claim transfers to the returned Ref: the counter
// is not re-incremented, and releasing the new Ref releases the original
// claim. f must treat its argument as read-only.
func MapRef[T, U any](r *Ref[T], f func(*T) *U) *Ref[U] {
	if r.done {
		panic("cell: use of released Ref")
	}
	r.done = true
	return &Ref[U]{count: r.count, value: f(r.value)}
}

// SplitRef projects a shared borrow to two sub-values, consuming r.
//
// Each returned Ref holds its own shared claim, so one extra shared
// count is taken at the split; both halves release independently.
func SplitRef[T, U, V any](r *Ref[T], f func(*T) (*U, *V)) (*Ref[U], *Ref[V]) {
	if r.done {
		panic("cell: use of released Ref")
	}
	u, v := f(r.value)
	r.done = true
	*r.count++
	return &Ref[U]{count: r.count, value: u}, &Ref[V]{count: r.count, value: v}
}

// MapRefMut projects an exclusive borrow to a sub-value, consuming m.
//
// The exclusive claim transfers to the returned RefMut; the counter is
// untouched by the projection itself.
func MapRefMut[T, U any](m *RefMut[T], f func(*T) *U) *RefMut[U] {
	if m.done {
		panic("cell: use of released RefMut")
	}
	m.done = true
	return &RefMut[U]{count: m.count, value: f(m.value), halves: m.halves}
}

// SplitRefMut projects an exclusive borrow to two disjoint sub-values,
// consuming m and returning two independently releasable RefMut guards.
//
// The two halves share the single exclusive claim: the counter stays at
// -1 until both are released and is then reset to 0 exactly once, by the
// last release. Splitting a half again extends the same claim.
//
// f must return pointers to disjoint parts of the value (for example the
// two halves of a slice). The library trusts the projection; the split
// is unsound if the parts alias, and that is not re-verified at runtime.
func SplitRefMut[T, U, V any](m *RefMut[T], f func(*T) (*U, *V)) (*RefMut[U], *RefMut[V]) {
	if m.done {
		panic("cell: use of released RefMut")
	}
	u, v := f(m.value)

	halves := m.halves
	if halves == nil {
		n := 2
		halves = &n
	} else {
		// One existing share becomes two.
		*halves++
	}
	m.done = true

	return &RefMut[U]{count: m.count, value: u, halves: halves},
		&RefMut[V]{count: m.count, value: v, halves: halves}
}
