package cell

import (
	"errors"
	"testing"
)

// mustPanic asserts that f panics.
func mustPanic(t *testing.T, name string, f func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s did not panic", name)
		}
	}()
	f()
}

// countingInit returns an initializer producing v and a pointer to its
// evaluation count.
func countingInit(v int) (func() int, *int) {
	evals := new(int)
	return func() int {
		*evals++
		return v
	}, evals
}

// TestLazyInitialization tests that the first access runs the initializer
// exactly once, whichever operation triggers it, and that IsInitialized
// never does.
func TestLazyInitialization(t *testing.T) {
	tests := []struct {
		name      string
		trigger   func(c *Cell[int])
		wantEvals int
	}{
		{"initialize", func(c *Cell[int]) {
			if err := c.Initialize(); err != nil {
				panic(err)
			}
		}, 1},
		{"borrow", func(c *Cell[int]) { c.Borrow().Release() }, 1},
		{"borrow mut", func(c *Cell[int]) { c.BorrowMut().Release() }, 1},
		{"try borrow", func(c *Cell[int]) {
			r, err := c.TryBorrow()
			if err != nil {
				panic(err)
			}
			r.Release()
		}, 1},
		{"try borrow mut", func(c *Cell[int]) {
			m, err := c.TryBorrowMut()
			if err != nil {
				panic(err)
			}
			m.Release()
		}, 1},
		{"is initialized", func(c *Cell[int]) { c.IsInitialized() }, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			init, evals := countingInit(42)
			c := New(init)

			tt.trigger(c)
			if *evals != tt.wantEvals {
				t.Fatalf("after first access, initializer ran %d times, want %d", *evals, tt.wantEvals)
			}

			// Further accesses never re-run the initializer.
			r := c.Borrow()
			if got := r.Get(); got != 42 {
				t.Errorf("Get() = %d, want 42", got)
			}
			r.Release()
			if *evals != 1 {
				t.Errorf("after second access, initializer ran %d times, want 1", *evals)
			}
		})
	}
}

// TestInitializeStrict tests that Initialize fails on an initialized cell
// without re-running the initializer or disturbing the value.
func TestInitializeStrict(t *testing.T) {
	init, evals := countingInit(10)
	c := New(init)

	if err := c.Initialize(); err != nil {
		t.Fatalf("Initialize() = %v, want nil", err)
	}

	m := c.BorrowMut()
	m.Set(99)
	m.Release()

	if err := c.Initialize(); !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("second Initialize() = %v, want ErrAlreadyInitialized", err)
	}
	if *evals != 1 {
		t.Errorf("initializer ran %d times, want 1", *evals)
	}

	r := c.Borrow()
	defer r.Release()
	if got := r.Get(); got != 99 {
		t.Errorf("value disturbed by failed Initialize: got %d, want 99", got)
	}
}

// TestNilInitializer tests that a nil initializer yields the zero value.
func TestNilInitializer(t *testing.T) {
	c := New[int](nil)

	r := c.Borrow()
	defer r.Release()
	if got := r.Get(); got != 0 {
		t.Errorf("Get() = %d, want zero value 0", got)
	}
}

// TestIsInitialized tests the initialized flag across the lifecycle.
func TestIsInitialized(t *testing.T) {
	c := New(func() int { return 1 })

	if c.IsInitialized() {
		t.Error("IsInitialized() = true before first access")
	}
	if err := c.Initialize(); err != nil {
		t.Fatalf("Initialize() = %v", err)
	}
	if !c.IsInitialized() {
		t.Error("IsInitialized() = false after Initialize")
	}
	if err := c.Destroy(); err != nil {
		t.Fatalf("Destroy() = %v", err)
	}
	if c.IsInitialized() {
		t.Error("IsInitialized() = true after Destroy")
	}
}

// TestDestroy tests destroy and re-initialization.
func TestDestroy(t *testing.T) {
	init, evals := countingInit(5)
	c := New(init)

	if err := c.Destroy(); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("Destroy() on uninitialized cell = %v, want ErrNotInitialized", err)
	}

	m := c.BorrowMut()
	m.Set(50)
	m.Release()

	if err := c.Destroy(); err != nil {
		t.Fatalf("Destroy() = %v, want nil", err)
	}

	// Next access re-runs the initializer; the mutation is gone.
	r := c.Borrow()
	defer r.Release()
	if got := r.Get(); got != 5 {
		t.Errorf("after destroy, Get() = %d, want fresh 5", got)
	}
	if *evals != 2 {
		t.Errorf("initializer ran %d times, want 2", *evals)
	}
}

// TestDestroyWhileBorrowed tests that destroying with a live guard is
// fatal, for both borrow kinds.
func TestDestroyWhileBorrowed(t *testing.T) {
	t.Run("shared", func(t *testing.T) {
		c := New(func() int { return 1 })
		r := c.Borrow()
		mustPanic(t, "Destroy with live Ref", func() { _ = c.Destroy() })
		r.Release()
		if err := c.Destroy(); err != nil {
			t.Errorf("Destroy() after release = %v, want nil", err)
		}
	})

	t.Run("exclusive", func(t *testing.T) {
		c := New(func() int { return 1 })
		m := c.BorrowMut()
		mustPanic(t, "Destroy with live RefMut", func() { _ = c.Destroy() })
		m.Release()
		if err := c.Destroy(); err != nil {
			t.Errorf("Destroy() after release = %v, want nil", err)
		}
	})
}

// TestSharedBorrows tests that nested shared borrows all succeed, observe
// the same value, and block exclusive borrows until the last is released.
func TestSharedBorrows(t *testing.T) {
	const n = 5
	c := New(func() int { return 7 })

	refs := make([]*Ref[int], 0, n)
	for i := 0; i < n; i++ {
		r, err := c.TryBorrow()
		if err != nil {
			t.Fatalf("TryBorrow() #%d = %v, want nil", i+1, err)
		}
		if got := r.Get(); got != 7 {
			t.Errorf("Ref #%d Get() = %d, want 7", i+1, got)
		}
		refs = append(refs, r)
	}

	// Any live shared borrow blocks the exclusive one.
	for len(refs) > 0 {
		var mutErr *BorrowMutError
		if _, err := c.TryBorrowMut(); !errors.As(err, &mutErr) {
			t.Fatalf("TryBorrowMut() with %d refs live = %v, want *BorrowMutError", len(refs), err)
		}
		refs[len(refs)-1].Release()
		refs = refs[:len(refs)-1]
	}

	m, err := c.TryBorrowMut()
	if err != nil {
		t.Fatalf("TryBorrowMut() after all releases = %v, want nil", err)
	}
	m.Release()
}

// TestExclusiveBlocksAll tests that a live exclusive borrow blocks both
// further borrow kinds with the respective error.
func TestExclusiveBlocksAll(t *testing.T) {
	c := New(func() int { return 1 })
	m := c.BorrowMut()

	var borrowErr *BorrowError
	if _, err := c.TryBorrow(); !errors.As(err, &borrowErr) {
		t.Errorf("TryBorrow() = %v, want *BorrowError", err)
	}
	var mutErr *BorrowMutError
	if _, err := c.TryBorrowMut(); !errors.As(err, &mutErr) {
		t.Errorf("TryBorrowMut() = %v, want *BorrowMutError", err)
	}

	m.Release()

	r, err := c.TryBorrow()
	if err != nil {
		t.Fatalf("TryBorrow() after release = %v, want nil", err)
	}
	r.Release()
}

// TestMutateThenRead tests the mutate-through-guard round trip: start at
// 6, write 7 exclusively, read 7 back through a shared borrow.
func TestMutateThenRead(t *testing.T) {
	c := New(func() int { return 6 })

	m, err := c.TryBorrowMut()
	if err != nil {
		t.Fatalf("TryBorrowMut() = %v", err)
	}
	m.Set(m.Get() + 1)
	m.Release()

	r := c.Borrow()
	defer r.Release()
	if got := r.Get(); got != 7 {
		t.Errorf("Get() = %d, want 7", got)
	}
}

// TestDoubleTryBorrowMut tests that a second exclusive borrow fails while
// the first is live.
func TestDoubleTryBorrowMut(t *testing.T) {
	c := New(func() string { return "v" })

	m, err := c.TryBorrowMut()
	if err != nil {
		t.Fatalf("first TryBorrowMut() = %v", err)
	}
	defer m.Release()

	var mutErr *BorrowMutError
	if _, err := c.TryBorrowMut(); !errors.As(err, &mutErr) {
		t.Errorf("second TryBorrowMut() = %v, want *BorrowMutError", err)
	}
}

// TestBorrowPanicsOnConflict tests the non-try entry points' fatal
// behavior on conflicts.
func TestBorrowPanicsOnConflict(t *testing.T) {
	c := New(func() int { return 1 })

	m := c.BorrowMut()
	mustPanic(t, "Borrow with exclusive live", func() { c.Borrow() })
	mustPanic(t, "BorrowMut with exclusive live", func() { c.BorrowMut() })
	m.Release()

	r := c.Borrow()
	mustPanic(t, "BorrowMut with shared live", func() { c.BorrowMut() })
	r.Release()
}

// TestLifecycleSequence walks the full state machine in one sequence:
// uninitialized, shared, free, exclusive, free, destroyed, re-initialized.
func TestLifecycleSequence(t *testing.T) {
	init, evals := countingInit(3)
	c := New(init)

	r1 := c.Borrow()
	r2 := c.Borrow()
	r1.Release()
	r2.Release()

	m := c.BorrowMut()
	m.Set(4)
	m.Release()

	if err := c.Destroy(); err != nil {
		t.Fatalf("Destroy() = %v", err)
	}
	if err := c.Initialize(); err != nil {
		t.Fatalf("Initialize() after destroy = %v", err)
	}

	r := c.Borrow()
	defer r.Release()
	if got := r.Get(); got != 3 {
		t.Errorf("Get() after re-init = %d, want 3", got)
	}
	if *evals != 2 {
		t.Errorf("initializer ran %d times, want 2", *evals)
	}
}
