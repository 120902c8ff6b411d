// Package cell provides goroutine-local storage cells with dynamic borrow checking.
//
// A Cell behaves like a runtime-checked reference cell declared once and
// instantiated per goroutine: each goroutine that touches the cell gets its
// own lazily constructed value, borrows it through guard objects that
// enforce single-writer-or-multiple-readers at runtime, and may destroy it
// at any point so the next access re-initializes.
//
// # Quick Start
//
//	package main
//
//	import (
//		"fmt"
//
//		"github.com/kolkov/reflocal/cell"
//	)
//
//	var counter = cell.New(func() int { return 6 })
//
//	func main() {
//		m := counter.BorrowMut()
//		m.Set(m.Get() + 1)
//		m.Release()
//
//		r := counter.Borrow()
//		defer r.Release()
//		fmt.Println(r.Get()) // 7
//	}
//
// # API Overview
//
// The package provides:
//   - Cell declaration: [New]
//   - Lifecycle: [Cell.Initialize], [Cell.IsInitialized], [Cell.Destroy]
//   - Borrowing: [Cell.Borrow], [Cell.BorrowMut], [Cell.TryBorrow], [Cell.TryBorrowMut]
//   - Guard projection: [MapRef], [SplitRef], [MapRefMut], [SplitRefMut]
//   - Version information: [GetInfo], [Version]
//
// # Borrow Semantics
//
// Any number of shared borrows ([Ref]) may coexist on one goroutine, or a
// single exclusive borrow ([RefMut]), never both. The try variants report
// a conflict as an error ([BorrowError], [BorrowMutError]); the plain
// variants treat it as an unrecoverable misuse and panic. Both flavors
// initialize the goroutine's value on demand, while [Cell.Initialize]
// deliberately fails if a value already exists.
//
// Every guard must be released on every exit path, including early returns
// and panics; use defer:
//
//	r := c.Borrow()
//	defer r.Release()
//
// # Goroutine Locality
//
// Values never cross goroutines. Two goroutines using the same Cell
// observe independent initializer runs, independent borrow counters and
// independent destroy histories; mutation on one is never visible on the
// other. A guard must only be used on the goroutine that took it.
//
// # Known Hazards
//
// Go has no goroutine-exit hook, so a goroutine's values are reclaimed by
// an amortized background scan after the goroutine ends. Reclamation that
// finds a borrow still outstanding panics, which terminates the process;
// a goroutine must release all guards before returning. The reclamation
// order across cells of one dead goroutine is unspecified; do not rely
// on one cell's teardown observing another's.
//
// # Links
//
// Project repository:
// https://github.com/kolkov/reflocal
//
// Documentation:
// https://pkg.go.dev/github.com/kolkov/reflocal/cell
package cell
