package cell

import "errors"

// BorrowError is returned by TryBorrow when the calling goroutine already
// holds an exclusive borrow of the cell.
//
// It carries no data beyond its kind: the conflict is fully described by
// the current borrow state, and the caller either backs off or treats it
// as fatal by using Borrow instead.
type BorrowError struct{}

func (*BorrowError) Error() string {
	return "already mutably borrowed"
}

// BorrowMutError is returned by TryBorrowMut when the calling goroutine
// already holds any borrow of the cell, shared or exclusive.
type BorrowMutError struct{}

func (*BorrowMutError) Error() string {
	return "already borrowed"
}

// ErrAlreadyInitialized is returned by Initialize when the calling
// goroutine already has a live value in the cell. Initialize never
// replaces live state; use Destroy first to re-initialize.
var ErrAlreadyInitialized = errors.New("cell: already initialized")

// ErrNotInitialized is returned by Destroy when the calling goroutine has
// no live value in the cell.
var ErrNotInitialized = errors.New("cell: not initialized")
