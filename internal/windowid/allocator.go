package windowid

import (
	"strconv"
	"sync/atomic"
)

// ID identifies exactly one open window for the lifetime of the process,
// or of its persisted row after a restore.
type ID uint64

func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Allocator hands out fresh window ids. It is safe for concurrent use.
// The zero value is ready and issues 1 first.
type Allocator struct {
	counter atomic.Uint64
}

func New() *Allocator {
	return &Allocator{}
}

func (a *Allocator) Next() ID {
	return ID(a.counter.Add(1))
}

// AdvancePast raises the counter to at least seen so the next id is
// strictly greater than seen. Lower values are ignored.
func (a *Allocator) AdvancePast(seen ID) {
	target := uint64(seen)
	for {
		cur := a.counter.Load()
		if cur >= target {
			return
		}
		if a.counter.CompareAndSwap(cur, target) {
			return
		}
	}
}

// Last returns the most recently issued (or advanced-to) value.
func (a *Allocator) Last() ID {
	return ID(a.counter.Load())
}
