// Package arena stores values in reusable slots addressed by generation-checked handles.
//
// Bodies and geometries reference each other through handles rather than pointers,
// so removing one side never leaves the other holding a dangling back-reference:
// a stale handle simply fails to resolve.
package arena

import "iter"

// Handle addresses a slot of an Arena. The zero Handle never resolves.
type Handle struct {
	index      uint32
	generation uint32
}

// Index returns the slot position of the handle.
func (h Handle) Index() int {
	return int(h.index)
}

// Valid reports whether the handle was ever issued by an arena.
func (h Handle) Valid() bool {
	return h.generation != 0
}

// Less orders handles by slot, then generation.
func (h Handle) Less(other Handle) bool {
	if h.index != other.index {
		return h.index < other.index
	}
	return h.generation < other.generation
}

type slot[T any] struct {
	value      T
	generation uint32
	used       bool
}

// Arena is a growable set of slots. Freed slots are recycled with a bumped generation.
type Arena[T any] struct {
	slots []slot[T]
	free  []uint32
	count int
}

// New creates an arena with room for capacity values.
func New[T any](capacity int) *Arena[T] {
	return &Arena[T]{
		slots: make([]slot[T], 0, capacity),
	}
}

// Insert stores value and returns its handle.
func (a *Arena[T]) Insert(value T) Handle {
	a.count++

	if n := len(a.free); n > 0 {
		index := a.free[n-1]
		a.free = a.free[:n-1]

		s := &a.slots[index]
		s.value = value
		s.used = true

		return Handle{index: index, generation: s.generation}
	}

	a.slots = append(a.slots, slot[T]{value: value, generation: 1, used: true})

	return Handle{index: uint32(len(a.slots) - 1), generation: 1}
}

// Get resolves h. The boolean is false for stale or unknown handles.
func (a *Arena[T]) Get(h Handle) (T, bool) {
	var zero T
	if !a.live(h) {
		return zero, false
	}

	return a.slots[h.index].value, true
}

// Remove frees the slot of h and returns the value it held.
func (a *Arena[T]) Remove(h Handle) (T, bool) {
	var zero T
	if !a.live(h) {
		return zero, false
	}

	s := &a.slots[h.index]
	value := s.value
	s.value = zero
	s.used = false
	s.generation++
	if s.generation == 0 {
		// wrapped around, skip the invalid generation
		s.generation = 1
	}
	a.free = append(a.free, h.index)
	a.count--

	return value, true
}

// Len returns the number of live values.
func (a *Arena[T]) Len() int {
	return a.count
}

// All iterates the live values in slot order.
func (a *Arena[T]) All() iter.Seq2[Handle, T] {
	return func(yield func(Handle, T) bool) {
		for i := range a.slots {
			s := &a.slots[i]
			if !s.used {
				continue
			}
			if !yield(Handle{index: uint32(i), generation: s.generation}, s.value) {
				return
			}
		}
	}
}

func (a *Arena[T]) live(h Handle) bool {
	if h.generation == 0 || int(h.index) >= len(a.slots) {
		return false
	}
	s := &a.slots[h.index]

	return s.used && s.generation == h.generation
}
