// Package broadphase finds the geometry pairs whose bounding boxes overlap.
//
// Strategies keep the pair set of the previous run and report only changes:
// Handler.Overlap fires once when a pair starts overlapping and
// Handler.Separation once when it stops, however many runs happen in between.
// Events of one run are delivered separations first, each group in Pair order.
package broadphase

import (
	"slices"

	"github.com/sheldonrobinson/jinngine-sub001/actor"
	"github.com/sheldonrobinson/jinngine-sub001/arena"
)

// Pair is an unordered pair of handles stored with A before B
type Pair struct {
	A, B arena.Handle
}

func NewPair(a, b arena.Handle) Pair {
	if b.Less(a) {
		a, b = b, a
	}

	return Pair{A: a, B: b}
}

// Contains reports whether h is one side of the pair
func (p Pair) Contains(h arena.Handle) bool {
	return p.A == h || p.B == h
}

func comparePairs(p, q Pair) int {
	switch {
	case p.A.Less(q.A):
		return -1
	case q.A.Less(p.A):
		return 1
	case p.B.Less(q.B):
		return -1
	case q.B.Less(p.B):
		return 1
	}

	return 0
}

// Handler receives pair transitions
type Handler interface {
	Overlap(pair Pair)
	Separation(pair Pair)
}

// HandlerFuncs adapts two callbacks to Handler. Nil callbacks are ignored.
type HandlerFuncs struct {
	OnOverlap    func(pair Pair)
	OnSeparation func(pair Pair)
}

func (h HandlerFuncs) Overlap(pair Pair) {
	if h.OnOverlap != nil {
		h.OnOverlap(pair)
	}
}

func (h HandlerFuncs) Separation(pair Pair) {
	if h.OnSeparation != nil {
		h.OnSeparation(pair)
	}
}

// Bounded is anything with a world-space bounding box
type Bounded interface {
	AABB() actor.AABB
}

// Filter returns false for pairs that must never be reported, such as two
// geometries of the same body
type Filter func(a, b arena.Handle) bool

// Strategy is a broad-phase algorithm
type Strategy interface {
	// Add starts tracking object under h
	Add(h arena.Handle, object Bounded)
	// Remove stops tracking h and reports the separation of every pair it is part of
	Remove(h arena.Handle, handler Handler)
	// Run recomputes the overlapping pairs and reports the transitions
	Run(handler Handler)
	// Pairs returns the overlapping pairs of the last run, in Pair order
	Pairs() []Pair
	Len() int
}

// tracker holds the object set and the pair bookkeeping shared by strategies
type tracker struct {
	objects map[arena.Handle]Bounded
	filter  Filter

	live    map[Pair]struct{}
	current map[Pair]struct{}
	events  []Pair
}

func newTracker(filter Filter) tracker {
	return tracker{
		objects: make(map[arena.Handle]Bounded),
		filter:  filter,
		live:    make(map[Pair]struct{}),
		current: make(map[Pair]struct{}),
	}
}

func (t *tracker) add(h arena.Handle, object Bounded) {
	t.objects[h] = object
}

func (t *tracker) remove(h arena.Handle, handler Handler) bool {
	if _, ok := t.objects[h]; !ok {
		return false
	}
	delete(t.objects, h)

	t.events = t.events[:0]
	for pair := range t.live {
		if pair.Contains(h) {
			t.events = append(t.events, pair)
		}
	}
	slices.SortFunc(t.events, comparePairs)
	for _, pair := range t.events {
		delete(t.live, pair)
		handler.Separation(pair)
	}

	return true
}

// test records the pair (a, b) for this run when it passes the filter and the boxes overlap
func (t *tracker) test(a, b arena.Handle, boxA, boxB actor.AABB) {
	if a == b {
		return
	}
	pair := NewPair(a, b)
	if _, ok := t.current[pair]; ok {
		return
	}
	if t.filter != nil && !t.filter(pair.A, pair.B) {
		return
	}
	if boxA.Overlaps(boxB) {
		t.current[pair] = struct{}{}
	}
}

// commit diffs this run against the previous one, fires the transitions and swaps the sets
func (t *tracker) commit(handler Handler) {
	t.events = t.events[:0]
	for pair := range t.live {
		if _, ok := t.current[pair]; !ok {
			t.events = append(t.events, pair)
		}
	}
	slices.SortFunc(t.events, comparePairs)
	for _, pair := range t.events {
		handler.Separation(pair)
	}

	t.events = t.events[:0]
	for pair := range t.current {
		if _, ok := t.live[pair]; !ok {
			t.events = append(t.events, pair)
		}
	}
	slices.SortFunc(t.events, comparePairs)
	for _, pair := range t.events {
		handler.Overlap(pair)
	}

	t.live, t.current = t.current, t.live
	clear(t.current)
}

func (t *tracker) pairs() []Pair {
	result := make([]Pair, 0, len(t.live))
	for pair := range t.live {
		result = append(result, pair)
	}
	slices.SortFunc(result, comparePairs)

	return result
}

// sortedHandles lists the tracked handles in slot order
func (t *tracker) sortedHandles(buffer []arena.Handle) []arena.Handle {
	buffer = buffer[:0]
	for h := range t.objects {
		buffer = append(buffer, h)
	}
	slices.SortFunc(buffer, func(a, b arena.Handle) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		}
		return 0
	})

	return buffer
}
