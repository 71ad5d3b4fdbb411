package broadphase

import (
	"github.com/sheldonrobinson/jinngine-sub001/actor"
	"github.com/sheldonrobinson/jinngine-sub001/arena"
)

// Exhaustive tests every pair of objects, O(n²) per run. It is the reference
// the other strategies are checked against.
type Exhaustive struct {
	tracker
	handles []arena.Handle
	boxes   []actor.AABB
}

func NewExhaustive(filter Filter) *Exhaustive {
	return &Exhaustive{tracker: newTracker(filter)}
}

func (e *Exhaustive) Add(h arena.Handle, object Bounded) {
	e.add(h, object)
}

func (e *Exhaustive) Remove(h arena.Handle, handler Handler) {
	e.remove(h, handler)
}

func (e *Exhaustive) Run(handler Handler) {
	e.handles = e.sortedHandles(e.handles)
	e.boxes = e.boxes[:0]
	for _, h := range e.handles {
		e.boxes = append(e.boxes, e.objects[h].AABB())
	}

	for i := range e.handles {
		for j := i + 1; j < len(e.handles); j++ {
			e.test(e.handles[i], e.handles[j], e.boxes[i], e.boxes[j])
		}
	}

	e.commit(handler)
}

func (e *Exhaustive) Pairs() []Pair {
	return e.pairs()
}

func (e *Exhaustive) Len() int {
	return len(e.objects)
}
