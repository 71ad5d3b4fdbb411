package broadphase

import (
	"github.com/sheldonrobinson/jinngine-sub001/actor"
	"github.com/sheldonrobinson/jinngine-sub001/arena"
)

type interval struct {
	handle arena.Handle
	box    actor.AABB
}

// SweepAndPrune sorts boxes by their lower X bound and only tests boxes whose
// X intervals overlap. The order is kept between runs and repaired by
// insertion sort, which is close to linear while objects move little.
type SweepAndPrune struct {
	tracker
	intervals []interval
}

func NewSweepAndPrune(filter Filter) *SweepAndPrune {
	return &SweepAndPrune{tracker: newTracker(filter)}
}

func (s *SweepAndPrune) Add(h arena.Handle, object Bounded) {
	if _, ok := s.objects[h]; !ok {
		s.intervals = append(s.intervals, interval{handle: h})
	}
	s.add(h, object)
}

func (s *SweepAndPrune) Remove(h arena.Handle, handler Handler) {
	if !s.remove(h, handler) {
		return
	}
	for i := range s.intervals {
		if s.intervals[i].handle == h {
			s.intervals = append(s.intervals[:i], s.intervals[i+1:]...)
			break
		}
	}
}

func (s *SweepAndPrune) Run(handler Handler) {
	for i := range s.intervals {
		s.intervals[i].box = s.objects[s.intervals[i].handle].AABB()
	}

	for i := 1; i < len(s.intervals); i++ {
		current := s.intervals[i]
		j := i - 1
		for ; j >= 0 && s.intervals[j].box.Min.X() > current.box.Min.X(); j-- {
			s.intervals[j+1] = s.intervals[j]
		}
		s.intervals[j+1] = current
	}

	for i, a := range s.intervals {
		for _, b := range s.intervals[i+1:] {
			if b.box.Min.X() > a.box.Max.X() {
				break
			}
			s.test(a.handle, b.handle, a.box, b.box)
		}
	}

	s.commit(handler)
}

func (s *SweepAndPrune) Pairs() []Pair {
	return s.pairs()
}

func (s *SweepAndPrune) Len() int {
	return len(s.objects)
}
