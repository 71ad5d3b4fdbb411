package graph

// orderedSet keeps insertion order so that iteration is reproducible run to run.
// Removal swaps the last element into the hole.
type orderedSet[T comparable] struct {
	items []T
	index map[T]int
}

func newOrderedSet[T comparable]() orderedSet[T] {
	return orderedSet[T]{index: make(map[T]int)}
}

func (s *orderedSet[T]) add(item T) bool {
	if _, ok := s.index[item]; ok {
		return false
	}
	s.index[item] = len(s.items)
	s.items = append(s.items, item)

	return true
}

func (s *orderedSet[T]) remove(item T) bool {
	i, ok := s.index[item]
	if !ok {
		return false
	}

	last := len(s.items) - 1
	if i != last {
		moved := s.items[last]
		s.items[i] = moved
		s.index[moved] = i
	}
	var zero T
	s.items[last] = zero
	s.items = s.items[:last]
	delete(s.index, item)

	return true
}

func (s *orderedSet[T]) has(item T) bool {
	_, ok := s.index[item]
	return ok
}

func (s *orderedSet[T]) len() int {
	return len(s.items)
}
