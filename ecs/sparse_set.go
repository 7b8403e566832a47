package ecs

// store is the type-erased view of a SparseSet the world needs for
// entity destruction and queries.
type store interface {
	has(id entityID) bool
	value(id entityID) any
	remove(id entityID) (any, bool)
	ids() []entityID
	size() int
}

// SparseSet is a cache-friendly storage for components keyed by entity id.
type SparseSet[T any] struct {
	denseEntities []entityID
	denseValues   []*T
	sparse        []int
}

// has reports whether the entity id exists in the set.
func (s *SparseSet[T]) has(id entityID) bool {
	if s == nil || id == 0 || int(id)-1 >= len(s.sparse) {
		return false
	}
	idx := s.sparse[id-1]
	return idx >= 0 && idx < len(s.denseEntities) && s.denseEntities[idx] == id
}

func (s *SparseSet[T]) get(id entityID) *T {
	if !s.has(id) {
		return nil
	}
	return s.denseValues[s.sparse[id-1]]
}

func (s *SparseSet[T]) value(id entityID) any {
	return s.get(id)
}

// set inserts or updates a component for id and returns the value it replaced.
func (s *SparseSet[T]) set(id entityID, v *T) *T {
	for int(id)-1 >= len(s.sparse) {
		s.sparse = append(s.sparse, -1)
	}
	if s.has(id) {
		idx := s.sparse[id-1]
		old := s.denseValues[idx]
		s.denseValues[idx] = v
		return old
	}
	s.denseEntities = append(s.denseEntities, id)
	s.denseValues = append(s.denseValues, v)
	s.sparse[id-1] = len(s.denseEntities) - 1
	return nil
}

// remove deletes the component for id if present.
func (s *SparseSet[T]) remove(id entityID) (any, bool) {
	if !s.has(id) {
		return nil, false
	}
	idx := s.sparse[id-1]
	removed := s.denseValues[idx]
	last := len(s.denseEntities) - 1
	lastID := s.denseEntities[last]

	s.denseEntities[idx] = s.denseEntities[last]
	s.denseValues[idx] = s.denseValues[last]
	s.sparse[lastID-1] = idx

	s.denseEntities = s.denseEntities[:last]
	s.denseValues[last] = nil
	s.denseValues = s.denseValues[:last]
	s.sparse[id-1] = -1
	return removed, true
}

// ids returns a copy of the dense entity id list so callers may mutate the
// set while iterating.
func (s *SparseSet[T]) ids() []entityID {
	if s == nil || len(s.denseEntities) == 0 {
		return nil
	}
	return append([]entityID(nil), s.denseEntities...)
}

func (s *SparseSet[T]) size() int {
	if s == nil {
		return 0
	}
	return len(s.denseEntities)
}
