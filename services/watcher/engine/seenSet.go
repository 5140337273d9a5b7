package engine

// seenSet remembers the last capacity keys, forgetting the oldest first
type seenSet struct {
	capacity int
	keys     map[string]struct{}
	order    []string
}

func newSeenSet(capacity int) *seenSet {
	return &seenSet{
		capacity: capacity,
		keys:     make(map[string]struct{}, capacity),
		order:    make([]string, 0, capacity),
	}
}

func (s *seenSet) has(key string) bool {
	_, found := s.keys[key]
	return found
}

func (s *seenSet) add(key string) {
	if s.has(key) {
		return
	}

	if len(s.order) == s.capacity {
		delete(s.keys, s.order[0])
		copy(s.order, s.order[1:])
		s.order = s.order[:len(s.order)-1]
	}

	s.keys[key] = struct{}{}
	s.order = append(s.order, key)
}

func (s *seenSet) len() int {
	return len(s.order)
}
