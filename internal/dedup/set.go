package dedup

// Set is the per-run record of listing IDs already handed to the pipeline.
// It is owned by a single run and not safe for concurrent use.
type Set struct {
	ids map[string]struct{}
}

func NewSet() *Set {
	return &Set{ids: make(map[string]struct{})}
}

// Has reports whether id was already added.
func (s *Set) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Add records id and reports whether it was new.
func (s *Set) Add(id string) bool {
	if s.Has(id) {
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

func (s *Set) Len() int {
	return len(s.ids)
}
