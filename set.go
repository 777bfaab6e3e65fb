package segsmooth

// Set is a set of dense vertex or face indices. Iteration is always in
// ascending index order.
type Set struct {
	has []bool
	n   int
}

func newSet(size int) *Set {
	return &Set{has: make([]bool, size)}
}

// Add inserts id and reports whether it was not present before.
func (s *Set) Add(id int) bool {
	if s.has[id] {
		return false
	}
	s.has[id] = true
	s.n++
	return true
}

// Has reports whether id belongs to the set.
func (s *Set) Has(id int) bool { return s.has[id] }

// Len returns the amount of elements in the set.
func (s *Set) Len() int { return s.n }

// IDs returns the elements of the set in ascending order.
func (s *Set) IDs() []int {
	ids := make([]int, 0, s.n)
	for id, ok := range s.has {
		if ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// SubsetOf reports whether every element of s belongs to other.
func (s *Set) SubsetOf(other *Set) bool {
	for id, ok := range s.has {
		if ok && !other.Has(id) {
			return false
		}
	}
	return true
}

func (s *Set) clone() *Set {
	return &Set{has: append([]bool(nil), s.has...), n: s.n}
}
