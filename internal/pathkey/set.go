// Package pathkey provides an ordered set of workspace-relative paths with
// the lower-bound lookup the visible-prefix predicate needs (spec §3, §9):
// a path P is visible to a job if P itself was declared visible, or some
// ancestor directory D was declared visible (P has prefix "D/").
//
// The set is a sorted slice searched with sort.Search, the same asymptotic
// shape as the C++ original's std::set<std::string>::lower_bound. An
// in-memory, per-job set that is discarded when the job ends does not
// warrant a persistent or disk-backed ordered-map dependency; see
// DESIGN.md for the fuller justification.
package pathkey

import "sort"

// Set is an ordered set of distinct strings supporting prefix-ancestor
// lookups. The zero value is an empty set ready to use.
type Set struct {
	items []string
}

// NewSet builds a Set from the given paths, deduplicating and sorting them.
func NewSet(paths ...string) *Set {
	s := &Set{}
	for _, p := range paths {
		s.Insert(p)
	}

	return s
}

func (s *Set) search(path string) int {
	return sort.Search(len(s.items), func(i int) bool { return s.items[i] >= path })
}

// Insert adds path to the set. No-op if already present.
func (s *Set) Insert(path string) {
	i := s.search(path)
	if i < len(s.items) && s.items[i] == path {
		return
	}

	s.items = append(s.items, "")
	copy(s.items[i+1:], s.items[i:])
	s.items[i] = path
}

// Remove deletes path from the set. No-op if absent.
func (s *Set) Remove(path string) {
	i := s.search(path)
	if i < len(s.items) && s.items[i] == path {
		s.items = append(s.items[:i], s.items[i+1:]...)
	}
}

// Contains reports whether path is a member of the set.
func (s *Set) Contains(path string) bool {
	i := s.search(path)
	return i < len(s.items) && s.items[i] == path
}

// Len reports the number of members.
func (s *Set) Len() int { return len(s.items) }

// Items returns the members in sorted order. The caller must not mutate the
// returned slice.
func (s *Set) Items() []string { return s.items }

// HasAncestor reports whether some member D of the set satisfies path == D
// or path has prefix "D/" — the visible-prefix predicate of spec §3.
//
// path itself and then every proper "/"-delimited prefix of path are each
// looked up with the set's binary search. Checking only path's immediate
// predecessor in sorted order is not enough: an unrelated member can sort
// between an ancestor and path (with members "lib" and "lib-a", the
// predecessor of "lib/x" is "lib-a", since '-' sorts before '/').
func (s *Set) HasAncestor(path string) bool {
	if s.Contains(path) {
		return true
	}

	for i := len(path) - 1; i > 0; i-- {
		if path[i] == '/' && s.Contains(path[:i]) {
			return true
		}
	}

	return false
}
