package widget

import (
	"sort"

	"github.com/maruel/natural"
)

// exceptionSet holds the ids of the branches whose expansion differs from
// the tree's default: expanded ids for a primary tree, collapsed ids for a
// secondary one. Only the exceptions are persisted.
type exceptionSet struct {
	defaultOpen bool
	ids         map[string]struct{}
}

func newExceptionSet(defaultOpen bool, ids ...string) *exceptionSet {
	s := &exceptionSet{defaultOpen: defaultOpen, ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

func (s *exceptionSet) isOpen(id string) bool {
	if _, ok := s.ids[id]; ok {
		return !s.defaultOpen
	}
	return s.defaultOpen
}

func (s *exceptionSet) setOpen(id string, open bool) {
	if open != s.defaultOpen {
		s.ids[id] = struct{}{}
	} else {
		delete(s.ids, id)
	}
}

func (s *exceptionSet) clear() {
	clear(s.ids)
}

func (s *exceptionSet) len() int { return len(s.ids) }

// snapshot returns the ids in natural order. It never returns nil, so an
// empty set is stored as an empty array.
func (s *exceptionSet) snapshot() []string {
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Sort(natural.StringSlice(ids))
	return ids
}
