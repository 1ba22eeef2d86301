package extension

import "sort"

// Store holds the descriptors of one lifecycle generation. Read-only after construction.
type Store struct {
	list   []Extension
	byName map[string]int
}

// NewStore copies list into a new store.
func NewStore(list []Extension) *Store {
	s := &Store{
		list:   append([]Extension(nil), list...),
		byName: make(map[string]int, len(list)),
	}
	for i, e := range s.list {
		s.byName[e.Name] = i
	}
	return s
}

// All returns a copy of every descriptor in discovery order.
func (s *Store) All() []Extension {
	if s == nil {
		return nil
	}
	return append([]Extension(nil), s.list...)
}

// ByType returns the descriptors of one type in discovery order.
func (s *Store) ByType(t Type) []Extension {
	if s == nil {
		return nil
	}
	var out []Extension
	for _, e := range s.list {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// Get looks up a descriptor by name.
func (s *Store) Get(name string) (Extension, bool) {
	if s == nil {
		return Extension{}, false
	}
	i, ok := s.byName[name]
	if !ok {
		return Extension{}, false
	}
	return s.list[i], true
}

// Names returns sorted names, optionally limited to one type (empty means all).
func (s *Store) Names(t Type) []string {
	if s == nil {
		return []string{}
	}
	names := make([]string, 0, len(s.list))
	for _, e := range s.list {
		if t == "" || e.Type == t {
			names = append(names, e.Name)
		}
	}
	sort.Strings(names)
	return names
}

// Len is the number of descriptors.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.list)
}
