package selection

// Set holds the ids of rows marked for bulk deletion, in the order they were reported.
// The zero value is an empty set.
type Set struct {
	ids []string
}

// Replace swaps the whole selection for ids. Duplicates collapse.
// POST: Len() equals the number of distinct ids
func (s *Set) Replace(ids []string) {
	seen := make(map[string]bool, len(ids))
	next := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		next = append(next, id)
	}
	s.ids = next
}

// IDs returns a copy of the selected ids.
func (s *Set) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Len returns the number of selected ids.
func (s *Set) Len() int {
	return len(s.ids)
}

// IsEmpty reports whether nothing is selected.
func (s *Set) IsEmpty() bool {
	return len(s.ids) == 0
}

// Contains reports whether id is selected.
func (s *Set) Contains(id string) bool {
	for _, v := range s.ids {
		if v == id {
			return true
		}
	}
	return false
}

// Remove drops id from the selection if present.
func (s *Set) Remove(id string) {
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			return
		}
	}
}

// Clear empties the selection.
func (s *Set) Clear() {
	s.ids = nil
}
