package notify

// deviceSet is the set of currently attached devices relevant to this
// plugin, keyed by a backend chosen position string (bus:address).
type deviceSet map[string]struct{}

func (s deviceSet) add(key string) {
	s[key] = struct{}{}
}

func (s deviceSet) equal(other deviceSet) bool {
	if len(s) != len(other) {
		return false
	}
	for key := range s {
		_, ok := other[key]
		if !ok {
			return false
		}
	}
	return true
}

// diff counts arrivals and departures between two observations.
func (s deviceSet) diff(current deviceSet) (added, removed int) {
	for key := range current {
		if _, ok := s[key]; !ok {
			added++
		}
	}
	for key := range s {
		if _, ok := current[key]; !ok {
			removed++
		}
	}
	return added, removed
}
