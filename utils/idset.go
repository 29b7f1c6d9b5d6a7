package utils

import "sort"

// IDSet tracks unique rental identifiers. It is not safe for concurrent use;
// the pipeline runs on a single goroutine.
type IDSet struct {
	seen map[string]struct{}
}

// NewIDSet creates an IDSet holding the given ids.
func NewIDSet(ids ...string) *IDSet {
	s := &IDSet{seen: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add returns true if the id was newly added, false if already present.
func (s *IDSet) Add(id string) bool {
	if _, exists := s.seen[id]; exists {
		return false
	}
	s.seen[id] = struct{}{}
	return true
}

// Contains returns true if the id is in the set.
func (s *IDSet) Contains(id string) bool {
	_, exists := s.seen[id]
	return exists
}

// Size returns the number of unique ids tracked.
func (s *IDSet) Size() int {
	return len(s.seen)
}

// Sorted returns the ids in ascending order so batch membership is the same
// on every run.
func (s *IDSet) Sorted() []string {
	out := make([]string, 0, len(s.seen))
	for id := range s.seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Batches partitions the sorted ids into consecutive chunks of at most size
// elements. Every id appears in exactly one batch.
func (s *IDSet) Batches(size int) [][]string {
	if size < 1 {
		size = 1
	}
	ids := s.Sorted()
	batches := make([][]string, 0, (len(ids)+size-1)/size)
	for i := 0; i < len(ids); i += size {
		end := i + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[i:end])
	}
	return batches
}
