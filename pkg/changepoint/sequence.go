package changepoint

import "fmt"

// Sequence holds the observed count series for one analysis unit, for example
// one country and one protest type. Counts are immutable once constructed;
// time indices are months numbered from 1 in reports, zero-based internally.
type Sequence struct {
	id     string
	counts []int
}

// NewSequence validates and wraps a count series. The series must be
// non-empty and contain only non-negative values.
func NewSequence(id string, counts []int) (*Sequence, error) {
	if len(counts) == 0 {
		return nil, fmt.Errorf("%w: series %q is empty", ErrInvalidInput, id)
	}

	for t, y := range counts {
		if y < 0 {
			return nil, fmt.Errorf("%w: series %q has negative count %d at index %d", ErrInvalidInput, id, y, t+1)
		}
	}

	owned := make([]int, len(counts))
	copy(owned, counts)

	return &Sequence{id: id, counts: owned}, nil
}

// ID returns the series identifier.
func (s *Sequence) ID() string { return s.id }

// Len returns the number of observations.
func (s *Sequence) Len() int { return len(s.counts) }

// Count returns the observation at zero-based index t.
func (s *Sequence) Count(t int) int { return s.counts[t] }

// Counts returns a copy of the full count series.
func (s *Sequence) Counts() []int {
	out := make([]int, len(s.counts))
	copy(out, s.counts)

	return out
}

// Total returns the sum of all counts.
func (s *Sequence) Total() int {
	var sum int

	for _, y := range s.counts {
		sum += y
	}

	return sum
}
