// Package stat implements the running five-tuple aggregate
// (count, sum, sum2, min, max) used to summarize a numeric field.
package stat

// Stat is a running aggregate over a stream of float64 values.
// The zero value is a valid, empty Stat.
type Stat struct {
	Count uint64
	Sum   float64
	Sum2  float64
	Min   float64
	Max   float64
}

// Init resets s to the empty aggregate.
func (s *Stat) Init() {
	*s = Stat{}
}

// Add folds x into s.
//
// NaN values are counted but never update Min/Max: the comparisons
// below are false for NaN on either side, so min/max silently keep
// their previous value. This is required for Merge to stay
// associative when NaN values are present.
func (s *Stat) Add(x float64) {
	if s.Count == 0 {
		s.Min = x
		s.Max = x
	} else {
		if x < s.Min {
			s.Min = x
		}
		if x > s.Max {
			s.Max = x
		}
	}
	s.Sum += x
	s.Sum2 += x * x
	s.Count++
}

// AddBadValue increments Count without touching Sum/Sum2/Min/Max, for
// a record whose targeted field was present but not a JSON Number.
func (s *Stat) AddBadValue() {
	s.Count++
}

// Merge combines other into s. Merge is associative and commutative.
func (s *Stat) Merge(other *Stat) {
	if other.Count == 0 {
		return
	}
	if s.Count == 0 {
		*s = *other
		return
	}
	if other.Min < s.Min {
		s.Min = other.Min
	}
	if other.Max > s.Max {
		s.Max = other.Max
	}
	s.Sum += other.Sum
	s.Sum2 += other.Sum2
	s.Count += other.Count
}

// Clone returns an independent copy of s.
func (s *Stat) Clone() *Stat {
	c := *s
	return &c
}

// Result is the JSON-shaped emission of a Stat.
type Result struct {
	Avg   *float64 `json:"avg"`
	Sum   float64  `json:"sum"`
	Min   *float64 `json:"min"`
	Max   *float64 `json:"max"`
	Count uint64   `json:"count"`
}

// ToResult converts s to its output representation.
func (s *Stat) ToResult() Result {
	if s.Count == 0 {
		return Result{Count: 0, Sum: 0}
	}
	avg := s.Sum / float64(s.Count)
	min := s.Min
	max := s.Max
	return Result{
		Avg:   &avg,
		Sum:   s.Sum,
		Min:   &min,
		Max:   &max,
		Count: s.Count,
	}
}
