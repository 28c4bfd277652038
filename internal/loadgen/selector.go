package loadgen

import (
	"math/rand"
	"sort"
)

// Selector chooses endpoints with probability proportional to their weights.
// The cumulative-weight table is built once and read-only afterwards, so a
// Selector is freely shareable across workers; randomness comes from the
// caller-owned source, keeping the hot path free of shared state.
type Selector struct {
	endpoints []Endpoint
	cum       []float64
	total     float64
}

// NewSelector validates the catalog and precomputes the cumulative table.
func NewSelector(endpoints []Endpoint) (*Selector, error) {
	if err := ValidateCatalog(endpoints); err != nil {
		return nil, err
	}

	s := &Selector{
		endpoints: make([]Endpoint, len(endpoints)),
		cum:       make([]float64, len(endpoints)),
	}
	copy(s.endpoints, endpoints)

	for i, ep := range s.endpoints {
		s.total += ep.Weight
		s.cum[i] = s.total
	}
	return s, nil
}

// Pick draws one endpoint: a uniform value in [0, total) selects the first
// entry whose cumulative weight reaches it. Floating-point overshoot falls
// back to the last endpoint rather than erroring.
func (s *Selector) Pick(r *rand.Rand) Endpoint {
	v := r.Float64() * s.total
	idx := sort.SearchFloat64s(s.cum, v)
	if idx >= len(s.endpoints) {
		idx = len(s.endpoints) - 1
	}
	return s.endpoints[idx]
}

// Endpoints returns the catalog in selection order.
func (s *Selector) Endpoints() []Endpoint {
	out := make([]Endpoint, len(s.endpoints))
	copy(out, s.endpoints)
	return out
}
