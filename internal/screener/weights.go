package screener

import "smallcap-radar/internal/domain"

// Weights maps condition keys to their score contribution. The weighting is
// deliberately configuration, not logic: tune it here (or swap the map at
// construction) without touching the scorer.
type Weights map[string]float64

// DefaultWeights gives every condition an equal unit weight, so the maximum
// composite score equals the number of conditions.
func DefaultWeights() Weights {
	w := make(Weights, len(domain.ConditionOrder))
	for _, key := range domain.ConditionOrder {
		w[key] = 1
	}
	return w
}

// Max returns the bounded maximum achievable score.
func (w Weights) Max() float64 {
	var total float64
	for _, v := range w {
		total += v
	}
	return total
}
