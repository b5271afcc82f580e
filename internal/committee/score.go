package committee

import "github.com/newthinker/quorum/internal/core"

// Weighted pairs an opinion with its composite weight.
type Weighted struct {
	Opinion Opinion
	Weight  float64
}

// Composite is the rounded weighted mean of the available, scored opinions.
// It is 50 when none qualify.
func Composite(ops []Weighted) int {
	var sum, weights float64
	for _, w := range ops {
		if !w.Opinion.Available || !w.Opinion.Scored || w.Weight <= 0 {
			continue
		}
		sum += w.Weight * float64(w.Opinion.Score)
		weights += w.Weight
	}
	if weights == 0 {
		return 50
	}
	return core.ClampFloatScore(sum / weights)
}

// StarsFromScore maps a composite score to conviction stars.
func StarsFromScore(score int) int {
	switch {
	case score >= 80:
		return 5
	case score >= 65:
		return 4
	case score >= 50:
		return 3
	case score >= 35:
		return 2
	default:
		return 1
	}
}
