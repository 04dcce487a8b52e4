package domain

import "math"

// DominantComponents returns the keys of every component that ties for the
// largest whole-percent composition, in input order. Null percentages count
// as zero.
func DominantComponents(shares []ComponentShare) []string {
	best := math.MinInt
	for _, s := range shares {
		best = max(best, wholePct(s.Pct))
	}
	var keys []string
	for _, s := range shares {
		if wholePct(s.Pct) == best {
			keys = append(keys, s.CoKey)
		}
	}
	return keys
}

func wholePct(pct *float64) int {
	if pct == nil {
		return 0
	}
	return int(*pct)
}
