// internal/assessment/tier.go
package assessment

// CapabilityTier maps a single 1-5 score to a tier: <=2 emerging, 3 developing, otherwise leading.
func CapabilityTier(score int) Tier {
	if score <= 2 {
		return TierEmerging
	}
	if score == 3 {
		return TierDeveloping
	}
	return TierLeading
}

// CategoryTier maps the average of a category's raw scores to a tier:
// avg <= 2 emerging, avg <= 3.5 developing, otherwise leading.
// An empty category is emerging.
func CategoryTier(scores []int) Tier {
	if len(scores) == 0 {
		return TierEmerging
	}

	sum := 0
	for _, s := range scores {
		sum += s
	}
	avg := float64(sum) / float64(len(scores))

	switch {
	case avg <= 2:
		return TierEmerging
	case avg <= 3.5:
		return TierDeveloping
	default:
		return TierLeading
	}
}
