// internal/assessment/recommend.go
package assessment

import "sort"

const (
	priorityBoost = 10
	tierBoost     = 3
)

type scoredResource struct {
	resource Resource
	score    int
}

// Recommend ranks resources by relevance to the stated priorities and computed capability
// results and returns at most limit of them. Ties keep catalog order.
//
// Each priority covered by a resource adds 10. Each capability result the resource covers
// adds (6 - score), plus 3 when the resource is tagged for that result's tier.
func Recommend(resources []Resource, priorities []string, results []CapabilityResult, limit int) []Resource {
	scored := make([]scoredResource, len(resources))
	for i, r := range resources {
		scored[i] = scoredResource{resource: r, score: relevance(r, priorities, results)}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	if limit < 0 {
		limit = 0
	}
	if len(scored) < limit {
		limit = len(scored)
	}

	out := make([]Resource, limit)
	for i := 0; i < limit; i++ {
		out[i] = scored[i].resource
	}
	return out
}

func relevance(r Resource, priorities []string, results []CapabilityResult) int {
	score := 0

	for _, p := range priorities {
		if r.CoversCapability(p) {
			score += priorityBoost
		}
	}

	for _, res := range results {
		if !r.CoversCapability(res.Capability.ID) {
			continue
		}
		score += (MaxMaturityScore + 1) - res.Score
		if r.TargetsTier(res.Tier) {
			score += tierBoost
		}
	}

	return score
}
