// internal/assessment/scoring.go
package assessment

import "math"

// DefaultRecommendationLimit caps the number of resources attached to a result.
const DefaultRecommendationLimit = 5

// ResourceCatalog supplies the curated resources for an industry, in catalog order.
type ResourceCatalog interface {
	Resources(industry Industry) []Resource
}

// Engine turns validated submissions into scored results. It holds no mutable state
// and is safe for concurrent use.
type Engine struct {
	catalog ResourceCatalog
	limit   int
}

// NewEngine creates an engine that ranks resources from catalog. A nil catalog yields
// results without recommendations.
func NewEngine(catalog ResourceCatalog) *Engine {
	return &Engine{
		catalog: catalog,
		limit:   DefaultRecommendationLimit,
	}
}

// CalculateResults scores a submission that already passed ValidateSubmission.
// Responses whose capability ID is not in the capability table are skipped.
func (e *Engine) CalculateResults(sub *Submission) *Result {
	categoryRaw := make(map[Category][]int, len(categoryOrder))
	capabilityResults := make([]CapabilityResult, 0, len(sub.Responses))
	total := 0

	for _, resp := range sub.Responses {
		capability, ok := CapabilityByID(resp.CapabilityID)
		if !ok {
			continue
		}

		weighted := resp.Score * capability.Weight
		total += weighted

		capabilityResults = append(capabilityResults, CapabilityResult{
			Capability:    capability,
			Score:         resp.Score,
			WeightedScore: weighted,
			Tier:          CapabilityTier(resp.Score),
		})
		categoryRaw[capability.Category] = append(categoryRaw[capability.Category], resp.Score)
	}

	categoryScores := make(map[Category]CategoryScore, len(categoryOrder))
	for _, category := range categoryOrder {
		categoryScores[category] = scoreCategory(category, categoryRaw[category])
	}

	maxScore := MaxScore()

	result := &Result{
		Submission:        sub,
		TotalScore:        total,
		MaxScore:          maxScore,
		PercentageScore:   percentage(total, maxScore),
		CategoryScores:    categoryScores,
		CapabilityResults: capabilityResults,
		Recommendations:   []Resource{},
	}

	if e.catalog != nil {
		result.Recommendations = Recommend(
			e.catalog.Resources(sub.Industry),
			sub.TopPriorities,
			capabilityResults,
			e.limit,
		)
	}

	return result
}

func scoreCategory(category Category, scores []int) CategoryScore {
	weight := CategoryWeight(category)
	sum := 0
	for _, s := range scores {
		sum += s
	}
	return CategoryScore{
		Score:    sum * weight,
		MaxScore: len(scores) * MaxMaturityScore * weight,
		Tier:     CategoryTier(scores),
	}
}

func percentage(total, max int) int {
	if max == 0 {
		return 0
	}
	return int(math.Round(float64(total) / float64(max) * 100))
}
