// internal/assessment/models.go
// Package assessment scores AI-maturity self-assessments and ranks follow-up resources.
package assessment

// Industry selects the content variant (prompts, narratives, resources).
type Industry string

const (
	IndustryHealthcare Industry = "healthcare"
	IndustryLegal      Industry = "legal"

	// IndustryAll marks a resource that is shared across industries.
	IndustryAll Industry = "all"
)

// SupportedIndustries lists the industries a submission may target, in display order.
var SupportedIndustries = []Industry{IndustryHealthcare, IndustryLegal}

// IsSupported reports whether i is an industry a submission may target.
func (i Industry) IsSupported() bool {
	for _, s := range SupportedIndustries {
		if i == s {
			return true
		}
	}
	return false
}

// Tier is the coarse maturity label derived from one or more scores.
type Tier string

const (
	TierEmerging   Tier = "emerging"
	TierDeveloping Tier = "developing"
	TierLeading    Tier = "leading"
)

// Tiers returns the three tiers in ascending maturity order.
func Tiers() []Tier {
	return []Tier{TierEmerging, TierDeveloping, TierLeading}
}

// Category groups capabilities and carries the weight applied to their scores.
type Category string

const (
	CategoryOrganizationFoundations Category = "Organization Foundations"
	CategoryProductLifecycle        Category = "Product Lifecycle"
	CategoryDataInfrastructure      Category = "Data Infrastructure"
	CategoryAIMachineLearning       Category = "AI & Machine Learning"
)

// Capability is one of the fixed assessable dimensions.
type Capability struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Weight   int      `json:"weight"`
}

// CapabilityResponse is a single self-rating from the survey.
type CapabilityResponse struct {
	CapabilityID string `json:"capabilityId"`
	Score        int    `json:"score"`
}

// Submission is the complete survey payload. ID and SubmittedAt are assigned by the server.
type Submission struct {
	ID               string               `json:"id,omitempty"`
	Industry         Industry             `json:"industry"`
	Email            string               `json:"email"`
	Name             string               `json:"name,omitempty"`
	Title            string               `json:"title,omitempty"`
	Company          string               `json:"company,omitempty"`
	Responses        []CapabilityResponse `json:"responses"`
	TopPriorities    []string             `json:"topPriorities"`
	PriorityNotes    string               `json:"priorityNotes,omitempty"`
	ConsentGiven     bool                 `json:"consentGiven"`
	ConsentTimestamp string               `json:"consentTimestamp"`
	UTMSource        string               `json:"utmSource,omitempty"`
	UTMMedium        string               `json:"utmMedium,omitempty"`
	UTMCampaign      string               `json:"utmCampaign,omitempty"`
	Referrer         string               `json:"referrer,omitempty"`
	SubmittedAt      string               `json:"submittedAt,omitempty"`
}

// CapabilityResult is the scored view of one matched response.
type CapabilityResult struct {
	Capability    Capability `json:"capability"`
	Score         int        `json:"score"`
	WeightedScore int        `json:"weightedScore"`
	Tier          Tier       `json:"tier"`
}

// CategoryScore aggregates the matched responses of one category.
type CategoryScore struct {
	Score    int  `json:"score"`
	MaxScore int  `json:"maxScore"`
	Tier     Tier `json:"tier"`
}

// ResourceType classifies a recommended resource.
type ResourceType string

const (
	ResourceCaseStudy  ResourceType = "case_study"
	ResourcePlaybook   ResourceType = "playbook"
	ResourceWebinar    ResourceType = "webinar"
	ResourceArticle    ResourceType = "article"
	ResourceWhitepaper ResourceType = "whitepaper"
)

// Resource is a curated follow-up item tagged by capability and tier.
type Resource struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	Type          ResourceType `json:"type"`
	URL           string       `json:"url"`
	Industry      Industry     `json:"industry"`
	Capabilities  []string     `json:"capabilities"`
	MaturityTiers []Tier       `json:"maturityTiers"`
}

// CoversCapability reports whether the resource addresses capabilityID.
func (r Resource) CoversCapability(capabilityID string) bool {
	for _, c := range r.Capabilities {
		if c == capabilityID {
			return true
		}
	}
	return false
}

// TargetsTier reports whether the resource is tagged for tier.
func (r Resource) TargetsTier(tier Tier) bool {
	for _, t := range r.MaturityTiers {
		if t == tier {
			return true
		}
	}
	return false
}

// Result is the computed report for one submission.
type Result struct {
	Submission        *Submission                `json:"submission"`
	TotalScore        int                        `json:"totalScore"`
	MaxScore          int                        `json:"maxScore"`
	PercentageScore   int                        `json:"percentageScore"`
	CategoryScores    map[Category]CategoryScore `json:"categoryScores"`
	CapabilityResults []CapabilityResult         `json:"capabilityResults"`
	Recommendations   []Resource                 `json:"recommendations"`
}
