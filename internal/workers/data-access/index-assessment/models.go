// internal/workers/data-access/index-assessment/models.go
package indexassessment

import (
	"time"

	"aiq-assessment/internal/common/database"
	"aiq-assessment/internal/common/logger"
)

type Input struct {
	AssessmentID     string            `json:"assessmentId"`
	Industry         string            `json:"industry"`
	Email            string            `json:"email"`
	Company          string            `json:"company,omitempty"`
	Title            string            `json:"title,omitempty"`
	SubmittedAt      string            `json:"submittedAt"`
	UTMSource        string            `json:"utmSource,omitempty"`
	UTMMedium        string            `json:"utmMedium,omitempty"`
	UTMCampaign      string            `json:"utmCampaign,omitempty"`
	Referrer         string            `json:"referrer,omitempty"`
	TopPriorities    []string          `json:"topPriorities"`
	TotalScore       int               `json:"totalScore"`
	MaxScore         int               `json:"maxScore"`
	PercentageScore  int               `json:"percentageScore"`
	CategoryScores   map[string]int    `json:"categoryScores"`
	CategoryTiers    map[string]string `json:"categoryTiers"`
	CapabilityScores map[string]int    `json:"capabilityScores"`
}

// Document is the search representation of a submitted assessment. Category maps are keyed
// by field-safe names so the mapping stays stable.
type Document struct {
	AssessmentID     string            `json:"assessmentId"`
	Industry         string            `json:"industry"`
	Email            string            `json:"email"`
	EmailDomain      string            `json:"emailDomain"`
	Company          string            `json:"company,omitempty"`
	Title            string            `json:"title,omitempty"`
	SubmittedAt      string            `json:"submittedAt,omitempty"`
	IndexedAt        string            `json:"indexedAt"`
	UTMSource        string            `json:"utmSource,omitempty"`
	UTMMedium        string            `json:"utmMedium,omitempty"`
	UTMCampaign      string            `json:"utmCampaign,omitempty"`
	Referrer         string            `json:"referrer,omitempty"`
	TopPriorities    []string          `json:"topPriorities"`
	TotalScore       int               `json:"totalScore"`
	MaxScore         int               `json:"maxScore"`
	PercentageScore  int               `json:"percentageScore"`
	CategoryScores   map[string]int    `json:"categoryScores"`
	CategoryTiers    map[string]string `json:"categoryTiers"`
	CapabilityScores map[string]int    `json:"capabilityScores"`
}

type Output struct {
	Success    bool      `json:"success"`
	Message    string    `json:"message"`
	Index      string    `json:"index,omitempty"`
	DocumentID string    `json:"documentId,omitempty"`
	Result     string    `json:"result,omitempty"`
	Version    int64     `json:"version,omitempty"`
	IndexedAt  time.Time `json:"indexedAt,omitempty"`
}

type ServiceDependencies struct {
	Logger        logger.Logger
	Elasticsearch *database.ElasticsearchClient
}

type indexResponse struct {
	ID      string `json:"_id"`
	Result  string `json:"result"`
	Version int64  `json:"_version"`
}
