// internal/workers/crm/sync-assessment-contact/models.go
package syncassessmentcontact

import (
	"context"
	"time"

	"aiq-assessment/internal/common/hubspot"
	"aiq-assessment/internal/common/logger"
)

type Input struct {
	AssessmentID     string         `json:"assessmentId"`
	Industry         string         `json:"industry"`
	Email            string         `json:"email"`
	Name             string         `json:"name,omitempty"`
	Title            string         `json:"title,omitempty"`
	Company          string         `json:"company,omitempty"`
	ConsentGiven     bool           `json:"consentGiven"`
	ConsentTimestamp string         `json:"consentTimestamp"`
	SubmittedAt      string         `json:"submittedAt"`
	UTMSource        string         `json:"utmSource,omitempty"`
	UTMMedium        string         `json:"utmMedium,omitempty"`
	UTMCampaign      string         `json:"utmCampaign,omitempty"`
	TopPriorities    []string       `json:"topPriorities"`
	PriorityNotes    string         `json:"priorityNotes,omitempty"`
	TotalScore       int            `json:"totalScore"`
	MaxScore         int            `json:"maxScore"`
	PercentageScore  int            `json:"percentageScore"`
	CategoryScores   map[string]int `json:"categoryScores"`
	CapabilityScores map[string]int `json:"capabilityScores"`
}

type Output struct {
	Success        bool      `json:"success"`
	Message        string    `json:"message"`
	ContactID      string    `json:"contactId,omitempty"`
	ContactCreated bool      `json:"contactCreated"`
	SyncedAt       time.Time `json:"syncedAt,omitempty"`
}

// ContactClient is the part of the HubSpot API the sync needs.
type ContactClient interface {
	UpsertContact(ctx context.Context, props hubspot.Properties) (string, bool, error)
	UpdateContact(ctx context.Context, contactID string, props hubspot.Properties) error
}

type ServiceDependencies struct {
	Logger logger.Logger
	CRM    ContactClient
}
