// internal/workers/communication/send-lead-notification/models.go
package sendleadnotification

import (
	"context"
	"time"

	"aiq-assessment/internal/common/aws"
	"aiq-assessment/internal/common/logger"
)

// EventAssessmentSubmitted is the SNS eventType attribute of published leads.
const EventAssessmentSubmitted = "assessment.submitted"

type Input struct {
	AssessmentID    string            `json:"assessmentId"`
	Industry        string            `json:"industry"`
	Email           string            `json:"email"`
	Name            string            `json:"name,omitempty"`
	Title           string            `json:"title,omitempty"`
	Company         string            `json:"company,omitempty"`
	SubmittedAt     string            `json:"submittedAt"`
	TopPriorities   []string          `json:"topPriorities"`
	PriorityNotes   string            `json:"priorityNotes,omitempty"`
	TotalScore      int               `json:"totalScore"`
	MaxScore        int               `json:"maxScore"`
	PercentageScore int               `json:"percentageScore"`
	CategoryScores  map[string]int    `json:"categoryScores"`
	CategoryTiers   map[string]string `json:"categoryTiers"`
}

type Output struct {
	Success        bool      `json:"success"`
	Message        string    `json:"message"`
	MessageID      string    `json:"messageId,omitempty"`
	EventPublished bool      `json:"eventPublished"`
	EventID        string    `json:"eventId,omitempty"`
	SentAt         time.Time `json:"sentAt,omitempty"`
}

// SubmittedEvent is the SNS payload announcing a new lead.
type SubmittedEvent struct {
	AssessmentID    string   `json:"assessmentId"`
	Industry        string   `json:"industry"`
	Email           string   `json:"email"`
	Company         string   `json:"company,omitempty"`
	PercentageScore int      `json:"percentageScore"`
	TopPriorities   []string `json:"topPriorities"`
	SubmittedAt     string   `json:"submittedAt"`
}

type Emailer interface {
	Send(ctx context.Context, msg aws.EmailMessage) (string, error)
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, topicARN, eventType string, payload interface{}) (string, error)
}

type ServiceDependencies struct {
	Logger    logger.Logger
	Emailer   Emailer
	Publisher EventPublisher
}
