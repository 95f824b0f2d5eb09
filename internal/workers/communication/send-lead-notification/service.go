// internal/workers/communication/send-lead-notification/service.go
package sendleadnotification

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"aiq-assessment/internal/common/aws"
	"aiq-assessment/internal/common/errors"
	"aiq-assessment/internal/common/logger"
)

type Service struct {
	config    *Config
	logger    logger.Logger
	emailer   Emailer
	publisher EventPublisher
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config:    config,
		logger:    deps.Logger,
		emailer:   deps.Emailer,
		publisher: deps.Publisher,
	}
}

// Execute emails the sales inbox and, when enabled, publishes the lead event.
// A failed publish is reported in the output but does not fail the job, so a retry
// never sends the email twice.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	s.logger.Info("Sending lead notification", map[string]interface{}{
		"assessmentId": input.AssessmentID,
		"industry":     input.Industry,
	})

	if s.emailer == nil {
		return nil, errors.NewNotificationSendFailedError("email", fmt.Errorf("email client not configured"))
	}

	messageID, err := s.emailer.Send(ctx, aws.EmailMessage{
		From:    s.config.FromEmail,
		To:      []string{s.config.SalesEmail},
		ReplyTo: []string{input.Email},
		Subject: BuildSubject(input),
		Text:    BuildBody(input),
	})
	if err != nil {
		return nil, errors.NewNotificationSendFailedError("email", err)
	}

	output := &Output{
		Success:   true,
		Message:   "Lead notification sent",
		MessageID: messageID,
		SentAt:    time.Now().UTC(),
	}

	if s.config.SNSEnabled && s.publisher != nil {
		eventID, err := s.publisher.PublishEvent(ctx, s.config.TopicARN, EventAssessmentSubmitted, SubmittedEvent{
			AssessmentID:    input.AssessmentID,
			Industry:        input.Industry,
			Email:           input.Email,
			Company:         input.Company,
			PercentageScore: input.PercentageScore,
			TopPriorities:   input.TopPriorities,
			SubmittedAt:     input.SubmittedAt,
		})
		if err != nil {
			s.logger.WithError(err).Warn("Failed to publish lead event", map[string]interface{}{
				"assessmentId": input.AssessmentID,
				"topicArn":     s.config.TopicARN,
			})
		} else {
			output.EventPublished = true
			output.EventID = eventID
		}
	}

	s.logger.Info("Lead notification sent", map[string]interface{}{
		"assessmentId":   input.AssessmentID,
		"messageId":      messageID,
		"eventPublished": output.EventPublished,
	})

	return output, nil
}

func BuildSubject(input *Input) string {
	who := input.Company
	if who == "" {
		who = input.Email
	}
	return fmt.Sprintf("New AI maturity assessment: %s (%d%%, %s)", who, input.PercentageScore, input.Industry)
}

// BuildBody renders the plain-text lead summary. Categories are listed alphabetically.
func BuildBody(input *Input) string {
	var builder strings.Builder

	builder.WriteString("A new AI maturity assessment was submitted.\n\n")
	builder.WriteString(fmt.Sprintf("Assessment: %s\n", input.AssessmentID))
	builder.WriteString(fmt.Sprintf("Submitted:  %s\n", input.SubmittedAt))
	builder.WriteString(fmt.Sprintf("Industry:   %s\n\n", input.Industry))

	builder.WriteString("Contact\n")
	builder.WriteString(fmt.Sprintf("  Email:   %s\n", input.Email))
	if input.Name != "" {
		builder.WriteString(fmt.Sprintf("  Name:    %s\n", input.Name))
	}
	if input.Title != "" {
		builder.WriteString(fmt.Sprintf("  Title:   %s\n", input.Title))
	}
	if input.Company != "" {
		builder.WriteString(fmt.Sprintf("  Company: %s\n", input.Company))
	}

	builder.WriteString(fmt.Sprintf("\nScore: %d / %d (%d%%)\n", input.TotalScore, input.MaxScore, input.PercentageScore))

	if len(input.CategoryScores) > 0 {
		categories := make([]string, 0, len(input.CategoryScores))
		for c := range input.CategoryScores {
			categories = append(categories, c)
		}
		sort.Strings(categories)

		for _, c := range categories {
			line := fmt.Sprintf("  %s: %d", c, input.CategoryScores[c])
			if tier := input.CategoryTiers[c]; tier != "" {
				line += fmt.Sprintf(" (%s)", tier)
			}
			builder.WriteString(line + "\n")
		}
	}

	if len(input.TopPriorities) > 0 {
		builder.WriteString(fmt.Sprintf("\nTop priorities: %s\n", strings.Join(input.TopPriorities, ", ")))
	}
	if input.PriorityNotes != "" {
		builder.WriteString(fmt.Sprintf("Notes: %s\n", input.PriorityNotes))
	}

	return builder.String()
}
