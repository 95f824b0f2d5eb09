// internal/workers/crm/sync-assessment-contact/service.go
package syncassessmentcontact

import (
	"context"
	stderrors "errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"aiq-assessment/internal/common/errors"
	commonhttp "aiq-assessment/internal/common/http"
	"aiq-assessment/internal/common/hubspot"
	"aiq-assessment/internal/common/logger"
)

var nonLetter = regexp.MustCompile(`[^a-z]`)

type Service struct {
	config *Config
	logger logger.Logger
	crm    ContactClient
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	crm := deps.CRM
	if crm == nil && config.HubSpotAccessToken != "" {
		crm = hubspot.NewCRMClient(config.HubSpotBaseURL, config.HubSpotAccessToken, config.HubSpotTimeout)
	}

	return &Service{
		config: config,
		logger: deps.Logger,
		crm:    crm,
	}
}

// Execute upserts the contact by email, then stores the assessment results on it.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	s.logger.Info("Syncing assessment to CRM", map[string]interface{}{
		"assessmentId": input.AssessmentID,
		"industry":     input.Industry,
	})

	if !strings.Contains(input.Email, "@") {
		return nil, errors.NewCRMContactInvalidError(fmt.Sprintf("invalid email for assessment %s", input.AssessmentID))
	}

	if s.crm == nil {
		return nil, errors.NewCRMSyncFailedError("configure", fmt.Errorf("hubspot client not configured"))
	}

	contactProps := BuildContactProperties(input)
	s.logger.Debug("Upserting CRM contact", map[string]interface{}{
		"assessmentId": input.AssessmentID,
		"properties":   PropertyNames(contactProps),
	})

	contactID, created, err := s.crm.UpsertContact(ctx, contactProps)
	if err != nil {
		return nil, crmError("upsert_contact", err)
	}

	if err := s.crm.UpdateContact(ctx, contactID, BuildResultProperties(input)); err != nil {
		return nil, crmError("store_results", err)
	}

	s.logger.Info("Assessment synced to CRM", map[string]interface{}{
		"assessmentId": input.AssessmentID,
		"contactId":    contactID,
		"created":      created,
	})

	message := "CRM contact updated"
	if created {
		message = "CRM contact created"
	}

	return &Output{
		Success:        true,
		Message:        message,
		ContactID:      contactID,
		ContactCreated: created,
		SyncedAt:       time.Now().UTC(),
	}, nil
}

// BuildContactProperties maps the contact fields of a lead onto HubSpot properties.
// Optional fields are only sent when present.
func BuildContactProperties(input *Input) hubspot.Properties {
	props := hubspot.Properties{
		"email":                 input.Email,
		"aiq_industry":          input.Industry,
		"aiq_assessment_date":   input.SubmittedAt,
		"aiq_consent_given":     strconv.FormatBool(input.ConsentGiven),
		"aiq_consent_timestamp": input.ConsentTimestamp,
	}

	if parts := strings.Fields(input.Name); len(parts) > 0 {
		props["firstname"] = parts[0]
		if len(parts) > 1 {
			props["lastname"] = strings.Join(parts[1:], " ")
		}
	}

	setIfPresent(props, "jobtitle", input.Title)
	setIfPresent(props, "company", input.Company)
	setIfPresent(props, "hs_analytics_source", input.UTMSource)
	setIfPresent(props, "utm_medium", input.UTMMedium)
	setIfPresent(props, "utm_campaign", input.UTMCampaign)

	return props
}

// BuildResultProperties maps scores onto the aiq_* custom properties.
func BuildResultProperties(input *Input) hubspot.Properties {
	props := hubspot.Properties{
		"aiq_total_score":      strconv.Itoa(input.TotalScore),
		"aiq_max_score":        strconv.Itoa(input.MaxScore),
		"aiq_percentage_score": strconv.Itoa(input.PercentageScore),
		"aiq_top_priorities":   strings.Join(input.TopPriorities, ", "),
	}

	setIfPresent(props, "aiq_priority_notes", input.PriorityNotes)

	for category, score := range input.CategoryScores {
		props[CategoryPropertyName(category)] = strconv.Itoa(score)
	}
	for capabilityID, score := range input.CapabilityScores {
		props[CapabilityPropertyName(capabilityID)] = strconv.Itoa(score)
	}

	return props
}

// CategoryPropertyName lowercases the category and replaces every non-letter with '_'.
func CategoryPropertyName(category string) string {
	return "aiq_" + nonLetter.ReplaceAllString(strings.ToLower(category), "_") + "_score"
}

func CapabilityPropertyName(capabilityID string) string {
	return "aiq_" + strings.ReplaceAll(capabilityID, "-", "_")
}

// PropertyNames lists the keys of props in sorted order, for logging.
func PropertyNames(props hubspot.Properties) []string {
	names := make([]string, 0, len(props))
	for k := range props {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func setIfPresent(props hubspot.Properties, key, value string) {
	if value != "" {
		props[key] = value
	}
}

// crmError marks client-side HubSpot rejections as permanent.
func crmError(operation string, err error) *errors.StandardError {
	stdErr := errors.NewCRMSyncFailedError(operation, err)

	var statusErr *commonhttp.StatusError
	if stderrors.As(err, &statusErr) && !statusErr.Temporary() {
		stdErr.Retryable = false
	}
	return stdErr
}
