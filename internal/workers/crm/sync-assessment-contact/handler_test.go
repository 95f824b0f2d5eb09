package syncassessmentcontact

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"aiq-assessment/internal/common/config"
	"aiq-assessment/internal/common/errors"
	commonhttp "aiq-assessment/internal/common/http"
	"aiq-assessment/internal/common/hubspot"
	"aiq-assessment/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock CRM Implementation
// ==========================

type MockCRM struct {
	mock.Mock
}

func (m *MockCRM) UpsertContact(ctx context.Context, props hubspot.Properties) (string, bool, error) {
	args := m.Called(ctx, props)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockCRM) UpdateContact(ctx context.Context, contactID string, props hubspot.Properties) error {
	args := m.Called(ctx, contactID, props)
	return args.Error(0)
}

// ==========================
// Mock Job Helper
// ==========================

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)

	activatedJob := &pb.ActivatedJob{
		Key:                      key,
		Type:                     TaskType,
		ProcessInstanceKey:       key * 10,
		BpmnProcessId:            "aiq-lead-intake",
		ProcessDefinitionVersion: 1,
		ProcessDefinitionKey:     1,
		ElementId:                "Activity_SyncCRM",
		ElementInstanceKey:       1,
		CustomHeaders:            "{}",
		Worker:                   "test-worker",
		Retries:                  3,
		Deadline:                 0,
		Variables:                string(variablesJSON),
	}

	return entities.Job{ActivatedJob: activatedJob}
}

// ==========================
// Test Helpers
// ==========================

func createValidVariables() map[string]interface{} {
	return map[string]interface{}{
		"assessmentId":     "a-100",
		"industry":         "legal",
		"email":            "morgan@firm.example",
		"name":             "Morgan  Lee Park",
		"title":            "Managing Partner",
		"company":          "Lee & Park LLP",
		"consentGiven":     true,
		"consentTimestamp": "2024-03-01T08:59:00Z",
		"submittedAt":      "2024-03-01T09:00:00Z",
		"utmSource":        "linkedin",
		"topPriorities":    []interface{}{"data-sourcing", "analytics"},
		"priorityNotes":    "Document review first",
		"totalScore":       82,
		"maxScore":         135,
		"percentageScore":  61,
		"categoryScores": map[string]interface{}{
			"Organization Foundations": 36,
			"AI & Machine Learning":    7,
		},
		"capabilityScores": map[string]interface{}{
			"strategy-leadership": 3,
			"data-sourcing":       2,
		},
		"referrer": "https://example.com",
	}
}

func createValidConfig() *Config {
	return &Config{
		Enabled:            true,
		MaxJobsActive:      5,
		Timeout:            30 * time.Second,
		HubSpotBaseURL:     "https://hubspot.test",
		HubSpotAccessToken: "test-token",
		HubSpotTimeout:     5 * time.Second,
	}
}

func newTestHandler(t *testing.T, crm ContactClient) *Handler {
	t.Helper()
	h, err := NewHandler(HandlerOptions{
		CustomConfig: createValidConfig(),
		Logger:       logger.NewTestLogger(t),
		CRM:          crm,
	})
	require.NoError(t, err)
	return h
}

// ==========================
// Handler Creation Tests
// ==========================

func TestHandler_NewHandler(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
		errMsg  string
	}{
		{name: "valid configuration", cfg: createValidConfig()},
		{
			name: "missing access token",
			cfg: &Config{
				Enabled:        true,
				MaxJobsActive:  5,
				Timeout:        30 * time.Second,
				HubSpotBaseURL: hubspot.DefaultBaseURL,
			},
			wantErr: true,
			errMsg:  "hubspot_access_token is required",
		},
		{
			name: "invalid timeout",
			cfg: &Config{
				Enabled:            true,
				MaxJobsActive:      5,
				Timeout:            -1 * time.Second,
				HubSpotBaseURL:     hubspot.DefaultBaseURL,
				HubSpotAccessToken: "token",
			},
			wantErr: true,
			errMsg:  "timeout must be positive",
		},
		{
			name: "invalid max jobs active",
			cfg: &Config{
				Enabled:            true,
				Timeout:            time.Second,
				HubSpotBaseURL:     hubspot.DefaultBaseURL,
				HubSpotAccessToken: "token",
			},
			wantErr: true,
			errMsg:  "max_jobs_active must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, err := NewHandler(HandlerOptions{CustomConfig: tt.cfg})

			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Nil(t, handler)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, handler.service)
			assert.NotNil(t, handler.service.crm, "client is built from the access token")
			assert.Equal(t, TaskType, handler.GetTaskType())
			assert.True(t, handler.IsEnabled())
		})
	}
}

// ==========================
// Input Parsing Tests
// ==========================

func TestHandler_ParseInput(t *testing.T) {
	handler := newTestHandler(t, &MockCRM{})

	t.Run("valid job", func(t *testing.T) {
		input, err := handler.parseInput(createMockJob(1, createValidVariables()))
		require.NoError(t, err)

		assert.Equal(t, "a-100", input.AssessmentID)
		assert.Equal(t, "morgan@firm.example", input.Email)
		assert.True(t, input.ConsentGiven)
		assert.Equal(t, []string{"data-sourcing", "analytics"}, input.TopPriorities)
		assert.Equal(t, 82, input.TotalScore)
		assert.Equal(t, 61, input.PercentageScore)
		assert.Equal(t, 36, input.CategoryScores["Organization Foundations"])
		assert.Equal(t, 2, input.CapabilityScores["data-sourcing"])
	})

	invalid := []struct {
		name   string
		mutate func(map[string]interface{})
	}{
		{name: "missing email", mutate: func(v map[string]interface{}) { delete(v, "email") }},
		{name: "missing assessment id", mutate: func(v map[string]interface{}) { delete(v, "assessmentId") }},
		{name: "unknown industry", mutate: func(v map[string]interface{}) { v["industry"] = "retail" }},
		{name: "fractional score", mutate: func(v map[string]interface{}) { v["totalScore"] = 8.5 }},
		{name: "percentage above 100", mutate: func(v map[string]interface{}) { v["percentageScore"] = 101 }},
		{name: "priorities not an array", mutate: func(v map[string]interface{}) { v["topPriorities"] = "analytics" }},
	}

	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			vars := createValidVariables()
			tt.mutate(vars)

			_, err := handler.parseInput(createMockJob(2, vars))
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidJobInput))
		})
	}
}

// ==========================
// Property Mapping Tests
// ==========================

func TestBuildContactProperties(t *testing.T) {
	input, err := parseVariables(createValidVariables())
	require.NoError(t, err)

	props := BuildContactProperties(input)

	assert.Equal(t, hubspot.Properties{
		"email":                 "morgan@firm.example",
		"aiq_industry":          "legal",
		"aiq_assessment_date":   "2024-03-01T09:00:00Z",
		"aiq_consent_given":     "true",
		"aiq_consent_timestamp": "2024-03-01T08:59:00Z",
		"firstname":             "Morgan",
		"lastname":              "Lee Park",
		"jobtitle":              "Managing Partner",
		"company":               "Lee & Park LLP",
		"hs_analytics_source":   "linkedin",
	}, props)
}

func TestBuildContactProperties_SingleName(t *testing.T) {
	props := BuildContactProperties(&Input{Email: "a@b.co", Name: "Cher"})

	assert.Equal(t, "Cher", props["firstname"])
	_, hasLast := props["lastname"]
	assert.False(t, hasLast)
	assert.Equal(t, "false", props["aiq_consent_given"])
}

func TestBuildResultProperties(t *testing.T) {
	input, err := parseVariables(createValidVariables())
	require.NoError(t, err)

	props := BuildResultProperties(input)

	assert.Equal(t, "82", props["aiq_total_score"])
	assert.Equal(t, "135", props["aiq_max_score"])
	assert.Equal(t, "61", props["aiq_percentage_score"])
	assert.Equal(t, "data-sourcing, analytics", props["aiq_top_priorities"])
	assert.Equal(t, "Document review first", props["aiq_priority_notes"])
	assert.Equal(t, "36", props["aiq_organization_foundations_score"])
	assert.Equal(t, "7", props["aiq_ai___machine_learning_score"])
	assert.Equal(t, "3", props["aiq_strategy_leadership"])
	assert.Equal(t, "2", props["aiq_data_sourcing"])
}

func TestPropertyNameHelpers(t *testing.T) {
	assert.Equal(t, "aiq_data_infrastructure_score", CategoryPropertyName("Data Infrastructure"))
	assert.Equal(t, "aiq_ai___machine_learning_score", CategoryPropertyName("AI & Machine Learning"))
	assert.Equal(t, "aiq_user_experience_ethics", CapabilityPropertyName("user-experience-ethics"))
}

// ==========================
// Execute Tests
// ==========================

func TestHandler_ExecuteVariables_CreatesContact(t *testing.T) {
	crm := &MockCRM{}
	crm.On("UpsertContact", mock.Anything, mock.MatchedBy(func(p hubspot.Properties) bool {
		return p["email"] == "morgan@firm.example" && p["aiq_total_score"] == ""
	})).Return("c-9", true, nil)
	crm.On("UpdateContact", mock.Anything, "c-9", mock.MatchedBy(func(p hubspot.Properties) bool {
		return p["aiq_total_score"] == "82"
	})).Return(nil)

	handler := newTestHandler(t, crm)

	output, err := handler.ExecuteVariables(context.Background(), createValidVariables())
	require.NoError(t, err)

	assert.True(t, output.Success)
	assert.True(t, output.ContactCreated)
	assert.Equal(t, "c-9", output.ContactID)
	assert.Equal(t, "CRM contact created", output.Message)
	crm.AssertExpectations(t)
}

func TestHandler_Execute_UpdatesExistingContact(t *testing.T) {
	crm := &MockCRM{}
	crm.On("UpsertContact", mock.Anything, mock.Anything).Return("c-1", false, nil)
	crm.On("UpdateContact", mock.Anything, "c-1", mock.Anything).Return(nil)

	handler := newTestHandler(t, crm)
	input, err := parseVariables(createValidVariables())
	require.NoError(t, err)

	output, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.False(t, output.ContactCreated)
	assert.Equal(t, "CRM contact updated", output.Message)
}

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name          string
		upsertErr     error
		updateErr     error
		wantRetryable bool
	}{
		{
			name:          "hubspot unavailable",
			upsertErr:     &commonhttp.StatusError{StatusCode: 503, Body: "unavailable"},
			wantRetryable: true,
		},
		{
			name:          "hubspot rejects properties",
			updateErr:     &commonhttp.StatusError{StatusCode: 400, Body: "PROPERTY_DOESNT_EXIST"},
			wantRetryable: false,
		},
		{
			name:          "network failure",
			upsertErr:     stderrors.New("connection refused"),
			wantRetryable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			crm := &MockCRM{}
			crm.On("UpsertContact", mock.Anything, mock.Anything).Return("c-1", false, tt.upsertErr)
			crm.On("UpdateContact", mock.Anything, "c-1", mock.Anything).Return(tt.updateErr)

			handler := newTestHandler(t, crm)
			input, err := parseVariables(createValidVariables())
			require.NoError(t, err)

			output, err := handler.Execute(context.Background(), input)
			assert.Nil(t, output)
			require.Error(t, err)

			stdErr, ok := errors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, errors.ErrCodeCRMSyncFailed, stdErr.Code)
			assert.Equal(t, tt.wantRetryable, stdErr.Retryable)
		})
	}
}

func TestHandler_Execute_InvalidEmail(t *testing.T) {
	crm := &MockCRM{}
	handler := newTestHandler(t, crm)

	_, err := handler.Execute(context.Background(), &Input{AssessmentID: "a-1", Email: "not-an-email"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeCRMContactInvalid))
	crm.AssertNotCalled(t, "UpsertContact", mock.Anything, mock.Anything)
}

// ==========================
// Config Tests
// ==========================

func TestCreateConfigFromAppConfig(t *testing.T) {
	appCfg := &config.Config{
		Workers: map[string]config.WorkerConfig{
			ConfigKey: {Enabled: false, MaxJobsActive: 2, Timeout: 15000},
		},
	}
	appCfg.Integrations.HubSpot.AccessToken = "from-config"
	appCfg.Integrations.HubSpot.Timeout = 2500

	cfg := createConfigFromAppConfig(appCfg, nil)

	assert.False(t, cfg.Enabled)
	assert.Equal(t, 2, cfg.MaxJobsActive)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.Equal(t, "from-config", cfg.HubSpotAccessToken)
	assert.Equal(t, hubspot.DefaultBaseURL, cfg.HubSpotBaseURL)
	assert.Equal(t, 2500*time.Millisecond, cfg.HubSpotTimeout)
}

func TestCreateConfigFromAppConfig_DisabledWithoutToken(t *testing.T) {
	appCfg := &config.Config{
		Workers: map[string]config.WorkerConfig{
			ConfigKey: {Enabled: true},
		},
	}

	cfg := createConfigFromAppConfig(appCfg, nil)

	assert.False(t, cfg.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_DefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 5, cfg.MaxJobsActive)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Error(t, cfg.Validate(), "default config has no access token")
}
