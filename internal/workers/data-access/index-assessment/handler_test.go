package indexassessment

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"aiq-assessment/internal/common/config"
	"aiq-assessment/internal/common/database"
	"aiq-assessment/internal/common/errors"
	"aiq-assessment/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Fake Elasticsearch
// ==========================

type fakeElasticsearch struct {
	mu          sync.Mutex
	indexExists bool
	created     int
	docs        map[string][]byte
	versions    map[string]int64
	docStatus   int
}

func newFakeElasticsearch(t *testing.T) (*fakeElasticsearch, *database.ElasticsearchClient) {
	t.Helper()
	fake := &fakeElasticsearch{
		docs:     make(map[string][]byte),
		versions: make(map[string]int64),
	}

	srv := httptest.NewServer(http.HandlerFunc(fake.serve))
	t.Cleanup(srv.Close)

	client, err := database.NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return fake, client
}

func (f *fakeElasticsearch) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	switch {
	case len(parts) == 1 && r.Method == http.MethodHead:
		if f.indexExists {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)

	case len(parts) == 1 && r.Method == http.MethodPut:
		f.indexExists = true
		f.created++
		_, _ = w.Write([]byte(`{"acknowledged":true,"index":"` + parts[0] + `"}`))

	case len(parts) == 3 && parts[1] == "_doc" && (r.Method == http.MethodPut || r.Method == http.MethodPost):
		if f.docStatus != 0 {
			w.WriteHeader(f.docStatus)
			_, _ = w.Write([]byte(`{"error":{"type":"mapper_parsing_exception"},"status":400}`))
			return
		}
		body, _ := io.ReadAll(r.Body)
		id := parts[2]
		result := "created"
		if _, ok := f.docs[id]; ok {
			result = "updated"
		}
		f.docs[id] = body
		f.versions[id]++
		resp, _ := json.Marshal(map[string]interface{}{
			"_index":   parts[0],
			"_id":      id,
			"_version": f.versions[id],
			"result":   result,
		})
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(resp)

	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{}`))
	}
}

// ==========================
// Test Helpers
// ==========================

func createValidVariables() map[string]interface{} {
	return map[string]interface{}{
		"assessmentId":    "a-200",
		"industry":        "healthcare",
		"email":           "Casey@Clinic.Example",
		"company":         "Riverside Clinic",
		"submittedAt":     "2024-03-01T09:00:00Z",
		"utmSource":       "newsletter",
		"topPriorities":   []interface{}{"analytics"},
		"totalScore":      82,
		"maxScore":        135,
		"percentageScore": 61,
		"categoryScores": map[string]interface{}{
			"Organization Foundations": 36,
			"AI & Machine Learning":    7,
		},
		"categoryTiers": map[string]interface{}{
			"Organization Foundations": "developing",
			"AI & Machine Learning":    "developing",
		},
		"capabilityScores": map[string]interface{}{
			"strategy-leadership": 3,
			"using-ai-products":   2,
		},
	}
}

func createValidConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       10 * time.Second,
		Index:         "aiq-assessments-test",
	}
}

func newTestHandler(t *testing.T, es *database.ElasticsearchClient) *Handler {
	t.Helper()
	h, err := NewHandler(HandlerOptions{
		CustomConfig:  createValidConfig(),
		Logger:        logger.NewTestLogger(t),
		Elasticsearch: es,
	})
	require.NoError(t, err)
	return h
}

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                key,
		Type:               TaskType,
		ProcessInstanceKey: key * 10,
		BpmnProcessId:      "aiq-lead-intake",
		ElementId:          "Activity_IndexAssessment",
		CustomHeaders:      "{}",
		Retries:            3,
		Variables:          string(variablesJSON),
	}}
}

// ==========================
// Configuration Tests
// ==========================

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "no timeout", mutate: func(c *Config) { c.Timeout = 0 }, errMsg: "timeout must be positive"},
		{name: "no max jobs", mutate: func(c *Config) { c.MaxJobsActive = 0 }, errMsg: "max_jobs_active must be positive"},
		{name: "no index", mutate: func(c *Config) { c.Index = "" }, errMsg: "index is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := createValidConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestCreateConfigFromAppConfig(t *testing.T) {
	t.Run("disabled without a search cluster", func(t *testing.T) {
		cfg := createConfigFromAppConfig(&config.Config{}, nil)
		assert.False(t, cfg.Enabled)
		assert.Equal(t, DefaultIndex, cfg.Index)
	})

	t.Run("reads index and worker settings", func(t *testing.T) {
		app := &config.Config{
			Workers: map[string]config.WorkerConfig{
				ConfigKey: {Enabled: true, MaxJobsActive: 3, Timeout: 5000},
			},
		}
		app.Database.Elasticsearch.URL = "http://search:9200"
		app.Database.Elasticsearch.Index = "leads"

		cfg := createConfigFromAppConfig(app, nil)
		assert.True(t, cfg.Enabled)
		assert.Equal(t, 3, cfg.MaxJobsActive)
		assert.Equal(t, 5*time.Second, cfg.Timeout)
		assert.Equal(t, "leads", cfg.Index)
	})

	t.Run("custom config wins", func(t *testing.T) {
		custom := createValidConfig()
		assert.Same(t, custom, createConfigFromAppConfig(&config.Config{}, custom))
	})
}

// ==========================
// Input Parsing Tests
// ==========================

func TestHandler_ParseInput(t *testing.T) {
	handler := newTestHandler(t, nil)

	t.Run("valid job", func(t *testing.T) {
		input, err := handler.parseInput(createMockJob(1, createValidVariables()))
		require.NoError(t, err)

		assert.Equal(t, "a-200", input.AssessmentID)
		assert.Equal(t, "healthcare", input.Industry)
		assert.Equal(t, []string{"analytics"}, input.TopPriorities)
		assert.Equal(t, 61, input.PercentageScore)
		assert.Equal(t, 36, input.CategoryScores["Organization Foundations"])
		assert.Equal(t, "developing", input.CategoryTiers["AI & Machine Learning"])
		assert.Equal(t, 2, input.CapabilityScores["using-ai-products"])
	})

	t.Run("missing assessment id", func(t *testing.T) {
		vars := createValidVariables()
		delete(vars, "assessmentId")

		_, err := handler.parseInput(createMockJob(2, vars))
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidJobInput))
	})

	t.Run("unsupported industry", func(t *testing.T) {
		vars := createValidVariables()
		vars["industry"] = "retail"

		_, err := handler.parseInput(createMockJob(3, vars))
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidJobInput))
	})
}

// ==========================
// Document Tests
// ==========================

func TestBuildDocument(t *testing.T) {
	indexedAt := time.Date(2024, 3, 1, 9, 0, 5, 0, time.UTC)
	input, err := parseVariables(createValidVariables())
	require.NoError(t, err)

	doc := BuildDocument(input, indexedAt)

	assert.Equal(t, "casey@clinic.example", doc.Email)
	assert.Equal(t, "clinic.example", doc.EmailDomain)
	assert.Equal(t, "2024-03-01T09:00:05Z", doc.IndexedAt)
	assert.Equal(t, map[string]int{
		"organization_foundations": 36,
		"ai_machine_learning":      7,
	}, doc.CategoryScores)
	assert.Equal(t, "developing", doc.CategoryTiers["ai_machine_learning"])
	assert.Equal(t, map[string]int{
		"strategy_leadership": 3,
		"using_ai_products":   2,
	}, doc.CapabilityScores)
}

func TestBuildDocument_NilPriorities(t *testing.T) {
	doc := BuildDocument(&Input{AssessmentID: "x", Email: "a@b.co"}, time.Now())
	assert.NotNil(t, doc.TopPriorities)
	assert.Empty(t, doc.TopPriorities)
}

func TestFieldName(t *testing.T) {
	tests := map[string]string{
		"Organization Foundations": "organization_foundations",
		"AI & Machine Learning":    "ai_machine_learning",
		"data-sourcing":            "data_sourcing",
		"Product Lifecycle":        "product_lifecycle",
	}
	for in, want := range tests {
		assert.Equal(t, want, FieldName(in), in)
	}
}

func TestEmailDomain(t *testing.T) {
	assert.Equal(t, "firm.example", EmailDomain("a@Firm.Example"))
	assert.Equal(t, "", EmailDomain("no-at-sign"))
	assert.Equal(t, "", EmailDomain("trailing@"))
}

// ==========================
// Indexing Tests
// ==========================

func TestHandler_ExecuteVariables_IndexesDocument(t *testing.T) {
	fake, es := newFakeElasticsearch(t)
	handler := newTestHandler(t, es)

	output, err := handler.ExecuteVariables(context.Background(), createValidVariables())
	require.NoError(t, err)

	assert.True(t, output.Success)
	assert.Equal(t, "created", output.Result)
	assert.Equal(t, "a-200", output.DocumentID)
	assert.Equal(t, "aiq-assessments-test", output.Index)
	assert.Equal(t, int64(1), output.Version)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.True(t, fake.indexExists)
	require.Contains(t, fake.docs, "a-200")

	var stored Document
	require.NoError(t, json.Unmarshal(fake.docs["a-200"], &stored))
	assert.Equal(t, "healthcare", stored.Industry)
	assert.Equal(t, 61, stored.PercentageScore)
	assert.Equal(t, 36, stored.CategoryScores["organization_foundations"])
}

func TestHandler_ExecuteVariables_ReindexUpdates(t *testing.T) {
	fake, es := newFakeElasticsearch(t)
	handler := newTestHandler(t, es)

	_, err := handler.ExecuteVariables(context.Background(), createValidVariables())
	require.NoError(t, err)

	output, err := handler.ExecuteVariables(context.Background(), createValidVariables())
	require.NoError(t, err)
	assert.Equal(t, "updated", output.Result)
	assert.Equal(t, int64(2), output.Version)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, 1, fake.created, "index is created once")
}

func TestHandler_ExecuteVariables_Errors(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		wantCode      errors.ErrorCode
		wantRetryable bool
	}{
		{name: "rejected document", status: http.StatusBadRequest, wantCode: errors.ErrCodeIndexingFailed, wantRetryable: false},
		{name: "throttled", status: http.StatusTooManyRequests, wantCode: errors.ErrCodeIndexingFailed, wantRetryable: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake, es := newFakeElasticsearch(t)
			fake.docStatus = tt.status
			handler := newTestHandler(t, es)

			_, err := handler.ExecuteVariables(context.Background(), createValidVariables())
			require.Error(t, err)

			stdErr, ok := errors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, stdErr.Code)
			assert.Equal(t, tt.wantRetryable, stdErr.Retryable)
		})
	}
}

func TestHandler_Execute_NoClient(t *testing.T) {
	handler := newTestHandler(t, nil)

	_, err := handler.ExecuteVariables(context.Background(), createValidVariables())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeElasticsearchConnectionFailed))
}
