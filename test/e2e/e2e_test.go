// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aiq-assessment/internal/assessment"
	"aiq-assessment/internal/common/config"
	"aiq-assessment/internal/common/database"
	"aiq-assessment/internal/common/logger"
	"aiq-assessment/internal/content"
	"aiq-assessment/internal/leads"
	"aiq-assessment/internal/ratelimit"
	"aiq-assessment/internal/server"
	"aiq-assessment/internal/store"
	indexassessment "aiq-assessment/internal/workers/data-access/index-assessment"
)

// Run with AIQ_E2E=1 against the docker-compose stack (postgres, redis, elasticsearch).
func TestMain(m *testing.M) {
	if os.Getenv("AIQ_E2E") == "" {
		os.Exit(0)
	}
	os.Exit(m.Run())
}

func loadConfig(t *testing.T) *config.Config {
	cfg, err := config.Load()
	require.NoError(t, err)

	cfg.Database.Postgres.Host = "localhost"
	cfg.Database.Redis.Address = "localhost:6379"
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) == 0 {
		cfg.Database.Elasticsearch.URL = "http://localhost:9200"
	}
	return cfg
}

func submission() map[string]interface{} {
	responses := make([]map[string]interface{}, 0, assessment.CapabilityCount())
	for i, c := range assessment.Capabilities() {
		responses = append(responses, map[string]interface{}{"capabilityId": c.ID, "score": i%5 + 1})
	}
	return map[string]interface{}{
		"industry":         "healthcare",
		"email":            "e2e@example.com",
		"name":             "E2E Runner",
		"company":          "Integration Clinic",
		"responses":        responses,
		"topPriorities":    []string{"analytics", "data-operations"},
		"consentGiven":     true,
		"consentTimestamp": time.Now().UTC().Format(time.RFC3339),
	}
}

// ==========================
// Submit and read back through PostgreSQL + Redis
// ==========================
func TestFullE2E_SubmitAndFetch(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cfg := loadConfig(t)
	log := logger.NewTestLogger(t)

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err, "PostgreSQL connection failed")
	defer pg.Close()
	require.NoError(t, pg.Ping(ctx))

	assessments := store.New(pg, log)
	require.NoError(t, assessments.EnsureSchema(ctx))

	rdb := database.NewRedis(cfg.Database.Redis)
	defer rdb.Close()
	require.NoError(t, rdb.Ping(ctx), "Redis ping failed")

	limiter := ratelimit.New(rdb.Client, ratelimit.Config{
		MaxRequests: 100,
		Window:      time.Minute,
		KeyPrefix:   "aiq:e2e:" + time.Now().Format("150405.000"),
	}, log)

	registry, err := content.Load()
	require.NoError(t, err)

	dispatcher, err := leads.NewDispatcher(leads.Options{Mode: config.LeadsModeDisabled, Logger: log})
	require.NoError(t, err)

	srv, err := server.New(server.Options{
		Config:  cfg.Server,
		Content: registry,
		Store:   assessments,
		Limiter: limiter,
		Leads:   dispatcher,
		Logger:  log,
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	body, err := json.Marshal(submission())
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/submit", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var submitted server.SubmitResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&submitted))
	assert.True(t, submitted.Success)
	require.NotEmpty(t, submitted.AssessmentID)
	assert.Equal(t, assessment.MaxScore(), submitted.Results.MaxScore)

	rec, err := assessments.Get(ctx, submitted.AssessmentID)
	require.NoError(t, err)
	assert.Equal(t, submitted.Results.TotalScore, rec.TotalScore)
	assert.Equal(t, "e2e@example.com", rec.Email)

	getResp, err := http.Get(ts.URL + "/assessments/" + submitted.AssessmentID)
	require.NoError(t, err)
	defer getResp.Body.Close()
	assert.Equal(t, http.StatusOK, getResp.StatusCode)

	readyResp, err := http.Get(ts.URL + "/ready")
	require.NoError(t, err)
	defer readyResp.Body.Close()
	assert.Equal(t, http.StatusOK, readyResp.StatusCode)
}

// ==========================
// Search indexing against a live cluster
// ==========================
func TestFullE2E_IndexAssessment(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cfg := loadConfig(t)
	cfg.Database.Elasticsearch.Index = "aiq-assessments-e2e"
	log := logger.NewTestLogger(t)

	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	require.NoError(t, err)
	require.NoError(t, es.Ping(ctx), "Elasticsearch ping failed")

	handler, err := indexassessment.NewHandler(indexassessment.HandlerOptions{
		AppConfig:     cfg,
		Logger:        log,
		Elasticsearch: es,
	})
	require.NoError(t, err)

	registry, err := content.Load()
	require.NoError(t, err)

	var sub assessment.Submission
	raw, err := json.Marshal(submission())
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &sub))
	sub.ID = "e2e-" + time.Now().Format("20060102150405")
	sub.SubmittedAt = time.Now().UTC().Format(time.RFC3339)

	result := assessment.NewEngine(registry).CalculateResults(&sub)

	runner, err := leads.NewDispatcher(leads.Options{
		Mode: config.LeadsModeDirect,
		Sinks: []leads.Sink{leads.NewSink("search", func(ctx context.Context, vars map[string]interface{}) error {
			out, err := handler.ExecuteVariables(ctx, vars)
			if err == nil {
				assert.Equal(t, sub.ID, out.DocumentID)
			}
			return err
		})},
		Logger: log,
	})
	require.NoError(t, err)
	require.NoError(t, runner.Run(ctx, result))
}
