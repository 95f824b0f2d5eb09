// internal/workers/data-access/index-assessment/service.go
package indexassessment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"aiq-assessment/internal/common/database"
	"aiq-assessment/internal/common/errors"
	"aiq-assessment/internal/common/logger"

	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// IndexMapping is applied when the index does not exist yet. Score maps stay dynamic so
// new categories need no migration.
const IndexMapping = `{
  "mappings": {
    "properties": {
      "assessmentId":     {"type": "keyword"},
      "industry":         {"type": "keyword"},
      "email":            {"type": "keyword"},
      "emailDomain":      {"type": "keyword"},
      "company":          {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "title":            {"type": "text"},
      "submittedAt":      {"type": "date"},
      "indexedAt":        {"type": "date"},
      "utmSource":        {"type": "keyword"},
      "utmMedium":        {"type": "keyword"},
      "utmCampaign":      {"type": "keyword"},
      "referrer":         {"type": "keyword"},
      "topPriorities":    {"type": "keyword"},
      "totalScore":       {"type": "integer"},
      "maxScore":         {"type": "integer"},
      "percentageScore":  {"type": "integer"},
      "categoryScores":   {"type": "object"},
      "categoryTiers":    {"type": "object"},
      "capabilityScores": {"type": "object"}
    }
  }
}`

var nonField = regexp.MustCompile(`[^a-z]+`)

type Service struct {
	config *Config
	logger logger.Logger
	es     *database.ElasticsearchClient
	now    func() time.Time

	mu         sync.Mutex
	indexReady bool
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config: config,
		logger: deps.Logger,
		es:     deps.Elasticsearch,
		now:    time.Now,
	}
}

// Execute writes the assessment document under its assessment id. Re-indexing the same id
// overwrites the previous document.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	if s.es == nil {
		return nil, errors.NewElasticsearchConnectionFailedError(fmt.Errorf("elasticsearch client not configured"))
	}

	if err := s.ensureIndex(ctx); err != nil {
		return nil, errors.NewElasticsearchConnectionFailedError(err)
	}

	indexedAt := s.now().UTC()
	body, err := json.Marshal(BuildDocument(input, indexedAt))
	if err != nil {
		return nil, errors.NewInternalError(fmt.Errorf("marshal document: %w", err))
	}

	opts := []func(*esapi.IndexRequest){
		s.es.Client.Index.WithDocumentID(input.AssessmentID),
		s.es.Client.Index.WithContext(ctx),
	}
	if s.config.Refresh {
		opts = append(opts, s.es.Client.Index.WithRefresh("true"))
	}

	res, err := s.es.Client.Index(s.config.Index, bytes.NewReader(body), opts...)
	if err != nil {
		return nil, errors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		stdErr := errors.NewIndexingFailedError(s.config.Index, fmt.Errorf("%s: %s", res.Status(), strings.TrimSpace(string(raw))))
		// Mapping conflicts and bad documents do not heal on retry.
		if res.StatusCode >= 400 && res.StatusCode < 500 && res.StatusCode != http.StatusTooManyRequests {
			stdErr.Retryable = false
		}
		return nil, stdErr
	}

	var parsed indexResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, errors.NewIndexingFailedError(s.config.Index, fmt.Errorf("decode response: %w", err))
	}

	s.logger.Info("Assessment indexed", map[string]interface{}{
		"assessmentId": input.AssessmentID,
		"index":        s.config.Index,
		"result":       parsed.Result,
		"version":      parsed.Version,
	})

	return &Output{
		Success:    true,
		Message:    fmt.Sprintf("Assessment %s", parsed.Result),
		Index:      s.config.Index,
		DocumentID: input.AssessmentID,
		Result:     parsed.Result,
		Version:    parsed.Version,
		IndexedAt:  indexedAt,
	}, nil
}

func (s *Service) ensureIndex(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexReady {
		return nil
	}
	if err := s.es.EnsureIndex(ctx, s.config.Index, IndexMapping); err != nil {
		return err
	}
	s.indexReady = true
	return nil
}

// BuildDocument converts lead variables into the indexed document.
func BuildDocument(input *Input, indexedAt time.Time) Document {
	doc := Document{
		AssessmentID:     input.AssessmentID,
		Industry:         input.Industry,
		Email:            strings.ToLower(input.Email),
		EmailDomain:      EmailDomain(input.Email),
		Company:          input.Company,
		Title:            input.Title,
		SubmittedAt:      input.SubmittedAt,
		IndexedAt:        indexedAt.Format(time.RFC3339),
		UTMSource:        input.UTMSource,
		UTMMedium:        input.UTMMedium,
		UTMCampaign:      input.UTMCampaign,
		Referrer:         input.Referrer,
		TopPriorities:    input.TopPriorities,
		TotalScore:       input.TotalScore,
		MaxScore:         input.MaxScore,
		PercentageScore:  input.PercentageScore,
		CategoryScores:   make(map[string]int, len(input.CategoryScores)),
		CategoryTiers:    make(map[string]string, len(input.CategoryTiers)),
		CapabilityScores: make(map[string]int, len(input.CapabilityScores)),
	}
	if doc.TopPriorities == nil {
		doc.TopPriorities = []string{}
	}

	for name, score := range input.CategoryScores {
		doc.CategoryScores[FieldName(name)] = score
	}
	for name, tier := range input.CategoryTiers {
		doc.CategoryTiers[FieldName(name)] = tier
	}
	for id, score := range input.CapabilityScores {
		doc.CapabilityScores[FieldName(id)] = score
	}

	return doc
}

// FieldName turns a category name or capability id into a lower snake case field name,
// e.g. "AI & Machine Learning" becomes "ai_machine_learning".
func FieldName(name string) string {
	return strings.Trim(nonField.ReplaceAllString(strings.ToLower(name), "_"), "_")
}

// EmailDomain returns the lower-cased part after the last "@", or "" when there is none.
func EmailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}
