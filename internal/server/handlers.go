// internal/server/handlers.go
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"aiq-assessment/internal/assessment"
	"aiq-assessment/internal/common/errors"
	"aiq-assessment/internal/common/metrics"
	"aiq-assessment/internal/store"
)

const (
	msgRateLimited       = "Too many requests. Please try again later."
	msgInvalidBody       = "Invalid request body"
	msgSubmitFailed      = "Failed to submit assessment"
	msgNotFound          = "Not found"
	msgInternal          = "Internal server error"
	msgAssessmentMissing = "Assessment not found"
	msgAssessmentFetch   = "Failed to get assessment"

	unknownIndustry = "unknown"
	readyTimeout    = 3 * time.Second
)

// SubmitResponse is returned by POST /submit.
type SubmitResponse struct {
	Success      bool          `json:"success"`
	AssessmentID string        `json:"assessmentId"`
	Results      SubmitResults `json:"results"`
}

type SubmitResults struct {
	TotalScore        int                                              `json:"totalScore"`
	MaxScore          int                                              `json:"maxScore"`
	PercentageScore   int                                              `json:"percentageScore"`
	CategoryScores    map[assessment.Category]assessment.CategoryScore `json:"categoryScores"`
	CapabilityResults []assessment.CapabilityResult                    `json:"capabilityResults"`
}

// PreviewResponse is returned by POST /preview and includes recommendations.
type PreviewResponse struct {
	Success bool               `json:"success"`
	Results *assessment.Result `json:"results"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if s.limiter != nil {
		decision := s.limiter.Allow(ctx, s.clientIP(r))
		if !decision.Allowed {
			s.countSubmission(ctx, unknownIndustry, metrics.OutcomeRateLimited)
			if decision.RetryAfter > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(decision.RetryAfter.Seconds()))))
			}
			s.errorResponse(w, http.StatusTooManyRequests, msgRateLimited)
			return
		}
	}

	sub, ok := s.decodeSubmission(w, r)
	if !ok {
		return
	}

	sub.ID = s.newID()
	sub.SubmittedAt = s.now().UTC().Format(time.RFC3339)
	result := s.engine.CalculateResults(sub)

	if err := s.store.Save(ctx, result); err != nil {
		s.logger.Error("Failed to store assessment", map[string]interface{}{
			"assessmentId": sub.ID,
			"error":        err.Error(),
		})
		s.countSubmission(ctx, string(sub.Industry), metrics.OutcomeError)
		s.errorResponse(w, http.StatusInternalServerError, msgSubmitFailed)
		return
	}

	if s.leads != nil {
		s.leads.Dispatch(result)
	}

	s.countSubmission(ctx, string(sub.Industry), metrics.OutcomeAccepted)
	metrics.SubmissionPercentage.WithLabelValues(string(sub.Industry)).Observe(float64(result.PercentageScore))
	s.obs.RecordScore(ctx, string(sub.Industry), result.PercentageScore)

	s.logger.Info("Assessment submitted", map[string]interface{}{
		"assessmentId":    sub.ID,
		"industry":        sub.Industry,
		"percentageScore": result.PercentageScore,
	})

	s.jsonResponse(w, http.StatusOK, SubmitResponse{
		Success:      true,
		AssessmentID: sub.ID,
		Results: SubmitResults{
			TotalScore:        result.TotalScore,
			MaxScore:          result.MaxScore,
			PercentageScore:   result.PercentageScore,
			CategoryScores:    result.CategoryScores,
			CapabilityResults: result.CapabilityResults,
		},
	})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	sub, ok := s.decodeSubmission(w, r)
	if !ok {
		return
	}

	if sub.SubmittedAt == "" {
		sub.SubmittedAt = s.now().UTC().Format(time.RFC3339)
	}

	s.jsonResponse(w, http.StatusOK, PreviewResponse{
		Success: true,
		Results: s.engine.CalculateResults(sub),
	})
}

// decodeSubmission reads and validates the body, writing the 400 response itself.
func (s *Server) decodeSubmission(w http.ResponseWriter, r *http.Request) (*assessment.Submission, bool) {
	var sub *assessment.Submission
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&sub); err != nil {
		s.countSubmission(r.Context(), unknownIndustry, metrics.OutcomeInvalid)
		s.errorResponse(w, http.StatusBadRequest, msgInvalidBody)
		return nil, false
	}

	if err := assessment.ValidateSubmission(sub); err != nil {
		industry := unknownIndustry
		if sub != nil && sub.Industry.IsSupported() {
			industry = string(sub.Industry)
		}
		s.countSubmission(r.Context(), industry, metrics.OutcomeInvalid)
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	return sub, true
}

func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("industry")

	industry, ok := s.content.ParseIndustry(name)
	if !ok {
		s.errorResponse(w, http.StatusNotFound, "Industry '"+name+"' not found")
		return
	}

	pack, err := s.content.GetIndustryContent(industry)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=3600")
	s.jsonResponse(w, http.StatusOK, pack)
}

func (s *Server) handleIndustries(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=3600")
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"industries": s.content.AvailableIndustries(),
	})
}

func (s *Server) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	record, err := s.store.Get(r.Context(), id)
	if err != nil {
		if store.IsNotFound(err) {
			s.errorResponse(w, http.StatusNotFound, msgAssessmentMissing)
			return
		}
		s.logger.Error("Failed to load assessment", map[string]interface{}{
			"assessmentId": id,
			"error":        err.Error(),
		})
		s.errorResponse(w, http.StatusInternalServerError, msgAssessmentFetch)
		return
	}

	s.jsonResponse(w, http.StatusOK, record)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(s.checks))
	for _, check := range s.checks {
		if err := check.Check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[check.Name] = err.Error()
			s.logger.Warn("Readiness check failed", map[string]interface{}{
				"check": check.Name,
				"error": err.Error(),
			})
			continue
		}
		results[check.Name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	s.jsonResponse(w, status, map[string]interface{}{
		"status": state,
		"checks": results,
		"time":   s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	s.errorResponse(w, http.StatusNotFound, msgNotFound)
}

func (s *Server) countSubmission(ctx context.Context, industry, outcome string) {
	metrics.SubmissionsTotal.WithLabelValues(industry, outcome).Inc()
	s.obs.RecordSubmission(ctx, industry, outcome)
}

// writeError maps a StandardError onto its HTTP status. Anything else is a 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var stdErr *errors.StandardError
	if stderrors.As(err, &stdErr) {
		s.errorResponse(w, stdErr.HTTPStatus(), stdErr.Message)
		return
	}
	s.errorResponse(w, http.StatusInternalServerError, msgInternal)
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode response", map[string]interface{}{"error": err.Error()})
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
