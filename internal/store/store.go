// internal/store/store.go
// Package store persists scored assessments in PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"aiq-assessment/internal/assessment"
	"aiq-assessment/internal/common/database"
	"aiq-assessment/internal/common/errors"
	"aiq-assessment/internal/common/logger"
)

const (
	AuditEventSubmitted = "submitted"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS assessments (
		id               UUID PRIMARY KEY,
		industry         TEXT NOT NULL,
		email            TEXT NOT NULL,
		submission       JSONB NOT NULL,
		total_score      INTEGER NOT NULL,
		max_score        INTEGER NOT NULL,
		percentage_score INTEGER NOT NULL,
		category_scores  JSONB NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_assessments_industry ON assessments (industry)`,
	`CREATE INDEX IF NOT EXISTS idx_assessments_email ON assessments (email)`,
	`CREATE TABLE IF NOT EXISTS assessment_audit_log (
		id            BIGSERIAL PRIMARY KEY,
		assessment_id UUID NOT NULL REFERENCES assessments (id) ON DELETE CASCADE,
		event         TEXT NOT NULL,
		details       JSONB,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

const insertAssessment = `
	INSERT INTO assessments (id, industry, email, submission, total_score, max_score, percentage_score, category_scores, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

const insertAudit = `
	INSERT INTO assessment_audit_log (assessment_id, event, details, created_at)
	VALUES ($1, $2, $3, $4)`

const selectAssessment = `
	SELECT id, industry, email, submission, total_score, max_score, percentage_score, category_scores, created_at
	FROM assessments
	WHERE id = $1`

// Record is a stored assessment.
type Record struct {
	ID              string                                           `json:"id"`
	Industry        assessment.Industry                              `json:"industry"`
	Email           string                                           `json:"email"`
	Submission      assessment.Submission                            `json:"submission"`
	TotalScore      int                                              `json:"totalScore"`
	MaxScore        int                                              `json:"maxScore"`
	PercentageScore int                                              `json:"percentageScore"`
	CategoryScores  map[assessment.Category]assessment.CategoryScore `json:"categoryScores"`
	CreatedAt       time.Time                                        `json:"createdAt"`
}

type Store struct {
	db     *database.PostgresClient
	logger logger.Logger
	now    func() time.Time
}

func New(db *database.PostgresClient, log logger.Logger) *Store {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Store{db: db, logger: log, now: time.Now}
}

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.DB.ExecContext(ctx, stmt); err != nil {
			return errors.NewDatabaseConnectionFailedError(fmt.Errorf("ensure schema: %w", err))
		}
	}
	return nil
}

// Save writes the submission, its totals and an audit entry in one transaction.
// The submission must carry an ID.
func (s *Store) Save(ctx context.Context, result *assessment.Result) error {
	sub := result.Submission
	if sub == nil || sub.ID == "" {
		return errors.NewDatabaseInsertFailedError(fmt.Errorf("submission id is required"))
	}

	submissionJSON, err := json.Marshal(sub)
	if err != nil {
		return errors.NewDatabaseInsertFailedError(fmt.Errorf("encode submission: %w", err))
	}
	categoryJSON, err := json.Marshal(result.CategoryScores)
	if err != nil {
		return errors.NewDatabaseInsertFailedError(fmt.Errorf("encode category scores: %w", err))
	}
	auditJSON, err := json.Marshal(map[string]interface{}{
		"percentageScore": result.PercentageScore,
		"utmSource":       sub.UTMSource,
	})
	if err != nil {
		return errors.NewDatabaseInsertFailedError(fmt.Errorf("encode audit details: %w", err))
	}

	createdAt := s.now().UTC()
	if sub.SubmittedAt != "" {
		if ts, err := time.Parse(time.RFC3339, sub.SubmittedAt); err == nil {
			createdAt = ts
		}
	}

	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, insertAssessment,
			sub.ID,
			string(sub.Industry),
			sub.Email,
			submissionJSON,
			result.TotalScore,
			result.MaxScore,
			result.PercentageScore,
			categoryJSON,
			createdAt,
		); err != nil {
			return fmt.Errorf("insert assessment: %w", err)
		}

		if _, err := tx.ExecContext(ctx, insertAudit, sub.ID, AuditEventSubmitted, auditJSON, createdAt); err != nil {
			return fmt.Errorf("insert audit entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return errors.NewDatabaseInsertFailedError(err)
	}

	s.logger.Debug("assessment stored", map[string]interface{}{
		"assessmentId": sub.ID,
		"industry":     sub.Industry,
	})
	return nil
}

// Get loads one assessment. A missing row yields an ASSESSMENT_NOT_FOUND error.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	var (
		rec            Record
		industry       string
		submissionJSON []byte
		categoryJSON   []byte
	)

	err := s.db.DB.QueryRowContext(ctx, selectAssessment, id).Scan(
		&rec.ID, &industry, &rec.Email, &submissionJSON,
		&rec.TotalScore, &rec.MaxScore, &rec.PercentageScore,
		&categoryJSON, &rec.CreatedAt,
	)
	switch {
	case stderrors.Is(err, sql.ErrNoRows):
		return nil, errors.NewAssessmentNotFoundError(id)
	case stderrors.Is(err, context.DeadlineExceeded):
		return nil, errors.NewQueryTimeoutError("get_assessment")
	case err != nil:
		return nil, errors.NewQueryExecutionFailedError("get_assessment", err)
	}

	rec.Industry = assessment.Industry(industry)
	if err := json.Unmarshal(submissionJSON, &rec.Submission); err != nil {
		return nil, errors.NewQueryExecutionFailedError("get_assessment", fmt.Errorf("decode submission: %w", err))
	}
	if err := json.Unmarshal(categoryJSON, &rec.CategoryScores); err != nil {
		return nil, errors.NewQueryExecutionFailedError("get_assessment", fmt.Errorf("decode category scores: %w", err))
	}

	return &rec, nil
}

// IsNotFound reports whether err is the lookup miss returned by Get.
func IsNotFound(err error) bool {
	return errors.HasCode(err, errors.ErrCodeAssessmentNotFound)
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
