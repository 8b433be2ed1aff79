package reviews

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"resume-review/internal/scoring"
	"resume-review/internal/shared/telemetry"
	"resume-review/internal/shared/util"
)

// Service turns submissions into persisted evaluations and reads them back.
type Service struct {
	Repo     Repo
	Oracle   scoring.Oracle
	Validate *validator.Validate

	Now   func() time.Time
	NewID func() string
}

// NewService builds a Service with default validator, clock and id source.
func NewService(repo Repo, oracle scoring.Oracle) *Service {
	return &Service{
		Repo:     repo,
		Oracle:   oracle,
		Validate: newValidator(),
		Now:      func() time.Time { return time.Now().UTC() },
		NewID:    uuid.NewString,
	}
}

// SubmitFeedback validates sub, asks the oracle for feedback and persists exactly
// one record. No record is written when any step fails.
func (s *Service) SubmitFeedback(ctx context.Context, userID string, sub Submission) (ResumeUpload, error) {
	sub = sub.trimmed()
	if err := s.validate(sub); err != nil {
		return ResumeUpload{}, err
	}
	if userID == "" {
		return ResumeUpload{}, &ValidationError{Fields: []string{"userId"}}
	}
	if s.Oracle == nil {
		return ResumeUpload{}, fmt.Errorf("%w: %v", ErrScoring, scoring.ErrNotConfigured)
	}

	start := time.Now()
	raw, err := s.Oracle.Score(ctx, scoring.Request{
		CompanyName:    sub.CompanyName,
		JobTitle:       sub.JobTitle,
		JobDescription: sub.JobDescription,
		ImageURL:       sub.ResumeImageURL,
	})
	if err != nil {
		s.logFailure(userID, "oracle", err, start)
		return ResumeUpload{}, fmt.Errorf("%w: %v", ErrScoring, err)
	}
	if err := ValidateFeedback(raw); err != nil {
		s.logFailure(userID, "schema", err, start)
		return ResumeUpload{}, fmt.Errorf("%w: %v", ErrScoring, err)
	}

	upload := ResumeUpload{
		ID:             s.newID(),
		UserID:         userID,
		CompanyName:    sub.CompanyName,
		JobTitle:       sub.JobTitle,
		JobDescription: sub.JobDescription,
		ResumeImageURL: sub.ResumeImageURL,
		Feedback:       raw,
		CreatedAt:      s.now(),
	}
	if err := s.Repo.Create(ctx, upload); err != nil {
		s.logFailure(userID, "persist", err, start)
		return ResumeUpload{}, fmt.Errorf("%w: persist: %v", ErrScoring, err)
	}

	score, _ := ATS(raw)
	telemetry.Info("review.created", map[string]any{
		"review_id":   upload.ID,
		"user_id":     userID,
		"ats_score":   score,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return upload, nil
}

// Get returns the caller's record or ErrNotFound. Ids that are not UUIDs can
// never match a record.
func (s *Service) Get(ctx context.Context, userID, id string) (ResumeUpload, error) {
	if userID == "" || id == "" {
		return ResumeUpload{}, ErrNotFound
	}
	if _, err := uuid.Parse(id); err != nil {
		return ResumeUpload{}, ErrNotFound
	}
	return s.Repo.GetByIDForUser(ctx, userID, id)
}

// List returns the caller's records, newest first. limit <= 0 returns all of them.
func (s *Service) List(ctx context.Context, userID string, limit int) ([]Summary, error) {
	if limit < 0 {
		limit = 0
	}
	return s.Repo.ListByUser(ctx, userID, limit)
}

func (s *Service) validate(sub Submission) error {
	v := s.Validate
	if v == nil {
		v = newValidator()
	}
	err := v.Struct(sub)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Fields: []string{err.Error()}}
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return &ValidationError{Fields: fields}
}

func (s *Service) logFailure(userID, step string, err error, start time.Time) {
	telemetry.Error("review.scoring_failed", map[string]any{
		"user_id":     userID,
		"step":        step,
		"error":       util.SanitizeError(err),
		"duration_ms": time.Since(start).Milliseconds(),
	})
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}
