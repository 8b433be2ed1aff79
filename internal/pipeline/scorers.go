package pipeline

import (
	"context"
	"errors"
	"fmt"

	"resume-review/internal/reviews"
	"resume-review/internal/scoring"
)

// LocalScorer submits feedback through an in-process review service.
type LocalScorer struct {
	Service *reviews.Service
}

func (s LocalScorer) RequestFeedback(ctx context.Context, userID string, req scoring.Request) (string, error) {
	if s.Service == nil {
		return "", errors.New("review service not configured")
	}
	rec, err := s.Service.SubmitFeedback(ctx, userID, reviews.Submission{
		CompanyName:    req.CompanyName,
		JobTitle:       req.JobTitle,
		JobDescription: req.JobDescription,
		ResumeImageURL: req.ImageURL,
	})
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

// RemoteScorer submits feedback to a remote feedback endpoint. The endpoint
// derives the owner from the bearer token, so when SignToken is set each call
// carries a token minted for the run's user.
type RemoteScorer struct {
	Client    *scoring.FeedbackClient
	SignToken func(userID string) (string, error)
}

func (s RemoteScorer) RequestFeedback(ctx context.Context, userID string, req scoring.Request) (string, error) {
	if s.Client == nil {
		return "", errors.New("feedback client not configured")
	}
	client := s.Client
	if s.SignToken != nil {
		token, err := s.SignToken(userID)
		if err != nil {
			return "", fmt.Errorf("sign feedback token: %w", err)
		}
		scoped := *s.Client
		scoped.Token = token
		client = &scoped
	}
	return client.Submit(ctx, scoring.FeedbackRequest{
		CompanyName:    req.CompanyName,
		JobTitle:       req.JobTitle,
		JobDescription: req.JobDescription,
		ResumeImageURL: req.ImageURL,
	})
}
