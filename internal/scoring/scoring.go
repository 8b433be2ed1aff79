// Package scoring defines the oracle that turns a resume image plus job metadata
// into structured feedback, and the clients that talk to it.
package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// Request is what the oracle is asked to evaluate.
type Request struct {
	CompanyName    string
	JobTitle       string
	JobDescription string
	ImageURL       string
}

// Oracle produces a feedback JSON object for a request.
type Oracle interface {
	Score(ctx context.Context, req Request) (json.RawMessage, error)
}

// ErrNotConfigured is returned by the placeholder oracle.
var ErrNotConfigured = errors.New("scoring oracle not configured")

// Placeholder is used when no provider is configured.
type Placeholder struct{}

// Score returns ErrNotConfigured.
func (Placeholder) Score(ctx context.Context, req Request) (json.RawMessage, error) {
	return nil, ErrNotConfigured
}

// ExtractJSON trims markdown fences and surrounding prose from a model reply.
func ExtractJSON(raw string) (json.RawMessage, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	if start, end := strings.Index(s, "{"), strings.LastIndex(s, "}"); start >= 0 && end > start {
		s = s[start : end+1]
	}
	if !json.Valid([]byte(s)) {
		return nil, errors.New("oracle returned invalid JSON")
	}
	return json.RawMessage(s), nil
}
