package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrFeedbackRejected is returned when the feedback endpoint answers with a non-2xx status.
var ErrFeedbackRejected = errors.New("feedback endpoint rejected the request")

// FeedbackRequest is the body accepted by POST /ai/feedback.
type FeedbackRequest struct {
	CompanyName    string `json:"companyName"`
	JobTitle       string `json:"jobTitle"`
	JobDescription string `json:"jobDescription"`
	ResumeImageURL string `json:"resumeImageUrl"`
}

// FeedbackClient submits feedback requests to a remote feedback endpoint.
type FeedbackClient struct {
	Endpoint   string
	Token      string
	GuestID    string
	HTTPClient *http.Client
}

// NewFeedbackClient builds a client for endpoint with the given timeout.
func NewFeedbackClient(endpoint, token string, timeout time.Duration) *FeedbackClient {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &FeedbackClient{
		Endpoint:   strings.TrimSpace(endpoint),
		Token:      strings.TrimSpace(token),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// Submit posts req and returns the id of the persisted record.
func (c *FeedbackClient) Submit(ctx context.Context, req FeedbackRequest) (string, error) {
	if c.Endpoint == "" {
		return "", errors.New("feedback endpoint is not configured")
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.Token)
	} else if c.GuestID != "" {
		httpReq.Header.Set("X-Guest-Id", c.GuestID)
	}

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("feedback request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read feedback response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("%w: status %d: %s", ErrFeedbackRejected, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode feedback response: %w", err)
	}
	if strings.TrimSpace(out.ID) == "" {
		return "", errors.New("feedback response missing id")
	}
	return out.ID, nil
}
