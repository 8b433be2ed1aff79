package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"resume-review/internal/scoring"
	"resume-review/internal/shared/telemetry"
)

const defaultModel = "gemini-2.5-flash"

// contentGenerator is the part of genai.Models the oracle needs.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client implements scoring.Oracle on top of the Gemini API.
type Client struct {
	models    contentGenerator
	modelName string
	timeout   time.Duration
}

// NewClient creates a Gemini-backed oracle.
func NewClient(ctx context.Context, apiKey, model string, timeout time.Duration) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	return &Client{models: client.Models, modelName: model, timeout: timeout}, nil
}

// Score sends the instructions plus the image as a file-URI part and expects JSON back.
func (c *Client) Score(ctx context.Context, req scoring.Request) (json.RawMessage, error) {
	if c == nil || c.models == nil {
		return nil, errors.New("gemini client is not initialized")
	}
	if strings.TrimSpace(req.ImageURL) == "" {
		return nil, errors.New("image url is required")
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(scoring.Instructions(req)),
			genai.NewPartFromURI(req.ImageURL, mimeTypeFor(req.ImageURL)),
		}, genai.RoleUser),
	}
	cfg := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}

	start := time.Now()
	resp, err := c.models.GenerateContent(ctx, c.modelName, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return nil, errors.New("gemini api returned empty response")
	}
	telemetry.Info("scoring.response", map[string]any{
		"provider":    "gemini",
		"model":       c.modelName,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return scoring.ExtractJSON(text)
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || strings.TrimSpace(part.Text) == "" {
				continue
			}
			builder.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(builder.String())
}

func mimeTypeFor(url string) string {
	lower := strings.ToLower(url)
	if strings.HasSuffix(lower, ".jpg") || strings.HasSuffix(lower, ".jpeg") {
		return "image/jpeg"
	}
	return "image/png"
}

var _ scoring.Oracle = (*Client)(nil)
