package reviews

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Detail is the read-back shape of GET /reviews/:id.
type Detail struct {
	ResumeUpload
	ATSScore int      `json:"atsScore"`
	ATSTips  []string `json:"atsTips"`
}

// Client reads reviews from a running API.
type Client struct {
	BaseURL    string
	Token      string
	GuestID    string
	HTTPClient *http.Client
}

// NewClient returns a client for the API rooted at baseURL (for example http://host/api/v1).
func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Get fetches one of the caller's records.
func (c *Client) Get(ctx context.Context, id string) (Detail, error) {
	var out Detail
	if err := c.do(ctx, "/reviews/"+id, &out); err != nil {
		return Detail{}, err
	}
	return out, nil
}

// List fetches the caller's records.
func (c *Client) List(ctx context.Context) ([]Summary, error) {
	var out struct {
		Items []Summary `json:"items"`
	}
	if err := c.do(ctx, "/reviews", &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) do(ctx context.Context, path string, into any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	} else if c.GuestID != "" {
		req.Header.Set("X-Guest-Id", c.GuestID)
	}

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode/100 != 2:
		return fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.Unmarshal(body, into)
}
