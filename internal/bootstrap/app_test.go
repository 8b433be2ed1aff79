package bootstrap_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"resume-review/internal/bootstrap"
	"resume-review/internal/pipeline"
	"resume-review/internal/rasterize"
	"resume-review/internal/scoring"
	"resume-review/internal/shared/auth"
	"resume-review/internal/shared/config"
	"resume-review/internal/upload"
)

type stubRasterizer struct{}

func (stubRasterizer) Rasterize(ctx context.Context, document []byte) (rasterize.Image, error) {
	return rasterize.Image{Data: []byte("\x89PNG fake"), MimeType: "image/png", Width: 1, Height: 1}, nil
}

type stubOracle struct {
	seen scoring.Request
}

func (o *stubOracle) Score(ctx context.Context, req scoring.Request) (json.RawMessage, error) {
	o.seen = req
	return json.RawMessage(`{"overallScore":77,"ATS":{"score":82,"tips":["Quantify impact"]}}`), nil
}

func testConfig(t *testing.T) config.Config {
	return config.Config{
		Port:               "0",
		Env:                "dev",
		CORSAllowOrigin:    []string{"http://localhost:3000"},
		ObjectStoreType:    "local",
		LocalStoreDir:      t.TempDir(),
		PublicAssetBaseURL: "http://localhost:8080/api/v1/assets",
		ScoringProvider:    "none",
		MaxDocumentBytes:   config.DefaultMaxDocumentBytes,
		MaxImageBytes:      config.DefaultMaxImageBytes,
		RunTTL:             time.Minute,
	}
}

func addGuestHeader(req *http.Request) {
	req.Header.Set("X-Guest-Id", "e2e")
}

func analysisBody(t *testing.T) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range map[string]string{
		"companyName":    "Acme",
		"jobTitle":       "Backend Engineer",
		"jobDescription": "Go and Postgres",
	} {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="resume.pdf"`)
	hdr.Set("Content-Type", "application/pdf")
	part, err := w.CreatePart(hdr)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write([]byte("%PDF-1.4\n")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, w.FormDataContentType()
}

func TestAnalysisEndToEnd(t *testing.T) {
	gin.SetMode(gin.TestMode)

	app, err := bootstrap.Build(testConfig(t))
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	defer app.Close()

	oracle := &stubOracle{}
	app.ReviewsService.Oracle = oracle
	app.Orchestrator.Rasterizer = stubRasterizer{}
	router := app.Router

	body, ct := analysisBody(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", body)
	req.Header.Set("Content-Type", ct)
	addGuestHeader(req)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", resp.Code, resp.Body.String())
	}
	var started struct {
		RunID string `json:"runId"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &started); err != nil {
		t.Fatalf("decode start: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.Runner.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}

	statusReq := httptest.NewRequest(http.MethodGet, "/api/v1/analyses/"+started.RunID, nil)
	addGuestHeader(statusReq)
	statusResp := httptest.NewRecorder()
	router.ServeHTTP(statusResp, statusReq)
	if statusResp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", statusResp.Code)
	}
	var status struct {
		State    string `json:"state"`
		ReviewID string `json:"reviewId"`
	}
	if err := json.Unmarshal(statusResp.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.State != string(pipeline.PhaseComplete) || status.ReviewID == "" {
		t.Fatalf("unexpected status %s", statusResp.Body.String())
	}
	location := statusResp.Header().Get("Location")
	if location != "/api/v1/reviews/"+status.ReviewID {
		t.Fatalf("unexpected location %q", location)
	}

	if !strings.HasPrefix(oracle.seen.ImageURL, "http://localhost:8080/api/v1/assets/"+upload.KeyPrefix+"/") {
		t.Fatalf("unexpected image url %q", oracle.seen.ImageURL)
	}
	assetReq := httptest.NewRequest(http.MethodGet, strings.TrimPrefix(oracle.seen.ImageURL, "http://localhost:8080"), nil)
	assetResp := httptest.NewRecorder()
	router.ServeHTTP(assetResp, assetReq)
	if assetResp.Code != http.StatusOK {
		t.Fatalf("expected uploaded asset to be served, got %d", assetResp.Code)
	}

	reviewReq := httptest.NewRequest(http.MethodGet, location, nil)
	addGuestHeader(reviewReq)
	reviewResp := httptest.NewRecorder()
	router.ServeHTTP(reviewResp, reviewReq)
	if reviewResp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", reviewResp.Code)
	}
	var review struct {
		ATSScore int      `json:"atsScore"`
		ATSTips  []string `json:"atsTips"`
	}
	if err := json.Unmarshal(reviewResp.Body.Bytes(), &review); err != nil {
		t.Fatalf("decode review: %v", err)
	}
	if review.ATSScore != 82 || len(review.ATSTips) != 1 {
		t.Fatalf("unexpected review %s", reviewResp.Body.String())
	}

	otherReq := httptest.NewRequest(http.MethodGet, location, nil)
	otherReq.Header.Set("X-Guest-Id", "someone-else")
	otherResp := httptest.NewRecorder()
	router.ServeHTTP(otherResp, otherReq)
	if otherResp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another owner, got %d", otherResp.Code)
	}
}

func TestBuildRequiresDatabaseOutsideDev(t *testing.T) {
	t.Cleanup(auth.Configure("", "dev"))
	cfg := testConfig(t)
	cfg.Env = "production"

	if _, err := bootstrap.Build(cfg); err == nil {
		t.Fatalf("expected error without DATABASE_URL in production")
	}
}

func TestBuildRemoteScorerNeedsEndpoint(t *testing.T) {
	cfg := testConfig(t)
	cfg.ScoringProvider = "remote"

	if _, err := bootstrap.Build(cfg); err == nil {
		t.Fatalf("expected error without SCORING_ENDPOINT")
	}
}

func TestBuildUsesConfiguredJWTSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "ignored-env-secret")
	t.Cleanup(auth.Configure("", "dev"))

	cfg := testConfig(t)
	cfg.JWTSecret = "configured-secret"
	app, err := bootstrap.Build(cfg)
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	defer app.Close()

	sign := func(secret string) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		}).SignedString([]byte(secret))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return token
	}

	for secret, want := range map[string]int{
		"configured-secret":  http.StatusOK,
		"ignored-env-secret": http.StatusUnauthorized,
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
		req.Header.Set("Authorization", "Bearer "+sign(secret))
		resp := httptest.NewRecorder()
		app.Router.ServeHTTP(resp, req)
		if resp.Code != want {
			t.Fatalf("secret %q: expected %d, got %d: %s", secret, want, resp.Code, resp.Body.String())
		}
	}
}
