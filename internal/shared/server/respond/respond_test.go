package respond

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"resume-review/internal/shared/telemetry"
)

func newContext(t *testing.T, method, path string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, nil)
	return c, w
}

func TestErrorLevelsAndRunID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := telemetry.Use(zap.New(core))
	defer restore()

	c, w := newContext(t, http.MethodGet, "/api/v1/analyses/run-1")
	c.Set("runId", "run-1")
	Error(c, http.StatusNotFound, "not_found", "analysis not found", nil)

	if w.Code != http.StatusNotFound || !c.IsAborted() {
		t.Fatalf("expected aborted 404, got %d", w.Code)
	}
	var body ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "not_found" || body.Error.Message != "analysis not found" {
		t.Fatalf("unexpected body %s", w.Body.String())
	}

	c2, _ := newContext(t, http.MethodPost, "/api/v1/analyses")
	Error(c2, http.StatusInternalServerError, "internal_error", "failed to start analysis", nil)

	entries := logs.FilterMessage("http.error").All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	if entries[0].Level != zapcore.WarnLevel || entries[0].ContextMap()["run_id"] != "run-1" {
		t.Fatalf("unexpected client error entry %+v", entries[0])
	}
	if entries[1].Level != zapcore.ErrorLevel {
		t.Fatalf("expected error level for 500, got %s", entries[1].Level)
	}
	if _, ok := entries[1].ContextMap()["run_id"]; ok {
		t.Fatalf("run_id should be absent when not set")
	}
}

func TestAcceptedSetsLocation(t *testing.T) {
	c, w := newContext(t, http.MethodPost, "/api/v1/analyses")
	Accepted(c, "/api/v1/analyses/run-9", gin.H{"runId": "run-9"})

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}
	if got := w.Header().Get("Location"); got != "/api/v1/analyses/run-9" {
		t.Fatalf("unexpected location %q", got)
	}
}

func TestCreated(t *testing.T) {
	c, w := newContext(t, http.MethodPost, "/api/v1/ai/feedback")
	Created(c, gin.H{"id": "rec-1"})

	if w.Code != http.StatusCreated || w.Header().Get("Location") != "" {
		t.Fatalf("unexpected response %d %v", w.Code, w.Header())
	}
}
