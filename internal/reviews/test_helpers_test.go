package reviews

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"resume-review/internal/scoring"
)

type fakeOracle struct {
	mu    sync.Mutex
	raw   string
	err   error
	calls []scoring.Request
}

func (f *fakeOracle) Score(ctx context.Context, req scoring.Request) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(f.raw), nil
}

func (f *fakeOracle) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type failingRepo struct {
	*MemoryRepo
}

func (failingRepo) Create(ctx context.Context, upload ResumeUpload) error {
	return errors.New("db down")
}

var fixedNow = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func newTestService(repo Repo, oracle scoring.Oracle) *Service {
	svc := NewService(repo, oracle)
	svc.Now = func() time.Time { return fixedNow }
	return svc
}

func validSubmission() Submission {
	return Submission{
		CompanyName:    "Acme",
		JobTitle:       "Engineer",
		JobDescription: "Build things",
		ResumeImageURL: "https://cdn.example/resume.png",
	}
}
