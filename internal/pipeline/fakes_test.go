package pipeline

import (
	"context"
	"errors"
	"sync"

	"resume-review/internal/rasterize"
	"resume-review/internal/scoring"
	"resume-review/internal/upload"
)

type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, name)
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type fakeRasterizer struct {
	log   *callLog
	err   error
	panic bool
	gate  chan struct{}
}

func (f *fakeRasterizer) Rasterize(ctx context.Context, document []byte) (rasterize.Image, error) {
	f.log.add("rasterize")
	if f.gate != nil {
		<-f.gate
	}
	if f.panic {
		panic("renderer crashed")
	}
	if f.err != nil {
		return rasterize.Image{}, f.err
	}
	return rasterize.Image{Data: []byte("png"), MimeType: "image/png", Width: 10, Height: 10}, nil
}

type fakeSink struct {
	mu    sync.Mutex
	log   *callLog
	err   error
	panic bool
	owner string
}

func (f *fakeSink) Upload(ctx context.Context, img rasterize.Image) (upload.Asset, error) {
	f.log.add("upload")
	f.mu.Lock()
	f.owner = upload.OwnerFromContext(ctx)
	f.mu.Unlock()
	if f.panic {
		panic("sink crashed")
	}
	if f.err != nil {
		return upload.Asset{}, f.err
	}
	return upload.Asset{URL: "https://cdn.example/resume-images/u/1.png", Key: "resume-images/u/1.png", SizeBytes: int64(len(img.Data))}, nil
}

type fakeScorer struct {
	mu   sync.Mutex
	log  *callLog
	id   string
	err  error
	last scoring.Request
	user string
}

func (f *fakeScorer) RequestFeedback(ctx context.Context, userID string, req scoring.Request) (string, error) {
	f.log.add("score")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = req
	f.user = userID
	if f.err != nil {
		return "", f.err
	}
	return f.id, nil
}

type recordingNavigator struct {
	mu  sync.Mutex
	ids []string
}

func (n *recordingNavigator) Navigate(ctx context.Context, reviewID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ids = append(n.ids, reviewID)
}

type harness struct {
	log    *callLog
	raster *fakeRasterizer
	sink   *fakeSink
	scorer *fakeScorer
	nav    *recordingNavigator
	orch   *Orchestrator
}

func newHarness() *harness {
	log := &callLog{}
	h := &harness{
		log:    log,
		raster: &fakeRasterizer{log: log},
		sink:   &fakeSink{log: log},
		scorer: &fakeScorer{log: log, id: "review-123"},
		nav:    &recordingNavigator{},
	}
	h.orch = &Orchestrator{Rasterizer: h.raster, Sink: h.sink, Scorer: h.scorer, Navigator: h.nav}
	return h
}

func validRequest() Request {
	return Request{
		CompanyName:    "Acme",
		JobTitle:       "Backend Engineer",
		JobDescription: "Go, Postgres",
		Document:       []byte("%PDF-1.4 fake"),
		FileName:       "resume.pdf",
	}
}

var errBoom = errors.New("boom")
