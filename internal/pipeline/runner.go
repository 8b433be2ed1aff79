package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"resume-review/internal/shared/telemetry"
)

// DefaultRunTTL is how long a run stays queryable after it was last updated.
const DefaultRunTTL = 30 * time.Minute

// ReviewsPath is where completed runs point callers.
const ReviewsPath = "/api/v1/reviews/"

var (
	// ErrRunInFlight is returned when the user already has a non-terminal run.
	ErrRunInFlight = errors.New("analysis already in progress")
	// ErrRunNotFound is returned for unknown, expired or foreign runs.
	ErrRunNotFound = errors.New("analysis run not found")
)

// RunSnapshot is a point-in-time copy of a run.
type RunSnapshot struct {
	ID        string
	UserID    string
	State     State
	Location  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type run struct {
	snap RunSnapshot
}

// Runner starts runs in the background and keeps their status for polling.
type Runner struct {
	Orchestrator *Orchestrator
	TTL          time.Duration

	Now   func() time.Time
	NewID func() string

	mu     sync.RWMutex
	runs   map[string]*run
	active map[string]string // user id -> run id
	wg     sync.WaitGroup
}

// NewRunner returns a Runner over o; ttl <= 0 means DefaultRunTTL.
func NewRunner(o *Orchestrator, ttl time.Duration) *Runner {
	if ttl <= 0 {
		ttl = DefaultRunTTL
	}
	return &Runner{
		Orchestrator: o,
		TTL:          ttl,
		Now:          time.Now,
		NewID:        uuid.NewString,
		runs:         make(map[string]*run),
		active:       make(map[string]string),
	}
}

// Start validates req and launches a run for userID. The run keeps going after
// ctx is cancelled.
func (r *Runner) Start(ctx context.Context, userID string, req Request) (RunSnapshot, error) {
	first, err := r.Orchestrator.Begin(req)
	if err != nil {
		return RunSnapshot{}, err
	}

	r.mu.Lock()
	r.purgeLocked()
	if id, ok := r.active[userID]; ok {
		if cur, ok := r.runs[id]; ok && !cur.snap.State.Terminal() {
			r.mu.Unlock()
			return RunSnapshot{}, ErrRunInFlight
		}
	}
	now := r.Now()
	rn := &run{snap: RunSnapshot{
		ID:        r.NewID(),
		UserID:    userID,
		State:     first,
		CreatedAt: now,
		UpdatedAt: now,
	}}
	r.runs[rn.snap.ID] = rn
	r.active[userID] = rn.snap.ID
	snap := rn.snap
	r.mu.Unlock()

	opts := RunOptions{
		RunID:  snap.ID,
		UserID: userID,
		Observe: func(s State) {
			r.update(snap.ID, func(rs *RunSnapshot) { rs.State = s })
		},
		Navigator: NavigatorFunc(func(_ context.Context, reviewID string) {
			r.update(snap.ID, func(rs *RunSnapshot) { rs.Location = ReviewsPath + reviewID })
		}),
	}
	r.Orchestrator.logTransition(ctx, opts, Idle(), first, 0)

	runCtx := context.WithoutCancel(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if p := recover(); p != nil {
				telemetry.Error("pipeline.run_panic", map[string]any{"run_id": snap.ID, "panic": p})
				r.update(snap.ID, func(rs *RunSnapshot) {
					rs.State = failed(rs.State.Phase, kindFor(rs.State.Phase), ReasonGeneric, errors.New("run panicked"))
				})
			}
		}()
		r.Orchestrator.Continue(runCtx, req, first, opts)
	}()

	return snap, nil
}

// Get returns the run with id if it belongs to userID.
func (r *Runner) Get(userID, id string) (RunSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.purgeLocked()
	rn, ok := r.runs[id]
	if !ok || rn.snap.UserID != userID || r.expired(rn) {
		return RunSnapshot{}, ErrRunNotFound
	}
	return rn.snap, nil
}

// Sweep drops expired runs every interval until ctx is done.
func (r *Runner) Sweep(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.mu.Lock()
			r.purgeLocked()
			r.mu.Unlock()
		}
	}
}

// Wait blocks until every started run finishes or ctx is done.
func (r *Runner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) update(id string, fn func(*RunSnapshot)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rn, ok := r.runs[id]
	if !ok {
		return
	}
	fn(&rn.snap)
	rn.snap.UpdatedAt = r.Now()
}

func (r *Runner) expired(rn *run) bool {
	return r.Now().Sub(rn.snap.UpdatedAt) > r.TTL
}

func (r *Runner) purgeLocked() {
	for id, rn := range r.runs {
		if !r.expired(rn) {
			continue
		}
		delete(r.runs, id)
		if r.active[rn.snap.UserID] == id {
			delete(r.active, rn.snap.UserID)
		}
	}
}
