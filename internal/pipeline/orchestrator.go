package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"resume-review/internal/rasterize"
	"resume-review/internal/scoring"
	"resume-review/internal/shared/metrics"
	"resume-review/internal/shared/telemetry"
	"resume-review/internal/shared/tracing"
	"resume-review/internal/shared/util"
	"resume-review/internal/upload"
)

const tracerName = "resume-review/internal/pipeline"

// Scorer submits metadata and an image URL for evaluation and returns the id of
// the persisted feedback record.
type Scorer interface {
	RequestFeedback(ctx context.Context, userID string, req scoring.Request) (string, error)
}

// Navigator receives the review id once a run completes.
type Navigator interface {
	Navigate(ctx context.Context, reviewID string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, reviewID string)

func (f NavigatorFunc) Navigate(ctx context.Context, reviewID string) { f(ctx, reviewID) }

// Orchestrator drives one run at a time through convert, upload and score.
type Orchestrator struct {
	Rasterizer rasterize.Rasterizer
	Sink       upload.Sink
	Scorer     Scorer
	Navigator  Navigator

	Now func() time.Time
}

// RunOptions carries per-run hooks. All fields are optional.
type RunOptions struct {
	RunID     string
	UserID    string
	Observe   func(State)
	Navigator Navigator
}

// Begin validates req and returns the first working state. No stage runs here.
func (o *Orchestrator) Begin(req Request) (State, error) {
	return Transition(Idle(), Submit(req))
}

// Run validates req and, when valid, runs every stage to a terminal state. The
// returned error is non-nil only when the submission was rejected.
func (o *Orchestrator) Run(ctx context.Context, req Request, opts RunOptions) (State, error) {
	s, err := o.Begin(req)
	if err != nil {
		return s, err
	}
	o.logTransition(ctx, opts, Idle(), s, 0)
	if opts.Observe != nil {
		opts.Observe(s)
	}
	return o.Continue(ctx, req, s, opts), nil
}

// Continue runs the stages starting from s, which must be ConvertingDocument.
// It always returns a terminal state.
func (o *Orchestrator) Continue(ctx context.Context, req Request, s State, opts RunOptions) State {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "pipeline.run",
		trace.WithAttributes(attribute.String("run.id", opts.RunID)))
	defer span.End()

	metrics.IncRunStarted()

	var (
		img   rasterize.Image
		asset upload.Asset
	)
	for !s.Terminal() {
		started := o.now()
		var ev Event
		switch s.Phase {
		case PhaseConvertingDocument:
			ev = o.convert(ctx, req, &img)
		case PhaseUploadingAsset:
			ev = o.upload(ctx, opts.UserID, img, &asset)
			img = rasterize.Image{}
		case PhaseRequestingFeedback:
			ev = o.score(ctx, opts.UserID, req, asset)
		default:
			ev = Event{Kind: EventKind("unexpected"), Err: fmt.Errorf("cannot continue from %s", s.Phase)}
		}

		elapsed := o.now().Sub(started)
		metrics.ObserveStage(string(s.Phase), elapsed)

		next, err := Transition(s, ev)
		if err != nil {
			// A stage produced an event its phase does not accept; the run
			// still has to end.
			next = failed(s.Phase, kindFor(s.Phase), ReasonGeneric, err)
		}
		o.logTransition(ctx, opts, s, next, elapsed)
		s = next
		if opts.Observe != nil {
			opts.Observe(s)
		}
	}

	if s.Phase == PhaseComplete {
		metrics.IncRunCompleted()
		span.SetAttributes(attribute.String("review.id", s.ReviewID))
		nav := opts.Navigator
		if nav == nil {
			nav = o.Navigator
		}
		if nav != nil {
			nav.Navigate(ctx, s.ReviewID)
		}
	} else {
		metrics.IncRunFailed(string(s.Failure.Stage))
		span.SetStatus(codes.Error, s.Failure.Error())
	}
	return s
}

func (o *Orchestrator) convert(ctx context.Context, req Request, out *rasterize.Image) Event {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "pipeline.convert")
	defer span.End()

	err := guard(func() error {
		if o.Rasterizer == nil {
			return errors.New("rasterizer not configured")
		}
		img, err := o.Rasterizer.Rasterize(ctx, req.Document)
		if err != nil {
			return err
		}
		*out = img
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return Event{Kind: EventRasterizeFailed, Err: err}
	}
	return Event{Kind: EventRasterizeOK}
}

func (o *Orchestrator) upload(ctx context.Context, userID string, img rasterize.Image, out *upload.Asset) Event {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "pipeline.upload")
	defer span.End()

	err := guard(func() error {
		if o.Sink == nil {
			return errors.New("upload sink not configured")
		}
		asset, err := o.Sink.Upload(upload.WithOwner(ctx, userID), img)
		if err != nil {
			return err
		}
		if asset.URL == "" {
			return &upload.Error{Reason: "sink returned no url"}
		}
		*out = asset
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return Event{Kind: EventUploadFailed, Err: err}
	}
	span.SetAttributes(attribute.String("asset.key", out.Key))
	return Event{Kind: EventUploadOK}
}

func (o *Orchestrator) score(ctx context.Context, userID string, req Request, asset upload.Asset) Event {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "pipeline.score")
	defer span.End()

	var id string
	err := guard(func() error {
		if o.Scorer == nil {
			return errors.New("scorer not configured")
		}
		var err error
		id, err = o.Scorer.RequestFeedback(ctx, userID, scoring.Request{
			CompanyName:    req.CompanyName,
			JobTitle:       req.JobTitle,
			JobDescription: req.JobDescription,
			ImageURL:       asset.URL,
		})
		if err == nil && id == "" {
			err = errors.New("scorer returned no review id")
		}
		return err
	})
	if err != nil {
		span.RecordError(err)
		return Event{Kind: EventScoreFailed, Err: err}
	}
	return Event{Kind: EventScoreOK, ReviewID: id}
}

// guard turns a panic inside fn into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stage panic: %v", r)
		}
	}()
	return fn()
}

func kindFor(p Phase) FailureKind {
	switch p {
	case PhaseConvertingDocument:
		return KindConversion
	case PhaseUploadingAsset:
		return KindUpload
	default:
		return KindScoring
	}
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o *Orchestrator) logTransition(ctx context.Context, opts RunOptions, from, to State, elapsed time.Duration) {
	fields := map[string]any{
		"run_id":            opts.RunID,
		"user_id":           opts.UserID,
		"status_transition": string(from.Phase) + "->" + string(to.Phase),
		"duration_ms":       elapsed.Milliseconds(),
	}
	if traceID := tracing.TraceID(ctx); traceID != "" {
		fields["trace_id"] = traceID
	}
	if to.Phase == PhaseComplete {
		fields["review_id"] = to.ReviewID
	}
	if to.Failure != nil {
		fields["failure_kind"] = string(to.Failure.Kind)
		fields["error"] = util.SanitizeError(to.Failure.Cause)
		telemetry.Warn("pipeline.transition", fields)
		return
	}
	telemetry.Info("pipeline.transition", fields)
}
