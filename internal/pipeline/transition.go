package pipeline

import "fmt"

// EventKind names what happened in the current stage.
type EventKind string

const (
	EventSubmit          EventKind = "submit"
	EventRasterizeOK     EventKind = "rasterize_ok"
	EventRasterizeFailed EventKind = "rasterize_failed"
	EventUploadOK        EventKind = "upload_ok"
	EventUploadFailed    EventKind = "upload_failed"
	EventScoreOK         EventKind = "score_ok"
	EventScoreFailed     EventKind = "score_failed"
)

// Event drives Transition. Request is read for Submit, ReviewID for ScoreOK and
// Err for the failure events.
type Event struct {
	Kind     EventKind
	Request  *Request
	ReviewID string
	Err      error
}

// Submit builds the event that starts a run.
func Submit(req Request) Event { return Event{Kind: EventSubmit, Request: &req} }

// Transition is the pipeline state machine. It has no side effects. On error the
// returned state equals s.
func Transition(s State, e Event) (State, error) {
	switch s.Phase {
	case PhaseIdle:
		if e.Kind == EventSubmit {
			if e.Request == nil {
				return s, &ValidationError{Fields: []string{"request"}}
			}
			if err := e.Request.Validate(); err != nil {
				return s, err
			}
			return State{Phase: PhaseConvertingDocument}, nil
		}
	case PhaseConvertingDocument:
		switch e.Kind {
		case EventRasterizeOK:
			return State{Phase: PhaseUploadingAsset}, nil
		case EventRasterizeFailed:
			return failed(s.Phase, KindConversion, ReasonConversionFailed, e.Err), nil
		}
	case PhaseUploadingAsset:
		switch e.Kind {
		case EventUploadOK:
			return State{Phase: PhaseRequestingFeedback}, nil
		case EventUploadFailed:
			return failed(s.Phase, KindUpload, ReasonGeneric, e.Err), nil
		}
	case PhaseRequestingFeedback:
		switch e.Kind {
		case EventScoreOK:
			if e.ReviewID == "" {
				return s, fmt.Errorf("%w: score_ok without review id", ErrIllegalTransition)
			}
			return State{Phase: PhaseComplete, ReviewID: e.ReviewID}, nil
		case EventScoreFailed:
			return failed(s.Phase, KindScoring, ReasonGeneric, e.Err), nil
		}
	}
	return s, fmt.Errorf("%w: %s on %s", ErrIllegalTransition, e.Kind, s.Phase)
}

func failed(stage Phase, kind FailureKind, reason string, cause error) State {
	return State{
		Phase:   PhaseFailed,
		Reason:  reason,
		Failure: &Failure{Stage: stage, Kind: kind, Cause: cause},
	}
}
