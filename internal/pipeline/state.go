// Package pipeline runs a resume analysis: convert, upload, score, hand off.
package pipeline

import (
	"errors"
	"fmt"
)

// Phase is a pipeline status.
type Phase string

const (
	PhaseIdle               Phase = "idle"
	PhaseConvertingDocument Phase = "converting_document"
	PhaseUploadingAsset     Phase = "uploading_asset"
	PhaseRequestingFeedback Phase = "requesting_feedback"
	PhaseComplete           Phase = "complete"
	PhaseFailed             Phase = "failed"
)

// User-facing failure reasons.
const (
	ReasonConversionFailed = "Failed to convert PDF to image"
	ReasonGeneric          = "Something went wrong"
)

var statusText = map[Phase]string{
	PhaseIdle:               "",
	PhaseConvertingDocument: "Converting to image...",
	PhaseUploadingAsset:     "Uploading the image...",
	PhaseRequestingFeedback: "Preparing data...",
	PhaseComplete:           "Analysis complete, redirecting...",
}

// ErrIllegalTransition is returned for an event the current phase does not accept.
var ErrIllegalTransition = errors.New("illegal pipeline transition")

// State is one pipeline status. ReviewID is set only when Complete; Reason and
// Failure only when Failed.
type State struct {
	Phase    Phase
	ReviewID string
	Reason   string
	Failure  *Failure
}

// Idle is the starting state of every run.
func Idle() State { return State{Phase: PhaseIdle} }

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s.Phase == PhaseComplete || s.Phase == PhaseFailed
}

// StatusText is the label shown to the user for s.
func (s State) StatusText() string {
	if s.Phase == PhaseFailed {
		return s.Reason
	}
	return statusText[s.Phase]
}

func (s State) String() string {
	switch s.Phase {
	case PhaseComplete:
		return fmt.Sprintf("complete(%s)", s.ReviewID)
	case PhaseFailed:
		return fmt.Sprintf("failed(%s)", s.Reason)
	default:
		return string(s.Phase)
	}
}

// FailureKind tells the stages apart behind the shared user-facing reason.
type FailureKind string

const (
	KindConversion FailureKind = "conversion"
	KindUpload     FailureKind = "upload"
	KindScoring    FailureKind = "scoring"
)

// Failure records which stage failed and why.
type Failure struct {
	Stage Phase
	Kind  FailureKind
	Cause error
}

func (f *Failure) Error() string {
	if f.Cause == nil {
		return fmt.Sprintf("%s failed", f.Kind)
	}
	return fmt.Sprintf("%s failed: %v", f.Kind, f.Cause)
}

func (f *Failure) Unwrap() error { return f.Cause }
