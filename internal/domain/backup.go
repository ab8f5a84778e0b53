package domain

import (
	"fmt"
	"time"
)

// Artifact is the on-disk file produced by a successful backup. It is never
// constructed for a failed run.
type Artifact struct {
	FilePath  string
	SizeBytes int64
	CreatedAt time.Time
	Engine    EngineKind
}

// Stage identifies where in the per-target pipeline a failure occurred.
type Stage string

const (
	StageResolve Stage = "resolve"
	StageExecute Stage = "execute"
	StageRetain  Stage = "retain"
	StageNotify  Stage = "notify"
)

// Failure records why one target's backup did not produce an artifact.
type Failure struct {
	Stage   Stage
	Message string
	Cause   error
}

func (f *Failure) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("%s stage: %s: %v", f.Stage, f.Message, f.Cause)
	}
	return fmt.Sprintf("%s stage: %s", f.Stage, f.Message)
}

func (f *Failure) Unwrap() error { return f.Cause }

// Outcome is the result of processing one target. Exactly one of Artifact or
// Failure is set.
type Outcome struct {
	Artifact *Artifact
	Failure  *Failure
}

func SuccessOutcome(artifact *Artifact) Outcome {
	return Outcome{Artifact: artifact}
}

func FailureOutcome(stage Stage, message string, cause error) Outcome {
	return Outcome{Failure: &Failure{Stage: stage, Message: message, Cause: cause}}
}

func (o Outcome) Succeeded() bool { return o.Failure == nil }

// TargetResult pairs a target with its outcome in the run summary.
type TargetResult struct {
	Target  Target
	Outcome Outcome
}

// RunSummary aggregates the outcomes of one batch. Results holds one entry
// per input target, in input order, regardless of completion order.
type RunSummary struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []TargetResult
}

func (s *RunSummary) Failed() int {
	failed := 0
	for _, r := range s.Results {
		if !r.Outcome.Succeeded() {
			failed++
		}
	}
	return failed
}

func (s *RunSummary) AllSucceeded() bool { return s.Failed() == 0 }
