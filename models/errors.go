package models

import "fmt"

// DataGapError reports insufficient samples for one feature. It degrades
// confidence for the affected entity but never aborts the cycle.
type DataGapError struct {
	EntityID string
	Feature  string
	Samples  int
	Required int
}

func (e *DataGapError) Error() string {
	return fmt.Sprintf("data gap for %s/%s: %d samples, need %d",
		e.EntityID, e.Feature, e.Samples, e.Required)
}

// UnscoreableEntityError means no usable feature slot exists for an entity.
// The entity is skipped for this cycle and its prior score is retained.
type UnscoreableEntityError struct {
	EntityID string
}

func (e *UnscoreableEntityError) Error() string {
	return fmt.Sprintf("entity %s is unscoreable: no usable feature data", e.EntityID)
}

// ModelUnavailableError means the scoring function could not run at all.
type ModelUnavailableError struct {
	Model string
	Cause error
}

func (e *ModelUnavailableError) Error() string {
	return fmt.Sprintf("model %s unavailable: %v", e.Model, e.Cause)
}

func (e *ModelUnavailableError) Unwrap() error { return e.Cause }

// PublishError wraps a sink failure. Results hit by it are buffered and
// retried, never silently dropped.
type PublishError struct {
	Sink  string
	Cause error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish to %s failed: %v", e.Sink, e.Cause)
}

func (e *PublishError) Unwrap() error { return e.Cause }
