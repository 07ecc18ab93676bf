package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/panics"
)

// PayloadFunc is the unit of work carried by a WorkItem
type PayloadFunc func(ctx context.Context) (any, error)

// PayloadSpec describes a payload by name so it can be rebuilt in another process
type PayloadSpec struct {
	// Kind is the registry name of the payload
	Kind string `json:"kind"`

	// Args is the JSON-encoded argument document passed to the payload
	Args json.RawMessage `json:"args,omitempty"`
}

// WorkItem is one unit of submitted work
type WorkItem struct {
	// ID identifies the item; it must be non-empty and unique within a batch
	ID string

	// Payload is invoked in-process by every strategy except Processes
	Payload PayloadFunc

	// Spec is the serializable form used by the Processes strategy
	Spec *PayloadSpec
}

// Outcome is the recorded result of executing one WorkItem
type Outcome struct {
	// ID is the ID of the item this outcome belongs to
	ID string

	// Success is true when the payload returned without error
	Success bool

	// Value is the payload's return value (nil on failure)
	Value any

	// Err is the failure detail, an *ItemError (nil on success)
	Err error

	// StartedAt is the wall-clock time the payload was invoked
	StartedAt time.Time

	// Duration is how long the payload invocation took
	Duration time.Duration
}

// ItemError wraps a payload failure with the ID of the failing item
type ItemError struct {
	ID  string
	Err error
}

// Error implements the error interface
func (e *ItemError) Error() string {
	return fmt.Sprintf("item %q: %v", e.ID, e.Err)
}

// Unwrap returns the payload error for errors.Is/As compatibility
func (e *ItemError) Unwrap() error {
	return e.Err
}

func failedOutcome(id string, startedAt time.Time, d time.Duration, err error) Outcome {
	return Outcome{
		ID:        id,
		Success:   false,
		Err:       &ItemError{ID: id, Err: err},
		StartedAt: startedAt,
		Duration:  d,
	}
}

// invoke runs the item's payload, recording timing and turning errors and
// panics into a failed Outcome.
func invoke(ctx context.Context, item WorkItem) Outcome {
	startedAt := time.Now()

	var (
		value any
		err   error
		pc    panics.Catcher
	)
	pc.Try(func() {
		value, err = item.Payload(ctx)
	})
	duration := time.Since(startedAt)

	if r := pc.Recovered(); r != nil {
		err = r.AsError()
	}
	if err != nil {
		return failedOutcome(item.ID, startedAt, duration, err)
	}

	return Outcome{
		ID:        item.ID,
		Success:   true,
		Value:     value,
		StartedAt: startedAt,
		Duration:  duration,
	}
}

// indexedItem pairs an item with its submission index for result ordering
type indexedItem struct {
	item  WorkItem
	index int
}
