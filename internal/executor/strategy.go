package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/aryankumar/batchrun/internal/util"
)

// Executor is the contract shared by every execution backend: run all items
// with at most concurrency payloads in flight and return one outcome per item
// in submission order.
type Executor interface {
	Execute(ctx context.Context, items []WorkItem, concurrency int) []Outcome
}

// Strategy selects an execution backend
type Strategy int

const (
	// Cooperative spawns one goroutine per item and bounds execution with a RateLimiter
	Cooperative Strategy = iota + 1
	// Threads runs items on a fixed pool of OS-thread-locked workers
	Threads
	// Processes runs items in a fixed pool of child processes
	Processes
	// Pipeline feeds items through a bounded queue to a set of consumers
	Pipeline
)

// Strategies lists every strategy in declaration order
func Strategies() []Strategy {
	return []Strategy{Cooperative, Threads, Processes, Pipeline}
}

// String returns the canonical name of the strategy
func (s Strategy) String() string {
	switch s {
	case Cooperative:
		return "cooperative"
	case Threads:
		return "threads"
	case Processes:
		return "processes"
	case Pipeline:
		return "pipeline"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// Valid reports whether s is one of the declared strategies
func (s Strategy) Valid() bool {
	switch s {
	case Cooperative, Threads, Processes, Pipeline:
		return true
	default:
		return false
	}
}

// ParseStrategy maps a strategy name to a Strategy. Names are case-insensitive
// and a few aliases are accepted.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "cooperative", "async", "asyncio":
		return Cooperative, nil
	case "threads", "thread":
		return Threads, nil
	case "processes", "process", "procesos":
		return Processes, nil
	case "pipeline", "queue":
		return Pipeline, nil
	default:
		return 0, &ConfigurationError{
			Field:   "strategy",
			Value:   name,
			Message: "unknown strategy (want cooperative, threads, processes or pipeline)",
		}
	}
}

// ConfigurationError reports an invalid batch request. It is returned before
// any payload runs.
type ConfigurationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("invalid %s (value: %v): %s", e.Field, e.Value, e.Message)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Unwrap makes errors.Is(err, util.ErrInvalidConfig) true
func (e *ConfigurationError) Unwrap() error {
	return util.ErrInvalidConfig
}
