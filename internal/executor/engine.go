package executor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aryankumar/batchrun/internal/observe"
	"github.com/google/uuid"
)

// DefaultWorkerArgs are the arguments passed to the worker executable when
// WithWorkerCommand is not used; the CLI serves the worker protocol under
// this subcommand.
var DefaultWorkerArgs = []string{"worker"}

// Engine validates batch requests, picks the strategy and times the run
type Engine struct {
	sink      observe.Sink
	logger    *slog.Logger
	registry  *Registry
	consumers int
	queueSize int
	rate      float64

	workerCommand string
	workerArgs    []string
	workerEnv     []string
}

// Option configures an Engine
type Option func(*Engine)

// WithSink sets the observability sink receiving batch and item events
func WithSink(s observe.Sink) Option {
	return func(e *Engine) {
		e.sink = s
	}
}

// WithLogger sets the logger used by the strategies for debug output
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithRegistry lets items that carry only a PayloadSpec run in-process
func WithRegistry(r *Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithConsumers sets the pipeline consumer count (0 means runtime.NumCPU())
func WithConsumers(n int) Option {
	return func(e *Engine) {
		e.consumers = n
	}
}

// WithQueueSize sets the pipeline queue capacity (0 means twice the consumers)
func WithQueueSize(n int) Option {
	return func(e *Engine) {
		e.queueSize = n
	}
}

// WithRate paces payload starts to at most perSecond per second (0 disables pacing)
func WithRate(perSecond float64) Option {
	return func(e *Engine) {
		e.rate = perSecond
	}
}

// WithWorkerCommand sets the executable, arguments and extra environment used
// to spawn worker processes
func WithWorkerCommand(command string, args []string, env ...string) Option {
	return func(e *Engine) {
		e.workerCommand = command
		e.workerArgs = args
		e.workerEnv = env
	}
}

// New creates an engine. Without options it logs nothing and uses the running
// binary as the worker executable.
func New(opts ...Option) *Engine {
	e := &Engine{
		sink:   observe.Nop,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.sink == nil {
		e.sink = observe.Nop
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Run executes items with the given strategy and at most maxWorkers payloads
// in flight. It returns a *ConfigurationError, with nothing executed, when the
// request is invalid. Otherwise every item gets exactly one outcome, in
// submission order, and the error is nil even if items failed.
func (e *Engine) Run(ctx context.Context, items []WorkItem, strategy Strategy, maxWorkers int) (*BatchResult, error) {
	if maxWorkers < 1 {
		return nil, &ConfigurationError{Field: "maxWorkers", Value: maxWorkers, Message: "must be at least 1"}
	}

	items, err := e.prepare(items)
	if err != nil {
		return nil, err
	}

	batchID := uuid.NewString()
	limiter := NewRateLimiter(maxWorkers, e.rate)
	onOutcome := func(o Outcome) {
		e.sink.Record(observe.Event{
			Kind:     observe.ItemFinished,
			BatchID:  batchID,
			Strategy: strategy.String(),
			Time:     time.Now(),
			ItemID:   o.ID,
			Success:  o.Success,
			Err:      o.Err,
			Duration: o.Duration,
		})
	}

	var exec Executor
	switch strategy {
	case Cooperative:
		exec = &CooperativeExecutor{Limiter: limiter, OnOutcome: onOutcome}
	case Threads:
		pool := NewThreadPool(e.logger)
		pool.Limiter = limiter
		pool.OnOutcome = onOutcome
		exec = pool
	case Processes:
		command, args, err := e.workerExecutable()
		if err != nil {
			return nil, err
		}
		pool := NewProcessPool(command, args, e.logger)
		pool.Env = e.workerEnv
		pool.Limiter = limiter
		pool.OnOutcome = onOutcome
		exec = pool
	case Pipeline:
		pipe := NewPipelineExecutor(e.consumers, e.logger)
		pipe.QueueSize = e.queueSize
		pipe.Limiter = limiter
		pipe.OnOutcome = onOutcome
		exec = pipe
	default:
		return nil, &ConfigurationError{Field: "strategy", Value: strategy.String(), Message: "unknown strategy"}
	}

	e.sink.Record(observe.Event{
		Kind:     observe.BatchStarted,
		BatchID:  batchID,
		Strategy: strategy.String(),
		Time:     time.Now(),
		Items:    len(items),
		Workers:  maxWorkers,
	})

	start := time.Now()
	outcomes := exec.Execute(ctx, items, maxWorkers)
	total := time.Since(start)

	result := &BatchResult{
		ID:              batchID,
		Strategy:        strategy,
		Workers:         maxWorkers,
		Outcomes:        outcomes,
		TotalDuration:   total,
		PeakConcurrency: limiter.Peak(),
	}

	e.sink.Record(observe.Event{
		Kind:     observe.BatchFinished,
		BatchID:  batchID,
		Strategy: strategy.String(),
		Time:     time.Now(),
		Items:    len(outcomes),
		Workers:  maxWorkers,
		Failed:   CountFailed(outcomes),
		Duration: total,
	})

	return result, nil
}

// prepare validates items and binds registry payloads for spec-only items.
// The caller's slice is never modified.
func (e *Engine) prepare(items []WorkItem) ([]WorkItem, error) {
	prepared := make([]WorkItem, len(items))
	seen := make(map[string]int, len(items))

	for i, item := range items {
		if item.ID == "" {
			return nil, &ConfigurationError{Field: fmt.Sprintf("items[%d].id", i), Message: "must not be empty"}
		}
		if first, dup := seen[item.ID]; dup {
			return nil, &ConfigurationError{
				Field:   fmt.Sprintf("items[%d].id", i),
				Value:   item.ID,
				Message: fmt.Sprintf("duplicate of items[%d]", first),
			}
		}
		seen[item.ID] = i

		if item.Payload == nil {
			if item.Spec == nil {
				return nil, &ConfigurationError{Field: fmt.Sprintf("items[%d]", i), Value: item.ID, Message: "has neither a payload nor a spec"}
			}
			if e.registry == nil {
				return nil, &ConfigurationError{Field: fmt.Sprintf("items[%d]", i), Value: item.ID, Message: "spec-only item needs an engine registry"}
			}
			if _, ok := e.registry.Lookup(item.Spec.Kind); !ok {
				return nil, &ConfigurationError{Field: fmt.Sprintf("items[%d].kind", i), Value: item.Spec.Kind, Message: "not registered"}
			}
			item.Payload = e.registry.Bind(*item.Spec)
		}

		prepared[i] = item
	}
	return prepared, nil
}

func (e *Engine) workerExecutable() (string, []string, error) {
	if e.workerCommand != "" {
		return e.workerCommand, e.workerArgs, nil
	}

	self, err := os.Executable()
	if err != nil {
		return "", nil, &ConfigurationError{Field: "workerCommand", Message: fmt.Sprintf("cannot locate own executable: %v", err)}
	}
	return self, DefaultWorkerArgs, nil
}
