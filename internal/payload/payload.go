// Package payload provides the built-in work item kinds the CLI can run.
//
// Every kind is registered in an executor.Registry so that the same items can
// run in-process or inside a worker process. Arguments travel as JSON.
package payload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aryankumar/batchrun/internal/executor"
	"github.com/aryankumar/batchrun/internal/util"
)

// Kind names of the built-in payloads
const (
	KindSquares = "squares"
	KindFetch   = "fetch"
	KindSleep   = "sleep"
	KindFail    = "fail"
)

// SquaresArgs selects the half-open range [Start, End) to sum squares over
type SquaresArgs struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// SquaresResult is returned by the squares payload
type SquaresResult struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
	Sum   int64 `json:"sum"`
}

// SleepArgs configures the sleep payload
type SleepArgs struct {
	Duration string `json:"duration"`
}

// FailArgs configures the fail payload
type FailArgs struct {
	Message string `json:"message"`
}

// Builtins returns a registry holding every built-in payload
func Builtins() *executor.Registry {
	r := executor.NewRegistry()
	Register(r)
	return r
}

// Register adds the built-in payloads to r
func Register(r *executor.Registry) {
	r.Register(KindSquares, squares)
	r.Register(KindFetch, NewFetcher(nil).Fetch)
	r.Register(KindSleep, sleep)
	r.Register(KindFail, fail)
}

// SquaresItems builds n squares items covering [i*chunk, (i+1)*chunk) each
func SquaresItems(r *executor.Registry, n int, chunk int64) ([]executor.WorkItem, error) {
	if n < 0 {
		return nil, util.NewValidationError("squares", n, "must not be negative")
	}
	if chunk < 1 {
		return nil, util.NewValidationError("chunk", chunk, "must be at least 1")
	}

	items := make([]executor.WorkItem, 0, n)
	for i := 0; i < n; i++ {
		start := int64(i) * chunk
		item, err := r.Item(fmt.Sprintf("squares-%d", i), KindSquares, SquaresArgs{Start: start, End: start + chunk})
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// SumSquares returns the sum of i*i for i in [start, end)
func SumSquares(start, end int64) int64 {
	var sum int64
	for i := start; i < end; i++ {
		sum += i * i
	}
	return sum
}

func squares(ctx context.Context, raw json.RawMessage) (any, error) {
	var args SquaresArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if args.End < args.Start {
		return nil, util.NewValidationError("end", args.End, "must not be less than start")
	}
	return SquaresResult{Start: args.Start, End: args.End, Sum: SumSquares(args.Start, args.End)}, nil
}

func sleep(ctx context.Context, raw json.RawMessage) (any, error) {
	var args SleepArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}

	d, err := time.ParseDuration(args.Duration)
	if err != nil {
		return nil, util.NewValidationError("duration", args.Duration, "must be a Go duration such as 250ms")
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return d.String(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func fail(ctx context.Context, raw json.RawMessage) (any, error) {
	var args FailArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if args.Message == "" {
		args.Message = "deliberate failure"
	}
	return nil, errors.New(args.Message)
}

// decodeArgs unmarshals raw into v; empty args leave v at its zero value
func decodeArgs(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode args: %w", err)
	}
	return nil
}
