package executor

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// CooperativeExecutor starts one goroutine per item up front and lets the
// RateLimiter decide how many of them run their payload at once. Creating
// tasks is cheap and unbounded; executing them is bounded.
type CooperativeExecutor struct {
	// Limiter gates payload execution. When nil, Execute creates one with
	// capacity equal to the requested concurrency.
	Limiter *RateLimiter

	// OnOutcome, if set, is called once per item after its outcome is stored
	OnOutcome func(Outcome)
}

// Execute runs every item and waits for all of them
func (c *CooperativeExecutor) Execute(ctx context.Context, items []WorkItem, concurrency int) []Outcome {
	limiter := c.Limiter
	if limiter == nil {
		limiter = NewRateLimiter(concurrency, 0)
	}
	collector := NewResultCollector(items)

	var g errgroup.Group
	for i, item := range items {
		i := i
		item := item
		g.Go(func() error {
			var o Outcome
			limiter.Do(func() {
				o = invoke(ctx, item)
			})
			collector.Set(i, o)
			if c.OnOutcome != nil {
				c.OnOutcome(o)
			}
			// Failures live in the outcome; a non-nil error here would
			// only make Wait report the first one.
			return nil
		})
	}
	_ = g.Wait()

	return collector.Outcomes()
}
