package executor

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
)

// ThreadPool runs items on a fixed number of worker goroutines. Each worker
// locks itself to an OS thread for its lifetime, so the pool behaves like a
// classic fixed-size thread pool sharing process memory.
type ThreadPool struct {
	// Limiter gates payload execution. When nil, Execute creates one with
	// capacity equal to the requested concurrency.
	Limiter *RateLimiter

	// OnOutcome, if set, is called once per item after its outcome is stored
	OnOutcome func(Outcome)

	logger *slog.Logger
}

// NewThreadPool creates a thread pool logging through logger, or slog.Default() when nil
func NewThreadPool(logger *slog.Logger) *ThreadPool {
	if logger == nil {
		logger = slog.Default()
	}
	return &ThreadPool{logger: logger}
}

// Execute distributes items over concurrency workers and returns outcomes in
// submission order
func (p *ThreadPool) Execute(ctx context.Context, items []WorkItem, concurrency int) []Outcome {
	if p.logger == nil {
		p.logger = slog.Default()
	}
	limiter := p.Limiter
	if limiter == nil {
		limiter = NewRateLimiter(concurrency, 0)
	}

	taskCount := len(items)
	collector := NewResultCollector(items)
	if taskCount == 0 {
		p.logger.Debug("no items to execute")
		return collector.Outcomes()
	}

	// Buffer size = item count so the feeder never blocks
	taskChan := make(chan indexedItem, taskCount)
	for i, item := range items {
		taskChan <- indexedItem{item: item, index: i}
	}
	close(taskChan)

	var completed atomic.Int32

	workerCount := concurrency
	if workerCount < 1 {
		workerCount = 1
	}
	if workerCount > taskCount {
		// Don't create more workers than items
		workerCount = taskCount
	}

	p.logger.Debug("starting workers", "count", workerCount)

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go p.worker(ctx, i, taskChan, collector, limiter, &wg, &completed, taskCount)
	}
	wg.Wait()

	return collector.Outcomes()
}

// worker drains the task channel until it is closed
func (p *ThreadPool) worker(
	ctx context.Context,
	workerID int,
	taskChan <-chan indexedItem,
	collector *ResultCollector,
	limiter *RateLimiter,
	wg *sync.WaitGroup,
	completed *atomic.Int32,
	total int,
) {
	defer wg.Done()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	p.logger.Debug("worker started", "worker_id", workerID)

	for t := range taskChan {
		t := t
		var o Outcome
		limiter.Do(func() {
			o = invoke(ctx, t.item)
		})
		collector.Set(t.index, o)

		completedCount := completed.Add(1)
		p.logger.Debug("item completed",
			"worker_id", workerID,
			"item", t.item.ID,
			"success", o.Success,
			"duration", o.Duration,
			"progress", fmt.Sprintf("%d/%d", completedCount, total))

		if p.OnOutcome != nil {
			p.OnOutcome(o)
		}
	}

	p.logger.Debug("worker finished (no more items)", "worker_id", workerID)
}
