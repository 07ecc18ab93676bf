package executor

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
)

// queueEntry is either a real item or a sentinel telling one consumer to stop
type queueEntry struct {
	task     indexedItem
	sentinel bool
}

// Queue is a bounded FIFO that tracks unfinished entries. Every Put counts
// one unfinished entry and every TaskDone acknowledges one; Join blocks
// until nothing is unfinished.
type Queue struct {
	entries chan queueEntry

	mu         sync.Mutex
	cond       *sync.Cond
	unfinished int
}

// NewQueue creates a queue holding at most capacity entries (minimum 1)
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	q := &Queue{entries: make(chan queueEntry, capacity)}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Put enqueues an entry, blocking while the queue is full
func (q *Queue) Put(e queueEntry) {
	q.mu.Lock()
	q.unfinished++
	q.mu.Unlock()
	q.entries <- e
}

// Get dequeues the next entry, blocking while the queue is empty
func (q *Queue) Get() queueEntry {
	return <-q.entries
}

// TaskDone acknowledges one entry previously returned by Get
func (q *Queue) TaskDone() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.unfinished <= 0 {
		panic("executor: TaskDone called more times than Put")
	}
	q.unfinished--
	if q.unfinished == 0 {
		q.cond.Broadcast()
	}
}

// Unfinished returns the number of entries not yet acknowledged
func (q *Queue) Unfinished() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.unfinished
}

// Join blocks until every entry put on the queue has been acknowledged
func (q *Queue) Join() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.unfinished > 0 {
		q.cond.Wait()
	}
}

// PipelineExecutor decouples item production from consumption. A producer
// feeds every item and then one sentinel per consumer into a bounded Queue;
// consumers run items until they dequeue their sentinel.
//
// The consumer count and the limiter capacity are independent: consumers
// decide how many goroutines pull from the queue, the limiter decides how
// many payloads may run at once.
type PipelineExecutor struct {
	// Consumers is the number of consumer goroutines; 0 means runtime.NumCPU()
	Consumers int

	// QueueSize is the queue capacity; 0 means twice the consumer count
	QueueSize int

	// Limiter gates payload execution. When nil, Execute creates one with
	// capacity equal to the requested concurrency.
	Limiter *RateLimiter

	// OnOutcome, if set, is called once per item after its outcome is stored
	OnOutcome func(Outcome)

	logger *slog.Logger
}

// NewPipelineExecutor creates a pipeline with the given consumer count
func NewPipelineExecutor(consumers int, logger *slog.Logger) *PipelineExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &PipelineExecutor{Consumers: consumers, logger: logger}
}

// Execute runs the producer and consumers to completion and returns outcomes
// in submission order
func (p *PipelineExecutor) Execute(ctx context.Context, items []WorkItem, concurrency int) []Outcome {
	if p.logger == nil {
		p.logger = slog.Default()
	}
	limiter := p.Limiter
	if limiter == nil {
		limiter = NewRateLimiter(concurrency, 0)
	}

	consumers := p.Consumers
	if consumers < 1 {
		consumers = runtime.NumCPU()
	}
	queueSize := p.QueueSize
	if queueSize < 1 {
		queueSize = 2 * consumers
	}

	collector := NewResultCollector(items)
	queue := NewQueue(queueSize)

	p.logger.Debug("starting pipeline",
		"consumers", consumers,
		"queue_size", queueSize,
		"items", len(items))

	var consumerWG sync.WaitGroup
	for i := 0; i < consumers; i++ {
		consumerWG.Add(1)
		go func(consumerID int) {
			defer consumerWG.Done()
			p.consume(ctx, consumerID, queue, collector, limiter)
		}(i)
	}

	// The sentinel count comes from the same variable that sized the
	// consumer loop above: one each, never more, never fewer.
	producerDone := make(chan struct{})
	go func() {
		defer close(producerDone)
		for i, item := range items {
			queue.Put(queueEntry{task: indexedItem{item: item, index: i}})
		}
		for i := 0; i < consumers; i++ {
			queue.Put(queueEntry{sentinel: true})
		}
	}()

	<-producerDone
	queue.Join()
	consumerWG.Wait()

	return collector.Outcomes()
}

// consume loops WAITING -> PROCESSING until it receives a sentinel
func (p *PipelineExecutor) consume(ctx context.Context, consumerID int, queue *Queue, collector *ResultCollector, limiter *RateLimiter) {
	processed := 0
	for {
		entry := queue.Get()
		if entry.sentinel {
			queue.TaskDone()
			p.logger.Debug("consumer terminated", "consumer_id", consumerID, "processed", processed)
			return
		}

		p.process(ctx, entry.task, queue, collector, limiter)
		processed++
	}
}

// process runs one item; the entry is acknowledged on every exit path
func (p *PipelineExecutor) process(ctx context.Context, t indexedItem, queue *Queue, collector *ResultCollector, limiter *RateLimiter) {
	defer queue.TaskDone()

	var o Outcome
	limiter.Do(func() {
		o = invoke(ctx, t.item)
	})
	collector.Set(t.index, o)

	if p.OnOutcome != nil {
		p.OnOutcome(o)
	}
}
