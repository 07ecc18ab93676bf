// Package executor runs batches of independent work items concurrently.
//
// A batch is a slice of WorkItem values. Each item has an ID and an opaque
// payload; the engine invokes the payload and records an Outcome holding the
// value or error, the start time and the duration. Outcomes always come back
// in submission order, one per item, whatever order the items finished in.
//
// # Strategies
//
// Four interchangeable strategies implement the same batch contract:
//
//   - Cooperative: one goroutine per item, execution gated by a RateLimiter
//   - Threads: a fixed pool of worker goroutines, each locked to an OS thread
//   - Processes: a fixed pool of child processes exchanging framed JSON
//   - Pipeline: a bounded producer/consumer queue with sentinel termination
//
// # Basic Usage
//
//	eng := executor.New(executor.WithSink(observe.NewLogSink(logger)))
//
//	items := []executor.WorkItem{
//	    {ID: "a", Payload: func(ctx context.Context) (any, error) { return 1, nil }},
//	    {ID: "b", Payload: func(ctx context.Context) (any, error) { return 2, nil }},
//	}
//
//	res, err := eng.Run(ctx, items, executor.Threads, 4)
//	if err != nil {
//	    // configuration error, nothing ran
//	}
//	fmt.Println(res.Summary())
//
// # Process Pool
//
// Closures cannot cross a process boundary. Items meant for the process
// strategy carry a PayloadSpec naming a kind registered in a Registry; the
// child process (by default the running binary invoked with "worker") serves
// the same registry through ServeWorker. Items without a spec fail with
// util.ErrPayloadNotSerializable instead of aborting the batch.
//
// # Error Handling
//
// Invalid requests (unknown strategy, maxWorkers < 1, duplicate IDs, items
// without a payload) fail with *ConfigurationError before any payload runs.
// Payload errors and panics are captured per item as *ItemError and never
// affect sibling items:
//
//	for _, o := range res.Outcomes {
//	    if !o.Success {
//	        log.Printf("item %s failed: %v", o.ID, o.Err)
//	    }
//	}
//
// # Concurrency Guarantees
//
//   - At most maxWorkers payloads execute at the same time
//   - Each RateLimiter permit is released exactly once, even when a payload panics
//   - Pipeline consumers always receive exactly one sentinel each
//   - No goroutine or child process outlives Run
//   - A batch is never abandoned midway; cancellation is the payload's concern
package executor
