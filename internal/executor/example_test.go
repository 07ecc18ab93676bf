package executor_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aryankumar/batchrun/internal/executor"
)

// Example runs a small batch where one item fails
func Example() {
	engine := executor.New()

	items := []executor.WorkItem{
		{ID: "one", Payload: func(ctx context.Context) (any, error) { return 1, nil }},
		{ID: "two", Payload: func(ctx context.Context) (any, error) { return nil, errors.New("unreachable host") }},
		{ID: "three", Payload: func(ctx context.Context) (any, error) { return 3, nil }},
	}

	result, err := engine.Run(context.Background(), items, executor.Threads, 2)
	if err != nil {
		fmt.Println("invalid batch:", err)
		return
	}

	for _, o := range result.Outcomes {
		if o.Success {
			fmt.Printf("%s: %v\n", o.ID, o.Value)
		} else {
			fmt.Printf("%s: %v\n", o.ID, o.Err)
		}
	}
	// Output:
	// one: 1
	// two: item "two": unreachable host
	// three: 3
}

// ExampleRegistry shows registry items running through the pipeline strategy
func ExampleRegistry() {
	reg := executor.NewRegistry()
	reg.Register("double", func(ctx context.Context, raw json.RawMessage) (any, error) {
		var n int
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		return n * 2, nil
	})

	var items []executor.WorkItem
	for i := 1; i <= 3; i++ {
		item, err := reg.Item(fmt.Sprintf("n%d", i), "double", i)
		if err != nil {
			fmt.Println(err)
			return
		}
		items = append(items, item)
	}

	engine := executor.New(executor.WithRegistry(reg), executor.WithConsumers(2))
	result, err := engine.Run(context.Background(), items, executor.Pipeline, 2)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println(executor.CountSuccessful(result.Outcomes), "succeeded")
	for _, o := range result.Outcomes {
		fmt.Printf("%s=%v\n", o.ID, o.Value)
	}
	// Output:
	// 3 succeeded
	// n1=2
	// n2=4
	// n3=6
}

// ExampleParseStrategy maps user input to a strategy
func ExampleParseStrategy() {
	for _, name := range []string{"asyncio", "threads", "procesos", "queue", "fibers"} {
		s, err := executor.ParseStrategy(name)
		if err != nil {
			fmt.Println("error:", name)
			continue
		}
		fmt.Println(name, "->", s)
	}
	// Output:
	// asyncio -> cooperative
	// threads -> threads
	// procesos -> processes
	// queue -> pipeline
	// error: fibers
}
