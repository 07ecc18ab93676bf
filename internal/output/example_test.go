package output_test

import (
	"errors"
	"os"
	"time"

	"github.com/aryankumar/batchrun/internal/executor"
	"github.com/aryankumar/batchrun/internal/output"
)

func exampleResult() *executor.BatchResult {
	return &executor.BatchResult{
		ID:              "0b7c",
		Strategy:        executor.Pipeline,
		Workers:         2,
		PeakConcurrency: 2,
		TotalDuration:   40 * time.Millisecond,
		Outcomes: []executor.Outcome{
			{ID: "squares-0", Success: true, Value: 332833500.0, Duration: 20 * time.Millisecond},
			{ID: "fetch-0", Err: &executor.ItemError{ID: "fetch-0", Err: errors.New("timeout")}, Duration: 30 * time.Millisecond},
		},
	}
}

// ExampleJSONFormatter_FormatBatch prints a batch as JSON
func ExampleJSONFormatter_FormatBatch() {
	formatter := output.NewFormatter(output.FormatJSON)
	_ = formatter.FormatBatch(os.Stdout, exampleResult())
	// Output:
	// {
	//   "id": "0b7c",
	//   "strategy": "pipeline",
	//   "workers": 2,
	//   "peakConcurrency": 2,
	//   "totalDuration": "40ms",
	//   "successful": 1,
	//   "failed": 1,
	//   "outcomes": [
	//     {
	//       "id": "squares-0",
	//       "status": "success",
	//       "duration": "20ms",
	//       "value": 332833500
	//     },
	//     {
	//       "id": "fetch-0",
	//       "status": "failed",
	//       "duration": "30ms",
	//       "error": "item \"fetch-0\": timeout"
	//     }
	//   ]
	// }
}

// ExampleYAMLFormatter_Format prints arbitrary data as YAML
func ExampleYAMLFormatter_Format() {
	formatter := output.NewFormatter(output.FormatYAML)
	_ = formatter.Format(os.Stdout, map[string]interface{}{
		"strategy": "threads",
		"workers":  4,
	})
	// Output:
	// strategy: threads
	// workers: 4
}
