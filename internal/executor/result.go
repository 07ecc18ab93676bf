package executor

import (
	"fmt"
	"strings"
	"time"

	"github.com/aryankumar/batchrun/internal/util"
)

// BatchResult is what Engine.Run returns for a batch
type BatchResult struct {
	// ID uniquely identifies the batch run
	ID string

	// Strategy is the strategy the batch ran with
	Strategy Strategy

	// Workers is the concurrency ceiling the batch ran with
	Workers int

	// Outcomes holds one outcome per item, in submission order
	Outcomes []Outcome

	// TotalDuration is the wall-clock duration of the whole batch
	TotalDuration time.Duration

	// PeakConcurrency is the highest number of payloads observed running at once
	PeakConcurrency int
}

// Summary summarizes the batch outcomes
func (r *BatchResult) Summary() Summary {
	s := Summarize(r.Outcomes)
	s.Strategy = r.Strategy.String()
	s.TotalDuration = r.TotalDuration
	return s
}

// Err combines every item failure into one error, or nil if all succeeded
func (r *BatchResult) Err() error {
	return util.NewMultiError(GetErrors(r.Outcomes)).ErrorOrNil()
}

// CountSuccessful returns the number of successful outcomes
func CountSuccessful(outcomes []Outcome) int {
	count := 0
	for _, o := range outcomes {
		if o.Success {
			count++
		}
	}
	return count
}

// CountFailed returns the number of failed outcomes
func CountFailed(outcomes []Outcome) int {
	return len(outcomes) - CountSuccessful(outcomes)
}

// FilterSuccessful returns only the successful outcomes
func FilterSuccessful(outcomes []Outcome) []Outcome {
	filtered := make([]Outcome, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Success {
			filtered = append(filtered, o)
		}
	}
	return filtered
}

// FilterFailed returns only the failed outcomes
func FilterFailed(outcomes []Outcome) []Outcome {
	filtered := make([]Outcome, 0, len(outcomes))
	for _, o := range outcomes {
		if !o.Success {
			filtered = append(filtered, o)
		}
	}
	return filtered
}

// ValuesByID maps each successful outcome's ID to its value
func ValuesByID(outcomes []Outcome) map[string]any {
	values := make(map[string]any, len(outcomes))
	for _, o := range outcomes {
		if o.Success {
			values[o.ID] = o.Value
		}
	}
	return values
}

// AverageDuration calculates the average duration of all outcomes
func AverageDuration(outcomes []Outcome) time.Duration {
	if len(outcomes) == 0 {
		return 0
	}

	var total time.Duration
	for _, o := range outcomes {
		total += o.Duration
	}
	return total / time.Duration(len(outcomes))
}

// MaxDuration returns the maximum duration among all outcomes
func MaxDuration(outcomes []Outcome) time.Duration {
	if len(outcomes) == 0 {
		return 0
	}

	max := outcomes[0].Duration
	for _, o := range outcomes {
		if o.Duration > max {
			max = o.Duration
		}
	}
	return max
}

// MinDuration returns the minimum duration among all outcomes
func MinDuration(outcomes []Outcome) time.Duration {
	if len(outcomes) == 0 {
		return 0
	}

	min := outcomes[0].Duration
	for _, o := range outcomes {
		if o.Duration < min {
			min = o.Duration
		}
	}
	return min
}

// GetErrors extracts the errors of failed outcomes
func GetErrors(outcomes []Outcome) []error {
	errs := make([]error, 0)
	for _, o := range outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errs
}

// Summary provides a summary of execution outcomes
type Summary struct {
	Strategy      string
	Total         int
	Successful    int
	Failed        int
	AvgDuration   time.Duration
	MaxDuration   time.Duration
	MinDuration   time.Duration
	TotalDuration time.Duration
}

// Summarize creates a summary of the outcomes
func Summarize(outcomes []Outcome) Summary {
	return Summary{
		Total:       len(outcomes),
		Successful:  CountSuccessful(outcomes),
		Failed:      CountFailed(outcomes),
		AvgDuration: AverageDuration(outcomes),
		MaxDuration: MaxDuration(outcomes),
		MinDuration: MinDuration(outcomes),
	}
}

// String returns a human-readable string representation of the summary
func (s Summary) String() string {
	var sb strings.Builder

	if s.Strategy != "" {
		sb.WriteString(fmt.Sprintf("Strategy: %s, ", s.Strategy))
	}
	sb.WriteString(fmt.Sprintf("Total: %d, ", s.Total))
	sb.WriteString(fmt.Sprintf("Successful: %d, ", s.Successful))
	sb.WriteString(fmt.Sprintf("Failed: %d", s.Failed))

	if s.Total > 0 {
		sb.WriteString(fmt.Sprintf(", Avg: %s", s.AvgDuration.Round(time.Millisecond)))
		sb.WriteString(fmt.Sprintf(", Max: %s", s.MaxDuration.Round(time.Millisecond)))
		sb.WriteString(fmt.Sprintf(", Min: %s", s.MinDuration.Round(time.Millisecond)))
	}
	if s.TotalDuration > 0 {
		sb.WriteString(fmt.Sprintf(", Wall: %s", s.TotalDuration.Round(time.Millisecond)))
	}

	return sb.String()
}

// AllSuccessful returns true if every outcome succeeded
func AllSuccessful(outcomes []Outcome) bool {
	return CountFailed(outcomes) == 0
}

// SuccessRate returns the success rate as a percentage (0.0 to 100.0)
func SuccessRate(outcomes []Outcome) float64 {
	if len(outcomes) == 0 {
		return 0.0
	}
	return float64(CountSuccessful(outcomes)) / float64(len(outcomes)) * 100.0
}
