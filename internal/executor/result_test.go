package executor

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestCountSuccessfulAndFailed(t *testing.T) {
	tests := []struct {
		name       string
		outcomes   []Outcome
		successful int
		failed     int
	}{
		{
			name:     "empty outcomes",
			outcomes: []Outcome{},
		},
		{
			name: "all successful",
			outcomes: []Outcome{
				{ID: "a", Success: true},
				{ID: "b", Success: true},
			},
			successful: 2,
		},
		{
			name: "all failed",
			outcomes: []Outcome{
				{ID: "a", Err: errors.New("e1")},
				{ID: "b", Err: errors.New("e2")},
			},
			failed: 2,
		},
		{
			name: "mixed",
			outcomes: []Outcome{
				{ID: "a", Success: true},
				{ID: "b", Err: errors.New("e")},
				{ID: "c", Success: true},
			},
			successful: 2,
			failed:     1,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := CountSuccessful(tt.outcomes); got != tt.successful {
				t.Errorf("CountSuccessful() = %d, want %d", got, tt.successful)
			}
			if got := CountFailed(tt.outcomes); got != tt.failed {
				t.Errorf("CountFailed() = %d, want %d", got, tt.failed)
			}
			if got := len(FilterSuccessful(tt.outcomes)); got != tt.successful {
				t.Errorf("len(FilterSuccessful()) = %d, want %d", got, tt.successful)
			}
			if got := len(FilterFailed(tt.outcomes)); got != tt.failed {
				t.Errorf("len(FilterFailed()) = %d, want %d", got, tt.failed)
			}
			if got := len(GetErrors(tt.outcomes)); got != tt.failed {
				t.Errorf("len(GetErrors()) = %d, want %d", got, tt.failed)
			}
		})
	}
}

func TestDurations(t *testing.T) {
	outcomes := []Outcome{
		{ID: "a", Duration: 100 * time.Millisecond},
		{ID: "b", Duration: 200 * time.Millisecond},
		{ID: "c", Duration: 300 * time.Millisecond},
	}

	if got := AverageDuration(outcomes); got != 200*time.Millisecond {
		t.Errorf("AverageDuration() = %v, want 200ms", got)
	}
	if got := MaxDuration(outcomes); got != 300*time.Millisecond {
		t.Errorf("MaxDuration() = %v, want 300ms", got)
	}
	if got := MinDuration(outcomes); got != 100*time.Millisecond {
		t.Errorf("MinDuration() = %v, want 100ms", got)
	}

	if AverageDuration(nil) != 0 || MaxDuration(nil) != 0 || MinDuration(nil) != 0 {
		t.Error("durations of no outcomes should be zero")
	}
}

func TestValuesByID(t *testing.T) {
	outcomes := []Outcome{
		{ID: "a", Success: true, Value: 1},
		{ID: "b", Err: errors.New("e")},
		{ID: "c", Success: true, Value: nil},
	}

	values := ValuesByID(outcomes)
	if len(values) != 2 {
		t.Fatalf("expected 2 values, got %d", len(values))
	}
	if values["a"] != 1 {
		t.Errorf("expected a=1, got %v", values["a"])
	}
	if _, ok := values["b"]; ok {
		t.Error("failed outcome should not appear")
	}
	if v, ok := values["c"]; !ok || v != nil {
		t.Errorf("expected c present with nil value, got %v, %v", v, ok)
	}
}

func TestSuccessRate(t *testing.T) {
	tests := []struct {
		name     string
		outcomes []Outcome
		expected float64
	}{
		{name: "empty", outcomes: nil, expected: 0},
		{name: "all", outcomes: []Outcome{{Success: true}, {Success: true}}, expected: 100},
		{name: "quarter", outcomes: []Outcome{{Success: true}, {}, {}, {}}, expected: 25},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := SuccessRate(tt.outcomes); got != tt.expected {
				t.Errorf("SuccessRate() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAllSuccessful(t *testing.T) {
	if !AllSuccessful(nil) {
		t.Error("an empty batch is all successful")
	}
	if AllSuccessful([]Outcome{{Success: true}, {Err: errors.New("e")}}) {
		t.Error("expected false with one failure")
	}
}

func TestSummary_String(t *testing.T) {
	tests := []struct {
		name     string
		summary  Summary
		contains []string
		excludes []string
	}{
		{
			name:     "empty",
			summary:  Summary{},
			contains: []string{"Total: 0", "Successful: 0", "Failed: 0"},
			excludes: []string{"Avg:", "Strategy:", "Wall:"},
		},
		{
			name: "full",
			summary: Summary{
				Strategy:      "threads",
				Total:         3,
				Successful:    2,
				Failed:        1,
				AvgDuration:   150 * time.Millisecond,
				MaxDuration:   200 * time.Millisecond,
				MinDuration:   100 * time.Millisecond,
				TotalDuration: 250 * time.Millisecond,
			},
			contains: []string{"Strategy: threads", "Total: 3", "Failed: 1", "Avg: 150ms", "Max: 200ms", "Min: 100ms", "Wall: 250ms"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := tt.summary.String()
			for _, s := range tt.contains {
				if !strings.Contains(got, s) {
					t.Errorf("expected %q in %q", s, got)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(got, s) {
					t.Errorf("did not expect %q in %q", s, got)
				}
			}
		})
	}
}

func TestBatchResult_SummaryAndErr(t *testing.T) {
	result := &BatchResult{
		Strategy:      Pipeline,
		TotalDuration: time.Second,
		Outcomes: []Outcome{
			{ID: "a", Success: true, Duration: 10 * time.Millisecond},
			{ID: "b", Err: &ItemError{ID: "b", Err: errors.New("broken")}, Duration: 20 * time.Millisecond},
		},
	}

	s := result.Summary()
	if s.Strategy != "pipeline" || s.Total != 2 || s.Failed != 1 || s.TotalDuration != time.Second {
		t.Errorf("unexpected summary: %+v", s)
	}

	err := result.Err()
	if err == nil || !strings.Contains(err.Error(), `item "b": broken`) {
		t.Errorf("expected item error in batch error, got %v", err)
	}

	var itemErr *ItemError
	if !errors.As(err, &itemErr) || itemErr.ID != "b" {
		t.Errorf("expected to find *ItemError for b, got %v", err)
	}
}
