package output

import (
	"io"
	"time"

	"github.com/aryankumar/batchrun/internal/executor"
)

// Format represents the output format type
type Format string

const (
	// FormatTable outputs data in a table format (kubectl-style)
	FormatTable Format = "table"
	// FormatJSON outputs data in JSON format
	FormatJSON Format = "json"
	// FormatYAML outputs data in YAML format
	FormatYAML Format = "yaml"
)

// Formatter defines the interface for output formatting
type Formatter interface {
	// Format outputs a single data item to the writer
	Format(w io.Writer, data interface{}) error

	// FormatBatch outputs a batch result, one entry per outcome
	FormatBatch(w io.Writer, result *executor.BatchResult) error
}

// Option is a functional option for configuring formatters
type Option func(*Options)

// Options holds configuration for formatters
type Options struct {
	// NoColor disables color output
	NoColor bool

	// NoHeaders disables table headers
	NoHeaders bool

	// Wide enables wide output with additional columns
	Wide bool
}

// WithNoColor disables color output
func WithNoColor(noColor bool) Option {
	return func(o *Options) {
		o.NoColor = noColor
	}
}

// WithNoHeaders disables table headers
func WithNoHeaders(noHeaders bool) Option {
	return func(o *Options) {
		o.NoHeaders = noHeaders
	}
}

// WithWide enables wide output
func WithWide(wide bool) Option {
	return func(o *Options) {
		o.Wide = wide
	}
}

// NewFormatter creates a new formatter based on the specified format
func NewFormatter(format Format, opts ...Option) Formatter {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	switch format {
	case FormatJSON:
		return NewJSONFormatter(options)
	case FormatYAML:
		return NewYAMLFormatter(options)
	case FormatTable:
		fallthrough
	default:
		return NewTableFormatter(options)
	}
}

// BatchDocument is the structured form of a batch result used by the JSON
// and YAML formatters
type BatchDocument struct {
	ID              string            `json:"id" yaml:"id"`
	Strategy        string            `json:"strategy" yaml:"strategy"`
	Workers         int               `json:"workers" yaml:"workers"`
	PeakConcurrency int               `json:"peakConcurrency" yaml:"peakConcurrency"`
	TotalDuration   string            `json:"totalDuration" yaml:"totalDuration"`
	Successful      int               `json:"successful" yaml:"successful"`
	Failed          int               `json:"failed" yaml:"failed"`
	Outcomes        []OutcomeDocument `json:"outcomes" yaml:"outcomes"`
}

// OutcomeDocument is the structured form of one outcome
type OutcomeDocument struct {
	ID        string      `json:"id" yaml:"id"`
	Status    string      `json:"status" yaml:"status"`
	StartedAt string      `json:"startedAt,omitempty" yaml:"startedAt,omitempty"`
	Duration  string      `json:"duration" yaml:"duration"`
	Value     interface{} `json:"value,omitempty" yaml:"value,omitempty"`
	Error     string      `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewBatchDocument converts result for structured output
func NewBatchDocument(result *executor.BatchResult) BatchDocument {
	doc := BatchDocument{
		ID:              result.ID,
		Strategy:        result.Strategy.String(),
		Workers:         result.Workers,
		PeakConcurrency: result.PeakConcurrency,
		TotalDuration:   result.TotalDuration.String(),
		Successful:      executor.CountSuccessful(result.Outcomes),
		Failed:          executor.CountFailed(result.Outcomes),
		Outcomes:        make([]OutcomeDocument, len(result.Outcomes)),
	}

	for i, o := range result.Outcomes {
		item := OutcomeDocument{
			ID:       o.ID,
			Duration: o.Duration.String(),
		}
		if !o.StartedAt.IsZero() {
			item.StartedAt = o.StartedAt.Format(time.RFC3339Nano)
		}

		if o.Success {
			item.Status = "success"
			item.Value = o.Value
		} else {
			item.Status = "failed"
			if o.Err != nil {
				item.Error = o.Err.Error()
			}
		}

		doc.Outcomes[i] = item
	}

	return doc
}
