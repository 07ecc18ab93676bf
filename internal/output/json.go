package output

import (
	"encoding/json"
	"io"

	"github.com/aryankumar/batchrun/internal/executor"
)

// JSONFormatter writes indented JSON, one document per call
type JSONFormatter struct {
	options *Options
}

// NewJSONFormatter creates a JSON formatter. Color and table options do not
// apply to JSON.
func NewJSONFormatter(opts *Options) *JSONFormatter {
	if opts == nil {
		opts = &Options{}
	}
	return &JSONFormatter{options: opts}
}

// Format writes data as indented JSON followed by a newline
func (f *JSONFormatter) Format(w io.Writer, data interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(data)
}

// FormatBatch writes result as a BatchDocument
func (f *JSONFormatter) FormatBatch(w io.Writer, result *executor.BatchResult) error {
	return f.Format(w, NewBatchDocument(result))
}
