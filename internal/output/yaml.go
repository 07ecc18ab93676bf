package output

import (
	"io"

	"github.com/aryankumar/batchrun/internal/executor"
	"gopkg.in/yaml.v3"
)

// YAMLFormatter writes YAML with two-space indentation
type YAMLFormatter struct {
	options *Options
}

// NewYAMLFormatter creates a YAML formatter. Color and table options do not
// apply to YAML.
func NewYAMLFormatter(opts *Options) *YAMLFormatter {
	if opts == nil {
		opts = &Options{}
	}
	return &YAMLFormatter{options: opts}
}

// Format writes data as a single YAML document
func (f *YAMLFormatter) Format(w io.Writer, data interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return err
	}
	return enc.Close()
}

// FormatBatch writes result as a BatchDocument
func (f *YAMLFormatter) FormatBatch(w io.Writer, result *executor.BatchResult) error {
	return f.Format(w, NewBatchDocument(result))
}
