// Package output provides formatters for displaying batchrun command results.
//
// The package supports multiple output formats (table, JSON, YAML) behind one
// Formatter interface, for both arbitrary data and batch results.
//
// # Basic Usage
//
//	formatter := output.NewFormatter(output.FormatTable)
//
//	// Format single data item
//	formatter.Format(os.Stdout, map[string]interface{}{"key": "value"})
//
//	// Format a batch result, one row per work item in submission order
//	formatter.FormatBatch(os.Stdout, result)
//
// # Options
//
// Formatters can be configured with functional options:
//
//	formatter := output.NewFormatter(
//	    output.FormatTable,
//	    output.WithNoColor(true),
//	    output.WithWide(true),
//	)
//
// Wide mode adds VALUE and ERROR columns to the batch table. JSON and YAML
// output always carry both, through BatchDocument.
//
// # Color Support
//
// Only the table formatter colors its output, and only when writing to a
// terminal. WithNoColor(true) or an exported NO_COLOR turns it off.
package output
