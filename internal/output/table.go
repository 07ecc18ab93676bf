package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/aryankumar/batchrun/internal/executor"
	"github.com/olekukonko/tablewriter"
)

// maxCellWidth bounds VALUE and ERROR cells in wide mode
const maxCellWidth = 60

// TableFormatter formats output as a borderless, tab-padded table
type TableFormatter struct {
	options *Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(opts *Options) *TableFormatter {
	if opts == nil {
		opts = &Options{}
	}
	return &TableFormatter{
		options: opts,
	}
}

// Format outputs a single data item as a table
func (f *TableFormatter) Format(w io.Writer, data interface{}) error {
	table := f.createTable(w)

	switch v := data.(type) {
	case map[string]interface{}:
		return f.formatMap(table, v)
	case map[string]string:
		m := make(map[string]interface{}, len(v))
		for k, s := range v {
			m[k] = s
		}
		return f.formatMap(table, m)
	case []map[string]interface{}:
		return f.formatMapSlice(table, v)
	default:
		fmt.Fprintln(w, v)
		return nil
	}
}

// FormatBatch outputs one row per outcome followed by a summary line
func (f *TableFormatter) FormatBatch(w io.Writer, result *executor.BatchResult) error {
	colors := NewColorScheme(w, f.options.NoColor)

	if len(result.Outcomes) == 0 {
		fmt.Fprintln(w, colors.Warning("No items"))
		return nil
	}

	table := f.createTable(w)
	if !f.options.NoHeaders {
		headers := f.batchHeaders()
		for i, h := range headers {
			headers[i] = colors.Header(h)
		}
		table.SetHeader(headers)
	}

	for _, o := range result.Outcomes {
		table.Append(f.outcomeRow(o, colors))
	}
	table.Render()

	f.printSummary(w, result, colors)
	return nil
}

func (f *TableFormatter) batchHeaders() []string {
	if f.options.Wide {
		return []string{"ID", "STATUS", "STARTED", "DURATION", "VALUE", "ERROR"}
	}
	return []string{"ID", "STATUS", "STARTED", "DURATION"}
}

// outcomeRow renders o in the column order of batchHeaders
func (f *TableFormatter) outcomeRow(o executor.Outcome, colors *ColorScheme) []string {
	started := "-"
	if !o.StartedAt.IsZero() {
		started = o.StartedAt.Format("15:04:05.000")
	}

	row := []string{
		colors.ItemID(o.ID),
		colors.Status(o.Success),
		started,
		colors.Duration(o.Duration.Round(time.Microsecond).String()),
	}
	if !f.options.Wide {
		return row
	}

	var value, errText string
	if o.Success && o.Value != nil {
		value = truncate(renderValue(o.Value), maxCellWidth)
	}
	if o.Err != nil {
		errText = colors.Failure(truncate(o.Err.Error(), maxCellWidth))
	}
	return append(row, value, errText)
}

// renderValue prints v compactly, as JSON when possible
func renderValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case map[string]interface{}, []interface{}:
		if data, err := json.Marshal(val); err == nil {
			return string(data)
		}
	}
	return fmt.Sprintf("%v", v)
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// formatMap formats a map as a two-column table (key-value pairs)
func (f *TableFormatter) formatMap(table *tablewriter.Table, data map[string]interface{}) error {
	if !f.options.NoHeaders {
		table.SetHeader([]string{"KEY", "VALUE"})
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		table.Append([]string{k, fmt.Sprintf("%v", data[k])})
	}

	table.Render()
	return nil
}

// formatMapSlice formats a slice of maps as a table
func (f *TableFormatter) formatMapSlice(table *tablewriter.Table, data []map[string]interface{}) error {
	if len(data) == 0 {
		return nil
	}

	keys := make([]string, 0, len(data[0]))
	for k := range data[0] {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if !f.options.NoHeaders {
		headers := make([]string, len(keys))
		for i, k := range keys {
			headers[i] = strings.ToUpper(k)
		}
		table.SetHeader(headers)
	}

	for _, item := range data {
		row := make([]string, 0, len(keys))
		for _, k := range keys {
			row = append(row, fmt.Sprintf("%v", item[k]))
		}
		table.Append(row)
	}

	table.Render()
	return nil
}

// createTable creates a borderless table with left-aligned, tab-padded columns
func (f *TableFormatter) createTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)

	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)

	return table
}

// printSummary prints the batch summary line
func (f *TableFormatter) printSummary(w io.Writer, result *executor.BatchResult, colors *ColorScheme) {
	summary := result.Summary()

	failed := fmt.Sprintf("%d failed", summary.Failed)
	if summary.Failed > 0 {
		failed = colors.Failure(failed)
	}
	timing := fmt.Sprintf("avg=%s wall=%s",
		summary.AvgDuration.Round(time.Microsecond),
		summary.TotalDuration.Round(time.Microsecond))

	fmt.Fprintf(w, "\nSummary: %s, %s, %s (strategy=%s workers=%d peak=%d)\n",
		colors.Success(fmt.Sprintf("%d successful", summary.Successful)),
		failed,
		colors.Duration(timing),
		summary.Strategy, result.Workers, result.PeakConcurrency)
}
