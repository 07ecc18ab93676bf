package output

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ColorScheme paints the parts of batch output. Every method returns its
// input unchanged when colors are disabled.
type ColorScheme struct {
	id       *color.Color
	success  *color.Color
	failure  *color.Color
	warning  *color.Color
	header   *color.Color
	duration *color.Color

	// Disabled reports whether output is plain text
	Disabled bool
}

// NewColorScheme creates a color scheme for w. Colors are disabled when
// noColor is set, when NO_COLOR is exported, or when w is not a terminal.
func NewColorScheme(w io.Writer, noColor bool) *ColorScheme {
	cs := &ColorScheme{
		id:       color.New(color.FgCyan, color.Bold),
		success:  color.New(color.FgGreen),
		failure:  color.New(color.FgRed, color.Bold),
		warning:  color.New(color.FgYellow),
		header:   color.New(color.FgWhite, color.Bold),
		duration: color.New(color.FgBlue),
		Disabled: noColor || os.Getenv("NO_COLOR") != "" || !isTTY(w),
	}

	for _, c := range []*color.Color{cs.id, cs.success, cs.failure, cs.warning, cs.header, cs.duration} {
		if cs.Disabled {
			c.DisableColor()
		} else {
			c.EnableColor()
		}
	}
	return cs
}

// isTTY checks if the writer is a TTY
func isTTY(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// ItemID paints a work item ID
func (cs *ColorScheme) ItemID(s string) string { return cs.id.Sprint(s) }

// Success paints text describing successful items
func (cs *ColorScheme) Success(s string) string { return cs.success.Sprint(s) }

// Failure paints errors and text describing failed items
func (cs *ColorScheme) Failure(s string) string { return cs.failure.Sprint(s) }

// Warning paints notices
func (cs *ColorScheme) Warning(s string) string { return cs.warning.Sprint(s) }

// Header paints a table header cell
func (cs *ColorScheme) Header(s string) string { return cs.header.Sprint(s) }

// Duration paints timings
func (cs *ColorScheme) Duration(s string) string { return cs.duration.Sprint(s) }

// Status returns the painted status word of an outcome
func (cs *ColorScheme) Status(success bool) string {
	if success {
		return cs.Success("Success")
	}
	return cs.Failure("Failed")
}
