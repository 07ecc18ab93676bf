package executor

import (
	"io"
	"log/slog"
)

// discardHandler stands in for slog.DiscardHandler (Go 1.24+) so the tests
// build with older toolchains.
var discardHandler slog.Handler = slog.NewTextHandler(io.Discard, nil)
