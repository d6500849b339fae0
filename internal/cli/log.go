package cli

import (
	"io"

	"github.com/charmbracelet/log"
)

// newLogger creates a charm logger with consistent formatting.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}
