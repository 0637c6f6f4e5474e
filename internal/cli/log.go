package cli

import (
	"io"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

// newLogger creates a logger that writes to w at the given level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs how long an operation took once it is done.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Laid out 12 nodes (4ms)".
func (p *progress) done(msg string, keyvals ...any) {
	keyvals = append(keyvals, "took", time.Since(p.start).Round(time.Millisecond))
	p.logger.Debug(msg, keyvals...)
}

// editorLogger returns the session logger. Output would corrupt the
// editor screen, so it goes to a log file at debug level and is discarded
// otherwise.
func (c *CLI) editorLogger() (*log.Logger, func()) {
	if c.Logger.GetLevel() > log.DebugLevel {
		return newLogger(io.Discard, log.InfoLevel), func() {}
	}
	f, err := tea.LogToFile(filepath.Join(os.TempDir(), appName+".log"), "")
	if err != nil {
		return newLogger(io.Discard, log.InfoLevel), func() {}
	}
	return newLogger(f, log.DebugLevel), func() { f.Close() }
}
