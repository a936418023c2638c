package logger

import (
	"io"
	"log/slog"
	"strings"
)

// New returns a text slog.Logger writing to w at the given level. Unknown
// levels fall back to info.
func New(level string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		lvl = slog.LevelDebug
	case "WARN":
		lvl = slog.LevelWarn
	case "ERROR":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		AddSource: true,
		Level:     lvl,
	}))
}

// Writer adapts l into an io.Writer for libraries that log through a writer,
// such as gin's request logger. Each write becomes one info record.
func Writer(l *slog.Logger) io.Writer {
	return slog.NewLogLogger(l.Handler(), slog.LevelInfo).Writer()
}
