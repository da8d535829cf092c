package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
)

type Logger struct {
	level  slog.Level
	logger *slog.Logger
}

func parseLevel(levelStr string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func NewLogger(levelStr string) *Logger {
	return NewLoggerWithWriter(levelStr, os.Stdout)
}

// NewLoggerWithWriter writes one JSON object per line to w.
func NewLoggerWithWriter(levelStr string, w io.Writer) *Logger {
	level := parseLevel(levelStr)
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey && len(groups) == 0 {
				if lv, ok := a.Value.Any().(slog.Level); ok {
					a.Value = slog.StringValue(strings.ToLower(lv.String()))
				}
			}
			return a
		},
	})
	return &Logger{level: level, logger: slog.New(h)}
}

func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{level: l.level, logger: l.logger.With("component", name)}
}

// With returns a logger that adds fields to every record.
func (l *Logger) With(fields map[string]any) *Logger {
	return &Logger{level: l.level, logger: l.logger.With(attrs(fields)...)}
}

func (l *Logger) Enabled(level slog.Level) bool { return level >= l.level }

func (l *Logger) Debug(format string, args ...any) {
	l.log(slog.LevelDebug, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Info(format string, args ...any) {
	l.log(slog.LevelInfo, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Warn(format string, args ...any) {
	l.log(slog.LevelWarn, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Error(format string, args ...any) {
	l.log(slog.LevelError, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Debugw(msg string, fields map[string]any) { l.log(slog.LevelDebug, msg, fields) }
func (l *Logger) Infow(msg string, fields map[string]any)  { l.log(slog.LevelInfo, msg, fields) }
func (l *Logger) Warnw(msg string, fields map[string]any)  { l.log(slog.LevelWarn, msg, fields) }
func (l *Logger) Errorw(msg string, fields map[string]any) { l.log(slog.LevelError, msg, fields) }

func (l *Logger) log(level slog.Level, msg string, fields map[string]any) {
	if !l.Enabled(level) {
		return
	}
	l.logger.Log(context.Background(), level, msg, attrs(fields)...)
}

// attrs flattens fields in key order so output is stable.
func attrs(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]any, 0, len(keys))
	for _, k := range keys {
		v := fields[k]
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		out = append(out, slog.Any(k, v))
	}
	return out
}
