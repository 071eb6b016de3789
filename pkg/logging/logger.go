package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

type Logger interface {
	Debug(args ...any)
	Debugf(format string, args ...any)
	Info(args ...any)
	Infof(format string, args ...any)
	Warn(args ...any)
	Warnf(format string, args ...any)
	Error(args ...any)
	Errorf(format string, args ...any)
	Fatal(args ...any)
	Fatalf(format string, args ...any)
}

const (
	FormatText = "text"
	FormatJSON = "json"
)

type logrusSettings struct {
	level     logrus.Level
	formatter logrus.Formatter
	out       io.Writer
}

var (
	settingsMu sync.RWMutex
	settings   = logrusSettings{
		level:     logrus.InfoLevel,
		formatter: &logrus.TextFormatter{FullTimestamp: true},
		out:       os.Stderr,
	}
)

// Configure sets the level and output format used by loggers created after the call.
// An empty level or format leaves the current value in place.
func Configure(level string, format string) error {
	settingsMu.Lock()
	defer settingsMu.Unlock()

	if strings.TrimSpace(level) != "" {
		parsed, err := logrus.ParseLevel(strings.TrimSpace(level))
		if err != nil {
			return fmt.Errorf("logging.Configure: %w", err)
		}
		settings.level = parsed
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "":
	case FormatText:
		settings.formatter = &logrus.TextFormatter{FullTimestamp: true}
	case FormatJSON:
		settings.formatter = &logrus.JSONFormatter{}
	default:
		return fmt.Errorf("logging.Configure: unknown log format %q", format)
	}
	return nil
}

// SetOutput redirects loggers created after the call.
func SetOutput(w io.Writer) {
	settingsMu.Lock()
	defer settingsMu.Unlock()

	if w == nil {
		w = os.Stderr
	}
	settings.out = w
}

type logrusLogger struct {
	entry *logrus.Entry
}

func (l *logrusLogger) Debug(args ...any) {
	l.entry.Debug(args...)
}

func (l *logrusLogger) Debugf(format string, args ...any) {
	l.entry.Debugf(format, args...)
}

func (l *logrusLogger) Info(args ...any) {
	l.entry.Info(args...)
}

func (l *logrusLogger) Infof(format string, args ...any) {
	l.entry.Infof(format, args...)
}

func (l *logrusLogger) Error(args ...any) {
	l.entry.Error(args...)
}

func (l *logrusLogger) Errorf(format string, args ...any) {
	l.entry.Errorf(format, args...)
}

func (l *logrusLogger) Warn(args ...any) {
	l.entry.Warn(args...)
}

func (l *logrusLogger) Warnf(format string, args ...any) {
	l.entry.Warnf(format, args...)
}

func (l *logrusLogger) Fatal(args ...any) {
	l.entry.Fatal(args...)
}

func (l *logrusLogger) Fatalf(format string, args ...any) {
	l.entry.Fatalf(format, args...)
}

func NewLogger(ctx context.Context) Logger {
	factory := GetLoggerFactory()
	if factory != nil {
		return factory.CreateLogger(ctx)
	}

	return newLogrusLogger(ctx)
}

func newLogrusLogger(ctx context.Context) Logger {
	settingsMu.RLock()
	current := settings
	settingsMu.RUnlock()

	logger := logrus.New()
	logger.SetLevel(current.level)
	logger.SetFormatter(current.formatter)
	logger.SetOutput(current.out)

	entry := logger.WithContext(ctx)
	if fields := FieldsFromContext(ctx); len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	return &logrusLogger{entry: entry}
}
