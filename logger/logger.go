package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
)

type logger struct {
	mu     sync.Mutex
	out    io.Writer
	owned  io.Closer
	level  slog.Level
	output string
}

type logMessage struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"additional_info,omitempty"`
}

var logInstance *logger

func init() {
	logInstance = &logger{level: slog.LevelInfo}

	if lvl, err := ParseLogLevel(os.Getenv("FIXTURES_LOG_LEVEL")); err == nil {
		logInstance.level = lvl
	}

	logsDir := os.Getenv("FIXTURES_LOGS_DIR")
	if logsDir == "" {
		return
	}

	if err := SetDir(logsDir); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize fixtures log: %v\n", err)
	}
}

func (l *logger) log(level slog.Level, msg string, data map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level || l.out == nil {
		return
	}

	logMessage := logMessage{
		Timestamp: time.Now().Format(time.RFC3339),
		Level:     level.String(),
		Message:   msg,
		Data:      data,
	}

	logData, err := json.Marshal(logMessage)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error marshaling log message:", err)
		return
	}

	logData = append(logData, '\n')
	_, _ = l.out.Write(logData)
}

// setOutput switches to w. Only a writer the logger opened itself (owned) is
// closed on the way out; caller writers are left alone.
func (l *logger) setOutput(w io.Writer, owned io.Closer, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.owned != nil && l.owned != owned {
		if err := l.owned.Close(); err != nil {
			return err
		}
	}

	l.out = w
	l.owned = owned
	l.output = name
	return nil
}

// SetDir writes daily rotated log files into dir, keeping a week of history.
func SetDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	rl, err := rotatelogs.New(
		dir+"/fixtures.%Y-%m-%d.log",
		rotatelogs.WithLinkName(dir+"/fixtures.log"),
		rotatelogs.WithMaxAge(7*24*time.Hour),
		rotatelogs.WithRotationTime(24*time.Hour),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize rotatelogs: %w", err)
	}

	return logInstance.setOutput(rl, rl, dir)
}

// SetOutput sends log lines to w. A nil writer silences logging.
func SetOutput(w io.Writer) error {
	return logInstance.setOutput(w, nil, "")
}

func SetLevel(level slog.Level) {
	logInstance.mu.Lock()
	defer logInstance.mu.Unlock()

	logInstance.level = level
}

func Debug(msg string, data ...map[string]any) {
	logInstance.log(slog.LevelDebug, msg, first(data))
}

func Info(msg string, data ...map[string]any) {
	logInstance.log(slog.LevelInfo, msg, first(data))
}

func Warn(msg string, data ...map[string]any) {
	logInstance.log(slog.LevelWarn, msg, first(data))
}

func Error(msg string, data ...map[string]any) {
	logInstance.log(slog.LevelError, msg, first(data))
}

func first(data []map[string]any) map[string]any {
	if len(data) > 0 {
		return data[0]
	}
	return nil
}

func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
