package core

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// levelRank orders log levels for filtering.
var levelRank = map[string]int{
	"DEBUG": 0,
	"INFO":  1,
	"WARN":  2,
	"ERROR": 3,
}

// StandardLogger is the default Logger implementation: leveled,
// thread-safe, text for local development and JSON where log
// aggregation expects it.
type StandardLogger struct {
	mu     sync.Mutex
	level  int
	format string
	output io.Writer
}

// NewLogger creates a logger at the given level ("debug", "info",
// "warn", "error") and format ("text" or "json"). Unknown levels fall
// back to info; an empty format falls back to CAMPESINA_LOG_FORMAT
// and then to text.
func NewLogger(level, format string) *StandardLogger {
	rank, ok := levelRank[strings.ToUpper(level)]
	if !ok {
		rank = levelRank["INFO"]
	}

	if format == "" {
		format = os.Getenv("CAMPESINA_LOG_FORMAT")
	}
	if format != "json" {
		format = "text"
	}

	return &StandardLogger{
		level:  rank,
		format: format,
		output: os.Stdout,
	}
}

// SetOutput redirects log output, mainly for tests.
func (l *StandardLogger) SetOutput(w io.Writer) {
	l.mu.Lock()
	l.output = w
	l.mu.Unlock()
}

func (l *StandardLogger) Info(msg string, fields map[string]interface{}) {
	l.log("INFO", msg, fields)
}

func (l *StandardLogger) Error(msg string, fields map[string]interface{}) {
	l.log("ERROR", msg, fields)
}

func (l *StandardLogger) Warn(msg string, fields map[string]interface{}) {
	l.log("WARN", msg, fields)
}

func (l *StandardLogger) Debug(msg string, fields map[string]interface{}) {
	l.log("DEBUG", msg, fields)
}

func (l *StandardLogger) log(level, msg string, fields map[string]interface{}) {
	if levelRank[level] < l.level {
		return
	}

	timestamp := time.Now().Format(time.RFC3339)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.format == "json" {
		l.logJSON(timestamp, level, msg, fields)
		return
	}
	l.logText(timestamp, level, msg, fields)
}

func (l *StandardLogger) logJSON(timestamp, level, msg string, fields map[string]interface{}) {
	entry := map[string]interface{}{
		"timestamp": timestamp,
		"level":     level,
		"message":   msg,
	}
	for k, v := range fields {
		if k != "timestamp" && k != "level" && k != "message" {
			entry[k] = v
		}
	}
	if data, err := json.Marshal(entry); err == nil {
		fmt.Fprintln(l.output, string(data))
	}
}

func (l *StandardLogger) logText(timestamp, level, msg string, fields map[string]interface{}) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %-5s %s", timestamp, level, msg))

	// Stable field order keeps log lines diffable.
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf(" %s=%v", k, fields[k]))
	}

	fmt.Fprintln(l.output, sb.String())
}
