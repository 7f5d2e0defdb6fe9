package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level controls which messages a Logger emits
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	default:
		return "error"
	}
}

// Field carries structured key/value pairs attached to a log entry
type Field struct {
	data map[string]interface{}
}

// WithField attaches a single key/value pair to a log entry
func WithField(key string, value interface{}) Field {
	return Field{data: map[string]interface{}{key: value}}
}

// WithFields attaches multiple key/value pairs to a log entry
func WithFields(fields map[string]interface{}) Field {
	return Field{data: fields}
}

// Logger writes leveled, structured log lines
type Logger struct {
	mu    sync.Mutex
	level Level
	out   io.Writer
}

// New creates a logger that writes JSON lines to stderr
func New(level Level) *Logger {
	return &Logger{level: level, out: os.Stderr}
}

// NewWithWriter creates a logger with a custom output writer
func NewWithWriter(level Level, out io.Writer) *Logger {
	return &Logger{level: level, out: out}
}

func (l *Logger) Debug(msg string, fields ...Field) { l.log(LevelDebug, msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { l.log(LevelInfo, msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.log(LevelWarn, msg, fields) }
func (l *Logger) Error(msg string, fields ...Field) { l.log(LevelError, msg, fields) }

func (l *Logger) log(level Level, msg string, fields []Field) {
	if level < l.level {
		return
	}

	entry := map[string]interface{}{
		"time":  time.Now().UTC().Format(time.RFC3339),
		"level": level.String(),
		"msg":   msg,
	}
	for _, f := range fields {
		for k, v := range f.data {
			entry[k] = v
		}
	}

	line, err := json.Marshal(entry)
	if err != nil {
		line = []byte(fmt.Sprintf(`{"level":"error","msg":"failed to marshal log entry: %s"}`, err))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.Write(append(line, '\n'))
}
