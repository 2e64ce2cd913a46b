package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// StdoutLogger is a tiny structured logger that prints JSON lines. It is the
// fallback backend when zap is not wanted (local CLI runs, tests).
type StdoutLogger struct {
	component string
	fields    []Field
	out       io.Writer
	mu        *sync.Mutex
}

// NewStdoutLogger creates a StdoutLogger tagged with component.
func NewStdoutLogger(component string) *StdoutLogger {
	return NewWriterLogger(component, os.Stdout)
}

// NewWriterLogger is NewStdoutLogger with an explicit destination.
func NewWriterLogger(component string, w io.Writer) *StdoutLogger {
	return &StdoutLogger{component: component, out: w, mu: &sync.Mutex{}}
}

func (s *StdoutLogger) log(level string, msg string, fields ...Field) {
	type outEntry struct {
		Level     string         `json:"level"`
		Msg       string         `json:"msg"`
		Component string         `json:"component,omitempty"`
		Time      string         `json:"time"`
		Fields    map[string]any `json:"fields,omitempty"`
	}
	m := make(map[string]any, len(s.fields)+len(fields))
	for _, f := range s.fields {
		m[f.Key] = f.Value
	}
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	entry := outEntry{
		Level:     level,
		Msg:       msg,
		Component: s.component,
		Time:      time.Now().UTC().Format(time.RFC3339),
		Fields:    m,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	enc, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(s.out, "%s %s %v\n", level, msg, m)
		return
	}
	fmt.Fprintln(s.out, string(enc))
}

func (s *StdoutLogger) Debug(msg string, fields ...Field) { s.log("debug", msg, fields...) }

func (s *StdoutLogger) Info(msg string, fields ...Field) { s.log("info", msg, fields...) }

func (s *StdoutLogger) Warn(msg string, fields ...Field) { s.log("warn", msg, fields...) }

func (s *StdoutLogger) Error(msg string, fields ...Field) { s.log("error", msg, fields...) }

// With returns a child logger. A "component" field renames the child instead
// of being repeated on every line.
func (s *StdoutLogger) With(fields ...Field) Logger {
	child := &StdoutLogger{
		component: s.component,
		out:       s.out,
		mu:        s.mu,
		fields:    append([]Field(nil), s.fields...),
	}
	for _, f := range fields {
		if f.Key == "component" {
			if str, ok := f.Value.(string); ok {
				child.component = str
				continue
			}
		}
		child.fields = append(child.fields, f)
	}
	return child
}
