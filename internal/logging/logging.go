package logging

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

// Fields holds the structured attributes of a single log entry.
type Fields map[string]any

var (
	mu  sync.Mutex
	out io.Writer = os.Stdout
	loc           = time.UTC
)

// SetOutput redirects log entries to w. It returns the previous writer.
func SetOutput(w io.Writer) io.Writer {
	mu.Lock()
	defer mu.Unlock()
	prev := out
	out = w
	return prev
}

// SetLocation sets the time zone used for the "ts" field.
func SetLocation(l *time.Location) {
	if l == nil {
		return
	}
	mu.Lock()
	loc = l
	mu.Unlock()
}

// Info writes an info level entry.
func Info(msg string, f Fields) {
	write("info", msg, f)
}

// Warn writes a warn level entry.
func Warn(msg string, f Fields) {
	write("warn", msg, f)
}

// Error writes an error level entry. err is recorded under "error" when non-nil.
func Error(msg string, err error, f Fields) {
	entry := Fields{}
	for k, v := range f {
		entry[k] = v
	}
	if err != nil {
		entry["error"] = err.Error()
	}
	write("error", msg, entry)
}

// Write emits data as one JSON line. "ts" is always set; "level" defaults to
// "error" when data["status"] is "error" and to "info" otherwise.
func Write(data Fields) {
	mu.Lock()
	defer mu.Unlock()

	data["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		return
	}
	b = append(b, '\n')
	_, _ = out.Write(b)
}

func write(level, msg string, f Fields) {
	entry := Fields{"level": level, "msg": msg}
	for k, v := range f {
		if k == "level" || k == "msg" {
			continue
		}
		entry[k] = v
	}
	Write(entry)
}
