package logger

import (
	"bytes"
	"io"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
)

// LogBufferWriter is an io.Writer that feeds a LogBuffer. Lines are
// expected to be zerolog JSON events; other lines are accepted in the
// "[host] message" form.
type LogBufferWriter struct {
	buffer *LogBuffer
	buf    bytes.Buffer
	mu     sync.Mutex
}

type jsonEvent struct {
	Level   string    `json:"level"`
	Host    string    `json:"host"`
	Message string    `json:"message"`
	Error   string    `json:"error"`
	Time    time.Time `json:"time"`
}

var hostRegex = regexp.MustCompile(`^\[([^\]]+)\]\s*(.*)$`)

// NewLogBufferWriter creates a new writer that writes to the log buffer
func NewLogBufferWriter(buffer *LogBuffer) *LogBufferWriter {
	return &LogBufferWriter{
		buffer: buffer,
	}
}

// Write implements io.Writer
func (lw *LogBufferWriter) Write(p []byte) (n int, err error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	// Buffer until we get a newline
	lw.buf.Write(p)

	for {
		line, err := lw.buf.ReadString('\n')
		if err == io.EOF {
			// keep the partial line for the next write
			lw.buf.WriteString(line)
			break
		}
		if err != nil {
			return len(p), err
		}

		line = strings.TrimSuffix(line, "\n")
		if len(line) == 0 {
			continue
		}
		lw.buffer.append(parseLine(line))
	}

	return len(p), nil
}

func parseLine(line string) LogEntry {
	if strings.HasPrefix(line, "{") {
		var ev jsonEvent
		if err := sonic.UnmarshalString(line, &ev); err == nil {
			msg := ev.Message
			if ev.Error != "" {
				msg += ": " + ev.Error
			}
			ts := ev.Time
			if ts.IsZero() {
				ts = time.Now()
			}
			return LogEntry{Timestamp: ts, Level: ev.Level, Host: ev.Host, Message: msg}
		}
	}

	entry := LogEntry{Timestamp: time.Now(), Level: "info", Host: SystemSource, Message: line}
	if matches := hostRegex.FindStringSubmatch(line); len(matches) == 3 {
		entry.Host = matches[1]
		entry.Message = matches[2]
	}
	return entry
}
