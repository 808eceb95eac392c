package logger

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// SystemSource labels entries not tied to a host.
const SystemSource = "system"

// LogEntry represents a single log entry
type LogEntry struct {
	Timestamp time.Time
	Level     string
	Host      string
	Message   string
}

// LogBuffer is a thread-safe ring of recent log entries
type LogBuffer struct {
	entries []LogEntry
	maxSize int
	mu      sync.RWMutex
}

var (
	globalBuffer *LogBuffer
	bufferOnce   sync.Once
)

// GetGlobalLogBuffer returns the global log buffer
func GetGlobalLogBuffer() *LogBuffer {
	bufferOnce.Do(func() {
		globalBuffer = NewLogBuffer(1000) // Keep last 1000 log entries
	})
	return globalBuffer
}

// NewLogBuffer creates a new log buffer
func NewLogBuffer(maxSize int) *LogBuffer {
	return &LogBuffer{
		entries: make([]LogEntry, 0, maxSize),
		maxSize: maxSize,
	}
}

// Add appends an entry stamped with the current time
func (lb *LogBuffer) Add(host, level, message string) {
	lb.append(LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Host:      host,
		Message:   message,
	})
}

func (lb *LogBuffer) append(entry LogEntry) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	if entry.Host == "" {
		entry.Host = SystemSource
	}
	lb.entries = append(lb.entries, entry)

	// Keep only the last maxSize entries
	if len(lb.entries) > lb.maxSize {
		lb.entries = lb.entries[len(lb.entries)-lb.maxSize:]
	}
}

// GetRecent returns the most recent log entries
func (lb *LogBuffer) GetRecent(count int) []LogEntry {
	lb.mu.RLock()
	defer lb.mu.RUnlock()

	if count > len(lb.entries) {
		count = len(lb.entries)
	}

	result := make([]LogEntry, count)
	copy(result, lb.entries[len(lb.entries)-count:])
	return result
}

// GetAll returns all log entries
func (lb *LogBuffer) GetAll() []LogEntry {
	lb.mu.RLock()
	defer lb.mu.RUnlock()

	result := make([]LogEntry, len(lb.entries))
	copy(result, lb.entries)
	return result
}

// ForHost returns the entries of one host
func (lb *LogBuffer) ForHost(host string) []LogEntry {
	lb.mu.RLock()
	defer lb.mu.RUnlock()

	var result []LogEntry
	for _, e := range lb.entries {
		if e.Host == host {
			result = append(result, e)
		}
	}
	return result
}

// Clear removes all log entries from the buffer
func (lb *LogBuffer) Clear() {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	lb.entries = make([]LogEntry, 0, lb.maxSize)
}

// FormatLogEntry formats a log entry for display
func FormatLogEntry(entry LogEntry) string {
	level := strings.ToUpper(entry.Level)
	if len(level) > 3 {
		level = level[:3]
	}
	return fmt.Sprintf("[%s] %-3s %s: %s",
		entry.Timestamp.Format("15:04:05"),
		level,
		entry.Host,
		entry.Message,
	)
}
