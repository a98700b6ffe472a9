package observe

import (
	"context"
	"strings"
	"sync"
)

// Entry is one captured log line.
type Entry struct {
	Level  string
	Msg    string
	Err    error
	Fields []Field
}

// Capture is an in-memory Logger for tests. It records every log line
// and audit record it receives.
type Capture struct {
	mu      sync.Mutex
	entries []Entry
	audits  []Record
}

// NewCapture creates a capture logger.
func NewCapture() *Capture {
	return &Capture{}
}

func (c *Capture) Debug(_ context.Context, msg string, fields ...Field) {
	c.record(Entry{Level: "debug", Msg: msg, Fields: fields})
}

func (c *Capture) Info(_ context.Context, msg string, fields ...Field) {
	c.record(Entry{Level: "info", Msg: msg, Fields: fields})
}

func (c *Capture) Warn(_ context.Context, msg string, fields ...Field) {
	c.record(Entry{Level: "warn", Msg: msg, Fields: fields})
}

func (c *Capture) Error(_ context.Context, msg string, err error, fields ...Field) {
	c.record(Entry{Level: "error", Msg: msg, Err: err, Fields: fields})
}

func (c *Capture) Audit(_ context.Context, rec Record) {
	c.mu.Lock()
	c.audits = append(c.audits, rec)
	c.mu.Unlock()
}

func (c *Capture) record(e Entry) {
	c.mu.Lock()
	c.entries = append(c.entries, e)
	c.mu.Unlock()
}

// Entries returns all captured log lines.
func (c *Capture) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Audits returns all captured audit records.
func (c *Capture) Audits() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Record, len(c.audits))
	copy(out, c.audits)
	return out
}

// CountLevel returns the number of captured lines at the given level.
func (c *Capture) CountLevel(level string) int {
	n := 0
	for _, e := range c.Entries() {
		if e.Level == level {
			n++
		}
	}
	return n
}

// Contains reports whether any captured line at the given level has msg
// as a substring of its message or error text.
func (c *Capture) Contains(level, msg string) bool {
	for _, e := range c.Entries() {
		if e.Level != level {
			continue
		}
		if strings.Contains(e.Msg, msg) {
			return true
		}
		if e.Err != nil && strings.Contains(e.Err.Error(), msg) {
			return true
		}
	}
	return false
}

var _ Logger = (*Capture)(nil)
