package logger

import (
	"bytes"
	"sync"
	"time"
)

// Capture is an in-memory, append-only log sink. It records when it was last
// written so callers can tell whether a node logged anything new.
type Capture struct {
	mu   sync.Mutex
	buf  bytes.Buffer
	last time.Time
}

// NewCapture creates an empty Capture.
func NewCapture() *Capture {
	return &Capture{}
}

// Write implements io.Writer.
func (c *Capture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = time.Now()
	return c.buf.Write(p)
}

// String returns everything written so far.
func (c *Capture) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}

// LastWrite returns the time of the most recent write, or the zero time.
func (c *Capture) LastWrite() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Reset discards the captured output.
func (c *Capture) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf.Reset()
	c.last = time.Time{}
}
