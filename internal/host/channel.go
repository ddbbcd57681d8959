package host

import (
	"sync"

	"go.uber.org/zap"
)

// Channel is an in-memory OutputChannel that retains every line in order
// and mirrors each line to a structured logger when one is attached.
type Channel struct {
	name   string
	logger *zap.Logger

	mu    sync.Mutex
	lines []string
}

// NewChannel creates a channel. logger may be nil.
func NewChannel(name string, logger *zap.Logger) *Channel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Channel{name: name, logger: logger}
}

// Name returns the channel name.
func (c *Channel) Name() string { return c.name }

// AppendLine appends one line verbatim.
func (c *Channel) AppendLine(line string) {
	c.mu.Lock()
	c.lines = append(c.lines, line)
	c.mu.Unlock()

	c.logger.Info(line, zap.String("channel", c.name))
}

// Lines returns a copy of all lines appended so far, in order.
func (c *Channel) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, len(c.lines))
	copy(out, c.lines)
	return out
}
