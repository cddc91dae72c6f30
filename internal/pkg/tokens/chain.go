package tokens

import (
	"strings"
	"sync"
)

// chainCursors tracks how far each literal chain string has been consumed.
type chainCursors struct {
	mu      sync.Mutex
	cursors map[string]int
}

func newChainCursors() *chainCursors {
	return &chainCursors{cursors: make(map[string]int)}
}

func (c *chainCursors) next(chain string) (string, bool) {
	parts := strings.Split(chain, ChainSeparator)

	c.mu.Lock()
	defer c.mu.Unlock()

	pos := c.cursors[chain]
	if pos >= len(parts) {
		return "", false
	}
	c.cursors[chain] = pos + 1
	return strings.TrimSpace(parts[pos]), true
}

func (c *chainCursors) reset() {
	c.mu.Lock()
	c.cursors = make(map[string]int)
	c.mu.Unlock()
}
