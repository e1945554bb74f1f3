package processmgr

import (
	"slices"
	"sync"
)

// logCapacity bounds the output kept per process; ffmpeg progress lines
// would otherwise grow without limit on long recordings.
const logCapacity = 500

// markCapacity bounds the marked lines kept per process.
const markCapacity = 100

// logBuffer is a thread-safe ring of output lines with O(1) append.
type logBuffer struct {
	mu      sync.RWMutex
	entries [logCapacity]string
	head    int // next write position
	size    int // number of valid entries, <= logCapacity

	mark   func(string) bool // nil marks nothing
	marked []string          // first lines accepted by mark; never evicted
}

// Append adds a line, overwriting the oldest once full.
func (b *logBuffer) Append(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries[b.head] = line
	b.head = (b.head + 1) % logCapacity
	if b.size < logCapacity {
		b.size++
	}
	if b.mark != nil && len(b.marked) < markCapacity && b.mark(line) {
		b.marked = append(b.marked, line)
	}
}

// Marked returns the lines accepted by mark since the buffer was created,
// including ones the ring has since overwritten.
func (b *logBuffer) Marked() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.marked)
}

// Tail returns up to n of the most recent lines, oldest first.
// n <= 0 returns everything retained. The slice is owned by the caller.
func (b *logBuffer) Tail(n int) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.size == 0 {
		return nil
	}
	if n <= 0 || n > b.size {
		n = b.size
	}

	out := make([]string, n)
	// oldest of the requested window sits n slots behind head
	start := (b.head - n + logCapacity) % logCapacity
	for i := 0; i < n; i++ {
		out[i] = b.entries[(start+i)%logCapacity]
	}
	return out
}

// Len reports the number of retained lines.
func (b *logBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}
