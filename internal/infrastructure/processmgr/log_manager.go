package processmgr

import "sync"

// LogManager keeps the output of the latest process spawned per key.
// A new spawn under the same key replaces the previous buffer.
type LogManager struct {
	mark func(string) bool

	mu   sync.RWMutex
	bufs map[string]*logBuffer // key → buffer of the latest spawn
}

// NewLogManager builds a LogManager. Lines accepted by mark are kept for the
// whole run of a process (see Handle.Marked); mark may be nil.
func NewLogManager(mark func(line string) bool) *LogManager {
	return &LogManager{
		mark: mark,
		bufs: make(map[string]*logBuffer),
	}
}

// reset installs and returns a fresh buffer for key.
func (lm *LogManager) reset(key string) *logBuffer {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	buf := &logBuffer{mark: lm.mark}
	lm.bufs[key] = buf
	return buf
}

// Tail returns up to n recent lines captured for key (oldest first).
func (lm *LogManager) Tail(key string, n int) ([]string, bool) {
	lm.mu.RLock()
	buf, ok := lm.bufs[key]
	lm.mu.RUnlock()

	if !ok {
		return nil, false
	}
	return buf.Tail(n), true
}
