//go:build unix

package processmgr

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ErrNoSlot is returned by Spawn when the concurrent process cap is reached.
var ErrNoSlot = errors.New("process slot limit reached")

// Manager spawns supervised processes, keyed by the caller's session key.
// It owns the output buffers and the optional concurrency cap; it does not
// restart anything.
type Manager struct {
	log    *zap.Logger
	logmgr *LogManager
	slots  *slotPool
	grace  time.Duration
	seq    atomic.Uint64
}

// NewManager builds a Manager. maxProcs <= 0 means unlimited; grace is the
// SIGINT→SIGKILL escalation delay.
func NewManager(log *zap.Logger, logmgr *LogManager, maxProcs int64, grace time.Duration) *Manager {
	return &Manager{
		log:    log.Named("processmgr"),
		logmgr: logmgr,
		slots:  newSlotPool(maxProcs),
		grace:  grace,
	}
}

// Spawn starts path with argv. The previous output kept under key is
// replaced. The slot is released once the process is reaped.
func (m *Manager) Spawn(key, path string, argv []string) (Handle, error) {
	token := m.seq.Add(1)
	if !m.slots.tryAcquire(token) {
		return nil, fmt.Errorf("%w (%d running)", ErrNoSlot, m.slots.current())
	}

	log := m.log.With(zap.String("key", key))
	p, err := newProcess(log, m.logmgr.reset(key), m.grace, path, argv)
	if err != nil {
		m.slots.release(token)
		return nil, err
	}
	if err := p.start(); err != nil {
		m.slots.release(token)
		log.Error("failed to start command", zap.String("path", path), zap.Error(err))
		return nil, err
	}

	go func() {
		<-p.Done()
		m.slots.release(token)
	}()
	return p, nil
}

// Logs returns up to n recent lines captured under key.
func (m *Manager) Logs(key string, n int) ([]string, bool) {
	return m.logmgr.Tail(key, n)
}

// Running reports how many spawned processes have not been reaped yet.
func (m *Manager) Running() int64 { return m.slots.current() }

// Capacity is the configured cap (0 = unlimited).
func (m *Manager) Capacity() int64 { return m.slots.capacity() }
