package service

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"
)

const (
	logindDest    = "org.freedesktop.login1"
	logindPath    = dbus.ObjectPath("/org/freedesktop/login1")
	logindManager = "org.freedesktop.login1.Manager"
)

// LogindManager is a client for the systemd-logind Manager D-Bus interface.
//
// It binds to the well-known bus name "org.freedesktop.login1" at the
// object path "/org/freedesktop/login1". It implements SleepSource via the
// PrepareForSleep signal.
type LogindManager struct {
	log  *zap.Logger
	conn *dbus.Conn
	obj  dbus.BusObject // Proxy object bound to /org/freedesktop/login1.
}

// NewLogindManager returns a LogindManager on conn (the system bus).
func NewLogindManager(log *zap.Logger, conn *dbus.Conn) *LogindManager {
	return &LogindManager{
		log:  log.Named("logind"),
		conn: conn,
		obj:  conn.Object(logindDest, logindPath),
	}
}

// Inhibit takes an inhibitor lock and returns its file descriptor; the lock
// is held until the descriptor is closed.
//
// It invokes org.freedesktop.login1.Manager.Inhibit:
//
//	Inhibit(
//	    in  s what, // "sleep", "shutdown", ...
//	    in  s who,  // application name
//	    in  s why,  // human-readable reason
//	    in  s mode, // "block" or "delay"
//	    out h fd
//	)
//
// A "delay" lock makes logind wait (up to InhibitDelayMaxSec) for the lock
// to be released after PrepareForSleep(true) before suspending.
func (m *LogindManager) Inhibit(what, who, why, mode string) (*os.File, error) {
	var fd dbus.UnixFD
	call := m.obj.Call(logindManager+".Inhibit", 0, what, who, why, mode)
	if call.Err != nil {
		return nil, fmt.Errorf("Inhibit %q call: %w", what, call.Err)
	}
	if err := call.Store(&fd); err != nil {
		return nil, fmt.Errorf("Inhibit %q store: %w", what, err)
	}
	return os.NewFile(uintptr(fd), "logind-inhibit"), nil
}

// Watch subscribes to PrepareForSleep and calls fn with its argument. A
// sleep delay lock is held while awake so fn(true) can stop the recordings
// before the machine suspends; it is released after fn(true) returns and
// taken again on resume.
func (m *LogindManager) Watch(ctx context.Context, fn func(sleeping bool)) error {
	match := []dbus.MatchOption{
		dbus.WithMatchObjectPath(logindPath),
		dbus.WithMatchInterface(logindManager),
		dbus.WithMatchMember("PrepareForSleep"),
	}
	if err := m.conn.AddMatchSignal(match...); err != nil {
		return fmt.Errorf("AddMatchSignal PrepareForSleep: %w", err)
	}
	defer func() { _ = m.conn.RemoveMatchSignal(match...) }()

	ch := make(chan *dbus.Signal, 8)
	m.conn.Signal(ch)
	defer m.conn.RemoveSignal(ch)

	lock := m.delayLock()
	defer func() { release(lock) }()

	m.log.Info("watching PrepareForSleep")
	for {
		select {
		case <-ctx.Done():
			return nil
		case sig, ok := <-ch:
			if !ok {
				return errors.New("system bus connection closed")
			}
			if sig.Name != logindManager+".PrepareForSleep" || len(sig.Body) != 1 {
				continue
			}
			sleeping, ok := sig.Body[0].(bool)
			if !ok {
				continue
			}

			fn(sleeping)
			if sleeping {
				release(lock)
				lock = nil
			} else if lock == nil {
				lock = m.delayLock()
			}
		}
	}
}

// delayLock takes a sleep delay lock; failure only costs the head start.
func (m *LogindManager) delayLock() *os.File {
	f, err := m.Inhibit("sleep", "avcapture-server", "Stopping recordings", "delay")
	if err != nil {
		m.log.Warn("sleep inhibitor lock unavailable", zap.Error(err))
		return nil
	}
	return f
}

func release(f *os.File) {
	if f != nil {
		_ = f.Close()
	}
}
