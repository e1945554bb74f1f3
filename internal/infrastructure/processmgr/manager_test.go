//go:build unix

package processmgr

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestManager(max int64) *Manager {
	return NewManager(zap.NewNop(), NewLogManager(nil), max, 2*time.Second)
}

func waitDone(t *testing.T, h Handle) {
	t.Helper()
	select {
	case <-h.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit")
	}
}

func TestSpawnCapturesOutputAndExitCode(t *testing.T) {
	m := newTestManager(0)
	h, err := m.Spawn("local", "/bin/sh", []string{"-c", `printf 'frame=1\rframe=2\n'; echo oops >&2; exit 3`})
	require.NoError(t, err)
	waitDone(t, h)

	assert.Equal(t, 3, h.ExitCode())
	out := h.Output(0)
	assert.ElementsMatch(t, []string{"frame=1", "frame=2", "oops"}, out)

	logs, ok := m.Logs("local", 0)
	require.True(t, ok)
	assert.ElementsMatch(t, out, logs)
}

func TestSpawnKeepsMarkedLinesPastRing(t *testing.T) {
	m := NewManager(zap.NewNop(), NewLogManager(func(l string) bool { return strings.Contains(l, "error") }), 0, 2*time.Second)
	script := `echo 'early error'; i=0; while [ $i -lt 600 ]; do echo frame=$i; i=$((i+1)); done`
	h, err := m.Spawn("record:1", "/bin/sh", []string{"-c", script})
	require.NoError(t, err)
	waitDone(t, h)

	assert.NotContains(t, h.Output(0), "early error")
	assert.Equal(t, []string{"early error"}, h.Marked())
}

func TestSpawnMissingBinary(t *testing.T) {
	m := newTestManager(0)
	_, err := m.Spawn("local", "/nonexistent/ffmpeg", nil)
	require.Error(t, err)
	assert.Zero(t, m.Running())
}

func TestInterruptStopsProcessGroup(t *testing.T) {
	m := newTestManager(0)
	h, err := m.Spawn("record:1", "/bin/sh", []string{"-c", "trap 'echo got-int; exit 0' INT; while :; do sleep 0.05; done"})
	require.NoError(t, err)
	time.Sleep(200 * time.Millisecond) // let the trap install

	h.Interrupt()
	h.Interrupt() // idempotent
	waitDone(t, h)
	assert.Contains(t, h.Output(0), "got-int")
}

func TestInterruptEscalatesToKill(t *testing.T) {
	m := NewManager(zap.NewNop(), NewLogManager(nil), 0, 100*time.Millisecond)
	h, err := m.Spawn("record:2", "/bin/sh", []string{"-c", "trap '' INT; while :; do sleep 0.05; done"})
	require.NoError(t, err)
	time.Sleep(200 * time.Millisecond)

	h.Interrupt()
	waitDone(t, h)
	assert.Equal(t, -1, h.ExitCode())
}

func TestSpawnHonoursSlotLimit(t *testing.T) {
	m := newTestManager(1)
	h, err := m.Spawn("a", "/bin/sh", []string{"-c", "sleep 5"})
	require.NoError(t, err)

	_, err = m.Spawn("b", "/bin/sh", []string{"-c", "true"})
	require.ErrorIs(t, err, ErrNoSlot)

	h.Interrupt()
	waitDone(t, h)
	require.Eventually(t, func() bool { return m.Running() == 0 }, 2*time.Second, 10*time.Millisecond)

	h, err = m.Spawn("b", "/bin/sh", []string{"-c", "true"})
	require.NoError(t, err)
	waitDone(t, h)
}

func TestRespawnReplacesLogs(t *testing.T) {
	m := newTestManager(0)
	h, err := m.Spawn("k", "/bin/sh", []string{"-c", "echo first"})
	require.NoError(t, err)
	waitDone(t, h)

	h, err = m.Spawn("k", "/bin/sh", []string{"-c", "echo second"})
	require.NoError(t, err)
	waitDone(t, h)

	logs, _ := m.Logs("k", 0)
	assert.Equal(t, []string{"second"}, logs)
}
