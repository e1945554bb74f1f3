package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// chanSleep replays sleep/wake values sent on its channel.
type chanSleep chan bool

func (c chanSleep) Watch(ctx context.Context, fn func(bool)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case v := <-c:
			fn(v)
		}
	}
}

type recorder struct {
	mu  sync.Mutex
	got []string
}

func (r *recorder) add(s string) func(context.Context) {
	return func(context.Context) {
		r.mu.Lock()
		r.got = append(r.got, s)
		r.mu.Unlock()
	}
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.got...)
}

func TestLifecycleDispatch(t *testing.T) {
	src := make(chanSleep)
	l := NewLifecycle(zap.NewNop(), src)

	var rec recorder
	l.OnWillSleep(rec.add("sleep"))
	l.OnDidWake(rec.add("wake"))
	l.OnAppTerminate(rec.add("terminate"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	src <- true
	src <- false
	require.Eventually(t, func() bool { return len(rec.list()) == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
	assert.Equal(t, []string{"sleep", "wake", "terminate"}, rec.list())
}

func TestLifecycleWithoutSleepSource(t *testing.T) {
	l := NewLifecycle(zap.NewNop(), nil)
	var rec recorder
	l.OnAppTerminate(rec.add("terminate"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, l.Run(ctx))
	assert.Equal(t, []string{"terminate"}, rec.list())
}

func TestLifecycleSleepStopsSessions(t *testing.T) {
	h := newHarness(t, 0)
	ctx := context.Background()
	f := h.addFeed(t, "Gate", "rtsp://10.0.0.5/stream1")
	_, err := h.o.StartIPPreview(ctx, f.ID)
	require.NoError(t, err)

	src := make(chanSleep)
	l := NewLifecycle(zap.NewNop(), src)
	l.OnWillSleep(func(ctx context.Context) { _, _ = h.o.StopAll(ctx, "sleep") })

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = l.Run(runCtx) }()

	src <- true
	prev := h.sp.handle(previewKey(f.ID))
	require.Eventually(t, func() bool { return prev.interrupts() == 1 }, time.Second, 5*time.Millisecond)
}
