package service

import (
	"context"
	"errors"
	"sync"

	"github.com/edirooss/avcapture-server/internal/domain/device"
	"github.com/edirooss/avcapture-server/internal/domain/feed"
	"github.com/edirooss/avcapture-server/internal/domain/preset"
	"github.com/edirooss/avcapture-server/internal/infrastructure/processmgr"
)

var errStoreDown = errors.New("store down")

// memStore is an in-memory PresetStore and FeedStore.
type memStore struct {
	mu       sync.Mutex
	presets  []*preset.EncodingPreset
	active   string
	found    bool
	feeds    []*feed.IPCameraFeed
	failSave bool
	saves    int
}

func (m *memStore) LoadPresets(context.Context) ([]*preset.EncodingPreset, string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.presets, m.active, m.found, nil
}

func (m *memStore) SavePresets(_ context.Context, list []*preset.EncodingPreset, active string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave {
		return errStoreDown
	}
	m.presets, m.active, m.found = list, active, true
	m.saves++
	return nil
}

func (m *memStore) LoadFeeds(context.Context) ([]*feed.IPCameraFeed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.feeds, nil
}

func (m *memStore) SaveFeeds(_ context.Context, list []*feed.IPCameraFeed) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave {
		return errStoreDown
	}
	m.feeds = list
	m.saves++
	return nil
}

// fakeEnum is a DeviceEnumerator whose lists tests change at will.
type fakeEnum struct {
	mu    sync.Mutex
	video []device.CaptureDevice
	audio []device.CaptureDevice
	err   error
	calls int
}

func (e *fakeEnum) Enumerate(context.Context) ([]device.CaptureDevice, []device.CaptureDevice, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.err != nil {
		return nil, nil, e.err
	}
	return append([]device.CaptureDevice(nil), e.video...), append([]device.CaptureDevice(nil), e.audio...), nil
}

func (e *fakeEnum) set(video, audio []device.CaptureDevice) {
	e.mu.Lock()
	e.video, e.audio = video, audio
	e.mu.Unlock()
}

func (e *fakeEnum) enumerations() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// gatedEnum holds its first enumeration until release is closed, returning
// the devices present when that enumeration began.
type gatedEnum struct {
	*fakeEnum
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGatedEnum(e *fakeEnum) *gatedEnum {
	return &gatedEnum{fakeEnum: e, entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedEnum) Enumerate(ctx context.Context) ([]device.CaptureDevice, []device.CaptureDevice, error) {
	first := false
	g.once.Do(func() { first = true })
	video, audio, err := g.fakeEnum.Enumerate(ctx)
	if first {
		close(g.entered)
		<-g.release
	}
	return video, audio, err
}

func cam(name string) device.CaptureDevice {
	return device.CaptureDevice{ID: name, Name: name, Kind: device.KindVideo}
}

func mic(name string) device.CaptureDevice {
	return device.CaptureDevice{ID: name, Name: name, Kind: device.KindAudio}
}

// fakeHandle is a process that exits when the test says so.
type fakeHandle struct {
	pid         int
	done        chan struct{}
	once        sync.Once
	out         []string
	marked      []string // lines kept past the output tail; out when nil
	code        int
	mu          sync.Mutex
	interrupted int
}

func (h *fakeHandle) PID() int              { return h.pid }
func (h *fakeHandle) Done() <-chan struct{} { return h.done }
func (h *fakeHandle) ExitCode() int         { return h.code }
func (h *fakeHandle) Output(int) []string   { return h.out }

func (h *fakeHandle) Marked() []string {
	if h.marked != nil {
		return h.marked
	}
	return h.out
}

func (h *fakeHandle) Interrupt() {
	h.mu.Lock()
	h.interrupted++
	h.mu.Unlock()
}

func (h *fakeHandle) interrupts() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}

// exit finishes the process with the given code and output.
func (h *fakeHandle) exit(code int, lines ...string) {
	h.once.Do(func() {
		h.code, h.out = code, lines
		close(h.done)
	})
}

type spawnCall struct {
	key  string
	path string
	argv []string
}

// fakeSpawner records spawns and hands out fakeHandles.
type fakeSpawner struct {
	mu      sync.Mutex
	calls   []spawnCall
	handles map[string]*fakeHandle // latest per key
	fail    map[string]error       // key → spawn error
	pid     int
}

func newFakeSpawner() *fakeSpawner {
	return &fakeSpawner{handles: map[string]*fakeHandle{}, fail: map[string]error{}}
}

func (s *fakeSpawner) Spawn(key, path string, argv []string) (processmgr.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail[key]; err != nil {
		return nil, err
	}
	s.pid++
	h := &fakeHandle{pid: 1000 + s.pid, done: make(chan struct{})}
	s.calls = append(s.calls, spawnCall{key: key, path: path, argv: argv})
	s.handles[key] = h
	return h, nil
}

func (s *fakeSpawner) Logs(key string, n int) ([]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.handles[key]
	if !ok {
		return nil, false
	}
	return h.out, true
}

func (s *fakeSpawner) handle(key string) *fakeHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handles[key]
}

func (s *fakeSpawner) spawned() []spawnCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]spawnCall(nil), s.calls...)
}

func (s *fakeSpawner) failOn(key string, err error) {
	s.mu.Lock()
	s.fail[key] = err
	s.mu.Unlock()
}
