package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edirooss/avcapture-server/internal/domain/device"
	"github.com/edirooss/avcapture-server/internal/events"
	mw "github.com/edirooss/avcapture-server/internal/http/middleware"
	"github.com/edirooss/avcapture-server/internal/infrastructure/processmgr"
	"github.com/edirooss/avcapture-server/internal/metrics"
	"github.com/edirooss/avcapture-server/internal/repo"
	"github.com/edirooss/avcapture-server/internal/service"
)

func init() { gin.SetMode(gin.TestMode) }

const (
	testCamera = "FaceTime HD Camera"
	testMic    = "MacBook Pro Microphone"
)

type staticEnum struct{}

func (staticEnum) Enumerate(context.Context) ([]device.CaptureDevice, []device.CaptureDevice, error) {
	return []device.CaptureDevice{{ID: testCamera, Name: testCamera, Kind: device.KindVideo}},
		[]device.CaptureDevice{{ID: testMic, Name: testMic, Kind: device.KindAudio}},
		nil
}

// stubHandle runs until interrupted.
type stubHandle struct {
	pid  int
	done chan struct{}
	once sync.Once
}

func (h *stubHandle) PID() int              { return h.pid }
func (h *stubHandle) Done() <-chan struct{} { return h.done }
func (h *stubHandle) ExitCode() int         { return 0 }
func (h *stubHandle) Output(int) []string   { return nil }
func (h *stubHandle) Marked() []string      { return nil }
func (h *stubHandle) Interrupt()            { h.once.Do(func() { close(h.done) }) }

type stubSpawner struct {
	mu    sync.Mutex
	keys  map[string]int
	argvs map[string][]string
}

func (s *stubSpawner) Spawn(key, _ string, argv []string) (processmgr.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key]++
	s.argvs[key] = argv
	return &stubHandle{pid: 1000 + len(s.keys), done: make(chan struct{})}, nil
}

func (s *stubSpawner) Logs(key string, n int) ([]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keys[key] == 0 {
		return nil, false
	}
	return []string{"started " + key}, true
}

type testServer struct {
	router *gin.Engine
	hub    *events.Hub
	sp     *stubSpawner
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	log := zap.NewNop()

	mr := miniredis.RunT(t)
	store := repo.NewRepository(ctx, log, mr.Addr(), 0)
	t.Cleanup(func() { _ = store.Close() })

	hub := events.NewHub(log)
	devices := service.NewDeviceRegistry(log, staticEnum{}, hub)
	_, err := devices.Refresh(ctx)
	require.NoError(t, err)
	presets, err := service.NewPresetService(ctx, log, store.Presets)
	require.NoError(t, err)
	feeds, err := service.NewFeedService(ctx, log, store.Feeds)
	require.NoError(t, err)

	sp := &stubSpawner{keys: map[string]int{}, argvs: map[string][]string{}}
	bins := service.Binaries{FFmpeg: "/opt/bin/ffmpeg", FFplay: "/opt/bin/ffplay", FFprobe: "/opt/bin/ffprobe"}
	m := metrics.New(prometheus.NewRegistry(), func() float64 { return 0 })
	orch := service.NewOrchestrator(log, service.OrchestratorConfig{RecordingsDir: t.TempDir()}, bins, devices, presets, feeds, sp, hub, m)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() { _ = orch.Run(runCtx); close(done) }()
	t.Cleanup(func() { cancel(); <-done })

	r := gin.New()
	r.Use(mw.RequestID(), mw.Metrics(m))
	Mount(r.Group("/api"), log, Services{
		Devices: devices,
		Presets: presets,
		Feeds:   feeds,
		Prober:  service.NewProber(log, bins, feeds, sp),
		Orch:    orch,
		Hub:     hub,
	})
	return &testServer{router: r, hub: hub, sp: sp}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
