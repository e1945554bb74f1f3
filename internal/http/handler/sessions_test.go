package handler

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edirooss/avcapture-server/internal/service"
)

func TestLocalRecordingEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/sessions/local", `{"video_id": "`+testCamera+`", "limit": {"minutes": 5}}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sess := decode[service.Session](t, w)
	assert.Equal(t, "local", sess.Key)
	assert.Equal(t, service.StateRunning, sess.State)
	assert.Equal(t, "00:05:00", sess.Limit)
	assert.Equal(t, "/api/sessions/local", w.Header().Get("Location"))

	w = s.do(http.MethodPost, "/api/sessions/local", `{"video_id": "`+testCamera+`"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodGet, "/api/sessions/local", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.StateRunning, decode[service.Session](t, w).State)

	w = s.do(http.MethodDelete, "/api/sessions/local", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(http.MethodGet, "/api/sessions/local", "")
	assert.Equal(t, service.StateIdle, decode[service.Session](t, w).State)

	// stopping again is a no-op
	w = s.do(http.MethodDelete, "/api/sessions/local", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestLocalRecordingRejects(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/sessions/local", `{"video_id": "Missing Camera"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(http.MethodPost, "/api/sessions/local", `{"video_id": "`+testCamera+`", "limit": {"seconds": 75}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(http.MethodPost, "/api/sessions/local", `{"video_id": "`+testCamera+`", "preset_id": "nope"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// nothing selected for preview either
	w = s.do(http.MethodPost, "/api/sessions/local", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestIPSessionEndpoints(t *testing.T) {
	s := newTestServer(t)
	f := s.createFeed(t, `{"name": "Gate", "url": "rtsp://10.0.0.5/stream1"}`)

	w := s.do(http.MethodPost, "/api/recordings", "")
	assert.Equal(t, http.StatusConflict, w.Code, "no preview open")

	w = s.do(http.MethodPost, "/api/feeds/"+f.ID+"/preview", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "preview:"+f.ID, decode[service.Session](t, w).Key)

	w = s.do(http.MethodPost, "/api/feeds/"+f.ID+"/preview", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/api/recordings", `{"output_path": "/tmp/batch.mp4"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	results := decode[[]service.BatchResult](t, w)
	require.Len(t, results, 1)
	require.NotNil(t, results[0].Session)
	assert.Equal(t, "/tmp/batch_Gate.mp4", results[0].Session.OutputPath)

	w = s.do(http.MethodGet, "/api/sessions", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-Total-Count"))

	w = s.do(http.MethodGet, "/api/sessions/preview:"+f.ID+"/logs?lines=10", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"started preview:" + f.ID}, decode[[]string](t, w))

	// closing the preview also ends the recording
	w = s.do(http.MethodDelete, "/api/feeds/"+f.ID+"/preview", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(http.MethodGet, "/api/sessions", "")
	assert.Equal(t, "0", w.Header().Get("X-Total-Count"))
}

func TestIPRecordingEndpoints(t *testing.T) {
	s := newTestServer(t)
	f := s.createFeed(t, `{"name": "Yard", "url": "rtsp://10.0.0.6/s"}`)

	w := s.do(http.MethodPost, "/api/feeds/"+f.ID+"/recording", `{"output_path": "/tmp/yard.mov", "limit": {"hours": 1}}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sess := decode[service.Session](t, w)
	assert.Equal(t, "record:"+f.ID, sess.Key)
	assert.Equal(t, "/tmp/yard.mov", sess.OutputPath)
	assert.Equal(t, "01:00:00", sess.Limit)

	w = s.do(http.MethodDelete, "/api/feeds/"+f.ID+"/recording", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(http.MethodPost, "/api/feeds/"+uuid.NewString()+"/recording", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	empty := s.createFeed(t, "")
	w = s.do(http.MethodPost, "/api/feeds/"+empty.ID+"/recording", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestStopAllEndpoint(t *testing.T) {
	s := newTestServer(t)
	a := s.createFeed(t, `{"name": "A", "url": "rtsp://10.0.0.5/a"}`)
	b := s.createFeed(t, `{"name": "B", "url": "rtsp://10.0.0.6/b"}`)

	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/feeds/"+a.ID+"/preview", "").Code)
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/feeds/"+b.ID+"/preview", "").Code)

	w := s.do(http.MethodDelete, "/api/sessions", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decode[struct {
		Stopped int `json:"stopped"`
	}](t, w).Stopped)
}

func TestSessionLogsUnknownKey(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/sessions/local/logs", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/sessions/local/logs?lines=-1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLocalPreviewSelection(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPut, "/api/preview/local", `{"video_id": "`+testCamera+`", "audio_id": "`+testMic+`", "frame_rate": 25}`)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	// committed without delay when no debounce is configured
	w = s.do(http.MethodGet, "/api/preview/local", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.PreviewSelection{VideoID: testCamera, AudioID: testMic, FrameRate: 25}, decode[service.PreviewSelection](t, w))

	w = s.do(http.MethodPut, "/api/preview/local", `{"video_id": "`+testCamera+`", "frame_rate": 120}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(http.MethodPut, "/api/preview/local", `{"video_id": "Ghost"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// local recording without a video_id uses the committed selection
	w = s.do(http.MethodPost, "/api/sessions/local", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestDevicesEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/devices", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-Total-Count"))
	assert.Contains(t, w.Body.String(), testCamera)

	w = s.do(http.MethodPost, "/api/devices/refresh", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
