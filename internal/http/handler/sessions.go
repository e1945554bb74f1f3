package handler

import (
	"net/http"
	"strconv"

	"github.com/edirooss/avcapture-server/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultLogLines = 200

// SessionsHandler drives the session orchestrator.
//
// Supported operations:
//   - GET    /sessions                 → List running and failed sessions
//   - DELETE /sessions                 → Stop everything
//   - GET    /sessions/{key}           → One session (idle when unknown)
//   - GET    /sessions/{key}/logs      → Captured process output
//   - POST   /sessions/local           → Start the local recording
//   - DELETE /sessions/local           → Stop the local recording
//   - POST   /feeds/{id}/preview       → Open the feed's preview window
//   - DELETE /feeds/{id}/preview       → Close it (and its recording)
//   - POST   /feeds/{id}/recording     → Record the feed
//   - DELETE /feeds/{id}/recording     → Stop recording the feed
//   - POST   /recordings               → Record every open preview
//
// Notes:
//   - Start failures are also broadcast as `alert` events.
type SessionsHandler struct {
	log  *zap.Logger
	orch *service.Orchestrator
}

func NewSessionsHandler(log *zap.Logger, orch *service.Orchestrator) *SessionsHandler {
	return &SessionsHandler{log: log.Named("sessions"), orch: orch}
}

// GetSessionList handles GET /sessions.
//
// Status Codes:
//   - 200 OK → JSON array ordered by key
//   - 503 Service Unavailable → Shutting down
func (h *SessionsHandler) GetSessionList(c *gin.Context) {
	list, err := h.orch.Sessions(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("X-Total-Count", strconv.Itoa(len(list)))
	c.JSON(http.StatusOK, list)
}

// GetSession handles GET /sessions/{key}.
func (h *SessionsHandler) GetSession(c *gin.Context) {
	s, err := h.orch.Session(c.Request.Context(), c.Param("key"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// GetSessionLogs handles GET /sessions/{key}/logs.
//
// Behavior:
//   - Returns the last `lines` lines (default 200) of the latest process
//     started under the key, including one that already exited.
//
// Status Codes:
//   - 200 OK
//   - 400 Bad Request → Invalid `lines`
//   - 404 Not Found → Nothing was ever started under the key
func (h *SessionsHandler) GetSessionLogs(c *gin.Context) {
	n := defaultLogLines
	if v := c.Query("lines"); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil || i <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "lines must be a positive integer"})
			return
		}
		n = i
	}

	lines, ok := h.orch.Logs(c.Param("key"), n)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "no logs for session"})
		return
	}
	c.Header("X-Total-Count", strconv.Itoa(len(lines)))
	c.JSON(http.StatusOK, lines)
}

// StartLocalRecording handles POST /sessions/local.
//
// Behavior:
//   - An empty `video_id` records the committed local preview selection.
//   - Empty `preset_id` uses the active preset; empty `output_path` writes
//     a timestamped file to the recordings directory.
//
// Status Codes:
//   - 201 Created → JSON of the running session
//   - 400 Bad Request
//   - 404 Not Found → Preset not found
//   - 409 Conflict → Already recording
//   - 422 Unprocessable Entity → Device unavailable, bad limit or frame rate
//   - 429 Too Many Requests → Session limit reached
//   - 503 Service Unavailable → ffmpeg missing
func (h *SessionsHandler) StartLocalRecording(c *gin.Context) {
	var req service.LocalRecordingRequest
	if err := bindOptional(c.Request, &req); err != nil {
		badRequest(c, err)
		return
	}
	s, err := h.orch.StartLocalRecording(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Location", "/api/sessions/"+s.Key)
	c.JSON(http.StatusCreated, s)
}

// StopLocalRecording handles DELETE /sessions/local. Idempotent.
func (h *SessionsHandler) StopLocalRecording(c *gin.Context) {
	if err := h.orch.StopLocalRecording(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// StartPreview handles POST /feeds/{id}/preview.
//
// Status Codes:
//   - 201 Created
//   - 404 Not Found → Feed not found
//   - 409 Conflict → Preview already open
//   - 422 Unprocessable Entity → Feed has no input
//   - 503 Service Unavailable → ffplay missing
func (h *SessionsHandler) StartPreview(c *gin.Context) {
	s, err := h.orch.StartIPPreview(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Location", "/api/sessions/"+s.Key)
	c.JSON(http.StatusCreated, s)
}

// StopPreview handles DELETE /feeds/{id}/preview. Idempotent.
func (h *SessionsHandler) StopPreview(c *gin.Context) {
	if err := h.orch.StopIPPreview(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// StartRecording handles POST /feeds/{id}/recording.
//
// Status Codes:
//   - 201 Created
//   - 400 Bad Request
//   - 404 Not Found → Feed or preset not found
//   - 409 Conflict → Already recording
//   - 422 Unprocessable Entity
//   - 503 Service Unavailable → ffmpeg missing
func (h *SessionsHandler) StartRecording(c *gin.Context) {
	var req service.IPRecordingRequest
	if err := bindOptional(c.Request, &req); err != nil {
		badRequest(c, err)
		return
	}
	s, err := h.orch.StartIPRecording(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Location", "/api/sessions/"+s.Key)
	c.JSON(http.StatusCreated, s)
}

// StopRecording handles DELETE /feeds/{id}/recording. Idempotent.
func (h *SessionsHandler) StopRecording(c *gin.Context) {
	if err := h.orch.StopIPRecording(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type startAllRequest struct {
	PresetID   string                 `json:"preset_id"`
	OutputPath string                 `json:"output_path"` // base; the camera name is appended
	Limit      service.RecordingLimit `json:"limit"`
}

// StartAllRecordings handles POST /recordings.
//
// Behavior:
//   - Starts a recording for every feed whose preview is open.
//   - Per-feed failures are reported in the result and do not stop the
//     others.
//
// Status Codes:
//   - 200 OK → JSON array of per-feed results
//   - 400 Bad Request
//   - 409 Conflict → No preview is open
//   - 422 Unprocessable Entity → No output path
func (h *SessionsHandler) StartAllRecordings(c *gin.Context) {
	var req startAllRequest
	if err := bindOptional(c.Request, &req); err != nil {
		badRequest(c, err)
		return
	}
	results, err := h.orch.StartAllIPRecordings(c.Request.Context(), req.PresetID, req.OutputPath, req.Limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("X-Total-Count", strconv.Itoa(len(results)))
	c.JSON(http.StatusOK, results)
}

// StopAll handles DELETE /sessions.
//
// Status Codes:
//   - 200 OK → {"stopped": n}
func (h *SessionsHandler) StopAll(c *gin.Context) {
	n, err := h.orch.StopAll(c.Request.Context(), "api")
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stopped": n})
}
