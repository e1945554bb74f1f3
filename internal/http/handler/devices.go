package handler

import (
	"net/http"
	"strconv"

	"github.com/edirooss/avcapture-server/internal/domain/device"
	"github.com/edirooss/avcapture-server/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DevicesHandler exposes the capture device registry and the local preview
// selection.
//
// Supported operations:
//   - GET  /devices                → List cameras and microphones
//   - POST /devices/refresh        → Re-enumerate now
//   - GET  /preview/local          → Committed preview selection
//   - PUT  /preview/local          → Select preview devices (debounced)
//   - POST /preview/local/restart  → Re-announce the selection
type DevicesHandler struct {
	log      *zap.Logger
	registry *service.DeviceRegistry
	orch     *service.Orchestrator
}

func NewDevicesHandler(log *zap.Logger, registry *service.DeviceRegistry, orch *service.Orchestrator) *DevicesHandler {
	return &DevicesHandler{
		log:      log.Named("devices"),
		registry: registry,
		orch:     orch,
	}
}

type deviceList struct {
	Video []device.CaptureDevice `json:"video"`
	Audio []device.CaptureDevice `json:"audio"`
}

func (h *DevicesHandler) list() deviceList {
	l := deviceList{Video: h.registry.ListVideo(), Audio: h.registry.ListAudio()}
	if l.Video == nil {
		l.Video = []device.CaptureDevice{}
	}
	if l.Audio == nil {
		l.Audio = []device.CaptureDevice{}
	}
	return l
}

// GetDeviceList handles GET /devices.
//
// Behavior:
//   - Returns the last snapshot; it does not enumerate.
//   - Adds `X-Total-Count` header (cameras plus microphones).
//
// Status Codes:
//   - 200 OK
func (h *DevicesHandler) GetDeviceList(c *gin.Context) {
	l := h.list()
	c.Header("X-Total-Count", strconv.Itoa(len(l.Video)+len(l.Audio)))
	c.JSON(http.StatusOK, l)
}

// RefreshDevices handles POST /devices/refresh.
//
// Status Codes:
//   - 200 OK → JSON of the fresh snapshot
//   - 500 Internal Server Error → Enumeration failed
func (h *DevicesHandler) RefreshDevices(c *gin.Context) {
	if _, err := h.registry.Refresh(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.list())
}

// GetLocalPreview handles GET /preview/local.
func (h *DevicesHandler) GetLocalPreview(c *gin.Context) {
	sel, err := h.orch.LocalPreview(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sel)
}

// SelectLocalPreview handles PUT /preview/local.
//
// Behavior:
//   - Validates the devices against the current snapshot.
//   - The selection is committed after the debounce delay; the commit is
//     announced as a `preview` event.
//
// Status Codes:
//   - 202 Accepted
//   - 400 Bad Request → Invalid JSON
//   - 422 Unprocessable Entity → Unknown device or frame rate out of range
func (h *DevicesHandler) SelectLocalPreview(c *gin.Context) {
	var req service.PreviewSelection
	if err := bind(c.Request, &req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.orch.SelectLocalPreview(c.Request.Context(), req); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

// RestartLocalPreview handles POST /preview/local/restart.
func (h *DevicesHandler) RestartLocalPreview(c *gin.Context) {
	if err := h.orch.RestartLocalPreview(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
