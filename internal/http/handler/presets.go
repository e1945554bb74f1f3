package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/edirooss/avcapture-server/internal/domain/preset"
	"github.com/edirooss/avcapture-server/internal/service"
	"github.com/edirooss/avcapture-server/pkg/ffmpegcmd"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PresetsHandler provides RESTful HTTP handlers for encoding presets.
//
// Supported operations:
//   - GET    /presets            → List all presets (built-ins first)
//   - POST   /presets            → Create a copy of the active preset
//   - GET    /presets/active     → Active preset
//   - PUT    /presets/active     → Select the active preset
//   - GET    /presets/{id}       → Retrieve a preset
//   - PATCH  /presets/{id}       → Modify video/audio settings
//   - PUT    /presets/{id}/name  → Rename a user preset
//   - GET    /presets/{id}/args  → Encoder arguments the preset produces
//   - DELETE /presets/{id}       → Remove a user preset
type PresetsHandler struct {
	log *zap.Logger
	svc *service.PresetService
}

func NewPresetsHandler(log *zap.Logger, svc *service.PresetService) *PresetsHandler {
	return &PresetsHandler{log: log.Named("presets"), svc: svc}
}

// GetPresetList handles GET /presets.
//
// Status Codes:
//   - 200 OK → JSON array of presets
func (h *PresetsHandler) GetPresetList(c *gin.Context) {
	list := h.svc.List()
	c.Header("X-Total-Count", strconv.Itoa(len(list))) // RA needs this
	c.JSON(http.StatusOK, list)
}

// CreatePreset handles POST /presets.
//
// Behavior:
//   - Copies the active preset as "<name> copy", or a default named
//     "new item N" when none is active.
//   - The new preset becomes active.
//
// Status Codes:
//   - 201 Created → JSON of created preset
//   - 500 Internal Server Error
func (h *PresetsHandler) CreatePreset(c *gin.Context) {
	p, err := h.svc.Create(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Location", "/api/presets/"+p.ID)
	c.JSON(http.StatusCreated, p)
}

// GetActivePreset handles GET /presets/active.
//
// Status Codes:
//   - 200 OK
//   - 404 Not Found → No preset is active
func (h *PresetsHandler) GetActivePreset(c *gin.Context) {
	p, ok := h.svc.Active()
	if !ok {
		fail(c, service.ErrPresetNotFound)
		return
	}
	c.JSON(http.StatusOK, p)
}

// SetActivePreset handles PUT /presets/active with {"id": "..."}.
// An empty id clears the selection.
//
// Status Codes:
//   - 204 No Content
//   - 400 Bad Request
//   - 404 Not Found
func (h *PresetsHandler) SetActivePreset(c *gin.Context) {
	var req struct {
		ID string `json:"id"`
	}
	if err := bind(c.Request, &req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.svc.SetActive(c.Request.Context(), req.ID); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetPreset handles GET /presets/{id}.
func (h *PresetsHandler) GetPreset(c *gin.Context) {
	p, err := h.svc.Get(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// ModifyPreset handles PATCH /presets/{id}.
//
// Behavior:
//   - Only provided fields are modified. Built-ins may be modified.
//   - The merged preset is validated before it is stored.
//
// Status Codes:
//   - 200 OK → JSON of the updated preset
//   - 400 Bad Request → Invalid payload
//   - 404 Not Found
//   - 422 Unprocessable Entity → Validation failed
//   - 500 Internal Server Error
func (h *PresetsHandler) ModifyPreset(c *gin.Context) {
	var patch preset.Patch
	if err := bind(c.Request, &patch); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.svc.Update(c.Request.Context(), c.Param("id"), &patch)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// RenamePreset handles PUT /presets/{id}/name with {"name": "..."}.
//
// Status Codes:
//   - 200 OK
//   - 403 Forbidden → Built-in preset
//   - 404 Not Found
//   - 422 Unprocessable Entity → Empty name
func (h *PresetsHandler) RenamePreset(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := bind(c.Request, &req); err != nil {
		badRequest(c, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		fail(c, errors.Join(service.ErrPresetInvalid, errors.New("name must not be empty")))
		return
	}
	p, err := h.svc.Rename(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GetPresetArgs handles GET /presets/{id}/args.
//
// Behavior:
//   - Returns the encoder arguments for the preset.
//   - Query `video=false` / `audio=false` drops a stream.
func (h *PresetsHandler) GetPresetArgs(c *gin.Context) {
	p, err := h.svc.Get(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	hasVideo := c.DefaultQuery("video", "true") != "false"
	hasAudio := c.DefaultQuery("audio", "true") != "false"

	args := ffmpegcmd.BuildArguments(p, hasVideo, hasAudio)
	c.JSON(http.StatusOK, gin.H{
		"args":    args,
		"command": ffmpegcmd.Quote("ffmpeg", args),
	})
}

// DeletePreset handles DELETE /presets/{id}.
//
// Status Codes:
//   - 204 No Content
//   - 403 Forbidden → Built-in preset
//   - 404 Not Found
func (h *PresetsHandler) DeletePreset(c *gin.Context) {
	if err := h.svc.Remove(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
