package handler

import (
	"net/http"

	"github.com/edirooss/avcapture-server/internal/events"
	mw "github.com/edirooss/avcapture-server/internal/http/middleware"
	"github.com/edirooss/avcapture-server/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxConcurrentProbes caps ffprobe runs started over HTTP.
const maxConcurrentProbes = 4

// Services is everything the API handlers drive.
type Services struct {
	Devices *service.DeviceRegistry
	Presets *service.PresetService
	Feeds   *service.FeedService
	Prober  *service.Prober
	Orch    *service.Orchestrator
	Hub     *events.Hub
}

// Mount registers every API route on api (normally the "/api" group).
func Mount(api gin.IRouter, log *zap.Logger, s Services) {
	api.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })

	// --- Devices & local preview ---
	{
		h := NewDevicesHandler(log, s.Devices, s.Orch)
		api.GET("/devices", h.GetDeviceList)
		api.POST("/devices/refresh", h.RefreshDevices)
		api.GET("/preview/local", h.GetLocalPreview)
		api.PUT("/preview/local", h.SelectLocalPreview)
		api.POST("/preview/local/restart", h.RestartLocalPreview)
	}

	// --- Presets ---
	{
		h := NewPresetsHandler(log, s.Presets)
		api.GET("/presets", h.GetPresetList)
		api.POST("/presets", h.CreatePreset)
		api.GET("/presets/active", h.GetActivePreset)
		api.PUT("/presets/active", h.SetActivePreset)
		api.GET("/presets/:id", h.GetPreset)
		api.PATCH("/presets/:id", h.ModifyPreset)
		api.PUT("/presets/:id/name", h.RenamePreset)
		api.GET("/presets/:id/args", h.GetPresetArgs)
		api.DELETE("/presets/:id", h.DeletePreset)
	}

	// --- Feeds ---
	requireValidID := mw.RequireValidFeedID()
	{
		h := NewFeedsHandler(log, s.Feeds, s.Prober)
		api.GET("/feeds", h.GetFeedList)
		api.POST("/feeds", h.CreateFeed)
		api.GET("/feeds/:id", requireValidID, h.GetFeed)
		api.PATCH("/feeds/:id", requireValidID, h.ModifyFeed)
		api.DELETE("/feeds/:id", requireValidID, h.DeleteFeed)
		api.POST("/feeds/:id/probe", requireValidID, mw.LimitConcurrent(maxConcurrentProbes), h.ProbeFeed)

		api.POST("/url/parse", (&URLParse{}).Parse)
	}

	// --- Sessions ---
	{
		h := NewSessionsHandler(log, s.Orch)
		api.GET("/sessions", h.GetSessionList)
		api.DELETE("/sessions", h.StopAll)
		api.POST("/sessions/local", h.StartLocalRecording)
		api.DELETE("/sessions/local", h.StopLocalRecording)
		api.GET("/sessions/:key", h.GetSession)
		api.GET("/sessions/:key/logs", h.GetSessionLogs)

		api.POST("/feeds/:id/preview", requireValidID, h.StartPreview)
		api.DELETE("/feeds/:id/preview", requireValidID, h.StopPreview)
		api.POST("/feeds/:id/recording", requireValidID, h.StartRecording)
		api.DELETE("/feeds/:id/recording", requireValidID, h.StopRecording)
		api.POST("/recordings", h.StartAllRecordings)
	}

	// --- Events ---
	api.GET("/events", NewEventsHandler(log, s.Hub).Stream)
}
