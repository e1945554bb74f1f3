package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/edirooss/avcapture-server/internal/domain/feed"
	"github.com/edirooss/avcapture-server/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// probeTimeout bounds a single ffprobe run.
const probeTimeout = 10 * time.Second

// FeedsHandler provides RESTful HTTP handlers for IP camera feeds.
//
// Supported operations:
//   - GET    /feeds             → List all feeds
//   - POST   /feeds             → Create a feed
//   - GET    /feeds/{id}        → Retrieve a feed
//   - PATCH  /feeds/{id}        → Modify a feed (partial update)
//   - DELETE /feeds/{id}        → Remove a feed and stop its sessions
//   - POST   /feeds/{id}/probe  → Inspect the stream with ffprobe
//
// Notes:
//   - Passwords are write-only; responses carry `has_password` instead.
type FeedsHandler struct {
	log    *zap.Logger
	svc    *service.FeedService
	prober *service.Prober
}

func NewFeedsHandler(log *zap.Logger, svc *service.FeedService, prober *service.Prober) *FeedsHandler {
	return &FeedsHandler{log: log.Named("feeds"), svc: svc, prober: prober}
}

// GetFeedList handles GET /feeds.
//
// Status Codes:
//   - 200 OK → JSON array of feeds
func (h *FeedsHandler) GetFeedList(c *gin.Context) {
	list := h.svc.List()
	views := make([]feed.View, len(list))
	for i, f := range list {
		views[i] = feed.ToView(f)
	}
	c.Header("X-Total-Count", strconv.Itoa(len(views))) // RA needs this
	c.JSON(http.StatusOK, views)
}

// CreateFeed handles POST /feeds.
//
// Behavior:
//   - An empty body creates "IP Camera N" with no input, to be filled in
//     with PATCH.
//   - Responds with resource location in `Location` header.
//
// Status Codes:
//   - 201 Created → JSON of created feed
//   - 400 Bad Request → Invalid JSON
//   - 422 Unprocessable Entity → Validation failed
//   - 500 Internal Server Error
func (h *FeedsHandler) CreateFeed(c *gin.Context) {
	var patch *feed.Patch // stays nil without a body
	if err := bindOptional(c.Request, &patch); err != nil {
		badRequest(c, err)
		return
	}

	f, err := h.svc.Create(c.Request.Context(), patch)
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Location", "/api/feeds/"+f.ID)
	c.JSON(http.StatusCreated, feed.ToView(f))
}

// GetFeed handles GET /feeds/{id}.
//
// Status Codes:
//   - 200 OK
//   - 400 Bad Request → Invalid ID format
//   - 404 Not Found
func (h *FeedsHandler) GetFeed(c *gin.Context) {
	f, err := h.svc.Get(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, feed.ToView(f))
}

// ModifyFeed handles PATCH /feeds/{id}.
//
// Behavior:
//   - Only provided fields are modified; the feed keeps its position.
//   - Running sessions keep the settings they were started with.
//
// Status Codes:
//   - 200 OK → JSON of the updated feed
//   - 400 Bad Request
//   - 404 Not Found
//   - 422 Unprocessable Entity → Validation failed
//   - 500 Internal Server Error
func (h *FeedsHandler) ModifyFeed(c *gin.Context) {
	var patch feed.Patch
	if err := bind(c.Request, &patch); err != nil {
		badRequest(c, err)
		return
	}
	f, err := h.svc.Update(c.Request.Context(), c.Param("id"), &patch)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, feed.ToView(f))
}

// DeleteFeed handles DELETE /feeds/{id}.
//
// Status Codes:
//   - 204 No Content
//   - 404 Not Found
//   - 500 Internal Server Error
func (h *FeedsHandler) DeleteFeed(c *gin.Context) {
	if err := h.svc.Remove(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ProbeFeed handles POST /feeds/{id}/probe.
//
// Status Codes:
//   - 200 OK → Streams and container format
//   - 404 Not Found
//   - 422 Unprocessable Entity → Feed has no input
//   - 500 Internal Server Error → ffprobe failed
//   - 503 Service Unavailable → ffprobe not installed
//   - 504 Gateway Timeout
func (h *FeedsHandler) ProbeFeed(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), probeTimeout)
	defer cancel()

	res, err := h.prober.Probe(ctx, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
