package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/edirooss/avcapture-server/internal/service"
	"github.com/gin-gonic/gin"
)

func bind(req *http.Request, obj any) error {
	if req == nil || req.Body == nil {
		return errors.New("invalid request")
	}
	return decodeJSON(req.Body, obj)
}

// bindOptional is bind for endpoints whose body may be omitted entirely.
func bindOptional(req *http.Request, obj any) error {
	if req == nil || req.Body == nil || req.ContentLength == 0 {
		return nil
	}
	if err := decodeJSON(req.Body, obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func decodeJSON(r io.Reader, obj any) error {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(obj); err != nil {
		return err
	}
	return nil
}

// statusOf maps service errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrFeedNotFound),
		errors.Is(err, service.ErrPresetNotFound):
		return http.StatusNotFound

	case errors.Is(err, service.ErrSessionActive),
		errors.Is(err, service.ErrPreviewNotOpen):
		return http.StatusConflict

	case errors.Is(err, service.ErrPresetProtected):
		return http.StatusForbidden

	case errors.Is(err, service.ErrFeedInvalid),
		errors.Is(err, service.ErrPresetInvalid),
		errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, service.ErrDeviceUnresolved),
		errors.Is(err, service.ErrOutputPathMissing):
		return http.StatusUnprocessableEntity

	case errors.Is(err, service.ErrSessionLimit):
		return http.StatusTooManyRequests

	case errors.Is(err, service.ErrLoopStopped),
		errors.Is(err, service.ErrExecutableMissing):
		return http.StatusServiceUnavailable

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// fail records err on the context and answers with its mapped status.
func fail(c *gin.Context, err error) {
	c.Error(err)
	c.JSON(statusOf(err), gin.H{"message": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.Error(err)
	c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
}
