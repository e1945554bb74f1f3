package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edirooss/avcapture-server/internal/service"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%q: %w", "x", service.ErrFeedNotFound), http.StatusNotFound},
		{service.ErrPresetNotFound, http.StatusNotFound},
		{fmt.Errorf("local recording: %w", service.ErrSessionActive), http.StatusConflict},
		{service.ErrPreviewNotOpen, http.StatusConflict},
		{service.ErrPresetProtected, http.StatusForbidden},
		{service.ErrDeviceUnresolved, http.StatusUnprocessableEntity},
		{service.ErrOutputPathMissing, http.StatusUnprocessableEntity},
		{service.ErrSessionLimit, http.StatusTooManyRequests},
		{service.ErrExecutableMissing, http.StatusServiceUnavailable},
		{service.ErrLoopStopped, http.StatusServiceUnavailable},
		{fmt.Errorf("probe: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{service.ErrSpawn, http.StatusInternalServerError},
		{errors.New("save presets: redis down"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, statusOf(c.err), c.err.Error())
	}
}
