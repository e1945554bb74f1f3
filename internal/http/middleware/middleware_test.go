package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edirooss/avcapture-server/internal/metrics"
)

func init() { gin.SetMode(gin.TestMode) }

func serve(r *gin.Engine, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[http.CanonicalHeaderKey(k)] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	w := serve(r, http.MethodGet, "/x", nil)
	id := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, w.Body.String())

	w = serve(r, http.MethodGet, "/x", http.Header{RequestIDHeader: {"abc-123"}})
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))

	// oversized client IDs are replaced
	w = serve(r, http.MethodGet, "/x", http.Header{RequestIDHeader: {strings.Repeat("a", 65)}})
	assert.NotEqual(t, strings.Repeat("a", 65), w.Header().Get(RequestIDHeader))
}

func TestRequireValidFeedID(t *testing.T) {
	r := gin.New()
	r.GET("/feeds/:id", RequireValidFeedID(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodGet, "/feeds/"+uuid.NewString(), nil).Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodGet, "/feeds/42", nil).Code)
}

func TestLimitConcurrent(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})

	r := gin.New()
	r.GET("/slow", LimitConcurrent(1), func(c *gin.Context) {
		close(entered)
		<-release
		c.Status(http.StatusOK)
	})

	var wg sync.WaitGroup
	wg.Add(1)
	var first int
	go func() {
		defer wg.Done()
		first = serve(r, http.MethodGet, "/slow", nil).Code
	}()

	<-entered
	assert.Equal(t, http.StatusTooManyRequests, serve(r, http.MethodGet, "/slow", nil).Code)

	close(release)
	wg.Wait()
	assert.Equal(t, http.StatusOK, first)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry(), func() float64 { return 0 })

	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/feeds/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, http.MethodGet, "/feeds/a", nil)
	serve(r, http.MethodGet, "/feeds/b", nil)
	serve(r, http.MethodGet, "/nowhere", nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/feeds/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "unmatched", "404")))
}
