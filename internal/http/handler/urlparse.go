package handler

import (
	"net/http"

	"github.com/edirooss/avcapture-server/pkg/avurl"
	"github.com/gin-gonic/gin"
)

type URLParse struct{}

// Parse handles POST /url/parse. The UI uses it to check a camera URL
// before saving the feed.
//
// Status Codes:
//   - 200 OK → URL components
//   - 400 Bad Request
//   - 422 Unprocessable Entity → URL rejected
func (h *URLParse) Parse(c *gin.Context) {
	var req struct {
		URL string `json:"url"`
	}
	if err := bind(c.Request, &req); err != nil {
		badRequest(c, err)
		return
	}
	url, err := avurl.Parse(req.URL)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url, "redacted": avurl.Redact(req.URL)})
}
