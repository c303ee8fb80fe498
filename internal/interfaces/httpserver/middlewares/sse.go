package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PrepareSSE sets the headers for a server-sent event stream and
// returns the flusher used to push chunks as they arrive. The second
// return is false when the underlying writer cannot flush.
func PrepareSSE(c *gin.Context) (http.Flusher, bool) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("Transfer-Encoding", "chunked")
	c.Writer.WriteHeader(http.StatusOK)

	flusher, ok := c.Writer.(http.Flusher)
	return flusher, ok
}
