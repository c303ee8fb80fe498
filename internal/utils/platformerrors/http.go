package platformerrors

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// HTTPErrorResponse is the wire format for error responses.
type HTTPErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// WriteHTTPError writes a PlatformError as an HTTP response. External errors
// carry the upstream message in the details field for diagnostics.
func WriteHTTPError(c *gin.Context, err *PlatformError, log zerolog.Logger) {
	if err == nil {
		c.JSON(http.StatusInternalServerError, HTTPErrorResponse{Error: "unknown error"})
		return
	}

	status := ErrorTypeToHTTPStatus(err.Type)

	event := log.Warn()
	if status >= 500 {
		event = log.Error()
	}
	event.Err(err.Err).
		Str("layer", string(err.Layer)).
		Int("status", status).
		Msg(err.Message)

	response := HTTPErrorResponse{Error: err.Message}
	if err.Err != nil && (err.Type == ErrorTypeExternal || err.Type == ErrorTypeInternal) {
		response.Details = err.Err.Error()
	}

	c.AbortWithStatusJSON(status, response)
}

// WriteError writes any error as an HTTP response, classifying unknown
// errors as internal.
func WriteError(c *gin.Context, err error, log zerolog.Logger) {
	if platformErr := GetPlatformError(err); platformErr != nil {
		WriteHTTPError(c, platformErr, log)
		return
	}

	log.Error().Err(err).Msg("unclassified error")
	c.AbortWithStatusJSON(http.StatusInternalServerError, HTTPErrorResponse{
		Error:   "internal error",
		Details: err.Error(),
	})
}

// WriteValidationError writes a 400 Bad Request response.
func WriteValidationError(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, HTTPErrorResponse{Error: message})
}

// WriteUnauthorized writes a 401 Unauthorized response.
func WriteUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, HTTPErrorResponse{Error: message})
}
