package identity

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextKey is the gin context key under which the auth middleware stores an
// authenticated Identity.
const ContextKey = "identity"

const (
	headerForwardedFor = "X-Forwarded-For"
	headerRealIP       = "X-Real-Ip"

	// UnknownAddress is the fallback when no network address can be derived.
	UnknownAddress = "unknown"
)

// FromContext resolves the caller identity for a request. An authenticated
// identity placed in the context by the auth middleware wins; otherwise the
// caller is identified by network address. Resolution never fails.
func FromContext(c *gin.Context) Identity {
	if val, ok := c.Get(ContextKey); ok {
		if id, ok := val.(Identity); ok && id.IsAuthenticated() {
			return id
		}
	}
	return NewAnonymous(ClientAddress(c.Request.Header))
}

// ClientAddress derives the caller's network address from proxy headers:
// the first comma-separated value of X-Forwarded-For, then X-Real-Ip, then
// the unknown sentinel.
func ClientAddress(headers http.Header) string {
	if forwarded := headers.Get(headerForwardedFor); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if realIP := headers.Get(headerRealIP); realIP != "" {
		return realIP
	}
	return UnknownAddress
}
