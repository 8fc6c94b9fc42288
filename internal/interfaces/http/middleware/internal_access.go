package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/custdash/backend/internal/domain/customer"
)

// InternalHeader marks a request as coming from a trusted internal caller.
// The value must be exactly "true"; anything else is treated as untrusted.
// Trust in this header is established upstream (reverse proxy or gateway),
// not by this service.
const InternalHeader = "X-Internal"

// visibilityKey is the gin context key holding the resolved visibility mode.
const visibilityKey = "visibility"

// InternalAccess resolves the caller's visibility mode from the
// X-Internal header and stores it in the request context. Missing or
// malformed headers always resolve to public.
func InternalAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		trusted := c.GetHeader(InternalHeader) == "true"
		c.Set(visibilityKey, customer.Classify(trusted))
		c.Next()
	}
}

// GetVisibility returns the visibility mode resolved for this request.
// Defaults to public when the middleware did not run.
func GetVisibility(c *gin.Context) customer.Visibility {
	if v, ok := c.Get(visibilityKey); ok {
		if mode, ok := v.(customer.Visibility); ok {
			return mode
		}
	}
	return customer.VisibilityPublic
}
