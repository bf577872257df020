package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/schrebra/storeappx/internal/shared/id"
)

// HeaderRequestID carries the request identifier in both directions:
// callers may supply their own for correlation, and the server echoes
// the effective one back.
const HeaderRequestID = "X-Request-ID"

type requestIDKey struct{}

// RequestID tags every request with an identifier, minting one when the
// caller did not send its own.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderRequestID)
		if rid == "" {
			rid = id.NewRequest()
		}

		ctx := context.WithValue(c.Request.Context(), requestIDKey{}, rid)
		c.Request = c.Request.WithContext(ctx)
		c.Header(HeaderRequestID, rid)

		c.Next()
	}
}

// RequestIDFrom returns the identifier stored by RequestID, or "" when
// the context carries none.
func RequestIDFrom(ctx context.Context) string {
	rid, _ := ctx.Value(requestIDKey{}).(string)
	return rid
}
