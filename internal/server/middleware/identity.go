package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type contextKey string

const (
	RequestIDHeader = "X-Request-ID"

	ContextKeyRequestID contextKey = "request_id"
	ContextKeyAppName   contextKey = "app_name"
)

// Identity tags each request with an ID (taken from X-Request-ID when the
// caller sent one) and the caller's X-App-Name.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(string(ContextKeyRequestID), id)
		c.Header(RequestIDHeader, id)

		ctx := context.WithValue(c.Request.Context(), ContextKeyRequestID, id)
		if appName := c.GetHeader("X-App-Name"); appName != "" {
			ctx = context.WithValue(ctx, ContextKeyAppName, appName)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequestID returns the ID Identity assigned, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ContextKeyRequestID).(string)
	return id
}
