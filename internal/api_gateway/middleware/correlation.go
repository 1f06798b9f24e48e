package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// CorrelationIDHeader is the HTTP header carrying the correlation ID
	CorrelationIDHeader = "X-Correlation-ID"

	// CorrelationIDKey stores the correlation ID in the gin context
	CorrelationIDKey = "correlation_id"
)

// CorrelationID tags every request with an identifier so a posting can be
// traced from the API response through the engine's commit log lines. A
// caller-supplied ID is kept; otherwise one is generated.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader(CorrelationIDHeader)
		if correlationID == "" {
			correlationID = uuid.New().String()
		}

		c.Header(CorrelationIDHeader, correlationID)
		c.Set(CorrelationIDKey, correlationID)

		c.Next()
	}
}

// GetCorrelationID returns the request's correlation ID, or "" when the
// middleware did not run
func GetCorrelationID(c *gin.Context) string {
	if id, exists := c.Get(CorrelationIDKey); exists {
		if correlationID, ok := id.(string); ok {
			return correlationID
		}
	}
	return ""
}
