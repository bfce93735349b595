package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/martijn/hookcmd/internal/api/dto"
	"github.com/martijn/hookcmd/internal/core/service"
	"go.uber.org/zap"
)

const (
	AuthHeaderKey     = "Authorization"
	RawBodyContextKey = "rawBody"
)

// SignatureMiddleware verifies the HMAC request signature over the raw body
// bytes before any JSON parsing happens. Re-serialized bodies would break
// verification for clients whose serialization differs byte-for-byte, so the
// untouched bytes are captured here and handed to the handler via context.
// Failures respond 401; mismatch details are logged, never returned.
func SignatureMiddleware(signatureService *service.SignatureService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:   "Bad Request",
				Message: "Failed to read request body",
				Code:    http.StatusBadRequest,
			})
			c.Abort()
			return
		}

		result := signatureService.Verify(c.GetHeader(AuthHeaderKey), body)
		if !result.Valid {
			logger.Warn("rejected webhook request", zap.String("reason", result.Reason))
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error:   "Unauthorized",
				Message: "Invalid or missing HMAC signature",
				Code:    http.StatusUnauthorized,
			})
			c.Abort()
			return
		}

		c.Set(RawBodyContextKey, body)

		c.Next()
	}
}

// GetRawBody retrieves the verified raw request body from context
func GetRawBody(c *gin.Context) ([]byte, bool) {
	value, exists := c.Get(RawBodyContextKey)
	if !exists {
		return nil, false
	}

	body, ok := value.([]byte)
	return body, ok
}
