package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	apperrors "finguy/internal/errors"
	"finguy/internal/logger"
)

// PipelineAuthMiddleware guards machine-to-machine endpoints with the
// X-API-Key header. Any of apiKeys is accepted so a key can be rotated
// without downtime; with no keys the endpoints are disabled.
func PipelineAuthMiddleware(apiKeys ...string) gin.HandlerFunc {
	keys := make([][]byte, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			keys = append(keys, []byte(k))
		}
	}

	return func(c *gin.Context) {
		if len(keys) == 0 {
			abortWithError(c, apperrors.ErrPipelineNotConfigured)
			return
		}
		if !matchesAny([]byte(c.GetHeader("X-API-Key")), keys) {
			logger.Get().Warnw("Rejected pipeline request",
				"path", c.Request.URL.Path,
				"client_ip", c.ClientIP())
			abortWithError(c, apperrors.ErrInvalidAPIKey)
			return
		}
		c.Next()
	}
}

// matchesAny compares against every key so timing does not reveal which
// one matched.
func matchesAny(given []byte, keys [][]byte) bool {
	match := 0
	for _, k := range keys {
		match |= subtle.ConstantTimeCompare(given, k)
	}
	return match == 1
}
