package middleware

import (
	"math/big"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ignis-runtime/program-registry/api/rest/v1/schemas"
)

// ProgramHashKey is the context key holding the normalized program hash.
const ProgramHashKey = "program_hash"

var programHashPattern = regexp.MustCompile(`^0x[0-9a-f]{1,64}$`)

// HashValidator rejects requests whose program_hash query parameter is not a
// 0x-prefixed hex string and stores the canonical hash (lowercase, no leading
// zeros) in the context.
func HashValidator() gin.HandlerFunc {
	return func(c *gin.Context) {
		var query schemas.HashQuery
		if err := c.ShouldBindQuery(&query); err != nil {
			abortInvalidHash(c)
			return
		}

		hash, ok := NormalizeHash(query.ProgramHash)
		if !ok {
			abortInvalidHash(c)
			return
		}
		c.Set(ProgramHashKey, hash)
		c.Next()
	}
}

// NormalizeHash renders a 0x-prefixed hex program hash the way stored hashes
// are written. It reports false when s is not such a string.
func NormalizeHash(s string) (string, bool) {
	s = strings.ToLower(s)
	if !programHashPattern.MatchString(s) {
		return "", false
	}
	n, ok := new(big.Int).SetString(s[2:], 16)
	if !ok {
		return "", false
	}
	return "0x" + n.Text(16), true
}

func abortInvalidHash(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"code": http.StatusBadRequest,
		"err":  "invalid program hash format",
	})
}

// BodyLimit caps the request body at limit bytes.
func BodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

// RequestLogger logs one line per request.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			logger.Error("request", fields...)
		default:
			logger.Info("request", fields...)
		}
	}
}
