package middleware

import (
	"time"

	"classecho-go/internal/logging"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// RequestLogger logs HTTP requests
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		extras := log.Fields{
			"status":        status,
			"latency_ms":    logging.DurationMS(time.Since(start)),
			"user_agent":    c.Request.UserAgent(),
			"client_source": clientSource(clientIP(c.Request)),
			"bytes_out":     c.Writer.Size(),
		}
		if v, ok := c.Get("audio_size"); ok {
			extras["audio_size"] = v
		}
		if v, ok := c.Get("credential_index"); ok {
			extras["key"] = v
		}
		entry := logging.WithReq(c, extras)
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}
		switch {
		case status >= 500:
			entry.Error("http_request")
		case status >= 400:
			entry.Warn("http_request")
		default:
			entry.Info("http_request")
		}
	}
}
