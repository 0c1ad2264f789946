package management

import (
	"errors"
	"net/http"
	neturl "net/url"
	"strconv"
	"strings"

	"classecho-go/internal/handlers/common"
	"classecho-go/internal/logging"
	"github.com/gin-gonic/gin"
	ws "github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const defaultLogLimit = 100

// LogsHandler exposes the in-memory log stream to operators.
type LogsHandler struct {
	stream   *logging.Stream
	upgrader ws.Upgrader
}

// NewLogsHandler allows websocket upgrades from the same host and from
// allowedOrigins (full origins or bare hosts).
func NewLogsHandler(stream *logging.Stream, allowedOrigins []string) *LogsHandler {
	h := &LogsHandler{stream: stream}
	h.upgrader = ws.Upgrader{CheckOrigin: func(r *http.Request) bool {
		return originAllowed(r, allowedOrigins)
	}}
	return h
}

// Recent handles GET /logs?cursor=N&limit=M.
func (h *LogsHandler) Recent(c *gin.Context) {
	var cursor uint64
	if raw := strings.TrimSpace(c.Query("cursor")); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			common.BadRequest(c, "", "cursor must be a non-negative integer")
			return
		}
		cursor = v
	}
	limit := defaultLogLimit
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			common.BadRequest(c, "", "limit must be a positive integer")
			return
		}
		limit = v
	}

	lines, next, more := h.stream.Since(cursor, limit)
	c.JSON(http.StatusOK, gin.H{
		"logs":     lines,
		"cursor":   next,
		"has_more": more,
		"clients":  h.stream.ClientCount(),
	})
}

// Stream handles GET /logs/stream and blocks until the client leaves.
func (h *LogsHandler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		return
	}
	if err := h.stream.Serve(conn); err != nil {
		if errors.Is(err, logging.ErrMaxConnectionsReached) {
			log.Warn("log stream rejected: too many clients")
			return
		}
		log.WithError(err).Debug("log stream closed")
	}
}

func originAllowed(r *http.Request, allowed []string) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := neturl.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
		if au, err := neturl.Parse(a); err == nil && au.Host != "" {
			if strings.EqualFold(au.Host, u.Host) {
				return true
			}
		} else if strings.EqualFold(a, u.Host) {
			return true
		}
	}
	return false
}
