package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"classecho-go/internal/config"
	"classecho-go/internal/credential"
	apperrors "classecho-go/internal/errors"
	"classecho-go/internal/handlers/common"
	"classecho-go/internal/logging"
	"classecho-go/internal/pipeline"
	"classecho-go/internal/stats"
	"classecho-go/internal/upstream"
	"classecho-go/internal/upstream/groq"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Runner produces study material from one recording.
type Runner interface {
	Run(ctx context.Context, audio groq.Audio, kind pipeline.Kind) (*pipeline.Material, error)
}

// Handler serves the public lecture endpoints.
type Handler struct {
	cfg       *config.Config
	cursor    *credential.Cursor
	runner    Runner
	usage     *stats.Tracker
	startTime time.Time
}

func New(cfg *config.Config, cursor *credential.Cursor, runner Runner, usage *stats.Tracker) *Handler {
	return &Handler{cfg: cfg, cursor: cursor, runner: runner, usage: usage, startTime: time.Now()}
}

// Home 返回欢迎信息和当前 key 位置
func (h *Handler) Home(c *gin.Context) {
	st := h.cursor.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"message":        "Welcome to ClassEcho API",
		"available_keys": st.Total,
		"current_key":    st.Index + 1,
	})
}

// Status reports the cursor position and per-key usage.
func (h *Handler) Status(c *gin.Context) {
	st := h.cursor.Snapshot()
	resp := gin.H{
		"total_keys":        st.Total,
		"current_key_index": st.Index + 1,
		"keys_remaining":    st.Total - st.Index,
		"uptime_sec":        int64(time.Since(h.startTime).Seconds()),
	}
	if h.usage != nil {
		usage, err := h.usage.Usage(c.Request.Context(), h.cursor.Pool())
		if err != nil {
			logging.WithReq(c, nil).WithError(err).Warn("usage stats unavailable")
			resp["usage_error"] = "usage stats unavailable"
		} else {
			resp["usage"] = usage
		}
	}
	c.JSON(http.StatusOK, resp)
}

// GenerateNotes handles POST /generate_notes.
func (h *Handler) GenerateNotes(c *gin.Context) { h.generate(c, pipeline.KindNotes) }

// GenerateQA handles POST /generate_qa.
func (h *Handler) GenerateQA(c *gin.Context) { h.generate(c, pipeline.KindQuestions) }

func (h *Handler) generate(c *gin.Context, kind pipeline.Kind) {
	audio, apiErr := common.ReadAudio(c, h.cfg.Limits.MaxUploadBytes)
	if apiErr != nil {
		common.AbortWithAPIError(c, apiErr)
		return
	}

	material, err := h.runner.Run(c.Request.Context(), audio, kind)
	if err != nil {
		fields := log.Fields{"kind": kind}
		if idx, ok := upstream.CredentialIndexOf(err); ok {
			fields["key"] = idx + 1
		}
		logging.WithReq(c, fields).WithError(err).Error("pipeline failed")
		common.AbortWithError(c, err)
		return
	}

	c.Set("credential_index", material.CredentialIndex+1)
	logging.WithReq(c, log.Fields{
		"kind":       kind,
		"key":        material.CredentialIndex + 1,
		"attempts":   material.Attempts,
		"transcript": len(material.Transcript),
	}).Info("Material generated")
	c.Data(http.StatusOK, "application/json", material.Payload)
}

// RotateKey advances the cursor by hand. A single-key pool answers 503.
func (h *Handler) RotateKey(c *gin.Context) {
	if _, err := h.cursor.Advance(c.Request.Context(), "manual"); err != nil {
		common.AbortWithError(c, err)
		return
	}
	st := h.cursor.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"message":     "Key rotated successfully",
		"current_key": st.Index + 1,
		"total_keys":  st.Total,
	})
}

// ResetUsage clears the usage counters of the 1-based :key and returns the
// values they held.
func (h *Handler) ResetUsage(c *gin.Context) {
	total := h.cursor.Pool().Len()
	raw := c.Param("key")
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > total {
		common.AbortWithAPIError(c, apperrors.New(http.StatusBadRequest, apperrors.CodeInvalidRequest,
			"invalid_request_error", "key must be a key number from /api-status").
			WithDetails(map[string]interface{}{"key": raw, "total_keys": total}))
		return
	}
	if h.usage == nil {
		common.AbortWithAPIError(c, apperrors.New(http.StatusNotFound, apperrors.CodeNotConfigured,
			"invalid_request_error", "usage stats are disabled"))
		return
	}

	prev, err := h.usage.Reset(c.Request.Context(), n-1)
	if err != nil {
		logging.WithReq(c, log.Fields{"key": n}).WithError(err).Warn("usage reset failed")
		common.AbortWithError(c, err)
		return
	}
	logging.WithReq(c, log.Fields{"key": n}).Info("Usage counters reset")
	c.JSON(http.StatusOK, gin.H{
		"message":  "Usage reset successfully",
		"key":      n,
		"previous": prev,
	})
}

// Health is the liveness probe. The usage backend is reported but never
// fails the probe.
func (h *Handler) Health(c *gin.Context) {
	resp := gin.H{"status": "ok", "keys": h.cursor.Snapshot().Total}
	if h.usage != nil {
		if err := h.usage.Backend().Health(c.Request.Context()); err != nil {
			resp["usage_backend"] = gin.H{"status": "unhealthy", "error": err.Error()}
		} else {
			resp["usage_backend"] = gin.H{"status": "healthy"}
		}
	}
	c.JSON(http.StatusOK, resp)
}
