package server

import (
	"net/http"

	"classecho-go/internal/config"
	"classecho-go/internal/constants"
	"classecho-go/internal/credential"
	"classecho-go/internal/handlers/api"
	"classecho-go/internal/handlers/management"
	"classecho-go/internal/logging"
	mw "classecho-go/internal/middleware"
	"classecho-go/internal/stats"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Dependencies encapsulates runtime services required to build the HTTP engine.
type Dependencies struct {
	Cursor    *credential.Cursor
	Runner    api.Runner
	Usage     *stats.Tracker
	LogStream *logging.Stream
}

// BuildEngine constructs the gin engine serving the public API, the
// operator routes and /metrics.
func BuildEngine(cfg *config.Config, deps Dependencies) *gin.Engine {
	engine := gin.New()
	applyStandardEngineSettings(engine, cfg)

	root := engine.Group(cfg.Server.BasePath)
	h := api.New(cfg, deps.Cursor, deps.Runner, deps.Usage)

	root.GET("/", h.Home)
	root.GET("/api-status", h.Status)
	root.POST("/generate_notes", h.GenerateNotes)
	root.POST("/generate_qa", h.GenerateQA)
	root.GET("/healthz", h.Health)
	root.GET("/metrics", mw.MetricsHandler)

	registerManagementRoutes(root, cfg, h, deps.LogStream)
	return engine
}

// registerManagementRoutes mounts the operator endpoints. /rotate-key and
// the usage reset are always available (open when no management key is set);
// the log routes exist only behind a management key.
func registerManagementRoutes(root *gin.RouterGroup, cfg *config.Config, h *api.Handler, stream *logging.Stream) {
	var validate func(string) bool
	if cfg.ManagementEnabled() {
		validate = config.ManagementKeyValidator(cfg)
	} else {
		log.Warn("MANAGEMENT_KEY not set: /rotate-key and usage reset are unauthenticated and log routes are disabled")
	}

	root.POST("/rotate-key", mw.ManagementAuth(validate), h.RotateKey)
	root.POST("/api-status/reset/:key", mw.ManagementAuth(validate), h.ResetUsage)

	if validate == nil || stream == nil {
		return
	}
	logs := management.NewLogsHandler(stream, cfg.Security.CORSOrigins)
	g := root.Group("/logs", mw.ManagementAuth(validate), noCache)
	g.GET("", logs.Recent)
	g.GET("/stream", logs.Stream)
}

func noCache(c *gin.Context) {
	c.Header("Cache-Control", "no-store, no-cache, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Next()
}

// NewHTTPServer wraps engine with the listener timeouts.
func NewHTTPServer(cfg *config.Config, engine http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: constants.ServerReadHeaderTimeout,
	}
}
