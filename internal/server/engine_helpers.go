package server

import (
	"classecho-go/internal/config"
	mw "classecho-go/internal/middleware"
	"github.com/gin-gonic/gin"
)

// applyStandardEngineSettings applies common Gin settings and the
// middleware chain shared by every route.
func applyStandardEngineSettings(engine *gin.Engine, cfg *config.Config) {
	if !cfg.Security.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	_ = engine.SetTrustedProxies(nil)
	// uploads beyond this spill to temp files
	engine.MaxMultipartMemory = 32 << 20

	// Recovery sits inside the logger and metrics so panics are still counted.
	engine.Use(mw.RequestID(), mw.RequestLogger(), mw.Metrics(), mw.Recovery())
	engine.Use(mw.CORS(cfg.Security.CORSOrigins...))
	if cfg.RateLimit.Enabled {
		engine.Use(mw.RateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}
}
