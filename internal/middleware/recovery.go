package middleware

import (
	"net/http"
	"runtime/debug"

	apperrors "classecho-go/internal/errors"
	"classecho-go/internal/logging"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Recovery 返回一个 panic 恢复中间件
func Recovery() gin.HandlerFunc {
	return RecoveryWithWriter(nil)
}

// RecoveryWithWriter 返回一个带自定义回调的 panic 恢复中间件
func RecoveryWithWriter(writer gin.RecoveryFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logging.WithReq(c, log.Fields{
					"error":      err,
					"stack":      string(debug.Stack()),
					"user_agent": c.Request.UserAgent(),
				}).Error("Panic recovered")

				if writer != nil {
					writer(c, err)
				}
				abortWithError(c, apperrors.New(http.StatusInternalServerError, "panic_recovered", "internal_error", "Internal server error"))
			}
		}()

		c.Next()
	}
}

// SafeGo 安全地启动 goroutine，带 panic 恢复
func SafeGo(name string, fn func()) {
	go func() {
		defer func() {
			if err := recover(); err != nil {
				log.WithFields(log.Fields{
					"goroutine": name,
					"error":     err,
					"stack":     string(debug.Stack()),
				}).Error("Goroutine panic recovered")
			}
		}()
		fn()
	}()
}
