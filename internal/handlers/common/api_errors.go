package common

import (
	"net/http"
	"strconv"
	"strings"

	apperrors "classecho-go/internal/errors"
	"github.com/gin-gonic/gin"
)

// AbortWithAPIError serializes the provided APIError and aborts the request.
// Retryable errors carry a Retry-After header.
func AbortWithAPIError(c *gin.Context, err *apperrors.APIError) {
	if err == nil {
		err = apperrors.New(http.StatusInternalServerError, apperrors.CodeServerError, "server_error", "unknown error")
	}
	status := safeStatus(err.HTTPStatus)
	if err.IsRetryable() {
		c.Header("Retry-After", strconv.Itoa(err.GetRetryAfter()))
	}

	payload, marshalErr := err.ToJSON()
	if marshalErr != nil {
		c.JSON(status, gin.H{
			"error": gin.H{
				"message": err.Message,
				"type":    err.Type,
				"code":    err.Code,
			},
		})
		c.Abort()
		return
	}

	c.Data(status, "application/json", payload)
	c.Abort()
}

// AbortWithError maps err to its client-facing APIError and aborts.
func AbortWithError(c *gin.Context, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	AbortWithAPIError(c, apperrors.FromError(err))
}

// BadRequest aborts with a 400 carrying code and message.
func BadRequest(c *gin.Context, code, message string) {
	AbortWithAPIError(c, apperrors.New(http.StatusBadRequest, normalizeCode(code), "invalid_request_error", message))
}

func normalizeCode(code string) string {
	if strings.TrimSpace(code) == "" {
		return apperrors.CodeInvalidRequest
	}
	return code
}

func safeStatus(status int) int {
	if status >= 400 && status <= 599 {
		return status
	}
	return http.StatusInternalServerError
}
