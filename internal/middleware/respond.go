package middleware

import (
	"net/http"

	apperrors "classecho-go/internal/errors"
	"github.com/gin-gonic/gin"
)

func abortWithError(c *gin.Context, err *apperrors.APIError) {
	payload, marshalErr := err.ToJSON()
	if marshalErr != nil {
		c.AbortWithStatusJSON(err.HTTPStatus, gin.H{
			"error": gin.H{"message": err.Message, "type": err.Type, "code": err.Code},
		})
		return
	}
	c.Data(err.HTTPStatus, "application/json", payload)
	c.Abort()
}

func respondUnauthorized(c *gin.Context, message string) {
	abortWithError(c, apperrors.New(http.StatusUnauthorized, apperrors.CodeUnauthorized, "invalid_request_error", message))
}
