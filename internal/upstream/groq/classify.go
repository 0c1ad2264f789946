package groq

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"classecho-go/internal/constants"
	"classecho-go/internal/upstream"
	openai "github.com/sashabaranov/go-openai"
	"github.com/tidwall/gjson"
)

const rateLimitCode = "rate_limit_exceeded"

// classify turns an SDK error into a rate-limited or fatal outcome.
// Only HTTP 429 or the provider's rate_limit_exceeded code rotate keys.
func classify[T any](op string, err error) upstream.Outcome[T] {
	status, code, msg := describe(err)
	detail := fmt.Sprintf("%s error: %s", op, msg)
	if status > 0 {
		detail = fmt.Sprintf("%s error (status %d): %s", op, status, msg)
	}
	if status == http.StatusTooManyRequests || strings.EqualFold(code, rateLimitCode) {
		return upstream.RateLimited[T](detail, err)
	}
	return upstream.Fatal[T](detail, err)
}

func describe(err error) (status int, code, msg string) {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code != nil {
			code = fmt.Sprint(apiErr.Code)
		}
		if code == "" {
			code = apiErr.Type
		}
		return apiErr.HTTPStatusCode, code, truncate(apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg = reqErr.Error()
		if len(reqErr.Body) > 0 {
			if m := gjson.GetBytes(reqErr.Body, "error.message"); m.Exists() {
				msg = m.String()
			}
			code = gjson.GetBytes(reqErr.Body, "error.code").String()
		}
		return reqErr.HTTPStatusCode, code, truncate(msg)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return 0, "", "timeout"
	case errors.Is(err, context.Canceled):
		return 0, "", "canceled"
	}
	return 0, "", truncate(err.Error())
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > constants.MaxErrorMessageLength {
		return s[:constants.MaxErrorMessageLength] + "..."
	}
	return s
}
