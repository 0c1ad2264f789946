package errors

import (
	"encoding/json"
	"net/http"
)

func New(httpStatus int, code, errType, message string) *APIError {
	return &APIError{HTTPStatus: httpStatus, Code: code, Type: errType, Message: message}
}

func (e *APIError) WithDetails(details map[string]interface{}) *APIError {
	e.Details = details
	return e
}

// WithDetail sets a single detail key.
func (e *APIError) WithDetail(key string, value interface{}) *APIError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func (e *APIError) ToJSON() ([]byte, error) {
	var env Envelope
	env.Error.Message = e.Message
	env.Error.Type = e.Type
	env.Error.Code = e.Code
	if len(e.Details) > 0 {
		env.Error.Details = e.Details
	}
	return json.Marshal(env)
}

// IsRetryable reports whether the client may retry the same request later.
func (e *APIError) IsRetryable() bool {
	switch e.HTTPStatus {
	case http.StatusTooManyRequests,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		http.StatusRequestTimeout:
		return true
	}
	return e.Code == CodeKeysExhausted || e.Code == CodeTimeout
}

// GetRetryAfter returns the Retry-After hint in seconds.
func (e *APIError) GetRetryAfter() int {
	if e.Details != nil {
		if retryAfter, ok := e.Details["retry_after"].(int); ok {
			return retryAfter
		}
		if retryAfter, ok := e.Details["retry_after"].(float64); ok {
			return int(retryAfter)
		}
	}
	switch e.HTTPStatus {
	case http.StatusTooManyRequests:
		return 60
	case http.StatusServiceUnavailable:
		return 30
	case http.StatusGatewayTimeout:
		return 15
	default:
		return 5
	}
}
