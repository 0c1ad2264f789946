package errors

import "fmt"

// APIError is the error shape returned to HTTP clients.
type APIError struct {
	HTTPStatus int
	Code       string
	Message    string
	Type       string
	Details    map[string]interface{}
}

// Envelope mirrors the OpenAI-style error body.
type Envelope struct {
	Error struct {
		Message string                 `json:"message"`
		Type    string                 `json:"type"`
		Code    string                 `json:"code,omitempty"`
		Details map[string]interface{} `json:"details,omitempty"`
	} `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.HTTPStatus, e.Code, e.Message)
}

// Error codes surfaced by the service.
const (
	CodeInvalidRequest   = "invalid_request_error"
	CodeMissingAudio     = "missing_audio"
	CodePayloadTooLarge  = "payload_too_large"
	CodeUnsupportedMedia = "unsupported_media_type"
	CodeKeysExhausted    = "all_keys_exhausted"
	CodeUpstreamError    = "upstream_error"
	CodeUnauthorized     = "unauthorized"
	CodeRateLimited      = "rate_limit_exceeded"
	CodeTimeout          = "timeout"
	CodeRequestCanceled  = "request_canceled"
	CodeServerError      = "server_error"
	CodeNotConfigured    = "not_configured"
)
