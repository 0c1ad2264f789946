package errors

import (
	"context"
	stderrors "errors"
	"net/http"

	"classecho-go/internal/constants"
	"classecho-go/internal/credential"
	"classecho-go/internal/upstream"
)

// ExhaustedMessage is returned whenever no API key can serve a request.
const ExhaustedMessage = "All API keys exhausted. Please try again later."

// FromError maps service errors to the APIError returned to clients.
func FromError(err error) *APIError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}

	if upstream.IsExhausted(err) {
		out := New(http.StatusServiceUnavailable, CodeKeysExhausted, "service_unavailable", ExhaustedMessage).
			WithDetail("retry_after", int(constants.ExhaustedRetryAfter.Seconds()))
		var ex *upstream.AllCredentialsExhaustedError
		if stderrors.As(err, &ex) {
			out.WithDetail("operation", ex.Operation).
				WithDetail("attempts", ex.Attempts).
				WithDetail("credential_index", ex.CredentialIndex+1)
			if ex.Detail != "" {
				out.WithDetail("provider_detail", ex.Detail)
			}
		}
		return out
	}

	switch {
	case stderrors.Is(err, context.Canceled):
		return New(http.StatusRequestTimeout, CodeRequestCanceled, "timeout_error", "Request was canceled")
	case stderrors.Is(err, context.DeadlineExceeded):
		return New(http.StatusGatewayTimeout, CodeTimeout, "timeout_error", "Upstream request timed out")
	case stderrors.Is(err, credential.ErrNoCredentials):
		return New(http.StatusInternalServerError, CodeNotConfigured, "server_error", "No API keys configured")
	}

	var rf *upstream.RemoteCallFailedError
	if stderrors.As(err, &rf) {
		msg := rf.Detail
		if msg == "" {
			msg = "Upstream provider call failed"
		}
		return New(http.StatusBadGateway, CodeUpstreamError, "upstream_error", msg).
			WithDetail("operation", rf.Operation).
			WithDetail("credential_index", rf.CredentialIndex+1)
	}

	return New(http.StatusInternalServerError, CodeServerError, "server_error", err.Error())
}
