package upstream

import (
	"errors"
	"fmt"

	"classecho-go/internal/credential"
)

// AllCredentialsExhaustedError is returned when every allowed attempt was
// rate limited. CredentialIndex is the zero-based index of the last attempt.
type AllCredentialsExhaustedError struct {
	Operation       string
	Attempts        int
	CredentialIndex int
	Detail          string
	Err             error
}

func (e *AllCredentialsExhaustedError) Error() string {
	msg := fmt.Sprintf("%s: all API keys exhausted after %d attempt(s), last key #%d",
		e.Operation, e.Attempts, e.CredentialIndex+1)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *AllCredentialsExhaustedError) Unwrap() error { return e.Err }

// RemoteCallFailedError is returned for the first non rate-limit failure.
type RemoteCallFailedError struct {
	Operation       string
	CredentialIndex int
	Detail          string
	Err             error
}

func (e *RemoteCallFailedError) Error() string {
	msg := fmt.Sprintf("%s failed with key #%d", e.Operation, e.CredentialIndex+1)
	if e.Detail != "" {
		msg += ": " + e.Detail
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RemoteCallFailedError) Unwrap() error { return e.Err }

// IsExhausted reports whether err means no credential can currently serve
// the request, either after a full rotation or because there is no backup.
func IsExhausted(err error) bool {
	var ex *AllCredentialsExhaustedError
	return errors.As(err, &ex) || errors.Is(err, credential.ErrSingleCredential)
}

// CredentialIndexOf extracts the zero-based credential index carried by
// orchestrator errors.
func CredentialIndexOf(err error) (int, bool) {
	var ex *AllCredentialsExhaustedError
	if errors.As(err, &ex) {
		return ex.CredentialIndex, true
	}
	var rf *RemoteCallFailedError
	if errors.As(err, &rf) {
		return rf.CredentialIndex, true
	}
	return 0, false
}
