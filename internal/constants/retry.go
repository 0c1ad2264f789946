package constants

import "time"

const (
	// MaxNumberedCredentials caps the PREFIX1..PREFIXn scan of the environment.
	MaxNumberedCredentials = 1000

	// ExhaustedRetryAfter is advertised to callers when every credential is rate limited.
	ExhaustedRetryAfter = 60 * time.Second

	// MaxErrorMessageLength truncates provider error bodies carried in error details.
	MaxErrorMessageLength = 200
)
