package constants

import "time"

const (
	// UpstreamCallTimeout bounds a single transcription or generation call.
	UpstreamCallTimeout = 120 * time.Second
	// ServerShutdownTimeout bounds graceful HTTP server shutdown.
	ServerShutdownTimeout = 30 * time.Second
	// ServerReadHeaderTimeout protects the listener from slow clients.
	ServerReadHeaderTimeout = 10 * time.Second
	// StatsBackendTimeout bounds one batch of background usage writes.
	StatsBackendTimeout = 2 * time.Second
)
