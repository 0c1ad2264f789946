package constants

import "time"

// HTTP client pool settings for the upstream provider.
const (
	BaseMaxIdleConns        = 256
	BaseMaxIdleConnsPerHost = 64
	BaseIdleConnTimeout     = 90 * time.Second
	DefaultKeepAlive        = 30 * time.Second
)

// HTTP timeouts for the upstream transport.
const (
	DefaultDialTimeout           = 10 * time.Second
	DefaultTLSHandshakeTimeout   = 10 * time.Second
	DefaultResponseHeaderTimeout = 90 * time.Second
	DefaultExpectContinueTimeout = 2 * time.Second
)
