package constants

const (
	// DefaultMaxUploadBytes is the provider's documented ceiling for one recording.
	DefaultMaxUploadBytes int64 = 25 << 20
	// MultipartOverheadBytes is headroom for form boundaries and headers.
	MultipartOverheadBytes int64 = 1 << 20
	// UsageQueueSize bounds pending usage counter updates.
	UsageQueueSize = 1024
	// AudioFormField is the multipart field carrying the recording.
	AudioFormField = "audio"
)
