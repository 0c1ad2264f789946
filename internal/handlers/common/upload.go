package common

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"classecho-go/internal/constants"
	apperrors "classecho-go/internal/errors"
	"classecho-go/internal/logging"
	"classecho-go/internal/upstream/groq"
	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// audio containers the transcription endpoint accepts
var allowedAudio = []string{
	"audio/flac",
	"audio/mpeg",
	"audio/mp4",
	"video/mp4",
	"audio/x-m4a",
	"video/mpeg",
	"audio/ogg",
	"application/ogg",
	"audio/wav",
	"video/webm",
}

// ReadAudio pulls the "audio" multipart file from the request, enforcing
// the upload ceiling and the accepted containers.
func ReadAudio(c *gin.Context, maxBytes int64) (groq.Audio, *apperrors.APIError) {
	if maxBytes <= 0 {
		maxBytes = constants.DefaultMaxUploadBytes
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+constants.MultipartOverheadBytes)

	fh, err := c.FormFile(constants.AudioFormField)
	if err != nil {
		if isTooLarge(err) {
			return groq.Audio{}, tooLarge(maxBytes)
		}
		return groq.Audio{}, apperrors.New(http.StatusBadRequest, apperrors.CodeMissingAudio, "invalid_request_error",
			fmt.Sprintf("multipart field %q with an audio file is required", constants.AudioFormField))
	}
	if fh.Size > maxBytes {
		return groq.Audio{}, tooLarge(maxBytes)
	}

	f, err := fh.Open()
	if err != nil {
		return groq.Audio{}, apperrors.New(http.StatusBadRequest, apperrors.CodeMissingAudio, "invalid_request_error", "failed to read uploaded audio")
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return groq.Audio{}, apperrors.New(http.StatusBadRequest, apperrors.CodeMissingAudio, "invalid_request_error", "failed to read uploaded audio")
	}
	if int64(len(data)) > maxBytes {
		return groq.Audio{}, tooLarge(maxBytes)
	}
	if len(data) == 0 {
		return groq.Audio{}, apperrors.New(http.StatusBadRequest, apperrors.CodeMissingAudio, "invalid_request_error", "uploaded audio is empty")
	}

	mt := mimetype.Detect(data)
	if !isAllowedAudio(mt) {
		return groq.Audio{}, apperrors.New(http.StatusUnsupportedMediaType, apperrors.CodeUnsupportedMedia, "invalid_request_error",
			fmt.Sprintf("unsupported audio type %s", mt.String())).
			WithDetail("allowed", allowedAudio)
	}

	name := filepath.Base(fh.Filename)
	if name == "." || name == string(filepath.Separator) {
		name = "audio"
	}
	if filepath.Ext(name) == "" {
		name += mt.Extension()
	}

	size := humanize.Bytes(uint64(len(data)))
	c.Set("audio_size", size)
	logging.WithReq(c, log.Fields{
		"filename": name,
		"mime":     mt.String(),
		"size":     size,
	}).Info("Processing audio file")

	return groq.Audio{Filename: name, ContentType: mt.String(), Data: data}, nil
}

func isAllowedAudio(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		for _, allowed := range allowedAudio {
			if m.Is(allowed) {
				return true
			}
		}
	}
	return false
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}

func tooLarge(maxBytes int64) *apperrors.APIError {
	return apperrors.New(http.StatusRequestEntityTooLarge, apperrors.CodePayloadTooLarge, "invalid_request_error",
		fmt.Sprintf("audio exceeds the %s upload limit", humanize.Bytes(uint64(maxBytes)))).
		WithDetail("max_bytes", maxBytes)
}
