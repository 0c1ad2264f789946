package common

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"classecho-go/internal/credential"
	apperrors "classecho-go/internal/errors"
	"classecho-go/internal/upstream"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func multipartContext(t *testing.T, filename string, data []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("audio", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/generate_notes", &body)
	c.Request.Header.Set("Content-Type", mw.FormDataContentType())
	return c, w
}

func TestReadAudio(t *testing.T) {
	wav := append([]byte("RIFF\x24\x00\x00\x00WAVEfmt "), make([]byte, 32)...)

	t.Run("wav keeps name", func(t *testing.T) {
		c, _ := multipartContext(t, "week3/lecture.wav", wav)
		audio, apiErr := ReadAudio(c, 1<<20)
		require.Nil(t, apiErr)
		assert.Equal(t, "lecture.wav", audio.Filename)
		assert.Equal(t, "audio/wav", audio.ContentType)
		assert.Equal(t, wav, audio.Data)
		size, ok := c.Get("audio_size")
		assert.True(t, ok)
		assert.Equal(t, "48 B", size)
	})

	t.Run("missing extension gets detected one", func(t *testing.T) {
		c, _ := multipartContext(t, "recording", wav)
		audio, apiErr := ReadAudio(c, 1<<20)
		require.Nil(t, apiErr)
		assert.Equal(t, "recording.wav", audio.Filename)
	})

	t.Run("empty file", func(t *testing.T) {
		c, _ := multipartContext(t, "lecture.wav", nil)
		_, apiErr := ReadAudio(c, 1<<20)
		require.NotNil(t, apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.HTTPStatus)
	})

	t.Run("oversized", func(t *testing.T) {
		c, _ := multipartContext(t, "lecture.wav", wav)
		_, apiErr := ReadAudio(c, 8)
		require.NotNil(t, apiErr)
		assert.Equal(t, http.StatusRequestEntityTooLarge, apiErr.HTTPStatus)
		assert.Equal(t, int64(8), apiErr.Details["max_bytes"])
	})
}

func TestAbortWithError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("exhausted sets Retry-After", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		AbortWithError(c, credential.ErrSingleCredential)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "60", w.Header().Get("Retry-After"))
		assert.True(t, c.IsAborted())
		assert.Len(t, c.Errors, 1)
	})

	t.Run("remote failure", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		AbortWithError(c, &upstream.RemoteCallFailedError{Operation: "generation", CredentialIndex: 2, Detail: "bad model", Err: errors.New("400")})
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Empty(t, w.Header().Get("Retry-After"))
		assert.Equal(t, "bad model", gjson.GetBytes(w.Body.Bytes(), "error.message").String())
		assert.Equal(t, int64(3), gjson.GetBytes(w.Body.Bytes(), "error.details.credential_index").Int())
	})

	t.Run("nil error", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		AbortWithAPIError(c, nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("out of range status", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		AbortWithAPIError(c, apperrors.New(200, "odd", "server_error", "odd"))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
