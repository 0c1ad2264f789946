package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"classecho-go/internal/config"
	"classecho-go/internal/credential"
	"classecho-go/internal/pipeline"
	"classecho-go/internal/stats"
	"classecho-go/internal/upstream"
	"classecho-go/internal/upstream/groq"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// wavHeader is enough of a RIFF/WAVE header for container detection.
var wavHeader = append([]byte("RIFF\x24\x00\x00\x00WAVEfmt \x10\x00\x00\x00\x01\x00\x01\x00"), make([]byte, 64)...)

type scriptedTranscriber struct {
	byToken map[string]upstream.Outcome[string]
}

func (s *scriptedTranscriber) Transcribe(_ context.Context, cred credential.Credential, _ groq.Audio) upstream.Outcome[string] {
	if out, ok := s.byToken[cred.Token]; ok {
		return out
	}
	return upstream.Success("today we cover photosynthesis")
}

type scriptedGenerator struct {
	byToken map[string]upstream.Outcome[json.RawMessage]
}

func (s *scriptedGenerator) Generate(_ context.Context, cred credential.Credential, req groq.GenerateRequest) upstream.Outcome[json.RawMessage] {
	if out, ok := s.byToken[cred.Token]; ok {
		return out
	}
	return upstream.Success(json.RawMessage(`{"title":"Photosynthesis","topics":[]}`))
}

type fixture struct {
	cfg    *config.Config
	cursor *credential.Cursor
	usage  *stats.Tracker
	router *gin.Engine
	tr     *scriptedTranscriber
	gen    *scriptedGenerator
}

func newFixture(t *testing.T, tokens ...string) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	creds := make([]credential.Credential, len(tokens))
	for i, tok := range tokens {
		creds[i] = credential.Credential{Token: tok, Source: "env"}
	}
	pool, err := credential.NewPool(creds)
	require.NoError(t, err)

	f := &fixture{
		cfg:    config.Defaults(),
		cursor: credential.NewCursor(pool),
		usage:  stats.NewTracker(nil),
		tr:     &scriptedTranscriber{byToken: map[string]upstream.Outcome[string]{}},
		gen:    &scriptedGenerator{byToken: map[string]upstream.Outcome[json.RawMessage]{}},
	}
	t.Cleanup(func() { _ = f.usage.Close(context.Background()) })
	orch := upstream.NewOrchestrator(f.cursor, upstream.Options{Recorder: f.usage})
	coord := pipeline.NewCoordinator(orch, f.tr, f.gen, pipeline.Options{})

	h := New(f.cfg, f.cursor, coord, f.usage)
	r := gin.New()
	r.GET("/", h.Home)
	r.GET("/api-status", h.Status)
	r.GET("/healthz", h.Health)
	r.POST("/generate_notes", h.GenerateNotes)
	r.POST("/generate_qa", h.GenerateQA)
	r.POST("/rotate-key", h.RotateKey)
	r.POST("/api-status/reset/:key", h.ResetUsage)
	f.router = r
	return f
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func uploadRequest(t *testing.T, path, field, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}
