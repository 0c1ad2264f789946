package groq

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"classecho-go/internal/config"
	"classecho-go/internal/credential"
	"classecho-go/internal/upstream"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type fakeProvider struct {
	t  *testing.T
	fs afero.Fs

	transcribe func(w http.ResponseWriter, r *http.Request)
	chat       func(w http.ResponseWriter, body []byte)

	stagedDuringCall atomic.Int32
	lastToken        atomic.Value
}

func (p *fakeProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.lastToken.Store(r.Header.Get("Authorization"))
	switch r.URL.Path {
	case "/v1/audio/transcriptions":
		p.stagedDuringCall.Store(int32(countFiles(p.t, p.fs)))
		p.transcribe(w, r)
	case "/v1/chat/completions":
		body, err := io.ReadAll(r.Body)
		assert.NoError(p.t, err)
		p.chat(w, body)
	default:
		http.NotFound(w, r)
	}
}

func newFakeClient(t *testing.T, p *fakeProvider) *Client {
	t.Helper()
	p.t = t
	if p.fs == nil {
		p.fs = afero.NewMemMapFs()
	}
	srv := httptest.NewServer(p)
	t.Cleanup(srv.Close)

	cfg := config.Defaults().Upstream
	cfg.BaseURL = srv.URL + "/v1"
	return New(cfg, WithHTTPClient(srv.Client()), WithFs(p.fs))
}

func countFiles(t *testing.T, fs afero.Fs) int {
	n := 0
	err := afero.Walk(fs, "/", func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			n++
		}
		return nil
	})
	assert.NoError(t, err)
	return n
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"message": msg, "type": "requests", "code": code},
	})
}

func writeCompletion(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"model":  config.DefaultGenerationModel,
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
	})
}

var testCred = credential.Credential{Index: 0, Name: "GROQ_API_KEY", Token: "gsk_test_token_1"}

func TestTranscribeSuccessStagesAndReleases(t *testing.T) {
	p := &fakeProvider{}
	p.transcribe = func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, config.DefaultTranscriptionModel, r.FormValue("model"))
		assert.Equal(t, "en", r.FormValue("language"))
		file, hdr, err := r.FormFile("file")
		if assert.NoError(t, err) {
			defer file.Close()
			assert.Equal(t, ".mp3", filepath.Ext(hdr.Filename))
			data, _ := io.ReadAll(file)
			assert.Equal(t, "ID3-audio-bytes", string(data))
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "hello world"})
	}
	c := newFakeClient(t, p)

	out := c.Transcribe(context.Background(), testCred, Audio{Filename: "lecture.mp3", Data: []byte("ID3-audio-bytes")})

	require.Equal(t, upstream.OutcomeSuccess, out.Kind, out.Detail)
	require.Equal(t, "hello world", out.Value)
	require.Equal(t, "Bearer gsk_test_token_1", p.lastToken.Load())
	require.EqualValues(t, 1, p.stagedDuringCall.Load(), "audio is staged while the call is in flight")
	require.Zero(t, countFiles(t, p.fs), "staged audio is removed afterwards")
}

func TestTranscribeRateLimited(t *testing.T) {
	p := &fakeProvider{}
	p.transcribe = func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Rate limit reached for model")
	}
	c := newFakeClient(t, p)

	out := c.Transcribe(context.Background(), testCred, Audio{Filename: "a.wav", Data: []byte("RIFF")})

	require.Equal(t, upstream.OutcomeRateLimited, out.Kind)
	require.Contains(t, out.Detail, "429")
	require.Zero(t, countFiles(t, p.fs))
}

func TestTranscribeServerErrorIsFatal(t *testing.T) {
	p := &fakeProvider{}
	p.transcribe = func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream unavailable"))
	}
	c := newFakeClient(t, p)

	out := c.Transcribe(context.Background(), testCred, Audio{Filename: "a.ogg", Data: []byte("OggS")})

	require.Equal(t, upstream.OutcomeFatal, out.Kind)
	require.Error(t, out.Err)
	require.Zero(t, countFiles(t, p.fs))
}

func TestTranscribeCanceledContextReleasesFile(t *testing.T) {
	p := &fakeProvider{}
	p.transcribe = func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "late"})
	}
	c := newFakeClient(t, p)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := c.Transcribe(ctx, testCred, Audio{Filename: "a.flac", Data: []byte("fLaC")})

	require.Equal(t, upstream.OutcomeFatal, out.Kind)
	require.Zero(t, countFiles(t, p.fs))
}

func TestTranscribeEmptyAudio(t *testing.T) {
	c := New(config.Defaults().Upstream, WithFs(afero.NewMemMapFs()))
	out := c.Transcribe(context.Background(), testCred, Audio{Filename: "a.wav"})
	require.Equal(t, upstream.OutcomeFatal, out.Kind)
	require.ErrorIs(t, out.Err, ErrEmptyAudio)
}

func TestGenerateRequestsJSONObject(t *testing.T) {
	p := &fakeProvider{}
	p.chat = func(w http.ResponseWriter, body []byte) {
		assert.Equal(t, "json_object", gjson.GetBytes(body, "response_format.type").String())
		assert.Equal(t, config.DefaultGenerationModel, gjson.GetBytes(body, "model").String())
		assert.InDelta(t, 0.2, gjson.GetBytes(body, "temperature").Float(), 1e-6)
		assert.Equal(t, "system", gjson.GetBytes(body, "messages.0.role").String())
		assert.Equal(t, "transcript: hello world", gjson.GetBytes(body, "messages.1.content").String())
		writeCompletion(w, `{"title":"Lecture","key_points":["a"]}`)
	}
	c := newFakeClient(t, p)

	out := c.Generate(context.Background(), testCred, GenerateRequest{
		System: "You write notes.", Prompt: "transcript: hello world", Temperature: 0.2,
	})

	require.Equal(t, upstream.OutcomeSuccess, out.Kind, out.Detail)
	require.JSONEq(t, `{"title":"Lecture","key_points":["a"]}`, string(out.Value))
}

func TestGenerateRecoversWrappedJSON(t *testing.T) {
	p := &fakeProvider{}
	p.chat = func(w http.ResponseWriter, _ []byte) {
		writeCompletion(w, "Here are your notes:\n{\"title\":\"X\"}\nEnjoy!")
	}
	c := newFakeClient(t, p)

	out := c.Generate(context.Background(), testCred, GenerateRequest{Prompt: "p"})
	require.Equal(t, upstream.OutcomeSuccess, out.Kind)
	require.JSONEq(t, `{"title":"X"}`, string(out.Value))
}

func TestGenerateUnrecoverableOutputIsFatal(t *testing.T) {
	p := &fakeProvider{}
	p.chat = func(w http.ResponseWriter, _ []byte) {
		writeCompletion(w, "I cannot produce notes for this.")
	}
	c := newFakeClient(t, p)

	out := c.Generate(context.Background(), testCred, GenerateRequest{Prompt: "p"})
	require.Equal(t, upstream.OutcomeFatal, out.Kind)
	require.ErrorIs(t, out.Err, ErrNoJSONObject)
}

func TestGenerateRateLimitedByCode(t *testing.T) {
	p := &fakeProvider{}
	p.chat = func(w http.ResponseWriter, _ []byte) {
		writeError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "tokens per minute exceeded")
	}
	c := newFakeClient(t, p)

	out := c.Generate(context.Background(), testCred, GenerateRequest{Prompt: "p"})
	require.Equal(t, upstream.OutcomeRateLimited, out.Kind)
	require.Contains(t, out.Detail, "tokens per minute exceeded")
}

func TestGenerateAuthErrorIsFatal(t *testing.T) {
	p := &fakeProvider{}
	p.chat = func(w http.ResponseWriter, _ []byte) {
		writeError(w, http.StatusUnauthorized, "invalid_api_key", "Invalid API Key")
	}
	c := newFakeClient(t, p)

	out := c.Generate(context.Background(), testCred, GenerateRequest{Prompt: "p"})
	require.Equal(t, upstream.OutcomeFatal, out.Kind)
	require.Contains(t, out.Detail, "401")
}

func TestClientCachePerToken(t *testing.T) {
	c := New(config.Defaults().Upstream)
	a := c.api(credential.Credential{Token: "a"})
	require.Same(t, a, c.api(credential.Credential{Token: "a"}))
	require.NotSame(t, a, c.api(credential.Credential{Token: "b"}))
}
