package groq

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"classecho-go/internal/credential"
	"classecho-go/internal/upstream"
	openai "github.com/sashabaranov/go-openai"
)

var (
	ErrEmptyAudio      = errors.New("audio payload is empty")
	ErrEmptyTranscript = errors.New("provider returned an empty transcript")
)

// Audio is one uploaded recording.
type Audio struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Transcribe uploads audio with cred and returns the transcript text as
// the provider sent it.
func (c *Client) Transcribe(ctx context.Context, cred credential.Credential, audio Audio) upstream.Outcome[string] {
	if len(audio.Data) == 0 {
		return upstream.Fatal[string](ErrEmptyAudio.Error(), ErrEmptyAudio)
	}

	path, release, err := stage(c.fs, audio.Filename, audio.Data)
	if err != nil {
		return upstream.Fatal[string]("failed to stage audio", err)
	}
	defer release()

	f, err := c.fs.Open(path)
	if err != nil {
		return upstream.Fatal[string]("failed to open staged audio", err)
	}
	defer f.Close()

	resp, err := c.api(cred).CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.cfg.TranscriptionModel,
		FilePath: filepath.Base(path),
		Reader:   f,
		Language: c.cfg.Language,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return classify[string](OpTranscription, err)
	}
	if resp.Text == "" {
		return upstream.Fatal[string](fmt.Sprintf("%s error: %v", OpTranscription, ErrEmptyTranscript), ErrEmptyTranscript)
	}
	return upstream.Success(resp.Text)
}
