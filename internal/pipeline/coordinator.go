package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"classecho-go/internal/credential"
	"classecho-go/internal/events"
	"classecho-go/internal/monitoring"
	"classecho-go/internal/prompts"
	"classecho-go/internal/upstream"
	"classecho-go/internal/upstream/groq"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/sjson"
)

// Kind selects the structured material produced from a transcript.
type Kind string

const (
	KindNotes     Kind = "notes"
	KindQuestions Kind = "qa"
)

var ErrUnknownKind = errors.New("unknown material kind")

// Transcriber is the transcription half of the remote adapter.
type Transcriber interface {
	Transcribe(ctx context.Context, cred credential.Credential, audio groq.Audio) upstream.Outcome[string]
}

// Generator is the structuring half of the remote adapter.
type Generator interface {
	Generate(ctx context.Context, cred credential.Credential, req groq.GenerateRequest) upstream.Outcome[json.RawMessage]
}

// Options tunes the structuring stage.
type Options struct {
	NotesTemperature     float32
	QuestionsTemperature float32
	QuestionCount        int
}

// Material is the result of one successful pipeline run.
type Material struct {
	Kind       Kind
	Transcript string
	// Payload is the provider's JSON object with _metadata added.
	Payload json.RawMessage
	// CredentialIndex and TotalCredentials are read from the cursor once
	// both stages have succeeded.
	CredentialIndex  int
	TotalCredentials int
	Attempts         int
}

// Coordinator runs transcription then structuring, each under the retry
// orchestrator. Either failure aborts the run with no partial output.
type Coordinator struct {
	orch        *upstream.Orchestrator
	transcriber Transcriber
	generator   Generator
	opts        Options
	publisher   events.Publisher
}

func NewCoordinator(orch *upstream.Orchestrator, t Transcriber, g Generator, opts Options) *Coordinator {
	return &Coordinator{orch: orch, transcriber: t, generator: g, opts: opts}
}

// SetEventPublisher wires the hub notified after every run.
func (c *Coordinator) SetEventPublisher(p events.Publisher) { c.publisher = p }

func (c *Coordinator) Run(ctx context.Context, audio groq.Audio, kind Kind) (*Material, error) {
	m, err := c.run(ctx, audio, kind)
	monitoring.RecordPipeline(string(kind), err)
	if c.publisher != nil {
		result := "success"
		if err != nil {
			result = "error"
		}
		c.publisher.Publish(ctx, events.TopicPipelineFinished, nil, map[string]string{
			"kind": string(kind), "result": result,
		})
	}
	return m, err
}

func (c *Coordinator) run(ctx context.Context, audio groq.Audio, kind Kind) (*Material, error) {
	if kind != KindNotes && kind != KindQuestions {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	transcript, err := upstream.Execute(ctx, c.orch, upstream.Operation[string]{
		Name: groq.OpTranscription,
		Call: func(ctx context.Context, cred credential.Credential) upstream.Outcome[string] {
			return c.transcriber.Transcribe(ctx, cred, audio)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("transcription stage: %w", err)
	}
	log.WithFields(log.Fields{"kind": kind, "chars": len(transcript.Value)}).Info("Transcription complete")

	req := c.request(kind, transcript.Value)
	structured, err := upstream.Execute(ctx, c.orch, upstream.Operation[json.RawMessage]{
		Name: groq.OpGeneration,
		Call: func(ctx context.Context, cred credential.Credential) upstream.Outcome[json.RawMessage] {
			return c.generator.Generate(ctx, cred, req)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s stage: %w", kind, err)
	}

	status := c.orch.Cursor().Snapshot()
	payload, err := WithMetadata(structured.Value, status)
	if err != nil {
		return nil, err
	}
	return &Material{
		Kind:             kind,
		Transcript:       transcript.Value,
		Payload:          payload,
		CredentialIndex:  status.Index,
		TotalCredentials: status.Total,
		Attempts:         transcript.Attempts + structured.Attempts,
	}, nil
}

func (c *Coordinator) request(kind Kind, transcript string) groq.GenerateRequest {
	if kind == KindQuestions {
		p := prompts.Questions(transcript, c.opts.QuestionCount)
		return groq.GenerateRequest{System: p.System, Prompt: p.User, Temperature: c.opts.QuestionsTemperature}
	}
	p := prompts.Notes(transcript)
	return groq.GenerateRequest{System: p.System, Prompt: p.User, Temperature: c.opts.NotesTemperature}
}

// WithMetadata sets _metadata on payload with the 1-based active key and
// the pool size.
func WithMetadata(payload json.RawMessage, status credential.Status) (json.RawMessage, error) {
	out, err := sjson.SetBytes(payload, "_metadata", map[string]int{
		"processed_with_key":   status.Index + 1,
		"total_keys_available": status.Total,
	})
	if err != nil {
		return nil, fmt.Errorf("attach metadata: %w", err)
	}
	return out, nil
}
