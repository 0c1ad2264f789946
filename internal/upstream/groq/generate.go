package groq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"classecho-go/internal/credential"
	"classecho-go/internal/upstream"
	openai "github.com/sashabaranov/go-openai"
)

var ErrEmptyCompletion = errors.New("provider returned no choices")

// GenerateRequest is one structured-output chat completion.
type GenerateRequest struct {
	Model       string
	System      string
	Prompt      string
	Temperature float32
}

// Generate asks for a JSON object and returns it once extracted.
func (c *Client) Generate(ctx context.Context, cred credential.Credential, req GenerateRequest) upstream.Outcome[json.RawMessage] {
	model := req.Model
	if model == "" {
		model = c.cfg.GenerationModel
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	resp, err := c.api(cred).CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return classify[json.RawMessage](OpGeneration, err)
	}
	if len(resp.Choices) == 0 {
		return upstream.Fatal[json.RawMessage](fmt.Sprintf("%s error: %v", OpGeneration, ErrEmptyCompletion), ErrEmptyCompletion)
	}

	obj, err := ExtractJSON(resp.Choices[0].Message.Content)
	if err != nil {
		return upstream.Fatal[json.RawMessage](fmt.Sprintf("%s error: %v", OpGeneration, err), err)
	}
	return upstream.Success(obj)
}
