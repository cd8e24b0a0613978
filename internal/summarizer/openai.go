package summarizer

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI generates text with any OpenAI-compatible chat completion endpoint.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates an OpenAI generator. An empty baseURL uses the public API.
func NewOpenAI(apiKey, model, baseURL string) *OpenAI {
	if model == "" {
		model = openai.GPT4oMini
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &OpenAI{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// Generate sends system and prompt as a two-message chat and returns the reply.
func (o *OpenAI) Generate(ctx context.Context, system, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.3,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
