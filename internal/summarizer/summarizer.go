// Package summarizer turns collected channel messages into per-channel
// summaries using a hosted language model.
package summarizer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"what_bot/internal/model"
)

// SystemPrompt instructs the model to answer with one summary per channel.
const SystemPrompt = `You are a conversational AI designed to summarize chat histories. You will be provided with chat messages from various channels, each organized by the channel name. Your task is to summarize the content of each channel separately. The summary should capture the main topics discussed, any important events, and the general tone of the conversation.

The output should be structured as a JSON object where the keys are the channel names and the values are the summaries of the conversations within those channels. Be concise but ensure that all significant details are included in each summary.`

// Generator sends a prompt to a language model and returns its raw text.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Summarizer builds prompts from collected messages and validates the
// model's JSON answer.
type Summarizer struct {
	gen Generator
	log *slog.Logger
}

// New creates a Summarizer backed by gen.
func New(gen Generator, log *slog.Logger) *Summarizer {
	return &Summarizer{gen: gen, log: log}
}

// Summarize returns one summary per collected channel, in collection order.
func (s *Summarizer) Summarize(ctx context.Context, msgs *model.CollectedMessages) ([]model.ChannelSummary, error) {
	raw, err := s.gen.Generate(ctx, SystemPrompt, BuildPrompt(msgs))
	if err != nil {
		return nil, fmt.Errorf("generate summary: %w", err)
	}
	if strings.TrimSpace(raw) == "" {
		return nil, model.Invalidf("Received empty or invalid response from the summarization service.")
	}

	summaries, err := CleanResponse(raw, msgs.Channels())
	if err != nil {
		s.log.Error("decode summary", "response", raw, "error", err)
		return nil, err
	}
	return summaries, nil
}

// BuildPrompt lists the expected JSON keys followed by each channel's lines.
func BuildPrompt(msgs *model.CollectedMessages) string {
	var b strings.Builder
	b.WriteString("Here are chat histories for each channel. Please summarize the conversations and provide the output as a JSON object with only the following channel names:\n\n")
	b.WriteString("{\n")
	for _, ch := range msgs.Channels() {
		fmt.Fprintf(&b, "    %q: \"Summary of the %s channel...\",\n", ch, ch)
	}
	b.WriteString("}\n\n")
	b.WriteString("Here are the chat histories for each channel:\n\n")
	for _, ch := range msgs.Channels() {
		fmt.Fprintf(&b, "# %s\n", ch)
		b.WriteString(strings.Join(msgs.Lines(ch), "\n"))
		b.WriteString("\n\n")
	}
	return b.String()
}

// CleanResponse strips Markdown fencing from raw, decodes the JSON object and
// keeps exactly the expected channels. Missing channels get an empty summary.
func CleanResponse(raw string, channels []string) ([]model.ChannelSummary, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "json")
	text = strings.TrimSpace(text)

	var decoded map[string]any
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		return nil, model.Invalidf("Failed to parse the JSON response from the API.")
	}

	out := make([]model.ChannelSummary, 0, len(channels))
	for _, ch := range channels {
		var summary string
		switch v := decoded[ch].(type) {
		case nil:
		case string:
			summary = v
		default:
			return nil, model.Invalidf("Failed to parse the JSON response from the API.")
		}
		out = append(out, model.ChannelSummary{Channel: ch, Text: summary})
	}
	return out, nil
}
