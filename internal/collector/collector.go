// Package collector reads channel history and filters it down to the
// messages a summarization request asked for.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"what_bot/internal/model"
)

// commandPrefixes mark messages that are bot commands rather than conversation.
var commandPrefixes = []string{"!", "/"}

// Source is the read side of the chat platform.
type Source interface {
	Channels(ctx context.Context, guildID string) ([]model.Channel, error)
	// History returns up to limit messages posted strictly after the given
	// instant, oldest first.
	History(ctx context.Context, channelID string, after time.Time, limit int) ([]model.ChatMessage, error)
}

// Bounder resolves the lower time bound of a request.
type Bounder interface {
	Bound(s model.Since) (time.Time, error)
}

// Collector gathers per-channel message lines for a FilterSpec.
type Collector struct {
	source Source
	bound  Bounder
	limit  int
	log    *slog.Logger
}

// New creates a Collector reading at most limit messages per channel.
func New(source Source, bound Bounder, limit int, log *slog.Logger) *Collector {
	return &Collector{
		source: source,
		bound:  bound,
		limit:  limit,
		log:    log,
	}
}

// Collect walks the text channels of a guild and returns the matching
// messages, grouped by channel name in scan order.
func (c *Collector) Collect(ctx context.Context, guildID string, spec model.FilterSpec) (*model.CollectedMessages, error) {
	after, err := c.bound.Bound(spec.Since)
	if err != nil {
		return nil, err
	}

	channels, err := c.source.Channels(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}

	out := model.NewCollectedMessages()
	for _, ch := range channels {
		if !ch.Text {
			continue
		}
		if spec.ChannelName != "" && ch.Name != spec.ChannelName {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		history, err := c.source.History(ctx, ch.ID, after, c.limit)
		if err != nil {
			return nil, fmt.Errorf("read history of #%s: %w", ch.Name, err)
		}

		lines := FilterMessages(history, spec, after)
		c.log.Debug("collected channel", "channel", ch.Name, "read", len(history), "kept", len(lines))
		out.Add(ch.Name, lines)
	}
	return out, nil
}

// FilterMessages keeps messages posted after the bound by one of the
// requested users that are not bot commands, formatted as display-name lines.
func FilterMessages(history []model.ChatMessage, spec model.FilterSpec, after time.Time) []string {
	var lines []string
	for _, msg := range history {
		if !msg.CreatedAt.After(after) {
			continue
		}
		if !spec.HasUser(msg.AuthorName) {
			continue
		}
		if IsCommand(msg.Content) {
			continue
		}
		lines = append(lines, model.FormatLine(msg.AuthorName, msg.Content))
	}
	return lines
}

// IsCommand reports whether content starts with a bot command prefix.
func IsCommand(content string) bool {
	for _, p := range commandPrefixes {
		if strings.HasPrefix(content, p) {
			return true
		}
	}
	return false
}
