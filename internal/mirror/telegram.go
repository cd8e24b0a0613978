// Package mirror forwards produced summaries to a Telegram chat.
package mirror

import (
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"what_bot/internal/model"
)

// maxMessageLen is Telegram's limit on message text, in characters.
const maxMessageLen = 4096

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Digest is one summarization result to forward.
type Digest struct {
	Guild     string
	Requester string
	Request   string
	Summaries []model.ChannelSummary
}

// Telegram posts digests to a single Telegram chat.
type Telegram struct {
	api    telegramAPI
	chatID int64
	log    *slog.Logger
}

// NewTelegram creates a Telegram mirror with the given bot token.
func NewTelegram(token string, chatID int64, log *slog.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram api: %w", err)
	}
	return &Telegram{api: api, chatID: chatID, log: log}, nil
}

// Publish sends the digest, split into as many messages as needed.
// Failures are logged; the mirror never fails the originating request.
func (t *Telegram) Publish(d Digest) {
	for _, part := range Split(FormatDigest(d), maxMessageLen) {
		msg := tgbotapi.NewMessage(t.chatID, part)
		msg.DisableWebPagePreview = true
		if _, err := t.api.Send(msg); err != nil {
			t.log.Error("send telegram mirror", "chat_id", t.chatID, "error", err)
			return
		}
	}
}

// FormatDigest renders a digest as plain text.
func FormatDigest(d Digest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] summary requested by %s\n", d.Guild, d.Requester)
	if d.Request != "" {
		b.WriteString(d.Request)
		b.WriteString("\n")
	}
	for _, s := range d.Summaries {
		fmt.Fprintf(&b, "\n#%s\n%s\n", s.Channel, s.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Split cuts text into chunks of at most limit characters, preferring line
// breaks as cut points.
func Split(text string, limit int) []string {
	var parts []string
	runes := []rune(text)
	for len(runes) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		parts = append(parts, strings.TrimRight(string(runes[:cut]), "\n"))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}
