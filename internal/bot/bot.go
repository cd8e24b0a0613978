package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"what_bot/internal/config"
	"what_bot/internal/filter"
	"what_bot/internal/mirror"
	"what_bot/internal/model"
	"what_bot/internal/since"
	"what_bot/internal/storage"
)

const (
	cmdHelp    = "!help"
	cmdHistory = "!history"
)

type discordAPI interface {
	ChannelMessageSendReply(channelID, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error)
	GuildMembers(guildID string, after string, limit int, options ...discordgo.RequestOption) ([]*discordgo.Member, error)
	Guild(guildID string, options ...discordgo.RequestOption) (*discordgo.Guild, error)
}

// Summarizer produces one summary per collected channel.
type Summarizer interface {
	Summarize(ctx context.Context, msgs *model.CollectedMessages) ([]model.ChannelSummary, error)
}

// Publisher forwards finished summaries elsewhere.
type Publisher interface {
	Publish(d mirror.Digest)
}

// Bot is the Discord bot that answers summarization commands.
type Bot struct {
	session    *discordgo.Session
	api        discordAPI
	parser     *filter.Parser
	resolver   *since.Resolver
	summarizer Summarizer
	store      storage.Storage
	mirror     Publisher
	cfg        *config.Config
	log        *slog.Logger
}

// New creates a Bot with the given Discord token, summarizer, storage and
// config. pub may be nil.
func New(cfg *config.Config, sum Summarizer, store storage.Storage, pub Publisher, log *slog.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsMessageContent

	return &Bot{
		session:    session,
		api:        session,
		parser:     filter.NewParser(cfg.Trigger),
		resolver:   since.New(cfg.Location),
		summarizer: sum,
		store:      store,
		mirror:     pub,
		cfg:        cfg,
		log:        log,
	}, nil
}

// Run connects to the gateway and handles messages until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		b.log.Info("connected", "user", r.User.Username, "user_id", r.User.ID, "guilds", len(r.Guilds))
	})
	b.session.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		b.handleMessage(ctx, m.Message)
	})

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}

	<-ctx.Done()
	return b.session.Close()
}

func (b *Bot) handleMessage(ctx context.Context, m *discordgo.Message) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}

	content := strings.TrimSpace(m.Content)
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return
	}

	switch strings.ToLower(fields[0]) {
	case cmdHelp:
		b.handleHelp(ctx, m)
		return
	case cmdHistory:
		b.handleHistory(ctx, m)
		return
	}

	if b.parser.IsCommand(content) {
		b.log.Debug("command", "content", content, "guild_id", m.GuildID, "channel_id", m.ChannelID, "author", m.Author.Username)
		b.handleWhat(ctx, m)
	}
}

func (b *Bot) reply(m *discordgo.Message, text string) {
	if _, err := b.api.ChannelMessageSendReply(m.ChannelID, truncate(text, maxMessageLen), m.Reference()); err != nil {
		b.log.Error("send reply", "channel_id", m.ChannelID, "error", err)
	}
}

func (b *Bot) sendEmbed(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) error {
	if _, err := b.api.ChannelMessageSendEmbed(channelID, embed, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send embed: %w", err)
	}
	return nil
}
