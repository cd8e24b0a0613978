package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"what_bot/internal/collector"
	"what_bot/internal/filter"
	"what_bot/internal/mirror"
	"what_bot/internal/model"
)

const historyCount = 5

func (b *Bot) handleHelp(ctx context.Context, m *discordgo.Message) {
	if err := b.sendEmbed(ctx, m.ChannelID, HelpEmbed(b.cfg.Trigger)); err != nil {
		b.log.Error("send help", "channel_id", m.ChannelID, "error", err)
	}
}

func (b *Bot) handleHistory(ctx context.Context, m *discordgo.Message) {
	summaries, err := b.store.ListSummaries(ctx, m.ChannelID, historyCount)
	if err != nil {
		b.log.Error("list summaries", "channel_id", m.ChannelID, "error", err)
		b.reply(m, "An error occurred: could not load summary history.")
		return
	}
	b.reply(m, FormatHistory(summaries, b.cfg.Location, b.cfg.Trigger))
}

func (b *Bot) handleWhat(ctx context.Context, m *discordgo.Message) {
	ctx, cancel := context.WithTimeout(ctx, b.cfg.RequestTimeout)
	defer cancel()

	if err := b.summarize(ctx, m); err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			b.reply(m, "An error occurred: "+verr.Msg)
			return
		}
		b.log.Error("summarize", "guild_id", m.GuildID, "channel_id", m.ChannelID, "error", err)
		b.reply(m, "An error occurred: could not complete the request, try again later.")
	}
}

func (b *Bot) summarize(ctx context.Context, m *discordgo.Message) error {
	src := newDiscordSource(b.api)

	roster, err := src.Members(ctx, m.GuildID)
	if err != nil {
		return err
	}

	channel, err := b.api.Channel(m.ChannelID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("get channel: %w", err)
	}

	cmd, err := b.command(ctx, m, channel.Name)
	if err != nil {
		return err
	}

	spec, err := b.parser.Parse(cmd, roster)
	if err != nil {
		return err
	}
	b.reply(m, spec.Response)

	coll := collector.New(src.withRoster(roster), b.resolver, b.cfg.HistoryLimit, b.log)
	msgs, err := coll.Collect(ctx, m.GuildID, spec)
	if err != nil {
		return err
	}
	if msgs.Len() == 0 {
		b.reply(m, "No messages found for that request.")
		return nil
	}

	summaries, err := b.summarizer.Summarize(ctx, msgs)
	if err != nil {
		return err
	}

	requester := displayName(m.Member, m.Author)
	// Nothing is recorded unless every embed was delivered.
	for _, embed := range SummaryEmbeds(summaries, model.HumanDisplayNames(roster), requester, m.Author.AvatarURL("")) {
		if err := b.sendEmbed(ctx, m.ChannelID, embed); err != nil {
			return fmt.Errorf("post summaries: %w", err)
		}
	}

	b.record(ctx, m, requester, spec, summaries)
	return nil
}

// command selects the parsing form: an explicit channel keyword wins, then a
// reply without a time window, then the plain timed form.
func (b *Bot) command(ctx context.Context, m *discordgo.Message, channelName string) (model.Command, error) {
	switch {
	case filter.WantsChannel(m.Content):
		return model.TimedCommand{Text: m.Content, Channel: channelName, ChannelScoped: true}, nil
	case m.MessageReference != nil && !b.parser.HasTimeToken(m.Content):
		at, err := b.referencedAt(ctx, m)
		if err != nil {
			return nil, err
		}
		return model.ReplyCommand{Text: m.Content, Channel: channelName, ReferencedAt: at}, nil
	default:
		return model.TimedCommand{Text: m.Content, Channel: channelName}, nil
	}
}

func (b *Bot) referencedAt(ctx context.Context, m *discordgo.Message) (time.Time, error) {
	if m.ReferencedMessage != nil {
		return m.ReferencedMessage.Timestamp, nil
	}
	ref := m.MessageReference
	channelID := ref.ChannelID
	if channelID == "" {
		channelID = m.ChannelID
	}
	target, err := b.api.ChannelMessage(channelID, ref.MessageID, discordgo.WithContext(ctx))
	if err != nil {
		return time.Time{}, fmt.Errorf("get referenced message: %w", err)
	}
	return target.Timestamp, nil
}

// record stores the summaries and forwards them to the mirror. Neither step
// affects the reply already sent.
func (b *Bot) record(ctx context.Context, m *discordgo.Message, requester string, spec model.FilterSpec, summaries []model.ChannelSummary) {
	rows := make([]model.Summary, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, model.Summary{
			GuildID:          m.GuildID,
			RequestChannelID: m.ChannelID,
			Channel:          s.Channel,
			Requester:        requester,
			Request:          spec.Response,
			Text:             s.Text,
		})
	}
	if err := b.store.SaveSummaries(ctx, rows); err != nil {
		b.log.Error("save summaries", "guild_id", m.GuildID, "error", err)
	}

	if b.mirror == nil {
		return
	}
	guildName := m.GuildID
	if g, err := b.api.Guild(m.GuildID, discordgo.WithContext(ctx)); err == nil {
		guildName = g.Name
	}
	b.mirror.Publish(mirror.Digest{
		Guild:     guildName,
		Requester: requester,
		Request:   spec.Response,
		Summaries: summaries,
	})
}
