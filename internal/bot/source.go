package bot

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"

	"what_bot/internal/collector"
	"what_bot/internal/model"
)

var _ collector.Source = (*discordSource)(nil)

const (
	// discordEpochMs is the first millisecond of 2015, the snowflake epoch.
	discordEpochMs = 1420070400000
	membersPage    = 1000
	messagesPage   = 100
)

// discordSource reads guild data over the Discord REST API. History needs a
// roster to turn message authors into display names.
type discordSource struct {
	api   discordAPI
	names map[string]string
}

func newDiscordSource(api discordAPI) *discordSource {
	return &discordSource{api: api}
}

// withRoster returns a copy of s that names authors using roster.
func (s *discordSource) withRoster(roster []model.Member) *discordSource {
	names := make(map[string]string, len(roster))
	for _, m := range roster {
		names[m.ID] = m.DisplayName
	}
	return &discordSource{api: s.api, names: names}
}

// Members returns the full guild roster, paging through the member list.
func (s *discordSource) Members(ctx context.Context, guildID string) ([]model.Member, error) {
	var out []model.Member
	after := ""
	for {
		page, err := s.api.GuildMembers(guildID, after, membersPage, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("list members: %w", err)
		}
		for _, m := range page {
			if m.User == nil {
				continue
			}
			out = append(out, model.Member{
				ID:          m.User.ID,
				DisplayName: displayName(m, m.User),
				Bot:         m.User.Bot,
			})
			after = m.User.ID
		}
		if len(page) < membersPage {
			return out, nil
		}
	}
}

// Channels implements collector.Source.
func (s *discordSource) Channels(ctx context.Context, guildID string) ([]model.Channel, error) {
	channels, err := s.api.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	out := make([]model.Channel, 0, len(channels))
	for _, ch := range channels {
		out = append(out, model.Channel{
			ID:   ch.ID,
			Name: ch.Name,
			Text: ch.Type == discordgo.ChannelTypeGuildText || ch.Type == discordgo.ChannelTypeGuildNews,
		})
	}
	return out, nil
}

// History implements collector.Source, paging forward from the snowflake
// that corresponds to after.
func (s *discordSource) History(ctx context.Context, channelID string, after time.Time, limit int) ([]model.ChatMessage, error) {
	var out []model.ChatMessage
	afterID := snowflakeAt(after)
	for len(out) < limit {
		want := min(messagesPage, limit-len(out))
		page, err := s.api.ChannelMessages(channelID, want, "", afterID, "", discordgo.WithContext(ctx))
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}

		slices.SortFunc(page, func(a, b *discordgo.Message) int {
			return compareSnowflakes(a.ID, b.ID)
		})
		for _, m := range page {
			out = append(out, model.ChatMessage{
				ID:         m.ID,
				AuthorName: s.authorName(m.Author),
				Content:    m.Content,
				CreatedAt:  m.Timestamp,
			})
		}
		afterID = page[len(page)-1].ID

		if len(page) < want {
			break
		}
	}
	return out, nil
}

func (s *discordSource) authorName(u *discordgo.User) string {
	if u == nil {
		return ""
	}
	if name, ok := s.names[u.ID]; ok {
		return name
	}
	return displayName(nil, u)
}

// displayName mirrors Discord's precedence: server nickname, then global
// display name, then username.
func displayName(m *discordgo.Member, u *discordgo.User) string {
	if m != nil && m.Nick != "" {
		return m.Nick
	}
	if u == nil {
		return ""
	}
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

// snowflakeAt returns the smallest snowflake ID for the given instant.
func snowflakeAt(t time.Time) string {
	ms := t.UnixMilli() - discordEpochMs
	if ms <= 0 {
		return "0"
	}
	return strconv.FormatUint(uint64(ms)<<22, 10)
}

// compareSnowflakes orders decimal snowflake IDs numerically.
func compareSnowflakes(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
