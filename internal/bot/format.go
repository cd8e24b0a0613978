package bot

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"what_bot/internal/model"
)

const (
	embedColor      = 0x7289da
	fieldChunkLen   = 1000
	maxEmbedFields  = 25
	maxEmbedChars   = 6000
	maxMessageLen   = 2000
	historyPreviewN = 200
)

// SummaryEmbeds renders channel summaries as Discord embeds. Member display
// names are wrapped in code spans, long summaries continue in extra fields,
// and fields spill into further embeds so that each stays within Discord's
// per-embed field and character limits.
func SummaryEmbeds(summaries []model.ChannelSummary, usernames []string, requester, iconURL string) []*discordgo.MessageEmbed {
	newEmbed := func(title string) *discordgo.MessageEmbed {
		return &discordgo.MessageEmbed{
			Title:       title,
			Description: "Here are the summaries of recent conversations in the specified channels:",
			Color:       embedColor,
			Footer: &discordgo.MessageEmbedFooter{
				Text:    "Requested by " + requester,
				IconURL: iconURL,
			},
		}
	}

	embed := newEmbed("Conversation Summaries")
	embeds := []*discordgo.MessageEmbed{embed}
	size := embedChars(embed)

	highlight := nameHighlighter(usernames)
	for _, s := range summaries {
		text := highlight.Replace(s.Text)
		for i, chunk := range chunkRunes(text, fieldChunkLen) {
			name := "#" + s.Channel
			if i > 0 {
				name += " (cont'd)"
			}
			field := &discordgo.MessageEmbedField{Name: name, Value: chunk}
			n := utf8.RuneCountInString(name) + utf8.RuneCountInString(chunk)

			if len(embed.Fields) > 0 && (len(embed.Fields) == maxEmbedFields || size+n > maxEmbedChars) {
				embed = newEmbed("Conversation Summaries (cont'd)")
				embeds = append(embeds, embed)
				size = embedChars(embed)
			}
			embed.Fields = append(embed.Fields, field)
			size += n
		}
	}
	return embeds
}

// embedChars counts the characters Discord charges against an embed's total.
func embedChars(e *discordgo.MessageEmbed) int {
	n := utf8.RuneCountInString(e.Title) + utf8.RuneCountInString(e.Description)
	if e.Footer != nil {
		n += utf8.RuneCountInString(e.Footer.Text)
	}
	for _, f := range e.Fields {
		n += utf8.RuneCountInString(f.Name) + utf8.RuneCountInString(f.Value)
	}
	return n
}

// nameHighlighter wraps every username in backticks, longest names first so
// that a name never matches inside a longer one.
func nameHighlighter(usernames []string) *strings.Replacer {
	names := slices.Clone(usernames)
	slices.SortFunc(names, func(a, b string) int {
		return cmp.Compare(len(b), len(a))
	})
	var pairs []string
	for _, n := range names {
		if n == "" {
			continue
		}
		pairs = append(pairs, n, "`"+n+"`")
	}
	return strings.NewReplacer(pairs...)
}

func chunkRunes(s string, size int) []string {
	runes := []rune(s)
	if len(runes) == 0 {
		return []string{""}
	}
	var out []string
	for i := 0; i < len(runes); i += size {
		out = append(out, string(runes[i:min(i+size, len(runes))]))
	}
	return out
}

// HelpEmbed describes the command syntax for the given trigger word.
func HelpEmbed(trigger string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "WHAT Help Menu",
		Description: fmt.Sprintf("Welcome to the What Help Menu! Use `%s` to generate summaries based on chat history.", trigger),
		Color:       embedColor,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:  fmt.Sprintf("Basic Command: `%s`", trigger),
				Value: fmt.Sprintf("`%s` generates a summary of recent conversations. You can filter by time, user or channel. Replying to a message with `%s` summarizes everything since that message in the current channel.", trigger, trigger),
			},
			{
				Name: "Time Filter",
				Value: "Specify a time range to filter the messages:\n" +
					"- `today`: messages from today.\n" +
					"- `[number] hours`: messages from the past hours (e.g. `3 hours`).\n" +
					"- `[number] days`: messages from the past days (e.g. `2 days`).\n" +
					"- `[number] weeks`: messages from the past weeks (e.g. `1 week`).",
			},
			{
				Name: "User Filter: `from [user1] [user2] ...`",
				Value: "Focus the summary on one or more users. Use `from` followed by display names separated by spaces:\n" +
					"- `from user1`: messages from `user1`.\n" +
					"- `from user1 user2`: messages from `user1` and `user2`.",
			},
			{
				Name:  fmt.Sprintf("Channel Filter: `%s today channel`", trigger),
				Value: "Add the `channel` keyword to only summarize the current channel.",
			},
			{
				Name: "Combining Filters",
				Value: fmt.Sprintf("Filters combine in the order time, users, channel:\n"+
					"- `%[1]s 3 days from user1 user2`\n"+
					"- `%[1]s today channel`\n"+
					"- `%[1]s 2 weeks from user3 channel`", trigger),
			},
			{
				Name:  "History: `!history`",
				Value: "Shows the most recent summaries requested in this channel.",
			},
			{
				Name:  "Help Command: `!help`",
				Value: "Displays this help menu.",
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Use the `%s` command to easily summarize chat activity!", trigger),
		},
	}
}

// FormatHistory lists stored summaries, newest first, with times shown in loc.
func FormatHistory(summaries []model.Summary, loc *time.Location, trigger string) string {
	if len(summaries) == 0 {
		return fmt.Sprintf("No summaries have been requested in this channel yet. Use `%s` to create one.", trigger)
	}
	var b strings.Builder
	b.WriteString("Recent summaries requested here:\n")
	for _, s := range summaries {
		fmt.Fprintf(&b, "\n%s #%s (by %s)\n%s\n",
			s.CreatedAt.In(loc).Format("2006-01-02 15:04 MST"), s.Channel, s.Requester, truncate(s.Text, historyPreviewN))
	}
	return b.String()
}

// truncate shortens s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
