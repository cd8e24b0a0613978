// Package model defines the domain types used across the application.
package model

import (
	"strings"
	"time"
)

// Member is a server member as seen by the bot.
type Member struct {
	ID          string
	DisplayName string
	Bot         bool
}

// HumanDisplayNames returns the display names of all non-bot members in roster order.
func HumanDisplayNames(members []Member) []string {
	var names []string
	for _, m := range members {
		if m.Bot {
			continue
		}
		names = append(names, m.DisplayName)
	}
	return names
}

// Channel is a server channel. Only text channels carry message history.
type Channel struct {
	ID   string
	Name string
	Text bool
}

// ChatMessage is a single message read from channel history.
type ChatMessage struct {
	ID         string
	AuthorName string
	Content    string
	CreatedAt  time.Time
}

// Since is the lower time bound of a request: either a relative token such as
// "today" or "3 hours", or an absolute instant taken from a replied-to message.
type Since struct {
	Relative string
	At       time.Time
}

// SinceRelative returns a Since holding a relative time token.
func SinceRelative(token string) Since {
	return Since{Relative: token}
}

// SinceAt returns a Since holding an absolute instant.
func SinceAt(t time.Time) Since {
	return Since{At: t}
}

// IsAbsolute reports whether s holds an already resolved instant.
func (s Since) IsAbsolute() bool {
	return s.Relative == "" && !s.At.IsZero()
}

func (s Since) String() string {
	if s.IsAbsolute() {
		return s.At.Format(time.RFC3339)
	}
	return s.Relative
}

// FilterSpec is the parsed intent of one summarization command.
type FilterSpec struct {
	Response string
	Users    []string
	// ChannelName restricts collection to one channel when non-empty.
	ChannelName string
	Since       Since
}

// HasUser reports whether name is one of the requested users. The comparison
// is exact because Users already holds roster display names.
func (f FilterSpec) HasUser(name string) bool {
	for _, u := range f.Users {
		if u == name {
			return true
		}
	}
	return false
}

// lineSep separates the author from the content in a formatted message line.
const lineSep = ": "

// FormatLine renders a message as "<displayName>: <content>".
func FormatLine(author, content string) string {
	return author + lineSep + content
}

// SplitLine splits a formatted line at the first separator. Display names
// containing ": " do not round-trip.
func SplitLine(line string) (author, content string, ok bool) {
	return strings.Cut(line, lineSep)
}

// CollectedMessages maps channel names to formatted lines, keeping the order
// in which channels were first added.
type CollectedMessages struct {
	order []string
	lines map[string][]string
}

// NewCollectedMessages returns an empty collection.
func NewCollectedMessages() *CollectedMessages {
	return &CollectedMessages{lines: make(map[string][]string)}
}

// Add appends lines for a channel. Text channels that share a name end up
// under one key, in scan order. Empty line slices are not stored.
func (c *CollectedMessages) Add(channel string, lines []string) {
	if len(lines) == 0 {
		return
	}
	if _, ok := c.lines[channel]; !ok {
		c.order = append(c.order, channel)
	}
	c.lines[channel] = append(c.lines[channel], lines...)
}

// Channels returns the channel names in insertion order.
func (c *CollectedMessages) Channels() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Lines returns the formatted lines collected for a channel.
func (c *CollectedMessages) Lines(channel string) []string {
	return c.lines[channel]
}

// Len returns the number of channels with at least one message.
func (c *CollectedMessages) Len() int {
	return len(c.order)
}

// ChannelSummary is the summary text produced for one channel.
type ChannelSummary struct {
	Channel string
	Text    string
}

// Summary is a stored record of one produced channel summary.
type Summary struct {
	ID               int64
	GuildID          string
	RequestChannelID string
	Channel          string
	Requester        string
	Request          string
	Text             string
	CreatedAt        time.Time
}
