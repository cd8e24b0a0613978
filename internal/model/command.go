package model

import "time"

// Command is a summarization request as selected by the chat adapter.
// It is either a TimedCommand or a ReplyCommand.
type Command interface {
	command()
}

// TimedCommand carries a command that is expected to name a time window.
type TimedCommand struct {
	Text    string
	Channel string
	// ChannelScoped restricts the request to Channel.
	ChannelScoped bool
}

// ReplyCommand carries a command issued as a reply without a time window.
// The replied-to message's creation time becomes the lower bound.
type ReplyCommand struct {
	Text         string
	Channel      string
	ReferencedAt time.Time
}

func (TimedCommand) command() {}
func (ReplyCommand) command() {}
