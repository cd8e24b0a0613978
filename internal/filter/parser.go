// Package filter turns summarization commands into model.FilterSpec values.
package filter

import (
	"fmt"
	"regexp"
	"strings"

	"what_bot/internal/model"
)

const (
	errDidNotCatch = "Did not catch that, ask again"
	everyone       = "everyone"
	channelKeyword = "channel"
)

var (
	timeTokenRe = regexp.MustCompile(`(?i)\b(today|\d+\s*hours?|\d+\s*days?|\d+\s*weeks?)\b`)
	fromRe      = regexp.MustCompile(`(?i)\bfrom\b`)
	nameRe      = regexp.MustCompile(`^[a-zA-Z0-9+\-_]+$`)
)

// Parser turns command text into a model.FilterSpec.
type Parser struct {
	trigger   string
	triggerRe *regexp.Regexp
}

// NewParser creates a Parser for commands starting with trigger, e.g. "!what".
func NewParser(trigger string) *Parser {
	return &Parser{
		trigger:   trigger,
		triggerRe: regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(trigger) + `\b`),
	}
}

// IsCommand reports whether text starts with the trigger word.
func (p *Parser) IsCommand(text string) bool {
	return p.triggerRe.MatchString(strings.TrimSpace(text))
}

// HasTimeToken reports whether the command text names a time window before
// any from clause.
func (p *Parser) HasTimeToken(text string) bool {
	head, _ := splitFrom(text)
	return timeTokenRe.MatchString(head)
}

// WantsChannel reports whether the command asks for the current channel only.
// The keyword is detected anywhere in the text.
func WantsChannel(text string) bool {
	return strings.Contains(strings.ToLower(text), channelKeyword)
}

// Parse validates cmd against the roster and returns the resulting spec.
func (p *Parser) Parse(cmd model.Command, roster []model.Member) (model.FilterSpec, error) {
	switch c := cmd.(type) {
	case model.TimedCommand:
		return p.parseTimed(c, roster)
	case model.ReplyCommand:
		return p.parseReply(c, roster)
	default:
		return model.FilterSpec{}, fmt.Errorf("unsupported command type %T", cmd)
	}
}

func (p *Parser) parseTimed(cmd model.TimedCommand, roster []model.Member) (model.FilterSpec, error) {
	text := strings.TrimSpace(cmd.Text)
	if !p.IsCommand(text) {
		return model.FilterSpec{}, model.Invalidf(errDidNotCatch)
	}

	head, tail := splitFrom(text)
	names, err := parseNames(tail, cmd.ChannelScoped)
	if err != nil {
		return model.FilterSpec{}, err
	}

	period := timeTokenRe.FindString(head)
	if period == "" {
		return model.FilterSpec{}, model.Invalidf(errDidNotCatch)
	}

	spec := model.FilterSpec{
		Users: model.HumanDisplayNames(roster),
		Since: model.SinceRelative(period),
	}
	if cmd.ChannelScoped {
		spec.ChannelName = cmd.Channel
	}

	who := everyone
	if len(names) > 0 {
		users, err := ValidateMembers(names, roster)
		if err != nil {
			return model.FilterSpec{}, err
		}
		spec.Users = users
		who = strings.Join(names, " ")
	}

	if cmd.ChannelScoped {
		spec.Response = fmt.Sprintf("You asked about %s from %s in %s!", period, who, cmd.Channel)
	} else {
		spec.Response = fmt.Sprintf("You asked about %s from %s!", period, who)
	}
	return spec, nil
}

func (p *Parser) parseReply(cmd model.ReplyCommand, roster []model.Member) (model.FilterSpec, error) {
	text := strings.TrimSpace(cmd.Text)
	if !p.IsCommand(text) {
		return model.FilterSpec{}, model.Invalidf(errDidNotCatch)
	}

	head, tail := splitFrom(text)
	names, err := parseNames(tail, false)
	if err != nil {
		return model.FilterSpec{}, err
	}

	spec := model.FilterSpec{
		ChannelName: cmd.Channel,
		Since:       model.SinceAt(cmd.ReferencedAt),
	}

	switch {
	case len(names) > 0:
		users, err := ValidateMembers(names, roster)
		if err != nil {
			return model.FilterSpec{}, err
		}
		spec.Users = users
		spec.Response = fmt.Sprintf("You asked about %s in %s!", strings.Join(names, " "), cmd.Channel)
	case strings.EqualFold(strings.TrimSpace(head), p.trigger):
		spec.Users = model.HumanDisplayNames(roster)
		spec.Response = fmt.Sprintf("You asked about %s in %s!", everyone, cmd.Channel)
	default:
		return model.FilterSpec{}, model.Invalidf(errDidNotCatch)
	}
	return spec, nil
}

// splitFrom cuts text at the first "from" keyword. tail is empty when the
// keyword is absent or has nothing after it.
func splitFrom(text string) (head, tail string) {
	loc := fromRe.FindStringIndex(text)
	if loc == nil {
		return text, ""
	}
	return text[:loc[0]], strings.TrimSpace(text[loc[1]:])
}

// parseNames splits a from clause into names. A trailing channel keyword is
// not a name when the command is channel scoped.
func parseNames(tail string, channelScoped bool) ([]string, error) {
	names := strings.Fields(tail)
	if channelScoped && len(names) > 0 && strings.EqualFold(names[len(names)-1], channelKeyword) {
		names = names[:len(names)-1]
	}
	for _, n := range names {
		if !nameRe.MatchString(n) {
			return nil, model.Invalidf(errDidNotCatch)
		}
	}
	return names, nil
}
