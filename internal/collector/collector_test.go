package collector

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"what_bot/internal/model"
)

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type historyCall struct {
	ChannelID string
	After     time.Time
	Limit     int
}

type fakeSource struct {
	channels    []model.Channel
	history     map[string][]model.ChatMessage
	channelsErr error
	historyErr  error
	calls       []historyCall
}

func (f *fakeSource) Channels(_ context.Context, _ string) ([]model.Channel, error) {
	return f.channels, f.channelsErr
}

func (f *fakeSource) History(_ context.Context, channelID string, after time.Time, limit int) ([]model.ChatMessage, error) {
	f.calls = append(f.calls, historyCall{ChannelID: channelID, After: after, Limit: limit})
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	var out []model.ChatMessage
	for _, m := range f.history[channelID] {
		if m.CreatedAt.After(after) {
			out = append(out, m)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type fixedBound struct {
	at  time.Time
	err error
}

func (b fixedBound) Bound(model.Since) (time.Time, error) {
	return b.at, b.err
}

func msg(author, content string, minutes int) model.ChatMessage {
	return model.ChatMessage{AuthorName: author, Content: content, CreatedAt: base.Add(time.Duration(minutes) * time.Minute)}
}

func newSource() *fakeSource {
	return &fakeSource{
		channels: []model.Channel{
			{ID: "c1", Name: "general", Text: true},
			{ID: "v1", Name: "voice", Text: false},
			{ID: "c2", Name: "random", Text: true},
			{ID: "c3", Name: "quiet", Text: true},
		},
		history: map[string][]model.ChatMessage{
			"c1": {
				msg("alice", "too old", -5),
				msg("alice", "morning", 1),
				msg("bob", "!what today", 2),
				msg("bob", "hi alice", 3),
				msg("carol", "/shrug", 4),
				msg("carol", "lunch?", 5),
			},
			"c2": {
				msg("carol", "anyone here", 10),
			},
			"c3": {
				msg("alice", "!help", 3),
			},
		},
	}
}

func newCollector(src Source, limit int) *Collector {
	return New(src, fixedBound{at: base}, limit, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCollect(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		spec model.FilterSpec
		want map[string][]string
		// order of channels in the result
		order []string
	}{
		{
			name: "everyone in all channels",
			spec: model.FilterSpec{Users: []string{"alice", "bob", "carol"}},
			want: map[string][]string{
				"general": {"alice: morning", "bob: hi alice", "carol: lunch?"},
				"random":  {"carol: anyone here"},
			},
			order: []string{"general", "random"},
		},
		{
			name: "user subset",
			spec: model.FilterSpec{Users: []string{"alice", "bob"}},
			want: map[string][]string{
				"general": {"alice: morning", "bob: hi alice"},
			},
			order: []string{"general"},
		},
		{
			name: "single channel",
			spec: model.FilterSpec{Users: []string{"alice", "bob", "carol"}, ChannelName: "random"},
			want: map[string][]string{
				"random": {"carol: anyone here"},
			},
			order: []string{"random"},
		},
		{
			name:  "author match is case sensitive",
			spec:  model.FilterSpec{Users: []string{"Alice"}},
			want:  map[string][]string{},
			order: []string{},
		},
		{
			name:  "unknown channel",
			spec:  model.FilterSpec{Users: []string{"alice"}, ChannelName: "nope"},
			want:  map[string][]string{},
			order: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCollector(newSource(), 100)
			got, err := c.Collect(ctx, "g1", tt.spec)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.order, got.Channels()); diff != "" {
				t.Errorf("channel order mismatch (-want +got):\n%s", diff)
			}
			gotMap := map[string][]string{}
			for _, ch := range got.Channels() {
				gotMap[ch] = got.Lines(ch)
			}
			if diff := cmp.Diff(tt.want, gotMap); diff != "" {
				t.Errorf("lines mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCollectSkipsNonTextAndUnrequestedChannels(t *testing.T) {
	src := newSource()
	c := newCollector(src, 250)

	_, err := c.Collect(context.Background(), "g1", model.FilterSpec{Users: []string{"alice"}, ChannelName: "general"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []historyCall{{ChannelID: "c1", After: base, Limit: 250}}
	if diff := cmp.Diff(want, src.calls); diff != "" {
		t.Errorf("history calls mismatch (-want +got):\n%s", diff)
	}
}

func TestCollectMergesChannelsSharingAName(t *testing.T) {
	src := newSource()
	src.channels = append(src.channels, model.Channel{ID: "c4", Name: "general", Text: true})
	src.history["c4"] = []model.ChatMessage{msg("bob", "other category", 7)}

	got, err := newCollector(src, 100).Collect(context.Background(), "g1", model.FilterSpec{Users: []string{"alice", "bob"}, ChannelName: "general"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"alice: morning", "bob: hi alice", "bob: other category"}
	if diff := cmp.Diff(want, got.Lines("general")); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestCollectRespectsLimit(t *testing.T) {
	src := newSource()
	c := newCollector(src, 1)

	got, err := c.Collect(context.Background(), "g1", model.FilterSpec{Users: []string{"alice", "bob", "carol"}, ChannelName: "general"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"alice: morning"}, got.Lines("general")); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestCollectErrors(t *testing.T) {
	ctx := context.Background()
	spec := model.FilterSpec{Users: []string{"alice"}}

	t.Run("bound error", func(t *testing.T) {
		boom := errors.New("bad period")
		c := New(newSource(), fixedBound{err: boom}, 10, slog.New(slog.NewTextHandler(io.Discard, nil)))
		if _, err := c.Collect(ctx, "g1", spec); !errors.Is(err, boom) {
			t.Fatalf("expected bound error, got %v", err)
		}
	})

	t.Run("channels error", func(t *testing.T) {
		src := newSource()
		src.channelsErr = errors.New("forbidden")
		if _, err := newCollector(src, 10).Collect(ctx, "g1", spec); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("history error", func(t *testing.T) {
		src := newSource()
		src.historyErr = errors.New("rate limited")
		if _, err := newCollector(src, 10).Collect(ctx, "g1", spec); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := newCollector(newSource(), 10).Collect(cctx, "g1", spec); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})
}

func TestFilterMessagesDropsAtBound(t *testing.T) {
	history := []model.ChatMessage{
		msg("alice", "exactly at bound", 0),
		msg("alice", "after", 1),
	}
	got := FilterMessages(history, model.FilterSpec{Users: []string{"alice"}}, base)
	if diff := cmp.Diff([]string{"alice: after"}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestIsCommand(t *testing.T) {
	tests := []struct {
		content string
		want    bool
	}{
		{"!what today", true},
		{"/giphy cat", true},
		{"hello !world", false},
		{"", false},
		{" !what", false},
	}

	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, IsCommand(tt.content)); diff != "" {
				t.Errorf("IsCommand(%q) mismatch (-want +got):\n%s", tt.content, diff)
			}
		})
	}
}

func TestFormatLineRoundTrip(t *testing.T) {
	line := model.FormatLine("alice", "see: the docs")
	author, content, ok := model.SplitLine(line)
	if !ok {
		t.Fatal("expected separator")
	}
	if diff := cmp.Diff([2]string{"alice", "see: the docs"}, [2]string{author, content}); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}
