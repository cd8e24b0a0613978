package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"what_bot/internal/model"
)

var ignoreGenerated = cmpopts.IgnoreFields(model.Summary{}, "ID", "CreatedAt")

func newTestDB(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func backdate(t *testing.T, s *SQLite, id int64, at time.Time) {
	t.Helper()
	_, err := s.db.Exec(`UPDATE summaries SET created_at = ? WHERE id = ?`, at.UTC().Format(timeLayout), id)
	if err != nil {
		t.Fatalf("backdate summary %d: %v", id, err)
	}
}

func sample(channelID, channel, text string) model.Summary {
	return model.Summary{
		GuildID:          "g1",
		RequestChannelID: channelID,
		Channel:          channel,
		Requester:        "alice",
		Request:          "You asked about today from everyone!",
		Text:             text,
	}
}

func TestSaveAndListSummaries(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	batch := []model.Summary{
		sample("c1", "general", "greetings"),
		sample("c1", "random", "sports"),
		sample("c2", "general", "other request"),
	}
	if err := s.SaveSummaries(ctx, batch); err != nil {
		t.Fatalf("save: %v", err)
	}
	for i, sm := range batch {
		if sm.ID == 0 {
			t.Errorf("summary %d: ID not populated", i)
		}
		if sm.CreatedAt.IsZero() {
			t.Errorf("summary %d: CreatedAt not populated", i)
		}
	}

	got, err := s.ListSummaries(ctx, "c1", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []model.Summary{batch[1], batch[0]}
	if diff := cmp.Diff(want, got, ignoreGenerated); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	limited, err := s.ListSummaries(ctx, "c1", 1)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if diff := cmp.Diff(1, len(limited)); diff != "" {
		t.Errorf("limited count (-want +got):\n%s", diff)
	}

	none, err := s.ListSummaries(ctx, "missing", 5)
	if err != nil {
		t.Fatalf("list missing: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no summaries, got %d", len(none))
	}
}

func TestSaveSummariesEmpty(t *testing.T) {
	s := newTestDB(t)
	if err := s.SaveSummaries(context.Background(), nil); err != nil {
		t.Fatalf("save empty: %v", err)
	}
}

func TestListSummariesNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	old := []model.Summary{sample("c1", "general", "old")}
	recent := []model.Summary{sample("c1", "general", "recent")}
	if err := s.SaveSummaries(ctx, old); err != nil {
		t.Fatalf("save old: %v", err)
	}
	if err := s.SaveSummaries(ctx, recent); err != nil {
		t.Fatalf("save recent: %v", err)
	}
	backdate(t, s, old[0].ID, time.Now().Add(-2*time.Hour))

	got, err := s.ListSummaries(ctx, "c1", 5)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	texts := make([]string, len(got))
	for i, sm := range got {
		texts[i] = sm.Text
	}
	if diff := cmp.Diff([]string{"recent", "old"}, texts); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestPruneSummaries(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	batch := []model.Summary{
		sample("c1", "general", "ancient"),
		sample("c1", "general", "fresh"),
	}
	if err := s.SaveSummaries(ctx, batch); err != nil {
		t.Fatalf("save: %v", err)
	}
	backdate(t, s, batch[0].ID, time.Now().Add(-48*time.Hour))

	n, err := s.PruneSummaries(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if diff := cmp.Diff(int64(1), n); diff != "" {
		t.Errorf("pruned count (-want +got):\n%s", diff)
	}

	got, err := s.ListSummaries(ctx, "c1", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].Text != "fresh" {
		t.Errorf("unexpected remaining summaries: %+v", got)
	}
}
