package retention

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type mockStore struct {
	mu      sync.Mutex
	cutoffs []time.Time
	err     error
}

func (m *mockStore) PruneSummaries(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cutoffs = append(m.cutoffs, before)
	return 1, m.err
}

func (m *mockStore) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cutoffs)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPruneUsesMaxAge(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	store := &mockStore{}
	p := New(store, 48*time.Hour, discardLogger())
	p.now = func() time.Time { return now }

	p.prune(context.Background())

	want := []time.Time{now.Add(-48 * time.Hour)}
	if diff := cmp.Diff(want, store.cutoffs); diff != "" {
		t.Errorf("cutoffs mismatch (-want +got):\n%s", diff)
	}
}

func TestPruneErrorIsLogged(t *testing.T) {
	store := &mockStore{err: errors.New("disk full")}
	p := New(store, time.Hour, discardLogger())
	p.prune(context.Background())
	if diff := cmp.Diff(1, store.calls()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestRunDisabled(t *testing.T) {
	store := &mockStore{}
	p := New(store, 0, discardLogger())

	done := make(chan struct{})
	go func() {
		p.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return with retention disabled")
	}
	if store.calls() != 0 {
		t.Errorf("expected no prune calls, got %d", store.calls())
	}
}

func TestRunTicksUntilCancelled(t *testing.T) {
	store := &mockStore{}
	p := New(store, time.Hour, discardLogger())
	p.SetTickInterval(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for store.calls() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 3 prune calls, got %d", store.calls())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
