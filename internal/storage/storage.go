// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"time"

	"what_bot/internal/model"
)

// Storage is the interface for summary history persistence.
type Storage interface {
	SaveSummaries(ctx context.Context, summaries []model.Summary) error
	ListSummaries(ctx context.Context, requestChannelID string, limit int) ([]model.Summary, error)
	PruneSummaries(ctx context.Context, before time.Time) (int64, error)

	Close() error
}
