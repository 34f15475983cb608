package ports

import (
	"context"
	"errors"
	"time"

	"ESDMMonitor/internal/domain"
)

// ErrNotConfigured is returned by adapters that lack the settings needed to act.
var ErrNotConfigured = errors.New("not configured")

// PageFetcher downloads a page body with the adapter's retry policy.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// CandidateSource discovers listing candidates and loads their detail pages.
type CandidateSource interface {
	FetchCandidates(ctx context.Context) ([]domain.Candidate, error)
	FetchDetail(ctx context.Context, url string) (domain.DetailPage, error)
}

// SeenStore persists classified article URLs for deduplication across runs.
type SeenStore interface {
	IsProcessed(ctx context.Context, url string) (bool, error)
	MarkProcessed(ctx context.Context, record domain.SeenRecord) error
}

// Translator turns a title into the operator's language. It never fails;
// adapters degrade to a fallback string instead.
type Translator interface {
	Translate(ctx context.Context, text string) string
}

// Notifier delivers a keyword-hit alert to a chat channel.
type Notifier interface {
	Notify(ctx context.Context, alert domain.Alert) error
}

// Scheduler controls when runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
