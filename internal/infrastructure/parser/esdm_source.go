package parser

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"ESDMMonitor/internal/domain"
	"ESDMMonitor/internal/ports"
	"ESDMMonitor/internal/scanner"
)

// ESDMSource implements CandidateSource for the ESDM press-release listing.
type ESDMSource struct {
	fetcher   ports.PageFetcher
	targetURL string
	origin    string
	logger    *slog.Logger
}

var _ ports.CandidateSource = (*ESDMSource)(nil)

// NewESDMSource wires the page fetcher with the listing URL and site origin.
func NewESDMSource(fetcher ports.PageFetcher, targetURL, origin string, log *slog.Logger) *ESDMSource {
	return &ESDMSource{
		fetcher:   fetcher,
		targetURL: targetURL,
		origin:    origin,
		logger:    log,
	}
}

// FetchCandidates downloads the listing page and returns its article links.
func (s *ESDMSource) FetchCandidates(ctx context.Context) ([]domain.Candidate, error) {
	if s.fetcher == nil {
		return nil, fmt.Errorf("page fetcher is not configured")
	}

	s.debug("fetch listing", "url", s.targetURL)
	body, err := s.fetcher.Fetch(ctx, s.targetURL)
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}

	candidates, err := scanner.ParseListing(bytes.NewReader(body), s.origin)
	if err != nil {
		return nil, err
	}

	s.debug("listing parsed", "candidates", len(candidates))
	return candidates, nil
}

// FetchDetail downloads an article page and extracts its text and date.
func (s *ESDMSource) FetchDetail(ctx context.Context, url string) (domain.DetailPage, error) {
	if s.fetcher == nil {
		return domain.DetailPage{Date: domain.UnknownDate}, fmt.Errorf("page fetcher is not configured")
	}

	body, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return domain.DetailPage{Date: domain.UnknownDate}, fmt.Errorf("fetch detail: %w", err)
	}

	return scanner.ExtractDetail(bytes.NewReader(body)), nil
}

func (s *ESDMSource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
