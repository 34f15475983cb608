package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ESDMMonitor/internal/domain"
	"ESDMMonitor/internal/keyword"
	"ESDMMonitor/internal/metrics"
	"ESDMMonitor/internal/ports"
)

// ErrListingUnavailable ends a run early when the listing page cannot be loaded.
var ErrListingUnavailable = errors.New("listing unavailable")

// MonitorDeps wires all driven adapters into the monitor.
type MonitorDeps struct {
	Source     ports.CandidateSource
	Store      ports.SeenStore
	Translator ports.Translator
	Notifier   ports.Notifier
	Keywords   keyword.Set
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

// Monitor implements the crawl-and-dedupe run. It assumes exclusive access
// to the seen store; callers must not invoke RunOnce concurrently.
type Monitor struct {
	source     ports.CandidateSource
	store      ports.SeenStore
	translator ports.Translator
	notifier   ports.Notifier
	keywords   keyword.Set
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
	newRunID   func() string
}

// RunReport summarizes one run.
type RunReport struct {
	RunID         string
	Discovered    int
	Skipped       int
	Matched       int
	Unmatched     int
	NotifyFailed  int
	PersistFailed int
}

// NewMonitor constructs the orchestration component.
func NewMonitor(deps MonitorDeps) *Monitor {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		source:     deps.Source,
		store:      deps.Store,
		translator: deps.Translator,
		notifier:   deps.Notifier,
		keywords:   deps.Keywords,
		metrics:    deps.Metrics,
		logger:     logger,
		now:        time.Now,
		newRunID:   uuid.NewString,
	}
}

// RunOnce fetches the listing and classifies every candidate sequentially.
// Only a missing listing aborts the run; every other failure is logged and
// the run moves on.
func (m *Monitor) RunOnce(ctx context.Context) (RunReport, error) {
	report := RunReport{RunID: m.newRunID()}
	log := m.logger.With("run_id", report.RunID)

	if m.source == nil || m.store == nil {
		return report, fmt.Errorf("monitor: source and store are required")
	}

	log.Info("run started", "keywords", m.keywords.Words())

	candidates, err := m.source.FetchCandidates(ctx)
	if err != nil {
		log.Error("listing fetch failed", "error", err)
		m.metrics.RunFinished(false)
		return report, fmt.Errorf("%w: %w", ErrListingUnavailable, err)
	}
	report.Discovered = len(candidates)

	for _, candidate := range candidates {
		class, ok := m.process(ctx, log, candidate, &report)
		if !ok {
			continue
		}
		m.metrics.Classified(class)
		switch class {
		case domain.ClassSeenBefore:
			report.Skipped++
		case domain.ClassMatch:
			report.Matched++
		case domain.ClassNoMatch:
			report.Unmatched++
		}
	}

	m.metrics.RunFinished(true)
	log.Info("run finished",
		"discovered", report.Discovered,
		"skipped", report.Skipped,
		"matched", report.Matched,
		"unmatched", report.Unmatched,
		"notify_failed", report.NotifyFailed,
		"persist_failed", report.PersistFailed,
	)
	return report, nil
}

// process drives one candidate to its terminal state. ok is false when the
// seen-set could not be read and the candidate was left for the next run.
func (m *Monitor) process(ctx context.Context, log *slog.Logger, c domain.Candidate, report *RunReport) (domain.Classification, bool) {
	log = log.With("url", c.URL)

	seen, err := m.store.IsProcessed(ctx, c.URL)
	if err != nil {
		log.Error("seen-set lookup failed, deferring candidate", "error", err)
		m.metrics.PersistFailed()
		report.PersistFailed++
		return "", false
	}
	if seen {
		log.Debug("skipping processed", "title", truncate(c.Title, 20))
		return domain.ClassSeenBefore, true
	}

	log.Info("checking details", "title", c.Title)
	detail, err := m.source.FetchDetail(ctx, c.URL)
	if err != nil {
		log.Warn("detail fetch failed, matching on title only", "error", err)
		detail = domain.DetailPage{Date: domain.UnknownDate}
	}
	if detail.Date == "" {
		detail.Date = domain.UnknownDate
	}

	class := domain.ClassNoMatch
	if matched := m.keywords.Match(c.Title, detail.Text); len(matched) > 0 {
		class = domain.ClassMatch
		log.Info("hit found", "keywords", matched)
		m.alert(ctx, log, domain.Alert{
			TitleTranslated: m.translate(ctx, c.Title),
			TitleOriginal:   c.Title,
			Keywords:        matched,
			Date:            detail.Date,
			URL:             c.URL,
		}, report)
	} else {
		log.Info("no keywords found", "title", c.Title)
	}

	err = m.store.MarkProcessed(ctx, domain.SeenRecord{
		URL:           c.URL,
		Title:         c.Title,
		PublishedDate: detail.Date,
		ProcessedAt:   m.now(),
	})
	if err != nil {
		log.Error("persist processed failed", "error", err)
		m.metrics.PersistFailed()
		report.PersistFailed++
	}

	return class, true
}

func (m *Monitor) translate(ctx context.Context, title string) string {
	if m.translator == nil {
		return title
	}
	return m.translator.Translate(ctx, title)
}

func (m *Monitor) alert(ctx context.Context, log *slog.Logger, alert domain.Alert, report *RunReport) {
	if m.notifier == nil {
		log.Warn("no notifier configured, alert dropped")
		report.NotifyFailed++
		m.metrics.Notified(false)
		return
	}

	if err := m.notifier.Notify(ctx, alert); err != nil {
		log.Error("notification failed", "error", err)
		report.NotifyFailed++
		m.metrics.Notified(false)
		return
	}

	log.Info("notification sent", "title", alert.TitleTranslated)
	m.metrics.Notified(true)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
