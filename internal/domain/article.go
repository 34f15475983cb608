package domain

import "time"

// UnknownDate is recorded when a detail page carries no recognizable date.
const UnknownDate = "Unknown"

// Candidate is a listing link discovered during a single run.
type Candidate struct {
	URL   string
	Title string
}

// DetailPage holds the parts of an article page the monitor cares about.
type DetailPage struct {
	Text string
	Date string
}

// SeenRecord is the durable dedupe entry for a classified article URL.
type SeenRecord struct {
	URL           string
	Title         string
	PublishedDate string
	ProcessedAt   time.Time
}

// Alert is the payload handed to the notifier for a keyword hit.
type Alert struct {
	TitleTranslated string
	TitleOriginal   string
	Keywords        []string
	Date            string
	URL             string
}

// Classification enumerates terminal states reached by a candidate.
type Classification string

const (
	ClassSeenBefore Classification = "seen_before"
	ClassNoMatch    Classification = "no_match"
	ClassMatch      Classification = "match"
)
