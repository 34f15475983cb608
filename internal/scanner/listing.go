// Package scanner extracts candidates from the press-release listing and
// the text and date from article pages.
package scanner

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"ESDMMonitor/internal/domain"
)

const (
	// ArticleMarker identifies links that point at press-release detail pages.
	ArticleMarker = "arsip-berita"
	// MinTitleLength filters navigation links whose text is too short to be a headline.
	MinTitleLength = 10
)

// ParseListing returns candidate articles in document order. A link
// qualifies when its href contains ArticleMarker and its stripped text is
// longer than MinTitleLength characters. Relative hrefs are resolved against
// origin and the first occurrence of each resolved URL wins.
func ParseListing(r io.Reader, origin string) ([]domain.Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	var (
		candidates []domain.Candidate
		seen       = map[string]struct{}{}
	)

	doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		if href == "" || !strings.Contains(href, ArticleMarker) {
			return
		}

		title := StrippedText(link)
		if utf8.RuneCountInString(title) <= MinTitleLength {
			return
		}

		full := ResolveURL(origin, href)
		if _, ok := seen[full]; ok {
			return
		}
		seen[full] = struct{}{}

		candidates = append(candidates, domain.Candidate{URL: full, Title: title})
	})

	return candidates, nil
}

// ResolveURL prefixes root-relative hrefs with origin; anything else is
// returned unchanged.
func ResolveURL(origin, href string) string {
	if strings.HasPrefix(href, "/") {
		return strings.TrimSuffix(origin, "/") + href
	}
	return href
}
