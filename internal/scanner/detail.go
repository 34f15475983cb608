package scanner

import (
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"ESDMMonitor/internal/domain"
)

// dateLabel matches "Tanggal : 19 Desember 2024" and captures the rest of the line.
var dateLabel = regexp.MustCompile(`(?i)Tanggal\s*:\s*([^\r\n]*)`)

// ExtractDetail returns the page's visible text and publication date. It
// never fails: unreadable markup yields empty text and domain.UnknownDate.
func ExtractDetail(r io.Reader) domain.DetailPage {
	page := domain.DetailPage{Date: domain.UnknownDate}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return page
	}

	page.Text = VisibleText(doc.Selection)

	if date, ok := FindDate(page.Text); ok {
		page.Date = date
		return page
	}

	if desc, ok := doc.Find(`meta[property="og:description"]`).First().Attr("content"); ok {
		if date, found := FindDate(desc); found {
			page.Date = date
		}
	}

	return page
}

// FindDate applies the "Tanggal:" label pattern to text.
func FindDate(text string) (string, bool) {
	m := dateLabel.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}
