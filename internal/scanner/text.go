package scanner

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// StrippedText joins every text node under sel with surrounding whitespace
// removed and no separator, so "<a> Kebijakan <b>Nikel</b></a>" yields
// "KebijakanNikel".
func StrippedText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, n := range sel.Nodes {
		walkText(n, func(s string) {
			b.WriteString(strings.TrimSpace(s))
		})
	}
	return b.String()
}

// VisibleText concatenates the raw text nodes of sel, skipping script,
// style and template content. Whitespace, including newlines, is kept.
func VisibleText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, n := range sel.Nodes {
		walkText(n, func(s string) {
			b.WriteString(s)
		})
	}
	return b.String()
}

func walkText(n *html.Node, emit func(string)) {
	switch n.Type {
	case html.TextNode:
		emit(n.Data)
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "template":
			return
		}
	case html.CommentNode, html.DoctypeNode:
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkText(c, emit)
	}
}
