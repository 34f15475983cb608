// Package keyword implements the two-phase title/body keyword match.
package keyword

import "strings"

// Set is an immutable, lower-cased keyword list in configuration order.
type Set struct {
	words []string
}

// NewSet lower-cases and trims words. Empty entries are dropped because an
// empty substring would match every article.
func NewSet(words []string) Set {
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			out = append(out, w)
		}
	}
	return Set{words: out}
}

// Words returns a copy of the keywords.
func (s Set) Words() []string {
	return append([]string(nil), s.words...)
}

// Len reports the number of keywords.
func (s Set) Len() int { return len(s.words) }

// Match returns the keywords found in title. Only when the title has no hit
// is body searched. Comparison is case-insensitive; an empty result means no hit.
func (s Set) Match(title, body string) []string {
	if hits := s.contained(strings.ToLower(title)); len(hits) > 0 {
		return hits
	}
	return s.contained(strings.ToLower(body))
}

func (s Set) contained(text string) []string {
	if text == "" {
		return nil
	}
	var hits []string
	for _, w := range s.words {
		if strings.Contains(text, w) {
			hits = append(hits, w)
		}
	}
	return hits
}
