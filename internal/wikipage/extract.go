package wikipage

import "strings"

const referencesMarker = "==References=="

// ExtractAnchors scans body[:split] (where split is the last occurrence
// of "==References==", or len(body) if absent) for "[[...]]" tokens and
// returns the Anchors they parse to, in order of occurrence. See
// SPEC_FULL.md §4.4.
func ExtractAnchors(body string) []Anchor {
	tokens := ExtractAnchorTokens(body)
	anchors := make([]Anchor, len(tokens))
	for i, t := range tokens {
		anchors[i] = ParseAnchor(t)
	}
	return anchors
}

// ExtractAnchorTokens returns the raw "[[...]]" token bodies (i.e. the
// slice between the brackets, before Anchor.Parse) that survive the
// extractor's own rejection rules, in order of occurrence. Exposed
// because some consumers (the anchor-count aggregator) filter further on
// the raw token text before parsing it.
func ExtractAnchorTokens(body string) []string {
	split := len(body)
	if idx := strings.LastIndex(body, referencesMarker); idx >= 0 {
		split = idx
	}
	return extractAnchorTokens(body[:split])
}

func extractAnchorTokens(scope string) []string {
	var tokens []string
	pos := 0
	for {
		start := strings.Index(scope[pos:], "[[")
		if start < 0 {
			break
		}
		start += pos
		end := strings.Index(scope[start+2:], "]]")
		if end < 0 {
			break
		}
		end += start + 2

		token := scope[start+2 : end]
		pos = end + 2
		if strings.TrimSpace(token) == "" {
			continue
		}
		if rejectToken(token) {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

// ExtractCategories scans body[split:] (where split is the last
// occurrence of "==References==", or 0 if absent) for "[[Category:...]]"
// tokens and returns the category names, in order of occurrence. See
// SPEC_FULL.md §4.4.
func ExtractCategories(body string) []Category {
	split := 0
	if idx := strings.LastIndex(body, referencesMarker); idx >= 0 {
		split = idx
	}
	return extractCategories(body[split:])
}

func extractCategories(scope string) []Category {
	const prefix = "Category:"
	var categories []Category
	pos := 0
	for {
		start := strings.Index(scope[pos:], "[[")
		if start < 0 {
			break
		}
		start += pos
		end := strings.Index(scope[start+2:], "]]")
		if end < 0 {
			break
		}
		end += start + 2

		token := scope[start+2 : end]
		pos = end + 2
		if token == "" {
			continue
		}
		if !strings.HasPrefix(token, prefix) {
			continue
		}
		name := token[len(prefix):]
		if bar := strings.IndexByte(name, '|'); bar >= 0 {
			name = name[:bar]
		}
		categories = append(categories, Category(strings.TrimSpace(name)))
	}
	return categories
}
