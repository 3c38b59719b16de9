// Package wikipage implements the Page data model, the wikitext
// anchor/category extractor (SPEC_FULL.md §4.4), and the shared XML
// state machine behind the three page-iterator projections (§4.3).
package wikipage

import (
	"regexp"
	"strings"
)

// extLink matches an external-wiki or namespace-qualified link prefix,
// e.g. "de:", "File:", "wikt:", or the same prefixed with a leading ':'
// used to turn an interlanguage link into a visible inline one
// ("[[:de:Hund]]") — all rejected at extraction time.
var extLink = regexp.MustCompile(`^:?[A-Za-z]+:`)

// Anchor is a wikitext link token, either a bare page reference or a
// page reference with a distinct surface realisation.
type Anchor struct {
	Page    string
	Surface string
	// Direct is true when the anchor had no "|surface" part, i.e.
	// Surface == Page.
	Direct bool
}

// Category is the bare name of a category link, FQN form "Category:<name>".
type Category string

// ParseAnchor parses the token found between "[[" and "]]": a "|" splits
// it into page and surface; whitespace is trimmed from both; surrounding
// apostrophes are stripped from surface; a "#fragment" is dropped from
// page; an empty surface collapses to a Direct anchor.
func ParseAnchor(token string) Anchor {
	page, surface, hasBar := strings.Cut(token, "|")
	page = strings.TrimSpace(page)
	if idx := strings.IndexByte(page, '#'); idx >= 0 {
		page = strings.TrimSpace(page[:idx])
	}

	if !hasBar {
		return Anchor{Page: page, Surface: page, Direct: true}
	}

	surface = strings.TrimSpace(surface)
	surface = strings.Trim(surface, "'")
	if surface == "" {
		return Anchor{Page: page, Surface: page, Direct: true}
	}
	return Anchor{Page: page, Surface: surface, Direct: false}
}

// rejectToken reports whether a raw "[[...]]" token (without the
// brackets) must be rejected at extraction time: external-wiki links
// and section-only ("#...") links never become anchors.
func rejectToken(token string) bool {
	if strings.HasPrefix(token, "#") {
		return true
	}
	return extLink.MatchString(token)
}

// IsFile reports whether an anchor's page target is a file/image link.
func IsFile(page string) bool {
	return strings.HasPrefix(page, "File:") || strings.HasPrefix(page, "Image:")
}

// IsWiktionary reports whether an anchor's page target points to Wiktionary.
func IsWiktionary(page string) bool {
	return strings.HasPrefix(page, "wikt:") || strings.HasPrefix(page, "wiktionary:")
}

// IsWikisource reports whether an anchor's page target points to Wikisource.
func IsWikisource(page string) bool {
	return strings.HasPrefix(page, "s:")
}

// IsWikiversity reports whether an anchor's page target points to Wikiversity.
func IsWikiversity(page string) bool {
	return strings.HasPrefix(page, "v:")
}

// IsHandle reports whether an anchor's page target points to handle.net.
func IsHandle(page string) bool {
	return strings.HasPrefix(page, "hdl:")
}
