package wikipage

import "strings"

// Page is the value type produced by one <page> element once its
// filters have passed. Immutable after construction.
type Page struct {
	ID         string
	Title      string
	Anchors    []Anchor
	Categories []Category
}

// droppedTitlePrefixes lists the namespaces whose pages are dropped
// outright rather than fed to any projection.
var droppedTitlePrefixes = []string{
	"File:",
	"Template:",
	"Wikipedia:",
	"User talk:",
	"File talk:",
}

// IsFilteredTitle reports whether title belongs to a namespace this
// pipeline drops (see SPEC_FULL.md §3).
func IsFilteredTitle(title string) bool {
	for _, prefix := range droppedTitlePrefixes {
		if strings.HasPrefix(title, prefix) {
			return true
		}
	}
	return false
}

// IsRedirectBody reports whether a page body marks the page as a
// redirect stub, which is routed to the redirect pipeline instead.
func IsRedirectBody(body string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(body)), "#redirect")
}
