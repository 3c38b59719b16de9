// Package redirect extracts the redirect-pair side pipeline of
// SPEC_FULL.md §4.11: for each page carrying a <redirect title="..."/>
// element, pair its title with that redirect target, provided the title
// is a valid alias namespace.
package redirect

import (
	"bufio"
	"io"
	"strings"
	"sync"

	"github.com/kthwaite/wikitools/internal/wikierr"
	"github.com/kthwaite/wikitools/internal/wikipage"
)

// Redirect is one (from, to) alias pair.
type Redirect struct {
	From string
	To   string
}

var invalidAliasPrefixes = []string{
	"Wikipedia:",
	"Template:",
	"Portal:",
}

// IsValidAlias reports whether title is eligible to be recorded as a
// redirect source: not a Wikipedia/Template/Portal page, and not a
// "List of ..." listing page.
func IsValidAlias(title string) bool {
	if strings.HasPrefix(title, "List of ") {
		return false
	}
	for _, prefix := range invalidAliasPrefixes {
		if strings.HasPrefix(title, prefix) {
			return false
		}
	}
	return true
}

// Extract drives wikipage.WalkPages over r and calls fn once per valid
// redirect pair found. Pages that are not redirects, or whose title
// fails IsValidAlias, are skipped.
func Extract(r io.Reader, fn func(Redirect) error) error {
	return wikipage.WalkPages(r, func(p wikipage.RawPage) error {
		if !p.HasRedirect || p.RedirectTarget == "" {
			return nil
		}
		if !IsValidAlias(p.Title) {
			return nil
		}
		return fn(Redirect{From: p.Title, To: p.RedirectTarget})
	})
}

// Writer merges redirect pairs from many concurrent workers into one
// deduplicated TSV file under a single writer lock, per §4.11 and §5's
// "single writer at a time" resource model.
type Writer struct {
	mu   sync.Mutex
	w    *bufio.Writer
	seen map[Redirect]struct{}
}

// NewWriter wraps an already-open file/writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w), seen: make(map[Redirect]struct{})}
}

// Add writes r if it has not already been written.
func (w *Writer) Add(r Redirect) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, dup := w.seen[r]; dup {
		return nil
	}
	w.seen[r] = struct{}{}
	if _, err := w.w.WriteString(r.From); err != nil {
		return wikierr.Wrap(wikierr.KindIO, err)
	}
	if _, err := w.w.WriteString("\t"); err != nil {
		return wikierr.Wrap(wikierr.KindIO, err)
	}
	if _, err := w.w.WriteString(r.To); err != nil {
		return wikierr.Wrap(wikierr.KindIO, err)
	}
	if _, err := w.w.WriteString("\n"); err != nil {
		return wikierr.Wrap(wikierr.KindIO, err)
	}
	return nil
}

// Flush flushes the underlying buffered writer.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return wikierr.Wrap(wikierr.KindIO, w.w.Flush())
}
