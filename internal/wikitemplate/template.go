// Package wikitemplate extracts the template-body side pipeline of
// SPEC_FULL.md §4.11: pages in the Template namespace are retained in
// full and re-serialized into a standalone pseudo-XML file.
package wikitemplate

import (
	"bufio"
	"encoding/xml"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/kthwaite/wikitools/internal/wikierr"
	"github.com/kthwaite/wikitools/internal/wikipage"
)

const templateNamespace = 10

// Extract drives wikipage.WalkPages over r and calls fn once per page
// whose title begins with "Template:".
func Extract(r io.Reader, fn func(id, title, body string) error) error {
	return wikipage.WalkPages(r, func(p wikipage.RawPage) error {
		if !strings.HasPrefix(p.Title, "Template:") {
			return nil
		}
		return fn(p.ID, p.Title, p.Body)
	})
}

// Writer serializes retained template pages into one pseudo-XML file,
// "<page><title>...</title><ns>10</ns><text>...</text></page>" records
// separated by newlines, under a single writer lock.
type Writer struct {
	mu    sync.Mutex
	w     *bufio.Writer
	wrote bool
}

// NewWriter wraps an already-open file/writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Add appends one <page> record for title/body.
func (w *Writer) Add(id, title, body string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.wrote {
		if err := w.w.WriteByte('\n'); err != nil {
			return wikierr.Wrap(wikierr.KindIO, err)
		}
	}
	w.wrote = true
	if _, err := w.w.WriteString("<page><title>"); err != nil {
		return wikierr.Wrap(wikierr.KindIO, err)
	}
	if err := xml.EscapeText(w.w, []byte(title)); err != nil {
		return wikierr.Wrap(wikierr.KindIO, err)
	}
	if _, err := w.w.WriteString("</title><ns>"); err != nil {
		return wikierr.Wrap(wikierr.KindIO, err)
	}
	if _, err := w.w.WriteString(strconv.Itoa(templateNamespace)); err != nil {
		return wikierr.Wrap(wikierr.KindIO, err)
	}
	if _, err := w.w.WriteString("</ns><text>"); err != nil {
		return wikierr.Wrap(wikierr.KindIO, err)
	}
	if err := xml.EscapeText(w.w, []byte(body)); err != nil {
		return wikierr.Wrap(wikierr.KindIO, err)
	}
	if _, err := w.w.WriteString("</text></page>"); err != nil {
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
