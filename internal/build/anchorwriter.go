package build

import (
	"bufio"
	"sync"

	"github.com/kthwaite/wikitools/internal/wikierr"
)

// lockedLineWriter serializes the raw anchor TSV writes
// ("<page_id>\t<page_title>\t<surface>\t<target>\n") from concurrent
// workers under one mutex, the same "single writer at a time" pattern
// as redirect.Writer and wikitemplate.Writer.
type lockedLineWriter struct {
	mu sync.Mutex
	w  *bufio.Writer
}

func (l *lockedLineWriter) writeLine(pageID, pageTitle, surface, target string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, field := range []string{pageID, pageTitle, surface, target} {
		if _, err := l.w.WriteString(field); err != nil {
			return wikierr.Wrap(wikierr.KindIO, err)
		}
		if i < 3 {
			if _, err := l.w.WriteString("\t"); err != nil {
				return wikierr.Wrap(wikierr.KindIO, err)
			}
		}
	}
	_, err := l.w.WriteString("\n")
	return wikierr.Wrap(wikierr.KindIO, err)
}

func (l *lockedLineWriter) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return wikierr.Wrap(wikierr.KindIO, l.w.Flush())
}
