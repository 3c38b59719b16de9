package searchindex

import (
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/kthwaite/wikitools/internal/wikierr"
)

// Reader is a read-only handle on a built index, used by the TAGME
// engine's df/inlinks queries (§4.10).
type Reader struct {
	idx bleve.Index

	inlinksMu    sync.Mutex
	inlinksCache map[string]uint64
}

// OpenReader opens a previously-built index at dir for querying.
func OpenReader(dir string) (*Reader, error) {
	idx, err := bleve.Open(dir)
	if err != nil {
		return nil, wikierr.Wrap(wikierr.KindBackend, err)
	}
	return &Reader{idx: idx, inlinksCache: make(map[string]uint64)}, nil
}

// DocCount is N in the Milne-Witten formula: the total number of
// documents in the index.
func (r *Reader) DocCount() (uint64, error) {
	n, err := r.idx.DocCount()
	if err != nil {
		return 0, wikierr.Wrap(wikierr.KindBackend, err)
	}
	return n, nil
}

// DF returns the document frequency of the exact phrase m in the
// content field — df(m) in §4.10 step 3.
func (r *Reader) DF(phrase string) (uint64, error) {
	words := strings.Fields(phrase)
	if len(words) == 0 {
		return 0, nil
	}
	q := bleve.NewMatchPhraseQuery(phrase)
	q.FieldVal = "content"
	return r.count(q)
}

// Inlinks returns the number of documents whose outlinks field contains
// target (a page title with spaces already replaced by underscores).
// A single target is inlinks(X); two targets is inlinks(X,Y). Results
// are memoized in r.inlinksCache keyed by the sorted tuple.
func (r *Reader) Inlinks(targets ...string) (uint64, error) {
	key := inlinksCacheKey(targets)

	r.inlinksMu.Lock()
	if v, ok := r.inlinksCache[key]; ok {
		r.inlinksMu.Unlock()
		return v, nil
	}
	r.inlinksMu.Unlock()

	var conj query.Query
	if len(targets) == 1 {
		tq := bleve.NewTermQuery(targets[0])
		tq.FieldVal = "outlinks"
		conj = tq
	} else {
		subs := make([]query.Query, len(targets))
		for i, t := range targets {
			tq := bleve.NewTermQuery(t)
			tq.FieldVal = "outlinks"
			subs[i] = tq
		}
		conj = bleve.NewConjunctionQuery(subs...)
	}

	n, err := r.count(conj)
	if err != nil {
		return 0, err
	}

	r.inlinksMu.Lock()
	r.inlinksCache[key] = n
	r.inlinksMu.Unlock()
	return n, nil
}

func (r *Reader) count(q query.Query) (uint64, error) {
	req := bleve.NewSearchRequest(q)
	req.Size = 0
	result, err := r.idx.Search(req)
	if err != nil {
		return 0, wikierr.Wrap(wikierr.KindBackend, err)
	}
	return result.Total, nil
}

func inlinksCacheKey(targets []string) string {
	sorted := append([]string(nil), targets...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1] > sorted[j]; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}
	return fmt.Sprintf("%v", sorted)
}

// Close releases the underlying index.
func (r *Reader) Close() error {
	return wikierr.Wrap(wikierr.KindBackend, r.idx.Close())
}
