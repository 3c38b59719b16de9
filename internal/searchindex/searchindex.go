// Package searchindex builds and queries the full-text index described
// in SPEC_FULL.md §4.8/§3: one document per page with a content field
// tokenized normally and an outlinks field tokenized by whitespace only,
// so multi-word entity names survive as a single token.
package searchindex

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/kthwaite/wikitools/internal/wikierr"
	"github.com/kthwaite/wikitools/internal/wikipage"
)

const outlinksAnalyzerName = "outlinks"

// Document is the indexed record for one page, matching the §3 schema.
type Document struct {
	ID       uint64 `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Outlinks string `json:"outlinks"`
}

// commitBatchSize is how many documents accumulate per bleve.Batch
// flush, per SPEC_FULL.md §4.8.
const commitBatchSize = 10000

// buildMapping constructs the index mapping for Document: content uses
// bleve's default analyzer, outlinks uses the dedicated whitespace-only
// "outlinks" analyzer registered below — no token filters, so an entity
// like "Nicolas_Poussin" survives as one indexed token.
func buildMapping() (*mapping.IndexMappingImpl, error) {
	im := bleve.NewIndexMapping()
	if err := im.AddCustomAnalyzer(outlinksAnalyzerName, map[string]interface{}{
		"type":      "custom",
		"tokenizer": "whitespace",
		"filters":   []interface{}{},
	}); err != nil {
		return nil, err
	}

	contentField := bleve.NewTextFieldMapping()
	contentField.Store = false
	contentField.IncludeTermVectors = true

	outlinksField := bleve.NewTextFieldMapping()
	outlinksField.Analyzer = outlinksAnalyzerName
	outlinksField.Store = false
	outlinksField.IncludeTermVectors = false

	titleField := bleve.NewTextFieldMapping()
	titleField.Analyzer = "keyword"
	titleField.Store = true

	idField := bleve.NewNumericFieldMapping()
	idField.Store = true

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("content", contentField)
	doc.AddFieldMappingsAt("outlinks", outlinksField)
	doc.AddFieldMappingsAt("title", titleField)
	doc.AddFieldMappingsAt("id", idField)

	im.DefaultMapping = doc
	return im, nil
}

// Writer builds a new index from scratch, batching commits per
// commitBatchSize documents.
type Writer struct {
	idx     bleve.Index
	mu      sync.Mutex
	batch   *bleve.Batch
	pending int
}

// NewWriter creates (overwriting, if present) a bleve index at dir.
func NewWriter(dir string) (*Writer, error) {
	m, err := buildMapping()
	if err != nil {
		return nil, wikierr.Wrap(wikierr.KindBackend, err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return nil, wikierr.Wrap(wikierr.KindIO, err)
	}
	idx, err := bleve.New(dir, m)
	if err != nil {
		return nil, wikierr.Wrap(wikierr.KindBackend, err)
	}
	return &Writer{idx: idx, batch: idx.NewBatch()}, nil
}

// OutlinksField renders a page's ExtractAnchors result as the
// space-separated, underscore-joined outlinks field of §3.
func OutlinksField(content string) string {
	anchors := wikipage.ExtractAnchors(content)
	tokens := make([]string, 0, len(anchors))
	for _, a := range anchors {
		if a.Page == "" {
			continue
		}
		tokens = append(tokens, strings.ReplaceAll(a.Page, " ", "_"))
	}
	return strings.Join(tokens, " ")
}

// Add enqueues one document into the current batch, flushing to disk
// every commitBatchSize documents.
func (w *Writer) Add(doc Document) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.batch.Index(strconv.FormatUint(doc.ID, 10), doc); err != nil {
		return wikierr.Wrap(wikierr.KindBackend, err)
	}
	w.pending++
	if w.pending >= commitBatchSize {
		return w.flushLocked()
	}
	return nil
}

func (w *Writer) flushLocked() error {
	if w.pending == 0 {
		return nil
	}
	if err := w.idx.Batch(w.batch); err != nil {
		return wikierr.Wrap(wikierr.KindBackend, err)
	}
	w.batch = w.idx.NewBatch()
	w.pending = 0
	return nil
}

// Flush commits any buffered documents, as a final commit on completion.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushLocked()
}

// Close flushes and releases the underlying index.
func (w *Writer) Close() error {
	if err := w.Flush(); err != nil {
		return err
	}
	return wikierr.Wrap(wikierr.KindBackend, w.idx.Close())
}
