package wikipage

import "io"

// shouldEmit applies the one shared filtering rule behind all three
// projections: drop redirect stubs (they feed the redirect pipeline
// instead, see package redirect) and drop namespaces this pipeline never
// indexes.
func shouldEmit(p RawPage) bool {
	if p.HasRedirect {
		return false
	}
	if IsRedirectBody(p.Body) {
		return false
	}
	return !IsFilteredTitle(p.Title)
}

// EachPage walks r and invokes fn with the full Page projection: id,
// title, extracted anchors and categories. See SPEC_FULL.md §4.3.
func EachPage(r io.Reader, fn func(Page) error) error {
	return WalkPages(r, func(raw RawPage) error {
		if !shouldEmit(raw) {
			return nil
		}
		return fn(Page{
			ID:         raw.ID,
			Title:      raw.Title,
			Anchors:    ExtractAnchors(raw.Body),
			Categories: ExtractCategories(raw.Body),
		})
	})
}

// EachRawPage walks r and invokes fn with only the raw wikitext body of
// every page that survives the shared filter — the projection the
// anchor-count extractor scans directly, without building an Anchor
// slice up front.
func EachRawPage(r io.Reader, fn func(id, title, body string) error) error {
	return WalkPages(r, func(raw RawPage) error {
		if !shouldEmit(raw) {
			return nil
		}
		return fn(raw.ID, raw.Title, raw.Body)
	})
}

// TantivyDoc is the (id, title, content) tuple the search-index builder
// consumes; named for the engine this projection was designed to feed in
// original_source, carried forward unchanged even though this module
// feeds bleve instead (see DESIGN.md).
type TantivyDoc struct {
	ID      string
	Title   string
	Content string
}

// EachTantivyDoc walks r and invokes fn with the (id, title, content)
// tuple the full-text index builder feeds to the search engine.
func EachTantivyDoc(r io.Reader, fn func(TantivyDoc) error) error {
	return WalkPages(r, func(raw RawPage) error {
		if !shouldEmit(raw) {
			return nil
		}
		return fn(TantivyDoc{ID: raw.ID, Title: raw.Title, Content: raw.Body})
	})
}
