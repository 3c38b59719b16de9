// Package anchorindex builds and merges the two AnchorCounts
// representations of SPEC_FULL.md §4.6 — flat (FST-bound) and nested
// (KV-bound) — from page bodies or from a previously-dumped anchor TSV.
package anchorindex

import (
	"strings"

	"github.com/kthwaite/wikitools/internal/surfaceform"
	"github.com/kthwaite/wikitools/internal/wikipage"
)

// Flat is the ordered map from "lower(surface)\tpage" to occurrence
// count, the representation fed to the FST builder.
type Flat map[string]uint32

// Nested is the outer-surface/inner-page map, the representation fed to
// the KV (surfaceform) store.
type Nested map[string]map[string]uint32

// FormatKey builds the "lower(surface)\tpage" flat key exactly as
// SPEC_FULL.md §9's "FST keying" note requires.
func FormatKey(surface, page string) string {
	return surfaceform.NormalizeText(surface) + "\t" + strings.TrimSpace(page)
}

// SplitKey reverses FormatKey, splitting a flat key back into its
// surface and page components on the first tab.
func SplitKey(key string) (surface, page string) {
	if idx := strings.IndexByte(key, '\t'); idx >= 0 {
		return key[:idx], key[idx+1:]
	}
	return key, ""
}

// skipToken applies the surface-form filter at extraction time, on the
// raw "[[...]]" token text before it is parsed into an Anchor: skip
// tokens beginning with ':' or '<', and any token containing
// "User talk:" or "File talk:". Grounded in
// original_source/src/extract.rs's AnchorTrieBuilder::extract.
func skipToken(token string) bool {
	if token == "" {
		return true
	}
	switch token[0] {
	case ':', '<':
		return true
	}
	return strings.Contains(token, "User talk:") || strings.Contains(token, "File talk:")
}

// ExtractFlat runs wikipage.ExtractAnchorTokens over body and returns
// the flat per-page counts.
func ExtractFlat(body string) Flat {
	out := make(Flat)
	for _, token := range wikipage.ExtractAnchorTokens(body) {
		if skipToken(token) {
			continue
		}
		a := wikipage.ParseAnchor(token)
		out[FormatKey(a.Surface, a.Page)]++
	}
	return out
}

// FoldFlat adds from's counts into into, returning into. The operation
// is commutative and associative, as the parallel chunk driver requires.
func FoldFlat(into, from Flat) Flat {
	for k, v := range from {
		into[k] += v
	}
	return into
}

// ExtractNested runs wikipage.ExtractAnchorTokens over body and returns the
// nested per-page counts.
func ExtractNested(body string) Nested {
	out := make(Nested)
	for _, token := range wikipage.ExtractAnchorTokens(body) {
		if skipToken(token) {
			continue
		}
		a := wikipage.ParseAnchor(token)
		surface := surfaceform.NormalizeText(a.Surface)
		page := strings.TrimSpace(a.Page)
		inner, ok := out[surface]
		if !ok {
			inner = make(map[string]uint32)
			out[surface] = inner
		}
		inner[page]++
	}
	return out
}

// FoldNested merges from's inner maps into into by count addition.
func FoldNested(into, from Nested) Nested {
	for surface, inner := range from {
		dst, ok := into[surface]
		if !ok {
			dst = make(map[string]uint32)
			into[surface] = dst
		}
		for page, count := range inner {
			dst[page] += count
		}
	}
	return into
}

// ToSurfaceForms converts a Nested map into SurfaceForm records, freezing
// WikiOccurrences once per record in this single-threaded pass.
func ToSurfaceForms(n Nested) []surfaceform.SurfaceForm {
	out := make([]surfaceform.SurfaceForm, 0, len(n))
	for surface, inner := range n {
		anchors := make([]surfaceform.PageCount, 0, len(inner))
		for page, count := range inner {
			anchors = append(anchors, surfaceform.PageCount{Page: page, Count: float32(count)})
		}
		out = append(out, surfaceform.New(surface, anchors))
	}
	return out
}
