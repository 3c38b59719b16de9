// Package surfaceform implements the SurfaceForm record and the
// read/write store interface over it (SPEC_FULL.md §4.7), backed by an
// embedded go.etcd.io/bbolt KV store (see DESIGN.md for why bbolt was
// chosen over the original RocksDB backend).
package surfaceform

import (
	"bytes"
	"encoding/gob"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// lowerCaser applies Unicode-aware case folding (not just ASCII
// strings.ToLower) so surface forms containing accented or non-Latin
// letters normalize the same way regardless of source casing.
var lowerCaser = cases.Lower(language.Und)

// PageCount is one (target page, occurrence count) pair inside a
// SurfaceForm's anchor list.
type PageCount struct {
	Page  string
	Count float32
}

// SurfaceForm is the value type stored under a lowercased,
// whitespace-collapsed surface-form key. WikiOccurrences is always the
// sum of Anchors' counts, computed once at construction time in a
// single-threaded pass — see SPEC_FULL.md §9 on floating-point sums.
type SurfaceForm struct {
	Text            string
	Anchors         []PageCount
	WikiOccurrences float32
}

// NormalizeText lowercases and whitespace-collapses a raw surface form,
// the canonical key under which a SurfaceForm is stored and looked up.
func NormalizeText(text string) string {
	return lowerCaser.String(strings.Join(strings.Fields(text), " "))
}

// New builds a SurfaceForm from its text and anchor list, computing
// WikiOccurrences as a single-threaded sum over the owned slice.
func New(text string, anchors []PageCount) SurfaceForm {
	var sum float32
	for _, a := range anchors {
		sum += a.Count
	}
	return SurfaceForm{Text: text, Anchors: anchors, WikiOccurrences: sum}
}

// Encode serializes a SurfaceForm with a fixed, version-stable schema.
func Encode(sf SurfaceForm) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(sf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode deserializes a SurfaceForm previously produced by Encode.
func Decode(data []byte) (SurfaceForm, error) {
	var sf SurfaceForm
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&sf); err != nil {
		return SurfaceForm{}, err
	}
	return sf, nil
}
