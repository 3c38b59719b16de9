package tagme

import (
	"reflect"
	"testing"
)

func TestPreprocess(t *testing.T) {
	in := "Hello,  World!\r\nThis is   TAGME."
	want := "hello world this is tagme "
	if got := Preprocess(in); got != want {
		t.Errorf("Preprocess(%q) = %q, want %q", in, got, want)
	}
}

func TestNgrams(t *testing.T) {
	got := Ngrams("the eiffel tower", 1, 2)
	want := []string{
		"the", "the eiffel",
		"eiffel", "eiffel tower",
		"tower",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Ngrams = %v, want %v", got, want)
	}
}

func TestNgramsRespectsMax(t *testing.T) {
	got := Ngrams("a b c d", 2, 3)
	for _, g := range got {
		n := len(splitWords(g))
		if n < 2 || n > 3 {
			t.Errorf("ngram %q has %d words, want 2-3", g, n)
		}
	}
}

func TestAllStopwords(t *testing.T) {
	if !allStopwords("the and of") {
		t.Error("expected all-stopword ngram to be detected")
	}
	if allStopwords("the eiffel tower") {
		t.Error("did not expect a content word to be classified all-stopwords")
	}
}
