package searchindex

import (
	"testing"
)

func TestOutlinksField(t *testing.T) {
	content := "Paris is the capital of [[France]], home to the [[Eiffel Tower|tower]]."
	got := OutlinksField(content)
	want := "France Eiffel_Tower"
	if got != want {
		t.Errorf("OutlinksField = %q, want %q", got, want)
	}
}

func TestOutlinksFieldSkipsBareAnchors(t *testing.T) {
	got := OutlinksField("no links here, only a bare [[ ]]")
	if got != "" {
		t.Errorf("OutlinksField = %q, want empty", got)
	}
}

func TestBuildWriteAndQuery(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWriter(dir)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	docs := []Document{
		{ID: 1, Title: "France", Content: "France is a country in Europe.", Outlinks: "Europe"},
		{ID: 2, Title: "Germany", Content: "Germany is a country in Europe.", Outlinks: "Europe France"},
	}
	for _, d := range docs {
		if err := w.Add(d); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := OpenReader(dir)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer r.Close()

	n, err := r.DocCount()
	if err != nil {
		t.Fatalf("DocCount: %v", err)
	}
	if n != 2 {
		t.Errorf("DocCount = %d, want 2", n)
	}

	df, err := r.DF("country in europe")
	if err != nil {
		t.Fatalf("DF: %v", err)
	}
	if df != 2 {
		t.Errorf("DF(country in europe) = %d, want 2", df)
	}

	in, err := r.Inlinks("France")
	if err != nil {
		t.Fatalf("Inlinks: %v", err)
	}
	if in != 1 {
		t.Errorf("Inlinks(France) = %d, want 1", in)
	}

	in2, err := r.Inlinks("Europe", "France")
	if err != nil {
		t.Fatalf("Inlinks(Europe,France): %v", err)
	}
	if in2 != 1 {
		t.Errorf("Inlinks(Europe,France) = %d, want 1", in2)
	}
}
