package anchorindex

import (
	"context"
	"io"
	"log"
	"os"
	"reflect"
	"testing"
)

func writeAnchorTSV(t *testing.T, lines []string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "anchors-*.tsv")
	if err != nil {
		t.Fatal(err)
	}
	for _, line := range lines {
		if _, err := f.WriteString(line + "\n"); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return f.Name()
}

func TestParseTSVLine(t *testing.T) {
	surface, target, ok := ParseTSVLine("42\tDog\tdogs\tDog")
	if !ok || surface != "dogs" || target != "Dog" {
		t.Fatalf("got (%q, %q, %v)", surface, target, ok)
	}
	if _, _, ok := ParseTSVLine("not enough fields"); ok {
		t.Fatal("expected ok=false for malformed line")
	}
}

// TestReaggregateMatchesSingleChunk is SPEC_FULL.md's S9: re-aggregating
// the same anchors TSV once as a single chunk and once split into
// several byte-range chunks must yield identical flat counts.
func TestReaggregateMatchesSingleChunk(t *testing.T) {
	lines := []string{
		"1\tDog\tdogs\tDog",
		"2\tCat\tdogs\tDog",
		"3\tCat\tfeline\tCat",
		"4\tDog\tfeline\tCat",
		"5\tDog\tdogs\tDog",
	}
	path := writeAnchorTSV(t, lines)
	logger := log.New(io.Discard, "", 0)

	wholeFlat, wholeNested, err := Reaggregate(context.Background(), logger, path, 1<<30, 1)
	if err != nil {
		t.Fatalf("single-chunk reaggregate: %v", err)
	}

	chunkedFlat, chunkedNested, err := Reaggregate(context.Background(), logger, path, 8, 4)
	if err != nil {
		t.Fatalf("chunked reaggregate: %v", err)
	}

	if !reflect.DeepEqual(wholeFlat, chunkedFlat) {
		t.Fatalf("flat mismatch:\nsingle:   %v\nchunked:  %v", wholeFlat, chunkedFlat)
	}
	if !reflect.DeepEqual(wholeNested, chunkedNested) {
		t.Fatalf("nested mismatch:\nsingle:   %v\nchunked:  %v", wholeNested, chunkedNested)
	}

	wantFlat := Flat{
		FormatKey("dogs", "Dog"):   3,
		FormatKey("feline", "Cat"): 2,
	}
	if !reflect.DeepEqual(wholeFlat, wantFlat) {
		t.Fatalf("got %v, want %v", wholeFlat, wantFlat)
	}
}
