package chunker

import (
	"os"
	"testing"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "chunker-*")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString(contents); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return f.Name()
}

func TestChunkFileSmallerThanTargetYieldsWholeFile(t *testing.T) {
	path := writeTemp(t, "abcd")
	ranges, err := ChunkFile(path, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(ranges) != 1 || ranges[0] != (ByteRange{0, 4}) {
		t.Fatalf("got %v", ranges)
	}
}

func TestChunkFileCoversEveryByteExactlyOnce(t *testing.T) {
	contents := "aaa\nbbb\nccc\nddd\neeeee\nffffffff\ng\n"
	path := writeTemp(t, contents)
	ranges, err := ChunkFile(path, 6)
	if err != nil {
		t.Fatal(err)
	}

	var total int64
	prev := int64(0)
	for _, r := range ranges {
		if r.Start != prev {
			t.Fatalf("gap or overlap: prev=%d start=%d", prev, r.Start)
		}
		if r.End <= r.Start {
			t.Fatalf("empty or negative range: %v", r)
		}
		if r.End != int64(len(contents)) && contents[r.End-1] != '\n' {
			t.Fatalf("range %v does not end right after a newline", r)
		}
		total += r.End - r.Start
		prev = r.End
	}
	if total != int64(len(contents)) {
		t.Fatalf("total %d != file size %d", total, len(contents))
	}
	if prev != int64(len(contents)) {
		t.Fatalf("ranges do not cover whole file: last end %d, size %d", prev, len(contents))
	}
}

func TestChunkFileDeterministic(t *testing.T) {
	contents := "one\ntwo\nthree\nfour\nfive\nsix\nseven\neight\nnine\nten\n"
	path := writeTemp(t, contents)
	a, err := ChunkFile(path, 8)
	if err != nil {
		t.Fatal(err)
	}
	b, err := ChunkFile(path, 8)
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != len(b) {
		t.Fatalf("non-deterministic: %v vs %v", a, b)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("non-deterministic at %d: %v vs %v", i, a[i], b[i])
		}
	}
}
