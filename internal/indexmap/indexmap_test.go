package indexmap

import (
	"bytes"
	"io"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func TestBuildFromReaderCollapsesOffsetsAndFiltersTemplates(t *testing.T) {
	raw := strings.Join([]string{
		"100:1:Apple",
		"100:2:Template:Infobox",
		"200:3:Banana",
	}, "\n") + "\n"

	m, err := buildFromReader(strings.NewReader(raw), false)
	if err != nil {
		t.Fatal(err)
	}
	want := Map{100: {"1", "2"}, 200: {"3"}}
	if !reflect.DeepEqual(m, want) {
		t.Fatalf("got %v, want %v", m, want)
	}

	tm, err := buildFromReader(strings.NewReader(raw), true)
	if err != nil {
		t.Fatal(err)
	}
	wantTemplates := Map{100: {"2"}}
	if !reflect.DeepEqual(tm, wantTemplates) {
		t.Fatalf("templates-only: got %v, want %v", tm, wantTemplates)
	}
}

func TestWriteLoadRoundTrip(t *testing.T) {
	m := Map{200: {"3"}, 100: {"1", "2"}}
	path := t.TempDir() + "/indices"
	if err := Write(path, m); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(raw[:len(zstdMagic)], zstdMagic) {
		t.Fatalf("persisted cache is not zstd-framed: %x", raw[:4])
	}
	zr, err := zstd.NewReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()
	decompressed, err := io.ReadAll(zr)
	if err != nil {
		t.Fatal(err)
	}
	if string(decompressed) != "100 1,2\n200 3\n" {
		t.Fatalf("unexpected persisted form: %q", decompressed)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(loaded, m) {
		t.Fatalf("got %v, want %v", loaded, m)
	}
}

func TestLoadAcceptsRawSourceForm(t *testing.T) {
	path := t.TempDir() + "/indices.raw"
	if err := os.WriteFile(path, []byte("100:1:Apple\n100:2:Banana\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	want := Map{100: {"1", "2"}}
	if !reflect.DeepEqual(m, want) {
		t.Fatalf("got %v, want %v", m, want)
	}
}
