package redirect

import (
	"bytes"
	"strings"
	"testing"
)

func TestIsValidAlias(t *testing.T) {
	cases := []struct {
		title string
		want  bool
	}{
		{"Dog", true},
		{"USA", true},
		{"Wikipedia:Sandbox", false},
		{"Template:Infobox", false},
		{"Portal:Biology", false},
		{"List of mammals", false},
	}
	for _, c := range cases {
		if got := IsValidAlias(c.title); got != c.want {
			t.Errorf("IsValidAlias(%q) = %v, want %v", c.title, got, c.want)
		}
	}
}

const redirectDump = `<mediawiki>
<page>
<title>US</title>
<id>1</id>
<redirect title="United States" />
<revision><text>#REDIRECT [[United States]]</text></revision>
</page>
<page>
<title>List of dogs</title>
<id>2</id>
<redirect title="Dog" />
<revision><text>#REDIRECT [[Dog]]</text></revision>
</page>
<page>
<title>Dog</title>
<id>3</id>
<revision><text>Dogs are mammals.</text></revision>
</page>
</mediawiki>`

func TestExtract(t *testing.T) {
	var got []Redirect
	err := Extract(strings.NewReader(redirectDump), func(r Redirect) error {
		got = append(got, r)
		return nil
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d redirects, want 1: %+v", len(got), got)
	}
	if got[0] != (Redirect{From: "US", To: "United States"}) {
		t.Errorf("got %+v", got[0])
	}
}

func TestWriterDedup(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.Add(Redirect{From: "US", To: "United States"}); err != nil {
		t.Fatal(err)
	}
	if err := w.Add(Redirect{From: "US", To: "United States"}); err != nil {
		t.Fatal(err)
	}
	if err := w.Add(Redirect{From: "USA", To: "United States"}); err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), buf.String())
	}
	if lines[0] != "US\tUnited States" {
		t.Errorf("line 0 = %q", lines[0])
	}
	if lines[1] != "USA\tUnited States" {
		t.Errorf("line 1 = %q", lines[1])
	}
}
