package wikitemplate

import (
	"bytes"
	"strings"
	"testing"
)

const templateDump = `<mediawiki>
<page>
<title>Template:Infobox</title>
<id>10</id>
<revision><text>{{{1}}} &amp; {{{2}}}</text></revision>
</page>
<page>
<title>Dog</title>
<id>3</id>
<revision><text>Dogs are mammals.</text></revision>
</page>
</mediawiki>`

func TestExtract(t *testing.T) {
	var ids, titles, bodies []string
	err := Extract(strings.NewReader(templateDump), func(id, title, body string) error {
		ids = append(ids, id)
		titles = append(titles, title)
		bodies = append(bodies, body)
		return nil
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(titles) != 1 {
		t.Fatalf("got %d templates, want 1: %+v", len(titles), titles)
	}
	if titles[0] != "Template:Infobox" {
		t.Errorf("title = %q", titles[0])
	}
	if ids[0] != "10" {
		t.Errorf("id = %q", ids[0])
	}
	if bodies[0] != "{{{1}}} & {{{2}}}" {
		t.Errorf("body = %q", bodies[0])
	}
}

func TestWriterEscapesAndWrapsRecord(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.Add("10", "Template:Infobox", "{{{1}}} & {{{2}}}"); err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}

	want := "<page><title>Template:Infobox</title><ns>10</ns><text>{{{1}}} &amp; {{{2}}}</text></page>"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}
