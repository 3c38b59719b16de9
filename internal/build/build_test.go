package build

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dsnet/compress/bzip2"

	"github.com/kthwaite/wikitools/internal/config"
	"github.com/kthwaite/wikitools/internal/searchindex"
	"github.com/kthwaite/wikitools/internal/surfaceform"
	"github.com/kthwaite/wikitools/internal/testutil"
)

const buildTestDump = `<mediawiki>
<page>
<title>Dog</title>
<id>1</id>
<revision><text>A [[Dog]] is related to a [[Cat]].</text></revision>
</page>
<page>
<title>Cat</title>
<id>2</id>
<revision><text>A [[Cat]] is unrelated to a [[Dog]].</text></revision>
</page>
<page>
<title>Canine</title>
<id>3</id>
<redirect title="Dog" />
<revision><text>#REDIRECT [[Dog]]</text></revision>
</page>
<page>
<title>Template:Infobox</title>
<id>4</id>
<revision><text>{{{1}}}</text></revision>
</page>
</mediawiki>`

// writeBzip2RawIndex bzip2-compresses the raw "<offset>:<id>:<title>"
// index lines indexmap.Build expects.
func writeBzip2RawIndex(path string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	bw, err := bzip2.NewWriter(f, &bzip2.WriterConfig{})
	if err != nil {
		return err
	}
	if _, err := bw.Write([]byte(strings.Join(lines, "\n") + "\n")); err != nil {
		return err
	}
	return bw.Close()
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()

	dumpPath := filepath.Join(dir, "dump.xml.bz2")
	offsets, err := testutil.WriteMultistreamFile(dumpPath, []string{buildTestDump})
	if err != nil {
		t.Fatalf("WriteMultistreamFile: %v", err)
	}

	rawIndexPath := filepath.Join(dir, "index.txt.bz2")
	lines := []string{
		fmt.Sprintf("%d:1:Dog", offsets[0]),
		fmt.Sprintf("%d:2:Cat", offsets[0]),
		fmt.Sprintf("%d:3:Canine", offsets[0]),
		fmt.Sprintf("%d:4:Template:Infobox", offsets[0]),
	}
	if err := writeBzip2RawIndex(rawIndexPath, lines); err != nil {
		t.Fatalf("writeBzip2RawIndex: %v", err)
	}

	settings := &config.Settings{
		Data: config.Data{Dump: dumpPath, Index: rawIndexPath},
		Indices: config.Indices{
			Pages:     filepath.Join(dir, "pages.idx"),
			Templates: filepath.Join(dir, "templates.idx"),
		},
		Templates: filepath.Join(dir, "templates.xml"),
		Anchors: config.Anchors{
			Anchors:      filepath.Join(dir, "anchors.tsv"),
			AnchorCounts: filepath.Join(dir, "anchor_counts.tsv"),
		},
		SearchIndex: config.SearchIndex{IndexDir: filepath.Join(dir, "search_index")},
	}

	var logBuf bytes.Buffer
	logger := log.New(&logBuf, "", 0)

	if err := Run(context.Background(), logger, settings, Options{}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	anchorsData, err := os.ReadFile(settings.Anchors.Anchors)
	if err != nil {
		t.Fatalf("read anchors.tsv: %v", err)
	}
	if !strings.Contains(string(anchorsData), "\tDog\tCat\tCat\n") && !strings.Contains(string(anchorsData), "\tDog\tCat\tCat") {
		t.Errorf("anchors.tsv missing expected Dog->Cat line: %q", string(anchorsData))
	}

	redirectData, err := os.ReadFile(settings.Anchors.Anchors + ".redirects.tsv")
	if err != nil {
		t.Fatalf("read redirects.tsv: %v", err)
	}
	if strings.TrimSpace(string(redirectData)) != "Canine\tDog" {
		t.Errorf("redirects.tsv = %q, want %q", string(redirectData), "Canine\tDog")
	}

	templateData, err := os.ReadFile(settings.Templates)
	if err != nil {
		t.Fatalf("read templates.xml: %v", err)
	}
	if !strings.Contains(string(templateData), "Template:Infobox") {
		t.Errorf("templates.xml missing Template:Infobox: %q", string(templateData))
	}

	if _, err := os.Stat(settings.Anchors.AnchorCounts + ".fst"); err != nil {
		t.Errorf("expected an FST artifact: %v", err)
	}

	store, err := surfaceform.Open(settings.Anchors.AnchorCounts + ".bolt")
	if err != nil {
		t.Fatalf("surfaceform.Open: %v", err)
	}
	defer store.Close()
	sf, found, err := store.Get("dog")
	if err != nil {
		t.Fatalf("store.Get: %v", err)
	}
	if !found {
		t.Fatal("expected a surface form for 'dog'")
	}
	// "Dog" is linked from both the Dog and Cat pages, so the nested
	// surface-form count accumulates to 2, not 1.
	if sf.WikiOccurrences != 2 {
		t.Errorf("dog WikiOccurrences = %v, want 2", sf.WikiOccurrences)
	}

	reader, err := searchindex.OpenReader(settings.SearchIndex.IndexDir)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer reader.Close()
	n, err := reader.DocCount()
	if err != nil {
		t.Fatalf("DocCount: %v", err)
	}
	// Dog and Cat are indexed; the redirect stub and the template page
	// are routed to their own side pipelines, not the search index.
	if n != 2 {
		t.Errorf("DocCount = %d, want 2", n)
	}
}
