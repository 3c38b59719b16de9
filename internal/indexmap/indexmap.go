// Package indexmap builds and loads the offset -> []pageID mapping that
// drives the parallel chunk driver (SPEC_FULL.md §4.2).
package indexmap

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/zstd"

	"github.com/kthwaite/wikitools/internal/wikierr"
)

// zstdMagic is the four-byte frame magic number zstd prefixes every
// compressed stream with; used to tell a zstd-compressed persisted cache
// apart from the raw source form on Load.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Map is the offset -> ordered list of page IDs contained at that byte
// offset of the multistream.
type Map map[int64][]string

// Offsets returns the map's keys sorted ascending, the order the
// parallel chunk driver dispatches them in to improve sequential I/O.
func (m Map) Offsets() []int64 {
	offsets := make([]int64, 0, len(m))
	for off := range m {
		offsets = append(offsets, off)
	}
	sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })
	return offsets
}

// Build reads the raw, bzip2-compressed multistream index file (lines of
// the form "<offset>:<page-id>:<title>") and collapses equal offsets
// into one Map entry each. templatesOnly, when true, retains only lines
// whose title field begins with "Template:" — the filter backing the
// templates-only index cache.
func Build(indexPath string, templatesOnly bool) (Map, error) {
	f, err := os.Open(indexPath)
	if err != nil {
		return nil, wikierr.Wrap(wikierr.KindIO, err)
	}
	defer f.Close()

	bz, err := bzip2.NewReader(f, &bzip2.ReaderConfig{})
	if err != nil {
		return nil, wikierr.Wrap(wikierr.KindDecode, err)
	}

	return buildFromReader(bz, templatesOnly)
}

func buildFromReader(r io.Reader, templatesOnly bool) (Map, error) {
	m := make(Map)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		offset, id, title, ok := parseRawLine(line)
		if !ok {
			continue
		}
		if templatesOnly && !strings.HasPrefix(title, "Template:") {
			continue
		}
		m[offset] = append(m[offset], id)
	}
	if err := scanner.Err(); err != nil {
		return nil, wikierr.Wrap(wikierr.KindIO, err)
	}
	return m, nil
}

func parseRawLine(line string) (offset int64, id, title string, ok bool) {
	first := strings.IndexByte(line, ':')
	if first < 0 {
		return 0, "", "", false
	}
	second := strings.IndexByte(line[first+1:], ':')
	if second < 0 {
		return 0, "", "", false
	}
	second += first + 1

	off, err := strconv.ParseInt(line[:first], 10, 64)
	if err != nil {
		return 0, "", "", false
	}
	return off, line[first+1 : second], line[second+1:], true
}

// Load reads an IndexMap from path, accepting the zstd-compressed
// persisted form ("<offset> <id1>,<id2>,…,<idN>"), an uncompressed
// persisted form, and the raw source form ("<offset>:<id>:<title>").
func Load(path string) (Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wikierr.Wrap(wikierr.KindIO, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var r io.Reader = br
	if magic, err := br.Peek(len(zstdMagic)); err == nil && bytes.Equal(magic, zstdMagic) {
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, wikierr.Wrap(wikierr.KindDecode, err)
		}
		defer zr.Close()
		r = zr
	}

	m := make(Map)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if strings.Contains(line, ":") && !strings.Contains(strings.SplitN(line, ":", 2)[0], " ") {
			if offset, id, _, ok := parseRawLine(line); ok {
				m[offset] = append(m[offset], id)
				continue
			}
		}
		if offset, ids, ok := parsePersistedLine(line); ok {
			m[offset] = append(m[offset], ids...)
			continue
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, wikierr.Wrap(wikierr.KindIO, err)
	}
	return m, nil
}

func parsePersistedLine(line string) (int64, []string, bool) {
	sp := strings.IndexByte(line, ' ')
	if sp < 0 {
		return 0, nil, false
	}
	offset, err := strconv.ParseInt(line[:sp], 10, 64)
	if err != nil {
		return 0, nil, false
	}
	ids := strings.Split(line[sp+1:], ",")
	return offset, ids, true
}

// Write persists m zstd-compressed in the canonical on-disk form, one
// line per offset in ascending order:
// "<offset> <id1>,<id2>,…,<idN>\n". zstd is the teacher's default
// artifact codec, used here for the cache's fast decompression on the
// common warm-start path in loadOrBuildIndexMap.
func Write(path string, m Map) error {
	f, err := os.Create(path)
	if err != nil {
		return wikierr.Wrap(wikierr.KindIO, err)
	}
	defer f.Close()

	zw, err := zstd.NewWriter(f)
	if err != nil {
		return wikierr.Wrap(wikierr.KindIO, err)
	}

	w := bufio.NewWriter(zw)
	for _, offset := range m.Offsets() {
		if _, err := w.WriteString(strconv.FormatInt(offset, 10)); err != nil {
			return wikierr.Wrap(wikierr.KindIO, err)
		}
		if err := w.WriteByte(' '); err != nil {
			return wikierr.Wrap(wikierr.KindIO, err)
		}
		if _, err := w.WriteString(strings.Join(m[offset], ",")); err != nil {
			return wikierr.Wrap(wikierr.KindIO, err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return wikierr.Wrap(wikierr.KindIO, err)
		}
	}
	if err := w.Flush(); err != nil {
		return wikierr.Wrap(wikierr.KindIO, err)
	}
	if err := zw.Close(); err != nil {
		return wikierr.Wrap(wikierr.KindIO, err)
	}
	return nil
}
