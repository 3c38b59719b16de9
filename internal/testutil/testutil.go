// Package testutil provides fixture helpers for constructing bzip2
// multistream test inputs, adapted from the teacher's
// cmd/qrank-builder/testutil.go (which built brotli/gzip fixtures for
// Wikidata dumps) to this module's bzip2 multistream format.
package testutil

import (
	"bytes"
	"io"
	"os"

	"github.com/dsnet/compress/bzip2"
)

// WriteBzip2Stream compresses content as one independent bzip2 stream
// and appends it to w, returning the number of bytes written — the unit
// a MultiStream index offset points at.
func WriteBzip2Stream(w io.Writer, content string) (int, error) {
	var buf bytes.Buffer
	bw, err := bzip2.NewWriter(&buf, &bzip2.WriterConfig{})
	if err != nil {
		return 0, err
	}
	if _, err := bw.Write([]byte(content)); err != nil {
		return 0, err
	}
	if err := bw.Close(); err != nil {
		return 0, err
	}
	return w.Write(buf.Bytes())
}

// WriteMultistreamFile builds a bzip2 multistream file at path from a
// sequence of independently-compressed sub-streams, returning the byte
// offset each sub-stream begins at (in order), exactly the shape
// indexmap.Build expects the raw index file's offsets to reference.
func WriteMultistreamFile(path string, substreams []string) ([]int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	offsets := make([]int64, len(substreams))
	var pos int64
	for i, s := range substreams {
		offsets[i] = pos
		n, err := WriteBzip2Stream(f, s)
		if err != nil {
			return nil, err
		}
		pos += int64(n)
	}
	return offsets, nil
}

// ReadBzip2File decompresses an entire single-stream bzip2 file.
func ReadBzip2File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	r, err := bzip2.NewReader(f, &bzip2.ReaderConfig{})
	if err != nil {
		return "", err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
