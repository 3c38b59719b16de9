// Package multistream implements the MultiStream reader of
// SPEC_FULL.md §4.1: seeking into a bzip2 multistream at a byte offset
// and streaming the decompressed page-XML fragment found there, with an
// optional cycling mode that keeps decoding consecutive sub-streams.
package multistream

import (
	"io"
	"os"

	"github.com/dsnet/compress/bzip2"

	"github.com/kthwaite/wikitools/internal/wikierr"
)

// Reader decodes one or more consecutive bzip2 sub-streams starting at a
// given byte offset in a multistream file. It does not interpret XML;
// callers drive an wikipage.WalkPages (or one of its projections) over
// it.
type Reader struct {
	file      *os.File
	size      int64
	cur       *bzip2.Reader
	cycle     bool
	exhausted bool
}

// Open seeks path to offset and prepares to decompress the bzip2
// sub-stream that begins there. When cycle is true, reaching the end of
// one sub-stream transparently advances to the next one found at the
// current byte cursor, rather than returning io.EOF.
func Open(path string, offset int64, cycle bool) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wikierr.Wrap(wikierr.KindIO, err)
	}

	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		f.Close()
		return nil, wikierr.Wrap(wikierr.KindIO, err)
	}
	if offset >= size {
		f.Close()
		return nil, wikierr.Newf(wikierr.KindIO, "multistream: offset %d >= file size %d", offset, size)
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		f.Close()
		return nil, wikierr.Wrap(wikierr.KindIO, err)
	}

	r := &Reader{file: f, size: size, cycle: cycle}
	if err := r.openSubStream(); err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) openSubStream() error {
	br, err := bzip2.NewReader(r.file, &bzip2.ReaderConfig{})
	if err != nil {
		return wikierr.Wrap(wikierr.KindDecode, err)
	}
	r.cur = br
	return nil
}

// Read implements io.Reader, decompressing through sub-stream
// boundaries when the reader was opened in cycling mode.
func (r *Reader) Read(p []byte) (int, error) {
	for {
		if r.exhausted {
			return 0, io.EOF
		}
		n, err := r.cur.Read(p)
		if n > 0 {
			return n, nil
		}
		if err == nil {
			continue
		}
		if err != io.EOF {
			return 0, wikierr.Wrap(wikierr.KindDecode, err)
		}

		// This sub-stream is done. Figure out where the underlying file
		// cursor landed and whether there is more to decode.
		pos, serr := r.file.Seek(0, io.SeekCurrent)
		if serr != nil {
			return 0, wikierr.Wrap(wikierr.KindIO, serr)
		}
		if !r.cycle || pos >= r.size {
			r.exhausted = true
			return 0, io.EOF
		}
		if oerr := r.openSubStream(); oerr != nil {
			return 0, oerr
		}
	}
}

// Exhausted reports whether the underlying byte source has been fully
// consumed, so a driver iterating many offsets knows when to stop
// advancing a cycling reader instead of reopening at the next offset.
func (r *Reader) Exhausted() bool {
	return r.exhausted
}

// Close releases the underlying file handle.
func (r *Reader) Close() error {
	return r.file.Close()
}
