// Package chunker splits a file into newline-aligned byte ranges via
// bisection, the way original_source/core/src/bisect.rs does. It backs
// the TSV re-aggregator in the anchorindex package.
package chunker

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/kthwaite/wikitools/internal/wikierr"
)

// ByteRange is a half-open [Start, End) span of bytes in a file.
type ByteRange struct {
	Start, End int64
}

// bisectWithBounds finds the first '\n' at or after the midpoint of
// [start, end) and returns its byte offset (one past the newline, so the
// returned index is a valid chunk boundary).
func bisectWithBounds(r io.ReadSeeker, start, end int64) (int64, error) {
	if end <= start {
		return 0, fmt.Errorf("chunker: end %d <= start %d", end, start)
	}
	mid := start + (end-start)/2
	if _, err := r.Seek(mid, io.SeekStart); err != nil {
		return 0, err
	}

	br := bufio.NewReader(r)
	var b [1]byte
	if _, err := io.ReadFull(br, b[:]); err != nil {
		return 0, err
	}
	if b[0] == '\n' {
		// mid itself is the newline byte; the boundary is one past it.
		return mid + 1, nil
	}

	rest, err := br.ReadBytes('\n')
	if err != nil && err != io.EOF {
		return 0, err
	}
	return mid + 1 + int64(len(rest)), nil
}

// bisectRecursive splits [start, end) around the bisection point found by
// bisectWithBounds, then recurses independently into whichever half(s)
// still exceed targetSize — per spec.md §4.9 step 2, "if either side is
// already ≤ target_size, stop splitting [that side]; otherwise recurse".
// The stop decision is per-side, not a single all-or-nothing test: an
// early global stop would leave an oversized half unsplit.
func bisectRecursive(r io.ReadSeeker, targetSize int64, start, end int64, out *[]ByteRange) error {
	if end-start <= targetSize {
		*out = append(*out, ByteRange{start, end})
		return nil
	}

	split, err := bisectWithBounds(r, start, end)
	if err != nil {
		return err
	}

	if split <= start || split >= end {
		// No further newline to split on before hitting a bound: this
		// range cannot be divided any further.
		*out = append(*out, ByteRange{start, end})
		return nil
	}

	if err := bisectRecursive(r, targetSize, start, split, out); err != nil {
		return err
	}
	return bisectRecursive(r, targetSize, split, end, out)
}

// ChunkFile returns half-open byte ranges covering path such that every
// range ends immediately after a '\n'. A file of at most 2*targetSize
// bytes comes back as a single range; larger ranges are bisected until
// each is at most targetSize or has no '\n' left to split on, so ranges
// smaller than targetSize do occur. See SPEC_FULL.md §4.9.
func ChunkFile(path string, targetSize int64) ([]ByteRange, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wikierr.Wrap(wikierr.KindIO, err)
	}
	defer f.Close()

	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, wikierr.Wrap(wikierr.KindIO, err)
	}
	if size <= targetSize*2 {
		return []ByteRange{{0, size}}, nil
	}

	out := make([]ByteRange, 0, size/targetSize+1)
	if err := bisectRecursive(f, targetSize, 0, size, &out); err != nil {
		return nil, wikierr.Wrap(wikierr.KindIO, err)
	}
	return out, nil
}
