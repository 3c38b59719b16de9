package anchorindex

import (
	"context"
	"os"
	"runtime"
	"sort"

	"github.com/blevesearch/vellum"
	"golang.org/x/sync/errgroup"

	"github.com/kthwaite/wikitools/internal/wikierr"

	"github.com/lanrat/extsort"
)

// BuildFST sorts flat's entries into byte-lexicographic key order (in
// memory below extsortThreshold entries, with an external sort at or
// above it) and feeds them, in that order, into a vellum map builder at
// path. This is the "FST map path" persistence of SPEC_FULL.md §4.6.
func BuildFST(ctx context.Context, path string, flat Flat) error {
	if len(flat) < extsortThreshold {
		return buildFSTSorted(path, sortFlatInMemory(flat))
	}

	ch := make(chan extsort.SortType, 50000)
	config := extsort.DefaultConfig()
	config.NumWorkers = runtime.NumCPU()
	sorter, outChan, errChan := extsort.New(ch, flatEntryFromBytes, flatEntryLess, config)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		defer close(ch)
		for key, count := range flat {
			select {
			case <-groupCtx.Done():
				return groupCtx.Err()
			case ch <- flatEntry{Key: key, Count: count}:
			}
		}
		return nil
	})

	var sorted []flatEntry
	group.Go(func() error {
		sorter.Sort(ctx) // not groupCtx, as per extsort docs
		for e := range outChan {
			sorted = append(sorted, e.(flatEntry))
		}
		return nil
	})
	if err := group.Wait(); err != nil {
		return wikierr.Wrap(wikierr.KindIO, err)
	}
	if err := <-errChan; err != nil {
		return wikierr.Wrap(wikierr.KindIO, err)
	}

	return buildFSTSorted(path, sorted)
}

// extsortThreshold is the entry count below which an in-process sort is
// cheaper than paying extsort's chunk/merge machinery.
const extsortThreshold = 200000

func sortFlatInMemory(flat Flat) []flatEntry {
	sorted := make([]flatEntry, 0, len(flat))
	for key, count := range flat {
		sorted = append(sorted, flatEntry{Key: key, Count: count})
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })
	return sorted
}

func buildFSTSorted(path string, sorted []flatEntry) error {
	f, err := os.Create(path)
	if err != nil {
		return wikierr.Wrap(wikierr.KindIO, err)
	}
	defer f.Close()

	builder, err := vellum.New(f, nil)
	if err != nil {
		return wikierr.Wrap(wikierr.KindBackend, err)
	}
	for _, e := range sorted {
		if err := builder.Insert([]byte(e.Key), uint64(e.Count)); err != nil {
			builder.Close()
			return wikierr.Wrap(wikierr.KindBackend, err)
		}
	}
	if err := builder.Close(); err != nil {
		return wikierr.Wrap(wikierr.KindBackend, err)
	}
	return nil
}

// FSTMap is a read-only handle onto a persisted flat anchor-count FST.
type FSTMap struct {
	fst *vellum.FST
}

// OpenFST memory-maps the FST file at path for lookups.
func OpenFST(path string) (*FSTMap, error) {
	fst, err := vellum.Open(path)
	if err != nil {
		return nil, wikierr.Wrap(wikierr.KindBackend, err)
	}
	return &FSTMap{fst: fst}, nil
}

// Get returns the count for an exact "lower(surface)\tpage" key.
func (m *FSTMap) Get(key string) (uint32, bool, error) {
	v, found, err := m.fst.Get([]byte(key))
	if err != nil {
		return 0, false, wikierr.Wrap(wikierr.KindBackend, err)
	}
	return uint32(v), found, nil
}

// PrefixMatch is one (target page, count) result from a PrefixSearch.
type PrefixMatch struct {
	Page  string
	Count uint32
}

// PrefixSearch performs a range/regex-style scan over all keys sharing
// "lower(surface)\t" as a prefix, returning the target page and count
// for each — the query_anchors CLI's FST code path.
func (m *FSTMap) PrefixSearch(surface string) ([]PrefixMatch, error) {
	prefix := surface + "\t"
	end := prefixUpperBound(prefix)

	it, err := m.fst.Iterator([]byte(prefix), end)
	if err == vellum.ErrIteratorDone {
		return nil, nil
	}
	if err != nil {
		return nil, wikierr.Wrap(wikierr.KindBackend, err)
	}

	var out []PrefixMatch
	for err == nil {
		key, val := it.Current()
		page := string(key[len(prefix):])
		out = append(out, PrefixMatch{Page: page, Count: uint32(val)})
		err = it.Next()
	}
	if err != nil && err != vellum.ErrIteratorDone {
		return nil, wikierr.Wrap(wikierr.KindBackend, err)
	}
	return out, nil
}

// prefixUpperBound returns the smallest byte string greater than every
// string sharing prefix, for use as an exclusive iterator bound.
func prefixUpperBound(prefix string) []byte {
	b := []byte(prefix)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] != 0xff {
			b[i]++
			return b[:i+1]
		}
	}
	return nil // prefix is all 0xff bytes; unbounded above
}

// Close releases the FST's memory-mapped file.
func (m *FSTMap) Close() error {
	return wikierr.Wrap(wikierr.KindBackend, m.fst.Close())
}
