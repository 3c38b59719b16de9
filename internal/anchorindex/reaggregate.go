package anchorindex

import (
	"bufio"
	"context"
	"io"
	"log"
	"os"
	"strings"

	"github.com/kthwaite/wikitools/internal/chunker"
	"github.com/kthwaite/wikitools/internal/driver"
	"github.com/kthwaite/wikitools/internal/surfaceform"
	"github.com/kthwaite/wikitools/internal/wikierr"
)

// reaggPartial is the per-range accumulator for the TSV re-aggregator.
type reaggPartial struct {
	flat   Flat
	nested Nested
}

// ParseTSVLine splits one already-dumped anchor line
// ("<page_id>\t<page_title>\t<surface>\t<target>") into its surface and
// target fields. Malformed lines (wrong field count) report ok=false and
// are skipped by the re-aggregator.
func ParseTSVLine(line string) (surface, target string, ok bool) {
	fields := strings.Split(line, "\t")
	if len(fields) != 4 {
		return "", "", false
	}
	return fields[2], fields[3], true
}

// FoldLine folds one parsed (surface, target) anchor pair into flat and
// nested, using the same key shapes ExtractFlat/ExtractNested produce
// from raw anchor tokens.
func FoldLine(flat Flat, nested Nested, surface, target string) {
	target = strings.TrimSpace(target)
	flat[FormatKey(surface, target)]++

	norm := surfaceform.NormalizeText(surface)
	inner, ok := nested[norm]
	if !ok {
		inner = make(map[string]uint32)
		nested[norm] = inner
	}
	inner[target]++
}

// scanRange folds every anchor line found in [rng.Start, rng.End) of
// path, per §4.6's secondary aggregator.
func scanRange(path string, rng chunker.ByteRange) (driver.Partial, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wikierr.Wrap(wikierr.KindIO, err)
	}
	defer f.Close()

	if _, err := f.Seek(rng.Start, io.SeekStart); err != nil {
		return nil, wikierr.Wrap(wikierr.KindIO, err)
	}

	part := &reaggPartial{flat: make(Flat), nested: make(Nested)}
	scanner := bufio.NewScanner(io.LimitReader(f, rng.End-rng.Start))
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		surface, target, ok := ParseTSVLine(line)
		if !ok {
			continue
		}
		FoldLine(part.flat, part.nested, surface, target)
	}
	if err := scanner.Err(); err != nil {
		return nil, wikierr.Wrap(wikierr.KindIO, err)
	}
	return part, nil
}

// Reaggregate re-derives flat and nested anchor counts from an
// already-dumped anchors TSV at path, splitting it into newline-aligned
// byte ranges via chunker.ChunkFile(path, targetSize) and folding each
// range in parallel across workers workers via the driver package — the
// secondary aggregator of SPEC_FULL.md §4.6/§4.9, for re-deriving
// AnchorCounts without re-scanning the multistream dump.
func Reaggregate(ctx context.Context, logger *log.Logger, path string, targetSize int64, workers int) (Flat, Nested, error) {
	ranges, err := chunker.ChunkFile(path, targetSize)
	if err != nil {
		return nil, nil, err
	}

	fn := func(ctx context.Context, path string, rng chunker.ByteRange) (driver.Partial, error) {
		return scanRange(path, rng)
	}
	merge := func(into, from driver.Partial) driver.Partial {
		a := into.(*reaggPartial)
		f := from.(*reaggPartial)
		FoldFlat(a.flat, f.flat)
		FoldNested(a.nested, f.nested)
		return a
	}
	progress := func(done, total int) {
		if done%16 == 0 || done == total {
			logger.Printf("reaggregated %d/%d chunks", done, total)
		}
	}

	init := &reaggPartial{flat: make(Flat), nested: make(Nested)}
	result, err := driver.RunRanges(ctx, logger, path, ranges, fn, merge, init, progress, workers)
	if err != nil {
		return nil, nil, err
	}
	acc := result.(*reaggPartial)
	return acc.flat, acc.nested, nil
}
