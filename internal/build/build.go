// Package build orchestrates one end-to-end run over the dump: index
// maps, the anchor TSV and its aggregated counts (FST + KV store), the
// full-text search index, and the redirect/template side pipelines.
// Grounded in the teacher's top-level build.go orchestration, generalized
// from a single Wikidata QRank pass to this module's five-artifact dump.
package build

import (
	"bufio"
	"context"
	"log"
	"os"
	"strconv"

	"github.com/kthwaite/wikitools/internal/anchorindex"
	"github.com/kthwaite/wikitools/internal/config"
	"github.com/kthwaite/wikitools/internal/driver"
	"github.com/kthwaite/wikitools/internal/indexmap"
	"github.com/kthwaite/wikitools/internal/multistream"
	"github.com/kthwaite/wikitools/internal/redirect"
	"github.com/kthwaite/wikitools/internal/searchindex"
	"github.com/kthwaite/wikitools/internal/surfaceform"
	"github.com/kthwaite/wikitools/internal/wikierr"
	"github.com/kthwaite/wikitools/internal/wikipage"
	"github.com/kthwaite/wikitools/internal/wikitemplate"
)

// Options controls which artifacts are (re)built.
type Options struct {
	Force bool
	// Workers overrides the parallel worker count; 0 or negative means
	// runtime.NumCPU().
	Workers int
}

// fileExists reports whether path exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Run loads each index map from its cache file when present and builds
// it otherwise. If any of the anchor TSV, the anchor-count TSV or the
// search-index directory is missing, it rebuilds all of them together,
// along with the redirect and template files, in one pass over the dump;
// if all three exist it builds nothing further. opts.Force rebuilds
// everything.
func Run(ctx context.Context, logger *log.Logger, settings *config.Settings, opts Options) error {
	pagesMap, err := loadOrBuildIndexMap(logger, settings.Indices.Pages, settings.Data.Index, false, opts.Force)
	if err != nil {
		return err
	}
	if _, err := loadOrBuildIndexMap(logger, settings.Indices.Templates, settings.Data.Index, true, opts.Force); err != nil {
		return err
	}

	needAnchors := opts.Force || !fileExists(settings.Anchors.Anchors) || !fileExists(settings.Anchors.AnchorCounts)
	_, searchErr := os.Stat(settings.SearchIndex.IndexDir)
	needSearch := opts.Force || searchErr != nil
	if !needAnchors && !needSearch {
		logger.Printf("anchors, anchor counts, and search index already built; nothing to do")
		return nil
	}

	anchorsFile, err := os.Create(settings.Anchors.Anchors)
	if err != nil {
		return wikierr.Wrap(wikierr.KindIO, err)
	}
	defer anchorsFile.Close()
	anchorsWriter := &lockedLineWriter{w: bufio.NewWriter(anchorsFile)}

	redirectFile, err := os.Create(settings.Anchors.Anchors + ".redirects.tsv")
	if err != nil {
		return wikierr.Wrap(wikierr.KindIO, err)
	}
	defer redirectFile.Close()
	redirectWriter := redirect.NewWriter(redirectFile)

	templateFile, err := os.Create(settings.Templates)
	if err != nil {
		return wikierr.Wrap(wikierr.KindIO, err)
	}
	defer templateFile.Close()
	templateWriter := wikitemplate.NewWriter(templateFile)

	searchWriter, err := searchindex.NewWriter(settings.SearchIndex.IndexDir)
	if err != nil {
		return err
	}
	defer searchWriter.Close()

	acc := &aggregate{flat: make(anchorindex.Flat), nested: make(anchorindex.Nested)}

	fn := func(ctx context.Context, path string, offset int64) (driver.Partial, error) {
		return scanOffset(path, offset, anchorsWriter, redirectWriter, templateWriter, searchWriter)
	}
	merge := func(into, from driver.Partial) driver.Partial {
		a := into.(*aggregate)
		f := from.(*aggregate)
		anchorindex.FoldFlat(a.flat, f.flat)
		anchorindex.FoldNested(a.nested, f.nested)
		return a
	}

	progress := func(done, total int) {
		if done%50 == 0 || done == total {
			logger.Printf("processed %d/%d offsets", done, total)
		}
	}

	result, err := driver.Run(ctx, logger, settings.Data.Dump, pagesMap.Offsets(), fn, merge, acc, progress, opts.Workers)
	if err != nil {
		return err
	}
	acc = result.(*aggregate)

	if err := anchorsWriter.Flush(); err != nil {
		return err
	}
	if err := redirectWriter.Flush(); err != nil {
		return err
	}
	if err := templateWriter.Flush(); err != nil {
		return err
	}
	if err := searchWriter.Flush(); err != nil {
		return err
	}

	if err := writeAnchorCounts(settings.Anchors.AnchorCounts, acc.flat); err != nil {
		return err
	}
	if err := anchorindex.BuildFST(ctx, settings.Anchors.AnchorCounts+".fst", acc.flat); err != nil {
		return err
	}

	store, err := surfaceform.Open(settings.Anchors.AnchorCounts + ".bolt")
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.PutMany(anchorindex.ToSurfaceForms(acc.nested)); err != nil {
		return err
	}

	logger.Printf("build complete")
	return nil
}

type aggregate struct {
	flat   anchorindex.Flat
	nested anchorindex.Nested
}

func loadOrBuildIndexMap(logger *log.Logger, cachePath, indexPath string, templatesOnly bool, force bool) (indexmap.Map, error) {
	if !force && fileExists(cachePath) {
		m, err := indexmap.Load(cachePath)
		if err == nil {
			logger.Printf("loaded cached index map %s (%d offsets)", cachePath, len(m))
			return m, nil
		}
		logger.Printf("failed to load cached index map %s, rebuilding: %v", cachePath, err)
	}
	m, err := indexmap.Build(indexPath, templatesOnly)
	if err != nil {
		return nil, err
	}
	if err := indexmap.Write(cachePath, m); err != nil {
		return nil, err
	}
	logger.Printf("built index map %s (%d offsets)", cachePath, len(m))
	return m, nil
}

// scanOffset decodes the single bzip2 sub-stream at offset and fans its
// pages out to every sink in one pass: the anchor TSV, the flat/nested
// anchor-count accumulators, the redirect and template writers, and the
// search-index writer.
func scanOffset(path string, offset int64, anchorsWriter *lockedLineWriter, redirectWriter *redirect.Writer, templateWriter *wikitemplate.Writer, searchWriter *searchindex.Writer) (driver.Partial, error) {
	r, err := multistream.Open(path, offset, false)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	acc := &aggregate{flat: make(anchorindex.Flat), nested: make(anchorindex.Nested)}

	err = wikipage.WalkPages(r, func(p wikipage.RawPage) error {
		if p.HasRedirect {
			if p.RedirectTarget != "" && redirect.IsValidAlias(p.Title) {
				if err := redirectWriter.Add(redirect.Redirect{From: p.Title, To: p.RedirectTarget}); err != nil {
					return err
				}
			}
			return nil
		}
		if wikipage.IsFilteredTitle(p.Title) {
			if isTemplatePage(p.Title) {
				return templateWriter.Add(p.ID, p.Title, p.Body)
			}
			return nil
		}
		if wikipage.IsRedirectBody(p.Body) {
			return nil
		}

		for _, anchor := range wikipage.ExtractAnchors(p.Body) {
			if err := anchorsWriter.writeLine(p.ID, p.Title, anchor.Surface, anchor.Page); err != nil {
				return err
			}
		}
		flat := anchorindex.ExtractFlat(p.Body)
		anchorindex.FoldFlat(acc.flat, flat)
		nested := anchorindex.ExtractNested(p.Body)
		anchorindex.FoldNested(acc.nested, nested)

		doc := searchindex.Document{
			ID:       parseUint(p.ID),
			Title:    p.Title,
			Content:  p.Body,
			Outlinks: searchindex.OutlinksField(p.Body),
		}
		return searchWriter.Add(doc)
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}

func isTemplatePage(title string) bool {
	return len(title) >= len("Template:") && title[:len("Template:")] == "Template:"
}

func parseUint(s string) uint64 {
	n, _ := strconv.ParseUint(s, 10, 64)
	return n
}

func writeAnchorCounts(path string, flat anchorindex.Flat) error {
	f, err := os.Create(path)
	if err != nil {
		return wikierr.Wrap(wikierr.KindIO, err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	for key, count := range flat {
		if count <= 1 {
			continue
		}
		surface, target := anchorindex.SplitKey(key)
		if _, err := w.WriteString(surface); err != nil {
			return wikierr.Wrap(wikierr.KindIO, err)
		}
		if _, err := w.WriteString("\t"); err != nil {
			return wikierr.Wrap(wikierr.KindIO, err)
		}
		if _, err := w.WriteString(target); err != nil {
			return wikierr.Wrap(wikierr.KindIO, err)
		}
		if _, err := w.WriteString("\t"); err != nil {
			return wikierr.Wrap(wikierr.KindIO, err)
		}
		if _, err := w.WriteString(strconv.FormatUint(uint64(count), 10)); err != nil {
			return wikierr.Wrap(wikierr.KindIO, err)
		}
		if _, err := w.WriteString("\n"); err != nil {
			return wikierr.Wrap(wikierr.KindIO, err)
		}
	}
	return wikierr.Wrap(wikierr.KindIO, w.Flush())
}
