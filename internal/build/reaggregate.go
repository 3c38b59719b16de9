package build

import (
	"context"
	"log"

	"github.com/kthwaite/wikitools/internal/anchorindex"
	"github.com/kthwaite/wikitools/internal/config"
	"github.com/kthwaite/wikitools/internal/surfaceform"
)

// reaggregateChunkSize is the target byte-range size chunker.ChunkFile
// splits the anchors TSV into for the secondary aggregator.
const reaggregateChunkSize = 64 << 20 // 64 MiB

// Reaggregate re-derives the anchor-count FST and surface-form store from
// an already-dumped anchors TSV (settings.Anchors.Anchors) without
// re-scanning the multistream dump — SPEC_FULL.md §4.6's secondary
// aggregator, for refreshing AnchorCounts after a filter/fold change.
func Reaggregate(ctx context.Context, logger *log.Logger, settings *config.Settings, workers int) error {
	flat, nested, err := anchorindex.Reaggregate(ctx, logger, settings.Anchors.Anchors, reaggregateChunkSize, workers)
	if err != nil {
		return err
	}

	if err := writeAnchorCounts(settings.Anchors.AnchorCounts, flat); err != nil {
		return err
	}
	if err := anchorindex.BuildFST(ctx, settings.Anchors.AnchorCounts+".fst", flat); err != nil {
		return err
	}

	store, err := surfaceform.Open(settings.Anchors.AnchorCounts + ".bolt")
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.PutMany(anchorindex.ToSurfaceForms(nested)); err != nil {
		return err
	}

	logger.Printf("reaggregation complete")
	return nil
}
