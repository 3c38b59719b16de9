// Command query-tagme disambiguates entity mentions in a short text
// fragment via the TAGME engine (SPEC_FULL.md §4.10).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/kthwaite/wikitools/internal/searchindex"
	"github.com/kthwaite/wikitools/internal/surfaceform"
	"github.com/kthwaite/wikitools/internal/tagme"
	"github.com/kthwaite/wikitools/internal/wikierr"
)

func main() {
	text := flag.String("q", "", "text to disambiguate")
	file := flag.String("f", "", "file containing text to disambiguate")
	rho := flag.Float64("rho", 0.0, "rho-prune threshold")
	storePath := flag.String("store", "", "path to the surface-form bbolt store")
	indexDir := flag.String("index", "", "path to the search index directory")

	linkProbThreshold := flag.Float64("link-probability-threshold", float64(tagme.DefaultParams().LinkProbabilityThreshold), "")
	candMentionThreshold := flag.Float64("candidate-mention-threshold", float64(tagme.DefaultParams().CandidateMentionThreshold), "")
	kTh := flag.Float64("k-th", float64(tagme.DefaultParams().KTh), "")
	ngramMin := flag.Int("ngram-min", tagme.DefaultParams().NgramMin, "")
	ngramMax := flag.Int("ngram-max", tagme.DefaultParams().NgramMax, "")
	flag.Parse()

	logger := log.New(os.Stderr, "query-tagme: ", log.LstdFlags)

	input := *text
	if input == "" && *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			logger.Print(err)
			os.Exit(wikierr.ExitCode(wikierr.Wrap(wikierr.KindIO, err)))
		}
		input = string(data)
	}
	if input == "" || *storePath == "" || *indexDir == "" {
		fmt.Fprintln(os.Stderr, "usage: query-tagme -store <path> -index <dir> (-q <text> | -f <file>) [-rho <float>]")
		os.Exit(2)
	}

	store, err := surfaceform.Open(*storePath)
	if err != nil {
		logger.Print(err)
		os.Exit(wikierr.ExitCode(err))
	}
	defer store.Close()

	reader, err := searchindex.OpenReader(*indexDir)
	if err != nil {
		logger.Print(err)
		os.Exit(wikierr.ExitCode(err))
	}
	defer reader.Close()

	params := tagme.Params{
		LinkProbabilityThreshold:  float32(*linkProbThreshold),
		CandidateMentionThreshold: float32(*candMentionThreshold),
		KTh:                       float32(*kTh),
		NgramMin:                  *ngramMin,
		NgramMax:                  *ngramMax,
	}
	engine := tagme.NewEngine(store, reader, params)

	tagged, err := engine.Query(context.Background(), input, float32(*rho))
	if err != nil {
		logger.Print(err)
		os.Exit(wikierr.ExitCode(err))
	}
	for _, t := range tagged {
		fmt.Printf("%s\t%s\t%g\n", t.Mention, t.Entity, t.Rho)
	}
}
