// Command query-anchors looks up matching (target, count) pairs for a
// surface form from either an FST map or a bbolt surface-form store.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/kthwaite/wikitools/internal/anchorindex"
	"github.com/kthwaite/wikitools/internal/surfaceform"
	"github.com/kthwaite/wikitools/internal/wikierr"
)

func main() {
	query := flag.String("q", "", "surface form to look up")
	flag.Parse()

	args := flag.Args()
	if len(args) > 1 {
		// flag stops at the first positional argument, so parse the
		// flags that follow <path> as well.
		path := args[0]
		flag.CommandLine.Parse(args[1:])
		args = append([]string{path}, flag.Args()...)
	}
	if *query == "" || len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: query-anchors <path> -q <surface>")
		os.Exit(2)
	}
	path := args[0]
	logger := log.New(os.Stderr, "query-anchors: ", log.LstdFlags)

	if strings.HasSuffix(path, ".fst") {
		fst, err := anchorindex.OpenFST(path)
		if err != nil {
			logger.Print(err)
			os.Exit(wikierr.ExitCode(err))
		}
		defer fst.Close()

		matches, err := fst.PrefixSearch(surfaceform.NormalizeText(*query))
		if err != nil {
			logger.Print(err)
			os.Exit(wikierr.ExitCode(err))
		}
		for _, m := range matches {
			fmt.Printf("%s\t%d\n", m.Page, m.Count)
		}
		return
	}

	store, err := surfaceform.Open(path)
	if err != nil {
		logger.Print(err)
		os.Exit(wikierr.ExitCode(err))
	}
	defer store.Close()

	sf, found, err := store.Get(*query)
	if err != nil {
		logger.Print(err)
		os.Exit(wikierr.ExitCode(err))
	}
	if !found {
		return
	}
	for _, pc := range sf.Anchors {
		fmt.Printf("%s\t%g\n", pc.Page, pc.Count)
	}
}
