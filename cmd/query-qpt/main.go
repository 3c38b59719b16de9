// Command query-qpt performs ad-hoc lookups against a bbolt surface-form
// store, named for the original qpt (query-page-trie) tool it replaces.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/kthwaite/wikitools/internal/surfaceform"
	"github.com/kthwaite/wikitools/internal/wikierr"
)

func main() {
	db := flag.String("db", "", "path to the bbolt surface-form store")
	key := flag.String("key", "", "surface form to look up")
	flag.Parse()

	if *db == "" || *key == "" {
		fmt.Fprintln(os.Stderr, "usage: query-qpt -db <path> -key <surface>")
		os.Exit(2)
	}

	logger := log.New(os.Stderr, "query-qpt: ", log.LstdFlags)

	store, err := surfaceform.Open(*db)
	if err != nil {
		logger.Print(err)
		os.Exit(wikierr.ExitCode(err))
	}
	defer store.Close()

	sf, found, err := store.Get(*key)
	if err != nil {
		logger.Print(err)
		os.Exit(wikierr.ExitCode(err))
	}
	if !found {
		fmt.Fprintf(os.Stderr, "not found: %s\n", *key)
		os.Exit(1)
	}
	fmt.Printf("text: %s\n", sf.Text)
	fmt.Printf("wiki_occurrences: %g\n", sf.WikiOccurrences)
	for _, pc := range sf.Anchors {
		fmt.Printf("  %s\t%g\n", pc.Page, pc.Count)
	}
}
