// Command query-index prints the document frequency of an exact phrase
// against a built search index.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/kthwaite/wikitools/internal/searchindex"
	"github.com/kthwaite/wikitools/internal/wikierr"
)

func main() {
	indexDir := flag.String("index", "", "path to the search index directory")
	flag.Parse()

	args := flag.Args()
	if *indexDir == "" || len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: query-index -index <dir> <query>")
		os.Exit(2)
	}
	query := strings.Join(args, " ")

	logger := log.New(os.Stderr, "query-index: ", log.LstdFlags)

	reader, err := searchindex.OpenReader(*indexDir)
	if err != nil {
		logger.Print(err)
		os.Exit(wikierr.ExitCode(err))
	}
	defer reader.Close()

	df, err := reader.DF(query)
	if err != nil {
		logger.Print(err)
		os.Exit(wikierr.ExitCode(err))
	}
	fmt.Println(df)
}
