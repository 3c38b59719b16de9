package tagme

import (
	"regexp"
	"strings"
)

var (
	illegalChars = regexp.MustCompile(`[^A-Za-z0-9]+`)
	multiWS      = regexp.MustCompile(`\r\n|\r|\n|\s{2,}`)
)

// Preprocess replaces every run of non-alphanumeric characters with a
// single space, collapses whitespace runs, and lowercases — the query
// preprocessing step of SPEC_FULL.md §4.10.
func Preprocess(input string) string {
	out := illegalChars.ReplaceAllString(input, " ")
	out = multiWS.ReplaceAllString(out, " ")
	return strings.ToLower(out)
}

func splitWords(s string) []string {
	return strings.Fields(s)
}

// Ngrams enumerates every contiguous n-gram of word-length n
// (min <= n <= max) from the preprocessed query.
func Ngrams(preprocessed string, min, max int) []string {
	words := splitWords(preprocessed)
	var out []string
	for n := min; n <= max && n <= len(words); n++ {
		for i := 0; i+n <= len(words); i++ {
			out = append(out, strings.Join(words[i:i+n], " "))
		}
	}
	return out
}
