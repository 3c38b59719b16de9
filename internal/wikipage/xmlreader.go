package wikipage

import (
	"encoding/xml"
	"io"

	"github.com/kthwaite/wikitools/internal/wikierr"
)

// RawPage is the intermediate value the shared XML state machine
// produces for every <page> element, before any of the three
// projections in SPEC_FULL.md §4.3 apply their filtering and shaping.
type RawPage struct {
	ID             string
	Title          string
	HasRedirect    bool
	RedirectTarget string
	Body           string
}

// WalkPages drives one pull-based pass over r, a stream of <page>
// elements (such as a decompressed MultiStream sub-stream), invoking fn
// once per complete page. Malformed XML terminates the walk at the
// current position without panicking; partial pages are never emitted.
// This is the single state machine behind EachPage, EachRawPage, and
// EachTantivyDoc: all filtering rules live in the callers of
// WalkPages, never here.
func WalkPages(r io.Reader, fn func(RawPage) error) error {
	dec := xml.NewDecoder(r)

	var (
		inPage    bool
		depth     int // element depth within <page>, to disambiguate <title> etc.
		cur       RawPage
		titleDone bool
		idDone    bool
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			// Malformed XML: stop the sequence here, do not propagate a
			// fatal error for what is a per-offset "parse" kind failure.
			return wikierr.Wrap(wikierr.KindParse, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case t.Name.Local == "page" && !inPage:
				inPage = true
				depth = 0
				cur = RawPage{}
				titleDone, idDone = false, false
			case inPage:
				depth++
				switch t.Name.Local {
				case "redirect":
					cur.HasRedirect = true
					for _, attr := range t.Attr {
						if attr.Name.Local == "title" {
							cur.RedirectTarget = attr.Value
						}
					}
				case "text":
					var body string
					if err := dec.DecodeElement(&body, &t); err != nil {
						return wikierr.Wrap(wikierr.KindParse, err)
					}
					cur.Body = body
					depth--
				case "title":
					if !titleDone {
						var title string
						if err := dec.DecodeElement(&title, &t); err != nil {
							return wikierr.Wrap(wikierr.KindParse, err)
						}
						cur.Title = title
						titleDone = true
						depth--
					}
				case "id":
					if !idDone && depth == 1 {
						var id string
						if err := dec.DecodeElement(&id, &t); err != nil {
							return wikierr.Wrap(wikierr.KindParse, err)
						}
						cur.ID = id
						idDone = true
						depth--
					}
				}
			}

		case xml.EndElement:
			if inPage {
				if t.Name.Local == "page" {
					if err := fn(cur); err != nil {
						return err
					}
					inPage = false
				} else if depth > 0 {
					depth--
				}
			}
		}
	}
}
