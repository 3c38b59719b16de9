// Package config loads the flat settings table described in
// SPEC_FULL.md §6, mirroring the shape of original_source/src/settings.rs.
package config

import (
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/kthwaite/wikitools/internal/wikierr"
)

// Data locates the raw Wikipedia dump and its multistream index.
type Data struct {
	Dump  string `toml:"dump"`
	Index string `toml:"index"`
}

// Indices names the cached offset->pageids files.
type Indices struct {
	Pages     string `toml:"pages"`
	Templates string `toml:"templates"`
}

// Anchors names the raw anchor dump and its aggregated counts.
type Anchors struct {
	Anchors      string `toml:"anchors"`
	AnchorCounts string `toml:"anchor_counts"`
}

// SearchIndex locates the full-text index directory.
type SearchIndex struct {
	IndexDir string `toml:"index_dir"`
}

// Settings is the flat, fixed-schema configuration table every binary loads.
type Settings struct {
	Data        Data        `toml:"data"`
	Indices     Indices     `toml:"indices"`
	Templates   string      `toml:"templates"`
	Anchors     Anchors     `toml:"anchors"`
	SearchIndex SearchIndex `toml:"search_index"`
}

// Defaults returns a Settings value with every default from SPEC_FULL.md §6
// filled in; callers overlay it with whatever Load or flags provide.
func Defaults() Settings {
	return Settings{
		Indices: Indices{
			Pages:     "indices",
			Templates: "template_indices",
		},
		Templates: "templates.xml",
		Anchors: Anchors{
			Anchors:      "anchors.tsv",
			AnchorCounts: "anchor_counts.tsv",
		},
	}
}

// Load reads and decodes a TOML settings file at path, resolving relative
// path fields against the config file's own directory, and filling in any
// field left unset with its default.
func Load(path string) (*Settings, error) {
	s := Defaults()
	if _, err := toml.DecodeFile(path, &s); err != nil {
		return nil, wikierr.Wrap(wikierr.KindConfig, err)
	}

	if s.Data.Dump == "" {
		return nil, wikierr.Newf(wikierr.KindConfig, "config %s: missing data.dump", path)
	}
	if s.Data.Index == "" {
		return nil, wikierr.Newf(wikierr.KindConfig, "config %s: missing data.index", path)
	}

	dir := filepath.Dir(path)
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	s.Data.Dump = resolve(s.Data.Dump)
	s.Data.Index = resolve(s.Data.Index)
	s.Indices.Pages = resolve(s.Indices.Pages)
	s.Indices.Templates = resolve(s.Indices.Templates)
	s.Templates = resolve(s.Templates)
	s.Anchors.Anchors = resolve(s.Anchors.Anchors)
	s.Anchors.AnchorCounts = resolve(s.Anchors.AnchorCounts)
	s.SearchIndex.IndexDir = resolve(s.SearchIndex.IndexDir)

	return &s, nil
}
