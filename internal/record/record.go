// Package record turns raw workflow results into the fixed metadata schema
// the sidecar and naming layers consume.
package record

import (
	"errors"
	"sort"
	"strings"

	"javtidy/internal/template"
)

// ErrIncomplete reports that a scrape produced no usable title. The driver
// treats it as template exhaustion, not a failure.
var ErrIncomplete = errors.New("record: required field missing")

// Actor is one performer credit.
type Actor struct {
	Name string
	Role string
}

// Record is the fixed metadata schema. ID and Title are required, everything
// else is optional and omitted from the sidecar when blank.
type Record struct {
	ID            string
	Title         string
	OriginalTitle string
	Year          string
	Studio        string
	Series        string
	Director      string
	Plot          string
	CoverURL      string
	Actors        []Actor
	Genres        []string
	PreviewURLs   []string
}

// field names recognized at any depth of the result tree. A path binds to the
// schema slot of its final segment; unknown segments are dropped.
const (
	fieldTitle         = "title"
	fieldOriginalTitle = "original_title"
	fieldYear          = "year"
	fieldStudio        = "studio"
	fieldSeries        = "series"
	fieldDirector      = "director"
	fieldPlot          = "plot"
	fieldCover         = "cover"
	fieldActor         = "actor"
	fieldGenre         = "genre"
	fieldTag           = "tag"
	fieldPreview       = "preview"
)

// FromResult builds a record for catalog ID id from one workflow result.
// Scalar fields take the first non-blank value, list fields keep document
// order with blanks dropped and duplicates removed.
func FromResult(id string, res template.Result) (*Record, error) {
	rec := &Record{ID: id}
	for _, path := range sortedPaths(res) {
		values := res[path]
		switch lastSegment(path) {
		case fieldTitle:
			setScalar(&rec.Title, values)
		case fieldOriginalTitle:
			setScalar(&rec.OriginalTitle, values)
		case fieldYear:
			setScalar(&rec.Year, values)
		case fieldStudio:
			setScalar(&rec.Studio, values)
		case fieldSeries:
			setScalar(&rec.Series, values)
		case fieldDirector:
			setScalar(&rec.Director, values)
		case fieldPlot:
			setScalar(&rec.Plot, values)
		case fieldCover:
			setScalar(&rec.CoverURL, values)
		case fieldActor:
			for _, v := range clean(values) {
				rec.Actors = append(rec.Actors, Actor{Name: v})
			}
		case fieldGenre, fieldTag:
			rec.Genres = append(rec.Genres, clean(values)...)
		case fieldPreview:
			rec.PreviewURLs = append(rec.PreviewURLs, clean(values)...)
		}
	}
	rec.Actors = dedupeActors(rec.Actors)
	rec.Genres = dedupe(rec.Genres)
	rec.PreviewURLs = dedupe(rec.PreviewURLs)
	if strings.TrimSpace(rec.Title) == "" {
		return nil, ErrIncomplete
	}
	return rec, nil
}

// sortedPaths keeps shallow bindings ahead of deep ones so a top-level title
// wins over one nested in a request branch, with ties broken lexically for
// deterministic output.
func sortedPaths(res template.Result) []string {
	paths := make([]string, 0, len(res))
	for p := range res {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool { return pathLess(paths[i], paths[j]) })
	return paths
}

func pathLess(a, b string) bool {
	da, db := strings.Count(a, "."), strings.Count(b, ".")
	if da != db {
		return da < db
	}
	return a < b
}

func lastSegment(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i+1:]
	}
	return path
}

func setScalar(dst *string, values []string) {
	if *dst != "" {
		return
	}
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
			return
		}
	}
}

func clean(values []string) []string {
	out := values[:0:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := values[:0:0]
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func dedupeActors(actors []Actor) []Actor {
	seen := make(map[string]bool, len(actors))
	out := actors[:0:0]
	for _, a := range actors {
		if !seen[a.Name] {
			seen[a.Name] = true
			out = append(out, a)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
