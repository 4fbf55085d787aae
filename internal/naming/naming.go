// Package naming computes destination paths from metadata records and the
// configured naming template.
package naming

import (
	"fmt"
	"path"
	"strings"

	"javtidy/internal/record"
)

// Strategy decides how additional actors beyond the first are handled.
type Strategy string

const (
	// FirstOnly files the video under the first actor and ignores the rest.
	FirstOnly Strategy = "first_only"
	// Merge joins all actor names with " & " into one path segment.
	Merge Strategy = "merge"
	// Symlink files under the first actor and symlinks the others.
	Symlink Strategy = "symlink"
	// Hardlink files under the first actor and hardlinks the others,
	// falling back to symlinks where hardlinks are unsupported.
	Hardlink Strategy = "hardlink"
)

// ParseStrategy validates a configured strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case FirstOnly, Merge, Symlink, Hardlink:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("naming: unknown multi-actor strategy %q", s)
	}
}

const unknown = "Unknown"

// Plan is one computed layout: where the video goes and which alternative
// actor paths should link to it.
type Plan struct {
	// Dir is the destination directory relative to the output root. May be
	// "." when the template has no separators.
	Dir string
	// Stem is the destination filename without extension.
	Stem string
	// Links are alternative relative paths (dir + stem, no extension) that
	// should point at the primary file, one per additional actor.
	Links []Plan
}

// Rel returns the plan's relative path with the given extension appended.
func (p Plan) Rel(ext string) string {
	return path.Join(p.Dir, p.Stem+ext)
}

// Layout renders naming templates like "$actor$/$id$".
type Layout struct {
	template string
	strategy Strategy
}

// New validates the template and returns a layout. The template must produce
// a non-empty stem.
func New(template string, strategy Strategy) (*Layout, error) {
	if strings.TrimSpace(template) == "" {
		return nil, fmt.Errorf("naming: empty template")
	}
	if strings.HasSuffix(template, "/") {
		return nil, fmt.Errorf("naming: template %q ends in a separator", template)
	}
	return &Layout{template: template, strategy: strategy}, nil
}

// Plan computes the layout for rec. Missing variables render as "Unknown";
// substituted values are scrubbed of path-hostile characters.
func (l *Layout) Plan(rec *record.Record) Plan {
	primary := l.render(rec, actorSegment(rec, l.strategy, 0))
	if l.strategy != Symlink && l.strategy != Hardlink {
		return primary
	}
	for i := 1; i < len(rec.Actors); i++ {
		alt := l.render(rec, actorSegment(rec, l.strategy, i))
		if alt.Dir == primary.Dir && alt.Stem == primary.Stem {
			continue
		}
		primary.Links = append(primary.Links, alt)
	}
	return primary
}

func actorSegment(rec *record.Record, strategy Strategy, index int) string {
	if len(rec.Actors) == 0 {
		return ""
	}
	if strategy == Merge {
		names := make([]string, len(rec.Actors))
		for i, a := range rec.Actors {
			names[i] = a.Name
		}
		return strings.Join(names, " & ")
	}
	return rec.Actors[index].Name
}

func (l *Layout) render(rec *record.Record, actorValue string) Plan {
	vars := map[string]string{
		"id":             rec.ID,
		"title":          rec.Title,
		"original_title": rec.OriginalTitle,
		"year":           rec.Year,
		"series":         rec.Series,
		"actor":          actorValue,
		"director":       rec.Director,
		"studio":         rec.Studio,
		"genre":          firstOf(rec.Genres),
	}
	segments := strings.Split(l.template, "/")
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		rendered := scrub(substitute(seg, vars))
		if rendered == "" {
			rendered = unknown
		}
		out = append(out, rendered)
	}
	stem := out[len(out)-1]
	dir := path.Join(out[:len(out)-1]...)
	if dir == "" {
		dir = "."
	}
	return Plan{Dir: dir, Stem: stem}
}

func firstOf(values []string) string {
	if len(values) > 0 {
		return values[0]
	}
	return ""
}

// substitute replaces $name$ variables; unknown or empty variables become
// "Unknown".
func substitute(segment string, vars map[string]string) string {
	var b strings.Builder
	for {
		open := strings.IndexByte(segment, '$')
		if open < 0 {
			b.WriteString(segment)
			return b.String()
		}
		end := strings.IndexByte(segment[open+1:], '$')
		if end < 0 {
			b.WriteString(segment)
			return b.String()
		}
		name := segment[open+1 : open+1+end]
		b.WriteString(segment[:open])
		value, ok := vars[name]
		if !ok || strings.TrimSpace(value) == "" {
			value = unknown
		}
		b.WriteString(value)
		segment = segment[open+end+2:]
	}
}

// scrub removes characters that are unsafe in path segments on common
// filesystems, plus control characters, and trims trailing dots and spaces.
func scrub(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r < 0x20:
		case strings.ContainsRune(`/\:*?"<>|`, r):
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), " .")
}
