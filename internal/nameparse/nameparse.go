// Package nameparse extracts canonical catalog IDs from video filenames.
package nameparse

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	fc2RE    = regexp.MustCompile(`FC2-?PPV-?(\d+)`)
	dashedRE = regexp.MustCompile(`([A-Z]+)-(\d+)`)
	bareRE   = regexp.MustCompile(`([A-Z]+?)(\d+)`)
	sepRE    = regexp.MustCompile(`[^A-Za-z0-9]+`)
)

// Parser normalizes filenames and matches them against the recognized
// catalog-ID shapes.
type Parser struct {
	strips []*regexp.Regexp
}

// New builds a parser that removes the given substrings (case-insensitive)
// before matching. Typical strips are release-group tags and quality markers.
func New(strips []string) *Parser {
	p := &Parser{}
	for _, s := range strips {
		if s == "" {
			continue
		}
		p.strips = append(p.strips, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(s)))
	}
	return p
}

// Extract returns the canonical catalog ID for path's basename, or ok=false
// when no recognized shape is present. Recognition order: FC2-PPV releases,
// then LETTERS-DIGITS, then bare LETTERSDIGITS which gains the dash.
func (p *Parser) Extract(path string) (string, bool) {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	for _, re := range p.strips {
		name = re.ReplaceAllString(name, "")
	}
	name = sepRE.ReplaceAllString(name, "-")
	name = strings.ToUpper(strings.Trim(name, "-"))

	if m := fc2RE.FindStringSubmatch(name); m != nil {
		return "FC2-PPV-" + m[1], true
	}
	if m := dashedRE.FindStringSubmatch(name); m != nil {
		return m[1] + "-" + m[2], true
	}
	if m := bareRE.FindStringSubmatch(name); m != nil {
		return m[1] + "-" + m[2], true
	}
	return "", false
}

// NormalizeLoose lowercases and drops everything but letters and digits.
// Subtitle files are matched to videos by comparing this form of their IDs.
func NormalizeLoose(id string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(id) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
