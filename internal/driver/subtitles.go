package driver

import (
	"sort"
	"strings"

	"github.com/karrick/godirwalk"

	"javtidy/internal/lockfile"
	"javtidy/internal/nameparse"
)

// findSubtitles walks the input tree for subtitle files whose embedded
// catalog ID loosely matches id. Matching ignores case, separators, and
// anything that is not a letter or digit, so "ipx001.chs.srt" pairs with
// IPX-001.
func (d *Driver) findSubtitles(id, source string) ([]string, error) {
	want := nameparse.NormalizeLoose(id)
	if want == "" {
		return nil, nil
	}
	exts := make(map[string]bool, len(d.cfg.Subtitles.Extensions))
	for _, ext := range d.cfg.Subtitles.Extensions {
		exts["."+strings.ToLower(ext)] = true
	}

	var matches []string
	err := godirwalk.Walk(d.cfg.Paths.InputDir, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() || path == source {
				return nil
			}
			if strings.HasSuffix(path, lockfile.Suffix) {
				return nil
			}
			dot := strings.LastIndexByte(path, '.')
			if dot < 0 || !exts[strings.ToLower(path[dot:])] {
				return nil
			}
			sid, ok := d.parser.Extract(path)
			if !ok || nameparse.NormalizeLoose(sid) != want {
				return nil
			}
			matches = append(matches, path)
			return nil
		},
		ErrorCallback: func(string, error) godirwalk.ErrorAction {
			return godirwalk.SkipNode
		},
	})
	if err != nil {
		return matches, err
	}
	sort.Strings(matches)
	return matches, nil
}
