package language

import (
	"path/filepath"
	"strings"
)

type entry struct {
	tag     string   // normalized tag used in sidecar subtitle names
	aliases []string // filename tokens that select this tag
}

var languages = []entry{
	{"zh-CN", []string{"zh-cn", "zhcn", "chs", "sc", "gb", "chi", "chinese"}},
	{"zh-TW", []string{"zh-tw", "zhtw", "cht", "tc", "big5"}},
	{"en", []string{"en", "eng", "english"}},
	{"ja", []string{"ja", "jp", "jpn", "japanese"}},
	{"ko", []string{"ko", "kr", "kor", "korean"}},
	{"es", []string{"es", "spa", "spanish"}},
	{"fr", []string{"fr", "fra", "fre", "french"}},
	{"de", []string{"de", "deu", "ger", "german"}},
	{"pt", []string{"pt", "por", "portuguese"}},
	{"ru", []string{"ru", "rus", "russian"}},
}

var byAlias map[string]string

func init() {
	byAlias = make(map[string]string, len(languages)*4)
	for _, e := range languages {
		for _, alias := range e.aliases {
			byAlias[alias] = e.tag
		}
	}
}

// Normalize maps a language token to its canonical tag. Returns empty string
// for unrecognized input.
func Normalize(token string) string {
	return byAlias[strings.ToLower(strings.TrimSpace(token))]
}

// FromFileName inspects the dotted tokens of a subtitle file name for a
// language hint, for example "ipx001.chs.srt" yields "zh-CN". The extension
// itself is never treated as a hint. Returns empty string when no token is
// recognized.
func FromFileName(name string) string {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	parts := strings.Split(base, ".")
	for i := len(parts) - 1; i > 0; i-- {
		if tag := Normalize(parts[i]); tag != "" {
			return tag
		}
	}
	return ""
}
