package script

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	upper = cases.Upper(language.Und)
	lower = cases.Lower(language.Und)
)

// applyTransform runs a single-value transform. Split is handled by the
// evaluator because it changes the value arity.
func applyTransform(s step, in string, env Env) (string, error) {
	switch s.op {
	case opReplace:
		from, err := s.a.resolve(env)
		if err != nil {
			return "", err
		}
		to, err := s.b.resolve(env)
		if err != nil {
			return "", err
		}
		return strings.ReplaceAll(in, from, to), nil
	case opUppercase:
		return upper.String(in), nil
	case opLowercase:
		return lower.String(in), nil
	case opInsert:
		text, err := s.a.resolve(env)
		if err != nil {
			return "", err
		}
		return insertAt(in, s.n, text), nil
	case opPrepend:
		text, err := s.a.resolve(env)
		if err != nil {
			return "", err
		}
		return text + in, nil
	case opAppend:
		text, err := s.a.resolve(env)
		if err != nil {
			return "", err
		}
		return in + text, nil
	case opDelete:
		text, err := s.a.resolve(env)
		if err != nil {
			return "", err
		}
		return strings.ReplaceAll(in, text, ""), nil
	case opRegexExtract:
		return regexExtract(s, in), nil
	case opRegexReplace:
		repl, err := s.a.resolve(env)
		if err != nil {
			return "", err
		}
		return s.re.ReplaceAllString(in, repl), nil
	case opTrim:
		return strings.TrimSpace(in), nil
	case opSubstring:
		return substring(in, s.n, s.m, s.hasM), nil
	default:
		panic("script: not a transform: " + opName(s.op))
	}
}

// regexExtract returns the first capture group of the first match when the
// pattern has groups, otherwise the whole first match. No match yields "".
func regexExtract(s step, in string) string {
	if s.re.NumSubexp() == 0 {
		return s.re.FindString(in)
	}
	m := s.re.FindStringSubmatch(in)
	if m == nil {
		return ""
	}
	return m[1]
}

// insertAt places text at rune index n, appending when n is past the end.
func insertAt(in string, n int, text string) string {
	runes := []rune(in)
	if n >= len(runes) {
		return in + text
	}
	return string(runes[:n]) + text + string(runes[n:])
}

// substring slices by rune offsets, saturating both bounds so out-of-range
// arguments produce "" rather than an error.
func substring(in string, n, m int, hasM bool) string {
	runes := []rune(in)
	if n >= len(runes) {
		return ""
	}
	if !hasM {
		return string(runes[n:])
	}
	end := n + m
	if end > len(runes) {
		end = len(runes)
	}
	return string(runes[n:end])
}

// checkCondition reports whether the value passes the filter step.
func checkCondition(s step, in string, env Env) (bool, error) {
	switch s.op {
	case opEquals:
		want, err := s.a.resolve(env)
		if err != nil {
			return false, err
		}
		return in == want, nil
	case opRegexMatch:
		return s.re.MatchString(in), nil
	default:
		panic("script: not a condition: " + opName(s.op))
	}
}
