package script

import (
	"fmt"
	"regexp"

	"github.com/andybalholm/cascadia"
)

// Kind is the static type of a compiled pipeline.
type Kind int

const (
	// KindElement pipelines end on a selector step and produce cursors.
	KindElement Kind = iota
	// KindValue pipelines produce a string (or a list after split).
	KindValue
)

func (k Kind) String() string {
	if k == KindElement {
		return "element"
	}
	return "value"
}

type op int

const (
	opSelect op = iota
	opParent
	opPrev
	opNth

	opHTML
	opAttr
	opVal

	opReplace
	opUppercase
	opLowercase
	opInsert
	opPrepend
	opAppend
	opDelete
	opRegexExtract
	opRegexReplace
	opTrim
	opSplit
	opSubstring

	opEquals
	opRegexMatch
)

func (o op) isSelector() bool  { return o >= opSelect && o <= opNth }
func (o op) isAccessor() bool  { return o >= opHTML && o <= opVal }
func (o op) isTransform() bool { return o >= opReplace && o <= opSubstring }
func (o op) isCondition() bool { return o == opEquals || o == opRegexMatch }

// Param is a script argument: either a literal or a ${name} placeholder.
type Param struct {
	dynamic bool
	text    string
}

func literal(text string) Param  { return Param{text: text} }
func variable(name string) Param { return Param{dynamic: true, text: name} }

func (p Param) resolve(env Env) (string, error) {
	if !p.dynamic {
		return p.text, nil
	}
	return env.Resolve(p.text)
}

// step is the tagged variant shared by all four step kinds. The evaluator
// switches on op; unused fields stay zero.
type step struct {
	op      op
	at      int
	n       int
	m       int
	hasM    bool
	a       Param
	b       Param
	rawCSS  string
	matcher cascadia.SelectorGroup
	re      *regexp.Regexp
	rawRE   string
}

func (s step) offset() int { return s.at }

// Pipeline is a compiled script.
type Pipeline struct {
	raw   string
	kind  Kind
	steps []step
}

// Kind reports whether the pipeline produces elements or values.
func (p *Pipeline) Kind() Kind {
	return p.kind
}

// Env maps placeholder names to their runtime values.
type Env map[string][]string

// Clone returns a shallow copy with independent value slices.
func (e Env) Clone() Env {
	out := make(Env, len(e))
	for name, values := range e {
		cp := make([]string, len(values))
		copy(cp, values)
		out[name] = cp
	}
	return out
}

// Bind appends values under name.
func (e Env) Bind(name string, values ...string) {
	e[name] = append(e[name], values...)
}

// Resolve returns the single value bound to name. Zero bindings or more than
// one binding are runtime errors per the placeholder contract.
func (e Env) Resolve(name string) (string, error) {
	values := e[name]
	if len(values) == 0 {
		return "", fmt.Errorf("placeholder ${%s}: no value bound", name)
	}
	if len(values) > 1 {
		return "", fmt.Errorf("placeholder ${%s}: %d values bound, need exactly one", name, len(values))
	}
	return values[0], nil
}
