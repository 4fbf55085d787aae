package script

import (
	"fmt"
	"strings"
)

// String renders the pipeline in canonical form. The output parses back to an
// equivalent pipeline, so it is stable for logging and deduplication.
func (p *Pipeline) String() string {
	var b strings.Builder
	for i, s := range p.steps {
		if i > 0 {
			b.WriteByte('.')
		}
		writeStep(&b, s)
	}
	return b.String()
}

// Raw returns the source text the pipeline was compiled from.
func (p *Pipeline) Raw() string {
	return p.raw
}

func writeStep(b *strings.Builder, s step) {
	b.WriteString(opName(s.op))
	b.WriteByte('(')
	switch s.op {
	case opSelect:
		writeQuoted(b, s.rawCSS)
	case opParent, opPrev, opNth:
		fmt.Fprintf(b, "%d", s.n)
	case opAttr, opPrepend, opAppend, opDelete, opSplit, opEquals:
		writeParam(b, s.a)
	case opReplace:
		writeParam(b, s.a)
		b.WriteString(", ")
		writeParam(b, s.b)
	case opInsert:
		fmt.Fprintf(b, "%d, ", s.n)
		writeParam(b, s.a)
	case opRegexExtract, opRegexMatch:
		writeQuoted(b, s.rawRE)
	case opRegexReplace:
		writeQuoted(b, s.rawRE)
		b.WriteString(", ")
		writeParam(b, s.a)
	case opSubstring:
		if s.hasM {
			fmt.Fprintf(b, "%d, %d", s.n, s.m)
		} else {
			fmt.Fprintf(b, "%d", s.n)
		}
	}
	b.WriteByte(')')
}

func writeParam(b *strings.Builder, p Param) {
	if p.dynamic {
		b.WriteString("${")
		b.WriteString(p.text)
		b.WriteByte('}')
		return
	}
	writeQuoted(b, p.text)
}

func writeQuoted(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
}
