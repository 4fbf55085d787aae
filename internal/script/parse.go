package script

import (
	"regexp"

	"github.com/andybalholm/cascadia"
)

// Compile parses and type-checks a script, producing an executable pipeline.
// CSS selectors and regular expressions are compiled eagerly so template
// loading surfaces every syntax error up front.
func Compile(src string) (*Pipeline, error) {
	p := &parser{lex: lexer{input: src}}
	if err := p.advance(); err != nil {
		return nil, err
	}
	var steps []step
	for {
		s, err := p.parseStep()
		if err != nil {
			return nil, err
		}
		steps = append(steps, s)
		if p.tok.kind != tokDot {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if p.tok.kind != tokEOF {
		return nil, errAt(p.tok.offset, "unexpected trailing input")
	}
	if err := checkChain(steps); err != nil {
		return nil, err
	}
	kind := KindValue
	if steps[len(steps)-1].op.isSelector() {
		kind = KindElement
	}
	return &Pipeline{raw: src, kind: kind, steps: steps}, nil
}

// checkChain enforces step ordering: selectors move the cursor until an
// accessor produces a value, then only transforms and conditions may follow.
// A selector directly after a condition restarts the chain from the retained
// elements.
func checkChain(steps []step) error {
	haveValue := false
	for i, s := range steps {
		switch {
		case s.op.isSelector():
			if haveValue && !steps[i-1].op.isCondition() {
				return errAt(s.offset(), "%s: selector not allowed after a value step", opName(s.op))
			}
			haveValue = false
		case s.op.isAccessor():
			if haveValue {
				return errAt(s.offset(), "%s: accessor after a value has been produced", opName(s.op))
			}
			haveValue = true
		default:
			if !haveValue {
				return errAt(s.offset(), "%s: needs a value; add an accessor such as val() first", opName(s.op))
			}
		}
	}
	return nil
}

type parser struct {
	lex lexer
	tok token
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

// arg is one parsed call argument before per-operation validation.
type arg struct {
	offset  int
	isInt   bool
	num     int
	dynamic bool
	text    string
}

func (a arg) param() Param {
	if a.dynamic {
		return variable(a.text)
	}
	return literal(a.text)
}

func (p *parser) parseStep() (step, error) {
	if p.tok.kind != tokIdent {
		return step{}, errAt(p.tok.offset, "expected step name")
	}
	name := p.tok.text
	nameOffset := p.tok.offset
	if err := p.advance(); err != nil {
		return step{}, err
	}
	args, err := p.parseArgs()
	if err != nil {
		return step{}, err
	}
	return buildStep(name, nameOffset, args)
}

func (p *parser) parseArgs() ([]arg, error) {
	if p.tok.kind != tokLParen {
		return nil, errAt(p.tok.offset, "expected ( after step name")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.tok.kind == tokRParen {
		err := p.advance()
		return nil, err
	}
	var args []arg
	for {
		a, err := p.parseArg()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		switch p.tok.kind {
		case tokComma:
			if err := p.advance(); err != nil {
				return nil, err
			}
		case tokRParen:
			return args, p.advance()
		default:
			return nil, errAt(p.tok.offset, "expected , or ) in argument list")
		}
	}
}

func (p *parser) parseArg() (arg, error) {
	tok := p.tok
	switch tok.kind {
	case tokString:
		return arg{offset: tok.offset, text: tok.text}, p.advance()
	case tokInt:
		return arg{offset: tok.offset, isInt: true, num: tok.num}, p.advance()
	case tokDynamic:
		return arg{offset: tok.offset, dynamic: true, text: tok.text}, p.advance()
	default:
		return arg{}, errAt(tok.offset, "expected string, integer, or ${name} argument")
	}
}

var opsByName = map[string]op{
	"select":        opSelect,
	"parent":        opParent,
	"prev":          opPrev,
	"nth":           opNth,
	"html":          opHTML,
	"attr":          opAttr,
	"val":           opVal,
	"replace":       opReplace,
	"uppercase":     opUppercase,
	"lowercase":     opLowercase,
	"insert":        opInsert,
	"prepend":       opPrepend,
	"append":        opAppend,
	"delete":        opDelete,
	"regex_extract": opRegexExtract,
	"regex_replace": opRegexReplace,
	"trim":          opTrim,
	"split":         opSplit,
	"substring":     opSubstring,
	"equals":        opEquals,
	"regex_match":   opRegexMatch,
}

var opNames = func() map[op]string {
	out := make(map[op]string, len(opsByName))
	for name, o := range opsByName {
		out[o] = name
	}
	return out
}()

func opName(o op) string { return opNames[o] }

func buildStep(name string, offset int, args []arg) (step, error) {
	o, ok := opsByName[name]
	if !ok {
		return step{}, errAt(offset, "unknown step %q", name)
	}
	s := step{op: o, at: offset}
	switch o {
	case opSelect:
		lit, err := oneLiteral(name, offset, args)
		if err != nil {
			return step{}, err
		}
		matcher, err := cascadia.ParseGroup(lit)
		if err != nil {
			return step{}, errAt(offset, "select: bad css selector %q: %v", lit, err)
		}
		s.rawCSS = lit
		s.matcher = matcher
	case opParent, opPrev, opNth:
		n, err := oneInt(name, offset, args)
		if err != nil {
			return step{}, err
		}
		if n < 1 {
			return step{}, errAt(offset, "%s: count must be at least 1, got %d", name, n)
		}
		s.n = n
	case opHTML, opVal, opUppercase, opLowercase, opTrim:
		if len(args) != 0 {
			return step{}, errAt(offset, "%s: takes no arguments", name)
		}
	case opAttr, opPrepend, opAppend, opDelete, opSplit, opEquals:
		a, err := oneParam(name, offset, args)
		if err != nil {
			return step{}, err
		}
		s.a = a
	case opReplace:
		a, b, err := twoParams(name, offset, args)
		if err != nil {
			return step{}, err
		}
		s.a, s.b = a, b
	case opInsert:
		if len(args) != 2 || !args[0].isInt || args[1].isInt {
			return step{}, errAt(offset, "insert: needs an index and a string")
		}
		if args[0].num < 0 {
			return step{}, errAt(offset, "insert: index must not be negative")
		}
		s.n = args[0].num
		s.a = args[1].param()
	case opRegexExtract, opRegexMatch:
		re, raw, err := oneRegex(name, offset, args)
		if err != nil {
			return step{}, err
		}
		s.re, s.rawRE = re, raw
	case opRegexReplace:
		if len(args) != 2 || args[0].isInt || args[0].dynamic || args[1].isInt {
			return step{}, errAt(offset, "regex_replace: needs a pattern literal and a replacement string")
		}
		re, err := regexp.Compile(args[0].text)
		if err != nil {
			return step{}, errAt(offset, "regex_replace: bad pattern %q: %v", args[0].text, err)
		}
		s.re, s.rawRE = re, args[0].text
		s.a = args[1].param()
	case opSubstring:
		switch len(args) {
		case 1:
			if !args[0].isInt {
				return step{}, errAt(offset, "substring: offset must be an integer")
			}
			s.n = args[0].num
		case 2:
			if !args[0].isInt || !args[1].isInt {
				return step{}, errAt(offset, "substring: offset and length must be integers")
			}
			s.n, s.m, s.hasM = args[0].num, args[1].num, true
		default:
			return step{}, errAt(offset, "substring: needs one or two integers")
		}
		if s.n < 0 || (s.hasM && s.m < 0) {
			return step{}, errAt(offset, "substring: arguments must not be negative")
		}
	}
	return s, nil
}

func oneLiteral(name string, offset int, args []arg) (string, error) {
	if len(args) != 1 || args[0].isInt || args[0].dynamic {
		return "", errAt(offset, "%s: needs one string literal", name)
	}
	return args[0].text, nil
}

func oneRegex(name string, offset int, args []arg) (*regexp.Regexp, string, error) {
	lit, err := oneLiteral(name, offset, args)
	if err != nil {
		return nil, "", err
	}
	re, err := regexp.Compile(lit)
	if err != nil {
		return nil, "", errAt(offset, "%s: bad pattern %q: %v", name, lit, err)
	}
	return re, lit, nil
}

func oneInt(name string, offset int, args []arg) (int, error) {
	if len(args) != 1 || !args[0].isInt {
		return 0, errAt(offset, "%s: needs one integer", name)
	}
	return args[0].num, nil
}

func oneParam(name string, offset int, args []arg) (Param, error) {
	if len(args) != 1 || args[0].isInt {
		return Param{}, errAt(offset, "%s: needs one string argument", name)
	}
	return args[0].param(), nil
}

func twoParams(name string, offset int, args []arg) (Param, Param, error) {
	if len(args) != 2 || args[0].isInt || args[1].isInt {
		return Param{}, Param{}, errAt(offset, "%s: needs two string arguments", name)
	}
	return args[0].param(), args[1].param(), nil
}
