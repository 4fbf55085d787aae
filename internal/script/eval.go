package script

import (
	"fmt"
	"strings"

	"javtidy/internal/htmldom"
)

// pair is one evaluation thread: the element the chain is positioned on plus
// the values produced so far. Conditions drop whole pairs, split widens vals.
type pair struct {
	vals []string
	cur  htmldom.Cursor
}

// EvaluateElements runs an element pipeline from start and returns the
// matched elements in document order.
func (p *Pipeline) EvaluateElements(start htmldom.Cursor, env Env) ([]htmldom.Cursor, error) {
	if p.kind != KindElement {
		return nil, fmt.Errorf("script %q: not an element pipeline", p.String())
	}
	pairs, _, err := p.run(start, env)
	if err != nil {
		return nil, err
	}
	out := make([]htmldom.Cursor, 0, len(pairs))
	for _, pr := range pairs {
		if !pr.cur.IsEmpty() {
			out = append(out, pr.cur)
		}
	}
	return out, nil
}

// EvaluateValues runs a value pipeline from start. The second result reports
// whether the pipeline emitted at all: a selector that matches nothing still
// emits a single empty string, but a failed condition suppresses the output
// entirely.
func (p *Pipeline) EvaluateValues(start htmldom.Cursor, env Env) ([]string, bool, error) {
	if p.kind != KindValue {
		return nil, false, fmt.Errorf("script %q: not a value pipeline", p.String())
	}
	pairs, filtered, err := p.run(start, env)
	if err != nil {
		return nil, false, err
	}
	if len(pairs) == 0 {
		if filtered {
			return nil, false, nil
		}
		return []string{""}, true, nil
	}
	var out []string
	for _, pr := range pairs {
		out = append(out, pr.vals...)
	}
	return out, true, nil
}

func (p *Pipeline) run(start htmldom.Cursor, env Env) ([]pair, bool, error) {
	pairs := []pair{{cur: start}}
	filtered := false
	for _, s := range p.steps {
		switch {
		case s.op == opSelect:
			var next []pair
			for _, pr := range pairs {
				for _, c := range pr.cur.Select(s.matcher) {
					next = append(next, pair{vals: pr.vals, cur: c})
				}
			}
			pairs = next
		case s.op.isSelector():
			for i := range pairs {
				c, err := moveCursor(s, pairs[i].cur)
				if err != nil {
					return nil, false, err
				}
				pairs[i].cur = c
			}
		case s.op.isAccessor():
			for i := range pairs {
				v, err := access(s, pairs[i].cur, env)
				if err != nil {
					return nil, false, err
				}
				pairs[i].vals = []string{v}
			}
		case s.op == opSplit:
			sep, err := s.a.resolve(env)
			if err != nil {
				return nil, false, err
			}
			for i := range pairs {
				var widened []string
				for _, v := range pairs[i].vals {
					widened = append(widened, strings.Split(v, sep)...)
				}
				pairs[i].vals = widened
			}
		case s.op.isTransform():
			for i := range pairs {
				for j, v := range pairs[i].vals {
					nv, err := applyTransform(s, v, env)
					if err != nil {
						return nil, false, err
					}
					pairs[i].vals[j] = nv
				}
			}
		case s.op.isCondition():
			var next []pair
			for _, pr := range pairs {
				kept := pr.vals[:0:0]
				for _, v := range pr.vals {
					ok, err := checkCondition(s, v, env)
					if err != nil {
						return nil, false, err
					}
					if ok {
						kept = append(kept, v)
					}
				}
				if len(kept) == 0 {
					filtered = true
					continue
				}
				pr.vals = kept
				next = append(next, pr)
			}
			pairs = next
		}
	}
	return pairs, filtered, nil
}

func moveCursor(s step, c htmldom.Cursor) (htmldom.Cursor, error) {
	switch s.op {
	case opParent:
		return c.Parent(s.n)
	case opPrev:
		return c.Prev(s.n)
	default:
		return c.Nth(s.n)
	}
}

func access(s step, c htmldom.Cursor, env Env) (string, error) {
	switch s.op {
	case opHTML:
		return c.HTML(), nil
	case opVal:
		return c.Text(), nil
	default:
		name, err := s.a.resolve(env)
		if err != nil {
			return "", err
		}
		return c.Attr(name), nil
	}
}
