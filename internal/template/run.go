package template

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"javtidy/internal/htmldom"
	"javtidy/internal/script"
)

// ErrNoMatch reports that the root node matched nothing in the entry
// document. The caller moves on to the next template.
var ErrNoMatch = errors.New("template: root node matched nothing")

// Fetcher retrieves and parses one document. Implementations own retry
// policy; a returned error is treated as a soft miss inside the tree and as a
// template failure at the entrypoint.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*htmldom.Document, error)
}

// Result maps dotted node paths (main.detail.title) to extracted values in
// document order. A path bound to [""] is present but blank; a path that is
// missing entirely was suppressed or never matched.
type Result map[string][]string

// First returns the first value bound under path, or "".
func (r Result) First(path string) string {
	if vs := r[path]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

var placeholderRE = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// RenderEntrypoint substitutes every ${var} in the entrypoint from env. Each
// placeholder must resolve to exactly one value.
func (w *Workflow) RenderEntrypoint(env script.Env) (string, error) {
	var resolveErr error
	url := placeholderRE.ReplaceAllStringFunc(w.Entrypoint, func(m string) string {
		name := m[2 : len(m)-1]
		v, err := env.Resolve(name)
		if err != nil && resolveErr == nil {
			resolveErr = fmt.Errorf("template %s: entrypoint: %w", w.Name, err)
		}
		return v
	})
	if resolveErr != nil {
		return "", resolveErr
	}
	return url, nil
}

// Run executes the workflow. bindings are layered over the template's own env
// (the driver seeds crawl_name there). Documents are cached by URL for the
// duration of the run.
func (w *Workflow) Run(ctx context.Context, fetcher Fetcher, bindings script.Env, log *slog.Logger) (Result, error) {
	env := w.Env.Clone()
	for name, values := range bindings {
		env[name] = append([]string(nil), values...)
	}
	url, err := w.RenderEntrypoint(env)
	if err != nil {
		return nil, err
	}

	r := &runner{fetcher: fetcher, cache: map[string]*htmldom.Document{}, log: log}
	doc, err := r.fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("template %s: entry fetch %s: %w", w.Name, url, err)
	}

	out := Result{}
	matched, err := r.walkNode(ctx, w.Root, doc.Root(), env, "", out)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", w.Name, err)
	}
	if !matched {
		return nil, fmt.Errorf("template %s: %w", w.Name, ErrNoMatch)
	}
	return out, nil
}

type runner struct {
	fetcher Fetcher
	cache   map[string]*htmldom.Document
	log     *slog.Logger
}

func (r *runner) fetch(ctx context.Context, url string) (*htmldom.Document, error) {
	if doc, ok := r.cache[url]; ok {
		return doc, nil
	}
	doc, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	r.cache[url] = doc
	return doc, nil
}

// walkNode evaluates one node and its subtree. It reports whether the node
// produced anything: an element node with zero matches, a suppressed value
// node, and a request node whose every fetch failed all report false.
func (r *runner) walkNode(ctx context.Context, n *Node, cur htmldom.Cursor, env script.Env, prefix string, out Result) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	path := n.Name
	if prefix != "" {
		path = prefix + "." + n.Name
	}

	if n.Pipeline.Kind() == script.KindElement {
		cursors, err := n.Pipeline.EvaluateElements(cur, env)
		if err != nil {
			return false, fmt.Errorf("node %s: %w", path, err)
		}
		for _, c := range cursors {
			if err := r.walkChildren(ctx, n, c, env.Clone(), path, out); err != nil {
				return false, err
			}
		}
		return len(cursors) > 0, nil
	}

	values, emitted, err := n.Pipeline.EvaluateValues(cur, env)
	if err != nil {
		return false, fmt.Errorf("node %s: %w", path, err)
	}
	if !emitted {
		return false, nil
	}

	if !n.Request {
		out[path] = append(out[path], values...)
		env.Bind(n.Name, values...)
		return true, nil
	}

	fetched := false
	for _, url := range values {
		if url == "" {
			continue
		}
		doc, err := r.fetch(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			r.log.Warn("follow-up fetch failed, branch dropped",
				slog.String("node", path), slog.String("url", url), slog.Any("error", err))
			continue
		}
		if err := r.walkChildren(ctx, n, doc.Root(), env.Clone(), path, out); err != nil {
			return false, err
		}
		fetched = true
	}
	return fetched, nil
}

// walkChildren runs the children in order against one element (or fetched
// root). They share env, so later siblings see the bindings of earlier ones.
func (r *runner) walkChildren(ctx context.Context, n *Node, cur htmldom.Cursor, env script.Env, prefix string, out Result) error {
	for _, child := range n.Children {
		if _, err := r.walkNode(ctx, child, cur, env, prefix, out); err != nil {
			return err
		}
	}
	return nil
}
