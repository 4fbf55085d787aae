package template

import (
	"strings"
	"testing"
)

const demoTemplate = `
entrypoint: "http://example.test/search?q=${crawl_name}"
env:
  base_url: "http://example.test"
nodes:
  main:
    script: select("div.result")
    children:
      title: select("h3").val().trim()
      detail_url:
        script: select("a").attr("href").prepend(${base_url})
        request: true
        children:
          plot: select("p.plot").val()
`

func TestLoad(t *testing.T) {
	w, err := Load("demo", []byte(demoTemplate))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if w.Name != "demo" {
		t.Errorf("Name = %q", w.Name)
	}
	if w.Entrypoint != "http://example.test/search?q=${crawl_name}" {
		t.Errorf("Entrypoint = %q", w.Entrypoint)
	}
	if got, err := w.Env.Resolve("base_url"); err != nil || got != "http://example.test" {
		t.Errorf("env base_url = (%q, %v)", got, err)
	}
	if w.Root.Name != "main" || len(w.Root.Children) != 2 {
		t.Fatalf("root = %q with %d children", w.Root.Name, len(w.Root.Children))
	}
	if w.Root.Children[0].Name != "title" || w.Root.Children[1].Name != "detail_url" {
		t.Errorf("child order = %q, %q", w.Root.Children[0].Name, w.Root.Children[1].Name)
	}
	detail := w.Root.Children[1]
	if !detail.Request || len(detail.Children) != 1 {
		t.Errorf("detail_url: request=%v children=%d", detail.Request, len(detail.Children))
	}
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown top key", "entrypoint: x\nbogus: 1\nnodes:\n  main: select(\"p\").val()", "unknown key"},
		{"missing entrypoint", "nodes:\n  main: select(\"p\").val()", "missing entrypoint"},
		{"missing main", "entrypoint: x\nnodes: {}", "missing nodes.main"},
		{"extra root node", "entrypoint: x\nnodes:\n  other: select(\"p\").val()", "only main"},
		{"bad script", "entrypoint: x\nnodes:\n  main: select(", "main"},
		{"unknown node key", "entrypoint: x\nnodes:\n  main:\n    script: select(\"p\").val()\n    shiny: true", "unknown key"},
		{"request on element", "entrypoint: x\nnodes:\n  main:\n    script: select(\"a\")\n    request: true\n    children:\n      t: select(\"p\").val()", "request needs a value script"},
		{"element leaf", "entrypoint: x\nnodes:\n  main: select(\"a\")", "needs children"},
		{"value with children", "entrypoint: x\nnodes:\n  main:\n    script: select(\"a\").val()\n    children:\n      t: select(\"p\").val()", "cannot have children"},
		{"request without children", "entrypoint: x\nnodes:\n  main:\n    script: select(\"a\").attr(\"href\")\n    request: true", "without children"},
		{"duplicate names", "entrypoint: x\nnodes:\n  main:\n    script: select(\"div\")\n    children:\n      t: select(\"p\").val()\n      u:\n        script: select(\"span\")\n        children:\n          t: select(\"b\").val()", "more than once"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load("bad", []byte(tc.yaml))
			if err == nil {
				t.Fatalf("Load succeeded, want error containing %q", tc.want)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error = %q, want substring %q", err, tc.want)
			}
		})
	}
}

func TestEnvListValues(t *testing.T) {
	w, err := Load("envy", []byte("entrypoint: x\nenv:\n  mirrors:\n    - a\n    - b\nnodes:\n  main: select(\"p\").val()"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := w.Env["mirrors"]; len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("mirrors = %v", got)
	}
}

func TestRenderEntrypoint(t *testing.T) {
	w, err := Load("demo", []byte(demoTemplate))
	if err != nil {
		t.Fatal(err)
	}
	env := w.Env.Clone()
	env.Bind("crawl_name", "ABC-123")
	url, err := w.RenderEntrypoint(env)
	if err != nil {
		t.Fatalf("RenderEntrypoint: %v", err)
	}
	if url != "http://example.test/search?q=ABC-123" {
		t.Errorf("url = %q", url)
	}

	if _, err := w.RenderEntrypoint(w.Env.Clone()); err == nil {
		t.Error("unbound entrypoint placeholder should fail")
	}
	multi := w.Env.Clone()
	multi.Bind("crawl_name", "A", "B")
	if _, err := w.RenderEntrypoint(multi); err == nil {
		t.Error("doubly bound entrypoint placeholder should fail")
	}
}
