package template

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"javtidy/internal/script"
)

// Load parses and compiles one workflow document. name identifies the
// template in errors and results, conventionally the filename without
// extension.
func Load(name string, data []byte) (*Workflow, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("template %s: %w", name, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("template %s: empty document", name)
	}
	top := doc.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("template %s: top level must be a mapping", name)
	}

	w := &Workflow{Name: name, Env: script.Env{}}
	for i := 0; i < len(top.Content); i += 2 {
		key, val := top.Content[i], top.Content[i+1]
		switch key.Value {
		case "entrypoint":
			if err := val.Decode(&w.Entrypoint); err != nil {
				return nil, loadErr(name, val, "entrypoint must be a string")
			}
		case "env":
			env, err := decodeEnv(name, val)
			if err != nil {
				return nil, err
			}
			w.Env = env
		case "nodes":
			root, err := decodeNodes(name, val)
			if err != nil {
				return nil, err
			}
			w.Root = root
		default:
			return nil, loadErr(name, key, "unknown key %q", key.Value)
		}
	}
	if w.Entrypoint == "" {
		return nil, fmt.Errorf("template %s: missing entrypoint", name)
	}
	if w.Root == nil {
		return nil, fmt.Errorf("template %s: missing nodes.main", name)
	}
	if err := validateTree(w.Root); err != nil {
		return nil, fmt.Errorf("template %s: %w", name, err)
	}
	return w, nil
}

// LoadFile reads and compiles a single workflow file.
func LoadFile(path string) (*Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Load(name, data)
}

// LoadSet compiles the named templates from dir in priority order. An empty
// priority list loads every .yaml or .yml file in dir, sorted by filename.
// Names may omit the .yaml or .yml extension. Every listed template must load;
// a broken template is a startup failure, not a per-file skip.
func LoadSet(dir string, priority []string) ([]*Workflow, error) {
	if len(priority) == 0 {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("template set: %w", err)
		}
		for _, e := range entries {
			if ext := filepath.Ext(e.Name()); !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
				priority = append(priority, e.Name())
			}
		}
	}
	if len(priority) == 0 {
		return nil, fmt.Errorf("template set: no templates configured")
	}
	out := make([]*Workflow, 0, len(priority))
	for _, name := range priority {
		path, err := resolveTemplatePath(dir, name)
		if err != nil {
			return nil, err
		}
		w, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

func resolveTemplatePath(dir, name string) (string, error) {
	candidates := []string{name}
	if filepath.Ext(name) == "" {
		candidates = []string{name + ".yaml", name + ".yml"}
	}
	for _, candidate := range candidates {
		path := filepath.Join(dir, candidate)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("template %s: not found in %s", name, dir)
}

func loadErr(name string, node *yaml.Node, format string, args ...any) error {
	return fmt.Errorf("template %s: line %d: %s", name, node.Line, fmt.Sprintf(format, args...))
}

func decodeEnv(name string, node *yaml.Node) (script.Env, error) {
	if node.Kind != yaml.MappingNode {
		return nil, loadErr(name, node, "env must be a mapping")
	}
	env := script.Env{}
	for i := 0; i < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		switch val.Kind {
		case yaml.ScalarNode:
			env.Bind(key.Value, val.Value)
		case yaml.SequenceNode:
			for _, item := range val.Content {
				if item.Kind != yaml.ScalarNode {
					return nil, loadErr(name, item, "env %q: values must be strings", key.Value)
				}
				env.Bind(key.Value, item.Value)
			}
		default:
			return nil, loadErr(name, val, "env %q: expected string or list of strings", key.Value)
		}
	}
	return env, nil
}

func decodeNodes(name string, node *yaml.Node) (*Node, error) {
	if node.Kind != yaml.MappingNode {
		return nil, loadErr(name, node, "nodes must be a mapping")
	}
	var root *Node
	for i := 0; i < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if key.Value != "main" {
			return nil, loadErr(name, key, "nodes: only main is allowed at the top, got %q", key.Value)
		}
		n, err := decodeNode(name, key.Value, val)
		if err != nil {
			return nil, err
		}
		root = n
	}
	return root, nil
}

// decodeNode handles both descriptor shapes: a bare script string for a leaf
// value node, or a mapping with script, request, and children.
func decodeNode(name, nodeName string, node *yaml.Node) (*Node, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		p, err := script.Compile(node.Value)
		if err != nil {
			return nil, loadErr(name, node, "node %q: %v", nodeName, err)
		}
		return &Node{Name: nodeName, Pipeline: p}, nil
	case yaml.MappingNode:
		out := &Node{Name: nodeName}
		for i := 0; i < len(node.Content); i += 2 {
			key, val := node.Content[i], node.Content[i+1]
			switch key.Value {
			case "script":
				if val.Kind != yaml.ScalarNode {
					return nil, loadErr(name, val, "node %q: script must be a string", nodeName)
				}
				p, err := script.Compile(val.Value)
				if err != nil {
					return nil, loadErr(name, val, "node %q: %v", nodeName, err)
				}
				out.Pipeline = p
			case "request":
				if err := val.Decode(&out.Request); err != nil {
					return nil, loadErr(name, val, "node %q: request must be a bool", nodeName)
				}
			case "children":
				if val.Kind != yaml.MappingNode {
					return nil, loadErr(name, val, "node %q: children must be a mapping", nodeName)
				}
				for j := 0; j < len(val.Content); j += 2 {
					childKey, childVal := val.Content[j], val.Content[j+1]
					child, err := decodeNode(name, childKey.Value, childVal)
					if err != nil {
						return nil, err
					}
					out.Children = append(out.Children, child)
				}
			default:
				return nil, loadErr(name, key, "node %q: unknown key %q", nodeName, key.Value)
			}
		}
		if out.Pipeline == nil {
			return nil, loadErr(name, node, "node %q: missing script", nodeName)
		}
		return out, nil
	default:
		return nil, loadErr(name, node, "node %q: expected a script string or a mapping", nodeName)
	}
}
