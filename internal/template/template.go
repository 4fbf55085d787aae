package template

import (
	"fmt"

	"javtidy/internal/script"
)

// Node is one descriptor in a workflow tree. Children keep the order they
// appear in the YAML document.
type Node struct {
	Name     string
	Pipeline *script.Pipeline
	Request  bool
	Children []*Node
}

// Workflow is one compiled template file.
type Workflow struct {
	Name       string
	Entrypoint string
	Env        script.Env
	Root       *Node
}

func validateTree(root *Node) error {
	seen := map[string]int{}
	return walkValidate(root, seen)
}

func walkValidate(n *Node, seen map[string]int) error {
	seen[n.Name]++
	if seen[n.Name] > 1 {
		return fmt.Errorf("node %q: name used more than once in this workflow", n.Name)
	}
	element := n.Pipeline.Kind() == script.KindElement
	switch {
	case n.Request && element:
		return fmt.Errorf("node %q: request needs a value script, got an element script", n.Name)
	case n.Request && len(n.Children) == 0:
		return fmt.Errorf("node %q: request without children fetches for nothing", n.Name)
	case element && len(n.Children) == 0:
		return fmt.Errorf("node %q: element script needs children to extract from its matches", n.Name)
	case !element && !n.Request && len(n.Children) > 0:
		return fmt.Errorf("node %q: value script cannot have children unless request is set", n.Name)
	}
	for _, child := range n.Children {
		if err := walkValidate(child, seen); err != nil {
			return err
		}
	}
	return nil
}
