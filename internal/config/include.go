package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const includeTag = "!include"

// ExpandIncludes resolves !include directives in raw YAML. Relative paths
// are resolved against baseDir, or against the including file when nested.
//
//	schema:
//	  columns: !include columns.yaml   # node replaced by the file's root
//	target:
//	  "!include": defaults.yaml        # mapping merged, local keys win
//	  table: orders
//
// A tagged item in a sequence that resolves to a sequence is spliced in.
func ExpandIncludes(raw []byte, baseDir string) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return raw, nil
	}
	root := doc.Content[0]
	if err := expandNode(root, baseDir, map[string]struct{}{}); err != nil {
		return nil, err
	}
	return yaml.Marshal(root)
}

func expandNode(n *yaml.Node, baseDir string, seen map[string]struct{}) error {
	if n.Tag == includeTag {
		if n.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: !include expects a file path", n.Line)
		}
		inc, err := loadIncluded(n.Value, baseDir, seen)
		if err != nil {
			return err
		}
		*n = *inc
		return nil
	}

	switch n.Kind {
	case yaml.MappingNode:
		merged := &yaml.Node{Kind: yaml.MappingNode, Style: n.Style}
		var local []*yaml.Node
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Value != includeTag && k.Tag != includeTag {
				local = append(local, k, v)
				continue
			}
			if v.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: !include key expects a file path", v.Line)
			}
			inc, err := loadIncluded(v.Value, baseDir, seen)
			if err != nil {
				return err
			}
			if inc.Kind != yaml.MappingNode {
				return fmt.Errorf("line %d: %s must contain a mapping", v.Line, v.Value)
			}
			setPairs(merged, inc.Content)
		}
		for i := 1; i < len(local); i += 2 {
			if err := expandNode(local[i], baseDir, seen); err != nil {
				return err
			}
		}
		setPairs(merged, local)
		*n = *merged
		return nil

	case yaml.SequenceNode:
		out := make([]*yaml.Node, 0, len(n.Content))
		for _, item := range n.Content {
			spliced := item.Tag == includeTag
			if err := expandNode(item, baseDir, seen); err != nil {
				return err
			}
			if spliced && item.Kind == yaml.SequenceNode {
				out = append(out, item.Content...)
				continue
			}
			out = append(out, item)
		}
		n.Content = out
		return nil
	}
	return nil
}

// setPairs adds key/value pairs to m, replacing values of keys already set.
func setPairs(m *yaml.Node, pairs []*yaml.Node) {
	for i := 0; i+1 < len(pairs); i += 2 {
		k, v := pairs[i], pairs[i+1]
		replaced := false
		for j := 0; j+1 < len(m.Content); j += 2 {
			if m.Content[j].Value == k.Value {
				m.Content[j+1] = v
				replaced = true
				break
			}
		}
		if !replaced {
			m.Content = append(m.Content, k, v)
		}
	}
}

func loadIncluded(path, baseDir string, seen map[string]struct{}) (*yaml.Node, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if _, ok := seen[abs]; ok {
		return nil, fmt.Errorf("include cycle detected for %s", abs)
	}
	seen[abs] = struct{}{}
	defer delete(seen, abs)

	b, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("included file not found: %s", path)
		}
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML in included file %s: %w", abs, err)
	}
	if len(doc.Content) == 0 {
		return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}, nil
	}
	root := doc.Content[0]
	if err := expandNode(root, filepath.Dir(abs), seen); err != nil {
		return nil, err
	}
	return root, nil
}
