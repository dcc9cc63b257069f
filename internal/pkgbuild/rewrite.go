package pkgbuild

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/policyforge/relkit/internal/config"
)

// ApplyRewrite sets one YAML field in a packaged file. The field is a
// dotted path into nested mappings; missing intermediate mappings are an
// error since a rewrite that silently creates structure would mask a
// packaging mistake.
func ApplyRewrite(pkgDir string, rw config.Rewrite) error {
	path := filepath.Join(pkgDir, filepath.FromSlash(rw.File))
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("rewrite %s: %w", rw.File, err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("rewrite %s: failed to parse: %w", rw.File, err)
	}
	if len(root.Content) == 0 {
		return fmt.Errorf("rewrite %s: empty document", rw.File)
	}

	if err := setField(root.Content[0], strings.Split(rw.Field, "."), rw.Value); err != nil {
		return fmt.Errorf("rewrite %s: field %q: %w", rw.File, rw.Field, err)
	}

	out, err := yaml.Marshal(&root)
	if err != nil {
		return fmt.Errorf("rewrite %s: failed to re-encode: %w", rw.File, err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("rewrite %s: %w", rw.File, err)
	}
	return nil
}

func setField(node *yaml.Node, path []string, value string) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("parent is not a mapping")
	}

	key := path[0]
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value != key {
			continue
		}
		if len(path) == 1 {
			node.Content[i+1].SetString(value)
			return nil
		}
		return setField(node.Content[i+1], path[1:], value)
	}

	if len(path) > 1 {
		return fmt.Errorf("mapping %q not found", key)
	}

	// Append a new leaf key to the mapping
	keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: key}
	valNode := &yaml.Node{}
	valNode.SetString(value)
	node.Content = append(node.Content, keyNode, valNode)
	return nil
}
