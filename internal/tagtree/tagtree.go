package tagtree

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
)

// TagsKey is the reserved key holding a node's tag list
const TagsKey = "tags"

// DefaultFileNames are the tag files looked up at the source root, in order
var DefaultFileNames = []string{"tags.json", "tags.yaml", "tags.yml"}

var (
	// ErrInvalidTagTree is returned when a tag file does not have the
	// expected shape
	ErrInvalidTagTree = errors.New("invalid tag tree")
	// ErrUnsupportedFormat is returned for tag files that are neither JSON nor YAML
	ErrUnsupportedFormat = errors.New("unsupported tag file format")
)

// Format identifies the serialization of a tag file
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Node is one level of the tag tree. Children are keyed by the directory
// or file stem they describe.
type Node struct {
	Tags     []string
	Children map[string]*Node
}

// Empty returns a tree that resolves no tags for any path
func Empty() *Node {
	return &Node{Children: map[string]*Node{}}
}

// Child returns the child node for a path component
func (n *Node) Child(name string) (*Node, bool) {
	if n == nil {
		return nil, false
	}
	child, ok := n.Children[name]
	return child, ok
}

// Resolve walks the tree along path and returns the tags of every matched
// node, root to leaf, without duplicates. The walk stops at the first
// component with no matching child. A matched node without tags adds
// nothing but the walk continues below it.
func (n *Node) Resolve(path []string) []string {
	tags := n.collect(path, nil)
	return dedupe(tags)
}

// ResolveIdentifier splits a flattened identifier on delimiter and resolves it
func (n *Node) ResolveIdentifier(identifier, delimiter string) []string {
	if identifier == "" {
		return []string{}
	}
	return n.Resolve(strings.Split(identifier, delimiter))
}

func (n *Node) collect(path []string, acc []string) []string {
	if len(path) == 0 {
		return acc
	}
	child, ok := n.Child(path[0])
	if !ok {
		return acc
	}
	acc = append(acc, child.Tags...)
	return child.collect(path[1:], acc)
}

// Len returns the number of nodes below n
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	count := 0
	for _, child := range n.Children {
		count += 1 + child.Len()
	}
	return count
}

// Paths lists every node path below n joined with delimiter, sorted
func (n *Node) Paths(delimiter string) []string {
	var paths []string
	n.walk(nil, func(path []string, _ *Node) {
		paths = append(paths, strings.Join(path, delimiter))
	})
	sort.Strings(paths)
	return paths
}

func (n *Node) walk(prefix []string, fn func([]string, *Node)) {
	if n == nil {
		return
	}
	for name, child := range n.Children {
		path := append(append([]string(nil), prefix...), name)
		fn(path, child)
		child.walk(path, fn)
	}
}

func dedupe(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		if seen[tag] {
			continue
		}
		seen[tag] = true
		result = append(result, tag)
	}
	return result
}

// Parse decodes a tag tree from data in the given format
func Parse(data []byte, format Format) (*Node, error) {
	var raw interface{}
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTagTree, err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTagTree, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	// An empty document is an empty tree
	if raw == nil {
		return Empty(), nil
	}
	return build(raw, nil)
}

// build converts a decoded document into a Node, rejecting any value that
// is not an object or a list of strings under "tags"
func build(raw interface{}, keyPath []string) (*Node, error) {
	node := Empty()
	if raw == nil {
		return node, nil
	}

	obj, ok := asObject(raw)
	if !ok {
		return nil, fmt.Errorf("%w: %s: expected object, got %T", ErrInvalidTagTree, describe(keyPath), raw)
	}

	for key, val := range obj {
		if key == TagsKey {
			tags, err := asTags(val, append(keyPath, key))
			if err != nil {
				return nil, err
			}
			node.Tags = tags
			continue
		}
		child, err := build(val, append(append([]string(nil), keyPath...), key))
		if err != nil {
			return nil, err
		}
		node.Children[key] = child
	}
	return node, nil
}

func asObject(raw interface{}) (map[string]interface{}, bool) {
	switch v := raw.(type) {
	case map[string]interface{}:
		return v, true
	case map[interface{}]interface{}:
		obj := make(map[string]interface{}, len(v))
		for k, val := range v {
			key, ok := k.(string)
			if !ok {
				return nil, false
			}
			obj[key] = val
		}
		return obj, true
	default:
		return nil, false
	}
}

func asTags(raw interface{}, keyPath []string) ([]string, error) {
	list, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: %s: expected list of strings, got %T", ErrInvalidTagTree, describe(keyPath), raw)
	}
	tags := make([]string, 0, len(list))
	for i, item := range list {
		tag, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s[%d]: expected string, got %T", ErrInvalidTagTree, describe(keyPath), i, item)
		}
		if tag == "" {
			return nil, fmt.Errorf("%w: %s[%d]: empty tag", ErrInvalidTagTree, describe(keyPath), i)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func describe(keyPath []string) string {
	if len(keyPath) == 0 {
		return "<root>"
	}
	return strings.Join(keyPath, ".")
}

// FormatFor picks the format from a file extension
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Load reads a tag file. A file that does not exist yields an empty tree.
func Load(path string) (*Node, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Empty(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read tag file: %w", err)
	}

	tree, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tree, nil
}

// LoadDir loads the tag file of a source root. When name is empty the
// first existing file of DefaultFileNames is used. It returns the path
// that was loaded, or "" when no tag file exists.
func LoadDir(root, name string) (*Node, string, error) {
	candidates := DefaultFileNames
	if name != "" {
		candidates = []string{name}
	}

	for _, candidate := range candidates {
		path := filepath.Join(root, candidate)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, "", fmt.Errorf("failed to stat tag file: %w", err)
		}
		tree, err := Load(path)
		if err != nil {
			return nil, "", err
		}
		return tree, path, nil
	}
	return Empty(), "", nil
}
