package openapi

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// OrderedMap is a string-keyed mapping that remembers declaration order.
// Property order in a schema is the emitted field order, so every mapping in
// the document model decodes into one of these instead of a Go map.
type OrderedMap[V any] struct {
	Keys   []string
	Values map[string]V
}

// Len reports the number of entries.
func (m OrderedMap[V]) Len() int { return len(m.Keys) }

// Get returns the value stored under key.
func (m OrderedMap[V]) Get(key string) (V, bool) {
	v, ok := m.Values[key]
	return v, ok
}

// Set stores value under key, appending key when it is new.
func (m *OrderedMap[V]) Set(key string, value V) {
	if m.Values == nil {
		m.Values = make(map[string]V)
	}
	if _, exists := m.Values[key]; !exists {
		m.Keys = append(m.Keys, key)
	}
	m.Values[key] = value
}

// UnmarshalYAML decodes a mapping node preserving key order.
func (m *OrderedMap[V]) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping", node.Line)
	}
	pairs, err := mappingPairs(node)
	if err != nil {
		return err
	}
	m.Keys = make([]string, 0, len(pairs)/2)
	m.Values = make(map[string]V, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		key := pairs[i]
		var value V
		if err := pairs[i+1].Decode(&value); err != nil {
			return fmt.Errorf("%s: %w", key.Value, err)
		}
		m.Set(key.Value, value)
	}
	return nil
}

// mappingPairs flattens a mapping's key/value nodes, splicing in the entries
// of `<<` merge keys at their position. Explicit keys win over merged ones,
// and earlier merge sources win over later ones.
func mappingPairs(node *yaml.Node) ([]*yaml.Node, error) {
	explicit := make(map[string]bool, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		if !isMergeKey(node.Content[i]) {
			explicit[node.Content[i].Value] = true
		}
	}
	seen := make(map[string]bool, len(node.Content)/2)
	out := make([]*yaml.Node, 0, len(node.Content))
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if !isMergeKey(key) {
			out = append(out, key, value)
			seen[key.Value] = true
			continue
		}
		sources := []*yaml.Node{value}
		if value.Kind == yaml.SequenceNode {
			sources = value.Content
		}
		for _, src := range sources {
			if src.Kind == yaml.AliasNode && src.Alias != nil {
				src = src.Alias
			}
			if src.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("line %d: merge key needs a mapping or a list of mappings", key.Line)
			}
			merged, err := mappingPairs(src)
			if err != nil {
				return nil, err
			}
			for j := 0; j+1 < len(merged); j += 2 {
				k := merged[j].Value
				if explicit[k] || seen[k] {
					continue
				}
				out = append(out, merged[j], merged[j+1])
				seen[k] = true
			}
		}
	}
	return out, nil
}

func isMergeKey(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Value == "<<" && n.ShortTag() == "!!merge"
}
