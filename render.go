package routegen

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ferro-labs/routegen/internal/metrics"
)

const documentHeader = "Generated by routegen. Do not edit by hand; rerun the build instead."

// Render serializes the committed entries and settings into the final
// commented YAML document. It fails with a ConfigError while any intent
// is still open, so a forgotten Add surfaces here at the latest.
func (s *Session) Render() ([]byte, error) {
	start := time.Now()
	out, err := s.render()
	if err != nil {
		metrics.DocumentsRendered.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.DocumentsRendered.WithLabelValues("success").Inc()
	metrics.RenderDuration.Observe(time.Since(start).Seconds())
	s.log.Info("document rendered",
		"entries", s.registry.Len(),
		"relations", len(s.relations),
		"bytes", len(out),
	)
	return out, nil
}

func (s *Session) render() ([]byte, error) {
	if names := s.Dangling(); len(names) > 0 {
		return nil, configErrorf("", "intents opened but never committed with Add: %s",
			strings.Join(names, ", "))
	}

	root := &yaml.Node{Kind: yaml.MappingNode}
	root.HeadComment = documentHeader

	modelList, err := s.modelListNode()
	if err != nil {
		return nil, err
	}
	appendMapItem(root, "model_list", modelList)

	router, err := s.routerNode()
	if err != nil {
		return nil, err
	}
	if router != nil {
		appendMapItem(root, "router_settings", router)
	}
	if len(s.settings.LiteLLM) > 0 {
		node, err := sortedMapNode(s.settings.LiteLLM)
		if err != nil {
			return nil, err
		}
		appendMapItem(root, "litellm_settings", node)
	}
	if len(s.settings.General) > 0 {
		node, err := sortedMapNode(s.settings.General)
		if err != nil {
			return nil, err
		}
		appendMapItem(root, "general_settings", node)
	}

	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return buf.Bytes(), nil
}

// modelListNode emits one sequence item per entry, in registry order,
// with a comment above each intent group's first entry.
func (s *Session) modelListNode() (*yaml.Node, error) {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	entries := s.registry.Entries()

	groupStart := map[int]string{}
	offset := 0
	for _, g := range s.groups {
		if g.size > 0 {
			groupStart[offset] = g.label
		}
		offset += g.size
	}

	for i, e := range entries {
		item := &yaml.Node{Kind: yaml.MappingNode}
		if label, ok := groupStart[i]; ok {
			item.HeadComment = label
		}

		appendMapItem(item, "model_name", scalarNode(e.Name))

		params := &yaml.Node{Kind: yaml.MappingNode}
		appendMapItem(params, "model", scalarNode(e.Model))
		for _, k := range sortedKeys(e.Params) {
			if k == "model" {
				// The resolved path always wins over a caller-supplied model key.
				continue
			}
			v, err := encodeValue(e.Params[k])
			if err != nil {
				return nil, err
			}
			appendMapItem(params, k, v)
		}
		appendMapItem(item, "litellm_params", params)

		if len(e.Meta) > 0 {
			meta, err := sortedMapNode(e.Meta)
			if err != nil {
				return nil, err
			}
			appendMapItem(item, "model_info", meta)
		}
		seq.Content = append(seq.Content, item)
	}
	return seq, nil
}

// routerNode merges generated fallback relations into the caller's router
// settings. Relations aggregate by primary in first-appearance order;
// duplicate fallback names are kept as recorded.
func (s *Session) routerNode() (*yaml.Node, error) {
	if len(s.settings.Router) == 0 && len(s.relations) == 0 {
		return nil, nil
	}

	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range sortedKeys(s.settings.Router) {
		if k == "fallbacks" {
			continue
		}
		v, err := encodeValue(s.settings.Router[k])
		if err != nil {
			return nil, err
		}
		appendMapItem(node, k, v)
	}

	fallbacks, err := s.fallbacksNode()
	if err != nil {
		return nil, err
	}
	if fallbacks != nil {
		key := &yaml.Node{Kind: yaml.ScalarNode, Value: "fallbacks"}
		if len(s.relations) > 0 {
			key.HeadComment = "Generated fallback routes."
		}
		node.Content = append(node.Content, key, fallbacks)
	}
	return node, nil
}

func (s *Session) fallbacksNode() (*yaml.Node, error) {
	var items []any
	if existing, ok := s.settings.Router["fallbacks"].([]any); ok {
		items = append(items, existing...)
	}

	var order []string
	grouped := map[string][]string{}
	for _, rel := range s.relations {
		if _, seen := grouped[rel.Primary]; !seen {
			order = append(order, rel.Primary)
		}
		grouped[rel.Primary] = append(grouped[rel.Primary], rel.Fallback)
	}
	for _, primary := range order {
		items = append(items, map[string]any{primary: grouped[primary]})
	}

	if len(items) == 0 {
		return nil, nil
	}
	return encodeValue(items)
}

func appendMapItem(m *yaml.Node, key string, value *yaml.Node) {
	m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, value)
}

func scalarNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: s}
}

func encodeValue(v any) (*yaml.Node, error) {
	n := &yaml.Node{}
	if err := n.Encode(v); err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	return n, nil
}

func sortedMapNode(m map[string]any) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range sortedKeys(m) {
		v, err := encodeValue(m[k])
		if err != nil {
			return nil, err
		}
		appendMapItem(node, k, v)
	}
	return node, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
