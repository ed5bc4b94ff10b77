package spec

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"gopkg.in/yaml.v3"

	"github.com/Kanary159357/orval/internal/openapi"
)

// upgradeV2 converts a Swagger 2.0 document to OpenAPI 3 JSON.
// openapi2.T only carries json tags, so YAML input is normalized to a
// string-keyed tree and round-tripped through encoding/json first.
func upgradeV2(raw []byte) ([]byte, error) {
	var tree any
	if err := decodeTree(raw, &tree); err != nil {
		return nil, fmt.Errorf("parse v2: %w", err)
	}
	js, err := json.Marshal(stringKeys(tree))
	if err != nil {
		return nil, fmt.Errorf("encode v2: %w", err)
	}
	var doc2 openapi2.T
	if err := json.Unmarshal(js, &doc2); err != nil {
		return nil, fmt.Errorf("decode v2: %w", err)
	}
	doc3, err := openapi2conv.ToV3(&doc2)
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc3)
}

// decodeTree decodes a raw document into a generic tree. JSON goes through
// encoding/json since the YAML scanner rejects some valid JSON escapes.
func decodeTree(data []byte, v any) error {
	if openapi.DetectFormat(data) == openapi.FormatJSON {
		return json.Unmarshal(data, v)
	}
	return yaml.Unmarshal(data, v)
}

// stringKeys rewrites map[any]any nodes (produced for non-string YAML keys
// such as unquoted status codes) into map[string]any.
func stringKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			t[k] = stringKeys(child)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[fmt.Sprint(k)] = stringKeys(child)
		}
		return out
	case []any:
		for i, child := range t {
			t[i] = stringKeys(child)
		}
		return t
	default:
		return v
	}
}

var v2Verbs = map[string]bool{
	"get": true, "post": true, "put": true, "delete": true,
	"patch": true, "options": true, "head": true,
}

// preprocessV2ForCompatibility rewrites body parameters that openapi2conv
// rejects. Several body parameters on one operation are merged into a single
// object-typed body. Body parameters next to formData parameters become
// formData themselves and the operation consumes multipart/form-data.
//
// On error the input is returned unchanged with changed=false.
func preprocessV2ForCompatibility(data []byte) ([]byte, bool, error) {
	var doc map[string]any
	if err := decodeTree(data, &doc); err != nil {
		return data, false, err
	}
	paths, _ := doc["paths"].(map[string]any)
	changed := false
	for _, item := range paths {
		verbs, _ := item.(map[string]any)
		for verb, raw := range verbs {
			if !v2Verbs[strings.ToLower(verb)] {
				continue
			}
			if op, ok := raw.(map[string]any); ok && fixBodyParams(op) {
				changed = true
			}
		}
	}
	if !changed {
		return data, false, nil
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return data, false, err
	}
	return out, true, nil
}

func fixBodyParams(op map[string]any) bool {
	params, _ := op["parameters"].([]any)
	var bodies, rest []map[string]any
	hasForm := false
	for _, p := range params {
		pm, ok := p.(map[string]any)
		if !ok {
			continue
		}
		switch strings.ToLower(str(pm["in"])) {
		case "body":
			bodies = append(bodies, pm)
			continue
		case "formdata":
			hasForm = true
		}
		rest = append(rest, pm)
	}

	switch {
	case len(bodies) == 0:
		return false
	case hasForm:
		out := make([]any, 0, len(params))
		for _, b := range bodies {
			out = append(out, bodyToForm(b))
		}
		for _, r := range rest {
			out = append(out, r)
		}
		op["parameters"] = out
		consumes, _ := op["consumes"].([]any)
		for _, c := range consumes {
			if str(c) == "multipart/form-data" {
				return true
			}
		}
		op["consumes"] = append(consumes, "multipart/form-data")
		return true
	case len(bodies) > 1:
		props := make(map[string]any, len(bodies))
		var required []any
		for _, b := range bodies {
			name := nameOr(b, "field")
			props[name] = bodySchema(b)
			if req, _ := b["required"].(bool); req {
				required = append(required, name)
			}
		}
		schema := map[string]any{"type": "object", "properties": props}
		if len(required) > 0 {
			schema["required"] = required
		}
		out := []any{map[string]any{"in": "body", "name": "body", "schema": schema}}
		for _, r := range rest {
			out = append(out, r)
		}
		op["parameters"] = out
		return true
	default:
		return false
	}
}

// bodySchema returns the parameter's schema, synthesizing one from its
// type, items and format when absent.
func bodySchema(p map[string]any) map[string]any {
	if s, ok := p["schema"].(map[string]any); ok {
		return s
	}
	typ := str(p["type"])
	if typ == "" {
		return map[string]any{"type": "string"}
	}
	s := map[string]any{"type": typ}
	copyIfSet(s, p, "items", "format")
	return s
}

// bodyToForm turns a body parameter into a formData parameter. A referenced
// object cannot be expressed in formData and degrades to a string.
func bodyToForm(p map[string]any) map[string]any {
	out := map[string]any{"in": "formData", "name": nameOr(p, "field")}
	copyIfSet(out, p, "description", "required")
	src := p
	if s, ok := p["schema"].(map[string]any); ok {
		src = s
	}
	typ := str(src["type"])
	if typ == "" {
		typ = "string"
	}
	out["type"] = typ
	copyIfSet(out, src, "items", "format")
	return out
}

func copyIfSet(dst, src map[string]any, keys ...string) {
	for _, k := range keys {
		if v, ok := src[k]; ok && v != nil && v != "" {
			dst[k] = v
		}
	}
}

func nameOr(p map[string]any, fallback string) string {
	if n := str(p["name"]); n != "" {
		return n
	}
	return fallback
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
