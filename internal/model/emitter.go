// Package model emits one standalone declaration per named component.
package model

import (
	"fmt"
	"strings"

	"github.com/Kanary159357/orval/internal/naming"
	"github.com/Kanary159357/orval/internal/openapi"
	"github.com/Kanary159357/orval/internal/resolver"
	"github.com/Kanary159357/orval/internal/tsdoc"
)

// Model is one named declaration and the names it depends on.
type Model struct {
	Name         string
	Declaration  string
	Dependencies []string
}

// Emit declares every component schema, then every component response,
// request body and parameter, each namespace in declaration order.
func Emit(doc *openapi.Document) ([]Model, error) {
	if doc == nil {
		return nil, nil
	}
	c := &doc.Components
	var out []Model

	for _, key := range c.Schemas.Keys {
		s, _ := c.Schema(key)
		m, err := schemaModel(naming.Pascal(key), s)
		if err != nil {
			return nil, fmt.Errorf("schema %q: %w", key, err)
		}
		out = append(out, m)
	}

	for _, key := range c.Responses.Keys {
		r, _ := c.Responses.Get(key)
		target, err := c.ResolveResponse(r)
		if err != nil {
			return nil, fmt.Errorf("response %q: %w", key, err)
		}
		name := naming.Pascal(key) + openapi.KindResponse.Suffix()
		var description string
		if target != nil {
			description = target.Description
		}
		m, err := bodyModel(name, description, resolver.ResponseBody(key, r, target))
		if err != nil {
			return nil, fmt.Errorf("response %q: %w", key, err)
		}
		out = append(out, m)
	}

	for _, key := range c.RequestBodies.Keys {
		b, _ := c.RequestBodies.Get(key)
		target, err := c.ResolveRequestBody(b)
		if err != nil {
			return nil, fmt.Errorf("request body %q: %w", key, err)
		}
		name := naming.Pascal(key) + openapi.KindRequestBody.Suffix()
		var description string
		if target != nil {
			description = target.Description
		}
		m, err := bodyModel(name, description, resolver.RequestBodyOf(key, b, target))
		if err != nil {
			return nil, fmt.Errorf("request body %q: %w", key, err)
		}
		out = append(out, m)
	}

	for _, key := range c.Parameters.Keys {
		p, _ := c.Parameters.Get(key)
		m, err := parameterModel(naming.Pascal(key)+openapi.KindParameter.Suffix(), p)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", key, err)
		}
		out = append(out, m)
	}
	return out, nil
}

func schemaModel(name string, s *openapi.Schema) (Model, error) {
	var description string
	var deprecated bool
	if s != nil {
		description = s.Description
		deprecated = s.Deprecated
	}
	if isRecord(s) {
		return record(name, description, deprecated, s)
	}
	rt, err := resolver.Resolve(s)
	if err != nil {
		return Model{}, err
	}
	return alias(name, description, deprecated, rt), nil
}

func bodyModel(name, description string, body resolver.Body) (Model, error) {
	ext, err := resolver.Extract([]resolver.Body{body})
	if err != nil {
		return Model{}, err
	}
	if body.Ref == "" && len(ext.Schemas) == 1 && isRecord(ext.Schemas[0]) {
		return record(name, description, false, ext.Schemas[0])
	}
	return alias(name, description, false, ext.Type), nil
}

func parameterModel(name string, p *openapi.Parameter) (Model, error) {
	if p == nil {
		return alias(name, "", false, resolver.ResolvedType{Value: "any"}), nil
	}
	if p.Ref != "" {
		ref, err := openapi.ParseRef(p.Ref)
		if err != nil {
			return Model{}, err
		}
		target := resolver.TypeName(ref)
		return alias(name, p.Description, p.Deprecated, resolver.ResolvedType{Value: target, Imports: []string{target}}), nil
	}
	rt, err := resolver.Resolve(p.Schema)
	if err != nil {
		return Model{}, err
	}
	return alias(name, p.Description, p.Deprecated, rt), nil
}

// isRecord reports whether s is declared as a plain object: untyped or
// object typed, with no reference, composition, enum or null union.
func isRecord(s *openapi.Schema) bool {
	if s == nil || s.Ref != "" || s.HasComposition() || s.Nullable || len(s.Enum) > 0 || s.Items != nil {
		return false
	}
	return s.Type == "" || strings.EqualFold(s.Type, "object")
}

func record(name, description string, deprecated bool, s *openapi.Schema) (Model, error) {
	fields, err := resolver.Fields(s)
	if err != nil {
		return Model{}, err
	}
	var b strings.Builder
	b.WriteString(tsdoc.Comment("", description, deprecated))
	if len(fields) == 0 {
		b.WriteString("// eslint-disable-next-line @typescript-eslint/no-empty-interface\n")
		fmt.Fprintf(&b, "export interface %s {}\n", name)
		return Model{Name: name, Declaration: b.String()}, nil
	}
	var deps [][]string
	fmt.Fprintf(&b, "export interface %s {\n", name)
	for _, f := range fields {
		b.WriteString(tsdoc.Comment("  ", f.Description, f.Deprecated))
		key := f.Key
		if f.Optional {
			key += "?"
		}
		fmt.Fprintf(&b, "  %s: %s;\n", key, f.Type.Value)
		deps = append(deps, f.Type.Imports)
	}
	b.WriteString("}\n")
	return Model{Name: name, Declaration: b.String(), Dependencies: without(resolver.Merge(deps...), name)}, nil
}

func alias(name, description string, deprecated bool, rt resolver.ResolvedType) Model {
	var b strings.Builder
	b.WriteString(tsdoc.Comment("", description, deprecated))
	fmt.Fprintf(&b, "export type %s = %s;\n", name, rt.Value)
	if len(rt.Enum) > 0 {
		b.WriteString("\n// eslint-disable-next-line @typescript-eslint/no-redeclare\n")
		fmt.Fprintf(&b, "export const %s = {\n", name)
		seen := map[string]bool{}
		for _, lit := range rt.Enum {
			if seen[lit] {
				continue
			}
			seen[lit] = true
			fmt.Fprintf(&b, "  %s: %s as %s,\n", resolver.PropertyKey(lit), resolver.Quote(lit), name)
		}
		b.WriteString("};\n")
	}
	return Model{Name: name, Declaration: b.String(), Dependencies: without(rt.Imports, name)}
}

func without(names []string, drop string) []string {
	var out []string
	for _, n := range names {
		if n != drop {
			out = append(out, n)
		}
	}
	return out
}
