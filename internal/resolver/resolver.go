// Package resolver turns schema nodes into TypeScript type expressions.
//
// References are never expanded: a $ref always renders as the referent's
// type name, which is what keeps named recursion finite. Inline cycles are
// caught by a visited-path guard.
package resolver

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Kanary159357/orval/internal/naming"
	"github.com/Kanary159357/orval/internal/openapi"
)

var (
	// ErrMissingItems is returned for an array schema without items.
	ErrMissingItems = errors.New("array schema has no items")
	// ErrCyclicSchema is returned when an inline schema contains itself.
	ErrCyclicSchema = errors.New("cyclic inline schema")
)

// ResolvedType is the result of resolving one schema node.
type ResolvedType struct {
	// Value is the TypeScript type expression.
	Value string
	// Imports lists the named types Value refers to, sorted and unique.
	Imports []string
	// Composite is set when Value is a top level union or intersection.
	Composite bool
	// Enum holds the literal members when Value is a string-literal union.
	Enum []string
	// IsRef is set when Value is exactly one referenced type name.
	IsRef bool
}

// Field is one member of a structural record.
type Field struct {
	// Key is the rendered property key, quoted when it is not an identifier.
	// Index signatures use "[key: string]".
	Key         string
	Optional    bool
	Type        ResolvedType
	Description string
	Deprecated  bool
}

// Resolve renders s as a TypeScript type expression.
func Resolve(s *openapi.Schema) (ResolvedType, error) {
	r := &resolver{visiting: map[*openapi.Schema]bool{}}
	return r.resolve(s)
}

// RefName derives the type name a reference renders as.
func RefName(ref string) (string, error) {
	parsed, err := openapi.ParseRef(ref)
	if err != nil {
		return "", err
	}
	return TypeName(parsed), nil
}

// TypeName is the declared name for a component of the given kind.
func TypeName(ref openapi.Ref) string {
	return naming.Pascal(ref.Name) + ref.Kind.Suffix()
}

type resolver struct {
	visiting map[*openapi.Schema]bool
}

func (r *resolver) resolve(s *openapi.Schema) (ResolvedType, error) {
	if s == nil {
		return ResolvedType{Value: "any"}, nil
	}
	if s.Ref != "" {
		name, err := RefName(s.Ref)
		if err != nil {
			return ResolvedType{}, err
		}
		return nullable(s, ResolvedType{Value: name, Imports: []string{name}, IsRef: true}), nil
	}
	if r.visiting[s] {
		return ResolvedType{}, ErrCyclicSchema
	}
	r.visiting[s] = true
	defer delete(r.visiting, s)

	var (
		out ResolvedType
		err error
	)
	switch strings.ToLower(s.Type) {
	case "array":
		out, err = r.array(s)
	case "integer", "number", "float", "double", "long", "int32", "int64", "float32", "float64":
		out = ResolvedType{Value: "number"}
	case "boolean":
		out = ResolvedType{Value: "boolean"}
	case "string", "byte", "binary", "date", "date-time", "password":
		out = str(s)
	default:
		out, err = r.object(s)
	}
	if err != nil {
		return ResolvedType{}, err
	}
	return nullable(s, out), nil
}

func str(s *openapi.Schema) ResolvedType {
	if s.Format == "binary" {
		return ResolvedType{Value: "Blob"}
	}
	if len(s.Enum) == 0 {
		return ResolvedType{Value: "string"}
	}
	lits := make([]string, 0, len(s.Enum))
	parts := make([]string, 0, len(s.Enum))
	for _, v := range s.Enum {
		if v == nil {
			continue
		}
		lit := fmt.Sprint(v)
		lits = append(lits, lit)
		parts = append(parts, Quote(lit))
	}
	if len(parts) == 0 {
		return ResolvedType{Value: "string"}
	}
	return ResolvedType{Value: strings.Join(parts, " | "), Enum: lits, Composite: len(parts) > 1}
}

func (r *resolver) array(s *openapi.Schema) (ResolvedType, error) {
	if s.Items == nil {
		return ResolvedType{}, ErrMissingItems
	}
	item, err := r.resolve(s.Items)
	if err != nil {
		return ResolvedType{}, fmt.Errorf("items: %w", err)
	}
	value := item.Value
	if item.Composite {
		value = "(" + value + ")"
	}
	return ResolvedType{Value: value + "[]", Imports: item.Imports}, nil
}

func (r *resolver) object(s *openapi.Schema) (ResolvedType, error) {
	switch {
	case len(s.AllOf) > 0:
		return r.compose(s.AllOf, " & ", "allOf")
	case len(s.OneOf) > 0:
		return r.compose(s.OneOf, " | ", "oneOf")
	case len(s.AnyOf) > 0:
		return r.compose(s.AnyOf, " | ", "anyOf")
	case s.Properties.Len() > 0:
		fields, err := r.fields(s)
		if err != nil {
			return ResolvedType{}, err
		}
		return record(fields), nil
	case s.AdditionalProperties != nil && (s.AdditionalProperties.Allowed || s.AdditionalProperties.Schema != nil):
		fields, err := r.fields(s)
		if err != nil {
			return ResolvedType{}, err
		}
		return record(fields), nil
	case strings.EqualFold(s.Type, "object"):
		return ResolvedType{Value: "{}"}, nil
	default:
		return ResolvedType{Value: "any"}, nil
	}
}

func (r *resolver) compose(members []*openapi.Schema, sep, keyword string) (ResolvedType, error) {
	resolved := make([]ResolvedType, 0, len(members))
	for i, m := range members {
		rt, err := r.resolve(m)
		if err != nil {
			return ResolvedType{}, fmt.Errorf("%s[%d]: %w", keyword, i, err)
		}
		resolved = append(resolved, rt)
	}
	if len(resolved) == 1 {
		return resolved[0], nil
	}
	parts := make([]string, 0, len(resolved))
	var imports []string
	for _, rt := range resolved {
		v := rt.Value
		// & binds tighter than |, so union members of an intersection need parens.
		if rt.Composite && sep == " & " {
			v = "(" + v + ")"
		}
		parts = append(parts, v)
		imports = append(imports, rt.Imports...)
	}
	return ResolvedType{Value: strings.Join(parts, sep), Imports: Merge(imports), Composite: true}, nil
}

// Fields lists the members of an object schema: declared properties in
// declaration order, or an index signature for a free-form map.
func Fields(s *openapi.Schema) ([]Field, error) {
	r := &resolver{visiting: map[*openapi.Schema]bool{s: true}}
	return r.fields(s)
}

func (r *resolver) fields(s *openapi.Schema) ([]Field, error) {
	if s.Properties.Len() > 0 {
		out := make([]Field, 0, s.Properties.Len())
		for _, name := range s.Properties.Keys {
			prop, _ := s.Properties.Get(name)
			rt, err := r.resolve(prop)
			if err != nil {
				return nil, fmt.Errorf("property %q: %w", name, err)
			}
			f := Field{
				Key:      PropertyKey(name),
				Optional: !s.IsRequired(name),
				Type:     rt,
			}
			if prop != nil {
				f.Description = prop.Description
				f.Deprecated = prop.Deprecated
			}
			out = append(out, f)
		}
		return out, nil
	}
	ap := s.AdditionalProperties
	if ap == nil || (!ap.Allowed && ap.Schema == nil) {
		return nil, nil
	}
	value := ResolvedType{Value: "any"}
	if ap.Schema != nil {
		rt, err := r.resolve(ap.Schema)
		if err != nil {
			return nil, fmt.Errorf("additionalProperties: %w", err)
		}
		value = rt
	}
	return []Field{{Key: "[key: string]", Type: value}}, nil
}

func record(fields []Field) ResolvedType {
	if len(fields) == 0 {
		return ResolvedType{Value: "{}"}
	}
	parts := make([]string, 0, len(fields))
	var imports []string
	for _, f := range fields {
		key := f.Key
		if f.Optional {
			key += "?"
		}
		parts = append(parts, key+": "+f.Type.Value)
		imports = append(imports, f.Type.Imports...)
	}
	return ResolvedType{Value: "{ " + strings.Join(parts, "; ") + " }", Imports: Merge(imports)}
}

func nullable(s *openapi.Schema, rt ResolvedType) ResolvedType {
	if !s.Nullable {
		return rt
	}
	rt.Value += " | null"
	rt.Composite = true
	rt.IsRef = false
	return rt
}

// IsRecord reports whether a type expression is an inline structural record.
func IsRecord(value string) bool {
	return strings.HasPrefix(value, "{") && strings.HasSuffix(value, "}")
}

// Quote renders s as a single-quoted TypeScript string literal.
func Quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`)
	return "'" + r.Replace(s) + "'"
}

// PropertyKey renders name as an object key, quoting when needed.
func PropertyKey(name string) string {
	if naming.IsIdentifier(name) {
		return name
	}
	return Quote(name)
}

// Merge returns the sorted, de-duplicated union of name lists.
func Merge(lists ...[]string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, l := range lists {
		for _, n := range l {
			if n == "" {
				continue
			}
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}
