package resolver

import (
	"fmt"
	"strings"

	"github.com/Kanary159357/orval/internal/openapi"
)

// Content types inspected by Extract, highest priority first.
const (
	ContentJSON        = "application/json"
	ContentOctetStream = "application/octet-stream"
	ContentPDF         = "application/pdf"
)

var contentPriority = []string{ContentJSON, ContentOctetStream, ContentPDF}

// Body is one response or request body handed to Extract. Ref is the
// original $ref when the body was referenced; Content is the dereferenced
// content map and is only used to find the media type.
type Body struct {
	Label   string
	Ref     string
	Content openapi.OrderedMap[*openapi.MediaType]
}

// ResponseBody builds a Body from a response. target is the dereferenced
// response when r is a reference, or r itself.
func ResponseBody(label string, r, target *openapi.Response) Body {
	b := Body{Label: label}
	if r != nil {
		b.Ref = r.Ref
	}
	if target != nil {
		b.Content = target.Content
	}
	return b
}

// RequestBodyOf builds a Body from a request body and its dereferenced target.
func RequestBodyOf(label string, rb, target *openapi.RequestBody) Body {
	b := Body{Label: label}
	if rb != nil {
		b.Ref = rb.Ref
	}
	if target != nil {
		b.Content = target.Content
	}
	return b
}

// Extraction is the union of the types of a list of bodies.
type Extraction struct {
	Type ResolvedType
	// ContentTypes lists the media type chosen for each body that had one.
	ContentTypes []string
	// Schemas lists the inline schema chosen for each body, nil for
	// referenced bodies and bodies without a recognised media type.
	Schemas []*openapi.Schema
}

// Extract resolves each body and unions the distinct results. A direct
// reference resolves to its type name; otherwise the first content type in
// priority order decides the schema. Bodies without a recognised content
// type, and an empty list, resolve to unknown.
func Extract(bodies []Body) (Extraction, error) {
	var (
		out     Extraction
		values  []string
		imports []string
		seen    = map[string]bool{}
		single  ResolvedType
	)
	for _, b := range bodies {
		rt, ct, schema, err := extractOne(b)
		if err != nil {
			return Extraction{}, fmt.Errorf("%s: %w", b.Label, err)
		}
		if ct != "" {
			out.ContentTypes = append(out.ContentTypes, ct)
		}
		out.Schemas = append(out.Schemas, schema)
		if seen[rt.Value] {
			continue
		}
		seen[rt.Value] = true
		values = append(values, rt.Value)
		imports = append(imports, rt.Imports...)
		single = rt
	}
	switch len(values) {
	case 0:
		out.Type = ResolvedType{Value: "unknown"}
	case 1:
		out.Type = single
	default:
		out.Type = ResolvedType{Value: strings.Join(values, " | "), Imports: Merge(imports), Composite: true}
	}
	return out, nil
}

func extractOne(b Body) (ResolvedType, string, *openapi.Schema, error) {
	ct, mt := pick(b.Content)
	if b.Ref != "" {
		name, err := RefName(b.Ref)
		if err != nil {
			return ResolvedType{}, "", nil, err
		}
		return ResolvedType{Value: name, Imports: []string{name}, IsRef: true}, ct, nil, nil
	}
	if mt == nil || mt.Schema == nil {
		return ResolvedType{Value: "unknown"}, ct, nil, nil
	}
	rt, err := Resolve(mt.Schema)
	if err != nil {
		return ResolvedType{}, "", nil, err
	}
	return rt, ct, mt.Schema, nil
}

// pick returns the highest priority media type present in content. Media
// type parameters such as charset are ignored.
func pick(content openapi.OrderedMap[*openapi.MediaType]) (string, *openapi.MediaType) {
	for _, want := range contentPriority {
		for _, key := range content.Keys {
			base, _, _ := strings.Cut(key, ";")
			if strings.EqualFold(strings.TrimSpace(base), want) {
				mt, _ := content.Get(key)
				return want, mt
			}
		}
	}
	return "", nil
}

// IsBinaryContent reports whether ct is a downloadable byte stream.
func IsBinaryContent(ct string) bool {
	return ct == ContentOctetStream || ct == ContentPDF
}
