package openapi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-openapi/jsonpointer"
)

var (
	// ErrUnsupportedRef marks a $ref outside the local components namespaces.
	ErrUnsupportedRef = errors.New("unsupported $ref")
	// ErrUnknownComponent marks a local $ref whose target is not declared.
	ErrUnknownComponent = errors.New("unknown component")
)

// RefKind is the components sub-namespace a reference targets.
type RefKind string

const (
	KindSchema      RefKind = "schemas"
	KindResponse    RefKind = "responses"
	KindParameter   RefKind = "parameters"
	KindRequestBody RefKind = "requestBodies"
)

// Suffix is appended to the type name derived from a reference of this kind
// so that namespaces sharing a base name do not collide.
func (k RefKind) Suffix() string {
	switch k {
	case KindResponse:
		return "Response"
	case KindParameter:
		return "Parameter"
	case KindRequestBody:
		return "RequestBody"
	}
	return ""
}

// Ref is a decoded local reference such as #/components/schemas/Pet.
type Ref struct {
	Kind RefKind
	Name string
}

func (r Ref) String() string {
	return "#/components/" + string(r.Kind) + "/" + jsonpointer.Escape(r.Name)
}

// ParseRef decodes a $ref string. Only references into the four local
// components namespaces are accepted.
func ParseRef(ref string) (Ref, error) {
	if !strings.HasPrefix(ref, "#/") {
		return Ref{}, fmt.Errorf("%w %q: only local #/components references are supported", ErrUnsupportedRef, ref)
	}
	ptr, err := jsonpointer.New(strings.TrimPrefix(ref, "#"))
	if err != nil {
		return Ref{}, fmt.Errorf("%w %q: %v", ErrUnsupportedRef, ref, err)
	}
	tokens := ptr.DecodedTokens()
	if len(tokens) != 3 || tokens[0] != "components" || tokens[2] == "" {
		return Ref{}, fmt.Errorf("%w %q", ErrUnsupportedRef, ref)
	}
	kind := RefKind(tokens[1])
	switch kind {
	case KindSchema, KindResponse, KindParameter, KindRequestBody:
	default:
		return Ref{}, fmt.Errorf("%w %q: namespace %q is not one of schemas, responses, parameters, requestBodies", ErrUnsupportedRef, ref, tokens[1])
	}
	return Ref{Kind: kind, Name: tokens[2]}, nil
}

// Schema returns the named component schema.
func (c *Components) Schema(name string) (*Schema, bool) {
	s, ok := c.Schemas.Get(name)
	return s, ok && s != nil
}

// Parameter returns the named component parameter.
func (c *Components) Parameter(name string) (*Parameter, bool) {
	p, ok := c.Parameters.Get(name)
	return p, ok && p != nil
}

// Response returns the named component response.
func (c *Components) Response(name string) (*Response, bool) {
	r, ok := c.Responses.Get(name)
	return r, ok && r != nil
}

// RequestBody returns the named component request body.
func (c *Components) RequestBody(name string) (*RequestBody, bool) {
	b, ok := c.RequestBodies.Get(name)
	return b, ok && b != nil
}

// maxRefHops bounds chains of component-to-component references.
const maxRefHops = 32

// ResolveParameter follows p through parameter references until a concrete
// parameter is found.
func (c *Components) ResolveParameter(p *Parameter) (*Parameter, error) {
	for hops := 0; p != nil && p.Ref != ""; hops++ {
		if hops == maxRefHops {
			return nil, fmt.Errorf("%w: reference chain too long at %q", ErrUnknownComponent, p.Ref)
		}
		ref, err := expectKind(p.Ref, KindParameter)
		if err != nil {
			return nil, err
		}
		next, ok := c.Parameter(ref.Name)
		if !ok {
			return nil, fmt.Errorf("%w: parameter %q", ErrUnknownComponent, ref.Name)
		}
		p = next
	}
	return p, nil
}

// ResolveResponse follows r through response references.
func (c *Components) ResolveResponse(r *Response) (*Response, error) {
	for hops := 0; r != nil && r.Ref != ""; hops++ {
		if hops == maxRefHops {
			return nil, fmt.Errorf("%w: reference chain too long at %q", ErrUnknownComponent, r.Ref)
		}
		ref, err := expectKind(r.Ref, KindResponse)
		if err != nil {
			return nil, err
		}
		next, ok := c.Response(ref.Name)
		if !ok {
			return nil, fmt.Errorf("%w: response %q", ErrUnknownComponent, ref.Name)
		}
		r = next
	}
	return r, nil
}

// ResolveRequestBody follows b through request body references.
func (c *Components) ResolveRequestBody(b *RequestBody) (*RequestBody, error) {
	for hops := 0; b != nil && b.Ref != ""; hops++ {
		if hops == maxRefHops {
			return nil, fmt.Errorf("%w: reference chain too long at %q", ErrUnknownComponent, b.Ref)
		}
		ref, err := expectKind(b.Ref, KindRequestBody)
		if err != nil {
			return nil, err
		}
		next, ok := c.RequestBody(ref.Name)
		if !ok {
			return nil, fmt.Errorf("%w: request body %q", ErrUnknownComponent, ref.Name)
		}
		b = next
	}
	return b, nil
}

func expectKind(raw string, kind RefKind) (Ref, error) {
	ref, err := ParseRef(raw)
	if err != nil {
		return Ref{}, err
	}
	if ref.Kind != kind {
		return Ref{}, fmt.Errorf("%w %q: expected a reference into %s", ErrUnsupportedRef, raw, kind)
	}
	return ref, nil
}
