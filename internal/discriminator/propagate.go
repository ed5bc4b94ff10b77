// Package discriminator tags the variants named by discriminator mappings.
package discriminator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mohae/deepcopy"

	"github.com/Kanary159357/orval/internal/openapi"
)

// ErrInvalidMappingTarget is returned when a mapping value does not name a
// schema in #/components/schemas.
var ErrInvalidMappingTarget = errors.New("invalid discriminator mapping target")

// Propagate returns a copy of doc in which, for every discriminator mapping
// entry, the target schema's discriminator property is constrained to the
// single literal that selects it. The input document is not modified.
//
// A property that is itself a $ref is left untouched. Running Propagate on
// its own output yields an equal document.
func Propagate(doc *openapi.Document) (*openapi.Document, error) {
	if doc == nil {
		return nil, errors.New("propagate: nil document")
	}
	out, ok := deepcopy.Copy(doc).(*openapi.Document)
	if !ok {
		return nil, errors.New("propagate: copy failed")
	}
	schemas := &out.Components
	for _, name := range schemas.Schemas.Keys {
		s, _ := schemas.Schema(name)
		if s == nil || s.Discriminator == nil || s.Discriminator.Mapping.Len() == 0 {
			continue
		}
		if err := apply(schemas, name, s.Discriminator); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func apply(c *openapi.Components, owner string, d *openapi.Discriminator) error {
	for _, literal := range d.Mapping.Keys {
		target, _ := d.Mapping.Get(literal)
		ref, err := openapi.ParseRef(target)
		if err != nil || ref.Kind != openapi.KindSchema {
			return fmt.Errorf("%w: schema %q maps %q to %q", ErrInvalidMappingTarget, owner, literal, target)
		}
		variant, ok := c.Schema(ref.Name)
		if !ok {
			return fmt.Errorf("%w: schema %q maps %q to undeclared schema %q", ErrInvalidMappingTarget, owner, literal, ref.Name)
		}
		prop := findProperty(variant, d.PropertyName)
		if prop == nil || prop.Ref != "" {
			continue
		}
		prop.Enum = []any{literal}
		if strings.TrimSpace(prop.Type) == "" {
			prop.Type = "string"
		}
	}
	return nil
}

// findProperty looks the property up on the schema itself, then on its
// inline allOf members.
func findProperty(s *openapi.Schema, name string) *openapi.Schema {
	if s == nil || name == "" {
		return nil
	}
	if p, ok := s.Properties.Get(name); ok {
		return p
	}
	for _, member := range s.AllOf {
		if member == nil || member.Ref != "" {
			continue
		}
		if p, ok := member.Properties.Get(name); ok {
			return p
		}
	}
	return nil
}
