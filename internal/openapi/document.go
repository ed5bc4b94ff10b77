package openapi

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format identifies the serialization of the raw document text.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat maps a user supplied format tag to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported document format %q (allowed: json, yaml)", s)
	}
}

// DetectFormat guesses the serialization from the first significant byte.
func DetectFormat(data []byte) Format {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		return FormatJSON
	}
	return FormatYAML
}

// Document is the subset of an OpenAPI 3.0 description the generator reads.
type Document struct {
	OpenAPI    string                `yaml:"openapi"`
	Info       Info                  `yaml:"info"`
	Paths      OrderedMap[*PathItem] `yaml:"paths"`
	Components Components            `yaml:"components"`
	Tags       []Tag                 `yaml:"tags"`
}

type Info struct {
	Title       string `yaml:"title"`
	Version     string `yaml:"version"`
	Description string `yaml:"description"`
}

type Tag struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Components holds the four reusable namespaces references may target.
type Components struct {
	Schemas       OrderedMap[*Schema]      `yaml:"schemas"`
	Responses     OrderedMap[*Response]    `yaml:"responses"`
	Parameters    OrderedMap[*Parameter]   `yaml:"parameters"`
	RequestBodies OrderedMap[*RequestBody] `yaml:"requestBodies"`
}

type PathItem struct {
	Summary     string       `yaml:"summary"`
	Description string       `yaml:"description"`
	Parameters  []*Parameter `yaml:"parameters"`
	Get         *Operation   `yaml:"get"`
	Put         *Operation   `yaml:"put"`
	Post        *Operation   `yaml:"post"`
	Delete      *Operation   `yaml:"delete"`
	Patch       *Operation   `yaml:"patch"`
	Head        *Operation   `yaml:"head"`
	Options     *Operation   `yaml:"options"`
	Trace       *Operation   `yaml:"trace"`
}

// Verbs lists the verbs the client surface binds, in emission order.
var Verbs = []string{"get", "post", "put", "patch", "delete"}

// Operation returns the operation bound to verb, or nil.
func (p *PathItem) Operation(verb string) *Operation {
	if p == nil {
		return nil
	}
	switch strings.ToLower(verb) {
	case "get":
		return p.Get
	case "post":
		return p.Post
	case "put":
		return p.Put
	case "patch":
		return p.Patch
	case "delete":
		return p.Delete
	case "head":
		return p.Head
	case "options":
		return p.Options
	case "trace":
		return p.Trace
	}
	return nil
}

type Operation struct {
	OperationID string                `yaml:"operationId"`
	Summary     string                `yaml:"summary"`
	Description string                `yaml:"description"`
	Tags        []string              `yaml:"tags"`
	Deprecated  bool                  `yaml:"deprecated"`
	Parameters  []*Parameter          `yaml:"parameters"`
	RequestBody *RequestBody          `yaml:"requestBody"`
	Responses   OrderedMap[*Response] `yaml:"responses"`
}

type Parameter struct {
	Ref         string  `yaml:"$ref"`
	Name        string  `yaml:"name"`
	In          string  `yaml:"in"`
	Description string  `yaml:"description"`
	Required    bool    `yaml:"required"`
	Deprecated  bool    `yaml:"deprecated"`
	Schema      *Schema `yaml:"schema"`
}

type RequestBody struct {
	Ref         string                 `yaml:"$ref"`
	Description string                 `yaml:"description"`
	Required    bool                   `yaml:"required"`
	Content     OrderedMap[*MediaType] `yaml:"content"`
}

type Response struct {
	Ref         string                 `yaml:"$ref"`
	Description string                 `yaml:"description"`
	Content     OrderedMap[*MediaType] `yaml:"content"`
}

type MediaType struct {
	Schema *Schema `yaml:"schema"`
}

// Schema is a single schema node. Exactly which shape it has is decided by
// the resolver from the fields that are set.
type Schema struct {
	Ref                  string                `yaml:"$ref"`
	Type                 string                `yaml:"type"`
	Format               string                `yaml:"format"`
	Title                string                `yaml:"title"`
	Description          string                `yaml:"description"`
	Nullable             bool                  `yaml:"nullable"`
	Deprecated           bool                  `yaml:"deprecated"`
	Enum                 []any                 `yaml:"enum"`
	Default              any                   `yaml:"default"`
	Items                *Schema               `yaml:"items"`
	Properties           OrderedMap[*Schema]   `yaml:"properties"`
	Required             []string              `yaml:"required"`
	AllOf                []*Schema             `yaml:"allOf"`
	OneOf                []*Schema             `yaml:"oneOf"`
	AnyOf                []*Schema             `yaml:"anyOf"`
	AdditionalProperties *AdditionalProperties `yaml:"additionalProperties"`
	Discriminator        *Discriminator        `yaml:"discriminator"`
}

// HasDefault reports whether the schema declares a default value.
func (s *Schema) HasDefault() bool { return s != nil && s.Default != nil }

// IsRequired reports whether name appears in the required list.
func (s *Schema) IsRequired(name string) bool {
	if s == nil {
		return false
	}
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

// HasComposition reports whether the node is an allOf, oneOf or anyOf.
func (s *Schema) HasComposition() bool {
	return s != nil && (len(s.AllOf) > 0 || len(s.OneOf) > 0 || len(s.AnyOf) > 0)
}

// AdditionalProperties is either a boolean or a value schema.
type AdditionalProperties struct {
	Allowed bool
	Schema  *Schema
}

func (a *AdditionalProperties) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return node.Decode(&a.Allowed)
	}
	var s Schema
	if err := node.Decode(&s); err != nil {
		return err
	}
	a.Allowed = true
	a.Schema = &s
	return nil
}

type Discriminator struct {
	PropertyName string             `yaml:"propertyName"`
	Mapping      OrderedMap[string] `yaml:"mapping"`
}

// Parse decodes raw document text. JSON is converted token by token into a
// YAML node tree so that key order survives for both serializations.
func Parse(data []byte, format Format) (*Document, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errors.New("parse document: empty input")
	}
	var doc Document
	switch format {
	case FormatJSON:
		node, err := jsonToNode(data)
		if err != nil {
			return nil, fmt.Errorf("parse document: invalid JSON: %w", err)
		}
		if err := node.Decode(&doc); err != nil {
			return nil, fmt.Errorf("parse document: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse document: %w", err)
		}
	default:
		return nil, fmt.Errorf("parse document: unsupported format %q", format)
	}
	if !strings.HasPrefix(strings.TrimSpace(doc.OpenAPI), "3.") {
		return nil, fmt.Errorf("parse document: expected an OpenAPI 3.x document, got version %q", doc.OpenAPI)
	}
	return &doc, nil
}
