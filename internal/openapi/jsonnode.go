package openapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// jsonNodeBuilder turns a JSON token stream into a yaml.Node tree so JSON
// documents decode through the same ordered unmarshalers as YAML ones.
type jsonNodeBuilder struct {
	dec  *json.Decoder
	data []byte
	off  int64
	line int
}

func jsonToNode(data []byte) (*yaml.Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	b := &jsonNodeBuilder{dec: dec, data: data, line: 1}
	root, err := b.value()
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level value")
	}
	return &yaml.Node{Kind: yaml.DocumentNode, Line: 1, Column: 1, Content: []*yaml.Node{root}}, nil
}

// next reads a token and advances the line counter to the decoder offset.
func (b *jsonNodeBuilder) next() (json.Token, error) {
	tok, err := b.dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	end := b.dec.InputOffset()
	b.line += bytes.Count(b.data[b.off:end], []byte("\n"))
	b.off = end
	return tok, nil
}

func (b *jsonNodeBuilder) value() (*yaml.Node, error) {
	tok, err := b.next()
	if err != nil {
		return nil, err
	}
	return b.node(tok)
}

func (b *jsonNodeBuilder) node(tok json.Token) (*yaml.Node, error) {
	line := b.line
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return b.object(line)
		case '[':
			return b.array(line)
		}
		return nil, fmt.Errorf("line %d: unexpected %q", line, t)
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: t, Style: yaml.DoubleQuotedStyle, Line: line}, nil
	case json.Number:
		tag := "!!int"
		if strings.ContainsAny(string(t), ".eE") {
			tag = "!!float"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: string(t), Line: line}, nil
	case bool:
		value := "false"
		if t {
			value = "true"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: value, Line: line}, nil
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null", Line: line}, nil
	}
	return nil, fmt.Errorf("line %d: unexpected token %v", line, tok)
}

func (b *jsonNodeBuilder) object(line int) (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Line: line}
	for {
		tok, err := b.next()
		if err != nil {
			return nil, err
		}
		if d, ok := tok.(json.Delim); ok && d == '}' {
			return n, nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("line %d: expected an object key", b.line)
		}
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key, Style: yaml.DoubleQuotedStyle, Line: b.line}
		val, err := b.value()
		if err != nil {
			return nil, err
		}
		n.Content = append(n.Content, keyNode, val)
	}
}

func (b *jsonNodeBuilder) array(line int) (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Line: line}
	for {
		tok, err := b.next()
		if err != nil {
			return nil, err
		}
		if d, ok := tok.(json.Delim); ok && d == ']' {
			return n, nil
		}
		val, err := b.node(tok)
		if err != nil {
			return nil, err
		}
		n.Content = append(n.Content, val)
	}
}
