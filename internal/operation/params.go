package operation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Kanary159357/orval/internal/naming"
	"github.com/Kanary159357/orval/internal/openapi"
	"github.com/Kanary159357/orval/internal/resolver"
)

// Param is one argument of a compiled operation.
type Param struct {
	Name       string
	Required   bool
	HasDefault bool
	// Default is the TypeScript literal of the default value.
	Default     string
	Type        resolver.ResolvedType
	Description string
}

// signature renders the parameter for the API interface. Defaulted
// parameters are optional to callers.
func (p Param) signature() string {
	if p.Required && !p.HasDefault {
		return p.Name + ": " + p.Type.Value
	}
	return p.Name + "?: " + p.Type.Value
}

// implementation renders the parameter for the factory body.
func (p Param) implementation() string {
	if p.HasDefault {
		return p.Name + ": " + p.Type.Value + " = " + p.Default
	}
	return p.signature()
}

func (p Param) rank() int {
	switch {
	case p.HasDefault:
		return 2
	case p.Required:
		return 0
	default:
		return 1
	}
}

// sortParams orders required, then optional, then defaulted parameters,
// keeping declaration order within each group.
func sortParams(params []Param) {
	sort.SliceStable(params, func(i, j int) bool { return params[i].rank() < params[j].rank() })
}

var pathParamRe = regexp.MustCompile(`\{([^{}]+)\}`)

// pathParamNames returns the templated segment names of route in order.
func pathParamNames(route string) []string {
	var names []string
	for _, m := range pathParamRe.FindAllStringSubmatch(route, -1) {
		names = append(names, m[1])
	}
	return names
}

// template rewrites {name} segments into ${name} interpolations.
func template(route string) string {
	return pathParamRe.ReplaceAllStringFunc(route, func(seg string) string {
		return "${" + ident(seg[1:len(seg)-1]) + "}"
	})
}

// trimTrailingParam strips a final templated segment from route. It returns
// the trimmed route and the stripped parameter name, or route and "".
func trimTrailingParam(route string) (string, string) {
	idx := strings.LastIndex(route, "/")
	if idx < 0 {
		return route, ""
	}
	last := route[idx+1:]
	if !strings.HasPrefix(last, "{") || !strings.HasSuffix(last, "}") || strings.Count(last, "{") != 1 {
		return route, ""
	}
	return route[:idx], last[1 : len(last)-1]
}

// ident maps a parameter name onto a TypeScript identifier.
func ident(name string) string {
	if naming.IsIdentifier(name) {
		return name
	}
	return naming.Camel(name)
}

func paramKey(in, name string) string { return in + ":" + name }

// mergeParams combines path-item and operation parameters. Operation level
// entries override shared ones with the same location and name; the first
// declaration fixes the position.
func (c *Compiler) mergeParams(shared, own []*openapi.Parameter) ([]*openapi.Parameter, error) {
	var (
		order []string
		byKey = map[string]*openapi.Parameter{}
	)
	for _, list := range [][]*openapi.Parameter{shared, own} {
		for _, raw := range list {
			p, err := c.components.ResolveParameter(raw)
			if err != nil {
				return nil, err
			}
			if p == nil {
				continue
			}
			key := paramKey(strings.ToLower(p.In), p.Name)
			if _, ok := byKey[key]; !ok {
				order = append(order, key)
			}
			byKey[key] = p
		}
	}
	out := make([]*openapi.Parameter, 0, len(order))
	for _, key := range order {
		out = append(out, byKey[key])
	}
	return out, nil
}

func findParam(params []*openapi.Parameter, in, name string) *openapi.Parameter {
	for _, p := range params {
		if strings.EqualFold(p.In, in) && p.Name == name {
			return p
		}
	}
	return nil
}

// Literal renders a default value as a TypeScript literal.
func Literal(v any) string {
	if s, ok := v.(string); ok {
		return resolver.Quote(s)
	}
	b, err := json.Marshal(normalize(v))
	if err != nil {
		return resolver.Quote(fmt.Sprint(v))
	}
	return string(b)
}

// normalize converts YAML decoded maps with non-string keys so they can be
// rendered as JSON.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = normalize(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[fmt.Sprint(k)] = normalize(e)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = normalize(e)
		}
		return out
	}
	return v
}
