// Package operation compiles path operations into typed axios bindings.
package operation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Kanary159357/orval/internal/naming"
	"github.com/Kanary159357/orval/internal/openapi"
	"github.com/Kanary159357/orval/internal/resolver"
	"github.com/Kanary159357/orval/internal/tsdoc"
)

// ErrMissingPathParameter is returned when a templated route segment has no
// matching path parameter.
var ErrMissingPathParameter = errors.New("path parameter not declared")

// Input is one (route, verb, operation) triple.
type Input struct {
	Route     string
	Verb      string
	Operation *openapi.Operation
	// Shared holds the path-item level parameters.
	Shared []*openapi.Parameter
}

// Compiled is the result of compiling one operation.
type Compiled struct {
	OperationID string
	// Name is the member name on the generated API.
	Name   string
	Verb   string
	URL    string
	Params []Param
	// Request is nil when the operation takes no body.
	Request  *resolver.ResolvedType
	Response resolver.ResolvedType
	// Accept is set when the success content is a binary stream.
	Accept string
	// Imports lists the model names the operation references.
	Imports []string
	// Declarations holds named types the API file must declare itself.
	Declarations   []string
	Definition     string
	Implementation string
}

// Compiler compiles operations against one document's components.
type Compiler struct {
	components *openapi.Components
}

// New returns a compiler resolving references against components.
func New(components *openapi.Components) *Compiler {
	if components == nil {
		components = &openapi.Components{}
	}
	return &Compiler{components: components}
}

// Compile turns in into a signature and an implementation. The operationId
// is recorded in seen; a missing or repeated id fails.
func (c *Compiler) Compile(in Input, seen *Tracker) (*Compiled, error) {
	op := in.Operation
	if op == nil {
		return nil, fmt.Errorf("compile %s %s: nil operation", in.Verb, in.Route)
	}
	verb := strings.ToLower(in.Verb)
	where := strings.ToUpper(verb) + " " + in.Route
	if err := seen.Add(strings.TrimSpace(op.OperationID), where); err != nil {
		return nil, err
	}

	out := &Compiled{
		OperationID: op.OperationID,
		Name:        naming.Camel(op.OperationID),
		Verb:        verb,
	}
	params, err := c.mergeParams(in.Shared, op.Parameters)
	if err != nil {
		return nil, fmt.Errorf("operation %q: %w", op.OperationID, err)
	}

	route, stripped := in.Route, ""
	if verb == "delete" {
		route, stripped = trimTrailingParam(in.Route)
	}
	out.URL = "`" + template(route) + "`"

	var imports [][]string
	for _, name := range pathParamNames(in.Route) {
		p := findParam(params, "path", name)
		if p == nil {
			return nil, fmt.Errorf("%w: %q in operation %q", ErrMissingPathParameter, name, op.OperationID)
		}
		rt, err := resolver.Resolve(p.Schema)
		if err != nil {
			return nil, fmt.Errorf("operation %q: path parameter %q: %w", op.OperationID, name, err)
		}
		param := Param{Name: ident(name), Required: true, Type: rt, Description: p.Description}
		if p.Schema.HasDefault() {
			param.HasDefault = true
			param.Default = Literal(p.Schema.Default)
		}
		out.Params = append(out.Params, param)
		imports = append(imports, rt.Imports)
	}

	query, err := queryParam(op.OperationID, params)
	if err != nil {
		return nil, err
	}
	if query != nil {
		out.Params = append(out.Params, *query)
		imports = append(imports, query.Type.Imports)
	}

	var body *Param
	if op.RequestBody != nil {
		target, err := c.components.ResolveRequestBody(op.RequestBody)
		if err != nil {
			return nil, fmt.Errorf("operation %q: %w", op.OperationID, err)
		}
		ext, err := resolver.Extract([]resolver.Body{resolver.RequestBodyOf("requestBody", op.RequestBody, target)})
		if err != nil {
			return nil, fmt.Errorf("operation %q: %w", op.OperationID, err)
		}
		name := "payload"
		if ext.Type.IsRef {
			name = naming.Camel(ext.Type.Value)
		}
		body = &Param{Name: name, Required: true, Type: ext.Type}
		if target != nil {
			body.Description = target.Description
		}
		out.Request = &ext.Type
		out.Params = append(out.Params, *body)
		imports = append(imports, ext.Type.Imports)
	}
	sortParams(out.Params)

	success, all, err := c.responses(op)
	if err != nil {
		return nil, err
	}
	out.Response = success.Type
	if resolver.IsRecord(success.Type.Value) {
		wrapper := naming.Pascal(op.OperationID) + "Response"
		out.Declarations = append(out.Declarations, fmt.Sprintf("export type %s = %s;\n", wrapper, success.Type.Value))
		out.Response = resolver.ResolvedType{Value: wrapper}
	}
	if len(success.ContentTypes) > 0 && resolver.IsBinaryContent(success.ContentTypes[0]) {
		out.Accept = success.ContentTypes[0]
	}
	imports = append(imports, success.Type.Imports, all.Type.Imports)
	out.Imports = resolver.Merge(imports...)

	doc := tsdoc.Comment("  ", describe(op), op.Deprecated)
	sig := make([]string, 0, len(out.Params))
	impl := make([]string, 0, len(out.Params))
	for _, p := range out.Params {
		sig = append(sig, p.signature())
		impl = append(impl, p.implementation())
	}
	ret := "AxiosPromise<" + out.Response.Value + ">"
	out.Definition = fmt.Sprintf("%s  %s(%s): %s;\n", doc, out.Name, strings.Join(sig, ", "), ret)
	out.Implementation = fmt.Sprintf("%s  %s(%s): %s {\n    return axios.%s<%s>(%s);\n  },\n",
		doc, out.Name, strings.Join(impl, ", "), ret, verb, out.Response.Value,
		strings.Join(callArgs(out, query != nil, stripped, body), ", "))
	return out, nil
}

// responses extracts the union of the 2xx response types and the union of
// every response type.
func (c *Compiler) responses(op *openapi.Operation) (resolver.Extraction, resolver.Extraction, error) {
	var success, all []resolver.Body
	for _, code := range op.Responses.Keys {
		r, _ := op.Responses.Get(code)
		if r == nil {
			continue
		}
		target, err := c.components.ResolveResponse(r)
		if err != nil {
			return resolver.Extraction{}, resolver.Extraction{}, fmt.Errorf("operation %q: response %s: %w", op.OperationID, code, err)
		}
		b := resolver.ResponseBody("response "+code, r, target)
		all = append(all, b)
		if strings.HasPrefix(code, "2") {
			success = append(success, b)
		}
	}
	s, err := resolver.Extract(success)
	if err != nil {
		return resolver.Extraction{}, resolver.Extraction{}, fmt.Errorf("operation %q: %w", op.OperationID, err)
	}
	a, err := resolver.Extract(all)
	if err != nil {
		return resolver.Extraction{}, resolver.Extraction{}, fmt.Errorf("operation %q: %w", op.OperationID, err)
	}
	return s, a, nil
}

// queryParam folds the query parameters into one inline params argument.
func queryParam(operationID string, params []*openapi.Parameter) (*Param, error) {
	var (
		fields   []string
		imports  []string
		required bool
	)
	for _, p := range params {
		if !strings.EqualFold(p.In, "query") {
			continue
		}
		rt, err := resolver.Resolve(p.Schema)
		if err != nil {
			return nil, fmt.Errorf("operation %q: query parameter %q: %w", operationID, p.Name, err)
		}
		key := resolver.PropertyKey(p.Name)
		if p.Required && !p.Schema.HasDefault() {
			required = true
		} else {
			key += "?"
		}
		fields = append(fields, key+": "+rt.Value)
		imports = append(imports, rt.Imports...)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return &Param{
		Name:     "params",
		Required: required,
		Type:     resolver.ResolvedType{Value: "{ " + strings.Join(fields, "; ") + " }", Imports: resolver.Merge(imports)},
	}, nil
}

// callArgs renders the arguments of the axios call.
func callArgs(c *Compiled, hasQuery bool, stripped string, body *Param) []string {
	var config []string
	switch {
	case hasQuery && stripped != "":
		config = append(config, "params: { ...params, "+ident(stripped)+" }")
	case hasQuery:
		config = append(config, "params")
	case stripped != "":
		config = append(config, "params: { "+ident(stripped)+" }")
	}
	withData := c.Verb == "post" || c.Verb == "put" || c.Verb == "patch"
	if body != nil && !withData {
		config = append(config, "data: "+body.Name)
	}
	if c.Accept != "" {
		config = append(config, "responseType: 'arraybuffer'", "headers: { Accept: "+resolver.Quote(c.Accept)+" }")
	}

	args := []string{c.URL}
	if withData {
		switch {
		case body != nil:
			args = append(args, body.Name)
		case len(config) > 0:
			args = append(args, "undefined")
		}
	}
	if len(config) > 0 {
		args = append(args, "{ "+strings.Join(config, ", ")+" }")
	}
	return args
}

func describe(op *openapi.Operation) string {
	summary := strings.TrimSpace(op.Summary)
	description := strings.TrimSpace(op.Description)
	switch {
	case summary == "":
		return description
	case description == "" || description == summary:
		return summary
	}
	return summary + "\n\n" + description
}
