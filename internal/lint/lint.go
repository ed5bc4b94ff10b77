// Package lint runs advisory validation over a raw document and returns
// the findings as a structured report. Findings never fail generation.
package lint

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Finding is one validation message.
type Finding struct {
	Source  string
	Message string
	// Pointer is a JSON pointer such as #/paths/~1pets/get when known.
	Pointer string
	// Line is the 1-based source line when known, else 0.
	Line int
}

func (f Finding) String() string {
	var b strings.Builder
	b.WriteString(f.Source)
	if f.Line > 0 {
		fmt.Fprintf(&b, ":%d", f.Line)
	}
	b.WriteString(": ")
	b.WriteString(f.Message)
	if f.Pointer != "" {
		b.WriteString(" (" + f.Pointer + ")")
	}
	return b.String()
}

// Report collects findings by severity.
type Report struct {
	Warnings []Finding
	Errors   []Finding
}

// Empty reports whether there are no findings.
func (r *Report) Empty() bool {
	return r == nil || (len(r.Warnings) == 0 && len(r.Errors) == 0)
}

// Merge appends the findings of other.
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	r.Warnings = append(r.Warnings, other.Warnings...)
	r.Errors = append(r.Errors, other.Errors...)
}

// Validator validates raw document text.
type Validator interface {
	Validate(ctx context.Context, data []byte) (*Report, error)
}

// Multi runs each validator in turn and merges their reports. A validator
// that fails outright contributes an error finding instead.
type Multi []Validator

func (m Multi) Validate(ctx context.Context, data []byte) (*Report, error) {
	out := &Report{}
	for _, v := range m {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		rep, err := v.Validate(ctx, data)
		if err != nil {
			out.Errors = append(out.Errors, Finding{Source: fmt.Sprintf("%T", v), Message: err.Error()})
			continue
		}
		out.Merge(rep)
	}
	return out, nil
}

// Kin validates with kin-openapi's loader and structural validation.
type Kin struct{}

func (Kin) Validate(ctx context.Context, data []byte) (*Report, error) {
	const source = "kin-openapi"
	rep := &Report{}
	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(data)
	if err != nil {
		rep.Errors = append(rep.Errors, Finding{Source: source, Message: err.Error(), Pointer: Pointer(err)})
		return rep, nil
	}
	if err := doc.Validate(ctx); err != nil {
		for _, e := range split(err) {
			rep.Errors = append(rep.Errors, Finding{Source: source, Message: e.Error(), Pointer: Pointer(e)})
		}
	}
	return rep, nil
}

func split(err error) []error {
	var me openapi3.MultiError
	if errors.As(err, &me) {
		var out []error
		for _, e := range me {
			out = append(out, split(e)...)
		}
		return out
	}
	return []error{err}
}

var jsonPtrRe = regexp.MustCompile(`#/[^\s'"]+`)

// Pointer extracts a JSON pointer from err when one is available.
func Pointer(err error) string {
	if err == nil {
		return ""
	}
	var me openapi3.MultiError
	if errors.As(err, &me) && len(me) > 0 {
		return Pointer(me[0])
	}
	var se *openapi3.SchemaError
	if errors.As(err, &se) {
		if parts := se.JSONPointer(); len(parts) > 0 {
			return "#/" + strings.Join(parts, "/")
		}
		if se.SchemaField != "" {
			return se.SchemaField
		}
	}
	return jsonPtrRe.FindString(err.Error())
}
