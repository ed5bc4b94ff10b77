package lint

import (
	"bytes"
	"context"
	"errors"

	"github.com/speakeasy-api/openapi/openapi"
	"github.com/speakeasy-api/openapi/validation"
)

// Speakeasy validates with the speakeasy-api/openapi parser. Its
// validation errors are reported as warnings; a document it cannot parse
// at all is an error finding.
type Speakeasy struct{}

func (Speakeasy) Validate(ctx context.Context, data []byte) (*Report, error) {
	const source = "speakeasy"
	rep := &Report{}
	_, validationErrs, err := openapi.Unmarshal(ctx, bytes.NewReader(data))
	if err != nil {
		rep.Errors = append(rep.Errors, Finding{Source: source, Message: err.Error()})
		return rep, nil
	}
	for _, verr := range validationErrs {
		if verr == nil {
			continue
		}
		line, msg := position(verr)
		rep.Warnings = append(rep.Warnings, Finding{Source: source, Message: msg, Line: line})
	}
	return rep, nil
}

// position reads the line and bare message from a validation error.
func position(err error) (int, string) {
	var pe *validation.Error
	if errors.As(err, &pe) && pe != nil {
		return pe.Line, pe.Message
	}
	var ve validation.Error
	if errors.As(err, &ve) {
		return ve.Line, ve.Message
	}
	return 0, err.Error()
}
