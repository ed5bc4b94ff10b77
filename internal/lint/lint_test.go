package lint

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/speakeasy-api/openapi/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const valid = `openapi: 3.0.3
info:
  title: Petstore
  version: "1.0.0"
paths:
  /pets:
    get:
      operationId: listPets
      responses:
        "200":
          description: ok
`

const incomplete = `openapi: 3.0.0
info:
  title: Bad
  version: "1.0.0"
paths:
  "/pet":
    get:
      responses: {}
`

func TestKin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	rep, err := Kin{}.Validate(ctx, []byte(valid))
	require.NoError(t, err)
	assert.True(t, rep.Empty(), "unexpected findings: %+v", rep)

	rep, err = Kin{}.Validate(ctx, []byte(incomplete))
	require.NoError(t, err)
	require.NotEmpty(t, rep.Errors)
	assert.Equal(t, "kin-openapi", rep.Errors[0].Source)

	rep, err = Kin{}.Validate(ctx, []byte("{not yaml: ["))
	require.NoError(t, err)
	assert.NotEmpty(t, rep.Errors)
}

func TestSpeakeasy(t *testing.T) {
	t.Parallel()
	rep, err := Speakeasy{}.Validate(context.Background(), []byte(valid))
	require.NoError(t, err)
	assert.Empty(t, rep.Errors)
}

type stubValidator struct {
	rep *Report
	err error
}

func (s stubValidator) Validate(context.Context, []byte) (*Report, error) { return s.rep, s.err }

func TestMulti(t *testing.T) {
	t.Parallel()
	m := Multi{
		stubValidator{rep: &Report{Warnings: []Finding{{Source: "a", Message: "w"}}}},
		stubValidator{err: errors.New("boom")},
		stubValidator{rep: &Report{Errors: []Finding{{Source: "c", Message: "e"}}}},
	}
	rep, err := m.Validate(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, rep.Warnings, 1)
	require.Len(t, rep.Errors, 2)
	assert.Equal(t, "boom", rep.Errors[0].Message)
	assert.Equal(t, "e", rep.Errors[1].Message)
}

func TestPosition(t *testing.T) {
	t.Parallel()
	line, msg := position(&validation.Error{Line: 12, Column: 4, Message: "field info is missing"})
	assert.Equal(t, 12, line)
	assert.Equal(t, "field info is missing", msg)

	line, msg = position(fmt.Errorf("wrapped: %w", validation.Error{Line: 3, Column: 1, Message: "bad enum"}))
	assert.Equal(t, 3, line)
	assert.Equal(t, "bad enum", msg)

	line, msg = position(errors.New("[9:9] not a validation error"))
	assert.Zero(t, line)
	assert.Equal(t, "[9:9] not a validation error", msg)
}

func TestFindingString(t *testing.T) {
	t.Parallel()
	f := Finding{Source: "kin-openapi", Message: "bad", Pointer: "#/paths", Line: 3}
	assert.Equal(t, "kin-openapi:3: bad (#/paths)", f.String())
}

func TestPointer(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "#/paths/~1pets", Pointer(errors.New(`invalid value at #/paths/~1pets`)))
	assert.Empty(t, Pointer(nil))
}
