package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Kanary159357/orval/internal/openapi"
)

func response(t *testing.T, src string) *openapi.Response {
	t.Helper()
	var r openapi.Response
	require.NoError(t, yaml.Unmarshal([]byte(src), &r))
	return &r
}

func TestExtract(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		bodies   []string
		value    string
		imports  []string
		contents []string
	}{
		{
			name:     "json schema",
			bodies:   []string{`{content: {application/json: {schema: {type: array, items: {$ref: '#/components/schemas/Pet'}}}}}`},
			value:    "Pet[]",
			imports:  []string{"Pet"},
			contents: []string{ContentJSON},
		},
		{
			name:     "json preferred over pdf",
			bodies:   []string{`{content: {application/pdf: {schema: {type: string, format: binary}}, application/json: {schema: {type: string}}}}`},
			value:    "string",
			contents: []string{ContentJSON},
		},
		{
			name:     "media type parameters ignored",
			bodies:   []string{`{content: {"application/json; charset=utf-8": {schema: {type: boolean}}}}`},
			value:    "boolean",
			contents: []string{ContentJSON},
		},
		{
			name:     "pdf only",
			bodies:   []string{`{content: {application/pdf: {schema: {type: string, format: binary}}}}`},
			value:    "Blob",
			contents: []string{ContentPDF},
		},
		{
			name:   "no recognised content",
			bodies: []string{`{content: {text/plain: {schema: {type: string}}}}`},
			value:  "unknown",
		},
		{
			name:   "no content",
			bodies: []string{`{description: empty}`},
			value:  "unknown",
		},
		{
			name:    "direct reference",
			bodies:  []string{`{$ref: '#/components/responses/Error'}`},
			value:   "ErrorResponse",
			imports: []string{"ErrorResponse"},
		},
		{
			name: "union de-duplicated",
			bodies: []string{
				`{content: {application/json: {schema: {$ref: '#/components/schemas/Pet'}}}}`,
				`{content: {application/json: {schema: {$ref: '#/components/schemas/Pet'}}}}`,
				`{content: {application/json: {schema: {$ref: '#/components/schemas/Error'}}}}`,
			},
			value:    "Pet | Error",
			imports:  []string{"Error", "Pet"},
			contents: []string{ContentJSON, ContentJSON, ContentJSON},
		},
		{
			name:  "empty list",
			value: "unknown",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var bodies []Body
			for i, src := range tt.bodies {
				r := response(t, src)
				bodies = append(bodies, ResponseBody(string(rune('a'+i)), r, r))
			}
			got, err := Extract(bodies)
			require.NoError(t, err)
			assert.Equal(t, tt.value, got.Type.Value)
			assert.Equal(t, tt.imports, got.Type.Imports)
			assert.Equal(t, tt.contents, got.ContentTypes)
		})
	}
}

func TestExtract_ReferencedContentType(t *testing.T) {
	t.Parallel()
	ref := &openapi.Response{Ref: "#/components/responses/Report"}
	target := response(t, `{content: {application/pdf: {schema: {type: string, format: binary}}}}`)

	got, err := Extract([]Body{ResponseBody("200", ref, target)})
	require.NoError(t, err)
	assert.Equal(t, "ReportResponse", got.Type.Value)
	assert.Equal(t, []string{ContentPDF}, got.ContentTypes)
	assert.True(t, IsBinaryContent(got.ContentTypes[0]))
}

func TestExtract_Error(t *testing.T) {
	t.Parallel()
	r := response(t, `{content: {application/json: {schema: {type: array}}}}`)
	_, err := Extract([]Body{ResponseBody("200", r, r)})
	require.ErrorIs(t, err, ErrMissingItems)
	assert.Contains(t, err.Error(), "200")
}
