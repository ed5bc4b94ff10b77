package discriminator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kanary159357/orval/internal/openapi"
	"github.com/Kanary159357/orval/internal/resolver"
)

const petsYAML = `openapi: 3.0.0
info: {title: pets, version: "1"}
paths: {}
components:
  schemas:
    Pet:
      oneOf:
        - $ref: '#/components/schemas/Dog'
        - $ref: '#/components/schemas/Cat'
        - $ref: '#/components/schemas/Lizard'
        - $ref: '#/components/schemas/Bird'
      discriminator:
        propertyName: petType
        mapping:
          dog: '#/components/schemas/Dog'
          cat: '#/components/schemas/Cat'
          lizard: '#/components/schemas/Lizard'
          bird: '#/components/schemas/Bird'
    PetKind:
      type: string
      enum: [dog, cat]
    Dog:
      type: object
      required: [petType]
      properties:
        petType: {type: string}
        bark: {type: boolean}
    Cat:
      type: object
      properties:
        petType:
          $ref: '#/components/schemas/PetKind'
    Lizard:
      type: object
      properties:
        name: {type: string}
    Bird:
      allOf:
        - $ref: '#/components/schemas/Animal'
        - type: object
          properties:
            petType: {}
    Animal:
      type: object
`

func parse(t *testing.T, src string) *openapi.Document {
	t.Helper()
	doc, err := openapi.Parse([]byte(src), openapi.FormatYAML)
	require.NoError(t, err)
	return doc
}

func property(t *testing.T, doc *openapi.Document, schema, prop string) *openapi.Schema {
	t.Helper()
	s, ok := doc.Components.Schema(schema)
	require.True(t, ok, "schema %s", schema)
	if p, ok := s.Properties.Get(prop); ok {
		return p
	}
	for _, m := range s.AllOf {
		if p, ok := m.Properties.Get(prop); ok {
			return p
		}
	}
	t.Fatalf("property %s.%s not found", schema, prop)
	return nil
}

func TestPropagate_TagsVariants(t *testing.T) {
	t.Parallel()
	in := parse(t, petsYAML)

	out, err := Propagate(in)
	require.NoError(t, err)

	dog := property(t, out, "Dog", "petType")
	assert.Equal(t, []any{"dog"}, dog.Enum)

	rt, err := resolver.Resolve(dog)
	require.NoError(t, err)
	assert.Equal(t, "'dog'", rt.Value)

	// Referenced discriminator properties are left alone.
	cat := property(t, out, "Cat", "petType")
	assert.Equal(t, "#/components/schemas/PetKind", cat.Ref)
	assert.Empty(t, cat.Enum)

	// Variants without the property are skipped.
	lizard, _ := out.Components.Schema("Lizard")
	_, has := lizard.Properties.Get("petType")
	assert.False(t, has)

	bird := property(t, out, "Bird", "petType")
	assert.Equal(t, []any{"bird"}, bird.Enum)
	assert.Equal(t, "string", bird.Type)
}

func TestPropagate_DoesNotMutateInput(t *testing.T) {
	t.Parallel()
	in := parse(t, petsYAML)

	_, err := Propagate(in)
	require.NoError(t, err)

	assert.Empty(t, property(t, in, "Dog", "petType").Enum)
}

func TestPropagate_Idempotent(t *testing.T) {
	t.Parallel()
	once, err := Propagate(parse(t, petsYAML))
	require.NoError(t, err)
	twice, err := Propagate(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestPropagate_InvalidTargets(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"outside schemas": `openapi: 3.0.0
info: {title: t, version: "1"}
paths: {}
components:
  responses:
    Dog: {description: dog}
  schemas:
    Pet:
      discriminator:
        propertyName: kind
        mapping:
          dog: '#/components/responses/Dog'
`,
		"undeclared": `openapi: 3.0.0
info: {title: t, version: "1"}
paths: {}
components:
  schemas:
    Pet:
      discriminator:
        propertyName: kind
        mapping:
          dog: '#/components/schemas/Dog'
`,
		"bare name": `openapi: 3.0.0
info: {title: t, version: "1"}
paths: {}
components:
  schemas:
    Dog: {type: object}
    Pet:
      discriminator:
        propertyName: kind
        mapping:
          dog: Dog
`,
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := Propagate(parse(t, src))
			assert.ErrorIs(t, err, ErrInvalidMappingTarget)
		})
	}
}

func TestPropagate_NoDiscriminators(t *testing.T) {
	t.Parallel()
	in := parse(t, `openapi: 3.0.0
info: {title: t, version: "1"}
paths: {}
`)
	out, err := Propagate(in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.NotSame(t, in, out)
}
