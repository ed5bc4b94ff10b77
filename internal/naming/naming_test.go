package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPascal(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"pet":           "Pet",
		"petType":       "PetType",
		"pet-store_api": "PetStoreApi",
		"list pets":     "ListPets",
		"Pet":           "Pet",
		"2FA":           "_2FA",
		"_2FA":          "_2FA",
		"200-response":  "_200Response",
		"":              "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Pascal(in), "Pascal(%q)", in)
	}
}

func TestCamel(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"Pet":         "pet",
		"NewPet":      "newPet",
		"list-pets":   "listPets",
		"HTTPServer":  "httpServer",
		"ID":          "id",
		"showPetById": "showPetById",
		"PetResponse": "petResponse",
		"2FA":         "_2fa",
		"_2FA":        "_2fa",
	}
	for in, want := range tests {
		assert.Equal(t, want, Camel(in), "Camel(%q)", in)
	}
}

func TestIsIdentifier(t *testing.T) {
	t.Parallel()
	assert.True(t, IsIdentifier("petId"))
	assert.True(t, IsIdentifier("$ref"))
	assert.False(t, IsIdentifier("pet-id"))
	assert.False(t, IsIdentifier("1pet"))
	assert.False(t, IsIdentifier(""))
	assert.True(t, IsIdentifier(Pascal("2FA")))
	assert.True(t, IsIdentifier(Camel("1st-pet")))
}
