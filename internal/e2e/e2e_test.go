package e2e

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/Kanary159357/orval/internal/cli"
)

const petstoreSpec = `openapi: 3.0.0
info:
  title: E2E Petstore
  version: '1.0.0'
paths:
  /pets:
    get:
      operationId: listPets
      tags: [read]
      parameters:
        - {name: limit, in: query, schema: {type: integer, default: 20}}
        - {name: status, in: query, schema: {$ref: '#/components/schemas/Status'}}
      responses:
        '200':
          description: ok
          content:
            application/json:
              schema: {type: array, items: {$ref: '#/components/schemas/Pet'}}
    post:
      operationId: createPet
      tags: [write]
      requestBody:
        required: true
        content:
          application/json:
            schema: {$ref: '#/components/schemas/NewPet'}
      responses:
        '201':
          description: created
          content:
            application/json:
              schema: {$ref: '#/components/schemas/Pet'}
  /pets/{petId}:
    parameters:
      - {name: petId, in: path, required: true, schema: {type: string}}
    delete:
      operationId: deletePet
      tags: [write]
      responses:
        '204': {description: deleted}
  /pets/{petId}/certificate:
    get:
      operationId: getCertificate
      parameters:
        - {name: petId, in: path, required: true, schema: {type: string}}
      responses:
        '200':
          description: pdf
          content:
            application/pdf:
              schema: {type: string, format: binary}
components:
  schemas:
    Status:
      type: string
      enum: [available, sold]
    NewPet:
      type: object
      required: [name]
      properties:
        name: {type: string, description: The pet's name.}
        status: {$ref: '#/components/schemas/Status'}
    Pet:
      allOf:
        - $ref: '#/components/schemas/NewPet'
        - type: object
          required: [id]
          properties:
            id: {type: integer, format: int64}
`

func writeTempSpec(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "spec.yaml")
	if err := os.WriteFile(p, []byte(petstoreSpec), 0o600); err != nil {
		t.Fatalf("write spec: %v", err)
	}
	return p
}

func runCLI(t *testing.T, args ...string) {
	t.Helper()
	root := cli.NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		t.Fatalf("cli execute %v: %v", args, err)
	}
}

func digestDir(t *testing.T, dir string) (files []string, sum string) {
	t.Helper()
	h := sha256.New()
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", dir, err)
	}
	sort.Strings(files)
	for _, rel := range files {
		b, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
		if err != nil {
			t.Fatalf("read %s: %v", rel, err)
		}
		_, _ = h.Write([]byte(rel))
		_, _ = h.Write(b)
	}
	return files, hex.EncodeToString(h.Sum(nil))
}

func readOut(t *testing.T, dir, rel string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("read %s: %v", rel, err)
	}
	return string(b)
}

func TestE2E_Generate_Deterministic(t *testing.T) {
	t.Parallel()
	spec := writeTempSpec(t)
	dir1 := t.TempDir()
	dir2 := t.TempDir()

	runCLI(t, "generate", "--input", spec, "--output", dir1, "--force", "--validate=false")
	runCLI(t, "generate", "--input", spec, "--output", dir2, "--force", "--validate=false")

	files1, sum1 := digestDir(t, dir1)
	files2, sum2 := digestDir(t, dir2)
	if strings.Join(files1, ",") != strings.Join(files2, ",") || sum1 != sum2 {
		t.Fatalf("generated outputs differ between runs\nfiles1=%v\nfiles2=%v\nsum1=%s\nsum2=%s", files1, files2, sum1, sum2)
	}
	want := "e2EPetstore.ts,model/index.ts,model/newPet.ts,model/pet.ts,model/status.ts"
	if got := strings.Join(files1, ","); got != want {
		t.Fatalf("files = %s, want %s", got, want)
	}
}

func TestE2E_Generate_Contents(t *testing.T) {
	t.Parallel()
	spec := writeTempSpec(t)
	dir := t.TempDir()
	runCLI(t, "generate", "--input", spec, "--output", dir, "--force", "--name", "PetApi")

	api := readOut(t, dir, "petApi.ts")
	for _, want := range []string{
		"import { NewPet, Pet, Status } from './model';",
		"listPets(params?: { limit?: number; status?: Status }): AxiosPromise<Pet[]>;",
		"createPet(newPet: NewPet): AxiosPromise<Pet>;",
		"deletePet(petId: string): AxiosPromise<unknown>;",
		"return axios.delete<unknown>(`/pets`, { params: { petId } });",
		"getCertificate(petId: string): AxiosPromise<Blob>;",
		"responseType: 'arraybuffer'",
		"headers: { Accept: 'application/pdf' }",
	} {
		if !strings.Contains(api, want) {
			t.Fatalf("api file missing %q:\n%s", want, api)
		}
	}

	pet := readOut(t, dir, "model/pet.ts")
	if !strings.HasPrefix(pet, "import { NewPet } from './newPet';\n\n") || !strings.Contains(pet, "export type Pet = NewPet & {") {
		t.Fatalf("pet model:\n%s", pet)
	}
	status := readOut(t, dir, "model/status.ts")
	if !strings.Contains(status, "export type Status = 'available' | 'sold';") {
		t.Fatalf("status model:\n%s", status)
	}
	newPet := readOut(t, dir, "model/newPet.ts")
	if !strings.Contains(newPet, "/** The pet's name. */") {
		t.Fatalf("newPet model:\n%s", newPet)
	}
}

func TestE2E_TagFilter(t *testing.T) {
	t.Parallel()
	spec := writeTempSpec(t)
	dir := t.TempDir()
	runCLI(t, "generate", "--input", spec, "--output", dir, "--force", "--validate=false", "--exclude-tags", "write")

	api := readOut(t, dir, "e2EPetstore.ts")
	if strings.Contains(api, "createPet") || strings.Contains(api, "deletePet") || !strings.Contains(api, "listPets") {
		t.Fatalf("unexpected operations after filtering:\n%s", api)
	}
}
