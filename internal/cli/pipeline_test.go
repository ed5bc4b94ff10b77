package cli

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const minimalSpecYAML = "" +
	"openapi: 3.0.0\n" +
	"info:\n" +
	"  title: Test API\n" +
	"  version: '1.0.0'\n" +
	"paths:\n" +
	"  /hello/{name}:\n" +
	"    get:\n" +
	"      operationId: sayHello\n" +
	"      parameters:\n" +
	"        - {name: name, in: path, required: true, schema: {type: string}}\n" +
	"      responses:\n" +
	"        '200':\n" +
	"          description: ok\n" +
	"          content:\n" +
	"            application/json:\n" +
	"              schema: {$ref: '#/components/schemas/Greeting'}\n" +
	"components:\n" +
	"  schemas:\n" +
	"    Greeting:\n" +
	"      type: object\n" +
	"      properties:\n" +
	"        message: {type: string}\n"

func captureStdout(fn func()) string {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w
	defer func() { os.Stdout = old }()
	fn()
	_ = w.Close()
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

func writeInput(t *testing.T, content string) (dir, path string) {
	t.Helper()
	dir = t.TempDir()
	path = filepath.Join(dir, "spec.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write spec: %v", err)
	}
	return dir, path
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	return root.Execute()
}

func TestGeneratePipeline_DryRun(t *testing.T) {
	dir, specPath := writeInput(t, minimalSpecYAML)
	outDir := filepath.Join(dir, "out")

	out := captureStdout(func() {
		if err := execute(t, "generate", "--input", specPath, "--output", outDir, "--dry-run", "--validate=false"); err != nil {
			t.Fatalf("execute: %v", err)
		}
	})
	for _, want := range []string{"Planned writes to", "(3 files)", "- testApi.ts", "- model/greeting.ts", "- model/index.ts"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in dry-run output, got: %s", want, out)
		}
	}
	if _, err := os.Stat(outDir); err == nil {
		t.Fatalf("expected no writes on dry-run")
	}
}

func TestGeneratePipeline_Writes(t *testing.T) {
	var logs bytes.Buffer
	logOutput = &logs
	t.Cleanup(func() { logOutput = os.Stderr })

	dir, specPath := writeInput(t, minimalSpecYAML)
	outDir := filepath.Join(dir, "client")

	out := captureStdout(func() {
		if err := execute(t, "--verbose", "generate", "--input", specPath, "--output", outDir, "--name", "greeter"); err != nil {
			t.Fatalf("execute: %v", err)
		}
	})
	if !strings.Contains(out, "Generated Greeter client") {
		t.Fatalf("unexpected summary: %s", out)
	}
	api, err := os.ReadFile(filepath.Join(outDir, "greeter.ts"))
	if err != nil {
		t.Fatalf("read api: %v", err)
	}
	for _, want := range []string{
		"import { Greeting } from './model';",
		"sayHello(name: string): AxiosPromise<Greeting>;",
		"return axios.get<Greeting>(`/hello/${name}`);",
		"export const getGreeter = (axios: AxiosInstance): Greeter => ({",
	} {
		if !strings.Contains(string(api), want) {
			t.Fatalf("api file missing %q:\n%s", want, api)
		}
	}
	if !strings.Contains(logs.String(), "level=DEBUG") {
		t.Fatalf("expected debug logs with --verbose, got: %s", logs.String())
	}

	// A second run into the now non-empty directory needs --force.
	err = execute(t, "generate", "--input", specPath, "--output", outDir, "--validate=false")
	if !errors.Is(err, ErrUsage) || !strings.Contains(err.Error(), "--force") {
		t.Fatalf("expected usage error suggesting --force, got %v", err)
	}
}

func TestGeneratePipeline_SpecErrorIsUsageError(t *testing.T) {
	_, specPath := writeInput(t, "info: {title: nothing}\n")
	err := execute(t, "generate", "--input", specPath, "--dry-run")
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Location: ") {
		t.Fatalf("expected location in message: %v", err)
	}
}

func TestGeneratePipeline_GenerationErrorIsFatal(t *testing.T) {
	_, specPath := writeInput(t, strings.Replace(minimalSpecYAML, "      operationId: sayHello\n", "", 1))
	err := execute(t, "generate", "--input", specPath, "--dry-run", "--validate=false")
	if err == nil || !strings.Contains(err.Error(), "operationId") {
		t.Fatalf("expected missing operationId error, got %v", err)
	}
}
