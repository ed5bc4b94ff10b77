// Package writer lays generated output out on disk as a TypeScript module:
// one API file plus a model directory with a barrel index.
package writer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Kanary159357/orval/internal/generator"
	"github.com/Kanary159357/orval/internal/naming"
)

// ErrNotEmpty is returned when the output directory has entries and Force is unset.
var ErrNotEmpty = errors.New("output directory is not empty")

// Options controls where and how files are written.
type Options struct {
	OutDir string // required
	Force  bool   // write into a non-empty directory
	DryRun bool   // plan only
}

// PlannedFile describes a file the writer intends to write.
type PlannedFile struct {
	RelPath string
	Size    int
	Mode    os.FileMode
}

// Result lists the planned files in path order.
type Result struct {
	Planned []PlannedFile
}

// Write renders out into files under opts.OutDir.
func Write(ctx context.Context, out *generator.Output, opts Options) (*Result, error) {
	if out == nil {
		return nil, errors.New("writer: nil output")
	}
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, errors.New("writer: OutDir is required")
	}

	files, err := Render(out)
	if err != nil {
		return nil, err
	}
	rels := make([]string, 0, len(files))
	for p := range files {
		rels = append(rels, p)
	}
	sort.Strings(rels)

	planned := make([]PlannedFile, 0, len(rels))
	for _, rel := range rels {
		planned = append(planned, PlannedFile{RelPath: rel, Size: len(files[rel]), Mode: 0o644})
	}
	if !opts.DryRun {
		if err := writeFiles(ctx, opts.OutDir, rels, files, opts.Force); err != nil {
			return nil, err
		}
	}
	return &Result{Planned: planned}, nil
}

// Render returns file contents keyed by slash-separated relative path.
func Render(out *generator.Output) (map[string][]byte, error) {
	files := make(map[string][]byte, len(out.Models)+2)
	var index strings.Builder
	for _, m := range out.Models {
		base := naming.Camel(m.Name)
		if base == "" {
			return nil, fmt.Errorf("writer: model %q has no usable file name", m.Name)
		}
		rel := path.Join("model", base+".ts")
		if _, dup := files[rel]; dup {
			return nil, fmt.Errorf("writer: models collide on %s", rel)
		}
		var b strings.Builder
		for _, dep := range m.Dependencies {
			fmt.Fprintf(&b, "import { %s } from './%s';\n", dep, naming.Camel(dep))
		}
		if len(m.Dependencies) > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.Declaration)
		files[rel] = []byte(b.String())
		fmt.Fprintf(&index, "export * from './%s';\n", base)
	}
	if len(out.Models) > 0 {
		files["model/index.ts"] = []byte(index.String())
	}

	var api strings.Builder
	api.WriteString(out.Header)
	if len(out.API.Imports) > 0 {
		fmt.Fprintf(&api, "import { %s } from './model';\n", strings.Join(out.API.Imports, ", "))
	}
	api.WriteString("\n")
	api.WriteString(out.API.Definition)
	api.WriteString("\n")
	api.WriteString(out.API.Implementation)
	files[naming.Camel(out.API.Name)+".ts"] = []byte(api.String())
	return files, nil
}

func writeFiles(ctx context.Context, outDir string, rels []string, files map[string][]byte, force bool) error {
	abs, err := filepath.Abs(outDir)
	if err != nil {
		return fmt.Errorf("resolve out dir: %w", err)
	}
	if st, err := os.Stat(abs); err == nil && st.IsDir() && !force {
		if entries, rerr := os.ReadDir(abs); rerr == nil && len(entries) > 0 {
			return fmt.Errorf("writer: %w: %q (use --force to overwrite)", ErrNotEmpty, abs)
		}
	}
	stamp := time.Now().Format("20060102150405")
	for _, rel := range rels {
		if err := ctx.Err(); err != nil {
			return err
		}
		p := filepath.Join(abs, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
		// temp file + rename keeps readers from seeing partial content
		tmp := p + ".tmp-" + stamp
		if err := os.WriteFile(tmp, files[rel], 0o644); err != nil {
			return fmt.Errorf("write temp %s: %w", rel, err)
		}
		if err := os.Rename(tmp, p); err != nil {
			_ = os.Remove(tmp)
			return fmt.Errorf("rename %s: %w", rel, err)
		}
	}
	return nil
}
