// Package generator assembles the client surface for one document: it
// runs discriminator propagation, emits the models, compiles every
// operation and aggregates the results. Generation is all-or-nothing.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Kanary159357/orval/internal/discriminator"
	"github.com/Kanary159357/orval/internal/lint"
	"github.com/Kanary159357/orval/internal/model"
	"github.com/Kanary159357/orval/internal/naming"
	"github.com/Kanary159357/orval/internal/openapi"
	"github.com/Kanary159357/orval/internal/operation"
	"github.com/Kanary159357/orval/internal/resolver"
)

// Input is the raw document. An empty Format is detected from Data.
type Input struct {
	Data     []byte
	Format   openapi.Format
	Location string
}

// API is the aggregate operations artifact.
type API struct {
	// Name is the interface name; the factory is get<Name>.
	Name string
	// Definition holds the operation-local type declarations followed by
	// the API interface.
	Definition string
	// Implementation holds the factory.
	Implementation string
	// Imports lists the model names the API references.
	Imports    []string
	Operations []*operation.Compiled
}

// Output is everything generated for one document.
type Output struct {
	Header string
	API    API
	Models []model.Model
	// Report is nil unless a validator was configured.
	Report *lint.Report
}

// Generate produces the client surface for in. The configured validator,
// if any, runs concurrently; its findings land in Output.Report and never
// fail generation.
func Generate(ctx context.Context, in Input, opts ...Option) (*Output, error) {
	cfg := newConfig(opts)
	if cfg.err != nil {
		return nil, cfg.err
	}
	log := cfg.logger.With("location", in.Location)

	format := in.Format
	if format == "" {
		format = openapi.DetectFormat(in.Data)
	}
	doc, err := openapi.Parse(in.Data, format)
	if err != nil {
		return nil, err
	}
	if cfg.transform != nil {
		doc, err = cfg.transform(doc)
		if err != nil {
			return nil, fmt.Errorf("transform: %w", err)
		}
		if doc == nil {
			return nil, errors.New("transform: returned a nil document")
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	var report *lint.Report
	if cfg.validator != nil {
		g.Go(func() error {
			rep, err := cfg.validator.Validate(gctx, in.Data)
			if err != nil {
				if rep == nil {
					rep = &lint.Report{}
				}
				rep.Errors = append(rep.Errors, lint.Finding{Source: "validator", Message: err.Error()})
			}
			report = rep
			return nil
		})
	}

	out, err := build(doc, cfg)
	if err != nil {
		cancel()
		_ = g.Wait()
		return nil, err
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if report != nil {
		if report.Empty() {
			log.Debug("validation passed")
		}
		for _, f := range report.Warnings {
			log.Warn("validation warning", "finding", f.String())
		}
		for _, f := range report.Errors {
			log.Error("validation error", "finding", f.String())
		}
		out.Report = report
	}
	log.Debug("generated", "models", len(out.Models), "operations", len(out.API.Operations))
	return out, nil
}

func build(doc *openapi.Document, cfg *config) (*Output, error) {
	propagated, err := discriminator.Propagate(doc)
	if err != nil {
		return nil, err
	}

	models, err := model.Emit(propagated)
	if err != nil {
		return nil, err
	}
	declared := make(map[string]struct{}, len(models))
	for _, m := range models {
		declared[m.Name] = struct{}{}
	}
	for _, m := range models {
		if err := checkDeclared(declared, m.Dependencies, "model "+m.Name); err != nil {
			return nil, err
		}
	}

	compiler := operation.New(&propagated.Components)
	seen := operation.NewTracker()
	var ops []*operation.Compiled
	for _, route := range propagated.Paths.Keys {
		item, _ := propagated.Paths.Get(route)
		if item == nil {
			continue
		}
		for _, verb := range openapi.Verbs {
			op := item.Operation(verb)
			if op == nil {
				continue
			}
			compiled, err := compiler.Compile(operation.Input{Route: route, Verb: verb, Operation: op, Shared: item.Parameters}, seen)
			if err != nil {
				return nil, err
			}
			if !cfg.allow(route, op) {
				cfg.logger.Debug("operation filtered", "operationId", op.OperationID, "route", route, "verb", verb)
				continue
			}
			if err := checkDeclared(declared, compiled.Imports, "operation "+compiled.OperationID); err != nil {
				return nil, err
			}
			ops = append(ops, compiled)
		}
	}

	cfg.logger.Debug("compiled operations", "compiled", seen.Len(), "kept", len(ops))

	name := apiName(cfg.name, propagated.Info.Title)
	return &Output{
		Header: header(propagated.Info),
		API:    assemble(name, ops),
		Models: models,
	}, nil
}

func checkDeclared(declared map[string]struct{}, names []string, where string) error {
	for _, n := range names {
		if _, ok := declared[n]; !ok {
			return fmt.Errorf("%s: %w: %s is referenced but not declared", where, openapi.ErrUnknownComponent, n)
		}
	}
	return nil
}

func apiName(explicit, title string) string {
	for _, candidate := range []string{explicit, title} {
		if n := naming.Pascal(candidate); n != "" && naming.IsIdentifier(n) {
			return n
		}
	}
	return "Api"
}

func header(info openapi.Info) string {
	var b strings.Builder
	b.WriteString("/**\n * Generated by orval. Do not edit manually.\n")
	if title := strings.TrimSpace(info.Title); title != "" {
		line := title
		if v := strings.TrimSpace(info.Version); v != "" {
			line += " " + v
		}
		b.WriteString(" * " + line + "\n")
	}
	b.WriteString(" */\n")
	b.WriteString("import { AxiosPromise, AxiosInstance } from 'axios';\n")
	return b.String()
}

func assemble(name string, ops []*operation.Compiled) API {
	var (
		def, impl strings.Builder
		imports   [][]string
	)
	for _, op := range ops {
		for _, d := range op.Declarations {
			def.WriteString(d)
			def.WriteString("\n")
		}
	}
	fmt.Fprintf(&def, "export interface %s {\n", name)
	fmt.Fprintf(&impl, "export const get%s = (axios: AxiosInstance): %s => ({\n", name, name)
	for _, op := range ops {
		def.WriteString(op.Definition)
		impl.WriteString(op.Implementation)
		imports = append(imports, op.Imports)
	}
	def.WriteString("}\n")
	impl.WriteString("});\n")
	return API{
		Name:           name,
		Definition:     def.String(),
		Implementation: impl.String(),
		Imports:        resolver.Merge(imports...),
		Operations:     ops,
	}
}
