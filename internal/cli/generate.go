package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/Kanary159357/orval/internal/generator"
	"github.com/Kanary159357/orval/internal/lint"
	"github.com/Kanary159357/orval/internal/naming"
	"github.com/Kanary159357/orval/internal/openapi"
	"github.com/Kanary159357/orval/internal/spec"
	"github.com/Kanary159357/orval/internal/writer"
)

// GenerateConfig captures all inputs that influence the generate command after
// merging defaults, config file values, and CLI overrides.
type GenerateConfig struct {
	Input        string
	Output       string
	Name         string
	Format       string
	Validate     bool
	IncludeTags  []string
	ExcludeTags  []string
	PathPatterns []string
	ConfigPath   string
	DryRun       bool
	Force        bool
	Verbose      bool
}

func defaultGenerateConfig() GenerateConfig {
	return GenerateConfig{Validate: true}
}

var generateRunner = runGenerate

// logOutput receives slog output; tests swap it.
var logOutput io.Writer = os.Stderr

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a typed axios client from an OpenAPI/Swagger document",
		Long: "Generate a typed TypeScript axios client and its models from an OpenAPI/Swagger document. " +
			"Options can be provided via flags, config files, or defaults.",
		Example: strings.TrimSpace(`  orval generate --input petstore.yaml --output ./src/api
  orval --config orval.yaml generate --force --dry-run`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd)
			if err != nil {
				return err
			}
			return generateRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("input", "", "Path or URL to the Swagger/OpenAPI document")
	flags.String("output", "", "Output directory (derived from the API name when omitted)")
	flags.String("name", "", "API interface name; defaults to the document title")
	flags.String("format", "", "Document format (json|yaml); detected when omitted")
	flags.Bool("validate", true, "Run advisory validation and report findings")
	flags.StringSlice("include-tags", nil, "Only include operations with these tags")
	flags.StringSlice("exclude-tags", nil, "Exclude operations with these tags")
	flags.StringSlice("path-patterns", nil, "Only include operations whose path matches one of these regular expressions")
	flags.Bool("dry-run", false, "Preview planned outputs without writing files")
	flags.Bool("force", false, "Overwrite existing output when set")

	return cmd
}

func resolveGenerateConfig(cmd *cobra.Command) (*GenerateConfig, error) {
	cfg := defaultGenerateConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyGenerateConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
	}

	if err := applyGenerateFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyGenerateFlagOverrides(flags *pflag.FlagSet, cfg *GenerateConfig) error {
	strs := map[string]*string{
		"input":  &cfg.Input,
		"output": &cfg.Output,
		"name":   &cfg.Name,
		"format": &cfg.Format,
	}
	for name, dst := range strs {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*dst = strings.TrimSpace(value)
	}

	lists := map[string]*[]string{
		"include-tags":  &cfg.IncludeTags,
		"exclude-tags":  &cfg.ExcludeTags,
		"path-patterns": &cfg.PathPatterns,
	}
	for name, dst := range lists {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetStringSlice(name)
		if err != nil {
			return err
		}
		*dst = sanitizeList(value)
	}

	bools := map[string]*bool{
		"validate": &cfg.Validate,
		"dry-run":  &cfg.DryRun,
		"force":    &cfg.Force,
		"verbose":  &cfg.Verbose,
	}
	for name, dst := range bools {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetBool(name)
		if err != nil {
			return err
		}
		*dst = value
	}
	return nil
}

func (c *GenerateConfig) normalize() {
	c.Input = strings.TrimSpace(c.Input)
	c.Output = strings.TrimSpace(c.Output)
	c.Name = strings.TrimSpace(c.Name)
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	c.IncludeTags = sanitizeList(c.IncludeTags)
	c.ExcludeTags = sanitizeList(c.ExcludeTags)
	c.PathPatterns = sanitizeList(c.PathPatterns)
}

func (c *GenerateConfig) validate() error {
	if c.Input == "" {
		return newUsageError("generate: --input is required (set via flag or config file)")
	}
	if c.Format != "" {
		if _, err := openapi.ParseFormat(c.Format); err != nil {
			return usagef("generate: %v", err)
		}
	}
	if c.Name != "" && !naming.IsIdentifier(naming.Pascal(c.Name)) {
		return usagef("generate: --name %q does not produce a valid identifier", c.Name)
	}
	if overlap := intersect(c.IncludeTags, c.ExcludeTags); len(overlap) > 0 {
		return usagef("generate: include/exclude tags overlap: %s", strings.Join(overlap, ", "))
	}
	return nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(logOutput, &slog.HandlerOptions{Level: level}))
}

func runGenerate(ctx context.Context, cfg *GenerateConfig) error {
	logger := newLogger(cfg.Verbose)

	var loadOpts []spec.Option
	if cfg.Format != "" {
		format, _ := openapi.ParseFormat(cfg.Format)
		loadOpts = append(loadOpts, spec.WithFormat(format))
	}
	src, err := spec.Load(ctx, cfg.Input, loadOpts...)
	if err != nil {
		return specUsageError(err)
	}
	if src.Upgraded {
		logger.Info("upgraded Swagger 2.0 document to OpenAPI 3", "location", src.Location)
	}

	opts := []generator.Option{
		generator.WithLogger(logger),
		generator.WithName(cfg.Name),
		generator.WithIncludeTags(cfg.IncludeTags),
		generator.WithExcludeTags(cfg.ExcludeTags),
		generator.WithPathPatterns(cfg.PathPatterns),
	}
	if cfg.Validate {
		opts = append(opts, generator.WithValidator(lint.Multi{lint.Kin{}, lint.Speakeasy{}}))
	}
	out, err := generator.Generate(ctx, generator.Input{Data: src.Data, Format: src.Format, Location: src.Location}, opts...)
	if err != nil {
		return fmt.Errorf("generate %s: %w", src.Location, err)
	}

	outDir := cfg.Output
	if outDir == "" {
		outDir = naming.Camel(out.API.Name)
	}
	absOut := outDir
	if ap, err := filepath.Abs(outDir); err == nil {
		absOut = ap
	}

	res, err := writer.Write(ctx, out, writer.Options{OutDir: outDir, Force: cfg.Force, DryRun: cfg.DryRun})
	if err != nil {
		return wrapOutputError(err, absOut)
	}
	paths := make([]string, 0, len(res.Planned))
	for _, p := range res.Planned {
		paths = append(paths, p.RelPath)
	}
	if cfg.DryRun {
		printPlan(absOut, paths)
		return nil
	}
	logger.Debug("wrote client", "dir", absOut, "files", len(paths), "operations", len(out.API.Operations))
	fmt.Fprintf(os.Stdout, "Generated %s client in %s (%d files)\n", out.API.Name, absOut, len(paths))
	return nil
}

// specUsageError maps structured loader errors into friendly messages.
func specUsageError(err error) error {
	var se *spec.SpecError
	if !errors.As(err, &se) {
		return err
	}
	msg := fmt.Sprintf("spec: %s", se.Message)
	if se.Location != "" {
		msg = fmt.Sprintf("%s\nLocation: %s", msg, se.Location)
	}
	if se.JSONPointer != "" {
		msg = fmt.Sprintf("%s\nPointer: %s", msg, se.JSONPointer)
	}
	return newUsageError(msg)
}

func printPlan(outDir string, relPaths []string) {
	fmt.Fprintf(os.Stdout, "Planned writes to %s (%d files):\n", outDir, len(relPaths))
	for _, p := range relPaths {
		fmt.Fprintf(os.Stdout, "- %s\n", p)
	}
}

func wrapOutputError(err error, outDir string) error {
	if errors.Is(err, writer.ErrNotEmpty) || errors.Is(err, os.ErrPermission) {
		return usagef("output error for %s: %s\nHint: choose a different --output or use --force when appropriate.", outDir, err)
	}
	return err
}

func sanitizeList(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func intersect(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(a))
	for _, item := range a {
		set[item] = struct{}{}
	}
	var result []string
	for _, item := range b {
		if _, ok := set[item]; ok {
			result = append(result, item)
		}
	}
	return result
}

func applyGenerateConfigFromFile(cfg *GenerateConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return usagef("read config file %q: %v", path, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return usagef("parse config file %q: %v", path, err)
	}

	for key, value := range raw {
		var ferr error
		switch normalizeKey(key) {
		case "input":
			cfg.Input, ferr = valueAsString(value)
		case "output", "out":
			cfg.Output, ferr = valueAsString(value)
		case "name":
			cfg.Name, ferr = valueAsString(value)
		case "format":
			cfg.Format, ferr = valueAsString(value)
		case "validate":
			cfg.Validate, ferr = valueAsBool(value)
		case "includetags":
			cfg.IncludeTags, ferr = valueAsStringSlice(value)
		case "excludetags":
			cfg.ExcludeTags, ferr = valueAsStringSlice(value)
		case "pathpatterns":
			cfg.PathPatterns, ferr = valueAsStringSlice(value)
		case "dryrun":
			cfg.DryRun, ferr = valueAsBool(value)
		case "force":
			cfg.Force, ferr = valueAsBool(value)
		case "verbose":
			cfg.Verbose, ferr = valueAsBool(value)
		default:
			return usagef("config file %q: unknown field %q", path, key)
		}
		if ferr != nil {
			return usagef("config field %q: %v", key, ferr)
		}
	}

	return nil
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func valueAsStringSlice(v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		return sanitizeList(strings.Split(val, ",")), nil
	case []any:
		items := make([]string, 0, len(val))
		for idx, elem := range val {
			str, err := valueAsString(elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", idx, err)
			}
			items = append(items, str)
		}
		return sanitizeList(items), nil
	default:
		return nil, fmt.Errorf("expected string or list, got %T", v)
	}
}

func valueAsBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "t", "1", "yes", "y":
			return true, nil
		case "false", "f", "0", "no", "n", "":
			return false, nil
		default:
			return false, fmt.Errorf("invalid boolean value %q", val)
		}
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}
