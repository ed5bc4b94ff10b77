package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

const defaultConfigName = "orval.yaml"

// InitConfig captures the options for the init command.
type InitConfig struct {
	OutputPath string
	Force      bool
	Verbose    bool
}

var initRunner = runInit

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a sample orval configuration file",
		Long:  "Scaffold a commented orval configuration file that documents every generate option.",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			out, err := flags.GetString("output")
			if err != nil {
				return err
			}
			force, err := flags.GetBool("force")
			if err != nil {
				return err
			}
			verbose, err := flags.GetBool("verbose")
			if err != nil {
				return err
			}
			return initRunner(cmd.Context(), &InitConfig{OutputPath: out, Force: force, Verbose: verbose})
		},
	}

	cmd.Flags().String("output", defaultConfigName, "Where to write the sample config file")
	cmd.Flags().Bool("force", false, "Overwrite the target file if it already exists")

	return cmd
}

func runInit(ctx context.Context, cfg *InitConfig) error {
	_ = ctx

	out := strings.TrimSpace(cfg.OutputPath)
	if out == "" {
		out = defaultConfigName
	}
	absPath, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("init: resolve output path: %w", err)
	}

	if st, err := os.Stat(absPath); err == nil && !cfg.Force && st.Mode().IsRegular() {
		return usagef("init: %q already exists (use --force to overwrite)", absPath)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return usagef("init: cannot create parent directory: %v", err)
	}

	tmp := absPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(strings.TrimSpace(sampleConfigYAML)+"\n"), 0o644); err != nil {
		return usagef("init: cannot write temp file: %v\nHint: choose a different --output or check directory permissions.", err)
	}
	if err := os.Rename(tmp, absPath); err != nil {
		_ = os.Remove(tmp)
		return usagef("init: cannot place file at %s: %v", absPath, err)
	}
	fmt.Fprintf(os.Stdout, "Wrote sample config to %s\n", absPath)
	return nil
}

// sampleConfigYAML documents every key accepted by generate --config.
const sampleConfigYAML = `# orval configuration (YAML)
# All fields are optional. Command-line flags override config values.

# Path or URL to the OpenAPI 3 or Swagger 2.0 document (http/https or local file).
# input: ./petstore.yaml

# Output directory. When omitted, derived from the API name.
# output: ./src/api

# API interface name. The factory is exported as get<Name>.
# name: PetStore

# Document format (json|yaml). Detected from content when omitted.
# format: yaml

# Run advisory validation (kin-openapi and speakeasy) and report findings.
# validate: true

# Only include operations with these tags (comma-separated or list).
# includeTags: [pets]

# Exclude operations with these tags (comma-separated or list).
# excludeTags: [internal]

# Only include operations whose path matches one of these regular expressions.
# pathPatterns: ['^/pets']

# Preview planned outputs without writing files.
# dryRun: false

# Overwrite a non-empty output directory.
# force: false

# Enable verbose logging.
# verbose: false
`
