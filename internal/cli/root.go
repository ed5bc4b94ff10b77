package cli

import "github.com/spf13/cobra"

// NewRootCmd constructs the root command so tests can exercise the CLI easily.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "orval",
		Short:         "Generate typed axios clients from OpenAPI/Swagger documents",
		Long:          "orval turns an OpenAPI 3 (or Swagger 2.0) document into a typed TypeScript axios client with one model per component.",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringP("config", "c", "", "Config file path (YAML or JSON)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging output")

	cmd.AddCommand(newGenerateCmd(), newInitCmd())

	// Convert Cobra flag errors (like unknown flags) into friendly usage errors
	// that also show the command's help text.
	for _, c := range append([]*cobra.Command{cmd}, cmd.Commands()...) {
		c.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
			return usagef("%v\n\n%s", err, c.UsageString())
		})
	}
	return cmd
}
