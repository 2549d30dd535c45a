package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/brendan.keane/apiconform/internal/cli"
	"github.com/brendan.keane/apiconform/internal/config"
	"github.com/brendan.keane/apiconform/internal/errors"
	"github.com/brendan.keane/apiconform/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.PresentError(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	// log is replaced in PersistentPreRunE once flags are parsed
	log := zerolog.Nop()
	completionSession := cli.DefaultSession(zerolog.Nop())

	rootCmd := &cobra.Command{
		Use:   "apiconform",
		Short: "Contract-test a JSON API against its Swagger document",
		Long: `apiconform checks that a JSON API's responses match the definitions in
its Swagger 2.0 document. It runs configured cases against a live API,
validates saved payloads offline, and serves the contract over MCP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromFlags(cmd.Flags())
			if err != nil {
				return err
			}
			logFormat, _ := cmd.Flags().GetString("log-format")
			log = logger.SetupFromFlags(cfg.Verbose, cfg.Debug, logFormat)
			log.Debug().
				Str("command", cmd.Name()).
				Str("config", cfg.ConfigFile).
				Str("openapi", cfg.OpenAPIURL).
				Msg("configuration loaded")
			cmd.SetContext(config.WithConfig(cmd.Context(), cfg))
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "Config file (YAML or JSON)")
	flags.String("openapi", "", "Swagger document URL or file path")
	flags.String("server", "", "Base URL of the API under test")
	flags.String("resource", "", "Resource path under the base path, e.g. /students")
	flags.String("resource-id", "", "Identifier of the resource to test")
	flags.StringSliceP("header", "H", []string{}, "Extra request header (can be used multiple times)")
	flags.Bool("aws-sigv4", false, "Sign requests with AWS SigV4")
	flags.String("aws-service", "execute-api", "AWS service name for SigV4 signing")
	flags.Bool("strict", false, "Treat unresolvable definition types as load errors")
	flags.String("format", "pretty", "Output format: pretty or json")
	flags.String("log-format", "pretty", "Log format: pretty or json")
	flags.BoolP("verbose", "v", false, "Log progress to stderr")
	flags.Bool("debug", false, "Log requests and checks in detail")
	_ = rootCmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"pretty", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the configured cases against the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.NewRunHandler(log).Execute(cmd, args)
		},
	}
	runCmd.Flags().StringSlice("case", []string{}, "Run only the named cases (can be used multiple times)")
	runCmd.Flags().Int("parallel", 1, "Number of cases to run at once")
	runCmd.Flags().Duration("timeout", config.DefaultTimeout, "Per-request timeout")
	runCmd.Flags().Bool("not-found", false, "Also request every documented resource with an unknown id")
	_ = runCmd.RegisterFlagCompletionFunc("case", cli.CaseCompletion)

	definitionsCmd := &cobra.Command{
		Use:               "definitions [title]",
		Aliases:           []string{"defs"},
		Short:             "Show the contract's definitions",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: cli.DefinitionCompletion(completionSession),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.NewDefinitionsHandler(log).Execute(cmd, args)
		},
	}
	definitionsCmd.Flags().Bool("paths", false, "List document paths instead, optionally filtered by prefix*")

	checkCmd := &cobra.Command{
		Use:   "check <file|-|url>",
		Short: "Validate a JSON payload against a definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.NewCheckHandler(log).Execute(cmd, args)
		},
	}
	checkCmd.Flags().StringP("definition", "d", "", "Definition title to validate against")
	checkCmd.Flags().StringP("multiplicity", "m", "", "Treat the payload as a resource envelope: one or many")
	checkCmd.Flags().String("select", "", "JMESPath expression applied to the payload first")
	_ = checkCmd.RegisterFlagCompletionFunc("definition", cli.DefinitionCompletion(completionSession))
	_ = checkCmd.RegisterFlagCompletionFunc("multiplicity", cli.MultiplicityCompletion)

	mcpCmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the contract as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.NewMCPHandler(log).Execute(cmd, args)
		},
	}
	mcpCmd.Flags().String("mcp-desc", "", "Instructions sent to MCP clients")

	rootCmd.AddCommand(runCmd, definitionsCmd, checkCmd, mcpCmd, cli.NewCompletionCommand())
	return rootCmd
}
