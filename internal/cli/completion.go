package cli

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/brendan.keane/apiconform/internal/config"
)

const completionTimeout = 10 * time.Second

// CompletionFunc is a cobra argument or flag completion function
type CompletionFunc func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective)

// DefinitionCompletion completes definition titles from the configured
// contract, or document paths when --paths is set
func DefinitionCompletion(newSession SessionFunc) CompletionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg, err := config.LoadFromFlags(cmd.Flags())
		if err != nil || cfg.OpenAPIURL == "" {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		ctx, cancel := context.WithTimeout(commandContext(cmd), completionTimeout)
		defer cancel()

		session, err := newSession(ctx, cfg)
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		if paths, _ := cmd.Flags().GetBool("paths"); paths {
			found, err := session.Viewer.PathCompletions(ctx, toComplete+"*")
			if err != nil {
				return nil, cobra.ShellCompDirectiveError
			}
			return found, cobra.ShellCompDirectiveNoFileComp
		}
		titles, err := session.Viewer.DefinitionCompletions(ctx)
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		return titles, cobra.ShellCompDirectiveNoFileComp
	}
}

// CaseCompletion completes case names from the config file
func CaseCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cfg, err := config.LoadFromFlags(cmd.Flags())
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var names []string
	for _, tc := range cfg.Cases {
		if strings.HasPrefix(tc.Name, toComplete) {
			names = append(names, tc.Name)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// MultiplicityCompletion completes --multiplicity
func MultiplicityCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{"one", "many"}, cobra.ShellCompDirectiveNoFileComp
}

// NewCompletionCommand generates shell completion scripts
func NewCompletionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate completion script",
		Long: `To load completions:

Bash:

  $ source <(apiconform completion bash)

Zsh:

  $ source <(apiconform completion zsh)

Fish:

  $ apiconform completion fish | source

PowerShell:

  PS> apiconform completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}
