// Package cli implements the apiconform subcommands.
package cli

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/brendan.keane/apiconform/internal/config"
	internalhttp "github.com/brendan.keane/apiconform/internal/http"
)

// SessionFunc creates the executor and contract viewer for cfg
type SessionFunc func(ctx context.Context, cfg *config.Config) (*internalhttp.Session, error)

// DefaultSession builds a session over the lambda-capable HTTP client
func DefaultSession(log zerolog.Logger) SessionFunc {
	return internalhttp.NewClientFactory(log).CreateSession
}

// loadConfig returns the config stored by the root command, loading it from
// flags when the command runs standalone
func loadConfig(cmd *cobra.Command, log zerolog.Logger) (*config.Config, error) {
	if cfg, ok := config.FromContext(commandContext(cmd)); ok {
		return cfg, nil
	}
	cfg, err := config.LoadFromFlags(cmd.Flags())
	if err != nil {
		log.Error().Err(err).Msg("failed to load configuration")
		return nil, err
	}
	return cfg, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
