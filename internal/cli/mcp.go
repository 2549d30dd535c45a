package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/brendan.keane/apiconform/internal/errors"
	"github.com/brendan.keane/apiconform/internal/mcp"
)

// MCPHandler handles MCP server commands
type MCPHandler struct {
	logger zerolog.Logger
}

// NewMCPHandler creates a new MCP command handler
func NewMCPHandler(logger zerolog.Logger) *MCPHandler {
	return &MCPHandler{
		logger: logger.With().Str("handler", "mcp").Logger(),
	}
}

// Execute serves MCP over stdin and stdout until stdin closes
func (h *MCPHandler) Execute(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, h.logger)
	if err != nil {
		return err
	}

	if cfg.OpenAPIURL == "" {
		h.logger.Error().Msg("OpenAPI URL is required for MCP server")
		return errors.New(errors.ErrorTypeConfig, "OpenAPI URL is required for MCP server").
			WithContext("config_type", "openapi").
			WithContext("suggestion", "use --openapi flag or set APICONFORM_OPENAPI environment variable")
	}

	h.logger.Debug().
		Str("openapi_url", cfg.OpenAPIURL).
		Str("hostname", cfg.Hostname).
		Bool("strict", cfg.MCP.StrictKinds).
		Int("cases", len(cfg.Cases)).
		Msg("starting MCP server")

	ctx := commandContext(cmd)
	server, err := mcp.NewServer(ctx, h.logger, cfg)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create MCP server")
		return err
	}

	return server.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
}
