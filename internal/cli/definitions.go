package cli

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/brendan.keane/apiconform/internal/errors"
)

// DefinitionsHandler renders the contract's definitions
type DefinitionsHandler struct {
	logger     zerolog.Logger
	newSession SessionFunc
}

// NewDefinitionsHandler creates a definitions handler over the default session
func NewDefinitionsHandler(logger zerolog.Logger) *DefinitionsHandler {
	return NewDefinitionsHandlerWithSession(logger, DefaultSession(logger))
}

// NewDefinitionsHandlerWithSession creates a definitions handler over newSession
func NewDefinitionsHandlerWithSession(logger zerolog.Logger, newSession SessionFunc) *DefinitionsHandler {
	return &DefinitionsHandler{
		logger:     logger.With().Str("handler", "definitions").Logger(),
		newSession: newSession,
	}
}

// Execute prints the index, one definition tree when a title is given, or
// the document's GET operations with --paths
func (h *DefinitionsHandler) Execute(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, h.logger)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	arg := ""
	if len(args) > 0 {
		arg = args[0]
	}

	ctx := commandContext(cmd)
	session, err := h.newSession(ctx, cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if paths, _ := cmd.Flags().GetBool("paths"); paths {
		ops, err := session.Viewer.Operations(ctx, arg)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeOpenAPI, "failed to list paths")
		}
		for _, op := range ops {
			fmt.Fprintln(out, strings.TrimRight(fmt.Sprintf("%-4s %s  %s", op.Method, op.Path, op.Summary), " "))
		}
		return nil
	}

	h.logger.Debug().Str("definition", arg).Msg("rendering definitions")
	view, err := session.Viewer.View(ctx, arg)
	if err != nil {
		wrapped := errors.Wrap(err, errors.ErrorTypeOpenAPI, "failed to render definitions")
		if arg != "" {
			wrapped = wrapped.WithContext("definition", arg)
		}
		return wrapped
	}
	fmt.Fprintln(out, view)
	return nil
}
