package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/brendan.keane/apiconform/internal/errors"
	"github.com/brendan.keane/apiconform/internal/suite"
)

// RunHandler runs the configured suite against the API
type RunHandler struct {
	logger     zerolog.Logger
	newSession SessionFunc
}

// NewRunHandler creates a run handler over the default session
func NewRunHandler(logger zerolog.Logger) *RunHandler {
	return NewRunHandlerWithSession(logger, DefaultSession(logger))
}

// NewRunHandlerWithSession creates a run handler over newSession
func NewRunHandlerWithSession(logger zerolog.Logger, newSession SessionFunc) *RunHandler {
	return &RunHandler{
		logger:     logger.With().Str("handler", "run").Logger(),
		newSession: newSession,
	}
}

// Execute runs every selected case and prints the report. It returns a
// conformance error when any case failed.
func (h *RunHandler) Execute(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, h.logger)
	if err != nil {
		return err
	}
	if err := cfg.ValidateRun(); err != nil {
		h.logger.Error().Err(err).Msg("configuration validation failed")
		return err
	}

	h.logger.Debug().
		Str("hostname", cfg.Hostname).
		Str("resource_id", cfg.ResourceID).
		Int("cases", len(cfg.SelectedCases())).
		Int("parallel", cfg.Parallel).
		Bool("not_found", cfg.NotFound.Enabled).
		Msg("starting run")

	ctx := commandContext(cmd)
	session, err := h.newSession(ctx, cfg)
	if err != nil {
		return err
	}

	report, err := suite.NewRunner(h.logger, cfg, session.Executor, session.Viewer).Run(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if cfg.Format == "json" {
		data, err := report.JSON()
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeInternal, "failed to marshal report")
		}
		fmt.Fprintln(out, string(data))
	} else {
		fmt.Fprint(out, report.Render())
	}

	if !report.OK() {
		return errors.New(errors.ErrorTypeConformance, "cases failed").
			WithContext("failed", report.Failed).
			WithContext("total", report.Passed+report.Failed)
	}
	return nil
}
