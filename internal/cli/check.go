package cli

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/brendan.keane/apiconform/internal/errors"
	internalhttp "github.com/brendan.keane/apiconform/internal/http"
	"github.com/brendan.keane/apiconform/internal/suite"
	"github.com/brendan.keane/apiconform/pkg/conform"
)

var (
	passStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575"))
	failStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5F87"))
)

// CheckHandler validates a saved or fetched payload against a definition
type CheckHandler struct {
	logger     zerolog.Logger
	newSession SessionFunc
}

// NewCheckHandler creates a check handler over the default session
func NewCheckHandler(logger zerolog.Logger) *CheckHandler {
	return NewCheckHandlerWithSession(logger, DefaultSession(logger))
}

// NewCheckHandlerWithSession creates a check handler over newSession
func NewCheckHandlerWithSession(logger zerolog.Logger, newSession SessionFunc) *CheckHandler {
	return &CheckHandler{
		logger:     logger.With().Str("handler", "check").Logger(),
		newSession: newSession,
	}
}

type checkResult struct {
	Source     string           `json:"source"`
	Definition string           `json:"definition"`
	Valid      bool             `json:"valid"`
	Error      string           `json:"error,omitempty"`
	Failure    *conform.Failure `json:"failure,omitempty"`
}

// Execute reads the payload named by args[0] (a file, "-" for stdin, or an
// http, https or lambda URL) and validates it
func (h *CheckHandler) Execute(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.New(errors.ErrorTypeValidation, "exactly one payload source is required").
			WithContext("suggestion", "pass a file, - for stdin, or a URL")
	}
	source := args[0]

	cfg, err := loadConfig(cmd, h.logger)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	flags := cmd.Flags()
	title, _ := flags.GetString("definition")
	multiplicity, _ := flags.GetString("multiplicity")
	selectExpr, _ := flags.GetString("select")
	if title == "" {
		return errors.New(errors.ErrorTypeValidation, "--definition is required").
			WithContext("field", "definition")
	}

	ctx := commandContext(cmd)
	session, err := h.newSession(ctx, cfg)
	if err != nil {
		return err
	}

	body, err := h.readPayload(cmd, session.Executor, source)
	if err != nil {
		return err
	}
	body, err = suite.Select(selectExpr, body)
	if err != nil {
		return err
	}

	doc, err := session.Viewer.Document(ctx)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeOpenAPI, "failed to load contract").
			WithContext("url", cfg.OpenAPIURL)
	}

	h.logger.Debug().
		Str("source", source).
		Str("definition", title).
		Str("multiplicity", multiplicity).
		Str("select", selectExpr).
		Msg("checking payload")

	result := checkResult{Source: source, Definition: title, Valid: true}
	verr := suite.ValidatePayload(doc.Definitions, title, multiplicity, body)
	if verr != nil {
		if !errors.IsType(verr, errors.ErrorTypeConformance) {
			return verr
		}
		result.Valid = false
		result.Error = verr.Error()
		var failure *conform.Failure
		if stderrors.As(verr, &failure) {
			result.Failure = failure
		}
	}

	out := cmd.OutOrStdout()
	if cfg.Format == "json" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeInternal, "failed to marshal result")
		}
		fmt.Fprintln(out, string(data))
	} else if result.Valid {
		fmt.Fprintf(out, "%s %s conforms to %s\n", passStyle.Render("PASS"), source, title)
	} else {
		fmt.Fprintf(out, "%s %s does not conform to %s\n  %s\n", failStyle.Render("FAIL"), source, title, result.Error)
	}

	if verr != nil {
		return errors.Wrap(verr, errors.ErrorTypeConformance, "payload does not conform").
			WithContext("definition", title)
	}
	return nil
}

func (h *CheckHandler) readPayload(cmd *cobra.Command, executor internalhttp.HTTPExecutor, source string) (any, error) {
	if isURL(source) {
		resp, err := executor.Fetch(commandContext(cmd), source)
		if err != nil {
			return nil, err
		}
		h.logger.Debug().Int("status", resp.Status).Str("request_id", resp.RequestID).Msg("fetched payload")
		if resp.DecodeErr != nil {
			return nil, errors.Wrap(resp.DecodeErr, errors.ErrorTypeValidation, "response is not JSON").
				WithContext("url", source)
		}
		return resp.Body, nil
	}

	var r io.Reader
	if source == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(source)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrorTypeValidation, "cannot read payload %s", source)
		}
		defer f.Close()
		r = f
	}

	body, err := conform.Decode(r)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeValidation, "payload %s is not JSON", source)
	}
	return body, nil
}

func isURL(source string) bool {
	for _, scheme := range []string{"http://", "https://", "lambda://"} {
		if strings.HasPrefix(source, scheme) {
			return true
		}
	}
	return false
}
