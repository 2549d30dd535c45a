// Package mcp exposes the contract and the suite as Model Context Protocol
// tools over stdio.
package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/brendan.keane/apiconform/internal/config"
	"github.com/brendan.keane/apiconform/internal/errors"
	internalhttp "github.com/brendan.keane/apiconform/internal/http"
	"github.com/brendan.keane/apiconform/internal/logger"
	"github.com/brendan.keane/apiconform/internal/suite"
	"github.com/brendan.keane/apiconform/pkg/conform"
	"github.com/brendan.keane/apiconform/pkg/openapi"
)

const serverVersion = "1.0.0"

// Server serves the contract tools. Live tools (fetch_resource, run_cases)
// are only registered when an executor is available.
type Server struct {
	logger   zerolog.Logger
	config   *config.Config
	docs     suite.DocumentSource
	executor internalhttp.HTTPExecutor
	mcp      *server.MCPServer
}

// NewServer wires the document viewer and, when a hostname is configured,
// an executor for the API under test
func NewServer(ctx context.Context, log zerolog.Logger, cfg *config.Config) (*Server, error) {
	factory := internalhttp.NewClientFactory(log)

	if cfg.Hostname == "" {
		tokens := internalhttp.NewTokenSource(ctx, cfg.Auth, nil)
		return NewServerWithDependencies(log, cfg, factory.CreateViewer(cfg, tokens), nil), nil
	}

	session, err := factory.CreateSession(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeMCP, "failed to create HTTP session for MCP server")
	}
	return NewServerWithDependencies(log, cfg, session.Viewer, session.Executor), nil
}

// NewServerWithDependencies builds a server over injected collaborators.
// executor may be nil.
func NewServerWithDependencies(log zerolog.Logger, cfg *config.Config, docs suite.DocumentSource, executor internalhttp.HTTPExecutor) *Server {
	s := &Server{
		logger:   logger.ForComponent(log, "mcp_server"),
		config:   cfg,
		docs:     docs,
		executor: executor,
	}

	opts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	}
	if cfg.MCP.Description != "" {
		opts = append(opts, server.WithInstructions(cfg.MCP.Description))
	}
	s.mcp = server.NewMCPServer("apiconform", serverVersion, opts...)
	s.mcp.AddTools(s.tools()...)
	return s
}

// Serve reads JSON-RPC messages from in until it is closed or ctx is done
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Debug().Bool("live", s.executor != nil).Msg("MCP server started")
	if err := server.NewStdioServer(s.mcp).Listen(ctx, in, out); err != nil && ctx.Err() == nil {
		return errors.Wrap(err, errors.ErrorTypeMCP, "MCP server stopped")
	}
	s.logger.Debug().Msg("MCP server stopped")
	return nil
}

func (s *Server) tools() []server.ServerTool {
	tools := []server.ServerTool{
		{
			Tool: mcp.NewTool("list_definitions",
				mcp.WithDescription("List the definitions in the contract with their kind and field count. Definitions that failed to load carry an error instead."),
				mcp.WithString("filter", mcp.Description("Case-insensitive substring to match against definition titles")),
			),
			Handler: s.listDefinitions,
		},
		{
			Tool: mcp.NewTool("describe_definition",
				mcp.WithDescription("Describe one definition as a JSON tree of expected types, formats and enums."),
				mcp.WithString("title", mcp.Required(), mcp.Description("Definition title, e.g. GradePointAverageResult")),
			),
			Handler: s.describeDefinition,
		},
		{
			Tool: mcp.NewTool("validate_payload",
				mcp.WithDescription("Validate a JSON payload against a definition. With multiplicity the payload is a resource envelope and each resource's attributes are validated."),
				mcp.WithString("definition", mcp.Required(), mcp.Description("Definition title")),
				mcp.WithString("payload", mcp.Required(), mcp.Description("JSON text to validate")),
				mcp.WithString("multiplicity", mcp.Enum("one", "many"), mcp.Description("Treat the payload as a resource envelope holding one resource or a list")),
				mcp.WithString("select", mcp.Description("JMESPath expression applied to the payload before validation")),
			),
			Handler: s.validatePayload,
		},
	}

	if s.executor == nil {
		return tools
	}

	return append(tools,
		server.ServerTool{
			Tool: mcp.NewTool("fetch_resource",
				mcp.WithDescription("GET a resource endpoint from the API under test. Supports 'jmespath' or 'regex' filtering to reduce large responses."),
				mcp.WithString("endpoint", mcp.Required(), mcp.Description("Resource endpoint, e.g. gpa")),
				mcp.WithString("resource_id", mcp.Description("Resource identifier. Defaults to the configured id.")),
				mcp.WithObject("query", mcp.Description("Query parameters as key-value pairs")),
				mcp.WithString("jmespath", mcp.Description("JMESPath expression to filter the JSON body. Cannot be used with regex.")),
				mcp.WithString("regex", mcp.Description("Regex to search the raw body, returned with surrounding context. Cannot be used with jmespath.")),
				mcp.WithNumber("context_lines", mcp.Description("Context around regex matches in ~80 character lines (default 5)")),
			),
			Handler: s.fetchResource,
		},
		server.ServerTool{
			Tool: mcp.NewTool("run_cases",
				mcp.WithDescription("Run configured contract cases against the API and return the verdict report as JSON."),
				mcp.WithArray("cases", mcp.Description("Case names to run. Omit to run every case and the not-found sweep."),
					mcp.Items(map[string]any{"type": "string"})),
			),
			Handler: s.runCases,
		},
	)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to marshal tool result")
	}
	return mcp.NewToolResultText(string(out)), nil
}

type definitionSummary struct {
	Title  string `json:"title"`
	Kind   string `json:"kind,omitempty"`
	Fields int    `json:"fields,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (s *Server) listDefinitions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	log := logger.ForMCP(s.logger, "list_definitions")
	filter := strings.ToLower(request.GetString("filter", ""))

	doc, err := s.docs.Document(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to load contract")
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load contract: %v", err)), nil
	}

	invalid := doc.Definitions.Invalid()
	summaries := []definitionSummary{}
	for _, title := range doc.Definitions.Titles() {
		if filter != "" && !strings.Contains(strings.ToLower(title), filter) {
			continue
		}
		if loadErr, bad := invalid[title]; bad {
			summaries = append(summaries, definitionSummary{Title: title, Error: loadErr.Error()})
			continue
		}
		prop, err := doc.Definitions.Definition(title)
		if err != nil {
			continue
		}
		summaries = append(summaries, definitionSummary{Title: title, Kind: prop.TypeName(), Fields: len(prop.Properties)})
	}

	warnings := make([]string, 0, len(doc.Warnings))
	for _, w := range doc.Warnings {
		warnings = append(warnings, w.String())
	}

	log.Debug().Int("definitions", len(summaries)).Msg("listed definitions")
	return jsonResult(map[string]any{
		"title":       doc.Title,
		"version":     doc.Version,
		"base_path":   doc.BasePath,
		"definitions": summaries,
		"warnings":    warnings,
	})
}

// fieldDescription is the JSON form of a definition node
type fieldDescription struct {
	Type       string                       `json:"type"`
	Format     string                       `json:"format,omitempty"`
	Enum       []any                        `json:"enum,omitempty"`
	Properties map[string]*fieldDescription `json:"properties,omitempty"`
	Items      *fieldDescription            `json:"items,omitempty"`
}

func describe(prop *openapi.Property) *fieldDescription {
	d := &fieldDescription{Type: prop.TypeName(), Format: prop.Format, Enum: prop.Enum}
	if len(prop.Properties) > 0 {
		d.Properties = make(map[string]*fieldDescription, len(prop.Properties))
		for name, child := range prop.Properties {
			d.Properties[name] = describe(child)
		}
	}
	if prop.Items != nil {
		d.Items = describe(prop.Items)
	}
	return d
}

func (s *Server) describeDefinition(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := request.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError("Missing required parameter: title"), nil
	}

	doc, err := s.docs.Document(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load contract: %v", err)), nil
	}
	prop, err := doc.Definitions.Definition(title)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(describe(prop))
}

type validation struct {
	Valid   bool             `json:"valid"`
	Error   string           `json:"error,omitempty"`
	Failure *conform.Failure `json:"failure,omitempty"`
}

func (s *Server) validatePayload(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	log := logger.ForMCP(s.logger, "validate_payload")

	title, err := request.RequireString("definition")
	if err != nil {
		return mcp.NewToolResultError("Missing required parameter: definition"), nil
	}
	payload, err := request.RequireString("payload")
	if err != nil {
		return mcp.NewToolResultError("Missing required parameter: payload"), nil
	}

	body, err := conform.DecodeBytes([]byte(payload))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Payload is not JSON: %v", err)), nil
	}
	body, err = suite.Select(request.GetString("select", ""), body)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	doc, err := s.docs.Document(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load contract: %v", err)), nil
	}

	err = suite.ValidatePayload(doc.Definitions, title, request.GetString("multiplicity", ""), body)
	switch {
	case err == nil:
		log.Debug().Str("definition", title).Msg("payload conforms")
		return jsonResult(validation{Valid: true})
	case errors.IsType(err, errors.ErrorTypeConformance):
		out := validation{Error: err.Error()}
		var failure *conform.Failure
		if stderrors.As(err, &failure) {
			out.Failure = failure
		}
		log.Debug().Str("definition", title).Str("detail", out.Error).Msg("payload does not conform")
		return jsonResult(out)
	default:
		return mcp.NewToolResultError(err.Error()), nil
	}
}

func (s *Server) fetchResource(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	log := logger.ForMCP(s.logger, "fetch_resource")

	endpoint, err := request.RequireString("endpoint")
	if err != nil || strings.TrimSpace(endpoint) == "" {
		return mcp.NewToolResultError("Missing required parameter: endpoint"), nil
	}
	resourceID := request.GetString("resource_id", s.config.ResourceID)

	regexPattern := strings.TrimSpace(request.GetString("regex", ""))
	jmespathExpr := strings.TrimSpace(request.GetString("jmespath", ""))
	if regexPattern != "" && jmespathExpr != "" {
		return mcp.NewToolResultError("Cannot use both regex and jmespath filters simultaneously"), nil
	}

	params := map[string]string{}
	if query, ok := request.GetArguments()["query"].(map[string]any); ok {
		for key, value := range query {
			params[key] = fmt.Sprint(value)
		}
	}

	log.Debug().
		Str("resource_id", resourceID).
		Str("endpoint", endpoint).
		Int("query_params", len(params)).
		Msg("fetching resource via MCP")

	resp, err := s.executor.Get(ctx, resourceID, endpoint, params)
	if err != nil {
		log.Error().Err(err).Msg("HTTP request failed via MCP")
		return mcp.NewToolResultError(fmt.Sprintf("HTTP request failed: %v", err)), nil
	}

	header := fmt.Sprintf("HTTP Status: %d\nURL: %s\nRequest-Id: %s\n\n", resp.Status, resp.URL, resp.RequestID)
	raw := string(resp.Raw)

	var filtered *FilterResult
	switch {
	case regexPattern != "":
		filtered, err = filterRegex(raw, regexPattern, int(request.GetFloat("context_lines", 5)))
	case jmespathExpr != "":
		if resp.DecodeErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Response is not JSON: %v", resp.DecodeErr)), nil
		}
		filtered, err = filterJMESPath(resp.Body, raw, jmespathExpr)
	default:
		return mcp.NewToolResultText(header + raw), nil
	}
	if err != nil {
		log.Error().Err(err).Msg("filter failed")
		return mcp.NewToolResultError(fmt.Sprintf("Filter failed: %v", err)), nil
	}

	result := mcp.NewToolResultText(header + filtered.Content)
	result.Meta = mcp.NewMetaFromMap(filtered.Meta)
	return result, nil
}

func (s *Server) runCases(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	log := logger.ForMCP(s.logger, "run_cases")

	cfg := *s.config
	cfg.CaseFilter = nil
	if names, ok := request.GetArguments()["cases"].([]any); ok {
		for _, name := range names {
			if str, ok := name.(string); ok && str != "" {
				cfg.CaseFilter = append(cfg.CaseFilter, str)
			}
		}
	}
	if len(cfg.CaseFilter) > 0 && len(cfg.SelectedCases()) == 0 {
		available := make([]string, 0, len(cfg.Cases))
		for _, tc := range cfg.Cases {
			available = append(available, tc.Name)
		}
		slices.Sort(available)
		return mcp.NewToolResultError(fmt.Sprintf("No configured case matches %v. Available: %v", cfg.CaseFilter, available)), nil
	}

	report, err := suite.NewRunner(s.logger, &cfg, s.executor, s.docs).Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("suite could not start")
		return mcp.NewToolResultError(err.Error()), nil
	}

	out, err := report.JSON()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to marshal report")
	}
	log.Debug().Int("passed", report.Passed).Int("failed", report.Failed).Msg("cases finished")
	return mcp.NewToolResultText(string(out)), nil
}
