// Package suite runs configured contract cases against a live API and
// collects a pass/fail verdict per case.
package suite

import (
	"context"
	"text/template"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/brendan.keane/apiconform/internal/config"
	"github.com/brendan.keane/apiconform/internal/errors"
	internalhttp "github.com/brendan.keane/apiconform/internal/http"
	"github.com/brendan.keane/apiconform/internal/logger"
	"github.com/brendan.keane/apiconform/pkg/openapi"
)

// DocumentSource supplies the loaded contract
type DocumentSource interface {
	Document(ctx context.Context) (*openapi.Document, error)
}

// step is one request and the assertions on its response
type step struct {
	resourceID   string
	endpoint     string
	params       map[string]string
	status       int
	maxSeconds   float64
	definition   string
	multiplicity openapi.Multiplicity
	idTemplate   *template.Template
	detail       string
	expect       map[string]string
}

// Case is a named sequence of steps. It passes when every step passes.
type Case struct {
	Name  string
	steps []step
}

// Runner executes cases with bounded parallelism
type Runner struct {
	logger   zerolog.Logger
	config   *config.Config
	executor internalhttp.HTTPExecutor
	docs     DocumentSource
}

// NewRunner creates a runner for cfg
func NewRunner(log zerolog.Logger, cfg *config.Config, executor internalhttp.HTTPExecutor, docs DocumentSource) *Runner {
	return &Runner{
		logger:   logger.ForComponent(log, "suite"),
		config:   cfg,
		executor: executor,
		docs:     docs,
	}
}

// Cases builds the selected configured cases followed by the not-found
// sweep when it is enabled.
func (r *Runner) Cases(doc *openapi.Document) ([]Case, error) {
	var cases []Case
	for _, tc := range r.config.SelectedCases() {
		s, err := r.caseStep(tc)
		if err != nil {
			return nil, err
		}
		cases = append(cases, Case{Name: tc.Name, steps: []step{s}})
	}

	if r.config.NotFound.Enabled && len(r.config.CaseFilter) == 0 {
		cases = append(cases, r.notFoundCases(doc)...)
	}
	return cases, nil
}

func (r *Runner) caseStep(tc config.CaseConfig) (step, error) {
	m, _ := openapi.ParseMultiplicity(tc.Multiplicity)

	s := step{
		resourceID:   r.config.ResourceID,
		endpoint:     tc.Endpoint,
		params:       r.expandParams(tc.Params),
		status:       tc.ExpectedStatus(),
		maxSeconds:   tc.MaxSeconds,
		definition:   tc.Definition,
		multiplicity: m,
		detail:       tc.Detail,
		expect:       tc.Expect,
	}
	if tc.BadID {
		s.resourceID = r.config.NotFound.BadID
	}
	if s.maxSeconds == 0 {
		s.maxSeconds = config.DefaultMaxSeconds
	}

	idTemplate := tc.IDTemplate
	if idTemplate == "" && m == openapi.MultiplicityOne {
		idTemplate = "{{.ID}}"
	}
	if idTemplate != "" && s.status == 200 {
		tmpl, err := template.New(tc.Name).Option("missingkey=error").Parse(idTemplate)
		if err != nil {
			return step{}, errors.Wrapf(err, errors.ErrorTypeConfig, "case %q: invalid id_template", tc.Name).
				WithContext("field", "id_template")
		}
		s.idTemplate = tmpl
	}
	return s, nil
}

// expandParams substitutes config variables referenced as $name, so
// term: $class_schedule_term reads the top-level variable
func (r *Runner) expandParams(params map[string]string) map[string]string {
	if len(params) == 0 {
		return nil
	}
	expanded := make(map[string]string, len(params))
	for key, value := range params {
		if len(value) > 1 && value[0] == '$' {
			if v, ok := r.config.Variable(value[1:]); ok {
				value = v
			}
		}
		expanded[key] = value
	}
	return expanded
}

// notFoundCases requests every documented resource with the bad id, then
// again with the configured id
func (r *Runner) notFoundCases(doc *openapi.Document) []Case {
	nf := r.config.NotFound
	skip := make(map[string]bool, len(nf.Skip))
	for _, name := range nf.Skip {
		skip[name] = true
	}

	maxSeconds := nf.MaxSeconds
	if maxSeconds == 0 {
		maxSeconds = config.DefaultMaxSeconds
	}

	var cases []Case
	for _, resource := range doc.ResourceNames() {
		if skip[resource] {
			continue
		}
		cases = append(cases, Case{
			Name: "not-found/" + resource,
			steps: []step{
				{
					resourceID: nf.BadID,
					endpoint:   resource,
					status:     404,
					maxSeconds: maxSeconds,
					detail:     nf.Detail,
				},
				{
					resourceID: r.config.ResourceID,
					endpoint:   resource,
					status:     200,
					maxSeconds: maxSeconds,
				},
			},
		})
	}
	return cases
}

// Run loads the contract, executes every case and returns the report. An
// error is returned only when the run could not start.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	start := time.Now()

	doc, err := r.docs.Document(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeOpenAPI, "failed to load OpenAPI document")
	}
	for _, w := range doc.Warnings {
		r.logger.Warn().Str("path", w.Path).Msg(w.Message)
	}

	cases, err := r.Cases(doc)
	if err != nil {
		return nil, err
	}
	r.logger.Info().
		Int("cases", len(cases)).
		Int("parallel", r.config.Parallel).
		Msg("running suite")

	results := make([]Result, len(cases))
	g := new(errgroup.Group)
	g.SetLimit(max(r.config.Parallel, 1))

	for i, c := range cases {
		g.Go(func() error {
			results[i] = r.runCase(ctx, doc.Definitions, c)
			return nil
		})
	}
	_ = g.Wait()

	return NewReport(results, time.Since(start)), nil
}

func (r *Runner) runCase(ctx context.Context, defs *openapi.Definitions, c Case) Result {
	log := logger.ForCase(r.logger, c.Name)
	result := Result{Name: c.Name, Passed: true}

	for i, s := range c.steps {
		if err := ctx.Err(); err != nil {
			return result.fail(errors.Wrap(err, errors.ErrorTypeInternal, "run cancelled"))
		}

		resp, err := r.executor.Get(ctx, s.resourceID, s.endpoint, s.params)
		if err != nil {
			log.Debug().Err(err).Int("step", i).Msg("request failed")
			return result.fail(err)
		}
		result.Status = resp.Status
		result.Elapsed += resp.Elapsed
		result.RequestID = resp.RequestID
		result.URL = resp.URL

		log.Debug().
			Int("step", i).
			Str("url", resp.URL).
			Int("status", resp.Status).
			Dur("elapsed", resp.Elapsed).
			Msg("response received")

		if err := r.checkStep(log, defs, s, resp); err != nil {
			log.Debug().Err(err).Int("step", i).Msg("check failed")
			return result.fail(err)
		}
	}

	log.Debug().Msg("case passed")
	return result
}

func (r *Runner) checkStep(log zerolog.Logger, defs *openapi.Definitions, s step, resp *internalhttp.Response) error {
	if err := checkElapsed(resp.Elapsed, s.maxSeconds); err != nil {
		return err
	}
	if err := checkStatus(resp, s.status); err != nil {
		return err
	}
	if resp.DecodeErr != nil {
		return errors.Wrap(resp.DecodeErr, errors.ErrorTypeConformance, "response body is not JSON").
			WithContext("status", resp.Status)
	}

	if s.detail != "" {
		errorDef, err := defs.Properties(openapi.ErrorTitle)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeOpenAPI, "cannot check error response")
		}
		return checkErrorEnvelope(errorDef, resp.Body, s.detail)
	}

	if s.status != 200 {
		return nil
	}

	if err := checkSelfLink(resp.Body, resp.URL); err != nil {
		return err
	}

	if s.definition != "" {
		if r.config.Debug {
			logDefinition(log, defs, s)
		}
		resources, err := checkResources(defs, s.definition, s.multiplicity, resp.Body)
		if err != nil {
			return err
		}
		if s.idTemplate != nil {
			if err := checkIDs(s.idTemplate, s.resourceID, resources); err != nil {
				return err
			}
		}
	}

	return checkExpect(resp.Body, s.expect)
}

// logDefinition logs each attribute field tested with its expected kind
func logDefinition(log zerolog.Logger, defs *openapi.Definitions, s step) {
	props, err := defs.ResourceAttributes(s.definition, s.multiplicity)
	if err != nil {
		return
	}
	for _, name := range props.Names() {
		prop := props[name]
		event := log.Debug().
			Str("field", name).
			Str("expected", prop.TypeName())
		if prop.Format != "" {
			event = event.Str("format", prop.Format)
		}
		event.Msg("testing field")
	}
}
