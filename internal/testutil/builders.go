package testutil

import (
	"fmt"
	"slices"
	"time"

	"github.com/brendan.keane/apiconform/internal/config"
)

// ConfigBuilder provides a fluent interface for building test configurations
type ConfigBuilder struct {
	config *config.Config
}

// NewConfigBuilder starts from config.NewConfig defaults
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{config: config.NewConfig()}
}

// ForStudentsAPI points the config at a fake students API: its spec, token
// endpoint, base URL and StudentID
func (b *ConfigBuilder) ForStudentsAPI(api *StudentsAPI) *ConfigBuilder {
	b.config.OpenAPIURL = api.URL + "/openapi.yaml"
	b.config.Hostname = api.URL
	b.config.ResourcePath = "/students"
	b.config.ResourceID = StudentID
	b.config.Auth.TokenURL = api.URL + "/oauth2/token"
	b.config.Auth.ClientID = "test-client"
	b.config.Auth.ClientSecret = "test-secret"
	return b.WithVariable("class_schedule_term", ScheduleTerm)
}

// WithOpenAPIURL sets the OpenAPI URL
func (b *ConfigBuilder) WithOpenAPIURL(url string) *ConfigBuilder {
	b.config.OpenAPIURL = url
	return b
}

// WithServer sets the target hostname
func (b *ConfigBuilder) WithServer(server string) *ConfigBuilder {
	b.config.Hostname = server
	return b
}

// WithResource sets the resource path and id
func (b *ConfigBuilder) WithResource(path, id string) *ConfigBuilder {
	b.config.ResourcePath = path
	b.config.ResourceID = id
	return b
}

// WithHeader adds a single HTTP header
func (b *ConfigBuilder) WithHeader(header string) *ConfigBuilder {
	b.config.Headers = append(b.config.Headers, header)
	return b
}

// WithVariable sets a top-level config variable
func (b *ConfigBuilder) WithVariable(name string, value any) *ConfigBuilder {
	if b.config.Variables == nil {
		b.config.Variables = make(map[string]interface{})
	}
	b.config.Variables[name] = value
	return b
}

// WithCase appends a case
func (b *ConfigBuilder) WithCase(tc config.CaseConfig) *ConfigBuilder {
	b.config.Cases = append(b.config.Cases, tc)
	return b
}

// WithOneCase appends a single-resource case for definition
func (b *ConfigBuilder) WithOneCase(name, endpoint, definition string) *ConfigBuilder {
	return b.WithCase(config.CaseConfig{Name: name, Endpoint: endpoint, Definition: definition})
}

// WithCaseFilter restricts the run as --case does
func (b *ConfigBuilder) WithCaseFilter(names ...string) *ConfigBuilder {
	b.config.CaseFilter = names
	return b
}

// WithNotFound enables the not-found sweep, skipping the named resources
func (b *ConfigBuilder) WithNotFound(skip ...string) *ConfigBuilder {
	b.config.NotFound.Enabled = true
	b.config.NotFound.Skip = skip
	return b
}

// WithParallel sets how many cases run at once
func (b *ConfigBuilder) WithParallel(n int) *ConfigBuilder {
	b.config.Parallel = n
	return b
}

// WithTimeout sets the per-request timeout
func (b *ConfigBuilder) WithTimeout(d time.Duration) *ConfigBuilder {
	b.config.Timeout = d
	return b
}

// WithSigV4 enables AWS SigV4 signing
func (b *ConfigBuilder) WithSigV4(service string) *ConfigBuilder {
	b.config.Auth.SigV4 = true
	b.config.Auth.SigV4Service = service
	return b
}

// WithoutAuth clears client credentials
func (b *ConfigBuilder) WithoutAuth() *ConfigBuilder {
	b.config.Auth = config.AuthConfig{}
	return b
}

// WithStrictKinds rejects unknown property types at load time
func (b *ConfigBuilder) WithStrictKinds() *ConfigBuilder {
	b.config.StrictKinds = true
	return b
}

// WithDebug enables debug logging of tested fields
func (b *ConfigBuilder) WithDebug() *ConfigBuilder {
	b.config.Debug = true
	return b
}

// Build returns a copy of the configured Config
func (b *ConfigBuilder) Build() *config.Config {
	cfg := *b.config
	cfg.Headers = slices.Clone(b.config.Headers)
	cfg.CaseFilter = slices.Clone(b.config.CaseFilter)
	cfg.Cases = slices.Clone(b.config.Cases)
	cfg.NotFound.Skip = slices.Clone(b.config.NotFound.Skip)
	if b.config.Variables != nil {
		cfg.Variables = make(map[string]interface{}, len(b.config.Variables))
		for k, v := range b.config.Variables {
			cfg.Variables[k] = v
		}
	}
	return &cfg
}

// StudentsConfig returns the full students suite pointed at api
func StudentsConfig(api *StudentsAPI) (*config.Config, error) {
	cfg, err := config.Parse([]byte(fmt.Sprintf(StudentsSuiteYAML, api.URL)))
	if err != nil {
		return nil, err
	}
	cfg.OpenAPIURL = api.URL + "/openapi.yaml"
	return cfg, nil
}
