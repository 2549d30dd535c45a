package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/brendan.keane/apiconform/internal/errors"
)

// Defaults applied when neither file, flag nor environment set a value.
const (
	DefaultBadID          = "93badID"
	DefaultNotFoundDetail = "The information requested was not found. If this is incorrect, please contact application support."
	DefaultMaxSeconds     = 5.0
	DefaultTimeout        = 30 * time.Second
	DefaultIDKey          = "osu_id"
)

// Config holds all application configuration
type Config struct {
	ConfigFile string `yaml:"-"`
	OpenAPIURL string `yaml:"openapi"`

	// Target API
	Hostname     string `yaml:"hostname"`
	ResourcePath string `yaml:"resource_path"`
	ResourceID   string `yaml:"resource_id"`
	// IDKey names the variable that supplies ResourceID when resource_id is unset.
	IDKey   string   `yaml:"id_key"`
	Headers []string `yaml:"headers"`

	Auth AuthConfig `yaml:",inline"`

	// Run settings
	Parallel    int           `yaml:"parallel"`
	Timeout     time.Duration `yaml:"timeout"`
	Format      string        `yaml:"format"`
	StrictKinds bool          `yaml:"strict_kinds"`
	CaseFilter  []string      `yaml:"-"`
	Verbose     bool          `yaml:"-"`
	Debug       bool          `yaml:"-"`

	Cases    []CaseConfig   `yaml:"cases"`
	NotFound NotFoundConfig `yaml:"not_found"`

	// Variables collects every other top-level key, e.g. class_schedule_term.
	Variables map[string]interface{} `yaml:",inline"`

	MCP MCPConfig `yaml:"-"`
}

// AuthConfig holds client credentials and request signing settings
type AuthConfig struct {
	TokenURL     string   `yaml:"token_api"`
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	Scopes       []string `yaml:"scopes"`
	SigV4        bool     `yaml:"aws_sigv4"`
	SigV4Service string   `yaml:"aws_service"`
}

// OAuthEnabled reports whether any client credential is configured
func (a AuthConfig) OAuthEnabled() bool {
	return a.TokenURL != "" || a.ClientID != "" || a.ClientSecret != ""
}

// CaseConfig describes one request and the assertions made on its response
type CaseConfig struct {
	Name         string            `yaml:"name"`
	Endpoint     string            `yaml:"endpoint"`
	Definition   string            `yaml:"definition"`
	Multiplicity string            `yaml:"multiplicity"`
	MaxSeconds   float64           `yaml:"max_seconds"`
	Status       int               `yaml:"status"`
	Params       map[string]string `yaml:"params"`
	IDTemplate   string            `yaml:"id_template"`
	Detail       string            `yaml:"detail"`
	BadID        bool              `yaml:"bad_id"`
	Expect       map[string]string `yaml:"expect"`
}

// ExpectedStatus returns the configured status, defaulting to 200
func (c CaseConfig) ExpectedStatus() int {
	if c.Status == 0 {
		return 200
	}
	return c.Status
}

// NotFoundConfig controls the sweep requesting every documented resource
// with an unknown identifier
type NotFoundConfig struct {
	Enabled    bool     `yaml:"enabled"`
	BadID      string   `yaml:"bad_id"`
	Detail     string   `yaml:"detail"`
	MaxSeconds float64  `yaml:"max_seconds"`
	Skip       []string `yaml:"skip"`
}

// MCPConfig holds MCP-specific configuration
type MCPConfig struct {
	Description string
	OpenAPIURL  string
	StrictKinds bool
}

type contextKey string

const configKey contextKey = "config"

// WithConfig adds config to context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) (*Config, bool) {
	cfg, ok := ctx.Value(configKey).(*Config)
	return cfg, ok
}

// NewConfig creates a Config with default values
func NewConfig() *Config {
	return &Config{
		Parallel: 1,
		Timeout:  DefaultTimeout,
		Format:   "pretty",
		IDKey:    DefaultIDKey,
		NotFound: NotFoundConfig{
			BadID:      DefaultBadID,
			Detail:     DefaultNotFoundDetail,
			MaxSeconds: DefaultMaxSeconds,
		},
	}
}

// LoadFile reads a YAML or JSON config file over the defaults
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeConfig, "reading config %s", path).
			WithContext("config_type", "file")
	}
	config, err := Parse(data)
	if err != nil {
		return nil, err
	}
	config.ConfigFile = path
	return config, nil
}

// Parse decodes config file contents. JSON is accepted as a YAML subset.
func Parse(data []byte) (*Config, error) {
	config := NewConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "parsing config").
			WithContext("config_type", "file")
	}
	config.resolveResourceID()
	return config, nil
}

func (c *Config) resolveResourceID() {
	if c.ResourceID != "" || c.IDKey == "" {
		return
	}
	if v, ok := c.Variables[c.IDKey]; ok && v != nil {
		c.ResourceID = fmt.Sprint(v)
	}
}

// LoadFromFlags builds a Config from --config and command line flags, then
// falls back to APICONFORM_* environment variables. Flags a command does not
// define are skipped.
func LoadFromFlags(flags *pflag.FlagSet) (*Config, error) {
	config := NewConfig()

	var configFile string
	if err := stringFlag(flags, "config", &configFile); err != nil {
		return nil, err
	}
	if configFile == "" {
		configFile = os.Getenv("APICONFORM_CONFIG")
	}
	if configFile != "" {
		loaded, err := LoadFile(configFile)
		if err != nil {
			return nil, err
		}
		config = loaded
	}

	for name, dst := range map[string]*string{
		"openapi":     &config.OpenAPIURL,
		"server":      &config.Hostname,
		"resource":    &config.ResourcePath,
		"resource-id": &config.ResourceID,
		"format":      &config.Format,
		"aws-service": &config.Auth.SigV4Service,
		"mcp-desc":    &config.MCP.Description,
	} {
		if err := stringFlag(flags, name, dst); err != nil {
			return nil, err
		}
	}

	for name, dst := range map[string]*bool{
		"aws-sigv4": &config.Auth.SigV4,
		"strict":    &config.StrictKinds,
		"not-found": &config.NotFound.Enabled,
		"verbose":   &config.Verbose,
		"debug":     &config.Debug,
	} {
		if err := boolFlag(flags, name, dst); err != nil {
			return nil, err
		}
	}

	if flags.Lookup("header") != nil {
		headers, err := flags.GetStringSlice("header")
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to get header flag")
		}
		config.Headers = append(config.Headers, headers...)
	}

	if flags.Lookup("case") != nil {
		cases, err := flags.GetStringSlice("case")
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to get case flag")
		}
		config.CaseFilter = cases
	}

	if f := flags.Lookup("parallel"); f != nil && f.Changed {
		parallel, err := flags.GetInt("parallel")
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to get parallel flag")
		}
		config.Parallel = parallel
	}

	if f := flags.Lookup("timeout"); f != nil && f.Changed {
		timeout, err := flags.GetDuration("timeout")
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to get timeout flag")
		}
		config.Timeout = timeout
	}

	config.applyEnv()
	config.MCP.OpenAPIURL = config.OpenAPIURL
	config.MCP.StrictKinds = config.StrictKinds

	return config, nil
}

// stringFlag copies a changed or non-empty string flag into dst
func stringFlag(flags *pflag.FlagSet, name string, dst *string) error {
	f := flags.Lookup(name)
	if f == nil {
		return nil
	}
	value, err := flags.GetString(name)
	if err != nil {
		return errors.Wrapf(err, errors.ErrorTypeConfig, "failed to get %s flag", name)
	}
	if f.Changed || (value != "" && *dst == "") {
		*dst = value
	}
	return nil
}

func boolFlag(flags *pflag.FlagSet, name string, dst *bool) error {
	f := flags.Lookup(name)
	if f == nil || !f.Changed {
		return nil
	}
	value, err := flags.GetBool(name)
	if err != nil {
		return errors.Wrapf(err, errors.ErrorTypeConfig, "failed to get %s flag", name)
	}
	*dst = value
	return nil
}

func (c *Config) applyEnv() {
	for env, dst := range map[string]*string{
		"APICONFORM_OPENAPI":         &c.OpenAPIURL,
		"APICONFORM_SERVER":          &c.Hostname,
		"APICONFORM_RESOURCE_ID":     &c.ResourceID,
		"APICONFORM_TOKEN_URL":       &c.Auth.TokenURL,
		"APICONFORM_CLIENT_ID":       &c.Auth.ClientID,
		"APICONFORM_CLIENT_SECRET":   &c.Auth.ClientSecret,
		"APICONFORM_MCP_DESCRIPTION": &c.MCP.Description,
	} {
		if *dst == "" {
			*dst = os.Getenv(env)
		}
	}
}

// Variable returns a top-level config variable rendered as a string
func (c *Config) Variable(name string) (string, bool) {
	v, ok := c.Variables[name]
	if !ok || v == nil {
		return "", false
	}
	return fmt.Sprint(v), true
}

// SelectedCases returns the configured cases filtered by --case
func (c *Config) SelectedCases() []CaseConfig {
	if len(c.CaseFilter) == 0 {
		return c.Cases
	}
	want := make(map[string]bool, len(c.CaseFilter))
	for _, name := range c.CaseFilter {
		want[strings.TrimSpace(name)] = true
	}
	var selected []CaseConfig
	for _, tc := range c.Cases {
		if want[tc.Name] {
			selected = append(selected, tc)
		}
	}
	return selected
}

// Validate checks settings every command needs
func (c *Config) Validate() error {
	if c.OpenAPIURL == "" {
		return errors.New(errors.ErrorTypeConfig, "OpenAPI document location is required").
			WithContext("config_type", "openapi").
			WithContext("suggestion", "set APICONFORM_OPENAPI or use --openapi")
	}
	if c.Format != "pretty" && c.Format != "json" {
		return errors.New(errors.ErrorTypeValidation, "format must be pretty or json").
			WithContext("field", "format").
			WithContext("value", c.Format)
	}
	return nil
}

// ValidateRun checks the settings needed to call the API under test
func (c *Config) ValidateRun() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Hostname == "" {
		return errors.New(errors.ErrorTypeConfig, "hostname is required").
			WithContext("config_type", "target").
			WithContext("suggestion", "set hostname in the config file, APICONFORM_SERVER or --server")
	}
	if c.ResourceID == "" {
		return errors.New(errors.ErrorTypeConfig, "resource id is required").
			WithContext("config_type", "target").
			WithContext("suggestion", fmt.Sprintf("set resource_id or %s in the config file, or use --resource-id", c.IDKey))
	}
	if c.Parallel < 1 {
		return errors.New(errors.ErrorTypeValidation, "parallel must be at least 1").
			WithContext("field", "parallel")
	}
	if c.Auth.OAuthEnabled() && (c.Auth.TokenURL == "" || c.Auth.ClientID == "" || c.Auth.ClientSecret == "") {
		return errors.New(errors.ErrorTypeConfig, "token_api, client_id and client_secret must be set together").
			WithContext("config_type", "auth")
	}
	if len(c.CaseFilter) > 0 && len(c.SelectedCases()) == 0 {
		return errors.New(errors.ErrorTypeValidation, "no configured case matches --case").
			WithContext("field", "case").
			WithContext("requested", c.CaseFilter)
	}

	seen := make(map[string]bool)
	for i, tc := range c.Cases {
		if tc.Name == "" {
			return errors.Newf(errors.ErrorTypeValidation, "case %d has no name", i).
				WithContext("field", "cases")
		}
		if seen[tc.Name] {
			return errors.Newf(errors.ErrorTypeValidation, "duplicate case name %q", tc.Name).
				WithContext("field", "cases")
		}
		seen[tc.Name] = true
		if err := tc.validate(); err != nil {
			return err
		}
	}
	if len(c.Cases) == 0 && !c.NotFound.Enabled {
		return errors.New(errors.ErrorTypeConfig, "nothing to run").
			WithContext("config_type", "cases").
			WithContext("suggestion", "add cases to the config file or enable not_found")
	}
	return nil
}

func (tc CaseConfig) validate() error {
	if _, ok := parseMultiplicity(tc.Multiplicity); !ok {
		return errors.Newf(errors.ErrorTypeValidation, "case %q: multiplicity must be one or many", tc.Name).
			WithContext("field", "multiplicity")
	}
	if tc.MaxSeconds < 0 {
		return errors.Newf(errors.ErrorTypeValidation, "case %q: max_seconds cannot be negative", tc.Name).
			WithContext("field", "max_seconds")
	}
	if tc.ExpectedStatus() == 200 && tc.Definition == "" {
		return errors.Newf(errors.ErrorTypeValidation, "case %q: definition is required for successful responses", tc.Name).
			WithContext("field", "definition")
	}
	if tc.ExpectedStatus() >= 400 && tc.Detail == "" {
		return errors.Newf(errors.ErrorTypeValidation, "case %q: detail is required for error responses", tc.Name).
			WithContext("field", "detail")
	}
	return nil
}

func parseMultiplicity(s string) (string, bool) {
	switch s {
	case "", "one", "single":
		return "one", true
	case "many", "list":
		return "many", true
	}
	return "", false
}
