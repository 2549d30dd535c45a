package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/brendan.keane/apiconform/internal/errors"
)

const studentsConfig = `{
  "hostname": "https://api.example.edu",
  "osu_id": "931234567",
  "class_schedule_term": "201901",
  "client_id": "id",
  "client_secret": "secret",
  "token_api": "https://api.example.edu/oauth2/token"
}`

const suiteConfig = `
hostname: https://api.example.edu
resource_path: /students
resource_id: "931234567"
token_api: https://api.example.edu/oauth2/token
client_id: id
client_secret: secret
scopes: [students]
parallel: 4
timeout: 10s
term: "201901"
cases:
  - name: gpa
    endpoint: gpa
    definition: GradePointAverageResult
    max_seconds: 3
    id_template: "{{.ID}}"
  - name: holds
    endpoint: holds
    definition: HoldsResultList
    multiplicity: many
  - name: schedule-without-term
    endpoint: class-schedule
    status: 400
    detail: Term (query parameter) is required.
not_found:
  enabled: true
  skip: [dual-enrollment]
`

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	if cfg.Parallel != 1 {
		t.Errorf("default parallel: got %d, expected 1", cfg.Parallel)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("default timeout: got %v, expected %v", cfg.Timeout, DefaultTimeout)
	}
	if cfg.Format != "pretty" {
		t.Errorf("default format: got %q, expected %q", cfg.Format, "pretty")
	}
	if cfg.NotFound.BadID != DefaultBadID {
		t.Errorf("default bad id: got %q, expected %q", cfg.NotFound.BadID, DefaultBadID)
	}
	if cfg.NotFound.Enabled {
		t.Errorf("not-found sweep should be disabled by default")
	}
}

func TestParseOriginalJSONConfig(t *testing.T) {
	cfg, err := Parse([]byte(studentsConfig))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.Hostname != "https://api.example.edu" {
		t.Errorf("hostname: got %q", cfg.Hostname)
	}
	if cfg.ResourceID != "931234567" {
		t.Errorf("resource id should come from osu_id, got %q", cfg.ResourceID)
	}
	if cfg.Auth.TokenURL != "https://api.example.edu/oauth2/token" {
		t.Errorf("token url: got %q", cfg.Auth.TokenURL)
	}
	if term, ok := cfg.Variable("class_schedule_term"); !ok || term != "201901" {
		t.Errorf("class_schedule_term variable: got %q, %v", term, ok)
	}
	if _, ok := cfg.Variable("hostname"); ok {
		t.Errorf("known keys should not be collected as variables")
	}
}

func TestParseSuiteConfig(t *testing.T) {
	cfg, err := Parse([]byte(suiteConfig))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.Parallel != 4 {
		t.Errorf("parallel: got %d", cfg.Parallel)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("timeout: got %v", cfg.Timeout)
	}
	if len(cfg.Cases) != 3 {
		t.Fatalf("cases: got %d", len(cfg.Cases))
	}
	if cfg.Cases[0].ExpectedStatus() != 200 || cfg.Cases[2].ExpectedStatus() != 400 {
		t.Errorf("expected statuses 200 and 400, got %d and %d", cfg.Cases[0].ExpectedStatus(), cfg.Cases[2].ExpectedStatus())
	}
	if !cfg.NotFound.Enabled || cfg.NotFound.BadID != DefaultBadID {
		t.Errorf("not_found should merge over defaults, got %+v", cfg.NotFound)
	}
	if cfg.NotFound.Detail != DefaultNotFoundDetail {
		t.Errorf("not_found detail default lost: %q", cfg.NotFound.Detail)
	}
	if len(cfg.Auth.Scopes) != 1 || cfg.Auth.Scopes[0] != "students" {
		t.Errorf("scopes: got %v", cfg.Auth.Scopes)
	}

	cfg.OpenAPIURL = "openapi.yaml"
	if err := cfg.ValidateRun(); err != nil {
		t.Errorf("ValidateRun: %v", err)
	}
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse([]byte("cases: [unterminated"))
	if !errors.IsType(err, errors.ErrorTypeConfig) {
		t.Errorf("expected config error, got %v", err)
	}
}

func newFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("run", pflag.ContinueOnError)
	flags.StringP("config", "i", "", "")
	flags.StringP("openapi", "s", "", "")
	flags.String("server", "", "")
	flags.String("resource-id", "", "")
	flags.String("format", "pretty", "")
	flags.StringSlice("case", nil, "")
	flags.StringSliceP("header", "H", nil, "")
	flags.Int("parallel", 1, "")
	flags.Duration("timeout", DefaultTimeout, "")
	flags.Bool("not-found", false, "")
	flags.Bool("aws-sigv4", false, "")
	flags.BoolP("verbose", "v", false, "")
	flags.Bool("debug", false, "")
	return flags
}

func TestLoadFromFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(suiteConfig), 0644); err != nil {
		t.Fatal(err)
	}

	flags := newFlagSet()
	err := flags.Parse([]string{
		"--config", path,
		"--openapi", "openapi.yaml",
		"--parallel", "2",
		"--case", "gpa,holds",
		"-H", "X-Trace: 1",
		"--debug",
	})
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFlags(flags)
	if err != nil {
		t.Fatalf("LoadFromFlags: %v", err)
	}

	if cfg.ConfigFile != path {
		t.Errorf("config file: got %q", cfg.ConfigFile)
	}
	if cfg.Parallel != 2 {
		t.Errorf("parallel flag should override file, got %d", cfg.Parallel)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("unchanged timeout flag should keep file value, got %v", cfg.Timeout)
	}
	if cfg.Hostname != "https://api.example.edu" {
		t.Errorf("hostname from file lost: %q", cfg.Hostname)
	}
	if !cfg.Debug {
		t.Errorf("debug flag not applied")
	}
	if len(cfg.Headers) != 1 || cfg.Headers[0] != "X-Trace: 1" {
		t.Errorf("headers: got %v", cfg.Headers)
	}
	if got := len(cfg.SelectedCases()); got != 2 {
		t.Errorf("selected cases: got %d, expected 2", got)
	}
	if cfg.MCP.OpenAPIURL != "openapi.yaml" {
		t.Errorf("MCP openapi url not propagated: %q", cfg.MCP.OpenAPIURL)
	}
}

func TestLoadFromFlagsEnvironment(t *testing.T) {
	t.Setenv("APICONFORM_OPENAPI", "https://api.example.edu/openapi.yaml")
	t.Setenv("APICONFORM_SERVER", "https://env.example.edu")
	t.Setenv("APICONFORM_CLIENT_SECRET", "from-env")

	flags := newFlagSet()
	if err := flags.Parse([]string{"--server", "https://flag.example.edu"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFlags(flags)
	if err != nil {
		t.Fatalf("LoadFromFlags: %v", err)
	}
	if cfg.OpenAPIURL != "https://api.example.edu/openapi.yaml" {
		t.Errorf("openapi from env: got %q", cfg.OpenAPIURL)
	}
	if cfg.Hostname != "https://flag.example.edu" {
		t.Errorf("flag should win over env, got %q", cfg.Hostname)
	}
	if cfg.Auth.ClientSecret != "from-env" {
		t.Errorf("client secret from env: got %q", cfg.Auth.ClientSecret)
	}
}

func TestLoadFromFlagsSkipsUndefinedFlags(t *testing.T) {
	flags := pflag.NewFlagSet("definitions", pflag.ContinueOnError)
	flags.String("openapi", "", "")
	if err := flags.Parse([]string{"--openapi", "spec.yaml"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFlags(flags)
	if err != nil {
		t.Fatalf("LoadFromFlags: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidateRun(t *testing.T) {
	valid := func() *Config {
		cfg, err := Parse([]byte(suiteConfig))
		if err != nil {
			t.Fatal(err)
		}
		cfg.OpenAPIURL = "openapi.yaml"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		errType errors.ErrorType
	}{
		{"missing openapi", func(c *Config) { c.OpenAPIURL = "" }, errors.ErrorTypeConfig},
		{"bad format", func(c *Config) { c.Format = "xml" }, errors.ErrorTypeValidation},
		{"missing hostname", func(c *Config) { c.Hostname = "" }, errors.ErrorTypeConfig},
		{"missing resource id", func(c *Config) { c.ResourceID = "" }, errors.ErrorTypeConfig},
		{"zero parallel", func(c *Config) { c.Parallel = 0 }, errors.ErrorTypeValidation},
		{"partial credentials", func(c *Config) { c.Auth.ClientSecret = "" }, errors.ErrorTypeConfig},
		{"unknown case filter", func(c *Config) { c.CaseFilter = []string{"nope"} }, errors.ErrorTypeValidation},
		{"duplicate case", func(c *Config) { c.Cases = append(c.Cases, c.Cases[0]) }, errors.ErrorTypeValidation},
		{"bad multiplicity", func(c *Config) { c.Cases[0].Multiplicity = "few" }, errors.ErrorTypeValidation},
		{"missing definition", func(c *Config) { c.Cases[0].Definition = "" }, errors.ErrorTypeValidation},
		{"missing detail", func(c *Config) { c.Cases[2].Detail = "" }, errors.ErrorTypeValidation},
		{"nothing to run", func(c *Config) { c.Cases = nil; c.NotFound.Enabled = false }, errors.ErrorTypeConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.ValidateRun()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.IsType(err, tt.errType) {
				t.Errorf("expected %s error, got %s: %v", tt.errType, errors.GetType(err), err)
			}
		})
	}
}

func BenchmarkParse(b *testing.B) {
	data := []byte(suiteConfig)
	for i := 0; i < b.N; i++ {
		_, _ = Parse(data)
	}
}
