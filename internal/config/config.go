package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/hashicorp-forge/cmaclient/pkg/cma"
	"github.com/hashicorp-forge/cmaclient/pkg/entity"
	"github.com/hashicorp-forge/cmaclient/pkg/transport"
)

const (
	DefaultEnvironmentID = "master"
	DefaultWebAppURL     = "https://app.contentful.com"
	DefaultLogLevel      = "warn"
)

// Environment variables consulted for settings the file leaves empty.
const (
	EnvAccessToken    = "CMA_ACCESS_TOKEN"
	EnvBaseURL        = "CMA_BASE_URL"
	EnvOrganizationID = "CMA_ORGANIZATION_ID"
	EnvSpaceID        = "CMA_SPACE_ID"
	EnvEnvironmentID  = "CMA_ENVIRONMENT_ID"
)

// Config is the CLI configuration, read from an HCL (or JSON) file.
//
// Example:
//
//	access_token   = env("CMA_ACCESS_TOKEN")
//	space_id       = "abc123"
//	environment_id = "master"
//	timeout        = "10s"
type Config struct {
	BaseURL        string `hcl:"base_url,optional" json:"base_url"`
	AccessToken    string `hcl:"access_token,optional" json:"-"`
	OrganizationID string `hcl:"organization_id,optional" json:"organization_id"`
	SpaceID        string `hcl:"space_id,optional" json:"space_id"`
	EnvironmentID  string `hcl:"environment_id,optional" json:"environment_id"`

	// VersionHeader overrides the optimistic concurrency header name.
	VersionHeader string `hcl:"version_header,optional" json:"version_header"`

	// Timeout and RetryDelay are Go durations, e.g. "30s".
	Timeout    string `hcl:"timeout,optional" json:"timeout"`
	MaxRetries *int   `hcl:"max_retries,optional" json:"max_retries"`
	RetryDelay string `hcl:"retry_delay,optional" json:"retry_delay"`

	TLSVerify *bool  `hcl:"tls_verify,optional" json:"tls_verify"`
	Trace     bool   `hcl:"trace,optional" json:"trace"`
	UserAgent string `hcl:"user_agent,optional" json:"user_agent"`

	// WebAppURL is the web app origin used by the open command.
	WebAppURL string `hcl:"web_app_url,optional" json:"web_app_url"`

	LogLevel string `hcl:"log_level,optional" json:"log_level"`
}

// Loader reads configuration files.
type Loader struct {
	Fs     afero.Fs
	Getenv func(string) string
}

// NewLoader returns a loader for the OS filesystem and environment.
func NewLoader() *Loader {
	return &Loader{Fs: afero.NewOsFs(), Getenv: os.Getenv}
}

// Load reads path, fills unset values from the environment and defaults, and
// validates the result. An empty path skips the file.
func (l *Loader) Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		exists, err := afero.Exists(l.Fs, path)
		if err != nil {
			return nil, fmt.Errorf("error checking configuration file: %w", err)
		}
		if !exists {
			return nil, fmt.Errorf("configuration file not found: %s", path)
		}

		src, err := afero.ReadFile(l.Fs, path)
		if err != nil {
			return nil, fmt.Errorf("error reading configuration file: %w", err)
		}

		ctx := &hcl.EvalContext{
			Functions: map[string]function.Function{
				"env": envFunc(l.getenv),
			},
		}
		if err := hclsimple.Decode(path, src, ctx, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file: %w", err)
		}
	}

	cfg.applyEnv(l.getenv)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (l *Loader) getenv(key string) string {
	if l.Getenv == nil {
		return os.Getenv(key)
	}
	return l.Getenv(key)
}

// envFunc implements env(name, [default]) for configuration files.
func envFunc(getenv func(string) string) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "name", Type: cty.String},
		},
		VarParam: &function.Parameter{Name: "default", Type: cty.String},
		Type:     function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			if len(args) > 2 {
				return cty.NilVal, fmt.Errorf("env takes at most one default value")
			}
			v := getenv(args[0].AsString())
			if v == "" && len(args) == 2 {
				v = args[1].AsString()
			}
			return cty.StringVal(v), nil
		},
	})
}

func (c *Config) applyEnv(getenv func(string) string) {
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = getenv(key)
		}
	}
	fill(&c.AccessToken, EnvAccessToken)
	fill(&c.BaseURL, EnvBaseURL)
	fill(&c.OrganizationID, EnvOrganizationID)
	fill(&c.SpaceID, EnvSpaceID)
	fill(&c.EnvironmentID, EnvEnvironmentID)
}

func (c *Config) applyDefaults() {
	defaults := transport.DefaultConfig()
	if c.BaseURL == "" {
		c.BaseURL = defaults.BaseURL
	}
	if c.EnvironmentID == "" {
		c.EnvironmentID = DefaultEnvironmentID
	}
	if c.VersionHeader == "" {
		c.VersionHeader = entity.DefaultVersionHeader
	}
	if c.Timeout == "" {
		c.Timeout = defaults.Timeout.String()
	}
	if c.MaxRetries == nil {
		n := defaults.MaxRetries
		c.MaxRetries = &n
	}
	if c.RetryDelay == "" {
		c.RetryDelay = defaults.RetryDelay.String()
	}
	if c.WebAppURL == "" {
		c.WebAppURL = DefaultWebAppURL
	}
	c.LogLevel = strings.ToLower(c.LogLevel)
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// Validate checks the configuration. The access token is not required here
// so that commands which never call the API still work without one.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required, validation.By(httpURL)),
		validation.Field(&c.WebAppURL, validation.By(httpURL)),
		validation.Field(&c.Timeout, validation.Required, validation.By(positiveDuration)),
		validation.Field(&c.RetryDelay, validation.By(duration)),
		validation.Field(&c.MaxRetries, validation.By(nonNegative)),
		validation.Field(&c.LogLevel, validation.In("trace", "debug", "info", "warn", "error", "off")),
	)
}

func httpURL(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("must use http or https")
	}
	if u.Host == "" {
		return errors.New("must include a host")
	}
	return nil
}

func duration(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := time.ParseDuration(s); err != nil {
		return errors.New("must be a duration such as 30s")
	}
	return nil
}

func positiveDuration(value any) error {
	if err := duration(value); err != nil {
		return err
	}
	s, _ := value.(string)
	if d, _ := time.ParseDuration(s); s != "" && d <= 0 {
		return errors.New("must be positive")
	}
	return nil
}

func nonNegative(value any) error {
	switch n := value.(type) {
	case *int:
		if n != nil && *n < 0 {
			return errors.New("must not be negative")
		}
	case int:
		if n < 0 {
			return errors.New("must not be negative")
		}
	}
	return nil
}

// TransportConfig converts the configuration for transport.New.
func (c *Config) TransportConfig(logger hclog.Logger) (*transport.Config, error) {
	timeout, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout: %w", err)
	}
	retryDelay, err := time.ParseDuration(c.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("invalid retry_delay: %w", err)
	}

	cfg := transport.DefaultConfig()
	cfg.BaseURL = c.BaseURL
	cfg.AccessToken = c.AccessToken
	cfg.Timeout = timeout
	cfg.RetryDelay = retryDelay
	if c.MaxRetries != nil {
		cfg.MaxRetries = *c.MaxRetries
	}
	if c.TLSVerify != nil {
		v := *c.TLSVerify
		cfg.TLSVerify = &v
	}
	cfg.Trace = c.Trace
	cfg.UserAgent = c.UserAgent
	cfg.Logger = logger
	return cfg, nil
}

// Scope returns the default client scope.
func (c *Config) Scope() cma.Scope {
	return cma.Scope{
		OrganizationID: c.OrganizationID,
		SpaceID:        c.SpaceID,
		EnvironmentID:  c.EnvironmentID,
	}
}

// Level returns the configured log level.
func (c *Config) Level() hclog.Level {
	return hclog.LevelFromString(c.LogLevel)
}
