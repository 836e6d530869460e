package transport

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/oauth2"
	httptrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/net/http"
)

// DefaultBaseURL is the public content management API endpoint.
const DefaultBaseURL = "https://api.contentful.com"

// Config contains configuration for the API transport.
//
// Example (library use):
//
//	cfg := transport.DefaultConfig()
//	cfg.AccessToken = os.Getenv("CMA_ACCESS_TOKEN")
//	client, err := transport.New(cfg)
type Config struct {
	// BaseURL is the base URL of the API.
	// Example: "https://api.contentful.com"
	BaseURL string `json:"baseUrl"`

	// AccessToken is sent as a Bearer token on every request.
	AccessToken string `json:"-"` // Don't marshal the token to JSON

	// TLSVerify controls TLS certificate verification.
	// Set to false only for development/testing with self-signed certs.
	TLSVerify *bool `json:"tlsVerify,omitempty"`

	// Timeout for a single HTTP request.
	// Default: 30 seconds
	Timeout time.Duration `json:"timeout,omitempty"`

	// MaxRetries for failed read requests (GET/HEAD). Writes are never retried.
	// Default: 3
	MaxRetries int `json:"maxRetries,omitempty"`

	// RetryDelay is the initial backoff interval between read retries.
	// Default: 1 second
	RetryDelay time.Duration `json:"retryDelay,omitempty"`

	// UserAgent overrides the User-Agent header.
	UserAgent string `json:"userAgent,omitempty"`

	// Trace wraps the HTTP client with Datadog request tracing.
	Trace bool `json:"trace,omitempty"`

	// Logger receives request/response debug logs. Defaults to a null logger.
	Logger hclog.Logger `json:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	tlsVerify := true
	return &Config{
		BaseURL:    DefaultBaseURL,
		TLSVerify:  &tlsVerify,
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		RetryDelay: 1 * time.Second,
	}
}

// applyDefaults fills zero values from DefaultConfig.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.BaseURL == "" {
		c.BaseURL = defaults.BaseURL
	}
	if c.TLSVerify == nil {
		c.TLSVerify = defaults.TLSVerify
	}
	if c.Timeout == 0 {
		c.Timeout = defaults.Timeout
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = defaults.RetryDelay
	}
	if c.Logger == nil {
		c.Logger = hclog.NewNullLogger()
	}
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var result *multierror.Error
	if err := validateBaseURL(c.BaseURL); err != nil {
		result = multierror.Append(result, err)
	}
	if c.AccessToken == "" {
		result = multierror.Append(result, fmt.Errorf("access_token is required"))
	}
	if c.Timeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("timeout must be positive, got: %v", c.Timeout))
	}
	if c.MaxRetries < 0 {
		result = multierror.Append(result, fmt.Errorf("max_retries must be non-negative, got: %d", c.MaxRetries))
	}
	if c.RetryDelay < 0 {
		result = multierror.Append(result, fmt.Errorf("retry_delay must be non-negative, got: %v", c.RetryDelay))
	}
	return result.ErrorOrNil()
}

// validateBaseURL requires an absolute http(s) URL that request paths can be
// appended to.
func validateBaseURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("base_url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	switch {
	case u.Scheme != "http" && u.Scheme != "https":
		return fmt.Errorf("base_url must use http or https scheme, got: %q", u.Scheme)
	case u.Host == "":
		return fmt.Errorf("base_url must include a host: %q", raw)
	case u.RawQuery != "" || u.Fragment != "":
		return fmt.Errorf("base_url must not carry a query or fragment: %q", raw)
	}
	return nil
}

// NewHTTPClient creates a configured HTTP client. The access token is injected
// by an oauth2 transport so it never has to be set per request.
func (c *Config) NewHTTPClient() *http.Client {
	base := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	// Configure TLS verification
	if c.TLSVerify != nil && !*c.TLSVerify {
		base.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	var rt http.RoundTripper = base
	if c.AccessToken != "" {
		rt = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.AccessToken}),
			Base:   base,
		}
	}

	client := &http.Client{
		Timeout:   c.Timeout,
		Transport: rt,
	}

	if c.Trace {
		client = httptrace.WrapClient(client, httptrace.RTWithServiceName("cmaclient"))
	}

	return client
}
