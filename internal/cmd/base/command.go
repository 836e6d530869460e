package base

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/pkg/browser"
	"gopkg.in/yaml.v3"

	"github.com/hashicorp-forge/cmaclient/internal/config"
	"github.com/hashicorp-forge/cmaclient/pkg/cma"
	"github.com/hashicorp-forge/cmaclient/pkg/transport"
)

// Command is embedded by every command.
type Command struct {
	Log hclog.Logger
	UI  cli.Ui

	// Loader reads configuration. Defaults to the OS filesystem.
	Loader *config.Loader

	// Doer replaces the HTTP transport when set.
	Doer transport.Doer

	// OpenURL opens a URL in the user's browser.
	OpenURL func(url string) error
}

// NewCommand returns a base command with production defaults.
func NewCommand(log hclog.Logger, ui cli.Ui) *Command {
	return &Command{
		Log:     log,
		UI:      ui,
		Loader:  config.NewLoader(),
		OpenURL: browser.OpenURL,
	}
}

// FlagSet wraps flag.FlagSet so commands can render their flags in Help.
type FlagSet struct {
	*flag.FlagSet
}

// NewFlagSet wraps f. Parse errors are returned rather than printed.
func NewFlagSet(f *flag.FlagSet) *FlagSet {
	f.SetOutput(io.Discard)
	return &FlagSet{FlagSet: f}
}

// Help renders the flags for a command's help text.
func (f *FlagSet) Help() string {
	var b strings.Builder
	f.VisitAll(func(fl *flag.Flag) {
		if b.Len() == 0 {
			b.WriteString("\n\nOptions:\n")
		}
		fmt.Fprintf(&b, "\n  -%s\n      %s\n", fl.Name, fl.Usage)
		if fl.DefValue != "" {
			fmt.Fprintf(&b, "      (default: %s)\n", fl.DefValue)
		}
	})
	return b.String()
}

// StringSliceFlag collects repeated flag values.
type StringSliceFlag []string

func (s *StringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *StringSliceFlag) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// ClientFlags are shared by every command that talks to the API.
type ClientFlags struct {
	Config       string
	Organization string
	Space        string
	Environment  string
	Format       string
}

// Register adds the client flags to f.
func (cf *ClientFlags) Register(f *FlagSet) {
	f.StringVar(&cf.Config, "config", "", "Path to an HCL or JSON config file.")
	f.StringVar(&cf.Organization, "organization", "", "Organization ID. Overrides the config file.")
	f.StringVar(&cf.Space, "space", "", "Space ID. Overrides the config file.")
	f.StringVar(&cf.Environment, "environment", "", "Environment ID. Overrides the config file.")
	f.StringVar(&cf.Format, "format", "json", "Output format: json or yaml.")
}

// LoadConfig loads configuration and applies flag overrides. The logger
// level follows the configured log_level.
func (c *Command) LoadConfig(cf *ClientFlags) (*config.Config, error) {
	loader := c.Loader
	if loader == nil {
		loader = config.NewLoader()
	}
	cfg, err := loader.Load(cf.Config)
	if err != nil {
		return nil, err
	}
	if cf.Organization != "" {
		cfg.OrganizationID = cf.Organization
	}
	if cf.Space != "" {
		cfg.SpaceID = cf.Space
	}
	if cf.Environment != "" {
		cfg.EnvironmentID = cf.Environment
	}
	if cf.Format != "json" && cf.Format != "yaml" {
		return nil, fmt.Errorf("unsupported format %q", cf.Format)
	}
	c.Log.SetLevel(cfg.Level())
	return cfg, nil
}

// NewClient creates an API client for cfg.
func (c *Command) NewClient(cfg *config.Config) (*cma.Client, error) {
	opts := []cma.Option{
		cma.WithScope(cfg.Scope()),
		cma.WithVersionHeader(cfg.VersionHeader),
		cma.WithLogger(c.Log),
	}
	if c.Doer != nil {
		return cma.New(c.Doer, opts...)
	}

	tc, err := cfg.TransportConfig(c.Log)
	if err != nil {
		return nil, err
	}
	return cma.NewFromConfig(tc, opts...)
}

// Print writes v to the UI in the given format.
func (c *Command) Print(format string, v any) error {
	var out string
	switch format {
	case "yaml":
		var buf bytes.Buffer
		doc, err := yamlValue(v)
		if err != nil {
			return fmt.Errorf("error encoding output: %w", err)
		}
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("error encoding output: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("error encoding output: %w", err)
		}
		out = strings.TrimSuffix(buf.String(), "\n")
	default:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("error encoding output: %w", err)
		}
		out = string(data)
	}
	c.UI.Output(out)
	return nil
}

// yamlValue reshapes v into its JSON form so yaml output uses the same keys,
// and turns json.Number into typed scalars. yaml.v3 would otherwise quote
// them as strings.
func yamlValue(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return yamlNumbers(out), nil
}

func yamlNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			t[k] = yamlNumbers(item)
		}
		return t
	case []any:
		for i, item := range t {
			t[i] = yamlNumbers(item)
		}
		return t
	case json.Number:
		tag := "!!int"
		if strings.ContainsAny(t.String(), ".eE") {
			tag = "!!float"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: t.String()}
	default:
		return v
	}
}
