package open

import (
	"flag"
	"fmt"
	"strings"

	"github.com/hashicorp-forge/cmaclient/internal/cmd/base"
	"github.com/hashicorp-forge/cmaclient/pkg/entity"
)

// webKinds are the kinds whose API entity path is also a web app route.
var webKinds = map[string]bool{
	entity.Entry.Name:       true,
	entity.Asset.Name:       true,
	entity.ContentType.Name: true,
}

type Command struct {
	*base.Command

	client    base.ClientFlags
	flagPrint bool
}

func (c *Command) Synopsis() string {
	return "Open an entity in the web app"
}

func (c *Command) Help() string {
	return `Usage: cma open [options] <kind> <id>

  Opens the web app page of an entry, asset or content type in the
  default browser.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("open", flag.ContinueOnError))
	c.client.Register(f)
	f.BoolVar(&c.flagPrint, "print", false, "Print the URL instead of opening it.")
	return f
}

func (c *Command) Run(args []string) int {
	ui := c.UI

	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		ui.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if flags.NArg() != 2 {
		ui.Error("expected <kind> <id>")
		return 1
	}

	cfg, err := c.LoadConfig(&c.client)
	if err != nil {
		ui.Error(fmt.Sprintf("error loading config: %v", err))
		return 1
	}

	kind, ok := entity.DefaultRegistry().Lookup(flags.Arg(0))
	if !ok {
		ui.Error(fmt.Sprintf("unknown kind %q", flags.Arg(0)))
		return 1
	}
	if !webKinds[kind.Name] {
		ui.Error(fmt.Sprintf("%s has no page in the web app", kind.Name))
		return 1
	}

	scope := cfg.Scope()
	params := entity.Params{
		"organization_id": scope.OrganizationID,
		"space_id":        scope.SpaceID,
		"environment_id":  scope.EnvironmentID,
	}
	path, err := kind.EntityPath(params, flags.Arg(1))
	if err != nil {
		ui.Error(err.Error())
		return 1
	}
	url := strings.TrimSuffix(cfg.WebAppURL, "/") + path

	if c.flagPrint || c.OpenURL == nil {
		ui.Output(url)
		return 0
	}

	c.Log.Debug("opening browser", "url", url)
	if err := c.OpenURL(url); err != nil {
		ui.Error(fmt.Sprintf("error opening browser: %v", err))
		ui.Output(url)
		return 1
	}
	return 0
}
