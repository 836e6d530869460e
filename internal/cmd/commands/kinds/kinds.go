package kinds

import (
	"flag"
	"fmt"
	"strings"

	"github.com/hashicorp-forge/cmaclient/internal/cmd/base"
	"github.com/hashicorp-forge/cmaclient/pkg/entity"
)

type Command struct {
	*base.Command

	flagFormat string
}

func (c *Command) Synopsis() string {
	return "List the entity kinds and their actions"
}

func (c *Command) Help() string {
	return `Usage: cma kinds [options]

  Lists every kind the client knows with its collection path and the actions
  its entities support. Kind names are accepted by other commands in any case
  style ("SpaceMember", "space-member") or as their collection ("space_members").` +
		c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("kinds", flag.ContinueOnError))
	f.StringVar(&c.flagFormat, "format", "table", "Output format: table, json or yaml.")
	return f
}

type kindOutput struct {
	Name    string   `json:"name" yaml:"name"`
	Path    string   `json:"path" yaml:"path"`
	Actions []string `json:"actions" yaml:"actions"`
}

func (c *Command) Run(args []string) int {
	ui := c.UI

	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		ui.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	kinds := entity.DefaultRegistry().Kinds()
	out := make([]kindOutput, len(kinds))
	for i, k := range kinds {
		actions := make([]string, len(k.Actions))
		for j, a := range k.Actions {
			actions[j] = string(a)
		}
		out[i] = kindOutput{Name: k.Name, Path: k.Path, Actions: actions}
	}

	switch c.flagFormat {
	case "table":
		for _, k := range out {
			ui.Output(fmt.Sprintf("%-24s %-70s %s", k.Name, k.Path, strings.Join(k.Actions, ",")))
		}
	case "json", "yaml":
		if err := c.Print(c.flagFormat, out); err != nil {
			ui.Error(err.Error())
			return 1
		}
	default:
		ui.Error(fmt.Sprintf("unsupported format %q", c.flagFormat))
		return 1
	}
	return 0
}
