package entitycmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/hashicorp-forge/cmaclient/internal/cmd/base"
)

type GetCommand struct {
	*base.Command

	client base.ClientFlags
}

func (c *GetCommand) Synopsis() string {
	return "Fetch a single entity"
}

func (c *GetCommand) Help() string {
	return `Usage: cma get [options] <kind> <id>

  Fetches an entity and prints it.

  Example:

    $ cma get -space abc123 space_member 5kL2g` + c.Flags().Help()
}

func (c *GetCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("get", flag.ContinueOnError))
	c.client.Register(f)
	return f
}

func (c *GetCommand) Run(args []string) int {
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

	client, kind, err := setup(c.Command, &c.client, flags.Arg(0))
	if err != nil {
		ui.Error(err.Error())
		return 1
	}

	e, err := fetch(context.Background(), client, kind, flags.Arg(1))
	if err != nil {
		ui.Error(err.Error())
		return 1
	}

	if err := c.Print(c.client.Format, e.ToPlainObject()); err != nil {
		ui.Error(err.Error())
		return 1
	}
	return 0
}
