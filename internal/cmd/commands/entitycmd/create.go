package entitycmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/hashicorp-forge/cmaclient/internal/cmd/base"
	"github.com/hashicorp-forge/cmaclient/pkg/transport"
)

type CreateCommand struct {
	*base.Command

	client   base.ClientFlags
	flagData string
	flagSet  base.StringSliceFlag
}

func (c *CreateCommand) Synopsis() string {
	return "Create an entity"
}

func (c *CreateCommand) Help() string {
	return `Usage: cma create [options] <kind> [id]

  Creates an entity from -data and -set. Without an id the server assigns
  one.

  Example:

    $ cma create -set 'fields.title.en-US=Hello' entries` + c.Flags().Help()
}

func (c *CreateCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("create", flag.ContinueOnError))
	c.client.Register(f)

	f.StringVar(&c.flagData, "data", "", "JSON object with the entity payload.")
	f.Var(&c.flagSet, "set", "Payload field as key=value; dotted keys nest. Can be repeated.")

	return f
}

func (c *CreateCommand) Run(args []string) int {
	ui := c.UI

	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		ui.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if flags.NArg() < 1 || flags.NArg() > 2 {
		ui.Error("expected <kind> [id]")
		return 1
	}

	fields := make(map[string]any)
	if c.flagData != "" {
		if err := transport.DecodeJSON([]byte(c.flagData), &fields); err != nil {
			ui.Error(fmt.Sprintf("invalid -data: %v", err))
			return 1
		}
	}
	sets, err := parseAssignments(c.flagSet)
	if err != nil {
		ui.Error(err.Error())
		return 1
	}
	merge(fields, sets)

	client, kind, err := setup(c.Command, &c.client, flags.Arg(0))
	if err != nil {
		ui.Error(err.Error())
		return 1
	}

	e, err := client.Create(context.Background(), kind, flags.Arg(1), fields)
	if err != nil {
		ui.Error(fmt.Sprintf("error creating %s: %v", kind.Name, err))
		return 1
	}

	if err := c.Print(c.client.Format, e.ToPlainObject()); err != nil {
		ui.Error(err.Error())
		return 1
	}
	return 0
}
