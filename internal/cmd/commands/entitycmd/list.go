package entitycmd

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"strings"

	"github.com/hashicorp-forge/cmaclient/internal/cmd/base"
	"github.com/hashicorp-forge/cmaclient/pkg/cma"
)

type ListCommand struct {
	*base.Command

	client      base.ClientFlags
	flagSkip    int
	flagLimit   int
	flagOrder   string
	flagFilters base.StringSliceFlag
}

func (c *ListCommand) Synopsis() string {
	return "List entities of a kind"
}

func (c *ListCommand) Help() string {
	return `Usage: cma list [options] <kind>

  Fetches one page of entities and prints the collection.

  Example:

    $ cma list -space abc123 -limit 10 -query content_type=post entries` + c.Flags().Help()
}

func (c *ListCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("list", flag.ContinueOnError))
	c.client.Register(f)

	f.IntVar(&c.flagSkip, "skip", 0, "Number of items to skip.")
	f.IntVar(&c.flagLimit, "limit", 0, "Maximum number of items to return.")
	f.StringVar(&c.flagOrder, "order", "", "Sort order, e.g. -sys.createdAt.")
	f.Var(&c.flagFilters, "query", "Query filter as key=value. Can be repeated.")

	return f
}

func (c *ListCommand) Run(args []string) int {
	ui := c.UI

	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		ui.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if flags.NArg() != 1 {
		ui.Error("expected <kind>")
		return 1
	}
	if c.flagSkip < 0 || c.flagLimit < 0 {
		ui.Error("skip and limit must not be negative")
		return 1
	}

	filters := url.Values{}
	for _, pair := range c.flagFilters {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			ui.Error(fmt.Sprintf("invalid query %q, expected key=value", pair))
			return 1
		}
		filters.Add(key, value)
	}

	client, kind, err := setup(c.Command, &c.client, flags.Arg(0))
	if err != nil {
		ui.Error(err.Error())
		return 1
	}

	collection, err := client.List(context.Background(), kind, cma.Query{
		Skip:    c.flagSkip,
		Limit:   c.flagLimit,
		Order:   c.flagOrder,
		Filters: filters,
	})
	if err != nil {
		ui.Error(fmt.Sprintf("error listing %s: %v", kind.Name, err))
		return 1
	}

	if err := c.Print(c.client.Format, collection.ToPlainObject()); err != nil {
		ui.Error(err.Error())
		return 1
	}
	return 0
}
