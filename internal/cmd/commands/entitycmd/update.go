package entitycmd

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/hashicorp-forge/cmaclient/internal/cmd/base"
	"github.com/hashicorp-forge/cmaclient/pkg/apierror"
	"github.com/hashicorp-forge/cmaclient/pkg/entity"
	"github.com/hashicorp-forge/cmaclient/pkg/transport"
)

type UpdateCommand struct {
	*base.Command

	client    base.ClientFlags
	flagData  string
	flagSet   base.StringSliceFlag
	flagRetry int
}

func (c *UpdateCommand) Synopsis() string {
	return "Change fields of an entity"
}

func (c *UpdateCommand) Help() string {
	return `Usage: cma update [options] <kind> <id>

  Fetches an entity, merges -data and -set into its payload and saves it with
  the fetched version. If someone else saved the entity in between, the update
  fails with a version mismatch unless -retry allows refetching.

  Example:

    $ cma update -set admin=true space_member 5kL2g` + c.Flags().Help()
}

func (c *UpdateCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("update", flag.ContinueOnError))
	c.client.Register(f)

	f.StringVar(&c.flagData, "data", "", "JSON object merged into the payload.")
	f.Var(&c.flagSet, "set", "Payload field as key=value; dotted keys nest. Can be repeated.")
	f.IntVar(&c.flagRetry, "retry", 0, "Refetch and reapply this many times on a version mismatch.")

	return f
}

func (c *UpdateCommand) Run(args []string) int {
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
	if c.flagRetry < 0 {
		ui.Error("retry must not be negative")
		return 1
	}

	changes := make(map[string]any)
	if c.flagData != "" {
		if err := transport.DecodeJSON([]byte(c.flagData), &changes); err != nil {
			ui.Error(fmt.Sprintf("invalid -data: %v", err))
			return 1
		}
		delete(changes, "sys")
	}
	sets, err := parseAssignments(c.flagSet)
	if err != nil {
		ui.Error(err.Error())
		return 1
	}
	merge(changes, sets)
	if len(changes) == 0 {
		ui.Error("nothing to update, use -data or -set")
		return 1
	}

	client, kind, err := setup(c.Command, &c.client, flags.Arg(0))
	if err != nil {
		ui.Error(err.Error())
		return 1
	}
	id := flags.Arg(1)
	ctx := context.Background()

	updated, err := entity.RetryOnVersionMismatch(ctx,
		func(ctx context.Context) (*entity.Entity, error) {
			return fetch(ctx, client, kind, id)
		},
		func(e *entity.Entity) error {
			if e.Fields == nil {
				e.Fields = make(map[string]any)
			}
			merge(e.Fields, changes)
			return nil
		},
		entity.RetryOptions{MaxAttempts: c.flagRetry + 1, Logger: c.Log},
	)
	if err != nil {
		var mismatch *apierror.VersionMismatchError
		if errors.As(err, &mismatch) {
			ui.Error(fmt.Sprintf("%s %q was changed by someone else (version %d is stale); fetch it again and retry",
				kind.Name, id, mismatch.Version))
			return 1
		}
		ui.Error(fmt.Sprintf("error updating %s %q: %v", kind.Name, id, err))
		return 1
	}

	if err := c.Print(c.client.Format, updated.ToPlainObject()); err != nil {
		ui.Error(err.Error())
		return 1
	}
	return 0
}
