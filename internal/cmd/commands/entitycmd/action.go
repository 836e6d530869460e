package entitycmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/hashicorp-forge/cmaclient/internal/cmd/base"
	"github.com/hashicorp-forge/cmaclient/pkg/entity"
)

// ActionCommand runs one instance action (delete, publish, unpublish,
// archive, unarchive) against a freshly fetched entity.
type ActionCommand struct {
	*base.Command

	Action entity.Action

	client base.ClientFlags
}

func (c *ActionCommand) Synopsis() string {
	switch c.Action {
	case entity.ActionDelete:
		return "Delete an entity"
	case entity.ActionPublish:
		return "Publish an entity"
	case entity.ActionUnpublish:
		return "Unpublish an entity"
	case entity.ActionArchive:
		return "Archive an entity"
	case entity.ActionUnarchive:
		return "Unarchive an entity"
	}
	return fmt.Sprintf("Run %s on an entity", c.Action)
}

func (c *ActionCommand) Help() string {
	return fmt.Sprintf(`Usage: cma %[1]s [options] <kind> <id>

  %[2]s. The entity is fetched first so the request carries its
  current version.

  Example:

    $ cma %[1]s entries 3xYz`, c.Action, c.Synopsis()) + c.Flags().Help()
}

func (c *ActionCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet(string(c.Action), flag.ContinueOnError))
	c.client.Register(f)
	return f
}

func (c *ActionCommand) Run(args []string) int {
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
	if !kind.Supports(c.Action) {
		ui.Error(fmt.Sprintf("%s does not support %s (supported: %s)", kind.Name, c.Action, actionList(kind)))
		return 1
	}

	ctx := context.Background()
	e, err := fetch(ctx, client, kind, flags.Arg(1))
	if err != nil {
		ui.Error(err.Error())
		return 1
	}

	var result *entity.Entity
	switch c.Action {
	case entity.ActionDelete:
		err = e.Delete(ctx)
	case entity.ActionPublish:
		result, err = e.Publish(ctx)
	case entity.ActionUnpublish:
		result, err = e.Unpublish(ctx)
	case entity.ActionArchive:
		result, err = e.Archive(ctx)
	case entity.ActionUnarchive:
		result, err = e.Unarchive(ctx)
	default:
		err = fmt.Errorf("unknown action: %w", entity.ErrUnsupportedAction)
	}
	if err != nil {
		if errors.Is(err, entity.ErrUnsupportedAction) {
			ui.Error(err.Error())
			return 1
		}
		ui.Error(fmt.Sprintf("error running %s on %s %q: %v", c.Action, kind.Name, e.ID(), err))
		return 1
	}

	if result == nil {
		ui.Info(fmt.Sprintf("%s %q: %s done", kind.Name, e.ID(), c.Action))
		return 0
	}
	if err := c.Print(c.client.Format, result.ToPlainObject()); err != nil {
		ui.Error(err.Error())
		return 1
	}
	return 0
}

func actionList(k entity.Kind) string {
	names := make([]string, len(k.Actions))
	for i, a := range k.Actions {
		names[i] = string(a)
	}
	return strings.Join(names, ", ")
}
