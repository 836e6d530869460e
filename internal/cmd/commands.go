package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/cmaclient/internal/cmd/base"
	"github.com/hashicorp-forge/cmaclient/internal/cmd/commands/entitycmd"
	"github.com/hashicorp-forge/cmaclient/internal/cmd/commands/kinds"
	"github.com/hashicorp-forge/cmaclient/internal/cmd/commands/open"
	"github.com/hashicorp-forge/cmaclient/internal/cmd/commands/version"
	"github.com/hashicorp-forge/cmaclient/pkg/entity"
)

// Commands is the mapping of all available commands.
var Commands map[string]cli.CommandFactory

func initCommands(log hclog.Logger, ui cli.Ui) {
	initCommandsWithBase(base.NewCommand(log, ui))
}

func initCommandsWithBase(b *base.Command) {
	action := func(a entity.Action) cli.CommandFactory {
		return func() (cli.Command, error) {
			return &entitycmd.ActionCommand{Command: b, Action: a}, nil
		}
	}

	Commands = map[string]cli.CommandFactory{
		"kinds": func() (cli.Command, error) {
			return &kinds.Command{Command: b}, nil
		},
		"get": func() (cli.Command, error) {
			return &entitycmd.GetCommand{Command: b}, nil
		},
		"list": func() (cli.Command, error) {
			return &entitycmd.ListCommand{Command: b}, nil
		},
		"create": func() (cli.Command, error) {
			return &entitycmd.CreateCommand{Command: b}, nil
		},
		"update": func() (cli.Command, error) {
			return &entitycmd.UpdateCommand{Command: b}, nil
		},
		"delete":    action(entity.ActionDelete),
		"publish":   action(entity.ActionPublish),
		"unpublish": action(entity.ActionUnpublish),
		"archive":   action(entity.ActionArchive),
		"unarchive": action(entity.ActionUnarchive),
		"open": func() (cli.Command, error) {
			return &open.Command{Command: b}, nil
		},
		"version": func() (cli.Command, error) {
			return &version.Command{Command: b}, nil
		},
	}
}
