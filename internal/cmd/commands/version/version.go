package version

import (
	"fmt"

	"github.com/hashicorp-forge/cmaclient/internal/cmd/base"
	"github.com/hashicorp-forge/cmaclient/internal/version"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the version"
}

func (c *Command) Help() string {
	return `Usage: cma version`
}

func (c *Command) Run(args []string) int {
	c.UI.Output(fmt.Sprintf("cma v%s", version.Version))
	return 0
}
