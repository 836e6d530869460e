package main

import (
	"os"

	"github.com/hashicorp-forge/cmaclient/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
