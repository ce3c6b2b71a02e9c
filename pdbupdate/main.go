// Command pdbupdate appends the latest quotes to the price database of a ledger.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/pricedb/cmd"
	"github.com/google/subcommands"
)

func main() {
	name := path.Base(os.Args[0])
	// Answers shell completion requests, and exits, when COMP_LINE is set.
	cmd.Completion().Complete(name)

	commander := subcommands.NewCommander(flag.CommandLine, name)
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
