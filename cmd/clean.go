package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/pricedb"
	"github.com/google/subcommands"
)

type cleanCmd struct {
	dryRun bool
}

func (*cleanCmd) Name() string     { return "clean" }
func (*cleanCmd) Synopsis() string { return "remove zero valued prices" }
func (*cleanCmd) Usage() string {
	return `pdbupdate clean [flags] <ledger>

  Removes every price whose value is zero from the ledger.
  The update command does it for the commodities it quotes.
`
}

func (c *cleanCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.dryRun, "dry-run", false, "do not save the ledger")
}

func (c *cleanCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ledger, ok := ledgerArg(f.Args())
	if !ok {
		return subcommands.ExitUsageError
	}

	book, err := OpenBook(ctx, ledger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not open ledger %q: %v\n", ledger, err)
		return subcommands.ExitFailure
	}
	defer book.Close()

	removed, err := pricedb.Cleanup(book)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not clean ledger %q: %v\n", ledger, err)
		return subcommands.ExitFailure
	}
	if removed > 0 && !c.dryRun {
		if err := book.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: could not save ledger %q: %v\n", ledger, err)
			return subcommands.ExitFailure
		}
	}
	fmt.Printf("%d zero prices removed.\n", removed)
	return subcommands.ExitSuccess
}
