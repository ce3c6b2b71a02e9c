package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/pricedb"
	"github.com/etnz/pricedb/renderer"
	"github.com/google/subcommands"
)

type pricesCmd struct {
	raw bool
}

func (*pricesCmd) Name() string     { return "prices" }
func (*pricesCmd) Synopsis() string { return "show the price history of commodities" }
func (*pricesCmd) Usage() string {
	return `pdbupdate prices [flags] <ledger> [mnemonic...]

  Shows the price history of the commodities of the ledger, most recent first.
  Mnemonics select commodities, as MNEMONIC or NAMESPACE:MNEMONIC.
`
}

func (c *pricesCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.raw, "raw", false, "print the markdown source instead of rendering it")
}

func (c *pricesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: you need to name the ledger to use, a JSONL file, a GnuCash SQLite file or a postgres:// url.")
		return subcommands.ExitUsageError
	}
	ledger, selection := f.Arg(0), f.Args()[1:]

	book, err := OpenBook(ctx, ledger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not open ledger %q: %v\n", ledger, err)
		return subcommands.ExitFailure
	}
	defer book.Close()

	commodities, err := book.Commodities()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	view := &renderer.Prices{Ledger: ledger, BaseCurrency: book.BaseCurrency()}
	for _, com := range commodities {
		if com.IsTemplate() || !selected(com, selection) {
			continue
		}
		history, err := book.Prices(com)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		// Currencies without prices are not worth listing.
		if com.IsCurrency() && len(history) == 0 && len(selection) == 0 {
			continue
		}
		view.Add(com, history)
	}

	md := renderer.RenderPrices(view)
	if c.raw {
		fmt.Print(md)
	} else {
		printMarkdown(md)
	}
	return subcommands.ExitSuccess
}

// selected reports whether c is named in selection, an empty selection selects everything.
func selected(c pricedb.Commodity, selection []string) bool {
	if len(selection) == 0 {
		return true
	}
	for _, s := range selection {
		if ns, mnemonic, ok := strings.Cut(s, ":"); ok {
			if c.In(ns) && c.Mnemonic == mnemonic {
				return true
			}
			continue
		}
		if c.Mnemonic == s {
			return true
		}
	}
	return false
}
