package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/pricedb/eodhd"
	"github.com/google/subcommands"
)

// searchCmd implements the "search" command.
type searchCmd struct {
	eodhdAPIKey string
}

func (*searchCmd) Name() string     { return "search" }
func (*searchCmd) Synopsis() string { return "search EODHD tickers to use as mnemonics" }
func (*searchCmd) Usage() string {
	return `pdbupdate search [flags] <search term>

  Searches for securities via EOD Historical Data API by name, ticker or ISIN,
  and prints their tickers, usable as mnemonics with "update -market eodhd".

  Requires the EODHD_API_KEY environment variable to be set or passed as a flag.
`
}

func (c *searchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.eodhdAPIKey, "eodhd-api-key", "", "EODHD API key. This flag takes precedence over the "+eodhd.APIKeyEnv+" environment variable. You can get one at https://eodhd.com/")
}

func (c *searchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: a search term is required.")
		return subcommands.ExitUsageError
	}
	searchTerm := strings.Join(f.Args(), " ")

	key := envOr(c.eodhdAPIKey, eodhd.APIKeyEnv)
	if key == "" {
		fmt.Fprintf(os.Stderr, "Error: EODHD API key is not set. Use -eodhd-api-key flag or %s environment variable\n", eodhd.APIKeyEnv)
		return subcommands.ExitFailure
	}

	src := &eodhd.Source{APIKey: key}
	results, err := src.Search(ctx, searchTerm)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error searching securities: %v\n", err)
		return subcommands.ExitFailure
	}

	if len(results) == 0 {
		fmt.Printf("No results found for '%s'.\n", searchTerm)
		return subcommands.ExitSuccess
	}

	fmt.Printf("Found %d results for '%s':\n\n", len(results), searchTerm)
	for _, item := range results {
		fmt.Printf("➡️   Mnemonic    : %s\n", item.Ticker())
		fmt.Printf("    Name        : %s\n", item.Name)
		fmt.Printf("    Type        : %s, Country: %s, Currency: %s\n", item.Type, item.Country, item.Currency)
		if item.ISIN != "" {
			fmt.Printf("    ISIN        : %s\n", item.ISIN)
		}
		if !item.PreviousCloseDate.IsZero() {
			fmt.Printf("    Prev. Close : %s on %s\n\n", item.PreviousClose, item.PreviousCloseDate)
		} else {
			fmt.Println()
		}
	}
	return subcommands.ExitSuccess
}
