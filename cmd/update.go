package cmd

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/etnz/pricedb"
	"github.com/etnz/pricedb/coingecko"
	"github.com/etnz/pricedb/eodhd"
	"github.com/etnz/pricedb/morningstar"
	"github.com/etnz/pricedb/renderer"
	"github.com/etnz/pricedb/yahoo"
	"github.com/google/subcommands"
)

// Markets are the market data sources selectable with -market.
var Markets = []string{"yahoo", "eodhd"}

type updateCmd struct {
	market        string
	eodhdAPIKey   string
	coingeckoKey  string
	fundNamespace string
	timeout       time.Duration
	dryRun        bool
	report        bool
}

func (*updateCmd) Name() string { return "update" }
func (*updateCmd) Synopsis() string {
	return "append the latest quotes to the price database of a ledger"
}
func (*updateCmd) Usage() string {
	return `pdbupdate update [flags] <ledger>

  Fetches the latest quote of every commodity in the ledger and appends a new
  price for each one whose quote is more recent than its last recorded price.

  <ledger> is a JSONL book file, a GnuCash SQLite file, or a postgres:// url to a GnuCash book.

  Namespaces are quoted by:
    CURRENCY          the market, as a pair with the book currency
    CRYPTO            coingecko.com
    <fund-namespace>  morningstar.com fund pages
    anything else     the market (-market)
`
}

func (c *updateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.market, "market", "yahoo", "market data source for securities and currencies: yahoo or eodhd")
	f.StringVar(&c.eodhdAPIKey, "eodhd-api-key", "", "EODHD API key. This flag takes precedence over the "+eodhd.APIKeyEnv+" environment variable. You can get one at https://eodhd.com/")
	f.StringVar(&c.coingeckoKey, "coingecko-api-key", "", "CoinGecko demo API key. This flag takes precedence over the "+coingecko.APIKeyEnv+" environment variable.")
	f.StringVar(&c.fundNamespace, "fund-namespace", morningstar.DefaultNamespace, "namespace of the funds quoted from Morningstar")
	f.DurationVar(&c.timeout, "timeout", 30*time.Second, "maximum duration of a single quote")
	f.BoolVar(&c.dryRun, "dry-run", false, "do not save the ledger")
	f.BoolVar(&c.report, "report", false, "print a markdown report of the run")
}

// reconciler returns the reconciler configured by the flags.
func (c *updateCmd) reconciler() (*pricedb.Reconciler, error) {
	var market pricedb.QuoteSource
	var pair func(from, to string) string
	switch c.market {
	case "yahoo":
		market, pair = &yahoo.Source{}, yahoo.Pair
	case "eodhd":
		key := envOr(c.eodhdAPIKey, eodhd.APIKeyEnv)
		if key == "" {
			log.Printf("warning no EODHD API key, using the demo key. Use -eodhd-api-key flag or %s environment variable", eodhd.APIKeyEnv)
			key = eodhd.DemoKey
		}
		market, pair = &eodhd.Source{APIKey: key}, eodhd.Pair
	default:
		return nil, fmt.Errorf("%w: unknown market %q, want one of %v", pricedb.ErrUsage, c.market, Markets)
	}
	if c.fundNamespace == "" {
		return nil, fmt.Errorf("%w: -fund-namespace cannot be empty", pricedb.ErrUsage)
	}
	for _, reserved := range []string{pricedb.NamespaceCurrency, pricedb.NamespaceCrypto, pricedb.NamespaceTemplate} {
		if strings.EqualFold(c.fundNamespace, reserved) {
			return nil, fmt.Errorf("%w: -fund-namespace cannot be %s, it has its own quote source", pricedb.ErrUsage, reserved)
		}
	}

	currencies := pricedb.Currencies{Market: market, Pair: pair}
	return &pricedb.Reconciler{
		Sources: map[string]pricedb.QuoteSource{
			pricedb.NamespaceCurrency: currencies,
			pricedb.NamespaceCrypto: &coingecko.Source{
				APIKey:    envOr(c.coingeckoKey, coingecko.APIKeyEnv),
				Reference: currencies,
			},
			c.fundNamespace: &morningstar.Source{},
		},
		Market:  market,
		Out:     os.Stdout,
		Timeout: c.timeout,
	}, nil
}

func (c *updateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ledger, ok := ledgerArg(f.Args())
	if !ok {
		return subcommands.ExitUsageError
	}
	r, err := c.reconciler()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	book, err := OpenBook(ctx, ledger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not open ledger %q: %v\n", ledger, err)
		return subcommands.ExitFailure
	}
	defer book.Close()

	report, err := r.Run(ctx, book)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	inserted, skipped, failed := report.Counts()
	switch {
	case c.dryRun:
		fmt.Fprintln(os.Stderr, "Dry run, the ledger is not saved.")
	case inserted == 0 && report.Removed() == 0:
		// Nothing to save.
	default:
		if err := book.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: could not save ledger %q: %v\n", ledger, err)
			return subcommands.ExitFailure
		}
	}

	if c.report {
		printMarkdown(renderer.RenderUpdate(renderer.NewUpdate(ledger, report)))
	}
	fmt.Fprintf(os.Stderr, "%d updated, %d up to date, %d failed.\n", inserted, skipped, failed)
	return subcommands.ExitSuccess
}
