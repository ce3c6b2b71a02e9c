// Package cmd implements the CLI application to update the price database of a ledger.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/etnz/pricedb"
	"github.com/etnz/pricedb/gnucash"
	"github.com/etnz/pricedb/jsonl"
	"github.com/google/subcommands"
)

// Commands lists the subcommands, by group.
var Commands = []struct {
	Group   string
	Command subcommands.Command
}{
	{"prices", &updateCmd{}},
	{"prices", &pricesCmd{}},
	{"prices", &cleanCmd{}},
	{"markets", &searchCmd{}},
	{"help", &topicCmd{}},
}

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	for _, cmd := range Commands {
		c.Register(cmd.Command, cmd.Group)
	}
}

// OpenBook opens the ledger named arg: a postgres:// url for a GnuCash
// PostgreSQL book, a .gnucash or other SQLite file for a GnuCash SQLite book,
// or the path to a JSONL book.
//
// ctx bounds database sessions.
func OpenBook(ctx context.Context, arg string) (pricedb.Book, error) {
	var (
		b   pricedb.Book
		err error
	)
	switch {
	case gnucash.IsURL(arg):
		b, err = gnucash.Open(ctx, arg)
	case gnucash.IsFile(arg):
		b, err = gnucash.OpenFile(ctx, arg)
	default:
		b, err = jsonl.Open(arg)
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// ledgerArg returns the single ledger argument, or prints an error.
func ledgerArg(args []string) (string, bool) {
	switch len(args) {
	case 0:
		fmt.Fprintln(os.Stderr, "Error: you need to name the ledger to use, a JSONL file, a GnuCash SQLite file or a postgres:// url.")
		return "", false
	case 1:
		return args[0], true
	default:
		fmt.Fprintf(os.Stderr, "Error: a single ledger is expected, got %d arguments.\n", len(args))
		return "", false
	}
}

// envOr returns v, or the environment variable env when v is empty.
func envOr(v, env string) string {
	if v == "" {
		return os.Getenv(env)
	}
	return v
}
