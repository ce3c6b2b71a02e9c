package cmd

import (
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/etnz/pricedb"
	"github.com/etnz/pricedb/jsonl"
	"github.com/google/subcommands"
)

const testLedger = `{"command":"book","currency":"EUR"}
{"command":"commodity","namespace":"NASDAQ","mnemonic":"ABC","fraction":100}
{"command":"price","guid":"a1","namespace":"NASDAQ","mnemonic":"ABC","currency":"EUR","date":"2024-01-03","num":1200,"denom":100}
{"command":"price","guid":"a2","namespace":"NASDAQ","mnemonic":"ABC","currency":"EUR","date":"2024-01-04","num":0,"denom":100}
`

// Helper function to create a temporary ledger file
func createTempLedger(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test_ledger.jsonl")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}
	return path
}

// execute runs a subcommand with command line args.
func execute(t *testing.T, c subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()
	f := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	c.SetFlags(f)
	if err := f.Parse(args); err != nil {
		t.Fatalf("invalid args %v: %v", args, err)
	}
	return c.Execute(context.Background(), f)
}

func TestUsageErrors(t *testing.T) {
	ledger := createTempLedger(t, testLedger)
	tests := []struct {
		name string
		cmd  subcommands.Command
		args []string
	}{
		{"update without ledger", &updateCmd{}, nil},
		{"update with two ledgers", &updateCmd{}, []string{ledger, ledger}},
		{"update unknown market", &updateCmd{}, []string{"-market", "bloomberg", ledger}},
		{"update empty fund namespace", &updateCmd{}, []string{"-fund-namespace", "", ledger}},
		{"update crypto fund namespace", &updateCmd{}, []string{"-fund-namespace", "crypto", ledger}},
		{"update currency fund namespace", &updateCmd{}, []string{"-fund-namespace", "CURRENCY", ledger}},
		{"clean without ledger", &cleanCmd{}, nil},
		{"prices without ledger", &pricesCmd{}, nil},
		{"search without term", &searchCmd{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := execute(t, tt.cmd, tt.args...); got != subcommands.ExitUsageError {
				t.Errorf("Execute() = %v, want ExitUsageError", got)
			}
		})
	}
	// Usage errors are detected before anything is opened.
	if _, err := os.Stat(ledger + jsonl.LockSuffix); !os.IsNotExist(err) {
		t.Errorf("ledger was locked by a usage error: %v", err)
	}
}

func TestOpenFailure(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.jsonl")
	for _, c := range []subcommands.Command{&updateCmd{}, &cleanCmd{}, &pricesCmd{}} {
		if got := execute(t, c, missing); got != subcommands.ExitFailure {
			t.Errorf("%s Execute() = %v, want ExitFailure", c.Name(), got)
		}
	}
}

func TestReconcilerSources(t *testing.T) {
	c := &updateCmd{market: "eodhd", eodhdAPIKey: "key", fundNamespace: "FUNDS"}
	r, err := c.reconciler()
	if err != nil {
		t.Fatalf("reconciler() unexpected error: %v", err)
	}
	for _, ns := range []string{pricedb.NamespaceCurrency, pricedb.NamespaceCrypto, "FUNDS"} {
		if r.Sources[ns] == nil {
			t.Errorf("no source for namespace %s", ns)
		}
	}
	if r.Market == nil {
		t.Error("no market source")
	}

	c.fundNamespace = "Crypto"
	if _, err := c.reconciler(); !errors.Is(err, pricedb.ErrUsage) {
		t.Errorf("reconciler() with a reserved fund namespace error = %v, want ErrUsage", err)
	}

	c.fundNamespace, c.market = "FUNDS", "nasdaq"
	if _, err := c.reconciler(); !errors.Is(err, pricedb.ErrUsage) {
		t.Errorf("reconciler() error = %v, want ErrUsage", err)
	}
}

func TestClean(t *testing.T) {
	ledger := createTempLedger(t, testLedger)

	if got := execute(t, &cleanCmd{}, "-dry-run", ledger); got != subcommands.ExitSuccess {
		t.Fatalf("Execute(-dry-run) = %v, want ExitSuccess", got)
	}
	if data, _ := os.ReadFile(ledger); string(data) != testLedger {
		t.Errorf("dry run changed the ledger:\n%s", data)
	}

	if got := execute(t, &cleanCmd{}, ledger); got != subcommands.ExitSuccess {
		t.Fatalf("Execute() = %v, want ExitSuccess", got)
	}
	data, _ := os.ReadFile(ledger)
	if strings.Contains(string(data), `"guid":"a2"`) || !strings.Contains(string(data), `"guid":"a1"`) {
		t.Errorf("clean did not remove only the zero price:\n%s", data)
	}
	if _, err := os.Stat(ledger + jsonl.LockSuffix); !os.IsNotExist(err) {
		t.Errorf("ledger left locked: %v", err)
	}
}

func TestPrices(t *testing.T) {
	ledger := createTempLedger(t, testLedger)
	if got := execute(t, &pricesCmd{}, "-raw", ledger, "NASDAQ:ABC"); got != subcommands.ExitSuccess {
		t.Errorf("Execute() = %v, want ExitSuccess", got)
	}
}

func TestSelected(t *testing.T) {
	abc := pricedb.Commodity{Namespace: "NASDAQ", Mnemonic: "ABC"}
	tests := []struct {
		selection []string
		want      bool
	}{
		{nil, true},
		{[]string{"ABC"}, true},
		{[]string{"nasdaq:ABC"}, true},
		{[]string{"NYSE:ABC"}, false},
		{[]string{"abc"}, false},
		{[]string{"DEF", "ABC"}, true},
	}
	for _, tt := range tests {
		if got := selected(abc, tt.selection); got != tt.want {
			t.Errorf("selected(%v) = %v, want %v", tt.selection, got, tt.want)
		}
	}
}

func TestOpenBook(t *testing.T) {
	ledger := createTempLedger(t, testLedger)
	b, err := OpenBook(context.Background(), ledger)
	if err != nil {
		t.Fatalf("OpenBook() unexpected error: %v", err)
	}
	defer b.Close()
	if _, ok := b.(*jsonl.Book); !ok {
		t.Errorf("OpenBook(%q) = %T, want *jsonl.Book", ledger, b)
	}

	// .gnucash files are SQLite books, never JSONL ledgers.
	missing := filepath.Join(t.TempDir(), "missing.gnucash")
	if b, err := OpenBook(context.Background(), missing); !errors.Is(err, pricedb.ErrPersistence) || b != nil {
		t.Errorf("OpenBook(%q) = %v, %v, want nil and ErrPersistence", missing, b, err)
	}
	if _, err := os.Stat(missing); !os.IsNotExist(err) {
		t.Errorf("OpenBook() created %s", missing)
	}
}

func TestCompletion(t *testing.T) {
	root := Completion()
	update := root.Sub["update"]
	if update == nil {
		t.Fatal("no completion for update")
	}
	for _, name := range []string{"market", "eodhd-api-key", "coingecko-api-key", "fund-namespace", "timeout", "dry-run", "report"} {
		if _, ok := update.Flags[name]; !ok {
			t.Errorf("update completion misses -%s", name)
		}
	}
	if got := update.Flags["market"].Predict(""); len(got) != len(Markets) {
		t.Errorf("-market predicts %v, want %v", got, Markets)
	}
	for _, name := range []string{"prices", "clean", "search", "topic"} {
		if root.Sub[name] == nil {
			t.Errorf("no completion for %s", name)
		}
	}
}

func TestTopic(t *testing.T) {
	if got := execute(t, &topicCmd{}, "-raw", "ledger", "sources"); got != subcommands.ExitSuccess {
		t.Errorf("Execute() = %v, want ExitSuccess", got)
	}
	if got := execute(t, &topicCmd{}, "-list"); got != subcommands.ExitSuccess {
		t.Errorf("Execute(-list) = %v, want ExitSuccess", got)
	}
	if got := execute(t, &topicCmd{}, "-raw", "nope"); got != subcommands.ExitUsageError {
		t.Errorf("Execute(nope) = %v, want ExitUsageError", got)
	}
}
