package pricedb

import (
	"context"
	"errors"
	"testing"

	"github.com/etnz/pricedb/date"
	"github.com/shopspring/decimal"
)

func TestCurrencies(t *testing.T) {
	var asked string
	market := QuoteSourceFunc(func(ctx context.Context, c Commodity, currency string) (Quote, error) {
		asked = c.Mnemonic
		return fixed("1.0950", "USD", "2024-01-05", nil).Quote(ctx, c, currency)
	})
	s := Currencies{
		Market: market,
		Pair:   func(from, to string) string { return from + to + ".FOREX" },
		Now:    func() date.Date { return date.MustParse("2024-01-06") },
	}

	t.Run("cross rate", func(t *testing.T) {
		q, err := s.Quote(context.Background(), eur, "USD")
		if err != nil {
			t.Fatalf("Quote() unexpected error: %v", err)
		}
		if asked != "EURUSD.FOREX" {
			t.Errorf("market was asked %q, want EURUSD.FOREX", asked)
		}
		if q.Currency != "USD" || q.Price.String() != "1.095" {
			t.Errorf("Quote() = %v %v, want 1.095 USD", q.Price, q.Currency)
		}
	})

	t.Run("same currency", func(t *testing.T) {
		asked = ""
		q, err := s.Quote(context.Background(), usd, "USD")
		if err != nil {
			t.Fatalf("Quote() unexpected error: %v", err)
		}
		if asked != "" {
			t.Errorf("market was asked %q, want nothing", asked)
		}
		if !q.Price.Equal(decimal.NewFromInt(1)) || q.Date != date.MustParse("2024-01-06") {
			t.Errorf("Quote() = %v on %v, want 1 on 2024-01-06", q.Price, q.Date)
		}
	})

	t.Run("not a currency", func(t *testing.T) {
		_, err := s.Quote(context.Background(), Commodity{Namespace: NamespaceCurrency, Mnemonic: "ZZZZ"}, "USD")
		if !errors.Is(err, ErrNoData) {
			t.Errorf("Quote() error = %v, want ErrNoData", err)
		}
	})

	t.Run("market failure", func(t *testing.T) {
		s := Currencies{Market: failing(ErrQuoteUnavailable, nil), Pair: func(from, to string) string { return from + to }}
		_, err := s.Quote(context.Background(), eur, "USD")
		if !errors.Is(err, ErrQuoteUnavailable) {
			t.Errorf("Quote() error = %v, want ErrQuoteUnavailable", err)
		}
	})
}

func TestGroupByNamespace(t *testing.T) {
	namespaces, groups := GroupByNamespace([]Commodity{abc, btc, eur, usd, {Namespace: "NASDAQ", Mnemonic: "DEF"}})
	want := []string{"NASDAQ", NamespaceCrypto, NamespaceCurrency}
	if len(namespaces) != len(want) {
		t.Fatalf("namespaces = %v, want %v", namespaces, want)
	}
	for i := range want {
		if namespaces[i] != want[i] {
			t.Errorf("namespaces[%d] = %q, want %q", i, namespaces[i], want[i])
		}
	}
	if len(groups["NASDAQ"]) != 2 || groups["NASDAQ"][1].Mnemonic != "DEF" {
		t.Errorf("groups[NASDAQ] = %v, want ABC then DEF", groups["NASDAQ"])
	}
}
