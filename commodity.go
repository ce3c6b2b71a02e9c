package pricedb

import (
	"fmt"
	"strings"
)

// Namespaces with a special meaning for the reconciliation.
const (
	// NamespaceCurrency holds ISO currencies, the book's base currency among them.
	NamespaceCurrency = "CURRENCY"
	// NamespaceTemplate is the placeholder namespace of scheduled transactions' templates.
	NamespaceTemplate = "template"
	// NamespaceCrypto holds crypto currencies, identified by their CoinGecko id.
	NamespaceCrypto = "CRYPTO"
)

// UnknownCurrency is the ISO 4217 code for "no currency", used when a provider does not tell.
const UnknownCurrency = "XXX"

// Commodity is anything that can be priced in a book: a security, a fund, a currency.
type Commodity struct {
	Namespace string // Exchange or category: "NASDAQ", "CURRENCY", "CRYPTO", "template".
	Mnemonic  string // Ticker as understood by quote sources.
	Fullname  string
	CUSIP     string // CUSIP or ISIN, optional.
	Fraction  int64  // Smallest price unit is 1/Fraction.
	QuoteFlag bool   // Whether the user asked for online quotes.
}

// In reports whether c belongs to the namespace ns. Namespaces are case insensitive.
func (c Commodity) In(ns string) bool { return strings.EqualFold(c.Namespace, ns) }

// IsTemplate reports whether c is a template placeholder.
func (c Commodity) IsTemplate() bool { return c.In(NamespaceTemplate) }

// IsCurrency reports whether c is an ISO currency.
func (c Commodity) IsCurrency() bool { return c.In(NamespaceCurrency) }

// String returns "NAMESPACE:MNEMONIC".
func (c Commodity) String() string { return fmt.Sprintf("%s:%s", c.Namespace, c.Mnemonic) }

// Label returns the mnemonic followed by the full name, as displayed on progress lines.
func (c Commodity) Label() string {
	if c.Fullname == "" || c.Fullname == c.Mnemonic {
		return c.Mnemonic
	}
	return fmt.Sprintf("%s (%s)", c.Mnemonic, c.Fullname)
}

// GroupByNamespace groups commodities by namespace, namespaces in order of first appearance.
func GroupByNamespace(commodities []Commodity) (namespaces []string, groups map[string][]Commodity) {
	groups = make(map[string][]Commodity)
	for _, c := range commodities {
		if _, exists := groups[c.Namespace]; !exists {
			namespaces = append(namespaces, c.Namespace)
		}
		groups[c.Namespace] = append(groups[c.Namespace], c)
	}
	return namespaces, groups
}
