package renderer

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// FormatAmount formats an exact amount with its currency symbol, like "$12.35".
// Unknown currencies are written after the amount.
func FormatAmount(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil || cur.Template == "" {
		return amount.String() + " " + currency
	}
	return strings.NewReplacer("1", amount.String(), "$", cur.Grapheme).Replace(cur.Template)
}

// cell makes s fit in a markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}
