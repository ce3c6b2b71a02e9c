// Package morningstar quotes funds by scraping their Morningstar quote page.
//
// Mnemonics are Morningstar fund ids, like "0P0000YXJO".
package morningstar

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/etnz/pricedb"
	"github.com/etnz/pricedb/date"
	"github.com/shopspring/decimal"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultNamespace is the commodity namespace of the funds quoted by Morningstar.
const DefaultNamespace = "BANCOINVEST"

const defaultBaseURL = "https://global.morningstar.com/en-eu/investments/funds"

// userAgent is a desktop browser, Morningstar serves a consent page to the others.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

var (
	lastPriceRe = regexp.MustCompile(`lastPrice:\{value:(\d+(?:\.\d+)?)`)
	currencyRe  = regexp.MustCompile(`currency:"([A-Z]{3})"`)
)

// Source is the Morningstar fund source.
type Source struct {
	Client  *http.Client     // nil is http.DefaultClient
	BaseURL string           // empty is the en-eu funds site
	Now     func() date.Date // nil is date.Today
}

// Quote returns the last price published on the fund's quote page.
//
// The page date is used when it has one, today otherwise. Prices are in the
// currency the page tells, or in currency.
func (s *Source) Quote(ctx context.Context, c pricedb.Commodity, currency string) (pricedb.Quote, error) {
	id := strings.TrimSpace(c.Mnemonic)
	base := defaultBaseURL
	if s.BaseURL != "" {
		base = strings.TrimSuffix(s.BaseURL, "/")
	}
	addr := fmt.Sprintf("%s/%s/quote", base, url.PathEscape(id))
	header := make(http.Header)
	header.Set("User-Agent", userAgent)
	body, err := pricedb.Get(ctx, s.Client, addr, header)
	if err != nil {
		return pricedb.Quote{}, fmt.Errorf("morningstar %s: %w", id, err)
	}

	p, err := parse(body)
	if err != nil {
		return pricedb.Quote{}, fmt.Errorf("morningstar %s: %w", id, err)
	}
	if p.price.IsZero() {
		return pricedb.Quote{}, fmt.Errorf("morningstar %s: %w: no last price on the page", id, pricedb.ErrNoData)
	}

	q := pricedb.Quote{Symbol: id, Price: p.price, Currency: currency, Date: p.day}
	if p.currency != "" {
		q.Currency = p.currency
	}
	if q.Date.IsZero() {
		log.Printf("warning no date on the quote page of %s, using today", id)
		q.Date = date.Today()
		if s.Now != nil {
			q.Date = s.Now()
		}
	}
	return q, nil
}

// page is what is read from a quote page.
type page struct {
	price    decimal.Decimal
	currency string
	day      date.Date
}

// parse walks the quote page, reading the first last price and currency
// found in scripts and the first dated <time> element.
func parse(body []byte) (page, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return page{}, fmt.Errorf("%w: invalid html: %w", pricedb.ErrQuoteUnavailable, err)
	}

	var p page
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script:
				p.readScript(n)
			case atom.Time:
				if p.day.IsZero() {
					p.readTime(n)
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return p, nil
}

func (p *page) readScript(n *html.Node) {
	var text strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.TextNode {
			text.WriteString(child.Data)
		}
	}
	script := text.String()

	if p.price.IsZero() {
		if m := lastPriceRe.FindStringSubmatch(script); m != nil {
			if v, err := decimal.NewFromString(m[1]); err == nil {
				p.price = v
			}
		}
	}
	if p.currency == "" {
		for _, m := range currencyRe.FindAllStringSubmatch(script, -1) {
			if money.GetCurrency(m[1]) != nil {
				p.currency = m[1]
				break
			}
		}
	}
}

func (p *page) readTime(n *html.Node) {
	for _, a := range n.Attr {
		if a.Key != "datetime" {
			continue
		}
		v := a.Val
		if len(v) > len("2006-01-02") {
			v = v[:len("2006-01-02")]
		}
		if d, err := date.Parse(v); err == nil {
			p.day = d
		}
	}
}
