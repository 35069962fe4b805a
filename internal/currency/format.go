package currency

import (
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// symbols used by Format; codes not listed are prefixed with the code
var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"CNY": "CN¥",
	"KRW": "₩",
	"INR": "₹",
	"CAD": "CA$",
	"AUD": "A$",
	"NZD": "NZ$",
	"MXN": "MX$",
	"BRL": "R$",
	"CHF": "CHF ",
	"SEK": "SEK ",
	"NOK": "NOK ",
	"DKK": "DKK ",
	"THB": "฿",
	"VND": "₫",
	"TRY": "₺",
}

// zeroDecimal currencies have no minor unit in everyday pricing
var zeroDecimal = map[string]bool{
	"JPY": true,
	"KRW": true,
	"VND": true,
	"CLP": true,
	"ISK": true,
	"HUF": true,
}

var printer = message.NewPrinter(language.English)

// Format renders amount with the currency symbol and thousands grouping,
// e.g. "$1,234.50" or "¥1,500"
func Format(amount float64, code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))

	sign := ""
	if amount < 0 {
		sign = "-"
		amount = math.Abs(amount)
	}

	var digits string
	if zeroDecimal[code] {
		digits = printer.Sprintf("%.0f", math.Round(amount))
	} else {
		digits = printer.Sprintf("%.2f", amount)
	}

	symbol, ok := symbols[code]
	if !ok {
		symbol = code + " "
	}
	return sign + symbol + digits
}

// Display is a price prepared for presentation in the native currency plus
// USD and GBP references
type Display struct {
	Native        string    `json:"native"`
	USD           string    `json:"usd"`
	GBP           string    `json:"gbp"`
	TaxesIncluded bool      `json:"taxes_included"`
	Approximate   bool      `json:"approximate"`
	RateTimestamp time.Time `json:"rate_timestamp"`
}

// CreateDisplay formats amount natively and converted to USD and GBP
func (n *Normalizer) CreateDisplay(amount float64, code string, taxesIncluded bool) Display {
	usd := n.Convert(amount, code, "USD")
	gbp := n.Convert(amount, code, "GBP")

	d := Display{
		Native:        Format(amount, code),
		USD:           Format(usd.Amount, "USD"),
		GBP:           Format(gbp.Amount, "GBP"),
		TaxesIncluded: taxesIncluded,
		Approximate:   usd.Approximate || gbp.Approximate,
	}
	if s := n.Snapshot(); s != nil {
		d.RateTimestamp = s.Timestamp
	}
	return d
}
