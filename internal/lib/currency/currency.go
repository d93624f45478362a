// Package currency renders amounts and timestamps at the display boundary.
// Internally everything stays decimal; only the terminal output is
// formatted.
package currency

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// TimeLayout matches the ledger timestamp format, e.g. "2020-02-04 13:04:22".
const TimeLayout = "2006-01-02 15:04:05"

var printer = message.NewPrinter(language.AmericanEnglish)

// USD formats an amount for display: grouped thousands, two decimals, and a
// leading minus before the dollar sign when negative ("-$4.76").
func USD(d decimal.Decimal) string {
	f, _ := d.Abs().Float64()
	s := printer.Sprintf("$%.2f", f)
	if d.IsNegative() {
		return "-" + s
	}
	return s
}

// Ledger formats an amount for a history line: plain two decimals, no
// symbol, no grouping.
func Ledger(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Timestamp formats a ledger timestamp.
func Timestamp(t time.Time) string {
	return t.Format(TimeLayout)
}
