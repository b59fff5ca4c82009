// Package invoice renders orders for people: rupiah amounts in the
// Indonesian locale and the downloadable PDF invoice.
package invoice

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.Indonesian)

// FormatRupiah renders an amount the way id-ID locales do, e.g. "Rp 25.000".
func FormatRupiah(amount decimal.Decimal) string {
	return "Rp " + printer.Sprintf("%v", number.Decimal(amount.InexactFloat64(), number.MaxFractionDigits(2)))
}

// FormatDate renders a day in d/m/yyyy order.
func FormatDate(d time.Time) string {
	return d.Format("2/1/2006")
}
