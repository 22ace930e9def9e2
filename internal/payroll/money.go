package payroll

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var moneyPrinter = message.NewPrinter(language.English)

// FormatAmount renders a monetary amount with thousands separators for
// payslip responses, e.g. 12345.6 -> "12,345.60".
func FormatAmount(amount float64) string {
	return moneyPrinter.Sprintf("%.2f", amount)
}
