package portal

import "github.com/shopspring/decimal"

// FormatCents renders amount in integer cents, the unit the reimbursement
// form expects. "45.50" becomes "4550".
func FormatCents(amount decimal.Decimal) string {
	return amount.Shift(2).Round(0).StringFixed(0)
}

// FormatMajor renders amount in dollars with two decimals, the unit the
// Direct Pay form expects. "45.5" becomes "45.50".
func FormatMajor(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
