package models

import "github.com/shopspring/decimal"

// CurrencySymbol prefixes every amount shown to the user.
const CurrencySymbol = "₹"

func FormatMoney(d decimal.Decimal) string {
	return CurrencySymbol + d.StringFixed(2)
}

func FormatBudget(min, max decimal.Decimal) string {
	return FormatMoney(min) + " - " + FormatMoney(max)
}
