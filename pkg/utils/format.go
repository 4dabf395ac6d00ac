// Package utils provides shared utility functions.
package utils

import (
	"fmt"

	"alphamind/internal/models"
)

// FormatPrice renders a price at the display precision of its
// instrument class (5 decimals for forex pairs, 2 for indices and
// metals, 4 otherwise).
func FormatPrice(price float64, class models.InstrumentClass) string {
	return fmt.Sprintf("%.*f", class.Precision(), price)
}

// FormatPercent formats a percentage with an explicit sign for gains.
func FormatPercent(value float64) string {
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, value)
}

// FormatPnL formats a profit/loss amount with an explicit sign.
func FormatPnL(pnl float64) string {
	if pnl > 0 {
		return fmt.Sprintf("+%.2f", pnl)
	}
	return fmt.Sprintf("%.2f", pnl)
}

// FormatRR renders a risk-reward ratio as "1:N".
func FormatRR(rr float64) string {
	return fmt.Sprintf("1:%.1f", rr)
}
