package models

import (
	"fmt"
	"time"
)

// PeriodLayout is the time layout of a period key ("YYYY-MM").
const PeriodLayout = "2006-01"

var monthNames = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// PeriodOf returns the period key for t, computed in UTC.
func PeriodOf(t time.Time) string {
	return t.UTC().Format(PeriodLayout)
}

// PeriodLabel returns the Spanish month/year label for a period key,
// e.g. "2026-10" -> "octubre de 2026". Unparseable keys are returned as-is.
func PeriodLabel(period string) string {
	t, err := time.Parse(PeriodLayout, period)
	if err != nil {
		return period
	}
	return fmt.Sprintf("%s de %d", monthNames[t.Month()-1], t.Year())
}

// FormatTimestamp renders the display timestamp stored on a review.
// It is meant for people, not for sorting.
func FormatTimestamp(t time.Time) string {
	return t.Format("2/1/2006, 15:04:05")
}
