// Package sheets speaks the spreadsheet endpoint protocol used to keep a
// remote, append-only copy of every check-in. It contains both the client
// (the remote recorder) and a server that implements the endpoint on top of
// a SQLite row store.
package sheets

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joescharf/checkin/internal/models"
)

// Actions understood by the endpoint.
const (
	ActionAppend = "append"
	ActionCheck  = "check"
)

// Request is the JSON body posted to the endpoint.
type Request struct {
	Action  string           `json:"action"`
	Email   string           `json:"email,omitempty"`
	MonthID string           `json:"monthId,omitempty"`
	Data    *models.SheetRow `json:"data,omitempty"`
}

// Response is the JSON body returned by the endpoint. Exists is a pointer so
// a missing field can be told apart from false.
type Response struct {
	Success   bool    `json:"success"`
	Exists    *bool   `json:"exists,omitempty"`
	Row       int64   `json:"row,omitempty"`
	Message   string  `json:"message,omitempty"`
	Error     string  `json:"error,omitempty"`
	Searched  *Search `json:"searched,omitempty"`
	TotalRows *int    `json:"totalRows,omitempty"`
	Received  any     `json:"received,omitempty"`
}

// Search echoes the normalized lookup key of a check.
type Search struct {
	Email   string `json:"email"`
	MonthID string `json:"monthId"`
}

var periodRe = regexp.MustCompile(`^\d{4}-\d{2}$`)

// dateLayouts are the shapes a spreadsheet tends to turn "YYYY-MM" into.
var dateLayouts = []string{
	time.RFC3339,
	"Mon Jan 02 2006 15:04:05 GMT-0700",
	"Mon Jan 02 2006",
	"2006-01-02",
	"2006-01-02 15:04:05",
}

// NormalizeMonthID folds the values a sheet may hold for a month key back
// into "YYYY-MM". Values it cannot interpret are returned trimmed.
func NormalizeMonthID(v string) string {
	s := strings.TrimSpace(v)
	if s == "" || periodRe.MatchString(s) {
		return s
	}

	// "Thu Jan 01 2026 00:00:00 GMT-0300 (hora estándar de Argentina)"
	candidate := s
	if i := strings.Index(candidate, " ("); i > 0 {
		candidate = candidate[:i]
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, candidate); err == nil {
			return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
		}
	}

	// Epoch milliseconds.
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil && ms > 0 {
		return models.PeriodOf(time.UnixMilli(ms))
	}
	return s
}

// NormalizeEmail is the comparison form of an identity.
func NormalizeEmail(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
