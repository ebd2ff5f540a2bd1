// Package export renders the admin view of submitted reviews as
// spreadsheet-friendly CSV.
package export

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/joescharf/checkin/internal/models"
)

const (
	// BOM makes spreadsheet applications read the file as UTF-8.
	BOM       = "\uFEFF"
	Delimiter = ';'
)

// Header is the first row of every export.
var Header = []string{"Fecha", "Email", "Mes", "Completitud %", "Bugs", "Satisfaccion", "Comentarios"}

// Filename returns the export file name for the given day.
func Filename(t time.Time) string {
	return fmt.Sprintf("Check-in_Reporte_%s.csv", t.Format("2006-01-02"))
}

// WriteCSV writes reviews in stored order. The comments column is always
// quoted; other fields only when they contain the delimiter, a quote or a
// line break.
func WriteCSV(w io.Writer, reviews []*models.Review) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(BOM); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}

	writeRow := func(fields []string, quoteLast bool) {
		for i, f := range fields {
			if i > 0 {
				_ = bw.WriteByte(Delimiter)
			}
			if i == len(fields)-1 && quoteLast {
				_, _ = bw.WriteString(quote(f))
			} else {
				_, _ = bw.WriteString(field(f))
			}
		}
		_ = bw.WriteByte('\n')
	}

	writeRow(Header, false)
	for _, r := range reviews {
		writeRow([]string{
			r.CreatedAt,
			r.Identity,
			r.PeriodLabel,
			strconv.Itoa(r.CompletionPercent),
			strconv.Itoa(r.BugCount),
			r.Satisfaction.Label(),
			r.Comments,
		}, true)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func field(s string) string {
	if strings.ContainsAny(s, ";\"\r\n") {
		return quote(s)
	}
	return s
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
