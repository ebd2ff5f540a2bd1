package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/joescharf/checkin/internal/models"
)

// UI provides colored output and respects verbose/dry-run modes.
type UI struct {
	Verbose bool
	DryRun  bool
	Out     io.Writer
	ErrOut  io.Writer
}

// New creates a UI with default stdout/stderr writers.
func New() *UI {
	return &UI{
		Out:    os.Stdout,
		ErrOut: os.Stderr,
	}
}

var (
	infoPrefix    = color.New(color.FgHiBlue).Sprint("i")
	successPrefix = color.New(color.FgHiGreen).Sprint("\u2713")
	warningPrefix = color.New(color.FgHiYellow).Sprint("\u26a0")
	errorPrefix   = color.New(color.FgHiRed).Sprint("\u2717")
	verbosePrefix = color.New(color.FgHiBlue).Sprint("  \u2192")
	cyan          = color.New(color.FgHiCyan).SprintFunc()
	green         = color.New(color.FgHiGreen).SprintFunc()
	yellow        = color.New(color.FgHiYellow).SprintFunc()
	red           = color.New(color.FgHiRed).SprintFunc()
)

// Cyan returns a cyan-colored string.
func Cyan(s string) string { return cyan(s) }

// Green returns a green-colored string.
func Green(s string) string { return green(s) }

// Yellow returns a yellow-colored string.
func Yellow(s string) string { return yellow(s) }

// Red returns a red-colored string.
func Red(s string) string { return red(s) }

// CompletionColor returns the percentage colored by how much of the sprint was done.
func CompletionColor(pct int) string {
	s := fmt.Sprintf("%d%%", pct)
	switch {
	case pct >= 80:
		return green(s)
	case pct >= 50:
		return yellow(s)
	default:
		return red(s)
	}
}

// BugsColor returns the bug count colored; more than two bugs is a warning sign.
func BugsColor(n int) string {
	s := fmt.Sprintf("%d", n)
	switch {
	case n == 0:
		return green(s)
	case n <= 2:
		return cyan(s)
	case n <= 5:
		return yellow(s)
	default:
		return red(s)
	}
}

// SatisfactionColor returns the emoji and label of s, colored by level.
func SatisfactionColor(s models.Satisfaction) string {
	text := strings.TrimSpace(s.Emoji() + " " + s.Label())
	switch {
	case !s.Valid():
		return text
	case s >= models.SatisfactionSatisfied:
		return green(text)
	case s == models.SatisfactionNeutral:
		return yellow(text)
	default:
		return red(text)
	}
}

func (u *UI) Info(format string, a ...any) {
	fmt.Fprintf(u.Out, "%s %s\n", infoPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Success(format string, a ...any) {
	fmt.Fprintf(u.Out, "%s %s\n", successPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Warning(format string, a ...any) {
	fmt.Fprintf(u.ErrOut, "%s %s\n", warningPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Error(format string, a ...any) {
	fmt.Fprintf(u.ErrOut, "%s %s\n", errorPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) VerboseLog(format string, a ...any) {
	if u.Verbose {
		fmt.Fprintf(u.Out, "%s %s\n", verbosePrefix, fmt.Sprintf(format, a...))
	}
}

func (u *UI) DryRunMsg(format string, a ...any) {
	if u.DryRun {
		u.Warning("[DRY-RUN] "+format, a...)
	}
}

// Table creates a new tablewriter configured with consistent styling.
func (u *UI) Table(headers []string) *tablewriter.Table {
	table := tablewriter.NewTable(u.Out,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines:      tw.LinesNone,
				Separators: tw.SeparatorsNone,
			},
		}),
		tablewriter.WithPadding(tw.Padding{Left: "", Right: "  "}),
	)
	table.Header(headers)
	return table
}

// Reviews renders the admin table, newest first, followed by the total.
func (u *UI) Reviews(reviews []*models.Review) error {
	if len(reviews) == 0 {
		u.Info("No hay reportes todavía")
		return nil
	}

	table := u.Table([]string{"Fecha", "Email", "Mes", "Sprint %", "Bugs", "Satisfacción", "Comentarios"})
	for i := len(reviews) - 1; i >= 0; i-- {
		r := reviews[i]
		comments := "-"
		if r.HasComments() {
			comments = truncate(strings.ReplaceAll(r.Comments, "\n", " "), 60)
		}
		if err := table.Append([]string{
			r.CreatedAt,
			r.Identity,
			r.PeriodLabel,
			CompletionColor(r.CompletionPercent),
			BugsColor(r.BugCount),
			SatisfactionColor(r.Satisfaction),
			comments,
		}); err != nil {
			return fmt.Errorf("append row: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	fmt.Fprintf(u.Out, "\nTotal: %d reportes\n", len(reviews))
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "\u2026"
}
