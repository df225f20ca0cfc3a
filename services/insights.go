package services

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"vehicle-dashboard/models"
)

// ReportPrinter writes a Dashboard as a terminal report.
type ReportPrinter struct {
	out io.Writer
}

// NewReportPrinter creates a printer writing to out.
func NewReportPrinter(out io.Writer) *ReportPrinter {
	return &ReportPrinter{out: out}
}

func (p *ReportPrinter) Print(d *models.Dashboard) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(p.out, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(p.out, "\033[1;35m  🚗 USED VEHICLE LISTINGS\033[0m\n")
	fmt.Fprintf(p.out, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(p.out, "\033[1;33m  Dataset\033[0m\n")
	fmt.Fprintf(p.out, "  %s\n", thin)
	for _, s := range d.Overview {
		fmt.Fprintf(p.out, "  %-22s : \033[1m%s\033[0m\n", s.Label, FormatStat(s))
	}
	fmt.Fprintln(p.out)

	for _, b := range d.Branches {
		fmt.Fprintf(p.out, "\033[1;33m  %s\033[0m\n", b.Label)
		fmt.Fprintf(p.out, "  %s\n", thin)

		if b.Histogram != nil {
			p.printHistogram(b.Histogram)
		}
		for _, s := range b.Stats {
			fmt.Fprintf(p.out, "  %-22s : \033[1;32m%s\033[0m\n", s.Label, FormatStat(s))
		}
		for _, c := range b.Categories {
			fmt.Fprintf(p.out, "  %-22s   %d\n", truncate(c.Name, 22), c.Count)
		}
		if b.Preview != nil {
			p.printPreview(b.Preview)
		}
		if b.Notice != "" {
			fmt.Fprintf(p.out, "  \033[36m%s\033[0m\n", b.Notice)
		}
		fmt.Fprintln(p.out)
	}

	fmt.Fprintf(p.out, "\033[1;35m%s\033[0m\n\n", sep)
}

// printHistogram draws the non-empty bins as horizontal bars scaled to
// the tallest bin.
func (p *ReportPrinter) printHistogram(h *models.Histogram) {
	peak := 0
	for _, b := range h.Bins {
		if b.Count > peak {
			peak = b.Count
		}
	}
	if peak == 0 {
		fmt.Fprintf(p.out, "  No %s data\n", h.Column)
		return
	}
	for _, b := range h.Bins {
		if b.Count == 0 {
			continue
		}
		bar := strings.Repeat("█", int(math.Ceil(float64(b.Count)*30/float64(peak))))
		fmt.Fprintf(p.out, "  %12s %s (%d)\n", formatNumber(b.Lower), bar, b.Count)
	}
}

func (p *ReportPrinter) printPreview(pv *models.Preview) {
	const shown = 5
	fmt.Fprintf(p.out, "  %s\n", truncate(strings.Join(pv.Columns, " | "), 70))
	for i, row := range pv.Rows {
		if i == shown {
			fmt.Fprintf(p.out, "  ... %d more preview rows\n", len(pv.Rows)-shown)
			break
		}
		fmt.Fprintf(p.out, "  %s\n", truncate(strings.Join(row, " | "), 70))
	}
	fmt.Fprintf(p.out, "  Showing the first %d rows of %d total records\n", len(pv.Rows), pv.Total)
}

// FormatStat renders a stat for display; undefined values read "n/a".
func FormatStat(s models.Stat) string {
	if !s.Defined || math.IsNaN(s.Value) {
		return "n/a"
	}
	switch s.Unit {
	case models.UnitUSD:
		return "$" + formatNumber(s.Value)
	case models.UnitCoefficient:
		return strconv.FormatFloat(s.Value, 'f', 3, 64)
	case "":
		if s.Value != math.Trunc(s.Value) {
			return strconv.FormatFloat(s.Value, 'f', 3, 64)
		}
		return formatNumber(s.Value)
	default:
		return formatNumber(s.Value) + " " + s.Unit
	}
}

// formatNumber rounds to an integer and adds thousands separators.
func formatNumber(f float64) string {
	n := int64(math.Round(f))
	neg := n < 0
	if neg {
		n = -n
	}
	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// truncate shortens s to at most max runes.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
