package export

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/seenimoa/ratiolens/internal/pipeline"
)

var (
	rule     = strings.Repeat("═", 72)
	thinRule = strings.Repeat("─", 72)
)

// WriteTable prints t as aligned columns. skipKeys drops leading key
// columns, e.g. the machine name when a label column follows.
func WriteTable(w io.Writer, t Table, skipKeys int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.Header[skipKeys:], "\t")+"\t")
	for ri, r := range t.Rows {
		cells := append([]string(nil), r.Keys[skipKeys:]...)
		for vi, v := range r.Values {
			cells = append(cells, t.Display(ri, vi, v))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t")+"\t")
	}
	return tw.Flush()
}

// WriteCompanyText prints a company report for the terminal.
func WriteCompanyText(w io.Writer, rep *pipeline.CompanyReport) error {
	fmt.Fprintf(w, "\n%s\n", rule)
	name := rep.Info.Name
	if name == "" {
		name = rep.Info.Ticker
	}
	fmt.Fprintf(w, "  %s (%s)\n", name, rep.Info.Ticker)
	if rep.Info.Sector != "" || rep.Info.Industry != "" {
		fmt.Fprintf(w, "  Sector: %s | Industry: %s\n", orNA(rep.Info.Sector), orNA(rep.Info.Industry))
	}
	fmt.Fprintf(w, "  Source: %s | Fetched: %s\n", rep.Source, rep.FetchedAt.UTC().Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(w, "%s\n", rule)

	if rep.Statement.Empty() {
		fmt.Fprintln(w, "\n  No recognized line items.")
	} else {
		fmt.Fprintln(w, "\n  ■ RATIOS")
		if err := WriteTable(w, RatioTable(rep.Ratios), 1); err != nil {
			return err
		}
		if g := rep.Growth; g.From != "" {
			fmt.Fprintf(w, "\n  ■ GROWTH %s → %s (%.1f years)\n", g.From, g.To, g.Years)
			fmt.Fprintf(w, "    Revenue     change %s  CAGR %s\n", pct(g.RevenueChange), pct(g.RevenueCAGR))
			fmt.Fprintf(w, "    Net income  change %s  CAGR %s\n", pct(g.NetIncChange), pct(g.NetIncCAGR))
		}
	}

	s := rep.Summary
	fmt.Fprintf(w, "\n  ■ VERIFICATION  %d passed, %d failed, %d skipped\n", s.Passed, s.Failed, s.Skipped)
	for _, r := range rep.Verification {
		if r.Failed() {
			fmt.Fprintf(w, "    [FAIL] %s %s: %s\n", r.Period, r.Check, r.Detail)
		}
	}

	if len(rep.Unmapped) > 0 {
		fmt.Fprintf(w, "\n  ■ UNMAPPED LABELS (%d)\n", len(rep.Unmapped))
		for _, l := range rep.Unmapped {
			fmt.Fprintf(w, "    %s\n", l)
		}
	}
	_, err := fmt.Fprintf(w, "%s\n", thinRule)
	return err
}

// WriteSectorText prints a sector report for the terminal.
func WriteSectorText(w io.Writer, rep *pipeline.SectorReport) error {
	fmt.Fprintf(w, "\n%s\n", rule)
	fmt.Fprintf(w, "  Sector: %s\n", rep.Sector)
	fmt.Fprintf(w, "  Members: %d | Included: %d | Skipped: %d\n", len(rep.Members), len(rep.Ratios), len(rep.Skipped))
	fmt.Fprintf(w, "%s\n", rule)

	fmt.Fprintln(w, "\n  ■ AGGREGATE")
	if err := WriteTable(w, AggregateTable(rep.Aggregate), 1); err != nil {
		return err
	}

	if len(rep.Skipped) > 0 {
		fmt.Fprintln(w, "\n  ■ SKIPPED")
		for _, s := range rep.Skipped {
			if s.Detail != "" {
				fmt.Fprintf(w, "    %-12s %s (%s)\n", s.Ticker, s.Reason, s.Detail)
			} else {
				fmt.Fprintf(w, "    %-12s %s\n", s.Ticker, s.Reason)
			}
		}
	}
	_, err := fmt.Fprintf(w, "%s\n", thinRule)
	return err
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
