package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/seenimoa/ratiolens/internal/pipeline"
	"github.com/seenimoa/ratiolens/pkg/models"
	"github.com/seenimoa/ratiolens/pkg/utils"
)

// pdfDoc wraps gofpdf with the layout shared by company and sector reports.
type pdfDoc struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func newPDFDoc(title string, landscape bool) *pdfDoc {
	orientation := "P"
	if landscape {
		orientation = "L"
	}
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()
	d := &pdfDoc{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 8, d.tr(title))
	pdf.Ln(9)
	pdf.SetFont("Arial", "", 9)
	pdf.Cell(0, 5, "Generated: "+time.Now().UTC().Format(time.RFC3339))
	pdf.Ln(7)
	return d
}

func (d *pdfDoc) line(format string, args ...any) {
	d.pdf.SetFont("Arial", "", 10)
	d.pdf.Cell(0, 6, d.tr(fmt.Sprintf(format, args...)))
	d.pdf.Ln(5)
}

func (d *pdfDoc) heading(s string) {
	d.pdf.Ln(4)
	d.pdf.SetFont("Arial", "B", 11)
	d.pdf.Cell(0, 7, d.tr(s))
	d.pdf.Ln(8)
}

// table draws t with equal-width columns across the printable width, except
// the first which gets a larger share for labels.
func (d *pdfDoc) table(t Table, skipKeys int) {
	pageW, _ := d.pdf.GetPageSize()
	left, _, right, _ := d.pdf.GetMargins()
	width := pageW - left - right

	header := t.Header[skipKeys:]
	if len(header) == 0 {
		return
	}
	first := width * 0.3
	if len(header) == 1 {
		first = width
	}
	rest := 0.0
	if len(header) > 1 {
		rest = (width - first) / float64(len(header)-1)
	}
	colW := func(i int) float64 {
		if i == 0 {
			return first
		}
		return rest
	}

	fontSize := 9.0
	if len(header) > 8 {
		fontSize = 7
	}
	d.pdf.SetFont("Arial", "B", fontSize)
	for i, h := range header {
		d.pdf.CellFormat(colW(i), 6, d.tr(h), "1", 0, "C", false, 0, "")
	}
	d.pdf.Ln(-1)

	d.pdf.SetFont("Arial", "", fontSize)
	for ri, r := range t.Rows {
		col := 0
		for _, k := range r.Keys[skipKeys:] {
			d.pdf.CellFormat(colW(col), 5, d.tr(k), "1", 0, "L", false, 0, "")
			col++
		}
		for vi, v := range r.Values {
			d.pdf.CellFormat(colW(col), 5, t.Display(ri, vi, v), "1", 0, "R", false, 0, "")
			col++
		}
		d.pdf.Ln(-1)
	}
}

func (d *pdfDoc) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CompanyPDF renders a company summary: latest ratios, verification results
// and the canonical statement.
func CompanyPDF(rep *pipeline.CompanyReport) ([]byte, error) {
	title := rep.Info.Ticker
	if rep.Info.Name != "" {
		title = fmt.Sprintf("%s (%s)", rep.Info.Name, rep.Info.Ticker)
	}
	d := newPDFDoc(title, false)
	if rep.Info.Sector != "" {
		d.line("Sector: %s   Industry: %s", rep.Info.Sector, rep.Info.Industry)
	}
	d.line("Source: %s", rep.Source)
	d.line("Checks: %d passed, %d failed, %d skipped", rep.Summary.Passed, rep.Summary.Failed, rep.Summary.Skipped)
	if len(rep.Unmapped) > 0 {
		d.line("Unmapped labels: %d", len(rep.Unmapped))
	}

	ratios := rep.Ratios
	if len(ratios) > 4 {
		ratios = ratios[:4]
	}
	d.heading("Ratios")
	d.table(RatioTable(ratios), 1)

	if g := rep.Growth; g.From != "" {
		d.heading(fmt.Sprintf("Growth %s to %s", g.From, g.To))
		d.line("Revenue change: %s   CAGR: %s", pct(g.RevenueChange), pct(g.RevenueCAGR))
		d.line("Net income change: %s   CAGR: %s", pct(g.NetIncChange), pct(g.NetIncCAGR))
	}

	var failed []models.VerificationResult
	for _, r := range rep.Verification {
		if r.Failed() {
			failed = append(failed, r)
		}
	}
	if len(failed) > 0 {
		d.heading("Failed checks")
		for _, r := range failed {
			d.line("%s %s: %s", r.Period, r.Check, r.Detail)
		}
	}

	d.pdf.AddPage()
	d.heading("Statement")
	st := StatementTable(rep.Statement.Head(4))
	d.table(st, 1)
	return d.bytes()
}

// SectorPDF renders a sector summary: the aggregate and the members skipped.
func SectorPDF(rep *pipeline.SectorReport) ([]byte, error) {
	d := newPDFDoc("Sector: "+rep.Sector, true)
	d.line("Members: %d   Included: %d   Skipped: %d", len(rep.Members), len(rep.Ratios), len(rep.Skipped))
	if len(rep.Aggregate.Periods) > 0 {
		d.line("Periods: %v", rep.Aggregate.Periods)
	}

	d.heading("Aggregate")
	d.table(AggregateTable(rep.Aggregate), 1)

	if len(rep.Skipped) > 0 {
		d.heading("Skipped members")
		d.table(SkippedTable(rep.Skipped), 0)
	}
	return d.bytes()
}

func pct(v models.Value) string {
	n, ok := v.Get()
	if !ok {
		return "N/A"
	}
	return utils.FormatPct(n)
}
