// Package export renders company and sector reports as CSV, XLSX, PDF, JSON,
// HTML and terminal tables, and draws SVG ratio charts. Undefined values are
// written as empty cells in data formats and as "N/A" in display formats.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/seenimoa/ratiolens/internal/analysis/sector"
	"github.com/seenimoa/ratiolens/internal/pipeline"
	"github.com/seenimoa/ratiolens/pkg/models"
	"github.com/seenimoa/ratiolens/pkg/utils"
)

// Format is an output format.
type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatXLSX  Format = "xlsx"
	FormatPDF   Format = "pdf"
	FormatJSON  Format = "json"
	FormatHTML  Format = "html"
)

// Formats returns every supported format.
func Formats() []Format {
	return []Format{FormatTable, FormatCSV, FormatXLSX, FormatPDF, FormatJSON, FormatHTML}
}

// ParseFormat resolves a format name (case-insensitive).
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (want one of table, csv, xlsx, pdf, json, html)", s)
}

// Row is one table row: leading text cells followed by numeric cells.
type Row struct {
	Keys   []string
	Values []models.Value
}

// Table is the shared shape of every tabular export.
type Table struct {
	Name   string
	Header []string
	Rows   []Row

	// display renders a defined numeric cell for people; nil uses
	// FormatCompact.
	display func(row, col int, v float64) string
}

// Display renders a numeric cell for a report, "N/A" when undefined.
func (t Table) Display(row, col int, v models.Value) string {
	n, ok := v.Get()
	if !ok {
		return "N/A"
	}
	if t.display == nil {
		return utils.FormatCompact(n)
	}
	return t.display(row, col, n)
}

// Records flattens the table for data formats: header first, undefined
// values as empty strings.
func (t Table) Records() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, t.Header)
	for _, r := range t.Rows {
		rec := make([]string, 0, len(r.Keys)+len(r.Values))
		rec = append(rec, r.Keys...)
		for _, v := range r.Values {
			rec = append(rec, rawCell(v))
		}
		out = append(out, rec)
	}
	return out
}

func rawCell(v models.Value) string {
	n, ok := v.Get()
	if !ok {
		return ""
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// percentRatio reports whether a ratio reads best as a percentage.
func percentRatio(name models.RatioName) bool {
	for _, d := range models.RatioCatalog() {
		if d.Name != name {
			continue
		}
		for _, g := range d.Groups {
			if g == models.GroupProfitability || g == models.GroupReturn {
				return true
			}
		}
	}
	return false
}

func formatRatio(name models.RatioName, v float64) string {
	if percentRatio(name) {
		return utils.FormatPct(v)
	}
	return utils.FormatRatio(v)
}

// ════════════════════════════════════════════════════════════════════
// Table builders
// ════════════════════════════════════════════════════════════════════

// StatementTable lays out a canonical statement with one column per period,
// most recent first, and one row per line item in display order.
func StatementTable(stmt models.CanonicalStatement) Table {
	periods := stmt.Periods()
	t := Table{Name: "statement", Header: []string{"item", "label"}}
	for _, p := range periods {
		t.Header = append(t.Header, string(p))
	}
	for _, item := range stmt.Items() {
		r := Row{Keys: []string{string(item), item.Label()}}
		for _, p := range periods {
			r.Values = append(r.Values, stmt.Get(item, p))
		}
		t.Rows = append(t.Rows, r)
	}
	t.display = func(_, _ int, v float64) string { return utils.FormatGrouped(v) }
	return t
}

// RatioTable lays out a ratio series with one row per catalog ratio and one
// column per period, in the order given.
func RatioTable(results []models.RatioResult) Table {
	t := Table{Name: "ratios", Header: []string{"ratio", "label"}}
	for _, r := range results {
		t.Header = append(t.Header, string(r.Period))
	}
	names := models.RatioNames()
	for _, n := range names {
		row := Row{Keys: []string{string(n), n.Label()}}
		for _, r := range results {
			row.Values = append(row.Values, r.Get(n))
		}
		t.Rows = append(t.Rows, row)
	}
	t.display = func(row, _ int, v float64) string { return formatRatio(names[row], v) }
	return t
}

// VerificationTable lists check outcomes.
func VerificationTable(results []models.VerificationResult) Table {
	t := Table{
		Name: "verification",
		Header: []string{"check", "period", "status", "missing", "detail",
			"expected", "actual", "discrepancy", "tolerance"},
	}
	for _, r := range results {
		missing := make([]string, len(r.Missing))
		for i, m := range r.Missing {
			missing[i] = string(m)
		}
		t.Rows = append(t.Rows, Row{
			Keys:   []string{r.Check, string(r.Period), string(r.Status), strings.Join(missing, " "), r.Detail},
			Values: []models.Value{r.Expected, r.Actual, r.Discrepancy, models.Num(r.Tolerance)},
		})
	}
	t.display = func(_, col int, v float64) string {
		if col >= 2 {
			return utils.FormatPct(v)
		}
		return utils.FormatGrouped(v)
	}
	return t
}

// SectorRatioTable lists the latest ratios of each included member, one row
// per ticker.
func SectorRatioTable(rep *pipeline.SectorReport) Table {
	names := models.RatioNames()
	t := Table{Name: "sector_ratios", Header: []string{"ticker", "period"}}
	for _, n := range names {
		t.Header = append(t.Header, string(n))
	}
	for _, tk := range rep.Included() {
		res := rep.Ratios[tk]
		row := Row{Keys: []string{tk, string(res.Period)}}
		for _, n := range names {
			row.Values = append(row.Values, res.Get(n))
		}
		t.Rows = append(t.Rows, row)
	}
	t.display = func(_, col int, v float64) string { return formatRatio(names[col], v) }
	return t
}

// AggregateTable lists the sector statistics, one row per ratio. Undefined
// statistics are empty.
func AggregateTable(agg models.SectorAggregate) Table {
	names := models.RatioNames()
	t := Table{
		Name:   "sector_aggregate",
		Header: []string{"ratio", "label", "count", "average", "median", "min", "max"},
	}
	for _, n := range names {
		st := agg.Stat(n)
		row := Row{Keys: []string{string(n), n.Label()}}
		if st.Defined {
			row.Values = []models.Value{models.Num(float64(st.Count)),
				models.Num(st.Average), models.Num(st.Median), models.Num(st.Min), models.Num(st.Max)}
		} else {
			row.Values = []models.Value{models.Num(0), models.Undefined(), models.Undefined(), models.Undefined(), models.Undefined()}
		}
		t.Rows = append(t.Rows, row)
	}
	t.display = func(row, col int, v float64) string {
		if col == 0 {
			return strconv.Itoa(int(v))
		}
		return formatRatio(names[row], v)
	}
	return t
}

// ComparisonTable lists one member against its sector peers.
func ComparisonTable(metrics []models.PeerMetric) Table {
	t := Table{
		Name:   "comparison",
		Header: []string{"ratio", "label", "direction", "value", "sector_avg", "sector_median", "percentile"},
	}
	for _, m := range metrics {
		dir := "higher is better"
		if m.LowerBetter {
			dir = "lower is better"
		}
		t.Rows = append(t.Rows, Row{
			Keys:   []string{string(m.Ratio), m.Ratio.Label(), dir},
			Values: []models.Value{m.Value, m.SectorAvg, m.SectorMed, m.Percentile},
		})
	}
	t.display = func(row, col int, v float64) string {
		if col == 3 {
			return strconv.FormatFloat(v, 'f', 0, 64)
		}
		return formatRatio(metrics[row].Ratio, v)
	}
	return t
}

// SkippedTable lists sector members left out of the aggregate.
func SkippedTable(skipped []pipeline.Skipped) Table {
	t := Table{Name: "skipped", Header: []string{"ticker", "reason", "detail"}}
	for _, s := range skipped {
		t.Rows = append(t.Rows, Row{Keys: []string{s.Ticker, s.Reason, s.Detail}})
	}
	return t
}

// UnmappedTable lists vendor labels the mapping table did not recognize.
func UnmappedTable(labels []string) Table {
	t := Table{Name: "unmapped", Header: []string{"label"}}
	for _, l := range labels {
		t.Rows = append(t.Rows, Row{Keys: []string{l}})
	}
	return t
}

// CompanyTables returns every table of a company report.
func CompanyTables(rep *pipeline.CompanyReport) []Table {
	return []Table{
		StatementTable(rep.Statement),
		RatioTable(rep.Ratios),
		VerificationTable(rep.Verification),
		UnmappedTable(rep.Unmapped),
	}
}

// SectorTables returns every table of a sector report.
func SectorTables(rep *pipeline.SectorReport) []Table {
	return []Table{
		SectorRatioTable(rep),
		AggregateTable(rep.Aggregate),
		SkippedTable(rep.Skipped),
	}
}

// ════════════════════════════════════════════════════════════════════
// Writing to a directory
// ════════════════════════════════════════════════════════════════════

// Options controls file output.
type Options struct {
	Dir   string // created if missing
	Chart bool   // also write an SVG chart
	// ChartRatios picks the ratios charted; empty charts the profitability
	// group.
	ChartRatios []models.RatioName
}

// WriteCompany writes a company report in format f under opts.Dir and
// returns the paths written. FormatTable has no file form.
func WriteCompany(rep *pipeline.CompanyReport, f Format, opts Options) ([]string, error) {
	base := fileBase(rep.Info.Ticker)
	var files []string
	var err error
	switch f {
	case FormatCSV:
		files, err = writeCSVFiles(opts.Dir, base, CompanyTables(rep))
	case FormatXLSX:
		files, err = writeBytes(opts.Dir, base+".xlsx", func() ([]byte, error) { return CompanyWorkbook(rep) })
	case FormatPDF:
		files, err = writeBytes(opts.Dir, base+".pdf", func() ([]byte, error) { return CompanyPDF(rep) })
	case FormatJSON:
		files, err = writeBytes(opts.Dir, base+".json", func() ([]byte, error) { return MarshalJSON(rep) })
	case FormatHTML:
		files, err = writeBytes(opts.Dir, base+".html", func() ([]byte, error) { return CompanyHTML(rep, opts.ChartRatios) })
	default:
		return nil, fmt.Errorf("format %q cannot be written to a file", f)
	}
	if err != nil || !opts.Chart {
		return files, err
	}
	more, err := WriteCompanyChart(rep, opts)
	return append(files, more...), err
}

// WriteCompanyChart writes the ratio trend chart of a company as SVG.
func WriteCompanyChart(rep *pipeline.CompanyReport, opts Options) ([]string, error) {
	svg := RatioTrendChart(rep.Ratios, opts.ChartRatios, ChartConfig{Title: rep.Info.Ticker + " ratio trend"})
	return writeBytes(opts.Dir, fileBase(rep.Info.Ticker)+"_trend.svg", func() ([]byte, error) { return []byte(svg), nil })
}

// WriteSector writes a sector report in format f under opts.Dir.
func WriteSector(rep *pipeline.SectorReport, f Format, opts Options) ([]string, error) {
	base := fileBase("sector_" + rep.Sector)
	var files []string
	var err error
	switch f {
	case FormatCSV:
		files, err = writeCSVFiles(opts.Dir, base, SectorTables(rep))
	case FormatXLSX:
		files, err = writeBytes(opts.Dir, base+".xlsx", func() ([]byte, error) { return SectorWorkbook(rep) })
	case FormatPDF:
		files, err = writeBytes(opts.Dir, base+".pdf", func() ([]byte, error) { return SectorPDF(rep) })
	case FormatJSON:
		files, err = writeBytes(opts.Dir, base+".json", func() ([]byte, error) { return MarshalJSON(rep) })
	case FormatHTML:
		files, err = writeBytes(opts.Dir, base+".html", func() ([]byte, error) { return SectorHTML(rep, opts.ChartRatios) })
	default:
		return nil, fmt.Errorf("format %q cannot be written to a file", f)
	}
	if err != nil || !opts.Chart {
		return files, err
	}
	more, err := WriteSectorChart(rep, opts)
	return append(files, more...), err
}

// WriteSectorChart writes a bar chart of the first chart ratio (ROE by
// default) across the included members, best first.
func WriteSectorChart(rep *pipeline.SectorReport, opts Options) ([]string, error) {
	name := chartRatio(opts.ChartRatios)
	svg := SectorBarChart(rep.Ratios, name, sector.Rank(rep.Ratios, name), ChartConfig{})
	file := fileBase("sector_"+rep.Sector) + "_" + string(name) + ".svg"
	return writeBytes(opts.Dir, file, func() ([]byte, error) { return []byte(svg), nil })
}

func chartRatio(names []models.RatioName) models.RatioName {
	if len(names) > 0 {
		return names[0]
	}
	return models.ROE
}

func writeCSVFiles(dir, base string, tables []Table) ([]string, error) {
	var files []string
	for _, t := range tables {
		more, err := writeBytes(dir, base+"_"+t.Name+".csv", func() ([]byte, error) { return CSV(t) })
		files = append(files, more...)
		if err != nil {
			return files, err
		}
	}
	return files, nil
}

func writeBytes(dir, name string, render func() ([]byte, error)) ([]string, error) {
	data, err := render()
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	return []string{path}, nil
}

var fileNameCleaner = strings.NewReplacer("/", "_", "\\", "_", " ", "_", ":", "_", "&", "and")

func fileBase(s string) string {
	s = fileNameCleaner.Replace(strings.TrimSpace(s))
	if s == "" {
		return "report"
	}
	return strings.ToLower(s)
}
