package export

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/seenimoa/ratiolens/internal/analysis/sector"
	"github.com/seenimoa/ratiolens/internal/pipeline"
	"github.com/seenimoa/ratiolens/pkg/models"
)

// htmlTable is a Table with every cell already rendered for display.
type htmlTable struct {
	Title  string
	Header []string
	Rows   [][]string
	Status []string // optional row class
}

func toHTMLTable(title string, t Table, skipKeys int) htmlTable {
	out := htmlTable{Title: title, Header: t.Header[skipKeys:]}
	for ri, r := range t.Rows {
		cells := append([]string(nil), r.Keys[skipKeys:]...)
		for vi, v := range r.Values {
			cells = append(cells, t.Display(ri, vi, v))
		}
		out.Rows = append(out.Rows, cells)
	}
	return out
}

type htmlPage struct {
	Title       string
	Subtitle    string
	GeneratedAt string
	Facts       []htmlFact
	Chart       template.HTML
	Tables      []htmlTable
	Notes       []string
}

type htmlFact struct {
	Label string
	Value string
}

// CompanyHTML renders a self-contained HTML report with the ratio trend
// chart inline.
func CompanyHTML(rep *pipeline.CompanyReport, chartRatios []models.RatioName) ([]byte, error) {
	name := rep.Info.Name
	if name == "" {
		name = rep.Info.Ticker
	}
	page := htmlPage{
		Title:       fmt.Sprintf("%s (%s)", name, rep.Info.Ticker),
		Subtitle:    fmt.Sprintf("%s · %s · %s", orNA(rep.Info.Sector), orNA(rep.Info.Industry), rep.Source),
		GeneratedAt: time.Now().UTC().Format("02 Jan 2006, 15:04 MST"),
		Facts: []htmlFact{
			{"Periods", fmt.Sprint(len(rep.Statement.Periods()))},
			{"Checks passed", fmt.Sprint(rep.Summary.Passed)},
			{"Checks failed", fmt.Sprint(rep.Summary.Failed)},
			{"Unmapped labels", fmt.Sprint(len(rep.Unmapped))},
			{"Revenue CAGR", pct(rep.Growth.RevenueCAGR)},
			{"Net income CAGR", pct(rep.Growth.NetIncCAGR)},
		},
		Chart: template.HTML(RatioTrendChart(rep.Ratios, chartRatios, ChartConfig{})),
		Tables: []htmlTable{
			toHTMLTable("Ratios", RatioTable(rep.Ratios), 1),
			toHTMLTable("Statement", StatementTable(rep.Statement), 1),
			verificationHTML(rep.Verification),
		},
		Notes: rep.Unmapped,
	}
	return renderHTML(page)
}

// SectorHTML renders a sector report with a bar chart of one ratio.
func SectorHTML(rep *pipeline.SectorReport, chartRatios []models.RatioName) ([]byte, error) {
	name := chartRatio(chartRatios)
	page := htmlPage{
		Title:       "Sector: " + rep.Sector,
		Subtitle:    fmt.Sprintf("%d members, %d included", len(rep.Members), len(rep.Ratios)),
		GeneratedAt: time.Now().UTC().Format("02 Jan 2006, 15:04 MST"),
		Facts: []htmlFact{
			{"Members", fmt.Sprint(len(rep.Members))},
			{"Included", fmt.Sprint(len(rep.Ratios))},
			{"Skipped", fmt.Sprint(len(rep.Skipped))},
		},
		Chart: template.HTML(SectorBarChart(rep.Ratios, name, sector.Rank(rep.Ratios, name), ChartConfig{})),
		Tables: []htmlTable{
			toHTMLTable("Aggregate", AggregateTable(rep.Aggregate), 1),
			toHTMLTable("Members", SectorRatioTable(rep), 0),
			toHTMLTable("Skipped", SkippedTable(rep.Skipped), 0),
		},
	}
	return renderHTML(page)
}

func verificationHTML(results []models.VerificationResult) htmlTable {
	t := toHTMLTable("Verification", VerificationTable(results), 0)
	for _, r := range results {
		t.Status = append(t.Status, string(r.Status))
	}
	return t
}

var pageTemplate = template.Must(template.New("report").Parse(reportTemplate))

func renderHTML(page htmlPage) ([]byte, error) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, page); err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}
	return buf.Bytes(), nil
}

const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
  :root { --text: #1a1a2e; --muted: #6b7280; --border: #e5e7eb; --accent: #2563eb; --red: #dc2626; --section-bg: #f8fafc; }
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; color: var(--text);
         line-height: 1.6; max-width: 1000px; margin: 0 auto; padding: 20px; }
  h1 { font-size: 1.5rem; color: var(--accent); }
  h2 { font-size: 1.2rem; margin: 24px 0 12px; padding-bottom: 6px; border-bottom: 2px solid var(--accent); }
  .muted { color: var(--muted); font-size: 0.85rem; }
  .header { border-bottom: 3px solid var(--accent); padding-bottom: 12px; margin-bottom: 16px; }
  .facts { display: grid; grid-template-columns: repeat(auto-fill, minmax(160px, 1fr)); gap: 8px; }
  .fact { background: var(--section-bg); padding: 8px 12px; border-radius: 6px; }
  .fact .label { font-size: 0.75rem; color: var(--muted); text-transform: uppercase; }
  .fact .value { font-weight: 600; }
  table { width: 100%; border-collapse: collapse; margin: 8px 0 16px; font-size: 0.85rem; }
  th { background: var(--section-bg); text-align: left; padding: 6px; }
  td { padding: 6px; border-bottom: 1px solid var(--border); }
  tr.failed td { color: var(--red); }
  tr.skipped td { color: var(--muted); }
  .chart-container svg { max-width: 100%; height: auto; }
  @media print { .section { page-break-inside: avoid; } }
</style>
</head>
<body>
<div class="header">
  <h1>{{.Title}}</h1>
  <p class="muted">{{.Subtitle}}</p>
  <p class="muted">{{.GeneratedAt}}</p>
</div>

<div class="facts">
{{range .Facts}}  <div class="fact"><div class="label">{{.Label}}</div><div class="value">{{.Value}}</div></div>
{{end}}</div>

<div class="chart-container">{{.Chart}}</div>

{{range .Tables}}{{if .Rows}}
<div class="section">
<h2>{{.Title}}</h2>
<table>
<tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr>
{{$status := .Status}}{{range $i, $row := .Rows}}<tr{{if $status}} class="{{index $status $i}}"{{end}}>{{range $row}}<td>{{.}}</td>{{end}}</tr>
{{end}}</table>
</div>
{{end}}{{end}}
{{if .Notes}}
<div class="section">
<h2>Unmapped labels</h2>
<ul>{{range .Notes}}<li>{{.}}</li>{{end}}</ul>
</div>
{{end}}
</body>
</html>
`
