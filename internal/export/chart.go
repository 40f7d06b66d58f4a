package export

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/seenimoa/ratiolens/pkg/models"
	"github.com/seenimoa/ratiolens/pkg/utils"
)

// ════════════════════════════════════════════════════════════════════
// SVG Charts
// ════════════════════════════════════════════════════════════════════

// ChartConfig holds rendering parameters for SVG charts.
type ChartConfig struct {
	Width        int
	Height       int
	MarginTop    int
	MarginRight  int
	MarginBottom int
	MarginLeft   int
	BgColor      string
	GridColor    string
	TextColor    string
	FontSize     int
	Title        string
}

// DefaultChartConfig returns the defaults used by the CLI.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:        800,
		Height:       400,
		MarginTop:    40,
		MarginRight:  60,
		MarginBottom: 50,
		MarginLeft:   70,
		BgColor:      "#ffffff",
		GridColor:    "#e8e8e8",
		TextColor:    "#333333",
		FontSize:     11,
	}
}

func (c ChartConfig) plotArea() (x, y, w, h int) {
	return c.MarginLeft, c.MarginTop,
		c.Width - c.MarginLeft - c.MarginRight,
		c.Height - c.MarginTop - c.MarginBottom
}

var seriesColors = []string{"#2196f3", "#ff9800", "#4caf50", "#e91e63", "#9c27b0", "#00bcd4"}

// TrendSeries is one named line of a trend chart. NaN marks a gap.
type TrendSeries struct {
	Name   string
	Values []float64
	Color  string
}

// RatioTrendChart plots the named ratios across a ratio series, oldest period
// on the left. Undefined ratios leave gaps in their line.
func RatioTrendChart(results []models.RatioResult, names []models.RatioName, cfg ChartConfig) string {
	if len(names) == 0 {
		names = models.RatiosIn(models.GroupProfitability)
	}
	ordered := make([]models.RatioResult, len(results))
	copy(ordered, results)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Period < ordered[j].Period })

	labels := make([]string, len(ordered))
	for i, r := range ordered {
		labels[i] = string(r.Period)
	}
	series := make([]TrendSeries, 0, len(names))
	for _, n := range names {
		vals := make([]float64, len(ordered))
		for i, r := range ordered {
			vals[i] = math.NaN()
			if v, ok := r.Get(n).Get(); ok {
				vals[i] = v
			}
		}
		series = append(series, TrendSeries{Name: n.Label(), Values: vals})
	}
	if cfg.Title == "" {
		cfg.Title = "Ratio Trend"
	}
	return LineChart(series, labels, cfg)
}

// LineChart renders one or more series against shared X labels.
func LineChart(series []TrendSeries, labels []string, cfg ChartConfig) string {
	if cfg.Width == 0 {
		title := cfg.Title
		cfg = DefaultChartConfig()
		cfg.Title = title
	}
	if len(series) == 0 {
		return emptySVG(cfg, "No data")
	}

	px, py, pw, ph := cfg.plotArea()

	minVal, maxVal := math.MaxFloat64, -math.MaxFloat64
	maxLen, points := 0, 0
	for _, s := range series {
		maxLen = max(maxLen, len(s.Values))
		for _, v := range s.Values {
			if math.IsNaN(v) {
				continue
			}
			points++
			minVal = math.Min(minVal, v)
			maxVal = math.Max(maxVal, v)
		}
	}
	if points == 0 {
		return emptySVG(cfg, "No data points")
	}

	vRange := maxVal - minVal
	if vRange < 0.001 {
		vRange = 1
	}
	minVal -= vRange * 0.05
	maxVal += vRange * 0.05
	vRange = maxVal - minVal

	xAt := func(i int) float64 {
		if maxLen == 1 {
			return float64(px) + float64(pw)/2
		}
		return float64(px) + float64(i)*float64(pw)/float64(maxLen-1)
	}
	yAt := func(v float64) float64 {
		return float64(py+ph) - (v-minVal)/vRange*float64(ph)
	}

	var sb strings.Builder
	sb.WriteString(svgHeader(cfg))
	fmt.Fprintf(&sb, `<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`, cfg.Width, cfg.Height, cfg.BgColor)
	fmt.Fprintf(&sb, `<text x="%d" y="20" font-size="14" font-weight="bold" fill="%s" text-anchor="middle">%s</text>`,
		cfg.Width/2, cfg.TextColor, escapeXML(cfg.Title))

	gridLines := 5
	for i := 0; i <= gridLines; i++ {
		val := minVal + vRange*float64(i)/float64(gridLines)
		y := py + ph - int(float64(ph)*float64(i)/float64(gridLines))
		fmt.Fprintf(&sb, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-dasharray="3,3"/>`,
			px, y, px+pw, y, cfg.GridColor)
		fmt.Fprintf(&sb, `<text x="%d" y="%d" font-size="%d" fill="%s" text-anchor="end">%.2f</text>`,
			px-5, y+4, cfg.FontSize, cfg.TextColor, val)
	}

	for si, s := range series {
		color := s.Color
		if color == "" {
			color = seriesColors[si%len(seriesColors)]
		}

		// A gap starts a new subpath.
		var path []string
		cmd, joined := "M", false
		for i, v := range s.Values {
			if math.IsNaN(v) {
				cmd = "M"
				continue
			}
			path = append(path, fmt.Sprintf("%s%.1f,%.1f", cmd, xAt(i), yAt(v)))
			fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="3" fill="%s"/>`, xAt(i), yAt(v), color)
			joined = joined || cmd == "L"
			cmd = "L"
		}
		if joined {
			fmt.Fprintf(&sb, `<path d="%s" fill="none" stroke="%s" stroke-width="2"/>`, strings.Join(path, " "), color)
		}

		ly := py + 10 + si*16
		fmt.Fprintf(&sb, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="2"/>`,
			px+10, ly, px+30, ly, color)
		fmt.Fprintf(&sb, `<text x="%d" y="%d" font-size="10" fill="%s">%s</text>`,
			px+35, ly+4, cfg.TextColor, escapeXML(s.Name))
	}

	interval := max(maxLen/6, 1)
	for i := 0; i < len(labels) && i < maxLen; i += interval {
		fmt.Fprintf(&sb, `<text x="%.1f" y="%d" font-size="%d" fill="%s" text-anchor="middle">%s</text>`,
			xAt(i), py+ph+18, cfg.FontSize-1, cfg.TextColor, escapeXML(labels[i]))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// BarItem is one bar of a horizontal bar chart.
type BarItem struct {
	Label string
	Value float64
	Color string
}

// SectorBarChart compares one ratio across the included members of a sector,
// best first. Members without a value are left out.
func SectorBarChart(ratios map[string]models.RatioResult, name models.RatioName, ranked []string, cfg ChartConfig) string {
	var items []BarItem
	for _, t := range ranked {
		if v, ok := ratios[t].Get(name).Get(); ok {
			items = append(items, BarItem{Label: t, Value: v})
		}
	}
	if cfg.Title == "" {
		cfg.Title = name.Label()
	}
	return HorizontalBarChart(items, cfg)
}

// HorizontalBarChart renders labelled bars around a zero line.
func HorizontalBarChart(items []BarItem, cfg ChartConfig) string {
	if cfg.Width == 0 {
		title := cfg.Title
		cfg = DefaultChartConfig()
		cfg.Title = title
	}
	if len(items) == 0 {
		return emptySVG(cfg, "No data")
	}
	cfg.MarginLeft = 120

	px, py, pw, ph := cfg.plotArea()

	minVal, maxVal := 0.0, 0.0
	for _, item := range items {
		minVal = math.Min(minVal, item.Value)
		maxVal = math.Max(maxVal, item.Value)
	}
	valRange := maxVal - minVal
	if valRange < 0.001 {
		valRange = 1
	}

	barH := math.Min(float64(ph)/float64(len(items))*0.7, 30)
	gap := (float64(ph) - barH*float64(len(items))) / float64(len(items)+1)
	zeroX := float64(px) + (-minVal/valRange)*float64(pw)

	var sb strings.Builder
	sb.WriteString(svgHeader(cfg))
	fmt.Fprintf(&sb, `<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`, cfg.Width, cfg.Height, cfg.BgColor)
	fmt.Fprintf(&sb, `<text x="%d" y="20" font-size="14" font-weight="bold" fill="%s" text-anchor="middle">%s</text>`,
		cfg.Width/2, cfg.TextColor, escapeXML(cfg.Title))
	if minVal < 0 {
		fmt.Fprintf(&sb, `<line x1="%.1f" y1="%d" x2="%.1f" y2="%d" stroke="#999" stroke-width="1"/>`,
			zeroX, py, zeroX, py+ph)
	}

	for i, item := range items {
		by := float64(py) + gap + float64(i)*(barH+gap)
		color := item.Color
		if color == "" {
			color = "#4caf50"
			if item.Value < 0 {
				color = "#ef5350"
			}
		}
		bw := math.Abs(item.Value) / valRange * float64(pw)
		bx := zeroX
		if item.Value < 0 {
			bx = zeroX - bw
		}
		fmt.Fprintf(&sb, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s" rx="2"/>`,
			bx, by, bw, barH, color)
		fmt.Fprintf(&sb, `<text x="%d" y="%.1f" font-size="%d" fill="%s" text-anchor="end">%s</text>`,
			px-5, by+barH/2+4, cfg.FontSize, cfg.TextColor, escapeXML(item.Label))
		fmt.Fprintf(&sb, `<text x="%.1f" y="%.1f" font-size="%d" fill="%s">%s</text>`,
			bx+bw+5, by+barH/2+4, cfg.FontSize, cfg.TextColor, utils.FormatRatio(item.Value))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func svgHeader(cfg ChartConfig) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif">`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height)
}

func emptySVG(cfg ChartConfig, msg string) string {
	if cfg.Width == 0 {
		cfg.Width = 400
	}
	if cfg.Height == 0 {
		cfg.Height = 200
	}
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><rect width="%d" height="%d" fill="#f5f5f5"/><text x="%d" y="%d" text-anchor="middle" fill="#999" font-size="14">%s</text></svg>`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height, cfg.Width/2, cfg.Height/2, escapeXML(msg))
}

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escapeXML(s string) string { return xmlEscaper.Replace(s) }
