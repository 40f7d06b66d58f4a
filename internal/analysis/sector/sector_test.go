package sector

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/seenimoa/ratiolens/internal/standardize"
	"github.com/seenimoa/ratiolens/pkg/models"
)

func result(period models.Period, vals map[models.RatioName]float64) models.RatioResult {
	r := models.NewRatioResult(period)
	for name, v := range vals {
		r.Values[name] = models.Num(v)
	}
	return r
}

func techMembership() *Membership {
	return NewMembership(
		Member{Ticker: "AAA", Sector: "Technology"},
		Member{Ticker: "BBB", Sector: " technology "},
		Member{Ticker: "CCC", Sector: "TECHNOLOGY"},
		Member{Ticker: "DDD", Sector: "Technology"},
		Member{Ticker: "EEE", Sector: "Energy"},
	)
}

func TestAggregateMedianEvenCount(t *testing.T) {
	ratios := map[string]models.RatioResult{
		"AAA": result("2023-12-31", map[models.RatioName]float64{models.NetMargin: 10}),
		"BBB": result("2023-12-31", map[models.RatioName]float64{models.NetMargin: 40}),
		"CCC": result("2023-12-31", map[models.RatioName]float64{models.NetMargin: 20}),
		"DDD": result("2023-12-31", map[models.RatioName]float64{models.NetMargin: 30}),
		"EEE": result("2023-12-31", map[models.RatioName]float64{models.NetMargin: 99}),
	}
	agg := Aggregate(ratios, techMembership(), "Technology")

	if agg.Companies != 4 {
		t.Errorf("companies = %d, want 4", agg.Companies)
	}
	st := agg.Stat(models.NetMargin)
	if !st.Defined || st.Median != 25 || st.Average != 25 || st.Min != 10 || st.Max != 40 || st.Count != 4 {
		t.Errorf("net margin stat = %+v", st)
	}
	if len(agg.Periods) != 1 || agg.Periods[0] != "2023-12-31" {
		t.Errorf("periods = %v", agg.Periods)
	}
	if agg.Stat(models.ROE).Defined {
		t.Error("ratio without values should be undefined")
	}
}

func TestAggregateSkipsUndefinedValues(t *testing.T) {
	ratios := map[string]models.RatioResult{
		"AAA": result("2023-12-31", map[models.RatioName]float64{models.ROE: 0.1}),
		"BBB": result("2022-12-31", map[models.RatioName]float64{models.ROE: 0.3}),
		"CCC": models.NewRatioResult("2023-12-31"),
	}
	agg := Aggregate(ratios, techMembership(), "technology")

	st := agg.Stat(models.ROE)
	if st.Count != 2 || math.Abs(st.Average-0.2) > 1e-12 {
		t.Errorf("roe stat = %+v", st)
	}
	if agg.Companies != 3 {
		t.Errorf("companies = %d, want 3", agg.Companies)
	}
	if len(agg.Periods) != 2 || agg.Periods[0] != "2023-12-31" {
		t.Errorf("periods = %v, want most recent first", agg.Periods)
	}
}

func TestAggregateEmptySector(t *testing.T) {
	ratios := map[string]models.RatioResult{
		"AAA": result("2023-12-31", map[models.RatioName]float64{models.NetMargin: 10}),
	}
	agg := Aggregate(ratios, techMembership(), "Utilities")

	if agg.Companies != 0 {
		t.Errorf("companies = %d", agg.Companies)
	}
	if len(agg.Stats) != len(models.RatioNames()) {
		t.Fatalf("stats cover %d ratios, want full catalog", len(agg.Stats))
	}
	for name, st := range agg.Stats {
		if st.Defined {
			t.Errorf("%s defined in empty sector", name)
		}
	}
}

func TestAggregateLeavesInputsUntouched(t *testing.T) {
	r := result("2023-12-31", map[models.RatioName]float64{models.NetMargin: 10})
	ratios := map[string]models.RatioResult{"AAA": r}
	Aggregate(ratios, techMembership(), "Technology")
	if len(ratios) != 1 || ratios["AAA"].Get(models.NetMargin) != models.Num(10) {
		t.Error("aggregate modified its input")
	}
}

func TestSummarizeOdd(t *testing.T) {
	vals := []float64{3, 1, 2}
	st := Summarize(vals)
	if st.Median != 2 || st.Min != 1 || st.Max != 3 {
		t.Errorf("stat = %+v", st)
	}
	if vals[0] != 3 {
		t.Error("Summarize sorted its input")
	}
}

func TestCompare(t *testing.T) {
	target := result("2023-12-31", map[models.RatioName]float64{
		models.ROE:          0.20,
		models.DebtToEquity: 0.5,
	})
	peers := []models.RatioResult{
		result("2023-12-31", map[models.RatioName]float64{models.ROE: 0.10, models.DebtToEquity: 1.0}),
		result("2023-12-31", map[models.RatioName]float64{models.ROE: 0.30, models.DebtToEquity: 0.2}),
		result("2023-12-31", map[models.RatioName]float64{models.ROE: 0.15}),
		models.NewRatioResult("2023-12-31"),
	}
	metrics := Compare(target, peers)
	if len(metrics) != len(models.RatioNames()) {
		t.Fatalf("got %d metrics", len(metrics))
	}
	byName := make(map[models.RatioName]models.PeerMetric)
	for _, m := range metrics {
		byName[m.Ratio] = m
	}

	roe := byName[models.ROE]
	if p, _ := roe.Percentile.Get(); math.Abs(p-200.0/3) > 1e-9 {
		t.Errorf("roe percentile = %v, want 66.67", roe.Percentile)
	}
	if med, _ := roe.SectorMed.Get(); med != 0.15 {
		t.Errorf("roe median = %v", roe.SectorMed)
	}

	de := byName[models.DebtToEquity]
	if !de.LowerBetter {
		t.Error("debt to equity should rank lower-is-better")
	}
	if p, _ := de.Percentile.Get(); p != 50 {
		t.Errorf("d/e percentile = %v, want 50", de.Percentile)
	}

	nm := byName[models.NetMargin]
	if !nm.Percentile.IsAbsent() || !nm.SectorAvg.IsAbsent() {
		t.Error("ratio with no values should have no comparison")
	}
}

func TestRank(t *testing.T) {
	results := map[string]models.RatioResult{
		"AAA": result("", map[models.RatioName]float64{models.DebtToEquity: 2}),
		"BBB": result("", map[models.RatioName]float64{models.DebtToEquity: 0.5}),
		"CCC": models.NewRatioResult(""),
	}
	got := strings.Join(Rank(results, models.DebtToEquity), ",")
	if got != "BBB,AAA,CCC" {
		t.Errorf("rank = %s", got)
	}
}

func TestReadMembership(t *testing.T) {
	in := `Ticker,Sector,NAICS_Code,CompanyName
AAPL,Technology,334111,Apple Inc.
MSFT,Technology,511210,Microsoft
,Energy,,
aapl,Energy,,Duplicate
XOM,Energy,211120,Exxon Mobil
`
	m, diags, err := ReadMembership(strings.NewReader(in), ',')
	if err != nil {
		t.Fatal(err)
	}
	if m.Len() != 3 {
		t.Errorf("len = %d, want 3", m.Len())
	}
	if len(diags) != 2 || diags[0].Line != 4 || diags[1].Line != 5 {
		t.Errorf("diagnostics = %v", diags)
	}
	if got, _ := m.Member("aapl"); got.Sector != "Technology" {
		t.Errorf("first row should win, sector = %q", got.Sector)
	}
	mem, _ := m.Member("XOM")
	if mem.Industry != "211120" || mem.DisplayName != "Exxon Mobil" {
		t.Errorf("member = %+v", mem)
	}
	if got := len(m.InSector("TECHNOLOGY")); got != 2 {
		t.Errorf("technology members = %d", got)
	}
	if got := strings.Join(m.Sectors(), ","); got != "Energy,Technology" {
		t.Errorf("sectors = %s", got)
	}
}

func TestLoadMembershipErrors(t *testing.T) {
	dir := t.TempDir()
	noSector := filepath.Join(dir, "bad.csv")
	if err := os.WriteFile(noSector, []byte("ticker,industry\nA,B\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	tsv := filepath.Join(dir, "ok.tsv")
	if err := os.WriteFile(tsv, []byte("sector\tticker\nEnergy\tXOM\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"missing file", filepath.Join(dir, "nope.csv"), true},
		{"missing sector column", noSector, true},
		{"tab separated", tsv, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m, _, err := LoadMembership(tc.path)
			if tc.wantErr {
				if !errors.Is(err, standardize.ErrConfiguration) {
					t.Errorf("err = %v, want configuration error", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if mem, _ := m.Member("XOM"); mem.Sector != "Energy" {
				t.Errorf("sector = %q", mem.Sector)
			}
		})
	}
}

func TestNilMembership(t *testing.T) {
	var m *Membership
	if _, ok := m.Member("X"); ok || m.Len() != 0 || m.InSector("a") != nil {
		t.Error("nil membership should behave as empty")
	}
	agg := Aggregate(map[string]models.RatioResult{"X": models.NewRatioResult("")}, nil, "a")
	if agg.Companies != 0 {
		t.Error("nil membership matched a company")
	}
}
