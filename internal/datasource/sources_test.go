package datasource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/seenimoa/ratiolens/internal/config"
	"github.com/seenimoa/ratiolens/internal/standardize"
	"github.com/seenimoa/ratiolens/pkg/models"
)

const timeseriesJSON = `{"timeseries":{"result":[
 {"meta":{"symbol":["AAPL"],"type":["annualTotalRevenue"]},
  "timestamp":[1664496000,1695945600],
  "annualTotalRevenue":[
   {"asOfDate":"2022-09-30","periodType":"12M","reportedValue":{"raw":394328000000}},
   {"asOfDate":"2023-09-30","periodType":"12M","reportedValue":{"raw":383285000000}}]},
 {"meta":{"symbol":["AAPL"],"type":["annualNetIncomeCommonStockholders"]},
  "timestamp":[1664496000,1695945600],
  "annualNetIncomeCommonStockholders":[
   null,
   {"asOfDate":"2023-09-30","periodType":"12M","reportedValue":{"raw":96995000000}}]},
 {"meta":{"symbol":["AAPL"],"type":["annualEBITDA"]}}
],"error":null}}`

func testOptions(url string) Options {
	return Options{BaseURL: url, RequestsPerSec: 1000, Logger: zerolog.Nop()}
}

func TestYFinanceFetchStatement(t *testing.T) {
	var hits atomic.Int32
	var gotPath, gotTypes string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		gotPath, gotTypes = r.URL.Path, r.URL.Query().Get("type")
		w.Write([]byte(timeseriesJSON))
	}))
	defer srv.Close()

	y := NewYFinance(testOptions(srv.URL), "")
	raw, err := y.FetchStatement(context.Background(), "aapl", models.FamilyIncome, models.Annual)
	if err != nil {
		t.Fatal(err)
	}

	if gotPath != "/ws/fundamentals-timeseries/v1/finance/timeseries/AAPL" {
		t.Errorf("path = %s", gotPath)
	}
	if !strings.HasPrefix(gotTypes, "annualTotalRevenue,") {
		t.Errorf("type = %s", gotTypes)
	}
	if raw.Ticker != "AAPL" || raw.Family != models.FamilyIncome || raw.Order != models.OldestFirst {
		t.Errorf("header = %+v", raw)
	}
	if len(raw.Periods) != 2 || raw.Periods[0].Period != "2022-09-30" {
		t.Fatalf("periods = %+v", raw.Periods)
	}

	old := raw.Periods[0].Rows
	if len(old) != 2 || old[0].Label != "NetIncomeCommonStockholders" || old[1].Label != "TotalRevenue" {
		t.Fatalf("2022 rows = %+v", old)
	}
	if !old[0].Value.IsAbsent() {
		t.Error("null data point should be absent")
	}
	if v, _ := raw.Periods[1].Rows[0].Value.Get(); v != 96995000000 {
		t.Errorf("net income = %v", v)
	}

	// Second call is served from cache.
	if _, err := y.FetchStatement(context.Background(), "AAPL", models.FamilyIncome, models.Annual); err != nil {
		t.Fatal(err)
	}
	if hits.Load() != 1 {
		t.Errorf("server hit %d times, want 1", hits.Load())
	}
}

// Two series map to revenue and two to total equity. The preferred series
// must win whatever order Yahoo returns them in.
func TestYFinancePreferredSeriesWins(t *testing.T) {
	series := []string{
		`{"meta":{"type":["annualTotalRevenue"]},"annualTotalRevenue":[{"asOfDate":"2023-12-31","reportedValue":{"raw":1000}}]}`,
		`{"meta":{"type":["annualOperatingRevenue"]},"annualOperatingRevenue":[{"asOfDate":"2023-12-31","reportedValue":{"raw":900}}]}`,
		`{"meta":{"type":["annualStockholdersEquity"]},"annualStockholdersEquity":[{"asOfDate":"2023-12-31","reportedValue":{"raw":500}}]}`,
		`{"meta":{"type":["annualTotalEquityGrossMinorityInterest"]},"annualTotalEquityGrossMinorityInterest":[{"asOfDate":"2023-12-31","reportedValue":{"raw":650}}]}`,
	}
	reversed := make([]string, len(series))
	for i, s := range series {
		reversed[len(series)-1-i] = s
	}

	for name, order := range map[string][]string{"request order": series, "reversed": reversed} {
		body := `{"timeseries":{"result":[` + strings.Join(order, ",") + `],"error":null}}`
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(body))
		}))

		y := NewYFinance(testOptions(srv.URL), "")
		var raws []models.RawStatement
		for _, f := range []models.Family{models.FamilyIncome, models.FamilyBalance} {
			raw, err := y.FetchStatement(context.Background(), "ACME", f, models.Annual)
			if err != nil {
				t.Fatalf("%s: %v", name, err)
			}
			raws = append(raws, raw)
		}
		srv.Close()

		stmt := standardize.NormalizeAll(raws, standardize.DefaultTable()).Statement
		if v, _ := stmt.Get(models.Revenue, "2023-12-31").Get(); v != 1000 {
			t.Errorf("%s: revenue = %v, want 1000 (TotalRevenue)", name, v)
		}
		if v, _ := stmt.Get(models.TotalEquity, "2023-12-31").Get(); v != 500 {
			t.Errorf("%s: total equity = %v, want 500 (StockholdersEquity)", name, v)
		}
	}
}

func TestYFinanceEmptyAndMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "NOPE") {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"timeseries":{"result":[],"error":null}}`))
	}))
	defer srv.Close()

	y := NewYFinance(testOptions(srv.URL), "")
	if _, err := y.FetchStatement(context.Background(), "EMPTY", models.FamilyBalance, models.Annual); !errors.Is(err, ErrNoData) {
		t.Errorf("err = %v, want ErrNoData", err)
	}
	if _, err := y.FetchStatement(context.Background(), "NOPE", models.FamilyBalance, models.Annual); !errors.Is(err, ErrTickerNotFound) {
		t.Errorf("err = %v, want ErrTickerNotFound", err)
	}
}

func TestYFinanceCompanyInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v10/finance/quoteSummary/RELIANCE.NS" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"quoteSummary":{"result":[{
			"assetProfile":{"sector":"Energy","industry":"Oil & Gas Refining & Marketing"},
			"price":{"shortName":"RELIANCE IND"}}],"error":null}}`))
	}))
	defer srv.Close()

	y := NewYFinance(testOptions(srv.URL), ".NS")
	info, err := y.FetchCompanyInfo(context.Background(), "reliance")
	if err != nil {
		t.Fatal(err)
	}
	if info.Ticker != "RELIANCE" || info.Name != "RELIANCE IND" || info.Sector != "Energy" {
		t.Errorf("info = %+v", info)
	}
}

const screenerHTML = `<html><body>
<h1>Acme Industries Ltd</h1>
<section id="profit-loss"><table>
<thead><tr><th></th><th>Mar 2022</th><th>Mar 2023</th><th>TTM</th></tr></thead>
<tbody>
<tr><td class="text">Sales&nbsp;<button>+</button></td><td>1,000</td><td>1,200</td><td>1,300</td></tr>
<tr><td class="text">Net Profit&nbsp;+</td><td>100</td><td></td><td>130</td></tr>
</tbody></table></section>
<section id="balance-sheet"><table>
<thead><tr><th></th><th>Mar 2023</th></tr></thead>
<tbody>
<tr><td>Total Liabilities</td><td>5,000</td></tr>
<tr><td>Total Assets</td><td>5,000</td></tr>
</tbody></table></section>
<section id="peers"><p class="sub">
<a href="/market/IN07/">Energy</a> <a href="/market/IN07/IN0701/">Refineries</a></p></section>
</body></html>`

func TestScreenerFetchStatement(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/company/ACME/consolidated/" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Cookie") != "sessionid=abc" {
			t.Errorf("cookie = %q", r.Header.Get("Cookie"))
		}
		w.Write([]byte(screenerHTML))
	}))
	defer srv.Close()

	s := NewScreener(testOptions(srv.URL), "abc")
	raw, err := s.FetchStatement(context.Background(), "acme.ns", models.FamilyIncome, models.Annual)
	if err != nil {
		t.Fatal(err)
	}
	if raw.Ticker != "ACME" || len(raw.Periods) != 2 {
		t.Fatalf("raw = %+v", raw)
	}
	if raw.Periods[0].Period != "2022-03-31" || raw.Periods[1].Period != "2023-03-31" {
		t.Errorf("periods = %s, %s", raw.Periods[0].Period, raw.Periods[1].Period)
	}
	rows := raw.Periods[1].Rows
	if rows[0].Label != "Sales" || rows[1].Label != "Net Profit" {
		t.Errorf("labels = %q, %q", rows[0].Label, rows[1].Label)
	}
	if v, _ := rows[0].Value.Get(); v != 1200*1e7 {
		t.Errorf("sales = %v, want 1200 crore in rupees", v)
	}
	if !rows[1].Value.IsAbsent() {
		t.Error("blank cell should be absent")
	}

	bs, err := s.FetchStatement(context.Background(), "ACME", models.FamilyBalance, models.Annual)
	if err != nil {
		t.Fatal(err)
	}
	if got := bs.Periods[0].Rows[0].Label; got != "Total Liabilities And Stockholders Equity" {
		t.Errorf("liabilities row label = %q", got)
	}

	info, err := s.FetchCompanyInfo(context.Background(), "ACME")
	if err != nil {
		t.Fatal(err)
	}
	if info.Name != "Acme Industries Ltd" || info.Sector != "Energy" || info.Industry != "Refineries" {
		t.Errorf("info = %+v", info)
	}

	// consolidated 404 + standalone page, fetched once for every call above.
	if hits.Load() != 2 {
		t.Errorf("server hit %d times, want 2", hits.Load())
	}

	if _, err := s.FetchStatement(context.Background(), "ACME", models.FamilyBalance, models.Quarterly); !errors.Is(err, ErrNotSupported) {
		t.Errorf("quarterly balance sheet err = %v, want ErrNotSupported", err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDirSource(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "ACME", "income_annual.csv"),
		"label,2023-12-31,2022-12-31\nTotal Revenue,\"1,000\",800\nNet Income,(50),\n")
	writeFile(t, filepath.Join(root, "ACME", "info.csv"),
		"name,sector,industry\nAcme Corp,Technology,Software\n")

	d := NewDir(root, zerolog.Nop())
	ctx := context.Background()

	raw, err := d.FetchStatement(ctx, "acme", models.FamilyIncome, models.Annual)
	if err != nil {
		t.Fatal(err)
	}
	if raw.Order != models.MostRecentFirst || len(raw.Periods) != 2 {
		t.Fatalf("raw = %+v", raw)
	}
	if v, _ := raw.Periods[0].Rows[1].Value.Get(); v != -50 {
		t.Errorf("net income = %v, want -50", v)
	}
	if !raw.Periods[1].Rows[1].Value.IsAbsent() {
		t.Error("blank cell should be absent")
	}

	if _, err := d.FetchStatement(ctx, "ACME", models.FamilyBalance, models.Annual); !errors.Is(err, ErrNoData) {
		t.Errorf("missing family err = %v, want ErrNoData", err)
	}
	if _, err := d.FetchStatement(ctx, "NOPE", models.FamilyIncome, models.Annual); !errors.Is(err, ErrTickerNotFound) {
		t.Errorf("missing ticker err = %v, want ErrTickerNotFound", err)
	}

	info, err := d.FetchCompanyInfo(ctx, "ACME")
	if err != nil {
		t.Fatal(err)
	}
	if info.Name != "Acme Corp" || info.Sector != "Technology" || info.Industry != "Software" {
		t.Errorf("info = %+v", info)
	}
}

func TestReadStatementCSVBadHeader(t *testing.T) {
	if _, err := ReadStatementCSV(strings.NewReader("label,not a date\nRevenue,1\n")); err == nil {
		t.Error("expected error for unparseable period heading")
	}
}

// stubSource serves canned results.
type stubSource struct {
	name  string
	raw   map[models.Family]models.RawStatement
	info  models.CompanyInfo
	err   error
	calls atomic.Int32
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) FetchStatement(_ context.Context, ticker string, family models.Family, freq models.Frequency) (models.RawStatement, error) {
	s.calls.Add(1)
	if s.err != nil {
		return models.RawStatement{}, s.err
	}
	raw, ok := s.raw[family]
	if !ok {
		return models.RawStatement{}, ErrNotSupported
	}
	return raw, nil
}

func (s *stubSource) FetchCompanyInfo(context.Context, string) (models.CompanyInfo, error) {
	if s.err != nil {
		return models.CompanyInfo{}, s.err
	}
	return s.info, nil
}

func incomeOnly(ticker string) map[models.Family]models.RawStatement {
	return map[models.Family]models.RawStatement{
		models.FamilyIncome: {
			Ticker: ticker, Family: models.FamilyIncome, Frequency: models.Annual,
			Periods: []models.RawPeriod{{Period: "2023-12-31", Rows: []models.RawRow{{Label: "Revenue", Value: models.Num(1)}}}},
		},
	}
}

func TestFallback(t *testing.T) {
	bad := &stubSource{name: "bad", err: ErrRateLimited}
	good := &stubSource{name: "good", raw: incomeOnly("X"), info: models.CompanyInfo{Ticker: "X", Sector: "Energy"}}
	never := &stubSource{name: "never", raw: incomeOnly("Y")}

	f := NewFallback(zerolog.Nop(), bad, good, never)
	raw, err := f.FetchStatement(context.Background(), "X", models.FamilyIncome, models.Annual)
	if err != nil {
		t.Fatal(err)
	}
	if raw.Ticker != "X" || never.calls.Load() != 0 {
		t.Errorf("first success should win: ticker %s, later calls %d", raw.Ticker, never.calls.Load())
	}

	_, err = NewFallback(zerolog.Nop(), bad, &stubSource{name: "b2", err: ErrTickerNotFound}).
		FetchStatement(context.Background(), "X", models.FamilyIncome, models.Annual)
	if !errors.Is(err, ErrRateLimited) || !errors.Is(err, ErrTickerNotFound) {
		t.Errorf("joined err = %v", err)
	}

	info, err := f.FetchCompanyInfo(context.Background(), "X")
	if err != nil || info.Sector != "Energy" {
		t.Errorf("info = %+v, err = %v", info, err)
	}
	if f.Name() != "bad → good → never" {
		t.Errorf("name = %q", f.Name())
	}
}

func TestFetchAll(t *testing.T) {
	src := &stubSource{name: "s", raw: incomeOnly("X")}
	raws, err := FetchAll(context.Background(), src, "X", models.Annual)
	if err != nil {
		t.Fatal(err)
	}
	if len(raws) != 1 || raws[0].Family != models.FamilyIncome {
		t.Errorf("raws = %+v", raws)
	}
	if src.calls.Load() != 3 {
		t.Errorf("calls = %d, want one per family", src.calls.Load())
	}

	if _, err := FetchAll(context.Background(), &stubSource{name: "e", err: ErrTickerNotFound}, "X", models.Annual); !errors.Is(err, ErrTickerNotFound) {
		t.Errorf("err = %v, want ErrTickerNotFound", err)
	}
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.DataConfig{Source: "dir", Fallback: []string{"yfinance", "dir"}, DataDir: t.TempDir()}
	src, err := New(cfg, time.Minute, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	chain := Chain(src)
	if _, ok := src.(*Fallback); !ok || len(chain) != 2 {
		t.Fatalf("source = %T, want fallback of 2", src)
	}
	if chain[0].Name() != "Local directory" || chain[1].Name() != "Yahoo Finance" {
		t.Errorf("chain = %s, %s", chain[0].Name(), chain[1].Name())
	}

	single, err := New(config.DataConfig{Source: "screener"}, 0, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if len(Chain(single)) != 1 {
		t.Errorf("chain of a single source = %d", len(Chain(single)))
	}
	if _, ok := single.(*Screener); !ok {
		t.Errorf("source = %T, want *Screener", single)
	}

	if _, err := New(config.DataConfig{Source: "bloomberg"}, 0, zerolog.Nop()); err == nil {
		t.Error("expected error for unknown source")
	}
}
