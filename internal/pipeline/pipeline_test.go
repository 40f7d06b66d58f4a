package pipeline

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/seenimoa/ratiolens/internal/analysis/sector"
	"github.com/seenimoa/ratiolens/internal/analysis/verify"
	"github.com/seenimoa/ratiolens/internal/datasource"
	"github.com/seenimoa/ratiolens/pkg/models"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// fixture lays out a data directory with three technology companies:
// AAA and BBB are complete, JUNK has only unknown labels; MISSING has no
// files at all.
func fixture(t *testing.T) string {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "AAA", "income_annual.csv"), `label,2022-12-31,2023-12-31
Total Revenue,800,1000
Total Rev,,1000
Net Income,80,100
`)
	writeFile(t, filepath.Join(root, "AAA", "balance_annual.csv"), `label,2023-12-31
Total Assets,2000
Total Liabilities,1200
Total Stockholder Equity,800
`)
	writeFile(t, filepath.Join(root, "AAA", "info.csv"), "name,sector,industry\nAAA Corp,Tech,Software\n")
	writeFile(t, filepath.Join(root, "BBB", "income_annual.csv"), `label,2023-12-31
Revenue,500
Net Income,25
`)
	writeFile(t, filepath.Join(root, "BBB", "balance_annual.csv"), `label,2023-12-31
Total Assets,1000
Total Liabilities,600
Total Stockholder Equity,300
`)
	writeFile(t, filepath.Join(root, "JUNK", "income_annual.csv"), "label,2023-12-31\nMystery Line,42\n")
	return root
}

func techMembership() *sector.Membership {
	return sector.NewMembership(
		sector.Member{Ticker: "AAA", Sector: "Technology"},
		sector.Member{Ticker: "BBB", Sector: "Technology"},
		sector.Member{Ticker: "JUNK", Sector: "technology"},
		sector.Member{Ticker: "MISSING", Sector: "Technology"},
		sector.Member{Ticker: "XOM", Sector: "Energy"},
	)
}

func newRunner(t *testing.T) *Runner {
	return New(Config{
		Source:      datasource.NewDir(fixture(t), zerolog.Nop()),
		Membership:  techMembership(),
		Verify:      verify.DefaultOptions(),
		Concurrency: 2,
		Logger:      zerolog.Nop(),
	})
}

func TestAnalyzeCompany(t *testing.T) {
	rep, err := newRunner(t).AnalyzeCompany(context.Background(), "aaa", models.Annual)
	if err != nil {
		t.Fatal(err)
	}

	if rep.Info.Name != "AAA Corp" || rep.Info.Sector != "Technology" {
		t.Errorf("info = %+v", rep.Info)
	}
	if len(rep.Unmapped) != 1 || rep.Unmapped[0] != "Total Rev" {
		t.Errorf("unmapped = %v, want [Total Rev]", rep.Unmapped)
	}
	if got := rep.Statement.Get(models.Revenue, "2023-12-31"); got != models.Num(1000) {
		t.Errorf("revenue = %v", got)
	}

	latest, ok := rep.Latest()
	if !ok || latest.Period != "2023-12-31" {
		t.Fatalf("latest = %+v", latest)
	}
	if v, _ := latest.Get(models.NetMargin).Get(); math.Abs(v-0.10) > 1e-12 {
		t.Errorf("net margin = %v, want 0.10", v)
	}
	if len(rep.Ratios) != 2 {
		t.Errorf("ratio series length = %d, want 2", len(rep.Ratios))
	}

	if rep.Summary.Failed != 0 || rep.Summary.Passed == 0 {
		t.Errorf("summary = %+v, want the balance sheet to tie and nothing to fail", rep.Summary)
	}
}

func TestAnalyzeCompanyYears(t *testing.T) {
	r := newRunner(t)
	r.cfg.Years = 1
	rep, err := r.AnalyzeCompany(context.Background(), "AAA", models.Annual)
	if err != nil {
		t.Fatal(err)
	}
	if n := len(rep.Statement.Periods()); n != 1 {
		t.Errorf("periods = %d, want 1", n)
	}
}

func TestAnalyzeCompanyFetchError(t *testing.T) {
	_, err := newRunner(t).AnalyzeCompany(context.Background(), "MISSING", models.Annual)
	if !errors.Is(err, datasource.ErrTickerNotFound) {
		t.Errorf("err = %v, want ErrTickerNotFound", err)
	}
}

func TestAnalyzeSector(t *testing.T) {
	rep, err := newRunner(t).AnalyzeSector(context.Background(), "TECHNOLOGY", models.Annual)
	if err != nil {
		t.Fatal(err)
	}

	if len(rep.Members) != 4 {
		t.Errorf("members = %d, want 4", len(rep.Members))
	}
	if got := rep.Included(); len(got) != 2 || got[0] != "AAA" || got[1] != "BBB" {
		t.Errorf("included = %v", got)
	}

	reasons := make(map[string]string)
	for _, s := range rep.Skipped {
		reasons[s.Ticker] = s.Reason
	}
	if reasons["JUNK"] != SkipNormalizeEmpty || reasons["MISSING"] != SkipNoData {
		t.Errorf("skipped = %+v", rep.Skipped)
	}

	// Net margins 0.10 and 0.05.
	st := rep.Aggregate.Stat(models.NetMargin)
	if !st.Defined || st.Count != 2 || math.Abs(st.Median-0.075) > 1e-12 {
		t.Errorf("net margin stat = %+v", st)
	}
	if rep.Aggregate.Companies != 2 {
		t.Errorf("aggregate companies = %d", rep.Aggregate.Companies)
	}

	cmp := rep.Comparisons["AAA"]
	for _, m := range cmp {
		if m.Ratio == models.NetMargin {
			if p, _ := m.Percentile.Get(); p != 100 {
				t.Errorf("AAA net margin percentile = %v, want 100", p)
			}
		}
	}
}

func TestAnalyzeSectorEmpty(t *testing.T) {
	rep, err := newRunner(t).AnalyzeSector(context.Background(), "Utilities", models.Annual)
	if err != nil {
		t.Fatal(err)
	}
	for name, st := range rep.Aggregate.Stats {
		if st.Defined {
			t.Errorf("%s defined in empty sector", name)
		}
	}
}

func TestAnalyzeSectorNeedsMembership(t *testing.T) {
	r := New(Config{Source: datasource.NewDir(t.TempDir(), zerolog.Nop()), Logger: zerolog.Nop()})
	if _, err := r.AnalyzeSector(context.Background(), "Tech", models.Annual); !errors.Is(err, ErrNoMembership) {
		t.Errorf("err = %v, want ErrNoMembership", err)
	}
}

func TestAnalyzeSectorCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newRunner(t).AnalyzeSector(ctx, "Technology", models.Annual); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
