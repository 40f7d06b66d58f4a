package standardize

import (
	"reflect"
	"testing"

	"github.com/seenimoa/ratiolens/pkg/models"
)

func row(label string, v float64) models.RawRow {
	return models.RawRow{Label: label, Value: models.Num(v)}
}

func absentRow(label string) models.RawRow {
	return models.RawRow{Label: label}
}

func incomeStatement(periods ...models.RawPeriod) models.RawStatement {
	return models.RawStatement{
		Ticker:    "TEST",
		Family:    models.FamilyIncome,
		Frequency: models.Annual,
		Order:     models.MostRecentFirst,
		Periods:   periods,
	}
}

func TestNormalizeEndToEndExample(t *testing.T) {
	raw := incomeStatement(models.RawPeriod{
		Period: "2023-12-31",
		Rows: []models.RawRow{
			row("Total Revenue", 1000),
			row("Total Rev", 1000),
			row("Net Income", 100),
		},
	})

	stmt, unmapped := Normalize(raw, DefaultTable())

	if got := stmt.Get(models.Revenue, "2023-12-31"); got != models.Num(1000) {
		t.Errorf("revenue = %v, want 1000", got)
	}
	if got := stmt.Get(models.NetIncome, "2023-12-31"); got != models.Num(100) {
		t.Errorf("net_income = %v, want 100", got)
	}
	if items := stmt.Items(); len(items) != 2 {
		t.Errorf("items = %v, want exactly revenue and net_income", items)
	}
	if !reflect.DeepEqual(unmapped, []string{"Total Rev"}) {
		t.Errorf("unmapped = %v, want [Total Rev]", unmapped)
	}
}

func TestNormalizeUnmappedNeverFabricatesKeys(t *testing.T) {
	raw := incomeStatement(models.RawPeriod{
		Period: "2023-12-31",
		Rows:   []models.RawRow{row("Widgets Shipped", 5), row("Revenue", 10)},
	})
	stmt, unmapped := Normalize(raw, DefaultTable())

	for _, li := range stmt.Items() {
		if li != models.Revenue {
			t.Errorf("unexpected canonical item %q", li)
		}
	}
	if len(unmapped) != 1 || unmapped[0] != "Widgets Shipped" {
		t.Errorf("unmapped = %v", unmapped)
	}
}

func TestNormalizeUnmappedDedupedInFirstSeenOrder(t *testing.T) {
	raw := incomeStatement(
		models.RawPeriod{Period: "2023-12-31", Rows: []models.RawRow{row("Zeta", 1), row("Alpha", 2)}},
		models.RawPeriod{Period: "2022-12-31", Rows: []models.RawRow{row("Alpha", 3), row("Beta", 4), row("Zeta", 5)}},
	)
	_, unmapped := Normalize(raw, DefaultTable())
	want := []string{"Zeta", "Alpha", "Beta"}
	if !reflect.DeepEqual(unmapped, want) {
		t.Errorf("unmapped = %v, want %v", unmapped, want)
	}
}

func TestNormalizeAbsentIsNotZero(t *testing.T) {
	raw := incomeStatement(models.RawPeriod{
		Period: "2023-12-31",
		Rows:   []models.RawRow{absentRow("Revenue"), row("Net Income", 0)},
	})
	stmt, _ := Normalize(raw, nil)

	rev := stmt.Get(models.Revenue, "2023-12-31")
	if !rev.IsAbsent() {
		t.Errorf("revenue = %v, want absent", rev)
	}
	if !stmt.Has(models.Revenue, "2023-12-31") {
		t.Error("an absent cell should still be recorded under its key")
	}
	ni := stmt.Get(models.NetIncome, "2023-12-31")
	if v, ok := ni.Get(); !ok || v != 0 {
		t.Errorf("net_income = %v, want present 0", ni)
	}
}

func TestNormalizeConflictLaterRowWins(t *testing.T) {
	raw := incomeStatement(
		models.RawPeriod{Period: "2023-12-31", Rows: []models.RawRow{row("Revenue", 900), row("Total Revenue", 1000)}},
		models.RawPeriod{Period: "2022-12-31", Rows: []models.RawRow{row("Revenue", 800), row("Total Revenue", 850)}},
	)
	r := NormalizeReport(raw, DefaultTable())

	if got := r.Statement.Get(models.Revenue, "2023-12-31"); got != models.Num(1000) {
		t.Errorf("2023 revenue = %v, want 1000", got)
	}
	if got := r.Statement.Get(models.Revenue, "2022-12-31"); got != models.Num(850) {
		t.Errorf("2022 revenue = %v, want 850", got)
	}
	if len(r.Conflicts) != 2 {
		t.Fatalf("conflicts = %d, want 2", len(r.Conflicts))
	}
	c := r.Conflicts[0]
	if c.KeptLabel != "Total Revenue" || c.DroppedLabel != "Revenue" || c.DroppedValue != models.Num(900) {
		t.Errorf("conflict = %+v", c)
	}
}

func TestNormalizeAbsentLaterRowKeepsValue(t *testing.T) {
	raw := incomeStatement(models.RawPeriod{
		Period: "2023-12-31",
		Rows:   []models.RawRow{row("Revenue", 900), absentRow("Total Revenue")},
	})
	r := NormalizeReport(raw, DefaultTable())

	if got := r.Statement.Get(models.Revenue, "2023-12-31"); got != models.Num(900) {
		t.Errorf("revenue = %v, want 900", got)
	}
	if len(r.Conflicts) != 1 || r.Conflicts[0].KeptLabel != "Revenue" {
		t.Errorf("conflicts = %+v", r.Conflicts)
	}
}

func TestNormalizeEqualDuplicateIsNotConflict(t *testing.T) {
	raw := incomeStatement(models.RawPeriod{
		Period: "2023-12-31",
		Rows: []models.RawRow{
			row("Revenue", 1000), row("Total Revenue", 1000),
			absentRow("Net Income"), absentRow("NetIncomeCommonStockholders"),
		},
	})
	r := NormalizeReport(raw, DefaultTable())

	if got := r.Statement.Get(models.Revenue, "2023-12-31"); got != models.Num(1000) {
		t.Errorf("revenue = %v, want 1000", got)
	}
	if len(r.Conflicts) != 0 {
		t.Errorf("conflicts = %+v, want none", r.Conflicts)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	raw := incomeStatement(
		models.RawPeriod{Period: "2022-12-31", Rows: []models.RawRow{row("Revenue", 800), row("Mystery", 1), row("Net Income", 80)}},
		models.RawPeriod{Period: "2023-12-31", Rows: []models.RawRow{row("Revenue", 900), row("Total Revenue", 1000), row("Other", 2)}},
	)
	s1, u1 := Normalize(raw, DefaultTable())
	s2, u2 := Normalize(raw, DefaultTable())

	if !s1.Equal(s2) {
		t.Error("normalizing the same input twice produced different statements")
	}
	if !reflect.DeepEqual(u1, u2) {
		t.Errorf("unmapped differs: %v vs %v", u1, u2)
	}
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	raw := incomeStatement(models.RawPeriod{Period: "2023-12-31", Rows: []models.RawRow{row("Revenue", 1), row("Revenue", 2)}})
	before := raw.Periods[0].Rows[0]
	Normalize(raw, DefaultTable())
	if raw.Periods[0].Rows[0] != before || len(raw.Periods[0].Rows) != 2 {
		t.Error("raw statement was modified")
	}
}

func TestNormalizePeriodsMostRecentFirst(t *testing.T) {
	raw := incomeStatement(
		models.RawPeriod{Period: "2021-12-31", Rows: []models.RawRow{row("Revenue", 1)}},
		models.RawPeriod{Period: "2023-12-31", Rows: []models.RawRow{row("Revenue", 3)}},
		models.RawPeriod{Period: "2022-12-31", Rows: []models.RawRow{row("Revenue", 2)}},
	)
	raw.Order = models.OldestFirst
	stmt, _ := Normalize(raw, DefaultTable())

	want := []models.Period{"2023-12-31", "2022-12-31", "2021-12-31"}
	if got := stmt.Periods(); !reflect.DeepEqual(got, want) {
		t.Errorf("periods = %v, want %v", got, want)
	}
}

func TestNormalizeFamilyMismatchIsUnmapped(t *testing.T) {
	raw := models.RawStatement{
		Ticker: "TEST", Family: models.FamilyCashFlow, Frequency: models.Annual,
		Periods: []models.RawPeriod{{Period: "2023-12-31", Rows: []models.RawRow{
			row("Net Income", 100),
			row("Operating Cash Flow", 150),
		}}},
	}
	stmt, unmapped := Normalize(raw, DefaultTable())
	if stmt.Has(models.NetIncome, "2023-12-31") {
		t.Error("income item recorded from a cash flow statement")
	}
	if got := stmt.Get(models.OperatingCashFlow, "2023-12-31"); got != models.Num(150) {
		t.Errorf("operating_cash_flow = %v", got)
	}
	if !reflect.DeepEqual(unmapped, []string{"Net Income"}) {
		t.Errorf("unmapped = %v", unmapped)
	}
}

func TestNormalizeAllMergesFamilies(t *testing.T) {
	income := incomeStatement(models.RawPeriod{Period: "2023-12-31", Rows: []models.RawRow{row("Total Revenue", 1000), row("Net Income", 100)}})
	balance := models.RawStatement{
		Ticker: "TEST", Family: models.FamilyBalance, Frequency: models.Annual,
		Periods: []models.RawPeriod{
			{Period: "2023-12-31", Rows: []models.RawRow{row("Total Assets", 5000), row("Goodwill", 10)}},
			{Period: "2022-12-31", Rows: []models.RawRow{row("Total Assets", 4000)}},
		},
	}

	r := NormalizeAll([]models.RawStatement{income, balance}, nil)

	if r.Statement.Ticker() != "TEST" {
		t.Errorf("ticker = %q", r.Statement.Ticker())
	}
	if got := len(r.Statement.Periods()); got != 2 {
		t.Errorf("periods = %d, want 2 (union)", got)
	}
	d := r.Statement.Slice("2023-12-31")
	if d.Get(models.Revenue) != models.Num(1000) || d.Get(models.TotalAssets) != models.Num(5000) {
		t.Error("merged period missing values")
	}
	if !reflect.DeepEqual(r.Unmapped, []string{"Goodwill"}) {
		t.Errorf("unmapped = %v", r.Unmapped)
	}
}

func TestNormalizeEmptyStatement(t *testing.T) {
	stmt, unmapped := Normalize(models.RawStatement{Ticker: "NONE"}, DefaultTable())
	if !stmt.Empty() {
		t.Error("expected empty statement")
	}
	if unmapped == nil || len(unmapped) != 0 {
		t.Errorf("unmapped = %#v, want empty non-nil slice", unmapped)
	}
}
