package fundamental

import (
	"math"

	"github.com/seenimoa/ratiolens/pkg/models"
)

// GrowthRates holds period-over-period changes of headline line items,
// measured between the two most recent periods and over the full series.
// Rates are fractions (0.1 = 10%).
type GrowthRates struct {
	From          models.Period `json:"from"`
	To            models.Period `json:"to"`
	RevenueChange models.Value  `json:"revenue_change"`
	NetIncChange  models.Value  `json:"net_income_change"`
	RevenueCAGR   models.Value  `json:"revenue_cagr"`
	NetIncCAGR    models.Value  `json:"net_income_cagr"`
	Years         float64       `json:"years"`
}

// ComputeGrowth measures revenue and net income growth across stmt.
// Changes need two periods; CAGR needs positive values at both ends.
func ComputeGrowth(stmt models.CanonicalStatement) GrowthRates {
	periods := stmt.Periods()
	if len(periods) < 2 {
		return GrowthRates{}
	}
	latest, prev, first := periods[0], periods[1], periods[len(periods)-1]
	g := GrowthRates{From: prev, To: latest}

	g.RevenueChange = pctChange(stmt.Get(models.Revenue, prev), stmt.Get(models.Revenue, latest))
	g.NetIncChange = pctChange(stmt.Get(models.NetIncome, prev), stmt.Get(models.NetIncome, latest))

	g.Years = latest.Time().Sub(first.Time()).Hours() / 24 / 365.25
	g.RevenueCAGR = cagr(stmt.Get(models.Revenue, first), stmt.Get(models.Revenue, latest), g.Years)
	g.NetIncCAGR = cagr(stmt.Get(models.NetIncome, first), stmt.Get(models.NetIncome, latest), g.Years)
	return g
}

// --- helpers ---

// pctChange is (new - old) / |old|, so a loss narrowing reads as growth.
func pctChange(old, cur models.Value) models.Value {
	return cur.Sub(old).Div(old.Abs())
}

func cagr(start, end models.Value, years float64) models.Value {
	s, ok1 := start.Get()
	e, ok2 := end.Get()
	if !ok1 || !ok2 || s <= 0 || e <= 0 || years <= 0 {
		return models.Undefined()
	}
	return models.Num(math.Pow(e/s, 1/years) - 1)
}
