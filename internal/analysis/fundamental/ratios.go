// Package fundamental derives the fixed ratio catalog from canonical
// statements, one period at a time.
package fundamental

import (
	"github.com/seenimoa/ratiolens/pkg/models"
)

// ComputeRatios evaluates the ratio catalog for one period of stmt. A ratio
// whose input is absent, or whose denominator is exactly zero, is undefined.
// Balance sheet denominators use the end-of-period balance.
func ComputeRatios(stmt models.CanonicalStatement, period models.Period) models.RatioResult {
	return ComputeFromData(stmt.Slice(period))
}

// ComputeSeries evaluates every period of stmt independently, in the
// statement's period order (most recent first). Missing values are never
// carried across periods.
func ComputeSeries(stmt models.CanonicalStatement) []models.RatioResult {
	periods := stmt.Periods()
	out := make([]models.RatioResult, 0, len(periods))
	for _, p := range periods {
		out = append(out, ComputeRatios(stmt, p))
	}
	return out
}

// ComputeFromData evaluates the ratio catalog for a single-period view.
func ComputeFromData(d models.PeriodData) models.RatioResult {
	r := models.NewRatioResult(d.Period)

	rev := d.Get(models.Revenue)
	ni := d.Get(models.NetIncome)
	oi := d.Get(models.OperatingIncome)
	equity := d.Get(models.TotalEquity)
	assets := d.Get(models.TotalAssets)
	ca := d.Get(models.CurrentAssets)
	cl := d.Get(models.CurrentLiabilities)
	debt := TotalDebt(d)

	// Profitability
	r.Values[models.GrossMargin] = GrossProfit(d).Div(rev)
	r.Values[models.OperatingMargin] = oi.Div(rev)
	r.Values[models.NetMargin] = ni.Div(rev)
	r.Values[models.ROE] = ni.Div(equity)
	r.Values[models.ROA] = ni.Div(assets)

	// Liquidity
	r.Values[models.CurrentRatio] = ca.Div(cl)
	r.Values[models.QuickRatio] = ca.Sub(d.Get(models.Inventory)).Div(cl)
	r.Values[models.CashRatio] = d.Get(models.Cash).Div(cl)

	// Leverage
	r.Values[models.DebtToEquity] = debt.Div(equity)
	r.Values[models.InterestCoverage] = oi.Div(d.Get(models.InterestExpense).Abs())
	r.Values[models.DebtToAssets] = debt.Div(assets)
	r.Values[models.LiabilitiesToEquity] = d.Get(models.TotalLiabilities).Div(equity)

	// Activity
	r.Values[models.AssetTurnover] = rev.Div(assets)
	r.Values[models.InventoryTurnover] = d.Get(models.CostOfRevenue).Abs().Div(d.Get(models.Inventory))
	r.Values[models.ReceivableTurnover] = rev.Div(d.Get(models.AccountsReceivable))

	// Return
	r.Values[models.ROIC] = NOPAT(d).Div(debt.Add(equity))
	r.Values[models.ROCE] = oi.Div(assets.Sub(cl))

	return r
}

// GrossProfit returns the reported gross profit, or revenue less the cost of
// revenue when gross profit is not reported.
func GrossProfit(d models.PeriodData) models.Value {
	if gp := d.Get(models.GrossProfit); !gp.IsAbsent() {
		return gp
	}
	return d.Get(models.Revenue).Sub(d.Get(models.CostOfRevenue).Abs())
}

// TotalDebt returns the reported total debt, or short-term plus long-term
// debt when both parts are reported.
func TotalDebt(d models.PeriodData) models.Value {
	if td := d.Get(models.TotalDebt); !td.IsAbsent() {
		return td
	}
	return d.Get(models.ShortTermDebt).Add(d.Get(models.LongTermDebt))
}

// EffectiveTaxRate returns income tax / pretax income. Tax is signed, so a
// benefit lowers the rate. Undefined unless pretax income is positive.
func EffectiveTaxRate(d models.PeriodData) models.Value {
	ibt := d.Get(models.IncomeBeforeTax)
	if v, ok := ibt.Get(); !ok || v <= 0 {
		return models.Undefined()
	}
	return d.Get(models.IncomeTaxExpense).Div(ibt)
}

// NOPAT returns operating income after tax at the effective rate.
func NOPAT(d models.PeriodData) models.Value {
	return d.Get(models.OperatingIncome).Mul(models.Num(1).Sub(EffectiveTaxRate(d)))
}

// Latest evaluates the most recent period of stmt. ok is false when the
// statement has no periods.
func Latest(stmt models.CanonicalStatement) (models.RatioResult, bool) {
	p, ok := stmt.Latest()
	if !ok {
		return models.RatioResult{}, false
	}
	return ComputeRatios(stmt, p), true
}
