// Package verify runs accounting-identity checks against one period of a
// canonical statement. Results are advisory: a failed check never stops the
// pipeline and never alters the statement.
package verify

import (
	"fmt"
	"math"

	"github.com/seenimoa/ratiolens/pkg/models"
)

// Check names, in the order Verify reports them.
const (
	CheckBalanceSheet         = "balance_sheet_equation"
	CheckCashFlow             = "cash_flow_consistency"
	CheckIncomeStatement      = "income_statement_consistency"
	CheckGrossProfit          = "gross_profit"
	CheckOperatingIncome      = "operating_income"
	CheckCashFlowSum          = "cash_flow_sum"
	CheckCashNonNegative      = "cash_non_negative"
	CheckLiabilitiesAndEquity = "liabilities_and_equity_total"
)

// Default tolerances.
const (
	DefaultTolerance            = 0.01
	OperatingIncomeTolerance    = 0.05 // operating expense definitions vary by vendor
	CashFlowSumTolerance        = 0.02
	DefaultCashFlowAbsTolerance = 1000
)

// Options controls check tolerances. Zero fields take the defaults.
type Options struct {
	// Tolerance replaces the 1% default of the identity checks.
	Tolerance float64
	// CashFlowAbsTolerance lets cash_flow_sum pass on a small absolute gap.
	CashFlowAbsTolerance float64
	// Overrides sets the relative tolerance of individual checks by name.
	Overrides map[string]float64
}

// DefaultOptions returns the built-in tolerances.
func DefaultOptions() Options {
	return Options{Tolerance: DefaultTolerance, CashFlowAbsTolerance: DefaultCashFlowAbsTolerance}
}

func (o Options) tolerance(check string) float64 {
	if t, ok := o.Overrides[check]; ok {
		return t
	}
	switch check {
	case CheckOperatingIncome:
		return OperatingIncomeTolerance
	case CheckCashFlowSum:
		return CashFlowSumTolerance
	}
	if o.Tolerance > 0 {
		return o.Tolerance
	}
	return DefaultTolerance
}

func (o Options) absTolerance() float64 {
	if o.CashFlowAbsTolerance > 0 {
		return o.CashFlowAbsTolerance
	}
	return DefaultCashFlowAbsTolerance
}

// Checks returns the check names in report order.
func Checks() []string {
	return []string{
		CheckBalanceSheet,
		CheckCashFlow,
		CheckIncomeStatement,
		CheckGrossProfit,
		CheckOperatingIncome,
		CheckCashFlowSum,
		CheckCashNonNegative,
		CheckLiabilitiesAndEquity,
	}
}

// Verify runs every check against one period of stmt.
func Verify(stmt models.CanonicalStatement, period models.Period, opts Options) []models.VerificationResult {
	return VerifyPeriod(stmt.Slice(period), opts)
}

// VerifyAll runs every check against every period, most recent first.
func VerifyAll(stmt models.CanonicalStatement, opts Options) []models.VerificationResult {
	var out []models.VerificationResult
	for _, p := range stmt.Periods() {
		out = append(out, Verify(stmt, p, opts)...)
	}
	return out
}

// VerifyPeriod runs every check against a single-period view. Each check is
// independent; a missing operand skips only that check.
func VerifyPeriod(d models.PeriodData, opts Options) []models.VerificationResult {
	return []models.VerificationResult{
		balanceSheet(d, opts),
		cashFlow(d, opts),
		incomeStatement(d, opts),
		grossProfit(d, opts),
		operatingIncome(d, opts),
		cashFlowSum(d, opts),
		cashNonNegative(d),
		liabilitiesAndEquity(d, opts),
	}
}

// Discrepancy is the signed gap between expected and actual relative to the
// size of expected, floored at 1 so tiny magnitudes do not blow up.
func Discrepancy(expected, actual float64) float64 {
	return (expected - actual) / math.Max(math.Abs(expected), 1)
}

// operand is a named input of a check.
type operand struct {
	item models.LineItem
	v    models.Value
}

func operands(d models.PeriodData, items ...models.LineItem) []operand {
	out := make([]operand, len(items))
	for i, li := range items {
		out[i] = operand{li, d.Get(li)}
	}
	return out
}

func missing(ops []operand) []models.LineItem {
	var out []models.LineItem
	for _, op := range ops {
		if op.v.IsAbsent() {
			out = append(out, op.item)
		}
	}
	return out
}

func skipped(check string, period models.Period, tol float64, miss []models.LineItem) models.VerificationResult {
	return models.VerificationResult{
		Check:     check,
		Period:    period,
		Status:    models.CheckSkipped,
		Tolerance: tol,
		Missing:   miss,
		Detail:    fmt.Sprintf("missing %v", miss),
	}
}

// compare evaluates expected ≈ actual. absTol > 0 also passes on a small
// absolute difference.
func compare(check string, period models.Period, expected, actual, tol, absTol float64, detail string) models.VerificationResult {
	d := Discrepancy(expected, actual)
	status := models.CheckFailed
	if math.Abs(d) <= tol || (absTol > 0 && math.Abs(expected-actual) <= absTol) {
		status = models.CheckPassed
	}
	return models.VerificationResult{
		Check:       check,
		Period:      period,
		Status:      status,
		Expected:    models.Num(expected),
		Actual:      models.Num(actual),
		Discrepancy: models.Num(d),
		Tolerance:   tol,
		Detail:      detail,
	}
}

func balanceSheet(d models.PeriodData, opts Options) models.VerificationResult {
	tol := opts.tolerance(CheckBalanceSheet)
	ops := operands(d, models.TotalAssets, models.TotalLiabilities, models.TotalEquity)
	if miss := missing(ops); len(miss) > 0 {
		return skipped(CheckBalanceSheet, d.Period, tol, miss)
	}
	a, _ := ops[0].v.Get()
	le, _ := ops[1].v.Add(ops[2].v).Get()
	return compare(CheckBalanceSheet, d.Period, a, le, tol, 0,
		fmt.Sprintf("assets %.2f vs liabilities+equity %.2f", a, le))
}

func cashFlow(d models.PeriodData, opts Options) models.VerificationResult {
	tol := opts.tolerance(CheckCashFlow)
	ops := operands(d, models.EndingCash, models.BeginningCash, models.ChangeInCash)
	if miss := missing(ops); len(miss) > 0 {
		return skipped(CheckCashFlow, d.Period, tol, miss)
	}
	end, _ := ops[0].v.Get()
	roll, _ := ops[1].v.Add(ops[2].v).Get()
	return compare(CheckCashFlow, d.Period, end, roll, tol, 0,
		fmt.Sprintf("ending cash %.2f vs beginning+change %.2f", end, roll))
}

func incomeStatement(d models.PeriodData, opts Options) models.VerificationResult {
	tol := opts.tolerance(CheckIncomeStatement)
	ops := operands(d, models.NetIncome, models.IncomeBeforeTax, models.IncomeTaxExpense)
	if miss := missing(ops); len(miss) > 0 {
		return skipped(CheckIncomeStatement, d.Period, tol, miss)
	}
	ni, _ := ops[0].v.Get()
	calc, _ := ops[1].v.Sub(ops[2].v).Get() // tax is signed; a benefit is negative
	return compare(CheckIncomeStatement, d.Period, ni, calc, tol, 0,
		fmt.Sprintf("net income %.2f vs pretax-tax %.2f", ni, calc))
}

func grossProfit(d models.PeriodData, opts Options) models.VerificationResult {
	tol := opts.tolerance(CheckGrossProfit)
	ops := operands(d, models.GrossProfit, models.Revenue, models.CostOfRevenue)
	if miss := missing(ops); len(miss) > 0 {
		return skipped(CheckGrossProfit, d.Period, tol, miss)
	}
	gp, _ := ops[0].v.Get()
	calc, _ := ops[1].v.Sub(ops[2].v.Abs()).Get()
	return compare(CheckGrossProfit, d.Period, gp, calc, tol, 0,
		fmt.Sprintf("gross profit %.2f vs revenue-cost %.2f", gp, calc))
}

func operatingIncome(d models.PeriodData, opts Options) models.VerificationResult {
	tol := opts.tolerance(CheckOperatingIncome)
	ops := operands(d, models.OperatingIncome, models.GrossProfit)
	miss := missing(ops)

	opex := d.Get(models.OperatingExpenses)
	if opex.IsAbsent() {
		// R&D + SG&A stands in only when both parts are reported.
		parts := operands(d, models.ResearchDevelopment, models.SellingGeneralAdministrative)
		if partsMissing := missing(parts); len(partsMissing) > 0 {
			miss = append(miss, models.OperatingExpenses)
			miss = append(miss, partsMissing...)
		} else {
			opex = parts[0].v.Abs().Add(parts[1].v.Abs())
		}
	}
	if len(miss) > 0 {
		return skipped(CheckOperatingIncome, d.Period, tol, miss)
	}
	oi, _ := ops[0].v.Get()
	calc, _ := ops[1].v.Sub(opex.Abs()).Get()
	return compare(CheckOperatingIncome, d.Period, oi, calc, tol, 0,
		fmt.Sprintf("operating income %.2f vs gross profit-opex %.2f", oi, calc))
}

func cashFlowSum(d models.PeriodData, opts Options) models.VerificationResult {
	tol := opts.tolerance(CheckCashFlowSum)
	ops := operands(d, models.ChangeInCash, models.OperatingCashFlow, models.InvestingCashFlow, models.FinancingCashFlow)
	if miss := missing(ops); len(miss) > 0 {
		return skipped(CheckCashFlowSum, d.Period, tol, miss)
	}
	change, _ := ops[0].v.Get()
	sum, _ := ops[1].v.Add(ops[2].v).Add(ops[3].v).Get()
	return compare(CheckCashFlowSum, d.Period, change, sum, tol, opts.absTolerance(),
		fmt.Sprintf("change in cash %.2f vs operating+investing+financing %.2f", change, sum))
}

func cashNonNegative(d models.PeriodData) models.VerificationResult {
	cash := d.Get(models.Cash)
	if cash.IsAbsent() {
		return skipped(CheckCashNonNegative, d.Period, 0, []models.LineItem{models.Cash})
	}
	c, _ := cash.Get()
	r := models.VerificationResult{
		Check:    CheckCashNonNegative,
		Period:   d.Period,
		Status:   models.CheckPassed,
		Expected: cash,
		Actual:   cash,
	}
	if c < 0 {
		r.Status = models.CheckFailed
		r.Discrepancy = models.Num(Discrepancy(c, 0))
		r.Detail = fmt.Sprintf("negative cash %.2f", c)
	} else {
		r.Discrepancy = models.Num(0)
	}
	return r
}

func liabilitiesAndEquity(d models.PeriodData, opts Options) models.VerificationResult {
	tol := opts.tolerance(CheckLiabilitiesAndEquity)
	ops := operands(d, models.TotalAssets, models.LiabilitiesAndEquity)
	if miss := missing(ops); len(miss) > 0 {
		return skipped(CheckLiabilitiesAndEquity, d.Period, tol, miss)
	}
	a, _ := ops[0].v.Get()
	le, _ := ops[1].v.Get()
	return compare(CheckLiabilitiesAndEquity, d.Period, a, le, tol, 0,
		fmt.Sprintf("assets %.2f vs reported liabilities and equity %.2f", a, le))
}
