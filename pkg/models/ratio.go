package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RatioName identifies a ratio in the fixed catalog.
type RatioName string

const (
	GrossMargin         RatioName = "gross_margin"
	OperatingMargin     RatioName = "operating_margin"
	NetMargin           RatioName = "net_margin"
	ROE                 RatioName = "roe"
	ROA                 RatioName = "roa"
	CurrentRatio        RatioName = "current_ratio"
	QuickRatio          RatioName = "quick_ratio"
	CashRatio           RatioName = "cash_ratio"
	DebtToEquity        RatioName = "debt_to_equity"
	InterestCoverage    RatioName = "interest_coverage"
	DebtToAssets        RatioName = "debt_to_assets"
	LiabilitiesToEquity RatioName = "liabilities_to_equity"
	AssetTurnover       RatioName = "asset_turnover"
	InventoryTurnover   RatioName = "inventory_turnover"
	ReceivableTurnover  RatioName = "receivable_turnover"
	ROIC                RatioName = "roic"
	ROCE                RatioName = "roce"
)

// RatioGroup is a display category of the catalog.
type RatioGroup string

const (
	GroupProfitability RatioGroup = "profitability"
	GroupLiquidity     RatioGroup = "liquidity"
	GroupLeverage      RatioGroup = "leverage"
	GroupActivity      RatioGroup = "activity"
	GroupReturn        RatioGroup = "return"
)

// RatioDef describes one catalog entry.
type RatioDef struct {
	Name    RatioName    `json:"name"`
	Label   string       `json:"label"`
	Formula string       `json:"formula"`
	Groups  []RatioGroup `json:"groups"`
}

// ratioCatalog lists every ratio once; ROA and ROE belong to two groups.
var ratioCatalog = []RatioDef{
	{GrossMargin, "Gross Margin", "gross_profit / revenue", []RatioGroup{GroupProfitability}},
	{OperatingMargin, "Operating Margin", "operating_income / revenue", []RatioGroup{GroupProfitability}},
	{NetMargin, "Net Margin", "net_income / revenue", []RatioGroup{GroupProfitability}},
	{ROE, "Return on Equity (ROE)", "net_income / total_equity", []RatioGroup{GroupProfitability, GroupReturn}},
	{ROA, "Return on Assets (ROA)", "net_income / total_assets", []RatioGroup{GroupProfitability, GroupReturn}},
	{CurrentRatio, "Current Ratio", "current_assets / current_liabilities", []RatioGroup{GroupLiquidity}},
	{QuickRatio, "Quick Ratio", "(current_assets - inventory) / current_liabilities", []RatioGroup{GroupLiquidity}},
	{CashRatio, "Cash Ratio", "cash / current_liabilities", []RatioGroup{GroupLiquidity}},
	{DebtToEquity, "Debt to Equity", "total_debt / total_equity", []RatioGroup{GroupLeverage}},
	{InterestCoverage, "Interest Coverage", "operating_income / |interest_expense|", []RatioGroup{GroupLeverage}},
	{DebtToAssets, "Debt to Assets", "total_debt / total_assets", []RatioGroup{GroupLeverage}},
	{LiabilitiesToEquity, "Liabilities to Equity", "total_liabilities / total_equity", []RatioGroup{GroupLeverage}},
	{AssetTurnover, "Asset Turnover", "revenue / total_assets", []RatioGroup{GroupActivity}},
	{InventoryTurnover, "Inventory Turnover", "|cost_of_revenue| / inventory", []RatioGroup{GroupActivity}},
	{ReceivableTurnover, "Receivable Turnover", "revenue / accounts_receivable", []RatioGroup{GroupActivity}},
	{ROIC, "Return on Invested Capital (ROIC)", "operating_income * (1 - tax_rate) / (total_debt + total_equity)", []RatioGroup{GroupReturn}},
	{ROCE, "Return on Capital Employed (ROCE)", "operating_income / (total_assets - current_liabilities)", []RatioGroup{GroupReturn}},
}

// RatioCatalog returns the ratio definitions in display order.
func RatioCatalog() []RatioDef {
	out := make([]RatioDef, len(ratioCatalog))
	copy(out, ratioCatalog)
	return out
}

// RatioNames returns every ratio name in display order.
func RatioNames() []RatioName {
	out := make([]RatioName, len(ratioCatalog))
	for i, d := range ratioCatalog {
		out[i] = d.Name
	}
	return out
}

// RatiosIn returns the ratios belonging to a group.
func RatiosIn(g RatioGroup) []RatioName {
	var out []RatioName
	for _, d := range ratioCatalog {
		for _, dg := range d.Groups {
			if dg == g {
				out = append(out, d.Name)
				break
			}
		}
	}
	return out
}

// ParseRatioName resolves a catalog name (case-insensitive).
func ParseRatioName(s string) (RatioName, error) {
	n := RatioName(strings.ToLower(strings.TrimSpace(s)))
	for _, d := range ratioCatalog {
		if d.Name == n {
			return n, nil
		}
	}
	return "", fmt.Errorf("unknown ratio %q", s)
}

// Label returns the display label of the ratio.
func (n RatioName) Label() string {
	for _, d := range ratioCatalog {
		if d.Name == n {
			return d.Label
		}
	}
	return string(n)
}

// RatioResult holds the catalog evaluated for one period. A missing or absent
// entry means the ratio is undefined for that period.
type RatioResult struct {
	Period Period
	Values map[RatioName]Value
}

// NewRatioResult returns an empty result for period.
func NewRatioResult(period Period) RatioResult {
	return RatioResult{Period: period, Values: make(map[RatioName]Value, len(ratioCatalog))}
}

// Get returns the ratio value, undefined when absent.
func (r RatioResult) Get(name RatioName) Value { return r.Values[name] }

// DefinedCount returns how many ratios have a value.
func (r RatioResult) DefinedCount() int {
	n := 0
	for _, v := range r.Values {
		if !v.IsAbsent() {
			n++
		}
	}
	return n
}

// MarshalJSON emits every catalog ratio, undefined ones as null.
func (r RatioResult) MarshalJSON() ([]byte, error) {
	vals := make(map[RatioName]Value, len(ratioCatalog))
	for _, d := range ratioCatalog {
		vals[d.Name] = r.Values[d.Name]
	}
	return json.Marshal(struct {
		Period Period              `json:"period"`
		Values map[RatioName]Value `json:"values"`
	}{r.Period, vals})
}
