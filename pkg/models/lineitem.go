package models

import (
	"fmt"
	"strings"
)

// Family identifies which financial statement a line item belongs to.
type Family string

const (
	FamilyIncome   Family = "income"
	FamilyBalance  Family = "balance"
	FamilyCashFlow Family = "cashflow"
)

// Families returns the statement families in display order.
func Families() []Family {
	return []Family{FamilyIncome, FamilyBalance, FamilyCashFlow}
}

// ParseFamily resolves a family name. Accepts a few common spellings.
func ParseFamily(s string) (Family, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income", "income_statement", "financials", "profit-loss", "pnl":
		return FamilyIncome, nil
	case "balance", "balance_sheet", "balancesheet":
		return FamilyBalance, nil
	case "cashflow", "cash_flow", "cash-flow":
		return FamilyCashFlow, nil
	}
	return "", fmt.Errorf("unknown statement family %q", s)
}

// LineItem is a canonical, vendor-independent financial statement field.
type LineItem string

// Income statement.
const (
	Revenue                      LineItem = "revenue"
	CostOfRevenue                LineItem = "cost_of_revenue"
	GrossProfit                  LineItem = "gross_profit"
	ResearchDevelopment          LineItem = "research_development"
	SellingGeneralAdministrative LineItem = "selling_general_administrative"
	OperatingExpenses            LineItem = "operating_expenses"
	TotalExpenses                LineItem = "total_expenses"
	OperatingIncome              LineItem = "operating_income"
	InterestExpense              LineItem = "interest_expense"
	IncomeBeforeTax              LineItem = "income_before_tax"
	IncomeTaxExpense             LineItem = "income_tax_expense"
	NetIncome                    LineItem = "net_income"
	EBITDA                       LineItem = "ebitda"
)

// Balance sheet.
const (
	Cash                   LineItem = "cash"
	AccountsReceivable     LineItem = "accounts_receivable"
	Inventory              LineItem = "inventory"
	CurrentAssets          LineItem = "current_assets"
	PropertyPlantEquipment LineItem = "property_plant_equipment"
	TotalAssets            LineItem = "total_assets"
	AccountsPayable        LineItem = "accounts_payable"
	ShortTermDebt          LineItem = "short_term_debt"
	CurrentLiabilities     LineItem = "current_liabilities"
	LongTermDebt           LineItem = "long_term_debt"
	TotalDebt              LineItem = "total_debt"
	TotalLiabilities       LineItem = "total_liabilities"
	CommonStock            LineItem = "common_stock"
	RetainedEarnings       LineItem = "retained_earnings"
	TotalEquity            LineItem = "total_equity"
	LiabilitiesAndEquity   LineItem = "liabilities_and_equity"
)

// Cash flow statement.
const (
	DepreciationAmortization LineItem = "depreciation_amortization"
	OperatingCashFlow        LineItem = "operating_cash_flow"
	CapitalExpenditures      LineItem = "capital_expenditures"
	InvestingCashFlow        LineItem = "investing_cash_flow"
	DividendsPaid            LineItem = "dividends_paid"
	IssuanceOfStock          LineItem = "issuance_of_stock"
	RepurchaseOfStock        LineItem = "repurchase_of_stock"
	FinancingCashFlow        LineItem = "financing_cash_flow"
	ChangeInCash             LineItem = "change_in_cash"
	BeginningCash            LineItem = "beginning_cash"
	EndingCash               LineItem = "ending_cash"
	FreeCashFlow             LineItem = "free_cash_flow"
)

// lineItems is the complete canonical vocabulary, in statement order.
var lineItems = []struct {
	item   LineItem
	family Family
	label  string
}{
	{Revenue, FamilyIncome, "Revenue"},
	{CostOfRevenue, FamilyIncome, "Cost of Revenue"},
	{GrossProfit, FamilyIncome, "Gross Profit"},
	{ResearchDevelopment, FamilyIncome, "Research & Development"},
	{SellingGeneralAdministrative, FamilyIncome, "SG&A"},
	{OperatingExpenses, FamilyIncome, "Operating Expenses"},
	{TotalExpenses, FamilyIncome, "Total Expenses"},
	{OperatingIncome, FamilyIncome, "Operating Income"},
	{InterestExpense, FamilyIncome, "Interest Expense"},
	{IncomeBeforeTax, FamilyIncome, "Income Before Tax"},
	{IncomeTaxExpense, FamilyIncome, "Income Tax Expense"},
	{NetIncome, FamilyIncome, "Net Income"},
	{EBITDA, FamilyIncome, "EBITDA"},

	{Cash, FamilyBalance, "Cash & Equivalents"},
	{AccountsReceivable, FamilyBalance, "Accounts Receivable"},
	{Inventory, FamilyBalance, "Inventory"},
	{CurrentAssets, FamilyBalance, "Current Assets"},
	{PropertyPlantEquipment, FamilyBalance, "PP&E (Net)"},
	{TotalAssets, FamilyBalance, "Total Assets"},
	{AccountsPayable, FamilyBalance, "Accounts Payable"},
	{ShortTermDebt, FamilyBalance, "Short-Term Debt"},
	{CurrentLiabilities, FamilyBalance, "Current Liabilities"},
	{LongTermDebt, FamilyBalance, "Long-Term Debt"},
	{TotalDebt, FamilyBalance, "Total Debt"},
	{TotalLiabilities, FamilyBalance, "Total Liabilities"},
	{CommonStock, FamilyBalance, "Common Stock"},
	{RetainedEarnings, FamilyBalance, "Retained Earnings"},
	{TotalEquity, FamilyBalance, "Total Equity"},
	{LiabilitiesAndEquity, FamilyBalance, "Total Liabilities & Equity"},

	{DepreciationAmortization, FamilyCashFlow, "Depreciation & Amortization"},
	{OperatingCashFlow, FamilyCashFlow, "Operating Cash Flow"},
	{CapitalExpenditures, FamilyCashFlow, "Capital Expenditures"},
	{InvestingCashFlow, FamilyCashFlow, "Investing Cash Flow"},
	{DividendsPaid, FamilyCashFlow, "Dividends Paid"},
	{IssuanceOfStock, FamilyCashFlow, "Issuance of Stock"},
	{RepurchaseOfStock, FamilyCashFlow, "Repurchase of Stock"},
	{FinancingCashFlow, FamilyCashFlow, "Financing Cash Flow"},
	{ChangeInCash, FamilyCashFlow, "Change in Cash"},
	{BeginningCash, FamilyCashFlow, "Beginning Cash"},
	{EndingCash, FamilyCashFlow, "Ending Cash"},
	{FreeCashFlow, FamilyCashFlow, "Free Cash Flow"},
}

var (
	itemFamily = make(map[LineItem]Family, len(lineItems))
	itemLabel  = make(map[LineItem]string, len(lineItems))
	itemOrder  = make(map[LineItem]int, len(lineItems))
)

func init() {
	for i, li := range lineItems {
		itemFamily[li.item] = li.family
		itemLabel[li.item] = li.label
		itemOrder[li.item] = i
	}
}

// AllLineItems returns every canonical line item in statement order.
func AllLineItems() []LineItem {
	out := make([]LineItem, len(lineItems))
	for i, li := range lineItems {
		out[i] = li.item
	}
	return out
}

// LineItemsOf returns the line items of one family in statement order.
func LineItemsOf(f Family) []LineItem {
	var out []LineItem
	for _, li := range lineItems {
		if li.family == f {
			out = append(out, li.item)
		}
	}
	return out
}

// ParseLineItem resolves a canonical key name. Unknown names are rejected so a
// typo in a mapping file can never invent a new canonical category.
func ParseLineItem(s string) (LineItem, error) {
	li := LineItem(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := itemFamily[li]; !ok {
		return "", fmt.Errorf("unknown canonical line item %q", s)
	}
	return li, nil
}

// Valid reports whether li is part of the canonical vocabulary.
func (li LineItem) Valid() bool {
	_, ok := itemFamily[li]
	return ok
}

// Family returns the statement family of the line item.
func (li LineItem) Family() Family { return itemFamily[li] }

// Label returns a human-readable display name.
func (li LineItem) Label() string {
	if l, ok := itemLabel[li]; ok {
		return l
	}
	return string(li)
}

// order is the position of li in the canonical vocabulary.
func (li LineItem) order() int {
	if o, ok := itemOrder[li]; ok {
		return o
	}
	return len(lineItems)
}
