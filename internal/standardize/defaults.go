package standardize

import (
	"sync"

	"github.com/seenimoa/ratiolens/pkg/models"
)

// defaultLabels holds the built-in vendor spellings per canonical item:
// long-form statement labels, camelCase API keys, Yahoo Finance
// fundamentals-timeseries types and Screener.in row names.
var defaultLabels = map[models.LineItem][]string{
	// Income statement
	models.Revenue:                      {"Total Revenue", "Revenue", "totalRevenue", "OperatingRevenue", "Sales", "Net Sales", "Revenue from Operations"},
	models.CostOfRevenue:                {"Cost Of Revenue", "costOfRevenue", "Cost of Goods Sold", "Cost of Sales", "ReconciledCostOfRevenue"},
	models.GrossProfit:                  {"Gross Profit", "grossProfit"},
	models.ResearchDevelopment:          {"Research Development", "Research And Development", "researchDevelopmentExpense", "ResearchAndDevelopment"},
	models.SellingGeneralAdministrative: {"Selling General Administrative", "Selling General and Administrative", "sellingGeneralAdministrative", "sellingGeneralAndAdministrative", "SellingGeneralAndAdministration"},
	models.OperatingExpenses:            {"Operating Expenses", "Total Operating Expenses", "totalOperatingExpenses", "OperatingExpenditures", "Total Operating Expenditures", "OperatingExpense"},
	models.TotalExpenses:                {"Total Expenses", "Expenses", "TotalExpenses"},
	models.OperatingIncome:              {"Operating Income", "Operating Income or Loss", "operatingIncome", "Operating Profit"},
	models.InterestExpense:              {"Interest Expense", "interestExpense", "Interest"},
	models.IncomeBeforeTax:              {"Income Before Tax", "Pretax Income", "incomeBeforeTax", "Profit before tax", "PretaxIncome"},
	models.IncomeTaxExpense:             {"Income Tax Expense", "Tax Provision", "incomeTaxExpense", "TaxProvision"},
	models.NetIncome:                    {"Net Income", "Net Income Applicable To Common Shares", "netIncome", "netIncomeApplicableToCommonShares", "NetIncomeCommonStockholders", "Net Profit"},
	models.EBITDA:                       {"EBITDA", "Normalized EBITDA", "NormalizedEBITDA"},

	// Balance sheet
	models.Cash:                   {"Cash", "Cash And Cash Equivalents", "cashAndCashEquivalents", "Cash Cash Equivalents And Short Term Investments", "CashCashEquivalentsAndShortTermInvestments"},
	models.AccountsReceivable:     {"Net Receivables", "Accounts Receivable", "Receivables", "AccountsReceivable"},
	models.Inventory:              {"Inventory"},
	models.CurrentAssets:          {"Total Current Assets", "Current Assets", "totalCurrentAssets", "CurrentAssets"},
	models.PropertyPlantEquipment: {"Property Plant Equipment Net", "Total Property Plant Equipment", "Property plant and equipment net", "NetPPE", "Fixed Assets"},
	models.TotalAssets:            {"Total Assets", "totalAssets"},
	models.AccountsPayable:        {"Accounts Payable", "accountsPayable"},
	models.ShortTermDebt:          {"Short Long Term Debt", "Short Term Debt", "Current Debt", "Current Liabilities And Long Term Debt", "Current Debt And Capital Lease Obligation", "CurrentDebt", "CurrentDebtAndCapitalLeaseObligation"},
	models.CurrentLiabilities:     {"Total Current Liabilities", "Current Liabilities", "totalCurrentLiabilities", "CurrentLiabilities"},
	models.LongTermDebt:           {"Long Term Debt", "longTermDebt", "Long Term Debt And Capital Lease Obligation", "LongTermDebtAndCapitalLeaseObligation"},
	models.TotalDebt:              {"Total Debt", "totalDebt", "Borrowings"},
	models.TotalLiabilities:       {"Total Liab", "Total Liabilities", "totalLiab", "Total Liabilities Net Minority Interest", "TotalLiabilitiesNetMinorityInterest"},
	models.CommonStock:            {"Common Stock", "commonStock", "Equity Capital"},
	models.RetainedEarnings:       {"Retained Earnings", "retainedEarnings", "Reserves"},
	models.TotalEquity:            {"Total Stockholder Equity", "Stockholders Equity", "Total Equity", "totalStockholderEquity", "Total Equity Gross Minority Interest", "StockholdersEquity", "TotalEquityGrossMinorityInterest"},
	models.LiabilitiesAndEquity:   {"Total Liabilities And Stockholders Equity", "Total Liabilities And Equity", "Total Liabilities & Equity"},

	// Cash flow statement
	models.DepreciationAmortization: {"Depreciation And Amortization", "Depreciation & Amortization", "Depreciation", "DepreciationAmortizationDepletion", "DepreciationAndAmortization"},
	models.OperatingCashFlow:        {"Total Cash From Operating Activities", "Cash Flow From Operating Activities", "totalCashFromOperatingActivities", "Operating Cash Flow", "Cash from Operating Activity", "OperatingCashFlow"},
	models.CapitalExpenditures:      {"Capital Expenditures", "capex", "Capital Expenditure", "CapitalExpenditure"},
	models.InvestingCashFlow:        {"Total Cashflows From Investing Activities", "Cash Flow From Investing Activities", "totalCashflowsFromInvestingActivities", "Investing Cash Flow", "Cash from Investing Activity", "InvestingCashFlow"},
	models.DividendsPaid:            {"Dividends Paid", "dividendsPaid", "Cash Dividends Paid", "CashDividendsPaid"},
	models.IssuanceOfStock:          {"Issuance Of Stock", "Issuance of Common Stock", "Issuance Of Capital Stock", "Common Stock Issuance", "IssuanceOfCapitalStock", "CommonStockIssuance"},
	models.RepurchaseOfStock:        {"Repurchase Of Stock", "Repurchase of Common Stock", "Treasury Stock", "Repurchase Of Capital Stock", "Common Stock Payments", "RepurchaseOfCapitalStock", "CommonStockPayments"},
	models.FinancingCashFlow:        {"Total Cash From Financing Activities", "Cash Flow From Financing Activities", "totalCashFromFinancingActivities", "Financing Cash Flow", "Cash from Financing Activity", "FinancingCashFlow"},
	models.ChangeInCash:             {"Change In Cash", "Net Change In Cash", "changeInCash", "Changes In Cash", "Net Cash Flow", "ChangesInCash"},
	models.BeginningCash:            {"Beginning Cash Position", "Beginning Cash", "Cash At Beginning Of Period", "BeginningCashPosition"},
	models.EndingCash:               {"End Cash Position", "Ending Cash", "Cash At End Of Period", "EndCashPosition"},
	models.FreeCashFlow:             {"Free Cash Flow", "freeCashFlow"},
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// DefaultTable returns the built-in mapping table. It is built once and
// shared; tables are read-only so sharing is safe.
func DefaultTable() *Table {
	defaultOnce.Do(func() {
		b := NewTableBuilder()
		for _, li := range models.AllLineItems() {
			for _, label := range defaultLabels[li] {
				if err := b.Add(label, li); err != nil {
					panic("standardize: built-in table: " + err.Error())
				}
			}
		}
		defaultTable = b.Build()
	})
	return defaultTable
}
