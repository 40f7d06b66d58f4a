package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/seenimoa/ratiolens/pkg/models"
	"github.com/seenimoa/ratiolens/pkg/utils"
)

const yfBaseURL = "https://query2.finance.yahoo.com"

// yfTypes lists the fundamentals-timeseries series requested per family,
// without the annual/quarterly prefix. Where two series map to the same line
// item the preferred one comes first.
var yfTypes = map[models.Family][]string{
	models.FamilyIncome: {
		"TotalRevenue", "OperatingRevenue", "CostOfRevenue", "ReconciledCostOfRevenue",
		"GrossProfit", "ResearchAndDevelopment", "SellingGeneralAndAdministration",
		"OperatingExpense", "TotalExpenses", "OperatingIncome", "InterestExpense",
		"PretaxIncome", "TaxProvision", "NetIncomeCommonStockholders", "EBITDA", "NormalizedEBITDA",
	},
	models.FamilyBalance: {
		"CashCashEquivalentsAndShortTermInvestments", "AccountsReceivable", "Inventory",
		"CurrentAssets", "NetPPE", "TotalAssets", "AccountsPayable", "CurrentDebt",
		"CurrentDebtAndCapitalLeaseObligation", "CurrentLiabilities", "LongTermDebt",
		"LongTermDebtAndCapitalLeaseObligation", "TotalDebt", "TotalLiabilitiesNetMinorityInterest",
		"CommonStock", "RetainedEarnings", "StockholdersEquity", "TotalEquityGrossMinorityInterest",
	},
	models.FamilyCashFlow: {
		"DepreciationAmortizationDepletion", "DepreciationAndAmortization", "OperatingCashFlow",
		"CapitalExpenditure", "InvestingCashFlow", "CashDividendsPaid", "IssuanceOfCapitalStock",
		"CommonStockIssuance", "RepurchaseOfCapitalStock", "CommonStockPayments", "FinancingCashFlow",
		"ChangesInCash", "BeginningCashPosition", "EndCashPosition", "FreeCashFlow",
	},
}

// YFinance fetches statements from the Yahoo Finance fundamentals-timeseries
// API and company profiles from quoteSummary.
type YFinance struct {
	base    string
	suffix  string
	client  *http.Client
	cache   *Cache[models.RawStatement]
	limiter *RateLimiter
	log     zerolog.Logger
	now     func() time.Time
}

// NewYFinance creates a Yahoo Finance source. suffix is appended to bare
// tickers, e.g. ".NS" for NSE listings.
func NewYFinance(opts Options, suffix string) *YFinance {
	base := opts.BaseURL
	if base == "" {
		base = yfBaseURL
	}
	return &YFinance{
		base:    strings.TrimRight(base, "/"),
		suffix:  suffix,
		client:  opts.httpClient(),
		cache:   opts.cache(5 * time.Minute),
		limiter: opts.limiter(5),
		log:     opts.Logger.With().Str("source", "yfinance").Logger(),
		now:     time.Now,
	}
}

// Name returns the data source name.
func (y *YFinance) Name() string { return "Yahoo Finance" }

// --- Yahoo Finance API types ---

type yfTimeseriesResponse struct {
	Timeseries struct {
		Result []map[string]json.RawMessage `json:"result"`
		Error  *yfError                     `json:"error"`
	} `json:"timeseries"`
}

type yfSeriesMeta struct {
	Symbol []string `json:"symbol"`
	Type   []string `json:"type"`
}

type yfDataPoint struct {
	AsOfDate      string `json:"asOfDate"`
	PeriodType    string `json:"periodType"`
	ReportedValue struct {
		Raw *float64 `json:"raw"`
	} `json:"reportedValue"`
}

type yfSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			AssetProfile *struct {
				Sector   string `json:"sector"`
				Industry string `json:"industry"`
			} `json:"assetProfile"`
			Price *struct {
				LongName  string `json:"longName"`
				ShortName string `json:"shortName"`
			} `json:"price"`
		} `json:"result"`
		Error *yfError `json:"error"`
	} `json:"quoteSummary"`
}

type yfError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// --- Public methods ---

// FetchStatement returns one statement family. Labels are the series type
// names without the frequency prefix; null data points are absent cells.
func (y *YFinance) FetchStatement(ctx context.Context, ticker string, family models.Family, freq models.Frequency) (models.RawStatement, error) {
	types, ok := yfTypes[family]
	if !ok {
		return models.RawStatement{}, fmt.Errorf("yfinance %s: %w", family, ErrNotSupported)
	}
	symbol := utils.YahooSymbol(ticker, y.suffix)

	key := cacheKey(symbol, family, freq)
	if cached, ok := y.cache.Get(key); ok {
		return cached, nil
	}

	if err := y.limiter.Wait(ctx); err != nil {
		return models.RawStatement{}, err
	}

	prefix := string(freq)
	q := url.Values{}
	full := make([]string, len(types))
	for i, t := range types {
		full[i] = prefix + t
	}
	q.Set("type", strings.Join(full, ","))
	q.Set("period1", "493590046")
	q.Set("period2", fmt.Sprint(y.now().Unix()))
	endpoint := fmt.Sprintf("%s/ws/fundamentals-timeseries/v1/finance/timeseries/%s?%s",
		y.base, url.PathEscape(symbol), q.Encode())

	data, err := y.get(ctx, endpoint)
	if err != nil {
		return models.RawStatement{}, fmt.Errorf("yfinance %s %s: %w", symbol, family, err)
	}

	var resp yfTimeseriesResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return models.RawStatement{}, fmt.Errorf("parse yfinance timeseries: %w", err)
	}
	if resp.Timeseries.Error != nil {
		return models.RawStatement{}, fmt.Errorf("yfinance API error: %s", resp.Timeseries.Error.Description)
	}

	raw := parseTimeseries(resp.Timeseries.Result, prefix, types)
	raw.Ticker = utils.NormalizeTicker(ticker)
	raw.Family = family
	raw.Frequency = freq
	if raw.Empty() {
		return raw, fmt.Errorf("yfinance %s %s: %w", symbol, family, ErrNoData)
	}

	y.log.Debug().Str("ticker", symbol).Str("family", string(family)).
		Int("periods", len(raw.Periods)).Msg("fetched statement")
	y.cache.Set(key, raw)
	return raw, nil
}

// FetchCompanyInfo returns name, sector and industry from quoteSummary.
func (y *YFinance) FetchCompanyInfo(ctx context.Context, ticker string) (models.CompanyInfo, error) {
	symbol := utils.YahooSymbol(ticker, y.suffix)
	if err := y.limiter.Wait(ctx); err != nil {
		return models.CompanyInfo{}, err
	}

	endpoint := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=assetProfile,price", y.base, url.PathEscape(symbol))
	data, err := y.get(ctx, endpoint)
	if err != nil {
		return models.CompanyInfo{}, fmt.Errorf("yfinance profile %s: %w", symbol, err)
	}

	var resp yfSummaryResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return models.CompanyInfo{}, fmt.Errorf("parse yfinance profile: %w", err)
	}
	if resp.QuoteSummary.Error != nil {
		return models.CompanyInfo{}, fmt.Errorf("yfinance API error: %s", resp.QuoteSummary.Error.Description)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return models.CompanyInfo{}, fmt.Errorf("%w: %s", ErrTickerNotFound, ticker)
	}

	r := resp.QuoteSummary.Result[0]
	info := models.CompanyInfo{Ticker: utils.NormalizeTicker(ticker)}
	if r.Price != nil {
		info.Name = coalesce(r.Price.LongName, r.Price.ShortName)
	}
	if r.AssetProfile != nil {
		info.Sector = r.AssetProfile.Sector
		info.Industry = r.AssetProfile.Industry
	}
	return info, nil
}

func (y *YFinance) get(ctx context.Context, endpoint string) ([]byte, error) {
	body, err := doGet(ctx, y.client, endpoint, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return data, nil
}

// --- Helpers ---

// parseTimeseries turns one result entry per series into a raw statement,
// periods oldest first. A series contributes a row to every period it has a
// point for; null points become absent rows at their timestamp's period.
//
// Yahoo does not promise the order of its result array, and the normalizer
// keeps the later of two rows for the same item. Rows are therefore ordered
// by preference so the first series in preferred ends up last.
func parseTimeseries(results []map[string]json.RawMessage, prefix string, preferred []string) models.RawStatement {
	rank := make(map[string]int, len(preferred))
	for i, t := range preferred {
		rank[t] = len(preferred) - i
	}

	byPeriod := make(map[models.Period][]models.RawRow)
	for _, res := range results {
		var meta yfSeriesMeta
		if err := json.Unmarshal(res["meta"], &meta); err != nil || len(meta.Type) == 0 {
			continue
		}
		series := meta.Type[0]
		label := strings.TrimPrefix(series, prefix)

		var stamps []int64
		_ = json.Unmarshal(res["timestamp"], &stamps)

		var points []*yfDataPoint
		if err := json.Unmarshal(res[series], &points); err != nil {
			continue
		}
		for i, pt := range points {
			var period models.Period
			switch {
			case pt != nil && pt.AsOfDate != "":
				p, err := models.ParsePeriod(pt.AsOfDate)
				if err != nil {
					continue
				}
				period = p
			case i < len(stamps):
				period = models.PeriodOf(time.Unix(stamps[i], 0))
			default:
				continue
			}
			v := models.Absent()
			if pt != nil && pt.ReportedValue.Raw != nil {
				v = models.Num(*pt.ReportedValue.Raw)
			}
			byPeriod[period] = append(byPeriod[period], models.RawRow{Label: label, Value: v})
		}
	}

	raw := models.RawStatement{Order: models.OldestFirst}
	for p, rows := range byPeriod {
		sort.SliceStable(rows, func(i, j int) bool { return rank[rows[i].Label] < rank[rows[j].Label] })
		raw.Periods = append(raw.Periods, models.RawPeriod{Period: p, Rows: rows})
	}
	sort.Slice(raw.Periods, func(i, j int) bool { return raw.Periods[i].Period < raw.Periods[j].Period })
	return raw
}

func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
