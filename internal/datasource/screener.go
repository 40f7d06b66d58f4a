package datasource

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/seenimoa/ratiolens/pkg/models"
	"github.com/seenimoa/ratiolens/pkg/utils"
)

const screenerBaseURL = "https://www.screener.in"

// screenerLiabilitiesRow is the Screener.in balance sheet row that totals
// liabilities and equity, despite its name.
const screenerLiabilitiesRow = "Total Liabilities"

// screenerSections maps a family and frequency to the page section holding it.
// Screener.in publishes quarterly figures for the income statement only.
var screenerSections = map[models.Family]map[models.Frequency]string{
	models.FamilyIncome:   {models.Annual: "#profit-loss", models.Quarterly: "#quarters"},
	models.FamilyBalance:  {models.Annual: "#balance-sheet"},
	models.FamilyCashFlow: {models.Annual: "#cash-flow"},
}

// Screener scrapes statements from Screener.in company pages. Figures there
// are in crores; they are converted to rupees.
type Screener struct {
	base    string
	session string
	client  *http.Client
	cache   *Cache[models.RawStatement]
	pages   *Cache[*goquery.Document]
	limiter *RateLimiter
	log     zerolog.Logger
}

// NewScreener creates a Screener.in source. session, when set, is sent as the
// sessionid cookie so logged-in pages are served.
func NewScreener(opts Options, session string) *Screener {
	base := opts.BaseURL
	if base == "" {
		base = screenerBaseURL
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Screener{
		base:    strings.TrimRight(base, "/"),
		session: session,
		client:  opts.httpClient(),
		cache:   opts.cache(ttl),
		pages:   NewCache[*goquery.Document](ttl),
		limiter: opts.limiter(1), // conservative: 1 req/s
		log:     opts.Logger.With().Str("source", "screener").Logger(),
	}
}

// Name returns the data source name.
func (s *Screener) Name() string { return "Screener.in" }

// FetchStatement scrapes one statement table. Row labels lose the "+"
// expand marker; blank cells are absent. Column headings that are not
// periods (such as TTM) are dropped.
func (s *Screener) FetchStatement(ctx context.Context, ticker string, family models.Family, freq models.Frequency) (models.RawStatement, error) {
	section, ok := screenerSections[family][freq]
	if !ok {
		return models.RawStatement{}, fmt.Errorf("screener.in %s %s: %w", freq, family, ErrNotSupported)
	}
	symbol := utils.StripExchangeSuffix(ticker)

	key := cacheKey(symbol, family, freq)
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	doc, err := s.fetchPage(ctx, symbol)
	if err != nil {
		return models.RawStatement{}, err
	}

	raw := parseScreenerTable(doc, section)
	raw.Ticker = symbol
	raw.Family = family
	raw.Frequency = freq
	if family == models.FamilyBalance {
		renameRow(&raw, screenerLiabilitiesRow, "Total Liabilities And Stockholders Equity")
	}
	if raw.Empty() {
		return raw, fmt.Errorf("screener.in %s %s: %w", symbol, family, ErrNoData)
	}

	s.log.Debug().Str("ticker", symbol).Str("family", string(family)).
		Int("periods", len(raw.Periods)).Msg("scraped statement")
	s.cache.Set(key, raw)
	return raw, nil
}

// FetchCompanyInfo reads the company name and the sector/industry links of
// the peers section.
func (s *Screener) FetchCompanyInfo(ctx context.Context, ticker string) (models.CompanyInfo, error) {
	symbol := utils.StripExchangeSuffix(ticker)
	doc, err := s.fetchPage(ctx, symbol)
	if err != nil {
		return models.CompanyInfo{}, err
	}

	info := models.CompanyInfo{
		Ticker: symbol,
		Name:   strings.TrimSpace(doc.Find("h1").First().Text()),
	}
	var tags []string
	doc.Find("#peers a[href*='/market/']").Each(func(_ int, a *goquery.Selection) {
		if t := strings.TrimSpace(a.Text()); t != "" {
			tags = append(tags, t)
		}
	})
	if len(tags) > 0 {
		info.Sector = tags[0]
		info.Industry = tags[len(tags)-1]
	}
	return info, nil
}

// --- Internal helpers ---

// fetchPage downloads and parses the company page, preferring consolidated
// figures and falling back to standalone.
func (s *Screener) fetchPage(ctx context.Context, symbol string) (*goquery.Document, error) {
	if doc, ok := s.pages.Get(symbol); ok {
		return doc, nil
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	headers := map[string]string{"Accept": "text/html"}
	if s.session != "" {
		headers["Cookie"] = "sessionid=" + s.session
	}

	url := fmt.Sprintf("%s/company/%s/consolidated/", s.base, symbol)
	body, err := doGet(ctx, s.client, url, headers)
	if err != nil {
		s.log.Debug().Err(err).Str("ticker", symbol).Msg("consolidated page unavailable, trying standalone")
		url = fmt.Sprintf("%s/company/%s/", s.base, symbol)
		body, err = doGet(ctx, s.client, url, headers)
		if err != nil {
			return nil, fmt.Errorf("screener.in %s: %w", symbol, err)
		}
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse screener HTML: %w", err)
	}
	s.pages.Set(symbol, doc)
	return doc, nil
}

// parseScreenerTable reads the data table of a page section into a raw
// statement, periods oldest first as the page lists them.
func parseScreenerTable(doc *goquery.Document, sectionID string) models.RawStatement {
	raw := models.RawStatement{Order: models.OldestFirst}
	section := doc.Find(sectionID)
	if section.Length() == 0 {
		return raw
	}

	// Column index (among data cells) → period; unparseable headings skipped.
	var cols []int
	var periods []models.Period
	section.Find("table thead th").Each(func(i int, th *goquery.Selection) {
		if i == 0 { // row label column
			return
		}
		if p, err := models.ParsePeriod(th.Text()); err == nil {
			cols = append(cols, i-1)
			periods = append(periods, p)
		}
	})
	raw.Periods = make([]models.RawPeriod, len(periods))
	for i, p := range periods {
		raw.Periods[i].Period = p
	}

	section.Find("table tbody tr").Each(func(_ int, row *goquery.Selection) {
		label := screenerLabel(row.Find("td").First().Text())
		if label == "" {
			return
		}
		cells := row.Find("td").Slice(1, goquery.ToEnd)
		for i, col := range cols {
			if col >= cells.Length() {
				continue
			}
			v := models.Absent()
			if n, ok := utils.ParseNumber(cells.Eq(col).Text()); ok {
				v = models.Num(n * utils.Crore)
			}
			raw.Periods[i].Rows = append(raw.Periods[i].Rows, models.RawRow{Label: label, Value: v})
		}
	})

	sort.SliceStable(raw.Periods, func(i, j int) bool { return raw.Periods[i].Period < raw.Periods[j].Period })
	return raw
}

// screenerLabel strips the expand button text and non-breaking spaces.
func screenerLabel(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimSuffix(s, "+"))
	return strings.Join(strings.Fields(s), " ")
}

func renameRow(raw *models.RawStatement, from, to string) {
	for i := range raw.Periods {
		for j := range raw.Periods[i].Rows {
			if raw.Periods[i].Rows[j].Label == from {
				raw.Periods[i].Rows[j].Label = to
			}
		}
	}
}
