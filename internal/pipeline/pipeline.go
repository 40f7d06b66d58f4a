// Package pipeline runs the statement-to-ratio pipeline for one company or a
// whole sector: fetch, normalize, verify, compute ratios, aggregate.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/ratiolens/internal/analysis/fundamental"
	"github.com/seenimoa/ratiolens/internal/analysis/sector"
	"github.com/seenimoa/ratiolens/internal/analysis/verify"
	"github.com/seenimoa/ratiolens/internal/datasource"
	"github.com/seenimoa/ratiolens/internal/standardize"
	"github.com/seenimoa/ratiolens/pkg/models"
	"github.com/seenimoa/ratiolens/pkg/utils"
)

// ErrNoMembership is returned by AnalyzeSector when no membership table is
// configured.
var ErrNoMembership = errors.New("no sector membership table configured")

// Config wires a Runner.
type Config struct {
	Source      datasource.StatementSource
	Table       *standardize.Table // nil uses the built-in table
	Membership  *sector.Membership
	Verify      verify.Options
	Years       int // periods kept per statement, 0 = all
	Concurrency int // parallel company runs in a sector, default 5
	Logger      zerolog.Logger
}

// Runner executes pipeline runs. It is safe for concurrent use.
type Runner struct {
	cfg Config
	log zerolog.Logger
}

// New creates a Runner.
func New(cfg Config) *Runner {
	if cfg.Table == nil {
		cfg.Table = standardize.DefaultTable()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 5
	}
	return &Runner{cfg: cfg, log: cfg.Logger.With().Str("component", "pipeline").Logger()}
}

// CompanyReport is the outcome of one company run.
type CompanyReport struct {
	Info         models.CompanyInfo          `json:"info"`
	Source       string                      `json:"source"`
	Statement    models.CanonicalStatement   `json:"statement"`
	Unmapped     []string                    `json:"unmapped"`
	Conflicts    []standardize.Conflict      `json:"conflicts,omitempty"`
	Verification []models.VerificationResult `json:"verification"`
	Summary      models.VerificationSummary  `json:"verification_summary"`
	Ratios       []models.RatioResult        `json:"ratios"` // most recent first
	Growth       fundamental.GrowthRates     `json:"growth"`
	FetchedAt    time.Time                   `json:"fetched_at"`
}

// Latest returns the most recent ratio result.
func (r *CompanyReport) Latest() (models.RatioResult, bool) {
	if len(r.Ratios) == 0 {
		return models.RatioResult{}, false
	}
	return r.Ratios[0], true
}

// AnalyzeCompany fetches every statement family of ticker and runs it
// through the pipeline. Only a fetch failure is an error; unmapped labels,
// failed checks and undefined ratios are reported.
func (r *Runner) AnalyzeCompany(ctx context.Context, ticker string, freq models.Frequency) (*CompanyReport, error) {
	ticker = utils.NormalizeTicker(ticker)
	log := r.log.With().Str("ticker", ticker).Logger()

	raws, err := datasource.FetchAll(ctx, r.cfg.Source, ticker, freq)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ticker, err)
	}

	info, err := r.cfg.Source.FetchCompanyInfo(ctx, ticker)
	if err != nil {
		log.Warn().Err(err).Msg("company info unavailable")
		info = models.CompanyInfo{Ticker: ticker}
	}
	if mem, ok := r.cfg.Membership.Member(ticker); ok {
		info.Sector = mem.Sector
		if mem.Industry != "" {
			info.Industry = mem.Industry
		}
		if info.Name == "" {
			info.Name = mem.DisplayName
		}
	}

	rep := r.Build(raws)
	rep.Info = info
	rep.Source = r.cfg.Source.Name()
	rep.FetchedAt = time.Now()

	log.Info().
		Int("periods", len(rep.Statement.Periods())).
		Int("unmapped", len(rep.Unmapped)).
		Int("checks_failed", rep.Summary.Failed).
		Msg("company analyzed")
	for _, c := range rep.Conflicts {
		log.Debug().Str("period", string(c.Period)).Str("item", string(c.Item)).
			Str("kept", c.KeptLabel).Str("dropped", c.DroppedLabel).Msg("label conflict")
	}
	return rep, nil
}

// Build runs already-fetched statements through normalization, verification
// and the ratio engine. It does no I/O.
func (r *Runner) Build(raws []models.RawStatement) *CompanyReport {
	norm := standardize.NormalizeAll(raws, r.cfg.Table)
	stmt := norm.Statement.Head(r.cfg.Years)

	checks := verify.VerifyAll(stmt, r.cfg.Verify)
	return &CompanyReport{
		Info:         models.CompanyInfo{Ticker: stmt.Ticker()},
		Statement:    stmt,
		Unmapped:     norm.Unmapped,
		Conflicts:    norm.Conflicts,
		Verification: checks,
		Summary:      models.Summarize(checks),
		Ratios:       fundamental.ComputeSeries(stmt),
		Growth:       fundamental.ComputeGrowth(stmt),
	}
}

// Skip reasons for sector members left out of the aggregate.
const (
	SkipNoData         = "no_data"
	SkipNormalizeEmpty = "normalize_empty"
	SkipNoRatios       = "no_ratios"
)

// Skipped records a sector member left out of the aggregate.
type Skipped struct {
	Ticker string `json:"ticker"`
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

// SectorReport is the outcome of a sector run.
type SectorReport struct {
	Sector      string                         `json:"sector"`
	Members     []sector.Member                `json:"members"`
	Companies   map[string]*CompanyReport      `json:"-"`
	Ratios      map[string]models.RatioResult  `json:"ratios"` // latest period per included member
	Skipped     []Skipped                      `json:"skipped"`
	Aggregate   models.SectorAggregate         `json:"aggregate"`
	Comparisons map[string][]models.PeerMetric `json:"comparisons"` // each member against the others
}

// Included returns the tickers that made it into the aggregate, sorted.
func (s *SectorReport) Included() []string {
	out := make([]string, 0, len(s.Ratios))
	for t := range s.Ratios {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// AnalyzeSector runs every member of sector independently, at most
// Concurrency at a time, and aggregates their latest-period ratios. A
// member's failure is recorded as skipped and never aborts the run.
func (r *Runner) AnalyzeSector(ctx context.Context, sectorName string, freq models.Frequency) (*SectorReport, error) {
	if r.cfg.Membership.Len() == 0 {
		return nil, ErrNoMembership
	}
	members := r.cfg.Membership.InSector(sectorName)
	log := r.log.With().Str("sector", sectorName).Logger()
	if len(members) == 0 {
		log.Warn().Strs("known_sectors", r.cfg.Membership.Sectors()).Msg("sector has no members")
	}

	type slot struct {
		rep  *CompanyReport
		skip *Skipped
	}
	slots := make([]slot, len(members))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)
	for i, m := range members {
		i, m := i, m
		g.Go(func() error {
			rep, err := r.AnalyzeCompany(gctx, m.Ticker, freq)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				log.Warn().Err(err).Str("ticker", m.Ticker).Msg("member skipped")
				slots[i].skip = &Skipped{Ticker: m.Ticker, Reason: SkipNoData, Detail: err.Error()}
				return nil
			}
			slots[i].rep = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &SectorReport{
		Sector:      sectorName,
		Members:     members,
		Companies:   make(map[string]*CompanyReport, len(members)),
		Ratios:      make(map[string]models.RatioResult, len(members)),
		Comparisons: make(map[string][]models.PeerMetric, len(members)),
	}
	for i, m := range members {
		key := utils.NormalizeTicker(m.Ticker)
		s := slots[i]
		if s.skip != nil {
			out.Skipped = append(out.Skipped, *s.skip)
			continue
		}
		out.Companies[key] = s.rep
		if s.rep.Statement.Empty() {
			out.Skipped = append(out.Skipped, Skipped{
				Ticker: m.Ticker, Reason: SkipNormalizeEmpty,
				Detail: fmt.Sprintf("%d unmapped labels", len(s.rep.Unmapped)),
			})
			continue
		}
		latest, ok := s.rep.Latest()
		if !ok || latest.DefinedCount() == 0 {
			out.Skipped = append(out.Skipped, Skipped{Ticker: m.Ticker, Reason: SkipNoRatios})
			continue
		}
		out.Ratios[key] = latest
	}

	out.Aggregate = sector.Aggregate(out.Ratios, r.cfg.Membership, sectorName)
	for _, t := range out.Included() {
		peers := make([]models.RatioResult, 0, len(out.Ratios)-1)
		for _, o := range out.Included() {
			if o != t {
				peers = append(peers, out.Ratios[o])
			}
		}
		out.Comparisons[t] = sector.Compare(out.Ratios[t], peers)
	}

	log.Info().Int("members", len(members)).Int("included", len(out.Ratios)).
		Int("skipped", len(out.Skipped)).Msg("sector analyzed")
	return out, nil
}
