package datasource

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/ratiolens/pkg/models"
)

// Fallback tries its sources in order; the first success wins.
type Fallback struct {
	sources []StatementSource
	log     zerolog.Logger
}

// NewFallback chains sources. It panics if none are given.
func NewFallback(logger zerolog.Logger, sources ...StatementSource) *Fallback {
	if len(sources) == 0 {
		panic("datasource: fallback needs at least one source")
	}
	return &Fallback{sources: sources, log: logger}
}

// Name lists the chained sources.
func (f *Fallback) Name() string {
	names := make([]string, len(f.sources))
	for i, s := range f.sources {
		names[i] = s.Name()
	}
	return strings.Join(names, " → ")
}

// Sources returns the chained sources in order.
func (f *Fallback) Sources() []StatementSource { return f.sources }

// Chain returns the sources src tries, in order: the fallback chain, or src
// alone.
func Chain(src StatementSource) []StatementSource {
	if f, ok := src.(*Fallback); ok {
		return f.Sources()
	}
	return []StatementSource{src}
}

// FetchStatement returns the first statement any source delivers. If all
// fail, the error joins every source's error.
func (f *Fallback) FetchStatement(ctx context.Context, ticker string, family models.Family, freq models.Frequency) (models.RawStatement, error) {
	var errs []error
	for _, s := range f.sources {
		raw, err := s.FetchStatement(ctx, ticker, family, freq)
		if err == nil {
			return raw, nil
		}
		if ctx.Err() != nil {
			return models.RawStatement{}, ctx.Err()
		}
		f.log.Debug().Err(err).Str("source", s.Name()).Str("ticker", ticker).
			Str("family", string(family)).Msg("source failed, trying next")
		errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
	}
	return models.RawStatement{}, errors.Join(errs...)
}

// FetchCompanyInfo returns the first profile any source delivers. Fields a
// source leaves blank are filled from later sources.
func (f *Fallback) FetchCompanyInfo(ctx context.Context, ticker string) (models.CompanyInfo, error) {
	var (
		info models.CompanyInfo
		got  bool
		errs []error
	)
	for _, s := range f.sources {
		ci, err := s.FetchCompanyInfo(ctx, ticker)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		if !got {
			info, got = ci, true
		} else {
			info.Name = coalesce(info.Name, ci.Name)
			info.Sector = coalesce(info.Sector, ci.Sector)
			info.Industry = coalesce(info.Industry, ci.Industry)
		}
		if info.Name != "" && info.Sector != "" && info.Industry != "" {
			break
		}
	}
	if !got {
		return models.CompanyInfo{}, errors.Join(errs...)
	}
	return info, nil
}

// FetchAll fetches every statement family of ticker concurrently. Families
// the source cannot serve are left out; it fails only when no family could
// be fetched.
func FetchAll(ctx context.Context, src StatementSource, ticker string, freq models.Frequency) ([]models.RawStatement, error) {
	families := models.Families()
	out := make([]models.RawStatement, len(families))

	var mu sync.Mutex
	var errs []error

	g, gctx := errgroup.WithContext(ctx)
	for i, fam := range families {
		i, fam := i, fam
		g.Go(func() error {
			raw, err := src.FetchStatement(gctx, ticker, fam, freq)
			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", fam, err))
				mu.Unlock()
				return nil // non-fatal
			}
			out[i] = raw
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	got := out[:0]
	for _, raw := range out {
		if raw.Family != "" {
			got = append(got, raw)
		}
	}
	if len(got) == 0 {
		return nil, fmt.Errorf("no statements for %s: %w", ticker, errors.Join(errs...))
	}
	return got, nil
}
