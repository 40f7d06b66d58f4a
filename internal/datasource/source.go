package datasource

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/seenimoa/ratiolens/internal/config"
)

// Source names accepted in configuration.
const (
	SourceYFinance = "yfinance"
	SourceScreener = "screener"
	SourceDir      = "dir"
)

// New builds the configured source. When fallbacks are configured the
// result is a Fallback trying cfg.Source first.
func New(cfg config.DataConfig, cacheTTL time.Duration, logger zerolog.Logger) (StatementSource, error) {
	opts := Options{
		Timeout:        time.Duration(cfg.TimeoutSec) * time.Second,
		RequestsPerSec: cfg.RequestsPerSec,
		CacheTTL:       cacheTTL,
		Logger:         logger,
	}

	names := append([]string{cfg.Source}, cfg.Fallback...)
	seen := make(map[string]bool, len(names))
	var sources []StatementSource
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		src, err := newNamed(name, cfg, opts, logger)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	if len(sources) == 1 {
		return sources[0], nil
	}
	return NewFallback(logger, sources...), nil
}

func newNamed(name string, cfg config.DataConfig, opts Options, logger zerolog.Logger) (StatementSource, error) {
	switch name {
	case SourceYFinance:
		return NewYFinance(opts, cfg.YahooSuffix), nil
	case SourceScreener:
		return NewScreener(opts, cfg.ScreenerSession), nil
	case SourceDir:
		return NewDir(cfg.DataDir, logger), nil
	}
	return nil, fmt.Errorf("unknown data source %q", name)
}
