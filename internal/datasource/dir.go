package datasource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/seenimoa/ratiolens/internal/standardize"
	"github.com/seenimoa/ratiolens/pkg/models"
	"github.com/seenimoa/ratiolens/pkg/utils"
)

// Dir reads statements exported to a local directory laid out as
//
//	<root>/<TICKER>/<family>_<frequency>.csv
//	<root>/<TICKER>/info.csv
//
// A statement file has the vendor label in the first column and one column
// per period; its header row names the periods. info.csv holds a header
// "name,sector,industry" and one data row.
type Dir struct {
	root string
	log  zerolog.Logger
}

// NewDir creates a directory-backed source rooted at root.
func NewDir(root string, logger zerolog.Logger) *Dir {
	return &Dir{root: root, log: logger.With().Str("source", "dir").Logger()}
}

// Name returns the data source name.
func (d *Dir) Name() string { return "Local directory" }

// StatementPath returns where the statement for ticker is read from.
func (d *Dir) StatementPath(ticker string, family models.Family, freq models.Frequency) string {
	return filepath.Join(d.root, utils.NormalizeTicker(ticker), fmt.Sprintf("%s_%s.csv", family, freq))
}

// FetchStatement reads one statement file. Periods keep file column order.
func (d *Dir) FetchStatement(ctx context.Context, ticker string, family models.Family, freq models.Frequency) (models.RawStatement, error) {
	if err := ctx.Err(); err != nil {
		return models.RawStatement{}, err
	}
	symbol := utils.NormalizeTicker(ticker)
	if _, err := os.Stat(filepath.Join(d.root, symbol)); errors.Is(err, fs.ErrNotExist) {
		return models.RawStatement{}, fmt.Errorf("%w: %s", ErrTickerNotFound, symbol)
	}

	path := d.StatementPath(symbol, family, freq)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return models.RawStatement{}, fmt.Errorf("dir %s %s %s: %w", symbol, freq, family, ErrNoData)
	}
	if err != nil {
		return models.RawStatement{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	raw, err := ReadStatementCSV(f)
	if err != nil {
		return models.RawStatement{}, fmt.Errorf("read %s: %w", path, err)
	}
	raw.Ticker = symbol
	raw.Family = family
	raw.Frequency = freq
	if raw.Empty() {
		return raw, fmt.Errorf("dir %s %s %s: %w", symbol, freq, family, ErrNoData)
	}
	d.log.Debug().Str("path", path).Int("periods", len(raw.Periods)).Msg("read statement")
	return raw, nil
}

// FetchCompanyInfo reads info.csv. A missing file yields just the ticker.
func (d *Dir) FetchCompanyInfo(ctx context.Context, ticker string) (models.CompanyInfo, error) {
	if err := ctx.Err(); err != nil {
		return models.CompanyInfo{}, err
	}
	symbol := utils.NormalizeTicker(ticker)
	info := models.CompanyInfo{Ticker: symbol}

	f, err := os.Open(filepath.Join(d.root, symbol, "info.csv"))
	if errors.Is(err, fs.ErrNotExist) {
		return info, nil
	}
	if err != nil {
		return info, fmt.Errorf("open info for %s: %w", symbol, err)
	}
	defer f.Close()

	rows, err := standardize.NewTableReader(f, ',')
	if err != nil {
		return info, fmt.Errorf("info for %s: %w", symbol, err)
	}
	rec, _, err := rows.Next()
	if err == io.EOF {
		return info, nil
	}
	if err != nil {
		return info, fmt.Errorf("info for %s: %w", symbol, err)
	}
	if i, ok := rows.Column("name", "display_name", "companyname"); ok {
		info.Name = standardize.Field(rec, i)
	}
	if i, ok := rows.Column("sector"); ok {
		info.Sector = standardize.Field(rec, i)
	}
	if i, ok := rows.Column("industry"); ok {
		info.Industry = standardize.Field(rec, i)
	}
	return info, nil
}

// ReadStatementCSV parses a label-by-period table. Header cells after the
// first must be period headings; cells that do not parse as numbers are
// absent.
func ReadStatementCSV(r io.Reader) (models.RawStatement, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	head, err := cr.Read()
	if err == io.EOF {
		return models.RawStatement{Order: models.OldestFirst}, nil
	}
	if err != nil {
		return models.RawStatement{}, fmt.Errorf("read header: %w", err)
	}
	if len(head) < 2 {
		return models.RawStatement{}, fmt.Errorf("header needs a label column and at least one period")
	}

	raw := models.RawStatement{Order: models.OldestFirst}
	for _, h := range head[1:] {
		p, err := models.ParsePeriod(h)
		if err != nil {
			return models.RawStatement{}, fmt.Errorf("header: %w", err)
		}
		raw.Periods = append(raw.Periods, models.RawPeriod{Period: p})
	}
	if len(raw.Periods) > 1 && raw.Periods[0].Period > raw.Periods[len(raw.Periods)-1].Period {
		raw.Order = models.MostRecentFirst
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return models.RawStatement{}, err
		}
		label := strings.TrimSpace(rec[0])
		if label == "" {
			continue
		}
		for i := range raw.Periods {
			v := models.Absent()
			if i+1 < len(rec) {
				if n, ok := utils.ParseNumber(rec[i+1]); ok {
					v = models.Num(n)
				}
			}
			raw.Periods[i].Rows = append(raw.Periods[i].Rows, models.RawRow{Label: label, Value: v})
		}
	}
	return raw, nil
}
