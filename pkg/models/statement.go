package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Frequency is the reporting interval of a statement.
type Frequency string

const (
	Annual    Frequency = "annual"
	Quarterly Frequency = "quarterly"
)

// ParseFrequency resolves "annual" / "quarterly" (case-insensitive).
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "annual", "yearly", "a", "y":
		return Annual, nil
	case "quarterly", "quarter", "q":
		return Quarterly, nil
	}
	return "", fmt.Errorf("unknown frequency %q (want annual or quarterly)", s)
}

// Period is the end date of a reporting interval, formatted YYYY-MM-DD.
// Lexical order equals chronological order.
type Period string

const periodLayout = "2006-01-02"

// ParsePeriod converts a vendor period heading into a Period.
// Accepted: ISO dates and timestamps, "Mar 2024" / "March 2024" (month end),
// "2024-03" (month end), and bare years (December 31).
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("empty period")
	}
	for _, layout := range []string{periodLayout, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return PeriodOf(t), nil
		}
	}
	for _, layout := range []string{"Jan 2006", "January 2006", "2006-01", "Jan-2006", "01/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return PeriodOf(monthEnd(t)), nil
		}
	}
	if y, err := strconv.Atoi(s); err == nil && y > 1800 && y < 3000 {
		return PeriodOf(time.Date(y, time.December, 31, 0, 0, 0, 0, time.UTC)), nil
	}
	return "", fmt.Errorf("unrecognized period %q", s)
}

// PeriodOf formats a date as a Period.
func PeriodOf(t time.Time) Period { return Period(t.UTC().Format(periodLayout)) }

// Time returns the period end as a UTC date. Zero time if malformed.
func (p Period) Time() time.Time {
	t, _ := time.Parse(periodLayout, string(p))
	return t
}

func monthEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC)
}

// PeriodOrder states how a source orders its periods.
type PeriodOrder string

const (
	MostRecentFirst PeriodOrder = "most_recent_first"
	OldestFirst     PeriodOrder = "oldest_first"
)

// RawRow is one vendor-labelled cell of a raw statement period.
type RawRow struct {
	Label string `json:"label"`
	Value Value  `json:"value"`
}

// RawPeriod is one reporting period of a raw statement, rows in source order.
type RawPeriod struct {
	Period Period   `json:"period"`
	Rows   []RawRow `json:"rows"`
}

// RawStatement is a vendor statement table as fetched. It is owned by the
// caller; the core only reads it.
type RawStatement struct {
	Ticker    string      `json:"ticker"`
	Family    Family      `json:"family"`
	Frequency Frequency   `json:"frequency"`
	Order     PeriodOrder `json:"order"`
	Periods   []RawPeriod `json:"periods"`
}

// Empty reports whether the statement carries no rows at all.
func (r RawStatement) Empty() bool {
	for _, p := range r.Periods {
		if len(p.Rows) > 0 {
			return false
		}
	}
	return true
}

// CompanyInfo describes a company for sector grouping and display.
type CompanyInfo struct {
	Ticker   string `json:"ticker"`
	Name     string `json:"name"`
	Sector   string `json:"sector"`
	Industry string `json:"industry"`
}

// CanonicalStatement maps (line item, period) to a value. Periods are kept
// most recent first. Build one with a StatementBuilder; it is read-only after.
type CanonicalStatement struct {
	ticker    string
	frequency Frequency
	periods   []Period
	values    map[Period]map[LineItem]Value
}

// Ticker returns the company ticker the statement belongs to.
func (s CanonicalStatement) Ticker() string { return s.ticker }

// Frequency returns the reporting frequency.
func (s CanonicalStatement) Frequency() Frequency { return s.frequency }

// Periods returns the periods, most recent first. The slice is a copy.
func (s CanonicalStatement) Periods() []Period {
	out := make([]Period, len(s.periods))
	copy(out, s.periods)
	return out
}

// Latest returns the most recent period.
func (s CanonicalStatement) Latest() (Period, bool) {
	if len(s.periods) == 0 {
		return "", false
	}
	return s.periods[0], true
}

// Empty reports whether no period carries any value.
func (s CanonicalStatement) Empty() bool { return len(s.periods) == 0 }

// Head returns a statement holding only the n most recent periods. n <= 0
// keeps every period. Value maps are shared, which is safe because both
// statements are read-only.
func (s CanonicalStatement) Head(n int) CanonicalStatement {
	if n <= 0 || n >= len(s.periods) {
		return s
	}
	out := CanonicalStatement{
		ticker:    s.ticker,
		frequency: s.frequency,
		periods:   append([]Period(nil), s.periods[:n]...),
		values:    make(map[Period]map[LineItem]Value, n),
	}
	for _, p := range out.periods {
		out.values[p] = s.values[p]
	}
	return out
}

// Get returns the value of item in period, absent when not recorded.
func (s CanonicalStatement) Get(item LineItem, period Period) Value {
	return s.values[period][item]
}

// Has reports whether item was mapped for period (the value may be absent).
func (s CanonicalStatement) Has(item LineItem, period Period) bool {
	_, ok := s.values[period][item]
	return ok
}

// Items returns every line item recorded in any period, in canonical order.
func (s CanonicalStatement) Items() []LineItem {
	seen := make(map[LineItem]bool)
	for _, vals := range s.values {
		for li := range vals {
			seen[li] = true
		}
	}
	out := make([]LineItem, 0, len(seen))
	for li := range seen {
		out = append(out, li)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].order() < out[j].order() })
	return out
}

// Slice returns the single-period view used by the verifier and ratio engine.
func (s CanonicalStatement) Slice(period Period) PeriodData {
	return NewPeriodData(period, s.values[period])
}

// Equal reports whether two statements hold the same periods and values.
func (s CanonicalStatement) Equal(o CanonicalStatement) bool {
	if s.ticker != o.ticker || s.frequency != o.frequency || len(s.periods) != len(o.periods) {
		return false
	}
	for i, p := range s.periods {
		if o.periods[i] != p {
			return false
		}
		a, b := s.values[p], o.values[p]
		if len(a) != len(b) {
			return false
		}
		for li, v := range a {
			w, ok := b[li]
			if !ok || v != w {
				return false
			}
		}
	}
	return true
}

type statementPeriodJSON struct {
	Period Period             `json:"period"`
	Values map[LineItem]Value `json:"values"`
}

// MarshalJSON renders the statement period by period.
func (s CanonicalStatement) MarshalJSON() ([]byte, error) {
	out := struct {
		Ticker    string                `json:"ticker"`
		Frequency Frequency             `json:"frequency"`
		Periods   []statementPeriodJSON `json:"periods"`
	}{Ticker: s.ticker, Frequency: s.frequency}
	for _, p := range s.periods {
		out.Periods = append(out.Periods, statementPeriodJSON{Period: p, Values: s.values[p]})
	}
	return json.Marshal(out)
}

// StatementBuilder accumulates values for a CanonicalStatement.
type StatementBuilder struct {
	ticker    string
	frequency Frequency
	values    map[Period]map[LineItem]Value
}

// NewStatementBuilder starts an empty statement.
func NewStatementBuilder(ticker string, freq Frequency) *StatementBuilder {
	return &StatementBuilder{
		ticker:    ticker,
		frequency: freq,
		values:    make(map[Period]map[LineItem]Value),
	}
}

// Set records item for period, replacing any previous value.
func (b *StatementBuilder) Set(period Period, item LineItem, v Value) {
	vals, ok := b.values[period]
	if !ok {
		vals = make(map[LineItem]Value)
		b.values[period] = vals
	}
	vals[item] = v
}

// Lookup returns the value recorded so far and whether one exists.
func (b *StatementBuilder) Lookup(period Period, item LineItem) (Value, bool) {
	v, ok := b.values[period][item]
	return v, ok
}

// Build returns an independent, sorted copy of the accumulated values.
func (b *StatementBuilder) Build() CanonicalStatement {
	stmt := CanonicalStatement{
		ticker:    b.ticker,
		frequency: b.frequency,
		values:    make(map[Period]map[LineItem]Value, len(b.values)),
	}
	for p, vals := range b.values {
		cp := make(map[LineItem]Value, len(vals))
		for li, v := range vals {
			cp[li] = v
		}
		stmt.values[p] = cp
		stmt.periods = append(stmt.periods, p)
	}
	sort.Slice(stmt.periods, func(i, j int) bool { return stmt.periods[i] > stmt.periods[j] })
	return stmt
}

// PeriodData is a read-only view of one period of a canonical statement.
type PeriodData struct {
	Period Period
	values map[LineItem]Value
}

// NewPeriodData copies values into a single-period view.
func NewPeriodData(period Period, values map[LineItem]Value) PeriodData {
	cp := make(map[LineItem]Value, len(values))
	for li, v := range values {
		cp[li] = v
	}
	return PeriodData{Period: period, values: cp}
}

// Get returns the value of item, absent when not recorded.
func (d PeriodData) Get(item LineItem) Value { return d.values[item] }

// Len returns the number of recorded items.
func (d PeriodData) Len() int { return len(d.values) }
