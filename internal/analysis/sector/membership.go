package sector

import (
	"io"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/seenimoa/ratiolens/internal/standardize"
)

// Member is one row of the sector membership table.
type Member struct {
	Ticker      string `json:"ticker"`
	Sector      string `json:"sector"`
	Industry    string `json:"industry,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// Membership maps tickers to sectors. The zero value is an empty table.
type Membership struct {
	members map[string]Member
	order   []string
}

// NewMembership builds a membership table. Tickers are matched
// case-insensitively; the first entry for a ticker wins.
func NewMembership(members ...Member) *Membership {
	m := &Membership{members: make(map[string]Member, len(members))}
	for _, mem := range members {
		m.add(mem)
	}
	return m
}

func (m *Membership) add(mem Member) bool {
	key := tickerKey(mem.Ticker)
	if _, dup := m.members[key]; dup {
		return false
	}
	mem.Ticker = strings.TrimSpace(mem.Ticker)
	mem.Sector = strings.TrimSpace(mem.Sector)
	m.members[key] = mem
	m.order = append(m.order, key)
	return true
}

// Len returns the number of members.
func (m *Membership) Len() int {
	if m == nil {
		return 0
	}
	return len(m.order)
}

// Member returns the entry for ticker.
func (m *Membership) Member(ticker string) (Member, bool) {
	if m == nil {
		return Member{}, false
	}
	mem, ok := m.members[tickerKey(ticker)]
	return mem, ok
}

// InSector returns the members of sector in table order. Sector names match
// case-insensitively after trimming.
func (m *Membership) InSector(sector string) []Member {
	if m == nil {
		return nil
	}
	want := sectorKey(sector)
	var out []Member
	for _, key := range m.order {
		if mem := m.members[key]; sectorKey(mem.Sector) == want {
			out = append(out, mem)
		}
	}
	return out
}

// Sectors returns the distinct sector names, sorted.
func (m *Membership) Sectors() []string {
	if m == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, key := range m.order {
		s := m.members[key].Sector
		if k := sectorKey(s); !seen[k] {
			seen[k] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// LoadMembership reads a membership table from path; .tsv files are
// tab-separated, anything else comma-separated.
func LoadMembership(path string) (*Membership, []standardize.Diagnostic, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, eris.Wrapf(standardize.ErrConfiguration, "open membership table %s: %v", path, err)
	}
	defer f.Close()

	delim := ','
	if standardize.LooksTabSeparated(path) {
		delim = '\t'
	}
	return ReadMembership(f, delim)
}

// ReadMembership reads a membership table with header
// "ticker,sector,industry,display_name". Only ticker and sector are required.
// Rows without them, and repeated tickers, are skipped with a diagnostic.
func ReadMembership(r io.Reader, delim rune) (*Membership, []standardize.Diagnostic, error) {
	rows, err := standardize.NewTableReader(r, delim)
	if err != nil {
		return nil, nil, err
	}
	tickerCol, ok := rows.Column("ticker", "symbol")
	if !ok {
		return nil, nil, eris.Wrap(standardize.ErrConfiguration, "membership table header must contain ticker")
	}
	sectorCol, ok := rows.Column("sector")
	if !ok {
		return nil, nil, eris.Wrap(standardize.ErrConfiguration, "membership table header must contain sector")
	}
	industryCol, _ := rows.Column("industry", "naics_code")
	nameCol, _ := rows.Column("display_name", "companyname", "name")

	m := NewMembership()
	var diags []standardize.Diagnostic
	for {
		rec, line, err := rows.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			if line == 0 {
				return nil, diags, eris.Wrapf(standardize.ErrConfiguration, "read membership table: %v", err)
			}
			diags = append(diags, standardize.Diagnostic{Line: line, Reason: err.Error()})
			continue
		}
		mem := Member{
			Ticker:      standardize.Field(rec, tickerCol),
			Sector:      standardize.Field(rec, sectorCol),
			Industry:    standardize.Field(rec, industryCol),
			DisplayName: standardize.Field(rec, nameCol),
		}
		if mem.Ticker == "" || mem.Sector == "" {
			diags = append(diags, standardize.Diagnostic{Line: line, Reason: "missing ticker or sector"})
			continue
		}
		if !m.add(mem) {
			diags = append(diags, standardize.Diagnostic{Line: line, Reason: "duplicate ticker " + mem.Ticker})
		}
	}
	return m, diags, nil
}

func tickerKey(t string) string { return strings.ToUpper(strings.TrimSpace(t)) }

func sectorKey(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
