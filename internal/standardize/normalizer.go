package standardize

import (
	"github.com/seenimoa/ratiolens/pkg/models"
)

// Conflict records two rows of one period that mapped to the same line item.
// The later row wins unless it carries no value.
type Conflict struct {
	Period       models.Period   `json:"period"`
	Item         models.LineItem `json:"item"`
	KeptLabel    string          `json:"kept_label"`
	KeptValue    models.Value    `json:"kept_value"`
	DroppedLabel string          `json:"dropped_label"`
	DroppedValue models.Value    `json:"dropped_value"`
}

// Report is the full outcome of normalizing one or more raw statements.
type Report struct {
	Statement models.CanonicalStatement `json:"statement"`
	Unmapped  []string                  `json:"unmapped"`
	Conflicts []Conflict                `json:"conflicts,omitempty"`
}

// Normalize maps a raw statement onto the canonical schema. It returns the
// canonical statement and the vendor labels that could not be mapped, each
// listed once in first-seen order. A nil table means DefaultTable.
func Normalize(raw models.RawStatement, table *Table) (models.CanonicalStatement, []string) {
	r := NormalizeReport(raw, table)
	return r.Statement, r.Unmapped
}

// NormalizeReport is Normalize plus the list of resolved conflicts.
func NormalizeReport(raw models.RawStatement, table *Table) Report {
	n := newNormalizer(raw.Ticker, raw.Frequency, table)
	n.add(raw)
	return n.report()
}

// NormalizeAll merges the statements of one company, typically the income,
// balance and cash flow tables, into a single canonical statement whose
// periods are the union of the inputs' periods.
func NormalizeAll(raws []models.RawStatement, table *Table) Report {
	var ticker string
	var freq models.Frequency
	for _, raw := range raws {
		if ticker == "" {
			ticker = raw.Ticker
		}
		if freq == "" {
			freq = raw.Frequency
		}
	}
	n := newNormalizer(ticker, freq, table)
	for _, raw := range raws {
		n.add(raw)
	}
	return n.report()
}

type normalizer struct {
	table     *Table
	b         *models.StatementBuilder
	labels    map[models.Period]map[models.LineItem]string
	seen      map[string]bool
	unmapped  []string
	conflicts []Conflict
}

func newNormalizer(ticker string, freq models.Frequency, table *Table) *normalizer {
	if table == nil {
		table = DefaultTable()
	}
	return &normalizer{
		table:  table,
		b:      models.NewStatementBuilder(ticker, freq),
		labels: make(map[models.Period]map[models.LineItem]string),
		seen:   make(map[string]bool),
	}
}

func (n *normalizer) add(raw models.RawStatement) {
	for _, p := range raw.Periods {
		for _, row := range p.Rows {
			item, ok := n.lookup(raw.Family, row.Label)
			if !ok {
				n.markUnmapped(row.Label)
				continue
			}
			n.record(p.Period, item, row)
		}
	}
}

// lookup resolves a label. When the statement names its family, a label bound
// to an item of another family does not count as mapped.
func (n *normalizer) lookup(f models.Family, label string) (models.LineItem, bool) {
	if f == "" {
		return n.table.Lookup(label)
	}
	return n.table.LookupIn(f, label)
}

func (n *normalizer) markUnmapped(label string) {
	if n.seen[label] {
		return
	}
	n.seen[label] = true
	n.unmapped = append(n.unmapped, label)
}

func (n *normalizer) record(period models.Period, item models.LineItem, row models.RawRow) {
	labels, ok := n.labels[period]
	if !ok {
		labels = make(map[models.LineItem]string)
		n.labels[period] = labels
	}
	prev, exists := n.b.Lookup(period, item)
	if !exists {
		n.b.Set(period, item, row.Value)
		labels[item] = row.Label
		return
	}
	if prev == row.Value {
		// Same value under another label is a duplicate, not a conflict.
		return
	}

	c := Conflict{Period: period, Item: item}
	if row.Value.IsAbsent() && !prev.IsAbsent() {
		// An absent cell carries no information and never erases a value.
		c.KeptLabel, c.KeptValue = labels[item], prev
		c.DroppedLabel, c.DroppedValue = row.Label, row.Value
	} else {
		c.KeptLabel, c.KeptValue = row.Label, row.Value
		c.DroppedLabel, c.DroppedValue = labels[item], prev
		n.b.Set(period, item, row.Value)
		labels[item] = row.Label
	}
	n.conflicts = append(n.conflicts, c)
}

func (n *normalizer) report() Report {
	unmapped := n.unmapped
	if unmapped == nil {
		unmapped = []string{}
	}
	return Report{
		Statement: n.b.Build(),
		Unmapped:  unmapped,
		Conflicts: n.conflicts,
	}
}
