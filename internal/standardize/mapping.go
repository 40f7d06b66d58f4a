// Package standardize maps vendor statement labels onto the canonical line
// item vocabulary and folds raw statement tables into canonical statements.
package standardize

import (
	"errors"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"

	"github.com/seenimoa/ratiolens/pkg/models"
)

// ErrConfiguration marks a mapping or membership table that cannot be used.
// It is scoped to the one load that produced it.
var ErrConfiguration = errors.New("configuration error")

// NormalizeLabel canonicalizes a vendor label for lookup: surrounding space is
// trimmed, case is folded and internal whitespace runs collapse to one space.
func NormalizeLabel(label string) string {
	return strings.Join(strings.Fields(cases.Fold().String(label)), " ")
}

// Table is an immutable vendor label → line item mapping. Many labels may map
// to one item; no label maps to two items. Safe for concurrent reads.
type Table struct {
	labels map[string]models.LineItem
	// display keeps the first spelling seen for each normalized label.
	display map[string]string
}

// Entry is one label binding of a table.
type Entry struct {
	Label string          `json:"label" yaml:"label"`
	Item  models.LineItem `json:"item"  yaml:"item"`
}

// Lookup resolves a vendor label. Unknown labels return false.
func (t *Table) Lookup(label string) (models.LineItem, bool) {
	if t == nil {
		return "", false
	}
	li, ok := t.labels[NormalizeLabel(label)]
	return li, ok
}

// LookupIn resolves a vendor label, accepting only items of family f.
func (t *Table) LookupIn(f models.Family, label string) (models.LineItem, bool) {
	li, ok := t.Lookup(label)
	if !ok || li.Family() != f {
		return "", false
	}
	return li, true
}

// Len returns the number of distinct normalized labels.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.labels)
}

// LabelsFor returns the labels bound to item, sorted.
func (t *Table) LabelsFor(item models.LineItem) []string {
	var out []string
	for norm, li := range t.labels {
		if li == item {
			out = append(out, t.display[norm])
		}
	}
	sort.Strings(out)
	return out
}

// Entries returns every binding, ordered by canonical item then label.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.labels))
	for norm, li := range t.labels {
		out = append(out, Entry{Label: t.display[norm], Item: li})
	}
	order := make(map[models.LineItem]int)
	for i, li := range models.AllLineItems() {
		order[li] = i
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Item != out[j].Item {
			return order[out[i].Item] < order[out[j].Item]
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// Missing returns the canonical items no label maps to.
func (t *Table) Missing() []models.LineItem {
	bound := make(map[models.LineItem]bool)
	for _, li := range t.labels {
		bound[li] = true
	}
	var out []models.LineItem
	for _, li := range models.AllLineItems() {
		if !bound[li] {
			out = append(out, li)
		}
	}
	return out
}

// Merge overlays other on t and returns a new table. A label bound to
// different items in the two tables is a configuration error.
func (t *Table) Merge(other *Table) (*Table, error) {
	b := NewTableBuilder()
	for _, src := range []*Table{t, other} {
		if src == nil {
			continue
		}
		for norm, li := range src.labels {
			if err := b.Add(src.display[norm], li); err != nil {
				return nil, err
			}
		}
	}
	return b.Build(), nil
}

// TableBuilder accumulates label bindings for a Table.
type TableBuilder struct {
	labels  map[string]models.LineItem
	display map[string]string
}

// NewTableBuilder returns an empty builder.
func NewTableBuilder() *TableBuilder {
	return &TableBuilder{
		labels:  make(map[string]models.LineItem),
		display: make(map[string]string),
	}
}

// Add binds label to item. Re-adding the same binding is a no-op; binding a
// label to a second item fails with ErrConfiguration.
func (b *TableBuilder) Add(label string, item models.LineItem) error {
	if !item.Valid() {
		return eris.Wrapf(ErrConfiguration, "unknown canonical line item %q", item)
	}
	norm := NormalizeLabel(label)
	if norm == "" {
		return eris.Wrap(ErrConfiguration, "empty vendor label")
	}
	if prev, ok := b.labels[norm]; ok {
		if prev != item {
			return eris.Wrapf(ErrConfiguration, "label %q maps to both %s and %s", label, prev, item)
		}
		return nil
	}
	b.labels[norm] = item
	b.display[norm] = strings.TrimSpace(label)
	return nil
}

// Build freezes the accumulated bindings. The builder may keep being used;
// later additions do not affect tables already built.
func (b *TableBuilder) Build() *Table {
	t := &Table{
		labels:  make(map[string]models.LineItem, len(b.labels)),
		display: make(map[string]string, len(b.display)),
	}
	for k, v := range b.labels {
		t.labels[k] = v
	}
	for k, v := range b.display {
		t.display[k] = v
	}
	return t
}
