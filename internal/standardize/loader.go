package standardize

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/seenimoa/ratiolens/pkg/models"
)

// Diagnostic describes a table row that was skipped while loading.
type Diagnostic struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

func (d Diagnostic) String() string { return fmt.Sprintf("line %d: %s", d.Line, d.Reason) }

// LoadTable reads a mapping table from path. The format follows the
// extension: .yaml/.yml for YAML, .tsv for tab-separated text, anything else
// comma-separated. Malformed rows are skipped and returned as diagnostics; an
// unreadable file, a missing header or a label conflict fails the load with
// ErrConfiguration.
func LoadTable(path string) (*Table, []Diagnostic, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, eris.Wrapf(ErrConfiguration, "open mapping table %s: %v", path, err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); {
	case ext == ".yaml" || ext == ".yml":
		return ReadTableYAML(f)
	case LooksTabSeparated(path):
		return ReadTable(f, '\t')
	default:
		return ReadTable(f, ',')
	}
}

// ReadTable reads a delimited mapping table with header
// "vendor_label<delim>canonical_key". Columns may appear in any order; extra
// columns are ignored. Lines starting with '#' are comments.
func ReadTable(r io.Reader, delim rune) (*Table, []Diagnostic, error) {
	rows, err := NewTableReader(r, delim)
	if err != nil {
		return nil, nil, err
	}
	labelCol, ok := rows.Column("vendor_label", "label")
	if !ok {
		return nil, nil, eris.Wrap(ErrConfiguration, "mapping table header must contain vendor_label")
	}
	keyCol, ok := rows.Column("canonical_key", "key", "item")
	if !ok {
		return nil, nil, eris.Wrap(ErrConfiguration, "mapping table header must contain canonical_key")
	}

	b := NewTableBuilder()
	var diags []Diagnostic
	for {
		rec, line, err := rows.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			if line == 0 {
				return nil, diags, eris.Wrapf(ErrConfiguration, "read mapping table: %v", err)
			}
			diags = append(diags, Diagnostic{Line: line, Reason: err.Error()})
			continue
		}
		label, key := Field(rec, labelCol), Field(rec, keyCol)
		if label == "" || key == "" {
			diags = append(diags, Diagnostic{Line: line, Reason: "missing vendor_label or canonical_key"})
			continue
		}
		item, err := models.ParseLineItem(key)
		if err != nil {
			diags = append(diags, Diagnostic{Line: line, Reason: err.Error()})
			continue
		}
		if err := b.Add(label, item); err != nil {
			return nil, diags, eris.Wrapf(err, "line %d", line)
		}
	}
	return b.Build(), diags, nil
}

// ReadTableYAML reads a mapping table of the form
//
//	revenue: ["Total Revenue", "Sales"]
//	net_income: ["Net Income"]
func ReadTableYAML(r io.Reader) (*Table, []Diagnostic, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return NewTableBuilder().Build(), nil, nil
		}
		return nil, nil, eris.Wrapf(ErrConfiguration, "parse mapping table: %v", err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, nil, eris.Wrap(ErrConfiguration, "mapping table must be a map of canonical_key to labels")
	}
	root := doc.Content[0]

	b := NewTableBuilder()
	var diags []Diagnostic
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valNode := root.Content[i], root.Content[i+1]
		item, err := models.ParseLineItem(keyNode.Value)
		if err != nil {
			diags = append(diags, Diagnostic{Line: keyNode.Line, Reason: err.Error()})
			continue
		}
		var labels []string
		switch valNode.Kind {
		case yaml.SequenceNode:
			for _, n := range valNode.Content {
				if n.Kind != yaml.ScalarNode || strings.TrimSpace(n.Value) == "" {
					diags = append(diags, Diagnostic{Line: n.Line, Reason: "label must be a non-empty string"})
					continue
				}
				labels = append(labels, n.Value)
			}
		case yaml.ScalarNode:
			if strings.TrimSpace(valNode.Value) != "" {
				labels = append(labels, valNode.Value)
			}
		default:
			diags = append(diags, Diagnostic{Line: valNode.Line, Reason: "labels must be a string or a list of strings"})
			continue
		}
		for _, label := range labels {
			if err := b.Add(label, item); err != nil {
				return nil, diags, eris.Wrapf(err, "line %d", valNode.Line)
			}
		}
	}
	return b.Build(), diags, nil
}

// TableReader reads a delimited configuration table: a header row naming the
// columns, then data rows. Comment lines start with '#'.
type TableReader struct {
	r      *csv.Reader
	header map[string]int
}

// NewTableReader consumes the header row of r. An empty input or unreadable
// header is a configuration error.
func NewTableReader(r io.Reader, delim rune) (*TableReader, error) {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	head, err := cr.Read()
	if err == io.EOF {
		return nil, eris.Wrap(ErrConfiguration, "table is empty, header row required")
	}
	if err != nil {
		return nil, eris.Wrapf(ErrConfiguration, "read header: %v", err)
	}
	header := make(map[string]int, len(head))
	for i, h := range head {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := header[name]; !dup {
			header[name] = i
		}
	}
	return &TableReader{r: cr, header: header}, nil
}

// Column returns the index of the first header name present.
func (t *TableReader) Column(names ...string) (int, bool) {
	for _, n := range names {
		if i, ok := t.header[n]; ok {
			return i, true
		}
	}
	return -1, false
}

// Next returns the next record and its 1-based line number. It returns
// io.EOF after the last row. A malformed row carries its line number; an
// error with line 0 means the input itself failed and reading should stop.
func (t *TableReader) Next() ([]string, int, error) {
	rec, err := t.r.Read()
	if err == io.EOF {
		return nil, 0, io.EOF
	}
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return nil, perr.Line, perr.Err
		}
		return nil, 0, err
	}
	line, _ := t.r.FieldPos(0)
	return rec, line, nil
}

// Field returns column i of rec trimmed, or "" when the row is short.
func Field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// LooksTabSeparated reports whether path names a tab-separated file.
func LooksTabSeparated(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv", ".tab":
		return true
	}
	return false
}
