package standardize

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/seenimoa/ratiolens/pkg/models"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadTableCSV(t *testing.T) {
	path := writeFile(t, "labels.csv", `vendor_label,canonical_key
# comment lines are ignored
Turnover,revenue
"Profit after tax",net_income
Goodwill,goodwill
,revenue
Orphan
`)
	table, diags, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	if table.Len() != 2 {
		t.Errorf("Len = %d, want 2", table.Len())
	}
	if li, ok := table.Lookup("turnover"); !ok || li != models.Revenue {
		t.Errorf("turnover -> (%q, %v)", li, ok)
	}
	if li, ok := table.Lookup("Profit after tax"); !ok || li != models.NetIncome {
		t.Errorf("profit after tax -> (%q, %v)", li, ok)
	}
	if len(diags) != 3 {
		t.Fatalf("diagnostics = %v, want 3", diags)
	}
	if diags[0].Line != 5 || !strings.Contains(diags[0].Reason, "goodwill") {
		t.Errorf("first diagnostic = %+v", diags[0])
	}
}

func TestLoadTableTSVColumnOrder(t *testing.T) {
	path := writeFile(t, "labels.tsv", "canonical_key\tvendor_label\tnote\nrevenue\tNet Turnover\tfrom filings\n")
	table, diags, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	if len(diags) != 0 {
		t.Errorf("unexpected diagnostics %v", diags)
	}
	if _, ok := table.Lookup("net turnover"); !ok {
		t.Error("tab-separated label not loaded")
	}
}

func TestLoadTableYAML(t *testing.T) {
	path := writeFile(t, "labels.yaml", `revenue:
  - Turnover
  - Net Turnover
net_income: Profit for the year
goodwill: [Goodwill]
`)
	table, diags, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	if table.Len() != 3 {
		t.Errorf("Len = %d, want 3", table.Len())
	}
	if len(diags) != 1 || diags[0].Line != 5 {
		t.Errorf("diagnostics = %v, want one on line 5", diags)
	}
}

func TestLoadTableConfigurationErrors(t *testing.T) {
	tests := []struct {
		name, file, content string
	}{
		{"missing file", "", ""},
		{"empty", "empty.csv", ""},
		{"no header", "nohead.csv", "Turnover,revenue\n"},
		{"conflict", "conflict.csv", "vendor_label,canonical_key\nSales,revenue\nsales,gross_profit\n"},
		{"yaml conflict", "conflict.yaml", "revenue: [Sales]\ngross_profit: [SALES]\n"},
		{"yaml not a map", "list.yaml", "- revenue\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := "/nonexistent/labels.csv"
			if tc.file != "" {
				path = writeFile(t, tc.file, tc.content)
			}
			_, _, err := LoadTable(path)
			if !errors.Is(err, ErrConfiguration) {
				t.Errorf("err = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestLoadedTableMergesWithDefault(t *testing.T) {
	path := writeFile(t, "labels.csv", "vendor_label,canonical_key\nTotal Revenue,revenue\nTurnover,revenue\n")
	user, _, err := LoadTable(path)
	if err != nil {
		t.Fatal(err)
	}
	merged, err := DefaultTable().Merge(user)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if merged.Len() != DefaultTable().Len()+1 {
		t.Errorf("Len = %d, want %d", merged.Len(), DefaultTable().Len()+1)
	}
}
