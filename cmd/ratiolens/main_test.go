package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestOptionalMembership(t *testing.T) {
	log = zerolog.Nop()
	dir := t.TempDir()

	good := filepath.Join(dir, "sectors.csv")
	if err := os.WriteFile(good, []byte("ticker,sector\nAAPL,Technology\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	broken := filepath.Join(dir, "broken.csv")
	if err := os.WriteFile(broken, []byte("ticker,industry\nAAPL,Hardware\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		members int
	}{
		{"not configured", "", 0},
		{"missing file", filepath.Join(dir, "nope.csv"), 0},
		{"missing sector column", broken, 0},
		{"valid", good, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := optionalMembership(tc.path).Len(); got != tc.members {
				t.Errorf("members = %d, want %d", got, tc.members)
			}
		})
	}

	if _, err := loadMembership(broken); err == nil {
		t.Error("sector runs should still reject a broken membership file")
	}
}
