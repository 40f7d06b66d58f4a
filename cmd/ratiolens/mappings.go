package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/seenimoa/ratiolens/internal/standardize"
	"github.com/seenimoa/ratiolens/pkg/models"
)

// --- Mappings Command ---

var mappingsCmd = &cobra.Command{
	Use:   "mappings",
	Short: "Inspect and validate label mapping tables",
}

var mappingsListFamily string

var mappingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the active label mappings (built-in plus data.mapping_file)",
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := loadTable()
		if err != nil {
			return err
		}
		var family models.Family
		if mappingsListFamily != "" {
			if family, err = models.ParseFamily(mappingsListFamily); err != nil {
				return err
			}
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "LABEL\tITEM\tFAMILY")
		for _, e := range table.Entries() {
			if family != "" && e.Item.Family() != family {
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Label, e.Item, e.Item.Family())
		}
		return tw.Flush()
	},
}

var mappingsCheckCmd = &cobra.Command{
	Use:   "check FILE",
	Short: "Validate a mapping table file and report skipped rows",
	Long: `Validate a mapping table file (.csv, .tsv, .yaml). Rows that cannot be used
are reported with their line number; the command fails on unreadable files,
a missing header or a label bound to two different items, including a clash
with the built-in table.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		table, diags, err := standardize.LoadTable(path)
		if err != nil {
			return err
		}
		for _, d := range diags {
			fmt.Printf("%s: %s\n", path, d)
		}
		if _, err := standardize.DefaultTable().Merge(table); err != nil {
			return fmt.Errorf("%s conflicts with the built-in table: %w", path, err)
		}

		fmt.Printf("%s: %d labels, %d rows skipped\n", path, table.Len(), len(diags))
		if missing := table.Missing(); len(missing) > 0 {
			fmt.Printf("items without a label in this file (covered by the built-in table):\n")
			for _, li := range missing {
				fmt.Printf("  %s\n", li)
			}
		}
		return nil
	},
}

func init() {
	mappingsListCmd.Flags().StringVar(&mappingsListFamily, "family", "", "only show one family (income, balance, cashflow)")
	mappingsCmd.AddCommand(mappingsListCmd)
	mappingsCmd.AddCommand(mappingsCheckCmd)
}
