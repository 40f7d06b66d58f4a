package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seenimoa/ratiolens/internal/export"
	"github.com/seenimoa/ratiolens/pkg/models"
)

// outputFlags are shared by company and sector.
type outputFlags struct {
	period    string
	format    string
	outputDir string
	chart     bool
	ratios    []string
}

func addOutputFlags(cmd *cobra.Command, o *outputFlags) {
	cmd.Flags().StringVar(&o.period, "period", "", "annual or quarterly (default from config)")
	cmd.Flags().StringVar(&o.format, "format", "", "output format: "+formatNames()+" (default from config)")
	cmd.Flags().StringVar(&o.outputDir, "output-dir", "", "directory for file formats (default from config)")
	cmd.Flags().BoolVar(&o.chart, "chart", false, "also write an SVG chart")
	cmd.Flags().StringSliceVar(&o.ratios, "ratios", nil, "ratios to chart, e.g. roe,net_margin")
}

// resolve fills unset flags from config.
func (o *outputFlags) resolve() (models.Frequency, export.Format, export.Options, error) {
	freq, err := models.ParseFrequency(orDefault(o.period, cfg.Data.Frequency))
	if err != nil {
		return "", "", export.Options{}, err
	}
	format, err := export.ParseFormat(orDefault(o.format, cfg.Export.Format))
	if err != nil {
		return "", "", export.Options{}, err
	}
	opts := export.Options{
		Dir:   orDefault(o.outputDir, cfg.Export.OutputDir),
		Chart: o.chart || cfg.Export.Chart,
	}
	for _, r := range o.ratios {
		name, err := models.ParseRatioName(r)
		if err != nil {
			return "", "", export.Options{}, err
		}
		opts.ChartRatios = append(opts.ChartRatios, name)
	}
	return freq, format, opts, nil
}

func printWritten(files []string) {
	for _, f := range files {
		fmt.Printf("wrote %s\n", f)
	}
}

// --- Company Command ---

var (
	companyOut   outputFlags
	companyYears int
)

var companyCmd = &cobra.Command{
	Use:   "company TICKER",
	Short: "Normalize, verify and compute ratios for one company",
	Example: `  ratiolens company AAPL
  ratiolens company RELIANCE --source screener --period quarterly --format xlsx
  ratiolens company MSFT --years 3 --format csv --output-dir out --chart`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		freq, format, opts, err := companyOut.resolve()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("years") {
			cfg.Analysis.Years = companyYears
		}
		runner, err := newRunner(optionalMembership(cfg.Data.SectorMapFile))
		if err != nil {
			return err
		}

		rep, err := runner.AnalyzeCompany(cmd.Context(), args[0], freq)
		if err != nil {
			return err
		}

		if format != export.FormatTable {
			files, err := export.WriteCompany(rep, format, opts)
			printWritten(files)
			return err
		}
		if err := export.WriteCompanyText(os.Stdout, rep); err != nil {
			return err
		}
		if opts.Chart {
			files, err := export.WriteCompanyChart(rep, opts)
			printWritten(files)
			return err
		}
		return nil
	},
}

func init() {
	addOutputFlags(companyCmd, &companyOut)
	companyCmd.Flags().IntVar(&companyYears, "years", 0, "number of most recent periods to keep, 0 = all (default from config)")
}

// --- Sector Command ---

var (
	sectorOut     outputFlags
	sectorMapFile string
)

var sectorCmd = &cobra.Command{
	Use:   "sector NAME",
	Short: "Aggregate the latest ratios of every company in a sector",
	Example: `  ratiolens sector Technology --map-file sectors.csv
  ratiolens sector "Consumer Staples" --map-file sectors.tsv --format xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		freq, format, opts, err := sectorOut.resolve()
		if err != nil {
			return err
		}
		mem, err := loadMembership(orDefault(sectorMapFile, cfg.Data.SectorMapFile))
		if err != nil {
			return err
		}
		runner, err := newRunner(mem)
		if err != nil {
			return err
		}

		rep, err := runner.AnalyzeSector(cmd.Context(), args[0], freq)
		if err != nil {
			return err
		}

		if format != export.FormatTable {
			files, err := export.WriteSector(rep, format, opts)
			printWritten(files)
			return err
		}
		if err := export.WriteSectorText(os.Stdout, rep); err != nil {
			return err
		}
		if opts.Chart {
			files, err := export.WriteSectorChart(rep, opts)
			printWritten(files)
			return err
		}
		return nil
	},
}

func init() {
	addOutputFlags(sectorCmd, &sectorOut)
	sectorCmd.Flags().StringVar(&sectorMapFile, "map-file", "", "sector membership CSV/TSV (default from config)")
}

func formatNames() string {
	names := make([]string, 0, len(export.Formats()))
	for _, f := range export.Formats() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}
