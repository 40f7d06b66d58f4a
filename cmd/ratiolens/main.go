// ratiolens turns financial statements into standardized ratios.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/seenimoa/ratiolens/internal/analysis/sector"
	"github.com/seenimoa/ratiolens/internal/analysis/verify"
	"github.com/seenimoa/ratiolens/internal/config"
	"github.com/seenimoa/ratiolens/internal/datasource"
	"github.com/seenimoa/ratiolens/internal/logging"
	"github.com/seenimoa/ratiolens/internal/pipeline"
	"github.com/seenimoa/ratiolens/internal/standardize"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger, set in PersistentPreRunE.
var (
	cfg *config.Config
	log zerolog.Logger
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ratiolens",
	Short: "ratiolens: standardized financial ratios from vendor statements",
	Long: `ratiolens fetches income statements, balance sheets and cash flow statements,
maps vendor line-item labels onto a canonical schema, checks the accounting
identities, computes a fixed catalog of financial ratios and aggregates them
across a sector.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}

		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		if src, _ := cmd.Flags().GetString("source"); src != "" {
			cfg.Data.Source = src
		}
		if dir, _ := cmd.Flags().GetString("data-dir"); dir != "" {
			cfg.Data.DataDir = dir
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		log = logging.New(cfg.Logging, os.Stderr)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("source", "", "statement source override (yfinance, screener, dir)")
	rootCmd.PersistentFlags().String("data-dir", "", "statement directory for the dir source")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(companyCmd)
	rootCmd.AddCommand(sectorCmd)
	rootCmd.AddCommand(mappingsCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ratiolens %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the effective configuration and source chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  ratiolens: configuration")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		src, err := datasource.New(cfg.Data, time.Duration(cfg.Analysis.CacheTTL)*time.Second, log)
		if err != nil {
			return err
		}
		fmt.Println("  Sources:")
		for i, s := range datasource.Chain(src) {
			fmt.Printf("    %d. %s\n", i+1, s.Name())
		}
		fmt.Printf("  Data dir:      %s\n", cfg.Data.DataDir)
		fmt.Printf("  Mapping file:  %s\n", orDefault(cfg.Data.MappingFile, "built-in"))
		fmt.Printf("  Sector map:    %s\n", orDefault(cfg.Data.SectorMapFile, "none"))
		fmt.Printf("  Frequency:     %s (last %d periods)\n", cfg.Data.Frequency, cfg.Analysis.Years)
		fmt.Printf("  Tolerance:     %.2f%%\n", cfg.Verify.Tolerance*100)
		fmt.Println()

		fmt.Printf("  Screener.in session: %s\n", cfg.Session())
		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// --- Wiring ---

// loadTable returns the built-in mapping table, overlaid with the configured
// mapping file if any.
func loadTable() (*standardize.Table, error) {
	table := standardize.DefaultTable()
	if cfg.Data.MappingFile == "" {
		return table, nil
	}
	custom, diags, err := standardize.LoadTable(cfg.Data.MappingFile)
	if err != nil {
		return nil, err
	}
	for _, d := range diags {
		log.Warn().Str("file", cfg.Data.MappingFile).Int("line", d.Line).Msg(d.Reason)
	}
	merged, err := table.Merge(custom)
	if err != nil {
		return nil, fmt.Errorf("merge %s with built-in mappings: %w", cfg.Data.MappingFile, err)
	}
	log.Debug().Int("labels", merged.Len()).Str("file", cfg.Data.MappingFile).Msg("mapping table loaded")
	return merged, nil
}

func loadMembership(path string) (*sector.Membership, error) {
	if path == "" {
		return nil, nil
	}
	mem, diags, err := sector.LoadMembership(path)
	if err != nil {
		return nil, err
	}
	for _, d := range diags {
		log.Warn().Str("file", path).Int("line", d.Line).Msg(d.Reason)
	}
	log.Debug().Int("members", mem.Len()).Str("file", path).Msg("sector membership loaded")
	return mem, nil
}

// optionalMembership loads the membership table for runs that only use it to
// fill in display fields. A broken file is logged and ignored.
func optionalMembership(path string) *sector.Membership {
	mem, err := loadMembership(path)
	if err != nil {
		log.Warn().Err(err).Str("file", path).Msg("sector membership ignored")
		return nil
	}
	return mem
}

func newRunner(mem *sector.Membership) (*pipeline.Runner, error) {
	src, err := datasource.New(cfg.Data, time.Duration(cfg.Analysis.CacheTTL)*time.Second, log)
	if err != nil {
		return nil, err
	}
	table, err := loadTable()
	if err != nil {
		return nil, err
	}
	return pipeline.New(pipeline.Config{
		Source:     src,
		Table:      table,
		Membership: mem,
		Verify: verify.Options{
			Tolerance:            cfg.Verify.Tolerance,
			CashFlowAbsTolerance: cfg.Verify.CashFlowAbsTolerance,
			Overrides:            cfg.Verify.Overrides,
		},
		Years:       cfg.Analysis.Years,
		Concurrency: cfg.Analysis.ConcurrentFetches,
		Logger:      log,
	}), nil
}
