package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"advisor/internal/config"
	"advisor/internal/feed"
	"advisor/internal/recommend"
	"advisor/internal/recon"
	"advisor/internal/store"
	"advisor/pkg/model"
)

var (
	cfgFile    string
	dataDir    string
	stateDir   string
	format     string
	verbose    bool
	universe   string
	symbolList string
	workers    int
	purgeDays  int
	dryRun     bool
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	rootCmd := &cobra.Command{
		Use:   "advisor",
		Short: "Stock recommendation and reconciliation engine",
		Long: `Advisor turns daily price history into tiered recommendations
(tier, target price, stop-loss, confidence, reasoning) and later reconciles
each recommendation against subsequent price action to report whether the
target or the stop-loss was reached first.

Examples:
  advisor analyze --universe watchlist
  advisor analyze --symbols AAPL,MSFT --format json
  advisor recon
  advisor report
  advisor purge --dry-run`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "price data directory (overrides config)")
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", "", "state directory (overrides config)")
	rootCmd.PersistentFlags().StringVar(&format, "format", "table", "output format: table, json")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "show debug output")

	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a symbol universe and store recommendations",
		RunE:  runAnalyze,
	}
	analyzeCmd.Flags().StringVar(&universe, "universe", "watchlist", "named universe from config")
	analyzeCmd.Flags().StringVar(&symbolList, "symbols", "", "comma-separated symbols (overrides universe)")
	analyzeCmd.Flags().IntVar(&workers, "workers", 0, "number of parallel workers (overrides config)")

	reconCmd := &cobra.Command{
		Use:   "recon",
		Short: "Reconcile stored recommendations against later price action",
		RunE:  runRecon,
	}

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Print the aggregate performance report",
		RunE:  runReport,
	}

	purgeCmd := &cobra.Command{
		Use:   "purge",
		Short: "Remove recommendations and records past the retention horizon",
		RunE:  runPurge,
	}
	purgeCmd.Flags().IntVar(&purgeDays, "days", 0, "age threshold in days (overrides config)")
	purgeCmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would be removed without removing")

	rootCmd.AddCommand(analyzeCmd, reconCmd, reportCmd, purgeCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads and validates configuration and opens the store. A
// configuration error is fatal before any per-symbol work begins.
func setup() (*config.Config, *store.FileStore, *feed.FileSupplier, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if stateDir != "" {
		cfg.StateDir = stateDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	st, err := store.NewFileStore(cfg.StateDir)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, st, feed.NewFileSupplier(cfg.DataDir), nil
}

func interruptibleContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupted.")
		cancel()
	}()
	return ctx, cancel
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, st, supplier, err := setup()
	if err != nil {
		return err
	}
	if workers > 0 {
		cfg.Runner.Workers = workers
	}

	var symbols []string
	if symbolList != "" {
		for _, s := range strings.Split(symbolList, ",") {
			if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
				symbols = append(symbols, s)
			}
		}
	} else {
		symbols, err = cfg.Universe(universe)
		if err != nil {
			return err
		}
	}
	if len(symbols) == 0 {
		return fmt.Errorf("no symbols to analyze")
	}

	ctx, cancel := interruptibleContext()
	defer cancel()

	runner := recommend.NewRunner(cfg, supplier)

	bar := newProgressBar(len(symbols), "Analyzing")
	runner.SetProgressCallback(func(done, total int) {
		bar.Set(done)
	})

	result := runner.Run(ctx, symbols)
	bar.Finish()
	fmt.Println()

	// One latest-pointer write per symbol, plus the immutable daily history
	for _, rec := range result.Recommendations {
		if err := st.PutLatest(rec); err != nil {
			return fmt.Errorf("storing recommendation for %s: %w", rec.Symbol, err)
		}
	}
	if len(result.Recommendations) > 0 {
		date := result.Recommendations[0].AsOfDate
		if err := st.PutHistory(date, result.Recommendations); err != nil {
			return fmt.Errorf("storing history: %w", err)
		}
	}

	if format == "json" {
		return outputJSON(result)
	}
	printBatchTable(result)
	return nil
}

func runRecon(cmd *cobra.Command, args []string) error {
	cfg, st, supplier, err := setup()
	if err != nil {
		return err
	}

	ctx, cancel := interruptibleContext()
	defer cancel()

	engine := recon.NewEngine(cfg.Retention.HorizonDays)
	outcome, err := recon.NewRunner(engine, st, supplier).Run(ctx)
	if err != nil {
		return fmt.Errorf("reconciliation: %w", err)
	}

	if format == "json" {
		return outputJSON(outcome)
	}
	printReconTable(outcome)
	printReportTable(outcome.Report)
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	_, st, _, err := setup()
	if err != nil {
		return err
	}

	records, err := st.Reconciliations()
	if err != nil {
		return err
	}
	report := recon.Summarize(records)

	if format == "json" {
		return outputJSON(report)
	}
	printReportTable(report)
	return nil
}

func runPurge(cmd *cobra.Command, args []string) error {
	cfg, st, _, err := setup()
	if err != nil {
		return err
	}

	days := cfg.Retention.MaxAgeDays
	if purgeDays > 0 {
		days = purgeDays
	}
	cutoff := time.Now().AddDate(0, 0, -days)

	removed, err := st.Purge(cutoff, dryRun)
	if err != nil {
		return fmt.Errorf("purge: %w", err)
	}

	if dryRun {
		fmt.Printf("Would remove %d entries older than %s:\n", len(removed), cutoff.Format("2006-01-02"))
	} else {
		fmt.Printf("Removed %d entries older than %s:\n", len(removed), cutoff.Format("2006-01-02"))
	}
	for _, key := range removed {
		fmt.Printf("  %s\n", key)
	}
	return nil
}

func newProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]█[reset]",
			SaucerHead:    "[green]█[reset]",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printBatchTable(result *model.BatchResult) {
	fmt.Printf("Analyzed %d symbols (%d ok, %d failed) in %s\n\n",
		len(result.Recommendations)+len(result.Failures),
		len(result.Recommendations), len(result.Failures),
		result.Elapsed.Round(time.Millisecond))

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Symbol", "Tier", "Score", "Price", "Target", "Stop", "Confidence"}),
	)
	for _, r := range result.Recommendations {
		table.Append([]string{
			r.Symbol,
			string(r.Tier),
			fmt.Sprintf("%+.3f", r.Score),
			fmt.Sprintf("%.2f", r.CurrentPrice),
			fmt.Sprintf("%.2f", r.TargetPrice),
			fmt.Sprintf("%.2f", r.StopLossPrice),
			string(r.Confidence),
		})
	}
	table.Render()

	if len(result.Failures) > 0 {
		fmt.Println("\nFailures:")
		for _, f := range result.Failures {
			fmt.Printf("  %s: %s\n", f.Symbol, f.Reason)
		}
	}

	summary := result.Summarize()
	fmt.Printf("\nAverage score: %+.3f | Tiers:", summary.AverageScore)
	for _, tier := range []model.Tier{model.TierStrongBuy, model.TierBuy, model.TierHold, model.TierSell, model.TierStrongSell} {
		if n := summary.TierCounts[tier]; n > 0 {
			fmt.Printf(" %s=%d", tier, n)
		}
	}
	fmt.Println()
}

func printReconTable(outcome *recon.BatchOutcome) {
	fmt.Printf("Updated %d records (%d failures)\n\n", len(outcome.Updated), len(outcome.Failures))

	if len(outcome.Updated) > 0 {
		table := tablewriter.NewTable(os.Stdout,
			tablewriter.WithHeader([]string{"Symbol", "As Of", "Tier", "Status", "Days"}),
		)
		for _, r := range outcome.Updated {
			table.Append([]string{
				r.Symbol,
				r.AsOfDate.Format("2006-01-02"),
				string(r.Tier),
				string(r.Status),
				fmt.Sprintf("%d", r.DaysElapsed),
			})
		}
		table.Render()
	}

	for _, f := range outcome.Failures {
		fmt.Printf("  %s: %s\n", f.Symbol, f.Reason)
	}
	fmt.Println()
}

func printReportTable(report recon.Report) {
	fmt.Printf("Performance over %d records (%d evaluable, %d unresolved)\n",
		report.Total, report.Evaluable, report.Unresolved)
	if report.Evaluable > 0 {
		fmt.Printf("Success rate: %.1f%%\n", report.SuccessRate*100)
	}
	fmt.Println()

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Tier", "Resolved", "Target Met", "Stop Hit", "Mean Days", "Median Days"}),
	)
	for _, tp := range report.ByTier {
		table.Append([]string{
			string(tp.Tier),
			fmt.Sprintf("%d", tp.Resolved),
			fmt.Sprintf("%d", tp.TargetMet),
			fmt.Sprintf("%d", tp.StopLossHit),
			fmt.Sprintf("%.1f", tp.MeanDays),
			fmt.Sprintf("%.1f", tp.MedianDays),
		})
	}
	table.Render()
}
