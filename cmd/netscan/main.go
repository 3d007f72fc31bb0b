package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/PentesterFlow/NetScan/internal/finding"
	"github.com/PentesterFlow/NetScan/internal/logger"
	"github.com/PentesterFlow/NetScan/internal/metrics"
	"github.com/PentesterFlow/NetScan/internal/output"
	"github.com/PentesterFlow/NetScan/internal/payloads"
	"github.com/PentesterFlow/NetScan/internal/progress"
	"github.com/PentesterFlow/NetScan/internal/shutdown"
	"github.com/PentesterFlow/NetScan/internal/state"
	"github.com/PentesterFlow/NetScan/pkg/scanner"
)

var (
	version = "1.0.0"

	// Global flags
	configFile string
	verbose    bool
	debug      bool

	// Scan flags
	profile     string
	tests       []string
	proxy       string
	maxDepth    int
	maxPages    int
	timeout     int
	rateLimit   time.Duration
	noRender    bool
	evasion     []string
	userAgent   string
	headers     []string
	reportDir   string
	noReport    bool
	historyDB   string
	noHistory   bool
	metricsAddr string
	noProgress  bool

	// Payload preview flags
	paramName string
	encodeAs  string

	// History flags
	historyLimit int
)

// exitInterrupted is the conventional status for a SIGINT-terminated run.
const exitInterrupted = 130

func main() {
	rootCmd := &cobra.Command{
		Use:   "netscan",
		Short: "NetScan - Web Vulnerability Scanner",
		Long: `NetScan - A web vulnerability scanner for authorized security testing.

Crawls a target, derives injectable endpoints and probes them for SQL injection,
XSS, command injection, path traversal, XXE, SSRF and CSRF.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	scanCmd := &cobra.Command{
		Use:   "scan [target]",
		Short: "Scan a target URL",
		Long:  "Crawl a target URL and test every discovered endpoint with the profile's detectors.",
		Args:  cobra.ExactArgs(1),
		RunE:  runScan,
	}

	profilesCmd := &cobra.Command{
		Use:   "profiles",
		Short: "List scan profiles",
		RunE:  runProfiles,
	}

	payloadsCmd := &cobra.Command{
		Use:   "payloads",
		Short: "Preview context-aware payloads for a parameter",
		RunE:  runPayloads,
	}

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded scans",
		RunE:  runHistory,
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("netscan %s (payloads %s)\n", version, payloads.Version)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Debug mode")

	// Scan flags
	scanCmd.Flags().StringVarP(&profile, "profile", "p", scanner.ProfileBalanced, "Scan profile (quick, balanced, aggressive)")
	scanCmd.Flags().StringSliceVar(&tests, "tests", nil, "Run only these tests from the profile (comma-separated)")
	scanCmd.Flags().StringVar(&proxy, "proxy", "", "Proxy URL for all requests")
	scanCmd.Flags().IntVarP(&maxDepth, "max-depth", "d", 0, "Override the profile's crawl depth")
	scanCmd.Flags().IntVar(&maxPages, "max-pages", 0, "Override the profile's page budget")
	scanCmd.Flags().IntVarP(&timeout, "timeout", "t", 0, "Override the profile's request timeout in seconds")
	scanCmd.Flags().DurationVar(&rateLimit, "rate-interval", 500*time.Millisecond, "Minimum spacing between probe requests")
	scanCmd.Flags().BoolVar(&noRender, "no-render", false, "Disable headless browser rendering")
	scanCmd.Flags().StringSliceVar(&evasion, "evasion", nil, "Add encoded payload variants (url, double_url, html, base64, hex)")
	scanCmd.Flags().StringVar(&userAgent, "user-agent", "", "User-Agent header")
	scanCmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "Extra request header (Name: value)")
	scanCmd.Flags().StringVarP(&reportDir, "report-dir", "o", ".", "Directory for report files")
	scanCmd.Flags().BoolVar(&noReport, "no-report", false, "Do not write report files")
	scanCmd.Flags().StringVar(&historyDB, "history-db", defaultHistoryPath(), "Scan history database")
	scanCmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record the scan in the history database")
	scanCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics at this address during the scan")
	scanCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress line")

	// Payload flags
	payloadsCmd.Flags().StringVar(&paramName, "param", "", "Parameter name to select payloads for")
	payloadsCmd.Flags().StringVar(&encodeAs, "encode", "", "Encode payloads (url, double_url, html, base64, hex)")
	payloadsCmd.MarkFlagRequired("param")

	// History flags
	historyCmd.Flags().StringVar(&historyDB, "history-db", defaultHistoryPath(), "Scan history database")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of scans to list (0 for all)")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(profilesCmd)
	rootCmd.AddCommand(payloadsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		var ie *interruptedError
		if errors.As(err, &ie) {
			os.Exit(exitInterrupted)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// interruptedError signals main to exit with 130 after the partial
// results were printed.
type interruptedError struct{ err error }

func (e *interruptedError) Error() string { return e.err.Error() }
func (e *interruptedError) Unwrap() error { return e.err }

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".netscan", "history.db")
	}
	return filepath.Join(home, ".netscan", "history.db")
}

func newLogger() *logger.Logger {
	cfg := logger.DefaultConfig()
	switch {
	case debug:
		cfg.Level = logger.DebugLevel
	case verbose:
		cfg.Level = logger.InfoLevel
	}
	return logger.New(cfg)
}

// buildConfig starts from the config file or the profile preset and applies
// only the flags the user set.
func buildConfig(cmd *cobra.Command, target string) (*scanner.Config, error) {
	var config *scanner.Config
	if configFile != "" {
		fileConfig, err := scanner.LoadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
		config = fileConfig
		if cmd.Flags().Changed("profile") {
			config.Profile = profile
		}
	} else {
		config = scanner.DefaultConfig()
		config.Profile = profile
	}

	config.Target = target

	flags := cmd.Flags()
	if flags.Changed("tests") {
		config.Tests = tests
	}
	if flags.Changed("proxy") {
		config.Proxy = proxy
	}
	if flags.Changed("max-depth") {
		config.MaxDepth = maxDepth
	}
	if flags.Changed("max-pages") {
		config.MaxPages = maxPages
	}
	if flags.Changed("timeout") {
		config.Timeout = time.Duration(timeout) * time.Second
	}
	if flags.Changed("rate-interval") {
		config.RateInterval = rateLimit
	}
	if noRender {
		config.Render = false
	}
	if flags.Changed("evasion") {
		config.Evasion = evasion
	}
	if flags.Changed("user-agent") {
		config.UserAgent = userAgent
	}
	if len(headers) > 0 {
		if config.Headers == nil {
			config.Headers = make(map[string]string, len(headers))
		}
		for _, h := range headers {
			name, value, ok := strings.Cut(h, ":")
			if !ok || strings.TrimSpace(name) == "" {
				return nil, fmt.Errorf("invalid header %q (want Name: value)", h)
			}
			config.Headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
		}
	}

	return config, nil
}

func runScan(cmd *cobra.Command, args []string) error {
	config, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	log := newLogger()
	collector := metrics.New()

	opts := []scanner.Option{
		scanner.WithConfig(config),
		scanner.WithLogger(log),
		scanner.WithMetrics(collector),
	}

	enableProgress := !noProgress && !verbose && !debug
	if enableProgress {
		opts = append(opts, scanner.WithProgress(progress.New(os.Stderr)))
	}

	s, err := scanner.New(opts...)
	if err != nil {
		return err
	}

	handler := shutdown.New(context.Background(), shutdown.Config{
		Timeout: 10 * time.Second,
		OnInterrupt: func(sig os.Signal) {
			fmt.Fprintf(os.Stderr, "\nReceived %v, stopping scan...\n", sig)
		},
		OnForce: func(sig os.Signal) {
			fmt.Fprintln(os.Stderr, "\nForced exit")
			os.Exit(exitInterrupted)
		},
	})
	defer handler.Shutdown()

	if metricsAddr != "" {
		srv, err := metrics.Serve(metricsAddr, collector)
		if err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		handler.RegisterServer("metrics", srv)
		log.Infof("metrics available at http://%s/metrics", srv.Addr())
	}

	var history state.HistoryStore
	if !noHistory {
		store, err := state.NewBoltStore(historyDB)
		if err != nil {
			log.WithError(err).Warn("scan history disabled")
		} else {
			history = store
			handler.RegisterFunc("history", func() { store.Close() })
		}
	}

	printBanner(s)

	result, runErr := s.Run(handler.Context())
	if result == nil {
		return runErr
	}

	var reports []string
	if !noReport {
		reports, err = output.WriteReports(reportDir, result.Report())
		if err != nil {
			log.WithError(err).Error("failed to write reports")
		}
	}

	if history != nil {
		if err := history.Save(result.Record(reports)); err != nil {
			log.WithError(err).Warn("failed to record scan history")
		}
	}

	printSummary(result, reports)

	switch {
	case errors.Is(runErr, scanner.ErrInterrupted):
		return &interruptedError{err: runErr}
	case runErr != nil:
		return runErr
	}
	return nil
}

func runProfiles(cmd *cobra.Command, args []string) error {
	fmt.Printf("%-12s %-10s %-10s %-10s %s\n", "PROFILE", "MAX DEPTH", "MAX PAGES", "TIMEOUT", "TESTS")
	for _, p := range scanner.Profiles() {
		fmt.Printf("%-12s %-10d %-10d %-10s %s\n",
			p.Name, p.MaxDepth, p.MaxPages, p.Timeout, strings.Join(p.Tests, ", "))
	}
	fmt.Println()
	fmt.Printf("Available tests: %s\n", strings.Join(scanner.AllTests(), ", "))
	return nil
}

func runPayloads(cmd *cobra.Command, args []string) error {
	list := payloads.ForContext(paramName, rand.New(rand.NewSource(time.Now().UnixNano())))

	if encodeAs != "" {
		t, err := payloads.ParseTechnique(encodeAs)
		if err != nil {
			return err
		}
		for i, p := range list {
			list[i] = payloads.Obfuscate(p, t)
		}
	}

	fmt.Printf("Payloads for parameter %q:\n", paramName)
	for i, p := range list {
		fmt.Printf("  %2d. %s\n", i+1, p)
	}
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := state.NewBoltStore(historyDB)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	records, err := store.List(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("No scans recorded")
		return nil
	}

	fmt.Printf("%-36s  %-19s  %-11s  %-11s  %-8s  %s\n", "ID", "STARTED", "PROFILE", "OUTCOME", "FINDINGS", "TARGET")
	for _, rec := range records {
		fmt.Printf("%-36s  %-19s  %-11s  %-11s  %-8d  %s\n",
			rec.ID, rec.StartedAt.Format("2006-01-02 15:04:05"), rec.Profile, rec.Outcome, rec.Total(), rec.Target)
	}
	return nil
}

func printBanner(s *scanner.Scanner) {
	p := s.Profile()
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                        NetScan v1.0                          ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("Target:     %s\n", s.Target())
	fmt.Printf("Profile:    %s (depth %d, %d pages, %s timeout)\n", p.Name, p.MaxDepth, p.MaxPages, p.Timeout)
	fmt.Printf("Tests:      %s\n", strings.Join(s.Tests(), ", "))
	fmt.Println()
}

func printSummary(result *scanner.Result, reports []string) {
	sum := result.Summary

	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                        Scan Summary                          ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("Outcome:            %s\n", result.Outcome)
	fmt.Printf("Duration:           %v\n", sum.Duration.Round(time.Second))
	fmt.Printf("Pages Crawled:      %d\n", sum.PagesCrawled)
	fmt.Printf("Endpoints Tested:   %d\n", sum.EndpointsTested)
	fmt.Printf("Requests:           %d (%d cached, %d retries, %d errors)\n",
		sum.Requests.Total, sum.Requests.CacheHits, sum.Requests.Retries, sum.Requests.Errors)
	fmt.Printf("Findings:           %d\n", sum.TotalFindings)
	for _, sev := range finding.Severities() {
		fmt.Printf("  %-10s %d\n", strings.ToUpper(string(sev)), sum.Counts[string(sev)])
	}
	fmt.Println()

	if top := result.Top(5); len(top) > 0 {
		fmt.Println("Top Findings:")
		for i, f := range top {
			fmt.Printf("  %d. [%s] %s\n", i+1, strings.ToUpper(string(f.Severity)), f.Type)
			fmt.Printf("     %s %s", f.Method, f.URL)
			if f.Parameter != "" {
				fmt.Printf(" (%s)", f.Parameter)
			}
			fmt.Println()
		}
		if len(result.Findings) > 5 {
			fmt.Printf("  ... and %d more\n", len(result.Findings)-5)
		}
		fmt.Println()
	}

	if len(reports) > 0 {
		fmt.Println("Reports:")
		for _, path := range reports {
			fmt.Printf("  %s\n", path)
		}
		fmt.Println()
	}
}
