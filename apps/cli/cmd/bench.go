package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/awalters-dev/courier/packages/bench"
	"github.com/awalters-dev/courier/packages/core/config"
	"github.com/awalters-dev/courier/packages/http"
	"github.com/awalters-dev/courier/packages/reqfile"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var benchCmd = &cobra.Command{
	Use:   "bench [url]",
	Short: "Benchmark a request",
	Long: `Benchmark a request with a concurrent worker pool and print a latency
summary.

Examples:
  # Fixed request count
  courier bench https://api.example.com/health -n 200 -c 10

  # Duration mode with a rate limit
  courier bench https://api.example.com/health --duration 30s --rate 50

  # Benchmark a request file
  courier bench -f request.yaml -n 500 -c 20`,
	Args: cobra.MaximumNArgs(1),
	RunE: benchCommand,
}

var (
	benchRequestsFlag    int
	benchConcurrencyFlag int
	benchRateFlag        float64
	benchDurationFlag    string
	benchFileFlag        string
)

func init() {
	benchCmd.Flags().IntVarP(&benchRequestsFlag, "requests", "n", 100, "Number of requests to send")
	benchCmd.Flags().IntVarP(&benchConcurrencyFlag, "concurrency", "c", getEnvInt("COURIER_CONCURRENCY", 5), "Number of concurrent workers (env: COURIER_CONCURRENCY)")
	benchCmd.Flags().Float64VarP(&benchRateFlag, "rate", "r", 0, "Target requests per second (0 for unthrottled)")
	benchCmd.Flags().StringVarP(&benchDurationFlag, "duration", "d", "", "Run for a duration instead of a fixed count (e.g., 30s, 5m)")
	benchCmd.Flags().StringVarP(&benchFileFlag, "file", "f", "", "YAML request file describing the request")
	benchCmd.Flags().BoolVar(&noColorFlag, "no-color", getEnvBool("COURIER_NO_COLOR", false), "Disable colored output (env: COURIER_NO_COLOR)")
}

func benchCommand(cmd *cobra.Command, args []string) error {
	if (len(args) == 0) == (benchFileFlag == "") {
		return fmt.Errorf("provide either a URL argument or --file")
	}

	fileConfig, err := config.LoadConfig("")
	if err != nil {
		return err
	}

	client, err := buildBenchClient(fileConfig)
	if err != nil {
		return err
	}

	req, err := buildBenchRequest(fileConfig, args)
	if err != nil {
		return err
	}

	opts := bench.Options{
		Requests:    benchRequestsFlag,
		Concurrency: benchConcurrencyFlag,
		Rate:        benchRateFlag,
	}
	if benchDurationFlag != "" {
		d, err := time.ParseDuration(benchDurationFlag)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		opts.Duration = d
	}

	// Set up signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nReceived interrupt, stopping gracefully...")
		cancel()
	}()

	out := cmd.OutOrStdout()
	if noColorFlag || fileConfig.GetNoColor() {
		color.NoColor = true
	}

	cyan := color.New(color.FgCyan)
	cyan.Fprintf(out, "Benchmarking: %s %s\n", req.Method(), req.URL)

	details := []string{fmt.Sprintf("concurrency %d", opts.Concurrency)}
	if opts.Duration > 0 {
		details = append(details, fmt.Sprintf("duration %s", opts.Duration))
	} else {
		details = append(details, fmt.Sprintf("%d requests", opts.Requests))
	}
	if opts.Rate > 0 {
		details = append(details, fmt.Sprintf("rate %.0f req/s", opts.Rate))
	}
	fmt.Fprintf(out, "%s\n", strings.Join(details, " | "))

	runner := bench.NewRunner(client)
	summary, err := runner.Run(ctx, req, opts)
	if err != nil {
		return err
	}

	renderBenchSummary(out, summary)
	return nil
}

// buildBenchClient assembles a client from the config file alone. Send flags
// do not apply to bench runs.
func buildBenchClient(fileConfig *config.Config) (*http.Client, error) {
	opts := []http.ClientOption{
		http.WithReadTimeout(fileConfig.GetReadTimeout()),
		http.WithConnectTimeout(fileConfig.GetConnectTimeout()),
		http.WithFollowRedirects(fileConfig.GetFollowRedirects()),
		http.WithMaxRedirects(fileConfig.MaxRedirects),
		http.WithUserAgent("courier/" + version),
	}

	if fileConfig.Proxy != "" {
		opts = append(opts, http.WithProxy(fileConfig.Proxy))
	}

	anchors, err := loadAnchors(fileConfig)
	if err != nil {
		return nil, err
	}
	if len(anchors) > 0 {
		opts = append(opts, http.WithTrustAnchors(anchors...))
	}

	client, err := http.NewClient(opts...)
	if err != nil {
		return nil, err
	}

	return client, nil
}

func buildBenchRequest(fileConfig *config.Config, args []string) (*http.Request, error) {
	def := &reqfile.Definition{Method: "GET"}
	if benchFileFlag != "" {
		loaded, err := reqfile.Load(benchFileFlag)
		if err != nil {
			return nil, err
		}
		loaded.Expand(nil)
		def = loaded
	}
	if len(args) == 1 {
		def.URL = args[0]
	}

	def.Headers = append(defaultHeaders(fileConfig), def.Headers...)

	return def.Request()
}

func renderBenchSummary(w io.Writer, s *bench.Summary) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	fmt.Fprintln(w)
	bold.Fprintln(w, "BENCH SUMMARY")
	fmt.Fprintln(w, strings.Repeat("─", 40))

	fmt.Fprintf(w, "Duration:   %s\n", s.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "Total:      ")
	bold.Fprintf(w, "%d", s.Total)
	fmt.Fprintf(w, " requests (%.1f req/s)\n", s.Throughput)

	fmt.Fprintf(w, "Success:    ")
	green.Fprintf(w, "%d\n", s.Successes)

	fmt.Fprintf(w, "Failed:     ")
	if s.Failures > 0 {
		red.Fprintf(w, "%d\n", s.Failures)
	} else {
		fmt.Fprintf(w, "%d\n", s.Failures)
	}

	fmt.Fprintln(w)
	bold.Fprintln(w, "LATENCY")
	fmt.Fprintf(w, "  p50: %-8s | p95: %-8s | p99: %s\n",
		formatLatency(s.P50), formatLatency(s.P95), formatLatency(s.P99))
	fmt.Fprintf(w, "  mean: %-7s | max: %s\n",
		formatLatency(s.Mean), formatLatency(s.Max))
}

func formatLatency(d time.Duration) string {
	return d.Round(10 * time.Microsecond).String()
}
