package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/awalters-dev/courier/packages/core/config"
	"github.com/awalters-dev/courier/packages/history"
	"github.com/awalters-dev/courier/packages/http"
	"github.com/awalters-dev/courier/packages/output"
	"github.com/awalters-dev/courier/packages/reqfile"
	"github.com/awalters-dev/courier/packages/trust"
	"github.com/awalters-dev/courier/packages/validate"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send [url]",
	Short: "Send an HTTP request",
	Long: `Send a single HTTP request described by flags or a request file.

Examples:
  courier send https://api.example.com/users
  courier send https://api.example.com/users -X POST -d '{"name":"ada"}'
  courier send https://api.example.com/users -H "X-Tenant: acme" -H "X-Tenant: beta"
  courier send -f request.yaml
  courier send -f request.yaml --var HOST=staging.example.com --watch
  courier send https://internal.example.com --ca ./ca.pem
  courier send https://api.example.com/users/7 --query "name"`,
	Args: cobra.MaximumNArgs(1),
	RunE: sendCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	methodFlag         string
	headerFlags        []string
	dataFlag           string
	fileFlag           string
	varFlags           []string
	userFlag           string
	bearerFlag         string
	requestIDFlag      bool
	timeoutFlag        string
	connectTimeoutFlag string
	noFollowFlag       bool
	maxRedirectsFlag   int
	caFlags            []string
	proxyFlag          string
	outputFlag         string
	queryFlag          string
	includeFlag        bool
	noColorFlag        bool
	verboseFlag        bool
	schemaFlag         string
	watchFlag          bool
	noHistoryFlag      bool
	configFlag         string
)

// addSendFlags registers the send flag set. The verb shorthands share the
// same flag variables, so only one command parses them per invocation.
func addSendFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	// Request flags
	flags.StringVarP(&methodFlag, "method", "X", "", "HTTP method (default GET, or the request file's method)")
	flags.StringArrayVarP(&headerFlags, "header", "H", nil, `Request header as "Name: Value" (repeatable)`)
	flags.StringVarP(&dataFlag, "data", "d", "", "Request body")
	flags.StringVarP(&fileFlag, "file", "f", "", "YAML request file describing the request")
	flags.StringArrayVar(&varFlags, "var", nil, "Request file variable as KEY=VALUE (repeatable)")

	// Auth flags
	flags.StringVarP(&userFlag, "user", "u", getEnvString("COURIER_USER", ""), "Basic auth credentials as user:pass (env: COURIER_USER)")
	flags.StringVar(&bearerFlag, "bearer", getEnvString("COURIER_BEARER", ""), "Bearer token for the Authorization header (env: COURIER_BEARER)")
	flags.BoolVar(&requestIDFlag, "request-id", false, "Stamp a fresh X-Request-Id header on every dispatch")

	// Network flags
	flags.StringVar(&timeoutFlag, "timeout", getEnvString("COURIER_TIMEOUT", ""), "Read timeout (e.g., 30s, 1m, 500ms) (env: COURIER_TIMEOUT)")
	flags.StringVar(&connectTimeoutFlag, "connect-timeout", getEnvString("COURIER_CONNECT_TIMEOUT", ""), "Connect timeout (e.g., 3s) (env: COURIER_CONNECT_TIMEOUT)")
	flags.BoolVar(&noFollowFlag, "no-follow", getEnvBool("COURIER_NO_FOLLOW", false), "Do not follow redirects (env: COURIER_NO_FOLLOW)")
	flags.IntVar(&maxRedirectsFlag, "max-redirects", -1, "Maximum redirect hops to follow (default from config)")
	flags.StringArrayVar(&caFlags, "ca", nil, "PEM or DER file with an additional trust anchor (repeatable)")
	flags.StringVar(&proxyFlag, "proxy", getEnvString("COURIER_PROXY", ""), "Proxy URL for outbound requests (env: COURIER_PROXY)")

	// Output flags
	flags.StringVarP(&outputFlag, "output", "o", getEnvString("COURIER_OUTPUT", "console"), "Output format: console, json (env: COURIER_OUTPUT)")
	flags.StringVarP(&queryFlag, "query", "q", "", "Print only the value at this GJSON path of the response body")
	flags.BoolVarP(&includeFlag, "include", "i", false, "Include response headers in the output")
	flags.BoolVar(&noColorFlag, "no-color", getEnvBool("COURIER_NO_COLOR", false), "Disable colored output (env: COURIER_NO_COLOR)")
	flags.BoolVarP(&verboseFlag, "verbose", "v", false, "Log request dispatch and redirects to stderr")

	// Validation flags
	flags.StringVar(&schemaFlag, "schema", "", "Validate the response body against this JSON Schema file")

	// Workflow flags
	flags.BoolVarP(&watchFlag, "watch", "w", false, "Watch the request file and re-send on change (requires --file)")
	flags.BoolVar(&noHistoryFlag, "no-history", false, "Do not record this request in history")
	flags.StringVar(&configFlag, "config", getEnvString("COURIER_CONFIG", ""), "Path to config file (env: COURIER_CONFIG)")
}

func init() {
	addSendFlags(sendCmd)
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func sendCommand(cmd *cobra.Command, args []string) error {
	if fileFlag == "" && len(args) == 0 {
		return fmt.Errorf("provide a URL argument or --file")
	}
	if watchFlag && fileFlag == "" {
		return fmt.Errorf("--watch requires --file")
	}

	fileConfig, err := config.LoadConfig(configFlag)
	if err != nil {
		return err
	}

	client, err := buildClient(fileConfig)
	if err != nil {
		return err
	}

	noColor := noColorFlag || fileConfig.GetNoColor()
	console := output.NewConsole(
		output.WithWriter(cmd.OutOrStdout()),
		output.WithHeaders(includeFlag),
		output.WithNoColor(noColor),
	)

	err = sendOnce(cmd, client, fileConfig, console, args)
	if !watchFlag {
		return err
	}
	if err != nil {
		console.RenderError(err)
	}

	return watchAndResend(cmd, client, fileConfig, console, args)
}

// buildClient assembles a client from the config file and the network flags.
// Flags win over file values.
func buildClient(fileConfig *config.Config) (*http.Client, error) {
	readTimeout := fileConfig.GetReadTimeout()
	if timeoutFlag != "" {
		d, err := time.ParseDuration(timeoutFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout value %q: %w (use format like 30s, 1m, 500ms)", timeoutFlag, err)
		}
		readTimeout = d
	}

	connectTimeout := fileConfig.GetConnectTimeout()
	if connectTimeoutFlag != "" {
		d, err := time.ParseDuration(connectTimeoutFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid connect-timeout value %q: %w (use format like 30s, 1m, 500ms)", connectTimeoutFlag, err)
		}
		connectTimeout = d
	}

	follow := fileConfig.GetFollowRedirects()
	if noFollowFlag {
		follow = false
	}

	maxRedirects := fileConfig.MaxRedirects
	if maxRedirectsFlag >= 0 {
		maxRedirects = maxRedirectsFlag
	}

	opts := []http.ClientOption{
		http.WithReadTimeout(readTimeout),
		http.WithConnectTimeout(connectTimeout),
		http.WithFollowRedirects(follow),
		http.WithMaxRedirects(maxRedirects),
		http.WithUserAgent("courier/" + version),
	}

	proxy := fileConfig.Proxy
	if proxyFlag != "" {
		proxy = proxyFlag
	}
	if proxy != "" {
		opts = append(opts, http.WithProxy(proxy))
	}

	anchors, err := loadAnchors(fileConfig)
	if err != nil {
		return nil, err
	}
	if len(anchors) > 0 {
		opts = append(opts, http.WithTrustAnchors(anchors...))
	}

	if verboseFlag {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		opts = append(opts, http.WithLogger(logger))
	}

	client, err := http.NewClient(opts...)
	if err != nil {
		return nil, err
	}

	if userFlag != "" {
		username, password, ok := strings.Cut(userFlag, ":")
		if !ok {
			return nil, fmt.Errorf("invalid --user value %q, expected user:pass", userFlag)
		}
		client.AddRequestInterceptor(http.BasicAuth(username, password))
	}
	if bearerFlag != "" {
		client.AddRequestInterceptor(http.BearerAuth(bearerFlag))
	}
	if requestIDFlag {
		client.AddRequestInterceptor(http.RequestID(""))
	}

	return client, nil
}

func loadAnchors(fileConfig *config.Config) ([]*trust.Anchor, error) {
	paths := append([]string{}, fileConfig.CACertFiles...)
	paths = append(paths, caFlags...)

	var anchors []*trust.Anchor
	for _, path := range paths {
		anchor, err := trust.LoadAnchorFile(path)
		if err != nil {
			return nil, err
		}
		anchors = append(anchors, anchor)
	}
	return anchors, nil
}

// buildSendRequest overlays the flags on top of the request file definition
// and validates the combination. Header order is config file, request file,
// then -H flags.
func buildSendRequest(fileConfig *config.Config, args []string) (*http.Request, error) {
	def := &reqfile.Definition{}
	if fileFlag != "" {
		loaded, err := reqfile.Load(fileFlag)
		if err != nil {
			return nil, err
		}
		vars, err := parseVarFlags()
		if err != nil {
			return nil, err
		}
		// Expansion applies to the file's contents only, never to flag or
		// config values.
		loaded.Expand(vars)
		def = loaded
	}

	if len(args) == 1 {
		def.URL = args[0]
	}
	if methodFlag != "" {
		def.Method = strings.ToUpper(methodFlag)
	}
	if def.Method == "" {
		def.Method = "GET"
	}
	if dataFlag != "" {
		def.Body = dataFlag
	}

	headers := defaultHeaders(fileConfig)
	headers = append(headers, def.Headers...)
	for _, raw := range headerFlags {
		header, err := parseHeaderFlag(raw)
		if err != nil {
			return nil, err
		}
		headers = append(headers, header)
	}
	def.Headers = headers

	return def.Request()
}

// defaultHeaders returns the config file's default headers in a stable order.
func defaultHeaders(fileConfig *config.Config) []http.Header {
	names := make([]string, 0, len(fileConfig.Headers))
	for name := range fileConfig.Headers {
		names = append(names, name)
	}
	sort.Strings(names)

	headers := make([]http.Header, 0, len(names))
	for _, name := range names {
		headers = append(headers, http.Header{Name: name, Value: fileConfig.Headers[name]})
	}
	return headers
}

func parseHeaderFlag(raw string) (http.Header, error) {
	name, value, ok := strings.Cut(raw, ":")
	if !ok || strings.TrimSpace(name) == "" {
		return http.Header{}, fmt.Errorf("invalid header %q, expected \"Name: Value\"", raw)
	}
	return http.Header{Name: strings.TrimSpace(name), Value: strings.TrimSpace(value)}, nil
}

func parseVarFlags() (map[string]string, error) {
	if len(varFlags) == 0 {
		return nil, nil
	}
	vars := make(map[string]string, len(varFlags))
	for _, raw := range varFlags {
		key, value, ok := strings.Cut(raw, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid variable %q, expected KEY=VALUE", raw)
		}
		vars[key] = value
	}
	return vars, nil
}

// sendOnce builds the request, executes it, records history, and renders the
// response. The request is rebuilt on every call so watch mode picks up file
// edits.
func sendOnce(cmd *cobra.Command, client *http.Client, fileConfig *config.Config, console *output.Console, args []string) error {
	req, err := buildSendRequest(fileConfig, args)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, execErr := client.Execute(req)
	elapsed := time.Since(start)

	if !noHistoryFlag {
		recordHistory(fileConfig, req, resp, execErr, elapsed)
	}

	if execErr != nil {
		return execErr
	}

	if queryFlag != "" {
		value, err := output.Query(resp.Body, queryFlag)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
	} else if strings.ToLower(outputFlag) == "json" {
		if err := output.RenderJSON(cmd.OutOrStdout(), resp); err != nil {
			return err
		}
	} else {
		console.RenderResponse(resp)
	}

	if schemaFlag != "" {
		result, err := validate.AgainstFile(resp.Body, schemaFlag)
		if err != nil {
			return err
		}
		if err := result.Err(); err != nil {
			return err
		}
	}

	return nil
}

// recordHistory stores the execution outcome. History failures warn instead
// of failing the request.
func recordHistory(fileConfig *config.Config, req *http.Request, resp *http.Response, execErr error, elapsed time.Duration) {
	store, err := history.Open(fileConfig.GetHistoryPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to open history: %v\n", err)
		return
	}
	defer store.Close()

	entry := history.Entry{
		Method:     req.Method(),
		URL:        req.URL,
		DurationMS: elapsed.Milliseconds(),
	}
	if execErr != nil {
		entry.Error = execErr.Error()
		var statusErr *http.UnsuccessfulStatusError
		var redirectErr *http.RedirectError
		if errors.As(execErr, &statusErr) {
			entry.StatusCode = statusErr.StatusCode
		} else if errors.As(execErr, &redirectErr) {
			entry.StatusCode = redirectErr.StatusCode
		}
	} else {
		entry.StatusCode = resp.StatusCode
	}

	if err := store.Record(entry); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to record history: %v\n", err)
	}
}

func watchAndResend(cmd *cobra.Command, client *http.Client, fileConfig *config.Config, console *output.Console, args []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory so editors that replace the file are still seen.
	if err := watcher.Add(filepath.Dir(fileFlag)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", fileFlag, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nWatching %s for changes... (press Ctrl+C to stop)\n", fileFlag)

	target := filepath.Clean(fileFlag)

	// Debounce timer for rapid file changes
	var debounceTimer *time.Timer

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) || filepath.Clean(event.Name) != target {
				continue
			}

			// Debounce: reset timer on each event
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
				fmt.Fprintf(out, "\nFile changed: %s\n\n", event.Name)
				if err := sendOnce(cmd, client, fileConfig, console, args); err != nil {
					console.RenderError(err)
				}
				fmt.Fprintf(out, "\nWatching %s for changes... (press Ctrl+C to stop)\n", fileFlag)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "warning: watcher error: %v\n", err)
		}
	}
}
