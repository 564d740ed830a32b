package output

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/tidwall/pretty"

	"github.com/awalters-dev/courier/packages/http"
)

// Console writes human-readable renderings of responses.
type Console struct {
	writer      io.Writer
	showHeaders bool
	noColor     bool
}

type ConsoleOption func(*Console)

func NewConsole(opts ...ConsoleOption) *Console {
	c := &Console{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.noColor {
		color.NoColor = true
	}
	return c
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(c *Console) {
		c.writer = w
	}
}

func WithHeaders(show bool) ConsoleOption {
	return func(c *Console) {
		c.showHeaders = show
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(c *Console) {
		c.noColor = nc
	}
}

// RenderResponse writes the status line, optionally the response headers,
// then the body. JSON bodies are pretty-printed.
func (c *Console) RenderResponse(resp *http.Response) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	status := fmt.Sprintf("HTTP %d", resp.StatusCode)
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		status = green(status)
	case resp.StatusCode >= 300 && resp.StatusCode < 400:
		status = yellow(status)
	default:
		status = red(status)
	}
	fmt.Fprintf(c.writer, "%s\n", status)

	if c.showHeaders {
		cyan := color.New(color.FgCyan).SprintFunc()
		names := make([]string, 0, len(resp.Headers))
		for name := range resp.Headers {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(c.writer, "%s: %s\n", cyan(name), resp.Headers[name])
		}
		fmt.Fprintf(c.writer, "\n")
	}

	if resp.Body == "" {
		return
	}
	if resp.IsJSON() {
		fmt.Fprint(c.writer, string(pretty.Pretty([]byte(resp.Body))))
		return
	}
	fmt.Fprintln(c.writer, resp.Body)
}

// RenderError writes an error line.
func (c *Console) RenderError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(c.writer, "%s %v\n", red("Error:"), err)
}
