package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

// newVerbCommand builds a shorthand like "courier get URL" that forces the
// method and otherwise behaves exactly like send.
func newVerbCommand(method string) *cobra.Command {
	verb := strings.ToLower(method)

	cmd := &cobra.Command{
		Use:   verb + " <url>",
		Short: "Send a " + method + " request",
		Long: "Send a " + method + ` request. Shorthand for "courier send -X ` + method + `";
all send flags apply.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			methodFlag = method
			return sendCommand(cmd, args)
		},
	}
	addSendFlags(cmd)

	return cmd
}

func init() {
	for _, method := range []string{"GET", "HEAD", "OPTIONS", "DELETE", "POST", "PUT", "PATCH"} {
		rootCmd.AddCommand(newVerbCommand(method))
	}
}
