package cmd

import (
	"fmt"
	"strconv"

	"github.com/awalters-dev/courier/packages/core/config"
	"github.com/awalters-dev/courier/packages/history"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent request history",
	Long: `Show the most recent requests recorded by send, newest first.

Examples:
  courier history
  courier history --limit 50
  courier history --clear`,
	Args: cobra.NoArgs,
	RunE: historyCommand,
}

var (
	historyLimitFlag int
	historyClearFlag bool
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimitFlag, "limit", "l", 20, "Maximum number of entries to show")
	historyCmd.Flags().BoolVar(&historyClearFlag, "clear", false, "Delete all history entries")
	historyCmd.Flags().StringVar(&configFlag, "config", getEnvString("COURIER_CONFIG", ""), "Path to config file (env: COURIER_CONFIG)")
}

func historyCommand(cmd *cobra.Command, args []string) error {
	fileConfig, err := config.LoadConfig(configFlag)
	if err != nil {
		return err
	}

	store, err := history.Open(fileConfig.GetHistoryPath())
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()

	if historyClearFlag {
		if err := store.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(out, "History cleared.")
		return nil
	}

	entries, err := store.List(historyLimitFlag)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No requests recorded yet.")
		return nil
	}

	for _, entry := range entries {
		status := strconv.Itoa(entry.StatusCode)
		if entry.StatusCode == 0 {
			status = "ERR"
		}
		fmt.Fprintf(out, "%s  %-7s %-4s %6dms  %s\n",
			entry.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			entry.Method, status, entry.DurationMS, entry.URL)
		if entry.Error != "" {
			fmt.Fprintf(out, "%21s%s\n", "", entry.Error)
		}
	}

	return nil
}
