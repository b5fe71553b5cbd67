package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/dockid/infra/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent runs, newest first",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "maximum number of runs, 0 for all")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if cfg.History.Backend == "none" {
		_, err := fmt.Fprintln(cmd.ErrOrStderr(), "history is disabled (history.backend: none)")
		return err
	}
	store, err := history.Open(cfg.History)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			if _, ferr := fmt.Fprintf(cmd.ErrOrStderr(), "error while closing history: %v\n", err); ferr != nil {
				fmt.Println("failed to write to stderr:", ferr)
			}
		}
	}()
	recs, err := store.Recent(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	return printHistory(cmd.OutOrStdout(), recs)
}

func printHistory(out io.Writer, recs []history.RunRecord) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "TIME\tSTATUS\tDOCK MAC\tVIN\tVEHICLE ID\tERROR"); err != nil {
		return err
	}
	for _, r := range recs {
		_, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Timestamp.Format(time.RFC3339), r.Result.Status, r.Result.DockMAC,
			r.Result.VIN, r.Result.VehicleID, r.Result.Error)
		if err != nil {
			return err
		}
	}
	return w.Flush()
}
