package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/dockid/infra/netif"
)

var macCmd = &cobra.Command{
	Use:   "mac",
	Short: "Print the dock MAC address",
	RunE: func(cmd *cobra.Command, _ []string) error {
		r := netif.NewResolver(cfg.Interfaces.Preferred, netif.SystemLister)
		_, err := fmt.Fprintln(cmd.OutOrStdout(), r.Resolve(cmd.Context()))
		return err
	},
}

func init() {
	rootCmd.AddCommand(macCmd)
}
