package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/dockid/simulator"
)

var (
	simVIN       string
	simVehicleID string
	simClear     bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Publish a retained vehicle identity like the dock router does",
	RunE: func(cmd *cobra.Command, _ []string) error {
		p := simulator.NewPublisher(cfg.MQTT.Broker, cfg.MQTT.Topics(), cfg.MQTT.ConnectTimeout())
		if simClear {
			return p.Clear(cmd.Context())
		}
		if simVIN == "" && simVehicleID == "" {
			return fmt.Errorf("--vin or --vehicle-id is required")
		}
		return p.Publish(cmd.Context(), simulator.Vehicle{VIN: simVIN, VehicleID: simVehicleID})
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simVIN, "vin", "", "VIN to retain")
	simulateCmd.Flags().StringVar(&simVehicleID, "vehicle-id", "", "vehicle ID to retain")
	simulateCmd.Flags().BoolVar(&simClear, "clear", false, "remove the retained identity")
	rootCmd.AddCommand(simulateCmd)
}
