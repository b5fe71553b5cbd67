package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/dockid/app"
	"github.com/kilianp07/dockid/config"
	coremon "github.com/kilianp07/dockid/core/monitoring"
	"github.com/kilianp07/dockid/infra/logger"
	"github.com/kilianp07/dockid/infra/monitoring"
)

const defaultConfigPath = "dockid.yaml"

var (
	cfgPath string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:               "dockid",
	Short:             "Identify the vehicle parked on this dock",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", defaultConfigPath, "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func setup(cmd *cobra.Command, _ []string) error {
	path, err := configPath(cfgPath, cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}
	loaded, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg = loaded
	logger.SetLevel(cfg.Logging.Level)

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		logger.New("main").Warnf("sentry disabled: %v", err)
		return nil
	}
	coremon.Init(mon)
	return nil
}

// configPath returns the file to load. A missing default file means
// defaults only; a missing explicit file is an error.
func configPath(path string, explicit bool) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return "", nil
		}
		return "", fmt.Errorf("config %s: %w", path, err)
	}
	return path, nil
}

func run(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer coremon.Flush(2 * time.Second)

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	res := <-svc.Start(ctx)
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s %s\n", res.Status, res.DockMAC, res.VIN, res.VehicleID); err != nil {
		return err
	}
	return nil
}

