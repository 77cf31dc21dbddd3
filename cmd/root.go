package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/socsim/config"
	coremon "github.com/kilianp07/socsim/core/monitoring"
	"github.com/kilianp07/socsim/infra/logger"
	"github.com/kilianp07/socsim/infra/monitoring"
)

var (
	cfgPath    string
	logLevel   string
	logBackend string

	cfg      *config.Config
	closeLog = func() error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "socsim",
	Short: "Smartphone battery state-of-charge and temperature simulator",
	// The demo run is the default action.
	RunE:               runSimulate,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
	SilenceUsage:       true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json); the demo run when empty")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logBackend, "log-backend", "", "log backend: zerolog or logrus")
	addExportFlags(rootCmd)
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func setup(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logBackend != "" {
		c.Logging.Backend = logBackend
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	closeLog = logger.Configure(c.Logging.Options())
	mon, err := monitoring.NewSentryMonitor(c.Monitoring)
	if err != nil {
		return fmt.Errorf("monitoring: %w", err)
	}
	coremon.Init(mon)
	cfg = c
	return nil
}

func teardown(*cobra.Command, []string) error {
	coremon.Flush(2 * time.Second)
	return closeLog()
}
