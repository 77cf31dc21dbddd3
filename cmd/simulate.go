package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/socsim/app"
	coremon "github.com/kilianp07/socsim/core/monitoring"
	"github.com/kilianp07/socsim/infra/logger"
)

var (
	exportDir   string
	csvPath     string
	jsonPath    string
	chartPath   string
	metricsAddr string
	serve       bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the configured simulation and print its summary",
	Args:  cobra.NoArgs,
	RunE:  runSimulate,
}

func init() {
	addExportFlags(simulateCmd)
	rootCmd.AddCommand(simulateCmd)
}

func addExportFlags(c *cobra.Command) {
	c.Flags().StringVar(&exportDir, "out-dir", "", "directory relative export paths are written to")
	c.Flags().StringVar(&csvPath, "csv", "", "write the trajectory as CSV")
	c.Flags().StringVar(&jsonPath, "json", "", "write the trajectory as JSON")
	c.Flags().StringVar(&chartPath, "chart", "", "write an HTML chart of the run")
	c.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	c.Flags().BoolVar(&serve, "serve", false, "keep serving metrics after the run until interrupted")
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	defer coremon.Current().Recover()
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if exportDir != "" {
		cfg.Export.Dir = exportDir
	}
	if csvPath != "" {
		cfg.Export.CSV = csvPath
	}
	if jsonPath != "" {
		cfg.Export.JSON = jsonPath
	}
	if chartPath != "" {
		cfg.Export.Chart = chartPath
	}
	if metricsAddr != "" {
		cfg.Metrics.Addr = metricsAddr
	}

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	svc.ServeMetrics(ctx)

	report, files, err := svc.Simulate(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s (%s)\n%s\n", report.RunID, report.Scenario, report.Summary)
	for _, f := range files {
		fmt.Fprintf(out, "wrote %s\n", f)
	}
	if serve && cfg.Metrics.Addr != "" {
		<-ctx.Done()
	}
	return nil
}
