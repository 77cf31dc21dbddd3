package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/socsim/app"
	"github.com/kilianp07/socsim/pkg/export"
)

var (
	sweepAmbient []float64
	sweepCSV     string
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the configured simulation at several ambient temperatures",
	Args:  cobra.NoArgs,
	RunE:  runSweep,
}

func init() {
	sweepCmd.Flags().Float64SliceVar(&sweepAmbient, "ambient", []float64{0, 10, 25, 40}, "ambient temperatures in C")
	sweepCmd.Flags().StringVar(&sweepCSV, "csv", "", "write the sweep summary as CSV")
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, _ []string) error {
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	results, err := svc.Sweep(cmd.Context(), sweepAmbient)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "variant\tfinal SOC\tfinal T (C)\tavg P (W)\ttime to empty")
	for _, r := range results {
		s := r.Summary
		tte := "n/a"
		if s.TimeToEmptyOK {
			tte = fmt.Sprintf("%.2fh", s.TimeToEmptyS/3600)
		}
		fmt.Fprintf(tw, "%s\t%.4f\t%.2f\t%.3f\t%s\n", r.Variant.Name, s.FinalSOC, s.FinalTempC, s.AvgPowerW, tte)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if sweepCSV != "" {
		path, err := export.ToFile(cfg.Export.Dir, sweepCSV, func(w io.Writer) error {
			return export.WriteSweepCSV(w, results)
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	}
	return nil
}
