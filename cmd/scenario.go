package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/socsim/qa/scenarios"
)

var scenarioCmd = &cobra.Command{
	Use:   "scenario <file.yaml>...",
	Short: "Run scenario files and check their expectations",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScenarios,
}

func init() {
	rootCmd.AddCommand(scenarioCmd)
}

func runScenarios(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	failed := 0
	for _, path := range args {
		sc, err := scenarios.Load(path)
		if err != nil {
			return err
		}
		res, err := scenarios.Run(sc)
		if err != nil {
			return err
		}
		if res.Passed() {
			fmt.Fprintf(out, "PASS %s (final SOC %.4f)\n", sc.Name, res.Summary.FinalSOC)
			continue
		}
		failed++
		fmt.Fprintf(out, "FAIL %s\n", sc.Name)
		for _, f := range res.Failures {
			fmt.Fprintf(out, "  %s\n", f)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(args))
	}
	return nil
}
