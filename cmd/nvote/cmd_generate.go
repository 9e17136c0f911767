package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/voteanalysis/internal/service"
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <module>",
		Short: "Generate an experiment for a module",
		Long: `Generate synthetic answers for every version of a module.

Each iteration draws a reference value. Versions are grouped by how close
they sit in the diversity space, and each group fails the way its
similarity band prescribes: clones fail together, distant versions fail
independently. The run is stored under the experiment label, replacing any
earlier run with the same label.

Examples:
  nvote generate sorting --iterations 1000
  nvote generate sorting --iterations 1000 --experiment baseline --seed 42`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			iterations := a.cfg.Generation.Iterations
			if cmd.Flags().Changed("iterations") {
				iterations, _ = cmd.Flags().GetInt("iterations")
			}
			experiment, _ := cmd.Flags().GetString("experiment")

			res, err := a.svc.Generate(cmd.Context(), service.GenerateRequest{
				Module:     args[0],
				Iterations: iterations,
				Experiment: experiment,
				Seed:       a.seedFlag(cmd),
			})
			if err != nil {
				return fmt.Errorf("failed to generate experiment: %w", err)
			}

			if jsonOutput(cmd) {
				return printJSON(cmd, res)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Generated experiment %s for %s: %d iterations, %d results\n",
				res.Experiment, res.Module, res.Count, res.Results)
			if !res.Persisted {
				fmt.Fprintln(out, "Nothing was stored: a module needs at least two versions to produce results.")
			}
			return nil
		},
	}

	cmd.Flags().Int("iterations", 0, "Number of iterations (default from config)")
	cmd.Flags().String("experiment", "", "Experiment label (default: random UUID)")
	cmd.Flags().Uint64("seed", 0, "Seed for a reproducible run (default from config, 0 uses the clock)")

	return cmd
}
