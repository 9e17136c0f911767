package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/voteanalysis/internal/store"
)

func newExperimentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "experiments",
		Short: "Inspect stored experiments",
	}

	cmd.AddCommand(
		newExperimentsListCmd(),
		newExperimentsShowCmd(),
	)

	return cmd
}

func newExperimentsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [module]",
		Short: "List experiments, optionally of one module",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			var module string
			if len(args) == 1 {
				module = args[0]
			}
			experiments, err := a.svc.Experiments(cmd.Context(), module)
			if err != nil {
				return fmt.Errorf("failed to list experiments: %w", err)
			}

			if jsonOutput(cmd) {
				if experiments == nil {
					experiments = []store.ExperimentSummary{}
				}
				return printJSON(cmd, map[string]any{"experiments": experiments, "count": len(experiments)})
			}

			out := cmd.OutOrStdout()
			if len(experiments) == 0 {
				fmt.Fprintln(out, "No experiments yet. Create one with 'nvote generate <module>'.")
				return nil
			}
			for _, e := range experiments {
				fmt.Fprintf(out, "%-20s %-38s iterations=%-6d results=%d\n", e.ModuleName, e.Name, e.Iterations, e.Results)
			}
			return nil
		},
	}
}

func newExperimentsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <module> <experiment>",
		Short: "Show the answers of an experiment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			m, iterations, err := a.svc.Experiment(cmd.Context(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to load experiment: %w", err)
			}
			if limit > 0 && len(iterations) > limit {
				iterations = iterations[:limit]
			}

			if jsonOutput(cmd) {
				return printJSON(cmd, map[string]any{"module": m.Name, "experiment": args[1], "iterations": iterations})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Experiment %s of %s\n", args[1], m.Name)
			for _, it := range iterations {
				fmt.Fprintf(out, "  iteration %d: reference=%g\n", it.Index, it.ReferenceValue)
				for _, r := range it.Results {
					mark := " "
					if !r.Correct() {
						mark = "x"
					}
					fmt.Fprintf(out, "    %s %-16s answer=%g\n", mark, r.VersionName, r.Answer)
				}
			}
			return nil
		},
	}

	cmd.Flags().Int("limit", 20, "Maximum iterations to show (0 shows all)")

	return cmd
}
