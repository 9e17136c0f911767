package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/voteanalysis/internal/models"
	"github.com/nvandessel/voteanalysis/internal/similarity"
	"github.com/nvandessel/voteanalysis/internal/simulation"
)

func newModuleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "module",
		Short: "Manage modules",
		Long: `Create, inspect and import modules.

A module fixes the output range and rounding of its versions' answers. The
first version added fixes how many constant and dynamic diversity
coordinates every version has.

Examples:
  nvote module create sorting --round-to 2 --min 100 --max 1000
  nvote module import sorting.yaml --seed 42
  nvote module show sorting`,
	}

	cmd.AddCommand(
		newModuleCreateCmd(),
		newModuleListCmd(),
		newModuleShowCmd(),
		newModuleImportCmd(),
	)

	return cmd
}

func newModuleCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			m := models.NewModule(args[0], a.cfg.Generation.RoundTo)
			m.MinOutVal = a.cfg.Generation.MinOutVal
			m.MaxOutVal = a.cfg.Generation.MaxOutVal
			if cmd.Flags().Changed("round-to") {
				m.RoundTo, _ = cmd.Flags().GetInt("round-to")
			}
			if cmd.Flags().Changed("min") {
				m.MinOutVal, _ = cmd.Flags().GetFloat64("min")
			}
			if cmd.Flags().Changed("max") {
				m.MaxOutVal, _ = cmd.Flags().GetFloat64("max")
			}

			if err := a.svc.CreateModule(cmd.Context(), m); err != nil {
				return fmt.Errorf("failed to create module: %w", err)
			}

			if jsonOutput(cmd) {
				return printJSON(cmd, m)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created module %s (id %d), outputs in [%g, %g] rounded to %d digits\n",
				m.Name, m.ID, m.MinOutVal, m.MaxOutVal, m.RoundTo)
			return nil
		},
	}

	cmd.Flags().Int("round-to", 0, "Digits kept after the decimal point (default from config)")
	cmd.Flags().Float64("min", 0, "Smallest output value (default from config)")
	cmd.Flags().Float64("max", 0, "Largest output value (default from config)")

	return cmd
}

func newModuleListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List modules",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			modules, err := a.svc.Modules(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list modules: %w", err)
			}

			if jsonOutput(cmd) {
				if modules == nil {
					modules = []*models.Module{}
				}
				return printJSON(cmd, map[string]any{"modules": modules, "count": len(modules)})
			}

			out := cmd.OutOrStdout()
			if len(modules) == 0 {
				fmt.Fprintln(out, "No modules yet. Create one with 'nvote module create <name>'.")
				return nil
			}
			for _, m := range modules {
				fmt.Fprintf(out, "%-20s id=%-4d range=[%g, %g] round_to=%d coords=%d+%d\n",
					m.Name, m.ID, m.MinOutVal, m.MaxOutVal, m.RoundTo, m.ConstCount, m.DynamicCount)
			}
			return nil
		},
	}
}

func newModuleShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show a module with its versions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			m, err := a.svc.Module(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to load module %q: %w", args[0], err)
			}

			if jsonOutput(cmd) {
				return printJSON(cmd, m)
			}
			printModule(cmd, m)
			return nil
		},
	}
}

func newModuleImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <scenario.yaml>",
		Short: "Create a module and its versions from a scenario file",
		Long: `Create a module and its versions from a YAML scenario file.

Example scenario:
  name: sorting
  round_to: 2
  min_out_val: 100
  max_out_val: 1000
  versions:
    - name: quick
      const_coordinates: [1, 0.5]
      dynamic_intervals: [{min: 0, max: 1}]
      reliability: 0.95
    - name: merge
      const_coordinates: [1, 0.5]
      dynamic_intervals: [{min: 0, max: 1}]
      reliability_interval: {min: 0.8, max: 0.99}`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := simulation.LoadScenario(args[0])
			if err != nil {
				return err
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			m, err := a.svc.ImportScenario(cmd.Context(), sc, a.seedFlag(cmd))
			if err != nil {
				return fmt.Errorf("failed to import %s: %w", args[0], err)
			}

			if jsonOutput(cmd) {
				return printJSON(cmd, m)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported module %s with %d versions\n", m.Name, len(m.Versions))
			return nil
		},
	}

	cmd.Flags().Uint64("seed", 0, "Seed for dynamic coordinates and interval reliabilities (default from config)")

	return cmd
}

func printModule(cmd *cobra.Command, m *models.Module) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Module: %s (id %d)\n", m.Name, m.ID)
	fmt.Fprintf(out, "  outputs:      [%g, %g] rounded to %d digits\n", m.MinOutVal, m.MaxOutVal, m.RoundTo)
	fmt.Fprintf(out, "  coordinates:  %d constant, %d dynamic\n", m.ConstCount, m.DynamicCount)
	if len(m.Versions) == 0 {
		fmt.Fprintln(out, "  versions:     none")
		return
	}
	fmt.Fprintf(out, "  versions:     %d\n", len(m.Versions))
	printVersions(cmd, m)
	printBands(cmd, m)
}

func printBands(cmd *cobra.Command, m *models.Module) {
	matrix, err := similarity.NewMatrix(m.Versions)
	if err != nil || matrix.Len() < 2 {
		return
	}
	classes := similarity.Classify(matrix)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "  pairs:        %d\n", classes.PairCount())
	for _, b := range similarity.Bands {
		for _, p := range classes.Pairs(b) {
			fmt.Fprintf(out, "    %-15s %s ~ %s (%.3f)\n", b, m.Versions[p.I].Name, m.Versions[p.J].Name, p.Distance)
		}
	}
}

func printVersions(cmd *cobra.Command, m *models.Module) {
	out := cmd.OutOrStdout()
	for _, v := range m.Versions {
		fmt.Fprintf(out, "    %-16s reliability=%g coordinates=%v", v.Name, v.Reliability, v.Coordinates())
		if ivs := m.DynamicIntervals[v.Name]; len(ivs) > 0 {
			fmt.Fprintf(out, " intervals=%v", ivs)
		}
		fmt.Fprintln(out)
	}
}
