package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/voteanalysis/internal/models"
	"github.com/nvandessel/voteanalysis/internal/prompt"
	"github.com/nvandessel/voteanalysis/internal/simulation"
)

func newVersionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versions",
		Short: "Manage the versions of a module",
		Long: `Add and list the versions of a module.

Later versions share the constant coordinates of the first one; only their
dynamic intervals and reliability differ.

Examples:
  nvote versions add sorting --name quick --const 1,0.5 --intervals 0-1 --reliability 0.95
  nvote versions add sorting --name merge --intervals 0-1 --reliability 0.8-0.99
  nvote versions add sorting -i
  nvote versions list sorting`,
	}

	cmd.AddCommand(
		newVersionsAddCmd(),
		newVersionsListCmd(),
	)

	return cmd
}

func newVersionsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <module>",
		Short: "Add a version to a module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			interactive, _ := cmd.Flags().GetBool("interactive")

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			m, err := a.svc.Module(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to load module %q: %w", args[0], err)
			}

			var spec simulation.VersionSpec
			if interactive {
				spec, err = prompt.AskVersion(m, cmd.InOrStdin(), cmd.OutOrStdout())
				if errors.Is(err, prompt.ErrCancelled) {
					fmt.Fprintln(cmd.ErrOrStderr(), "Cancelled.")
					return nil
				}
			} else {
				spec, err = prompt.VersionSpec(m, versionFlagAnswers(cmd))
			}
			if err != nil {
				return err
			}
			v, err := a.svc.AddVersion(cmd.Context(), m.Name, spec, a.seedFlag(cmd))
			if err != nil {
				return fmt.Errorf("failed to add version: %w", err)
			}

			if jsonOutput(cmd) {
				return printJSON(cmd, v)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added version %s to %s: reliability=%g coordinates=%v\n",
				v.Name, m.Name, v.Reliability, v.Coordinates())
			return nil
		},
	}

	cmd.Flags().BoolP("interactive", "i", false, "Prompt for the version fields")
	cmd.Flags().String("name", "", "Version name")
	cmd.Flags().String("reliability", "", "Reliability in [0,1], or min-max to draw one")
	cmd.Flags().String("const", "", "Constant coordinates, comma separated (first version only)")
	cmd.Flags().String("intervals", "", "Dynamic coordinate intervals, min-max comma separated")
	cmd.Flags().Uint64("seed", 0, "Seed for the drawn coordinates and reliability (default from config)")

	return cmd
}

// versionFlagAnswers maps the add flags onto prompt answers so flags and the
// interactive prompt share one parser.
func versionFlagAnswers(cmd *cobra.Command) map[string]string {
	answers := make(map[string]string)
	for flag, key := range map[string]string{
		"name":        prompt.KeyName,
		"reliability": prompt.KeyReliability,
		"const":       prompt.KeyConst,
		"intervals":   prompt.KeyIntervals,
	} {
		answers[key], _ = cmd.Flags().GetString(flag)
	}
	return answers
}

func newVersionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <module>",
		Short: "List the versions of a module",
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
				versions := m.Versions
				if versions == nil {
					versions = []*models.Version{}
				}
				return printJSON(cmd, map[string]any{"module": m.Name, "versions": versions, "count": len(versions)})
			}
			if len(m.Versions) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Module %s has no versions yet.\n", m.Name)
				return nil
			}
			printVersions(cmd, m)
			return nil
		},
	}
}
