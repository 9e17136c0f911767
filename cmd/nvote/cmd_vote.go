package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/voteanalysis/internal/service"
	"github.com/nvandessel/voteanalysis/internal/vote"
)

func newAlgorithmsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "algorithms",
		Short: "List the vote algorithms",
		RunE: func(cmd *cobra.Command, args []string) error {
			sync, _ := cmd.Flags().GetBool("sync")

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			var ids map[string]int64
			if sync {
				if ids, err = a.svc.SyncAlgorithms(cmd.Context()); err != nil {
					return fmt.Errorf("failed to record algorithms: %w", err)
				}
			}

			algorithms := a.svc.Algorithms()
			if jsonOutput(cmd) {
				type item struct {
					vote.Algorithm
					ID int64 `json:"id,omitempty"`
				}
				items := make([]item, 0, len(algorithms))
				for _, alg := range algorithms {
					items = append(items, item{Algorithm: alg, ID: ids[alg.Name]})
				}
				return printJSON(cmd, map[string]any{"algorithms": items, "count": len(items)})
			}

			out := cmd.OutOrStdout()
			for _, alg := range algorithms {
				fmt.Fprintf(out, "%-10s %s\n", alg.Name, alg.Description)
			}
			if sync {
				fmt.Fprintf(out, "Recorded %d algorithms\n", len(ids))
			}
			return nil
		},
	}

	cmd.Flags().Bool("sync", false, "Record the algorithms in the experiment database")

	return cmd
}

func newVoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vote <module> <experiment>",
		Short: "Run one vote algorithm over an experiment",
		Long: `Run one vote algorithm over every iteration of a stored experiment and
report how often its consensus matched the reference value.

Examples:
  nvote vote sorting baseline --algorithm median
  nvote vote sorting baseline --algorithm modified --save`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			algorithm, _ := cmd.Flags().GetString("algorithm")
			save, _ := cmd.Flags().GetBool("save")
			verbose, _ := cmd.Flags().GetBool("verbose")

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.svc.Vote(cmd.Context(), service.VoteRequest{
				Module:     args[0],
				Experiment: args[1],
				Algorithm:  algorithm,
				Save:       save,
			})
			if err != nil {
				return fmt.Errorf("failed to vote: %w", err)
			}

			if jsonOutput(cmd) {
				return printJSON(cmd, res)
			}
			out := cmd.OutOrStdout()
			if verbose {
				for _, o := range res.Outcomes {
					if o.Failed() {
						fmt.Fprintf(out, "  iteration %d: failed: %v\n", o.Iteration, o.Err)
						continue
					}
					fmt.Fprintf(out, "  iteration %d: consensus=%g reference=%g\n", o.Iteration, o.Consensus, o.CorrectAnswer)
				}
			}
			printReports(cmd, []vote.Report{res.Report})
			if save {
				fmt.Fprintf(out, "Saved %d vote results\n", res.Saved)
			}
			return nil
		},
	}

	cmd.Flags().String("algorithm", "", "Vote algorithm (see 'nvote algorithms')")
	cmd.Flags().Bool("save", false, "Store one vote result per experiment row")
	cmd.Flags().BoolP("verbose", "v", false, "Print the consensus of every iteration")
	cmd.MarkFlagRequired("algorithm")

	return cmd
}

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <module> <experiment>",
		Short: "Compare vote algorithms on an experiment",
		Long: `Run several vote algorithms over a stored experiment and rank them by
accuracy. A consensus is correct when it lies within half a unit of the
last kept digit of the reference value.

Examples:
  nvote analyze sorting baseline
  nvote analyze sorting baseline --algorithm classic --algorithm modified`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			algorithms, _ := cmd.Flags().GetStringSlice("algorithm")

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			reports, err := a.svc.Analyze(cmd.Context(), args[0], args[1], algorithms)
			if err != nil {
				return fmt.Errorf("failed to analyze experiment: %w", err)
			}

			if jsonOutput(cmd) {
				return printJSON(cmd, map[string]any{"module": args[0], "experiment": args[1], "reports": reports})
			}
			printReports(cmd, reports)
			return nil
		},
	}

	cmd.Flags().StringSlice("algorithm", nil, "Algorithms to compare (default: all)")

	return cmd
}

func newLeaderboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leaderboard <module> <experiment>",
		Short: "Show the recorded algorithm ranking of an experiment",
		Long: `Show the accuracy ranking recorded by earlier vote and analyze runs.

With --algorithm, print only that algorithm's position.

Requires redis.enabled in the config (or NVOTE_REDIS_ADDR).`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			algorithm, _ := cmd.Flags().GetString("algorithm")

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if algorithm != "" {
				rank, err := a.svc.Rank(cmd.Context(), args[0], args[1], algorithm)
				if err != nil {
					return fmt.Errorf("failed to read leaderboard: %w", err)
				}
				if jsonOutput(cmd) {
					return printJSON(cmd, map[string]any{"module": args[0], "experiment": args[1], "algorithm": algorithm, "rank": rank})
				}
				if rank < 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "%s has no recorded accuracy.\n", algorithm)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is ranked %d\n", algorithm, rank)
				return nil
			}

			entries, err := a.svc.Leaderboard(cmd.Context(), args[0], args[1], limit)
			if err != nil {
				return fmt.Errorf("failed to read leaderboard: %w", err)
			}

			if jsonOutput(cmd) {
				return printJSON(cmd, map[string]any{"module": args[0], "experiment": args[1], "entries": entries})
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "Nothing recorded yet. Run 'nvote analyze' first.")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%2d. %-10s %6.2f%%\n", e.Rank, e.Algorithm, e.Accuracy*100)
			}
			return nil
		},
	}

	cmd.Flags().Int("limit", 10, "Maximum entries")
	cmd.Flags().String("algorithm", "", "Show the rank of one algorithm")

	return cmd
}

func printReports(cmd *cobra.Command, reports []vote.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-10s %10s %8s %8s %9s %14s\n", "ALGORITHM", "ITERATIONS", "CORRECT", "FAILED", "ACCURACY", "MEAN_ABS_ERROR")
	for _, r := range reports {
		fmt.Fprintf(out, "%-10s %10d %8d %8d %8.2f%% %14.4f\n",
			r.Algorithm, r.Iterations, r.Correct, r.Failed, r.Accuracy*100, r.MeanAbsError)
	}
}
