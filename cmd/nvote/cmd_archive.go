package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nvandessel/voteanalysis/internal/archive"
)

func newArchiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive <module> <experiment>",
		Short: "Export an experiment to MongoDB",
		Long: `Copy every answer of a stored experiment into the experiment_data
collection of the configured MongoDB database. Earlier exports of the same
experiment are replaced.

Configure with archive.mongo_uri and archive.database, or NVOTE_MONGO_URI.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			timeout, _ := cmd.Flags().GetDuration("timeout")

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			_, iterations, err := a.svc.Experiment(cmd.Context(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to load experiment: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			client, coll, err := archive.Connect(ctx, a.cfg.Archive)
			if err != nil {
				return err
			}
			defer client.Disconnect(context.Background())

			n, err := archive.NewArchiver(coll).Export(ctx, iterations)
			if err != nil {
				return fmt.Errorf("failed to archive experiment: %w", err)
			}
			a.logger.Info("experiment archived",
				"module", args[0], "experiment", args[1], "documents", n, "database", a.cfg.Archive.Database)

			if jsonOutput(cmd) {
				return printJSON(cmd, map[string]any{
					"module":     args[0],
					"experiment": args[1],
					"database":   a.cfg.Archive.Database,
					"collection": archive.CollectionName,
					"documents":  n,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Archived %d answers of %s/%s to %s.%s\n",
				n, args[0], args[1], a.cfg.Archive.Database, archive.CollectionName)
			return nil
		},
	}

	cmd.Flags().Duration("timeout", 30*time.Second, "Time limit for the export")

	return cmd
}
