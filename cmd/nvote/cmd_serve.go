package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nvandessel/voteanalysis/internal/mcp"
	"github.com/nvandessel/voteanalysis/internal/ratelimit"
	"github.com/nvandessel/voteanalysis/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API",
		Long: `Serve modules, experiments, votes and analyses over HTTP.

Endpoints live under /v1; GET /health reports liveness. Generation, voting,
analysis and imports are rate limited per client.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			addr := a.cfg.Server.Addr
			if cmd.Flags().Changed("addr") {
				addr, _ = cmd.Flags().GetString("addr")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := server.New(a.svc, ratelimit.DefaultLimiters(), a.logger)
			if err := srv.ListenAndServe(ctx, addr); err != nil {
				return err
			}
			a.logger.Info("http server stopped")
			return nil
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default from config, :8080)")

	return cmd
}

func newMCPServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Run as MCP server for AI tools",
		Long: `Run nvote as an MCP (Model Context Protocol) server over stdio.

Tools: nvote_algorithms, nvote_modules, nvote_module, nvote_import,
nvote_generate, nvote_experiments, nvote_vote, nvote_analyze,
nvote_leaderboard. Every call is recorded in audit.jsonl next to the
experiment database.

Example MCP client configuration:
  {
    "mcpServers": {
      "nvote": {
        "command": "nvote",
        "args": ["mcp-server"]
      }
    }
  }`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			srv, err := mcp.NewServer(&mcp.Config{
				Name:     "nvote",
				Version:  version,
				AuditDir: a.dataDir,
			}, a.svc)
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}
			srv.SetLogger(a.logger)

			return srv.Run(cmd.Context())
		},
	}

	return cmd
}
