// Package mcp provides an MCP (Model Context Protocol) server exposing vote
// analysis operations as tools.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/voteanalysis/internal/ratelimit"
	"github.com/nvandessel/voteanalysis/internal/service"
)

// caller is the rate limit key for stdio clients; a server has exactly one.
const caller = "mcp"

// Server wraps the MCP SDK server around the analysis service.
type Server struct {
	server   *sdk.Server
	svc      *service.Service
	limiters ratelimit.Limiters
	audit    *AuditLogger
	logger   *slog.Logger
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "nvote")
	Version string // Server version

	// AuditDir receives audit.jsonl. Empty disables auditing.
	AuditDir string
}

// NewServer creates an MCP server with every tool registered.
func NewServer(cfg *Config, svc *service.Service) (*Server, error) {
	if svc == nil {
		return nil, errors.New("mcp server needs a service")
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	s := &Server{
		server:   mcpServer,
		svc:      svc,
		limiters: ratelimit.DefaultLimiters(),
	}
	if cfg.AuditDir != "" {
		s.audit = NewAuditLogger(cfg.AuditDir)
	}

	s.registerTools()
	s.registerResources()
	return s, nil
}

// SetLogger sets the structured logger.
func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// Run starts the MCP server over stdio transport.
// This blocks until the client disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	if s.logger != nil {
		s.logger.Info("mcp server started", "audit", s.audit.Path())
	}
	err := s.server.Run(ctx, &sdk.StdioTransport{})
	if closeErr := s.Close(); err == nil {
		err = closeErr
	}
	return err
}

// Close releases the audit log.
func (s *Server) Close() error {
	return s.audit.Close()
}
