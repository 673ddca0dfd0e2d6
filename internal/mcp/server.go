// Package mcp provides an MCP (Model Context Protocol) server for cellgrid.
// It exposes placement and index operations to an external cell manager.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/cellgrid/internal/constants"
	"github.com/nvandessel/cellgrid/internal/grid"
	"github.com/nvandessel/cellgrid/internal/layout"
	"github.com/nvandessel/cellgrid/internal/ratelimit"
)

// Server wraps the MCP SDK server and provides cellgrid-specific functionality.
type Server struct {
	server *sdk.Server
	index  *grid.Index
	engine *layout.Engine
	logger *slog.Logger

	// mu guards concepts. Placement reads a copy so the engine never sees a
	// map that is being written.
	mu       sync.Mutex
	concepts map[string]layout.Concept

	drainThreshold float64
	toolLimiters   ratelimit.ToolLimiters
	auditLogger    *AuditLogger
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "cellgrid")
	Version string // Server version

	Index  *grid.Index    // Spatial index; a new one is created when nil
	Engine *layout.Engine // Placement engine; proximity defaults when nil

	// DrainThreshold is used by cellgrid_drain_pending when the caller
	// supplies none. Nil means DefaultDrainThreshold; zero drains every
	// pending entry.
	DrainThreshold *float64

	// AuditDir receives audit.jsonl. Empty disables auditing.
	AuditDir string

	Logger *slog.Logger
}

// NewServer creates a new MCP server with cellgrid tools.
func NewServer(cfg *Config) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("server config is required")
	}

	index := cfg.Index
	if index == nil {
		index = grid.New()
	}
	engine := cfg.Engine
	if engine == nil {
		engine = layout.NewEngine(layout.NewProximityStrategy())
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	threshold := constants.DefaultDrainThreshold
	if cfg.DrainThreshold != nil {
		threshold = *cfg.DrainThreshold
	}

	var audit *AuditLogger
	if cfg.AuditDir != "" {
		var err error
		audit, err = NewAuditLogger(cfg.AuditDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open audit log: %w", err)
		}
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			logger.Debug("mcp client initialized")
		},
	})

	s := &Server{
		server:         mcpServer,
		index:          index,
		engine:         engine,
		logger:         logger,
		concepts:       make(map[string]layout.Concept),
		drainThreshold: threshold,
		toolLimiters:   ratelimit.NewToolLimiters(),
		auditLogger:    audit,
	}

	s.registerTools()

	return s, nil
}

// Index returns the spatial index the server operates on.
func (s *Server) Index() *grid.Index {
	return s.index
}

// Run starts the MCP server over stdio transport.
// This blocks until the client disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)
	go func() {
		select {
		case <-sigChan:
			s.logger.Info("received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	return s.RunTransport(ctx, &sdk.StdioTransport{})
}

// RunTransport serves a single session over t until it ends or ctx is done.
func (s *Server) RunTransport(ctx context.Context, t sdk.Transport) error {
	err := s.server.Run(ctx, t)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// Close releases resources held by the server.
func (s *Server) Close() error {
	return s.auditLogger.Close()
}

// conceptsSnapshot copies the placed-concept map.
func (s *Server) conceptsSnapshot() map[string]layout.Concept {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]layout.Concept, len(s.concepts))
	for name, c := range s.concepts {
		out[name] = c
	}
	return out
}
