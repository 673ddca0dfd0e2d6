package mcp

import (
	"context"
	"fmt"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/cellgrid/internal/grid"
	"github.com/nvandessel/cellgrid/internal/layout"
	"github.com/nvandessel/cellgrid/internal/ratelimit"
)

// registerTools registers all cellgrid MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolPlace,
		Description: "Choose a grid coordinate for a new concept, near the registered concept sharing the most tags",
	}, s.handlePlace)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolRegister,
		Description: "Register a concept's cell at a coordinate so later placements avoid and cluster around it",
	}, s.handleRegister)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolUnregister,
		Description: "Remove a concept's cell from the grid",
	}, s.handleUnregister)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolBounds,
		Description: "Get the bounding box of all registered cells",
	}, s.handleBounds)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolAddPending,
		Description: "Accumulate pending input at a coordinate",
	}, s.handleAddPending)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolDrainPending,
		Description: "Remove and return every coordinate whose pending input reached a threshold",
	}, s.handleDrainPending)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolCapacity,
		Description: "Check whether a concept should grow or shrink given its usage and dormancy",
	}, s.handleCapacity)
}

// handlePlace implements the cellgrid_place tool.
func (s *Server) handlePlace(ctx context.Context, req *sdk.CallToolRequest, args CellgridPlaceInput) (_ *sdk.CallToolResult, _ CellgridPlaceOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ratelimit.ToolPlace, start, retErr, sanitizeToolParams(map[string]any{
			"name": args.Name, "tags": args.Tags,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ratelimit.ToolPlace); err != nil {
		return nil, CellgridPlaceOutput{}, err
	}
	if args.Name == "" {
		return nil, CellgridPlaceOutput{}, fmt.Errorf("'name' parameter is required")
	}

	existing := s.conceptsSnapshot()
	c := s.engine.Place(args.Name, args.Tags, existing)

	return nil, CellgridPlaceOutput{
		Name:     args.Name,
		X:        c.X,
		Y:        c.Y,
		Existing: len(existing),
	}, nil
}

// handleRegister implements the cellgrid_register tool.
func (s *Server) handleRegister(ctx context.Context, req *sdk.CallToolRequest, args CellgridRegisterInput) (_ *sdk.CallToolResult, _ CellgridRegisterOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ratelimit.ToolRegister, start, retErr, sanitizeToolParams(map[string]any{
			"name": args.Name, "tags": args.Tags, "x": args.X, "y": args.Y, "radius": args.Radius,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ratelimit.ToolRegister); err != nil {
		return nil, CellgridRegisterOutput{}, err
	}
	if args.Name == "" {
		return nil, CellgridRegisterOutput{}, fmt.Errorf("'name' parameter is required")
	}
	if args.Radius != nil && *args.Radius < 0 {
		return nil, CellgridRegisterOutput{}, fmt.Errorf("'radius' must be non-negative, got %d", *args.Radius)
	}

	at := grid.Coord{X: args.X, Y: args.Y}
	out := CellgridRegisterOutput{Name: args.Name}

	s.mu.Lock()
	if prev, ok := s.concepts[args.Name]; ok && prev.Center != at {
		s.index.Unregister(prev.Center)
		out.Moved = true
	}
	if h, ok := s.index.Cell(at); ok {
		if other, isName := h.(string); isName && other != args.Name {
			delete(s.concepts, other)
			out.Replaced = other
		}
	}
	s.concepts[args.Name] = layout.Concept{Tags: args.Tags, Center: at, Radius: args.Radius}
	s.index.Register(at, args.Name)
	s.mu.Unlock()

	out.Cells = s.index.Stats().Cells
	return nil, out, nil
}

// handleUnregister implements the cellgrid_unregister tool.
func (s *Server) handleUnregister(ctx context.Context, req *sdk.CallToolRequest, args CellgridUnregisterInput) (_ *sdk.CallToolResult, _ CellgridUnregisterOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ratelimit.ToolUnregister, start, retErr, sanitizeToolParams(map[string]any{
			"name": args.Name,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ratelimit.ToolUnregister); err != nil {
		return nil, CellgridUnregisterOutput{}, err
	}
	if args.Name == "" {
		return nil, CellgridUnregisterOutput{}, fmt.Errorf("'name' parameter is required")
	}

	s.mu.Lock()
	c, ok := s.concepts[args.Name]
	if ok {
		delete(s.concepts, args.Name)
		s.index.Unregister(c.Center)
	}
	s.mu.Unlock()

	return nil, CellgridUnregisterOutput{
		Name:    args.Name,
		Removed: ok,
		Cells:   s.index.Stats().Cells,
	}, nil
}

// handleBounds implements the cellgrid_bounds tool.
func (s *Server) handleBounds(ctx context.Context, req *sdk.CallToolRequest, args CellgridBoundsInput) (_ *sdk.CallToolResult, _ CellgridBoundsOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ratelimit.ToolBounds, start, retErr, sanitizeToolParams(map[string]any{}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ratelimit.ToolBounds); err != nil {
		return nil, CellgridBoundsOutput{}, err
	}

	stats := s.index.Stats()
	out := CellgridBoundsOutput{Cells: stats.Cells}
	if b := stats.Bounds; b != nil {
		out.Defined = true
		out.MinX, out.MaxX = b.MinX, b.MaxX
		out.MinY, out.MaxY = b.MinY, b.MaxY
		out.Width, out.Height = b.Width(), b.Height()
	}
	return nil, out, nil
}

// handleAddPending implements the cellgrid_add_pending tool.
func (s *Server) handleAddPending(ctx context.Context, req *sdk.CallToolRequest, args CellgridAddPendingInput) (_ *sdk.CallToolResult, _ CellgridAddPendingOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ratelimit.ToolAddPending, start, retErr, sanitizeToolParams(map[string]any{
			"x": args.X, "y": args.Y, "amount": args.Amount,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ratelimit.ToolAddPending); err != nil {
		return nil, CellgridAddPendingOutput{}, err
	}

	at := grid.Coord{X: args.X, Y: args.Y}
	s.index.AddPending(at, args.Amount)
	total, _ := s.index.Pending(at)

	return nil, CellgridAddPendingOutput{X: at.X, Y: at.Y, Total: total}, nil
}

// handleDrainPending implements the cellgrid_drain_pending tool.
func (s *Server) handleDrainPending(ctx context.Context, req *sdk.CallToolRequest, args CellgridDrainPendingInput) (_ *sdk.CallToolResult, _ CellgridDrainPendingOutput, retErr error) {
	threshold := s.drainThreshold
	if args.Threshold != nil {
		threshold = *args.Threshold
	}

	start := time.Now()
	defer func() {
		s.auditTool(ratelimit.ToolDrainPending, start, retErr, sanitizeToolParams(map[string]any{
			"threshold": threshold,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ratelimit.ToolDrainPending); err != nil {
		return nil, CellgridDrainPendingOutput{}, err
	}

	entries := s.index.TakePendingAbove(threshold)
	items := make([]PendingItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, PendingItem{X: e.Coord.X, Y: e.Coord.Y, Amount: e.Amount})
	}

	return nil, CellgridDrainPendingOutput{
		Threshold: threshold,
		Drained:   items,
		Count:     len(items),
	}, nil
}

// handleCapacity implements the cellgrid_capacity tool.
func (s *Server) handleCapacity(ctx context.Context, req *sdk.CallToolRequest, args CellgridCapacityInput) (_ *sdk.CallToolResult, _ CellgridCapacityOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ratelimit.ToolCapacity, start, retErr, sanitizeToolParams(map[string]any{
			"name": args.Name, "usage": args.Usage, "dormancy": args.Dormancy,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ratelimit.ToolCapacity); err != nil {
		return nil, CellgridCapacityOutput{}, err
	}
	if args.Name == "" {
		return nil, CellgridCapacityOutput{}, fmt.Errorf("'name' parameter is required")
	}

	return nil, CellgridCapacityOutput{
		Name:         args.Name,
		ShouldGrow:   s.engine.ShouldGrow(args.Name, args.Usage),
		ShouldShrink: s.engine.ShouldShrink(args.Name, args.Dormancy),
	}, nil
}
