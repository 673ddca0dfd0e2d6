package mcp

import (
	"context"
	"errors"
	"testing"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/cellgrid/internal/grid"
	"github.com/nvandessel/cellgrid/internal/ratelimit"
)

func setupTestServer(t *testing.T) *Server {
	t.Helper()

	server, err := NewServer(&Config{
		Name:     "test-server",
		Version:  "v1.0.0",
		AuditDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	t.Cleanup(func() { server.Close() })
	return server
}

func TestHandlePlace_RequiresName(t *testing.T) {
	server := setupTestServer(t)

	_, _, err := server.handlePlace(context.Background(), &sdk.CallToolRequest{}, CellgridPlaceInput{})
	if err == nil {
		t.Error("expected error for missing name")
	}
}

func TestHandlePlace_ClustersAfterRegister(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()
	req := &sdk.CallToolRequest{}

	_, first, err := server.handlePlace(ctx, req, CellgridPlaceInput{Name: "seed", Tags: []string{"x"}})
	if err != nil {
		t.Fatalf("place seed: %v", err)
	}
	if first.X != 0 || first.Y != 0 || first.Existing != 0 {
		t.Errorf("first placement = %+v, want origin with 0 existing", first)
	}

	// Placing without registering leaves the grid empty.
	_, again, _ := server.handlePlace(ctx, req, CellgridPlaceInput{Name: "other"})
	if again.X != 0 || again.Y != 0 {
		t.Errorf("unregistered placement should not affect later ones, got (%d,%d)", again.X, again.Y)
	}

	if _, _, err := server.handleRegister(ctx, req, CellgridRegisterInput{Name: "seed", Tags: []string{"x"}}); err != nil {
		t.Fatalf("register seed: %v", err)
	}

	_, next, err := server.handlePlace(ctx, req, CellgridPlaceInput{Name: "next", Tags: []string{"x"}})
	if err != nil {
		t.Fatalf("place next: %v", err)
	}
	if next.X != -6 || next.Y != -6 || next.Existing != 1 {
		t.Errorf("second placement = %+v, want (-6,-6) with 1 existing", next)
	}
}

func TestHandlePlace_ExplicitZeroRadius(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()
	req := &sdk.CallToolRequest{}

	zero := 0
	if _, _, err := server.handleRegister(ctx, req, CellgridRegisterInput{Name: "dot", Radius: &zero}); err != nil {
		t.Fatalf("register dot: %v", err)
	}

	_, out, err := server.handlePlace(ctx, req, CellgridPlaceInput{Name: "next"})
	if err != nil {
		t.Fatalf("place next: %v", err)
	}
	if out.X != -4 || out.Y != -4 {
		t.Errorf("placement next to a radius-0 concept = (%d,%d), want (-4,-4)", out.X, out.Y)
	}
}

func TestHandleRegister_MoveAndReplace(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()
	req := &sdk.CallToolRequest{}

	server.handleRegister(ctx, req, CellgridRegisterInput{Name: "a", X: 0, Y: 0})

	_, out, err := server.handleRegister(ctx, req, CellgridRegisterInput{Name: "a", X: 10, Y: 2})
	if err != nil {
		t.Fatalf("register move: %v", err)
	}
	if !out.Moved || out.Cells != 1 {
		t.Errorf("move result = %+v, want moved with 1 cell", out)
	}
	if _, ok := server.index.Cell(grid.Coord{}); ok {
		t.Error("old coordinate should be unregistered after a move")
	}

	_, out, err = server.handleRegister(ctx, req, CellgridRegisterInput{Name: "b", X: 10, Y: 2})
	if err != nil {
		t.Fatalf("register replace: %v", err)
	}
	if out.Replaced != "a" || out.Cells != 1 {
		t.Errorf("replace result = %+v, want replaced a with 1 cell", out)
	}
	if _, ok := server.conceptsSnapshot()["a"]; ok {
		t.Error("replaced concept should be forgotten")
	}
	if h, _ := server.index.Cell(grid.Coord{X: 10, Y: 2}); h != "b" {
		t.Errorf("cell handle = %v, want b", h)
	}
}

func TestHandleRegister_Validation(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	negative := -1
	tests := []struct {
		name string
		args CellgridRegisterInput
	}{
		{"missing name", CellgridRegisterInput{X: 1}},
		{"negative radius", CellgridRegisterInput{Name: "a", Radius: &negative}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := server.handleRegister(ctx, &sdk.CallToolRequest{}, tt.args); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestHandleUnregisterAndBounds(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()
	req := &sdk.CallToolRequest{}

	_, b, _ := server.handleBounds(ctx, req, CellgridBoundsInput{})
	if b.Defined {
		t.Errorf("bounds on empty grid should be undefined, got %+v", b)
	}

	server.handleRegister(ctx, req, CellgridRegisterInput{Name: "a", X: -3, Y: 4})
	server.handleRegister(ctx, req, CellgridRegisterInput{Name: "b", X: 5, Y: -1})

	_, b, _ = server.handleBounds(ctx, req, CellgridBoundsInput{})
	want := CellgridBoundsOutput{Defined: true, MinX: -3, MaxX: 5, MinY: -1, MaxY: 4, Width: 9, Height: 6, Cells: 2}
	if b != want {
		t.Errorf("bounds = %+v, want %+v", b, want)
	}

	_, u, err := server.handleUnregister(ctx, req, CellgridUnregisterInput{Name: "b"})
	if err != nil {
		t.Fatalf("unregister: %v", err)
	}
	if !u.Removed || u.Cells != 1 {
		t.Errorf("unregister result = %+v", u)
	}

	_, b, _ = server.handleBounds(ctx, req, CellgridBoundsInput{})
	if b.MinX != -3 || b.MaxX != -3 || b.MinY != 4 || b.MaxY != 4 {
		t.Errorf("bounds after unregister = %+v, want point (-3,4)", b)
	}

	_, u, _ = server.handleUnregister(ctx, req, CellgridUnregisterInput{Name: "missing"})
	if u.Removed {
		t.Error("unregistering an unknown concept should report removed=false")
	}
}

func TestHandlePending(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()
	req := &sdk.CallToolRequest{}

	server.handleAddPending(ctx, req, CellgridAddPendingInput{X: 1, Y: 1, Amount: 3})
	_, add, _ := server.handleAddPending(ctx, req, CellgridAddPendingInput{X: 1, Y: 1, Amount: 4})
	if add.Total != 7 {
		t.Errorf("total = %v, want 7", add.Total)
	}
	server.handleAddPending(ctx, req, CellgridAddPendingInput{X: 0, Y: 0, Amount: 0.5})

	high := 7.1
	_, out, _ := server.handleDrainPending(ctx, req, CellgridDrainPendingInput{Threshold: &high})
	if out.Count != 0 {
		t.Errorf("drain at 7.1 = %+v, want nothing", out)
	}

	// Server default threshold is 1.0.
	_, out, _ = server.handleDrainPending(ctx, req, CellgridDrainPendingInput{})
	if out.Threshold != 1.0 || out.Count != 1 {
		t.Fatalf("default drain = %+v, want one entry at threshold 1", out)
	}
	if out.Drained[0] != (PendingItem{X: 1, Y: 1, Amount: 7}) {
		t.Errorf("drained = %+v", out.Drained[0])
	}

	if v, ok := server.index.Pending(grid.Coord{}); !ok || v != 0.5 {
		t.Errorf("below-threshold entry should remain, got %v %v", v, ok)
	}
}

func TestHandleDrainPending_ZeroThreshold(t *testing.T) {
	zero := 0.0
	server, err := NewServer(&Config{Name: "test-server", DrainThreshold: &zero})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	defer server.Close()

	ctx := context.Background()
	req := &sdk.CallToolRequest{}
	server.handleAddPending(ctx, req, CellgridAddPendingInput{X: 2, Y: 3, Amount: 0.5})

	_, out, err := server.handleDrainPending(ctx, req, CellgridDrainPendingInput{})
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if out.Threshold != 0 || out.Count != 1 {
		t.Fatalf("drain with configured threshold 0 = %+v, want one entry at threshold 0", out)
	}
	if out.Drained[0] != (PendingItem{X: 2, Y: 3, Amount: 0.5}) {
		t.Errorf("drained = %+v", out.Drained[0])
	}
}

func TestHandleCapacity(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	tests := []struct {
		args       CellgridCapacityInput
		grow, drop bool
	}{
		{CellgridCapacityInput{Name: "c", Usage: 0.6}, false, false},
		{CellgridCapacityInput{Name: "c", Usage: 0.61}, true, false},
		{CellgridCapacityInput{Name: "c", Dormancy: 201}, false, true},
	}
	for _, tt := range tests {
		_, out, err := server.handleCapacity(ctx, &sdk.CallToolRequest{}, tt.args)
		if err != nil {
			t.Fatalf("capacity: %v", err)
		}
		if out.ShouldGrow != tt.grow || out.ShouldShrink != tt.drop {
			t.Errorf("capacity(%+v) = %+v", tt.args, out)
		}
	}

	if _, _, err := server.handleCapacity(ctx, &sdk.CallToolRequest{}, CellgridCapacityInput{}); err == nil {
		t.Error("expected error for missing name")
	}
}

func TestHandleDrainPending_RateLimited(t *testing.T) {
	server := setupTestServer(t)
	server.toolLimiters[ratelimit.ToolDrainPending] = ratelimit.NewLimiter(0, 1)

	ctx := context.Background()
	req := &sdk.CallToolRequest{}

	if _, _, err := server.handleDrainPending(ctx, req, CellgridDrainPendingInput{}); err != nil {
		t.Fatalf("first drain should succeed: %v", err)
	}
	_, _, err := server.handleDrainPending(ctx, req, CellgridDrainPendingInput{})
	if !errors.Is(err, ratelimit.ErrRateLimited) {
		t.Errorf("expected rate limit error, got: %v", err)
	}
}
