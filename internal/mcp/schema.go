package mcp

// CellgridPlaceInput defines the input for the cellgrid_place tool.
type CellgridPlaceInput struct {
	Name string   `json:"name" jsonschema:"name of the concept to place"`
	Tags []string `json:"tags,omitempty" jsonschema:"descriptive tags used to find a related anchor concept"`
}

// CellgridPlaceOutput defines the output for the cellgrid_place tool.
type CellgridPlaceOutput struct {
	Name     string `json:"name" jsonschema:"concept name"`
	X        int    `json:"x" jsonschema:"chosen x coordinate"`
	Y        int    `json:"y" jsonschema:"chosen y coordinate"`
	Existing int    `json:"existing" jsonschema:"number of registered concepts considered"`
}

// CellgridRegisterInput defines the input for the cellgrid_register tool.
type CellgridRegisterInput struct {
	Name   string   `json:"name" jsonschema:"concept name; also the cell handle"`
	X      int      `json:"x" jsonschema:"x coordinate of the concept center"`
	Y      int      `json:"y" jsonschema:"y coordinate of the concept center"`
	Tags   []string `json:"tags,omitempty" jsonschema:"tags used by later placements"`
	Radius *int     `json:"radius,omitempty" jsonschema:"concept radius; the default applies when omitted"`
}

// CellgridRegisterOutput defines the output for the cellgrid_register tool.
type CellgridRegisterOutput struct {
	Name     string `json:"name" jsonschema:"registered concept"`
	Replaced string `json:"replaced,omitempty" jsonschema:"concept previously registered at the same coordinate"`
	Moved    bool   `json:"moved" jsonschema:"whether the concept was registered elsewhere before"`
	Cells    int    `json:"cells" jsonschema:"number of registered cells"`
}

// CellgridUnregisterInput defines the input for the cellgrid_unregister tool.
type CellgridUnregisterInput struct {
	Name string `json:"name" jsonschema:"concept to remove"`
}

// CellgridUnregisterOutput defines the output for the cellgrid_unregister tool.
type CellgridUnregisterOutput struct {
	Name    string `json:"name" jsonschema:"concept name"`
	Removed bool   `json:"removed" jsonschema:"whether the concept was registered"`
	Cells   int    `json:"cells" jsonschema:"number of registered cells"`
}

// CellgridBoundsInput defines the input for the cellgrid_bounds tool.
type CellgridBoundsInput struct{}

// CellgridBoundsOutput defines the output for the cellgrid_bounds tool.
type CellgridBoundsOutput struct {
	Defined bool `json:"defined" jsonschema:"false when no cell is registered"`
	MinX    int  `json:"min_x"`
	MaxX    int  `json:"max_x"`
	MinY    int  `json:"min_y"`
	MaxY    int  `json:"max_y"`
	Width   int  `json:"width"`
	Height  int  `json:"height"`
	Cells   int  `json:"cells" jsonschema:"number of registered cells"`
}

// CellgridAddPendingInput defines the input for the cellgrid_add_pending tool.
type CellgridAddPendingInput struct {
	X      int     `json:"x" jsonschema:"x coordinate receiving input"`
	Y      int     `json:"y" jsonschema:"y coordinate receiving input"`
	Amount float64 `json:"amount" jsonschema:"amount to accumulate"`
}

// CellgridAddPendingOutput defines the output for the cellgrid_add_pending tool.
type CellgridAddPendingOutput struct {
	X     int     `json:"x"`
	Y     int     `json:"y"`
	Total float64 `json:"total" jsonschema:"accumulated pending amount at the coordinate"`
}

// CellgridDrainPendingInput defines the input for the cellgrid_drain_pending tool.
type CellgridDrainPendingInput struct {
	Threshold *float64 `json:"threshold,omitempty" jsonschema:"minimum accumulated amount to drain; server default when omitted"`
}

// PendingItem is one drained coordinate.
type PendingItem struct {
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Amount float64 `json:"amount"`
}

// CellgridDrainPendingOutput defines the output for the cellgrid_drain_pending tool.
type CellgridDrainPendingOutput struct {
	Threshold float64       `json:"threshold" jsonschema:"threshold applied"`
	Drained   []PendingItem `json:"drained" jsonschema:"entries removed, in row-major order"`
	Count     int           `json:"count"`
}

// CellgridCapacityInput defines the input for the cellgrid_capacity tool.
type CellgridCapacityInput struct {
	Name     string  `json:"name" jsonschema:"concept name"`
	Usage    float64 `json:"usage,omitempty" jsonschema:"fraction of capacity in use, 0.0 to 1.0"`
	Dormancy int     `json:"dormancy,omitempty" jsonschema:"idle cycles since last activity"`
}

// CellgridCapacityOutput defines the output for the cellgrid_capacity tool.
type CellgridCapacityOutput struct {
	Name         string `json:"name"`
	ShouldGrow   bool   `json:"should_grow"`
	ShouldShrink bool   `json:"should_shrink"`
}
