package graph

import (
	"math"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// buildValidPlate creates a plate holding a placed box, a cylinder, and an
// imported mesh, with every node reachable from the plate root.
func buildValidPlate() *SceneGraph {
	g := New()

	boxID := NewNodeID("defpart/block")
	cylID := NewNodeID("defpart/peg")
	stlID := NewNodeID("stl/benchy")
	placeID := NewNodeID("place/block")
	plateID := NewNodeID("plate/main")

	at := Vec3{20, 0, 0}
	g.AddNode(&Node{ID: boxID, Kind: NodePrimitive, Name: "block", Data: BoxData{Size: Vec3{10, 10, 10}}})
	g.AddNode(&Node{ID: cylID, Kind: NodePrimitive, Name: "peg", Data: CylinderData{Radius: 3, Height: 12}})
	g.AddNode(&Node{ID: stlID, Kind: NodeImport, Name: "benchy", Data: ImportData{Path: "benchy.stl"}})
	g.AddNode(&Node{
		ID: placeID, Kind: NodeTransform,
		Children: []NodeID{boxID},
		Data:     TransformData{Translation: &at},
	})
	g.AddNode(&Node{
		ID: plateID, Kind: NodeGroup, Name: "main",
		Children: []NodeID{placeID, cylID, stlID},
		Data:     GroupData{Description: "test plate"},
	})
	g.AddRoot(plateID)

	return g
}

// hasError returns true if errs contains at least one error-severity finding
// whose message contains substr.
func hasError(errs []ValidationError, substr string) bool {
	for _, e := range errs {
		if e.Severity == SeverityError && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// hasWarning returns true if errs contains at least one warning-severity
// finding whose message contains substr.
func hasWarning(errs []ValidationError, substr string) bool {
	for _, e := range errs {
		if e.Severity == SeverityWarning && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

func logFindings(t *testing.T, errs []ValidationError) {
	t.Helper()
	for _, e := range errs {
		t.Logf("  %s", e)
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestValidate_ValidGraph(t *testing.T) {
	g := buildValidPlate()
	for _, e := range Validate(g) {
		t.Errorf("unexpected validation error: %s", e)
	}
}

func TestValidate_EmptyGraph(t *testing.T) {
	for _, e := range Validate(New()) {
		t.Errorf("unexpected validation error on empty graph: %s", e)
	}
}

func TestValidate_CycleDetection(t *testing.T) {
	g := New()

	aID := NewNodeID("a")
	bID := NewNodeID("b")
	cID := NewNodeID("c")

	// a -> b -> c -> a
	g.AddNode(&Node{ID: aID, Kind: NodeGroup, Name: "a", Children: []NodeID{bID}, Data: GroupData{}})
	g.AddNode(&Node{ID: bID, Kind: NodeTransform, Name: "b", Children: []NodeID{cID}, Data: TransformData{}})
	g.AddNode(&Node{ID: cID, Kind: NodeGroup, Name: "c", Children: []NodeID{aID}, Data: GroupData{}})
	g.AddRoot(aID)

	errs := Validate(g)
	if !hasError(errs, "cycle") {
		t.Error("expected cycle detection error, got none")
		logFindings(t, errs)
	}
}

func TestValidate_DanglingReference(t *testing.T) {
	g := New()

	parentID := NewNodeID("parent")
	missingID := NewNodeID("missing-child")

	g.AddNode(&Node{ID: parentID, Kind: NodeGroup, Name: "parent", Children: []NodeID{missingID}, Data: GroupData{}})
	g.AddRoot(parentID)

	errs := Validate(g)
	if !hasError(errs, "does not exist") {
		t.Error("expected dangling reference error, got none")
		logFindings(t, errs)
	}
}

func TestValidate_DanglingRoot(t *testing.T) {
	g := New()
	g.AddRoot(NewNodeID("plate/ghost"))

	errs := Validate(g)
	if !hasError(errs, "root reference") {
		t.Error("expected dangling root error, got none")
		logFindings(t, errs)
	}
}

func TestValidate_PartWithChildren(t *testing.T) {
	g := buildValidPlate()
	block := g.MustLookup("block")
	block.Children = []NodeID{g.MustLookup("peg").ID}

	errs := Validate(g)
	if !hasError(errs, "want none") {
		t.Error("expected part-with-children error, got none")
		logFindings(t, errs)
	}
}

func TestValidate_DuplicateNames(t *testing.T) {
	g := buildValidPlate()
	dup := NewNodeID("defpart/block-2")
	g.Nodes[dup] = &Node{ID: dup, Kind: NodePrimitive, Name: "block", Data: BoxData{Size: Vec3{1, 1, 1}}}
	plate := g.MustLookup("main")
	plate.Children = append(plate.Children, dup)

	errs := Validate(g)
	if !hasError(errs, "duplicate name") {
		t.Error("expected duplicate name error, got none")
		logFindings(t, errs)
	}
}

func TestValidate_StaleNameIndex(t *testing.T) {
	g := buildValidPlate()
	g.NameIndex["ghost"] = NewNodeID("defpart/ghost")

	errs := Validate(g)
	if !hasError(errs, "non-existent node") {
		t.Error("expected stale name index error, got none")
		logFindings(t, errs)
	}
}

func TestValidate_Orphan(t *testing.T) {
	g := buildValidPlate()
	id := NewNodeID("defpart/spare")
	g.AddNode(&Node{ID: id, Kind: NodePrimitive, Name: "spare", Data: BoxData{Size: Vec3{1, 1, 1}}})

	errs := Validate(g)
	if !hasWarning(errs, "orphan") {
		t.Error("expected orphan warning, got none")
		logFindings(t, errs)
	}
	if hasError(errs, "spare") {
		t.Error("orphans must not block slicing")
	}
}

func TestValidate_Dimensions(t *testing.T) {
	tests := []struct {
		name string
		data NodeData
		want string
	}{
		{"zero box x", BoxData{Size: Vec3{0, 1, 1}}, "box dimension X"},
		{"negative box y", BoxData{Size: Vec3{1, -1, 1}}, "box dimension Y"},
		{"nan box z", BoxData{Size: Vec3{1, 1, math.NaN()}}, "box dimension Z"},
		{"infinite box z", BoxData{Size: Vec3{1, 1, math.Inf(1)}}, "box dimension Z"},
		{"zero radius", CylinderData{Radius: 0, Height: 1}, "cylinder radius"},
		{"negative height", CylinderData{Radius: 1, Height: -2}, "cylinder height"},
		{"unsupported data", GroupData{}, "unsupported data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := buildValidPlate()
			g.MustLookup("peg").Data = tt.data

			errs := Validate(g)
			if !hasError(errs, tt.want) {
				t.Errorf("expected error containing %q", tt.want)
				logFindings(t, errs)
			}
		})
	}
}

func TestValidate_Imports(t *testing.T) {
	tests := []struct {
		name string
		data ImportData
		want string
	}{
		{"empty path", ImportData{}, "empty path"},
		{"negative scale", ImportData{Path: "a.stl", Scale: -1}, "scale"},
		{"nan scale", ImportData{Path: "a.stl", Scale: math.NaN()}, "scale"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := buildValidPlate()
			g.MustLookup("benchy").Data = tt.data

			errs := Validate(g)
			if !hasError(errs, tt.want) {
				t.Errorf("expected error containing %q", tt.want)
				logFindings(t, errs)
			}
		})
	}
}

func TestValidate_EmptyTransform(t *testing.T) {
	g := buildValidPlate()
	id := NewNodeID("place/nothing")
	g.AddNode(&Node{ID: id, Kind: NodeTransform, Data: TransformData{}})
	plate := g.MustLookup("main")
	plate.Children = append(plate.Children, id)

	errs := Validate(g)
	if !hasWarning(errs, "no children") {
		t.Error("expected empty transform warning, got none")
		logFindings(t, errs)
	}
}

func TestValidateAll(t *testing.T) {
	g := buildValidPlate()
	spare := NewNodeID("defpart/spare")
	g.AddNode(&Node{ID: spare, Kind: NodePrimitive, Name: "spare", Data: BoxData{Size: Vec3{1, 1, 1}}})
	g.MustLookup("peg").Data = CylinderData{Radius: 0, Height: 1}

	res := ValidateAll(g)
	if res.OK() {
		t.Fatal("expected blocking errors")
	}
	if len(res.Errors) != 1 {
		t.Errorf("errors = %d, want 1", len(res.Errors))
	}
	if len(res.Warnings) != 1 || res.Warnings[0].NodeID != spare {
		t.Errorf("warnings = %v, want one orphan warning for spare", res.Warnings)
	}

	if !ValidateAll(buildValidPlate()).OK() {
		t.Error("valid plate should be OK")
	}
}

func TestValidationErrorString(t *testing.T) {
	e := ValidationError{Message: "graph problem", Severity: SeverityError}
	if got := e.Error(); got != "[error] graph problem" {
		t.Errorf("Error() = %q", got)
	}

	id := NewNodeID("x")
	e = ValidationError{NodeID: id, Message: "node problem", Severity: SeverityWarning}
	want := "[warning] node " + id.Short() + ": node problem"
	if got := e.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
