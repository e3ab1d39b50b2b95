package graph

// PrimitiveKind distinguishes between primitive shapes.
type PrimitiveKind int

const (
	PrimBox      PrimitiveKind = iota // rectangular solid
	PrimCylinder                      // z-axis cylinder
)

func (k PrimitiveKind) String() string {
	switch k {
	case PrimBox:
		return "box"
	case PrimCylinder:
		return "cylinder"
	default:
		return "unknown"
	}
}

// BoxData is a rectangular solid with its minimum corner at the origin.
type BoxData struct {
	Size Vec3 `json:"size"` // mm
}

func (BoxData) nodeData() {}

// CylinderData is a cylinder standing on z = 0, centred on the z axis.
type CylinderData struct {
	Radius float64 `json:"radius"` // mm
	Height float64 `json:"height"` // mm
}

func (CylinderData) nodeData() {}

// PrimitiveKindOf returns the shape of a primitive payload.
func PrimitiveKindOf(d NodeData) (PrimitiveKind, bool) {
	switch d.(type) {
	case BoxData:
		return PrimBox, true
	case CylinderData:
		return PrimCylinder, true
	}
	return 0, false
}

// ImportData is a mesh read from an STL file. Relative paths resolve
// against the directory of the job script.
type ImportData struct {
	Path  string  `json:"path"`
	Scale float64 `json:"scale,omitempty"` // uniform; zero means 1
}

func (ImportData) nodeData() {}

// TransformData places its single child. Rotation (Euler degrees, x then
// y then z) is applied before translation.
type TransformData struct {
	Translation *Vec3 `json:"translation,omitempty"`
	Rotation    *Vec3 `json:"rotation,omitempty"`
}

func (TransformData) nodeData() {}

// GroupData is the payload of a plate.
type GroupData struct {
	Description string `json:"description,omitempty"`
}

func (GroupData) nodeData() {}
