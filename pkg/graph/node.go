package graph

// NodeKind says what a node contributes to a plate.
type NodeKind int

const (
	NodePrimitive NodeKind = iota // kernel solid (box, cylinder)
	NodeImport                    // mesh loaded from an STL file
	NodeTransform                 // spatial transformation (place)
	NodeGroup                     // build plate
)

func (k NodeKind) String() string {
	switch k {
	case NodePrimitive:
		return "primitive"
	case NodeImport:
		return "import"
	case NodeTransform:
		return "transform"
	case NodeGroup:
		return "group"
	default:
		return "unknown"
	}
}

// IsPart reports whether nodes of kind k produce geometry.
func (k NodeKind) IsPart() bool {
	return k == NodePrimitive || k == NodeImport
}

// Node is one part, placement or plate. Only placements and plates have
// children.
type Node struct {
	ID       NodeID    `json:"id"`
	Kind     NodeKind  `json:"kind"`
	Name     string    `json:"name,omitempty"`
	Source   SourceRef `json:"source"`
	Children []NodeID  `json:"children,omitempty"`
	Data     NodeData  `json:"data"`
}

// NodeData is a node's kind-specific payload. The set of payload types is
// closed.
type NodeData interface {
	nodeData()
}
