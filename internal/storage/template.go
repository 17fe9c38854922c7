package storage

const (
	NodeStart     = "Start"
	NodeEnd       = "Einde"
	NodeMachine   = "Machine"
	NodeFinishing = "Finishing"
	NodeLabor     = "Labor"
)

type ProductTemplate struct {
	ID                 int64          `json:"id" yaml:"id"`
	Name               string         `json:"name" yaml:"name"`
	Category           string         `json:"category" yaml:"category"`
	DefaultMaterialID  *int64         `json:"default_material_id" yaml:"default_material_id"`
	Width              float64        `json:"width" yaml:"width"`   // мм
	Height             float64        `json:"height" yaml:"height"` // мм
	WorkflowDefinition *WorkflowGraph `json:"workflow_definition" yaml:"workflow_definition"`
	IsActive           bool           `json:"is_active" yaml:"is_active"`
}

// WorkflowGraph is the node/edge document authored in the template builder.
type WorkflowGraph struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`
}

type Node struct {
	ID       string   `json:"id" yaml:"id"`
	Data     NodeData `json:"data" yaml:"data"`
	Position Position `json:"position" yaml:"position"`
}

type NodeData struct {
	Type       string `json:"type" yaml:"type"`
	Label      string `json:"label" yaml:"label"`
	ResourceID *int64 `json:"resourceId" yaml:"resourceId"`
	Notes      string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

type Edge struct {
	ID     string `json:"id,omitempty" yaml:"id,omitempty"`
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

// IsTerminal reports whether the node is the Start or Einde marker.
func (n Node) IsTerminal() bool {
	return n.Data.Type == NodeStart || n.Data.Type == NodeEnd
}

// ResourceType maps a node type to the resource table it references.
func (n Node) ResourceType() (ResourceType, bool) {
	switch n.Data.Type {
	case NodeMachine:
		return ResourceMachine, true
	case NodeFinishing:
		return ResourceFinishing, true
	case NodeLabor:
		return ResourceLabor, true
	default:
		return "", false
	}
}
