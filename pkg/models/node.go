package models

// Default slot and version values applied when a visual element leaves them out.
const (
	MainSlot           = "main"
	DefaultTypeVersion = 1
)

// Position is a UI-only [x, y] coordinate.
type Position [2]float64

// CredentialRef points at a stored credential. It never carries secret material.
type CredentialRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Node is a single step in a workflow.
type Node struct {
	ID          string                   `json:"id"`
	Name        string                   `json:"name"`
	Type        string                   `json:"type"`
	Position    Position                 `json:"position"`
	Parameters  map[string]any           `json:"parameters"`
	TypeVersion float64                  `json:"typeVersion,omitempty"`
	Credentials map[string]CredentialRef `json:"credentials,omitempty"`
	Disabled    bool                     `json:"disabled,omitempty"`
	Notes       string                   `json:"notes,omitempty"`
}

// VisualNode is a node as drawn by the designer. Zero values mean "not set".
type VisualNode struct {
	ID          string                   `json:"id"`
	Name        string                   `json:"name,omitempty"`
	Type        string                   `json:"type"`
	Position    Position                 `json:"position"`
	Parameters  map[string]any           `json:"parameters,omitempty"`
	TypeVersion float64                  `json:"typeVersion,omitempty"`
	Credentials map[string]CredentialRef `json:"credentials,omitempty"`
	Disabled    bool                     `json:"disabled,omitempty"`
	Notes       string                   `json:"notes,omitempty"`
}

// VisualConnection is a directed edge in the designer's edge list.
type VisualConnection struct {
	Source            string `json:"source"`
	Target            string `json:"target"`
	SourceOutput      string `json:"sourceOutput,omitempty"`
	TargetInput       string `json:"targetInput,omitempty"`
	SourceOutputIndex int    `json:"sourceOutputIndex,omitempty"`
}

// NodeProperty describes one configurable parameter of a node type.
type NodeProperty struct {
	DisplayName string               `json:"displayName"           yaml:"displayName"`
	Name        string               `json:"name"                  yaml:"name"`
	Type        string               `json:"type"                  yaml:"type"`
	Default     any                  `json:"default,omitempty"     yaml:"default,omitempty"`
	Description string               `json:"description,omitempty" yaml:"description,omitempty"`
	Placeholder string               `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Options     []NodePropertyOption `json:"options,omitempty"     yaml:"options,omitempty"`
	Required    bool                 `json:"required,omitempty"    yaml:"required,omitempty"`
	TypeOptions map[string]any       `json:"typeOptions,omitempty" yaml:"typeOptions,omitempty"`
}

// NodePropertyOption is one choice of an options-typed property.
type NodePropertyOption struct {
	Name        string `json:"name"                  yaml:"name"`
	Value       string `json:"value"                 yaml:"value"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// NodeTypeDescription is a node type catalog entry.
type NodeTypeDescription struct {
	DisplayName string         `json:"displayName" yaml:"displayName"`
	Name        string         `json:"name"        yaml:"name"`
	Group       []string       `json:"group"       yaml:"group"`
	Description string         `json:"description" yaml:"description"`
	Version     float64        `json:"version"     yaml:"version"`
	Defaults    NodeDefaults   `json:"defaults"    yaml:"defaults"`
	Inputs      []string       `json:"inputs"      yaml:"inputs"`
	Outputs     []string       `json:"outputs"     yaml:"outputs"`
	Properties  []NodeProperty `json:"properties"  yaml:"properties"`
}

// NodeDefaults are the designer defaults of a node type.
type NodeDefaults struct {
	Name  string `json:"name"  yaml:"name"`
	Color string `json:"color" yaml:"color"`
}
