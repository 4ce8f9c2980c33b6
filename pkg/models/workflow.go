// Package models defines the n8n-style workflow data model shared by the designer, the
// deployment pipeline and the execution monitor.
package models

import "time"

// DefaultWorkflowName is used when a visual graph arrives without a name.
const DefaultWorkflowName = "New Workflow"

// WorkflowSettings holds the optional n8n workflow settings block.
type WorkflowSettings struct {
	SaveExecutionProgress    *bool  `json:"saveExecutionProgress,omitempty"`
	SaveManualExecutions     *bool  `json:"saveManualExecutions,omitempty"`
	SaveDataErrorExecution   string `json:"saveDataErrorExecution,omitempty"`
	SaveDataSuccessExecution string `json:"saveDataSuccessExecution,omitempty"`
	ExecutionTimeout         int    `json:"executionTimeout,omitempty"` // Seconds
	ErrorWorkflow            string `json:"errorWorkflow,omitempty"`
	CallerPolicy             string `json:"callerPolicy,omitempty"`
	Timezone                 string `json:"timezone,omitempty"`
}

// Workflow is a workflow in adjacency form, the shape exchanged with the deployment,
// execution and AI collaborators.
type Workflow struct {
	ID          string            `json:"id,omitempty"`
	Name        string            `json:"name"`
	Active      bool              `json:"active"`
	Nodes       []*Node           `json:"nodes"`
	Connections Connections       `json:"connections"`
	Settings    *WorkflowSettings `json:"settings,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	PinData     map[string][]any  `json:"pinData,omitempty"`
	StaticData  map[string]any    `json:"staticData,omitempty"`
	VersionID   string            `json:"versionId,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// NodeByID returns the node with the given id, or nil.
func (w *Workflow) NodeByID(id string) *Node {
	for _, node := range w.Nodes {
		if node != nil && node.ID == id {
			return node
		}
	}

	return nil
}

// ExecutionTimeout returns the configured execution timeout, zero when unset.
func (w *Workflow) ExecutionTimeout() time.Duration {
	if w.Settings == nil || w.Settings.ExecutionTimeout <= 0 {
		return 0
	}

	return time.Duration(w.Settings.ExecutionTimeout) * time.Second
}

// VisualGraph is the flat node list plus edge list the designer UI works with.
type VisualGraph struct {
	Name        string             `json:"name"`
	Active      bool               `json:"active"`
	Nodes       []*VisualNode      `json:"nodes"`
	Connections []VisualConnection `json:"connections"`
	Settings    *WorkflowSettings  `json:"settings,omitempty"`
	Tags        []string           `json:"tags,omitempty"`
}
