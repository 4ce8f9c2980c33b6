package workflow

import (
	"fmt"

	"github.com/dukex/flowdeck/pkg/models"
	"github.com/google/uuid"
)

const (
	// GeneratedWorkflowName names collaborator-returned workflows that came back unnamed.
	GeneratedWorkflowName = "Generated Workflow"
	// UnknownNodeType is assigned to nodes returned without a type.
	UnknownNodeType = "unknown"

	layoutSpacing = 200
	layoutColumns = 5
)

// Clean fills the gaps a collaborator (typically the AI assistant) may leave in a returned
// workflow so it can be loaded by the designer. It modifies and returns w; a nil w yields a
// fresh workflow. Nodes at [0,0] are treated as unplaced and laid out on a grid.
func Clean(w *models.Workflow) *models.Workflow {
	if w == nil {
		w = &models.Workflow{}
	}

	if w.Name == "" {
		w.Name = GeneratedWorkflowName
	}

	if w.Nodes == nil {
		w.Nodes = []*models.Node{}
	}

	for index, node := range w.Nodes {
		if node == nil {
			node = &models.Node{}
			w.Nodes[index] = node
		}

		if node.ID == "" {
			node.ID = fmt.Sprintf("node_%d", index)
		}

		if node.Name == "" {
			node.Name = fmt.Sprintf("Node %d", index)
		}

		if node.Type == "" {
			node.Type = UnknownNodeType
		}

		if node.Parameters == nil {
			node.Parameters = map[string]any{}
		}

		if node.Position == (models.Position{}) {
			node.Position = models.Position{
				float64(index * layoutSpacing),
				float64(index / layoutColumns * layoutSpacing),
			}
		}
	}

	return w
}

// CleanNode completes a node configured for a given node type and keeps only the
// parameters the type declares. Missing required parameters get their default, or nil.
func CleanNode(node *models.Node, description models.NodeTypeDescription) *models.Node {
	if node == nil {
		node = &models.Node{}
	}

	if node.ID == "" {
		node.ID = "node_" + uuid.NewString()
	}

	if node.Name == "" {
		node.Name = description.DisplayName
		if node.Name == "" {
			node.Name = description.Name
		}
	}

	if node.Type == "" {
		node.Type = description.Name
	}

	parameters := make(map[string]any)

	for _, property := range description.Properties {
		if value, ok := node.Parameters[property.Name]; ok {
			parameters[property.Name] = value
		} else if property.Required {
			parameters[property.Name] = property.Default
		}
	}

	node.Parameters = parameters

	return node
}
