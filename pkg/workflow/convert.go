// Package workflow converts workflows between the designer's visual edge list and the
// n8n adjacency form, and checks their structural well-formedness.
package workflow

import (
	"maps"

	"github.com/dukex/flowdeck/pkg/models"
)

// ToAdjacencyWorkflow converts a visual graph into a workflow in adjacency form. Absent
// node fields get their defaults; nothing is validated here.
func ToAdjacencyWorkflow(visual *models.VisualGraph) *models.Workflow {
	if visual == nil {
		visual = &models.VisualGraph{}
	}

	workflow := &models.Workflow{
		Name:     visual.Name,
		Active:   visual.Active,
		Nodes:    make([]*models.Node, 0, len(visual.Nodes)),
		Settings: visual.Settings,
		Tags:     visual.Tags,
	}

	if workflow.Name == "" {
		workflow.Name = models.DefaultWorkflowName
	}

	for _, visualNode := range visual.Nodes {
		workflow.Nodes = append(workflow.Nodes, toNode(visualNode))
	}

	for _, connection := range visual.Connections {
		output := connection.SourceOutput
		if output == "" {
			output = models.MainSlot
		}

		input := connection.TargetInput
		if input == "" {
			input = models.MainSlot
		}

		workflow.Connections.Append(connection.Source, output, models.ConnectionTarget{
			Node:  connection.Target,
			Type:  input,
			Index: connection.SourceOutputIndex,
		})
	}

	return workflow
}

// ToVisualGraph flattens a workflow into the designer's edge list. Connections come out
// source by source, then output by output, then in fan-out order.
func ToVisualGraph(workflow *models.Workflow) *models.VisualGraph {
	if workflow == nil {
		workflow = &models.Workflow{}
	}

	visual := &models.VisualGraph{
		Name:        workflow.Name,
		Active:      workflow.Active,
		Nodes:       make([]*models.VisualNode, 0, len(workflow.Nodes)),
		Connections: make([]models.VisualConnection, 0),
		Settings:    workflow.Settings,
		Tags:        workflow.Tags,
	}

	for _, node := range workflow.Nodes {
		visual.Nodes = append(visual.Nodes, toVisualNode(node))
	}

	for _, edge := range workflow.Connections.Edges() {
		visual.Connections = append(visual.Connections, models.VisualConnection{
			Source:            edge.Source,
			Target:            edge.Target.Node,
			SourceOutput:      edge.Output,
			TargetInput:       edge.Target.Type,
			SourceOutputIndex: edge.Target.Index,
		})
	}

	return visual
}

func toNode(visualNode *models.VisualNode) *models.Node {
	if visualNode == nil {
		visualNode = &models.VisualNode{}
	}

	node := &models.Node{
		ID:          visualNode.ID,
		Name:        visualNode.Name,
		Type:        visualNode.Type,
		Position:    visualNode.Position,
		Parameters:  maps.Clone(visualNode.Parameters),
		TypeVersion: visualNode.TypeVersion,
		Credentials: maps.Clone(visualNode.Credentials),
		Disabled:    visualNode.Disabled,
		Notes:       visualNode.Notes,
	}

	if node.Name == "" {
		node.Name = node.Type
	}

	if node.Parameters == nil {
		node.Parameters = map[string]any{}
	}

	if node.TypeVersion == 0 {
		node.TypeVersion = models.DefaultTypeVersion
	}

	if node.Credentials == nil {
		node.Credentials = map[string]models.CredentialRef{}
	}

	return node
}

func toVisualNode(node *models.Node) *models.VisualNode {
	if node == nil {
		return &models.VisualNode{}
	}

	return &models.VisualNode{
		ID:          node.ID,
		Name:        node.Name,
		Type:        node.Type,
		Position:    node.Position,
		Parameters:  maps.Clone(node.Parameters),
		TypeVersion: node.TypeVersion,
		Credentials: maps.Clone(node.Credentials),
		Disabled:    node.Disabled,
		Notes:       node.Notes,
	}
}
