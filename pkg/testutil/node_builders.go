// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"github.com/dukex/flowdeck/pkg/models"
	"github.com/google/uuid"
)

// CreateTestNode creates a test Node with default values that can be overridden.
func CreateTestNode(overrides ...func(*models.Node)) *models.Node {
	node := &models.Node{
		ID:          uuid.New().String(),
		Name:        "Test Node",
		Type:        "n8n-nodes-base.set",
		Position:    models.Position{100, 200},
		Parameters:  map[string]any{},
		TypeVersion: models.DefaultTypeVersion,
		Credentials: map[string]models.CredentialRef{},
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithWebhookNode configures the node as a webhook trigger.
func WithWebhookNode() func(*models.Node) {
	return func(n *models.Node) {
		n.Type = "n8n-nodes-base.webhook"
		n.Parameters = map[string]any{
			"path":       "test",
			"httpMethod": "POST",
		}
	}
}

// WithParameters sets the node parameters.
func WithParameters(parameters map[string]any) func(*models.Node) {
	return func(n *models.Node) {
		n.Parameters = parameters
	}
}

// WithCredential adds a credential reference under slot.
func WithCredential(slot string, ref models.CredentialRef) func(*models.Node) {
	return func(n *models.Node) {
		n.Credentials[slot] = ref
	}
}

// WithName sets the node name.
func WithName(name string) func(*models.Node) {
	return func(n *models.Node) {
		n.Name = name
	}
}

// WithPosition sets the node position.
func WithPosition(x, y float64) func(*models.Node) {
	return func(n *models.Node) {
		n.Position = models.Position{x, y}
	}
}

// WithDisabled sets the node disabled flag.
func WithDisabled(disabled bool) func(*models.Node) {
	return func(n *models.Node) {
		n.Disabled = disabled
	}
}

// WithType sets the node type.
func WithType(nodeType string) func(*models.Node) {
	return func(n *models.Node) {
		n.Type = nodeType
	}
}

// WithID sets the node ID.
func WithID(id string) func(*models.Node) {
	return func(n *models.Node) {
		n.ID = id
	}
}

// CreateTestWorkflow creates an empty test workflow.
func CreateTestWorkflow(name string) *models.Workflow {
	return &models.Workflow{
		Name:  name,
		Nodes: []*models.Node{},
	}
}

// CreateTestWorkflowWithNodes creates a workflow whose webhook node feeds a set node on
// the main output.
func CreateTestWorkflowWithNodes(name string) *models.Workflow {
	workflow := CreateTestWorkflow(name)

	webhook := CreateTestNode(WithWebhookNode(), WithID("webhook"), WithName("Webhook"))
	set := CreateTestNode(WithID("set"), WithName("Set"), WithPosition(300, 200))

	workflow.Nodes = []*models.Node{webhook, set}
	Connect(workflow, "webhook", "set")

	return workflow
}

// Connect appends a main-to-main connection from source to target.
func Connect(workflow *models.Workflow, source, target string) {
	workflow.Connections.Append(source, models.MainSlot, models.ConnectionTarget{Node: target, Type: models.MainSlot})
}
