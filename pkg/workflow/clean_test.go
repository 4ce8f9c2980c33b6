package workflow

import (
	"strings"
	"testing"

	"github.com/dukex/flowdeck/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean_FillsDefaults(t *testing.T) {
	w := &models.Workflow{
		Nodes: []*models.Node{
			{},
			{ID: "keep", Name: "Keep", Type: "t", Position: models.Position{10, 20}, Parameters: map[string]any{"a": 1}},
			nil,
		},
	}

	cleaned := Clean(w)

	require.Same(t, w, cleaned)
	assert.Equal(t, GeneratedWorkflowName, cleaned.Name)

	assert.Equal(t, &models.Node{
		ID:         "node_0",
		Name:       "Node 0",
		Type:       UnknownNodeType,
		Position:   models.Position{0, 0},
		Parameters: map[string]any{},
	}, cleaned.Nodes[0])

	assert.Equal(t, "keep", cleaned.Nodes[1].ID)
	assert.Equal(t, models.Position{10, 20}, cleaned.Nodes[1].Position)
	assert.Equal(t, map[string]any{"a": 1}, cleaned.Nodes[1].Parameters)

	require.NotNil(t, cleaned.Nodes[2])
	assert.Equal(t, "node_2", cleaned.Nodes[2].ID)
	assert.Equal(t, models.Position{400, 0}, cleaned.Nodes[2].Position)
}

func TestClean_GridLayoutWraps(t *testing.T) {
	w := &models.Workflow{Name: "grid"}
	for range 7 {
		w.Nodes = append(w.Nodes, &models.Node{})
	}

	Clean(w)

	assert.Equal(t, models.Position{800, 0}, w.Nodes[4].Position)
	assert.Equal(t, models.Position{1000, 200}, w.Nodes[5].Position)
	assert.Equal(t, models.Position{1200, 200}, w.Nodes[6].Position)
}

func TestClean_Idempotent(t *testing.T) {
	w := Clean(&models.Workflow{Nodes: []*models.Node{{}, {Type: "x"}}})

	first := *w.Nodes[1]
	Clean(w)

	assert.Equal(t, first, *w.Nodes[1])
	assert.Equal(t, GeneratedWorkflowName, w.Name)
}

func TestClean_NilWorkflow(t *testing.T) {
	w := Clean(nil)

	assert.Equal(t, GeneratedWorkflowName, w.Name)
	assert.NotNil(t, w.Nodes)
	assert.True(t, ValidateWorkflow(w).Has(IssueEmptyNodeSet))
}

func TestCleanNode(t *testing.T) {
	description := models.NodeTypeDescription{
		DisplayName: "HTTP Request",
		Name:        "n8n-nodes-base.httpRequest",
		Properties: []models.NodeProperty{
			{Name: "url", Type: "string", Required: true},
			{Name: "method", Type: "options", Required: true, Default: "GET"},
			{Name: "timeout", Type: "number"},
			{Name: "body", Type: "json"},
		},
	}

	t.Run("fills identity and required defaults", func(t *testing.T) {
		node := CleanNode(&models.Node{Parameters: map[string]any{"url": "https://example.com", "bogus": true}}, description)

		assert.True(t, strings.HasPrefix(node.ID, "node_"))
		assert.Equal(t, "HTTP Request", node.Name)
		assert.Equal(t, "n8n-nodes-base.httpRequest", node.Type)
		assert.Equal(t, map[string]any{"url": "https://example.com", "method": "GET"}, node.Parameters)
	})

	t.Run("required without default becomes nil", func(t *testing.T) {
		node := CleanNode(&models.Node{ID: "n", Name: "N", Type: "x"}, description)

		assert.Equal(t, "n", node.ID)
		assert.Equal(t, "x", node.Type)
		assert.Contains(t, node.Parameters, "url")
		assert.Nil(t, node.Parameters["url"])
		assert.NotContains(t, node.Parameters, "timeout")
	})

	t.Run("keeps explicit null for declared property", func(t *testing.T) {
		node := CleanNode(&models.Node{Parameters: map[string]any{"body": nil}}, description)

		assert.Contains(t, node.Parameters, "body")
	})

	t.Run("falls back to type name", func(t *testing.T) {
		node := CleanNode(nil, models.NodeTypeDescription{Name: "custom"})

		assert.Equal(t, "custom", node.Name)
		assert.Empty(t, node.Parameters)
	})
}
