package workflow

import (
	"encoding/json"
	"testing"

	"github.com/dukex/flowdeck/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullySpecifiedGraph() *models.VisualGraph {
	return &models.VisualGraph{
		Name:   "Lead intake",
		Active: true,
		Nodes: []*models.VisualNode{
			{
				ID:          "webhook",
				Name:        "Webhook",
				Type:        "n8n-nodes-base.webhook",
				Position:    models.Position{100, 200},
				Parameters:  map[string]any{"path": "leads"},
				TypeVersion: 1,
				Credentials: map[string]models.CredentialRef{},
			},
			{
				ID:          "if",
				Name:        "Qualified?",
				Type:        "n8n-nodes-base.if",
				Position:    models.Position{300, 200},
				Parameters:  map[string]any{},
				TypeVersion: 2,
				Credentials: map[string]models.CredentialRef{},
			},
			{
				ID:          "crm",
				Name:        "CRM",
				Type:        "n8n-nodes-base.hubspot",
				Position:    models.Position{500, 100},
				Parameters:  map[string]any{"resource": "contact"},
				TypeVersion: 1,
				Credentials: map[string]models.CredentialRef{"hubspotApi": {ID: "7", Name: "HubSpot"}},
				Notes:       "creates the contact",
			},
			{
				ID:          "drop",
				Name:        "Drop",
				Type:        "n8n-nodes-base.noOp",
				Position:    models.Position{500, 300},
				Parameters:  map[string]any{},
				TypeVersion: 1,
				Credentials: map[string]models.CredentialRef{},
				Disabled:    true,
			},
		},
		Connections: []models.VisualConnection{
			{Source: "webhook", Target: "if", SourceOutput: "main", TargetInput: "main", SourceOutputIndex: 0},
			{Source: "if", Target: "crm", SourceOutput: "main", TargetInput: "main", SourceOutputIndex: 0},
			{Source: "if", Target: "drop", SourceOutput: "main", TargetInput: "main", SourceOutputIndex: 1},
			{Source: "crm", Target: "drop", SourceOutput: "error", TargetInput: "main", SourceOutputIndex: 0},
		},
		Settings: &models.WorkflowSettings{Timezone: "Europe/Berlin"},
		Tags:     []string{"sales"},
	}
}

func TestRoundTrip_FullySpecifiedGraph(t *testing.T) {
	graph := fullySpecifiedGraph()

	assert.Equal(t, graph, ToVisualGraph(ToAdjacencyWorkflow(graph)))
}

func TestRoundTrip_InterleavedSourcesComeBackGrouped(t *testing.T) {
	graph := fullySpecifiedGraph()
	graph.Connections = []models.VisualConnection{
		{Source: "if", Target: "crm", SourceOutput: "main", TargetInput: "main"},
		{Source: "webhook", Target: "if", SourceOutput: "main", TargetInput: "main"},
		{Source: "if", Target: "drop", SourceOutput: "main", TargetInput: "main", SourceOutputIndex: 1},
	}

	assert.Equal(t, []models.VisualConnection{
		{Source: "if", Target: "crm", SourceOutput: "main", TargetInput: "main"},
		{Source: "if", Target: "drop", SourceOutput: "main", TargetInput: "main", SourceOutputIndex: 1},
		{Source: "webhook", Target: "if", SourceOutput: "main", TargetInput: "main"},
	}, ToVisualGraph(ToAdjacencyWorkflow(graph)).Connections)
}

func TestRoundTrip_ThroughJSON(t *testing.T) {
	graph := fullySpecifiedGraph()

	data, err := json.Marshal(ToAdjacencyWorkflow(graph))
	require.NoError(t, err)

	var decoded models.Workflow
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, graph.Connections, ToVisualGraph(&decoded).Connections)
}

func TestToAdjacencyWorkflow_FanOutOrder(t *testing.T) {
	graph := &models.VisualGraph{
		Name: "fan out",
		Nodes: []*models.VisualNode{
			{ID: "A", Type: "t"}, {ID: "B", Type: "t"}, {ID: "C", Type: "t"},
		},
		Connections: []models.VisualConnection{
			{Source: "A", Target: "B", SourceOutput: "main", SourceOutputIndex: 0},
			{Source: "A", Target: "C", SourceOutput: "main", SourceOutputIndex: 1},
		},
	}

	workflow := ToAdjacencyWorkflow(graph)

	assert.Equal(t, []models.ConnectionTarget{
		{Node: "B", Type: "main", Index: 0},
		{Node: "C", Type: "main", Index: 1},
	}, workflow.Connections.Outputs("A").Targets("main"))
}

func TestToAdjacencyWorkflow_AppliesDefaults(t *testing.T) {
	graph := &models.VisualGraph{
		Nodes: []*models.VisualNode{
			{ID: "1", Type: "n8n-nodes-base.start"},
			nil,
		},
		Connections: []models.VisualConnection{
			{Source: "1", Target: "2"},
			{Source: "1", Target: "3", TargetInput: "secondary"},
			{Source: "1", Target: "4", SourceOutput: "done", SourceOutputIndex: 2},
		},
	}

	workflow := ToAdjacencyWorkflow(graph)

	assert.Equal(t, models.DefaultWorkflowName, workflow.Name)
	assert.False(t, workflow.Active)
	assert.Nil(t, workflow.Settings)
	assert.Nil(t, workflow.Tags)

	require.Len(t, workflow.Nodes, 2)
	assert.Equal(t, &models.Node{
		ID:          "1",
		Name:        "n8n-nodes-base.start",
		Type:        "n8n-nodes-base.start",
		Position:    models.Position{0, 0},
		Parameters:  map[string]any{},
		TypeVersion: 1,
		Credentials: map[string]models.CredentialRef{},
	}, workflow.Nodes[0])
	assert.Equal(t, map[string]any{}, workflow.Nodes[1].Parameters)

	assert.Equal(t, []string{"main", "done"}, workflow.Connections.Outputs("1").Names())
	assert.Equal(t, []models.ConnectionTarget{
		{Node: "2", Type: "main", Index: 0},
		{Node: "3", Type: "secondary", Index: 0},
	}, workflow.Connections.Outputs("1").Targets("main"))
	assert.Equal(t, []models.ConnectionTarget{
		{Node: "4", Type: "main", Index: 2},
	}, workflow.Connections.Outputs("1").Targets("done"))
}

func TestToAdjacencyWorkflow_DoesNotValidate(t *testing.T) {
	graph := &models.VisualGraph{
		Name:        "dangling",
		Connections: []models.VisualConnection{{Source: "ghost", Target: "ghost"}},
	}

	workflow := ToAdjacencyWorkflow(graph)

	assert.Empty(t, workflow.Nodes)
	assert.Equal(t, []string{"ghost"}, workflow.Connections.Sources())
}

func TestToAdjacencyWorkflow_DoesNotAliasParameters(t *testing.T) {
	graph := fullySpecifiedGraph()
	workflow := ToAdjacencyWorkflow(graph)

	workflow.Nodes[0].Parameters["path"] = "changed"

	assert.Equal(t, "leads", graph.Nodes[0].Parameters["path"])
}

func TestToVisualGraph_RoundTripWithDefaultsFilled(t *testing.T) {
	partial := &models.VisualGraph{
		Name: "partial",
		Nodes: []*models.VisualNode{
			{ID: "a", Type: "x"},
			{ID: "b", Name: "B", Type: "y"},
		},
		Connections: []models.VisualConnection{{Source: "a", Target: "b"}},
	}

	visual := ToVisualGraph(ToAdjacencyWorkflow(partial))

	assert.Equal(t, []models.VisualConnection{
		{Source: "a", Target: "b", SourceOutput: "main", TargetInput: "main", SourceOutputIndex: 0},
	}, visual.Connections)
	assert.Equal(t, "x", visual.Nodes[0].Name)
	assert.Equal(t, float64(1), visual.Nodes[1].TypeVersion)

	assert.Equal(t, visual, ToVisualGraph(ToAdjacencyWorkflow(visual)))
}

func TestToVisualGraph_Nil(t *testing.T) {
	visual := ToVisualGraph(nil)

	assert.Empty(t, visual.Nodes)
	assert.NotNil(t, visual.Connections)
	assert.Empty(t, visual.Connections)
}
