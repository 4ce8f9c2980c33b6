package services

import (
	"testing"

	"github.com/dukex/flowdeck/pkg/models"
	"github.com/dukex/flowdeck/pkg/persistence/file"
	"github.com/dukex/flowdeck/pkg/schema"
	"github.com/dukex/flowdeck/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validWorkflow(name string) *models.Workflow {
	return testutil.CreateTestWorkflowWithNodes(name)
}

func TestNewWorkflow(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())
	service := NewWorkflow(persistence)

	assert.NotNil(t, service)
	assert.Equal(t, persistence, service.persistence)
}

func TestWorkflow_HealthCheck(t *testing.T) {
	message, healthy := NewWorkflow(file.NewPersistence(t.TempDir())).HealthCheck(t.Context())
	assert.True(t, healthy)
	assert.Equal(t, "Persistence layer is healthy", message)

	message, healthy = NewWorkflow(nil).HealthCheck(t.Context())
	assert.False(t, healthy)
	assert.Equal(t, "Persistence layer not initialized", message)
}

func TestWorkflow_Create(t *testing.T) {
	service := NewWorkflow(file.NewPersistence(t.TempDir()))

	created, err := service.Create(t.Context(), &models.Workflow{Name: "Test Workflow"})
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.False(t, created.UpdatedAt.IsZero())
	assert.NotNil(t, created.Nodes)

	_, err = service.Create(t.Context(), nil)
	assert.ErrorIs(t, err, ErrWorkflowNil)
}

func TestWorkflow_FetchByID(t *testing.T) {
	service := NewWorkflow(file.NewPersistence(t.TempDir()))

	created, err := service.Create(t.Context(), validWorkflow("Fetch Test Workflow"))
	require.NoError(t, err)

	fetched, err := service.FetchByID(t.Context(), created.ID)
	require.NoError(t, err)

	assert.Equal(t, "Fetch Test Workflow", fetched.Name)
	assert.Equal(t, []string{"webhook"}, fetched.Connections.Sources())

	_, err = service.FetchByID(t.Context(), "non-existent")
	assert.ErrorIs(t, err, ErrWorkflowNotFound)
	assert.True(t, IsNotFoundError(err))
}

func TestWorkflow_FetchVisual(t *testing.T) {
	service := NewWorkflow(file.NewPersistence(t.TempDir()))

	created, err := service.Create(t.Context(), validWorkflow("Visual"))
	require.NoError(t, err)

	visual, err := service.FetchVisual(t.Context(), created.ID)
	require.NoError(t, err)

	assert.Equal(t, []models.VisualConnection{
		{Source: "webhook", Target: "set", SourceOutput: "main", TargetInput: "main"},
	}, visual.Connections)
}

func TestWorkflow_Update(t *testing.T) {
	service := NewWorkflow(file.NewPersistence(t.TempDir()))

	created, err := service.Create(t.Context(), validWorkflow("Original"))
	require.NoError(t, err)

	updated, err := service.Update(t.Context(), created.ID, &models.Workflow{Name: "Renamed"})
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Renamed", updated.Name)
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	_, err = service.Update(t.Context(), "non-existent", &models.Workflow{Name: "x"})
	assert.ErrorIs(t, err, ErrWorkflowNotFound)

	_, err = service.Update(t.Context(), created.ID, nil)
	assert.ErrorIs(t, err, ErrWorkflowNil)
}

func TestWorkflow_Delete(t *testing.T) {
	service := NewWorkflow(file.NewPersistence(t.TempDir()))

	created, err := service.Create(t.Context(), validWorkflow("Doomed"))
	require.NoError(t, err)

	require.NoError(t, service.Delete(t.Context(), created.ID))

	_, err = service.FetchByID(t.Context(), created.ID)
	assert.ErrorIs(t, err, ErrWorkflowNotFound)

	assert.ErrorIs(t, service.Delete(t.Context(), created.ID), ErrWorkflowNotFound)
}

func TestWorkflow_ListWorkflows(t *testing.T) {
	service := NewWorkflow(file.NewPersistence(t.TempDir()))

	for _, name := range []string{"b", "a", "c"} {
		_, err := service.Create(t.Context(), &models.Workflow{Name: name})
		require.NoError(t, err)
	}

	result, err := service.ListWorkflows(t.Context(), ListWorkflowsRequest{SortBy: "name", SortOrder: "asc", Limit: 2})
	require.NoError(t, err)

	require.Len(t, result.Workflows, 2)
	assert.Equal(t, "a", result.Workflows[0].Name)
	assert.Equal(t, "b", result.Workflows[1].Name)
	assert.Equal(t, int64(3), result.TotalCount)
	assert.True(t, result.HasNextPage)
}

func TestWorkflow_ListWorkflows_InvalidSort(t *testing.T) {
	service := NewWorkflow(file.NewPersistence(t.TempDir()))

	_, err := service.ListWorkflows(t.Context(), ListWorkflowsRequest{SortBy: "owner"})
	require.ErrorIs(t, err, ErrInvalidSortField)
	assert.True(t, IsValidationError(err))

	_, err = service.ListWorkflows(t.Context(), ListWorkflowsRequest{SortOrder: "sideways"})
	assert.ErrorIs(t, err, ErrInvalidSortOrder)
}

func TestWorkflow_ImportVisual(t *testing.T) {
	service := NewWorkflow(file.NewPersistence(t.TempDir()))

	created, err := service.ImportVisual(t.Context(), []byte(`{
		"name": "Imported",
		"nodes": [
			{"id": "a", "type": "n8n-nodes-base.webhook", "position": [0, 0]},
			{"id": "b", "name": "B", "type": "n8n-nodes-base.set", "position": [200, 0]}
		],
		"connections": [{"source": "a", "target": "b"}]
	}`))
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "n8n-nodes-base.webhook", created.Nodes[0].Name)
	assert.Equal(t, []models.ConnectionTarget{{Node: "b", Type: "main"}}, created.Connections.Outputs("a").Targets("main"))
}

func TestWorkflow_ImportVisual_RejectsInvalidDocument(t *testing.T) {
	service := NewWorkflow(file.NewPersistence(t.TempDir()))

	_, err := service.ImportVisual(t.Context(), []byte(`{"name": "x", "nodes": "nope"}`))
	require.ErrorIs(t, err, schema.ErrInvalidDocument)
	assert.True(t, IsValidationError(err))

	_, err = service.ImportVisual(t.Context(), []byte(`{not json`))
	assert.ErrorIs(t, err, schema.ErrInvalidDocument)
}

func TestWorkflow_Validate(t *testing.T) {
	service := NewWorkflow(file.NewPersistence(t.TempDir()))

	workflow := validWorkflow("Loop")
	workflow.Connections.Append("set", models.MainSlot, models.ConnectionTarget{Node: "set", Type: models.MainSlot})

	created, err := service.Create(t.Context(), workflow)
	require.NoError(t, err)

	general, err := service.Validate(t.Context(), created.ID, false)
	require.NoError(t, err)
	assert.True(t, general.Valid)

	deployment, err := service.Validate(t.Context(), created.ID, true)
	require.NoError(t, err)
	assert.False(t, deployment.Valid)
	assert.Equal(t, []string{"Node set has a circular reference to itself"}, deployment.Errors)

	_, err = service.Validate(t.Context(), "missing", false)
	assert.ErrorIs(t, err, ErrWorkflowNotFound)
}
