package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/dukex/flowdeck/pkg/models"
	"github.com/dukex/flowdeck/pkg/schema"
	"github.com/dukex/flowdeck/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adjacencyDocument = `{
	"name": "Lead Intake",
	"nodes": [
		{"id": "webhook", "name": "Webhook", "type": "n8n-nodes-base.webhook", "position": [0, 0]},
		{"id": "set", "name": "Set", "type": "n8n-nodes-base.set", "position": [200, 0],
		 "credentials": {"api": {"id": "1", "name": "API"}, "broken": {"id": "2"}}}
	],
	"connections": {
		"webhook": {"main": [{"node": "set", "type": "main", "index": 0}]}
	}
}`

const visualDocument = `{
	"name": "Lead Intake",
	"nodes": [
		{"id": "webhook", "type": "n8n-nodes-base.webhook", "position": [0, 0]},
		{"id": "set", "name": "Set", "type": "n8n-nodes-base.set", "position": [200, 0]}
	],
	"connections": [{"source": "webhook", "target": "set"}]
}`

func writeDocument(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "workflow.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	command := newCommand()
	command.Writer = &out
	command.ErrWriter = &out

	err := command.Run(t.Context(), append([]string{"flowdeck"}, args...))

	return out.String(), err
}

func TestConvertToAdjacency(t *testing.T) {
	out, err := runCommand(t, "convert", "to-adjacency", writeDocument(t, visualDocument))
	require.NoError(t, err)

	var adjacency models.Workflow
	require.NoError(t, json.Unmarshal([]byte(out), &adjacency))

	assert.Equal(t, "n8n-nodes-base.webhook", adjacency.Nodes[0].Name)
	assert.Equal(t, []models.ConnectionTarget{{Node: "set", Type: models.MainSlot}},
		adjacency.Connections.Outputs("webhook").Targets(models.MainSlot))
}

func TestConvertToVisual(t *testing.T) {
	out, err := runCommand(t, "convert", "to-visual", writeDocument(t, adjacencyDocument))
	require.NoError(t, err)

	var visual models.VisualGraph
	require.NoError(t, json.Unmarshal([]byte(out), &visual))

	assert.Equal(t, []models.VisualConnection{
		{Source: "webhook", Target: "set", SourceOutput: models.MainSlot, TargetInput: models.MainSlot},
	}, visual.Connections)
}

func TestConvert_Errors(t *testing.T) {
	_, err := runCommand(t, "convert", "to-visual")
	require.ErrorIs(t, err, ErrMissingFile)

	_, err = runCommand(t, "convert", "to-visual", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	_, err = runCommand(t, "convert", "to-adjacency", writeDocument(t, `{"nodes": "nope"}`))
	assert.ErrorIs(t, err, schema.ErrInvalidDocument)
}

func TestValidate(t *testing.T) {
	out, err := runCommand(t, "validate", writeDocument(t, adjacencyDocument))
	require.NoError(t, err)

	var result workflow.ValidationResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.Valid)
}

func TestValidate_DeployModeRejectsSelfLoops(t *testing.T) {
	path := writeDocument(t, `{
		"name": "Loop",
		"nodes": [{"id": "a", "name": "A", "type": "n8n-nodes-base.set"}],
		"connections": {"a": {"main": [{"node": "a"}]}}
	}`)

	_, err := runCommand(t, "validate", path)
	require.NoError(t, err)

	out, err := runCommand(t, "validate", "--deploy", path)
	require.ErrorIs(t, err, ErrInvalidWorkflow)
	assert.Contains(t, err.Error(), "Node a has a circular reference to itself")
	assert.Contains(t, out, `"valid": false`)
}

func TestPackage(t *testing.T) {
	dir := t.TempDir()

	out, err := runCommand(t, "package", "--out", dir, "--description", "Routes leads", writeDocument(t, adjacencyDocument))
	require.NoError(t, err)
	assert.Contains(t, out, "wrote netlify.toml")

	toml, err := os.ReadFile(filepath.Join(dir, "netlify.toml"))
	require.NoError(t, err)
	assert.Contains(t, string(toml), `N8N_WORKFLOW_NAME = "Lead Intake"`)

	function, err := os.ReadFile(filepath.Join(dir, "netlify", "functions", "lead-intake.js"))
	require.NoError(t, err)
	assert.Contains(t, string(function), `"api"`)
	assert.NotContains(t, string(function), `"broken"`)

	_, err = os.Stat(filepath.Join(dir, "package.json"))
	assert.NoError(t, err)
}

func TestPackage_RejectsInvalidWorkflow(t *testing.T) {
	_, err := runCommand(t, "package", "--out", t.TempDir(), writeDocument(t, `{"name": "Empty", "nodes": []}`))

	assert.ErrorIs(t, err, ErrInvalidWorkflow)
}
