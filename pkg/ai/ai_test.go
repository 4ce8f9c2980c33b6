package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/dukex/flowdeck/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingClient struct {
	reply  string
	err    error
	system string
	prompt string
}

func (c *recordingClient) Complete(_ context.Context, system, prompt string) (string, error) {
	c.system = system
	c.prompt = prompt

	return c.reply, c.err
}

func httpCatalog() Catalog {
	return Catalog{
		{
			Name:        "n8n-nodes-base.httpRequest",
			DisplayName: "HTTP Request",
			Description: "Makes an HTTP request",
			Properties: []models.NodeProperty{
				{Name: "url", DisplayName: "URL", Type: "string", Required: true, Default: ""},
				{Name: "method", Type: "options", Default: "GET"},
				{Name: "timeout", Type: "number", Required: true},
			},
		},
		{Name: "n8n-nodes-base.set", DisplayName: "Set"},
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := map[string]string{
		"{\"a\":1}":                    `{"a":1}`,
		"  {\"a\":1}\n":                `{"a":1}`,
		"```json\n{\"a\":1}\n```":      `{"a":1}`,
		"```\n{\"a\":1}\n```":          `{"a":1}`,
		"```JSON\n{\n  \"a\": 1\n}```": "{\n  \"a\": 1\n}",
	}

	for input, expected := range tests {
		assert.Equal(t, expected, StripCodeFence(input), input)
	}
}

func TestGenerateWorkflow(t *testing.T) {
	client := &recordingClient{reply: "```json\n{\"nodes\":[{\"type\":\"n8n-nodes-base.set\"},{\"id\":\"b\",\"name\":\"B\",\"type\":\"t\",\"position\":[10,20]}],\"connections\":{}}\n```"}
	agent := NewAgent(testLogger(), client, httpCatalog())

	generated, err := agent.GenerateWorkflow(context.Background(), GenerateOptions{
		Description:        "call an api",
		PreferredNodeTypes: []string{"n8n-nodes-base.httpRequest"},
	})
	require.NoError(t, err)

	assert.Equal(t, generateSystem, client.system)
	assert.Contains(t, client.prompt, "call an api")
	assert.Contains(t, client.prompt, "Complexity level: medium")
	assert.Contains(t, client.prompt, "Name: n8n-nodes-base.httpRequest")
	assert.Contains(t, client.prompt, "Properties: url, method, timeout")
	assert.NotContains(t, client.prompt, "Name: n8n-nodes-base.set")

	assert.Equal(t, "Generated Workflow", generated.Name)
	require.Len(t, generated.Nodes, 2)
	assert.Equal(t, "node_0", generated.Nodes[0].ID)
	assert.Equal(t, "Node 0", generated.Nodes[0].Name)
	assert.Equal(t, map[string]any{}, generated.Nodes[0].Parameters)
	assert.Equal(t, models.Position{10, 20}, generated.Nodes[1].Position)
}

func TestGenerateWorkflow_InvalidJSON(t *testing.T) {
	agent := NewAgent(testLogger(), &recordingClient{reply: "sorry, I can't"}, nil)

	_, err := agent.GenerateWorkflow(context.Background(), GenerateOptions{Description: "x"})
	require.Error(t, err)

	assert.Contains(t, err.Error(), "failed to generate workflow: invalid JSON in reply")
}

func TestGenerateWorkflow_ClientError(t *testing.T) {
	boom := errors.New("boom")
	agent := NewAgent(testLogger(), &recordingClient{err: boom}, nil)

	_, err := agent.GenerateWorkflow(context.Background(), GenerateOptions{Description: "x"})

	assert.ErrorIs(t, err, boom)
}

func TestOptimizeWorkflow(t *testing.T) {
	client := &recordingClient{reply: `{"optimizedWorkflow":{"name":"Better","nodes":[{"id":"a","name":"A","type":"t","position":[1,1]}]},"suggestions":["add retries"],"optimizationDetails":"done"}`}
	agent := NewAgent(testLogger(), client, nil)

	result, err := agent.OptimizeWorkflow(context.Background(), OptimizeOptions{
		Workflow: &models.Workflow{Name: "Original"},
		Goals:    []OptimizationGoal{GoalSecurity},
	})
	require.NoError(t, err)

	assert.Contains(t, client.prompt, `"name": "Original"`)
	assert.Contains(t, client.prompt, "Optimization goals: security")
	assert.Contains(t, client.prompt, "- Security: Enhance data protection and access control")
	assert.NotContains(t, client.prompt, "- Performance:")

	assert.Equal(t, "Better", result.OptimizedWorkflow.Name)
	assert.Equal(t, []string{"add retries"}, result.Suggestions)
	assert.Equal(t, "done", result.OptimizationDetails)
}

func TestOptimizeWorkflow_DefaultsWhenReplyIsSparse(t *testing.T) {
	client := &recordingClient{reply: `{}`}
	agent := NewAgent(testLogger(), client, nil)

	result, err := agent.OptimizeWorkflow(context.Background(), OptimizeOptions{Workflow: &models.Workflow{Name: "w"}})
	require.NoError(t, err)

	assert.Contains(t, client.prompt, "Optimization goals: performance, reliability, security")
	assert.Equal(t, "Generated Workflow", result.OptimizedWorkflow.Name)
	assert.Equal(t, []string{}, result.Suggestions)
}

func TestConfigureNode(t *testing.T) {
	client := &recordingClient{reply: `{"parameters":{"url":"https://example.com","unknown":true}}`}
	agent := NewAgent(testLogger(), client, httpCatalog())

	node, err := agent.ConfigureNode(context.Background(), ConfigureNodeOptions{
		NodeType:        "n8n-nodes-base.httpRequest",
		UserDescription: "fetch example.com",
	})
	require.NoError(t, err)

	assert.Contains(t, client.prompt, `Configure an n8n node of type "n8n-nodes-base.httpRequest"`)
	assert.Contains(t, client.prompt, "Required: Yes")
	assert.Contains(t, client.prompt, `Default: "GET"`)

	assert.NotEmpty(t, node.ID)
	assert.Equal(t, "HTTP Request", node.Name)
	assert.Equal(t, "n8n-nodes-base.httpRequest", node.Type)
	assert.Equal(t, map[string]any{"url": "https://example.com", "timeout": nil}, node.Parameters)
}

func TestConfigureNode_UnknownType(t *testing.T) {
	agent := NewAgent(testLogger(), &recordingClient{reply: `{}`}, httpCatalog())

	_, err := agent.ConfigureNode(context.Background(), ConfigureNodeOptions{NodeType: "missing", UserDescription: "x"})

	assert.ErrorIs(t, err, ErrUnknownNodeType)
}

func TestConfigureNode_ExplicitDescription(t *testing.T) {
	agent := NewAgent(testLogger(), &recordingClient{reply: `{"name":"Mine"}`}, nil)

	node, err := agent.ConfigureNode(context.Background(), ConfigureNodeOptions{
		NodeType:            "custom",
		UserDescription:     "x",
		NodeTypeDescription: &models.NodeTypeDescription{Name: "custom"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Mine", node.Name)
	assert.Equal(t, "custom", node.Type)
	assert.Equal(t, map[string]any{}, node.Parameters)
}

func TestDebugWorkflow(t *testing.T) {
	client := &recordingClient{reply: `{"suggestions":["fix url"],"fixedWorkflow":{"nodes":[]},"debugDetails":"bad url"}`}
	agent := NewAgent(testLogger(), client, nil)

	result, err := agent.DebugWorkflow(context.Background(), &models.Workflow{Name: "w"}, "404 from api")
	require.NoError(t, err)

	assert.Contains(t, client.prompt, "Error:\n404 from api")
	assert.Equal(t, []string{"fix url"}, result.Suggestions)
	assert.Equal(t, "Generated Workflow", result.FixedWorkflow.Name)
	assert.Equal(t, "bad url", result.DebugDetails)
}

func TestDebugWorkflow_WithoutError(t *testing.T) {
	client := &recordingClient{reply: `{}`}
	agent := NewAgent(testLogger(), client, nil)

	result, err := agent.DebugWorkflow(context.Background(), &models.Workflow{Name: "w"}, "")
	require.NoError(t, err)

	assert.Contains(t, client.prompt, "Please identify any potential issues in this workflow.")
	assert.Nil(t, result.FixedWorkflow)
	assert.Equal(t, []string{}, result.Suggestions)
}

func TestGetHelp(t *testing.T) {
	client := &recordingClient{reply: `{"answer":"use a webhook","relatedNodes":["n8n-nodes-base.webhook"]}`}
	agent := NewAgent(testLogger(), client, nil)

	result, err := agent.GetHelp(context.Background(), "how do I receive events?")
	require.NoError(t, err)

	assert.Equal(t, helpSystem, client.system)
	assert.Contains(t, client.prompt, "how do I receive events?")
	assert.Equal(t, "use a webhook", result.Answer)
	assert.Equal(t, []string{"n8n-nodes-base.webhook"}, result.RelatedNodes)
	assert.Equal(t, []string{}, result.Examples)
}

func TestLoadCatalog_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
nodeTypes:
  - name: n8n-nodes-base.webhook
    displayName: Webhook
    inputs: []
    outputs: [main]
    properties:
      - name: path
        type: string
        required: true
        default: hook
`), 0o600))

	catalog, err := LoadCatalog(path)
	require.NoError(t, err)

	description, err := catalog.Lookup("n8n-nodes-base.webhook")
	require.NoError(t, err)
	assert.Equal(t, "Webhook", description.DisplayName)
	assert.Equal(t, []string{"main"}, description.Outputs)
	require.Len(t, description.Properties, 1)
	assert.Equal(t, "hook", description.Properties[0].Default)
	assert.True(t, description.Properties[0].Required)
}

func TestLoadCatalog_JSONList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodes.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name":"a"},{"name":"b"}]`), 0o600))

	catalog, err := LoadCatalog(path)
	require.NoError(t, err)

	assert.Len(t, catalog, 2)
	assert.Len(t, catalog.Filter([]string{"b"}), 1)
	assert.Len(t, catalog.Filter(nil), 2)
}

func TestLoadCatalog_Errors(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`not json`), 0o600))

	_, err = LoadCatalog(path)
	assert.Error(t, err)
}

func TestOpenAIClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var request chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		assert.Equal(t, "test-model", request.Model)
		assert.Equal(t, []chatMessage{{Role: "system", Content: "sys"}, {Role: "user", Content: "hi"}}, request.Messages)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hello"}}]}`))
	}))
	defer server.Close()

	client, err := NewOpenAIClient("secret", server.URL+"/v1/", "test-model")
	require.NoError(t, err)

	reply, err := client.Complete(context.Background(), "sys", "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello", reply)
}

func TestOpenAIClient_Errors(t *testing.T) {
	_, err := NewOpenAIClient("", "", "")
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/empty/chat/completions" {
			_, _ = w.Write([]byte(`{"choices":[]}`))

			return
		}

		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer server.Close()

	client, err := NewOpenAIClient("key", server.URL, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, client.Model())

	_, err = client.Complete(context.Background(), "s", "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401): bad key")

	client, err = NewOpenAIClient("key", server.URL+"/empty", "")
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "s", "p")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}
