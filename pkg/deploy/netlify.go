package deploy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
	"text/template"

	"github.com/dukex/flowdeck/pkg/models"
)

var netlifyToml = template.Must(template.New("netlify.toml").Funcs(template.FuncMap{
	"str": tomlString,
	"key": tomlKey,
}).Parse(`[build]
  command = {{ str .BuildCommand }}
  publish = {{ str .PublishDirectory }}
  functions = {{ str .FunctionsDirectory }}

[build.environment]
{{- range .Environment }}
  {{ key .Key }} = {{ str .Value }}
{{- end }}

[functions]
  node_bundler = "esbuild"
  external_node_modules = ["n8n-workflow", "n8n-core"]

[[redirects]]
  from = "/api/*"
  to = "/.netlify/functions/:splat"
  status = 200

[[redirects]]
  from = "/webhook/*"
  to = "/.netlify/functions/webhook/:splat"
  status = 200

[[redirects]]
  from = "/*"
  to = "/index.html"
  status = 200
`))

var workflowFunction = template.Must(template.New("function.js").Parse(`const { WorkflowExecute } = require('n8n-workflow');

// Workflow definition
const workflowData = {{ .Workflow }};

exports.handler = async (event, context) => {
  try {
    const workflowExecute = new WorkflowExecute(workflowData);
    const inputData = JSON.parse(event.body || '{}');
    const executionData = await workflowExecute.run(inputData);

    return {
      statusCode: 200,
      body: JSON.stringify({ success: true, executionData })
    };
  } catch (error) {
    console.error('Workflow execution failed:', error);

    return {
      statusCode: 500,
      body: JSON.stringify({ success: false, error: error.message })
    };
  }
};
`))

type envEntry struct {
	Key   string
	Value string
}

// GenerateNetlifyToml renders the site configuration. Environment variables are written in
// key order so the output is stable.
func GenerateNetlifyToml(config models.DeploymentConfig) (string, error) {
	environment := make([]envEntry, 0, len(config.EnvironmentVariables))
	for _, key := range slices.Sorted(maps.Keys(config.EnvironmentVariables)) {
		environment = append(environment, envEntry{Key: key, Value: config.EnvironmentVariables[key]})
	}

	var out bytes.Buffer

	err := netlifyToml.Execute(&out, map[string]any{
		"BuildCommand":       config.BuildCommand,
		"PublishDirectory":   config.PublishDirectory,
		"FunctionsDirectory": config.FunctionsDirectory,
		"Environment":        environment,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render netlify.toml: %w", err)
	}

	return out.String(), nil
}

// GenerateWorkflowFunction renders the serverless handler that embeds the workflow.
func GenerateWorkflowFunction(workflow *models.Workflow) (string, error) {
	var embedded bytes.Buffer

	encoder := json.NewEncoder(&embedded)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(workflow); err != nil {
		return "", fmt.Errorf("failed to encode workflow: %w", err)
	}

	var out bytes.Buffer

	err := workflowFunction.Execute(&out, map[string]any{
		"Workflow": strings.TrimRight(embedded.String(), "\n"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render workflow function: %w", err)
	}

	return out.String(), nil
}

// tomlString encodes s as a TOML basic string. JSON string escapes are valid TOML.
func tomlString(s string) string {
	var out bytes.Buffer

	encoder := json.NewEncoder(&out)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(s)

	return strings.TrimRight(out.String(), "\n")
}

var bareKey = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func tomlKey(key string) string {
	if bareKey.MatchString(key) {
		return key
	}

	return tomlString(key)
}
