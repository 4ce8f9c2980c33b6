package ai

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/dukex/flowdeck/pkg/models"
)

const (
	generateSystem  = "You are an expert n8n workflow designer. Your task is to create valid n8n workflow JSON based on the user's description. Only respond with valid JSON that follows the n8n workflow schema."
	optimizeSystem  = "You are an expert n8n workflow optimizer. Your task is to analyze the provided workflow and suggest optimizations based on the specified goals. Respond with a JSON object containing the optimized workflow, suggestions, and optimization details."
	configureSystem = "You are an expert n8n node configurator. Your task is to configure the specified node based on the user's description. Only respond with valid JSON that follows the n8n node schema."
	debugSystem     = "You are an expert n8n workflow debugger. Your task is to analyze the provided workflow and error, and suggest solutions. Respond with a JSON object containing suggestions, a fixed workflow, and debug details."
	helpSystem      = "You are an expert n8n assistant. Your task is to provide helpful information about n8n workflows, nodes, and concepts. Respond with a JSON object containing your answer, related nodes, and examples."
)

var goalDescriptions = map[OptimizationGoal]string{
	GoalPerformance: "- Performance: Reduce execution time and resource usage",
	GoalReliability: "- Reliability: Improve error handling and recovery",
	GoalSecurity:    "- Security: Enhance data protection and access control",
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}

	return value
}

func joinOr(values []string, fallback string) string {
	if len(values) == 0 {
		return fallback
	}

	return strings.Join(values, ", ")
}

func indentJSON(value any) string {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return "{}"
	}

	return string(data)
}

func generatePrompt(options GenerateOptions, catalog Catalog) string {
	var nodeTypes strings.Builder

	for _, description := range catalog.Filter(options.PreferredNodeTypes) {
		propertyNames := make([]string, 0, len(description.Properties))
		for _, property := range description.Properties {
			propertyNames = append(propertyNames, property.Name)
		}

		fmt.Fprintf(&nodeTypes, "\nName: %s\nDisplay Name: %s\nDescription: %s\nInputs: %s\nOutputs: %s\nProperties: %s\n",
			description.Name,
			orDefault(description.DisplayName, description.Name),
			orDefault(description.Description, "No description available"),
			joinOr(description.Inputs, models.MainSlot),
			joinOr(description.Outputs, models.MainSlot),
			joinOr(propertyNames, "None"))
	}

	return fmt.Sprintf(`
Create an n8n workflow based on the following description:

%s

Complexity level: %s

Available node types:
%s

Preferred node types: %s

The workflow should be valid according to the n8n workflow schema and should include:
- A meaningful name
- Properly configured nodes
- Correct connections between nodes
- Any necessary error handling

Please provide the workflow as a valid JSON object.
`, options.Description, orDefault(string(options.Complexity), string(ComplexityMedium)), nodeTypes.String(), joinOr(options.PreferredNodeTypes, "Any"))
}

func optimizePrompt(options OptimizeOptions) string {
	goals := make([]string, 0, len(options.Goals))
	for _, goal := range options.Goals {
		goals = append(goals, string(goal))
	}

	var details strings.Builder

	for _, goal := range []OptimizationGoal{GoalPerformance, GoalReliability, GoalSecurity} {
		if slices.Contains(options.Goals, goal) {
			details.WriteString(goalDescriptions[goal])
			details.WriteString("\n")
		}
	}

	return fmt.Sprintf(`
Optimize the following n8n workflow:

%s

Optimization goals: %s

Please analyze the workflow and suggest optimizations for:
%s
Please provide a JSON response with the following structure:
{
  "workflow": {
    // The optimized workflow in n8n format
  },
  "suggestions": [
    // Array of optimization suggestions
  ],
  "optimizationDetails": "Detailed explanation of the optimizations made"
}
`, indentJSON(options.Workflow), joinOr(goals, "performance, reliability, security"), details.String())
}

func configurePrompt(nodeType, userDescription string, description models.NodeTypeDescription) string {
	var properties strings.Builder

	for _, property := range description.Properties {
		defaultValue := "None"
		if property.Default != nil {
			defaultValue = indentJSON(property.Default)
		}

		required := "No"
		if property.Required {
			required = "Yes"
		}

		fmt.Fprintf(&properties, "\nName: %s\nDisplay Name: %s\nType: %s\nRequired: %s\nDefault: %s\nDescription: %s\n",
			property.Name,
			orDefault(property.DisplayName, property.Name),
			property.Type,
			required,
			defaultValue,
			orDefault(property.Description, "No description"))
	}

	return fmt.Sprintf(`
Configure an n8n node of type %q based on the following description:

%s

Node type details:
Display Name: %s
Description: %s
Inputs: %s
Outputs: %s

Properties:
%s

Please provide the configured node as a valid JSON object following the n8n node schema.
`, nodeType, userDescription,
		orDefault(description.DisplayName, description.Name),
		orDefault(description.Description, "No description available"),
		joinOr(description.Inputs, models.MainSlot),
		joinOr(description.Outputs, models.MainSlot),
		orDefault(properties.String(), "No properties available"))
}

func debugPrompt(workflow *models.Workflow, failure string) string {
	issue := "Please identify any potential issues in this workflow."
	if failure != "" {
		issue = "Error:\n" + failure
	}

	return fmt.Sprintf(`
I have an n8n workflow that's encountering issues. Please analyze the workflow and suggest solutions.

Workflow:
%s

%s

Please provide:
1. A list of potential issues and solutions
2. A fixed version of the workflow if possible
3. Detailed explanation of the issues and how they were fixed
`, indentJSON(workflow), issue)
}

func helpPrompt(query string) string {
	return fmt.Sprintf(`
I need help with n8n workflows. Here's my question:

%s

Please provide:
1. A detailed answer to my question
2. Related n8n nodes that might be helpful
3. Example usage if applicable
`, query)
}
