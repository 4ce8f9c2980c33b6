package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/dukex/flowdeck/pkg/models"
	"github.com/dukex/flowdeck/pkg/workflow"
)

type Complexity string

const (
	ComplexitySimple  Complexity = "simple"
	ComplexityMedium  Complexity = "medium"
	ComplexityComplex Complexity = "complex"
)

type OptimizationGoal string

const (
	GoalPerformance OptimizationGoal = "performance"
	GoalReliability OptimizationGoal = "reliability"
	GoalSecurity    OptimizationGoal = "security"
)

type GenerateOptions struct {
	Description        string     `json:"description"                  validate:"required"`
	Complexity         Complexity `json:"complexity,omitempty"         validate:"omitempty,oneof=simple medium complex"`
	PreferredNodeTypes []string   `json:"preferredNodeTypes,omitempty"`
}

type OptimizeOptions struct {
	Workflow *models.Workflow   `json:"workflow"                    validate:"required"`
	Goals    []OptimizationGoal `json:"optimizationGoals,omitempty" validate:"dive,oneof=performance reliability security"`
}

type ConfigureNodeOptions struct {
	NodeType        string `json:"nodeType"        validate:"required"`
	UserDescription string `json:"userDescription" validate:"required"`
	// NodeTypeDescription overrides the catalog entry for NodeType.
	NodeTypeDescription *models.NodeTypeDescription `json:"nodeTypeDescription,omitempty"`
}

type OptimizationResult struct {
	OptimizedWorkflow   *models.Workflow `json:"optimizedWorkflow"`
	Suggestions         []string         `json:"suggestions"`
	OptimizationDetails string           `json:"optimizationDetails"`
}

type DebugResult struct {
	Suggestions   []string         `json:"suggestions"`
	FixedWorkflow *models.Workflow `json:"fixedWorkflow,omitempty"`
	DebugDetails  string           `json:"debugDetails"`
}

type HelpResult struct {
	Answer       string   `json:"answer"`
	RelatedNodes []string `json:"relatedNodes"`
	Examples     []string `json:"examples"`
}

// Agent builds prompts from the node type catalog, sends them through a Client and
// normalizes what comes back.
type Agent struct {
	client  Client
	catalog Catalog
	logger  *slog.Logger
}

func NewAgent(logger *slog.Logger, client Client, catalog Catalog) *Agent {
	return &Agent{
		client:  client,
		catalog: catalog,
		logger:  logger.With("module", "ai_agent"),
	}
}

func (a *Agent) Catalog() Catalog {
	return a.catalog
}

// GenerateWorkflow asks for a new workflow matching the description.
func (a *Agent) GenerateWorkflow(ctx context.Context, options GenerateOptions) (*models.Workflow, error) {
	var generated *models.Workflow

	if err := a.ask(ctx, generateSystem, generatePrompt(options, a.catalog), &generated); err != nil {
		return nil, fmt.Errorf("failed to generate workflow: %w", err)
	}

	return workflow.Clean(generated), nil
}

// OptimizeWorkflow asks for an improved version of a workflow. The reply may carry the
// workflow under "workflow" or "optimizedWorkflow".
func (a *Agent) OptimizeWorkflow(ctx context.Context, options OptimizeOptions) (*OptimizationResult, error) {
	var reply struct {
		Workflow            *models.Workflow `json:"workflow"`
		OptimizedWorkflow   *models.Workflow `json:"optimizedWorkflow"`
		Suggestions         []string         `json:"suggestions"`
		OptimizationDetails string           `json:"optimizationDetails"`
	}

	if err := a.ask(ctx, optimizeSystem, optimizePrompt(options), &reply); err != nil {
		return nil, fmt.Errorf("failed to optimize workflow: %w", err)
	}

	optimized := reply.Workflow
	if optimized == nil {
		optimized = reply.OptimizedWorkflow
	}

	return &OptimizationResult{
		OptimizedWorkflow:   workflow.Clean(optimized),
		Suggestions:         nonNil(reply.Suggestions),
		OptimizationDetails: reply.OptimizationDetails,
	}, nil
}

// ConfigureNode asks for a node of the given type configured to the user's description.
// Only parameters the node type declares survive.
func (a *Agent) ConfigureNode(ctx context.Context, options ConfigureNodeOptions) (*models.Node, error) {
	var description models.NodeTypeDescription

	if options.NodeTypeDescription != nil {
		description = *options.NodeTypeDescription
	} else {
		found, err := a.catalog.Lookup(options.NodeType)
		if err != nil {
			return nil, fmt.Errorf("failed to configure node: %w", err)
		}

		description = found
	}

	var node *models.Node

	if err := a.ask(ctx, configureSystem, configurePrompt(options.NodeType, options.UserDescription, description), &node); err != nil {
		return nil, fmt.Errorf("failed to configure node: %w", err)
	}

	return workflow.CleanNode(node, description), nil
}

// DebugWorkflow asks for an analysis of a failing workflow. failure may be empty.
func (a *Agent) DebugWorkflow(ctx context.Context, w *models.Workflow, failure string) (*DebugResult, error) {
	var reply DebugResult

	if err := a.ask(ctx, debugSystem, debugPrompt(w, failure), &reply); err != nil {
		return nil, fmt.Errorf("failed to debug workflow: %w", err)
	}

	if reply.FixedWorkflow != nil {
		reply.FixedWorkflow = workflow.Clean(reply.FixedWorkflow)
	}

	reply.Suggestions = nonNil(reply.Suggestions)

	return &reply, nil
}

// GetHelp answers a free-form question.
func (a *Agent) GetHelp(ctx context.Context, query string) (*HelpResult, error) {
	var reply HelpResult

	if err := a.ask(ctx, helpSystem, helpPrompt(query), &reply); err != nil {
		return nil, fmt.Errorf("failed to get help: %w", err)
	}

	reply.RelatedNodes = nonNil(reply.RelatedNodes)
	reply.Examples = nonNil(reply.Examples)

	return &reply, nil
}

func (a *Agent) ask(ctx context.Context, system, prompt string, out any) error {
	text, err := a.client.Complete(ctx, system, prompt)
	if err != nil {
		a.logger.ErrorContext(ctx, "Completion failed", "error", err)

		return err
	}

	if err := json.Unmarshal([]byte(StripCodeFence(text)), out); err != nil {
		a.logger.WarnContext(ctx, "Completion was not valid JSON", "error", err, "length", len(text))

		return fmt.Errorf("invalid JSON in reply: %w", err)
	}

	return nil
}

var codeFence = regexp.MustCompile("(?s)^```[A-Za-z0-9_-]*\\s*\\n(.*?)\\n?```$")

// StripCodeFence removes a surrounding markdown code fence, if any.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)

	if match := codeFence.FindStringSubmatch(text); match != nil {
		return strings.TrimSpace(match[1])
	}

	return text
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}

	return values
}
