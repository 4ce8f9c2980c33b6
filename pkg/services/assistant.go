package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dukex/flowdeck/pkg/ai"
	"github.com/dukex/flowdeck/pkg/models"
	"github.com/dukex/flowdeck/pkg/otelhelper"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Assistant exposes the AI agent to the API. A nil agent makes every call fail with
// ErrAssistantUnavailable.
type Assistant struct {
	agent  *ai.Agent
	tracer trace.Tracer
	logger *slog.Logger
}

func NewAssistant(agent *ai.Agent, tracer trace.Tracer, logger *slog.Logger) *Assistant {
	return &Assistant{
		agent:  agent,
		tracer: tracer,
		logger: logger.With("module", "assistant_service"),
	}
}

// Available reports whether an agent is configured.
func (a *Assistant) Available() bool {
	return a.agent != nil
}

func (a *Assistant) GenerateWorkflow(ctx context.Context, options ai.GenerateOptions) (*models.Workflow, error) {
	return traced(ctx, a, "generate", func(ctx context.Context) (*models.Workflow, error) {
		return a.agent.GenerateWorkflow(ctx, options)
	})
}

func (a *Assistant) OptimizeWorkflow(ctx context.Context, options ai.OptimizeOptions) (*ai.OptimizationResult, error) {
	if options.Workflow == nil {
		return nil, ErrWorkflowNil
	}

	return traced(ctx, a, "optimize", func(ctx context.Context) (*ai.OptimizationResult, error) {
		return a.agent.OptimizeWorkflow(ctx, options)
	})
}

func (a *Assistant) ConfigureNode(ctx context.Context, options ai.ConfigureNodeOptions) (*models.Node, error) {
	return traced(ctx, a, "configure_node", func(ctx context.Context) (*models.Node, error) {
		node, err := a.agent.ConfigureNode(ctx, options)
		if errors.Is(err, ai.ErrUnknownNodeType) {
			return nil, NewValidationError("ConfigureNode", "UNKNOWN_NODE_TYPE", err.Error(), ErrInvalidRequest)
		}

		return node, err
	})
}

func (a *Assistant) DebugWorkflow(ctx context.Context, workflow *models.Workflow, failure string) (*ai.DebugResult, error) {
	if workflow == nil {
		return nil, ErrWorkflowNil
	}

	return traced(ctx, a, "debug", func(ctx context.Context) (*ai.DebugResult, error) {
		return a.agent.DebugWorkflow(ctx, workflow, failure)
	})
}

func (a *Assistant) GetHelp(ctx context.Context, query string) (*ai.HelpResult, error) {
	return traced(ctx, a, "help", func(ctx context.Context) (*ai.HelpResult, error) {
		return a.agent.GetHelp(ctx, query)
	})
}

// NodeTypes returns the node type catalog the agent works with.
func (a *Assistant) NodeTypes() ai.Catalog {
	if a.agent == nil {
		return ai.Catalog{}
	}

	return a.agent.Catalog()
}

func traced[T any](ctx context.Context, a *Assistant, operation string, call func(context.Context) (T, error)) (T, error) {
	var zero T

	if a.agent == nil {
		return zero, ErrAssistantUnavailable
	}

	ctx, span := otelhelper.StartSpan(ctx, a.tracer, "assistant."+operation,
		attribute.String(otelhelper.AIOperationKey, operation))
	defer span.End()

	result, err := call(ctx)
	if err != nil {
		otelhelper.SetError(span, err)
		a.logger.ErrorContext(ctx, "Assistant call failed", "operation", operation, "error", err)

		return zero, err
	}

	return result, nil
}
