package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/flowdeck/pkg/ai"
	"github.com/dukex/flowdeck/pkg/execution"
	"github.com/dukex/flowdeck/pkg/otelhelper"
	"go.opentelemetry.io/otel/trace"
)

// NewRunner returns the execution runner for kind "simulated" or "http".
// nolint:ireturn // The runner kind is chosen at startup
func NewRunner(kind string, logger *slog.Logger) (execution.Runner, error) {
	switch kind {
	case "", "simulated":
		return execution.NewSimulatedRunner(), nil
	case "http":
		return execution.NewHTTPRunner(logger), nil
	default:
		return nil, fmt.Errorf("unsupported execution runner: %s", kind)
	}
}

// NewAgent builds the AI agent. Without an API key no agent is created and the assistant
// endpoints answer 503. An empty catalogPath yields an empty catalog.
func NewAgent(logger *slog.Logger, apiKey, baseURL, model, catalogPath string) (*ai.Agent, error) {
	if apiKey == "" {
		logger.Info("OPENAI_API_KEY not set, AI assistant disabled")

		return nil, nil
	}

	client, err := ai.NewOpenAIClient(apiKey, baseURL, model)
	if err != nil {
		return nil, err
	}

	catalog := ai.Catalog{}

	if catalogPath != "" {
		catalog, err = ai.LoadCatalog(catalogPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load node types: %w", err)
		}
	}

	logger.Info("AI assistant enabled", "model", client.Model(), "node_types", len(catalog))

	return ai.NewAgent(logger, client, catalog), nil
}

// NewTracer returns an exporting tracer when enabled, a no-op one otherwise. The shutdown
// function is always safe to call.
// nolint:ireturn // Returning interface is intentional for OpenTelemetry tracing
func NewTracer(ctx context.Context, enabled bool, serviceName string) (trace.Tracer, func(context.Context) error, error) {
	if !enabled {
		return otelhelper.NoopTracer(), func(context.Context) error { return nil }, nil
	}

	return otelhelper.NewTracer(ctx, serviceName)
}
