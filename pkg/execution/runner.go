// Package execution runs deployed workflows. The services layer records executions; a
// Runner only produces their outcome.
package execution

import (
	"context"

	"github.com/dukex/flowdeck/pkg/models"
)

// Request describes one run of a workflow.
type Request struct {
	ExecutionID   string
	Workflow      *models.Workflow
	InputData     map[string]any
	DeploymentURL string
}

// Outcome is the result of a run. Nodes may be empty when the runtime reports no per-node
// detail.
type Outcome struct {
	Data  map[string]any
	Nodes []*models.NodeExecution
}

// Runner executes a workflow and blocks until it finishes or ctx is done.
type Runner interface {
	Run(ctx context.Context, request Request) (*Outcome, error)
}
