package execution

import (
	"context"
	"errors"
	"maps"
	"time"

	"github.com/dukex/flowdeck/pkg/models"
)

var ErrNoWorkflow = errors.New("execution request has no workflow")

// SimulatedRunner completes every enabled node in node order and skips disabled ones. The
// input data is echoed back as the result.
type SimulatedRunner struct {
	now func() time.Time
}

func NewSimulatedRunner() *SimulatedRunner {
	return &SimulatedRunner{now: time.Now}
}

func (r *SimulatedRunner) Run(ctx context.Context, request Request) (*Outcome, error) {
	if request.Workflow == nil {
		return nil, ErrNoWorkflow
	}

	outcome := &Outcome{
		Data:  maps.Clone(request.InputData),
		Nodes: make([]*models.NodeExecution, 0, len(request.Workflow.Nodes)),
	}

	if outcome.Data == nil {
		outcome.Data = map[string]any{}
	}

	for _, node := range request.Workflow.Nodes {
		if node == nil {
			continue
		}

		if err := ctx.Err(); err != nil {
			return outcome, err
		}

		result := &models.NodeExecution{
			NodeID:   node.ID,
			NodeName: node.Name,
			Status:   models.NodeStatusSkipped,
		}

		if !node.Disabled {
			started := r.now()
			ended := r.now()

			result.Status = models.NodeStatusSuccess
			result.StartTime = &started
			result.EndTime = &ended
			result.Data = map[string]any{"input": maps.Clone(request.InputData)}
		}

		outcome.Nodes = append(outcome.Nodes, result)
	}

	return outcome, nil
}
