package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukex/flowdeck/pkg/eventbus"
	"github.com/dukex/flowdeck/pkg/events"
	"github.com/dukex/flowdeck/pkg/execution"
	"github.com/dukex/flowdeck/pkg/models"
	"github.com/dukex/flowdeck/pkg/otelhelper"
	"github.com/dukex/flowdeck/pkg/persistence"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ExecuteOptions controls a single run.
type ExecuteOptions struct {
	InputData map[string]any `json:"inputData"`
	// Wait makes ExecuteWorkflow return only after the run finished.
	Wait bool `json:"wait"`
}

// Execution starts workflow runs on a Runner and tracks their lifecycle. A run moves from
// running to exactly one of success, error, canceled or timeout.
type Execution struct {
	persistence    persistence.Persistence
	runner         execution.Runner
	publisher      eventbus.EventPublisher
	defaultTimeout time.Duration
	tracer         trace.Tracer
	logger         *slog.Logger
	now            func() time.Time

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	running sync.WaitGroup
}

// NewExecution creates an execution service. defaultTimeout applies to workflows without
// an executionTimeout setting; zero disables it.
func NewExecution(
	persistence persistence.Persistence,
	runner execution.Runner,
	publisher eventbus.EventPublisher,
	defaultTimeout time.Duration,
	tracer trace.Tracer,
	logger *slog.Logger,
) *Execution {
	return &Execution{
		persistence:    persistence,
		runner:         runner,
		publisher:      publisher,
		defaultTimeout: defaultTimeout,
		tracer:         tracer,
		logger:         logger.With("module", "execution_service"),
		now:            time.Now,
		cancels:        make(map[string]context.CancelFunc),
	}
}

// ExecuteWorkflow records a running execution and starts it. The returned execution is
// the running record unless options.Wait is set.
func (e *Execution) ExecuteWorkflow(ctx context.Context, workflowID string, options ExecuteOptions) (*models.Execution, error) {
	stored, err := e.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	deploymentURL, err := e.latestDeploymentURL(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	record := &models.Execution{
		ID:         uuid.New().String(),
		WorkflowID: workflowID,
		Status:     models.ExecutionStatusRunning,
		StartTime:  e.now().UTC(),
		Data:       options.InputData,
	}

	if err := e.persistence.ExecutionRepository().Save(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record execution: %w", err)
	}

	e.publish(ctx, workflowID, events.ExecutionStarted{
		BaseEvent:   events.NewBaseEvent(events.ExecutionStartedEvent, workflowID),
		ExecutionID: record.ID,
		InputData:   options.InputData,
	})

	// The run outlives the request; only the span is carried over.
	runCtx, cancel := context.WithCancel(trace.ContextWithSpan(context.Background(), trace.SpanFromContext(ctx)))
	if timeout := e.timeoutFor(stored); timeout > 0 {
		runCtx, cancel = withTimeout(runCtx, cancel, timeout)
	}

	e.mu.Lock()
	e.cancels[record.ID] = cancel
	e.mu.Unlock()

	request := execution.Request{
		ExecutionID:   record.ID,
		Workflow:      stored,
		InputData:     options.InputData,
		DeploymentURL: deploymentURL,
	}

	e.running.Add(1)

	if options.Wait {
		e.run(runCtx, request)

		return e.GetExecutionStatus(ctx, record.ID)
	}

	go e.run(runCtx, request)

	started := *record

	return &started, nil
}

func withTimeout(parent context.Context, cancelParent context.CancelFunc, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)

	return ctx, func() {
		cancel()
		cancelParent()
	}
}

func (e *Execution) run(ctx context.Context, request execution.Request) {
	defer e.running.Done()

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "execution.run",
		attribute.String(otelhelper.WorkflowIDKey, request.Workflow.ID),
		attribute.String(otelhelper.ExecutionIDKey, request.ExecutionID))
	defer span.End()

	outcome, err := e.runner.Run(ctx, request)
	if err != nil {
		otelhelper.SetError(span, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if cancel, ok := e.cancels[request.ExecutionID]; ok {
		cancel()
		delete(e.cancels, request.ExecutionID)
	}

	// Lookups and writes below are detached from the run context, which is done by now.
	storeCtx := context.WithoutCancel(ctx)

	record, loadErr := e.persistence.ExecutionRepository().GetByID(storeCtx, request.ExecutionID)
	if loadErr != nil {
		e.logger.ErrorContext(storeCtx, "Failed to load execution after run", "execution_id", request.ExecutionID, "error", loadErr)

		return
	}

	if record.Status.Finished() {
		return
	}

	ended := e.now().UTC()
	record.EndTime = &ended
	duration := ended.Sub(record.StartTime)

	if outcome == nil {
		outcome = &execution.Outcome{}
	}

	record.Nodes = outcome.Nodes

	var event eventbus.Event

	switch {
	case err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded):
		timeout := e.timeoutFor(request.Workflow)
		record.Status = models.ExecutionStatusTimeout
		record.Error = fmt.Sprintf("execution timed out after %s", timeout)
		event = events.ExecutionTimeout{
			BaseEvent:   events.NewBaseEvent(events.ExecutionTimeoutEvent, record.WorkflowID),
			ExecutionID: record.ID,
			Timeout:     timeout,
		}
	case err != nil:
		record.Status = models.ExecutionStatusError
		record.Error = err.Error()
		event = events.ExecutionFailed{
			BaseEvent:   events.NewBaseEvent(events.ExecutionFailedEvent, record.WorkflowID),
			ExecutionID: record.ID,
			Error:       record.Error,
			Duration:    duration,
		}
	default:
		record.Status = models.ExecutionStatusSuccess
		record.Data = outcome.Data
		event = events.ExecutionFinished{
			BaseEvent:   events.NewBaseEvent(events.ExecutionFinishedEvent, record.WorkflowID),
			ExecutionID: record.ID,
			Result:      outcome.Data,
			Duration:    duration,
		}
	}

	if err := e.persistence.ExecutionRepository().Save(storeCtx, record); err != nil {
		e.logger.ErrorContext(storeCtx, "Failed to record execution outcome", "execution_id", record.ID, "error", err)

		return
	}

	e.logger.InfoContext(storeCtx, "Execution finished",
		"execution_id", record.ID, "workflow_id", record.WorkflowID, "status", record.Status, "duration", duration)

	e.publish(storeCtx, record.WorkflowID, event)
}

// GetExecutionStatus returns the current record of an execution.
func (e *Execution) GetExecutionStatus(ctx context.Context, executionID string) (*models.Execution, error) {
	return e.persistence.ExecutionRepository().GetByID(ctx, executionID)
}

// GetNodeExecutionDetails returns the result of one node within an execution.
func (e *Execution) GetNodeExecutionDetails(ctx context.Context, executionID, nodeID string) (*models.NodeExecution, error) {
	record, err := e.GetExecutionStatus(ctx, executionID)
	if err != nil {
		return nil, err
	}

	node := record.Node(nodeID)
	if node == nil {
		return nil, fmt.Errorf("%w: %s in execution %s", ErrNodeExecutionNotFound, nodeID, executionID)
	}

	return node, nil
}

// StopExecution cancels a running execution. It reports false when the execution had
// already finished.
func (e *Execution) StopExecution(ctx context.Context, executionID string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	record, err := e.persistence.ExecutionRepository().GetByID(ctx, executionID)
	if err != nil {
		return false, err
	}

	if record.Status.Finished() {
		return false, nil
	}

	ended := e.now().UTC()
	record.Status = models.ExecutionStatusCanceled
	record.EndTime = &ended

	if err := e.persistence.ExecutionRepository().Save(ctx, record); err != nil {
		return false, fmt.Errorf("failed to cancel execution: %w", err)
	}

	if cancel, ok := e.cancels[executionID]; ok {
		cancel()
		delete(e.cancels, executionID)
	}

	e.logger.InfoContext(ctx, "Execution canceled", "execution_id", executionID, "workflow_id", record.WorkflowID)

	e.publish(ctx, record.WorkflowID, events.ExecutionCanceled{
		BaseEvent:   events.NewBaseEvent(events.ExecutionCanceledEvent, record.WorkflowID),
		ExecutionID: executionID,
	})

	return true, nil
}

// ListExecutions returns the executions of a workflow, newest first.
func (e *Execution) ListExecutions(ctx context.Context, workflowID string) ([]*models.Execution, error) {
	if _, err := e.persistence.WorkflowRepository().GetByID(ctx, workflowID); err != nil {
		return nil, err
	}

	executions, err := e.persistence.ExecutionRepository().GetByWorkflow(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}

	return executions, nil
}

// ExpireStale marks running executions that outlived their timeout as timed out and
// returns how many were expired. Executions of deleted workflows use the default timeout.
func (e *Execution) ExpireStale(ctx context.Context, now time.Time) (int, error) {
	running, err := e.persistence.ExecutionRepository().GetByStatus(ctx, models.ExecutionStatusRunning)
	if err != nil {
		return 0, fmt.Errorf("failed to list running executions: %w", err)
	}

	timeouts := make(map[string]time.Duration)
	expired := 0

	for _, record := range running {
		timeout, ok := timeouts[record.WorkflowID]
		if !ok {
			stored, err := e.persistence.WorkflowRepository().GetByID(ctx, record.WorkflowID)
			if err != nil && !errors.Is(err, persistence.ErrWorkflowNotFound) {
				return expired, err
			}

			timeout = e.timeoutFor(stored)
			timeouts[record.WorkflowID] = timeout
		}

		if timeout <= 0 || now.Sub(record.StartTime) <= timeout {
			continue
		}

		if e.expire(ctx, record.ID, timeout, now) {
			expired++
		}
	}

	return expired, nil
}

func (e *Execution) expire(ctx context.Context, executionID string, timeout time.Duration, now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	record, err := e.persistence.ExecutionRepository().GetByID(ctx, executionID)
	if err != nil || record.Status.Finished() {
		return false
	}

	ended := now.UTC()
	record.Status = models.ExecutionStatusTimeout
	record.EndTime = &ended
	record.Error = fmt.Sprintf("execution timed out after %s", timeout)

	if err := e.persistence.ExecutionRepository().Save(ctx, record); err != nil {
		e.logger.ErrorContext(ctx, "Failed to expire execution", "execution_id", executionID, "error", err)

		return false
	}

	if cancel, ok := e.cancels[executionID]; ok {
		cancel()
		delete(e.cancels, executionID)
	}

	e.logger.WarnContext(ctx, "Execution timed out", "execution_id", executionID, "timeout", timeout)

	e.publish(ctx, record.WorkflowID, events.ExecutionTimeout{
		BaseEvent:   events.NewBaseEvent(events.ExecutionTimeoutEvent, record.WorkflowID),
		ExecutionID: executionID,
		Timeout:     timeout,
	})

	return true
}

// Wait blocks until every started run has finished.
func (e *Execution) Wait() {
	e.running.Wait()
}

func (e *Execution) timeoutFor(stored *models.Workflow) time.Duration {
	if stored != nil {
		if timeout := stored.ExecutionTimeout(); timeout > 0 {
			return timeout
		}
	}

	return e.defaultTimeout
}

func (e *Execution) latestDeploymentURL(ctx context.Context, workflowID string) (string, error) {
	deployments, err := e.persistence.DeploymentRepository().GetByWorkflow(ctx, workflowID)
	if err != nil {
		return "", fmt.Errorf("failed to load deployments: %w", err)
	}

	for i := len(deployments) - 1; i >= 0; i-- {
		if deployments[i].Success && deployments[i].URL != "" {
			return deployments[i].URL, nil
		}
	}

	return "", nil
}

func (e *Execution) publish(ctx context.Context, workflowID string, event eventbus.Event) {
	if e.publisher == nil {
		return
	}

	if err := e.publisher.Publish(ctx, workflowID, event); err != nil {
		e.logger.ErrorContext(ctx, "Failed to publish execution event", "event_type", event.GetType(), "error", err)
	}
}
