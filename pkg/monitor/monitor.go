// Package monitor keeps the execution and deployment dashboard summary, fed by the event
// bus, and periodically expires executions that outlived their timeout.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/dukex/flowdeck/pkg/eventbus"
	"github.com/dukex/flowdeck/pkg/events"
	"github.com/dukex/flowdeck/pkg/models"
)

const DefaultRecentLimit = 50

// finishedLimit bounds how many terminal execution IDs are remembered to discard late
// started events.
const finishedLimit = 10000

// ExecutionSummary is one entry of the recent executions list.
type ExecutionSummary struct {
	ExecutionID string                 `json:"executionId"`
	WorkflowID  string                 `json:"workflowId"`
	Status      models.ExecutionStatus `json:"status"`
	Error       string                 `json:"error,omitempty"`
	Duration    time.Duration          `json:"duration,omitempty"`
	UpdatedAt   time.Time              `json:"updatedAt"`
}

// DeploymentSummary is the last deployment seen for a workflow.
type DeploymentSummary struct {
	DeploymentID string    `json:"deploymentId"`
	Provider     string    `json:"provider"`
	Success      bool      `json:"success"`
	URL          string    `json:"url,omitempty"`
	Error        string    `json:"error,omitempty"`
	At           time.Time `json:"at"`
}

// Snapshot is a point-in-time copy of the dashboard.
type Snapshot struct {
	Executions       map[models.ExecutionStatus]int `json:"executions"`
	RecentExecutions []ExecutionSummary             `json:"recentExecutions"`
	Deployments      map[string]DeploymentSummary   `json:"deployments"`
}

type Monitor struct {
	mu          sync.RWMutex
	limit       int
	running     map[string]struct{}
	done        map[string]struct{}
	doneOrder   []string
	finished    map[models.ExecutionStatus]int
	recent      []ExecutionSummary
	deployments map[string]DeploymentSummary
	logger      *slog.Logger
}

// New creates a monitor that keeps at most recentLimit recent executions; zero or less
// uses DefaultRecentLimit.
func New(logger *slog.Logger, recentLimit int) *Monitor {
	if recentLimit <= 0 {
		recentLimit = DefaultRecentLimit
	}

	return &Monitor{
		limit:       recentLimit,
		running:     make(map[string]struct{}),
		done:        make(map[string]struct{}),
		finished:    make(map[models.ExecutionStatus]int),
		deployments: make(map[string]DeploymentSummary),
		logger:      logger.With("module", "monitor"),
	}
}

// Register subscribes the monitor to every deployment and execution event.
func (m *Monitor) Register(subscriber eventbus.EventSubscriber) error {
	for _, eventType := range []events.EventType{
		events.WorkflowDeployedEvent,
		events.WorkflowDeploymentFailedEvent,
		events.ExecutionStartedEvent,
		events.ExecutionFinishedEvent,
		events.ExecutionFailedEvent,
		events.ExecutionCanceledEvent,
		events.ExecutionTimeoutEvent,
	} {
		if err := subscriber.Handle(eventType, m.handle); err != nil {
			return fmt.Errorf("failed to register monitor handler for %s: %w", eventType, err)
		}
	}

	return nil
}

func (m *Monitor) handle(ctx context.Context, event any) error {
	m.Record(event)
	m.logger.DebugContext(ctx, "Event recorded", "event", fmt.Sprintf("%T", event))

	return nil
}

// Record applies an event to the summary. Unknown events are ignored. Events of one
// execution may arrive in any order: a started event after its terminal event is dropped,
// and only the first terminal event of an execution is counted.
func (m *Monitor) Record(event any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch e := event.(type) {
	case *events.WorkflowDeployed:
		m.deployments[e.WorkflowID] = DeploymentSummary{
			DeploymentID: e.DeploymentID, Provider: e.Provider, Success: true, URL: e.URL, At: e.Timestamp,
		}
	case *events.WorkflowDeploymentFailed:
		m.deployments[e.WorkflowID] = DeploymentSummary{
			DeploymentID: e.DeploymentID, Provider: e.Provider, Error: e.Error, At: e.Timestamp,
		}
	case *events.ExecutionStarted:
		if _, ok := m.done[e.ExecutionID]; ok {
			return
		}

		m.running[e.ExecutionID] = struct{}{}
		m.remember(ExecutionSummary{
			ExecutionID: e.ExecutionID, WorkflowID: e.WorkflowID, Status: models.ExecutionStatusRunning, UpdatedAt: e.Timestamp,
		})
	case *events.ExecutionFinished:
		m.finish(ExecutionSummary{
			ExecutionID: e.ExecutionID, WorkflowID: e.WorkflowID, Status: models.ExecutionStatusSuccess,
			Duration: e.Duration, UpdatedAt: e.Timestamp,
		})
	case *events.ExecutionFailed:
		m.finish(ExecutionSummary{
			ExecutionID: e.ExecutionID, WorkflowID: e.WorkflowID, Status: models.ExecutionStatusError,
			Error: e.Error, Duration: e.Duration, UpdatedAt: e.Timestamp,
		})
	case *events.ExecutionCanceled:
		m.finish(ExecutionSummary{
			ExecutionID: e.ExecutionID, WorkflowID: e.WorkflowID, Status: models.ExecutionStatusCanceled, UpdatedAt: e.Timestamp,
		})
	case *events.ExecutionTimeout:
		m.finish(ExecutionSummary{
			ExecutionID: e.ExecutionID, WorkflowID: e.WorkflowID, Status: models.ExecutionStatusTimeout,
			Error: fmt.Sprintf("execution timed out after %s", e.Timeout), UpdatedAt: e.Timestamp,
		})
	}
}

func (m *Monitor) finish(summary ExecutionSummary) {
	if _, ok := m.done[summary.ExecutionID]; ok {
		return
	}

	m.done[summary.ExecutionID] = struct{}{}
	m.doneOrder = append(m.doneOrder, summary.ExecutionID)

	if len(m.doneOrder) > finishedLimit {
		delete(m.done, m.doneOrder[0])
		m.doneOrder = m.doneOrder[1:]
	}

	delete(m.running, summary.ExecutionID)
	m.finished[summary.Status]++
	m.remember(summary)
}

// remember puts summary at the front of the recent list, replacing an older entry of the
// same execution.
func (m *Monitor) remember(summary ExecutionSummary) {
	recent := make([]ExecutionSummary, 0, min(len(m.recent)+1, m.limit))
	recent = append(recent, summary)

	for _, existing := range m.recent {
		if len(recent) == m.limit {
			break
		}

		if existing.ExecutionID != summary.ExecutionID {
			recent = append(recent, existing)
		}
	}

	m.recent = recent
}

// Snapshot copies the current summary.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := map[models.ExecutionStatus]int{
		models.ExecutionStatusRunning:  len(m.running),
		models.ExecutionStatusSuccess:  0,
		models.ExecutionStatusError:    0,
		models.ExecutionStatusCanceled: 0,
		models.ExecutionStatusTimeout:  0,
	}

	maps.Copy(counts, m.finished)

	return Snapshot{
		Executions:       counts,
		RecentExecutions: append([]ExecutionSummary{}, m.recent...),
		Deployments:      maps.Clone(m.deployments),
	}
}
