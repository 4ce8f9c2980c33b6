// Package events defines the deployment and execution lifecycle notifications carried on
// the event bus.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic is the single topic all flowdeck events are published on.
const Topic = "flowdeck.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Deployment events.
	WorkflowDeployedEvent         EventType = "workflow.deployed"
	WorkflowDeploymentFailedEvent EventType = "workflow.deployment_failed"

	// Execution lifecycle events.
	ExecutionStartedEvent  EventType = "execution.started"
	ExecutionFinishedEvent EventType = "execution.finished"
	ExecutionFailedEvent   EventType = "execution.failed"
	ExecutionCanceledEvent EventType = "execution.canceled"
	ExecutionTimeoutEvent  EventType = "execution.timeout"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
		Metadata:   make(map[string]any),
	}
}

type WorkflowDeployed struct {
	BaseEvent

	DeploymentID string `json:"deployment_id"`
	Provider     string `json:"provider"`
	URL          string `json:"url"`
}

func (e WorkflowDeployed) GetType() EventType {
	return WorkflowDeployedEvent
}

type WorkflowDeploymentFailed struct {
	BaseEvent

	DeploymentID string `json:"deployment_id"`
	Provider     string `json:"provider"`
	Error        string `json:"error"`
}

func (e WorkflowDeploymentFailed) GetType() EventType {
	return WorkflowDeploymentFailedEvent
}

type ExecutionStarted struct {
	BaseEvent

	ExecutionID string         `json:"execution_id"`
	InputData   map[string]any `json:"input_data,omitempty"`
}

func (e ExecutionStarted) GetType() EventType {
	return ExecutionStartedEvent
}

type ExecutionFinished struct {
	BaseEvent

	ExecutionID string         `json:"execution_id"`
	Result      map[string]any `json:"result,omitempty"`
	Duration    time.Duration  `json:"duration"`
}

func (e ExecutionFinished) GetType() EventType {
	return ExecutionFinishedEvent
}

type ExecutionFailed struct {
	BaseEvent

	ExecutionID string        `json:"execution_id"`
	Error       string        `json:"error"`
	Duration    time.Duration `json:"duration"`
}

func (e ExecutionFailed) GetType() EventType {
	return ExecutionFailedEvent
}

type ExecutionCanceled struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
}

func (e ExecutionCanceled) GetType() EventType {
	return ExecutionCanceledEvent
}

// ExecutionTimeout is published when a running execution outlives its timeout.
type ExecutionTimeout struct {
	BaseEvent

	ExecutionID string        `json:"execution_id"`
	Timeout     time.Duration `json:"timeout"`
}

func (e ExecutionTimeout) GetType() EventType {
	return ExecutionTimeoutEvent
}
