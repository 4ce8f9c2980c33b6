package models

import (
	"sort"
	"time"
)

// ExecutionStatus is the lifecycle state of a workflow execution.
type ExecutionStatus string

const (
	ExecutionStatusRunning  ExecutionStatus = "running"
	ExecutionStatusSuccess  ExecutionStatus = "success"
	ExecutionStatusError    ExecutionStatus = "error"
	ExecutionStatusCanceled ExecutionStatus = "canceled"
	ExecutionStatusTimeout  ExecutionStatus = "timeout"
)

// Finished reports whether the status is terminal.
func (s ExecutionStatus) Finished() bool {
	return s != ExecutionStatusRunning
}

// NodeStatus defines the possible states of a node within an execution.
type NodeStatus string

const (
	NodeStatusPending NodeStatus = "pending"
	NodeStatusRunning NodeStatus = "running"
	NodeStatusSuccess NodeStatus = "success"
	NodeStatusError   NodeStatus = "error"
	NodeStatusSkipped NodeStatus = "skipped"
)

// Execution is one run of a workflow.
type Execution struct {
	ID         string           `json:"executionId"`
	WorkflowID string           `json:"workflowId"`
	Status     ExecutionStatus  `json:"status"`
	StartTime  time.Time        `json:"startTime"`
	EndTime    *time.Time       `json:"endTime,omitempty"`
	Data       map[string]any   `json:"data,omitempty"`
	Error      string           `json:"error,omitempty"`
	Nodes      []*NodeExecution `json:"nodes,omitempty"`
}

// NodeExecution is the result of a single node within an execution.
type NodeExecution struct {
	NodeID    string         `json:"nodeId"`
	NodeName  string         `json:"nodeName"`
	Status    NodeStatus     `json:"status"`
	StartTime *time.Time     `json:"startTime,omitempty"`
	EndTime   *time.Time     `json:"endTime,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Node returns the node result with the given id, or nil.
func (e *Execution) Node(nodeID string) *NodeExecution {
	for _, node := range e.Nodes {
		if node.NodeID == nodeID {
			return node
		}
	}

	return nil
}

// SortExecutionsNewestFirst orders executions by start time, latest first; ties keep
// their order.
func SortExecutionsNewestFirst(executions []*Execution) {
	sort.SliceStable(executions, func(i, j int) bool {
		return executions[i].StartTime.After(executions[j].StartTime)
	})
}
