package models

import (
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

const requiredTag = "required"

func TestCredential_Validation(t *testing.T) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	valid := &Credential{
		Name:        "Slack token",
		Type:        "slackApi",
		Data:        map[string]any{"token": "xoxb"},
		NodesAccess: []NodeAccess{{NodeType: "n8n-nodes-base.slack"}},
	}
	assert.NoError(t, validate.Struct(valid))

	missing := &Credential{NodesAccess: []NodeAccess{{}}}
	err := validate.Struct(missing)
	assert.Error(t, err)

	var validationErrors validator.ValidationErrors

	assert.True(t, errors.As(err, &validationErrors))

	fields := make(map[string]string)
	for _, fieldErr := range validationErrors {
		fields[fieldErr.Field()] = fieldErr.Tag()
	}

	assert.Equal(t, requiredTag, fields["Name"])
	assert.Equal(t, requiredTag, fields["Type"])
	assert.Equal(t, requiredTag, fields["NodeType"])
}

func TestExecutionStatus_Finished(t *testing.T) {
	assert.False(t, ExecutionStatusRunning.Finished())

	for _, status := range []ExecutionStatus{
		ExecutionStatusSuccess,
		ExecutionStatusError,
		ExecutionStatusCanceled,
		ExecutionStatusTimeout,
	} {
		assert.True(t, status.Finished(), status)
	}
}

func TestExecution_Node(t *testing.T) {
	execution := &Execution{
		ID: "exec-1",
		Nodes: []*NodeExecution{
			{NodeID: "a", Status: NodeStatusSuccess},
			{NodeID: "b", Status: NodeStatusSkipped},
		},
	}

	assert.Equal(t, NodeStatusSkipped, execution.Node("b").Status)
	assert.Nil(t, execution.Node("c"))
}

func TestWorkflow_ExecutionTimeoutUnset(t *testing.T) {
	workflow := &Workflow{}
	assert.Equal(t, time.Duration(0), workflow.ExecutionTimeout())

	workflow.Settings = &WorkflowSettings{ExecutionTimeout: -1}
	assert.Equal(t, time.Duration(0), workflow.ExecutionTimeout())
}
