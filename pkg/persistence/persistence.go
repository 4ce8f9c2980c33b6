// Package persistence provides the data storage abstraction for workflows, deployments,
// executions and credentials.
package persistence

import (
	"context"

	"github.com/dukex/flowdeck/pkg/models"
)

// Persistence groups the repositories of one storage backend.
type Persistence interface {
	WorkflowRepository() WorkflowRepository
	DeploymentRepository() DeploymentRepository
	ExecutionRepository() ExecutionRepository
	CredentialRepository() CredentialRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// WorkflowRepository stores workflows in adjacency form. Implementations must keep the
// order of connections when a workflow is written and read back.
type WorkflowRepository interface {
	ListWorkflows(ctx context.Context, opts ListWorkflowsOptions) (*WorkflowListResult, error)
	// GetByID returns ErrWorkflowNotFound when no workflow has the id.
	GetByID(ctx context.Context, id string) (*models.Workflow, error)
	// Save inserts or replaces a workflow, stamping CreatedAt and UpdatedAt.
	Save(ctx context.Context, workflow *models.Workflow) error
	// Delete is a no-op for unknown ids.
	Delete(ctx context.Context, id string) error
}

// DeploymentRepository keeps the deployment history of workflows.
type DeploymentRepository interface {
	Save(ctx context.Context, deployment *models.Deployment) error
	// GetByWorkflow returns deployments oldest first.
	GetByWorkflow(ctx context.Context, workflowID string) ([]*models.Deployment, error)
}

// ExecutionRepository stores execution records and their node results.
type ExecutionRepository interface {
	Save(ctx context.Context, execution *models.Execution) error
	// GetByID returns ErrExecutionNotFound when no execution has the id.
	GetByID(ctx context.Context, id string) (*models.Execution, error)
	// GetByWorkflow returns executions newest first.
	GetByWorkflow(ctx context.Context, workflowID string) ([]*models.Execution, error)
	GetByStatus(ctx context.Context, status models.ExecutionStatus) ([]*models.Execution, error)
}

// CredentialRepository stores credentials exactly as given; sealing is the caller's job.
type CredentialRepository interface {
	Save(ctx context.Context, credential *models.Credential) error
	// GetByID returns ErrCredentialNotFound when no credential has the id.
	GetByID(ctx context.Context, id string) (*models.Credential, error)
	Delete(ctx context.Context, id string) error
}
