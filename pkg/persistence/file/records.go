package file

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/dukex/flowdeck/pkg/models"
	"github.com/dukex/flowdeck/pkg/persistence"
)

// DeploymentRepository stores deployment records under deployments/<workflowID>/.
type DeploymentRepository struct {
	root string
}

func NewDeploymentRepository(root string) *DeploymentRepository {
	return &DeploymentRepository{root: filepath.Join(root, "deployments")}
}

func (dr *DeploymentRepository) forWorkflow(workflowID string) collection {
	return collection{dir: filepath.Join(dr.root, workflowID)}
}

func (dr *DeploymentRepository) Save(_ context.Context, deployment *models.Deployment) error {
	if err := validateID(deployment.WorkflowID); err != nil {
		return persistence.NewRecordError("Save", "deployment", deployment.ID, err)
	}

	if err := dr.forWorkflow(deployment.WorkflowID).write(deployment.ID, deployment); err != nil {
		return persistence.NewRecordError("Save", "deployment", deployment.ID, err)
	}

	return nil
}

func (dr *DeploymentRepository) GetByWorkflow(_ context.Context, workflowID string) ([]*models.Deployment, error) {
	if err := validateID(workflowID); err != nil {
		return nil, err
	}

	deployments := dr.forWorkflow(workflowID)

	ids, err := deployments.ids()
	if err != nil {
		return nil, err
	}

	result := make([]*models.Deployment, 0, len(ids))

	for _, id := range ids {
		var deployment models.Deployment
		if found, err := deployments.read(id, &deployment); err != nil || !found {
			// Skip invalid files
			continue
		}

		result = append(result, &deployment)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result, nil
}

// ExecutionRepository stores execution records under executions/.
type ExecutionRepository struct {
	executions collection
}

func NewExecutionRepository(root string) *ExecutionRepository {
	return &ExecutionRepository{executions: collection{dir: filepath.Join(root, "executions")}}
}

func (er *ExecutionRepository) Save(_ context.Context, execution *models.Execution) error {
	if err := er.executions.write(execution.ID, execution); err != nil {
		return persistence.NewRecordError("Save", "execution", execution.ID, err)
	}

	return nil
}

func (er *ExecutionRepository) GetByID(_ context.Context, id string) (*models.Execution, error) {
	var execution models.Execution

	found, err := er.executions.read(id, &execution)
	if err != nil {
		return nil, persistence.NewRecordError("GetByID", "execution", id, err)
	}

	if !found {
		return nil, persistence.NewRecordError("GetByID", "execution", id, persistence.ErrExecutionNotFound)
	}

	return &execution, nil
}

func (er *ExecutionRepository) GetByWorkflow(ctx context.Context, workflowID string) ([]*models.Execution, error) {
	return er.filter(ctx, func(execution *models.Execution) bool {
		return execution.WorkflowID == workflowID
	})
}

func (er *ExecutionRepository) GetByStatus(ctx context.Context, status models.ExecutionStatus) ([]*models.Execution, error) {
	return er.filter(ctx, func(execution *models.Execution) bool {
		return execution.Status == status
	})
}

func (er *ExecutionRepository) filter(ctx context.Context, keep func(*models.Execution) bool) ([]*models.Execution, error) {
	ids, err := er.executions.ids()
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}

	result := make([]*models.Execution, 0)

	for _, id := range ids {
		execution, err := er.GetByID(ctx, id)
		if err != nil {
			// Skip invalid files
			continue
		}

		if keep(execution) {
			result = append(result, execution)
		}
	}

	models.SortExecutionsNewestFirst(result)

	return result, nil
}

// CredentialRepository stores credentials under credentials/.
type CredentialRepository struct {
	credentials collection
}

func NewCredentialRepository(root string) *CredentialRepository {
	return &CredentialRepository{credentials: collection{dir: filepath.Join(root, "credentials")}}
}

func (cr *CredentialRepository) Save(_ context.Context, credential *models.Credential) error {
	if err := cr.credentials.write(credential.ID, credential); err != nil {
		return persistence.NewRecordError("Save", "credential", credential.ID, err)
	}

	return nil
}

func (cr *CredentialRepository) GetByID(_ context.Context, id string) (*models.Credential, error) {
	var credential models.Credential

	found, err := cr.credentials.read(id, &credential)
	if err != nil {
		return nil, persistence.NewRecordError("GetByID", "credential", id, err)
	}

	if !found {
		return nil, persistence.NewRecordError("GetByID", "credential", id, persistence.ErrCredentialNotFound)
	}

	return &credential, nil
}

func (cr *CredentialRepository) Delete(_ context.Context, id string) error {
	if err := cr.credentials.remove(id); err != nil {
		return persistence.NewRecordError("Delete", "credential", id, err)
	}

	return nil
}
