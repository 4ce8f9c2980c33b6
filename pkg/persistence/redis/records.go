package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/flowdeck/pkg/models"
	"github.com/dukex/flowdeck/pkg/persistence"
	goredis "github.com/redis/go-redis/v9"
)

// DeploymentRepository appends deployments to a per-workflow list.
type DeploymentRepository struct {
	client goredis.UniversalClient
}

func (r *DeploymentRepository) Save(ctx context.Context, deployment *models.Deployment) error {
	body, err := json.Marshal(deployment)
	if err != nil {
		return persistence.NewRecordError("Save", "deployment", deployment.ID, err)
	}

	score := float64(deployment.CreatedAt.UnixNano())

	if err := r.client.ZAdd(ctx, key("deployments", deployment.WorkflowID), goredis.Z{Score: score, Member: body}).Err(); err != nil {
		return persistence.NewRecordError("Save", "deployment", deployment.ID, err)
	}

	return nil
}

func (r *DeploymentRepository) GetByWorkflow(ctx context.Context, workflowID string) ([]*models.Deployment, error) {
	members, err := r.client.ZRange(ctx, key("deployments", workflowID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read deployments: %w", err)
	}

	deployments := make([]*models.Deployment, 0, len(members))

	for _, member := range members {
		var deployment models.Deployment
		if err := json.Unmarshal([]byte(member), &deployment); err != nil {
			return nil, fmt.Errorf("failed to unmarshal deployment: %w", err)
		}

		deployments = append(deployments, &deployment)
	}

	return deployments, nil
}

// ExecutionRepository stores executions with a per-workflow index and a per-status index.
type ExecutionRepository struct {
	client goredis.UniversalClient
	logger *slog.Logger
}

func (r *ExecutionRepository) Save(ctx context.Context, execution *models.Execution) error {
	body, err := json.Marshal(execution)
	if err != nil {
		return persistence.NewRecordError("Save", "execution", execution.ID, err)
	}

	previous, err := r.GetByID(ctx, execution.ID)
	if err != nil && !persistence.IsExecutionNotFound(err) {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, key("execution", execution.ID), body, 0)
		pipe.SAdd(ctx, key("workflow_executions", execution.WorkflowID), execution.ID)

		if previous != nil && previous.Status != execution.Status {
			pipe.SRem(ctx, key("executions_by_status", string(previous.Status)), execution.ID)
		}

		pipe.SAdd(ctx, key("executions_by_status", string(execution.Status)), execution.ID)

		return nil
	})
	if err != nil {
		return persistence.NewRecordError("Save", "execution", execution.ID, err)
	}

	return nil
}

func (r *ExecutionRepository) GetByID(ctx context.Context, id string) (*models.Execution, error) {
	body, err := r.client.Get(ctx, key("execution", id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, persistence.NewRecordError("GetByID", "execution", id, persistence.ErrExecutionNotFound)
		}

		return nil, persistence.NewRecordError("GetByID", "execution", id, err)
	}

	var execution models.Execution
	if err := json.Unmarshal(body, &execution); err != nil {
		return nil, persistence.NewRecordError("GetByID", "execution", id, err)
	}

	return &execution, nil
}

func (r *ExecutionRepository) GetByWorkflow(ctx context.Context, workflowID string) ([]*models.Execution, error) {
	return r.load(ctx, key("workflow_executions", workflowID))
}

func (r *ExecutionRepository) GetByStatus(ctx context.Context, status models.ExecutionStatus) ([]*models.Execution, error) {
	return r.load(ctx, key("executions_by_status", string(status)))
}

func (r *ExecutionRepository) load(ctx context.Context, index string) ([]*models.Execution, error) {
	ids, err := r.client.SMembers(ctx, index).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read execution index %s: %w", index, err)
	}

	executions := make([]*models.Execution, 0, len(ids))

	for _, id := range ids {
		execution, err := r.GetByID(ctx, id)
		if err != nil {
			r.logger.WarnContext(ctx, "Skipping unreadable execution", "execution_id", id, "error", err)

			continue
		}

		executions = append(executions, execution)
	}

	models.SortExecutionsNewestFirst(executions)

	return executions, nil
}

// CredentialRepository stores credentials under flowdeck:credential:<id>.
type CredentialRepository struct {
	client goredis.UniversalClient
}

func (r *CredentialRepository) Save(ctx context.Context, credential *models.Credential) error {
	body, err := json.Marshal(credential)
	if err != nil {
		return persistence.NewRecordError("Save", "credential", credential.ID, err)
	}

	if err := r.client.Set(ctx, key("credential", credential.ID), body, 0).Err(); err != nil {
		return persistence.NewRecordError("Save", "credential", credential.ID, err)
	}

	return nil
}

func (r *CredentialRepository) GetByID(ctx context.Context, id string) (*models.Credential, error) {
	body, err := r.client.Get(ctx, key("credential", id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, persistence.NewRecordError("GetByID", "credential", id, persistence.ErrCredentialNotFound)
		}

		return nil, persistence.NewRecordError("GetByID", "credential", id, err)
	}

	var credential models.Credential
	if err := json.Unmarshal(body, &credential); err != nil {
		return nil, persistence.NewRecordError("GetByID", "credential", id, err)
	}

	return &credential, nil
}

func (r *CredentialRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, key("credential", id)).Err(); err != nil {
		return persistence.NewRecordError("Delete", "credential", id, err)
	}

	return nil
}
