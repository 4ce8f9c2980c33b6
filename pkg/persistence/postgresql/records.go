package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/flowdeck/pkg/models"
	"github.com/dukex/flowdeck/pkg/persistence"
)

// DeploymentRepository handles deployment history.
type DeploymentRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func (r *DeploymentRepository) Save(ctx context.Context, deployment *models.Deployment) error {
	document, err := json.Marshal(deployment)
	if err != nil {
		return persistence.NewRecordError("Save", "deployment", deployment.ID, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO deployments (id, workflow_id, provider, success, document, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			success = EXCLUDED.success,
			document = EXCLUDED.document
	`, deployment.ID, deployment.WorkflowID, deployment.Provider, deployment.Success, string(document), deployment.CreatedAt)
	if err != nil {
		return persistence.NewRecordError("Save", "deployment", deployment.ID, err)
	}

	return nil
}

func (r *DeploymentRepository) GetByWorkflow(ctx context.Context, workflowID string) ([]*models.Deployment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT document FROM deployments
		WHERE workflow_id = $1
		ORDER BY created_at ASC, id
	`, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to query deployments: %w", err)
	}
	defer closeRows(ctx, r.logger, rows)

	return scanDocuments[models.Deployment](rows)
}

// ExecutionRepository handles execution records.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func (r *ExecutionRepository) Save(ctx context.Context, execution *models.Execution) error {
	document, err := json.Marshal(execution)
	if err != nil {
		return persistence.NewRecordError("Save", "execution", execution.ID, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO executions (id, workflow_id, status, document, start_time)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			document = EXCLUDED.document
	`, execution.ID, execution.WorkflowID, execution.Status, string(document), execution.StartTime)
	if err != nil {
		return persistence.NewRecordError("Save", "execution", execution.ID, err)
	}

	return nil
}

func (r *ExecutionRepository) GetByID(ctx context.Context, id string) (*models.Execution, error) {
	var document []byte

	err := r.db.QueryRowContext(ctx, "SELECT document FROM executions WHERE id = $1", id).Scan(&document)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewRecordError("GetByID", "execution", id, persistence.ErrExecutionNotFound)
		}

		return nil, persistence.NewRecordError("GetByID", "execution", id, err)
	}

	var execution models.Execution
	if err := json.Unmarshal(document, &execution); err != nil {
		return nil, persistence.NewRecordError("GetByID", "execution", id, err)
	}

	return &execution, nil
}

func (r *ExecutionRepository) GetByWorkflow(ctx context.Context, workflowID string) ([]*models.Execution, error) {
	return r.query(ctx, "workflow_id = $1", workflowID)
}

func (r *ExecutionRepository) GetByStatus(ctx context.Context, status models.ExecutionStatus) ([]*models.Execution, error) {
	return r.query(ctx, "status = $1", status)
}

func (r *ExecutionRepository) query(ctx context.Context, condition string, arg any) ([]*models.Execution, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT document FROM executions WHERE "+condition+" ORDER BY start_time DESC", arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}
	defer closeRows(ctx, r.logger, rows)

	return scanDocuments[models.Execution](rows)
}

// CredentialRepository stores credential documents.
type CredentialRepository struct {
	db *sql.DB
}

func (r *CredentialRepository) Save(ctx context.Context, credential *models.Credential) error {
	document, err := json.Marshal(credential)
	if err != nil {
		return persistence.NewRecordError("Save", "credential", credential.ID, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO credentials (id, name, type, document)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			document = EXCLUDED.document,
			updated_at = NOW()
	`, credential.ID, credential.Name, credential.Type, string(document))
	if err != nil {
		return persistence.NewRecordError("Save", "credential", credential.ID, err)
	}

	return nil
}

func (r *CredentialRepository) GetByID(ctx context.Context, id string) (*models.Credential, error) {
	var document []byte

	err := r.db.QueryRowContext(ctx, "SELECT document FROM credentials WHERE id = $1", id).Scan(&document)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewRecordError("GetByID", "credential", id, persistence.ErrCredentialNotFound)
		}

		return nil, persistence.NewRecordError("GetByID", "credential", id, err)
	}

	var credential models.Credential
	if err := json.Unmarshal(document, &credential); err != nil {
		return nil, persistence.NewRecordError("GetByID", "credential", id, err)
	}

	return &credential, nil
}

func (r *CredentialRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM credentials WHERE id = $1", id)
	if err != nil {
		return persistence.NewRecordError("Delete", "credential", id, err)
	}

	return nil
}

func scanDocuments[T any](rows *sql.Rows) ([]*T, error) {
	result := make([]*T, 0)

	for rows.Next() {
		var document []byte
		if err := rows.Scan(&document); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}

		var value T
		if err := json.Unmarshal(document, &value); err != nil {
			return nil, fmt.Errorf("failed to unmarshal document: %w", err)
		}

		result = append(result, &value)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}
