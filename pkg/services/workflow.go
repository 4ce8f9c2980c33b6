package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dukex/flowdeck/pkg/models"
	"github.com/dukex/flowdeck/pkg/persistence"
	"github.com/dukex/flowdeck/pkg/schema"
	"github.com/dukex/flowdeck/pkg/workflow"
	"github.com/google/uuid"
)

type Workflow struct {
	persistence persistence.Persistence
	visual      *schema.Validator
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(persistence persistence.Persistence) *Workflow {
	return &Workflow{
		persistence: persistence,
		visual:      schema.Visual(),
	}
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// ListWorkflowsRequest contains options for listing workflows.
type ListWorkflowsRequest struct {
	// Pagination
	Limit  int `validate:"omitempty,min=1,max=100"`
	Offset int `validate:"min=0"`

	// Filtering
	Active *bool

	// Sorting
	SortBy    string `validate:"omitempty,oneof=created_at updated_at name"`
	SortOrder string `validate:"omitempty,oneof=asc desc"`
}

// ListWorkflowsResponse contains the result of listing workflows.
type ListWorkflowsResponse struct {
	Workflows   []*models.Workflow `json:"workflows"`
	TotalCount  int64              `json:"totalCount"`
	HasNextPage bool               `json:"hasNextPage"`
}

// ListWorkflows retrieves workflows with filtering, sorting, and pagination.
func (w *Workflow) ListWorkflows(ctx context.Context, req ListWorkflowsRequest) (*ListWorkflowsResponse, error) {
	if req.SortOrder != "" && req.SortOrder != "asc" && req.SortOrder != "desc" {
		return nil, NewValidationError(
			"ListWorkflows",
			"INVALID_SORT_ORDER",
			fmt.Sprintf("invalid sort order '%s', allowed: asc, desc", req.SortOrder),
			ErrInvalidSortOrder,
		)
	}

	result, err := w.persistence.WorkflowRepository().ListWorkflows(ctx, persistence.ListWorkflowsOptions{
		Limit:     req.Limit,
		Offset:    req.Offset,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
		Active:    req.Active,
	})
	if err != nil {
		if errors.Is(err, persistence.ErrInvalidSortField) {
			return nil, NewValidationError(
				"ListWorkflows",
				"INVALID_SORT_FIELD",
				fmt.Sprintf("invalid sort field '%s', allowed: %s", req.SortBy, strings.Join([]string{"created_at", "updated_at", "name"}, ", ")),
				ErrInvalidSortField,
			)
		}

		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	return &ListWorkflowsResponse{
		Workflows:   result.Workflows,
		TotalCount:  result.TotalCount,
		HasNextPage: result.HasNextPage,
	}, nil
}

// FetchByID retrieves a workflow by its ID.
func (w *Workflow) FetchByID(ctx context.Context, id string) (*models.Workflow, error) {
	workflow, err := w.persistence.WorkflowRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if workflow == nil {
		return nil, ErrWorkflowNotFound
	}

	return workflow, nil
}

// FetchVisual returns a stored workflow as the designer's visual graph.
func (w *Workflow) FetchVisual(ctx context.Context, id string) (*models.VisualGraph, error) {
	stored, err := w.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return workflow.ToVisualGraph(stored), nil
}

// Create adds a new workflow to the repository.
func (w *Workflow) Create(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	if workflow == nil {
		return nil, ErrWorkflowNil
	}

	now := time.Now().UTC()
	workflow.ID = uuid.New().String()
	workflow.CreatedAt = now
	workflow.UpdatedAt = now

	if workflow.Nodes == nil {
		workflow.Nodes = []*models.Node{}
	}

	err := w.persistence.WorkflowRepository().Save(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	return workflow, nil
}

// ImportVisual checks a designer document against the visual graph schema, converts it
// and stores the result.
func (w *Workflow) ImportVisual(ctx context.Context, document []byte) (*models.Workflow, error) {
	if err := w.visual.Validate(document); err != nil {
		return nil, err
	}

	var graph models.VisualGraph

	if err := json.Unmarshal(document, &graph); err != nil {
		return nil, NewValidationError("ImportVisual", "INVALID_DOCUMENT", err.Error(), ErrInvalidRequest)
	}

	return w.Create(ctx, workflow.ToAdjacencyWorkflow(&graph))
}

// Update modifies an existing workflow by its ID.
func (w *Workflow) Update(
	ctx context.Context,
	workflowID string,
	workflow *models.Workflow,
) (*models.Workflow, error) {
	if workflow == nil {
		return nil, ErrWorkflowNil
	}

	existing, err := w.FetchByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	workflow.ID = workflowID
	workflow.CreatedAt = existing.CreatedAt
	workflow.UpdatedAt = time.Now().UTC()

	if workflow.Nodes == nil {
		workflow.Nodes = []*models.Node{}
	}

	err = w.persistence.WorkflowRepository().Save(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}

	return workflow, nil
}

// Delete removes a workflow by its ID.
func (w *Workflow) Delete(ctx context.Context, workflowID string) error {
	if _, err := w.FetchByID(ctx, workflowID); err != nil {
		return err
	}

	err := w.persistence.WorkflowRepository().Delete(ctx, workflowID)
	if err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	return nil
}

// Validate runs the structural checks on a stored workflow; forDeployment adds the
// deployment checks.
func (w *Workflow) Validate(ctx context.Context, workflowID string, forDeployment bool) (workflow.ValidationResult, error) {
	stored, err := w.FetchByID(ctx, workflowID)
	if err != nil {
		return workflow.ValidationResult{}, err
	}

	if forDeployment {
		return workflow.ValidateForDeployment(stored), nil
	}

	return workflow.ValidateWorkflow(stored), nil
}
