package persistence

import (
	"fmt"
	"sort"

	"github.com/dukex/flowdeck/pkg/models"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// ListWorkflowsOptions controls paging and ordering of workflow listings.
type ListWorkflowsOptions struct {
	Limit     int
	Offset    int
	SortBy    string // "created_at", "updated_at" or "name"
	SortOrder string // "asc" or "desc"
	Active    *bool
}

// WorkflowListResult is one page of workflows.
type WorkflowListResult struct {
	Workflows   []*models.Workflow `json:"workflows"`
	TotalCount  int64              `json:"totalCount"`
	HasNextPage bool               `json:"hasNextPage"`
}

var allowedSorts = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"name":       true,
}

// Normalize fills defaults and rejects sort fields outside the allowlist.
func (o ListWorkflowsOptions) Normalize() (ListWorkflowsOptions, error) {
	if o.Limit <= 0 || o.Limit > MaxListLimit {
		o.Limit = DefaultListLimit
	}

	if o.Offset < 0 {
		o.Offset = 0
	}

	if o.SortBy == "" {
		o.SortBy = "created_at"
	}

	if o.SortOrder != "asc" {
		o.SortOrder = "desc"
	}

	if !allowedSorts[o.SortBy] {
		return o, fmt.Errorf("%w: %s", ErrInvalidSortField, o.SortBy)
	}

	return o, nil
}

// PageWorkflows filters, sorts and pages an in-memory workflow set. Backends without
// query support (file, redis) list through it.
func PageWorkflows(workflows []*models.Workflow, opts ListWorkflowsOptions) (*WorkflowListResult, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}

	filtered := make([]*models.Workflow, 0, len(workflows))

	for _, workflow := range workflows {
		if opts.Active != nil && workflow.Active != *opts.Active {
			continue
		}

		filtered = append(filtered, workflow)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		a, b := filtered[i], filtered[j]
		if opts.SortOrder == "desc" {
			a, b = b, a
		}

		switch opts.SortBy {
		case "updated_at":
			return a.UpdatedAt.Before(b.UpdatedAt)
		case "name":
			return a.Name < b.Name
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	})

	result := &WorkflowListResult{
		Workflows:  make([]*models.Workflow, 0),
		TotalCount: int64(len(filtered)),
	}

	if opts.Offset >= len(filtered) {
		return result, nil
	}

	end := min(opts.Offset+opts.Limit, len(filtered))
	result.Workflows = filtered[opts.Offset:end]
	result.HasNextPage = end < len(filtered)

	return result, nil
}
