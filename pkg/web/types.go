// Package web provides the HTTP handlers of the flowdeck REST API.
package web

import (
	"time"

	"github.com/dukex/flowdeck/pkg/models"
)

// DefaultAPIKeyTTL is used when an API key request does not set expiresIn.
const DefaultAPIKeyTTL = 30 * 24 * time.Hour

// APIKeyRequest is the optional body of POST /workflows/:id/api-keys.
type APIKeyRequest struct {
	// ExpiresIn is the key lifetime in seconds.
	ExpiresIn int `json:"expiresIn" validate:"omitempty,min=1"`
}

// APIKeyResponse carries a freshly issued execution key.
type APIKeyResponse struct {
	APIKey     string    `json:"apiKey"`
	WorkflowID string    `json:"workflowId"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// StopExecutionResponse reports whether a stop request changed the execution.
type StopExecutionResponse struct {
	ExecutionID string `json:"executionId"`
	Stopped     bool   `json:"stopped"`
}

// DebugRequest is the body of POST /ai/debug.
type DebugRequest struct {
	Workflow *models.Workflow `json:"workflow" validate:"required"`
	Error    string           `json:"error"    validate:"required"`
}

// HelpRequest is the body of POST /ai/help.
type HelpRequest struct {
	Query string `json:"query" validate:"required,min=2"`
}

// CredentialResponse is returned after a credential is stored.
type CredentialResponse struct {
	ID string `json:"id"`
}
