package models

import "time"

// DeploymentProvider identifies the deployment target a bundle was sent to.
type DeploymentProvider string

const (
	DeploymentProviderNetlify DeploymentProvider = "netlify"
	DeploymentProviderV0      DeploymentProvider = "v0"
)

// DeploymentConfig configures a Netlify site build for a workflow.
type DeploymentConfig struct {
	SiteID               string            `json:"siteId,omitempty"`
	TeamID               string            `json:"teamId,omitempty"`
	Branch               string            `json:"branch,omitempty"`
	FunctionsDirectory   string            `json:"functionsDirectory,omitempty"`
	BuildCommand         string            `json:"buildCommand,omitempty"`
	PublishDirectory     string            `json:"publishDirectory,omitempty"`
	EnvironmentVariables map[string]string `json:"environmentVariables,omitempty"`
}

// Deployment records the outcome of one deployment attempt.
type Deployment struct {
	ID         string             `json:"id"`
	WorkflowID string             `json:"workflowId"`
	Provider   DeploymentProvider `json:"provider"`
	Success    bool               `json:"success"`
	URL        string             `json:"deploymentUrl,omitempty"`
	Logs       []string           `json:"logs,omitempty"`
	Error      string             `json:"error,omitempty"`
	CreatedAt  time.Time          `json:"createdAt"`
}
