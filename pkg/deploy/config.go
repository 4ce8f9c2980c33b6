// Package deploy builds the Netlify site bundle and the v0 deployment package for a
// workflow, and defines the Deployer that ships them.
package deploy

import (
	"maps"
	"regexp"
	"strings"

	"github.com/dukex/flowdeck/pkg/models"
)

const (
	DefaultFunctionsDirectory = "netlify/functions"
	DefaultBuildCommand       = "npm run build"
	DefaultPublishDirectory   = "dist"

	// WorkflowNameVariable carries the workflow name into the site build.
	WorkflowNameVariable = "N8N_WORKFLOW_NAME"
)

// MergeConfig layers override on top of defaults, fills the build defaults and sets
// N8N_WORKFLOW_NAME, which always wins over configured variables.
func MergeConfig(defaults, override models.DeploymentConfig, workflowName string) models.DeploymentConfig {
	merged := defaults

	if override.SiteID != "" {
		merged.SiteID = override.SiteID
	}

	if override.TeamID != "" {
		merged.TeamID = override.TeamID
	}

	if override.Branch != "" {
		merged.Branch = override.Branch
	}

	merged.FunctionsDirectory = firstNonEmpty(override.FunctionsDirectory, DefaultFunctionsDirectory)
	merged.BuildCommand = firstNonEmpty(override.BuildCommand, DefaultBuildCommand)
	merged.PublishDirectory = firstNonEmpty(override.PublishDirectory, DefaultPublishDirectory)

	merged.EnvironmentVariables = make(map[string]string, len(defaults.EnvironmentVariables)+len(override.EnvironmentVariables)+1)
	maps.Copy(merged.EnvironmentVariables, defaults.EnvironmentVariables)
	maps.Copy(merged.EnvironmentVariables, override.EnvironmentVariables)
	merged.EnvironmentVariables[WorkflowNameVariable] = workflowName

	return merged
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}

	return ""
}

var whitespace = regexp.MustCompile(`\s+`)

// Slug lower-cases name and replaces every whitespace run with "-".
func Slug(name string) string {
	return whitespace.ReplaceAllString(strings.ToLower(name), "-")
}
