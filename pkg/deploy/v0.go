package deploy

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"

	"github.com/dukex/flowdeck/pkg/models"
)

// V0Options are the one-click deployment options sent along with a v0 package.
type V0Options struct {
	WorkflowName         string            `json:"workflowName"`
	WorkflowDescription  string            `json:"workflowDescription,omitempty"`
	NetlifyTeamID        string            `json:"netlifyTeamId,omitempty"`
	NetlifyAccountID     string            `json:"netlifyAccountId,omitempty"`
	EnvironmentVariables map[string]string `json:"environmentVariables,omitempty"`
	DeployPreview        bool              `json:"deployPreview,omitempty"`
}

type NetlifyPackageOptions struct {
	TeamID               string            `json:"teamId,omitempty"`
	AccountID            string            `json:"accountId,omitempty"`
	EnvironmentVariables map[string]string `json:"environmentVariables,omitempty"`
}

type PackageOptions struct {
	Netlify NetlifyPackageOptions `json:"netlify"`
	Preview bool                  `json:"preview"`
}

// Package is a deployment package v0 can ship: the generated site files keyed by path.
type Package struct {
	Name              string            `json:"name"`
	Description       string            `json:"description"`
	Files             map[string]string `json:"files"`
	DeploymentOptions PackageOptions    `json:"deploymentOptions"`
}

type packageScripts struct {
	Build   string `json:"build"`
	Dev     string `json:"dev"`
	Preview string `json:"preview"`
}

type packageManifest struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Private         bool              `json:"private"`
	Scripts         packageScripts    `json:"scripts"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// PreparePackage generates netlify.toml, the workflow function and package.json for
// workflow. Unlike MergeConfig, options may override N8N_WORKFLOW_NAME.
func PreparePackage(workflow *models.Workflow, options V0Options) (*Package, error) {
	if workflow == nil {
		return nil, fmt.Errorf("workflow is required")
	}

	slug := Slug(workflow.Name)

	environment := map[string]string{WorkflowNameVariable: workflow.Name}
	maps.Copy(environment, options.EnvironmentVariables)

	toml, err := GenerateNetlifyToml(models.DeploymentConfig{
		FunctionsDirectory:   DefaultFunctionsDirectory,
		BuildCommand:         DefaultBuildCommand,
		PublishDirectory:     DefaultPublishDirectory,
		EnvironmentVariables: environment,
	})
	if err != nil {
		return nil, err
	}

	function, err := GenerateWorkflowFunction(workflow)
	if err != nil {
		return nil, err
	}

	manifest, err := json.MarshalIndent(packageManifest{
		Name:    slug,
		Version: "1.0.0",
		Private: true,
		Scripts: packageScripts{Build: "vite build", Dev: "vite", Preview: "vite preview"},
		Dependencies: map[string]string{
			"n8n-workflow": "^1.0.0",
			"n8n-core":     "^1.0.0",
			"react":        "^18.2.0",
			"react-dom":    "^18.2.0",
		},
		DevDependencies: map[string]string{
			"@types/react":         "^18.2.15",
			"@types/react-dom":     "^18.2.7",
			"@vitejs/plugin-react": "^4.0.3",
			"typescript":           "^5.0.2",
			"vite":                 "^4.4.5",
		},
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode package.json: %w", err)
	}

	name := options.WorkflowName
	if name == "" {
		name = workflow.Name
	}

	description := options.WorkflowDescription
	if description == "" {
		description = "n8n workflow: " + workflow.Name
	}

	return &Package{
		Name:        name,
		Description: description,
		Files: map[string]string{
			"netlify.toml": toml,
			DefaultFunctionsDirectory + "/" + slug + ".js": function,
			"package.json": string(manifest),
		},
		DeploymentOptions: PackageOptions{
			Netlify: NetlifyPackageOptions{
				TeamID:               options.NetlifyTeamID,
				AccountID:            options.NetlifyAccountID,
				EnvironmentVariables: options.EnvironmentVariables,
			},
			Preview: options.DeployPreview,
		},
	}, nil
}

// WriteFiles writes every package file below dir, creating directories as needed.
func (p *Package) WriteFiles(dir string) error {
	for name, content := range p.Files {
		path := filepath.Join(dir, filepath.FromSlash(name))

		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", name, err)
		}

		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	return nil
}
