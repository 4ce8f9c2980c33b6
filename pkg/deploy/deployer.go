package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/flowdeck/pkg/models"
)

// Bundle is everything a Deployer needs to publish a workflow site.
type Bundle struct {
	Workflow *models.Workflow
	Provider models.DeploymentProvider
	Config   models.DeploymentConfig
	Files    map[string]string
}

// Result is what a Deployer reports back.
type Result struct {
	DeploymentID string
	URL          string
	Logs         []string
}

// Deployer publishes a bundle to a hosting provider.
type Deployer interface {
	Deploy(ctx context.Context, bundle Bundle) (*Result, error)
}

// NewBundle renders the Netlify site files for workflow with config already merged.
func NewBundle(workflow *models.Workflow, config models.DeploymentConfig) (Bundle, error) {
	toml, err := GenerateNetlifyToml(config)
	if err != nil {
		return Bundle{}, err
	}

	function, err := GenerateWorkflowFunction(workflow)
	if err != nil {
		return Bundle{}, err
	}

	return Bundle{
		Workflow: workflow,
		Provider: models.DeploymentProviderNetlify,
		Config:   config,
		Files: map[string]string{
			"netlify.toml": toml,
			strings.TrimSuffix(config.FunctionsDirectory, "/") + "/" + Slug(workflow.Name) + ".js": function,
		},
	}, nil
}

// SimulatedDeployer pretends to publish: it answers with a generated deployment id and the
// site URL Netlify would assign.
type SimulatedDeployer struct {
	logger *slog.Logger
}

func NewSimulatedDeployer(logger *slog.Logger) *SimulatedDeployer {
	return &SimulatedDeployer{logger: logger.With("module", "simulated_deployer")}
}

func (d *SimulatedDeployer) Deploy(ctx context.Context, bundle Bundle) (*Result, error) {
	if bundle.Workflow == nil {
		return nil, fmt.Errorf("bundle has no workflow")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{
		DeploymentID: "deploy-" + watermill.NewULID(),
		URL:          "https://" + Slug(bundle.Workflow.Name) + ".netlify.app",
		Logs:         []string{"Starting deployment...", "Building site...", "Deploying functions...", "Deployment complete!"},
	}

	d.logger.InfoContext(ctx, "Simulated deployment",
		"workflow_id", bundle.Workflow.ID,
		"provider", bundle.Provider,
		"deployment_id", result.DeploymentID,
		"files", len(bundle.Files))

	return result, nil
}
