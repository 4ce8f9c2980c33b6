package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/flowdeck/pkg/deploy"
	"github.com/dukex/flowdeck/pkg/eventbus"
	"github.com/dukex/flowdeck/pkg/events"
	"github.com/dukex/flowdeck/pkg/models"
	"github.com/dukex/flowdeck/pkg/otelhelper"
	"github.com/dukex/flowdeck/pkg/persistence"
	"github.com/dukex/flowdeck/pkg/security"
	"github.com/dukex/flowdeck/pkg/workflow"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Deployment validates workflows, builds their site bundles and hands them to a Deployer.
// Every attempt is recorded, failed ones included.
type Deployment struct {
	persistence persistence.Persistence
	deployer    deploy.Deployer
	publisher   eventbus.EventPublisher
	defaults    models.DeploymentConfig
	tracer      trace.Tracer
	logger      *slog.Logger
	now         func() time.Time
}

// V0Deployment is the outcome of a one-click deployment together with the package sent.
type V0Deployment struct {
	Deployment *models.Deployment `json:"deployment"`
	Package    *deploy.Package    `json:"package,omitempty"`
}

// NewDeployment creates a deployment service. publisher may be nil, in which case no
// events are published.
func NewDeployment(
	persistence persistence.Persistence,
	deployer deploy.Deployer,
	publisher eventbus.EventPublisher,
	defaults models.DeploymentConfig,
	tracer trace.Tracer,
	logger *slog.Logger,
) *Deployment {
	return &Deployment{
		persistence: persistence,
		deployer:    deployer,
		publisher:   publisher,
		defaults:    defaults,
		tracer:      tracer,
		logger:      logger.With("module", "deployment_service"),
		now:         time.Now,
	}
}

// Deploy publishes a stored workflow to Netlify with override layered on the service
// defaults. Deployment failures are reported in the returned record, not as an error.
func (d *Deployment) Deploy(ctx context.Context, workflowID string, override models.DeploymentConfig) (*models.Deployment, error) {
	ctx, span := otelhelper.StartSpan(ctx, d.tracer, "deployment.deploy",
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
		attribute.String(otelhelper.ProviderKey, string(models.DeploymentProviderNetlify)))
	defer span.End()

	stored, sanitized, failure, err := d.prepare(ctx, workflowID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	if failure != "" {
		return d.record(ctx, stored, models.DeploymentProviderNetlify, nil, failure)
	}

	bundle, err := deploy.NewBundle(sanitized, deploy.MergeConfig(d.defaults, override, stored.Name))
	if err != nil {
		return d.record(ctx, stored, models.DeploymentProviderNetlify, nil, err.Error())
	}

	result, err := d.deployer.Deploy(ctx, bundle)
	if err != nil {
		otelhelper.SetError(span, err)

		return d.record(ctx, stored, models.DeploymentProviderNetlify, nil, err.Error())
	}

	span.SetAttributes(attribute.String(otelhelper.DeploymentIDKey, result.DeploymentID))

	return d.record(ctx, stored, models.DeploymentProviderNetlify, result, "")
}

// InitiateV0Deployment prepares the v0 package for a stored workflow and ships it.
func (d *Deployment) InitiateV0Deployment(ctx context.Context, workflowID string, options deploy.V0Options) (*V0Deployment, error) {
	ctx, span := otelhelper.StartSpan(ctx, d.tracer, "deployment.v0",
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
		attribute.String(otelhelper.ProviderKey, string(models.DeploymentProviderV0)))
	defer span.End()

	stored, sanitized, failure, err := d.prepare(ctx, workflowID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	if failure != "" {
		return d.recordV0(ctx, stored, nil, nil, failure)
	}

	pkg, err := deploy.PreparePackage(sanitized, options)
	if err != nil {
		return d.recordV0(ctx, stored, nil, nil, err.Error())
	}

	result, err := d.deployer.Deploy(ctx, deploy.Bundle{
		Workflow: sanitized,
		Provider: models.DeploymentProviderV0,
		Config: models.DeploymentConfig{
			TeamID:               options.NetlifyTeamID,
			EnvironmentVariables: options.EnvironmentVariables,
		},
		Files: pkg.Files,
	})
	if err != nil {
		otelhelper.SetError(span, err)

		return d.recordV0(ctx, stored, pkg, nil, err.Error())
	}

	return d.recordV0(ctx, stored, pkg, result, "")
}

func (d *Deployment) recordV0(
	ctx context.Context,
	stored *models.Workflow,
	pkg *deploy.Package,
	result *deploy.Result,
	failure string,
) (*V0Deployment, error) {
	deployment, err := d.record(ctx, stored, models.DeploymentProviderV0, result, failure)
	if err != nil {
		return nil, err
	}

	return &V0Deployment{Deployment: deployment, Package: pkg}, nil
}

// ListDeployments returns the deployment history of a workflow, oldest first.
func (d *Deployment) ListDeployments(ctx context.Context, workflowID string) ([]*models.Deployment, error) {
	if _, err := d.persistence.WorkflowRepository().GetByID(ctx, workflowID); err != nil {
		return nil, err
	}

	deployments, err := d.persistence.DeploymentRepository().GetByWorkflow(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}

	return deployments, nil
}

// prepare loads and checks a workflow. A non-empty failure means the workflow must not be
// deployed; err is reserved for lookup and storage problems.
func (d *Deployment) prepare(ctx context.Context, workflowID string) (*models.Workflow, *models.Workflow, string, error) {
	stored, err := d.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		return nil, nil, "", err
	}

	validation := workflow.ValidateForDeployment(stored)
	if !validation.Valid {
		return stored, nil, "Invalid workflow: " + validation.Summary(), nil
	}

	sanitized, err := security.SanitizeWorkflow(stored)
	if err != nil {
		return stored, nil, err.Error(), nil
	}

	return stored, sanitized, "", nil
}

func (d *Deployment) record(
	ctx context.Context,
	stored *models.Workflow,
	provider models.DeploymentProvider,
	result *deploy.Result,
	failure string,
) (*models.Deployment, error) {
	deployment := &models.Deployment{
		WorkflowID: stored.ID,
		Provider:   provider,
		Success:    failure == "",
		Error:      failure,
		CreatedAt:  d.now().UTC(),
	}

	if result != nil {
		deployment.ID = result.DeploymentID
		deployment.URL = result.URL
		deployment.Logs = result.Logs
	}

	if deployment.ID == "" {
		deployment.ID = "deploy-" + watermill.NewULID()
	}

	if err := d.persistence.DeploymentRepository().Save(ctx, deployment); err != nil {
		return nil, fmt.Errorf("failed to record deployment: %w", err)
	}

	d.publish(ctx, deployment)

	if deployment.Success {
		d.logger.InfoContext(ctx, "Workflow deployed",
			"workflow_id", stored.ID, "deployment_id", deployment.ID, "provider", provider, "url", deployment.URL)
	} else {
		d.logger.WarnContext(ctx, "Workflow deployment failed",
			"workflow_id", stored.ID, "deployment_id", deployment.ID, "provider", provider, "error", failure)
	}

	return deployment, nil
}

func (d *Deployment) publish(ctx context.Context, deployment *models.Deployment) {
	if d.publisher == nil {
		return
	}

	var event eventbus.Event

	if deployment.Success {
		event = events.WorkflowDeployed{
			BaseEvent:    events.NewBaseEvent(events.WorkflowDeployedEvent, deployment.WorkflowID),
			DeploymentID: deployment.ID,
			Provider:     string(deployment.Provider),
			URL:          deployment.URL,
		}
	} else {
		event = events.WorkflowDeploymentFailed{
			BaseEvent:    events.NewBaseEvent(events.WorkflowDeploymentFailedEvent, deployment.WorkflowID),
			DeploymentID: deployment.ID,
			Provider:     string(deployment.Provider),
			Error:        deployment.Error,
		}
	}

	if err := d.publisher.Publish(ctx, deployment.WorkflowID, event); err != nil {
		d.logger.ErrorContext(ctx, "Failed to publish deployment event", "deployment_id", deployment.ID, "error", err)
	}
}
