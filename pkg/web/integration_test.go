//go:build integration

package web_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/dukex/flowdeck/pkg/deploy"
	"github.com/dukex/flowdeck/pkg/execution"
	"github.com/dukex/flowdeck/pkg/models"
	"github.com/dukex/flowdeck/pkg/monitor"
	"github.com/dukex/flowdeck/pkg/otelhelper"
	"github.com/dukex/flowdeck/pkg/persistence/postgresql"
	"github.com/dukex/flowdeck/pkg/security"
	"github.com/dukex/flowdeck/pkg/services"
	"github.com/dukex/flowdeck/pkg/testutil"
	"github.com/dukex/flowdeck/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) string {
	t.Helper()

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_DB":       "test_flowdeck",
				"POSTGRES_USER":     "test_user",
				"POSTGRES_PASSWORD": "test_pass",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = container.Terminate(ctx)
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://test_user:test_pass@%s:%s/test_flowdeck?sslmode=disable", host, port.Port())
}

func setupIntegrationApp(t *testing.T, dbURL string) *fiber.App {
	t.Helper()

	logger := testLogger()
	tracer := otelhelper.NoopTracer()

	persistence, err := postgresql.NewPersistence(context.Background(), logger, dbURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = persistence.Close(context.Background())
	})

	securityService, err := security.NewService("integration-key", persistence.CredentialRepository())
	require.NoError(t, err)

	handlers := web.NewAPIHandlers(web.Services{
		Workflow: services.NewWorkflow(persistence),
		Deployment: services.NewDeployment(persistence, deploy.NewSimulatedDeployer(logger), nil,
			models.DeploymentConfig{}, tracer, logger),
		Execution: services.NewExecution(persistence, execution.NewSimulatedRunner(), nil, time.Minute, tracer, logger),
		Assistant: services.NewAssistant(nil, tracer, logger),
		Security:  securityService,
		Monitor:   monitor.New(logger, monitor.DefaultRecentLimit),
	}, validator.New(validator.WithRequiredStructEnabled()))

	app := fiber.New()
	handlers.Register(app)

	return app
}

func TestWorkflowLifecycle_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	app := setupIntegrationApp(t, setupTestDB(t))

	workflow := testutil.CreateTestWorkflowWithNodes("Postgres Intake")
	workflow.Connections.Append("webhook", "error", models.ConnectionTarget{Node: "set", Type: models.MainSlot, Index: 1})

	created := createWorkflow(t, app, workflow)

	resp, body := doJSON(t, app, http.MethodGet, "/workflows/"+created.ID+"/visual", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var visual models.VisualGraph
	require.NoError(t, json.Unmarshal(body, &visual))
	assert.Equal(t, []models.VisualConnection{
		{Source: "webhook", Target: "set", SourceOutput: models.MainSlot, TargetInput: models.MainSlot},
		{Source: "webhook", Target: "set", SourceOutput: "error", TargetInput: models.MainSlot, SourceOutputIndex: 1},
	}, visual.Connections)

	resp, body = doJSON(t, app, http.MethodPost, "/workflows/"+created.ID+"/deployments", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = doJSON(t, app, http.MethodPost, "/workflows/"+created.ID+"/api-keys", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var key web.APIKeyResponse
	require.NoError(t, json.Unmarshal(body, &key))

	resp, body = doJSON(t, app, http.MethodPost, "/workflows/"+created.ID+"/executions",
		services.ExecuteOptions{Wait: true}, web.APIKeyHeader, key.APIKey)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var run models.Execution
	require.NoError(t, json.Unmarshal(body, &run))
	assert.Equal(t, models.ExecutionStatusSuccess, run.Status)

	resp, _ = doJSON(t, app, http.MethodDelete, "/workflows/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
