package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukex/flowdeck/pkg/deploy"
	"github.com/dukex/flowdeck/pkg/execution"
	"github.com/dukex/flowdeck/pkg/models"
	"github.com/dukex/flowdeck/pkg/monitor"
	"github.com/dukex/flowdeck/pkg/otelhelper"
	"github.com/dukex/flowdeck/pkg/persistence/file"
	"github.com/dukex/flowdeck/pkg/security"
	"github.com/dukex/flowdeck/pkg/services"
	"github.com/dukex/flowdeck/pkg/web"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tracer := otelhelper.NoopTracer()
	persistence := file.NewPersistence(t.TempDir())

	securityService, err := security.NewService("test-key", persistence.CredentialRepository())
	require.NoError(t, err)

	executionService := services.NewExecution(persistence, execution.NewSimulatedRunner(), nil, 0, tracer, logger)

	sweeper, err := monitor.NewSweeper("", executionService, logger)
	require.NoError(t, err)

	api := NewAPI(logger, web.Services{
		Workflow: services.NewWorkflow(persistence),
		Deployment: services.NewDeployment(persistence, deploy.NewSimulatedDeployer(logger), nil,
			models.DeploymentConfig{}, tracer, logger),
		Execution: executionService,
		Assistant: services.NewAssistant(nil, tracer, logger),
		Security:  securityService,
		Monitor:   monitor.New(logger, monitor.DefaultRecentLimit),
	}, sweeper)

	return api.App()
}

func get(t *testing.T, app *fiber.App, path string) (int, string) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, string(body)
}

func TestAPI_RootEndpoint(t *testing.T) {
	status, body := get(t, setupTestApp(t), "/")

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Flowdeck API", body)
}

func TestAPI_HealthCheck(t *testing.T) {
	app := setupTestApp(t)

	for _, path := range []string{"/livez", "/readyz"} {
		status, body := get(t, app, path)

		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "OK", body)
	}
}

func TestAPI_GetWorkflows_Empty(t *testing.T) {
	status, body := get(t, setupTestApp(t), "/workflows")

	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{
		"workflows": [],
		"totalCount": 0,
		"hasNextPage": false,
		"pagination": {"limit": 0, "offset": 0},
		"sorting": {"sortBy": "", "sortOrder": ""}
	}`, body)
}

func TestAPI_Health(t *testing.T) {
	status, body := get(t, setupTestApp(t), "/health")

	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"status":"healthy"`)
}
