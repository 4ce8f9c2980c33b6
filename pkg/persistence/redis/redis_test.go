package redis_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/dukex/flowdeck/pkg/models"
	"github.com/dukex/flowdeck/pkg/persistence"
	"github.com/dukex/flowdeck/pkg/persistence/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var redisContainer testcontainers.Container

func setupRedis(t *testing.T) (*redis.Persistence, context.Context) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping Redis integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if redisContainer == nil {
		var err error

		redisContainer, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "redis:7-alpine",
				ExposedPorts: []string{"6379/tcp"},
				WaitingFor:   wait.ForListeningPort("6379/tcp"),
			},
			Started: true,
		})
		require.NoError(t, err)
	}

	endpoint, err := redisContainer.Endpoint(ctx, "")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := redis.NewPersistence(ctx, logger, "redis://"+endpoint+"/0")
	require.NoError(t, err)

	_, _, err = redisContainer.Exec(ctx, []string{"redis-cli", "FLUSHALL"})
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, p.Close(ctx))
		cancel()
	})

	return p, ctx
}

func TestParseURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		addr     string
		password string
		db       int
		wantErr  bool
	}{
		{name: "host only", url: "redis://localhost:6379", addr: "localhost:6379"},
		{name: "with db", url: "redis://localhost:6379/3", addr: "localhost:6379", db: 3},
		{name: "with password", url: "redis://:secret@cache:6380/1", addr: "cache:6380", password: "secret", db: 1},
		{name: "wrong scheme", url: "postgres://localhost", wantErr: true},
		{name: "bad db", url: "redis://localhost:6379/x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			options, err := redis.ParseURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.addr, options.Addr)
			assert.Equal(t, tt.password, options.Password)
			assert.Equal(t, tt.db, options.DB)
		})
	}
}

func TestWorkflowRepository(t *testing.T) {
	p, ctx := setupRedis(t)
	repo := p.WorkflowRepository()

	require.NoError(t, p.HealthCheck(ctx))

	workflow := &models.Workflow{Name: "Redis", Nodes: []*models.Node{{ID: "b", Name: "B", Type: "t"}, {ID: "a", Name: "A", Type: "t"}}}
	workflow.Connections.Append("b", "main", models.ConnectionTarget{Node: "a", Type: "main"})
	workflow.Connections.Append("a", "main", models.ConnectionTarget{Node: "b", Type: "main"})

	require.NoError(t, repo.Save(ctx, workflow))

	loaded, err := repo.GetByID(ctx, workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, loaded.Connections.Sources())

	list, err := repo.ListWorkflows(ctx, persistence.ListWorkflowsOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.TotalCount)

	require.NoError(t, repo.Delete(ctx, workflow.ID))

	_, err = repo.GetByID(ctx, workflow.ID)
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestExecutionRepository_StatusIndexFollowsUpdates(t *testing.T) {
	p, ctx := setupRedis(t)
	repo := p.ExecutionRepository()

	execution := &models.Execution{ID: "e1", WorkflowID: "wf", Status: models.ExecutionStatusRunning, StartTime: time.Now().UTC()}
	require.NoError(t, repo.Save(ctx, execution))

	running, err := repo.GetByStatus(ctx, models.ExecutionStatusRunning)
	require.NoError(t, err)
	assert.Len(t, running, 1)

	execution.Status = models.ExecutionStatusCanceled
	require.NoError(t, repo.Save(ctx, execution))

	running, err = repo.GetByStatus(ctx, models.ExecutionStatusRunning)
	require.NoError(t, err)
	assert.Empty(t, running)

	byWorkflow, err := repo.GetByWorkflow(ctx, "wf")
	require.NoError(t, err)
	require.Len(t, byWorkflow, 1)
	assert.Equal(t, models.ExecutionStatusCanceled, byWorkflow[0].Status)

	_, err = repo.GetByID(ctx, "missing")
	assert.True(t, persistence.IsExecutionNotFound(err))
}

func TestDeploymentAndCredentialRepositories(t *testing.T) {
	p, ctx := setupRedis(t)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	deployments := p.DeploymentRepository()

	require.NoError(t, deployments.Save(ctx, &models.Deployment{ID: "late", WorkflowID: "wf", CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, deployments.Save(ctx, &models.Deployment{ID: "early", WorkflowID: "wf", CreatedAt: base}))

	history, err := deployments.GetByWorkflow(ctx, "wf")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "early", history[0].ID)

	credentials := p.CredentialRepository()
	require.NoError(t, credentials.Save(ctx, &models.Credential{ID: "c", Name: "n", Type: "t"}))

	credential, err := credentials.GetByID(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, "n", credential.Name)

	require.NoError(t, credentials.Delete(ctx, "c"))

	_, err = credentials.GetByID(ctx, "c")
	assert.True(t, persistence.IsCredentialNotFound(err))
}
