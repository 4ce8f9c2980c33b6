// Package redis provides Redis persistence. Every record is a JSON string value; sets and
// sorted sets index records by workflow and by status.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dukex/flowdeck/pkg/persistence"
	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "flowdeck:"

// Persistence implements the persistence layer on top of a Redis server.
type Persistence struct {
	client         goredis.UniversalClient
	logger         *slog.Logger
	workflowRepo   *WorkflowRepository
	deploymentRepo *DeploymentRepository
	executionRepo  *ExecutionRepository
	credentialRepo *CredentialRepository
}

// ParseURL reads a redis://[:password@]host:port[/db] URL into client options.
func ParseURL(databaseURL string) (*goredis.Options, error) {
	parsed, err := url.Parse(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	if parsed.Scheme != "redis" {
		return nil, fmt.Errorf("invalid redis url scheme %q", parsed.Scheme)
	}

	options := &goredis.Options{Addr: parsed.Host}

	if password, ok := parsed.User.Password(); ok {
		options.Password = password
	}

	if db := strings.TrimPrefix(parsed.Path, "/"); db != "" {
		options.DB, err = strconv.Atoi(db)
		if err != nil {
			return nil, fmt.Errorf("invalid db value: %w", err)
		}
	}

	return options, nil
}

// NewPersistence connects to Redis and verifies the connection.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	options, err := ParseURL(databaseURL)
	if err != nil {
		return nil, err
	}

	client := goredis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.InfoContext(ctx, "Connected to Redis", "addr", options.Addr, "db", options.DB)

	return NewPersistenceWithClient(logger, client), nil
}

// NewPersistenceWithClient wraps an existing client.
func NewPersistenceWithClient(logger *slog.Logger, client goredis.UniversalClient) *Persistence {
	return &Persistence{
		client:         client,
		logger:         logger,
		workflowRepo:   &WorkflowRepository{client: client},
		deploymentRepo: &DeploymentRepository{client: client},
		executionRepo:  &ExecutionRepository{client: client, logger: logger},
		credentialRepo: &CredentialRepository{client: client},
	}
}

func (p *Persistence) Close(_ context.Context) error {
	if err := p.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	return nil
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

func (p *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return p.workflowRepo
}

func (p *Persistence) DeploymentRepository() persistence.DeploymentRepository {
	return p.deploymentRepo
}

func (p *Persistence) ExecutionRepository() persistence.ExecutionRepository {
	return p.executionRepo
}

func (p *Persistence) CredentialRepository() persistence.CredentialRepository {
	return p.credentialRepo
}

func key(parts ...string) string {
	return keyPrefix + strings.Join(parts, ":")
}
