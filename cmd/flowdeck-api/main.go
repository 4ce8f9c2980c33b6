package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukex/flowdeck/pkg/cmd"
	"github.com/dukex/flowdeck/pkg/deploy"
	"github.com/dukex/flowdeck/pkg/log"
	"github.com/dukex/flowdeck/pkg/models"
	"github.com/dukex/flowdeck/pkg/monitor"
	"github.com/dukex/flowdeck/pkg/security"
	"github.com/dukex/flowdeck/pkg/services"
	"github.com/dukex/flowdeck/pkg/web"
	cli "github.com/urfave/cli/v3"
)

const (
	defaultPort             = 9091
	defaultExecutionTimeout = 5 * time.Minute
	serviceName             = "flowdeck-api"
)

func main() {
	command := &cli.Command{
		Name:                  "flowdeck-api",
		Usage:                 "Design, deploy and run n8n workflows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence (file://, postgres://, redis://)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka brokers",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:     "encryption-key",
				Usage:    "Key used to seal credentials and API keys",
				Required: true,
				Sources:  cli.EnvVars("ENCRYPTION_KEY"),
			},
			&cli.StringFlag{
				Name:    "openai-api-key",
				Usage:   "API key of the OpenAI compatible completion endpoint; the assistant is disabled without it",
				Sources: cli.EnvVars("OPENAI_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "openai-base-url",
				Usage:   "Base URL of the OpenAI compatible completion endpoint",
				Sources: cli.EnvVars("OPENAI_BASE_URL"),
			},
			&cli.StringFlag{
				Name:    "ai-model",
				Usage:   "Model used by the assistant",
				Sources: cli.EnvVars("AI_MODEL"),
			},
			&cli.StringFlag{
				Name:    "node-types-path",
				Usage:   "YAML or JSON file with the node type catalog",
				Sources: cli.EnvVars("NODE_TYPES_PATH"),
			},
			&cli.StringFlag{
				Name:    "execution-runner",
				Usage:   "Execution runner (simulated, http)",
				Value:   "simulated",
				Sources: cli.EnvVars("EXECUTION_RUNNER"),
			},
			&cli.DurationFlag{
				Name:    "execution-timeout",
				Usage:   "Timeout for workflows without an executionTimeout setting",
				Value:   defaultExecutionTimeout,
				Sources: cli.EnvVars("EXECUTION_TIMEOUT"),
			},
			&cli.StringFlag{
				Name:    "monitor-schedule",
				Usage:   "Cron schedule of the stale execution sweep",
				Value:   monitor.DefaultSchedule,
				Sources: cli.EnvVars("MONITOR_SCHEDULE"),
			},
			&cli.BoolFlag{
				Name:    "tracing-enabled",
				Usage:   "Export traces over OTLP HTTP",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
		},
		Action: run,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := command.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))

	logger := log.WithModule("api")

	logger.InfoContext(ctx, "Initializing Flowdeck API")

	tracer, shutdownTracer, err := cmd.NewTracer(ctx, command.Bool("tracing-enabled"), serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize tracer: %w", err)
	}

	defer func() {
		if err := shutdownTracer(context.WithoutCancel(ctx)); err != nil {
			logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
		}
	}()

	persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return err
	}

	defer func() {
		if err := persistence.Close(context.WithoutCancel(ctx)); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	eventBus, err := cmd.NewEventBus(command.String("event-bus"), command.String("kafka-brokers"), serviceName, logger)
	if err != nil {
		return err
	}

	defer func() {
		if err := eventBus.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	dashboard := monitor.New(logger, monitor.DefaultRecentLimit)
	if err := dashboard.Register(eventBus); err != nil {
		return fmt.Errorf("failed to register monitor: %w", err)
	}

	if err := eventBus.Subscribe(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to events: %w", err)
	}

	securityService, err := security.NewService(command.String("encryption-key"), persistence.CredentialRepository())
	if err != nil {
		return err
	}

	runner, err := cmd.NewRunner(command.String("execution-runner"), logger)
	if err != nil {
		return err
	}

	agent, err := cmd.NewAgent(logger,
		command.String("openai-api-key"),
		command.String("openai-base-url"),
		command.String("ai-model"),
		command.String("node-types-path"))
	if err != nil {
		return err
	}

	executionService := services.NewExecution(persistence, runner, eventBus,
		command.Duration("execution-timeout"), tracer, logger)
	defer executionService.Wait()

	sweeper, err := monitor.NewSweeper(command.String("monitor-schedule"), executionService, logger)
	if err != nil {
		return err
	}

	api := NewAPI(logger, web.Services{
		Workflow: services.NewWorkflow(persistence),
		Deployment: services.NewDeployment(persistence, deploy.NewSimulatedDeployer(logger), eventBus,
			models.DeploymentConfig{}, tracer, logger),
		Execution: executionService,
		Assistant: services.NewAssistant(agent, tracer, logger),
		Security:  securityService,
		Monitor:   dashboard,
	}, sweeper)

	return api.Start(ctx, command.Int("port"))
}
