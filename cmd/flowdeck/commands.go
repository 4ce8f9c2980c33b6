package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dukex/flowdeck/pkg/deploy"
	"github.com/dukex/flowdeck/pkg/log"
	"github.com/dukex/flowdeck/pkg/models"
	"github.com/dukex/flowdeck/pkg/schema"
	"github.com/dukex/flowdeck/pkg/security"
	"github.com/dukex/flowdeck/pkg/workflow"
	"github.com/urfave/cli/v3"
)

var (
	ErrMissingFile     = errors.New("a workflow file is required")
	ErrInvalidWorkflow = errors.New("workflow is invalid")
)

func newCommand() *cli.Command {
	return &cli.Command{
		Name:                  "flowdeck",
		Usage:                 "Convert, validate and package n8n workflows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Before: func(ctx context.Context, command *cli.Command) (context.Context, error) {
			log.Setup(command.String("log-level"))

			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:    "convert",
				Aliases: []string{"c"},
				Usage:   "Convert between the visual edge list and the adjacency form",
				Commands: []*cli.Command{
					{
						Name:      "to-adjacency",
						Usage:     "Convert a visual graph document to adjacency form",
						ArgsUsage: "<file>",
						Action:    convertToAdjacency,
					},
					{
						Name:      "to-visual",
						Usage:     "Convert an adjacency workflow document to a visual graph",
						ArgsUsage: "<file>",
						Action:    convertToVisual,
					},
				},
			},
			{
				Name:      "validate",
				Aliases:   []string{"v"},
				Usage:     "Check the structure of an adjacency workflow document",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "deploy",
						Usage: "Also run the deployment checks",
					},
				},
				Action: validateWorkflow,
			},
			{
				Name:      "package",
				Aliases:   []string{"p"},
				Usage:     "Write the v0 deployment package of an adjacency workflow document",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "out",
						Aliases:  []string{"o"},
						Usage:    "Directory the package files are written to",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "Package name (defaults to the workflow name)",
					},
					&cli.StringFlag{
						Name:  "description",
						Usage: "Package description",
					},
				},
				Action: packageWorkflow,
			},
		},
	}
}

func convertToAdjacency(_ context.Context, command *cli.Command) error {
	var graph models.VisualGraph
	if err := readDocument(command, schema.Visual(), &graph); err != nil {
		return err
	}

	return writeJSON(command.Root().Writer, workflow.ToAdjacencyWorkflow(&graph))
}

func convertToVisual(_ context.Context, command *cli.Command) error {
	var adjacency models.Workflow
	if err := readDocument(command, schema.Workflow(), &adjacency); err != nil {
		return err
	}

	return writeJSON(command.Root().Writer, workflow.ToVisualGraph(&adjacency))
}

func validateWorkflow(_ context.Context, command *cli.Command) error {
	var adjacency models.Workflow
	if err := readDocument(command, schema.Workflow(), &adjacency); err != nil {
		return err
	}

	result := workflow.ValidateWorkflow(&adjacency)
	if command.Bool("deploy") {
		result = workflow.ValidateForDeployment(&adjacency)
	}

	if err := writeJSON(command.Root().Writer, result); err != nil {
		return err
	}

	if !result.Valid {
		return fmt.Errorf("%w: %s", ErrInvalidWorkflow, result.Summary())
	}

	return nil
}

func packageWorkflow(_ context.Context, command *cli.Command) error {
	var adjacency models.Workflow
	if err := readDocument(command, schema.Workflow(), &adjacency); err != nil {
		return err
	}

	if result := workflow.ValidateForDeployment(&adjacency); !result.Valid {
		return fmt.Errorf("%w: %s", ErrInvalidWorkflow, result.Summary())
	}

	sanitized, err := security.SanitizeWorkflow(&adjacency)
	if err != nil {
		return err
	}

	pkg, err := deploy.PreparePackage(sanitized, deploy.V0Options{
		WorkflowName:        command.String("name"),
		WorkflowDescription: command.String("description"),
	})
	if err != nil {
		return err
	}

	out := command.String("out")
	if err := pkg.WriteFiles(out); err != nil {
		return err
	}

	for path := range pkg.Files {
		fmt.Fprintf(command.Root().Writer, "wrote %s\n", path)
	}

	return nil
}

// readDocument loads the file named by the first argument, checks it against validator and
// decodes it into target.
func readDocument(command *cli.Command, validator *schema.Validator, target any) error {
	path := command.Args().First()
	if path == "" {
		return ErrMissingFile
	}

	document, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := validator.Validate(document); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	if err := json.Unmarshal(document, target); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return nil
}

func writeJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(value)
}
