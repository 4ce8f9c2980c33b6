package web

import (
	"net/http"
	"time"

	"github.com/dukex/flowdeck/pkg/models"
	"github.com/dukex/flowdeck/pkg/monitor"
	"github.com/dukex/flowdeck/pkg/security"
	"github.com/dukex/flowdeck/pkg/services"
	"github.com/dukex/flowdeck/pkg/workflow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// Services bundles the collaborators the handlers delegate to.
type Services struct {
	Workflow   *services.Workflow
	Deployment *services.Deployment
	Execution  *services.Execution
	Assistant  *services.Assistant
	Security   *security.Service
	Monitor    *monitor.Monitor
}

type APIHandlers struct {
	workflowService   *services.Workflow
	deploymentService *services.Deployment
	executionService  *services.Execution
	assistantService  *services.Assistant
	security          *security.Service
	monitor           *monitor.Monitor
	validator         *validator.Validate
}

func NewAPIHandlers(deps Services, validator *validator.Validate) *APIHandlers {
	return &APIHandlers{
		workflowService:   deps.Workflow,
		deploymentService: deps.Deployment,
		executionService:  deps.Execution,
		assistantService:  deps.Assistant,
		security:          deps.Security,
		monitor:           deps.Monitor,
		validator:         validator,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.workflowService.HealthCheck(c.Context())

	assistantCheck := "AI assistant is not configured"
	if h.assistantService.Available() {
		assistantCheck = "AI assistant is configured"
	}

	status := "unhealthy"
	message := "Flowdeck API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Flowdeck API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
			"assistant":  assistantCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

// ConvertToAdjacency turns a visual graph body into adjacency form.
func (h *APIHandlers) ConvertToAdjacency(c fiber.Ctx) error {
	var graph models.VisualGraph
	if err := c.Bind().JSON(&graph); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	return c.JSON(workflow.ToAdjacencyWorkflow(&graph))
}

// ConvertToVisual turns an adjacency workflow body into the designer's edge list.
func (h *APIHandlers) ConvertToVisual(c fiber.Ctx) error {
	var adjacency models.Workflow
	if err := c.Bind().JSON(&adjacency); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	return c.JSON(workflow.ToVisualGraph(&adjacency))
}

// ValidateWorkflowBody validates a workflow sent in the body. mode=deploy adds the
// deployment checks. An invalid workflow is still a 200 response.
func (h *APIHandlers) ValidateWorkflowBody(c fiber.Ctx) error {
	var adjacency models.Workflow
	if err := c.Bind().JSON(&adjacency); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if deployMode(c) {
		return c.JSON(workflow.ValidateForDeployment(&adjacency))
	}

	return c.JSON(workflow.ValidateWorkflow(&adjacency))
}

// GetMonitor returns the dashboard snapshot.
func (h *APIHandlers) GetMonitor(c fiber.Ctx) error {
	return c.JSON(h.monitor.Snapshot())
}

func deployMode(c fiber.Ctx) bool {
	return c.Query("mode") == "deploy"
}

// bindOptional decodes a JSON body when one was sent, leaving target untouched otherwise.
func bindOptional(c fiber.Ctx, target any) error {
	if len(c.Body()) == 0 {
		return nil
	}

	return c.Bind().JSON(target)
}
