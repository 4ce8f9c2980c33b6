package web

import (
	"github.com/dukex/flowdeck/pkg/services"
	"github.com/gofiber/fiber/v3"
)

// APIKeyHeader carries the execution key issued by POST /workflows/:id/api-keys.
const APIKeyHeader = "X-API-Key"

// ExecuteWorkflow starts an execution. The caller must present an API key issued for the
// same workflow. Asynchronous runs answer 202 with the running record.
func (h *APIHandlers) ExecuteWorkflow(c fiber.Ctx) error {
	workflowID := c.Params("id")

	key := c.Get(APIKeyHeader)
	if key == "" {
		return unauthorized(c, "API key is required")
	}

	validation := h.security.ValidateAPIKey(key)
	if !validation.Valid || validation.WorkflowID != workflowID {
		return unauthorized(c, "API key is invalid or expired")
	}

	var options services.ExecuteOptions
	if err := bindOptional(c, &options); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	execution, err := h.executionService.ExecuteWorkflow(c.Context(), workflowID, options)
	if err != nil {
		return handleServiceError(c, err)
	}

	if execution.Status.Finished() {
		return c.JSON(execution)
	}

	return c.Status(fiber.StatusAccepted).JSON(execution)
}

func (h *APIHandlers) GetWorkflowExecutions(c fiber.Ctx) error {
	executions, err := h.executionService.ListExecutions(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"executions": executions})
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	execution, err := h.executionService.GetExecutionStatus(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(execution)
}

func (h *APIHandlers) GetNodeExecution(c fiber.Ctx) error {
	node, err := h.executionService.GetNodeExecutionDetails(c.Context(), c.Params("id"), c.Params("nodeId"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(node)
}

func (h *APIHandlers) StopExecution(c fiber.Ctx) error {
	executionID := c.Params("id")

	stopped, err := h.executionService.StopExecution(c.Context(), executionID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(StopExecutionResponse{ExecutionID: executionID, Stopped: stopped})
}
