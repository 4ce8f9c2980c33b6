package web

import (
	"time"

	"github.com/dukex/flowdeck/pkg/deploy"
	"github.com/dukex/flowdeck/pkg/models"
	"github.com/gofiber/fiber/v3"
)

// DeployWorkflow deploys a stored workflow to Netlify. A recorded but unsuccessful
// deployment is answered with 200 and success=false.
func (h *APIHandlers) DeployWorkflow(c fiber.Ctx) error {
	var config models.DeploymentConfig
	if err := bindOptional(c, &config); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	deployment, err := h.deploymentService.Deploy(c.Context(), c.Params("id"), config)
	if err != nil {
		return handleServiceError(c, err)
	}

	if !deployment.Success {
		return c.JSON(deployment)
	}

	return c.Status(fiber.StatusCreated).JSON(deployment)
}

func (h *APIHandlers) GetDeployments(c fiber.Ctx) error {
	deployments, err := h.deploymentService.ListDeployments(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"deployments": deployments})
}

// CreateV0Package prepares the v0 deployment package of a stored workflow.
func (h *APIHandlers) CreateV0Package(c fiber.Ctx) error {
	var options deploy.V0Options
	if err := bindOptional(c, &options); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	result, err := h.deploymentService.InitiateV0Deployment(c.Context(), c.Params("id"), options)
	if err != nil {
		return handleServiceError(c, err)
	}

	if !result.Deployment.Success {
		return c.JSON(result)
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

// CreateAPIKey issues an execution key for a stored workflow.
func (h *APIHandlers) CreateAPIKey(c fiber.Ctx) error {
	var req APIKeyRequest
	if err := bindOptional(c, &req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	workflow, err := h.workflowService.FetchByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	ttl := DefaultAPIKeyTTL
	if req.ExpiresIn > 0 {
		ttl = time.Duration(req.ExpiresIn) * time.Second
	}

	key, err := h.security.GenerateAPIKey(workflow.ID, ttl)
	if err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(APIKeyResponse{
		APIKey:     key,
		WorkflowID: workflow.ID,
		ExpiresAt:  time.Now().UTC().Add(ttl).Truncate(time.Second),
	})
}
