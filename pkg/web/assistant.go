package web

import (
	"github.com/dukex/flowdeck/pkg/ai"
	"github.com/gofiber/fiber/v3"
)

// bindValid decodes the JSON body into target and runs the struct validator.
func (h *APIHandlers) bindValid(c fiber.Ctx, target any) (string, bool) {
	if err := c.Bind().JSON(target); err != nil {
		return "Invalid JSON format", false
	}

	if err := h.validator.Struct(target); err != nil {
		return err.Error(), false
	}

	return "", true
}

func (h *APIHandlers) GenerateWorkflow(c fiber.Ctx) error {
	var options ai.GenerateOptions
	if detail, ok := h.bindValid(c, &options); !ok {
		return badRequest(c, detail)
	}

	workflow, err := h.assistantService.GenerateWorkflow(c.Context(), options)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) OptimizeWorkflow(c fiber.Ctx) error {
	var options ai.OptimizeOptions
	if detail, ok := h.bindValid(c, &options); !ok {
		return badRequest(c, detail)
	}

	result, err := h.assistantService.OptimizeWorkflow(c.Context(), options)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) ConfigureNode(c fiber.Ctx) error {
	var options ai.ConfigureNodeOptions
	if detail, ok := h.bindValid(c, &options); !ok {
		return badRequest(c, detail)
	}

	node, err := h.assistantService.ConfigureNode(c.Context(), options)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(node)
}

func (h *APIHandlers) DebugWorkflow(c fiber.Ctx) error {
	var req DebugRequest
	if detail, ok := h.bindValid(c, &req); !ok {
		return badRequest(c, detail)
	}

	result, err := h.assistantService.DebugWorkflow(c.Context(), req.Workflow, req.Error)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) GetHelp(c fiber.Ctx) error {
	var req HelpRequest
	if detail, ok := h.bindValid(c, &req); !ok {
		return badRequest(c, detail)
	}

	result, err := h.assistantService.GetHelp(c.Context(), req.Query)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

// GetNodeTypes lists the node type catalog; empty when no assistant is configured.
func (h *APIHandlers) GetNodeTypes(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"nodeTypes": h.assistantService.NodeTypes()})
}
