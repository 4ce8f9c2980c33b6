package web

import "github.com/gofiber/fiber/v3"

// Register mounts every API route on router.
func (h *APIHandlers) Register(router fiber.Router) {
	router.Get("/health", h.HealthCheck)
	router.Get("/monitor", h.GetMonitor)

	router.Post("/convert/adjacency", h.ConvertToAdjacency)
	router.Post("/convert/visual", h.ConvertToVisual)
	router.Post("/validate", h.ValidateWorkflowBody)

	w := router.Group("/workflows")
	w.Get("/", h.GetWorkflows)
	w.Post("/", h.CreateWorkflow)
	w.Post("/import/visual", h.ImportVisualWorkflow)
	w.Get("/:id", h.GetWorkflow)
	w.Put("/:id", h.UpdateWorkflow)
	w.Delete("/:id", h.DeleteWorkflow)
	w.Get("/:id/visual", h.GetWorkflowVisual)
	w.Get("/:id/validate", h.ValidateStoredWorkflow)

	w.Post("/:id/deployments", h.DeployWorkflow)
	w.Get("/:id/deployments", h.GetDeployments)
	w.Post("/:id/v0-package", h.CreateV0Package)
	w.Post("/:id/api-keys", h.CreateAPIKey)

	w.Post("/:id/executions", h.ExecuteWorkflow)
	w.Get("/:id/executions", h.GetWorkflowExecutions)

	e := router.Group("/executions")
	e.Get("/:id", h.GetExecution)
	e.Get("/:id/nodes/:nodeId", h.GetNodeExecution)
	e.Post("/:id/stop", h.StopExecution)

	a := router.Group("/ai")
	a.Get("/node-types", h.GetNodeTypes)
	a.Post("/generate", h.GenerateWorkflow)
	a.Post("/optimize", h.OptimizeWorkflow)
	a.Post("/configure-node", h.ConfigureNode)
	a.Post("/debug", h.DebugWorkflow)
	a.Post("/help", h.GetHelp)

	cr := router.Group("/credentials")
	cr.Post("/", h.CreateCredential)
	cr.Get("/:id", h.GetCredential)
}
