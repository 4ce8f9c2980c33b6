package web

import (
	"github.com/dukex/flowdeck/pkg/models"
	"github.com/gofiber/fiber/v3"
)

func (h *APIHandlers) CreateCredential(c fiber.Ctx) error {
	var credential models.Credential
	if detail, ok := h.bindValid(c, &credential); !ok {
		return badRequest(c, detail)
	}

	id, err := h.security.StoreCredential(c.Context(), &credential)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(CredentialResponse{ID: id})
}

func (h *APIHandlers) GetCredential(c fiber.Ctx) error {
	credential, err := h.security.GetCredential(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(credential)
}
