package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-helpdesk/internal/domain"
)

// CatalogHandler serves the fixed department and category lists clients use
// to populate ticket forms.
type CatalogHandler struct{}

// NewCatalogHandler constructs handler.
func NewCatalogHandler() *CatalogHandler {
	return &CatalogHandler{}
}

// Get GET /catalog.
func (h *CatalogHandler) Get(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": fiber.Map{
		"departments": domain.Departments,
		"categories":  domain.Categories,
	}})
}
