package handlers

import (
	"github.com/gofiber/fiber/v2"

	"tiffin/internal/middleware"
	"tiffin/internal/services"
	"tiffin/internal/validation"
)

// TiffinHandler handles HTTP requests for the catalog.
type TiffinHandler struct {
	service   *services.TiffinService
	validator *validation.Validator
}

// NewTiffinHandler creates a new TiffinHandler.
func NewTiffinHandler(service *services.TiffinService, validator *validation.Validator) *TiffinHandler {
	return &TiffinHandler{
		service:   service,
		validator: validator,
	}
}

// RegisterRoutes registers the tiffin routes with the Fiber app.
func (h *TiffinHandler) RegisterRoutes(router fiber.Router, gate *middleware.Gate) {
	tiffinRoutes := router.Group("/tiffins")
	tiffinRoutes.Get("/", gate.Require(services.PolicyPublic), h.HandleGetTiffins)
	// Registered before /:id so "all" is not taken as an id.
	tiffinRoutes.Get("/all", gate.Require(services.PolicyAdmin), h.HandleGetAllTiffins)
	tiffinRoutes.Get("/:id", gate.Require(services.PolicyPublic), h.HandleGetTiffinByID)
	tiffinRoutes.Post("/", gate.Require(services.PolicyAdmin), h.HandleCreateTiffin)
	tiffinRoutes.Put("/:id", gate.Require(services.PolicyAdmin), h.HandleUpdateTiffin)
	tiffinRoutes.Delete("/:id", gate.Require(services.PolicyAdmin), h.HandleDeleteTiffin)
}

// HandleGetTiffins lists available tiffins.
func (h *TiffinHandler) HandleGetTiffins(c *fiber.Ctx) error {
	tiffins, err := h.service.ListAvailable(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(tiffins)
}

// HandleGetAllTiffins lists every tiffin, including unavailable ones.
func (h *TiffinHandler) HandleGetAllTiffins(c *fiber.Ctx) error {
	tiffins, err := h.service.ListAll(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(tiffins)
}

// HandleGetTiffinByID retrieves a single tiffin.
func (h *TiffinHandler) HandleGetTiffinByID(c *fiber.Ctx) error {
	tiffin, err := h.service.GetTiffin(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(tiffin)
}

// HandleCreateTiffin adds a tiffin to the catalog.
func (h *TiffinHandler) HandleCreateTiffin(c *fiber.Ctx) error {
	in, err := h.validator.TiffinCreate(c.Body())
	if err != nil {
		return err
	}
	tiffin, err := h.service.CreateTiffin(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(tiffin)
}

// HandleUpdateTiffin applies a partial update.
func (h *TiffinHandler) HandleUpdateTiffin(c *fiber.Ctx) error {
	in, err := h.validator.TiffinUpdate(c.Body())
	if err != nil {
		return err
	}
	tiffin, err := h.service.UpdateTiffin(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(tiffin)
}

// HandleDeleteTiffin removes a tiffin and echoes it back.
func (h *TiffinHandler) HandleDeleteTiffin(c *fiber.Ctx) error {
	tiffin, err := h.service.DeleteTiffin(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message":       "Tiffin deleted successfully",
		"deletedTiffin": tiffin,
	})
}
