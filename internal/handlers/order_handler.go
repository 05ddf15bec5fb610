package handlers

import (
	"github.com/gofiber/fiber/v2"

	"tiffin/internal/apperr"
	"tiffin/internal/middleware"
	"tiffin/internal/models"
	"tiffin/internal/services"
	"tiffin/internal/validation"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service   *services.OrderService
	validator *validation.Validator
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService, validator *validation.Validator) *OrderHandler {
	return &OrderHandler{
		service:   service,
		validator: validator,
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, gate *middleware.Gate) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", gate.Require(services.PolicyMember), h.HandleGetOrders)
	orderRoutes.Post("/", gate.Require(services.PolicyMember), h.HandleCreateOrder)
	orderRoutes.Get("/:id", gate.Require(services.PolicyMember), h.HandleGetOrderByID)
	orderRoutes.Patch("/:id/status", gate.Require(services.PolicyAdmin), h.HandleUpdateOrderStatus)
	orderRoutes.Patch("/:id/payment", gate.Require(services.PolicyAdmin), h.HandleUpdatePaymentStatus)
	orderRoutes.Post("/:id/cancel", gate.Require(services.PolicyMember), h.HandleCancelOrder)
}

// HandleGetOrders lists the caller's orders. Admins see every order,
// optionally filtered by the userId query parameter.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	caller := middleware.CallerFrom(c)
	userID := c.Query("userId")
	if !caller.Admin {
		if userID != "" && userID != caller.User.ID {
			return apperr.New(apperr.KindInsufficientPrivilege, "Access denied.")
		}
		userID = caller.User.ID
	}

	orders, err := h.service.ListOrders(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order owned by the caller.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.ownedOrder(c)
	if err != nil {
		return err
	}
	return c.JSON(order)
}

// HandleCreateOrder places an order.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	in, err := h.validator.OrderCreate(c.Body())
	if err != nil {
		return err
	}
	caller := middleware.CallerFrom(c)
	if !caller.Admin && in.UserID != caller.User.ID {
		return apperr.New(apperr.KindInsufficientPrivilege, "Orders can only be placed for your own account.")
	}

	order, err := h.service.CreateOrder(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleUpdateOrderStatus moves an order along its lifecycle.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	in, err := h.validator.StatusChange(c.Body())
	if err != nil {
		return err
	}
	order, err := h.service.TransitionStatus(c.UserContext(), c.Params("id"), in.Status)
	if err != nil {
		return err
	}
	return c.JSON(order)
}

// HandleUpdatePaymentStatus records a payment outcome.
func (h *OrderHandler) HandleUpdatePaymentStatus(c *fiber.Ctx) error {
	in, err := h.validator.PaymentChange(c.Body())
	if err != nil {
		return err
	}
	order, err := h.service.TransitionPayment(c.UserContext(), c.Params("id"), in.PaymentStatus)
	if err != nil {
		return err
	}
	return c.JSON(order)
}

// HandleCancelOrder cancels an order owned by the caller.
func (h *OrderHandler) HandleCancelOrder(c *fiber.Ctx) error {
	order, err := h.ownedOrder(c)
	if err != nil {
		return err
	}
	order, err = h.service.CancelOrder(c.UserContext(), order.ID)
	if err != nil {
		return err
	}
	return c.JSON(order)
}

func (h *OrderHandler) ownedOrder(c *fiber.Ctx) (*models.Order, error) {
	order, err := h.service.GetOrder(c.UserContext(), c.Params("id"))
	if err != nil {
		return nil, err
	}
	caller := middleware.CallerFrom(c)
	if !caller.Admin && order.UserID != caller.User.ID {
		return nil, apperr.New(apperr.KindInsufficientPrivilege, "Access denied.")
	}
	return order, nil
}
