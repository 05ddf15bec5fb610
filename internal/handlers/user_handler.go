package handlers

import (
	"github.com/gofiber/fiber/v2"

	"tiffin/internal/apperr"
	"tiffin/internal/middleware"
	"tiffin/internal/services"
	"tiffin/internal/validation"
)

// UserHandler handles the identity exchange and profile requests.
type UserHandler struct {
	service   *services.UserService
	validator *validation.Validator
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *services.UserService, validator *validation.Validator) *UserHandler {
	return &UserHandler{
		service:   service,
		validator: validator,
	}
}

// RegisterRoutes registers the user routes with the Fiber app.
func (h *UserHandler) RegisterRoutes(router fiber.Router, gate *middleware.Gate) {
	userRoutes := router.Group("/users")
	userRoutes.Post("/", gate.Require(services.PolicyVerified), h.HandleUpsertUser)
	userRoutes.Get("/", gate.Require(services.PolicyMember), h.HandleGetUsers)
	userRoutes.Get("/me", gate.Require(services.PolicyMember), h.HandleGetMe)
	userRoutes.Patch("/me", gate.Require(services.PolicyMember), h.HandleUpdateMe)
}

// HandleUpsertUser exchanges a verified credential for a local user record.
// It answers 201 when the record was created and 200 when it already existed.
func (h *UserHandler) HandleUpsertUser(c *fiber.Ctx) error {
	in, err := h.validator.UserUpsert(c.Body())
	if err != nil {
		return err
	}
	user, created, err := h.service.Upsert(c.UserContext(), middleware.CallerFrom(c).Identity, in)
	if err != nil {
		return err
	}
	if created {
		return c.Status(fiber.StatusCreated).JSON(user)
	}
	return c.JSON(user)
}

// HandleGetUsers returns every user for admin=true, otherwise the user
// named by the firebaseUid query parameter.
func (h *UserHandler) HandleGetUsers(c *fiber.Ctx) error {
	caller := middleware.CallerFrom(c)

	if c.QueryBool("admin") {
		if !caller.Admin {
			return apperr.New(apperr.KindInsufficientPrivilege, "Access denied. Admin privileges required.")
		}
		users, err := h.service.ListUsers(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(users)
	}

	uid := c.Query("firebaseUid")
	if uid == "" {
		return apperr.Validation([]apperr.FieldError{{Field: "firebaseUid", Message: "is required"}})
	}
	if !caller.Admin && uid != caller.User.FirebaseUID {
		return apperr.New(apperr.KindInsufficientPrivilege, "Access denied.")
	}
	user, err := h.service.GetByFirebaseUID(c.UserContext(), uid)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

// HandleGetMe returns the caller's own record.
func (h *UserHandler) HandleGetMe(c *fiber.Ctx) error {
	return c.JSON(middleware.CallerFrom(c).User)
}

// HandleUpdateMe applies a partial profile update to the caller.
func (h *UserHandler) HandleUpdateMe(c *fiber.Ctx) error {
	in, err := h.validator.UserUpdate(c.Body())
	if err != nil {
		return err
	}
	user, err := h.service.UpdateProfile(c.UserContext(), middleware.CallerFrom(c).User.ID, in)
	if err != nil {
		return err
	}
	return c.JSON(user)
}
