package handlers

import (
	"log"

	"reviewhub/internal/apperrors"
	"reviewhub/internal/models"
	"reviewhub/internal/policy"
	"reviewhub/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// UserHandler handles HTTP requests for user administration and the
// self-service profile.
type UserHandler struct {
	service  *services.UserService
	validate *validator.Validate
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{
		service:  service,
		validate: newValidator(),
	}
}

// RegisterRoutes registers the user routes. Everything requires a token;
// /users/me is open to any authenticated caller, the rest is admin-only.
// The /me routes are registered before /:username so the literal segment
// wins.
func (h *UserHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	users := router.Group("/users", authRequired)
	users.Get("/me", h.HandleGetMe)
	users.Patch("/me", h.HandlePatchMe)
	users.Get("/", h.HandleListUsers)
	users.Post("/", h.HandleCreateUser)
	users.Get("/:username", h.HandleGetUser)
	users.Patch("/:username", h.HandlePatchUser)
	users.Delete("/:username", h.HandleDeleteUser)
}

func (h *UserHandler) checkAdminPolicy(c *fiber.Ctx) error {
	if !policy.Allow(policy.Users, currentRole(c), false, c.Method()) {
		return apperrors.ErrPolicyDenied
	}
	return nil
}

// HandleGetMe returns the caller's own profile.
func (h *UserHandler) HandleGetMe(c *fiber.Ctx) error {
	user, err := h.service.GetUser(currentUsername(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// HandlePatchMe updates the caller's own profile. The role field is
// rejected here: self-service updates must never escalate an account.
func (h *UserHandler) HandlePatchMe(c *fiber.Ctx) error {
	var upd services.ProfileUpdate
	if err := c.BodyParser(&upd); err != nil {
		log.Printf("Error parsing profile update body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(upd); err != nil {
		return respondValidation(c, err)
	}
	user, err := h.service.UpdateOwnProfile(currentUsername(c), upd)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// HandleListUsers retrieves users with pagination and a username search
// (admin only).
func (h *UserHandler) HandleListUsers(c *fiber.Ctx) error {
	if err := h.checkAdminPolicy(c); err != nil {
		return respondError(c, err)
	}
	limit, offset := pagination(c)
	users, err := h.service.ListUsers(c.Query("search"), limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// HandleCreateUser creates an account, optionally with an elevated role
// (admin only).
func (h *UserHandler) HandleCreateUser(c *fiber.Ctx) error {
	if err := h.checkAdminPolicy(c); err != nil {
		return respondError(c, err)
	}
	var user models.User
	if err := c.BodyParser(&user); err != nil {
		log.Printf("Error parsing user request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	user.ID = ""
	user.ConfirmationCode = ""
	if err := h.validate.Struct(user); err != nil {
		return respondValidation(c, err)
	}
	if err := h.service.CreateUser(&user); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// HandleGetUser retrieves a user by username (admin only).
func (h *UserHandler) HandleGetUser(c *fiber.Ctx) error {
	if err := h.checkAdminPolicy(c); err != nil {
		return respondError(c, err)
	}
	user, err := h.service.GetUser(c.Params("username"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// HandlePatchUser applies a partial update to a user, role included
// (admin only).
func (h *UserHandler) HandlePatchUser(c *fiber.Ctx) error {
	if err := h.checkAdminPolicy(c); err != nil {
		return respondError(c, err)
	}
	var upd services.ProfileUpdate
	if err := c.BodyParser(&upd); err != nil {
		log.Printf("Error parsing user update body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(upd); err != nil {
		return respondValidation(c, err)
	}
	user, err := h.service.UpdateUser(c.Params("username"), upd)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// HandleDeleteUser removes a user and all their reviews and comments
// (admin only).
func (h *UserHandler) HandleDeleteUser(c *fiber.Ctx) error {
	if err := h.checkAdminPolicy(c); err != nil {
		return respondError(c, err)
	}
	if err := h.service.DeleteUser(c.Params("username")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
