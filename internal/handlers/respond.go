package handlers

import (
	"errors"
	"fmt"
	"log"
	"regexp"

	"reviewhub/internal/apperrors"
	"reviewhub/internal/policy"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var (
	usernameRe = regexp.MustCompile(`^[\w.@+-]+$`)
	slugRe     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// newValidator builds the request validator with the custom username and
// slug formats registered.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRe.MatchString(fl.Field().String())
	})
	v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugRe.MatchString(fl.Field().String())
	})
	return v
}

// statusFromError maps the shared error taxonomy onto HTTP statuses:
// 403 for policy denials, 404 for missing entities and unknown users,
// 400 for every validation or conflict failure.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrPolicyDenied):
		return fiber.StatusForbidden
	case errors.Is(err, apperrors.ErrNotFound), errors.Is(err, apperrors.ErrUnknownUser):
		return fiber.StatusNotFound
	case errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrDuplicateReview),
		errors.Is(err, apperrors.ErrInvalidScore),
		errors.Is(err, apperrors.ErrIdentityConflict),
		errors.Is(err, apperrors.ErrReservedUsername),
		errors.Is(err, apperrors.ErrInvalidConfirmationCode):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

// respondError writes the error as JSON with its mapped status.
func respondError(c *fiber.Ctx, err error) error {
	status := statusFromError(err)
	if status == fiber.StatusInternalServerError {
		log.Printf("Internal error handling %s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(fiber.Map{
		"message": err.Error(),
	})
}

// respondValidation writes a field-by-field validation failure the way the
// validator reports it.
func respondValidation(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return respondError(c, fmt.Errorf("%s: %w", err.Error(), apperrors.ErrValidation))
	}
	errorMessages := make(map[string]string)
	for _, e := range validationErrors {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation failed",
		"errors":  errorMessages,
	})
}

// currentRole derives the caller's policy role from the auth middleware's
// claims; requests without a token are anonymous.
func currentRole(c *fiber.Ctx) policy.Role {
	role, ok := c.Locals("role").(string)
	if !ok || role == "" {
		return policy.Anonymous
	}
	switch policy.Role(role) {
	case policy.Admin, policy.Moderator, policy.User:
		return policy.Role(role)
	}
	return policy.User
}

func currentUserID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}

func currentUsername(c *fiber.Ctx) string {
	username, _ := c.Locals("username").(string)
	return username
}

// pagination reads the limit/offset list parameters, with the default page
// size applied when the client sends none.
func pagination(c *fiber.Ctx) (limit, offset int) {
	limit = c.QueryInt("limit", 10)
	offset = c.QueryInt("offset", 0)
	if limit < 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// paramID parses a numeric path parameter; anything non-numeric addresses
// a resource that cannot exist.
func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s %q: %w", name, c.Params(name), apperrors.ErrNotFound)
	}
	return uint(id), nil
}
