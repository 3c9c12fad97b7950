package handlers

import (
	"log"

	"reviewhub/internal/apperrors"
	"reviewhub/internal/models"
	"reviewhub/internal/policy"
	"reviewhub/internal/repositories"
	"reviewhub/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CatalogHandler handles HTTP requests for categories, genres and titles.
// Reads are world-readable; writes are admin-only per the catalog policy.
type CatalogHandler struct {
	service  *services.CatalogService
	validate *validator.Validate
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(service *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		service:  service,
		validate: newValidator(),
	}
}

// RegisterRoutes registers the catalog routes. authOptional decodes a
// bearer token when present but keeps the routes open for anonymous reads.
func (h *CatalogHandler) RegisterRoutes(router fiber.Router, authOptional fiber.Handler) {
	categories := router.Group("/categories", authOptional)
	categories.Get("/", h.HandleListCategories)
	categories.Post("/", h.HandleCreateCategory)
	categories.Delete("/:slug", h.HandleDeleteCategory)

	genres := router.Group("/genres", authOptional)
	genres.Get("/", h.HandleListGenres)
	genres.Post("/", h.HandleCreateGenre)
	genres.Delete("/:slug", h.HandleDeleteGenre)

	titles := router.Group("/titles", authOptional)
	titles.Get("/", h.HandleListTitles)
	titles.Post("/", h.HandleCreateTitle)
	titles.Get("/:titleID", h.HandleGetTitle)
	titles.Patch("/:titleID", h.HandleUpdateTitle)
	titles.Delete("/:titleID", h.HandleDeleteTitle)
}

func (h *CatalogHandler) checkCatalogPolicy(c *fiber.Ctx) error {
	if !policy.Allow(policy.Catalog, currentRole(c), false, c.Method()) {
		return apperrors.ErrPolicyDenied
	}
	return nil
}

// HandleListCategories retrieves categories with pagination and a name
// search.
func (h *CatalogHandler) HandleListCategories(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	categories, err := h.service.ListCategories(c.Query("search"), limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(categories)
}

// HandleCreateCategory creates a category (admin only).
func (h *CatalogHandler) HandleCreateCategory(c *fiber.Ctx) error {
	if err := h.checkCatalogPolicy(c); err != nil {
		return respondError(c, err)
	}
	var category models.Category
	if err := c.BodyParser(&category); err != nil {
		log.Printf("Error parsing category request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	category.ID = 0
	if err := h.validate.Struct(category); err != nil {
		return respondValidation(c, err)
	}
	if err := h.service.CreateCategory(&category); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

// HandleDeleteCategory removes a category by slug (admin only); titles
// referencing it survive with a null category.
func (h *CatalogHandler) HandleDeleteCategory(c *fiber.Ctx) error {
	if err := h.checkCatalogPolicy(c); err != nil {
		return respondError(c, err)
	}
	if err := h.service.DeleteCategory(c.Params("slug")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleListGenres retrieves genres with pagination and a name search.
func (h *CatalogHandler) HandleListGenres(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	genres, err := h.service.ListGenres(c.Query("search"), limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(genres)
}

// HandleCreateGenre creates a genre (admin only).
func (h *CatalogHandler) HandleCreateGenre(c *fiber.Ctx) error {
	if err := h.checkCatalogPolicy(c); err != nil {
		return respondError(c, err)
	}
	var genre models.Genre
	if err := c.BodyParser(&genre); err != nil {
		log.Printf("Error parsing genre request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	genre.ID = 0
	if err := h.validate.Struct(genre); err != nil {
		return respondValidation(c, err)
	}
	if err := h.service.CreateGenre(&genre); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(genre)
}

// HandleDeleteGenre removes a genre by slug (admin only).
func (h *CatalogHandler) HandleDeleteGenre(c *fiber.Ctx) error {
	if err := h.checkCatalogPolicy(c); err != nil {
		return respondError(c, err)
	}
	if err := h.service.DeleteGenre(c.Params("slug")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleListTitles retrieves a page of titles. Ratings are computed per
// page in a single aggregate query by the service.
func (h *CatalogHandler) HandleListTitles(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	filter := repositories.TitleFilter{
		Category: c.Query("category"),
		Genre:    c.Query("genre"),
		Name:     c.Query("name"),
		Year:     c.QueryInt("year", 0),
		Limit:    limit,
		Offset:   offset,
	}
	titles, err := h.service.ListTitles(filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(titles)
}

// HandleCreateTitle creates a title (admin only).
func (h *CatalogHandler) HandleCreateTitle(c *fiber.Ctx) error {
	if err := h.checkCatalogPolicy(c); err != nil {
		return respondError(c, err)
	}
	var in services.TitleInput
	if err := c.BodyParser(&in); err != nil {
		log.Printf("Error parsing title request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(in); err != nil {
		return respondValidation(c, err)
	}
	title, err := h.service.CreateTitle(in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(title)
}

// HandleGetTitle retrieves one title with its current rating.
func (h *CatalogHandler) HandleGetTitle(c *fiber.Ctx) error {
	id, err := paramID(c, "titleID")
	if err != nil {
		return respondError(c, err)
	}
	title, err := h.service.GetTitle(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(title)
}

// HandleUpdateTitle applies a partial update to a title (admin only).
func (h *CatalogHandler) HandleUpdateTitle(c *fiber.Ctx) error {
	if err := h.checkCatalogPolicy(c); err != nil {
		return respondError(c, err)
	}
	id, err := paramID(c, "titleID")
	if err != nil {
		return respondError(c, err)
	}
	var upd services.TitleUpdate
	if err := c.BodyParser(&upd); err != nil {
		log.Printf("Error parsing title update body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(upd); err != nil {
		return respondValidation(c, err)
	}
	title, err := h.service.UpdateTitle(id, upd)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(title)
}

// HandleDeleteTitle removes a title and everything reviewed under it
// (admin only).
func (h *CatalogHandler) HandleDeleteTitle(c *fiber.Ctx) error {
	if err := h.checkCatalogPolicy(c); err != nil {
		return respondError(c, err)
	}
	id, err := paramID(c, "titleID")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.service.DeleteTitle(id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
