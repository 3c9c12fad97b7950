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

// FeedbackHandler handles HTTP requests for reviews and comments nested
// under titles.
type FeedbackHandler struct {
	service  *services.FeedbackService
	validate *validator.Validate
}

// NewFeedbackHandler creates a new FeedbackHandler.
func NewFeedbackHandler(service *services.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{
		service:  service,
		validate: newValidator(),
	}
}

// RegisterRoutes registers the nested review and comment routes.
func (h *FeedbackHandler) RegisterRoutes(router fiber.Router, authOptional fiber.Handler) {
	reviews := router.Group("/titles/:titleID/reviews", authOptional)
	reviews.Get("/", h.HandleListReviews)
	reviews.Post("/", h.HandleCreateReview)
	reviews.Get("/:reviewID", h.HandleGetReview)
	reviews.Patch("/:reviewID", h.HandleUpdateReview)
	reviews.Delete("/:reviewID", h.HandleDeleteReview)

	comments := router.Group("/titles/:titleID/reviews/:reviewID/comments", authOptional)
	comments.Get("/", h.HandleListComments)
	comments.Post("/", h.HandleCreateComment)
	comments.Get("/:commentID", h.HandleGetComment)
	comments.Patch("/:commentID", h.HandleUpdateComment)
	comments.Delete("/:commentID", h.HandleDeleteComment)
}

// author builds the acting user from the auth claims. Feedback writes need
// an authenticated author.
func author(c *fiber.Ctx) (*models.User, error) {
	id := currentUserID(c)
	if id == "" {
		return nil, apperrors.ErrPolicyDenied
	}
	return &models.User{ID: id, Username: currentUsername(c)}, nil
}

// ReviewRequest represents the request body for creating a review.
type ReviewRequest struct {
	Text  string `json:"text" validate:"required"`
	Score int    `json:"score" validate:"required"`
}

// ReviewUpdateRequest represents a partial review update.
type ReviewUpdateRequest struct {
	Text  *string `json:"text"`
	Score *int    `json:"score"`
}

// CommentRequest represents the request body for creating or updating a
// comment.
type CommentRequest struct {
	Text string `json:"text" validate:"required"`
}

// HandleListReviews retrieves a page of a title's reviews, newest first.
func (h *FeedbackHandler) HandleListReviews(c *fiber.Ctx) error {
	titleID, err := paramID(c, "titleID")
	if err != nil {
		return respondError(c, err)
	}
	limit, offset := pagination(c)
	reviews, err := h.service.ListReviews(titleID, limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(reviews)
}

// HandleCreateReview creates the caller's review of a title. At most one
// review per author per title; the duplicate is rejected whether it comes
// from this handler's pre-check or from a racing request losing at the
// unique index.
func (h *FeedbackHandler) HandleCreateReview(c *fiber.Ctx) error {
	titleID, err := paramID(c, "titleID")
	if err != nil {
		return respondError(c, err)
	}
	if !policy.Allow(policy.Feedback, currentRole(c), false, c.Method()) {
		return respondError(c, apperrors.ErrPolicyDenied)
	}
	user, err := author(c)
	if err != nil {
		return respondError(c, err)
	}
	var req ReviewRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing review request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidation(c, err)
	}
	review, err := h.service.CreateReview(titleID, user, req.Text, req.Score)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}

// HandleGetReview retrieves one review.
func (h *FeedbackHandler) HandleGetReview(c *fiber.Ctx) error {
	titleID, err := paramID(c, "titleID")
	if err != nil {
		return respondError(c, err)
	}
	reviewID, err := paramID(c, "reviewID")
	if err != nil {
		return respondError(c, err)
	}
	review, err := h.service.GetReview(titleID, reviewID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(review)
}

// HandleUpdateReview lets the author, a moderator or an admin edit a
// review.
func (h *FeedbackHandler) HandleUpdateReview(c *fiber.Ctx) error {
	titleID, err := paramID(c, "titleID")
	if err != nil {
		return respondError(c, err)
	}
	reviewID, err := paramID(c, "reviewID")
	if err != nil {
		return respondError(c, err)
	}
	review, err := h.service.GetReview(titleID, reviewID)
	if err != nil {
		return respondError(c, err)
	}
	isOwner := review.AuthorID == currentUserID(c) && review.AuthorID != ""
	if !policy.Allow(policy.Feedback, currentRole(c), isOwner, c.Method()) {
		return respondError(c, apperrors.ErrPolicyDenied)
	}
	var req ReviewUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing review update body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	updated, err := h.service.UpdateReview(titleID, reviewID, req.Text, req.Score)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(updated)
}

// HandleDeleteReview lets the author, a moderator or an admin delete a
// review together with its comments.
func (h *FeedbackHandler) HandleDeleteReview(c *fiber.Ctx) error {
	titleID, err := paramID(c, "titleID")
	if err != nil {
		return respondError(c, err)
	}
	reviewID, err := paramID(c, "reviewID")
	if err != nil {
		return respondError(c, err)
	}
	review, err := h.service.GetReview(titleID, reviewID)
	if err != nil {
		return respondError(c, err)
	}
	isOwner := review.AuthorID == currentUserID(c) && review.AuthorID != ""
	if !policy.Allow(policy.Feedback, currentRole(c), isOwner, c.Method()) {
		return respondError(c, apperrors.ErrPolicyDenied)
	}
	if err := h.service.DeleteReview(titleID, reviewID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleListComments retrieves a page of a review's comments.
func (h *FeedbackHandler) HandleListComments(c *fiber.Ctx) error {
	titleID, err := paramID(c, "titleID")
	if err != nil {
		return respondError(c, err)
	}
	reviewID, err := paramID(c, "reviewID")
	if err != nil {
		return respondError(c, err)
	}
	limit, offset := pagination(c)
	comments, err := h.service.ListComments(titleID, reviewID, limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comments)
}

// HandleCreateComment attaches a comment to a review.
func (h *FeedbackHandler) HandleCreateComment(c *fiber.Ctx) error {
	titleID, err := paramID(c, "titleID")
	if err != nil {
		return respondError(c, err)
	}
	reviewID, err := paramID(c, "reviewID")
	if err != nil {
		return respondError(c, err)
	}
	if !policy.Allow(policy.Feedback, currentRole(c), false, c.Method()) {
		return respondError(c, apperrors.ErrPolicyDenied)
	}
	user, err := author(c)
	if err != nil {
		return respondError(c, err)
	}
	var req CommentRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing comment request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidation(c, err)
	}
	comment, err := h.service.CreateComment(titleID, reviewID, user, req.Text)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// HandleGetComment retrieves one comment.
func (h *FeedbackHandler) HandleGetComment(c *fiber.Ctx) error {
	titleID, err := paramID(c, "titleID")
	if err != nil {
		return respondError(c, err)
	}
	reviewID, err := paramID(c, "reviewID")
	if err != nil {
		return respondError(c, err)
	}
	commentID, err := paramID(c, "commentID")
	if err != nil {
		return respondError(c, err)
	}
	comment, err := h.service.GetComment(titleID, reviewID, commentID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comment)
}

// HandleUpdateComment lets the author, a moderator or an admin edit a
// comment.
func (h *FeedbackHandler) HandleUpdateComment(c *fiber.Ctx) error {
	titleID, err := paramID(c, "titleID")
	if err != nil {
		return respondError(c, err)
	}
	reviewID, err := paramID(c, "reviewID")
	if err != nil {
		return respondError(c, err)
	}
	commentID, err := paramID(c, "commentID")
	if err != nil {
		return respondError(c, err)
	}
	comment, err := h.service.GetComment(titleID, reviewID, commentID)
	if err != nil {
		return respondError(c, err)
	}
	isOwner := comment.AuthorID == currentUserID(c) && comment.AuthorID != ""
	if !policy.Allow(policy.Feedback, currentRole(c), isOwner, c.Method()) {
		return respondError(c, apperrors.ErrPolicyDenied)
	}
	var req CommentRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing comment update body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidation(c, err)
	}
	updated, err := h.service.UpdateComment(titleID, reviewID, commentID, req.Text)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(updated)
}

// HandleDeleteComment lets the author, a moderator or an admin delete a
// comment.
func (h *FeedbackHandler) HandleDeleteComment(c *fiber.Ctx) error {
	titleID, err := paramID(c, "titleID")
	if err != nil {
		return respondError(c, err)
	}
	reviewID, err := paramID(c, "reviewID")
	if err != nil {
		return respondError(c, err)
	}
	commentID, err := paramID(c, "commentID")
	if err != nil {
		return respondError(c, err)
	}
	comment, err := h.service.GetComment(titleID, reviewID, commentID)
	if err != nil {
		return respondError(c, err)
	}
	isOwner := comment.AuthorID == currentUserID(c) && comment.AuthorID != ""
	if !policy.Allow(policy.Feedback, currentRole(c), isOwner, c.Method()) {
		return respondError(c, apperrors.ErrPolicyDenied)
	}
	if err := h.service.DeleteComment(titleID, reviewID, commentID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
