package repositories

import "reviewhub/internal/models"

// ReviewRepository defines the interface for review data access.
type ReviewRepository interface {
	// Create inserts a review. A second review by the same author for the
	// same title fails with apperrors.ErrDuplicateReview, enforced by the
	// store's unique index rather than a pre-check, so concurrent creates
	// race safely.
	Create(review *models.Review) error
	Update(review *models.Review) error
	GetByID(titleID, reviewID uint) (*models.Review, error)
	ListByTitle(titleID uint, limit, offset int) ([]models.Review, error)
	ExistsForAuthor(titleID uint, authorID string) (bool, error)
	// Delete removes the review and its comments in one transaction.
	Delete(titleID, reviewID uint) error
}

// CommentRepository defines the interface for comment data access.
type CommentRepository interface {
	Create(comment *models.Comment) error
	Update(comment *models.Comment) error
	GetByID(reviewID, commentID uint) (*models.Comment, error)
	ListByReview(reviewID uint, limit, offset int) ([]models.Comment, error)
	Delete(reviewID, commentID uint) error
}
