package repositories

import (
	"errors"
	"fmt"

	"reviewhub/internal/apperrors"
	"reviewhub/internal/models"

	"gorm.io/gorm"
)

// GORMReviewRepository is a GORM implementation of ReviewRepository.
type GORMReviewRepository struct {
	db *gorm.DB
}

// NewGORMReviewRepository creates a new instance of GORMReviewRepository.
func NewGORMReviewRepository(db *gorm.DB) *GORMReviewRepository {
	return &GORMReviewRepository{
		db: db,
	}
}

// Create inserts a review. The unique index on (author_id, title_id)
// arbitrates concurrent creates: the loser's unique violation is reported
// as ErrDuplicateReview.
func (r *GORMReviewRepository) Create(review *models.Review) error {
	if err := r.db.Create(review).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.ErrDuplicateReview
		}
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

// Update persists the text and score of an existing review.
func (r *GORMReviewRepository) Update(review *models.Review) error {
	res := r.db.Model(&models.Review{}).Where("id = ?", review.ID).
		Updates(map[string]interface{}{"text": review.Text, "score": review.Score})
	if res.Error != nil {
		return fmt.Errorf("failed to update review %d: %w", review.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("review %d: %w", review.ID, apperrors.ErrNotFound)
	}
	return nil
}

// GetByID retrieves a review scoped to its parent title, author preloaded.
func (r *GORMReviewRepository) GetByID(titleID, reviewID uint) (*models.Review, error) {
	var review models.Review
	err := r.db.Preload("Author").First(&review, "id = ? AND title_id = ?", reviewID, titleID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("review %d of title %d: %w", reviewID, titleID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get review %d: %w", reviewID, err)
	}
	return &review, nil
}

// ListByTitle retrieves a title's reviews newest-first.
func (r *GORMReviewRepository) ListByTitle(titleID uint, limit, offset int) ([]models.Review, error) {
	var reviews []models.Review
	q := r.db.Preload("Author").Where("title_id = ?", titleID).Order("pub_date DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to list reviews of title %d: %w", titleID, err)
	}
	return reviews, nil
}

// ExistsForAuthor reports whether the author already reviewed the title.
func (r *GORMReviewRepository) ExistsForAuthor(titleID uint, authorID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Review{}).
		Where("title_id = ? AND author_id = ?", titleID, authorID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check for existing review: %w", err)
	}
	return count > 0, nil
}

// Delete removes a review and its comments in one transaction.
func (r *GORMReviewRepository) Delete(titleID, reviewID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Comment{}, "review_id = ?", reviewID).Error; err != nil {
			return fmt.Errorf("failed to delete comments of review %d: %w", reviewID, err)
		}
		res := tx.Delete(&models.Review{}, "id = ? AND title_id = ?", reviewID, titleID)
		if res.Error != nil {
			return fmt.Errorf("failed to delete review %d: %w", reviewID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("review %d of title %d: %w", reviewID, titleID, apperrors.ErrNotFound)
		}
		return nil
	})
}

// GORMCommentRepository is a GORM implementation of CommentRepository.
type GORMCommentRepository struct {
	db *gorm.DB
}

// NewGORMCommentRepository creates a new instance of GORMCommentRepository.
func NewGORMCommentRepository(db *gorm.DB) *GORMCommentRepository {
	return &GORMCommentRepository{
		db: db,
	}
}

// Create inserts a comment.
func (r *GORMCommentRepository) Create(comment *models.Comment) error {
	if err := r.db.Create(comment).Error; err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// Update persists the text of an existing comment.
func (r *GORMCommentRepository) Update(comment *models.Comment) error {
	res := r.db.Model(&models.Comment{}).Where("id = ?", comment.ID).
		Update("text", comment.Text)
	if res.Error != nil {
		return fmt.Errorf("failed to update comment %d: %w", comment.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("comment %d: %w", comment.ID, apperrors.ErrNotFound)
	}
	return nil
}

// GetByID retrieves a comment scoped to its parent review.
func (r *GORMCommentRepository) GetByID(reviewID, commentID uint) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.Preload("Author").First(&comment, "id = ? AND review_id = ?", commentID, reviewID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("comment %d of review %d: %w", commentID, reviewID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get comment %d: %w", commentID, err)
	}
	return &comment, nil
}

// ListByReview retrieves a review's comments newest-first.
func (r *GORMCommentRepository) ListByReview(reviewID uint, limit, offset int) ([]models.Comment, error) {
	var comments []models.Comment
	q := r.db.Preload("Author").Where("review_id = ?", reviewID).Order("pub_date DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("failed to list comments of review %d: %w", reviewID, err)
	}
	return comments, nil
}

// Delete removes a single comment.
func (r *GORMCommentRepository) Delete(reviewID, commentID uint) error {
	res := r.db.Delete(&models.Comment{}, "id = ? AND review_id = ?", commentID, reviewID)
	if res.Error != nil {
		return fmt.Errorf("failed to delete comment %d: %w", commentID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("comment %d of review %d: %w", commentID, reviewID, apperrors.ErrNotFound)
	}
	return nil
}
