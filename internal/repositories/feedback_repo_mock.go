package repositories

import (
	"fmt"
	"sort"
	"sync"

	"reviewhub/internal/apperrors"
	"reviewhub/internal/models"
)

// MockReviewRepository is an in-memory implementation of ReviewRepository.
// It enforces the same (author, title) uniqueness as the GORM variant so
// service-level behavior matches with or without a database.
type MockReviewRepository struct {
	reviews map[uint]models.Review
	nextID  uint
	mu      sync.RWMutex
}

// NewMockReviewRepository creates a new instance of MockReviewRepository.
func NewMockReviewRepository() *MockReviewRepository {
	return &MockReviewRepository{
		reviews: make(map[uint]models.Review),
		nextID:  1,
	}
}

// Create adds a new review, rejecting a duplicate (author, title) pair.
func (r *MockReviewRepository) Create(review *models.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.reviews {
		if existing.TitleID == review.TitleID && existing.AuthorID == review.AuthorID {
			return apperrors.ErrDuplicateReview
		}
	}
	review.ID = r.nextID
	r.nextID++
	r.reviews[review.ID] = *review
	return nil
}

// Update modifies an existing review.
func (r *MockReviewRepository) Update(review *models.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.reviews[review.ID]
	if !ok {
		return fmt.Errorf("review %d: %w", review.ID, apperrors.ErrNotFound)
	}
	existing.Text = review.Text
	existing.Score = review.Score
	r.reviews[review.ID] = existing
	return nil
}

// GetByID returns a review scoped to its parent title.
func (r *MockReviewRepository) GetByID(titleID, reviewID uint) (*models.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	review, ok := r.reviews[reviewID]
	if !ok || review.TitleID != titleID {
		return nil, fmt.Errorf("review %d of title %d: %w", reviewID, titleID, apperrors.ErrNotFound)
	}
	return &review, nil
}

// ListByTitle returns a title's reviews newest-first.
func (r *MockReviewRepository) ListByTitle(titleID uint, limit, offset int) ([]models.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reviewList := make([]models.Review, 0)
	for _, review := range r.reviews {
		if review.TitleID == titleID {
			reviewList = append(reviewList, review)
		}
	}
	sort.Slice(reviewList, func(i, j int) bool {
		if reviewList[i].PubDate.Equal(reviewList[j].PubDate) {
			return reviewList[i].ID > reviewList[j].ID
		}
		return reviewList[i].PubDate.After(reviewList[j].PubDate)
	})
	if offset > 0 {
		if offset >= len(reviewList) {
			return []models.Review{}, nil
		}
		reviewList = reviewList[offset:]
	}
	if limit > 0 && limit < len(reviewList) {
		reviewList = reviewList[:limit]
	}
	return reviewList, nil
}

// ExistsForAuthor reports whether the author already reviewed the title.
func (r *MockReviewRepository) ExistsForAuthor(titleID uint, authorID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, review := range r.reviews {
		if review.TitleID == titleID && review.AuthorID == authorID {
			return true, nil
		}
	}
	return false, nil
}

// Delete removes a review by its ID.
func (r *MockReviewRepository) Delete(titleID, reviewID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	review, ok := r.reviews[reviewID]
	if !ok || review.TitleID != titleID {
		return fmt.Errorf("review %d of title %d: %w", reviewID, titleID, apperrors.ErrNotFound)
	}
	delete(r.reviews, reviewID)
	return nil
}
