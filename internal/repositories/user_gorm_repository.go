package repositories

import (
	"errors"
	"fmt"

	"reviewhub/internal/apperrors"
	"reviewhub/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create creates a new user. A unique violation on username or email means
// a concurrent request won the race for the same identity.
func (r *GORMUserRepository) Create(user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if err := r.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.ErrIdentityConflict
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Save persists all fields of an existing user.
func (r *GORMUserRepository) Save(user *models.User) error {
	res := r.db.Save(user)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return apperrors.ErrIdentityConflict
		}
		return fmt.Errorf("failed to save user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %s: %w", user.Username, apperrors.ErrNotFound)
	}
	return nil
}

// GetByUsername retrieves a user by their username.
func (r *GORMUserRepository) GetByUsername(username string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", username, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by username %s: %w", username, err)
	}
	return &user, nil
}

// GetByEmail retrieves a user by their email.
func (r *GORMUserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", email, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by email %s: %w", email, err)
	}
	return &user, nil
}

// GetByID retrieves a user by their ID.
func (r *GORMUserRepository) GetByID(id string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by ID %s: %w", id, err)
	}
	return &user, nil
}

// List retrieves users ordered by username, optionally filtered by a
// username substring.
func (r *GORMUserRepository) List(search string, limit, offset int) ([]models.User, error) {
	var users []models.User
	q := r.db.Order("username")
	if search != "" {
		q = q.Where("username LIKE ?", "%"+search+"%")
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Delete removes a user and all feedback that depends on them inside one
// transaction: comments they wrote, comments under their reviews, then
// their reviews, then the account row itself.
func (r *GORMUserRepository) Delete(username string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "username = ?", username).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("user %s: %w", username, apperrors.ErrNotFound)
			}
			return fmt.Errorf("failed to load user %s for deletion: %w", username, err)
		}

		var reviewIDs []uint
		if err := tx.Model(&models.Review{}).Where("author_id = ?", user.ID).Pluck("id", &reviewIDs).Error; err != nil {
			return fmt.Errorf("failed to collect reviews of user %s: %w", username, err)
		}
		if len(reviewIDs) > 0 {
			if err := tx.Delete(&models.Comment{}, "review_id IN ?", reviewIDs).Error; err != nil {
				return fmt.Errorf("failed to delete comments under reviews of user %s: %w", username, err)
			}
		}
		if err := tx.Delete(&models.Comment{}, "author_id = ?", user.ID).Error; err != nil {
			return fmt.Errorf("failed to delete comments of user %s: %w", username, err)
		}
		if err := tx.Delete(&models.Review{}, "author_id = ?", user.ID).Error; err != nil {
			return fmt.Errorf("failed to delete reviews of user %s: %w", username, err)
		}
		if err := tx.Delete(&user).Error; err != nil {
			return fmt.Errorf("failed to delete user %s: %w", username, err)
		}
		return nil
	})
}
