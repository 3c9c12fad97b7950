package repositories

import "reviewhub/internal/models"

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(user *models.User) error
	Save(user *models.User) error
	GetByUsername(username string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByID(id string) (*models.User, error)
	List(search string, limit, offset int) ([]models.User, error)
	// Delete removes the user and, in the same transaction, every review
	// and comment they authored plus the comments under those reviews.
	Delete(username string) error
}
