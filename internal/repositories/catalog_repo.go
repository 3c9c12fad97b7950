package repositories

import "reviewhub/internal/models"

// CategoryRepository defines the interface for category data access.
type CategoryRepository interface {
	Create(category *models.Category) error
	GetBySlug(slug string) (*models.Category, error)
	List(search string, limit, offset int) ([]models.Category, error)
	// Delete removes the category and nulls out the category reference on
	// titles that pointed at it; the titles themselves survive.
	Delete(slug string) error
}

// GenreRepository defines the interface for genre data access.
type GenreRepository interface {
	Create(genre *models.Genre) error
	GetBySlug(slug string) (*models.Genre, error)
	GetBySlugs(slugs []string) ([]models.Genre, error)
	List(search string, limit, offset int) ([]models.Genre, error)
	Delete(slug string) error
}

// TitleFilter carries the list-endpoint query parameters for titles.
type TitleFilter struct {
	Category string // category slug, exact match
	Genre    string // genre slug, exact match
	Name     string // substring match
	Year     int    // exact match when > 0
	Limit    int
	Offset   int
}

// TitleRepository defines the interface for title data access.
type TitleRepository interface {
	Create(title *models.Title) error
	Update(title *models.Title) error
	GetByID(id uint) (*models.Title, error)
	List(filter TitleFilter) ([]models.Title, error)
	// Delete removes the title and, in the same transaction, its reviews,
	// the comments under those reviews and its genre links.
	Delete(id uint) error
	// RatingsByTitle computes the mean review score per title in a single
	// group-aggregate query. Titles without reviews are absent from the
	// result map.
	RatingsByTitle(titleIDs []uint) (map[uint]float64, error)
}
