package repositories

import (
	"errors"
	"fmt"

	"reviewhub/internal/apperrors"
	"reviewhub/internal/models"

	"gorm.io/gorm"
)

// GORMTitleRepository is a GORM implementation of TitleRepository.
type GORMTitleRepository struct {
	db *gorm.DB
}

// NewGORMTitleRepository creates a new instance of GORMTitleRepository.
func NewGORMTitleRepository(db *gorm.DB) *GORMTitleRepository {
	return &GORMTitleRepository{
		db: db,
	}
}

// Create creates a new title together with its genre links.
func (r *GORMTitleRepository) Create(title *models.Title) error {
	if err := r.db.Create(title).Error; err != nil {
		return fmt.Errorf("failed to create title: %w", err)
	}
	return nil
}

// Update replaces the stored title, including its genre set.
func (r *GORMTitleRepository) Update(title *models.Title) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Omit("Genres").Save(title)
		if res.Error != nil {
			return fmt.Errorf("failed to update title: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("title %d: %w", title.ID, apperrors.ErrNotFound)
		}
		assoc := tx.Model(title).Association("Genres")
		if len(title.Genres) == 0 {
			if err := assoc.Clear(); err != nil {
				return fmt.Errorf("failed to clear genres of title %d: %w", title.ID, err)
			}
		} else if err := assoc.Replace(title.Genres); err != nil {
			return fmt.Errorf("failed to update genres of title %d: %w", title.ID, err)
		}
		return nil
	})
}

// GetByID retrieves a single title with its category and genres preloaded.
func (r *GORMTitleRepository) GetByID(id uint) (*models.Title, error) {
	var title models.Title
	err := r.db.Preload("Category").Preload("Genres").First(&title, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("title %d: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get title %d: %w", id, err)
	}
	return &title, nil
}

// List retrieves titles matching the filter, category and genres preloaded.
func (r *GORMTitleRepository) List(filter TitleFilter) ([]models.Title, error) {
	var titles []models.Title
	q := r.db.Model(&models.Title{}).Preload("Category").Preload("Genres").Order("titles.id")
	if filter.Category != "" {
		q = q.Joins("JOIN categories ON categories.id = titles.category_id").
			Where("categories.slug = ?", filter.Category)
	}
	if filter.Genre != "" {
		q = q.Joins("JOIN title_genres ON title_genres.title_id = titles.id").
			Joins("JOIN genres ON genres.id = title_genres.genre_id").
			Where("genres.slug = ?", filter.Genre)
	}
	if filter.Name != "" {
		q = q.Where("titles.name LIKE ?", "%"+filter.Name+"%")
	}
	if filter.Year > 0 {
		q = q.Where("titles.year = ?", filter.Year)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	if err := q.Find(&titles).Error; err != nil {
		return nil, fmt.Errorf("failed to list titles: %w", err)
	}
	return titles, nil
}

// Delete removes a title and everything hanging off it in one transaction:
// comments under its reviews, the reviews, the genre links, the title row.
// Nothing dependent may remain observable once the title is gone.
func (r *GORMTitleRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var reviewIDs []uint
		if err := tx.Model(&models.Review{}).Where("title_id = ?", id).Pluck("id", &reviewIDs).Error; err != nil {
			return fmt.Errorf("failed to collect reviews of title %d: %w", id, err)
		}
		if len(reviewIDs) > 0 {
			if err := tx.Delete(&models.Comment{}, "review_id IN ?", reviewIDs).Error; err != nil {
				return fmt.Errorf("failed to delete comments under title %d: %w", id, err)
			}
			if err := tx.Delete(&models.Review{}, "id IN ?", reviewIDs).Error; err != nil {
				return fmt.Errorf("failed to delete reviews of title %d: %w", id, err)
			}
		}
		if err := tx.Exec("DELETE FROM title_genres WHERE title_id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to unlink genres of title %d: %w", id, err)
		}
		res := tx.Delete(&models.Title{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete title %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("title %d: %w", id, apperrors.ErrNotFound)
		}
		return nil
	})
}

// RatingsByTitle computes the mean review score for each given title with
// one GROUP BY query, so listing a page of titles costs a single aggregate
// instead of a query per row.
func (r *GORMTitleRepository) RatingsByTitle(titleIDs []uint) (map[uint]float64, error) {
	ratings := make(map[uint]float64, len(titleIDs))
	if len(titleIDs) == 0 {
		return ratings, nil
	}
	var rows []struct {
		TitleID uint
		Avg     float64
	}
	err := r.db.Model(&models.Review{}).
		Select("title_id, AVG(score) AS avg").
		Where("title_id IN ?", titleIDs).
		Group("title_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate ratings: %w", err)
	}
	for _, row := range rows {
		ratings[row.TitleID] = row.Avg
	}
	return ratings, nil
}
