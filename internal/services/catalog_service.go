package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"reviewhub/internal/apperrors"
	"reviewhub/internal/models"
	"reviewhub/internal/repositories"
)

// TitleInput carries the writable fields of a title. Category and Genres
// reference existing catalog entries by slug, the way the list/detail
// responses render them.
type TitleInput struct {
	Name        string   `json:"name" validate:"required,max=256"`
	Year        int      `json:"year" validate:"required"`
	Description string   `json:"description"`
	Category    string   `json:"category" validate:"omitempty,max=50"`
	Genres      []string `json:"genre" validate:"omitempty,dive,max=50"`
}

// TitleUpdate carries a partial update of a title; nil fields are left
// unchanged.
type TitleUpdate struct {
	Name        *string   `json:"name" validate:"omitempty,max=256"`
	Year        *int      `json:"year"`
	Description *string   `json:"description"`
	Category    *string   `json:"category" validate:"omitempty,max=50"`
	Genres      *[]string `json:"genre" validate:"omitempty,dive,max=50"`
}

// CatalogService handles business logic for categories, genres and titles,
// including the derived rating on every title read.
type CatalogService struct {
	categoryRepo repositories.CategoryRepository
	genreRepo    repositories.GenreRepository
	titleRepo    repositories.TitleRepository
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(categoryRepo repositories.CategoryRepository, genreRepo repositories.GenreRepository, titleRepo repositories.TitleRepository) *CatalogService {
	return &CatalogService{
		categoryRepo: categoryRepo,
		genreRepo:    genreRepo,
		titleRepo:    titleRepo,
	}
}

// CreateCategory creates a new category.
func (s *CatalogService) CreateCategory(category *models.Category) error {
	return s.categoryRepo.Create(category)
}

// ListCategories retrieves categories matching an optional name search.
func (s *CatalogService) ListCategories(search string, limit, offset int) ([]models.Category, error) {
	return s.categoryRepo.List(search, limit, offset)
}

// DeleteCategory removes a category; referencing titles keep living with a
// null category.
func (s *CatalogService) DeleteCategory(slug string) error {
	return s.categoryRepo.Delete(slug)
}

// CreateGenre creates a new genre.
func (s *CatalogService) CreateGenre(genre *models.Genre) error {
	return s.genreRepo.Create(genre)
}

// ListGenres retrieves genres matching an optional name search.
func (s *CatalogService) ListGenres(search string, limit, offset int) ([]models.Genre, error) {
	return s.genreRepo.List(search, limit, offset)
}

// DeleteGenre removes a genre and its title links.
func (s *CatalogService) DeleteGenre(slug string) error {
	return s.genreRepo.Delete(slug)
}

// CreateTitle creates a title after checking the year invariant and
// resolving category and genre slugs.
func (s *CatalogService) CreateTitle(in TitleInput) (*models.Title, error) {
	if err := checkYear(in.Year); err != nil {
		return nil, err
	}
	title := &models.Title{
		Name:        in.Name,
		Year:        in.Year,
		Description: in.Description,
	}
	if err := s.resolveRefs(title, in.Category, in.Genres); err != nil {
		return nil, err
	}
	if err := s.titleRepo.Create(title); err != nil {
		return nil, err
	}
	return s.GetTitle(title.ID)
}

// UpdateTitle applies a partial update to a title.
func (s *CatalogService) UpdateTitle(id uint, upd TitleUpdate) (*models.Title, error) {
	title, err := s.titleRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		title.Name = *upd.Name
	}
	if upd.Year != nil {
		if err := checkYear(*upd.Year); err != nil {
			return nil, err
		}
		title.Year = *upd.Year
	}
	if upd.Description != nil {
		title.Description = *upd.Description
	}
	// GetByID preloaded the current genre set, so Update may always
	// replace the links: untouched patches replace them with themselves.
	genres := []string(nil)
	if upd.Genres != nil {
		genres = *upd.Genres
		title.Genres = nil
	}
	if upd.Category != nil {
		title.CategoryID = nil
		title.Category = nil
		if err := s.resolveRefs(title, *upd.Category, genres); err != nil {
			return nil, err
		}
	} else if err := s.resolveRefs(title, "", genres); err != nil {
		return nil, err
	}
	if err := s.titleRepo.Update(title); err != nil {
		return nil, err
	}
	return s.GetTitle(id)
}

// GetTitle retrieves a title with its rating computed from current reviews.
func (s *CatalogService) GetTitle(id uint) (*models.Title, error) {
	title, err := s.titleRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	ratings, err := s.titleRepo.RatingsByTitle([]uint{id})
	if err != nil {
		return nil, err
	}
	attachRating(title, ratings)
	return title, nil
}

// ListTitles retrieves a page of titles. Ratings for the whole page come
// from one aggregate query, never one query per title.
func (s *CatalogService) ListTitles(filter repositories.TitleFilter) ([]models.Title, error) {
	titles, err := s.titleRepo.List(filter)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, len(titles))
	for i := range titles {
		ids[i] = titles[i].ID
	}
	ratings, err := s.titleRepo.RatingsByTitle(ids)
	if err != nil {
		return nil, err
	}
	for i := range titles {
		attachRating(&titles[i], ratings)
	}
	return titles, nil
}

// DeleteTitle removes a title and cascades to its reviews and their
// comments.
func (s *CatalogService) DeleteTitle(id uint) error {
	return s.titleRepo.Delete(id)
}

func (s *CatalogService) resolveRefs(title *models.Title, category string, genres []string) error {
	if category != "" {
		cat, err := s.categoryRepo.GetBySlug(category)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return fmt.Errorf("unknown category %q: %w", category, apperrors.ErrValidation)
			}
			return err
		}
		title.CategoryID = &cat.ID
		title.Category = cat
	}
	if len(genres) > 0 {
		resolved, err := s.genreRepo.GetBySlugs(genres)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return fmt.Errorf("unknown genre slug: %w", apperrors.ErrValidation)
			}
			return err
		}
		title.Genres = resolved
	}
	return nil
}

func checkYear(year int) error {
	if year > time.Now().Year() {
		return fmt.Errorf("year %d is in the future: %w", year, apperrors.ErrValidation)
	}
	return nil
}

// attachRating sets the two-decimal mean score, or leaves Rating nil when
// the title has no reviews. A missing rating is never rendered as zero.
func attachRating(title *models.Title, ratings map[uint]float64) {
	if avg, ok := ratings[title.ID]; ok {
		rounded := math.Round(avg*100) / 100
		title.Rating = &rounded
	}
}
