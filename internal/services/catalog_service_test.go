package services_test

import (
	"testing"
	"time"

	"reviewhub/internal/apperrors"
	"reviewhub/internal/models"
	"reviewhub/internal/repositories"
	"reviewhub/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockCategoryRepository is a mock implementation of repositories.CategoryRepository
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) Create(category *models.Category) error {
	args := m.Called(category)
	return args.Error(0)
}

func (m *MockCategoryRepository) GetBySlug(slug string) (*models.Category, error) {
	args := m.Called(slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockCategoryRepository) List(search string, limit, offset int) ([]models.Category, error) {
	args := m.Called(search, limit, offset)
	return args.Get(0).([]models.Category), args.Error(1)
}

func (m *MockCategoryRepository) Delete(slug string) error {
	args := m.Called(slug)
	return args.Error(0)
}

// MockGenreRepository is a mock implementation of repositories.GenreRepository
type MockGenreRepository struct {
	mock.Mock
}

func (m *MockGenreRepository) Create(genre *models.Genre) error {
	args := m.Called(genre)
	return args.Error(0)
}

func (m *MockGenreRepository) GetBySlug(slug string) (*models.Genre, error) {
	args := m.Called(slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Genre), args.Error(1)
}

func (m *MockGenreRepository) GetBySlugs(slugs []string) ([]models.Genre, error) {
	args := m.Called(slugs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Genre), args.Error(1)
}

func (m *MockGenreRepository) List(search string, limit, offset int) ([]models.Genre, error) {
	args := m.Called(search, limit, offset)
	return args.Get(0).([]models.Genre), args.Error(1)
}

func (m *MockGenreRepository) Delete(slug string) error {
	args := m.Called(slug)
	return args.Error(0)
}

// MockTitleRepository is a mock implementation of repositories.TitleRepository
type MockTitleRepository struct {
	mock.Mock
}

func (m *MockTitleRepository) Create(title *models.Title) error {
	args := m.Called(title)
	return args.Error(0)
}

func (m *MockTitleRepository) Update(title *models.Title) error {
	args := m.Called(title)
	return args.Error(0)
}

func (m *MockTitleRepository) GetByID(id uint) (*models.Title, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Title), args.Error(1)
}

func (m *MockTitleRepository) List(filter repositories.TitleFilter) ([]models.Title, error) {
	args := m.Called(filter)
	return args.Get(0).([]models.Title), args.Error(1)
}

func (m *MockTitleRepository) Delete(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockTitleRepository) RatingsByTitle(titleIDs []uint) (map[uint]float64, error) {
	args := m.Called(titleIDs)
	return args.Get(0).(map[uint]float64), args.Error(1)
}

func newCatalogService() (*services.CatalogService, *MockCategoryRepository, *MockGenreRepository, *MockTitleRepository) {
	categoryRepo := new(MockCategoryRepository)
	genreRepo := new(MockGenreRepository)
	titleRepo := new(MockTitleRepository)
	return services.NewCatalogService(categoryRepo, genreRepo, titleRepo), categoryRepo, genreRepo, titleRepo
}

func TestCatalogService_CreateTitle_FutureYearRejected(t *testing.T) {
	service, _, _, titleRepo := newCatalogService()

	_, err := service.CreateTitle(services.TitleInput{
		Name: "Time Machine Chronicles",
		Year: time.Now().Year() + 1,
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	titleRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestCatalogService_CreateTitle_UnknownCategory(t *testing.T) {
	service, categoryRepo, _, titleRepo := newCatalogService()

	categoryRepo.On("GetBySlug", "nope").Return(nil, apperrors.ErrNotFound).Once()

	_, err := service.CreateTitle(services.TitleInput{
		Name:     "Some Film",
		Year:     2001,
		Category: "nope",
	})
	// An unknown slug in the request body is a malformed request, not a
	// missing resource.
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	titleRepo.AssertNotCalled(t, "Create", mock.Anything)
	categoryRepo.AssertExpectations(t)
}

func TestCatalogService_CreateTitle_ResolvesRefs(t *testing.T) {
	service, categoryRepo, genreRepo, titleRepo := newCatalogService()

	category := &models.Category{ID: 3, Name: "Movies", Slug: "movies"}
	genres := []models.Genre{{ID: 1, Name: "Drama", Slug: "drama"}}
	categoryRepo.On("GetBySlug", "movies").Return(category, nil).Once()
	genreRepo.On("GetBySlugs", []string{"drama"}).Return(genres, nil).Once()
	titleRepo.On("Create", mock.AnythingOfType("*models.Title")).Run(func(args mock.Arguments) {
		title := args.Get(0).(*models.Title)
		title.ID = 42
		assert.Equal(t, uint(3), *title.CategoryID)
		assert.Equal(t, genres, title.Genres)
	}).Return(nil).Once()
	stored := &models.Title{ID: 42, Name: "Some Film", Year: 2001, Category: category, Genres: genres}
	titleRepo.On("GetByID", uint(42)).Return(stored, nil).Once()
	titleRepo.On("RatingsByTitle", []uint{42}).Return(map[uint]float64{}, nil).Once()

	title, err := service.CreateTitle(services.TitleInput{
		Name:     "Some Film",
		Year:     2001,
		Category: "movies",
		Genres:   []string{"drama"},
	})
	assert.NoError(t, err)
	assert.Nil(t, title.Rating) // no reviews yet, never zero
	categoryRepo.AssertExpectations(t)
	genreRepo.AssertExpectations(t)
	titleRepo.AssertExpectations(t)
}

func TestCatalogService_ListTitles_OneAggregateQueryPerPage(t *testing.T) {
	service, _, _, titleRepo := newCatalogService()

	titles := []models.Title{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}, {ID: 3, Name: "C"}}
	filter := repositories.TitleFilter{Limit: 10}
	titleRepo.On("List", filter).Return(titles, nil).Once()
	// One GROUP BY for the whole page, not one query per title.
	titleRepo.On("RatingsByTitle", []uint{1, 2, 3}).Return(map[uint]float64{
		1: 7.456,
		2: 5,
	}, nil).Once()

	got, err := service.ListTitles(filter)
	assert.NoError(t, err)
	assert.Len(t, got, 3)
	assert.InDelta(t, 7.46, *got[0].Rating, 0.0001) // rounded to two decimals
	assert.InDelta(t, 5.0, *got[1].Rating, 0.0001)
	assert.Nil(t, got[2].Rating)
	titleRepo.AssertExpectations(t)
}

func TestCatalogService_GetTitle_RatingRounding(t *testing.T) {
	service, _, _, titleRepo := newCatalogService()

	titleRepo.On("GetByID", uint(7)).Return(&models.Title{ID: 7, Name: "A"}, nil).Twice()
	titleRepo.On("RatingsByTitle", []uint{7}).Return(map[uint]float64{7: 5.0 / 3.0}, nil).Once()

	title, err := service.GetTitle(7)
	assert.NoError(t, err)
	assert.InDelta(t, 1.67, *title.Rating, 0.0001)

	titleRepo.On("RatingsByTitle", []uint{7}).Return(map[uint]float64{}, nil).Once()
	title, err = service.GetTitle(7)
	assert.NoError(t, err)
	assert.Nil(t, title.Rating)
	titleRepo.AssertExpectations(t)
}

func TestCatalogService_UpdateTitle_FutureYearRejected(t *testing.T) {
	service, _, _, titleRepo := newCatalogService()

	titleRepo.On("GetByID", uint(1)).Return(&models.Title{ID: 1, Name: "A", Year: 1999}, nil).Once()
	badYear := time.Now().Year() + 5
	_, err := service.UpdateTitle(1, services.TitleUpdate{Year: &badYear})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	titleRepo.AssertNotCalled(t, "Update", mock.Anything)
}

func TestCatalogService_DeleteCategory(t *testing.T) {
	service, categoryRepo, _, _ := newCatalogService()

	categoryRepo.On("Delete", "movies").Return(nil).Once()
	assert.NoError(t, service.DeleteCategory("movies"))

	categoryRepo.On("Delete", "ghost").Return(apperrors.ErrNotFound).Once()
	assert.ErrorIs(t, service.DeleteCategory("ghost"), apperrors.ErrNotFound)
	categoryRepo.AssertExpectations(t)
}
