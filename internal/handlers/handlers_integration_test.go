package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"reviewhub/internal/handlers"
	"reviewhub/internal/middleware"
	"reviewhub/internal/models"
	"reviewhub/internal/repositories"
	"reviewhub/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testJWTSecret = "integration-test-secret"

// recordingSender captures confirmation codes by username instead of
// delivering them, standing in for the SMTP mailer.
type recordingSender struct {
	codes map[string]string
}

func (s *recordingSender) SendConfirmationCode(email, username, code string) error {
	s.codes[username] = code
	return nil
}

type testEnv struct {
	app    *fiber.App
	db     *gorm.DB
	sender *recordingSender
}

// newTestEnv wires the whole API against a fresh in-memory database, the
// same way main does it, with the mailer swapped for a recorder.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Genre{},
		&models.Title{},
		&models.Review{},
		&models.Comment{},
	))

	userRepo := repositories.NewGORMUserRepository(db)
	categoryRepo := repositories.NewGORMCategoryRepository(db)
	genreRepo := repositories.NewGORMGenreRepository(db)
	titleRepo := repositories.NewGORMTitleRepository(db)
	reviewRepo := repositories.NewGORMReviewRepository(db)
	commentRepo := repositories.NewGORMCommentRepository(db)

	sender := &recordingSender{codes: make(map[string]string)}
	authService := services.NewAuthService(userRepo, sender, testJWTSecret)
	userService := services.NewUserService(userRepo)
	catalogService := services.NewCatalogService(categoryRepo, genreRepo, titleRepo)
	feedbackService := services.NewFeedbackService(titleRepo, reviewRepo, commentRepo)

	app := fiber.New()
	apiV1 := app.Group("/api/v1")
	handlers.NewAuthHandler(authService).RegisterRoutes(apiV1)
	handlers.NewUserHandler(userService).RegisterRoutes(apiV1, middleware.AuthRequired(authService))
	handlers.NewCatalogHandler(catalogService).RegisterRoutes(apiV1, middleware.AuthOptional(authService))
	handlers.NewFeedbackHandler(feedbackService).RegisterRoutes(apiV1, middleware.AuthOptional(authService))

	return &testEnv{app: app, db: db, sender: sender}
}

// request performs a JSON request against the app and returns the response.
func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

// registerUser walks the full signup/token flow for a fresh account and
// returns a bearer token. An elevated role is applied before the exchange
// so the token carries it.
func (e *testEnv) registerUser(t *testing.T, username string, role models.UserRole) string {
	t.Helper()

	resp := e.request(t, http.MethodPost, "/api/v1/auth/signup", "", fiber.Map{
		"username": username,
		"email":    username + "@example.com",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	code, ok := e.sender.codes[username]
	require.True(t, ok, "no confirmation code delivered for %s", username)

	if role != models.RoleUser {
		require.NoError(t, e.db.Model(&models.User{}).
			Where("username = ?", username).
			Update("role", role).Error)
	}

	resp = e.request(t, http.MethodPost, "/api/v1/auth/token", "", fiber.Map{
		"username":          username,
		"confirmation_code": code,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var body struct {
		Token string `json:"token"`
	}
	decodeBody(t, resp, &body)
	require.NotEmpty(t, body.Token)
	return body.Token
}

func TestSignupAndTokenFlow(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPost, "/api/v1/auth/signup", "", fiber.Map{
		"username": "bob",
		"email":    "bob@example.com",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	firstCode := env.sender.codes["bob"]
	require.NotEmpty(t, firstCode)

	// A wrong code is rejected without consuming the stored one.
	resp = env.request(t, http.MethodPost, "/api/v1/auth/token", "", fiber.Map{
		"username":          "bob",
		"confirmation_code": "not-the-code",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.request(t, http.MethodPost, "/api/v1/auth/token", "", fiber.Map{
		"username":          "bob",
		"confirmation_code": firstCode,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var tokenBody struct {
		Token string `json:"token"`
	}
	decodeBody(t, resp, &tokenBody)

	// The token opens the self-service profile.
	resp = env.request(t, http.MethodGet, "/api/v1/users/me", tokenBody.Token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var me models.User
	decodeBody(t, resp, &me)
	assert.Equal(t, "bob", me.Username)
	assert.Equal(t, models.RoleUser, me.Role)

	// Re-signing up with the same pair rotates the code instead of failing.
	resp = env.request(t, http.MethodPost, "/api/v1/auth/signup", "", fiber.Map{
		"username": "bob",
		"email":    "bob@example.com",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEqual(t, firstCode, env.sender.codes["bob"])

	// A taken username under a different email is a conflict.
	resp = env.request(t, http.MethodPost, "/api/v1/auth/signup", "", fiber.Map{
		"username": "bob",
		"email":    "impostor@example.com",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Tokens for unknown users point at a missing resource.
	resp = env.request(t, http.MethodPost, "/api/v1/auth/token", "", fiber.Map{
		"username":          "ghost",
		"confirmation_code": "whatever",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// The reserved username never registers.
	resp = env.request(t, http.MethodPost, "/api/v1/auth/signup", "", fiber.Map{
		"username": "me",
		"email":    "me@example.com",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCatalogPermissions(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.registerUser(t, "admin", models.RoleAdmin)
	userToken := env.registerUser(t, "plain", models.RoleUser)

	category := fiber.Map{"name": "Movies", "slug": "movies"}

	// Anonymous and plain users cannot write the catalog.
	resp := env.request(t, http.MethodPost, "/api/v1/categories/", "", category)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = env.request(t, http.MethodPost, "/api/v1/categories/", userToken, category)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.request(t, http.MethodPost, "/api/v1/categories/", adminToken, category)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = env.request(t, http.MethodPost, "/api/v1/genres/", adminToken, fiber.Map{"name": "Drama", "slug": "drama"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	// A malformed slug fails validation.
	resp = env.request(t, http.MethodPost, "/api/v1/genres/", adminToken, fiber.Map{"name": "Bad", "slug": "no spaces!"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.request(t, http.MethodPost, "/api/v1/titles/", adminToken, fiber.Map{
		"name":     "Quiet Drama",
		"year":     2001,
		"category": "movies",
		"genre":    []string{"drama"},
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var title models.Title
	decodeBody(t, resp, &title)
	assert.Nil(t, title.Rating)
	require.NotNil(t, title.Category)
	assert.Equal(t, "movies", title.Category.Slug)

	// A title pointing at an unknown category is a bad request, not a 404.
	resp = env.request(t, http.MethodPost, "/api/v1/titles/", adminToken, fiber.Map{
		"name":     "Orphan",
		"year":     2001,
		"category": "ghost",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Reads stay open to everyone.
	resp = env.request(t, http.MethodGet, "/api/v1/titles/?genre=drama", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var titles []models.Title
	decodeBody(t, resp, &titles)
	require.Len(t, titles, 1)
	assert.Equal(t, "Quiet Drama", titles[0].Name)

	resp = env.request(t, http.MethodDelete, "/api/v1/categories/movies", userToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = env.request(t, http.MethodDelete, "/api/v1/categories/movies", adminToken, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// The title survives the category deletion with a null category.
	resp = env.request(t, http.MethodGet, fmt.Sprintf("/api/v1/titles/%d", title.ID), "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var orphaned models.Title
	decodeBody(t, resp, &orphaned)
	assert.Nil(t, orphaned.Category)
}

func TestReviewLifecycle(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.registerUser(t, "admin", models.RoleAdmin)
	bobToken := env.registerUser(t, "bob", models.RoleUser)
	aliceToken := env.registerUser(t, "alice", models.RoleUser)
	modToken := env.registerUser(t, "mod", models.RoleModerator)

	resp := env.request(t, http.MethodPost, "/api/v1/titles/", adminToken, fiber.Map{
		"name": "Reviewed Work", "year": 1999,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var title models.Title
	decodeBody(t, resp, &title)
	reviewsPath := fmt.Sprintf("/api/v1/titles/%d/reviews/", title.ID)

	// Anonymous callers cannot review.
	resp = env.request(t, http.MethodPost, reviewsPath, "", fiber.Map{"text": "nope", "score": 5})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Scores outside [1, 10] are rejected.
	resp = env.request(t, http.MethodPost, reviewsPath, bobToken, fiber.Map{"text": "too high", "score": 11})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.request(t, http.MethodPost, reviewsPath, bobToken, fiber.Map{"text": "loved it", "score": 8})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var bobsReview models.Review
	decodeBody(t, resp, &bobsReview)
	assert.Equal(t, "bob", bobsReview.AuthorUsername)

	// One review per author per title.
	resp = env.request(t, http.MethodPost, reviewsPath, bobToken, fiber.Map{"text": "again", "score": 2})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.request(t, http.MethodPost, reviewsPath, aliceToken, fiber.Map{"text": "fine", "score": 5})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var alicesReview models.Review
	decodeBody(t, resp, &alicesReview)

	// The rating is the mean of both scores.
	resp = env.request(t, http.MethodGet, fmt.Sprintf("/api/v1/titles/%d", title.ID), "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var rated models.Title
	decodeBody(t, resp, &rated)
	require.NotNil(t, rated.Rating)
	assert.InDelta(t, 6.5, *rated.Rating, 0.0001)

	// Alice cannot touch bob's review, but a moderator can.
	bobsPath := fmt.Sprintf("/api/v1/titles/%d/reviews/%d", title.ID, bobsReview.ID)
	resp = env.request(t, http.MethodDelete, bobsPath, aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = env.request(t, http.MethodDelete, bobsPath, modToken, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Comments live under alice's review; the author edits their own.
	commentsPath := fmt.Sprintf("/api/v1/titles/%d/reviews/%d/comments/", title.ID, alicesReview.ID)
	resp = env.request(t, http.MethodPost, commentsPath, bobToken, fiber.Map{"text": "agreed"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var comment models.Comment
	decodeBody(t, resp, &comment)
	assert.Equal(t, "bob", comment.AuthorUsername)

	commentPath := fmt.Sprintf("%s%d", commentsPath, comment.ID)
	resp = env.request(t, http.MethodPatch, commentPath, aliceToken, fiber.Map{"text": "hijacked"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = env.request(t, http.MethodPatch, commentPath, bobToken, fiber.Map{"text": "still agreed"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// A comment against a review that is gone is a 404.
	goneComments := fmt.Sprintf("/api/v1/titles/%d/reviews/%d/comments/", title.ID, bobsReview.ID)
	resp = env.request(t, http.MethodPost, goneComments, bobToken, fiber.Map{"text": "too late"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// After the moderator's delete only alice's score counts.
	resp = env.request(t, http.MethodGet, fmt.Sprintf("/api/v1/titles/%d", title.ID), "", nil)
	var rerated models.Title
	decodeBody(t, resp, &rerated)
	require.NotNil(t, rerated.Rating)
	assert.InDelta(t, 5.0, *rerated.Rating, 0.0001)
}

func TestUserAdministrationAndProfile(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.registerUser(t, "admin", models.RoleAdmin)
	bobToken := env.registerUser(t, "bob", models.RoleUser)

	// The administrative collection is closed to non-admins, reads included.
	resp := env.request(t, http.MethodGet, "/api/v1/users/", bobToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = env.request(t, http.MethodGet, "/api/v1/users/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.request(t, http.MethodGet, "/api/v1/users/", adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var users []models.User
	decodeBody(t, resp, &users)
	assert.Len(t, users, 2)

	// An admin may create an account with an elevated role directly.
	resp = env.request(t, http.MethodPost, "/api/v1/users/", adminToken, fiber.Map{
		"username": "newmod",
		"email":    "newmod@example.com",
		"role":     "moderator",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.User
	decodeBody(t, resp, &created)
	assert.Equal(t, models.RoleModerator, created.Role)

	// Self-service profile updates work but never change the role.
	resp = env.request(t, http.MethodPatch, "/api/v1/users/me", bobToken, fiber.Map{
		"bio": "hello",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var me models.User
	decodeBody(t, resp, &me)
	assert.Equal(t, "hello", me.Bio)
	assert.Equal(t, models.RoleUser, me.Role)

	resp = env.request(t, http.MethodPatch, "/api/v1/users/me", bobToken, fiber.Map{
		"role": "admin",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// The admin path may change roles.
	resp = env.request(t, http.MethodPatch, "/api/v1/users/bob", adminToken, fiber.Map{
		"role": "moderator",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var promoted models.User
	decodeBody(t, resp, &promoted)
	assert.Equal(t, models.RoleModerator, promoted.Role)

	// Deleting an account removes it for good.
	resp = env.request(t, http.MethodDelete, "/api/v1/users/bob", adminToken, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = env.request(t, http.MethodGet, "/api/v1/users/bob", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
