// Package importer loads the store from delimited-text fixtures. It is a
// one-shot bootstrap tool, not part of the request path.
package importer

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"reviewhub/internal/models"

	"gorm.io/gorm"
)

// Loader populates the database from a fixtures directory containing
// category.csv, genre.csv, titles.csv, genre_title.csv, users.csv,
// review.csv and comments.csv. The whole load happens in one transaction:
// either every fixture lands or none does.
type Loader struct {
	db *gorm.DB
}

// New creates a Loader.
func New(db *gorm.DB) *Loader {
	return &Loader{db: db}
}

// Load reads every fixture file from dir and inserts the rows.
func (l *Loader) Load(dir string) error {
	return l.db.Transaction(func(tx *gorm.DB) error {
		if err := l.loadUsers(tx, filepath.Join(dir, "users.csv")); err != nil {
			return err
		}
		if err := l.loadCategories(tx, filepath.Join(dir, "category.csv")); err != nil {
			return err
		}
		if err := l.loadGenres(tx, filepath.Join(dir, "genre.csv")); err != nil {
			return err
		}
		if err := l.loadTitles(tx, filepath.Join(dir, "titles.csv")); err != nil {
			return err
		}
		if err := l.loadGenreLinks(tx, filepath.Join(dir, "genre_title.csv")); err != nil {
			return err
		}
		if err := l.loadReviews(tx, filepath.Join(dir, "review.csv")); err != nil {
			return err
		}
		return l.loadComments(tx, filepath.Join(dir, "comments.csv"))
	})
}

// readRecords reads a CSV file into header-keyed rows.
func readRecords(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixture %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse fixture %s: %w", path, err)
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("fixture %s has no header row", path)
	}
	header := rows[0]
	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(row) {
				record[col] = row[i]
			}
		}
		records = append(records, record)
	}
	return records, nil
}

func parseUint(record map[string]string, col string) (uint, error) {
	v, err := strconv.ParseUint(record[col], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad %s value %q: %w", col, record[col], err)
	}
	return uint(v), nil
}

func parseDate(value string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Now()
}

func (l *Loader) loadUsers(tx *gorm.DB, path string) error {
	records, err := readRecords(path)
	if err != nil {
		return err
	}
	for _, record := range records {
		role := models.UserRole(record["role"])
		if !models.ValidRole(string(role)) {
			role = models.RoleUser
		}
		user := models.User{
			ID:        record["id"],
			Username:  record["username"],
			Email:     record["email"],
			Role:      role,
			Bio:       record["bio"],
			FirstName: record["first_name"],
			LastName:  record["last_name"],
		}
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to import user %s: %w", user.Username, err)
		}
	}
	return nil
}

func (l *Loader) loadCategories(tx *gorm.DB, path string) error {
	records, err := readRecords(path)
	if err != nil {
		return err
	}
	for _, record := range records {
		id, err := parseUint(record, "id")
		if err != nil {
			return err
		}
		category := models.Category{ID: id, Name: record["name"], Slug: record["slug"]}
		if err := tx.Create(&category).Error; err != nil {
			return fmt.Errorf("failed to import category %s: %w", category.Slug, err)
		}
	}
	return nil
}

func (l *Loader) loadGenres(tx *gorm.DB, path string) error {
	records, err := readRecords(path)
	if err != nil {
		return err
	}
	for _, record := range records {
		id, err := parseUint(record, "id")
		if err != nil {
			return err
		}
		genre := models.Genre{ID: id, Name: record["name"], Slug: record["slug"]}
		if err := tx.Create(&genre).Error; err != nil {
			return fmt.Errorf("failed to import genre %s: %w", genre.Slug, err)
		}
	}
	return nil
}

func (l *Loader) loadTitles(tx *gorm.DB, path string) error {
	records, err := readRecords(path)
	if err != nil {
		return err
	}
	for _, record := range records {
		id, err := parseUint(record, "id")
		if err != nil {
			return err
		}
		year, err := strconv.Atoi(record["year"])
		if err != nil {
			return fmt.Errorf("bad year value %q: %w", record["year"], err)
		}
		title := models.Title{
			ID:          id,
			Name:        record["name"],
			Year:        year,
			Description: record["description"],
		}
		if record["category"] != "" {
			categoryID, err := parseUint(record, "category")
			if err != nil {
				return err
			}
			title.CategoryID = &categoryID
		}
		if err := tx.Create(&title).Error; err != nil {
			return fmt.Errorf("failed to import title %s: %w", title.Name, err)
		}
	}
	return nil
}

func (l *Loader) loadGenreLinks(tx *gorm.DB, path string) error {
	records, err := readRecords(path)
	if err != nil {
		return err
	}
	for _, record := range records {
		titleID, err := parseUint(record, "title_id")
		if err != nil {
			return err
		}
		genreID, err := parseUint(record, "genre_id")
		if err != nil {
			return err
		}
		if err := tx.Exec("INSERT INTO title_genres (title_id, genre_id) VALUES (?, ?)", titleID, genreID).Error; err != nil {
			return fmt.Errorf("failed to link title %d to genre %d: %w", titleID, genreID, err)
		}
	}
	return nil
}

func (l *Loader) loadReviews(tx *gorm.DB, path string) error {
	records, err := readRecords(path)
	if err != nil {
		return err
	}
	for _, record := range records {
		id, err := parseUint(record, "id")
		if err != nil {
			return err
		}
		titleID, err := parseUint(record, "title_id")
		if err != nil {
			return err
		}
		score, err := strconv.Atoi(record["score"])
		if err != nil {
			return fmt.Errorf("bad score value %q: %w", record["score"], err)
		}
		review := models.Review{
			ID:       id,
			TitleID:  titleID,
			AuthorID: record["author"],
			Text:     record["text"],
			Score:    score,
			PubDate:  parseDate(record["pub_date"]),
		}
		if err := tx.Create(&review).Error; err != nil {
			return fmt.Errorf("failed to import review %d: %w", id, err)
		}
	}
	return nil
}

func (l *Loader) loadComments(tx *gorm.DB, path string) error {
	records, err := readRecords(path)
	if err != nil {
		return err
	}
	for _, record := range records {
		id, err := parseUint(record, "id")
		if err != nil {
			return err
		}
		reviewID, err := parseUint(record, "review_id")
		if err != nil {
			return err
		}
		comment := models.Comment{
			ID:       id,
			ReviewID: reviewID,
			AuthorID: record["author"],
			Text:     record["text"],
			PubDate:  parseDate(record["pub_date"]),
		}
		if err := tx.Create(&comment).Error; err != nil {
			return fmt.Errorf("failed to import comment %d: %w", id, err)
		}
	}
	return nil
}
